package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/aidetect/aidetect/internal/controller"
	"github.com/aidetect/aidetect/internal/detector"
	"github.com/aidetect/aidetect/internal/http/viewmodels"
	"github.com/aidetect/aidetect/internal/http/views"
	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v5"
)

const (
	imageFormField = "image"
	sniffLen       = 512

	buttonLabelIdle     = "Detect"
	buttonLabelInFlight = "Analyzing..."
)

var (
	errNoUpload       = errors.New("no file uploaded")
	errNotImage       = errors.New("uploaded file is not an image")
	errUploadTooLarge = errors.New("uploaded file is too large")
)

// HandleIndex renders the detection page for the session's controller.
func (h *Handlers) HandleIndex(c *echo.Context) error {
	ctrl := h.controllerFor(c)
	snap := ctrl.Snapshot()
	token := csrfToken(c)

	data := viewmodels.DetectPageViewData{
		Layout: viewmodels.LayoutData{
			Title:     pageTitle,
			CSRFToken: token,
			Toast:     popFlashToast(c),
		},
		Status: backendStatusViewData(snap.Connectivity),
		Panel:  detectPanelViewData(snap, token),
	}
	return h.RenderComponent(c, views.DetectPage(data))
}

// HandleSelectImage stores the uploaded "image" as the session's selected image. A post without
// a file leaves the selection untouched.
func (h *Handlers) HandleSelectImage(c *echo.Context) error {
	ctrl := h.controllerFor(c)

	img, err := h.readUpload(c)
	switch {
	case errors.Is(err, errNoUpload):
	case errors.Is(err, errNotImage):
		return h.rejectUpload(c, ctrl, "Please choose an image file.")
	case errors.Is(err, errUploadTooLarge):
		return h.rejectUpload(c, ctrl, h.tooLargeMessage())
	case err != nil:
		return h.rejectUpload(c, ctrl, "The upload could not be read.")
	default:
		if err := ctrl.SelectImage(img); err != nil {
			return h.RenderError(c, err)
		}
	}

	return h.respondFragment(c, func() error {
		return h.renderPanel(c, ctrl, "")
	})
}

// HandleUploadTooLarge answers an upload whose body was refused before the form could be read, with
// the same notice (htmx) or toast and redirect (plain form post) as any other rejected upload.
func (h *Handlers) HandleUploadTooLarge(c *echo.Context) error {
	return h.rejectUpload(c, h.controllerFor(c), h.tooLargeMessage())
}

func (h *Handlers) tooLargeMessage() string {
	return fmt.Sprintf("Images must be %s or smaller.", humanize.Bytes(uint64(h.Cfg.MaxUploadBytes)))
}

// HandleDetect submits the selected image. Precondition and in-flight rejections are reflected in
// the rendered panel rather than as HTTP errors.
func (h *Handlers) HandleDetect(c *echo.Context) error {
	ctrl := h.controllerFor(c)

	if _, err := ctrl.Submit(); err != nil {
		switch {
		case errors.Is(err, controller.ErrNoImageSelected), errors.Is(err, controller.ErrRequestInFlight):
			c.Logger().Debug("detect submit rejected", "controller_id", ctrl.ID(), "reason", err)
		default:
			return h.RenderError(c, err)
		}
	}

	return h.respondFragment(c, func() error {
		return h.renderPanel(c, ctrl, "")
	})
}

// HandlePanel renders the current panel fragment; in-flight panels poll it until the outcome lands.
func (h *Handlers) HandlePanel(c *echo.Context) error {
	return h.renderPanel(c, h.controllerFor(c), "")
}

// HandleStatus renders the backend connectivity line.
func (h *Handlers) HandleStatus(c *echo.Context) error {
	snap := h.controllerFor(c).Snapshot()
	return h.RenderComponent(c, views.BackendStatus(backendStatusViewData(snap.Connectivity)))
}

// HandlePreview serves the preview of the session's currently selected image.
func (h *Handlers) HandlePreview(c *echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" || h.Previews == nil {
		return RenderNotFound(c)
	}
	if h.controllerFor(c).Snapshot().PreviewID != id {
		return RenderNotFound(c)
	}
	p, ok := h.Previews.Get(id)
	if !ok {
		return RenderNotFound(c)
	}

	contentType := p.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Response().Header().Set("Cache-Control", "private, max-age=3600")
	return c.Blob(http.StatusOK, contentType, p.Data)
}

func (h *Handlers) renderPanel(c *echo.Context, ctrl *controller.Controller, notice string) error {
	data := detectPanelViewData(ctrl.Snapshot(), csrfToken(c))
	data.Notice = notice
	return h.RenderComponent(c, views.DetectPanel(data))
}

func (h *Handlers) rejectUpload(c *echo.Context, ctrl *controller.Controller, message string) error {
	c.Logger().Info("image upload rejected", "controller_id", ctrl.ID(), "reason", message)
	addVary(c, "HX-Request")
	if isHX(c) {
		return h.renderPanel(c, ctrl, message)
	}
	setFlashToast(c, "error", "Upload rejected", message)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handlers) readUpload(c *echo.Context) (*detector.Image, error) {
	fh, err := c.FormFile(imageFormField)
	if err != nil {
		return nil, classifyUploadError(err)
	}
	if h.Cfg.MaxUploadBytes > 0 && fh.Size > h.Cfg.MaxUploadBytes {
		return nil, errUploadTooLarge
	}
	if strings.TrimSpace(fh.Filename) == "" {
		return nil, errNoUpload
	}

	data, err := readFileHeader(fh)
	if err != nil {
		return nil, classifyUploadError(err)
	}

	contentType := imageContentType(fh.Header.Get("Content-Type"), data)
	if contentType == "" {
		return nil, errNotImage
	}
	return &detector.Image{
		Filename:    fh.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func classifyUploadError(err error) error {
	if errors.Is(err, http.ErrMissingFile) {
		return errNoUpload
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		return errUploadTooLarge
	}
	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() == http.StatusRequestEntityTooLarge {
		return errUploadTooLarge
	}
	return err
}

type statusCoder interface {
	StatusCode() int
}

// imageContentType mirrors the picker's image/* filter: the declared type wins when it is an
// image type, otherwise the content is sniffed. It returns "" for non-images.
func imageContentType(declared string, data []byte) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	sniffed := http.DetectContentType(head)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	return ""
}

func backendStatusViewData(conn controller.Connectivity) viewmodels.BackendStatusViewData {
	data := viewmodels.BackendStatusViewData{Label: conn.String()}
	switch conn {
	case controller.ConnectivityConnected:
		data.Class = "status-connected"
	case controller.ConnectivityDisconnected:
		data.Class = "status-disconnected"
	default:
		data.Class = "status-unknown"
		data.Pending = true
	}
	return data
}

func detectPanelViewData(snap controller.Snapshot, token string) viewmodels.DetectPanelViewData {
	data := viewmodels.DetectPanelViewData{
		CSRFToken:   token,
		HasImage:    snap.HasImage,
		Filename:    snap.Filename,
		PreviewURL:  views.PreviewURL(snap.PreviewID),
		InFlight:    snap.InFlight(),
		ButtonLabel: buttonLabelIdle,
		Error:       snap.Error,
	}
	if snap.HasImage {
		data.SizeLabel = views.FormatBytes(snap.Size)
	}
	if data.InFlight {
		data.ButtonLabel = buttonLabelInFlight
	}
	if snap.Result != nil {
		res := detectResultViewData(*snap.Result)
		data.Result = &res
	}
	return data
}

func detectResultViewData(r detector.Result) viewmodels.DetectResultViewData {
	return viewmodels.DetectResultViewData{
		Classification:  r.Classification,
		ConfidenceLabel: views.FormatConfidence(r.Confidence),
		BarWidth:        views.ConfidenceBarWidth(r.Confidence),
		Positive:        views.IsPositive(r.Classification),
		Class:           views.ResultClass(r.Classification),
	}
}
