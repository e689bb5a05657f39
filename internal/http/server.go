package httpapp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aidetect/aidetect/internal/config"
	"github.com/aidetect/aidetect/internal/controller"
	"github.com/aidetect/aidetect/internal/http/handlers"
	"github.com/aidetect/aidetect/internal/preview"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
)

const (
	sessionCookieName = "aidetect_session"
	requestIDHeader   = echo.HeaderXRequestID
	uploadPath        = "/image"

	// multipartOverhead is the room left above MaxUploadBytes for boundaries and form fields.
	multipartOverhead = 64 << 10
)

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h        *handlers.Handlers
	e        *echo.Echo
	sessions *scs.SessionManager
}

// NewEchoServer creates a new HTTP server.
func NewEchoServer(cfg config.Config, reg *controller.Registry, previews *preview.Store, logger *slog.Logger) *EchoServer {
	if logger == nil {
		logger = slog.Default()
	}

	sessions := scs.New()
	sessions.IdleTimeout = cfg.SessionIdleTTL
	sessions.Cookie.Name = sessionCookieName
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.Path = "/"
	sessions.Cookie.SameSite = http.SameSiteLaxMode
	sessions.Cookie.Secure = cfg.SessionCookieSecure
	sessions.ErrorFunc = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("session error", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}

	h := &handlers.Handlers{
		Cfg:         cfg,
		Sessions:    sessions,
		Controllers: reg,
		Previews:    previews,
	}

	e := echo.New()
	e.Logger = logger
	es := &EchoServer{h: h, e: e, sessions: sessions}
	e.HTTPErrorHandler = es.httpErrorHandler
	es.registerRoutes()
	return es
}

func (es *EchoServer) registerRoutes() {
	es.e.Use(middleware.Recover())
	es.e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c *echo.Context, requestID string) {
			c.Set(handlers.ContextKeyRequestID, requestID)
		},
	}))
	es.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:     true,
		LogURIPath:    true,
		LogStatus:     true,
		LogLatency:    true,
		LogRequestID:  true,
		LogValuesFunc: es.logRequest,
	}))

	es.e.GET("/healthz", es.h.HandleHealthz)

	app := es.e.Group("")
	// The size cap runs before CSRF so an oversized plain form post is answered by
	// httpErrorHandler instead of failing the form token lookup.
	app.Use(middleware.BodyLimit(es.h.Cfg.MaxUploadBytes + multipartOverhead))
	app.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:" + echo.HeaderXCSRFToken + ",form:csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
	}))
	app.GET("/", es.h.HandleIndex)
	app.GET("/panel", es.h.HandlePanel)
	app.GET("/status", es.h.HandleStatus)
	app.GET("/preview/:id", es.h.HandlePreview)
	app.POST(uploadPath, es.h.HandleSelectImage)
	app.POST("/detect", es.h.HandleDetect)
}

func (es *EchoServer) logRequest(c *echo.Context, v middleware.RequestLoggerValues) error {
	status := v.Status
	if v.Error != nil {
		status = httpStatusFromError(v.Error)
	}
	attrs := []any{
		"request_id", v.RequestID,
		"method", v.Method,
		"path", v.URIPath,
		"status", status,
		"duration", v.Latency,
	}
	if v.Error != nil {
		attrs = append(attrs, "error", v.Error)
	}
	es.e.Logger.Debug("http request", attrs...)
	return nil
}

// Handler returns the root handler with session loading applied.
func (es *EchoServer) Handler() http.Handler {
	return es.sessions.LoadAndSave(es.e)
}

// Close tears down every live controller, canceling outstanding detect calls.
func (es *EchoServer) Close() {
	if es.h.Controllers != nil {
		es.h.Controllers.Close()
	}
}

func (es *EchoServer) httpErrorHandler(c *echo.Context, err error) {
	if err == nil {
		return
	}

	status := httpStatusFromError(err)
	switch {
	case status == http.StatusRequestEntityTooLarge && isUpload(c):
		if rerr := es.h.HandleUploadTooLarge(c); rerr != nil {
			_ = es.h.RenderError(c, rerr)
		}
	case status >= http.StatusInternalServerError:
		_ = es.h.RenderError(c, err)
	case status == http.StatusNotFound:
		_ = handlers.RenderNotFound(c)
	default:
		requestID, _ := c.Get(handlers.ContextKeyRequestID).(string)
		c.Logger().Info("request rejected",
			"request_id", requestID,
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"status", status,
			"error", err,
		)
		_ = c.String(status, http.StatusText(status))
	}
}

type statusCoder interface {
	StatusCode() int
}

func httpStatusFromError(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code >= 400 && code <= 599 {
			return code
		}
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func isUpload(c *echo.Context) bool {
	req := c.Request()
	return req != nil && req.Method == http.MethodPost && req.URL != nil && req.URL.Path == uploadPath
}
