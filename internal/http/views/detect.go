package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/aidetect/aidetect/internal/http/viewmodels"
)

const (
	// PanelID is the htmx swap target holding upload, detect and result markup.
	PanelID = "detect-panel"
	// StatusID is the htmx swap target of the backend connectivity line.
	StatusID = "backend-status"

	panelPollInterval = "every 500ms"
)

func DetectPage(data viewmodels.DetectPageViewData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<header class="app-header"><h1>AI Image Detection System</h1>`)
		if hw.err != nil {
			return hw.err
		}
		if err := BackendStatus(data.Status).Render(ctx, w); err != nil {
			return err
		}
		if err := DetectPanel(data.Panel).Render(ctx, w); err != nil {
			return err
		}
		hw.raw(`</header>`)
		return hw.err
	})
	return Layout(data.Layout, body)
}

// BackendStatus renders the connectivity line; while the probe is pending it re-polls itself.
func BackendStatus(data viewmodels.BackendStatusViewData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<p`)
		hw.attr("id", StatusID)
		hw.attr("class", "status "+data.Class)
		if data.Pending {
			hw.attr("hx-get", "/status")
			hw.attr("hx-trigger", "load delay:500ms")
			hw.attr("hx-swap", "outerHTML")
		}
		hw.raw(`>Backend: `)
		hw.text(data.Label)
		hw.raw(`</p>`)
		return hw.err
	})
}

// DetectPanel renders the upload form, preview, detect button, error and result.
func DetectPanel(data viewmodels.DetectPanelViewData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<div`)
		hw.attr("id", PanelID)
		if data.InFlight {
			hw.attr("hx-get", "/panel")
			hw.attr("hx-trigger", panelPollInterval)
			hw.attr("hx-swap", "outerHTML")
		}
		hw.raw(`><div class="upload-section">`)

		hw.raw(`<form method="post" action="/image" enctype="multipart/form-data" hx-encoding="multipart/form-data" hx-trigger="change"`)
		hw.attr("hx-post", "/image")
		hw.attr("hx-target", "#"+PanelID)
		hw.attr("hx-swap", "outerHTML")
		hw.raw(`>`)
		csrfInput(hw, data.CSRFToken)
		hw.raw(`<input type="file" name="image" accept="image/*" id="file-input">`)
		hw.raw(`<label for="file-input" class="file-label">Choose Image</label>`)
		hw.raw(`<noscript><button type="submit">Upload</button></noscript></form>`)

		if data.HasImage {
			if data.PreviewURL != "" {
				hw.raw(`<div class="preview"><img`)
				hw.attr("src", data.PreviewURL)
				hw.raw(` alt="Preview"></div>`)
			}
			hw.raw(`<p class="file-meta">`)
			hw.text(data.Filename)
			if data.SizeLabel != "" {
				hw.raw(` &middot; `)
				hw.text(data.SizeLabel)
			}
			hw.raw(`</p>`)

			hw.raw(`<form method="post" action="/detect"`)
			hw.attr("hx-post", "/detect")
			hw.attr("hx-target", "#"+PanelID)
			hw.attr("hx-swap", "outerHTML")
			hw.raw(`>`)
			csrfInput(hw, data.CSRFToken)
			hw.raw(`<button type="submit" class="detect-btn"`)
			if data.InFlight {
				hw.raw(` disabled`)
			}
			hw.raw(`>`)
			hw.text(data.ButtonLabel)
			hw.raw(`</button></form>`)
		}
		hw.raw(`</div>`)

		if data.Notice != "" {
			hw.raw(`<div class="error notice"><p>`)
			hw.text(data.Notice)
			hw.raw(`</p></div>`)
		}
		if data.Error != "" {
			hw.raw(`<div class="error"><p>`)
			hw.text(data.Error)
			hw.raw(`</p></div>`)
		}
		if data.Result != nil {
			hw.raw(`<div`)
			hw.attr("class", data.Result.Class)
			hw.raw(`><h2>Result: `)
			hw.text(data.Result.Classification)
			hw.raw(`</h2><p>Confidence: `)
			hw.text(data.Result.ConfidenceLabel)
			hw.raw(`</p><div class="confidence-bar"><div class="confidence-fill"`)
			hw.attr("style", "width: "+data.Result.BarWidth)
			hw.raw(`></div></div></div>`)
		}
		hw.raw(`</div>`)
		return hw.err
	})
}

func csrfInput(hw *htmlWriter, token string) {
	if token == "" {
		return
	}
	hw.raw(`<input type="hidden" name="csrf"`)
	hw.attr("value", token)
	hw.raw(`>`)
}
