package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/aidetect/aidetect/internal/http/viewmodels"
)

const htmxSrc = "https://unpkg.com/htmx.org@2.0.4"

const baseStyles = `
.app-header{max-width:640px;margin:2rem auto;font-family:system-ui,sans-serif;text-align:center}
.status-connected{color:#1a7f37}.status-disconnected{color:#cf222e}.status-unknown{color:#6e7781}
.preview img{max-width:100%;max-height:320px;margin:1rem 0}
.error{color:#cf222e}.toast{padding:.5rem;border:1px solid #d0d7de;margin-bottom:1rem}
.result{border:2px solid;padding:1rem;margin-top:1rem}
.result.real{border-color:#1a7f37}.result.fake{border-color:#cf222e}
.confidence-bar{background:#eaeef2;height:12px}
.result.real .confidence-fill{background:#1a7f37;height:100%}
.result.fake .confidence-fill{background:#cf222e;height:100%}
`

// Layout wraps body in the page shell. Every htmx request carries the CSRF token header.
func Layout(data viewmodels.LayoutData, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		hw.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		hw.raw(`<title>`)
		hw.text(data.Title)
		hw.raw(`</title><script`)
		hw.attr("src", htmxSrc)
		hw.raw(`></script><style>` + baseStyles + `</style></head>`)
		hw.raw(`<body hx-boost="true"`)
		hw.attr("hx-headers", `{"X-CSRF-Token": "`+data.CSRFToken+`"}`)
		hw.raw(`>`)
		if data.Toast != nil {
			hw.raw(`<div role="status"`)
			hw.attr("class", "toast toast-"+data.Toast.Category)
			hw.raw(`><strong>`)
			hw.text(data.Toast.Title)
			hw.raw(`</strong> `)
			hw.text(data.Toast.Description)
			hw.raw(`</div>`)
		}
		if hw.err != nil {
			return hw.err
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		hw.raw(`</body></html>`)
		return hw.err
	})
}
