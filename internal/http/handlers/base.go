// Package handlers contains the HTTP handlers of the detection page.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/aidetect/aidetect/internal/config"
	"github.com/aidetect/aidetect/internal/controller"
	"github.com/aidetect/aidetect/internal/preview"
	"github.com/alexedwards/scs/v2"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
)

const (
	// ContextKeyRequestID stores the request id (X-Request-ID) for logging and client error references.
	ContextKeyRequestID = "request_id"

	// InternalErrorCode is a stable error code safe to return to clients.
	InternalErrorCode = "INTERNAL_ERROR"

	// SessionKeyController is the session key holding the browser's controller id.
	SessionKeyController = "controller_id"

	pageTitle = "AI Image Detection"
)

// Handlers groups all HTTP handlers and shared dependencies.
type Handlers struct {
	Cfg         config.Config
	Sessions    *scs.SessionManager
	Controllers *controller.Registry
	Previews    *preview.Store
}

// controllerFor returns the controller bound to the request's session, creating one on first use.
func (h *Handlers) controllerFor(c *echo.Context) *controller.Controller {
	ctx := c.Request().Context()
	id := h.Sessions.GetString(ctx, SessionKeyController)
	ctrl, created := h.Controllers.GetOrCreate(id)
	if created {
		h.Sessions.Put(ctx, SessionKeyController, ctrl.ID())
	}
	return ctrl
}

func csrfToken(c *echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}

// RenderComponent renders a templ component as the response.
func (h *Handlers) RenderComponent(c *echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(c.Request().Context(), c.Response()); err != nil {
		return h.RenderError(c, err)
	}
	return nil
}

// RenderError returns a plain text error response.
func (h *Handlers) RenderError(c *echo.Context, err error) error {
	requestID, _ := c.Get(ContextKeyRequestID).(string)
	path := ""
	if req := c.Request(); req != nil && req.URL != nil {
		path = req.URL.Path
	}
	method := ""
	if req := c.Request(); req != nil {
		method = req.Method
	}
	c.Logger().Error("http error",
		"request_id", requestID,
		"method", method,
		"path", path,
		"ip", c.RealIP(),
		"error", err,
	)

	msg := "Internal server error."
	if requestID != "" {
		msg = fmt.Sprintf("%s Reference: %s.", msg, requestID)
	}
	msg = fmt.Sprintf("%s Code: %s.", msg, InternalErrorCode)
	return c.String(http.StatusInternalServerError, msg)
}

// RenderNotFound returns a 404 response.
func RenderNotFound(c *echo.Context) error {
	return c.String(http.StatusNotFound, "404 page not found")
}

// HandleHealthz reports liveness of this server, independent of the detection service.
func (h *Handlers) HandleHealthz(c *echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
