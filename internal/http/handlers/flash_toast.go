package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/aidetect/aidetect/internal/http/viewmodels"
	"github.com/labstack/echo/v5"
)

const flashToastCookieName = "aidetect_toast"

// setFlashToast carries a one-shot notice across the redirect that follows a plain form post.
// htmx requests never need it: their notices are rendered straight into the panel fragment.
func setFlashToast(c *echo.Context, category, title, description string) {
	toast := normalizeToast(viewmodels.ToastViewData{Category: category, Title: title, Description: description})
	if toast == nil {
		return
	}
	payload, err := json.Marshal(toast)
	if err != nil {
		return
	}
	c.SetCookie(toastCookie(base64.RawURLEncoding.EncodeToString(payload), 30))
}

// popFlashToast returns and clears the pending notice, if any.
func popFlashToast(c *echo.Context) *viewmodels.ToastViewData {
	cookie, err := c.Cookie(flashToastCookieName)
	if err != nil || cookie == nil {
		return nil
	}
	c.SetCookie(toastCookie("", -1))

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var toast viewmodels.ToastViewData
	if err := json.Unmarshal(raw, &toast); err != nil {
		return nil
	}
	return normalizeToast(toast)
}

func toastCookie(value string, maxAge int) *http.Cookie {
	cookie := &http.Cookie{
		Name:     flashToastCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		cookie.Expires = time.Unix(0, 0)
	}
	return cookie
}

func normalizeToast(toast viewmodels.ToastViewData) *viewmodels.ToastViewData {
	toast.Title = strings.TrimSpace(toast.Title)
	toast.Description = strings.TrimSpace(toast.Description)
	if toast.Title == "" && toast.Description == "" {
		return nil
	}
	switch category := strings.ToLower(strings.TrimSpace(toast.Category)); category {
	case "success", "error", "warning", "info":
		toast.Category = category
	default:
		toast.Category = "info"
	}
	return &toast
}
