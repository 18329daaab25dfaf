// Package flash carries one toast message across a redirect in a
// short-lived cookie.
package flash

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const cookieName = "farm_flash"

const (
	Success = "success"
	Error   = "error"
	Info    = "info"
)

type Message struct {
	Kind string
	Text string
}

// Set stores a toast for the next rendered page.
func Set(c echo.Context, kind, text string) {
	v := base64.RawURLEncoding.EncodeToString([]byte(kind + "|" + text))
	c.SetCookie(&http.Cookie{Name: cookieName, Value: v, Path: "/", MaxAge: 60, HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// Pop returns the pending toast, if any, and clears it.
func Pop(c echo.Context) (Message, bool) {
	ck, err := c.Cookie(cookieName)
	if err != nil || ck.Value == "" {
		return Message{}, false
	}
	c.SetCookie(&http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	raw, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return Message{}, false
	}
	kind, text, ok := strings.Cut(string(raw), "|")
	if !ok || text == "" {
		return Message{}, false
	}
	switch kind {
	case Success, Error, Info:
	default:
		kind = Info
	}
	return Message{Kind: kind, Text: text}, true
}
