package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"farmportal/pkg/apperr"
	"farmportal/pkg/session"
)

// SessionCookie carries the signed session token for browser pages.
const SessionCookie = "farm_session"

// TokenParser verifies a raw session token.
type TokenParser interface {
	Parse(raw string) (session.Principal, error)
}

// Refresh reloads the caller from the store so role changes and archived
// accounts take effect before the token expires. It may be nil.
type Refresh func(ctx context.Context, p session.Principal) (session.Principal, error)

// isAPI reports whether the request expects JSON instead of pages.
func isAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}

func tokenFrom(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if raw, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(raw)
		}
	}
	if ck, err := c.Cookie(SessionCookie); err == nil {
		return ck.Value
	}
	return ""
}

// Authenticate reads the session from the Authorization header or the
// session cookie. Without one, API requests get 401 and pages are sent to
// /login with the original path in ?next=.
func Authenticate(tokens TokenParser, refresh Refresh) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFrom(c)
			if raw == "" {
				return deny(c, apperr.ErrUnauthorized)
			}
			p, err := tokens.Parse(raw)
			if err == nil && refresh != nil {
				p, err = refresh(c.Request().Context(), p)
			}
			if err != nil {
				return deny(c, err)
			}
			session.Set(c, p)
			return next(c)
		}
	}
}

func deny(c echo.Context, err error) error {
	if isAPI(c) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": apperr.Message(err)})
	}
	c.SetCookie(&http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	return c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(c.Request().URL.RequestURI()))
}

// RequireRole lets the request through only when the caller has one of
// roles. It must run after Authenticate.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := session.From(c)
			if !ok {
				return deny(c, apperr.ErrUnauthorized)
			}
			if !p.Is(roles...) {
				if isAPI(c) {
					return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
				}
				return echo.NewHTTPError(http.StatusForbidden, "You do not have access to this page.")
			}
			return next(c)
		}
	}
}
