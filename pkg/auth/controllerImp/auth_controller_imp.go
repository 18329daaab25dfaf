package controllerImp

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"farmportal/pkg/apperr"
	"farmportal/pkg/auth/controller"
	"farmportal/pkg/auth/service"
	"farmportal/pkg/middleware"
	"farmportal/pkg/session"
)

type authCtrl struct {
	svc          service.AuthService
	cookieSecure bool
}

func NewAuthController(svc service.AuthService, cookieSecure bool) controller.AuthController {
	return &authCtrl{svc: svc, cookieSecure: cookieSecure}
}

// SessionCookie builds the cookie that carries a login to the browser.
func SessionCookie(raw string, exp time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    raw,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie.
func ClearCookie(secure bool) *http.Cookie {
	return &http.Cookie{Name: middleware.SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: secure}
}

func (h *authCtrl) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	res, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return apperr.Respond(c, err)
	}
	c.SetCookie(SessionCookie(res.Token, res.ExpiresAt, h.cookieSecure))
	return c.JSON(http.StatusOK, res)
}

func (h *authCtrl) Logout(c echo.Context) error {
	c.SetCookie(ClearCookie(h.cookieSecure))
	return c.NoContent(http.StatusNoContent)
}

func (h *authCtrl) WhoAmI(c echo.Context) error {
	return c.JSON(http.StatusOK, session.Must(c))
}
