package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	"farmportal/pkg/session"
)

type fakeTokens map[string]session.Principal

func (f fakeTokens) Parse(raw string) (session.Principal, error) {
	p, ok := f[raw]
	if !ok {
		return session.Principal{}, apperr.ErrUnauthorized
	}
	return p, nil
}

var tokens = fakeTokens{
	"admin-token": {UserID: 1, Name: "Ada", Role: entities.RoleAdmin},
	"fp-token":    {UserID: 2, Name: "Fe", Role: entities.RoleFarmPresident},
	"gone-token":  {UserID: 9, Role: entities.RoleSupervisor},
}

func refresh(_ context.Context, p session.Principal) (session.Principal, error) {
	if p.UserID == 9 {
		return session.Principal{}, errors.New("account no longer exists")
	}
	p.Name += " (fresh)"
	return p, nil
}

func serve(req *http.Request, mws ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	e := echo.New()
	h := func(c echo.Context) error { return c.String(http.StatusOK, session.Must(c).Name) }
	e.GET("/api/thing", h, mws...)
	e.GET("/thing", h, mws...)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateSources(t *testing.T) {
	auth := Authenticate(tokens, refresh)

	req := httptest.NewRequest(http.MethodGet, "/api/thing", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer admin-token")
	if rec := serve(req, auth); rec.Code != http.StatusOK || rec.Body.String() != "Ada (fresh)" {
		t.Errorf("bearer: %d %q", rec.Code, rec.Body)
	}

	req = httptest.NewRequest(http.MethodGet, "/thing", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "fp-token"})
	if rec := serve(req, auth); rec.Code != http.StatusOK || rec.Body.String() != "Fe (fresh)" {
		t.Errorf("cookie: %d %q", rec.Code, rec.Body)
	}
}

func TestAuthenticateDenies(t *testing.T) {
	auth := Authenticate(tokens, refresh)
	cases := []struct {
		name, path, token string
		want              int
	}{
		{"api without token", "/api/thing", "", http.StatusUnauthorized},
		{"api bad token", "/api/thing", "nope", http.StatusUnauthorized},
		{"page without token", "/thing", "", http.StatusSeeOther},
		{"page refresh fails", "/thing", "gone-token", http.StatusSeeOther},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.token != "" {
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tc.token})
		}
		rec := serve(req, auth)
		if rec.Code != tc.want {
			t.Errorf("%s: status %d, want %d", tc.name, rec.Code, tc.want)
		}
		if tc.want == http.StatusSeeOther && rec.Header().Get("Location") != "/login?next=%2Fthing" {
			t.Errorf("%s: location %q", tc.name, rec.Header().Get("Location"))
		}
	}
}

func TestRequireRole(t *testing.T) {
	auth := Authenticate(tokens, nil)
	only := RequireRole(entities.RoleAdmin, entities.RoleSupervisor)

	req := httptest.NewRequest(http.MethodGet, "/api/thing", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer fp-token")
	if rec := serve(req, auth, only); rec.Code != http.StatusForbidden {
		t.Errorf("farm president got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/thing", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer fp-token")
	if rec := serve(req, auth, only); rec.Code != http.StatusForbidden {
		t.Errorf("page: farm president got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/thing", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer admin-token")
	if rec := serve(req, auth, only); rec.Code != http.StatusOK {
		t.Errorf("admin got %d", rec.Code)
	}
}
