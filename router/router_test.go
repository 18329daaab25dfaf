package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"farmportal/config"
	"farmportal/entities"
	"farmportal/pkg/auth/password"
	counterRepoImp "farmportal/pkg/counter/repositoryImp"
	"farmportal/pkg/testutil"
	userRepoImp "farmportal/pkg/user/repositoryImp"
	userService "farmportal/pkg/user/service"
	userServiceImp "farmportal/pkg/user/serviceImp"
)

func init() { password.Cost = bcrypt.MinCost }

const pw = "correct-horse"

// client keeps cookies between requests like a browser would.
type client struct {
	t       *testing.T
	e       *echo.Echo
	cookies map[string]*http.Cookie
	bearer  string
}

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	db := testutil.OpenDB(t)
	users := userServiceImp.New(db, userRepoImp.New(db), counterRepoImp.New(db))
	for _, u := range []userService.CreateInput{
		{FirstName: "Ada", LastName: "Admin", Email: "admin@farm.ph", Role: entities.RoleAdmin},
		{FirstName: "Sol", LastName: "Super", Email: "super@farm.ph", Role: entities.RoleSupervisor},
		{FirstName: "Fe", LastName: "Pres", Email: "fp@farm.ph", Role: entities.RoleFarmPresident, Barangay: "Maligaya"},
		{FirstName: "Rey", LastName: "Farmer", Email: "farmer@farm.ph", Role: entities.RoleFarmer},
	} {
		u.Password = pw
		if _, err := users.Create(context.Background(), u); err != nil {
			t.Fatalf("create %s: %v", u.Email, err)
		}
	}
	cfg := config.FromEnv(func(string) string { return "" })
	cfg.JWTSecret = "router-test-secret"
	e, err := Build(cfg, db, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return e
}

func newClient(t *testing.T, e *echo.Echo) *client {
	return &client{t: t, e: e, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if c.bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+c.bearer)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
		} else {
			c.cookies[ck.Name] = ck
		}
	}
	return rec
}

func (c *client) get(path string) *httptest.ResponseRecorder { return c.do(http.MethodGet, path, "", nil) }

func (c *client) form(path string, v url.Values) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, path, echo.MIMEApplicationForm, strings.NewReader(v.Encode()))
}

func (c *client) json(method, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	return c.do(method, path, echo.MIMEApplicationJSON, strings.NewReader(string(b)))
}

func (c *client) login(email string) {
	c.t.Helper()
	rec := c.form("/login", url.Values{"email": {email}, "password": {pw}})
	if rec.Code != http.StatusSeeOther {
		c.t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body)
	}
}

func doc(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	d, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return d
}

func TestLoginLandsOnRoleDashboard(t *testing.T) {
	c := newClient(t, newServer(t))

	rec := c.form("/login", url.Values{"email": {"admin@farm.ph"}, "password": {pw}, "next": {"/users"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/users" {
		t.Fatalf("login: %d -> %q", rec.Code, rec.Header().Get("Location"))
	}
	if c.cookies["farm_session"] == nil {
		t.Fatal("no session cookie")
	}

	rec = c.get("/dashboard")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin" {
		t.Fatalf("dashboard: %d -> %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = c.get("/admin")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: %d %s", rec.Code, rec.Body)
	}
	d := doc(t, rec)
	if got := d.Find("h1").Text(); got != "Administrator dashboard" {
		t.Errorf("h1 = %q", got)
	}
	if got := d.Find(".users .total b").Text(); got != "4" {
		t.Errorf("total users = %q", got)
	}
	if got := strings.TrimSpace(d.Find(`.users .count[data-key="farmer"] b`).Text()); got != "1" {
		t.Errorf("farmers = %q", got)
	}
	if got := d.Find(".toast-success").Text(); !strings.Contains(got, "Welcome back, Ada") {
		t.Errorf("welcome toast = %q", got)
	}
	if d.Find(`nav a[href="/users"]`).Length() != 1 {
		t.Error("admin nav has no users link")
	}
}

func TestLoginRejections(t *testing.T) {
	c := newClient(t, newServer(t))

	rec := c.form("/login", url.Values{"email": {"admin@farm.ph"}, "password": {"wrong-password"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d", rec.Code)
	}
	if got := doc(t, rec).Find(".login-error").Text(); got != "invalid email or password" {
		t.Errorf("error = %q", got)
	}

	rec = c.form("/login", url.Values{"email": {"farmer@farm.ph"}, "password": {pw}})
	if rec.Code != http.StatusForbidden || c.cookies["farm_session"] != nil {
		t.Errorf("farmer login status = %d", rec.Code)
	}

	rec = c.form("/login", url.Values{"email": {"admin@farm.ph"}, "password": {pw}, "next": {"//evil.example"}})
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("open redirect to %q", loc)
	}
}

func TestUnauthenticatedRequests(t *testing.T) {
	c := newClient(t, newServer(t))

	rec := c.get("/projects?status=ongoing")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("page status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login?next="+url.QueryEscape("/projects?status=ongoing") {
		t.Errorf("redirect = %q", loc)
	}

	rec = c.get("/api/projects")
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("api = %d %s", rec.Code, rec.Body)
	}

	if rec := c.get("/health"); rec.Code != http.StatusOK {
		t.Errorf("health = %d", rec.Code)
	}
}

func TestRoleChecks(t *testing.T) {
	c := newClient(t, newServer(t))
	c.login("super@farm.ph")

	rec := c.get("/users")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("supervisor /users = %d", rec.Code)
	}
	if got := doc(t, rec).Find(".error-message").Text(); got != "You do not have access to this page." {
		t.Errorf("error page = %q", got)
	}

	if rec := c.get("/api/users"); rec.Code != http.StatusForbidden {
		t.Errorf("supervisor /api/users = %d", rec.Code)
	}
	if rec := c.get("/supervisor"); rec.Code != http.StatusOK {
		t.Errorf("supervisor dashboard = %d", rec.Code)
	}

	fp := newClient(t, c.e)
	fp.login("fp@farm.ph")
	if rec := fp.get("/archive"); rec.Code != http.StatusForbidden {
		t.Errorf("farm president /archive = %d", rec.Code)
	}
	rec = fp.get("/stock")
	if rec.Code != http.StatusOK {
		t.Fatalf("farm president /stock = %d", rec.Code)
	}
	if doc(t, rec).Find(`input[name="owner_id"]`).Length() != 0 {
		t.Error("farm president sees the owner filter")
	}
}

func TestArchiveRestoreShowsToast(t *testing.T) {
	c := newClient(t, newServer(t))
	c.login("admin@farm.ph")

	rec := c.json(http.MethodPost, "/api/crop-types", map[string]string{"name": "Rice"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create crop: %d %s", rec.Code, rec.Body)
	}
	rec = c.do(http.MethodDelete, "/api/crop-types/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("archive crop: %d %s", rec.Code, rec.Body)
	}
	var arch entities.ArchiveRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &arch); err != nil || arch.ArchiveID == 0 {
		t.Fatalf("archive body = %s", rec.Body)
	}

	d := doc(t, c.get("/archive"))
	if n := d.Find("table.archive tbody tr[data-archive-id]").Length(); n != 1 {
		t.Fatalf("archive rows = %d", n)
	}

	rec = c.form("/archive/1/restore", nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/archive" {
		t.Fatalf("restore: %d -> %q", rec.Code, rec.Header().Get("Location"))
	}
	d = doc(t, c.get("/archive"))
	if got := d.Find(".toast-success").Text(); got != "Rice restored." {
		t.Errorf("toast = %q", got)
	}
	if n := d.Find("table.archive tbody tr[data-archive-id]").Length(); n != 0 {
		t.Errorf("archive rows after restore = %d", n)
	}

	rec = c.form("/archive/1/restore", nil)
	d = doc(t, c.get("/archive"))
	if got := d.Find(".toast-error").Text(); !strings.Contains(got, "not found") {
		t.Errorf("second restore toast = %q", got)
	}
}

func TestReportsDownload(t *testing.T) {
	c := newClient(t, newServer(t))
	c.login("super@farm.ph")

	rec := c.get("/reports/harvests/pdf")
	if rec.Code != http.StatusOK || rec.Header().Get(echo.HeaderContentType) != "application/pdf" {
		t.Fatalf("pdf: %d %q", rec.Code, rec.Header().Get(echo.HeaderContentType))
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Error("body is not a pdf")
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "harvest-report-") {
		t.Errorf("content disposition = %q", cd)
	}

	rec = c.get("/api/reports/projects/99/pdf")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("missing project report = %d %s", rec.Code, rec.Body)
	}
}

func TestPagesClampToLastPage(t *testing.T) {
	c := newClient(t, newServer(t))
	c.login("admin@farm.ph")

	d := doc(t, c.get("/users?size=3&page=9"))
	if got := d.Find(".pager .current").Text(); got != "2" {
		t.Errorf("current page = %q", got)
	}
	if n := d.Find("table.users tbody tr").Length(); n != 1 {
		t.Errorf("rows on last page = %d", n)
	}
}
