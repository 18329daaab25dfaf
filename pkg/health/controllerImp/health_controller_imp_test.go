package controllerImp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"farmportal/pkg/testutil"
)

func TestHealthReportsDatabase(t *testing.T) {
	e := echo.New()
	h := NewHealthCtrl(testutil.OpenDB(t))

	rec := httptest.NewRecorder()
	if err := h.Health(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var r report
	if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !r.OK || !r.Checks["database"].OK || !r.Checks["counters"].OK {
		t.Errorf("report = %+v", r)
	}
}

func TestHealthWithoutDatabase(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	_ = NewHealthCtrl(nil).Health(e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
