package controllerImp

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"farmportal/entities"
)

type check struct {
	OK  bool   `json:"ok"`
	Err string `json:"err,omitempty"`
}

type report struct {
	OK        bool             `json:"ok"`
	UptimeSec int              `json:"uptime_sec"`
	Checks    map[string]check `json:"checks"`
	Time      string           `json:"time"`
}

type HealthCtrl struct {
	db      *gorm.DB
	started time.Time
}

func NewHealthCtrl(db *gorm.DB) *HealthCtrl { return &HealthCtrl{db: db, started: time.Now()} }

func (h *HealthCtrl) pingDB(ctx context.Context) check {
	if h.db == nil {
		return check{Err: "database not configured"}
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return check{Err: "handle: " + err.Error()}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return check{Err: "ping: " + err.Error()}
	}
	return check{OK: true}
}

// counters confirms the id counter table is readable; every create
// depends on it.
func (h *HealthCtrl) counters(ctx context.Context) check {
	if h.db == nil {
		return check{Err: "database not configured"}
	}
	var n int64
	if err := h.db.WithContext(ctx).Model(&entities.IDCounter{}).Count(&n).Error; err != nil {
		return check{Err: err.Error()}
	}
	return check{OK: true}
}

// Health answers 200 when the database is reachable and 503 otherwise.
func (h *HealthCtrl) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 800*time.Millisecond)
	defer cancel()

	r := report{
		Checks:    map[string]check{"database": h.pingDB(ctx)},
		UptimeSec: int(time.Since(h.started).Seconds()),
		Time:      time.Now().Format(time.RFC3339),
	}
	if r.Checks["database"].OK {
		r.Checks["counters"] = h.counters(ctx)
	}
	r.OK = true
	for _, ch := range r.Checks {
		r.OK = r.OK && ch.OK
	}
	status := http.StatusOK
	if !r.OK {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, r)
}

// Metrics exposes the Prometheus registry.
func Metrics() echo.HandlerFunc { return echo.WrapHandler(promhttp.Handler()) }
