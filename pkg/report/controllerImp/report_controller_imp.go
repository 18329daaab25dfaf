package controllerImp

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"farmportal/pkg/apperr"
	harvestCtrl "farmportal/pkg/harvest/controllerImp"
	"farmportal/pkg/report/service"
	"farmportal/pkg/session"
)

// ReportCtrl streams generated files. Errors are returned to the echo
// error handler so both pages and API clients get the right shape.
type ReportCtrl struct {
	svc service.ReportService
}

func New(svc service.ReportService) *ReportCtrl { return &ReportCtrl{svc: svc} }

func send(c echo.Context, f *service.File) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", f.Name))
	return c.Blob(http.StatusOK, f.Mime, f.Data)
}

func stockScope(c echo.Context) (service.StockScope, error) {
	s := service.StockScope{Kind: c.QueryParam("kind")}
	if v := c.QueryParam("owner_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return s, apperr.Invalid("invalid owner_id %q", v)
		}
		s.OwnerID = uint(id)
	}
	return s, nil
}

func (h *ReportCtrl) ProjectPDF(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return apperr.Invalid("invalid project id")
	}
	f, err := h.svc.ProjectPDF(c.Request().Context(), session.Must(c), uint(id))
	if err != nil {
		return err
	}
	return send(c, f)
}

func (h *ReportCtrl) HarvestPDF(c echo.Context) error {
	filter, err := harvestCtrl.FilterFromQuery(c)
	if err != nil {
		return err
	}
	f, err := h.svc.HarvestPDF(c.Request().Context(), session.Must(c), filter)
	if err != nil {
		return err
	}
	return send(c, f)
}

func (h *ReportCtrl) HarvestXLSX(c echo.Context) error {
	filter, err := harvestCtrl.FilterFromQuery(c)
	if err != nil {
		return err
	}
	f, err := h.svc.HarvestXLSX(c.Request().Context(), session.Must(c), filter)
	if err != nil {
		return err
	}
	return send(c, f)
}

func (h *ReportCtrl) InventoryPDF(c echo.Context) error {
	scope, err := stockScope(c)
	if err != nil {
		return err
	}
	f, err := h.svc.InventoryPDF(c.Request().Context(), session.Must(c), scope)
	if err != nil {
		return err
	}
	return send(c, f)
}

func (h *ReportCtrl) StockXLSX(c echo.Context) error {
	scope, err := stockScope(c)
	if err != nil {
		return err
	}
	f, err := h.svc.StockXLSX(c.Request().Context(), session.Must(c), scope)
	if err != nil {
		return err
	}
	return send(c, f)
}
