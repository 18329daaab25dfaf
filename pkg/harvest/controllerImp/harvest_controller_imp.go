package controllerImp

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"farmportal/pkg/apperr"
	"farmportal/pkg/dates"
	"farmportal/pkg/harvest/repository"
	"farmportal/pkg/harvest/service"
	"farmportal/pkg/paging"
	"farmportal/pkg/session"
)

type HarvestCtrl struct {
	svc      service.HarvestService
	pageSize int
}

func New(svc service.HarvestService, pageSize int) *HarvestCtrl {
	return &HarvestCtrl{svc: svc, pageSize: pageSize}
}

// FilterFromQuery reads crop_type_id, barangay, from, to and q.
func FilterFromQuery(c echo.Context) (repository.Filter, error) {
	f := repository.Filter{Barangay: c.QueryParam("barangay"), Query: c.QueryParam("q")}
	if v := c.QueryParam("crop_type_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return f, apperr.Invalid("invalid crop_type_id %q", v)
		}
		f.CropTypeID = uint(id)
	}
	if v := c.QueryParam("from"); v != "" {
		d, ok := dates.Parse(v)
		if !ok {
			return f, apperr.Invalid("invalid from date %q", v)
		}
		f.From = d
	}
	if v := c.QueryParam("to"); v != "" {
		d, ok := dates.Parse(v)
		if !ok {
			return f, apperr.Invalid("invalid to date %q", v)
		}
		f.To = d
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, apperr.Invalid("the to date is before the from date")
	}
	return f, nil
}

func (h *HarvestCtrl) List(c echo.Context) error {
	f, err := FilterFromQuery(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	pg, err := h.svc.List(c.Request().Context(), session.Must(c), f, paging.FromQuery(c, h.pageSize))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pg)
}

func (h *HarvestCtrl) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return apperr.Respond(c, apperr.Invalid("invalid harvest id %q", c.Param("id")))
	}
	out, err := h.svc.Get(c.Request().Context(), session.Must(c), uint(id))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *HarvestCtrl) Record(c echo.Context) error {
	var in service.HarvestInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	out, err := h.svc.Record(c.Request().Context(), session.Must(c), in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *HarvestCtrl) Summary(c echo.Context) error {
	f, err := FilterFromQuery(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	sum, err := h.svc.Summarize(c.Request().Context(), session.Must(c), f)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}
