package controllerImp

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"farmportal/pkg/apperr"
	"farmportal/pkg/paging"
	"farmportal/pkg/session"
	"farmportal/pkg/team/service"
)

type TeamCtrl struct {
	svc      service.TeamService
	pageSize int
}

func New(svc service.TeamService, pageSize int) *TeamCtrl {
	return &TeamCtrl{svc: svc, pageSize: pageSize}
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Invalid("invalid team id %q", c.Param("id"))
	}
	return uint(id), nil
}

func (h *TeamCtrl) List(c echo.Context) error {
	pg, err := h.svc.List(c.Request().Context(), session.Must(c), c.QueryParam("q"), paging.FromQuery(c, h.pageSize))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pg)
}

func (h *TeamCtrl) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	t, err := h.svc.Get(c.Request().Context(), session.Must(c), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TeamCtrl) Create(c echo.Context) error {
	var in service.TeamInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	t, err := h.svc.Create(c.Request().Context(), session.Must(c), in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *TeamCtrl) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var in service.TeamInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	t, err := h.svc.Update(c.Request().Context(), session.Must(c), id, in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TeamCtrl) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if err := h.svc.Delete(c.Request().Context(), session.Must(c), id); err != nil {
		return apperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
