package controllerImp

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"farmportal/pkg/apperr"
	archiveService "farmportal/pkg/archive/service"
	"farmportal/pkg/catalog/service"
	"farmportal/pkg/paging"
	"farmportal/pkg/session"
)

// CatalogCtrl serves one catalog (crop types, fertilizers or equipment).
type CatalogCtrl[T any] struct {
	svc      service.CatalogService[T]
	archive  archiveService.ArchiveService
	docType  string
	pageSize int
}

func New[T any](svc service.CatalogService[T], archive archiveService.ArchiveService, docType string, pageSize int) *CatalogCtrl[T] {
	return &CatalogCtrl[T]{svc: svc, archive: archive, docType: docType, pageSize: pageSize}
}

func parseUint(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Invalid("invalid id %q", s)
	}
	return uint(id), nil
}

func (h *CatalogCtrl[T]) List(c echo.Context) error {
	pg, err := h.svc.List(c.Request().Context(), c.QueryParam("q"), paging.FromQuery(c, h.pageSize))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pg)
}

func (h *CatalogCtrl[T]) Get(c echo.Context) error {
	id, err := parseUint(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	item, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CatalogCtrl[T]) Create(c echo.Context) error {
	var in service.ItemInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	item, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *CatalogCtrl[T]) Update(c echo.Context) error {
	id, err := parseUint(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	var patch service.ItemPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	item, err := h.svc.Update(c.Request().Context(), id, patch)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CatalogCtrl[T]) Archive(c echo.Context) error {
	id, err := parseUint(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	rec, err := h.archive.Archive(c.Request().Context(), h.docType, id, session.Must(c))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}
