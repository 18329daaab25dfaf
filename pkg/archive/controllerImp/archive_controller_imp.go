package controllerImp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	"farmportal/pkg/archive/repository"
	"farmportal/pkg/archive/service"
	"farmportal/pkg/paging"
	"farmportal/pkg/session"
)

type ArchiveCtrl struct {
	svc      service.ArchiveService
	pageSize int
}

func New(svc service.ArchiveService, pageSize int) *ArchiveCtrl {
	return &ArchiveCtrl{svc: svc, pageSize: pageSize}
}

// Allowed reports whether p may archive, restore or purge documents of
// docType. User accounts are handled by administrators only.
func Allowed(p session.Principal, docType string) bool {
	if docType == service.TypeUser {
		return p.Is(entities.RoleAdmin)
	}
	return p.Oversees()
}

// ListFilter builds the archive listing filter for p, hiding archived
// accounts from non-administrators.
func ListFilter(p session.Principal, docType, query string) repository.Filter {
	f := repository.Filter{DocumentType: docType, Query: query}
	if !p.Is(entities.RoleAdmin) {
		f.ExcludeTypes = []string{service.TypeUser}
	}
	return f
}

func forbidden(docType string) error {
	return fmt.Errorf("not allowed to manage archived %s records: %w", docType, apperr.ErrForbidden)
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Invalid("invalid archive id %q", c.Param("id"))
	}
	return uint(id), nil
}

type recordView struct {
	*entities.ArchiveRecord
	Document json.RawMessage `json:"document"`
}

func (h *ArchiveCtrl) List(c echo.Context) error {
	f := ListFilter(session.Must(c), c.QueryParam("type"), c.QueryParam("q"))
	if f.DocumentType != "" && !Allowed(session.Must(c), f.DocumentType) {
		return apperr.Respond(c, forbidden(f.DocumentType))
	}
	pg, err := h.svc.List(c.Request().Context(), f, paging.FromQuery(c, h.pageSize))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pg)
}

func (h *ArchiveCtrl) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	rec, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if !Allowed(session.Must(c), rec.DocumentType) {
		return apperr.Respond(c, forbidden(rec.DocumentType))
	}
	return c.JSON(http.StatusOK, recordView{ArchiveRecord: rec, Document: json.RawMessage(rec.Payload)})
}

func (h *ArchiveCtrl) Archive(c echo.Context) error {
	var body struct {
		DocumentType string `json:"document_type"`
		ID           uint   `json:"id"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	me := session.Must(c)
	if !Allowed(me, body.DocumentType) {
		return apperr.Respond(c, forbidden(body.DocumentType))
	}
	rec, err := h.svc.Archive(c.Request().Context(), body.DocumentType, body.ID, me)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *ArchiveCtrl) Restore(c echo.Context) error {
	rec, err := h.authorized(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	out, err := h.svc.Restore(c.Request().Context(), rec.ArchiveID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ArchiveCtrl) Purge(c echo.Context) error {
	rec, err := h.authorized(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if err := h.svc.Purge(c.Request().Context(), rec.ArchiveID); err != nil {
		return apperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ArchiveCtrl) authorized(c echo.Context) (*entities.ArchiveRecord, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	rec, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if !Allowed(session.Must(c), rec.DocumentType) {
		return nil, forbidden(rec.DocumentType)
	}
	return rec, nil
}
