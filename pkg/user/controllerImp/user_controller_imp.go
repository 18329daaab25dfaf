package controllerImp

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	archiveService "farmportal/pkg/archive/service"
	"farmportal/pkg/paging"
	"farmportal/pkg/session"
	"farmportal/pkg/user/repository"
	"farmportal/pkg/user/service"
)

type UserCtrl struct {
	svc      service.UserService
	archive  archiveService.ArchiveService
	pageSize int
}

func New(svc service.UserService, archive archiveService.ArchiveService, pageSize int) *UserCtrl {
	return &UserCtrl{svc: svc, archive: archive, pageSize: pageSize}
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Invalid("invalid id %q", c.Param("id"))
	}
	return uint(id), nil
}

func (h *UserCtrl) List(c echo.Context) error {
	f := repository.Filter{Query: c.QueryParam("q"), Barangay: c.QueryParam("barangay")}
	if r := strings.TrimSpace(c.QueryParam("role")); r != "" {
		f.Roles = strings.Split(r, ",")
	}
	pg, err := h.svc.List(c.Request().Context(), f, paging.FromQuery(c, h.pageSize))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pg)
}

func (h *UserCtrl) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	u, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserCtrl) Create(c echo.Context) error {
	var in service.CreateInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	u, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *UserCtrl) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var in service.UpdateInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	if me := session.Must(c); me.UserID == id && in.Role != nil && *in.Role != entities.RoleAdmin {
		return apperr.Respond(c, apperr.Invalid("you cannot change your own role"))
	}
	u, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// ResetPassword sets another user's password without the current one.
func (h *UserCtrl) ResetPassword(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var body struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	if err := h.svc.ChangePassword(c.Request().Context(), id, "", body.Password, true); err != nil {
		return apperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangeOwnPassword lets any signed-in user change their password.
func (h *UserCtrl) ChangeOwnPassword(c echo.Context) error {
	var body struct {
		Current string `json:"current_password"`
		Next    string `json:"new_password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	me := session.Must(c)
	if err := h.svc.ChangePassword(c.Request().Context(), me.UserID, body.Current, body.Next, false); err != nil {
		return apperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserCtrl) Archive(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	rec, err := h.archive.Archive(c.Request().Context(), archiveService.TypeUser, id, session.Must(c))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// Farmers is the roster view. Farm presidents only see their own barangay.
func (h *UserCtrl) Farmers(c echo.Context) error {
	me := session.Must(c)
	barangay := c.QueryParam("barangay")
	if !me.Oversees() {
		u, err := h.svc.Get(c.Request().Context(), me.UserID)
		if err != nil {
			return apperr.Respond(c, err)
		}
		barangay = u.Barangay
	}
	pg, err := h.svc.Farmers(c.Request().Context(), barangay, c.QueryParam("q"), paging.FromQuery(c, h.pageSize))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pg)
}
