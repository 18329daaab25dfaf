package controllerImp

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"farmportal/pkg/apperr"
	archiveService "farmportal/pkg/archive/service"
	"farmportal/pkg/paging"
	"farmportal/pkg/project/repository"
	"farmportal/pkg/project/service"
	"farmportal/pkg/session"
)

type ProjectCtrl struct {
	svc      service.ProjectService
	archive  archiveService.ArchiveService
	pageSize int
}

func New(svc service.ProjectService, archive archiveService.ArchiveService, pageSize int) *ProjectCtrl {
	return &ProjectCtrl{svc: svc, archive: archive, pageSize: pageSize}
}

func parseUint(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, apperr.Invalid("invalid %s %q", name, c.Param(name))
	}
	return uint(v), nil
}

func queryUint(c echo.Context, name string) uint {
	v, _ := strconv.ParseUint(c.QueryParam(name), 10, 64)
	return uint(v)
}

// FilterFromQuery reads the project list filters shared by the API and
// the pages.
func FilterFromQuery(c echo.Context) repository.Filter {
	return repository.Filter{
		Status:     c.QueryParam("status"),
		CropTypeID: queryUint(c, "crop_type_id"),
		Barangay:   c.QueryParam("barangay"),
		Query:      c.QueryParam("q"),
	}
}

func (h *ProjectCtrl) List(c echo.Context) error {
	pg, err := h.svc.List(c.Request().Context(), session.Must(c), FilterFromQuery(c), paging.FromQuery(c, h.pageSize))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pg)
}

func (h *ProjectCtrl) Get(c echo.Context) error {
	id, err := parseUint(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	p, err := h.svc.Get(c.Request().Context(), session.Must(c), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProjectCtrl) Create(c echo.Context) error {
	var in service.ProjectInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	p, err := h.svc.Create(c.Request().Context(), session.Must(c), in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *ProjectCtrl) Update(c echo.Context) error {
	id, err := parseUint(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	var patch service.ProjectPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	p, err := h.svc.Update(c.Request().Context(), session.Must(c), id, patch)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProjectCtrl) Start(c echo.Context) error {
	id, err := parseUint(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	p, err := h.svc.Start(c.Request().Context(), session.Must(c), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProjectCtrl) Fail(c echo.Context) error {
	id, err := parseUint(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	p, err := h.svc.Fail(c.Request().Context(), session.Must(c), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProjectCtrl) Archive(c echo.Context) error {
	id, err := parseUint(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	rec, err := h.archive.Archive(c.Request().Context(), archiveService.TypeProject, id, session.Must(c))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *ProjectCtrl) AllocateResource(c echo.Context) error {
	id, err := parseUint(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	var in service.ResourceInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	r, err := h.svc.AllocateResource(c.Request().Context(), session.Must(c), id, in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *ProjectCtrl) AddTask(c echo.Context) error {
	id, err := parseUint(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	var in service.TaskInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	t, err := h.svc.AddTask(c.Request().Context(), session.Must(c), id, in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *ProjectCtrl) UpdateTask(c echo.Context) error {
	id, err := parseUint(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	taskID, err := parseUint(c, "task_id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	var patch service.TaskPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	t, err := h.svc.UpdateTask(c.Request().Context(), session.Must(c), id, taskID, patch)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *ProjectCtrl) DeleteTask(c echo.Context) error {
	id, err := parseUint(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	taskID, err := parseUint(c, "task_id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	if err := h.svc.DeleteTask(c.Request().Context(), session.Must(c), id, taskID); err != nil {
		return apperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProjectCtrl) RecordAttendance(c echo.Context) error {
	id, err := parseUint(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	var in service.AttendanceInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad json"})
	}
	rows, err := h.svc.RecordAttendance(c.Request().Context(), session.Must(c), id, in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *ProjectCtrl) Attendance(c echo.Context) error {
	id, err := parseUint(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	rows, err := h.svc.Attendance(c.Request().Context(), session.Must(c), repository.AttendanceFilter{
		ProjectID: id,
		TaskID:    queryUint(c, "task_id"),
		Date:      c.QueryParam("date"),
	})
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}
