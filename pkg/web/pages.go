package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	archiveCtrl "farmportal/pkg/archive/controllerImp"
	archiveService "farmportal/pkg/archive/service"
	authCtrl "farmportal/pkg/auth/controllerImp"
	authService "farmportal/pkg/auth/service"
	catalogService "farmportal/pkg/catalog/service"
	dashboardService "farmportal/pkg/dashboard/service"
	"farmportal/pkg/flash"
	harvestCtrl "farmportal/pkg/harvest/controllerImp"
	harvestService "farmportal/pkg/harvest/service"
	"farmportal/pkg/logger"
	"farmportal/pkg/paging"
	projectCtrl "farmportal/pkg/project/controllerImp"
	projectService "farmportal/pkg/project/service"
	"farmportal/pkg/session"
	teamService "farmportal/pkg/team/service"
	userRepo "farmportal/pkg/user/repository"
	userService "farmportal/pkg/user/service"
)

type Deps struct {
	Auth         authService.AuthService
	Users        userService.UserService
	Archive      archiveService.ArchiveService
	Projects     projectService.ProjectService
	Harvests     harvestService.HarvestService
	Teams        teamService.TeamService
	Stock        catalogService.StockService
	Crops        catalogService.CatalogService[entities.CropType]
	Dashboards   dashboardService.DashboardService
	PageSize     int
	CookieSecure bool
	Log          *zap.Logger
}

// Pages serves the server-rendered portal.
type Pages struct {
	Deps
}

func NewPages(d Deps) *Pages {
	d.Log = logger.OrNop(d.Log)
	return &Pages{Deps: d}
}

func navFor(role, current string) []NavItem {
	items := []NavItem{{Label: "Dashboard", Href: dashboardService.Path(role)}}
	add := func(label, href string) { items = append(items, NavItem{Label: label, Href: href}) }
	switch role {
	case entities.RoleAdmin:
		add("Users", "/users")
		add("Projects", "/projects")
		add("Harvests", "/harvests")
		add("Teams", "/teams")
		add("Stock", "/stock")
		add("Archive", "/archive")
	case entities.RoleSupervisor:
		add("Projects", "/projects")
		add("Harvests", "/harvests")
		add("Teams", "/teams")
		add("Stock", "/stock")
		add("Archive", "/archive")
	case entities.RoleFarmPresident:
		add("Projects", "/projects")
		add("Teams", "/teams")
		add("Stock", "/stock")
		add("Harvests", "/harvests")
	case entities.RoleHeadFarmer:
		add("Projects", "/projects")
		add("Teams", "/teams")
	}
	for i := range items {
		items[i].Active = items[i].Href == current
	}
	return items
}

func (h *Pages) render(c echo.Context, status int, page, title string, data any) error {
	v := View{Title: title, Query: c.QueryParams(), Data: data}
	if p, ok := session.From(c); ok {
		v.User = &p
		v.Nav = navFor(p.Role, c.Request().URL.Path)
	}
	if m, ok := flash.Pop(c); ok {
		v.Flash = &m
	}
	return c.Render(status, page, v)
}

// fail turns a service error into the error page; unexpected errors are
// logged and shown generically.
func (h *Pages) fail(c echo.Context, err error) error {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		h.Log.Error("page failed", zap.String("path", c.Request().URL.Path), zap.Error(err))
		return echo.NewHTTPError(status, "Something went wrong. Please try again.")
	}
	return echo.NewHTTPError(status, apperr.Message(err))
}

// list runs a paginated query and, when the requested page is past the
// end, runs it again for the last page.
func list[T any](c echo.Context, size int, q func(paging.Params) (paging.Page[T], error)) (paging.Page[T], error) {
	p := paging.FromQuery(c, size)
	pg, err := q(p)
	if err != nil || pg.Page <= pg.TotalPages {
		return pg, err
	}
	p.Page = pg.TotalPages
	return q(p)
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/dashboard"
	}
	return next
}

type loginView struct {
	Email string
	Next  string
	Error string
}

func (h *Pages) LoginPage(c echo.Context) error {
	return h.render(c, http.StatusOK, "login", "Sign in", loginView{Next: c.QueryParam("next")})
}

func (h *Pages) LoginSubmit(c echo.Context) error {
	email, pw, next := c.FormValue("email"), c.FormValue("password"), c.FormValue("next")
	res, err := h.Auth.Login(c.Request().Context(), email, pw)
	if err != nil {
		status := apperr.Status(err)
		msg := apperr.Message(err)
		if status == http.StatusInternalServerError {
			h.Log.Error("login failed", zap.Error(err))
			msg = "Sign in is unavailable right now."
		}
		return h.render(c, status, "login", "Sign in", loginView{Email: email, Next: next, Error: msg})
	}
	c.SetCookie(authCtrl.SessionCookie(res.Token, res.ExpiresAt, h.CookieSecure))
	flash.Set(c, flash.Success, "Welcome back, "+res.User.FirstName+"!")
	return c.Redirect(http.StatusSeeOther, safeNext(next))
}

func (h *Pages) Logout(c echo.Context) error {
	c.SetCookie(authCtrl.ClearCookie(h.CookieSecure))
	flash.Set(c, flash.Info, "You have been signed out.")
	return c.Redirect(http.StatusSeeOther, "/login")
}

// Dashboard sends the caller to their role's dashboard.
func (h *Pages) Dashboard(c echo.Context) error {
	path := dashboardService.Path(session.Must(c).Role)
	if path == "" {
		return echo.NewHTTPError(http.StatusForbidden, "Your account has no dashboard.")
	}
	return c.Redirect(http.StatusSeeOther, path)
}

func (h *Pages) AdminDashboard(c echo.Context) error {
	d, err := h.Dashboards.Admin(c.Request().Context(), session.Must(c))
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, http.StatusOK, "admin", "Administrator dashboard", d)
}

func (h *Pages) SupervisorDashboard(c echo.Context) error {
	d, err := h.Dashboards.Supervisor(c.Request().Context(), session.Must(c))
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, http.StatusOK, "supervisor", "Supervisor dashboard", d)
}

func (h *Pages) FarmPresidentDashboard(c echo.Context) error {
	d, err := h.Dashboards.FarmPresident(c.Request().Context(), session.Must(c))
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, http.StatusOK, "farm_president", "Farm president dashboard", d)
}

func (h *Pages) HeadFarmerDashboard(c echo.Context) error {
	d, err := h.Dashboards.HeadFarmer(c.Request().Context(), session.Must(c))
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, http.StatusOK, "head_farmer", "Head farmer dashboard", d)
}

type usersView struct {
	Table Table[entities.User]
	Roles []string
}

func (h *Pages) Users(c echo.Context) error {
	f := userRepo.Filter{Query: c.QueryParam("q")}
	if r := c.QueryParam("role"); r != "" {
		f.Roles = []string{r}
	}
	ctx := c.Request().Context()
	pg, err := list(c, h.PageSize, func(p paging.Params) (paging.Page[entities.User], error) {
		return h.Deps.Users.List(ctx, f, p)
	})
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, http.StatusOK, "users", "Users", usersView{Table: NewTable(pg, c), Roles: entities.Roles})
}

type archiveView struct {
	Table Table[entities.ArchiveRecord]
	Types []string
}

func (h *Pages) Archive(c echo.Context) error {
	me := session.Must(c)
	f := archiveCtrl.ListFilter(me, c.QueryParam("type"), c.QueryParam("q"))
	if f.DocumentType != "" && !archiveCtrl.Allowed(me, f.DocumentType) {
		return echo.NewHTTPError(http.StatusForbidden, "You cannot view archived "+f.DocumentType+" records.")
	}
	ctx := c.Request().Context()
	pg, err := list(c, h.PageSize, func(p paging.Params) (paging.Page[entities.ArchiveRecord], error) {
		return h.Deps.Archive.List(ctx, f, p)
	})
	if err != nil {
		return h.fail(c, err)
	}
	types := make([]string, 0)
	for _, t := range h.Deps.Archive.Types() {
		if archiveCtrl.Allowed(me, t) {
			types = append(types, t)
		}
	}
	return h.render(c, http.StatusOK, "archive", "Archive", archiveView{Table: NewTable(pg, c), Types: types})
}

func archiveID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Invalid("invalid archive id")
	}
	return uint(id), nil
}

// archiveAction runs restore or purge from the archive table and reports
// the outcome as a toast.
func (h *Pages) archiveAction(c echo.Context, verb string, run func(id uint) error) error {
	back := "/archive"
	if ref := c.FormValue("back"); ref != "" {
		back = safeNext(ref)
	}
	id, err := archiveID(c)
	if err == nil {
		var rec *entities.ArchiveRecord
		rec, err = h.Deps.Archive.Get(c.Request().Context(), id)
		if err == nil && !archiveCtrl.Allowed(session.Must(c), rec.DocumentType) {
			err = apperr.ErrForbidden
		}
		if err == nil {
			err = run(id)
		}
		if err == nil {
			flash.Set(c, flash.Success, rec.DisplayName+" "+verb+".")
			return c.Redirect(http.StatusSeeOther, back)
		}
	}
	if apperr.Status(err) == http.StatusInternalServerError {
		h.Log.Error("archive action failed", zap.String("verb", verb), zap.Error(err))
		flash.Set(c, flash.Error, "Could not complete the request.")
	} else if errors.Is(err, apperr.ErrForbidden) {
		flash.Set(c, flash.Error, "You are not allowed to do that.")
	} else {
		flash.Set(c, flash.Error, apperr.Message(err))
	}
	return c.Redirect(http.StatusSeeOther, back)
}

func (h *Pages) ArchiveRestore(c echo.Context) error {
	return h.archiveAction(c, "restored", func(id uint) error {
		_, err := h.Deps.Archive.Restore(c.Request().Context(), id)
		return err
	})
}

func (h *Pages) ArchivePurge(c echo.Context) error {
	return h.archiveAction(c, "permanently deleted", func(id uint) error {
		return h.Deps.Archive.Purge(c.Request().Context(), id)
	})
}

type projectsView struct {
	Table    Table[entities.Project]
	Statuses []string
}

func (h *Pages) Projects(c echo.Context) error {
	ctx := c.Request().Context()
	me := session.Must(c)
	f := projectCtrl.FilterFromQuery(c)
	pg, err := list(c, h.PageSize, func(p paging.Params) (paging.Page[entities.Project], error) {
		return h.Deps.Projects.List(ctx, me, f, p)
	})
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, http.StatusOK, "projects", "Projects", projectsView{
		Table:    NewTable(pg, c),
		Statuses: []string{entities.ProjectPending, entities.ProjectOngoing, entities.ProjectCompleted, entities.ProjectFailed},
	})
}

type projectView struct {
	Project   *entities.Project
	CanManage bool
	Present   int
	Absent    int
}

func (h *Pages) Project(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Project not found.")
	}
	me := session.Must(c)
	p, err := h.Deps.Projects.Get(c.Request().Context(), me, uint(id))
	if err != nil {
		return h.fail(c, err)
	}
	v := projectView{Project: p, CanManage: me.Oversees() || p.FarmPresidentID == me.UserID}
	for _, a := range p.Attendance {
		if a.Present {
			v.Present++
		} else {
			v.Absent++
		}
	}
	return h.render(c, http.StatusOK, "project", p.Name, v)
}

type harvestsView struct {
	Table   Table[entities.Harvest]
	Summary *harvestService.Summary
	Crops   []entities.CropType
}

func (h *Pages) Harvests(c echo.Context) error {
	ctx := c.Request().Context()
	me := session.Must(c)
	f, err := harvestCtrl.FilterFromQuery(c)
	if err != nil {
		return h.fail(c, err)
	}
	pg, err := list(c, h.PageSize, func(p paging.Params) (paging.Page[entities.Harvest], error) {
		return h.Deps.Harvests.List(ctx, me, f, p)
	})
	if err != nil {
		return h.fail(c, err)
	}
	sum, err := h.Deps.Harvests.Summarize(ctx, me, f)
	if err != nil {
		return h.fail(c, err)
	}
	crops, err := h.Crops.All(ctx)
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, http.StatusOK, "harvests", "Harvests", harvestsView{Table: NewTable(pg, c), Summary: sum, Crops: crops})
}

func (h *Pages) Teams(c echo.Context) error {
	ctx := c.Request().Context()
	me := session.Must(c)
	pg, err := list(c, h.PageSize, func(p paging.Params) (paging.Page[entities.Team], error) {
		return h.Deps.Teams.List(ctx, me, c.QueryParam("q"), p)
	})
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, http.StatusOK, "teams", "Teams", NewTable(pg, c))
}

type stockView struct {
	Table Table[entities.Stock]
	Kinds []string
	All   bool
}

func (h *Pages) Stock(c echo.Context) error {
	ctx := c.Request().Context()
	me := session.Must(c)
	kind := c.QueryParam("kind")
	owner, _ := strconv.ParseUint(c.QueryParam("owner_id"), 10, 64)
	all := me.Oversees() && owner == 0
	pg, err := list(c, h.PageSize, func(p paging.Params) (paging.Page[entities.Stock], error) {
		if all {
			rows, err := h.Deps.Stock.All(ctx, kind)
			if err != nil {
				return paging.Page[entities.Stock]{}, err
			}
			return paging.Slice(rows, p), nil
		}
		ownerID := me.UserID
		if me.Oversees() {
			ownerID = uint(owner)
		}
		return h.Deps.Stock.List(ctx, ownerID, kind, p)
	})
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, http.StatusOK, "stock", "Stock", stockView{Table: NewTable(pg, c), Kinds: entities.Kinds, All: all})
}
