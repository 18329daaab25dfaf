package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"farmportal/entities"
	archiveCtrlImp "farmportal/pkg/archive/controllerImp"
	authController "farmportal/pkg/auth/controller"
	catalogCtrlImp "farmportal/pkg/catalog/controllerImp"
	harvestCtrlImp "farmportal/pkg/harvest/controllerImp"
	healthCtrlImp "farmportal/pkg/health/controllerImp"
	"farmportal/pkg/middleware"
	projectCtrlImp "farmportal/pkg/project/controllerImp"
	reportCtrlImp "farmportal/pkg/report/controllerImp"
	teamCtrlImp "farmportal/pkg/team/controllerImp"
	userCtrlImp "farmportal/pkg/user/controllerImp"
	"farmportal/pkg/web"
)

type Controllers struct {
	Auth        authController.AuthController
	Users       *userCtrlImp.UserCtrl
	Teams       *teamCtrlImp.TeamCtrl
	Crops       *catalogCtrlImp.CatalogCtrl[entities.CropType]
	Fertilizers *catalogCtrlImp.CatalogCtrl[entities.Fertilizer]
	Equipment   *catalogCtrlImp.CatalogCtrl[entities.Equipment]
	Stock       *catalogCtrlImp.StockCtrl
	Projects    *projectCtrlImp.ProjectCtrl
	Harvests    *harvestCtrlImp.HarvestCtrl
	Archive     *archiveCtrlImp.ArchiveCtrl
	Reports     *reportCtrlImp.ReportCtrl
	Health      *healthCtrlImp.HealthCtrl
	Pages       *web.Pages
}

const (
	admin      = entities.RoleAdmin
	supervisor = entities.RoleSupervisor
	president  = entities.RoleFarmPresident
	headFarmer = entities.RoleHeadFarmer
)

var (
	overseers = []string{admin, supervisor}
	managers  = []string{admin, supervisor, president}
	staff     = []string{admin, supervisor, president, headFarmer}
)

// New registers every route. auth must be the Authenticate middleware.
func New(e *echo.Echo, h Controllers, auth echo.MiddlewareFunc) *echo.Echo {
	e.GET("/health", h.Health.Health)
	e.GET("/metrics", healthCtrlImp.Metrics())

	registerAPI(e, h, auth)
	registerPages(e, h, auth)
	return e
}

func registerAPI(e *echo.Echo, h Controllers, auth echo.MiddlewareFunc) {
	role := middleware.RequireRole

	e.POST("/api/auth/login", h.Auth.Login)
	e.POST("/api/auth/logout", h.Auth.Logout)

	api := e.Group("/api", auth)
	api.GET("/auth/me", h.Auth.WhoAmI)
	api.POST("/me/password", h.Users.ChangeOwnPassword)

	users := api.Group("/users", role(admin))
	users.GET("", h.Users.List)
	users.POST("", h.Users.Create)
	users.GET("/:id", h.Users.Get)
	users.PATCH("/:id", h.Users.Update)
	users.POST("/:id/password", h.Users.ResetPassword)
	users.DELETE("/:id", h.Users.Archive)
	api.GET("/farmers", h.Users.Farmers, role(staff...))

	catalog := func(path string, c interface {
		List(echo.Context) error
		Get(echo.Context) error
		Create(echo.Context) error
		Update(echo.Context) error
		Archive(echo.Context) error
	}) {
		g := api.Group(path)
		g.GET("", c.List)
		g.GET("/:id", c.Get)
		g.POST("", c.Create, role(overseers...))
		g.PATCH("/:id", c.Update, role(overseers...))
		g.DELETE("/:id", c.Archive, role(overseers...))
	}
	catalog("/crop-types", h.Crops)
	catalog("/fertilizers", h.Fertilizers)
	catalog("/equipment", h.Equipment)

	stock := api.Group("/stock", role(managers...))
	stock.GET("", h.Stock.List)
	stock.PUT("", h.Stock.Set)
	stock.POST("/adjust", h.Stock.Adjust)

	teams := api.Group("/teams")
	teams.GET("", h.Teams.List)
	teams.GET("/:id", h.Teams.Get)
	teams.POST("", h.Teams.Create, role(managers...))
	teams.PATCH("/:id", h.Teams.Update, role(managers...))
	teams.DELETE("/:id", h.Teams.Delete, role(managers...))

	projects := api.Group("/projects", role(staff...))
	projects.GET("", h.Projects.List)
	projects.POST("", h.Projects.Create, role(overseers...))
	projects.GET("/:id", h.Projects.Get)
	projects.PATCH("/:id", h.Projects.Update, role(managers...))
	projects.DELETE("/:id", h.Projects.Archive, role(overseers...))
	projects.POST("/:id/start", h.Projects.Start, role(managers...))
	projects.POST("/:id/fail", h.Projects.Fail, role(managers...))
	projects.POST("/:id/resources", h.Projects.AllocateResource, role(managers...))
	projects.POST("/:id/tasks", h.Projects.AddTask)
	projects.PATCH("/:id/tasks/:task_id", h.Projects.UpdateTask)
	projects.DELETE("/:id/tasks/:task_id", h.Projects.DeleteTask)
	projects.GET("/:id/attendance", h.Projects.Attendance)
	projects.POST("/:id/attendance", h.Projects.RecordAttendance)

	harvests := api.Group("/harvests", role(managers...))
	harvests.GET("", h.Harvests.List)
	harvests.GET("/summary", h.Harvests.Summary)
	harvests.GET("/:id", h.Harvests.Get)
	harvests.POST("", h.Harvests.Record)

	archive := api.Group("/archive", role(overseers...))
	archive.GET("", h.Archive.List)
	archive.POST("", h.Archive.Archive)
	archive.GET("/:id", h.Archive.Get)
	archive.POST("/:id/restore", h.Archive.Restore)
	archive.DELETE("/:id", h.Archive.Purge)

	reports := api.Group("/reports")
	registerReports(reports, h.Reports)
}

func registerReports(g *echo.Group, r *reportCtrlImp.ReportCtrl) {
	role := middleware.RequireRole
	g.GET("/projects/:id/pdf", r.ProjectPDF, role(staff...))
	g.GET("/harvests/pdf", r.HarvestPDF, role(managers...))
	g.GET("/harvests/xlsx", r.HarvestXLSX, role(managers...))
	g.GET("/inventory/pdf", r.InventoryPDF, role(managers...))
	g.GET("/stock/xlsx", r.StockXLSX, role(managers...))
}

func registerPages(e *echo.Echo, h Controllers, auth echo.MiddlewareFunc) {
	p := h.Pages
	role := middleware.RequireRole

	e.GET("/", func(c echo.Context) error { return c.Redirect(http.StatusSeeOther, "/dashboard") })
	e.GET("/login", p.LoginPage)
	e.POST("/login", p.LoginSubmit)
	e.POST("/logout", p.Logout)

	page := func(method, path string, fn echo.HandlerFunc, roles ...string) {
		mw := []echo.MiddlewareFunc{auth}
		if len(roles) > 0 {
			mw = append(mw, role(roles...))
		}
		e.Add(method, path, fn, mw...)
	}
	page(http.MethodGet, "/dashboard", p.Dashboard)
	page(http.MethodGet, "/admin", p.AdminDashboard, admin)
	page(http.MethodGet, "/supervisor", p.SupervisorDashboard, overseers...)
	page(http.MethodGet, "/farm-president", p.FarmPresidentDashboard, president)
	page(http.MethodGet, "/head-farmer", p.HeadFarmerDashboard, headFarmer)

	page(http.MethodGet, "/users", p.Users, admin)
	page(http.MethodGet, "/archive", p.Archive, overseers...)
	page(http.MethodPost, "/archive/:id/restore", p.ArchiveRestore, overseers...)
	page(http.MethodPost, "/archive/:id/purge", p.ArchivePurge, overseers...)
	page(http.MethodGet, "/projects", p.Projects, staff...)
	page(http.MethodGet, "/projects/:id", p.Project, staff...)
	page(http.MethodGet, "/harvests", p.Harvests, managers...)
	page(http.MethodGet, "/teams", p.Teams, staff...)
	page(http.MethodGet, "/stock", p.Stock, managers...)

	reports := e.Group("/reports", auth)
	registerReports(reports, h.Reports)
}
