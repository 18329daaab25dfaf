package router

import (
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"farmportal/config"
	"farmportal/entities"
	archiveCtrlImp "farmportal/pkg/archive/controllerImp"
	archiveRepoImp "farmportal/pkg/archive/repositoryImp"
	archiveService "farmportal/pkg/archive/service"
	archiveServiceImp "farmportal/pkg/archive/serviceImp"
	authCtrlImp "farmportal/pkg/auth/controllerImp"
	authServiceImp "farmportal/pkg/auth/serviceImp"
	"farmportal/pkg/auth/token"
	catalogCtrlImp "farmportal/pkg/catalog/controllerImp"
	catalogRepoImp "farmportal/pkg/catalog/repositoryImp"
	catalogServiceImp "farmportal/pkg/catalog/serviceImp"
	counterRepo "farmportal/pkg/counter/repository"
	counterRepoImp "farmportal/pkg/counter/repositoryImp"
	dashboardServiceImp "farmportal/pkg/dashboard/serviceImp"
	harvestCtrlImp "farmportal/pkg/harvest/controllerImp"
	harvestRepoImp "farmportal/pkg/harvest/repositoryImp"
	harvestServiceImp "farmportal/pkg/harvest/serviceImp"
	healthCtrlImp "farmportal/pkg/health/controllerImp"
	"farmportal/pkg/logger"
	"farmportal/pkg/middleware"
	projectCtrlImp "farmportal/pkg/project/controllerImp"
	projectRepoImp "farmportal/pkg/project/repositoryImp"
	projectServiceImp "farmportal/pkg/project/serviceImp"
	reportCtrlImp "farmportal/pkg/report/controllerImp"
	reportServiceImp "farmportal/pkg/report/serviceImp"
	"farmportal/pkg/seed"
	teamCtrlImp "farmportal/pkg/team/controllerImp"
	teamRepoImp "farmportal/pkg/team/repositoryImp"
	teamServiceImp "farmportal/pkg/team/serviceImp"
	userCtrlImp "farmportal/pkg/user/controllerImp"
	userRepoImp "farmportal/pkg/user/repositoryImp"
	userServiceImp "farmportal/pkg/user/serviceImp"
	"farmportal/pkg/web"
)

// SeedDeps builds the services the seed loader writes through.
func SeedDeps(db *gorm.DB, log *zap.Logger) seed.Deps {
	counters := counterRepoImp.New(db)
	users := userRepoImp.New(db)
	catalogs := catalogRepoImp.NewCatalogs(db)
	return seed.Deps{
		Users:       userServiceImp.New(db, users, counters),
		UserRepo:    users,
		Crops:       catalogServiceImp.New[entities.CropType](db, catalogs.Crops, counters, counterRepo.CropTypes),
		Fertilizers: catalogServiceImp.New[entities.Fertilizer](db, catalogs.Fertilizers, counters, counterRepo.Fertilizers),
		Equipment:   catalogServiceImp.New[entities.Equipment](db, catalogs.Equipment, counters, counterRepo.Equipments),
		Stock:       catalogServiceImp.NewStockService(db, catalogRepoImp.NewStock(db), catalogs),
		Log:         log,
	}
}

// Build wires repositories, services and controllers on top of db and
// returns the configured server.
func Build(cfg config.AppConfig, db *gorm.DB, log *zap.Logger) (*echo.Echo, error) {
	log = logger.OrNop(log)

	// Repositories
	counters := counterRepoImp.New(db)
	usersRepo := userRepoImp.New(db)
	teamsRepo := teamRepoImp.New(db)
	catalogs := catalogRepoImp.NewCatalogs(db)
	stockRepo := catalogRepoImp.NewStock(db)
	projectsRepo := projectRepoImp.New(db)

	// Services
	users := userServiceImp.New(db, usersRepo, counters)
	archive := archiveServiceImp.New(db, archiveRepoImp.New(db), counters, log)
	crops := catalogServiceImp.New[entities.CropType](db, catalogs.Crops, counters, counterRepo.CropTypes)
	fertilizers := catalogServiceImp.New[entities.Fertilizer](db, catalogs.Fertilizers, counters, counterRepo.Fertilizers)
	equipment := catalogServiceImp.New[entities.Equipment](db, catalogs.Equipment, counters, counterRepo.Equipments)
	stock := catalogServiceImp.NewStockService(db, stockRepo, catalogs)
	teams := teamServiceImp.New(db, teamsRepo, usersRepo, counters)
	projects := projectServiceImp.New(projectServiceImp.Deps{
		DB: db, Repo: projectsRepo, Teams: teamsRepo, Users: usersRepo,
		Catalogs: catalogs, Stock: stockRepo, Counters: counters, Log: log,
	})
	harvests := harvestServiceImp.New(harvestServiceImp.Deps{
		DB: db, Repo: harvestRepoImp.New(db), Projects: projects, ProjectsRepo: projectsRepo,
		Stock: stockRepo, Counters: counters, Location: cfg.Location(), Log: log,
	})
	dashboards := dashboardServiceImp.New(dashboardServiceImp.Deps{
		Users: users, Archive: archive, Counters: counters, Projects: projects,
		Harvests: harvests, Teams: teams, Stock: stock,
	})
	reports := reportServiceImp.New(reportServiceImp.Deps{
		Projects: projects, Harvests: harvests, Stock: stock, Users: usersRepo,
		Location: cfg.Location(), Log: log,
	})
	tokens := token.NewIssuer(cfg.JWTSecret, cfg.SessionTTL)
	auth := authServiceImp.New(users, tokens, log)

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = web.ErrorHandler(log)
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.AccessLog(log))
	e.Use(echoMiddleware.BodyLimit("2M"))

	h := Controllers{
		Auth:        authCtrlImp.NewAuthController(auth, cfg.CookieSecure),
		Users:       userCtrlImp.New(users, archive, cfg.PageSize),
		Teams:       teamCtrlImp.New(teams, cfg.PageSize),
		Crops:       catalogCtrlImp.New(crops, archive, archiveService.TypeCropType, cfg.PageSize),
		Fertilizers: catalogCtrlImp.New(fertilizers, archive, archiveService.TypeFertilizer, cfg.PageSize),
		Equipment:   catalogCtrlImp.New(equipment, archive, archiveService.TypeEquipment, cfg.PageSize),
		Stock:       catalogCtrlImp.NewStock(stock, cfg.PageSize),
		Projects:    projectCtrlImp.New(projects, archive, cfg.PageSize),
		Harvests:    harvestCtrlImp.New(harvests, cfg.PageSize),
		Archive:     archiveCtrlImp.New(archive, cfg.PageSize),
		Reports:     reportCtrlImp.New(reports),
		Health:      healthCtrlImp.NewHealthCtrl(db),
		Pages: web.NewPages(web.Deps{
			Auth: auth, Users: users, Archive: archive, Projects: projects, Harvests: harvests,
			Teams: teams, Stock: stock, Crops: crops, Dashboards: dashboards,
			PageSize: cfg.PageSize, CookieSecure: cfg.CookieSecure, Log: log,
		}),
	}
	return New(e, h, middleware.Authenticate(auth, auth.Refresh)), nil
}
