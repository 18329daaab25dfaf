package serviceImp

import (
	"context"

	"farmportal/entities"
	archiveRepo "farmportal/pkg/archive/repository"
	archiveService "farmportal/pkg/archive/service"
	catalogService "farmportal/pkg/catalog/service"
	counterrepo "farmportal/pkg/counter/repository"
	"farmportal/pkg/dashboard/service"
	harvestRepo "farmportal/pkg/harvest/repository"
	harvestService "farmportal/pkg/harvest/service"
	"farmportal/pkg/paging"
	projectRepo "farmportal/pkg/project/repository"
	projectService "farmportal/pkg/project/service"
	"farmportal/pkg/session"
	teamService "farmportal/pkg/team/service"
	userService "farmportal/pkg/user/service"
)

const recent = 5

type Deps struct {
	Users    userService.UserService
	Archive  archiveService.ArchiveService
	Counters counterrepo.CounterRepository
	Projects projectService.ProjectService
	Harvests harvestService.HarvestService
	Teams    teamService.TeamService
	Stock    catalogService.StockService
}

type dashboardSvc struct{ Deps }

func New(d Deps) service.DashboardService { return &dashboardSvc{d} }

var first = paging.Params{Page: 1, Size: recent}

func (s *dashboardSvc) Admin(ctx context.Context, actor session.Principal) (*service.Admin, error) {
	users, err := s.Users.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	archived, err := s.Archive.CountByType(ctx)
	if err != nil {
		return nil, err
	}
	counters, err := s.Counters.List(ctx)
	if err != nil {
		return nil, err
	}
	latest, err := s.Archive.List(ctx, archiveRepo.Filter{}, first)
	if err != nil {
		return nil, err
	}
	out := &service.Admin{UserCounts: users, ArchiveCounts: archived, Counters: counters, RecentArchives: latest.Items}
	for _, n := range users {
		out.TotalUsers += n
	}
	for _, n := range archived {
		out.TotalArchived += n
	}
	return out, nil
}

func (s *dashboardSvc) Supervisor(ctx context.Context, actor session.Principal) (*service.Supervisor, error) {
	counts, err := s.Projects.CountByStatus(ctx, actor)
	if err != nil {
		return nil, err
	}
	sum, err := s.Harvests.Summarize(ctx, actor, harvestRepo.Filter{})
	if err != nil {
		return nil, err
	}
	latest, err := s.Projects.List(ctx, actor, projectRepo.Filter{}, first)
	if err != nil {
		return nil, err
	}
	return &service.Supervisor{ProjectCounts: counts, Harvests: sum, RecentProjects: latest.Items}, nil
}

func (s *dashboardSvc) FarmPresident(ctx context.Context, actor session.Principal) (*service.FarmPresident, error) {
	counts, err := s.Projects.CountByStatus(ctx, actor)
	if err != nil {
		return nil, err
	}
	active, err := s.Projects.List(ctx, actor, projectRepo.Filter{Status: entities.ProjectOngoing}, paging.Params{Page: 1, Size: paging.MaxSize})
	if err != nil {
		return nil, err
	}
	teams, err := s.Teams.List(ctx, actor, "", paging.Params{Page: 1, Size: paging.MaxSize})
	if err != nil {
		return nil, err
	}
	stock, err := s.Stock.List(ctx, actor.UserID, "", paging.Params{Page: 1, Size: paging.MaxSize})
	if err != nil {
		return nil, err
	}
	return &service.FarmPresident{ProjectCounts: counts, Projects: active.Items, Teams: teams.Items, Stock: stock.Items}, nil
}

func (s *dashboardSvc) HeadFarmer(ctx context.Context, actor session.Principal) (*service.HeadFarmer, error) {
	projects, err := s.Projects.List(ctx, actor, projectRepo.Filter{Status: entities.ProjectOngoing}, paging.Params{Page: 1, Size: paging.MaxSize})
	if err != nil {
		return nil, err
	}
	teams, err := s.Teams.List(ctx, actor, "", paging.Params{Page: 1, Size: paging.MaxSize})
	if err != nil {
		return nil, err
	}
	tasks, err := s.Projects.OpenTasks(ctx, actor, 20)
	if err != nil {
		return nil, err
	}
	return &service.HeadFarmer{Projects: projects.Items, Teams: teams.Items, OpenTasks: tasks}, nil
}
