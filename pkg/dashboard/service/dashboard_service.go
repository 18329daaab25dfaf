package service

import (
	"context"

	"farmportal/entities"
	harvestService "farmportal/pkg/harvest/service"
	"farmportal/pkg/session"
)

type Admin struct {
	UserCounts     map[string]int
	TotalUsers     int
	ArchiveCounts  map[string]int
	TotalArchived  int
	Counters       []entities.IDCounter
	RecentArchives []entities.ArchiveRecord
}

type Supervisor struct {
	ProjectCounts  map[string]int
	Harvests       *harvestService.Summary
	RecentProjects []entities.Project
}

type FarmPresident struct {
	ProjectCounts map[string]int
	Projects      []entities.Project
	Teams         []entities.Team
	Stock         []entities.Stock
}

type HeadFarmer struct {
	Projects  []entities.Project
	Teams     []entities.Team
	OpenTasks []entities.ProjectTask
}

type DashboardService interface {
	Admin(ctx context.Context, actor session.Principal) (*Admin, error)
	Supervisor(ctx context.Context, actor session.Principal) (*Supervisor, error)
	FarmPresident(ctx context.Context, actor session.Principal) (*FarmPresident, error)
	HeadFarmer(ctx context.Context, actor session.Principal) (*HeadFarmer, error)
}

// Path is the dashboard page for a role; farmers have none.
func Path(role string) string {
	switch role {
	case entities.RoleAdmin:
		return "/admin"
	case entities.RoleSupervisor:
		return "/supervisor"
	case entities.RoleFarmPresident:
		return "/farm-president"
	case entities.RoleHeadFarmer:
		return "/head-farmer"
	}
	return ""
}
