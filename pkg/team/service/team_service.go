package service

import (
	"context"

	"farmportal/entities"
	"farmportal/pkg/paging"
	"farmportal/pkg/session"
)

type TeamInput struct {
	Name      string `json:"name"`
	LeaderID  uint   `json:"leader_id"`
	MemberIDs []uint `json:"member_ids"`
	Barangay  string `json:"barangay"`
	// FarmPresidentID is honoured only for supervisors and admins; a farm
	// president always owns the teams they create.
	FarmPresidentID uint `json:"farm_president_id"`
}

type TeamService interface {
	Create(ctx context.Context, actor session.Principal, in TeamInput) (*entities.Team, error)
	Update(ctx context.Context, actor session.Principal, id uint, in TeamInput) (*entities.Team, error)
	// Delete refuses teams assigned to an ongoing project.
	Delete(ctx context.Context, actor session.Principal, id uint) error
	Get(ctx context.Context, actor session.Principal, id uint) (*entities.Team, error)
	// List shows a farm president their own teams, a head farmer the teams
	// they lead and supervisors or admins every team.
	List(ctx context.Context, actor session.Principal, query string, p paging.Params) (paging.Page[entities.Team], error)
}
