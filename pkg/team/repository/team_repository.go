package repository

import (
	"context"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/paging"
)

type Filter struct {
	// FarmPresidentID limits the list to one owner; zero lists every team.
	FarmPresidentID uint
	LeaderID        uint
	Query           string
}

type TeamRepository interface {
	WithTx(tx *gorm.DB) TeamRepository
	Create(ctx context.Context, t *entities.Team) error
	Update(ctx context.Context, t *entities.Team) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*entities.Team, error)
	NameTaken(ctx context.Context, name string, exceptID uint) (bool, error)
	List(ctx context.Context, f Filter, p paging.Params) ([]entities.Team, int, error)
	All(ctx context.Context, f Filter) ([]entities.Team, error)
	// OpenProjects counts pending or ongoing projects the team is assigned to.
	OpenProjects(ctx context.Context, id uint) (int, error)
}
