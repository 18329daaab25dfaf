package repository

import (
	"context"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/paging"
)

type Filter struct {
	Query    string
	Roles    []string
	Barangay string
}

// Ties counts the records that depend on a user's current role.
type Ties struct {
	LeadsTeams   int
	MemberOf     int
	OwnsTeams    int
	OwnsProjects int
}

func (t Ties) Any() bool {
	return t.LeadsTeams+t.MemberOf+t.OwnsTeams+t.OwnsProjects > 0
}

type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(ctx context.Context, u *entities.User) error
	Update(ctx context.Context, u *entities.User) error
	FindByID(ctx context.Context, id uint) (*entities.User, error)
	FindByIDs(ctx context.Context, ids []uint) ([]entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error)
	List(ctx context.Context, f Filter, p paging.Params) ([]entities.User, int, error)
	CountByRole(ctx context.Context) (map[string]int, error)
	Ties(ctx context.Context, id uint) (Ties, error)
}
