package repository

import (
	"context"

	"gorm.io/gorm"

	"farmportal/entities"
)

const (
	Users       = "users"
	Teams       = "teams"
	CropTypes   = "crop_types"
	Fertilizers = "fertilizers"
	Equipments  = "equipments"
	Projects    = "projects"
	Harvests    = "harvests"
	Archives    = "archives"
)

type CounterRepository interface {
	// WithTx binds the repository to a running transaction.
	WithTx(tx *gorm.DB) CounterRepository
	Next(ctx context.Context, name string) (uint, error)
	Current(ctx context.Context, name string) (uint, error)
	// Seed raises the counter to at least floor; it never lowers it.
	Seed(ctx context.Context, name string, floor uint) error
	List(ctx context.Context) ([]entities.IDCounter, error)
}
