package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/paging"
)

type Filter struct {
	CropTypeID      uint
	Barangay        string
	FarmPresidentID uint
	// From and To bound the harvest date, inclusive; zero means open.
	From  time.Time
	To    time.Time
	Query string
}

type HarvestRepository interface {
	WithTx(tx *gorm.DB) HarvestRepository
	Create(ctx context.Context, h *entities.Harvest) error
	FindByID(ctx context.Context, id uint) (*entities.Harvest, error)
	ExistsForProject(ctx context.Context, projectID uint) (bool, error)
	List(ctx context.Context, f Filter, p paging.Params) ([]entities.Harvest, int, error)
	All(ctx context.Context, f Filter) ([]entities.Harvest, error)
}
