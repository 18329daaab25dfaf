package repository

import (
	"context"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/paging"
)

// Describer resolves a catalog id to the name and unit stock rows carry.
type Describer interface {
	Describe(ctx context.Context, id uint) (name, unit string, err error)
}

type CatalogRepository[T any] interface {
	Describer
	WithTx(tx *gorm.DB) CatalogRepository[T]
	Create(ctx context.Context, item *T) error
	Update(ctx context.Context, item *T) error
	FindByID(ctx context.Context, id uint) (*T, error)
	// NameTaken reports whether another item (not exceptID) already uses
	// name, compared case-insensitively.
	NameTaken(ctx context.Context, name string, exceptID uint) (bool, error)
	List(ctx context.Context, query string, p paging.Params) ([]T, int, error)
	All(ctx context.Context) ([]T, error)
}

type StockRepository interface {
	WithTx(tx *gorm.DB) StockRepository
	Find(ctx context.Context, kind string, itemID, ownerID uint) (*entities.Stock, error)
	// Adjust adds delta to the stock row, creating it when needed. It fails
	// with apperr.ErrInsufficientStock instead of going below zero.
	Adjust(ctx context.Context, kind string, itemID, ownerID uint, name, unit string, delta float64) (*entities.Stock, error)
	Set(ctx context.Context, kind string, itemID, ownerID uint, name, unit string, qty float64) (*entities.Stock, error)
	ListByOwner(ctx context.Context, ownerID uint, kind string, p paging.Params) ([]entities.Stock, int, error)
	All(ctx context.Context, kind string) ([]entities.Stock, error)
}

// Catalogs groups the three catalog repositories so services that touch
// stock can resolve any kind.
type Catalogs struct {
	Crops       CatalogRepository[entities.CropType]
	Fertilizers CatalogRepository[entities.Fertilizer]
	Equipment   CatalogRepository[entities.Equipment]
}

func (c Catalogs) WithTx(tx *gorm.DB) Catalogs {
	return Catalogs{
		Crops:       c.Crops.WithTx(tx),
		Fertilizers: c.Fertilizers.WithTx(tx),
		Equipment:   c.Equipment.WithTx(tx),
	}
}

// Describer returns the repository for kind, or false for an unknown kind.
func (c Catalogs) Describer(kind string) (Describer, bool) {
	switch kind {
	case entities.KindCrop:
		return c.Crops, true
	case entities.KindFertilizer:
		return c.Fertilizers, true
	case entities.KindEquipment:
		return c.Equipment, true
	}
	return nil, false
}
