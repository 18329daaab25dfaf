package serviceImp

import (
	"context"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	"farmportal/pkg/catalog/repository"
	"farmportal/pkg/catalog/service"
	"farmportal/pkg/paging"
)

type stockSvc struct {
	db       *gorm.DB
	stock    repository.StockRepository
	catalogs repository.Catalogs
}

func NewStockService(db *gorm.DB, stock repository.StockRepository, catalogs repository.Catalogs) service.StockService {
	return &stockSvc{db: db, stock: stock, catalogs: catalogs}
}

func (s *stockSvc) List(ctx context.Context, ownerID uint, kind string, p paging.Params) (paging.Page[entities.Stock], error) {
	if kind != "" {
		if _, ok := s.catalogs.Describer(kind); !ok {
			return paging.Page[entities.Stock]{}, apperr.Invalid("unknown stock kind %q", kind)
		}
	}
	rows, total, err := s.stock.ListByOwner(ctx, ownerID, kind, p)
	if err != nil {
		return paging.Page[entities.Stock]{}, err
	}
	return paging.New(rows, p, total), nil
}

func (s *stockSvc) All(ctx context.Context, kind string) ([]entities.Stock, error) {
	return s.stock.All(ctx, kind)
}

func (s *stockSvc) Adjust(ctx context.Context, kind string, itemID, ownerID uint, delta float64) (*entities.Stock, error) {
	if delta == 0 {
		return nil, apperr.Invalid("quantity change cannot be zero")
	}
	var out *entities.Stock
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name, unit, err := s.describe(ctx, tx, kind, itemID)
		if err != nil {
			return err
		}
		out, err = s.stock.WithTx(tx).Adjust(ctx, kind, itemID, ownerID, name, unit, delta)
		return err
	})
	return out, err
}

func (s *stockSvc) Set(ctx context.Context, kind string, itemID, ownerID uint, qty float64) (*entities.Stock, error) {
	var out *entities.Stock
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name, unit, err := s.describe(ctx, tx, kind, itemID)
		if err != nil {
			return err
		}
		out, err = s.stock.WithTx(tx).Set(ctx, kind, itemID, ownerID, name, unit, qty)
		return err
	})
	return out, err
}

func (s *stockSvc) describe(ctx context.Context, tx *gorm.DB, kind string, itemID uint) (string, string, error) {
	d, ok := s.catalogs.WithTx(tx).Describer(kind)
	if !ok {
		return "", "", apperr.Invalid("unknown stock kind %q", kind)
	}
	return d.Describe(ctx, itemID)
}
