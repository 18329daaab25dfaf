package repositoryImp

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	"farmportal/pkg/catalog/repository"
	"farmportal/pkg/metrics"
	"farmportal/pkg/paging"
)

// below this a remaining quantity is treated as zero (float noise)
const epsilon = 1e-9

type stockRepo struct{ db *gorm.DB }

func NewStock(db *gorm.DB) repository.StockRepository { return &stockRepo{db} }

func (r *stockRepo) WithTx(tx *gorm.DB) repository.StockRepository { return &stockRepo{tx} }

func (r *stockRepo) Find(ctx context.Context, kind string, itemID, ownerID uint) (*entities.Stock, error) {
	var s entities.Stock
	err := r.db.WithContext(ctx).
		Where("kind = ? AND item_id = ? AND owner_id = ?", kind, itemID, ownerID).
		First(&s).Error
	if err != nil {
		return nil, apperr.FromDB(err, "stock")
	}
	return &s, nil
}

func (r *stockRepo) Adjust(ctx context.Context, kind string, itemID, ownerID uint, name, unit string, delta float64) (*entities.Stock, error) {
	var out entities.Stock
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s entities.Stock
		err := tx.Where("kind = ? AND item_id = ? AND owner_id = ?", kind, itemID, ownerID).
			Limit(1).Find(&s).Error
		if err != nil {
			return err
		}
		next := s.Quantity + delta
		if next < -epsilon {
			metrics.StockRejected.WithLabelValues(kind).Inc()
			return fmt.Errorf("%s %q: have %.2f, need %.2f: %w", kind, name, s.Quantity, -delta, apperr.ErrInsufficientStock)
		}
		if next < epsilon {
			next = 0
		}
		s.Kind, s.ItemID, s.OwnerID = kind, itemID, ownerID
		s.ItemName, s.Unit, s.Quantity = name, unit, next
		if err := tx.Save(&s).Error; err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *stockRepo) Set(ctx context.Context, kind string, itemID, ownerID uint, name, unit string, qty float64) (*entities.Stock, error) {
	if qty < 0 {
		return nil, apperr.Invalid("quantity cannot be negative")
	}
	var out entities.Stock
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("kind = ? AND item_id = ? AND owner_id = ?", kind, itemID, ownerID).
			Limit(1).Find(&out).Error; err != nil {
			return err
		}
		out.Kind, out.ItemID, out.OwnerID = kind, itemID, ownerID
		out.ItemName, out.Unit, out.Quantity = name, unit, qty
		return tx.Save(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *stockRepo) ListByOwner(ctx context.Context, ownerID uint, kind string, p paging.Params) ([]entities.Stock, int, error) {
	q := r.db.WithContext(ctx).Model(&entities.Stock{}).Where("owner_id = ?", ownerID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []entities.Stock
	err := q.Order("kind ASC, item_name ASC").Offset(p.Offset()).Limit(p.Size).Find(&out).Error
	return out, int(total), err
}

func (r *stockRepo) All(ctx context.Context, kind string) ([]entities.Stock, error) {
	q := r.db.WithContext(ctx).Model(&entities.Stock{})
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var out []entities.Stock
	return out, q.Order("owner_id ASC, kind ASC, item_name ASC").Find(&out).Error
}
