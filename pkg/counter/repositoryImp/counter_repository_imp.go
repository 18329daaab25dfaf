package repositoryImp

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/counter/repository"
)

type counterRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.CounterRepository { return &counterRepo{db} }

func (r *counterRepo) WithTx(tx *gorm.DB) repository.CounterRepository { return &counterRepo{tx} }

// Next bumps the counter in place and reads it back. When called outside a
// transaction it opens one so the increment and the read stay paired.
func (r *counterRepo) Next(ctx context.Context, name string) (uint, error) {
	var out uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entities.IDCounter{}).
			Where("name = ?", name).
			UpdateColumn("value", gorm.Expr("value + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&entities.IDCounter{Name: name, Value: 1}).Error; err != nil {
				return err
			}
			out = 1
			return nil
		}
		var c entities.IDCounter
		if err := tx.Where("name = ?", name).First(&c).Error; err != nil {
			return err
		}
		out = c.Value
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("next id for %s: %w", name, err)
	}
	return out, nil
}

func (r *counterRepo) Current(ctx context.Context, name string) (uint, error) {
	var c entities.IDCounter
	err := r.db.WithContext(ctx).Where("name = ?", name).Limit(1).Find(&c).Error
	return c.Value, err
}

func (r *counterRepo) Seed(ctx context.Context, name string, floor uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c entities.IDCounter
		if err := tx.Where("name = ?", name).Limit(1).Find(&c).Error; err != nil {
			return err
		}
		if c.Name == "" {
			return tx.Create(&entities.IDCounter{Name: name, Value: floor}).Error
		}
		if c.Value >= floor {
			return nil
		}
		return tx.Model(&entities.IDCounter{}).Where("name = ?", name).UpdateColumn("value", floor).Error
	})
}

func (r *counterRepo) List(ctx context.Context) ([]entities.IDCounter, error) {
	var out []entities.IDCounter
	return out, r.db.WithContext(ctx).Order("name ASC").Find(&out).Error
}
