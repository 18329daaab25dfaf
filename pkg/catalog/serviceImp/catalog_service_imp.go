package serviceImp

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	"farmportal/pkg/catalog/repository"
	"farmportal/pkg/catalog/service"
	counterrepo "farmportal/pkg/counter/repository"
	"farmportal/pkg/paging"
)

type itemPtr[T any] interface {
	*T
	entities.CatalogItem
}

type catalogSvc[T any, P itemPtr[T]] struct {
	db       *gorm.DB
	repo     repository.CatalogRepository[T]
	counters counterrepo.CounterRepository
	counter  string
}

func New[T any, P itemPtr[T]](db *gorm.DB, repo repository.CatalogRepository[T], counters counterrepo.CounterRepository, counter string) service.CatalogService[T] {
	return &catalogSvc[T, P]{db: db, repo: repo, counters: counters, counter: counter}
}

func (s *catalogSvc[T, P]) Create(ctx context.Context, in service.ItemInput) (*T, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Invalid("name is required")
	}
	var item T
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		taken, err := repo.NameTaken(ctx, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("%q already exists", name)
		}
		id, err := s.counters.WithTx(tx).Next(ctx, s.counter)
		if err != nil {
			return err
		}
		p := P(&item)
		p.SetItemID(id)
		f := p.Fields()
		f.Name = name
		f.Category = strings.TrimSpace(in.Category)
		f.Unit = strings.TrimSpace(in.Unit)
		f.Description = strings.TrimSpace(in.Description)
		if f.Unit == "" {
			f.Unit = entities.DefaultUnit(p.Kind())
		}
		return repo.Create(ctx, &item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *catalogSvc[T, P]) Update(ctx context.Context, id uint, patch service.ItemPatch) (*T, error) {
	var out *T
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cur, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		f := P(cur).Fields()
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return apperr.Invalid("name is required")
			}
			taken, err := repo.NameTaken(ctx, name, id)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict("%q already exists", name)
			}
			f.Name = name
		}
		if patch.Category != nil {
			f.Category = strings.TrimSpace(*patch.Category)
		}
		if patch.Unit != nil && strings.TrimSpace(*patch.Unit) != "" {
			f.Unit = strings.TrimSpace(*patch.Unit)
		}
		if patch.Description != nil {
			f.Description = strings.TrimSpace(*patch.Description)
		}
		out = cur
		return repo.Update(ctx, cur)
	})
	return out, err
}

func (s *catalogSvc[T, P]) Get(ctx context.Context, id uint) (*T, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *catalogSvc[T, P]) List(ctx context.Context, query string, p paging.Params) (paging.Page[T], error) {
	items, total, err := s.repo.List(ctx, query, p)
	if err != nil {
		return paging.Page[T]{}, err
	}
	return paging.New(items, p, total), nil
}

func (s *catalogSvc[T, P]) All(ctx context.Context) ([]T, error) {
	return s.repo.All(ctx)
}
