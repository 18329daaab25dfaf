package service

import (
	"context"

	"farmportal/entities"
	"farmportal/pkg/paging"
)

type ItemInput struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

type ItemPatch struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Unit        *string `json:"unit"`
	Description *string `json:"description"`
}

type CatalogService[T any] interface {
	Create(ctx context.Context, in ItemInput) (*T, error)
	Update(ctx context.Context, id uint, patch ItemPatch) (*T, error)
	Get(ctx context.Context, id uint) (*T, error)
	List(ctx context.Context, query string, p paging.Params) (paging.Page[T], error)
	All(ctx context.Context) ([]T, error)
}

type StockService interface {
	List(ctx context.Context, ownerID uint, kind string, p paging.Params) (paging.Page[entities.Stock], error)
	All(ctx context.Context, kind string) ([]entities.Stock, error)
	Adjust(ctx context.Context, kind string, itemID, ownerID uint, delta float64) (*entities.Stock, error)
	Set(ctx context.Context, kind string, itemID, ownerID uint, qty float64) (*entities.Stock, error)
}
