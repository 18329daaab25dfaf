package service

import (
	"context"

	"farmportal/entities"
	"farmportal/pkg/harvest/repository"
	"farmportal/pkg/paging"
	"farmportal/pkg/session"
)

type HarvestInput struct {
	ProjectID   uint    `json:"project_id"`
	TotalKg     float64 `json:"total_kg"`
	HarvestDate string  `json:"harvest_date"`
	Notes       string  `json:"notes"`
}

// Group aggregates harvests sharing a crop type or barangay.
type Group struct {
	Key              string  `json:"key"`
	Count            int     `json:"count"`
	TotalTons        float64 `json:"total_tons"`
	TotalHectares    float64 `json:"total_hectares"`
	MeanProductivity float64 `json:"mean_productivity"`
}

type Summary struct {
	Count      int     `json:"count"`
	TotalTons  float64 `json:"total_tons"`
	ByCrop     []Group `json:"by_crop"`
	ByBarangay []Group `json:"by_barangay"`
}

type HarvestService interface {
	// Record closes an ongoing project with its harvest and books the crop
	// into the farm president's stock.
	Record(ctx context.Context, actor session.Principal, in HarvestInput) (*entities.Harvest, error)
	Get(ctx context.Context, actor session.Principal, id uint) (*entities.Harvest, error)
	List(ctx context.Context, actor session.Principal, f repository.Filter, p paging.Params) (paging.Page[entities.Harvest], error)
	All(ctx context.Context, actor session.Principal, f repository.Filter) ([]entities.Harvest, error)
	Summarize(ctx context.Context, actor session.Principal, f repository.Filter) (*Summary, error)
}
