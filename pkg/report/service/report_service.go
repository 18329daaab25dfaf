package service

import (
	"context"

	harvestRepo "farmportal/pkg/harvest/repository"
	"farmportal/pkg/session"
)

const (
	MimePDF  = "application/pdf"
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// StockScope selects the stock rows of a report. OwnerID zero means every
// owner and is only honoured for overseers.
type StockScope struct {
	OwnerID uint
	Kind    string
}

// File is a generated report ready to send.
type File struct {
	Name string
	Mime string
	Data []byte
}

type ReportService interface {
	ProjectPDF(ctx context.Context, actor session.Principal, id uint) (*File, error)
	HarvestPDF(ctx context.Context, actor session.Principal, f harvestRepo.Filter) (*File, error)
	InventoryPDF(ctx context.Context, actor session.Principal, scope StockScope) (*File, error)
	HarvestXLSX(ctx context.Context, actor session.Principal, f harvestRepo.Filter) (*File, error)
	StockXLSX(ctx context.Context, actor session.Principal, scope StockScope) (*File, error)
}
