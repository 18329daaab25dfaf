package repository

import (
	"context"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/paging"
)

type Filter struct {
	DocumentType string
	Query        string
	// ExcludeTypes hides document types the caller may not see.
	ExcludeTypes []string
}

type ArchiveRepository interface {
	WithTx(tx *gorm.DB) ArchiveRepository
	Create(ctx context.Context, rec *entities.ArchiveRecord) error
	FindByID(ctx context.Context, archiveID uint) (*entities.ArchiveRecord, error)
	Delete(ctx context.Context, archiveID uint) error
	List(ctx context.Context, f Filter, p paging.Params) ([]entities.ArchiveRecord, int, error)
	CountByType(ctx context.Context) (map[string]int, error)
}
