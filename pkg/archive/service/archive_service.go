package service

import (
	"context"

	"farmportal/entities"
	"farmportal/pkg/archive/repository"
	"farmportal/pkg/paging"
	"farmportal/pkg/session"
)

// Document types that can be archived.
const (
	TypeUser       = "user"
	TypeCropType   = "crop_type"
	TypeFertilizer = "fertilizer"
	TypeEquipment  = "equipment"
	TypeProject    = "project"
)

type ArchiveService interface {
	// Archive moves the document into the archive under a fresh archive id.
	Archive(ctx context.Context, docType string, id uint, actor session.Principal) (*entities.ArchiveRecord, error)
	// Restore puts the document back under its original id.
	Restore(ctx context.Context, archiveID uint) (*entities.ArchiveRecord, error)
	// Purge deletes the archived document for good.
	Purge(ctx context.Context, archiveID uint) error
	Get(ctx context.Context, archiveID uint) (*entities.ArchiveRecord, error)
	List(ctx context.Context, f repository.Filter, p paging.Params) (paging.Page[entities.ArchiveRecord], error)
	CountByType(ctx context.Context) (map[string]int, error)
	Types() []string
}
