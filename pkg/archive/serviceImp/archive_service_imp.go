package serviceImp

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	"farmportal/pkg/archive/repository"
	"farmportal/pkg/archive/service"
	counterrepo "farmportal/pkg/counter/repository"
	"farmportal/pkg/logger"
	"farmportal/pkg/metrics"
	"farmportal/pkg/paging"
	"farmportal/pkg/session"
)

// counterFor names the counter that issues ids for each document type.
var counterFor = map[string]string{
	service.TypeUser:       counterrepo.Users,
	service.TypeCropType:   counterrepo.CropTypes,
	service.TypeFertilizer: counterrepo.Fertilizers,
	service.TypeEquipment:  counterrepo.Equipments,
	service.TypeProject:    counterrepo.Projects,
}

type archiveSvc struct {
	db       *gorm.DB
	repo     repository.ArchiveRepository
	counters counterrepo.CounterRepository
	docs     map[string]document
	log      *zap.Logger
	now      func() time.Time
}

func New(db *gorm.DB, repo repository.ArchiveRepository, counters counterrepo.CounterRepository, log *zap.Logger) service.ArchiveService {
	return &archiveSvc{
		db:       db,
		repo:     repo,
		counters: counters,
		docs:     registry(),
		log:      logger.OrNop(log),
		now:      time.Now,
	}
}

func (s *archiveSvc) Types() []string {
	out := make([]string, 0, len(s.docs))
	for k := range s.docs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// label keeps the metric's document_type to the registered types.
func (s *archiveSvc) label(docType string) string {
	if _, ok := s.docs[docType]; ok {
		return docType
	}
	return "unknown"
}

func (s *archiveSvc) Archive(ctx context.Context, docType string, id uint, actor session.Principal) (rec *entities.ArchiveRecord, err error) {
	defer func() { metrics.RecordArchive("archive", s.label(docType), err) }()

	doc, ok := s.docs[docType]
	if !ok {
		return nil, apperr.Invalid("unknown document type %q", docType)
	}
	if docType == service.TypeUser && id == actor.UserID {
		return nil, apperr.Invalid("you cannot archive your own account")
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payload, name, err := doc.snapshot(ctx, tx, id)
		if err != nil {
			return err
		}
		archiveID, err := s.counters.WithTx(tx).Next(ctx, counterrepo.Archives)
		if err != nil {
			return err
		}
		rec = &entities.ArchiveRecord{
			ArchiveID:      archiveID,
			DocumentType:   docType,
			OriginalID:     id,
			DisplayName:    name,
			Payload:        string(payload),
			ArchivedBy:     actor.UserID,
			ArchivedByName: actor.Name,
			ArchivedAt:     s.now(),
		}
		if err := s.repo.WithTx(tx).Create(ctx, rec); err != nil {
			return err
		}
		return doc.remove(ctx, tx, id)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("document archived",
		zap.String("document_type", docType),
		zap.Uint("original_id", id),
		zap.Uint("archive_id", rec.ArchiveID),
		zap.Uint("by", actor.UserID))
	return rec, nil
}

func (s *archiveSvc) Restore(ctx context.Context, archiveID uint) (rec *entities.ArchiveRecord, err error) {
	docType := "unknown"
	defer func() { metrics.RecordArchive("restore", docType, err) }()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		r, err := repo.FindByID(ctx, archiveID)
		if err != nil {
			return err
		}
		docType = r.DocumentType
		doc, ok := s.docs[r.DocumentType]
		if !ok {
			return apperr.Invalid("archive %d has unknown document type %q", archiveID, r.DocumentType)
		}
		id, _, err := doc.restore(ctx, tx, []byte(r.Payload))
		if err != nil {
			return err
		}
		if name, ok := counterFor[r.DocumentType]; ok {
			if err := s.counters.WithTx(tx).Seed(ctx, name, id); err != nil {
				return err
			}
		}
		rec = r
		return repo.Delete(ctx, archiveID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("document restored",
		zap.String("document_type", rec.DocumentType),
		zap.Uint("original_id", rec.OriginalID),
		zap.Uint("archive_id", archiveID))
	return rec, nil
}

func (s *archiveSvc) Purge(ctx context.Context, archiveID uint) (err error) {
	docType := "unknown"
	defer func() { metrics.RecordArchive("purge", docType, err) }()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		r, err := repo.FindByID(ctx, archiveID)
		if err != nil {
			return err
		}
		docType = r.DocumentType
		return repo.Delete(ctx, archiveID)
	})
	if err == nil {
		s.log.Info("archive purged", zap.Uint("archive_id", archiveID), zap.String("document_type", docType))
	}
	return err
}

func (s *archiveSvc) Get(ctx context.Context, archiveID uint) (*entities.ArchiveRecord, error) {
	return s.repo.FindByID(ctx, archiveID)
}

func (s *archiveSvc) List(ctx context.Context, f repository.Filter, p paging.Params) (paging.Page[entities.ArchiveRecord], error) {
	if f.DocumentType != "" {
		if _, ok := s.docs[f.DocumentType]; !ok {
			return paging.Page[entities.ArchiveRecord]{}, apperr.Invalid("unknown document type %q", f.DocumentType)
		}
	}
	rows, total, err := s.repo.List(ctx, f, p)
	if err != nil {
		return paging.Page[entities.ArchiveRecord]{}, err
	}
	return paging.New(rows, p, total), nil
}

func (s *archiveSvc) CountByType(ctx context.Context) (map[string]int, error) {
	return s.repo.CountByType(ctx)
}
