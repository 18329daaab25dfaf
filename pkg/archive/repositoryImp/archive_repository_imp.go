package repositoryImp

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	"farmportal/pkg/archive/repository"
	"farmportal/pkg/paging"
)

type archiveRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.ArchiveRepository { return &archiveRepo{db} }

func (r *archiveRepo) WithTx(tx *gorm.DB) repository.ArchiveRepository { return &archiveRepo{tx} }

func (r *archiveRepo) Create(ctx context.Context, rec *entities.ArchiveRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *archiveRepo) FindByID(ctx context.Context, archiveID uint) (*entities.ArchiveRecord, error) {
	var rec entities.ArchiveRecord
	if err := r.db.WithContext(ctx).Where("archive_id = ?", archiveID).First(&rec).Error; err != nil {
		return nil, apperr.FromDB(err, "archive record")
	}
	return &rec, nil
}

func (r *archiveRepo) Delete(ctx context.Context, archiveID uint) error {
	res := r.db.WithContext(ctx).Where("archive_id = ?", archiveID).Delete(&entities.ArchiveRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("archive record")
	}
	return nil
}

func (r *archiveRepo) List(ctx context.Context, f repository.Filter, p paging.Params) ([]entities.ArchiveRecord, int, error) {
	q := r.db.WithContext(ctx).Model(&entities.ArchiveRecord{})
	if f.DocumentType != "" {
		q = q.Where("document_type = ?", f.DocumentType)
	}
	if len(f.ExcludeTypes) > 0 {
		q = q.Where("document_type NOT IN ?", f.ExcludeTypes)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		q = q.Where("LOWER(display_name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []entities.ArchiveRecord
	err := q.Order("archived_at DESC, archive_id DESC").Offset(p.Offset()).Limit(p.Size).Find(&out).Error
	return out, int(total), err
}

func (r *archiveRepo) CountByType(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		DocumentType string
		N            int
	}
	err := r.db.WithContext(ctx).Model(&entities.ArchiveRecord{}).
		Select("document_type, COUNT(*) AS n").
		Group("document_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.DocumentType] = row.N
	}
	return out, nil
}
