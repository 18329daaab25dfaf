package repositoryImp

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	"farmportal/pkg/harvest/repository"
	"farmportal/pkg/paging"
)

type harvestRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.HarvestRepository { return &harvestRepo{db} }

func (r *harvestRepo) WithTx(tx *gorm.DB) repository.HarvestRepository { return &harvestRepo{tx} }

func (r *harvestRepo) Create(ctx context.Context, h *entities.Harvest) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *harvestRepo) FindByID(ctx context.Context, id uint) (*entities.Harvest, error) {
	var h entities.Harvest
	if err := r.db.WithContext(ctx).Where("harvest_id = ?", id).First(&h).Error; err != nil {
		return nil, apperr.FromDB(err, "harvest")
	}
	return &h, nil
}

func (r *harvestRepo) ExistsForProject(ctx context.Context, projectID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.Harvest{}).Where("project_id = ?", projectID).Count(&n).Error
	return n > 0, err
}

func (r *harvestRepo) scope(ctx context.Context, f repository.Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&entities.Harvest{})
	if f.CropTypeID != 0 {
		q = q.Where("crop_type_id = ?", f.CropTypeID)
	}
	if f.Barangay != "" {
		q = q.Where("LOWER(barangay) = ?", strings.ToLower(f.Barangay))
	}
	if f.FarmPresidentID != 0 {
		q = q.Where("farm_president_id = ?", f.FarmPresidentID)
	}
	if !f.From.IsZero() {
		q = q.Where("harvest_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		// inclusive of the whole end day
		q = q.Where("harvest_date < ?", f.To.AddDate(0, 0, 1))
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(project_name) LIKE ? OR LOWER(crop_name) LIKE ?", like, like)
	}
	return q
}

func (r *harvestRepo) List(ctx context.Context, f repository.Filter, p paging.Params) ([]entities.Harvest, int, error) {
	q := r.scope(ctx, f)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []entities.Harvest
	err := q.Order("harvest_date DESC, harvest_id DESC").Offset(p.Offset()).Limit(p.Size).Find(&out).Error
	return out, int(total), err
}

func (r *harvestRepo) All(ctx context.Context, f repository.Filter) ([]entities.Harvest, error) {
	var out []entities.Harvest
	return out, r.scope(ctx, f).Order("harvest_date DESC, harvest_id DESC").Find(&out).Error
}
