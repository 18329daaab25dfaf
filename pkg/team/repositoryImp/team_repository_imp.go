package repositoryImp

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	"farmportal/pkg/paging"
	"farmportal/pkg/team/repository"
)

type teamRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.TeamRepository { return &teamRepo{db} }

func (r *teamRepo) WithTx(tx *gorm.DB) repository.TeamRepository { return &teamRepo{tx} }

func (r *teamRepo) Create(ctx context.Context, t *entities.Team) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *teamRepo) Update(ctx context.Context, t *entities.Team) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *teamRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("team_id = ?", id).Delete(&entities.Team{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("team")
	}
	return nil
}

func (r *teamRepo) FindByID(ctx context.Context, id uint) (*entities.Team, error) {
	var t entities.Team
	if err := r.db.WithContext(ctx).Where("team_id = ?", id).First(&t).Error; err != nil {
		return nil, apperr.FromDB(err, "team")
	}
	return &t, nil
}

func (r *teamRepo) NameTaken(ctx context.Context, name string, exceptID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.Team{}).
		Where("LOWER(name) = ? AND team_id <> ?", strings.ToLower(strings.TrimSpace(name)), exceptID).
		Count(&n).Error
	return n > 0, err
}

func (r *teamRepo) scope(ctx context.Context, f repository.Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&entities.Team{})
	if f.FarmPresidentID != 0 {
		q = q.Where("farm_president_id = ?", f.FarmPresidentID)
	}
	if f.LeaderID != 0 {
		q = q.Where("leader_id = ?", f.LeaderID)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(leader_name) LIKE ? OR LOWER(barangay) LIKE ?", like, like, like)
	}
	return q
}

func (r *teamRepo) List(ctx context.Context, f repository.Filter, p paging.Params) ([]entities.Team, int, error) {
	q := r.scope(ctx, f)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []entities.Team
	err := q.Order("name ASC").Offset(p.Offset()).Limit(p.Size).Find(&out).Error
	return out, int(total), err
}

func (r *teamRepo) All(ctx context.Context, f repository.Filter) ([]entities.Team, error) {
	var out []entities.Team
	return out, r.scope(ctx, f).Order("name ASC").Find(&out).Error
}

func (r *teamRepo) OpenProjects(ctx context.Context, id uint) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.Project{}).
		Where("team_id = ? AND status IN ?", id, []string{entities.ProjectPending, entities.ProjectOngoing}).
		Count(&n).Error
	return int(n), err
}
