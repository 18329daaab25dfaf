package repositoryImp

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	"farmportal/pkg/paging"
	"farmportal/pkg/user/repository"
)

type userRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.UserRepository { return &userRepo{db} }

func (r *userRepo) WithTx(tx *gorm.DB) repository.UserRepository { return &userRepo{tx} }

func (r *userRepo) Create(ctx context.Context, u *entities.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepo) Update(ctx context.Context, u *entities.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *userRepo) FindByID(ctx context.Context, id uint) (*entities.User, error) {
	var u entities.User
	if err := r.db.WithContext(ctx).Where("user_id = ?", id).First(&u).Error; err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	return &u, nil
}

func (r *userRepo) FindByIDs(ctx context.Context, ids []uint) ([]entities.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []entities.User
	return out, r.db.WithContext(ctx).Where("user_id IN ?", ids).Order("user_id ASC").Find(&out).Error
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	var u entities.User
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	return &u, nil
}

func (r *userRepo) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).
		Where("email = ? AND user_id <> ?", strings.ToLower(strings.TrimSpace(email)), exceptID).
		Count(&n).Error
	return n > 0, err
}

func (r *userRepo) List(ctx context.Context, f repository.Filter, p paging.Params) ([]entities.User, int, error) {
	q := r.db.WithContext(ctx).Model(&entities.User{})
	if len(f.Roles) > 0 {
		q = q.Where("role IN ?", f.Roles)
	}
	if f.Barangay != "" {
		q = q.Where("LOWER(barangay) = ?", strings.ToLower(f.Barangay))
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR email LIKE ?", like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []entities.User
	err := q.Order("last_name ASC, first_name ASC, user_id ASC").Offset(p.Offset()).Limit(p.Size).Find(&out).Error
	return out, int(total), err
}

func (r *userRepo) CountByRole(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Role string
		N    int
	}
	err := r.db.WithContext(ctx).Model(&entities.User{}).
		Select("role, COUNT(*) AS n").Group("role").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(entities.Roles))
	for _, role := range entities.Roles {
		out[role] = 0
	}
	for _, row := range rows {
		out[row.Role] = row.N
	}
	return out, nil
}

func (r *userRepo) Ties(ctx context.Context, id uint) (repository.Ties, error) {
	var out repository.Ties
	db := r.db.WithContext(ctx)
	count := func(model any, where string, dst *int) error {
		var n int64
		if err := db.Model(model).Where(where, id).Count(&n).Error; err != nil {
			return err
		}
		*dst = int(n)
		return nil
	}
	if err := count(&entities.Team{}, "leader_id = ?", &out.LeadsTeams); err != nil {
		return out, err
	}
	if err := count(&entities.Team{}, "farm_president_id = ?", &out.OwnsTeams); err != nil {
		return out, err
	}
	if err := count(&entities.Project{}, "farm_president_id = ?", &out.OwnsProjects); err != nil {
		return out, err
	}
	// members live in a JSON column
	var teams []entities.Team
	if err := db.Select("team_id", "members").Find(&teams).Error; err != nil {
		return out, err
	}
	for _, t := range teams {
		if t.HasMember(id) {
			out.MemberOf++
		}
	}
	return out, nil
}
