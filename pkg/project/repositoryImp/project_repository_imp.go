package repositoryImp

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	"farmportal/pkg/paging"
	"farmportal/pkg/project/repository"
)

type projectRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.ProjectRepository { return &projectRepo{db} }

func (r *projectRepo) WithTx(tx *gorm.DB) repository.ProjectRepository { return &projectRepo{tx} }

func (r *projectRepo) Create(ctx context.Context, p *entities.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *projectRepo) Update(ctx context.Context, p *entities.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

func (r *projectRepo) FindByID(ctx context.Context, id uint) (*entities.Project, error) {
	var p entities.Project
	if err := r.db.WithContext(ctx).Where("project_id = ?", id).First(&p).Error; err != nil {
		return nil, apperr.FromDB(err, "project")
	}
	return &p, nil
}

func (r *projectRepo) FindFull(ctx context.Context, id uint) (*entities.Project, error) {
	var p entities.Project
	err := r.db.WithContext(ctx).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("deadline ASC, task_id ASC") }).
		Preload("Resources", func(db *gorm.DB) *gorm.DB { return db.Order("resource_id ASC") }).
		Preload("Attendance", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC, farmer_name ASC") }).
		Where("project_id = ?", id).First(&p).Error
	if err != nil {
		return nil, apperr.FromDB(err, "project")
	}
	return &p, nil
}

func (r *projectRepo) NameTaken(ctx context.Context, name string, exceptID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.Project{}).
		Where("LOWER(name) = ? AND project_id <> ?", strings.ToLower(strings.TrimSpace(name)), exceptID).
		Count(&n).Error
	return n > 0, err
}

func (r *projectRepo) scope(ctx context.Context, f repository.Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&entities.Project{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.FarmPresidentID != 0 {
		q = q.Where("farm_president_id = ?", f.FarmPresidentID)
	}
	if f.TeamIDs != nil {
		if len(f.TeamIDs) == 0 {
			q = q.Where("1 = 0")
		} else {
			q = q.Where("team_id IN ?", f.TeamIDs)
		}
	}
	if f.CropTypeID != 0 {
		q = q.Where("crop_type_id = ?", f.CropTypeID)
	}
	if f.Barangay != "" {
		q = q.Where("LOWER(barangay) = ?", strings.ToLower(f.Barangay))
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(crop_name) LIKE ? OR LOWER(barangay) LIKE ?", like, like, like)
	}
	return q
}

func (r *projectRepo) List(ctx context.Context, f repository.Filter, p paging.Params) ([]entities.Project, int, error) {
	q := r.scope(ctx, f)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []entities.Project
	err := q.Preload("Tasks").Order("start_date DESC, project_id DESC").
		Offset(p.Offset()).Limit(p.Size).Find(&out).Error
	return out, int(total), err
}

func (r *projectRepo) All(ctx context.Context, f repository.Filter) ([]entities.Project, error) {
	var out []entities.Project
	return out, r.scope(ctx, f).Preload("Tasks").Order("start_date DESC, project_id DESC").Find(&out).Error
}

func (r *projectRepo) CountByStatus(ctx context.Context, f repository.Filter) (map[string]int, error) {
	var rows []struct {
		Status string
		N      int
	}
	if err := r.scope(ctx, f).Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := map[string]int{
		entities.ProjectPending:   0,
		entities.ProjectOngoing:   0,
		entities.ProjectCompleted: 0,
		entities.ProjectFailed:    0,
	}
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

func (r *projectRepo) CreateTask(ctx context.Context, t *entities.ProjectTask) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *projectRepo) UpdateTask(ctx context.Context, t *entities.ProjectTask) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *projectRepo) DeleteTask(ctx context.Context, projectID, taskID uint) error {
	res := r.db.WithContext(ctx).Where("project_id = ? AND task_id = ?", projectID, taskID).Delete(&entities.ProjectTask{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("task")
	}
	return r.db.WithContext(ctx).Where("task_id = ?", taskID).Delete(&entities.Attendance{}).Error
}

func (r *projectRepo) FindTask(ctx context.Context, projectID, taskID uint) (*entities.ProjectTask, error) {
	var t entities.ProjectTask
	err := r.db.WithContext(ctx).Where("project_id = ? AND task_id = ?", projectID, taskID).First(&t).Error
	if err != nil {
		return nil, apperr.FromDB(err, "task")
	}
	return &t, nil
}

func (r *projectRepo) OpenTasks(ctx context.Context, projectIDs []uint, limit int) ([]entities.ProjectTask, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	var out []entities.ProjectTask
	err := r.db.WithContext(ctx).
		Where("project_id IN ? AND status <> ?", projectIDs, entities.TaskCompleted).
		Order("deadline ASC, task_id ASC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *projectRepo) CreateResource(ctx context.Context, res *entities.ProjectResource) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *projectRepo) Resources(ctx context.Context, projectID uint) ([]entities.ProjectResource, error) {
	var out []entities.ProjectResource
	return out, r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("resource_id ASC").Find(&out).Error
}

func (r *projectRepo) MarkReturned(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entities.ProjectResource{}).
		Where("resource_id IN ?", ids).Update("returned", true).Error
}

func (r *projectRepo) UpsertAttendance(ctx context.Context, rows []entities.Attendance) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "task_id"}, {Name: "date"}, {Name: "farmer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"present", "remarks", "recorded_by", "farmer_name", "updated_at"}),
	}).Create(&rows).Error
}

func (r *projectRepo) Attendance(ctx context.Context, f repository.AttendanceFilter) ([]entities.Attendance, error) {
	q := r.db.WithContext(ctx).Model(&entities.Attendance{})
	if f.ProjectID != 0 {
		q = q.Where("project_id = ?", f.ProjectID)
	}
	if f.TaskID != 0 {
		q = q.Where("task_id = ?", f.TaskID)
	}
	if f.Date != "" {
		q = q.Where("date = ?", f.Date)
	}
	var out []entities.Attendance
	return out, q.Order("date ASC, task_id ASC, farmer_name ASC").Find(&out).Error
}
