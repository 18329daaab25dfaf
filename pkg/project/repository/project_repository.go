package repository

import (
	"context"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/paging"
)

type Filter struct {
	Status          string
	FarmPresidentID uint
	// TeamIDs limits to projects of these teams; a non-nil empty slice
	// matches nothing.
	TeamIDs    []uint
	CropTypeID uint
	Barangay   string
	Query      string
}

type AttendanceFilter struct {
	ProjectID uint
	TaskID    uint
	Date      string
}

type ProjectRepository interface {
	WithTx(tx *gorm.DB) ProjectRepository

	Create(ctx context.Context, p *entities.Project) error
	// Update saves the project row only, never its children.
	Update(ctx context.Context, p *entities.Project) error
	FindByID(ctx context.Context, id uint) (*entities.Project, error)
	// FindFull loads the project with tasks, resources and attendance.
	FindFull(ctx context.Context, id uint) (*entities.Project, error)
	NameTaken(ctx context.Context, name string, exceptID uint) (bool, error)
	// List returns projects with their tasks loaded so progress can be shown.
	List(ctx context.Context, f Filter, p paging.Params) ([]entities.Project, int, error)
	All(ctx context.Context, f Filter) ([]entities.Project, error)
	CountByStatus(ctx context.Context, f Filter) (map[string]int, error)

	CreateTask(ctx context.Context, t *entities.ProjectTask) error
	UpdateTask(ctx context.Context, t *entities.ProjectTask) error
	DeleteTask(ctx context.Context, projectID, taskID uint) error
	FindTask(ctx context.Context, projectID, taskID uint) (*entities.ProjectTask, error)
	// OpenTasks lists tasks that are not completed for the given projects,
	// earliest deadline first.
	OpenTasks(ctx context.Context, projectIDs []uint, limit int) ([]entities.ProjectTask, error)

	CreateResource(ctx context.Context, r *entities.ProjectResource) error
	Resources(ctx context.Context, projectID uint) ([]entities.ProjectResource, error)
	MarkReturned(ctx context.Context, resourceIDs []uint) error

	// UpsertAttendance inserts or replaces the row for (task, date, farmer).
	UpsertAttendance(ctx context.Context, rows []entities.Attendance) error
	Attendance(ctx context.Context, f AttendanceFilter) ([]entities.Attendance, error)
}
