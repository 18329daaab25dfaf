package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/paging"
	"farmportal/pkg/project/repository"
	"farmportal/pkg/session"
)

type ProjectInput struct {
	Name            string  `json:"name"`
	CropTypeID      uint    `json:"crop_type_id"`
	CropName        string  `json:"crop_name"`
	Barangay        string  `json:"barangay"`
	FarmPresidentID uint    `json:"farm_president_id"`
	TeamID          uint    `json:"team_id"`
	AreaHectares    float64 `json:"area_hectares"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
}

type ProjectPatch struct {
	Name         *string  `json:"name"`
	CropName     *string  `json:"crop_name"`
	Barangay     *string  `json:"barangay"`
	TeamID       *uint    `json:"team_id"`
	AreaHectares *float64 `json:"area_hectares"`
	StartDate    *string  `json:"start_date"`
	EndDate      *string  `json:"end_date"`
}

type ResourceInput struct {
	Kind     string  `json:"kind"`
	ItemID   uint    `json:"item_id"`
	Quantity float64 `json:"quantity"`
}

type TaskInput struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Deadline    string             `json:"deadline"`
	Subtasks    []entities.Subtask `json:"subtasks"`
	// Status applies to tasks without subtasks only.
	Status string `json:"status"`
}

type TaskPatch struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Deadline    *string             `json:"deadline"`
	Subtasks    *[]entities.Subtask `json:"subtasks"`
	Status      *string             `json:"status"`
}

type AttendanceEntry struct {
	FarmerID uint   `json:"farmer_id"`
	Present  bool   `json:"present"`
	Remarks  string `json:"remarks"`
}

type AttendanceInput struct {
	TaskID  uint              `json:"task_id"`
	Date    string            `json:"date"`
	Entries []AttendanceEntry `json:"entries"`
}

type ProjectService interface {
	Create(ctx context.Context, actor session.Principal, in ProjectInput) (*entities.Project, error)
	Update(ctx context.Context, actor session.Principal, id uint, patch ProjectPatch) (*entities.Project, error)
	// Start moves a pending project to ongoing.
	Start(ctx context.Context, actor session.Principal, id uint) (*entities.Project, error)
	// Fail closes a project without a harvest and returns its equipment.
	Fail(ctx context.Context, actor session.Principal, id uint) (*entities.Project, error)
	// Complete marks an ongoing project completed inside the caller's
	// transaction and returns its equipment to stock.
	Complete(ctx context.Context, tx *gorm.DB, id uint, at time.Time) (*entities.Project, error)

	Get(ctx context.Context, actor session.Principal, id uint) (*entities.Project, error)
	List(ctx context.Context, actor session.Principal, f repository.Filter, p paging.Params) (paging.Page[entities.Project], error)
	CountByStatus(ctx context.Context, actor session.Principal) (map[string]int, error)
	// Visible narrows f to what actor may see.
	Visible(ctx context.Context, actor session.Principal, f repository.Filter) (repository.Filter, error)

	AllocateResource(ctx context.Context, actor session.Principal, projectID uint, in ResourceInput) (*entities.ProjectResource, error)

	AddTask(ctx context.Context, actor session.Principal, projectID uint, in TaskInput) (*entities.ProjectTask, error)
	UpdateTask(ctx context.Context, actor session.Principal, projectID, taskID uint, patch TaskPatch) (*entities.ProjectTask, error)
	DeleteTask(ctx context.Context, actor session.Principal, projectID, taskID uint) error
	OpenTasks(ctx context.Context, actor session.Principal, limit int) ([]entities.ProjectTask, error)

	RecordAttendance(ctx context.Context, actor session.Principal, projectID uint, in AttendanceInput) ([]entities.Attendance, error)
	Attendance(ctx context.Context, actor session.Principal, f repository.AttendanceFilter) ([]entities.Attendance, error)
}
