package entities

import (
	"math"
	"time"
)

const (
	ProjectPending   = "pending"
	ProjectOngoing   = "ongoing"
	ProjectCompleted = "completed"
	ProjectFailed    = "failed"

	TaskPending   = "pending"
	TaskOngoing   = "ongoing"
	TaskCompleted = "completed"
)

type Project struct {
	ProjectID         uint              `gorm:"primaryKey;autoIncrement:false" json:"project_id"`
	Name              string            `gorm:"index" json:"name"`
	Status            string            `gorm:"index" json:"status"`
	CropTypeID        uint              `gorm:"index" json:"crop_type_id"`
	CropTypeName      string            `json:"crop_type_name"`
	CropName          string            `json:"crop_name"`
	Barangay          string            `gorm:"index" json:"barangay"`
	FarmPresidentID   uint              `gorm:"index" json:"farm_president_id"`
	FarmPresidentName string            `json:"farm_president_name"`
	TeamID            uint              `gorm:"index" json:"team_id"`
	TeamName          string            `json:"team_name"`
	AreaHectares      float64           `json:"area_hectares"`
	StartDate         time.Time         `json:"start_date"`
	EndDate           time.Time         `json:"end_date"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
	CreatedBy         uint              `json:"created_by"`
	Tasks             []ProjectTask     `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
	Resources         []ProjectResource `gorm:"foreignKey:ProjectID" json:"resources,omitempty"`
	Attendance        []Attendance      `gorm:"foreignKey:ProjectID" json:"attendance,omitempty"`
	ProgressPct       float64           `gorm:"-" json:"progress"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// Closed reports whether the project can no longer change.
func (p Project) Closed() bool {
	return p.Status == ProjectCompleted || p.Status == ProjectFailed
}

// WithProgress fills ProgressPct from the loaded tasks.
func (p *Project) WithProgress() *Project {
	p.ProgressPct = p.Progress()
	return p
}

// Progress is the share of finished work units in percent, one decimal.
// Each subtask is a unit; a task without subtasks is one unit by itself.
func (p Project) Progress() float64 {
	var done, total int
	for _, t := range p.Tasks {
		d, n := t.units()
		done += d
		total += n
	}
	if total == 0 {
		return 0
	}
	return math.Round(float64(done)/float64(total)*1000) / 10
}

type ProjectTask struct {
	TaskID      uint      `gorm:"primaryKey" json:"task_id"`
	ProjectID   uint      `gorm:"index" json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	Status      string    `json:"status"`
	Subtasks    []Subtask `gorm:"serializer:json" json:"subtasks"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Subtask struct {
	Name string `json:"name"`
	Done bool   `json:"done"`
}

func (t ProjectTask) units() (done, total int) {
	if len(t.Subtasks) == 0 {
		if t.Status == TaskCompleted {
			return 1, 1
		}
		return 0, 1
	}
	for _, s := range t.Subtasks {
		if s.Done {
			done++
		}
	}
	return done, len(t.Subtasks)
}

// DeriveStatus recomputes Status from the subtasks. Tasks without subtasks
// keep the status they were given.
func (t *ProjectTask) DeriveStatus() {
	if len(t.Subtasks) == 0 {
		if t.Status == "" {
			t.Status = TaskPending
		}
		return
	}
	done, total := t.units()
	switch {
	case done == 0:
		t.Status = TaskPending
	case done == total:
		t.Status = TaskCompleted
	default:
		t.Status = TaskOngoing
	}
}

// ProjectResource is fertilizer or equipment drawn from the farm
// president's stock for a project.
type ProjectResource struct {
	ResourceID uint      `gorm:"primaryKey" json:"resource_id"`
	ProjectID  uint      `gorm:"index" json:"project_id"`
	Kind       string    `json:"kind"`
	ItemID     uint      `json:"item_id"`
	ItemName   string    `json:"item_name"`
	Quantity   float64   `json:"quantity"`
	Unit       string    `json:"unit"`
	Returned   bool      `json:"returned"`
	CreatedAt  time.Time `json:"created_at"`
}

type Attendance struct {
	AttendanceID uint      `gorm:"primaryKey" json:"attendance_id"`
	ProjectID    uint      `gorm:"index" json:"project_id"`
	TaskID       uint      `gorm:"uniqueIndex:idx_attendance_day" json:"task_id"`
	Date         string    `gorm:"uniqueIndex:idx_attendance_day" json:"date"` // YYYY-MM-DD
	FarmerID     uint      `gorm:"uniqueIndex:idx_attendance_day" json:"farmer_id"`
	FarmerName   string    `json:"farmer_name"`
	Present      bool      `json:"present"`
	Remarks      string    `json:"remarks"`
	RecordedBy   uint      `json:"recorded_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
