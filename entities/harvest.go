package entities

import (
	"math"
	"time"
)

type Harvest struct {
	HarvestID       uint      `gorm:"primaryKey;autoIncrement:false" json:"harvest_id"`
	ProjectID       uint      `gorm:"uniqueIndex" json:"project_id"`
	ProjectName     string    `json:"project_name"`
	CropTypeID      uint      `gorm:"index" json:"crop_type_id"`
	CropTypeName    string    `json:"crop_type_name"`
	CropName        string    `json:"crop_name"`
	Barangay        string    `gorm:"index" json:"barangay"`
	FarmPresidentID uint      `gorm:"index" json:"farm_president_id"`
	AreaHectares    float64   `json:"area_hectares"`
	TotalKg         float64   `json:"total_kg"`
	HarvestDate     time.Time `gorm:"index" json:"harvest_date"`
	Notes           string    `json:"notes"`
	RecordedBy      uint      `json:"recorded_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// MetricTons converts the harvest weight, rounded to three decimals.
func (h Harvest) MetricTons() float64 {
	return math.Round(h.TotalKg) / 1000
}

// Productivity is tons per hectare, two decimals; zero area yields zero.
func (h Harvest) Productivity() float64 {
	if h.AreaHectares <= 0 {
		return 0
	}
	return math.Round(h.TotalKg/1000/h.AreaHectares*100) / 100
}
