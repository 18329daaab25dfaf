package entities

import "time"

type Team struct {
	TeamID          uint         `gorm:"primaryKey;autoIncrement:false" json:"team_id"`
	Name            string       `gorm:"index" json:"name"`
	FarmPresidentID uint         `gorm:"index" json:"farm_president_id"`
	LeaderID        uint         `gorm:"index" json:"leader_id"`
	LeaderName      string       `json:"leader_name"`
	Barangay        string       `json:"barangay"`
	Members         []TeamMember `gorm:"serializer:json" json:"members"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

type TeamMember struct {
	FarmerID uint   `json:"farmer_id"`
	Name     string `json:"name"`
}

func (t Team) HasMember(farmerID uint) bool {
	for _, m := range t.Members {
		if m.FarmerID == farmerID {
			return true
		}
	}
	return false
}
