package entities

import (
	"strings"
	"time"
)

const (
	RoleAdmin         = "admin"
	RoleSupervisor    = "supervisor"
	RoleFarmPresident = "farm_president"
	RoleHeadFarmer    = "head_farmer"
	RoleFarmer        = "farmer"
)

// Roles lists every role in the order dashboards display them.
var Roles = []string{RoleAdmin, RoleSupervisor, RoleFarmPresident, RoleHeadFarmer, RoleFarmer}

func ValidRole(r string) bool {
	for _, v := range Roles {
		if v == r {
			return true
		}
	}
	return false
}

type User struct {
	UserID        uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `gorm:"uniqueIndex" json:"email"` // stored lower-case
	PasswordHash  string    `json:"-"`
	Role          string    `gorm:"index" json:"role"`
	Barangay      string    `gorm:"index" json:"barangay"`
	ContactNumber string    `json:"contact_number"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsFarmer reports whether the user can be a team member.
func (u User) IsFarmer() bool {
	return u.Role == RoleFarmer || u.Role == RoleHeadFarmer
}
