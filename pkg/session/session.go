package session

import (
	"github.com/labstack/echo/v4"

	"farmportal/entities"
)

// context key the auth middleware stores the caller under
const contextKey = "principal"

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func (p Principal) Is(roles ...string) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// Oversees reports whether the caller may see every farm president's data.
func (p Principal) Oversees() bool {
	return p.Is(entities.RoleAdmin, entities.RoleSupervisor)
}

func Set(c echo.Context, p Principal) { c.Set(contextKey, p) }

// From returns the caller stored by the auth middleware.
func From(c echo.Context) (Principal, bool) {
	p, ok := c.Get(contextKey).(Principal)
	return p, ok
}

// Must is From for handlers mounted behind the auth middleware.
func Must(c echo.Context) Principal {
	p, _ := From(c)
	return p
}
