package service

import (
	"context"

	"farmportal/entities"
	"farmportal/pkg/paging"
	"farmportal/pkg/user/repository"
)

type CreateInput struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	Role          string `json:"role"`
	Barangay      string `json:"barangay"`
	ContactNumber string `json:"contact_number"`
}

type UpdateInput struct {
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	Email         *string `json:"email"`
	Role          *string `json:"role"`
	Barangay      *string `json:"barangay"`
	ContactNumber *string `json:"contact_number"`
}

type UserService interface {
	Create(ctx context.Context, in CreateInput) (*entities.User, error)
	Update(ctx context.Context, id uint, in UpdateInput) (*entities.User, error)
	// ChangePassword requires the current password unless reset is true
	// (an administrator resetting someone else's password).
	ChangePassword(ctx context.Context, id uint, current, next string, reset bool) error
	Authenticate(ctx context.Context, email, password string) (*entities.User, error)
	Get(ctx context.Context, id uint) (*entities.User, error)
	List(ctx context.Context, f repository.Filter, p paging.Params) (paging.Page[entities.User], error)
	// Farmers lists farmers and head farmers, optionally in one barangay.
	Farmers(ctx context.Context, barangay, query string, p paging.Params) (paging.Page[entities.User], error)
	CountByRole(ctx context.Context) (map[string]int, error)
}
