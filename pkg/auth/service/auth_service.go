package service

import (
	"context"
	"time"

	"farmportal/entities"
	"farmportal/pkg/session"
)

type Login struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      *entities.User `json:"user"`
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*Login, error)
	// Refresh reloads the caller so a role change or archived account
	// applies to tokens already issued.
	Refresh(ctx context.Context, p session.Principal) (session.Principal, error)
	Parse(raw string) (session.Principal, error)
}
