package serviceImp

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	"farmportal/pkg/auth/service"
	"farmportal/pkg/auth/token"
	"farmportal/pkg/logger"
	"farmportal/pkg/session"
	userService "farmportal/pkg/user/service"
)

type authSvc struct {
	users  userService.UserService
	tokens *token.Issuer
	log    *zap.Logger
}

func New(users userService.UserService, tokens *token.Issuer, log *zap.Logger) service.AuthService {
	return &authSvc{users: users, tokens: tokens, log: logger.OrNop(log)}
}

func principalOf(u *entities.User) session.Principal {
	return session.Principal{UserID: u.UserID, Name: u.FullName(), Email: u.Email, Role: u.Role}
}

func (s *authSvc) Login(ctx context.Context, email, password string) (*service.Login, error) {
	u, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			s.log.Info("login rejected", zap.String("email", email))
		}
		return nil, err
	}
	if u.Role == entities.RoleFarmer {
		return nil, fmt.Errorf("farmers do not have portal access: %w", apperr.ErrForbidden)
	}
	raw, exp, err := s.tokens.Issue(principalOf(u))
	if err != nil {
		return nil, err
	}
	s.log.Info("login", zap.Uint("uid", u.UserID), zap.String("role", u.Role))
	return &service.Login{Token: raw, ExpiresAt: exp, User: u}, nil
}

func (s *authSvc) Refresh(ctx context.Context, p session.Principal) (session.Principal, error) {
	u, err := s.users.Get(ctx, p.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return session.Principal{}, fmt.Errorf("account no longer exists: %w", apperr.ErrUnauthorized)
	}
	if err != nil {
		return session.Principal{}, err
	}
	if u.Role == entities.RoleFarmer {
		return session.Principal{}, fmt.Errorf("farmers do not have portal access: %w", apperr.ErrUnauthorized)
	}
	return principalOf(u), nil
}

func (s *authSvc) Parse(raw string) (session.Principal, error) {
	return s.tokens.Parse(raw)
}
