package serviceImp

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	"farmportal/pkg/auth/password"
	counterrepo "farmportal/pkg/counter/repository"
	"farmportal/pkg/paging"
	"farmportal/pkg/user/repository"
	"farmportal/pkg/user/service"
)

type userSvc struct {
	db       *gorm.DB
	repo     repository.UserRepository
	counters counterrepo.CounterRepository
}

func New(db *gorm.DB, repo repository.UserRepository, counters counterrepo.CounterRepository) service.UserService {
	return &userSvc{db: db, repo: repo, counters: counters}
}

func normalizeEmail(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", apperr.Invalid("email is required")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", apperr.Invalid("%q is not a valid email address", s)
	}
	return s, nil
}

func (s *userSvc) Create(ctx context.Context, in service.CreateInput) (*entities.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if !entities.ValidRole(in.Role) {
		return nil, apperr.Invalid("unknown role %q", in.Role)
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, apperr.Invalid("first and last name are required")
	}
	if err := password.Validate(in.Password); err != nil {
		return nil, err
	}
	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &entities.User{
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Email:         email,
		PasswordHash:  hash,
		Role:          in.Role,
		Barangay:      strings.TrimSpace(in.Barangay),
		ContactNumber: strings.TrimSpace(in.ContactNumber),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		taken, err := repo.EmailTaken(ctx, email, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("email %s is already registered", email)
		}
		id, err := s.counters.WithTx(tx).Next(ctx, counterrepo.Users)
		if err != nil {
			return err
		}
		u.UserID = id
		return repo.Create(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userSvc) Update(ctx context.Context, id uint, in service.UpdateInput) (*entities.User, error) {
	var out *entities.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		u, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if in.Email != nil {
			email, err := normalizeEmail(*in.Email)
			if err != nil {
				return err
			}
			taken, err := repo.EmailTaken(ctx, email, id)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict("email %s is already registered", email)
			}
			u.Email = email
		}
		if in.Role != nil {
			if !entities.ValidRole(*in.Role) {
				return apperr.Invalid("unknown role %q", *in.Role)
			}
			if *in.Role != u.Role {
				ties, err := repo.Ties(ctx, id)
				if err != nil {
					return err
				}
				if ties.Any() {
					return apperr.Conflict("%s is assigned to teams or projects as %s; reassign them before changing the role", u.FullName(), u.Role)
				}
			}
			u.Role = *in.Role
		}
		if in.FirstName != nil {
			if strings.TrimSpace(*in.FirstName) == "" {
				return apperr.Invalid("first name is required")
			}
			u.FirstName = strings.TrimSpace(*in.FirstName)
		}
		if in.LastName != nil {
			if strings.TrimSpace(*in.LastName) == "" {
				return apperr.Invalid("last name is required")
			}
			u.LastName = strings.TrimSpace(*in.LastName)
		}
		if in.Barangay != nil {
			u.Barangay = strings.TrimSpace(*in.Barangay)
		}
		if in.ContactNumber != nil {
			u.ContactNumber = strings.TrimSpace(*in.ContactNumber)
		}
		out = u
		return repo.Update(ctx, u)
	})
	return out, err
}

func (s *userSvc) ChangePassword(ctx context.Context, id uint, current, next string, reset bool) error {
	if err := password.Validate(next); err != nil {
		return err
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !reset {
		ok, err := password.Check(u.PasswordHash, current)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Invalid("current password is incorrect")
		}
	}
	hash, err := password.Hash(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return s.repo.Update(ctx, u)
}

// Authenticate answers ErrUnauthorized for both unknown emails and wrong
// passwords.
func (s *userSvc) Authenticate(ctx context.Context, email, pw string) (*entities.User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	ok, err := password.Check(u.PasswordHash, pw)
	if err != nil || !ok {
		return nil, errBadCredentials
	}
	return u, nil
}

var errBadCredentials = fmt.Errorf("invalid email or password: %w", apperr.ErrUnauthorized)

func (s *userSvc) Get(ctx context.Context, id uint) (*entities.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *userSvc) List(ctx context.Context, f repository.Filter, p paging.Params) (paging.Page[entities.User], error) {
	for _, r := range f.Roles {
		if !entities.ValidRole(r) {
			return paging.Page[entities.User]{}, apperr.Invalid("unknown role %q", r)
		}
	}
	rows, total, err := s.repo.List(ctx, f, p)
	if err != nil {
		return paging.Page[entities.User]{}, err
	}
	return paging.New(rows, p, total), nil
}

func (s *userSvc) Farmers(ctx context.Context, barangay, query string, p paging.Params) (paging.Page[entities.User], error) {
	return s.List(ctx, repository.Filter{
		Query:    query,
		Roles:    []string{entities.RoleFarmer, entities.RoleHeadFarmer},
		Barangay: barangay,
	}, p)
}

func (s *userSvc) CountByRole(ctx context.Context) (map[string]int, error) {
	return s.repo.CountByRole(ctx)
}
