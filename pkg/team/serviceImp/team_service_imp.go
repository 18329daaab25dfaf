package serviceImp

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	counterrepo "farmportal/pkg/counter/repository"
	"farmportal/pkg/paging"
	"farmportal/pkg/session"
	"farmportal/pkg/team/repository"
	"farmportal/pkg/team/service"
	userrepo "farmportal/pkg/user/repository"
)

type teamSvc struct {
	db       *gorm.DB
	repo     repository.TeamRepository
	users    userrepo.UserRepository
	counters counterrepo.CounterRepository
}

func New(db *gorm.DB, repo repository.TeamRepository, users userrepo.UserRepository, counters counterrepo.CounterRepository) service.TeamService {
	return &teamSvc{db: db, repo: repo, users: users, counters: counters}
}

func errNotYours() error {
	return fmt.Errorf("team belongs to another farm president: %w", apperr.ErrForbidden)
}

// canManage reports whether actor may change t.
func canManage(actor session.Principal, t *entities.Team) bool {
	return actor.Oversees() || (actor.Is(entities.RoleFarmPresident) && t.FarmPresidentID == actor.UserID)
}

func canView(actor session.Principal, t *entities.Team) bool {
	return canManage(actor, t) || (actor.Is(entities.RoleHeadFarmer) && t.LeaderID == actor.UserID)
}

// build validates in and fills t. It runs inside the write transaction so
// the one-team-per-farmer check sees concurrent edits.
func (s *teamSvc) build(ctx context.Context, tx *gorm.DB, actor session.Principal, t *entities.Team, in service.TeamInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return apperr.Invalid("team name is required")
	}
	repo := s.repo.WithTx(tx)
	users := s.users.WithTx(tx)

	taken, err := repo.NameTaken(ctx, name, t.TeamID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("team %q already exists", name)
	}

	ownerID := actor.UserID
	if actor.Oversees() {
		if in.FarmPresidentID == 0 {
			if t.FarmPresidentID == 0 {
				return apperr.Invalid("farm_president_id is required")
			}
			in.FarmPresidentID = t.FarmPresidentID
		}
		owner, err := users.FindByID(ctx, in.FarmPresidentID)
		if err != nil {
			return err
		}
		if owner.Role != entities.RoleFarmPresident {
			return apperr.Invalid("%s is not a farm president", owner.FullName())
		}
		ownerID = owner.UserID
	} else if t.FarmPresidentID != 0 {
		ownerID = t.FarmPresidentID
	}

	if in.LeaderID == 0 {
		return apperr.Invalid("a team leader is required")
	}
	leader, err := users.FindByID(ctx, in.LeaderID)
	if err != nil {
		return err
	}
	if leader.Role != entities.RoleHeadFarmer {
		return apperr.Invalid("team leader %s must be a head farmer", leader.FullName())
	}

	ids := dedupe(in.MemberIDs, leader.UserID)
	members, err := users.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(members) != len(ids) {
		return apperr.NotFound("team member")
	}
	for _, m := range members {
		if m.Role != entities.RoleFarmer {
			return apperr.Invalid("team member %s must be a farmer", m.FullName())
		}
	}

	others, err := repo.All(ctx, repository.Filter{})
	if err != nil {
		return err
	}
	for _, o := range others {
		if o.TeamID == t.TeamID {
			continue
		}
		if o.LeaderID == leader.UserID {
			return apperr.Conflict("%s already leads team %q", leader.FullName(), o.Name)
		}
		for _, m := range members {
			if o.HasMember(m.UserID) {
				return apperr.Conflict("%s already belongs to team %q", m.FullName(), o.Name)
			}
		}
	}

	t.Name = name
	t.FarmPresidentID = ownerID
	t.LeaderID = leader.UserID
	t.LeaderName = leader.FullName()
	t.Barangay = strings.TrimSpace(in.Barangay)
	if t.Barangay == "" {
		t.Barangay = leader.Barangay
	}
	t.Members = make([]entities.TeamMember, 0, len(members))
	for _, m := range members {
		t.Members = append(t.Members, entities.TeamMember{FarmerID: m.UserID, Name: m.FullName()})
	}
	return nil
}

// dedupe drops zero ids, repeats and the leader from ids, keeping order.
func dedupe(ids []uint, leaderID uint) []uint {
	seen := map[uint]bool{0: true, leaderID: true}
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (s *teamSvc) Create(ctx context.Context, actor session.Principal, in service.TeamInput) (*entities.Team, error) {
	if !actor.Oversees() && !actor.Is(entities.RoleFarmPresident) {
		return nil, fmt.Errorf("only farm presidents manage teams: %w", apperr.ErrForbidden)
	}
	t := &entities.Team{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.build(ctx, tx, actor, t, in); err != nil {
			return err
		}
		id, err := s.counters.WithTx(tx).Next(ctx, counterrepo.Teams)
		if err != nil {
			return err
		}
		t.TeamID = id
		return s.repo.WithTx(tx).Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *teamSvc) Update(ctx context.Context, actor session.Principal, id uint, in service.TeamInput) (*entities.Team, error) {
	var out *entities.Team
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		t, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !canManage(actor, t) {
			return errNotYours()
		}
		if err := s.build(ctx, tx, actor, t, in); err != nil {
			return err
		}
		out = t
		return repo.Update(ctx, t)
	})
	return out, err
}

func (s *teamSvc) Delete(ctx context.Context, actor session.Principal, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		t, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !canManage(actor, t) {
			return errNotYours()
		}
		n, err := repo.OpenProjects(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Invalid("team %q is assigned to %d open project(s)", t.Name, n)
		}
		return repo.Delete(ctx, id)
	})
}

func (s *teamSvc) Get(ctx context.Context, actor session.Principal, id uint) (*entities.Team, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, t) {
		return nil, errNotYours()
	}
	return t, nil
}

func (s *teamSvc) List(ctx context.Context, actor session.Principal, query string, p paging.Params) (paging.Page[entities.Team], error) {
	f := repository.Filter{Query: query}
	switch {
	case actor.Oversees():
	case actor.Is(entities.RoleFarmPresident):
		f.FarmPresidentID = actor.UserID
	case actor.Is(entities.RoleHeadFarmer):
		f.LeaderID = actor.UserID
	default:
		return paging.Page[entities.Team]{}, fmt.Errorf("no team access: %w", apperr.ErrForbidden)
	}
	rows, total, err := s.repo.List(ctx, f, p)
	if err != nil {
		return paging.Page[entities.Team]{}, err
	}
	return paging.New(rows, p, total), nil
}
