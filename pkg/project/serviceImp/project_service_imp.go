package serviceImp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	catalogrepo "farmportal/pkg/catalog/repository"
	counterrepo "farmportal/pkg/counter/repository"
	"farmportal/pkg/dates"
	"farmportal/pkg/logger"
	"farmportal/pkg/paging"
	"farmportal/pkg/project/repository"
	"farmportal/pkg/project/service"
	"farmportal/pkg/session"
	teamrepo "farmportal/pkg/team/repository"
	userrepo "farmportal/pkg/user/repository"
)

type Deps struct {
	DB       *gorm.DB
	Repo     repository.ProjectRepository
	Teams    teamrepo.TeamRepository
	Users    userrepo.UserRepository
	Catalogs catalogrepo.Catalogs
	Stock    catalogrepo.StockRepository
	Counters counterrepo.CounterRepository
	Log      *zap.Logger
}

type projectSvc struct {
	Deps
}

func New(d Deps) service.ProjectService {
	d.Log = logger.OrNop(d.Log)
	return &projectSvc{Deps: d}
}

func forbidden(what string) error {
	return fmt.Errorf("not allowed to %s: %w", what, apperr.ErrForbidden)
}

// leads reports whether actor is the head farmer of the project's team.
func (s *projectSvc) leads(ctx context.Context, teams teamrepo.TeamRepository, actor session.Principal, p *entities.Project) (bool, error) {
	if !actor.Is(entities.RoleHeadFarmer) || p.TeamID == 0 {
		return false, nil
	}
	t, err := teams.FindByID(ctx, p.TeamID)
	if err != nil {
		return false, apperr.FromDB(err, "team")
	}
	return t.LeaderID == actor.UserID, nil
}

func canManage(actor session.Principal, p *entities.Project) bool {
	return actor.Oversees() || (actor.Is(entities.RoleFarmPresident) && p.FarmPresidentID == actor.UserID)
}

// canWork covers tasks and attendance: managers plus the team leader.
func (s *projectSvc) canWork(ctx context.Context, tx *gorm.DB, actor session.Principal, p *entities.Project) error {
	if canManage(actor, p) {
		return nil
	}
	ok, err := s.leads(ctx, s.Teams.WithTx(tx), actor, p)
	if err != nil {
		return err
	}
	if !ok {
		return forbidden("work on this project")
	}
	return nil
}

func (s *projectSvc) Visible(ctx context.Context, actor session.Principal, f repository.Filter) (repository.Filter, error) {
	switch {
	case actor.Oversees():
	case actor.Is(entities.RoleFarmPresident):
		f.FarmPresidentID = actor.UserID
	case actor.Is(entities.RoleHeadFarmer):
		led, err := s.Teams.All(ctx, teamrepo.Filter{LeaderID: actor.UserID})
		if err != nil {
			return f, err
		}
		f.TeamIDs = make([]uint, 0, len(led))
		for _, t := range led {
			f.TeamIDs = append(f.TeamIDs, t.TeamID)
		}
	default:
		return f, forbidden("view projects")
	}
	return f, nil
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	from, ok := dates.Parse(start)
	if !ok {
		return time.Time{}, time.Time{}, apperr.Invalid("start date %q is not a valid date", start)
	}
	var to time.Time
	if strings.TrimSpace(end) != "" {
		if to, ok = dates.Parse(end); !ok {
			return time.Time{}, time.Time{}, apperr.Invalid("end date %q is not a valid date", end)
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, apperr.Invalid("end date must not be before the start date")
		}
	}
	return from, to, nil
}

// assignTeam checks that team belongs to the project's farm president.
func assignTeam(ctx context.Context, teams teamrepo.TeamRepository, p *entities.Project, teamID uint) error {
	if teamID == 0 {
		p.TeamID, p.TeamName = 0, ""
		return nil
	}
	t, err := teams.FindByID(ctx, teamID)
	if err != nil {
		return err
	}
	if t.FarmPresidentID != p.FarmPresidentID {
		return apperr.Invalid("team %q belongs to another farm president", t.Name)
	}
	p.TeamID, p.TeamName = t.TeamID, t.Name
	if p.Barangay == "" {
		p.Barangay = t.Barangay
	}
	return nil
}

func (s *projectSvc) Create(ctx context.Context, actor session.Principal, in service.ProjectInput) (*entities.Project, error) {
	if !actor.Oversees() {
		return nil, forbidden("create projects")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Invalid("project name is required")
	}
	if in.AreaHectares < 0 {
		return nil, apperr.Invalid("area cannot be negative")
	}
	start, end, err := parseRange(in.StartDate, in.EndDate)
	if err != nil {
		return nil, err
	}

	p := &entities.Project{
		Name:         name,
		Status:       entities.ProjectPending,
		CropName:     strings.TrimSpace(in.CropName),
		Barangay:     strings.TrimSpace(in.Barangay),
		AreaHectares: in.AreaHectares,
		StartDate:    start,
		EndDate:      end,
		CreatedBy:    actor.UserID,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.Repo.WithTx(tx)
		taken, err := repo.NameTaken(ctx, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict("project %q already exists", name)
		}
		crop, err := s.Catalogs.Crops.WithTx(tx).FindByID(ctx, in.CropTypeID)
		if err != nil {
			return err
		}
		p.CropTypeID, p.CropTypeName = crop.CropTypeID, crop.Name
		if p.CropName == "" {
			p.CropName = crop.Name
		}

		if in.FarmPresidentID == 0 {
			return apperr.Invalid("farm_president_id is required")
		}
		fp, err := s.Users.WithTx(tx).FindByID(ctx, in.FarmPresidentID)
		if err != nil {
			return err
		}
		if fp.Role != entities.RoleFarmPresident {
			return apperr.Invalid("%s is not a farm president", fp.FullName())
		}
		p.FarmPresidentID, p.FarmPresidentName = fp.UserID, fp.FullName()
		if err := assignTeam(ctx, s.Teams.WithTx(tx), p, in.TeamID); err != nil {
			return err
		}
		if p.Barangay == "" {
			p.Barangay = fp.Barangay
		}

		id, err := s.Counters.WithTx(tx).Next(ctx, counterrepo.Projects)
		if err != nil {
			return err
		}
		p.ProjectID = id
		return repo.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("project created", zap.Uint("project_id", p.ProjectID), zap.String("name", p.Name), zap.Uint("by", actor.UserID))
	return p.WithProgress(), nil
}

func (s *projectSvc) Update(ctx context.Context, actor session.Principal, id uint, patch service.ProjectPatch) (*entities.Project, error) {
	var out *entities.Project
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.Repo.WithTx(tx)
		p, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !canManage(actor, p) {
			return forbidden("edit this project")
		}
		if p.Closed() {
			return apperr.Invalid("project %q is %s and can no longer change", p.Name, p.Status)
		}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return apperr.Invalid("project name is required")
			}
			taken, err := repo.NameTaken(ctx, name, id)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict("project %q already exists", name)
			}
			p.Name = name
		}
		if patch.CropName != nil && strings.TrimSpace(*patch.CropName) != "" {
			p.CropName = strings.TrimSpace(*patch.CropName)
		}
		if patch.Barangay != nil {
			p.Barangay = strings.TrimSpace(*patch.Barangay)
		}
		if patch.AreaHectares != nil {
			if *patch.AreaHectares < 0 {
				return apperr.Invalid("area cannot be negative")
			}
			p.AreaHectares = *patch.AreaHectares
		}
		if patch.StartDate != nil || patch.EndDate != nil {
			start, end := dates.Format(p.StartDate), ""
			if !p.EndDate.IsZero() {
				end = dates.Format(p.EndDate)
			}
			if patch.StartDate != nil {
				start = *patch.StartDate
			}
			if patch.EndDate != nil {
				end = *patch.EndDate
			}
			if p.StartDate, p.EndDate, err = parseRange(start, end); err != nil {
				return err
			}
		}
		if patch.TeamID != nil && *patch.TeamID != p.TeamID {
			if p.Status == entities.ProjectOngoing && *patch.TeamID == 0 {
				return apperr.Invalid("an ongoing project needs a team")
			}
			if err := assignTeam(ctx, s.Teams.WithTx(tx), p, *patch.TeamID); err != nil {
				return err
			}
		}
		out = p
		return repo.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, actor, out.ProjectID)
}

func (s *projectSvc) Start(ctx context.Context, actor session.Principal, id uint) (*entities.Project, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.Repo.WithTx(tx)
		p, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !canManage(actor, p) {
			return forbidden("start this project")
		}
		if p.Status != entities.ProjectPending {
			return apperr.Invalid("only pending projects can start; %q is %s", p.Name, p.Status)
		}
		if p.TeamID == 0 {
			return apperr.Invalid("assign a team before starting %q", p.Name)
		}
		team, err := s.Teams.WithTx(tx).FindByID(ctx, p.TeamID)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Invalid("the team of %q no longer exists; assign another before starting", p.Name)
		}
		if err != nil {
			return err
		}
		p.TeamName = team.Name
		p.Status = entities.ProjectOngoing
		return repo.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("project started", zap.Uint("project_id", id), zap.Uint("by", actor.UserID))
	return s.Get(ctx, actor, id)
}

func (s *projectSvc) Fail(ctx context.Context, actor session.Principal, id uint) (*entities.Project, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.Repo.WithTx(tx)
		p, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !canManage(actor, p) {
			return forbidden("close this project")
		}
		if p.Closed() {
			return apperr.Invalid("project %q is already %s", p.Name, p.Status)
		}
		if err := s.returnEquipment(ctx, tx, p); err != nil {
			return err
		}
		p.Status = entities.ProjectFailed
		return repo.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("project failed", zap.Uint("project_id", id), zap.Uint("by", actor.UserID))
	return s.Get(ctx, actor, id)
}

func (s *projectSvc) Complete(ctx context.Context, tx *gorm.DB, id uint, at time.Time) (*entities.Project, error) {
	repo := s.Repo.WithTx(tx)
	p, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != entities.ProjectOngoing {
		return nil, apperr.Invalid("only ongoing projects can be harvested; %q is %s", p.Name, p.Status)
	}
	if err := s.returnEquipment(ctx, tx, p); err != nil {
		return nil, err
	}
	p.Status = entities.ProjectCompleted
	p.CompletedAt = &at
	if err := repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// returnEquipment puts equipment still out on the project back into the
// farm president's stock. Fertilizer is consumed and stays deducted.
func (s *projectSvc) returnEquipment(ctx context.Context, tx *gorm.DB, p *entities.Project) error {
	repo := s.Repo.WithTx(tx)
	res, err := repo.Resources(ctx, p.ProjectID)
	if err != nil {
		return err
	}
	stock := s.Stock.WithTx(tx)
	var ids []uint
	for _, r := range res {
		if r.Kind != entities.KindEquipment || r.Returned {
			continue
		}
		if _, err := stock.Adjust(ctx, r.Kind, r.ItemID, p.FarmPresidentID, r.ItemName, r.Unit, r.Quantity); err != nil {
			return err
		}
		ids = append(ids, r.ResourceID)
	}
	return repo.MarkReturned(ctx, ids)
}

func (s *projectSvc) Get(ctx context.Context, actor session.Principal, id uint) (*entities.Project, error) {
	p, err := s.Repo.FindFull(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, p) {
		ok, err := s.leads(ctx, s.Teams, actor, p)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, forbidden("view this project")
		}
	}
	return p.WithProgress(), nil
}

func (s *projectSvc) List(ctx context.Context, actor session.Principal, f repository.Filter, p paging.Params) (paging.Page[entities.Project], error) {
	f, err := s.Visible(ctx, actor, f)
	if err != nil {
		return paging.Page[entities.Project]{}, err
	}
	rows, total, err := s.Repo.List(ctx, f, p)
	if err != nil {
		return paging.Page[entities.Project]{}, err
	}
	for i := range rows {
		rows[i].WithProgress()
	}
	return paging.New(rows, p, total), nil
}

func (s *projectSvc) CountByStatus(ctx context.Context, actor session.Principal) (map[string]int, error) {
	f, err := s.Visible(ctx, actor, repository.Filter{})
	if err != nil {
		return nil, err
	}
	return s.Repo.CountByStatus(ctx, f)
}

func (s *projectSvc) AllocateResource(ctx context.Context, actor session.Principal, projectID uint, in service.ResourceInput) (*entities.ProjectResource, error) {
	if in.Kind != entities.KindFertilizer && in.Kind != entities.KindEquipment {
		return nil, apperr.Invalid("only fertilizer or equipment can be allocated, not %q", in.Kind)
	}
	if in.Quantity <= 0 {
		return nil, apperr.Invalid("quantity must be positive")
	}
	var out *entities.ProjectResource
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.Repo.WithTx(tx)
		p, err := repo.FindByID(ctx, projectID)
		if err != nil {
			return err
		}
		if !canManage(actor, p) {
			return forbidden("allocate resources to this project")
		}
		if p.Closed() {
			return apperr.Invalid("project %q is %s", p.Name, p.Status)
		}
		d, _ := s.Catalogs.WithTx(tx).Describer(in.Kind)
		name, unit, err := d.Describe(ctx, in.ItemID)
		if err != nil {
			return err
		}
		if _, err := s.Stock.WithTx(tx).Adjust(ctx, in.Kind, in.ItemID, p.FarmPresidentID, name, unit, -in.Quantity); err != nil {
			return err
		}
		out = &entities.ProjectResource{
			ProjectID: p.ProjectID,
			Kind:      in.Kind,
			ItemID:    in.ItemID,
			ItemName:  name,
			Quantity:  in.Quantity,
			Unit:      unit,
		}
		return repo.CreateResource(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func cleanSubtasks(in []entities.Subtask) ([]entities.Subtask, error) {
	out := make([]entities.Subtask, 0, len(in))
	for _, st := range in {
		name := strings.TrimSpace(st.Name)
		if name == "" {
			return nil, apperr.Invalid("subtask names cannot be blank")
		}
		out = append(out, entities.Subtask{Name: name, Done: st.Done})
	}
	return out, nil
}

func validTaskStatus(s string) bool {
	return s == entities.TaskPending || s == entities.TaskOngoing || s == entities.TaskCompleted
}

// openProject loads a project the actor may work on and that still accepts
// changes.
func (s *projectSvc) openProject(ctx context.Context, tx *gorm.DB, actor session.Principal, id uint) (*entities.Project, error) {
	p, err := s.Repo.WithTx(tx).FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.canWork(ctx, tx, actor, p); err != nil {
		return nil, err
	}
	if p.Closed() {
		return nil, apperr.Invalid("project %q is %s", p.Name, p.Status)
	}
	return p, nil
}

func (s *projectSvc) AddTask(ctx context.Context, actor session.Principal, projectID uint, in service.TaskInput) (*entities.ProjectTask, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Invalid("task title is required")
	}
	subs, err := cleanSubtasks(in.Subtasks)
	if err != nil {
		return nil, err
	}
	t := &entities.ProjectTask{
		ProjectID:   projectID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Subtasks:    subs,
		Status:      entities.TaskPending,
	}
	if in.Deadline != "" {
		d, ok := dates.Parse(in.Deadline)
		if !ok {
			return nil, apperr.Invalid("deadline %q is not a valid date", in.Deadline)
		}
		t.Deadline = d
	}
	if in.Status != "" {
		if !validTaskStatus(in.Status) {
			return nil, apperr.Invalid("unknown task status %q", in.Status)
		}
		t.Status = in.Status
	}
	t.DeriveStatus()
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.openProject(ctx, tx, actor, projectID); err != nil {
			return err
		}
		return s.Repo.WithTx(tx).CreateTask(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *projectSvc) UpdateTask(ctx context.Context, actor session.Principal, projectID, taskID uint, patch service.TaskPatch) (*entities.ProjectTask, error) {
	var out *entities.ProjectTask
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.openProject(ctx, tx, actor, projectID); err != nil {
			return err
		}
		repo := s.Repo.WithTx(tx)
		t, err := repo.FindTask(ctx, projectID, taskID)
		if err != nil {
			return err
		}
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return apperr.Invalid("task title is required")
			}
			t.Title = title
		}
		if patch.Description != nil {
			t.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Deadline != nil {
			if *patch.Deadline == "" {
				t.Deadline = time.Time{}
			} else {
				d, ok := dates.Parse(*patch.Deadline)
				if !ok {
					return apperr.Invalid("deadline %q is not a valid date", *patch.Deadline)
				}
				t.Deadline = d
			}
		}
		if patch.Subtasks != nil {
			subs, err := cleanSubtasks(*patch.Subtasks)
			if err != nil {
				return err
			}
			t.Subtasks = subs
		}
		if patch.Status != nil {
			if !validTaskStatus(*patch.Status) {
				return apperr.Invalid("unknown task status %q", *patch.Status)
			}
			t.Status = *patch.Status
		}
		t.DeriveStatus()
		out = t
		return repo.UpdateTask(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *projectSvc) DeleteTask(ctx context.Context, actor session.Principal, projectID, taskID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.openProject(ctx, tx, actor, projectID); err != nil {
			return err
		}
		return s.Repo.WithTx(tx).DeleteTask(ctx, projectID, taskID)
	})
}

func (s *projectSvc) OpenTasks(ctx context.Context, actor session.Principal, limit int) ([]entities.ProjectTask, error) {
	f, err := s.Visible(ctx, actor, repository.Filter{Status: entities.ProjectOngoing})
	if err != nil {
		return nil, err
	}
	projects, err := s.Repo.All(ctx, f)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ProjectID)
	}
	return s.Repo.OpenTasks(ctx, ids, limit)
}

func (s *projectSvc) RecordAttendance(ctx context.Context, actor session.Principal, projectID uint, in service.AttendanceInput) ([]entities.Attendance, error) {
	day, ok := dates.Parse(in.Date)
	if !ok {
		return nil, apperr.Invalid("date %q is not a valid date", in.Date)
	}
	if len(in.Entries) == 0 {
		return nil, apperr.Invalid("attendance needs at least one farmer")
	}
	date := dates.Format(day)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.openProject(ctx, tx, actor, projectID)
		if err != nil {
			return err
		}
		if p.Status != entities.ProjectOngoing {
			return apperr.Invalid("attendance is recorded for ongoing projects only")
		}
		if _, err := s.Repo.WithTx(tx).FindTask(ctx, projectID, in.TaskID); err != nil {
			return err
		}
		team, err := s.Teams.WithTx(tx).FindByID(ctx, p.TeamID)
		if err != nil {
			return err
		}
		names := map[uint]string{team.LeaderID: team.LeaderName}
		for _, m := range team.Members {
			names[m.FarmerID] = m.Name
		}
		rows := make([]entities.Attendance, 0, len(in.Entries))
		for _, e := range in.Entries {
			name, ok := names[e.FarmerID]
			if !ok {
				return apperr.Invalid("farmer %d is not on team %q", e.FarmerID, team.Name)
			}
			rows = append(rows, entities.Attendance{
				ProjectID:  projectID,
				TaskID:     in.TaskID,
				Date:       date,
				FarmerID:   e.FarmerID,
				FarmerName: name,
				Present:    e.Present,
				Remarks:    strings.TrimSpace(e.Remarks),
				RecordedBy: actor.UserID,
			})
		}
		return s.Repo.WithTx(tx).UpsertAttendance(ctx, rows)
	})
	if err != nil {
		return nil, err
	}
	return s.Repo.Attendance(ctx, repository.AttendanceFilter{ProjectID: projectID, TaskID: in.TaskID, Date: date})
}

func (s *projectSvc) Attendance(ctx context.Context, actor session.Principal, f repository.AttendanceFilter) ([]entities.Attendance, error) {
	if f.ProjectID == 0 {
		return nil, apperr.Invalid("project_id is required")
	}
	if _, err := s.Get(ctx, actor, f.ProjectID); err != nil {
		return nil, err
	}
	if f.Date != "" {
		d, ok := dates.Parse(f.Date)
		if !ok {
			return nil, apperr.Invalid("date %q is not a valid date", f.Date)
		}
		f.Date = dates.Format(d)
	}
	return s.Repo.Attendance(ctx, f)
}
