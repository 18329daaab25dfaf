package serviceImp

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	catalogRepoImp "farmportal/pkg/catalog/repositoryImp"
	counterRepoImp "farmportal/pkg/counter/repositoryImp"
	"farmportal/pkg/paging"
	"farmportal/pkg/project/repository"
	"farmportal/pkg/project/repositoryImp"
	"farmportal/pkg/project/service"
	"farmportal/pkg/session"
	teamRepoImp "farmportal/pkg/team/repositoryImp"
	"farmportal/pkg/testutil"
	userRepoImp "farmportal/pkg/user/repositoryImp"
)

var (
	supervisor = session.Principal{UserID: 1, Role: entities.RoleSupervisor}
	president  = session.Principal{UserID: 2, Role: entities.RoleFarmPresident}
	otherFP    = session.Principal{UserID: 3, Role: entities.RoleFarmPresident}
	leader     = session.Principal{UserID: 4, Role: entities.RoleHeadFarmer}
)

type env struct {
	svc   service.ProjectService
	db    *gorm.DB
	stock func(kind string, item uint) float64
}

func setup(t *testing.T) env {
	t.Helper()
	db := testutil.OpenDB(t)
	must := func(v any) {
		t.Helper()
		if err := db.Create(v).Error; err != nil {
			t.Fatalf("seed %T: %v", v, err)
		}
	}
	must(&[]entities.User{
		{UserID: 1, FirstName: "Sue", LastName: "Pervisor", Email: "s@x.ph", Role: entities.RoleSupervisor},
		{UserID: 2, FirstName: "Fely", LastName: "Pres", Email: "fp@x.ph", Role: entities.RoleFarmPresident, Barangay: "Maligaya"},
		{UserID: 3, FirstName: "Otto", LastName: "Pres", Email: "fp2@x.ph", Role: entities.RoleFarmPresident},
		{UserID: 4, FirstName: "Lea", LastName: "Der", Email: "l@x.ph", Role: entities.RoleHeadFarmer},
		{UserID: 5, FirstName: "Mar", LastName: "Io", Email: "m@x.ph", Role: entities.RoleFarmer},
		{UserID: 6, FirstName: "Not", LastName: "Member", Email: "n@x.ph", Role: entities.RoleFarmer},
	})
	must(&entities.Team{TeamID: 1, Name: "Alpha", FarmPresidentID: 2, LeaderID: 4, LeaderName: "Lea Der",
		Members: []entities.TeamMember{{FarmerID: 5, Name: "Mar Io"}}})
	must(&entities.Team{TeamID: 2, Name: "Other", FarmPresidentID: 3, LeaderID: 4})
	must(&entities.CropType{CropTypeID: 1, CatalogFields: entities.CatalogFields{Name: "Rice", Unit: "kg"}})
	must(&entities.Fertilizer{FertilizerID: 1, CatalogFields: entities.CatalogFields{Name: "Urea", Unit: "bags"}})
	must(&entities.Equipment{EquipmentID: 1, CatalogFields: entities.CatalogFields{Name: "Tractor", Unit: "units"}})
	must(&[]entities.Stock{
		{Kind: entities.KindFertilizer, ItemID: 1, OwnerID: 2, ItemName: "Urea", Unit: "bags", Quantity: 10},
		{Kind: entities.KindEquipment, ItemID: 1, OwnerID: 2, ItemName: "Tractor", Unit: "units", Quantity: 2},
	})

	stock := catalogRepoImp.NewStock(db)
	svc := New(Deps{
		DB:       db,
		Repo:     repositoryImp.New(db),
		Teams:    teamRepoImp.New(db),
		Users:    userRepoImp.New(db),
		Catalogs: catalogRepoImp.NewCatalogs(db),
		Stock:    stock,
		Counters: counterRepoImp.New(db),
	})
	return env{svc: svc, db: db, stock: func(kind string, item uint) float64 {
		s, err := stock.Find(context.Background(), kind, item, 2)
		if err != nil {
			t.Fatalf("find stock: %v", err)
		}
		return s.Quantity
	}}
}

func validInput() service.ProjectInput {
	return service.ProjectInput{
		Name: "Wet season rice", CropTypeID: 1, FarmPresidentID: 2, TeamID: 1,
		AreaHectares: 2.5, StartDate: "2025-06-01", EndDate: "2025-10-30",
	}
}

func TestCreateProject(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	p, err := e.svc.Create(ctx, supervisor, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ProjectID != 1 || p.Status != entities.ProjectPending || p.CropTypeName != "Rice" ||
		p.CropName != "Rice" || p.TeamName != "Alpha" || p.Barangay != "Maligaya" || p.FarmPresidentName != "Fely Pres" {
		t.Errorf("project = %+v", p)
	}
	if _, err := e.svc.Create(ctx, supervisor, validInput()); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("duplicate err = %v", err)
	}
	if _, err := e.svc.Create(ctx, president, validInput()); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("president create err = %v", err)
	}
}

func TestCreateProjectValidation(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	cases := []struct {
		name   string
		mutate func(*service.ProjectInput)
		want   error
	}{
		{"blank name", func(in *service.ProjectInput) { in.Name = " " }, apperr.ErrValidation},
		{"bad start", func(in *service.ProjectInput) { in.StartDate = "June" }, apperr.ErrValidation},
		{"end before start", func(in *service.ProjectInput) { in.EndDate = "2025-01-01" }, apperr.ErrValidation},
		{"negative area", func(in *service.ProjectInput) { in.AreaHectares = -1 }, apperr.ErrValidation},
		{"unknown crop", func(in *service.ProjectInput) { in.CropTypeID = 9 }, apperr.ErrNotFound},
		{"not a farm president", func(in *service.ProjectInput) { in.FarmPresidentID = 4 }, apperr.ErrValidation},
		{"foreign team", func(in *service.ProjectInput) { in.TeamID = 2 }, apperr.ErrValidation},
	}
	for _, tc := range cases {
		in := validInput()
		tc.mutate(&in)
		if _, err := e.svc.Create(ctx, supervisor, in); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestLifecycleAndEquipmentReturn(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	p, _ := e.svc.Create(ctx, supervisor, validInput())

	if _, err := e.svc.AllocateResource(ctx, president, p.ProjectID, service.ResourceInput{Kind: entities.KindFertilizer, ItemID: 1, Quantity: 4}); err != nil {
		t.Fatalf("allocate fertilizer: %v", err)
	}
	if _, err := e.svc.AllocateResource(ctx, president, p.ProjectID, service.ResourceInput{Kind: entities.KindEquipment, ItemID: 1, Quantity: 2}); err != nil {
		t.Fatalf("allocate equipment: %v", err)
	}
	if _, err := e.svc.AllocateResource(ctx, president, p.ProjectID, service.ResourceInput{Kind: entities.KindFertilizer, ItemID: 1, Quantity: 7}); !errors.Is(err, apperr.ErrInsufficientStock) {
		t.Errorf("overdraw err = %v", err)
	}
	if got := e.stock(entities.KindFertilizer, 1); got != 6 {
		t.Errorf("fertilizer left = %v, want 6", got)
	}
	if got := e.stock(entities.KindEquipment, 1); got != 0 {
		t.Errorf("equipment left = %v, want 0", got)
	}

	if _, err := e.svc.Start(ctx, president, p.ProjectID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := e.svc.Start(ctx, president, p.ProjectID); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("second start err = %v", err)
	}

	var done *entities.Project
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		done, err = e.svc.Complete(ctx, tx, p.ProjectID, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))
		return err
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != entities.ProjectCompleted || done.CompletedAt == nil {
		t.Errorf("completed = %+v", done)
	}
	if got := e.stock(entities.KindEquipment, 1); got != 2 {
		t.Errorf("equipment after completion = %v, want 2", got)
	}
	if got := e.stock(entities.KindFertilizer, 1); got != 6 {
		t.Errorf("fertilizer after completion = %v, want 6 (consumed)", got)
	}
	if _, err := e.svc.Fail(ctx, president, p.ProjectID); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("fail closed project err = %v", err)
	}
}

func TestStartNeedsExistingTeam(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	p, _ := e.svc.Create(ctx, supervisor, validInput())
	if err := e.db.Where("team_id = ?", 1).Delete(&entities.Team{}).Error; err != nil {
		t.Fatalf("drop team: %v", err)
	}

	if _, err := e.svc.Start(ctx, president, p.ProjectID); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("start without team err = %v, want validation", err)
	}
	got, err := e.svc.Get(ctx, supervisor, p.ProjectID)
	if err != nil || got.Status != entities.ProjectPending {
		t.Errorf("project after refused start = %+v, %v", got, err)
	}
}

func TestFailReturnsEquipmentOnce(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	p, _ := e.svc.Create(ctx, supervisor, validInput())
	e.svc.AllocateResource(ctx, president, p.ProjectID, service.ResourceInput{Kind: entities.KindEquipment, ItemID: 1, Quantity: 1})

	if _, err := e.svc.Fail(ctx, otherFP, p.ProjectID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("foreign fail err = %v", err)
	}
	got, err := e.svc.Fail(ctx, president, p.ProjectID)
	if err != nil || got.Status != entities.ProjectFailed {
		t.Fatalf("Fail = %+v, %v", got, err)
	}
	if q := e.stock(entities.KindEquipment, 1); q != 2 {
		t.Errorf("equipment = %v, want 2", q)
	}
	if !got.Resources[0].Returned {
		t.Errorf("resource not marked returned: %+v", got.Resources)
	}
}

func TestTasksDriveProgress(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	p, _ := e.svc.Create(ctx, supervisor, validInput())

	t1, err := e.svc.AddTask(ctx, leader, p.ProjectID, service.TaskInput{
		Title: "Land prep", Deadline: "2025-06-10",
		Subtasks: []entities.Subtask{{Name: "Plow"}, {Name: "Harrow"}, {Name: "Level", Done: true}},
	})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if t1.Status != entities.TaskOngoing {
		t.Errorf("derived status = %s", t1.Status)
	}
	if _, err := e.svc.AddTask(ctx, leader, p.ProjectID, service.TaskInput{Title: "Canal check"}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	got, _ := e.svc.Get(ctx, president, p.ProjectID)
	if got.ProgressPct != 25 {
		t.Errorf("progress = %v, want 25 (1 of 4 units)", got.ProgressPct)
	}

	all := []entities.Subtask{{Name: "Plow", Done: true}, {Name: "Harrow", Done: true}, {Name: "Level", Done: true}}
	upd, err := e.svc.UpdateTask(ctx, leader, p.ProjectID, t1.TaskID, service.TaskPatch{Subtasks: &all})
	if err != nil || upd.Status != entities.TaskCompleted {
		t.Fatalf("UpdateTask = %+v, %v", upd, err)
	}
	got, _ = e.svc.Get(ctx, president, p.ProjectID)
	if got.ProgressPct != 75 {
		t.Errorf("progress = %v, want 75", got.ProgressPct)
	}

	open, _ := e.svc.OpenTasks(ctx, leader, 10)
	if len(open) != 0 {
		t.Errorf("open tasks on pending project = %d, want 0", len(open))
	}

	if _, err := e.svc.AddTask(ctx, otherFP, p.ProjectID, service.TaskInput{Title: "x"}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("foreign add err = %v", err)
	}
	if err := e.svc.DeleteTask(ctx, leader, p.ProjectID, t1.TaskID); err != nil {
		t.Errorf("DeleteTask: %v", err)
	}
	if err := e.svc.DeleteTask(ctx, leader, p.ProjectID, t1.TaskID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestAttendanceUpsert(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	p, _ := e.svc.Create(ctx, supervisor, validInput())
	task, _ := e.svc.AddTask(ctx, leader, p.ProjectID, service.TaskInput{Title: "Transplant"})

	in := service.AttendanceInput{TaskID: task.TaskID, Date: "2025-06-15", Entries: []service.AttendanceEntry{{FarmerID: 5, Present: true}}}
	if _, err := e.svc.RecordAttendance(ctx, leader, p.ProjectID, in); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("pending project err = %v", err)
	}
	e.svc.Start(ctx, president, p.ProjectID)

	rows, err := e.svc.RecordAttendance(ctx, leader, p.ProjectID, in)
	if err != nil || len(rows) != 1 || !rows[0].Present || rows[0].FarmerName != "Mar Io" {
		t.Fatalf("Record = %+v, %v", rows, err)
	}
	in.Entries = []service.AttendanceEntry{{FarmerID: 5, Present: false, Remarks: "sick"}, {FarmerID: 4, Present: true}}
	rows, err = e.svc.RecordAttendance(ctx, leader, p.ProjectID, in)
	if err != nil || len(rows) != 2 {
		t.Fatalf("Record again = %+v, %v", rows, err)
	}
	for _, r := range rows {
		if r.FarmerID == 5 && (r.Present || r.Remarks != "sick") {
			t.Errorf("row not replaced: %+v", r)
		}
	}

	in.Entries = []service.AttendanceEntry{{FarmerID: 6, Present: true}}
	if _, err := e.svc.RecordAttendance(ctx, leader, p.ProjectID, in); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("non-member err = %v", err)
	}

	list, err := e.svc.Attendance(ctx, president, repository.AttendanceFilter{ProjectID: p.ProjectID, Date: "2025-06-15"})
	if err != nil || len(list) != 2 {
		t.Errorf("Attendance = %+v, %v", list, err)
	}
	open, _ := e.svc.OpenTasks(ctx, leader, 10)
	if len(open) != 1 {
		t.Errorf("open tasks = %d, want 1", len(open))
	}
}

func TestVisibilityByRole(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	p, _ := e.svc.Create(ctx, supervisor, validInput())
	pg := paging.Params{Page: 1, Size: 10}

	if l, _ := e.svc.List(ctx, president, repository.Filter{}, pg); l.Total != 1 {
		t.Errorf("owner sees %d", l.Total)
	}
	if l, _ := e.svc.List(ctx, otherFP, repository.Filter{}, pg); l.Total != 0 {
		t.Errorf("other president sees %d", l.Total)
	}
	if l, _ := e.svc.List(ctx, leader, repository.Filter{}, pg); l.Total != 1 {
		t.Errorf("leader sees %d", l.Total)
	}
	if _, err := e.svc.Get(ctx, otherFP, p.ProjectID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("foreign get err = %v", err)
	}
	counts, _ := e.svc.CountByStatus(ctx, supervisor)
	if counts[entities.ProjectPending] != 1 || counts[entities.ProjectOngoing] != 0 {
		t.Errorf("counts = %v", counts)
	}
}
