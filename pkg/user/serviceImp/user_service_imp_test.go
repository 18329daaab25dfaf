package serviceImp

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	"farmportal/pkg/auth/password"
	counterRepoImp "farmportal/pkg/counter/repositoryImp"
	"farmportal/pkg/paging"
	"farmportal/pkg/testutil"
	"farmportal/pkg/user/repository"
	"farmportal/pkg/user/repositoryImp"
	"farmportal/pkg/user/service"
)

func init() { password.Cost = bcrypt.MinCost }

func newService(t *testing.T) service.UserService {
	t.Helper()
	svc, _ := openService(t)
	return svc
}

func openService(t *testing.T) (service.UserService, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	return New(db, repositoryImp.New(db), counterRepoImp.New(db)), db
}

func validInput(email string) service.CreateInput {
	return service.CreateInput{
		FirstName: "Pedro", LastName: "Santos", Email: email,
		Password: "harvest-2025", Role: entities.RoleFarmer, Barangay: "San Isidro",
	}
}

func TestCreateAllocatesIDsAndNormalizesEmail(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, validInput("  Pedro@Farm.PH "))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.UserID != 1 || a.Email != "pedro@farm.ph" || a.PasswordHash == "harvest-2025" {
		t.Errorf("created = %+v", a)
	}
	b, err := svc.Create(ctx, validInput("other@farm.ph"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.UserID != 2 {
		t.Errorf("second id = %d, want 2", b.UserID)
	}
}

func TestCreateRejectsDuplicateEmailCaseInsensitive(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, validInput("dup@farm.ph")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.Create(ctx, validInput("DUP@farm.ph"))
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	cases := map[string]func(*service.CreateInput){
		"bad email":      func(in *service.CreateInput) { in.Email = "not-an-email" },
		"bad role":       func(in *service.CreateInput) { in.Role = "king" },
		"short password": func(in *service.CreateInput) { in.Password = "short" },
		"missing name":   func(in *service.CreateInput) { in.LastName = " " },
	}
	for name, mutate := range cases {
		in := validInput("v@farm.ph")
		mutate(&in)
		if _, err := svc.Create(ctx, in); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("%s: err = %v, want validation", name, err)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, validInput("login@farm.ph")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u, err := svc.Authenticate(ctx, "LOGIN@farm.ph", "harvest-2025"); err != nil || u.Email != "login@farm.ph" {
		t.Errorf("Authenticate = %+v, %v", u, err)
	}
	if _, err := svc.Authenticate(ctx, "login@farm.ph", "wrong-pass"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ghost@farm.ph", "harvest-2025"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("unknown email err = %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	u, _ := svc.Create(ctx, validInput("pw@farm.ph"))

	if err := svc.ChangePassword(ctx, u.UserID, "nope-nope", "new-password-1", false); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("wrong current err = %v", err)
	}
	if err := svc.ChangePassword(ctx, u.UserID, "harvest-2025", "new-password-1", false); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "pw@farm.ph", "new-password-1"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if err := svc.ChangePassword(ctx, u.UserID, "", "reset-password", true); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "pw@farm.ph", "reset-password"); err != nil {
		t.Errorf("login after reset: %v", err)
	}
}

func TestUpdateEmailConflictAndRole(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	a, _ := svc.Create(ctx, validInput("a@farm.ph"))
	svc.Create(ctx, validInput("b@farm.ph"))

	taken := "B@farm.ph"
	if _, err := svc.Update(ctx, a.UserID, service.UpdateInput{Email: &taken}); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want conflict", err)
	}
	role := entities.RoleHeadFarmer
	u, err := svc.Update(ctx, a.UserID, service.UpdateInput{Role: &role})
	if err != nil || u.Role != entities.RoleHeadFarmer {
		t.Errorf("Update = %+v, %v", u, err)
	}
}

func TestListAndFarmers(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	for i, in := range []service.CreateInput{
		{FirstName: "Ana", LastName: "Reyes", Email: "ana@farm.ph", Role: entities.RoleFarmer, Barangay: "Bagong Silang"},
		{FirstName: "Ben", LastName: "Lopez", Email: "ben@farm.ph", Role: entities.RoleHeadFarmer, Barangay: "Bagong Silang"},
		{FirstName: "Cora", LastName: "Diaz", Email: "cora@farm.ph", Role: entities.RoleFarmPresident, Barangay: "Bagong Silang"},
		{FirstName: "Dan", LastName: "Uy", Email: "dan@farm.ph", Role: entities.RoleFarmer, Barangay: "Poblacion"},
	} {
		in.Password = "password-123"
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
	}

	pg, err := svc.Farmers(ctx, "bagong silang", "", paging.Params{Page: 1, Size: 10})
	if err != nil || pg.Total != 2 {
		t.Fatalf("Farmers = %+v, %v", pg, err)
	}
	pg, _ = svc.List(ctx, repository.Filter{Query: "rey"}, paging.Params{Page: 1, Size: 10})
	if pg.Total != 1 || pg.Items[0].FirstName != "Ana" {
		t.Errorf("search = %+v", pg.Items)
	}
	if _, err := svc.List(ctx, repository.Filter{Roles: []string{"ghost"}}, paging.Params{}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad role filter err = %v", err)
	}
	counts, _ := svc.CountByRole(ctx)
	if counts[entities.RoleFarmer] != 2 || counts[entities.RoleAdmin] != 0 {
		t.Errorf("counts = %v", counts)
	}
}

func TestRoleChangeBlockedWhileAssigned(t *testing.T) {
	svc, db := openService(t)
	ctx := context.Background()
	users := []entities.User{
		{UserID: 1, FirstName: "Fe", LastName: "Pres", Email: "fp@farm.ph", Role: entities.RoleFarmPresident},
		{UserID: 2, FirstName: "Rey", LastName: "Lead", Email: "rey@farm.ph", Role: entities.RoleHeadFarmer},
		{UserID: 3, FirstName: "Mia", LastName: "Farm", Email: "mia@farm.ph", Role: entities.RoleFarmer},
		{UserID: 4, FirstName: "Lone", LastName: "Farm", Email: "lone@farm.ph", Role: entities.RoleFarmer},
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatalf("seed users: %v", err)
	}
	team := entities.Team{TeamID: 1, Name: "Alpha", FarmPresidentID: 1, LeaderID: 2,
		Members: []entities.TeamMember{{FarmerID: 3, Name: "Mia Farm"}}}
	if err := db.Create(&team).Error; err != nil {
		t.Fatalf("seed team: %v", err)
	}

	role := func(r string) service.UpdateInput { return service.UpdateInput{Role: &r} }
	cases := []struct {
		name string
		id   uint
		to   string
	}{
		{"leader demoted", 2, entities.RoleFarmer},
		{"member promoted", 3, entities.RoleAdmin},
		{"owner demoted", 1, entities.RoleSupervisor},
	}
	for _, tc := range cases {
		if _, err := svc.Update(ctx, tc.id, role(tc.to)); !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("%s: err = %v, want conflict", tc.name, err)
		}
	}

	// keeping the same role is not a change
	if _, err := svc.Update(ctx, 2, role(entities.RoleHeadFarmer)); err != nil {
		t.Errorf("same role: %v", err)
	}
	u, err := svc.Update(ctx, 4, role(entities.RoleHeadFarmer))
	if err != nil || u.Role != entities.RoleHeadFarmer {
		t.Errorf("unassigned farmer promotion = %+v, %v", u, err)
	}
}
