package serviceImp

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	counterRepoImp "farmportal/pkg/counter/repositoryImp"
	"farmportal/pkg/paging"
	"farmportal/pkg/session"
	"farmportal/pkg/team/repositoryImp"
	"farmportal/pkg/team/service"
	"farmportal/pkg/testutil"
	userRepoImp "farmportal/pkg/user/repositoryImp"
)

var (
	president = session.Principal{UserID: 1, Role: entities.RoleFarmPresident}
	rival     = session.Principal{UserID: 2, Role: entities.RoleFarmPresident}
	boss      = session.Principal{UserID: 99, Role: entities.RoleSupervisor}
)

func setup(t *testing.T) (service.TeamService, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	users := []entities.User{
		{UserID: 1, FirstName: "Fe", LastName: "Pres", Email: "fp1@x.ph", Role: entities.RoleFarmPresident, Barangay: "Poblacion"},
		{UserID: 2, FirstName: "Ri", LastName: "Val", Email: "fp2@x.ph", Role: entities.RoleFarmPresident},
		{UserID: 10, FirstName: "Hed", LastName: "One", Email: "h1@x.ph", Role: entities.RoleHeadFarmer, Barangay: "Poblacion"},
		{UserID: 11, FirstName: "Hed", LastName: "Two", Email: "h2@x.ph", Role: entities.RoleHeadFarmer},
		{UserID: 20, FirstName: "Far", LastName: "A", Email: "a@x.ph", Role: entities.RoleFarmer},
		{UserID: 21, FirstName: "Far", LastName: "B", Email: "b@x.ph", Role: entities.RoleFarmer},
		{UserID: 22, FirstName: "Far", LastName: "C", Email: "c@x.ph", Role: entities.RoleFarmer},
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatalf("seed users: %v", err)
	}
	return New(db, repositoryImp.New(db), userRepoImp.New(db), counterRepoImp.New(db)), db
}

func TestCreateTeam(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	team, err := svc.Create(ctx, president, service.TeamInput{Name: "Alpha", LeaderID: 10, MemberIDs: []uint{20, 21, 20, 10}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if team.TeamID != 1 || team.FarmPresidentID != 1 || team.LeaderName != "Hed One" || team.Barangay != "Poblacion" {
		t.Errorf("team = %+v", team)
	}
	if len(team.Members) != 2 || !team.HasMember(21) {
		t.Errorf("members = %+v", team.Members)
	}
}

func TestCreateTeamValidation(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	cases := []struct {
		name string
		in   service.TeamInput
		want error
	}{
		{"no name", service.TeamInput{LeaderID: 10}, apperr.ErrValidation},
		{"no leader", service.TeamInput{Name: "X"}, apperr.ErrValidation},
		{"leader not head farmer", service.TeamInput{Name: "X", LeaderID: 20}, apperr.ErrValidation},
		{"member not farmer", service.TeamInput{Name: "X", LeaderID: 10, MemberIDs: []uint{11}}, apperr.ErrValidation},
		{"unknown member", service.TeamInput{Name: "X", LeaderID: 10, MemberIDs: []uint{404}}, apperr.ErrNotFound},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, president, tc.in); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestFarmerBelongsToOneTeam(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, president, service.TeamInput{Name: "Alpha", LeaderID: 10, MemberIDs: []uint{20}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.Create(ctx, president, service.TeamInput{Name: "Beta", LeaderID: 11, MemberIDs: []uint{20}})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("shared farmer err = %v", err)
	}
	_, err = svc.Create(ctx, president, service.TeamInput{Name: "alpha", LeaderID: 11})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("duplicate name err = %v", err)
	}
	_, err = svc.Create(ctx, president, service.TeamInput{Name: "Gamma", LeaderID: 10})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("leader of two teams err = %v", err)
	}
}

func TestUpdateKeepsOwnTeamMembersAndChecksOwner(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	team, _ := svc.Create(ctx, president, service.TeamInput{Name: "Alpha", LeaderID: 10, MemberIDs: []uint{20}})

	got, err := svc.Update(ctx, president, team.TeamID, service.TeamInput{Name: "Alpha", LeaderID: 10, MemberIDs: []uint{20, 22}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(got.Members) != 2 {
		t.Errorf("members = %+v", got.Members)
	}
	if _, err := svc.Update(ctx, rival, team.TeamID, service.TeamInput{Name: "Mine", LeaderID: 10}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("rival update err = %v", err)
	}
}

func TestSupervisorMustNameFarmPresident(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, boss, service.TeamInput{Name: "Z", LeaderID: 10}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("missing owner err = %v", err)
	}
	if _, err := svc.Create(ctx, boss, service.TeamInput{Name: "Z", LeaderID: 10, FarmPresidentID: 20}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("farmer as owner err = %v", err)
	}
	team, err := svc.Create(ctx, boss, service.TeamInput{Name: "Z", LeaderID: 10, FarmPresidentID: 2})
	if err != nil || team.FarmPresidentID != 2 {
		t.Fatalf("Create = %+v, %v", team, err)
	}
}

func TestDeleteBlockedByOpenProject(t *testing.T) {
	svc, db := setup(t)
	ctx := context.Background()
	team, _ := svc.Create(ctx, president, service.TeamInput{Name: "Alpha", LeaderID: 10})
	p := entities.Project{ProjectID: 1, Name: "Rice 1", Status: entities.ProjectPending, TeamID: team.TeamID}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	for _, status := range []string{entities.ProjectPending, entities.ProjectOngoing} {
		db.Model(&p).Update("status", status)
		if err := svc.Delete(ctx, president, team.TeamID); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("delete with %s project err = %v, want validation", status, err)
		}
	}
	db.Model(&p).Update("status", entities.ProjectCompleted)
	if err := svc.Delete(ctx, president, team.TeamID); err != nil {
		t.Errorf("delete after completion: %v", err)
	}
	if _, err := svc.Get(ctx, president, team.TeamID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get deleted err = %v", err)
	}
}

func TestListScopesByRole(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	svc.Create(ctx, president, service.TeamInput{Name: "Alpha", LeaderID: 10})
	svc.Create(ctx, rival, service.TeamInput{Name: "Beta", LeaderID: 11})
	p := paging.Params{Page: 1, Size: 10}

	mine, _ := svc.List(ctx, president, "", p)
	if mine.Total != 1 || mine.Items[0].Name != "Alpha" {
		t.Errorf("president sees %+v", mine.Items)
	}
	all, _ := svc.List(ctx, boss, "", p)
	if all.Total != 2 {
		t.Errorf("supervisor sees %d", all.Total)
	}
	led, _ := svc.List(ctx, session.Principal{UserID: 11, Role: entities.RoleHeadFarmer}, "", p)
	if led.Total != 1 || led.Items[0].Name != "Beta" {
		t.Errorf("leader sees %+v", led.Items)
	}
	if _, err := svc.List(ctx, session.Principal{UserID: 20, Role: entities.RoleFarmer}, "", p); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("farmer err = %v", err)
	}
}
