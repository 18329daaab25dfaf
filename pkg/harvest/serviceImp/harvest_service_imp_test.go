package serviceImp

import (
	"context"
	"errors"
	"testing"
	"time"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	catalogRepoImp "farmportal/pkg/catalog/repositoryImp"
	counterRepoImp "farmportal/pkg/counter/repositoryImp"
	"farmportal/pkg/harvest/repository"
	"farmportal/pkg/harvest/repositoryImp"
	"farmportal/pkg/harvest/service"
	"farmportal/pkg/paging"
	projectRepoImp "farmportal/pkg/project/repositoryImp"
	projectServiceImp "farmportal/pkg/project/serviceImp"
	"farmportal/pkg/session"
	teamRepoImp "farmportal/pkg/team/repositoryImp"
	"farmportal/pkg/testutil"
	userRepoImp "farmportal/pkg/user/repositoryImp"
)

var (
	supervisor = session.Principal{UserID: 1, Role: entities.RoleSupervisor}
	president  = session.Principal{UserID: 2, Role: entities.RoleFarmPresident}
	otherFP    = session.Principal{UserID: 3, Role: entities.RoleFarmPresident}
)

func setup(t *testing.T) (service.HarvestService, func(kind string, item uint) float64) {
	t.Helper()
	db := testutil.OpenDB(t)
	day := func(s string) time.Time { d, _ := time.Parse("2006-01-02", s); return d }
	seed := []any{
		&[]entities.User{
			{UserID: 2, FirstName: "Fe", LastName: "P", Email: "fp@x.ph", Role: entities.RoleFarmPresident},
			{UserID: 3, FirstName: "Ot", LastName: "P", Email: "fp2@x.ph", Role: entities.RoleFarmPresident},
		},
		&entities.CropType{CropTypeID: 1, CatalogFields: entities.CatalogFields{Name: "Rice", Unit: "kg"}},
		&entities.CropType{CropTypeID: 2, CatalogFields: entities.CatalogFields{Name: "Corn", Unit: "kg"}},
		&[]entities.Project{
			{ProjectID: 1, Name: "Rice A", Status: entities.ProjectOngoing, CropTypeID: 1, CropTypeName: "Rice", CropName: "Rice",
				Barangay: "Maligaya", FarmPresidentID: 2, AreaHectares: 2, StartDate: day("2025-06-01")},
			{ProjectID: 2, Name: "Rice B", Status: entities.ProjectOngoing, CropTypeID: 1, CropTypeName: "Rice", CropName: "Rice",
				Barangay: "Poblacion", FarmPresidentID: 2, AreaHectares: 4, StartDate: day("2025-06-01")},
			{ProjectID: 3, Name: "Corn C", Status: entities.ProjectOngoing, CropTypeID: 2, CropTypeName: "Corn", CropName: "Corn",
				Barangay: "Maligaya", FarmPresidentID: 2, AreaHectares: 0, StartDate: day("2025-06-01")},
			{ProjectID: 4, Name: "Pending D", Status: entities.ProjectPending, CropTypeID: 1, FarmPresidentID: 2, StartDate: day("2025-06-01")},
		},
		&entities.Equipment{EquipmentID: 1, CatalogFields: entities.CatalogFields{Name: "Harvester", Unit: "units"}},
		&entities.ProjectResource{ProjectID: 1, Kind: entities.KindEquipment, ItemID: 1, ItemName: "Harvester", Quantity: 1, Unit: "units"},
	}
	for _, v := range seed {
		if err := db.Create(v).Error; err != nil {
			t.Fatalf("seed %T: %v", v, err)
		}
	}

	counters := counterRepoImp.New(db)
	stock := catalogRepoImp.NewStock(db)
	projectsRepo := projectRepoImp.New(db)
	projects := projectServiceImp.New(projectServiceImp.Deps{
		DB: db, Repo: projectsRepo, Teams: teamRepoImp.New(db), Users: userRepoImp.New(db),
		Catalogs: catalogRepoImp.NewCatalogs(db), Stock: stock, Counters: counters,
	})
	svc := New(Deps{DB: db, Repo: repositoryImp.New(db), Projects: projects, ProjectsRepo: projectsRepo, Stock: stock, Counters: counters})
	return svc, func(kind string, item uint) float64 {
		s, err := stock.Find(context.Background(), kind, item, 2)
		if err != nil {
			return -1
		}
		return s.Quantity
	}
}

func TestRecordHarvest(t *testing.T) {
	svc, stock := setup(t)
	ctx := context.Background()

	h, err := svc.Record(ctx, president, service.HarvestInput{ProjectID: 1, TotalKg: 9876.4, HarvestDate: "2025-10-01"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if h.HarvestID != 1 || h.CropTypeName != "Rice" || h.Barangay != "Maligaya" || h.AreaHectares != 2 {
		t.Errorf("harvest = %+v", h)
	}
	if h.MetricTons() != 9.876 || h.Productivity() != 4.94 {
		t.Errorf("tons = %v, t/ha = %v", h.MetricTons(), h.Productivity())
	}
	if got := stock(entities.KindCrop, 1); got != 9876.4 {
		t.Errorf("crop stock = %v", got)
	}
	if got := stock(entities.KindEquipment, 1); got != 1 {
		t.Errorf("equipment returned = %v, want 1", got)
	}

	if _, err := svc.Record(ctx, president, service.HarvestInput{ProjectID: 1, TotalKg: 10}); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("second harvest err = %v", err)
	}
}

func TestRecordHarvestRejections(t *testing.T) {
	svc, stock := setup(t)
	ctx := context.Background()
	cases := []struct {
		name  string
		actor session.Principal
		in    service.HarvestInput
		want  error
	}{
		{"zero weight", president, service.HarvestInput{ProjectID: 1}, apperr.ErrValidation},
		{"bad date", president, service.HarvestInput{ProjectID: 1, TotalKg: 1, HarvestDate: "soon"}, apperr.ErrValidation},
		{"before start", president, service.HarvestInput{ProjectID: 1, TotalKg: 1, HarvestDate: "2025-01-01"}, apperr.ErrValidation},
		{"pending project", president, service.HarvestInput{ProjectID: 4, TotalKg: 1, HarvestDate: "2025-10-01"}, apperr.ErrValidation},
		{"missing project", president, service.HarvestInput{ProjectID: 99, TotalKg: 1}, apperr.ErrNotFound},
		{"other president", otherFP, service.HarvestInput{ProjectID: 1, TotalKg: 1}, apperr.ErrForbidden},
	}
	for _, tc := range cases {
		if _, err := svc.Record(ctx, tc.actor, tc.in); !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
	if got := stock(entities.KindCrop, 1); got != -1 {
		t.Errorf("rejected harvests touched stock: %v", got)
	}
}

func TestListFiltersAndSummaries(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	for _, in := range []service.HarvestInput{
		{ProjectID: 1, TotalKg: 8000, HarvestDate: "2025-09-15"},
		{ProjectID: 2, TotalKg: 12000, HarvestDate: "2025-10-20"},
		{ProjectID: 3, TotalKg: 500, HarvestDate: "2025-10-21"},
	} {
		if _, err := svc.Record(ctx, supervisor, in); err != nil {
			t.Fatalf("Record %d: %v", in.ProjectID, err)
		}
	}
	p := paging.Params{Page: 1, Size: 10}

	pg, _ := svc.List(ctx, supervisor, repository.Filter{CropTypeID: 1}, p)
	if pg.Total != 2 {
		t.Errorf("rice harvests = %d", pg.Total)
	}
	oct := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	pg, _ = svc.List(ctx, supervisor, repository.Filter{From: oct, To: time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)}, p)
	if pg.Total != 1 || pg.Items[0].ProjectID != 2 {
		t.Errorf("october range = %+v", pg.Items)
	}
	pg, _ = svc.List(ctx, supervisor, repository.Filter{Barangay: "maligaya"}, p)
	if pg.Total != 2 {
		t.Errorf("barangay filter = %d", pg.Total)
	}
	if pg, _ := svc.List(ctx, otherFP, repository.Filter{}, p); pg.Total != 0 {
		t.Errorf("other president sees %d", pg.Total)
	}

	sum, err := svc.Summarize(ctx, supervisor, repository.Filter{})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.Count != 3 || sum.TotalTons != 20.5 {
		t.Errorf("summary = %+v", sum)
	}
	rice := sum.ByCrop[0]
	// Rice A: 4 t/ha, Rice B: 3 t/ha
	if rice.Key != "Rice" || rice.Count != 2 || rice.TotalTons != 20 || rice.MeanProductivity != 3.5 {
		t.Errorf("rice group = %+v", rice)
	}
	corn := sum.ByCrop[1]
	if corn.Key != "Corn" || corn.MeanProductivity != 0 {
		t.Errorf("corn group = %+v", corn)
	}
	if len(sum.ByBarangay) != 2 || sum.ByBarangay[0].Key != "Poblacion" {
		t.Errorf("by barangay = %+v", sum.ByBarangay)
	}
}
