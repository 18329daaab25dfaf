package serviceImp

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	catalogrepo "farmportal/pkg/catalog/repository"
	counterrepo "farmportal/pkg/counter/repository"
	"farmportal/pkg/dates"
	"farmportal/pkg/harvest/repository"
	"farmportal/pkg/harvest/service"
	"farmportal/pkg/logger"
	"farmportal/pkg/paging"
	projectrepo "farmportal/pkg/project/repository"
	projectService "farmportal/pkg/project/service"
	"farmportal/pkg/session"
)

type Deps struct {
	DB           *gorm.DB
	Repo         repository.HarvestRepository
	Projects     projectService.ProjectService
	ProjectsRepo projectrepo.ProjectRepository
	Stock        catalogrepo.StockRepository
	Counters     counterrepo.CounterRepository
	Location     *time.Location
	Log          *zap.Logger
}

type harvestSvc struct {
	Deps
	now func() time.Time
}

func New(d Deps) service.HarvestService {
	d.Log = logger.OrNop(d.Log)
	if d.Location == nil {
		d.Location = time.UTC
	}
	return &harvestSvc{Deps: d, now: time.Now}
}

func (s *harvestSvc) scope(actor session.Principal, f repository.Filter) (repository.Filter, error) {
	switch {
	case actor.Oversees():
	case actor.Is(entities.RoleFarmPresident):
		f.FarmPresidentID = actor.UserID
	default:
		return f, fmt.Errorf("no harvest access: %w", apperr.ErrForbidden)
	}
	return f, nil
}

func (s *harvestSvc) Record(ctx context.Context, actor session.Principal, in service.HarvestInput) (*entities.Harvest, error) {
	if in.TotalKg <= 0 {
		return nil, apperr.Invalid("harvest weight must be positive")
	}
	day := s.now().In(s.Location)
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	if strings.TrimSpace(in.HarvestDate) != "" {
		d, ok := dates.Parse(in.HarvestDate)
		if !ok {
			return nil, apperr.Invalid("harvest date %q is not a valid date", in.HarvestDate)
		}
		day = d
	}

	h := &entities.Harvest{TotalKg: in.TotalKg, HarvestDate: day, Notes: strings.TrimSpace(in.Notes), RecordedBy: actor.UserID}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.ProjectsRepo.WithTx(tx).FindByID(ctx, in.ProjectID)
		if err != nil {
			return err
		}
		if !actor.Oversees() && !(actor.Is(entities.RoleFarmPresident) && p.FarmPresidentID == actor.UserID) {
			return fmt.Errorf("not allowed to record this harvest: %w", apperr.ErrForbidden)
		}
		repo := s.Repo.WithTx(tx)
		exists, err := repo.ExistsForProject(ctx, p.ProjectID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("project %q already has a harvest", p.Name)
		}
		if day.Before(p.StartDate) {
			return apperr.Invalid("harvest date is before the project started")
		}
		if p, err = s.Projects.Complete(ctx, tx, p.ProjectID, day); err != nil {
			return err
		}

		id, err := s.Counters.WithTx(tx).Next(ctx, counterrepo.Harvests)
		if err != nil {
			return err
		}
		h.HarvestID = id
		h.ProjectID = p.ProjectID
		h.ProjectName = p.Name
		h.CropTypeID = p.CropTypeID
		h.CropTypeName = p.CropTypeName
		h.CropName = p.CropName
		h.Barangay = p.Barangay
		h.FarmPresidentID = p.FarmPresidentID
		h.AreaHectares = p.AreaHectares
		if err := repo.Create(ctx, h); err != nil {
			return err
		}
		_, err = s.Stock.WithTx(tx).Adjust(ctx, entities.KindCrop, p.CropTypeID, p.FarmPresidentID,
			p.CropTypeName, entities.DefaultUnit(entities.KindCrop), h.TotalKg)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info("harvest recorded",
		zap.Uint("harvest_id", h.HarvestID),
		zap.Uint("project_id", h.ProjectID),
		zap.Float64("kg", h.TotalKg),
		zap.Uint("by", actor.UserID))
	return h, nil
}

func (s *harvestSvc) Get(ctx context.Context, actor session.Principal, id uint) (*entities.Harvest, error) {
	h, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Oversees() && h.FarmPresidentID != actor.UserID {
		return nil, fmt.Errorf("not allowed to view this harvest: %w", apperr.ErrForbidden)
	}
	return h, nil
}

func (s *harvestSvc) List(ctx context.Context, actor session.Principal, f repository.Filter, p paging.Params) (paging.Page[entities.Harvest], error) {
	f, err := s.scope(actor, f)
	if err != nil {
		return paging.Page[entities.Harvest]{}, err
	}
	rows, total, err := s.Repo.List(ctx, f, p)
	if err != nil {
		return paging.Page[entities.Harvest]{}, err
	}
	return paging.New(rows, p, total), nil
}

func (s *harvestSvc) All(ctx context.Context, actor session.Principal, f repository.Filter) ([]entities.Harvest, error) {
	f, err := s.scope(actor, f)
	if err != nil {
		return nil, err
	}
	return s.Repo.All(ctx, f)
}

func (s *harvestSvc) Summarize(ctx context.Context, actor session.Principal, f repository.Filter) (*service.Summary, error) {
	rows, err := s.All(ctx, actor, f)
	if err != nil {
		return nil, err
	}
	sum := summarize(rows)
	return &sum, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

type acc struct {
	count     int
	tons      float64
	hectares  float64
	prodSum   float64
	prodCount int
}

func (a *acc) add(h entities.Harvest) {
	a.count++
	a.tons += h.MetricTons()
	a.hectares += h.AreaHectares
	if h.AreaHectares > 0 {
		a.prodSum += h.Productivity()
		a.prodCount++
	}
}

func (a *acc) group(key string) service.Group {
	g := service.Group{Key: key, Count: a.count, TotalTons: round(a.tons, 3), TotalHectares: round(a.hectares, 2)}
	if a.prodCount > 0 {
		g.MeanProductivity = round(a.prodSum/float64(a.prodCount), 2)
	}
	return g
}

func groups(m map[string]*acc) []service.Group {
	out := make([]service.Group, 0, len(m))
	for k, a := range m {
		out = append(out, a.group(k))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalTons != out[j].TotalTons {
			return out[i].TotalTons > out[j].TotalTons
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// summarize groups harvests by crop type and by barangay. Mean
// productivity only counts harvests with a known area.
func summarize(rows []entities.Harvest) service.Summary {
	byCrop := map[string]*acc{}
	byBarangay := map[string]*acc{}
	var total acc
	for _, h := range rows {
		total.add(h)
		crop := h.CropTypeName
		if crop == "" {
			crop = "Unspecified"
		}
		brgy := h.Barangay
		if brgy == "" {
			brgy = "Unspecified"
		}
		if byCrop[crop] == nil {
			byCrop[crop] = &acc{}
		}
		if byBarangay[brgy] == nil {
			byBarangay[brgy] = &acc{}
		}
		byCrop[crop].add(h)
		byBarangay[brgy].add(h)
	}
	return service.Summary{
		Count:      total.count,
		TotalTons:  round(total.tons, 3),
		ByCrop:     groups(byCrop),
		ByBarangay: groups(byBarangay),
	}
}
