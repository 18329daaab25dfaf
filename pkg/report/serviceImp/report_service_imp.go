package serviceImp

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"farmportal/entities"
	"farmportal/pkg/apperr"
	catalogService "farmportal/pkg/catalog/service"
	"farmportal/pkg/dates"
	harvestRepo "farmportal/pkg/harvest/repository"
	harvestService "farmportal/pkg/harvest/service"
	"farmportal/pkg/logger"
	projectService "farmportal/pkg/project/service"
	"farmportal/pkg/report/service"
	"farmportal/pkg/session"
	userRepo "farmportal/pkg/user/repository"
)

type Deps struct {
	Projects projectService.ProjectService
	Harvests harvestService.HarvestService
	Stock    catalogService.StockService
	Users    userRepo.UserRepository
	Location *time.Location
	Now      func() time.Time
	Log      *zap.Logger
}

type reportService struct {
	Deps
}

func New(d Deps) service.ReportService {
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	d.Log = logger.OrNop(d.Log)
	return &reportService{Deps: d}
}

func (s *reportService) now() time.Time { return s.Now().In(s.Location) }

func fileName(prefix, ext string, at time.Time) string {
	return fmt.Sprintf("%s-%s.%s", prefix, at.Format(dates.Layout), ext)
}

func num(v float64, places int) string { return strconv.FormatFloat(v, 'f', places, 64) }

func (s *reportService) ProjectPDF(ctx context.Context, actor session.Principal, id uint) (*service.File, error) {
	p, err := s.Projects.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	at := s.now()
	d := newDoc("Project report: "+p.Name, fmt.Sprintf("Project #%d", p.ProjectID), at)

	d.heading("Details")
	crop := p.CropTypeName
	if p.CropName != "" {
		crop += " (" + p.CropName + ")"
	}
	team := p.TeamName
	if team == "" {
		team = "Unassigned"
	}
	d.kv("Status", title(p.Status))
	d.kv("Crop", crop)
	d.kv("Barangay", p.Barangay)
	d.kv("Farm president", p.FarmPresidentName)
	d.kv("Team", team)
	d.kv("Area", num(p.AreaHectares, 2)+" ha")
	d.kv("Schedule", dates.Long(p.StartDate)+" to "+dates.Long(p.EndDate))
	if p.CompletedAt != nil {
		d.kv("Completed", dates.Long(*p.CompletedAt))
	}
	d.kv("Progress", num(p.Progress(), 1)+"%")

	d.heading("Tasks")
	var tasks [][]string
	for _, t := range p.Tasks {
		done := 0
		for _, st := range t.Subtasks {
			if st.Done {
				done++
			}
		}
		sub := "-"
		if len(t.Subtasks) > 0 {
			sub = fmt.Sprintf("%d/%d", done, len(t.Subtasks))
		}
		tasks = append(tasks, []string{t.Title, title(t.Status), dates.Format(t.Deadline), sub})
	}
	d.table([]column{{"Task", 85, ""}, {"Status", 30, "C"}, {"Deadline", 35, "C"}, {"Subtasks", 30, "C"}}, tasks)

	d.heading("Resources")
	var res [][]string
	for _, r := range p.Resources {
		state := "Consumed"
		if r.Kind == entities.KindEquipment {
			state = "In use"
			if r.Returned {
				state = "Returned"
			}
		}
		res = append(res, []string{title(r.Kind), r.ItemName, num(r.Quantity, 2) + " " + r.Unit, state})
	}
	d.table([]column{{"Kind", 35, ""}, {"Item", 75, ""}, {"Quantity", 40, "R"}, {"State", 30, "C"}}, res)

	d.heading("Attendance")
	type tally struct {
		name            string
		present, absent int
	}
	byFarmer := map[uint]*tally{}
	var order []uint
	for _, a := range p.Attendance {
		t, ok := byFarmer[a.FarmerID]
		if !ok {
			t = &tally{name: a.FarmerName}
			byFarmer[a.FarmerID] = t
			order = append(order, a.FarmerID)
		}
		if a.Present {
			t.present++
		} else {
			t.absent++
		}
	}
	sort.Slice(order, func(i, j int) bool { return byFarmer[order[i]].name < byFarmer[order[j]].name })
	var att [][]string
	var present, absent int
	for _, id := range order {
		t := byFarmer[id]
		present += t.present
		absent += t.absent
		att = append(att, []string{t.name, strconv.Itoa(t.present), strconv.Itoa(t.absent)})
	}
	d.table([]column{{"Farmer", 100, ""}, {"Present", 40, "R"}, {"Absent", 40, "R"}}, att)
	if len(att) > 0 {
		d.note(fmt.Sprintf("Totals: %d present, %d absent.", present, absent))
	}

	data, err := d.bytes()
	if err != nil {
		return nil, err
	}
	return &service.File{Name: fileName(fmt.Sprintf("project-%d", p.ProjectID), "pdf", at), Mime: service.MimePDF, Data: data}, nil
}

func describeFilter(f harvestRepo.Filter) string {
	var parts []string
	if f.Barangay != "" {
		parts = append(parts, "barangay "+f.Barangay)
	}
	if f.CropTypeID != 0 {
		parts = append(parts, fmt.Sprintf("crop type #%d", f.CropTypeID))
	}
	if !f.From.IsZero() {
		parts = append(parts, "from "+dates.Long(f.From))
	}
	if !f.To.IsZero() {
		parts = append(parts, "to "+dates.Long(f.To))
	}
	if f.Query != "" {
		parts = append(parts, fmt.Sprintf("matching %q", f.Query))
	}
	if len(parts) == 0 {
		return "All harvests"
	}
	return "Filtered by " + strings.Join(parts, ", ")
}

func groupRows(gs []harvestService.Group) [][]string {
	out := make([][]string, 0, len(gs))
	for _, g := range gs {
		out = append(out, []string{g.Key, strconv.Itoa(g.Count), num(g.TotalTons, 3), num(g.TotalHectares, 2), num(g.MeanProductivity, 2)})
	}
	return out
}

func (s *reportService) HarvestPDF(ctx context.Context, actor session.Principal, f harvestRepo.Filter) (*service.File, error) {
	rows, err := s.Harvests.All(ctx, actor, f)
	if err != nil {
		return nil, err
	}
	sum, err := s.Harvests.Summarize(ctx, actor, f)
	if err != nil {
		return nil, err
	}
	at := s.now()
	d := newDoc("Harvest report", describeFilter(f), at)

	d.heading("Totals")
	d.kv("Harvests", strconv.Itoa(sum.Count))
	d.kv("Total", num(sum.TotalTons, 3)+" t")

	groupCols := func(label string) []column {
		return []column{{label, 60, ""}, {"Harvests", 25, "R"}, {"Tons", 30, "R"}, {"Hectares", 30, "R"}, {"Mean t/ha", 35, "R"}}
	}
	d.heading("By crop")
	d.table(groupCols("Crop"), groupRows(sum.ByCrop))
	d.heading("By barangay")
	d.table(groupCols("Barangay"), groupRows(sum.ByBarangay))

	d.heading("Harvests")
	var list [][]string
	for _, h := range rows {
		list = append(list, []string{
			strconv.FormatUint(uint64(h.HarvestID), 10), h.ProjectName, h.CropTypeName, h.Barangay,
			dates.Format(h.HarvestDate), num(h.MetricTons(), 3), num(h.Productivity(), 2),
		})
	}
	d.table([]column{{"ID", 12, "R"}, {"Project", 45, ""}, {"Crop", 28, ""}, {"Barangay", 30, ""}, {"Date", 24, "C"}, {"Tons", 20, "R"}, {"t/ha", 21, "R"}}, list)

	data, err := d.bytes()
	if err != nil {
		return nil, err
	}
	return &service.File{Name: fileName("harvest-report", "pdf", at), Mime: service.MimePDF, Data: data}, nil
}

// stockRows resolves the scope against the caller: farm presidents only
// ever see their own stock.
func (s *reportService) stockRows(ctx context.Context, actor session.Principal, scope service.StockScope) ([]entities.Stock, error) {
	switch {
	case actor.Is(entities.RoleFarmPresident):
		scope.OwnerID = actor.UserID
	case actor.Oversees():
	default:
		return nil, fmt.Errorf("stock reports are for farm presidents and overseers: %w", apperr.ErrForbidden)
	}
	all, err := s.Stock.All(ctx, scope.Kind)
	if err != nil {
		return nil, err
	}
	if scope.OwnerID == 0 {
		return all, nil
	}
	out := make([]entities.Stock, 0, len(all))
	for _, st := range all {
		if st.OwnerID == scope.OwnerID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (s *reportService) ownerNames(ctx context.Context, rows []entities.Stock) map[uint]string {
	seen := map[uint]bool{}
	var ids []uint
	for _, r := range rows {
		if !seen[r.OwnerID] {
			seen[r.OwnerID] = true
			ids = append(ids, r.OwnerID)
		}
	}
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names
	}
	users, err := s.Users.FindByIDs(ctx, ids)
	if err != nil {
		s.Log.Warn("resolve stock owners", zap.Error(err))
	}
	for _, u := range users {
		names[u.UserID] = u.FullName()
	}
	for _, id := range ids {
		if names[id] == "" {
			names[id] = fmt.Sprintf("Owner #%d", id)
		}
	}
	return names
}

func (s *reportService) InventoryPDF(ctx context.Context, actor session.Principal, scope service.StockScope) (*service.File, error) {
	rows, err := s.stockRows(ctx, actor, scope)
	if err != nil {
		return nil, err
	}
	names := s.ownerNames(ctx, rows)
	byOwner := map[uint][]entities.Stock{}
	var owners []uint
	for _, r := range rows {
		if _, ok := byOwner[r.OwnerID]; !ok {
			owners = append(owners, r.OwnerID)
		}
		byOwner[r.OwnerID] = append(byOwner[r.OwnerID], r)
	}
	sort.Slice(owners, func(i, j int) bool { return names[owners[i]] < names[owners[j]] })

	at := s.now()
	sub := "All kinds"
	if scope.Kind != "" {
		sub = "Kind: " + scope.Kind
	}
	d := newDoc("Inventory report", sub, at)
	if len(owners) == 0 {
		d.note("No stock on hand.")
	}
	for _, o := range owners {
		d.heading(names[o])
		var out [][]string
		for _, r := range byOwner[o] {
			out = append(out, []string{title(r.Kind), r.ItemName, num(r.Quantity, 2), r.Unit, dates.Format(r.UpdatedAt)})
		}
		d.table([]column{{"Kind", 30, ""}, {"Item", 70, ""}, {"Quantity", 30, "R"}, {"Unit", 25, ""}, {"Updated", 25, "C"}}, out)
	}

	data, err := d.bytes()
	if err != nil {
		return nil, err
	}
	return &service.File{Name: fileName("inventory-report", "pdf", at), Mime: service.MimePDF, Data: data}, nil
}
