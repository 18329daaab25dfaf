package serviceImp

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"farmportal/pkg/dates"
	harvestRepo "farmportal/pkg/harvest/repository"
	harvestService "farmportal/pkg/harvest/service"
	"farmportal/pkg/report/service"
	"farmportal/pkg/session"
)

// sheet writes a bold header row and the rows below it, starting at A1.
func sheet(x *excelize.File, name string, header []any, rows [][]any) error {
	if idx, _ := x.GetSheetIndex(name); idx == -1 {
		if _, err := x.NewSheet(name); err != nil {
			return err
		}
	}
	if err := x.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := x.SetSheetRow(name, cell, &r); err != nil {
			return err
		}
	}
	bold, err := x.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DCE8D2"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := x.SetCellStyle(name, "A1", last+"1", bold); err != nil {
		return err
	}
	if err := x.SetColWidth(name, "A", last, 16); err != nil {
		return err
	}
	return x.SetPanes(name, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func workbook(first string) (*excelize.File, error) {
	x := excelize.NewFile()
	if err := x.SetSheetName("Sheet1", first); err != nil {
		x.Close()
		return nil, err
	}
	return x, nil
}

func xlsxBytes(x *excelize.File) ([]byte, error) {
	buf, err := x.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func groupSheetRows(gs []harvestService.Group) [][]any {
	out := make([][]any, 0, len(gs))
	for _, g := range gs {
		out = append(out, []any{g.Key, g.Count, g.TotalTons, g.TotalHectares, g.MeanProductivity})
	}
	return out
}

func (s *reportService) HarvestXLSX(ctx context.Context, actor session.Principal, f harvestRepo.Filter) (*service.File, error) {
	rows, err := s.Harvests.All(ctx, actor, f)
	if err != nil {
		return nil, err
	}
	sum, err := s.Harvests.Summarize(ctx, actor, f)
	if err != nil {
		return nil, err
	}
	x, err := workbook("Harvests")
	if err != nil {
		return nil, err
	}
	defer x.Close()

	data := make([][]any, 0, len(rows))
	for _, h := range rows {
		data = append(data, []any{
			h.HarvestID, h.ProjectID, h.ProjectName, h.CropTypeName, h.CropName, h.Barangay,
			dates.Format(h.HarvestDate), h.TotalKg, h.MetricTons(), h.AreaHectares, h.Productivity(), h.Notes,
		})
	}
	header := []any{"Harvest ID", "Project ID", "Project", "Crop type", "Crop", "Barangay", "Date", "Total kg", "Metric tons", "Hectares", "t/ha", "Notes"}
	if err := sheet(x, "Harvests", header, data); err != nil {
		return nil, err
	}
	groupHeader := func(label string) []any { return []any{label, "Harvests", "Tons", "Hectares", "Mean t/ha"} }
	if err := sheet(x, "By crop", groupHeader("Crop"), groupSheetRows(sum.ByCrop)); err != nil {
		return nil, err
	}
	if err := sheet(x, "By barangay", groupHeader("Barangay"), groupSheetRows(sum.ByBarangay)); err != nil {
		return nil, err
	}
	out, err := xlsxBytes(x)
	if err != nil {
		return nil, err
	}
	return &service.File{Name: fileName("harvests", "xlsx", s.now()), Mime: service.MimeXLSX, Data: out}, nil
}

func (s *reportService) StockXLSX(ctx context.Context, actor session.Principal, scope service.StockScope) (*service.File, error) {
	rows, err := s.stockRows(ctx, actor, scope)
	if err != nil {
		return nil, err
	}
	names := s.ownerNames(ctx, rows)
	x, err := workbook("Stock")
	if err != nil {
		return nil, err
	}
	defer x.Close()

	data := make([][]any, 0, len(rows))
	for _, r := range rows {
		data = append(data, []any{r.OwnerID, names[r.OwnerID], r.Kind, r.ItemID, r.ItemName, r.Quantity, r.Unit, dates.Format(r.UpdatedAt)})
	}
	header := []any{"Owner ID", "Owner", "Kind", "Item ID", "Item", "Quantity", "Unit", "Updated"}
	if err := sheet(x, "Stock", header, data); err != nil {
		return nil, err
	}
	out, err := xlsxBytes(x)
	if err != nil {
		return nil, err
	}
	return &service.File{Name: fileName("stock", "xlsx", s.now()), Mime: service.MimeXLSX, Data: out}, nil
}
