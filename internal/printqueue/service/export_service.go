package service

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/entity"
	"github.com/Aceless34/PrintingQueue/internal/printqueue/repository"
)

var rollExportHeaders = []string{
	"ID", "Label", "Color", "Manufacturer", "Material", "Hex",
	"Total (g)", "Remaining (g)", "Spool (g)", "Weight (g)", "Price",
	"Purchased", "Opened", "Last dried", "Needs drying",
}

// ExportService renders inventory workbooks
type ExportService struct {
	repos *repository.Repositories
	now   func() time.Time
}

func NewExportService(repos *repository.Repositories) *ExportService {
	return &ExportService{repos: repos, now: time.Now}
}

// ExportRolls writes every roll to one sheet with a summary row
func (s *ExportService) ExportRolls(ctx context.Context) (*excelize.File, string, error) {
	rolls, err := s.repos.Roll.List(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("list rolls: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Rolls"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, "", fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range rollExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, roll := range rolls {
		row := i + 2
		values := []interface{}{
			roll.ID, deref(roll.Label), roll.ColorName, deref(roll.ColorManufacturer),
			deref(roll.MaterialType), deref(roll.HexColor),
			roll.GramsTotal, roll.GramsRemaining,
			optional(roll.SpoolWeightGrams), optional(roll.WeightCurrentGrams), optional(roll.PurchasePrice),
			formatDate(roll.PurchasedAt), formatDate(roll.OpenedAt), formatDate(roll.LastDriedAt),
			lo.Ternary(roll.NeedsDrying, "yes", "no"),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	summaryRow := len(rolls) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("C%d", summaryRow), fmt.Sprintf("Rolls: %d", len(rolls)))
	f.SetCellValue(sheet, fmt.Sprintf("G%d", summaryRow), lo.SumBy(rolls, func(r entity.RollView) float64 { return r.GramsTotal }))
	f.SetCellValue(sheet, fmt.Sprintf("H%d", summaryRow), lo.SumBy(rolls, func(r entity.RollView) float64 { return r.GramsRemaining }))
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("O%d", summaryRow), summaryStyle)

	colWidths := []float64{6, 18, 20, 18, 12, 9, 10, 13, 10, 10, 9, 12, 12, 12, 12}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("filament_rolls_%s.xlsx", s.now().Format("20060102"))
	return f, filename, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(f *float64) interface{} {
	if f == nil {
		return ""
	}
	return *f
}

func formatDate(d *datatypes.Date) string {
	if d == nil {
		return ""
	}
	return time.Time(*d).Format("2006-01-02")
}
