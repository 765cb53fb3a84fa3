// Package xlsx renders report workbooks as local .xlsx files.
package xlsx

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"kopilka/internal/core"
	"kopilka/internal/report"
)

// Renderer writes a workbook with a raw-data sheet, a summary sheet, a meta
// sheet, and one aggregate sheet per table in the report result.
type Renderer struct{}

func New() *Renderer {
	return &Renderer{}
}

func (r *Renderer) RenderWorkbook(_ context.Context, res report.Result, path string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeDataSheet(f, res.Transactions); err != nil {
		return "", err
	}
	if err := writeSummarySheet(f, res.Summary); err != nil {
		return "", err
	}
	if err := writeMetaSheet(f, res); err != nil {
		return "", err
	}
	for _, t := range aggregateSheets(res) {
		if err := writeTable(f, t.name, t.table); err != nil {
			return "", err
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("drop default sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

type namedTable struct {
	name  string
	table report.Table
}

// aggregateSheets returns the extra sheets the mode calls for. Detail mode
// adds none; its rows are already the data sheet.
func aggregateSheets(res report.Result) []namedTable {
	switch res.Mode {
	case report.ModeDetail:
		return nil
	case report.ModeCategorySections:
		out := make([]namedTable, 0, len(res.Sections))
		for _, s := range res.Sections {
			out = append(out, namedTable{report.TruncateSheetName(s.Title), s})
		}
		return out
	default:
		return []namedTable{{report.TruncateSheetName("aggregate_" + res.Mode.String()), res.Table}}
	}
}

func writeDataSheet(f *excelize.File, txs []core.Transaction) error {
	const sheet = "data"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	header := []any{"id", "date", "category_id", "subcategory_id", "comment", "amount", "currency"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, tx := range txs {
		var sub any
		if tx.HasSubcategory() {
			sub = tx.SubcategoryID
		}
		row := []any{
			tx.ID,
			tx.EffectiveAt.Format("2006-01-02"),
			tx.CategoryID,
			sub,
			tx.Comment,
			tx.Amount.InexactFloat64(),
			tx.Currency,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write data row %d: %w", i+2, err)
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, s report.Summary) error {
	const sheet = "summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	rows := [][]any{
		{"kind", string(s.Kind)},
		{"total", s.Total.InexactFloat64()},
		{"count", s.Count},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	return nil
}

func writeMetaSheet(f *excelize.File, res report.Result) error {
	const sheet = "meta"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	rows := [][]any{
		{"generated_at", res.GeneratedAt.Format(time.RFC3339)},
		{"kind", string(res.Kind)},
		{"mode", res.Mode.String()},
		{"period_start", res.Start.Format("2006-01-02")},
		{"period_end", res.End.Format("2006-01-02")},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write meta row: %w", err)
		}
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, t report.Table) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header for %s: %w", sheet, err)
	}
	for i, row := range t.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("write row %d for %s: %w", i+2, sheet, err)
		}
	}
	return nil
}
