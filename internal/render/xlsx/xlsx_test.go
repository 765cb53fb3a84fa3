package xlsx

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"kopilka/internal/core"
	"kopilka/internal/report"
)

func testResult(mode report.Mode) report.Result {
	txs := []core.Transaction{
		{
			ID: 1, UserID: 1, Kind: core.KindExpense, CategoryID: 1, SubcategoryID: 11,
			Amount: decimal.RequireFromString("300.00"), Currency: "RUB",
			EffectiveAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: 2, UserID: 1, Kind: core.KindExpense, CategoryID: 2,
			Amount: decimal.RequireFromString("450.50"), Currency: "RUB", Comment: "бензин",
			EffectiveAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		},
	}
	names := map[int64]string{1: "Пасека", 2: "Транспорт", 11: "Вощина"}
	res := report.Aggregate(txs, core.KindExpense, mode, namerFunc(func(id int64) string { return names[id] }))
	res.Start = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	res.End = time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	return res
}

type namerFunc func(int64) string

func (f namerFunc) Name(id int64) string { return f(id) }

func render(t *testing.T, mode report.Mode) *excelize.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.xlsx")
	ref, err := New().RenderWorkbook(context.Background(), testResult(mode), path)
	if err != nil {
		t.Fatalf("RenderWorkbook: %v", err)
	}
	if ref != path {
		t.Errorf("ref = %q, want %q", ref, path)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open rendered workbook: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWorkbookHasCoreSheets(t *testing.T) {
	f := render(t, report.ModeByCategory)

	sheets := f.GetSheetList()
	for _, want := range []string{"data", "summary", "meta", "aggregate_by_category"} {
		found := false
		for _, s := range sheets {
			if s == want {
				found = true
			}
		}
		if !found {
			t.Errorf("sheet %q missing, have %v", want, sheets)
		}
	}
	for _, s := range sheets {
		if s == "Sheet1" {
			t.Error("default sheet not removed")
		}
	}
}

func TestDataSheetRows(t *testing.T) {
	f := render(t, report.ModeDetail)

	rows, err := f.GetRows("data")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("data sheet has %d rows, want header + 2", len(rows))
	}
	if rows[1][1] != "2026-03-01" {
		t.Errorf("first data row date = %q", rows[1][1])
	}
	if rows[2][4] != "бензин" {
		t.Errorf("second data row comment = %q", rows[2][4])
	}

	sheets := f.GetSheetList()
	for _, s := range sheets {
		if strings.HasPrefix(s, "aggregate_") {
			t.Errorf("detail mode produced aggregate sheet %q", s)
		}
	}
}

func TestSummarySheetValues(t *testing.T) {
	f := render(t, report.ModeOverall)

	rows, err := f.GetRows("summary")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if rows[0][0] != "kind" || rows[0][1] != "expense" {
		t.Errorf("kind row = %v", rows[0])
	}
	if rows[1][0] != "total" || rows[1][1] != "750.5" {
		t.Errorf("total row = %v", rows[1])
	}
	if rows[2][0] != "count" || rows[2][1] != "2" {
		t.Errorf("count row = %v", rows[2])
	}
}

func TestSectionsModeOneSheetPerCategory(t *testing.T) {
	f := render(t, report.ModeCategorySections)

	for _, want := range []string{"Транспорт", "Пасека"} {
		idx, err := f.GetSheetIndex(want)
		if err != nil || idx < 0 {
			t.Errorf("section sheet %q missing", want)
		}
	}
}
