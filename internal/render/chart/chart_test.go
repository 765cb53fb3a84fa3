package chart

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kopilka/internal/core"
	"kopilka/internal/report"
)

type namerFunc func(int64) string

func (f namerFunc) Name(id int64) string { return f(id) }

var plainNames = namerFunc(func(id int64) string { return fmt.Sprintf("cat-%d", id) })

func renderToFile(t *testing.T, res report.Result) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chart.png")
	if err := New("").RenderChart(res, path); err != nil {
		t.Fatalf("RenderChart: %v", err)
	}
	return path
}

func decodePNG(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open png: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestRenderChartSingleTable(t *testing.T) {
	txs := []core.Transaction{
		{Kind: core.KindExpense, CategoryID: 1, Amount: decimal.NewFromInt(100), EffectiveAt: time.Now()},
		{Kind: core.KindExpense, CategoryID: 2, Amount: decimal.NewFromInt(200), EffectiveAt: time.Now()},
	}
	res := report.Aggregate(txs, core.KindExpense, report.ModeByCategory, plainNames)

	w, h := decodePNG(t, renderToFile(t, res))
	if w != pageWidth {
		t.Errorf("width = %d, want %d", w, pageWidth)
	}
	if h < pageHeight {
		t.Errorf("height = %d, want at least %d", h, pageHeight)
	}
}

func TestRenderChartEmptyState(t *testing.T) {
	res := report.Aggregate(nil, core.KindExpense, report.ModeByCategory, plainNames)
	res.Start = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	res.End = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	w, h := decodePNG(t, renderToFile(t, res))
	if w != pageWidth || h != pageHeight {
		t.Errorf("empty state = %dx%d, want %dx%d", w, h, pageWidth, pageHeight)
	}
}

func TestRenderChartCapsSections(t *testing.T) {
	var txs []core.Transaction
	for i := int64(1); i <= 20; i++ {
		txs = append(txs, core.Transaction{
			Kind: core.KindExpense, CategoryID: i,
			Amount: decimal.NewFromInt(i), EffectiveAt: time.Now(),
		})
	}
	res := report.Aggregate(txs, core.KindExpense, report.ModeCategorySections, plainNames)
	if len(res.Sections) != 20 {
		t.Fatalf("got %d sections, want 20", len(res.Sections))
	}

	capped := chartTables(res)
	if len(capped) != maxSectionTables {
		t.Fatalf("chart draws %d sections, want %d", len(capped), maxSectionTables)
	}
	// Cap keeps the largest categories.
	if capped[0].Title != "cat-20" {
		t.Errorf("first drawn section = %q, want cat-20", capped[0].Title)
	}

	renderToFile(t, res)
}

func TestRenderChartMissingFont(t *testing.T) {
	res := report.Aggregate(nil, core.KindExpense, report.ModeDetail, plainNames)
	err := New("/nonexistent/font.ttf").RenderChart(res, filepath.Join(t.TempDir(), "chart.png"))
	if err == nil {
		t.Fatal("expected error for missing font")
	}
}
