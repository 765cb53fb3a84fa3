package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"kopilka/internal/core"
	applog "kopilka/internal/log"
)

var (
	ErrWindowTooWide = errors.New("report window exceeds the allowed lookback")
	ErrSectionsKind  = errors.New("category sections are available for expenses only")
	ErrInvalidMode   = errors.New("invalid report mode")
)

// DefaultWindowDays is the report lookback used when the request does not
// name one.
const DefaultWindowDays = 30

// TransactionLister is the slice of the repository the report engine needs.
type TransactionLister interface {
	List(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error)
}

// WorkbookRenderer writes a report workbook. The returned ref is what gets
// handed to the user: a local file path for the xlsx backend, a spreadsheet
// URL for the gsheet backend.
type WorkbookRenderer interface {
	RenderWorkbook(ctx context.Context, res Result, path string) (string, error)
}

// ChartRenderer writes the report's table image as a PNG.
type ChartRenderer interface {
	RenderChart(res Result, path string) error
}

// Request describes one report to generate.
type Request struct {
	UserID int64
	Kind   core.Kind
	Mode   Mode
	Days   int

	CategoryIDs    []int64
	SubcategoryIDs []int64
	AmountMin      *decimal.Decimal
	AmountMax      *decimal.Decimal
	CommentQuery   string
}

// Artifacts references the rendered outputs. ChartPath is always a local
// PNG; WorkbookRef depends on the backend.
type Artifacts struct {
	WorkbookRef string
	ChartPath   string
	Result      Result
}

// Service fetches, aggregates and renders reports.
type Service struct {
	repo     TransactionLister
	names    CategoryNamer
	workbook WorkbookRenderer
	chart    ChartRenderer

	exportDir string
	maxDays   int
	maxRows   int
}

func NewService(repo TransactionLister, names CategoryNamer, workbook WorkbookRenderer, chart ChartRenderer, exportDir string, maxDays, maxRows int) *Service {
	return &Service{
		repo:      repo,
		names:     names,
		workbook:  workbook,
		chart:     chart,
		exportDir: exportDir,
		maxDays:   maxDays,
		maxRows:   maxRows,
	}
}

// Generate runs the full pipeline for one request. The workbook and the
// chart render concurrently; if either fails no artifacts are returned and
// any half-written files are removed.
func (s *Service) Generate(ctx context.Context, req Request) (Artifacts, error) {
	if !req.Mode.Valid() {
		return Artifacts{}, ErrInvalidMode
	}
	if req.Mode == ModeCategorySections && req.Kind != core.KindExpense {
		return Artifacts{}, ErrSectionsKind
	}
	if !req.Kind.Valid() {
		return Artifacts{}, core.ErrUnknownKind
	}

	days := req.Days
	if days <= 0 {
		days = DefaultWindowDays
	}
	if days > s.maxDays {
		return Artifacts{}, fmt.Errorf("%w: %d days requested, %d allowed", ErrWindowTooWide, days, s.maxDays)
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	txs, err := s.repo.List(ctx, core.TransactionFilter{
		UserID:         req.UserID,
		Kind:           req.Kind,
		Start:          start,
		End:            end,
		CategoryIDs:    req.CategoryIDs,
		SubcategoryIDs: req.SubcategoryIDs,
		AmountMin:      req.AmountMin,
		AmountMax:      req.AmountMax,
		CommentQuery:   req.CommentQuery,
		Limit:          s.maxRows,
	})
	if err != nil {
		return Artifacts{}, fmt.Errorf("fetch transactions: %w", err)
	}

	res := Aggregate(txs, req.Kind, req.Mode, s.names)
	res.Start = start
	res.End = end

	if err := os.MkdirAll(s.exportDir, 0755); err != nil {
		return Artifacts{}, fmt.Errorf("create export directory: %w", err)
	}

	base := fmt.Sprintf("report_%s_%d_%s", req.Kind, req.UserID, uuid.NewString())
	workbookPath := filepath.Join(s.exportDir, base+".xlsx")
	chartPath := filepath.Join(s.exportDir, base+".png")

	var workbookRef string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ref, err := s.workbook.RenderWorkbook(gctx, res, workbookPath)
		if err != nil {
			return fmt.Errorf("render workbook: %w", err)
		}
		workbookRef = ref
		return nil
	})
	g.Go(func() error {
		if err := s.chart.RenderChart(res, chartPath); err != nil {
			return fmt.Errorf("render chart: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		os.Remove(workbookPath)
		os.Remove(chartPath)
		return Artifacts{}, err
	}

	slog.InfoContext(ctx, "Report generated",
		applog.FieldComponent, applog.ComponentReport,
		applog.FieldOperation, applog.OpRender,
		applog.FieldUserID, req.UserID,
		applog.FieldKind, req.Kind,
		applog.FieldMode, req.Mode.String(),
		applog.FieldDays, days,
		applog.FieldCount, len(txs),
		"workbook", workbookRef,
		"chart", chartPath)

	return Artifacts{WorkbookRef: workbookRef, ChartPath: chartPath, Result: res}, nil
}
