// Package gsheet renders report workbooks into a Google spreadsheet instead
// of a local file. The chart stays local; only the workbook backend is
// swappable.
package gsheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"kopilka/internal/core"
	applog "kopilka/internal/log"
	"kopilka/internal/report"
)

type Renderer struct {
	svc           *sheets.Service
	spreadsheetID string
}

// New creates a renderer using Service Account credentials. Credentials come
// from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID string) (*Renderer, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}

	credentialsJSON, err := loadCredentials()
	if err != nil {
		return nil, err
	}

	svc, err := sheets.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Renderer{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func loadCredentials() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// RenderWorkbook writes the same named sheets the xlsx backend produces and
// returns the spreadsheet URL as the artifact ref. The local path argument
// is unused by this backend.
func (r *Renderer) RenderWorkbook(ctx context.Context, res report.Result, _ string) (string, error) {
	if r.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheetValues := map[string][][]any{
		"data":    dataValues(res.Transactions),
		"summary": summaryValues(res.Summary),
		"meta":    metaValues(res),
	}
	switch res.Mode {
	case report.ModeDetail:
	case report.ModeCategorySections:
		for _, s := range res.Sections {
			sheetValues[report.TruncateSheetName(s.Title)] = tableValues(s)
		}
	default:
		sheetValues[report.TruncateSheetName("aggregate_"+res.Mode.String())] = tableValues(res.Table)
	}

	for name, values := range sheetValues {
		if err := r.ensureSheet(ctx, name); err != nil {
			return "", err
		}
		if err := r.writeSheet(ctx, name, values); err != nil {
			return "", err
		}
	}

	url := fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s", r.spreadsheetID)
	slog.InfoContext(ctx, "Report written to Google spreadsheet",
		applog.FieldComponent, applog.ComponentRender,
		applog.FieldOperation, applog.OpRender,
		"spreadsheet_id", r.spreadsheetID,
		applog.FieldCount, len(sheetValues))
	return url, nil
}

func (r *Renderer) ensureSheet(ctx context.Context, name string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: name},
			},
		}},
	}
	_, err := r.svc.Spreadsheets.BatchUpdate(r.spreadsheetID, req).Context(ctx).Do()
	if err != nil && strings.Contains(err.Error(), "already exists") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("add sheet %s: %w", name, err)
	}
	return nil
}

func (r *Renderer) writeSheet(ctx context.Context, name string, values [][]any) error {
	rng := fmt.Sprintf("%s!A1:Z", name)
	if _, err := r.svc.Spreadsheets.Values.Clear(r.spreadsheetID, rng, &sheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", name, err)
	}

	vr := &sheets.ValueRange{Values: values}
	if _, err := r.svc.Spreadsheets.Values.Update(r.spreadsheetID, name+"!A1", vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write sheet %s: %w", name, err)
	}
	return nil
}

func dataValues(txs []core.Transaction) [][]any {
	values := [][]any{{"id", "date", "category_id", "subcategory_id", "comment", "amount", "currency"}}
	for _, tx := range txs {
		var sub any
		if tx.HasSubcategory() {
			sub = tx.SubcategoryID
		}
		values = append(values, []any{
			tx.ID,
			tx.EffectiveAt.Format("2006-01-02"),
			tx.CategoryID,
			sub,
			tx.Comment,
			tx.Amount.InexactFloat64(),
			tx.Currency,
		})
	}
	return values
}

func summaryValues(s report.Summary) [][]any {
	return [][]any{
		{"kind", string(s.Kind)},
		{"total", s.Total.InexactFloat64()},
		{"count", s.Count},
	}
}

func metaValues(res report.Result) [][]any {
	return [][]any{
		{"generated_at", res.GeneratedAt.Format(time.RFC3339)},
		{"kind", string(res.Kind)},
		{"mode", res.Mode.String()},
		{"period_start", res.Start.Format("2006-01-02")},
		{"period_end", res.End.Format("2006-01-02")},
	}
}

func tableValues(t report.Table) [][]any {
	values := make([][]any, 0, len(t.Rows)+1)
	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	values = append(values, header)
	for _, row := range t.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		values = append(values, cells)
	}
	return values
}
