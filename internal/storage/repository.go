package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"kopilka/internal/core"
	applog "kopilka/internal/log"
)

// SQLiteRepository persists transactions. Creates and deletes run in their
// own implicit or explicit transactions, so a failed commit leaves no
// partial row.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Create persists a new transaction and returns it with the assigned id.
// Zero timestamps default to the current UTC time; empty currency defaults
// to core.DefaultCurrency.
func (r *SQLiteRepository) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.Currency == "" {
		t.Currency = core.DefaultCurrency
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.EffectiveAt.IsZero() {
		t.EffectiveAt = t.CreatedAt
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, kind, category_id, subcategory_id, amount_minor, currency, comment, created_at, effective_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID,
		string(t.Kind),
		t.CategoryID,
		nullableID(t.SubcategoryID),
		minorUnits(t.Amount),
		t.Currency,
		nullableText(t.Comment),
		t.CreatedAt.Unix(),
		t.EffectiveAt.Unix(),
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("last insert id: %w", err)
	}
	t.ID = id
	t.Amount = t.Amount.Round(2)

	slog.InfoContext(ctx, "Transaction saved",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldOperation, applog.OpCreate,
		applog.FieldTxID, t.ID,
		applog.FieldUserID, t.UserID,
		applog.FieldKind, t.Kind,
		applog.FieldCategoryID, t.CategoryID,
		applog.FieldAmount, core.FormatAmount(t.Amount))

	return t, nil
}

// List returns transactions matching the filter, ordered by effective time
// (ascending by default, descending with NewestFirst) with the id as a
// tiebreaker so paging is stable.
func (r *SQLiteRepository) List(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{f.UserID}
	)

	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if !f.Start.IsZero() {
		where = append(where, "effective_at >= ?")
		args = append(args, f.Start.Unix())
	}
	if !f.End.IsZero() {
		where = append(where, "effective_at <= ?")
		args = append(args, f.End.Unix())
	}
	if len(f.CategoryIDs) > 0 {
		where = append(where, "category_id IN ("+placeholders(len(f.CategoryIDs))+")")
		for _, id := range f.CategoryIDs {
			args = append(args, id)
		}
	}
	if len(f.SubcategoryIDs) > 0 {
		where = append(where, "subcategory_id IN ("+placeholders(len(f.SubcategoryIDs))+")")
		for _, id := range f.SubcategoryIDs {
			args = append(args, id)
		}
	}
	if f.AmountMin != nil {
		where = append(where, "amount_minor >= ?")
		args = append(args, minorUnits(*f.AmountMin))
	}
	if f.AmountMax != nil {
		where = append(where, "amount_minor <= ?")
		args = append(args, minorUnits(*f.AmountMax))
	}
	if f.CommentQuery != "" {
		where = append(where, "comment LIKE ?")
		args = append(args, "%"+f.CommentQuery+"%")
	}

	order := "effective_at ASC, id ASC"
	if f.NewestFirst {
		order = "effective_at DESC, id DESC"
	}

	query := `
		SELECT id, user_id, kind, category_id, subcategory_id, amount_minor, currency, comment, created_at, effective_at
		FROM transactions
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY ` + order
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
		if f.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", f.Offset)
		}
	} else if f.Offset > 0 {
		query += fmt.Sprintf(" LIMIT -1 OFFSET %d", f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// DeleteByID removes a transaction owned by the user. It reports false for
// unknown ids and for ids owned by someone else, without distinguishing the
// two cases.
func (r *SQLiteRepository) DeleteByID(ctx context.Context, userID, txID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND user_id = ?", txID, userID)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	slog.InfoContext(ctx, "Transaction deleted",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldOperation, applog.OpDelete,
		applog.FieldTxID, txID,
		applog.FieldUserID, userID)
	return true, nil
}

// DeleteMostRecentSince removes the user's newest transaction created at or
// after the given time and returns it. A nil transaction means nothing
// qualified. Select and delete run in one database transaction.
func (r *SQLiteRepository) DeleteMostRecentSince(ctx context.Context, userID int64, since time.Time) (*core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, user_id, kind, category_id, subcategory_id, amount_minor, currency, comment, created_at, effective_at
		FROM transactions
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		userID, since.Unix())

	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", t.ID); err != nil {
		return nil, fmt.Errorf("delete transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Last transaction undone",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldOperation, applog.OpUndo,
		applog.FieldTxID, t.ID,
		applog.FieldUserID, userID)
	return &t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t           core.Transaction
		kind        string
		subcategory sql.NullInt64
		amountMinor int64
		comment     sql.NullString
		createdAt   int64
		effectiveAt int64
	)
	err := row.Scan(&t.ID, &t.UserID, &kind, &t.CategoryID, &subcategory, &amountMinor, &t.Currency, &comment, &createdAt, &effectiveAt)
	if err == sql.ErrNoRows {
		return core.Transaction{}, err
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Kind = core.Kind(kind)
	t.SubcategoryID = subcategory.Int64
	t.Amount = decimal.New(amountMinor, -2)
	t.Comment = comment.String
	t.CreatedAt = time.Unix(createdAt, 0).UTC()
	t.EffectiveAt = time.Unix(effectiveAt, 0).UTC()
	return t, nil
}

func minorUnits(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
