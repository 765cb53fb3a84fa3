package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kopilka/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "kopilka.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustCreate(t *testing.T, repo *SQLiteRepository, tx core.Transaction) core.Transaction {
	t.Helper()
	saved, err := repo.Create(context.Background(), tx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return saved
}

func TestCreateAndListRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved := mustCreate(t, repo, core.Transaction{
		UserID:        42,
		Kind:          core.KindExpense,
		CategoryID:    1,
		SubcategoryID: 11,
		Amount:        decimal.RequireFromString("1500.50"),
		Comment:       "рамки для ульев",
	})
	if saved.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if saved.Currency != core.DefaultCurrency {
		t.Errorf("Currency = %q, want %q", saved.Currency, core.DefaultCurrency)
	}

	got, err := repo.List(ctx, core.TransactionFilter{UserID: 42})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d transactions, want 1", len(got))
	}
	tx := got[0]
	if tx.ID != saved.ID {
		t.Errorf("ID = %d, want %d", tx.ID, saved.ID)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("1500.50")) {
		t.Errorf("Amount = %s, want 1500.50", tx.Amount)
	}
	if tx.SubcategoryID != 11 {
		t.Errorf("SubcategoryID = %d, want 11", tx.SubcategoryID)
	}
	if tx.Comment != "рамки для ульев" {
		t.Errorf("Comment = %q", tx.Comment)
	}
	if tx.Kind != core.KindExpense {
		t.Errorf("Kind = %q, want expense", tx.Kind)
	}
}

func TestCreateWithoutOptionalFields(t *testing.T) {
	repo := newTestRepo(t)

	saved := mustCreate(t, repo, core.Transaction{
		UserID:     7,
		Kind:       core.KindIncome,
		CategoryID: 102,
		Amount:     decimal.NewFromInt(3000),
	})

	got, err := repo.List(context.Background(), core.TransactionFilter{UserID: 7})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d transactions, want 1", len(got))
	}
	if got[0].SubcategoryID != 0 {
		t.Errorf("SubcategoryID = %d, want 0", got[0].SubcategoryID)
	}
	if got[0].Comment != "" {
		t.Errorf("Comment = %q, want empty", got[0].Comment)
	}
	if got[0].ID != saved.ID {
		t.Errorf("ID = %d, want %d", got[0].ID, saved.ID)
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, core.Transaction{
		UserID:     1,
		Kind:       core.KindExpense,
		CategoryID: 1,
		Amount:     decimal.NewFromInt(-5),
	})
	if err == nil {
		t.Fatal("expected error for negative amount")
	}

	_, err = repo.Create(ctx, core.Transaction{
		UserID:     1,
		Kind:       core.Kind("transfer"),
		CategoryID: 1,
		Amount:     decimal.NewFromInt(10),
	})
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestListFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mustCreate(t, repo, core.Transaction{
		UserID: 1, Kind: core.KindExpense, CategoryID: 1, SubcategoryID: 11,
		Amount: decimal.NewFromInt(100), EffectiveAt: base,
	})
	mustCreate(t, repo, core.Transaction{
		UserID: 1, Kind: core.KindExpense, CategoryID: 2,
		Amount: decimal.NewFromInt(200), EffectiveAt: base.AddDate(0, 0, 1),
		Comment: "бензин до рынка",
	})
	mustCreate(t, repo, core.Transaction{
		UserID: 1, Kind: core.KindIncome, CategoryID: 102,
		Amount: decimal.NewFromInt(5000), EffectiveAt: base.AddDate(0, 0, 2),
	})
	mustCreate(t, repo, core.Transaction{
		UserID: 2, Kind: core.KindExpense, CategoryID: 1,
		Amount: decimal.NewFromInt(999), EffectiveAt: base,
	})

	tests := []struct {
		name   string
		filter core.TransactionFilter
		want   int
	}{
		{"by user", core.TransactionFilter{UserID: 1}, 3},
		{"other user", core.TransactionFilter{UserID: 2}, 1},
		{"by kind", core.TransactionFilter{UserID: 1, Kind: core.KindExpense}, 2},
		{"by category", core.TransactionFilter{UserID: 1, CategoryIDs: []int64{2}}, 1},
		{"by subcategory", core.TransactionFilter{UserID: 1, SubcategoryIDs: []int64{11}}, 1},
		{"by start", core.TransactionFilter{UserID: 1, Start: base.AddDate(0, 0, 1)}, 2},
		{"by end", core.TransactionFilter{UserID: 1, End: base.AddDate(0, 0, 1)}, 2},
		{"by window", core.TransactionFilter{UserID: 1, Start: base.AddDate(0, 0, 1), End: base.AddDate(0, 0, 1)}, 1},
		{"by amount min", core.TransactionFilter{UserID: 1, AmountMin: decimalPtr("150")}, 2},
		{"by amount max", core.TransactionFilter{UserID: 1, AmountMax: decimalPtr("150")}, 1},
		{"by comment", core.TransactionFilter{UserID: 1, CommentQuery: "бензин"}, 1},
		{"no match", core.TransactionFilter{UserID: 1, CategoryIDs: []int64{99}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d transactions, want %d", len(got), tt.want)
			}
		})
	}
}

func TestListOrderAndPagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	var ids []int64
	for i := 0; i < 15; i++ {
		saved := mustCreate(t, repo, core.Transaction{
			UserID: 1, Kind: core.KindExpense, CategoryID: 1,
			Amount:      decimal.NewFromInt(int64(i + 1)),
			EffectiveAt: base.Add(time.Duration(i) * time.Hour),
		})
		ids = append(ids, saved.ID)
	}

	page, err := repo.List(ctx, core.TransactionFilter{UserID: 1, NewestFirst: true, Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 10 {
		t.Fatalf("first page has %d rows, want 10", len(page))
	}
	if page[0].ID != ids[14] {
		t.Errorf("first row id = %d, want newest %d", page[0].ID, ids[14])
	}

	page, err = repo.List(ctx, core.TransactionFilter{UserID: 1, NewestFirst: true, Limit: 10, Offset: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page) != 5 {
		t.Fatalf("second page has %d rows, want 5", len(page))
	}
	if page[4].ID != ids[0] {
		t.Errorf("last row id = %d, want oldest %d", page[4].ID, ids[0])
	}

	asc, err := repo.List(ctx, core.TransactionFilter{UserID: 1, Limit: 3})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if asc[0].ID != ids[0] {
		t.Errorf("ascending first row id = %d, want %d", asc[0].ID, ids[0])
	}
}

func TestDeleteByIDOwnership(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	saved := mustCreate(t, repo, core.Transaction{
		UserID: 1, Kind: core.KindExpense, CategoryID: 1,
		Amount: decimal.NewFromInt(100),
	})

	ok, err := repo.DeleteByID(ctx, 2, saved.ID)
	if err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if ok {
		t.Fatal("delete by non-owner succeeded")
	}
	left, _ := repo.List(ctx, core.TransactionFilter{UserID: 1})
	if len(left) != 1 {
		t.Fatal("transaction removed by non-owner")
	}

	ok, err = repo.DeleteByID(ctx, 1, saved.ID)
	if err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if !ok {
		t.Fatal("delete by owner failed")
	}
	left, _ = repo.List(ctx, core.TransactionFilter{UserID: 1})
	if len(left) != 0 {
		t.Fatal("transaction still present after delete")
	}

	ok, err = repo.DeleteByID(ctx, 1, saved.ID)
	if err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if ok {
		t.Fatal("second delete reported success")
	}
}

func TestDeleteMostRecentSince(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	old := mustCreate(t, repo, core.Transaction{
		UserID: 1, Kind: core.KindExpense, CategoryID: 1,
		Amount: decimal.NewFromInt(10), CreatedAt: now.Add(-10 * time.Minute),
	})
	recent := mustCreate(t, repo, core.Transaction{
		UserID: 1, Kind: core.KindExpense, CategoryID: 2,
		Amount: decimal.NewFromInt(20), CreatedAt: now.Add(-1 * time.Minute),
	})

	deleted, err := repo.DeleteMostRecentSince(ctx, 1, now.Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("DeleteMostRecentSince: %v", err)
	}
	if deleted == nil {
		t.Fatal("expected a deleted transaction")
	}
	if deleted.ID != recent.ID {
		t.Errorf("deleted id = %d, want %d", deleted.ID, recent.ID)
	}
	if !deleted.Amount.Equal(decimal.NewFromInt(20)) {
		t.Errorf("deleted amount = %s, want 20", deleted.Amount)
	}

	deleted, err = repo.DeleteMostRecentSince(ctx, 1, now.Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("DeleteMostRecentSince: %v", err)
	}
	if deleted != nil {
		t.Errorf("old transaction %d removed outside the window", old.ID)
	}

	left, _ := repo.List(ctx, core.TransactionFilter{UserID: 1})
	if len(left) != 1 || left[0].ID != old.ID {
		t.Fatal("old transaction should survive undo")
	}
}

func TestDeleteMostRecentSinceOtherUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	mustCreate(t, repo, core.Transaction{
		UserID: 1, Kind: core.KindExpense, CategoryID: 1,
		Amount: decimal.NewFromInt(10), CreatedAt: now,
	})

	deleted, err := repo.DeleteMostRecentSince(ctx, 2, now.Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("DeleteMostRecentSince: %v", err)
	}
	if deleted != nil {
		t.Fatal("undo crossed user boundary")
	}
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
