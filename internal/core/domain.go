package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

// DefaultCurrency tags every amount; the bot is single-currency.
const DefaultCurrency = "RUB"

type (
	// Kind is the expense/income polarity of a transaction or category.
	Kind string

	// Transaction is a persisted operation. Immutable once created; the only
	// mutation the repository supports is a full delete.
	Transaction struct {
		ID            int64
		UserID        int64
		Kind          Kind
		CategoryID    int64
		SubcategoryID int64 // 0 when no subcategory was selected
		Amount        decimal.Decimal
		Currency      string
		Comment       string // "" means no comment
		CreatedAt     time.Time
		EffectiveAt   time.Time
	}

	// Category is a node of the two-level taxonomy. ParentID == 0 marks a root.
	// Quick marks a quick-pick shortcut that skips straight to the comment step.
	Category struct {
		ID       int64
		Name     string
		Kind     Kind
		ParentID int64
		Quick    bool
	}

	// TransactionFilter scopes repository listings. Zero values mean "no bound":
	// empty Kind matches both kinds, zero times leave the range open, nil amount
	// bounds are ignored.
	TransactionFilter struct {
		UserID         int64
		Kind           Kind
		Start          time.Time
		End            time.Time
		CategoryIDs    []int64
		SubcategoryIDs []int64
		AmountMin      *decimal.Decimal
		AmountMax      *decimal.Decimal
		CommentQuery   string // case-insensitive substring
		Offset         int
		Limit          int
		NewestFirst    bool
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount format")
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrUnknownKind       = errors.New("unknown transaction kind")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrEmptyCategory     = errors.New("empty category")
)

func (k Kind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

// ParseKind maps wire tokens ("expense"/"income") back to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	if !k.Valid() {
		return "", ErrUnknownKind
	}
	return k, nil
}

func (c Category) IsRoot() bool {
	return c.ParentID == 0
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrUnknownKind
	}
	if t.CategoryID == 0 {
		return ErrEmptyCategory
	}
	if t.Amount.Sign() <= 0 {
		return ErrNonPositiveAmount
	}
	if len(t.Comment) > 500 {
		return errors.New("comment too long (max 500 characters)")
	}
	return nil
}

// HasSubcategory reports whether a subcategory was recorded.
func (t Transaction) HasSubcategory() bool {
	return t.SubcategoryID != 0
}
