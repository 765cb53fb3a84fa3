package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in      string
		out     string
		wantErr error
	}{
		{"1000", "1000.00", nil},
		{"1 500", "1500.00", nil},
		{"2,50", "2.50", nil},
		{"2.50", "2.50", nil},
		{" 12 345,67 ", "12345.67", nil},
		{"0.01", "0.01", nil},
		{"100.", "100.00", nil},
		{"1.005", "1.01", nil}, // rounds half up to two digits
		{"abc", "", ErrInvalidAmount},
		{"1.2.3", "", ErrInvalidAmount},
		{"1,2,3", "", ErrInvalidAmount},
		{".5", "", ErrInvalidAmount},
		{"", "", ErrInvalidAmount},
		{"10rub", "", ErrInvalidAmount},
		{"0", "", ErrNonPositiveAmount},
		{"0,00", "", ErrNonPositiveAmount},
		{"-5", "", ErrNonPositiveAmount},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ParseAmount(%q) error = %v, want %v", tc.in, err, tc.wantErr)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseAmount(%q) unexpected error: %v", tc.in, err)
		}
		if got.StringFixed(2) != tc.out {
			t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got.StringFixed(2), tc.out)
		}
	}
}

func TestParseAmountRoundTrip(t *testing.T) {
	for _, in := range []string{"1000", "1 500", "2,50", "7", "12.3"} {
		first, err := ParseAmount(in)
		if err != nil {
			t.Fatalf("ParseAmount(%q): %v", in, err)
		}
		second, err := ParseAmount(FormatAmount(first))
		if err != nil {
			t.Fatalf("reparse of %q: %v", FormatAmount(first), err)
		}
		if !first.Equal(second) {
			t.Fatalf("%q: round trip changed value %s -> %s", in, first, second)
		}
	}
}

func TestFormatAmountDisplay(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"2.5", "2,50"},
		{"1000", "1 000,00"},
		{"1234567.89", "1 234 567,89"},
		{"999", "999,00"},
	}
	for _, tc := range cases {
		d, _ := decimal.NewFromString(tc.in)
		if got := FormatAmountDisplay(d); got != tc.out {
			t.Errorf("FormatAmountDisplay(%s) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		UserID:     1,
		Kind:       KindExpense,
		CategoryID: 3,
		Amount:     decimal.NewFromInt(100),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	bad := valid
	bad.Kind = "transfer"
	if err := bad.Validate(); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("bad kind: got %v", err)
	}

	bad = valid
	bad.CategoryID = 0
	if err := bad.Validate(); !errors.Is(err, ErrEmptyCategory) {
		t.Errorf("missing category: got %v", err)
	}

	bad = valid
	bad.Amount = decimal.Zero
	if err := bad.Validate(); !errors.Is(err, ErrNonPositiveAmount) {
		t.Errorf("zero amount: got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("expense"); err != nil || k != KindExpense {
		t.Errorf("expense: %v %v", k, err)
	}
	if k, err := ParseKind("income"); err != nil || k != KindIncome {
		t.Errorf("income: %v %v", k, err)
	}
	if _, err := ParseKind("loan"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("loan: expected ErrUnknownKind, got %v", err)
	}
}
