package dialog

import (
	"errors"
	"testing"

	"kopilka/internal/core"
	"kopilka/internal/report"
)

func TestParseTokenRoundTrip(t *testing.T) {
	tests := []struct {
		token string
		want  Event
	}{
		{TokenStart(core.KindExpense), StartTransaction{Kind: core.KindExpense}},
		{TokenStart(core.KindIncome), StartTransaction{Kind: core.KindIncome}},
		{TokenCategory(11), SelectCategory{ID: 11}},
		{TokenSubcategory(21), SelectSubcategory{ID: 21}},
		{TokenSkip(), SubmitComment{Text: SkipSentinel}},
		{TokenConfirm(), Confirm{}},
		{TokenCancel(), Cancel{}},
		{TokenMenu(), MainMenu{}},
		{TokenUndo(), RequestUndo{}},
		{TokenReportMenu(), OpenReportMenu{}},
		{TokenDelete(7, "", 0), RequestDelete{TxID: 7}},
		{TokenDelete(7, core.KindExpense, 10), RequestDelete{TxID: 7, Kind: core.KindExpense, Offset: 10}},
		{TokenConfirmDelete(7, "", 0), ConfirmDelete{TxID: 7}},
		{TokenConfirmDelete(7, core.KindIncome, 20), ConfirmDelete{TxID: 7, Kind: core.KindIncome, Offset: 20}},
		{TokenRecent("", 0), RequestRecent{Offset: 0}},
		{TokenRecent(core.KindExpense, 10), RequestRecent{Kind: core.KindExpense, Offset: 10}},
		{TokenReport(core.KindIncome, 7, report.ModeOverall), RequestReport{Kind: core.KindIncome, Days: 7, Mode: report.ModeOverall}},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseToken(tt.token)
			if err != nil {
				t.Fatalf("ParseToken(%q): %v", tt.token, err)
			}
			if got != tt.want {
				t.Errorf("ParseToken(%q) = %#v, want %#v", tt.token, got, tt.want)
			}
		})
	}
}

func TestParseTokenRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"nonsense",
		"kind:transfer",
		"cat:abc",
		"cat:-1",
		"cat:",
		"del",
		"del:7",
		"del:7:expense",
		"del:7:transfer:0",
		"dely:7:all:-1",
		"recent:expense",
		"recent:expense:x",
		"report:expense:30",
		"report:expense:0:overall",
		"report:expense:30:pie",
	}
	for _, token := range bad {
		if _, err := ParseToken(token); !errors.Is(err, ErrBadToken) {
			t.Errorf("ParseToken(%q) err = %v, want ErrBadToken", token, err)
		}
	}
}

func TestTokensFitCallbackDataLimit(t *testing.T) {
	longest := []string{
		TokenReport(core.KindExpense, 365, report.ModeCategorySections),
		TokenRecent(core.KindExpense, 1000000),
		TokenConfirmDelete(1<<62, core.KindExpense, 1000000),
	}
	for _, token := range longest {
		if len(token) > 64 {
			t.Errorf("token %q is %d bytes, Telegram allows 64", token, len(token))
		}
	}
}
