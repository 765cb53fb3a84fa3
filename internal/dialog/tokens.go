package dialog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"kopilka/internal/core"
	"kopilka/internal/report"
)

// Callback tokens are the opaque strings carried in button presses. The
// format is positional, colon-separated, and stays under Telegram's 64-byte
// callback data limit.

var ErrBadToken = errors.New("malformed callback token")

const (
	tokKind       = "kind"
	tokCat        = "cat"
	tokSub        = "sub"
	tokSkip       = "skip"
	tokConfirm    = "ok"
	tokCancel     = "cancel"
	tokMenu       = "menu"
	tokRecent     = "recent"
	tokDelete     = "del"
	tokDelYes     = "dely"
	tokUndo       = "undo"
	tokReport     = "report"
	tokReportMenu = "reports"
)

// SkipSentinel is the text a user types to record a transaction without a
// comment. The skip button submits the same sentinel.
const SkipSentinel = "-"

func TokenStart(kind core.Kind) string { return tokKind + ":" + string(kind) }
func TokenCategory(id int64) string    { return fmt.Sprintf("%s:%d", tokCat, id) }
func TokenSubcategory(id int64) string { return fmt.Sprintf("%s:%d", tokSub, id) }
func TokenSkip() string                { return tokSkip }
func TokenConfirm() string             { return tokConfirm }
func TokenCancel() string              { return tokCancel }
func TokenMenu() string                { return tokMenu }
func TokenUndo() string                { return tokUndo }
func TokenReportMenu() string          { return tokReportMenu }

func TokenRecent(kind core.Kind, offset int) string {
	return fmt.Sprintf("%s:%s:%d", tokRecent, scopeOf(kind), offset)
}

// Delete tokens carry the browse position so the list re-renders from the
// same page after the delete resolves.
func TokenDelete(id int64, kind core.Kind, offset int) string {
	return fmt.Sprintf("%s:%d:%s:%d", tokDelete, id, scopeOf(kind), offset)
}

func TokenConfirmDelete(id int64, kind core.Kind, offset int) string {
	return fmt.Sprintf("%s:%d:%s:%d", tokDelYes, id, scopeOf(kind), offset)
}

func TokenReport(kind core.Kind, days int, mode report.Mode) string {
	return fmt.Sprintf("%s:%s:%d:%s", tokReport, kind, days, mode)
}

// ParseToken decodes a callback token back into an event.
func ParseToken(token string) (Event, error) {
	parts := strings.Split(token, ":")
	switch parts[0] {
	case tokSkip:
		return SubmitComment{Text: SkipSentinel}, nil
	case tokConfirm:
		return Confirm{}, nil
	case tokCancel:
		return Cancel{}, nil
	case tokMenu:
		return MainMenu{}, nil
	case tokUndo:
		return RequestUndo{}, nil
	case tokReportMenu:
		return OpenReportMenu{}, nil
	case tokKind:
		if len(parts) != 2 {
			return nil, ErrBadToken
		}
		kind, err := core.ParseKind(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadToken, token)
		}
		return StartTransaction{Kind: kind}, nil
	case tokCat:
		id, err := tokenID(parts)
		if err != nil {
			return nil, err
		}
		return SelectCategory{ID: id}, nil
	case tokSub:
		id, err := tokenID(parts)
		if err != nil {
			return nil, err
		}
		return SelectSubcategory{ID: id}, nil
	case tokDelete, tokDelYes:
		if len(parts) != 4 {
			return nil, ErrBadToken
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: bad id %q", ErrBadToken, parts[1])
		}
		kind, err := parseScope(parts[2])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadToken, token)
		}
		offset, err := strconv.Atoi(parts[3])
		if err != nil || offset < 0 {
			return nil, fmt.Errorf("%w: %s", ErrBadToken, token)
		}
		if parts[0] == tokDelete {
			return RequestDelete{TxID: id, Kind: kind, Offset: offset}, nil
		}
		return ConfirmDelete{TxID: id, Kind: kind, Offset: offset}, nil
	case tokRecent:
		if len(parts) != 3 {
			return nil, ErrBadToken
		}
		kind, err := parseScope(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadToken, token)
		}
		offset, err := strconv.Atoi(parts[2])
		if err != nil || offset < 0 {
			return nil, fmt.Errorf("%w: %s", ErrBadToken, token)
		}
		return RequestRecent{Kind: kind, Offset: offset}, nil
	case tokReport:
		if len(parts) != 4 {
			return nil, ErrBadToken
		}
		kind, err := core.ParseKind(parts[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadToken, token)
		}
		days, err := strconv.Atoi(parts[2])
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrBadToken, token)
		}
		mode, err := report.ParseMode(parts[3])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadToken, token)
		}
		return RequestReport{Kind: kind, Days: days, Mode: mode}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrBadToken, token)
}

// scopeOf maps a list scope to its wire form; the empty kind means all
// kinds and travels as "all".
func scopeOf(kind core.Kind) string {
	if kind == "" {
		return "all"
	}
	return string(kind)
}

func parseScope(s string) (core.Kind, error) {
	if s == "all" {
		return "", nil
	}
	return core.ParseKind(s)
}

func tokenID(parts []string) (int64, error) {
	if len(parts) != 2 {
		return 0, ErrBadToken
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad id %q", ErrBadToken, parts[1])
	}
	return id, nil
}
