package report

import "fmt"

// Mode selects how fetched transactions are aggregated. The set is closed;
// switches over Mode list every variant so a new mode fails to compile until
// every renderer handles it.
type Mode int

const (
	ModeDetail Mode = iota
	ModeByCategory
	ModeBySubcategory
	ModeOverall
	ModeCategorySections
)

func (m Mode) String() string {
	switch m {
	case ModeDetail:
		return "detail"
	case ModeByCategory:
		return "by_category"
	case ModeBySubcategory:
		return "by_subcategory"
	case ModeOverall:
		return "overall"
	case ModeCategorySections:
		return "by_category_sections"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func (m Mode) Valid() bool {
	switch m {
	case ModeDetail, ModeByCategory, ModeBySubcategory, ModeOverall, ModeCategorySections:
		return true
	}
	return false
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "detail":
		return ModeDetail, nil
	case "by_category":
		return ModeByCategory, nil
	case "by_subcategory":
		return ModeBySubcategory, nil
	case "overall":
		return ModeOverall, nil
	case "by_category_sections":
		return ModeCategorySections, nil
	}
	return 0, fmt.Errorf("unknown report mode %q", s)
}
