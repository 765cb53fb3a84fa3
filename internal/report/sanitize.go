package report

import "strings"

// WrapWidth is the column width free-text cells are folded to before tabular
// rendering.
const WrapWidth = 18

// maxSheetNameRunes is the xlsx format limit on sheet names. The gsheet
// backend applies the same limit so both backends produce identical names.
const maxSheetNameRunes = 31

// TruncateSheetName shortens a sheet name to the workbook format limit,
// marking the cut with an ellipsis.
func TruncateSheetName(name string) string {
	r := []rune(name)
	if len(r) <= maxSheetNameRunes {
		return name
	}
	return string(r[:maxSheetNameRunes-3]) + "..."
}

// SanitizeText strips characters outside the Basic Multilingual Plane.
// Fonts bundled with the chart renderer carry no glyphs above U+FFFF, so
// emoji and similar would render as tofu boxes.
func SanitizeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r <= 0xFFFF {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WrapText folds s into lines of at most width runes, breaking on spaces
// where possible. Words longer than width are split hard.
func WrapText(s string, width int) []string {
	if width <= 0 || s == "" {
		return []string{s}
	}

	var lines []string
	for _, paragraph := range strings.Split(s, "\n") {
		line := ""
		for _, word := range strings.Fields(paragraph) {
			for len([]rune(word)) > width {
				if line != "" {
					lines = append(lines, line)
					line = ""
				}
				r := []rune(word)
				lines = append(lines, string(r[:width]))
				word = string(r[width:])
			}
			switch {
			case line == "":
				line = word
			case len([]rune(line))+1+len([]rune(word)) <= width:
				line += " " + word
			default:
				lines = append(lines, line)
				line = word
			}
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
