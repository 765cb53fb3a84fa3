// Package chart renders report tables as PNG images.
package chart

import (
	"fmt"
	"os"

	"github.com/fogleman/gg"

	"kopilka/internal/report"
)

// A4 landscape at roughly 100 dpi. The width is fixed; the height grows
// with the content but never shrinks below a full page.
const (
	pageWidth  = 1169
	pageHeight = 827

	marginX      = 40.0
	marginY      = 40.0
	titleHeight  = 46.0
	headerHeight = 34.0
	lineHeight   = 24.0
	cellPadX     = 12.0
	cellPadY     = 6.0
	sectionGap   = 30.0
	fontSize     = 15.0

	// Section mode stacks one table per category; more than this and the
	// image becomes unreadable.
	maxSectionTables = 12
)

var (
	headerBg = color(0xf0, 0xf4, 0xff)
	zebraBg  = color(0xfa, 0xfa, 0xfa)
	gridLine = color(0xcc, 0xcc, 0xcc)
	textInk  = color(0x22, 0x22, 0x22)
)

type rgb struct{ r, g, b float64 }

func color(r, g, b uint8) rgb {
	return rgb{float64(r) / 255, float64(g) / 255, float64(b) / 255}
}

// rightAligned lists column headers whose cells hold numbers.
var rightAligned = map[string]bool{
	"Сумма":    true,
	"Операций": true,
	"Значение": true,
}

// Renderer draws report tables as a PNG. fontPath may be empty; the
// built-in face then applies, which only covers ASCII, so production
// configs point it at a Cyrillic-capable TTF.
type Renderer struct {
	fontPath string
}

func New(fontPath string) *Renderer {
	return &Renderer{fontPath: fontPath}
}

func (r *Renderer) RenderChart(res report.Result, path string) error {
	tables := chartTables(res)

	if empty(tables) {
		return r.renderEmpty(res, path)
	}

	prepared := make([]preparedTable, 0, len(tables))
	measure := gg.NewContext(1, 1)
	if err := r.setFont(measure); err != nil {
		return err
	}
	for _, t := range tables {
		prepared = append(prepared, prepare(measure, t))
	}

	height := int(marginY * 2)
	for _, p := range prepared {
		height += int(p.height + sectionGap)
	}
	if height < pageHeight {
		height = pageHeight
	}

	dc := gg.NewContext(pageWidth, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	if err := r.setFont(dc); err != nil {
		return err
	}

	y := marginY
	for _, p := range prepared {
		drawTable(dc, p, marginX, y)
		y += p.height + sectionGap
	}

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("save chart png: %w", err)
	}
	return nil
}

// renderEmpty draws a titled placeholder so the user still receives an
// image, never an error, for an empty period.
func (r *Renderer) renderEmpty(res report.Result, path string) error {
	dc := gg.NewContext(pageWidth, pageHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	if err := r.setFont(dc); err != nil {
		return err
	}

	dc.SetRGB(textInk.r, textInk.g, textInk.b)
	title := fmt.Sprintf("Отчёт: %s (%s — %s)",
		res.Mode, res.Start.Format("02.01.2006"), res.End.Format("02.01.2006"))
	dc.DrawStringAnchored(report.SanitizeText(title), pageWidth/2, pageHeight/2-lineHeight, 0.5, 0.5)
	dc.DrawStringAnchored("нет данных", pageWidth/2, pageHeight/2+lineHeight, 0.5, 0.5)

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("save chart png: %w", err)
	}
	return nil
}

func (r *Renderer) setFont(dc *gg.Context) error {
	if r.fontPath == "" {
		return nil
	}
	if _, err := os.Stat(r.fontPath); err != nil {
		return fmt.Errorf("chart font: %w", err)
	}
	if err := dc.LoadFontFace(r.fontPath, fontSize); err != nil {
		return fmt.Errorf("load chart font: %w", err)
	}
	return nil
}

func chartTables(res report.Result) []report.Table {
	if res.Mode == report.ModeCategorySections {
		sections := res.Sections
		if len(sections) > maxSectionTables {
			sections = sections[:maxSectionTables]
		}
		return sections
	}
	return []report.Table{res.Table}
}

func empty(tables []report.Table) bool {
	for _, t := range tables {
		if len(t.Rows) > 0 {
			return false
		}
	}
	return true
}

// preparedTable holds the sanitized, wrapped cell text and measured layout.
type preparedTable struct {
	title     string
	columns   []string
	cells     [][][]string // row -> column -> wrapped lines
	colWidths []float64
	rowHeight []float64
	width     float64
	height    float64
}

func prepare(dc *gg.Context, t report.Table) preparedTable {
	p := preparedTable{title: report.SanitizeText(t.Title), columns: t.Columns}

	p.colWidths = make([]float64, len(t.Columns))
	for i, c := range t.Columns {
		w, _ := dc.MeasureString(c)
		p.colWidths[i] = w + 2*cellPadX
	}

	for _, row := range t.Rows {
		cells := make([][]string, len(row))
		lines := 1
		for i, cell := range row {
			wrapped := report.WrapText(report.SanitizeText(cell), report.WrapWidth)
			cells[i] = wrapped
			if len(wrapped) > lines {
				lines = len(wrapped)
			}
			for _, line := range wrapped {
				w, _ := dc.MeasureString(line)
				if w+2*cellPadX > p.colWidths[i] {
					p.colWidths[i] = w + 2*cellPadX
				}
			}
		}
		p.cells = append(p.cells, cells)
		p.rowHeight = append(p.rowHeight, float64(lines)*lineHeight+2*cellPadY)
	}

	for _, w := range p.colWidths {
		p.width += w
	}
	p.height = titleHeight + headerHeight
	for _, h := range p.rowHeight {
		p.height += h
	}
	return p
}

func drawTable(dc *gg.Context, p preparedTable, x, y float64) {
	dc.SetRGB(textInk.r, textInk.g, textInk.b)
	dc.DrawString(p.title, x, y+fontSize)
	y += titleHeight

	// Header band.
	dc.SetRGB(headerBg.r, headerBg.g, headerBg.b)
	dc.DrawRectangle(x, y, p.width, headerHeight)
	dc.Fill()
	dc.SetRGB(textInk.r, textInk.g, textInk.b)
	cx := x
	for i, c := range p.columns {
		drawCellText(dc, []string{c}, cx, y, p.colWidths[i], headerHeight, rightAligned[c])
		cx += p.colWidths[i]
	}
	y += headerHeight

	// Body with zebra stripes.
	for ri, row := range p.cells {
		if ri%2 == 1 {
			dc.SetRGB(zebraBg.r, zebraBg.g, zebraBg.b)
			dc.DrawRectangle(x, y, p.width, p.rowHeight[ri])
			dc.Fill()
		}
		dc.SetRGB(textInk.r, textInk.g, textInk.b)
		cx = x
		for ci, lines := range row {
			drawCellText(dc, lines, cx, y, p.colWidths[ci], p.rowHeight[ri], rightAligned[p.columns[ci]])
			cx += p.colWidths[ci]
		}
		y += p.rowHeight[ri]
	}

	drawGrid(dc, p, x, y)
}

func drawCellText(dc *gg.Context, lines []string, x, y, w, h float64, right bool) {
	top := y + (h-float64(len(lines))*lineHeight)/2
	for i, line := range lines {
		ly := top + float64(i)*lineHeight + lineHeight/2
		if right {
			dc.DrawStringAnchored(line, x+w-cellPadX, ly, 1, 0.5)
		} else {
			dc.DrawStringAnchored(line, x+cellPadX, ly, 0, 0.5)
		}
	}
}

// drawGrid strokes the outer border, column separators and row separators.
// bottom is the y coordinate just below the last row.
func drawGrid(dc *gg.Context, p preparedTable, x, bottom float64) {
	top := bottom - p.height + titleHeight

	dc.SetRGB(gridLine.r, gridLine.g, gridLine.b)
	dc.SetLineWidth(1)

	dc.DrawRectangle(x, top, p.width, p.height-titleHeight)
	dc.Stroke()

	cx := x
	for _, w := range p.colWidths[:len(p.colWidths)-1] {
		cx += w
		dc.DrawLine(cx, top, cx, bottom)
		dc.Stroke()
	}

	ry := top + headerHeight
	dc.DrawLine(x, ry, x+p.width, ry)
	dc.Stroke()
	for _, h := range p.rowHeight[:len(p.rowHeight)-1] {
		ry += h
		dc.DrawLine(x, ry, x+p.width, ry)
		dc.Stroke()
	}
}
