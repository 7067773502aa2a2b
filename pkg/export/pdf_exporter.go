package export

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// GridCell is a single rendered timetable cell.
type GridCell struct {
	Subject string
	Teacher string
	Room    string
}

// GridKey addresses a cell by day and period.
type GridKey struct {
	DayOfWeek int
	PeriodID  int
}

// TimetableGrid is the renderable day-by-period matrix for one class or band.
type TimetableGrid struct {
	Title   string
	Days    []int
	Periods []int
	Cells   map[GridKey]GridCell
}

var dayLabels = map[int]string{
	1: "Monday",
	2: "Tuesday",
	3: "Wednesday",
	4: "Thursday",
	5: "Friday",
	6: "Saturday",
	7: "Sunday",
}

// PDFExporter renders timetable grids into landscape PDF documents.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document containing the grid, one column per day.
func (e *PDFExporter) Render(grid TimetableGrid) ([]byte, error) {
	if len(grid.Days) == 0 || len(grid.Periods) == 0 {
		return nil, fmt.Errorf("pdf requires at least one day and one period")
	}

	days := append([]int(nil), grid.Days...)
	sort.Ints(days)
	periods := append([]int(nil), grid.Periods...)
	sort.Ints(periods)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if grid.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(grid.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	const periodColWidth = 22.0
	colWidth := (277.0 - periodColWidth) / float64(len(days))

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(periodColWidth, 8, "Period", "1", 0, "C", false, 0, "")
	for _, day := range days {
		pdf.CellFormat(colWidth, 8, dayLabel(day), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, period := range periods {
		pdf.CellFormat(periodColWidth, 14, fmt.Sprintf("%d", period), "1", 0, "C", false, 0, "")
		for _, day := range days {
			cell := grid.Cells[GridKey{DayOfWeek: day, PeriodID: period}]
			pdf.CellFormat(colWidth, 14, cellText(cell), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func dayLabel(day int) string {
	if label, ok := dayLabels[day]; ok {
		return label
	}
	return fmt.Sprintf("Day %d", day)
}

func cellText(cell GridCell) string {
	if cell.Subject == "" {
		return ""
	}
	parts := []string{cell.Subject}
	if cell.Teacher != "" {
		parts = append(parts, cell.Teacher)
	}
	if cell.Room != "" {
		parts = append(parts, cell.Room)
	}
	return strings.Join(parts, " / ")
}
