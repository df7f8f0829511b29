// Package export renders an employee's day records as a single-sheet xlsx
// timesheet report.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/pkg/i18n"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the generated document
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DefaultSheetName is used when Input.SheetName is empty
const DefaultSheetName = "Timesheet"

// Placeholder renders values that do not apply, such as a missing class code
const Placeholder = "-"

const (
	firstCol = "A"
	lastCol  = "G"
)

var columnWidths = []struct {
	from, to string
	width    float64
}{
	{"A", "A", 24},
	{"B", "D", 20},
	{"E", "E", 10},
	{"F", "G", 12},
}

var weekdayKeys = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// Input is everything one report needs
type Input struct {
	EmployeeName string
	CompanyName  string
	PeriodStart  string
	PeriodEnd    string
	// ShiftLabel overrides the header shift; by default the earliest record's shift is used
	ShiftLabel string
	Records    []domain.DayRecord
	Jobs       domain.JobCatalog
	Locale     string
	SheetName  string
}

// Generate builds the report and serializes it
func Generate(in Input) ([]byte, error) {
	f, err := Build(in)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Build lays the report out in a new workbook. Records are sorted by date
// first; the input order is not trusted. An empty record list still yields
// the header blocks and the signature footer.
func Build(in Input) (*excelize.File, error) {
	sheet := in.SheetName
	if sheet == "" {
		sheet = DefaultSheetName
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	w := &sheetWriter{
		f:     f,
		sheet: sheet,
		l:     i18n.NewLocalizer(in.Locale),
		jobs:  in.Jobs,
	}

	records := sortedRecords(in.Records)

	w.writeHeader(in, records)
	for _, rec := range records {
		w.writeDay(rec)
	}
	w.writeFooter()
	w.applyFormatting()

	if w.err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to build report: %w", w.err)
	}
	return f, nil
}

// Filename names the report after the employee and the period
func Filename(employeeName, periodStart, periodEnd string) string {
	name := sanitize(employeeName)
	if name == "" {
		name = "employee"
	}
	return fmt.Sprintf("Timesheet_%s_%s_to_%s.xlsx", name, sanitize(periodStart), sanitize(periodEnd))
}

func sanitize(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, s))
}

func sortedRecords(in []domain.DayRecord) []domain.DayRecord {
	out := make([]domain.DayRecord, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

type sheetWriter struct {
	f     *excelize.File
	sheet string
	l     *i18n.Localizer
	jobs  domain.JobCatalog

	row      int
	boldRows []int
	err      error
}

func (w *sheetWriter) next() int {
	w.row++
	return w.row
}

func (w *sheetWriter) set(col string, row int, v interface{}) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetCellValue(w.sheet, cell(col, row), v)
}

func (w *sheetWriter) setHours(col string, row int, h decimal.NullDecimal) {
	if !h.Valid {
		w.set(col, row, Placeholder)
		return
	}
	w.setDecimal(col, row, h.Decimal)
}

func (w *sheetWriter) setDecimal(col string, row int, d decimal.Decimal) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetCellFloat(w.sheet, cell(col, row), d.InexactFloat64(), -1, 64)
}

func (w *sheetWriter) merge(fromCol, toCol string, row int) {
	if w.err != nil {
		return
	}
	w.err = w.f.MergeCell(w.sheet, cell(fromCol, row), cell(toCol, row))
}

// fullRow writes a bold label merged across every column
func (w *sheetWriter) fullRow(label string) int {
	row := w.next()
	w.set(firstCol, row, label)
	w.merge(firstCol, lastCol, row)
	w.boldRows = append(w.boldRows, row)
	return row
}

func (w *sheetWriter) writeHeader(in Input, records []domain.DayRecord) {
	w.fullRow(in.CompanyName)
	w.fullRow(w.l.T("report.title"))

	shift := in.ShiftLabel
	if shift == "" {
		shift = Placeholder
		if len(records) > 0 && records[0].Shift.Valid() {
			shift = w.l.T(records[0].Shift.LabelKey())
		}
	}

	row := w.next()
	w.set("A", row, w.l.T("report.employee"))
	w.set("B", row, in.EmployeeName)
	w.merge("B", "D", row)
	w.set("E", row, w.l.T("report.shift"))
	w.set("F", row, shift)
	w.merge("F", "G", row)
	w.boldRows = append(w.boldRows, row)

	row = w.next()
	w.set("A", row, w.l.T("report.period_from"))
	w.set("B", row, in.PeriodStart)
	w.merge("B", "D", row)
	w.set("E", row, w.l.T("report.period_to"))
	w.set("F", row, in.PeriodEnd)
	w.merge("F", "G", row)
	w.boldRows = append(w.boldRows, row)

	row = w.next()
	w.set("A", row, w.l.T("report.col_day"))
	w.set("B", row, w.l.T("report.col_activity"))
	w.merge("B", "D", row)
	w.set("E", row, w.l.T("report.col_hours"))
	w.set("F", row, w.l.T("report.col_job"))
	w.set("G", row, w.l.T("report.col_class"))
	w.boldRows = append(w.boldRows, row)
}

func (w *sheetWriter) writeDay(rec domain.DayRecord) {
	weekday := w.l.T("weekdays." + weekdayKeys[rec.Date.Weekday()])
	w.fullRow(weekday + " " + rec.Date.String())

	for _, t := range rec.Tasks {
		if t.IsExtra || t.IsBlank() {
			continue
		}
		w.writeTask(rec.Date, t)
	}
	w.writeTotal(w.l.T("report.total_hours"), rec.NormalHours())

	if rec.ExtraTask != nil {
		w.fullRow(w.l.T("report.extra_hours"))
		w.writeTask(rec.Date, *rec.ExtraTask)
		w.writeTotal(w.l.T("report.extra_total"), rec.ExtraTask.HoursOrZero())
	}
}

func (w *sheetWriter) writeTask(date domain.Date, t domain.Task) {
	row := w.next()
	w.set("A", row, date.String())
	w.set("B", row, t.Description)
	w.merge("B", "D", row)
	w.setHours("E", row, t.Hours)

	job := Placeholder
	if t.JobID != "" {
		job = w.jobs.JobNumberFor(t.JobID)
	}
	w.set("F", row, job)

	class := Placeholder
	if strings.TrimSpace(t.ClassCode) != "" {
		class = t.ClassCode
	}
	w.set("G", row, class)
}

func (w *sheetWriter) writeTotal(label string, total decimal.Decimal) {
	row := w.next()
	w.set("A", row, label)
	w.merge("A", "D", row)
	w.setDecimal("E", row, total)
	w.boldRows = append(w.boldRows, row)
}

func (w *sheetWriter) writeFooter() {
	blank := strings.Repeat("_", 20)
	labels := []string{
		w.l.T("report.sign_employee"),
		w.l.T("report.sign_supervisor"),
		w.l.T("report.sign_manager"),
	}
	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, label+": "+blank)
	}

	row := w.next()
	w.set(firstCol, row, strings.Join(parts, "    "))
	w.merge(firstCol, lastCol, row)
	if w.err == nil {
		w.err = w.f.SetRowHeight(w.sheet, row, 40)
	}
}

func (w *sheetWriter) applyFormatting() {
	if w.err != nil {
		return
	}

	base, err := w.f.NewStyle(cellStyle(false))
	if err != nil {
		w.err = err
		return
	}
	bold, err := w.f.NewStyle(cellStyle(true))
	if err != nil {
		w.err = err
		return
	}

	// every cell of the used range gets the border, including empty ones
	if err := w.f.SetCellStyle(w.sheet, cell(firstCol, 1), cell(lastCol, w.row), base); err != nil {
		w.err = err
		return
	}
	for _, row := range w.boldRows {
		if err := w.f.SetCellStyle(w.sheet, cell(firstCol, row), cell(lastCol, row), bold); err != nil {
			w.err = err
			return
		}
	}

	for _, c := range columnWidths {
		if err := w.f.SetColWidth(w.sheet, c.from, c.to, c.width); err != nil {
			w.err = err
			return
		}
	}
}

func cellStyle(bold bool) *excelize.Style {
	border := make([]excelize.Border, 0, 4)
	for _, side := range []string{"left", "top", "right", "bottom"} {
		border = append(border, excelize.Border{Type: side, Color: "000000", Style: 1})
	}
	return &excelize.Style{
		Border: border,
		Font:   &excelize.Font{Bold: bold},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
	}
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
