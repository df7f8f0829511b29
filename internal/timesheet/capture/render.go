package capture

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/internal/timesheet/navigator"
	"github.com/medflow/timesheet/internal/timesheet/validation"
	"github.com/medflow/timesheet/pkg/i18n"
)

var weekdayKeys = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// styles are bound to one output so colour detection follows that writer
type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	muted   lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	cell    lipgloss.Style
	header  lipgloss.Style
	borders lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	cell := r.NewStyle().Padding(0, 1)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "22", Dark: "40"}),
		label:   r.NewStyle().Bold(true).Width(10),
		muted:   r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "243", Dark: "243"}),
		ok:      r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "22", Dark: "40"}),
		warn:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "130", Dark: "214"}),
		err:     r.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "124", Dark: "196"}),
		cell:    cell,
		header:  cell.Bold(true),
		borders: r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

func (s styles) table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.borders).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header
			}
			return s.cell
		})
	return t.String()
}

// renderDay draws the current day: position, status, shift and times, the
// task slots and the extra task
func renderDay(s styles, l *i18n.Localizer, day navigator.Day, catalog domain.JobCatalog) string {
	var b strings.Builder

	weekday := l.T("weekdays." + weekdayKeys[day.Date.Weekday()])
	fmt.Fprintf(&b, "%s  %s\n",
		s.title.Render(fmt.Sprintf("%s %s", weekday, day.Date)),
		s.muted.Render(fmt.Sprintf("day %d of %d, %s", day.Index+1, day.Total, day.Status)))

	rec := day.Record
	shift := "-"
	if rec.Shift.Valid() {
		shift = l.T(rec.Shift.LabelKey())
	}
	fmt.Fprintf(&b, "%s%s\n", s.label.Render("Shift"), shift)
	fmt.Fprintf(&b, "%s%s\n", s.label.Render("In"), clock(rec.TimeIn))
	fmt.Fprintf(&b, "%s%s\n", s.label.Render("Out"), clock(rec.TimeOut))

	rows := make([][]string, 0, len(rec.Tasks)+1)
	for i, t := range rec.Tasks {
		rows = append(rows, taskRow(strconv.Itoa(i+1), t, catalog))
	}
	rows = append(rows, []string{"", "Total", rec.NormalHours().String(), "", ""})
	b.WriteString(s.table([]string{"#", "Activity", "Hours", "Job", "Class"}, rows))
	b.WriteString("\n")

	if rec.ExtraTask != nil {
		b.WriteString(s.table([]string{"", "Extra activity", "Hours", "Job", "Class"},
			[][]string{taskRow("+", *rec.ExtraTask, catalog)}))
		b.WriteString("\n")
	}

	return b.String()
}

// renderResult lists the deficiencies of a save gate result, or confirms the day is complete
func renderResult(s styles, l *i18n.Localizer, res validation.Result) string {
	if res.Complete {
		return s.ok.Render("Day is complete") + "\n"
	}
	var b strings.Builder
	for _, msg := range res.Messages(l) {
		b.WriteString(s.warn.Render("- "+msg) + "\n")
	}
	return b.String()
}

// RenderJobs draws the job catalog as a table
func RenderJobs(out io.Writer, jobs []domain.Job) {
	s := newStyles(out)
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{j.JobNumber, j.Description, j.CompanyName})
	}
	fmt.Fprintln(out, s.table([]string{"Job #", "Description", "Company"}, rows))
}

func taskRow(slot string, t domain.Task, catalog domain.JobCatalog) []string {
	hours := "-"
	if t.Hours.Valid {
		hours = t.Hours.Decimal.String()
	}
	job := catalog.JobNumberFor(t.JobID)
	if job == "" {
		job = "-"
	}
	class := t.ClassCode
	if class == "" {
		class = "-"
	}
	desc := t.Description
	if desc == "" {
		desc = "-"
	}
	return []string{slot, desc, hours, job, class}
}

func clock(t *domain.TimeOfDay) string {
	if t == nil {
		return "--:--"
	}
	return t.String()
}
