// Package validation implements the save gate a day must pass before it is
// persisted: a shift, both times, at least two complete tasks and normal
// hours that exactly fill the time-in to time-out window.
package validation

import (
	"strconv"

	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/pkg/i18n"
	"github.com/shopspring/decimal"
)

// MinValidTasks is the number of complete tasks a day needs
const MinValidTasks = 2

const minutesPerDay = 24 * 60

var sixty = decimal.NewFromInt(60)

// Code identifies a deficiency; it doubles as the i18n key suffix
type Code string

const (
	CodeMissingShift      Code = "missing_shift"
	CodeMissingTimes      Code = "missing_times"
	CodeInsufficientTasks Code = "insufficient_tasks"
	CodeHoursExceeded     Code = "hours_exceeded"
	CodeHoursRemaining    Code = "hours_remaining"
)

// Deficiency is one reason a day cannot be saved
type Deficiency struct {
	Code   Code              `json:"code"`
	Params map[string]string `json:"params,omitempty"`
}

// Message localizes the deficiency
func (d Deficiency) Message(l *i18n.Localizer) string {
	return l.T("deficiencies."+string(d.Code), d.Params)
}

// Result is the outcome of checking one day
type Result struct {
	Complete       bool                `json:"complete"`
	ValidTasks     []domain.Task       `json:"valid_tasks"`
	NormalHours    decimal.Decimal     `json:"normal_hours"`
	PermittedHours decimal.NullDecimal `json:"permitted_hours"`
	Deficiencies   []Deficiency        `json:"deficiencies"`
}

// Messages localizes every deficiency, in order
func (r Result) Messages(l *i18n.Localizer) []string {
	out := make([]string, 0, len(r.Deficiencies))
	for _, d := range r.Deficiencies {
		out = append(out, d.Message(l))
	}
	return out
}

// Has reports whether the result carries a deficiency with code
func (r Result) Has(code Code) bool {
	for _, d := range r.Deficiencies {
		if d.Code == code {
			return true
		}
	}
	return false
}

// WindowMinutes is the elapsed time from in to out. An out before in is
// taken to fall on the next calendar day.
func WindowMinutes(in, out domain.TimeOfDay) int {
	diff := out.Minutes() - in.Minutes()
	if diff < 0 {
		diff += minutesPerDay
	}
	return diff
}

// PermittedHours is WindowMinutes expressed in hours
func PermittedHours(in, out domain.TimeOfDay) decimal.Decimal {
	return decimal.NewFromInt(int64(WindowMinutes(in, out))).Div(sixty)
}

// Check runs the save gate over rec without modifying it. All applicable
// deficiencies are reported, in a fixed order.
func Check(rec domain.DayRecord) Result {
	res := Result{
		ValidTasks:   make([]domain.Task, 0, len(rec.Tasks)),
		NormalHours:  rec.NormalHours(),
		Deficiencies: make([]Deficiency, 0),
	}

	for _, t := range rec.Tasks {
		if t.IsValid() {
			res.ValidTasks = append(res.ValidTasks, t)
		}
	}

	if !rec.Shift.Valid() {
		res.add(CodeMissingShift, nil)
	}

	timesSet := rec.TimeIn != nil && rec.TimeOut != nil
	if !timesSet {
		res.add(CodeMissingTimes, nil)
	}

	if n := len(res.ValidTasks); n < MinValidTasks {
		res.add(CodeInsufficientTasks, map[string]string{
			"needed": strconv.Itoa(MinValidTasks - n),
		})
	}

	if timesSet {
		window := WindowMinutes(*rec.TimeIn, *rec.TimeOut)
		permitted := decimal.NewFromInt(int64(window)).Div(sixty)
		res.PermittedHours = decimal.NewNullDecimal(permitted)

		// compare in minutes so windows like 7h20m stay exact
		usedMinutes := res.NormalHours.Mul(sixty)
		windowMinutes := decimal.NewFromInt(int64(window))

		switch usedMinutes.Cmp(windowMinutes) {
		case 1:
			res.add(CodeHoursExceeded, map[string]string{
				"permitted": formatHours(permitted),
			})
		case -1:
			remaining := windowMinutes.Sub(usedMinutes).Div(sixty)
			res.add(CodeHoursRemaining, map[string]string{
				"remaining": formatHours(remaining),
				"permitted": formatHours(permitted),
			})
		}
	}

	res.Complete = len(res.Deficiencies) == 0
	return res
}

func (r *Result) add(code Code, params map[string]string) {
	r.Deficiencies = append(r.Deficiencies, Deficiency{Code: code, Params: params})
}

func formatHours(d decimal.Decimal) string {
	return d.Round(2).String()
}
