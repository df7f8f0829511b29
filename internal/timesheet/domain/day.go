package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/medflow/timesheet/pkg/errors"
	"github.com/shopspring/decimal"
)

// MinTaskSlots is the number of editable task slots a day always offers
const MinTaskSlots = 2

// Shift is the declared work period of a day
type Shift string

const (
	ShiftNone  Shift = ""
	ShiftDay   Shift = "day"
	ShiftNight Shift = "night"
)

// ParseShift accepts "day"/"d" and "night"/"n", case-insensitive
func ParseShift(s string) (Shift, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "d":
		return ShiftDay, nil
	case "night", "n":
		return ShiftNight, nil
	}
	return ShiftNone, errors.BadRequest(fmt.Sprintf("unknown shift %q", s))
}

func (s Shift) Valid() bool {
	return s == ShiftDay || s == ShiftNight
}

// LabelKey is the i18n key of the shift's display label
func (s Shift) LabelKey() string {
	return "shifts." + string(s)
}

// TimeOfDay is a wall-clock time as minutes after midnight
type TimeOfDay int

// ParseTimeOfDay parses "HH:mm" (24h)
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, errors.BadRequest(fmt.Sprintf("invalid time %q, expected HH:mm", s))
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, errors.BadRequest(fmt.Sprintf("invalid time %q, expected HH:mm", s))
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, errors.BadRequest(fmt.Sprintf("invalid time %q, expected HH:mm", s))
	}
	return TimeOfDay(h*60 + m), nil
}

// MustParseTimeOfDay is ParseTimeOfDay for literals known to be valid
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// TimeAt returns a pointer to the parsed time, for populating DayRecord literals
func TimeAt(s string) *TimeOfDay {
	t := MustParseTimeOfDay(s)
	return &t
}

func (t TimeOfDay) Minutes() int { return int(t) }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Task is one line of work on a day
type Task struct {
	Description string              `json:"description"`
	Hours       decimal.NullDecimal `json:"hours"`
	JobID       string              `json:"job_id"`
	ClassCode   string              `json:"class_code,omitempty"`
	IsExtra     bool                `json:"is_extra"`
}

// IsValid reports whether description, hours and job reference are all present and non-zero
func (t Task) IsValid() bool {
	return strings.TrimSpace(t.Description) != "" &&
		t.Hours.Valid && t.Hours.Decimal.IsPositive() &&
		strings.TrimSpace(t.JobID) != ""
}

// HoursOrZero treats missing hours as zero
func (t Task) HoursOrZero() decimal.Decimal {
	if !t.Hours.Valid {
		return decimal.Zero
	}
	return t.Hours.Decimal
}

// IsBlank reports an untouched slot
func (t Task) IsBlank() bool {
	return strings.TrimSpace(t.Description) == "" && !t.Hours.Valid &&
		t.JobID == "" && t.ClassCode == ""
}

// Hours builds a present hours value from a decimal string such as "7.5"
func Hours(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

// DayRecord is everything captured for one employee on one day
type DayRecord struct {
	Date           Date       `json:"date"`
	Shift          Shift      `json:"shift,omitempty"`
	TimeIn         *TimeOfDay `json:"time_in,omitempty"`
	TimeOut        *TimeOfDay `json:"time_out,omitempty"`
	Tasks          []Task     `json:"tasks"`
	ExtraTask      *Task      `json:"extra_task,omitempty"`
	ExistsOnServer bool       `json:"exists_on_server"`
}

// NewDayRecord returns an empty day with the minimum editable task slots
func NewDayRecord(date Date) DayRecord {
	rec := DayRecord{Date: date}
	rec.EnsureSlots()
	return rec
}

// EnsureSlots pads Tasks up to MinTaskSlots blank entries
func (r *DayRecord) EnsureSlots() {
	for len(r.Tasks) < MinTaskSlots {
		r.Tasks = append(r.Tasks, Task{})
	}
}

// Clone returns a deep copy
func (r DayRecord) Clone() DayRecord {
	out := r
	if r.TimeIn != nil {
		in := *r.TimeIn
		out.TimeIn = &in
	}
	if r.TimeOut != nil {
		o := *r.TimeOut
		out.TimeOut = &o
	}
	if r.Tasks != nil {
		out.Tasks = make([]Task, len(r.Tasks))
		copy(out.Tasks, r.Tasks)
	}
	if r.ExtraTask != nil {
		extra := *r.ExtraTask
		out.ExtraTask = &extra
	}
	return out
}

// NormalTasks returns the tasks not flagged as extra
func (r DayRecord) NormalTasks() []Task {
	out := make([]Task, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		if !t.IsExtra {
			out = append(out, t)
		}
	}
	return out
}

// NormalHours sums the hours of non-extra tasks, missing hours counting as zero
func (r DayRecord) NormalHours() decimal.Decimal {
	total := decimal.Zero
	for _, t := range r.Tasks {
		if !t.IsExtra {
			total = total.Add(t.HoursOrZero())
		}
	}
	return total
}

// SetTask writes task into slot i, growing the list when i is the next free slot
func (r *DayRecord) SetTask(i int, task Task) error {
	if i < 0 || i > len(r.Tasks) {
		return errors.BadRequest(fmt.Sprintf("task slot %d out of range", i+1))
	}
	task.IsExtra = false
	if i == len(r.Tasks) {
		r.Tasks = append(r.Tasks, task)
		return nil
	}
	r.Tasks[i] = task
	return nil
}

// ClearTask blanks slot i; slots beyond the minimum are removed
func (r *DayRecord) ClearTask(i int) error {
	if i < 0 || i >= len(r.Tasks) {
		return errors.BadRequest(fmt.Sprintf("task slot %d out of range", i+1))
	}
	r.Tasks = append(r.Tasks[:i], r.Tasks[i+1:]...)
	r.EnsureSlots()
	return nil
}

// SetExtraTask replaces the day's single extra task; nil removes it
func (r *DayRecord) SetExtraTask(task *Task) {
	if task == nil {
		r.ExtraTask = nil
		return
	}
	extra := *task
	extra.IsExtra = true
	r.ExtraTask = &extra
}
