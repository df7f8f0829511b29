package domain

import (
	"github.com/shopspring/decimal"
)

// PayloadTask is a captured task enriched with its job catalog details.
// Completeness is left to the save gate, which counts hours of incomplete
// tasks too.
type PayloadTask struct {
	Description    string          `json:"description"`
	Hours          decimal.Decimal `json:"hours"`
	JobID          string          `json:"job_id"`
	JobNumber      string          `json:"job_number,omitempty"`
	JobDescription string          `json:"job_description,omitempty"`
	ClassCode      string          `json:"class_code,omitempty"`
}

// SavePayload is what a day save sends to the persistence gateway
type SavePayload struct {
	EmployeeID  string        `json:"employee_id" validate:"required"`
	CompanyID   string        `json:"company_id,omitempty"`
	Date        Date          `json:"date"`
	PeriodClose Date          `json:"period_close"`
	Shift       Shift         `json:"shift" validate:"required,oneof=day night"`
	TimeIn      string        `json:"time_in" validate:"required,hhmm"`
	TimeOut     string        `json:"time_out" validate:"required,hhmm"`
	Tasks       []PayloadTask `json:"tasks" validate:"dive"`
	ExtraTask   *PayloadTask  `json:"extra_task,omitempty"`
}

// NewPayloadTask enriches t from the catalog
func NewPayloadTask(t Task, catalog JobCatalog) PayloadTask {
	pt := PayloadTask{
		Description: t.Description,
		Hours:       t.HoursOrZero(),
		JobID:       t.JobID,
		ClassCode:   t.ClassCode,
	}
	if job, ok := catalog.Lookup(t.JobID); ok {
		pt.JobNumber = job.JobNumber
		pt.JobDescription = job.Description
	}
	return pt
}

// Task converts back to the capture form
func (p PayloadTask) Task(extra bool) Task {
	return Task{
		Description: p.Description,
		Hours:       decimal.NewNullDecimal(p.Hours),
		JobID:       p.JobID,
		ClassCode:   p.ClassCode,
		IsExtra:     extra,
	}
}

// Record rebuilds the day record the payload was built from. Times are
// expected to be validated already; unparseable times are left unset.
func (p SavePayload) Record() DayRecord {
	rec := DayRecord{
		Date:           p.Date,
		Shift:          p.Shift,
		Tasks:          make([]Task, 0, len(p.Tasks)),
		ExistsOnServer: true,
	}
	if in, err := ParseTimeOfDay(p.TimeIn); err == nil {
		rec.TimeIn = &in
	}
	if out, err := ParseTimeOfDay(p.TimeOut); err == nil {
		rec.TimeOut = &out
	}
	for _, t := range p.Tasks {
		rec.Tasks = append(rec.Tasks, t.Task(false))
	}
	if p.ExtraTask != nil {
		extra := p.ExtraTask.Task(true)
		rec.ExtraTask = &extra
	}
	return rec
}
