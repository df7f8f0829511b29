package navigator

import (
	"github.com/medflow/timesheet/internal/timesheet/domain"
)

// BuildSavePayload assembles what the gateway persists for rec. Every
// non-blank normal task is sent, enriched from the job catalog, so the
// server gate sees the same hours the local gate counted. rec must have
// passed the save gate.
func BuildSavePayload(employeeID, companyID string, rng domain.DateRange, rec domain.DayRecord, catalog domain.JobCatalog) *domain.SavePayload {
	payload := &domain.SavePayload{
		EmployeeID:  employeeID,
		CompanyID:   companyID,
		Date:        rec.Date,
		PeriodClose: periodClose(rng, rec.Date),
		Shift:       rec.Shift,
		Tasks:       make([]domain.PayloadTask, 0, len(rec.Tasks)),
	}

	if rec.TimeIn != nil {
		payload.TimeIn = rec.TimeIn.String()
	}
	if rec.TimeOut != nil {
		payload.TimeOut = rec.TimeOut.String()
	}

	for _, t := range rec.Tasks {
		if t.IsExtra || t.IsBlank() {
			continue
		}
		payload.Tasks = append(payload.Tasks, domain.NewPayloadTask(t, catalog))
	}

	if rec.ExtraTask != nil && !rec.ExtraTask.IsBlank() {
		extra := domain.NewPayloadTask(*rec.ExtraTask, catalog)
		payload.ExtraTask = &extra
	}

	return payload
}

// periodClose is the range end on the last day of the range and the day
// itself as a rolling close on every other day.
func periodClose(rng domain.DateRange, date domain.Date) domain.Date {
	if date.Equal(rng.End) {
		return rng.End
	}
	return date
}
