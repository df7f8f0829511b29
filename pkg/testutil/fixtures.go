package testutil

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/medflow/timesheet/internal/timesheet/domain"
)

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Job creates a job fixture with a unique job number
func (f *FixtureFactory) Job(opts ...func(*domain.Job)) domain.Job {
	seq := f.nextSeq()
	job := domain.Job{
		ID:          uuid.New().String(),
		JobNumber:   fmt.Sprintf("J-%03d", seq),
		Description: fmt.Sprintf("Job %d", seq),
		CompanyName: "MedFlow Clinic",
	}
	for _, opt := range opts {
		opt(&job)
	}
	return job
}

// Employee creates a cached employee fixture
func (f *FixtureFactory) Employee(opts ...func(*domain.Employee)) domain.Employee {
	seq := f.nextSeq()
	emp := domain.Employee{
		ID:          uuid.New().String(),
		UserID:      uuid.New().String(),
		Name:        fmt.Sprintf("Employee %d", seq),
		CompanyID:   "company-1",
		CompanyName: "MedFlow Clinic",
	}
	for _, opt := range opts {
		opt(&emp)
	}
	return emp
}

// CompleteDay returns a day shift from 07:00 to 17:00 with two tasks that
// exactly fill it
func (f *FixtureFactory) CompleteDay(date string, jobID string) domain.DayRecord {
	rec := domain.NewDayRecord(domain.MustParseDate(date))
	rec.Shift = domain.ShiftDay
	rec.TimeIn = domain.TimeAt("07:00")
	rec.TimeOut = domain.TimeAt("17:00")
	rec.Tasks = []domain.Task{
		{Description: "Ward rounds", Hours: domain.Hours("6"), JobID: jobID},
		{Description: "Charting", Hours: domain.Hours("4"), JobID: jobID, ClassCode: "C-1"},
	}
	return rec
}

// Payload returns the save payload of CompleteDay for employeeID
func (f *FixtureFactory) Payload(employeeID, date string, job domain.Job) *domain.SavePayload {
	rec := f.CompleteDay(date, job.ID)
	catalog := domain.NewJobCatalog([]domain.Job{job})

	p := &domain.SavePayload{
		EmployeeID:  employeeID,
		CompanyID:   "company-1",
		Date:        rec.Date,
		PeriodClose: rec.Date,
		Shift:       rec.Shift,
		TimeIn:      rec.TimeIn.String(),
		TimeOut:     rec.TimeOut.String(),
	}
	for _, t := range rec.Tasks {
		p.Tasks = append(p.Tasks, domain.NewPayloadTask(t, catalog))
	}
	return p
}

// WithExtraTask adds an extra task to a payload
func WithExtraTask(p *domain.SavePayload, job domain.Job, hours string) *domain.SavePayload {
	extra := domain.NewPayloadTask(domain.Task{
		Description: "Inventory count",
		Hours:       domain.Hours(hours),
		JobID:       job.ID,
	}, domain.NewJobCatalog([]domain.Job{job}))
	p.ExtraTask = &extra
	return p
}
