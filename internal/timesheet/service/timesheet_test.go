package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/internal/timesheet/events"
	"github.com/medflow/timesheet/internal/timesheet/navigator"
	"github.com/medflow/timesheet/internal/timesheet/repository"
	"github.com/medflow/timesheet/pkg/errors"
	"github.com/medflow/timesheet/pkg/i18n"
	"github.com/medflow/timesheet/pkg/logger"
	"github.com/medflow/timesheet/pkg/messaging"
	"github.com/medflow/timesheet/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fixture struct {
	svc       *TimesheetService
	jobs      *repository.JobRepository
	employees *repository.EmployeeCacheRepository
	published *testutil.MockPublisher
	fx        *testutil.FixtureFactory
	job       domain.Job
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db := testutil.NewSQLiteDB(t)
	require.NoError(t, repository.EnsureSchema(ctx, db))

	f := &fixture{
		jobs:      repository.NewJobRepository(db),
		employees: repository.NewEmployeeCacheRepository(db),
		published: testutil.NewMockPublisher(),
		fx:        testutil.NewFixtureFactory(),
	}
	f.job = f.fx.Job()
	require.NoError(t, f.jobs.Upsert(ctx, &f.job))

	f.svc = NewTimesheetService(
		repository.NewTimesheetRepository(db),
		f.jobs,
		f.employees,
		events.NewTimesheetEventPublisher(f.published, logger.Nop()),
		Config{CompanyName: "Default Co", SheetName: "Timesheet"},
		logger.Nop(),
	)
	return f
}

func TestSaveDay_PersistsAndPublishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	payload := f.fx.Payload("emp-1", "2025-07-09", f.job)
	payload.PeriodClose = domain.Date{}

	saved, err := f.svc.SaveDay(ctx, payload, "user-1")
	require.NoError(t, err)
	assert.True(t, saved.Created)
	assert.Equal(t, "2025-07-09", payload.PeriodClose.String())

	rec, err := f.svc.GetDay(ctx, "emp-1", domain.MustParseDate("2025-07-09"))
	require.NoError(t, err)
	assert.Len(t, rec.Tasks, 2)

	f.published.AssertEventPublished(t, messaging.EventTimesheetDaySaved)
}

func TestSaveDay_RejectsIncompleteDay(t *testing.T) {
	f := newFixture(t)
	ctx := i18n.WithLocale(context.Background(), i18n.LocaleEnglish)

	payload := f.fx.Payload("emp-1", "2025-07-09", f.job)
	payload.TimeOut = "18:00"

	_, err := f.svc.SaveDay(ctx, payload, "user-1")
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Equal(t, "1 hours remain to reach the permitted 11 hours", appErr.Details["hours_remaining"])

	_, err = f.svc.GetDay(ctx, "emp-1", payload.Date)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	f.published.AssertNoEventsPublished(t)
}

func TestSaveDay_AcceptsDayCompletedWithIncompleteTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rng := domain.DateRange{Start: domain.MustParseDate("2025-07-07"), End: domain.MustParseDate("2025-07-11")}
	rec := domain.NewDayRecord(domain.MustParseDate("2025-07-09"))
	rec.Shift = domain.ShiftDay
	rec.TimeIn = domain.TimeAt("07:00")
	rec.TimeOut = domain.TimeAt("17:00")
	rec.Tasks = []domain.Task{
		{Description: "Rounds", Hours: domain.Hours("5"), JobID: f.job.ID},
		{Description: "Charting", Hours: domain.Hours("3"), JobID: f.job.ID},
		{Hours: domain.Hours("2"), JobID: f.job.ID},
	}

	payload := navigator.BuildSavePayload("emp-1", "co-1", rng, rec, domain.NewJobCatalog([]domain.Job{f.job}))
	saved, err := f.svc.SaveDay(ctx, payload, "user-1")
	require.NoError(t, err)
	assert.True(t, saved.Created)

	got, err := f.svc.GetDay(ctx, "emp-1", rec.Date)
	require.NoError(t, err)
	assert.Len(t, got.Tasks, 3)
	f.published.AssertEventPublished(t, messaging.EventTimesheetDaySaved)
}

func TestSaveDay_RejectsPeriodCloseBeforeDate(t *testing.T) {
	f := newFixture(t)

	payload := f.fx.Payload("emp-1", "2025-07-09", f.job)
	payload.PeriodClose = domain.MustParseDate("2025-07-08")

	_, err := f.svc.SaveDay(context.Background(), payload, "user-1")
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestExport_UsesCachedEmployee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	emp := f.fx.Employee(func(e *domain.Employee) {
		e.Name = "Ana Pérez"
		e.CompanyName = "MedFlow Clinic"
	})
	require.NoError(t, f.employees.Set(ctx, &emp))

	for _, d := range []string{"2025-07-10", "2025-07-09"} {
		_, err := f.svc.SaveDay(ctx, f.fx.Payload(emp.ID, d, f.job), "user-1")
		require.NoError(t, err)
	}
	f.published.Reset()

	rng, err := domain.NewDateRange("2025-07-09", "2025-07-10")
	require.NoError(t, err)

	res, err := f.svc.Export(ctx, emp.ID, rng, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Timesheet_Ana Pérez_2025-07-09_to_2025-07-10.xlsx", res.FileName)
	assert.Equal(t, 2, res.DayCount)

	book, err := excelize.OpenReader(bytes.NewReader(res.Data))
	require.NoError(t, err)
	defer book.Close()

	company, err := book.GetCellValue("Timesheet", "A1")
	require.NoError(t, err)
	assert.Equal(t, "MedFlow Clinic", company)
	job, err := book.GetCellValue("Timesheet", "F7")
	require.NoError(t, err)
	assert.Equal(t, f.job.JobNumber, job)

	f.published.AssertEventPublished(t, messaging.EventTimesheetReportExported)
}

func TestExport_UnknownEmployeeFallsBackToDefaults(t *testing.T) {
	f := newFixture(t)

	rng, err := domain.NewDateRange("2025-07-09", "2025-07-10")
	require.NoError(t, err)

	res, err := f.svc.Export(context.Background(), "emp-9", rng, "")
	require.NoError(t, err)
	assert.Equal(t, 0, res.DayCount)
	assert.Equal(t, "Timesheet_emp-9_2025-07-09_to_2025-07-10.xlsx", res.FileName)
}

func TestListDays_RejectsReversedRange(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListDays(context.Background(), "emp-1", domain.DateRange{
		Start: domain.MustParseDate("2025-07-10"),
		End:   domain.MustParseDate("2025-07-09"),
	})
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}
