package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/internal/timesheet/events"
	"github.com/medflow/timesheet/internal/timesheet/export"
	"github.com/medflow/timesheet/internal/timesheet/repository"
	"github.com/medflow/timesheet/internal/timesheet/service"
	"github.com/medflow/timesheet/pkg/httputil"
	"github.com/medflow/timesheet/pkg/i18n"
	"github.com/medflow/timesheet/pkg/logger"
	"github.com/medflow/timesheet/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope[T any] struct {
	Success bool                `json:"success"`
	Data    T                   `json:"data"`
	Error   *httputil.ErrorBody `json:"error"`
}

func newRouter(t *testing.T) (http.Handler, domain.Job, *testutil.FixtureFactory) {
	t.Helper()
	ctx := context.Background()

	db := testutil.NewSQLiteDB(t)
	require.NoError(t, repository.EnsureSchema(ctx, db))

	fx := testutil.NewFixtureFactory()
	jobs := repository.NewJobRepository(db)
	job := fx.Job()
	require.NoError(t, jobs.Upsert(ctx, &job))

	svc := service.NewTimesheetService(
		repository.NewTimesheetRepository(db),
		jobs,
		repository.NewEmployeeCacheRepository(db),
		events.NewTimesheetEventPublisher(testutil.NewMockPublisher(), logger.Nop()),
		service.Config{CompanyName: "MedFlow Clinic"},
		logger.Nop(),
	)

	r := chi.NewRouter()
	r.Use(httputil.RequestID)
	r.Use(httputil.UserContext)
	r.Use(i18n.Middleware)
	r.Route("/api/v1/timesheets", NewTimesheetHandler(svc, logger.Nop()).RegisterRoutes)
	return r, job, fx
}

func TestGetDay_NotFound(t *testing.T) {
	r, _, _ := newRouter(t)

	rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodGet,
		"/api/v1/timesheets/employees/emp-1/days/2025-07-09", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	var body envelope[any]
	testutil.ParseJSONBody(t, rr, &body)
	assert.False(t, body.Success)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestGetDay_InvalidDate(t *testing.T) {
	r, _, _ := newRouter(t)

	rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodGet,
		"/api/v1/timesheets/employees/emp-1/days/09-07-2025", nil))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestSaveDay_ThenGet(t *testing.T) {
	r, job, fx := newRouter(t)
	payload := fx.Payload("emp-1", "2025-07-09", job)

	req := testutil.WithUserHeaders(testutil.NewHTTPRequest(http.MethodPut,
		"/api/v1/timesheets/employees/emp-1/days/2025-07-09", payload), "user-1")
	rr := testutil.ExecuteRequest(r, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	var saved envelope[SaveDayResponse]
	testutil.ParseJSONBody(t, rr, &saved)
	assert.True(t, saved.Data.Created)
	assert.NotEmpty(t, saved.Data.DayID)

	rr = testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPut,
		"/api/v1/timesheets/employees/emp-1/days/2025-07-09", payload))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodGet,
		"/api/v1/timesheets/employees/emp-1/days/2025-07-09", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var got envelope[domain.DayRecord]
	testutil.ParseJSONBody(t, rr, &got)
	assert.True(t, got.Data.ExistsOnServer)
	assert.Equal(t, "07:00", got.Data.TimeIn.String())
	assert.Len(t, got.Data.Tasks, 2)
}

func TestSaveDay_ValidationErrors(t *testing.T) {
	r, job, fx := newRouter(t)

	bad := fx.Payload("emp-1", "2025-07-09", job)
	bad.TimeIn = "7am"
	rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPut,
		"/api/v1/timesheets/employees/emp-1/days/2025-07-09", bad))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	var body envelope[any]
	testutil.ParseJSONBody(t, rr, &body)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Contains(t, body.Error.Details, "SavePayload.TimeIn")

	mismatch := fx.Payload("emp-2", "2025-07-09", job)
	rr = testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPut,
		"/api/v1/timesheets/employees/emp-1/days/2025-07-09", mismatch))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	incomplete := fx.Payload("emp-1", "2025-07-09", job)
	incomplete.Tasks = incomplete.Tasks[:1]
	rr = testutil.ExecuteRequest(r, testutil.WithLocale(testutil.NewHTTPRequest(http.MethodPut,
		"/api/v1/timesheets/employees/emp-1/days/2025-07-09", incomplete), "es"))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.ParseJSONBody(t, rr, &body)
	assert.Equal(t, "la validación falló", body.Error.Message)
	assert.Contains(t, body.Error.Details, "insufficient_tasks")
}

func TestListDaysAndExport(t *testing.T) {
	r, job, fx := newRouter(t)

	for _, d := range []string{"2025-07-10", "2025-07-09"} {
		rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPut,
			"/api/v1/timesheets/employees/emp-1/days/"+d, fx.Payload("emp-1", d, job)))
		testutil.AssertStatus(t, rr, http.StatusCreated)
	}

	rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodGet,
		"/api/v1/timesheets/employees/emp-1/days?from=2025-07-01&to=2025-07-31", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var days envelope[[]domain.DayRecord]
	testutil.ParseJSONBody(t, rr, &days)
	require.Len(t, days.Data, 2)
	assert.Equal(t, "2025-07-09", days.Data[0].Date.String())

	rr = testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodGet,
		"/api/v1/timesheets/employees/emp-1/export?from=2025-07-09&to=2025-07-10", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, export.ContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "Timesheet_emp-1_2025-07-09_to_2025-07-10.xlsx")
	assert.NotZero(t, rr.Body.Len())

	rr = testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodGet,
		"/api/v1/timesheets/employees/emp-1/export?from=2025-07-10&to=2025-07-09", nil))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestListJobs(t *testing.T) {
	r, job, _ := newRouter(t)

	rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodGet, "/api/v1/timesheets/jobs", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body envelope[[]domain.Job]
	testutil.ParseJSONBody(t, rr, &body)
	require.Len(t, body.Data, 1)
	assert.Equal(t, job.JobNumber, body.Data[0].JobNumber)
}

func TestValidate(t *testing.T) {
	r, _, _ := newRouter(t)

	rec := domain.NewDayRecord(domain.MustParseDate("2025-07-09"))
	rec.TimeIn = domain.TimeAt("22:00")
	rec.TimeOut = domain.TimeAt("06:00")

	rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPost, "/api/v1/timesheets/validate", rec))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body envelope[ValidateResponse]
	testutil.ParseJSONBody(t, rr, &body)
	assert.False(t, body.Data.Complete)
	assert.Equal(t, "8", body.Data.PermittedHours.Decimal.String())
	assert.Equal(t, []string{
		"Select a shift for the day",
		"Enter at least 2 more complete task(s)",
		"8 hours remain to reach the permitted 8 hours",
	}, body.Data.Messages)
}

func TestJobCatalogMaintenance(t *testing.T) {
	r, job, _ := newRouter(t)

	rr := testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPut, "/api/v1/timesheets/jobs/job-new",
		JobRequest{JobNumber: "A-100", JobDescription: "Night cover", CompanyName: "MedFlow Clinic"}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodPut, "/api/v1/timesheets/jobs/job-bad", JobRequest{}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodDelete, "/api/v1/timesheets/jobs/"+job.ID, nil))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodDelete, "/api/v1/timesheets/jobs/missing", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)

	rr = testutil.ExecuteRequest(r, testutil.NewHTTPRequest(http.MethodGet, "/api/v1/timesheets/jobs", nil))
	var body envelope[[]domain.Job]
	testutil.ParseJSONBody(t, rr, &body)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "job-new", body.Data[0].ID)
	assert.Equal(t, "Night cover", body.Data[0].Description)
}
