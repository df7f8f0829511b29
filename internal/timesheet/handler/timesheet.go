package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/internal/timesheet/service"
	"github.com/medflow/timesheet/internal/timesheet/validation"
	"github.com/medflow/timesheet/pkg/errors"
	"github.com/medflow/timesheet/pkg/httputil"
	"github.com/medflow/timesheet/pkg/i18n"
	"github.com/medflow/timesheet/pkg/logger"
	"github.com/shopspring/decimal"
)

// TimesheetHandler handles timesheet endpoints
type TimesheetHandler struct {
	service *service.TimesheetService
	logger  *logger.Logger
}

// NewTimesheetHandler creates a new timesheet handler
func NewTimesheetHandler(svc *service.TimesheetService, log *logger.Logger) *TimesheetHandler {
	return &TimesheetHandler{
		service: svc,
		logger:  log,
	}
}

// RegisterRoutes mounts the timesheet endpoints on r
func (h *TimesheetHandler) RegisterRoutes(r chi.Router) {
	r.Get("/jobs", h.ListJobs)
	r.Put("/jobs/{jobID}", h.SaveJob)
	r.Delete("/jobs/{jobID}", h.DeactivateJob)
	r.Post("/validate", h.Validate)
	r.Route("/employees/{employeeID}", func(r chi.Router) {
		r.Get("/days", h.ListDays)
		r.Get("/days/{date}", h.GetDay)
		r.Put("/days/{date}", h.SaveDay)
		r.Get("/export", h.Export)
	})
}

// ListJobs returns the job catalog
// GET /timesheets/jobs
func (h *TimesheetHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.Jobs(r.Context())
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, jobs)
}

// JobRequest is the body of a job catalog update
type JobRequest struct {
	JobNumber      string `json:"job_number" validate:"required,max=50"`
	JobDescription string `json:"job_description" validate:"max=500"`
	CompanyName    string `json:"company_name" validate:"max=200"`
}

// SaveJob creates or updates a job catalog entry
// PUT /timesheets/jobs/{jobID}
func (h *TimesheetHandler) SaveJob(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	job := &domain.Job{
		ID:          chi.URLParam(r, "jobID"),
		JobNumber:   req.JobNumber,
		Description: req.JobDescription,
		CompanyName: req.CompanyName,
	}
	if err := h.service.SaveJob(r.Context(), job); err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, job)
}

// DeactivateJob removes a job from the catalog
// DELETE /timesheets/jobs/{jobID}
func (h *TimesheetHandler) DeactivateJob(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeactivateJob(r.Context(), chi.URLParam(r, "jobID")); err != nil {
		httputil.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetDay returns one stored day, 404 when the employee has none for that date
// GET /timesheets/employees/{employeeID}/days/{date}
func (h *TimesheetHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	date, err := domain.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	rec, err := h.service.GetDay(r.Context(), chi.URLParam(r, "employeeID"), date)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, rec)
}

// SaveDayResponse acknowledges a saved day
type SaveDayResponse struct {
	DayID   string `json:"day_id"`
	Created bool   `json:"created"`
}

// SaveDay stores a day
// PUT /timesheets/employees/{employeeID}/days/{date}
func (h *TimesheetHandler) SaveDay(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	date, err := domain.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	var payload domain.SavePayload
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.Error(w, r, err)
		return
	}

	if payload.EmployeeID == "" {
		payload.EmployeeID = employeeID
	}
	if payload.Date.IsZero() {
		payload.Date = date
	}
	if payload.EmployeeID != employeeID || !payload.Date.Equal(date) {
		httputil.Error(w, r, errors.BadRequest("payload does not match the requested employee and date"))
		return
	}

	if err := httputil.Validate(&payload); err != nil {
		httputil.Error(w, r, err)
		return
	}

	saved, err := h.service.SaveDay(r.Context(), &payload, httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	status := http.StatusOK
	if saved.Created {
		status = http.StatusCreated
	}
	httputil.JSON(w, status, SaveDayResponse{DayID: saved.DayID, Created: saved.Created})
}

// ListDays returns the stored days within ?from=&to=
// GET /timesheets/employees/{employeeID}/days
func (h *TimesheetHandler) ListDays(w http.ResponseWriter, r *http.Request) {
	rng, err := rangeFromQuery(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	days, err := h.service.ListDays(r.Context(), chi.URLParam(r, "employeeID"), rng)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, days)
}

// Export downloads the spreadsheet report for ?from=&to=
// GET /timesheets/employees/{employeeID}/export
func (h *TimesheetHandler) Export(w http.ResponseWriter, r *http.Request) {
	rng, err := rangeFromQuery(r)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	res, err := h.service.Export(r.Context(), employeeID, rng, httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	h.logger.Info().
		Str("employee_id", employeeID).
		Str("file_name", res.FileName).
		Int("days", res.DayCount).
		Msg("timesheet report exported")

	httputil.Attachment(w, res.FileName, res.ContentType, res.Data)
}

// ValidateResponse is a save gate result with messages in the request's language
type ValidateResponse struct {
	Complete       bool                    `json:"complete"`
	NormalHours    decimal.Decimal         `json:"normal_hours"`
	PermittedHours decimal.NullDecimal     `json:"permitted_hours"`
	Deficiencies   []validation.Deficiency `json:"deficiencies"`
	Messages       []string                `json:"messages"`
}

// Validate runs the save gate on a day record without storing it
// POST /timesheets/validate
func (h *TimesheetHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var rec domain.DayRecord
	if err := httputil.DecodeJSON(r, &rec); err != nil {
		httputil.Error(w, r, err)
		return
	}

	res := h.service.Validate(rec)
	httputil.JSON(w, http.StatusOK, ValidateResponse{
		Complete:       res.Complete,
		NormalHours:    res.NormalHours,
		PermittedHours: res.PermittedHours,
		Deficiencies:   res.Deficiencies,
		Messages:       res.Messages(i18n.LocalizerFromContext(r.Context())),
	})
}

func rangeFromQuery(r *http.Request) (domain.DateRange, error) {
	q := r.URL.Query()
	return domain.NewDateRange(q.Get("from"), q.Get("to"))
}
