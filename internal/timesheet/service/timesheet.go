package service

import (
	"context"

	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/internal/timesheet/export"
	"github.com/medflow/timesheet/internal/timesheet/repository"
	"github.com/medflow/timesheet/internal/timesheet/validation"
	"github.com/medflow/timesheet/pkg/errors"
	"github.com/medflow/timesheet/pkg/i18n"
	"github.com/medflow/timesheet/pkg/logger"
)

// DayRepository is the day persistence the service needs
type DayRepository interface {
	GetDay(ctx context.Context, employeeID string, date domain.Date) (*domain.DayRecord, error)
	ListDays(ctx context.Context, employeeID string, rng domain.DateRange) ([]domain.DayRecord, error)
	SaveDay(ctx context.Context, p *domain.SavePayload, savedBy string) (*repository.SaveResult, error)
}

// JobRepository maintains the job catalog
type JobRepository interface {
	List(ctx context.Context) ([]domain.Job, error)
	Upsert(ctx context.Context, job *domain.Job) error
	Deactivate(ctx context.Context, id string) error
}

// EmployeeDirectory resolves report header identities
type EmployeeDirectory interface {
	Get(ctx context.Context, employeeID string) (*domain.Employee, error)
}

// EventPublisher publishes timesheet events
type EventPublisher interface {
	PublishDaySaved(ctx context.Context, dayID string, created bool, payload *domain.SavePayload)
	PublishReportExported(ctx context.Context, employeeID string, rng domain.DateRange, fileName string, dayCount int, requestedBy string)
}

// Config holds report defaults
type Config struct {
	CompanyName string
	SheetName   string
}

// ExportResult is a generated report
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
	DayCount    int
}

// TimesheetService handles timesheet business logic
type TimesheetService struct {
	days      DayRepository
	jobs      JobRepository
	employees EmployeeDirectory
	events    EventPublisher
	cfg       Config
	logger    *logger.Logger
}

// NewTimesheetService creates a new timesheet service
func NewTimesheetService(
	days DayRepository,
	jobs JobRepository,
	employees EmployeeDirectory,
	events EventPublisher,
	cfg Config,
	log *logger.Logger,
) *TimesheetService {
	return &TimesheetService{
		days:      days,
		jobs:      jobs,
		employees: employees,
		events:    events,
		cfg:       cfg,
		logger:    log,
	}
}

// GetDay returns a stored day
func (s *TimesheetService) GetDay(ctx context.Context, employeeID string, date domain.Date) (*domain.DayRecord, error) {
	return s.days.GetDay(ctx, employeeID, date)
}

// ListDays returns the stored days of rng
func (s *TimesheetService) ListDays(ctx context.Context, employeeID string, rng domain.DateRange) ([]domain.DayRecord, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return s.days.ListDays(ctx, employeeID, rng)
}

// Jobs returns the job catalog
func (s *TimesheetService) Jobs(ctx context.Context) ([]domain.Job, error) {
	return s.jobs.List(ctx)
}

// SaveJob creates or updates a catalog entry
func (s *TimesheetService) SaveJob(ctx context.Context, job *domain.Job) error {
	if err := s.jobs.Upsert(ctx, job); err != nil {
		return err
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Str("job_number", job.JobNumber).
		Msg("job saved")
	return nil
}

// DeactivateJob removes a job from the catalog; stored tasks keep their reference
func (s *TimesheetService) DeactivateJob(ctx context.Context, id string) error {
	if err := s.jobs.Deactivate(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("job_id", id).Msg("job deactivated")
	return nil
}

// Validate runs the save gate
func (s *TimesheetService) Validate(rec domain.DayRecord) validation.Result {
	return validation.Check(rec)
}

// SaveDay persists a day. The payload must describe a day that passes the
// save gate; a missing period close defaults to the day itself.
func (s *TimesheetService) SaveDay(ctx context.Context, p *domain.SavePayload, savedBy string) (*repository.SaveResult, error) {
	if p.Date.IsZero() {
		return nil, errors.Validation(map[string]string{"date": "this field is required"})
	}
	if p.PeriodClose.IsZero() {
		p.PeriodClose = p.Date
	}
	if p.PeriodClose.Before(p.Date) {
		return nil, errors.Validation(map[string]string{"period_close": "must not be before date"})
	}

	if res := validation.Check(p.Record()); !res.Complete {
		return nil, deficiencyError(ctx, res)
	}

	saved, err := s.days.SaveDay(ctx, p, savedBy)
	if err != nil {
		s.logger.Error().Err(err).
			Str("employee_id", p.EmployeeID).
			Str("date", p.Date.String()).
			Msg("failed to save timesheet day")
		return nil, err
	}

	s.logger.Info().
		Str("employee_id", p.EmployeeID).
		Str("date", p.Date.String()).
		Bool("created", saved.Created).
		Msg("timesheet day saved")

	s.events.PublishDaySaved(ctx, saved.DayID, saved.Created, p)
	return saved, nil
}

// Export renders the stored days of rng as a spreadsheet report
func (s *TimesheetService) Export(ctx context.Context, employeeID string, rng domain.DateRange, requestedBy string) (*ExportResult, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	records, err := s.days.ListDays(ctx, employeeID, rng)
	if err != nil {
		return nil, err
	}

	jobs, err := s.jobs.List(ctx)
	if err != nil {
		return nil, err
	}

	name, company := employeeID, s.cfg.CompanyName
	emp, err := s.employees.Get(ctx, employeeID)
	switch {
	case err == nil:
		name = emp.Name
		if emp.CompanyName != "" {
			company = emp.CompanyName
		}
	case errors.Is(err, errors.ErrNotFound):
		s.logger.Warn().Str("employee_id", employeeID).Msg("employee not cached, exporting with ID as name")
	default:
		return nil, err
	}

	data, err := export.Generate(export.Input{
		EmployeeName: name,
		CompanyName:  company,
		PeriodStart:  rng.Start.String(),
		PeriodEnd:    rng.End.String(),
		Records:      records,
		Jobs:         domain.NewJobCatalog(jobs),
		Locale:       i18n.GetLocaleFromContext(ctx),
		SheetName:    s.cfg.SheetName,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("employee_id", employeeID).Msg("failed to generate report")
		return nil, errors.Internal("failed to generate report")
	}

	result := &ExportResult{
		FileName:    export.Filename(name, rng.Start.String(), rng.End.String()),
		ContentType: export.ContentType,
		Data:        data,
		DayCount:    len(records),
	}

	s.events.PublishReportExported(ctx, employeeID, rng, result.FileName, result.DayCount, requestedBy)
	return result, nil
}

// deficiencyError turns a failed save gate into a validation error keyed by deficiency code
func deficiencyError(ctx context.Context, res validation.Result) error {
	l := i18n.LocalizerFromContext(ctx)
	details := make(map[string]string, len(res.Deficiencies))
	for _, d := range res.Deficiencies {
		details[string(d.Code)] = d.Message(l)
	}
	return errors.Validation(details)
}
