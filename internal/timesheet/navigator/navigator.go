// Package navigator drives day-by-day capture over a confirmed date range:
// it loads each day from the persistence gateway on entry, runs the save
// gate before saving and moves the current index forward or back.
package navigator

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/internal/timesheet/validation"
	"github.com/medflow/timesheet/pkg/errors"
	"github.com/medflow/timesheet/pkg/logger"
)

var (
	// ErrTransitionInFlight is returned when a transition or edit is attempted
	// while another one has not finished.
	ErrTransitionInFlight = stderrors.New("navigator: transition in flight")
	// ErrNoRange is returned before a range has been confirmed.
	ErrNoRange = stderrors.New("navigator: no date range confirmed")
	// ErrDayIncomplete is returned when the current day fails the save gate.
	ErrDayIncomplete = stderrors.New("navigator: day incomplete")
)

// Gateway is the remote persistence the navigator loads and saves days through.
// FetchDay reports an absent day with an error matching errors.ErrNotFound.
type Gateway interface {
	FetchDay(ctx context.Context, employeeID string, date domain.Date) (*domain.DayRecord, error)
	SaveDay(ctx context.Context, payload *domain.SavePayload) error
	FetchJobCatalog(ctx context.Context) ([]domain.Job, error)
}

// LoadCatalog fetches the job catalog once for a session
func LoadCatalog(ctx context.Context, gw Gateway) (domain.JobCatalog, error) {
	jobs, err := gw.FetchJobCatalog(ctx)
	if err != nil {
		return domain.JobCatalog{}, err
	}
	return domain.NewJobCatalog(jobs), nil
}

// Navigator is the capture state machine. Transitions never overlap: a call
// made while another is running fails with ErrTransitionInFlight instead of
// queueing.
type Navigator struct {
	gateway Gateway
	session *Session
	catalog domain.JobCatalog
	logger  *logger.Logger

	mu sync.Mutex
}

// New creates a navigator over session using a catalog fetched once by the caller
func New(gw Gateway, session *Session, catalog domain.JobCatalog, log *logger.Logger) *Navigator {
	return &Navigator{
		gateway: gw,
		session: session,
		catalog: catalog,
		logger:  log.WithComponent("navigator").WithEmployeeID(session.EmployeeID),
	}
}

func (n *Navigator) begin() error {
	if !n.mu.TryLock() {
		return ErrTransitionInFlight
	}
	return nil
}

// ConfirmRange replaces the range, clears all records, moves to the first
// day and loads it.
func (n *Navigator) ConfirmRange(ctx context.Context, r domain.DateRange) (LoadStatus, error) {
	if err := r.Validate(); err != nil {
		return StatusUnvisited, err
	}
	if err := n.begin(); err != nil {
		return StatusUnvisited, err
	}
	defer n.mu.Unlock()

	n.session.reset(r)

	n.logger.Info().
		Str("start", r.Start.String()).
		Str("end", r.End.String()).
		Int("days", len(n.session.days)).
		Msg("date range confirmed")

	return n.enter(ctx)
}

// Advance saves the current day and moves to the next one. On the last day
// it does nothing. When the day fails the save gate the returned result
// lists the deficiencies and the error is ErrDayIncomplete; when the save
// fails the index stays put.
func (n *Navigator) Advance(ctx context.Context) (validation.Result, error) {
	if err := n.begin(); err != nil {
		return validation.Result{}, err
	}
	defer n.mu.Unlock()

	if n.session.rng == nil {
		return validation.Result{}, ErrNoRange
	}
	if n.session.isLast() {
		return validation.Result{}, nil
	}

	res, err := n.save(ctx)
	if err != nil {
		return res, err
	}

	n.session.index++
	_, err = n.enter(ctx)
	return res, err
}

// Save runs the save gate and persists the current day without moving.
// It is how the last day of a range gets saved.
func (n *Navigator) Save(ctx context.Context) (validation.Result, error) {
	if err := n.begin(); err != nil {
		return validation.Result{}, err
	}
	defer n.mu.Unlock()

	if n.session.rng == nil {
		return validation.Result{}, ErrNoRange
	}
	return n.save(ctx)
}

// Retreat moves to the previous day without saving. Edits on the day being
// left stay in the store. On the first day it does nothing.
func (n *Navigator) Retreat(ctx context.Context) (LoadStatus, error) {
	if err := n.begin(); err != nil {
		return StatusUnvisited, err
	}
	defer n.mu.Unlock()

	if n.session.rng == nil {
		return StatusUnvisited, ErrNoRange
	}
	if n.session.index == 0 {
		return n.session.statuses[n.session.currentDate()], nil
	}

	n.session.index--
	return n.enter(ctx)
}

// Edit applies fn to the current day's record and stores the result
func (n *Navigator) Edit(fn func(rec *domain.DayRecord) error) error {
	if err := n.begin(); err != nil {
		return err
	}
	defer n.mu.Unlock()

	if n.session.rng == nil {
		return ErrNoRange
	}

	date := n.session.currentDate()
	rec, ok := n.session.records.Get(date)
	if !ok {
		rec = domain.NewDayRecord(date)
	}
	if err := fn(&rec); err != nil {
		return err
	}
	rec.EnsureSlots()
	n.session.records.Upsert(date, rec)
	return nil
}

// Current returns the day at the current index
func (n *Navigator) Current() (Day, error) {
	if err := n.begin(); err != nil {
		return Day{}, err
	}
	defer n.mu.Unlock()

	if n.session.rng == nil {
		return Day{}, ErrNoRange
	}
	return n.snapshot(), nil
}

// Check runs the save gate on the current day without saving
func (n *Navigator) Check() (validation.Result, error) {
	day, err := n.Current()
	if err != nil {
		return validation.Result{}, err
	}
	return validation.Check(day.Record), nil
}

// Records returns every visited day in ascending date order
func (n *Navigator) Records() []domain.DayRecord {
	return n.session.records.All()
}

// Range returns the confirmed range
func (n *Navigator) Range() (domain.DateRange, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.session.rng == nil {
		return domain.DateRange{}, false
	}
	return *n.session.rng, true
}

// Catalog returns the session's job catalog
func (n *Navigator) Catalog() domain.JobCatalog {
	return n.catalog
}

func (n *Navigator) snapshot() Day {
	date := n.session.currentDate()
	rec, ok := n.session.records.Get(date)
	if !ok {
		rec = domain.NewDayRecord(date)
	}
	return Day{
		Index:  n.session.index,
		Total:  len(n.session.days),
		Date:   date,
		Record: rec,
		Status: n.session.statuses[date],
	}
}

// enter loads the current day from the gateway. A not-found day starts
// empty. Any other failure leaves the store as it was, seeding an empty
// record only when the day has never been loaded.
func (n *Navigator) enter(ctx context.Context) (LoadStatus, error) {
	s := n.session
	date := s.currentDate()
	s.statuses[date] = StatusLoading

	rec, err := n.gateway.FetchDay(ctx, s.EmployeeID, date)
	switch {
	case err == nil && rec != nil:
		loaded := rec.Clone()
		loaded.ExistsOnServer = true
		loaded.EnsureSlots()
		s.records.Upsert(date, loaded)
		s.statuses[date] = StatusLoadedExisting

	case err == nil || errors.Is(err, errors.ErrNotFound):
		s.records.Upsert(date, domain.NewDayRecord(date))
		s.statuses[date] = StatusLoadedEmpty

	default:
		if _, ok := s.records.Get(date); !ok {
			s.records.Upsert(date, domain.NewDayRecord(date))
		}
		s.statuses[date] = StatusError

		n.logger.Warn().Err(err).Str("date", date.String()).Msg("failed to load day")
		return StatusError, err
	}

	n.logger.Debug().
		Str("date", date.String()).
		Str("status", s.statuses[date].String()).
		Msg("entered day")

	return s.statuses[date], nil
}

func (n *Navigator) save(ctx context.Context) (validation.Result, error) {
	s := n.session
	date := s.currentDate()
	rec, ok := s.records.Get(date)
	if !ok {
		rec = domain.NewDayRecord(date)
	}

	res := validation.Check(rec)
	if !res.Complete {
		return res, ErrDayIncomplete
	}

	payload := BuildSavePayload(s.EmployeeID, s.CompanyID, *s.rng, rec, n.catalog)
	if err := n.gateway.SaveDay(ctx, payload); err != nil {
		n.logger.Warn().Err(err).Str("date", date.String()).Msg("failed to save day")
		return res, err
	}

	rec.ExistsOnServer = true
	s.records.Upsert(date, rec)

	n.logger.Info().
		Str("date", date.String()).
		Str("period_close", payload.PeriodClose.String()).
		Msg("day saved")

	return res, nil
}
