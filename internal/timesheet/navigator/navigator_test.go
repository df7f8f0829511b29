package navigator

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/internal/timesheet/validation"
	"github.com/medflow/timesheet/pkg/errors"
	"github.com/medflow/timesheet/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu       sync.Mutex
	days     map[string]domain.DayRecord
	fetchErr map[string]error
	saveErr  error
	fetches  []string
	saves    []*domain.SavePayload
	block    chan struct{}
	entered  chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		days:     make(map[string]domain.DayRecord),
		fetchErr: make(map[string]error),
	}
}

func (g *fakeGateway) FetchDay(ctx context.Context, employeeID string, date domain.Date) (*domain.DayRecord, error) {
	if g.block != nil {
		g.entered <- struct{}{}
		<-g.block
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.fetches = append(g.fetches, date.String())
	if err := g.fetchErr[date.String()]; err != nil {
		return nil, err
	}
	rec, ok := g.days[date.String()]
	if !ok {
		return nil, errors.NotFound("timesheet_day")
	}
	return &rec, nil
}

func (g *fakeGateway) SaveDay(ctx context.Context, payload *domain.SavePayload) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.saveErr != nil {
		return g.saveErr
	}
	g.saves = append(g.saves, payload)
	g.days[payload.Date.String()] = payload.Record()
	return nil
}

func (g *fakeGateway) FetchJobCatalog(ctx context.Context) ([]domain.Job, error) {
	return []domain.Job{{ID: "job-1", JobNumber: "J-100", Description: "Ward"}}, nil
}

func newNavigator(t *testing.T, gw *fakeGateway) *Navigator {
	t.Helper()
	catalog, err := LoadCatalog(context.Background(), gw)
	require.NoError(t, err)
	return New(gw, NewSession("emp-1", "co-1"), catalog, logger.Nop())
}

func mustRange(t *testing.T, start, end string) domain.DateRange {
	t.Helper()
	r, err := domain.NewDateRange(start, end)
	require.NoError(t, err)
	return r
}

func completeDay(rec *domain.DayRecord) error {
	rec.Shift = domain.ShiftDay
	rec.TimeIn = domain.TimeAt("07:00")
	rec.TimeOut = domain.TimeAt("17:00")
	rec.Tasks = []domain.Task{
		{Description: "Rounds", Hours: domain.Hours("6"), JobID: "job-1"},
		{Description: "Charting", Hours: domain.Hours("4"), JobID: "job-1", ClassCode: "C1"},
		{},
	}
	return nil
}

func TestConfirmRange_LoadsFirstDay(t *testing.T) {
	gw := newFakeGateway()
	existing := domain.NewDayRecord(domain.MustParseDate("2025-07-07"))
	existing.Shift = domain.ShiftNight
	gw.days["2025-07-07"] = existing

	nav := newNavigator(t, gw)
	status, err := nav.ConfirmRange(context.Background(), mustRange(t, "2025-07-07", "2025-07-09"))
	require.NoError(t, err)
	assert.Equal(t, StatusLoadedExisting, status)

	day, err := nav.Current()
	require.NoError(t, err)
	assert.Equal(t, 0, day.Index)
	assert.Equal(t, 3, day.Total)
	assert.Equal(t, domain.ShiftNight, day.Record.Shift)
	assert.True(t, day.Record.ExistsOnServer)
	assert.Equal(t, []string{"2025-07-07"}, gw.fetches)
}

func TestConfirmRange_RejectsReversedRange(t *testing.T) {
	nav := newNavigator(t, newFakeGateway())

	_, err := nav.ConfirmRange(context.Background(), domain.DateRange{
		Start: domain.MustParseDate("2025-07-10"),
		End:   domain.MustParseDate("2025-07-09"),
	})
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	_, err = nav.Current()
	assert.ErrorIs(t, err, ErrNoRange)
}

func TestConfirmRange_ResetsRecordsAndIndex(t *testing.T) {
	gw := newFakeGateway()
	nav := newNavigator(t, gw)
	ctx := context.Background()

	_, err := nav.ConfirmRange(ctx, mustRange(t, "2025-07-07", "2025-07-08"))
	require.NoError(t, err)
	require.NoError(t, nav.Edit(completeDay))
	_, err = nav.Advance(ctx)
	require.NoError(t, err)

	_, err = nav.ConfirmRange(ctx, mustRange(t, "2025-08-01", "2025-08-02"))
	require.NoError(t, err)

	day, err := nav.Current()
	require.NoError(t, err)
	assert.Equal(t, 0, day.Index)
	assert.Equal(t, "2025-08-01", day.Date.String())
	require.Len(t, nav.Records(), 1)
	assert.Equal(t, "2025-08-01", nav.Records()[0].Date.String())
}

func TestAdvance_SavesAndMoves(t *testing.T) {
	gw := newFakeGateway()
	nav := newNavigator(t, gw)
	ctx := context.Background()

	_, err := nav.ConfirmRange(ctx, mustRange(t, "2025-07-07", "2025-07-09"))
	require.NoError(t, err)
	require.NoError(t, nav.Edit(completeDay))

	res, err := nav.Advance(ctx)
	require.NoError(t, err)
	assert.True(t, res.Complete)

	require.Len(t, gw.saves, 1)
	saved := gw.saves[0]
	assert.Equal(t, "emp-1", saved.EmployeeID)
	assert.Equal(t, "co-1", saved.CompanyID)
	assert.Equal(t, "2025-07-07", saved.PeriodClose.String())
	assert.Equal(t, "07:00", saved.TimeIn)
	require.Len(t, saved.Tasks, 2, "blank slots are not sent")
	assert.Equal(t, "J-100", saved.Tasks[0].JobNumber)
	assert.Equal(t, "Ward", saved.Tasks[0].JobDescription)

	day, err := nav.Current()
	require.NoError(t, err)
	assert.Equal(t, 1, day.Index)
	assert.Equal(t, StatusLoadedEmpty, day.Status)
	assert.Equal(t, []string{"2025-07-07", "2025-07-08"}, gw.fetches)

	first, ok := nav.session.records.Get(domain.MustParseDate("2025-07-07"))
	require.True(t, ok)
	assert.True(t, first.ExistsOnServer)
}

func TestAdvance_GateFailureKeepsIndex(t *testing.T) {
	gw := newFakeGateway()
	nav := newNavigator(t, gw)
	ctx := context.Background()

	_, err := nav.ConfirmRange(ctx, mustRange(t, "2025-07-07", "2025-07-09"))
	require.NoError(t, err)
	require.NoError(t, nav.Edit(func(rec *domain.DayRecord) error {
		if err := completeDay(rec); err != nil {
			return err
		}
		rec.Tasks[1].Hours = domain.Hours("3")
		return nil
	}))

	res, err := nav.Advance(ctx)
	assert.ErrorIs(t, err, ErrDayIncomplete)
	assert.False(t, res.Complete)
	assert.True(t, res.Has(validation.CodeHoursRemaining))
	assert.Empty(t, gw.saves)

	day, _ := nav.Current()
	assert.Equal(t, 0, day.Index)
}

func TestAdvance_SaveFailureKeepsIndex(t *testing.T) {
	gw := newFakeGateway()
	gw.saveErr = errors.Unavailable("timesheet service unreachable", stderrors.New("connection refused"))
	nav := newNavigator(t, gw)
	ctx := context.Background()

	_, err := nav.ConfirmRange(ctx, mustRange(t, "2025-07-07", "2025-07-09"))
	require.NoError(t, err)
	require.NoError(t, nav.Edit(completeDay))

	_, err = nav.Advance(ctx)
	assert.True(t, errors.Is(err, errors.ErrUnavailable))

	day, _ := nav.Current()
	assert.Equal(t, 0, day.Index)
	assert.False(t, day.Record.ExistsOnServer)
	assert.Len(t, day.Record.Tasks, 3, "local edits survive a failed save")
}

func TestAdvanceAndRetreat_AtBoundsAreNoOps(t *testing.T) {
	gw := newFakeGateway()
	nav := newNavigator(t, gw)
	ctx := context.Background()

	_, err := nav.ConfirmRange(ctx, mustRange(t, "2025-07-07", "2025-07-07"))
	require.NoError(t, err)
	fetches := len(gw.fetches)

	status, err := nav.Retreat(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusLoadedEmpty, status)

	res, err := nav.Advance(ctx)
	require.NoError(t, err)
	assert.False(t, res.Complete)

	day, _ := nav.Current()
	assert.Equal(t, 0, day.Index)
	assert.Len(t, gw.fetches, fetches)
	assert.Empty(t, gw.saves)
}

func TestSave_LastDayClosesPeriodAtRangeEnd(t *testing.T) {
	gw := newFakeGateway()
	nav := newNavigator(t, gw)
	ctx := context.Background()

	_, err := nav.ConfirmRange(ctx, mustRange(t, "2025-07-07", "2025-07-08"))
	require.NoError(t, err)
	require.NoError(t, nav.Edit(completeDay))
	_, err = nav.Advance(ctx)
	require.NoError(t, err)
	require.NoError(t, nav.Edit(completeDay))

	_, err = nav.Save(ctx)
	require.NoError(t, err)

	require.Len(t, gw.saves, 2)
	assert.Equal(t, "2025-07-08", gw.saves[1].PeriodClose.String())
	day, _ := nav.Current()
	assert.True(t, day.IsLast())
}

func TestRetreat_KeepsUnsavedEdits(t *testing.T) {
	gw := newFakeGateway()
	nav := newNavigator(t, gw)
	ctx := context.Background()

	_, err := nav.ConfirmRange(ctx, mustRange(t, "2025-07-07", "2025-07-08"))
	require.NoError(t, err)
	require.NoError(t, nav.Edit(completeDay))
	_, err = nav.Advance(ctx)
	require.NoError(t, err)

	require.NoError(t, nav.Edit(func(rec *domain.DayRecord) error {
		rec.Shift = domain.ShiftNight
		return nil
	}))

	_, err = nav.Retreat(ctx)
	require.NoError(t, err)
	day, _ := nav.Current()
	assert.Equal(t, 0, day.Index)
	assert.Equal(t, StatusLoadedExisting, day.Status)

	second, ok := nav.session.records.Get(domain.MustParseDate("2025-07-08"))
	require.True(t, ok)
	assert.Equal(t, domain.ShiftNight, second.Shift)
	assert.Len(t, gw.saves, 1)
}

func TestEnter_LoadErrorKeepsPreviousState(t *testing.T) {
	gw := newFakeGateway()
	nav := newNavigator(t, gw)
	ctx := context.Background()

	_, err := nav.ConfirmRange(ctx, mustRange(t, "2025-07-07", "2025-07-08"))
	require.NoError(t, err)
	require.NoError(t, nav.Edit(completeDay))
	_, err = nav.Advance(ctx)
	require.NoError(t, err)
	require.NoError(t, nav.Edit(func(rec *domain.DayRecord) error {
		rec.Shift = domain.ShiftNight
		return nil
	}))

	_, err = nav.Retreat(ctx)
	require.NoError(t, err)

	gw.fetchErr["2025-07-08"] = errors.Unavailable("down", nil)
	require.NoError(t, nav.Edit(completeDay))
	_, err = nav.Advance(ctx)
	require.Error(t, err)

	day, _ := nav.Current()
	assert.Equal(t, 1, day.Index)
	assert.Equal(t, StatusError, day.Status)
	assert.Equal(t, domain.ShiftNight, day.Record.Shift, "store untouched by failed load")
}

func TestEnter_ErrorOnFirstVisitSeedsEmptyDay(t *testing.T) {
	gw := newFakeGateway()
	gw.fetchErr["2025-07-07"] = errors.Unavailable("down", nil)
	nav := newNavigator(t, gw)

	status, err := nav.ConfirmRange(context.Background(), mustRange(t, "2025-07-07", "2025-07-08"))
	require.Error(t, err)
	assert.Equal(t, StatusError, status)

	day, err := nav.Current()
	require.NoError(t, err)
	assert.Len(t, day.Record.Tasks, domain.MinTaskSlots)
	assert.NoError(t, nav.Edit(completeDay), "day stays editable")
}

func TestTransitions_AreSerialized(t *testing.T) {
	gw := newFakeGateway()
	gw.block = make(chan struct{})
	gw.entered = make(chan struct{})
	nav := newNavigator(t, gw)

	r := mustRange(t, "2025-07-07", "2025-07-09")
	done := make(chan error)
	go func() {
		_, err := nav.ConfirmRange(context.Background(), r)
		done <- err
	}()

	<-gw.entered
	_, err := nav.Advance(context.Background())
	assert.ErrorIs(t, err, ErrTransitionInFlight)
	assert.ErrorIs(t, nav.Edit(completeDay), ErrTransitionInFlight)

	close(gw.block)
	require.NoError(t, <-done)

	day, err := nav.Current()
	require.NoError(t, err)
	assert.Equal(t, 0, day.Index)
}

func TestNoRange(t *testing.T) {
	nav := newNavigator(t, newFakeGateway())

	_, err := nav.Advance(context.Background())
	assert.ErrorIs(t, err, ErrNoRange)
	_, err = nav.Retreat(context.Background())
	assert.ErrorIs(t, err, ErrNoRange)
	assert.ErrorIs(t, nav.Edit(completeDay), ErrNoRange)
	_, ok := nav.Range()
	assert.False(t, ok)
}
