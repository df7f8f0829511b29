package validation

import (
	"testing"

	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/pkg/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(shift domain.Shift, in, out string, hours ...string) domain.DayRecord {
	rec := domain.DayRecord{Date: domain.MustParseDate("2025-07-09"), Shift: shift}
	if in != "" {
		rec.TimeIn = domain.TimeAt(in)
	}
	if out != "" {
		rec.TimeOut = domain.TimeAt(out)
	}
	for _, h := range hours {
		rec.Tasks = append(rec.Tasks, domain.Task{
			Description: "Ward rounds",
			Hours:       domain.Hours(h),
			JobID:       "job-1",
		})
	}
	return rec
}

func codes(r Result) []Code {
	out := make([]Code, 0, len(r.Deficiencies))
	for _, d := range r.Deficiencies {
		out = append(out, d.Code)
	}
	return out
}

func TestCheck_ExactWindowPasses(t *testing.T) {
	res := Check(day(domain.ShiftDay, "07:00", "17:00", "6", "4"))

	assert.True(t, res.Complete)
	assert.Empty(t, res.Deficiencies)
	assert.Len(t, res.ValidTasks, 2)
	assert.Equal(t, "10", res.PermittedHours.Decimal.String())
	assert.Equal(t, "10", res.NormalHours.String())
}

func TestCheck_UnderAndOverFilled(t *testing.T) {
	under := Check(day(domain.ShiftDay, "07:00", "17:00", "5", "4"))
	assert.False(t, under.Complete)
	assert.Equal(t, []Code{CodeHoursRemaining}, codes(under))
	assert.Equal(t, map[string]string{"remaining": "1", "permitted": "10"}, under.Deficiencies[0].Params)

	over := Check(day(domain.ShiftDay, "07:00", "17:00", "6", "5"))
	assert.False(t, over.Complete)
	assert.Equal(t, []Code{CodeHoursExceeded}, codes(over))
	assert.Equal(t, "10", over.Deficiencies[0].Params["permitted"])
}

func TestCheck_OvernightWindow(t *testing.T) {
	assert.Equal(t, 8*60, WindowMinutes(domain.MustParseTimeOfDay("22:00"), domain.MustParseTimeOfDay("06:00")))
	assert.Equal(t, "8", PermittedHours(domain.MustParseTimeOfDay("22:00"), domain.MustParseTimeOfDay("06:00")).String())

	res := Check(day(domain.ShiftNight, "22:00", "06:00", "5", "3"))
	assert.True(t, res.Complete)
}

func TestCheck_FractionalWindow(t *testing.T) {
	// 7h20m cannot be written as a finite decimal of hours
	res := Check(day(domain.ShiftDay, "08:00", "15:20", "4", "3"))
	require.Equal(t, []Code{CodeHoursRemaining}, codes(res))
	assert.Equal(t, "0.33", res.Deficiencies[0].Params["remaining"])
	assert.Equal(t, "7.33", res.Deficiencies[0].Params["permitted"])

	half := Check(day(domain.ShiftDay, "08:00", "15:30", "4", "3.5"))
	assert.True(t, half.Complete)
}

func TestCheck_EqualTimesIsZeroWindow(t *testing.T) {
	res := Check(day(domain.ShiftDay, "08:00", "08:00", "4", "4"))
	assert.Equal(t, []Code{CodeHoursExceeded}, codes(res))
	assert.Equal(t, "0", res.PermittedHours.Decimal.String())
}

func TestCheck_ReportsEveryDeficiencyInOrder(t *testing.T) {
	res := Check(domain.NewDayRecord(domain.MustParseDate("2025-07-09")))

	assert.False(t, res.Complete)
	assert.Equal(t, []Code{CodeMissingShift, CodeMissingTimes, CodeInsufficientTasks}, codes(res))
	assert.Equal(t, "2", res.Deficiencies[2].Params["needed"])
	assert.False(t, res.PermittedHours.Valid)
}

func TestCheck_InvalidTasksStillCountTowardHours(t *testing.T) {
	rec := day(domain.ShiftDay, "07:00", "17:00", "6")
	rec.Tasks = append(rec.Tasks, domain.Task{Description: "no job", Hours: domain.Hours("4")})

	res := Check(rec)
	assert.Equal(t, "10", res.NormalHours.String())
	assert.Equal(t, []Code{CodeInsufficientTasks}, codes(res))
	assert.Equal(t, "1", res.Deficiencies[0].Params["needed"])
}

func TestCheck_ExtraTaskExcludedFromNormalHours(t *testing.T) {
	rec := day(domain.ShiftDay, "07:00", "17:00", "6", "4")
	rec.SetExtraTask(&domain.Task{Description: "Inventory", Hours: domain.Hours("2"), JobID: "job-2"})
	rec.Tasks = append(rec.Tasks, domain.Task{Description: "flagged", Hours: domain.Hours("1"), JobID: "job-3", IsExtra: true})

	res := Check(rec)
	assert.True(t, res.Complete)
	assert.Equal(t, "10", res.NormalHours.String())
}

func TestCheck_DoesNotMutate(t *testing.T) {
	rec := day(domain.ShiftDay, "07:00", "17:00", "6")
	before := rec.Clone()

	Check(rec)
	assert.Equal(t, before, rec)
}

func TestResult_Messages(t *testing.T) {
	res := Check(day(domain.ShiftNone, "07:00", "17:00", "6", "5"))

	en := res.Messages(i18n.NewLocalizer(i18n.LocaleEnglish))
	assert.Equal(t, []string{
		"Select a shift for the day",
		"Task hours exceed the permitted 10 hours",
	}, en)

	es := res.Messages(i18n.NewLocalizer(i18n.LocaleSpanish))
	assert.Len(t, es, 2)
	assert.NotEqual(t, en[0], es[0])
	assert.True(t, res.Has(CodeMissingShift))
}
