package repository_test

import (
	"testing"

	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/internal/timesheet/repository"
	"github.com/medflow/timesheet/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPostgres_SaveAndList runs the repository against a real PostgreSQL
// started with testcontainers. It needs Docker and TIMESHEET_INTEGRATION=1.
func TestPostgres_SaveAndList(t *testing.T) {
	testutil.SkipUnlessIntegration(t)

	ctx := testutil.DefaultTestContext(t)
	suite, err := testutil.NewIntegrationSuite(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { testutil.TerminateContainer(ctx) })

	require.NoError(t, repository.EnsureSchema(ctx, suite.DB))
	suite.Truncate(t, ctx, "timesheet_tasks", "timesheet_days", "jobs")

	jobs := repository.NewJobRepository(suite.DB)
	job := suite.Fixtures.Job()
	require.NoError(t, jobs.Upsert(ctx, &job))

	repo := repository.NewTimesheetRepository(suite.DB)
	for _, d := range []string{"2025-07-09", "2025-07-10"} {
		_, err := repo.SaveDay(ctx, testutil.WithExtraTask(suite.Fixtures.Payload("emp-1", d, job), job, "0.75"), "user-1")
		require.NoError(t, err)
	}

	rng, err := domain.NewDateRange("2025-07-01", "2025-07-31")
	require.NoError(t, err)
	days, err := repo.ListDays(ctx, "emp-1", rng)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2025-07-09", days[0].Date.String())
	assert.Equal(t, "6", days[0].Tasks[0].Hours.Decimal.String())
	require.NotNil(t, days[1].ExtraTask)
	assert.Equal(t, "0.75", days[1].ExtraTask.Hours.Decimal.String())
}
