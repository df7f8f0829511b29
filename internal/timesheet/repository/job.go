package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/pkg/database"
	"github.com/medflow/timesheet/pkg/errors"
)

// JobRepository handles the job catalog
type JobRepository struct {
	db *database.DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *database.DB) *JobRepository {
	return &JobRepository{db: db}
}

// List returns the active jobs ordered by job number
func (r *JobRepository) List(ctx context.Context) ([]domain.Job, error) {
	jobs := make([]domain.Job, 0)
	query := r.db.Rebind(`
		SELECT id, job_number, description, company_name
		FROM jobs
		WHERE is_active = ?
		ORDER BY job_number
	`)
	if err := r.db.SelectContext(ctx, &jobs, query, true); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// Get returns a job by ID
func (r *JobRepository) Get(ctx context.Context, id string) (*domain.Job, error) {
	var job domain.Job
	query := r.db.Rebind(`SELECT id, job_number, description, company_name FROM jobs WHERE id = ?`)
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("job")
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// Upsert creates or updates a job, assigning an ID when empty
func (r *JobRepository) Upsert(ctx context.Context, job *domain.Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	query := r.db.Rebind(`
		INSERT INTO jobs (id, job_number, description, company_name, is_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			job_number = excluded.job_number,
			description = excluded.description,
			company_name = excluded.company_name,
			is_active = excluded.is_active,
			updated_at = CURRENT_TIMESTAMP
	`)
	if _, err := r.db.ExecContext(ctx, query, job.ID, job.JobNumber, job.Description, job.CompanyName, true); err != nil {
		return mapError(err, "failed to save job")
	}
	return nil
}

// Deactivate hides a job from the catalog without breaking stored tasks
func (r *JobRepository) Deactivate(ctx context.Context, id string) error {
	query := r.db.Rebind(`UPDATE jobs SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)
	result, err := r.db.ExecContext(ctx, query, false, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate job: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return errors.NotFound("job")
	}
	return nil
}
