package repository

import (
	"context"
	"fmt"

	"github.com/medflow/timesheet/pkg/database"
)

// schema is written in the subset of SQL shared by postgres and sqlite
var schema = []string{
	`CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		job_number TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		company_name TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS employee_cache (
		employee_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		company_id TEXT NOT NULL DEFAULT '',
		company_name TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS timesheet_days (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		company_id TEXT NOT NULL DEFAULT '',
		work_date DATE NOT NULL,
		period_close DATE NOT NULL,
		shift TEXT NOT NULL CONSTRAINT shift_valid CHECK (shift IN ('day', 'night')),
		time_in TEXT NOT NULL,
		time_out TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT timesheet_days_employee_day_key UNIQUE (employee_id, work_date)
	)`,
	`CREATE TABLE IF NOT EXISTS timesheet_tasks (
		id TEXT PRIMARY KEY,
		day_id TEXT NOT NULL REFERENCES timesheet_days(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		description TEXT NOT NULL,
		hours NUMERIC(6, 2) NOT NULL CONSTRAINT hours_non_negative CHECK (hours >= 0),
		job_id TEXT NOT NULL,
		job_number TEXT NOT NULL DEFAULT '',
		job_description TEXT NOT NULL DEFAULT '',
		class_code TEXT NOT NULL DEFAULT '',
		is_extra BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_timesheet_tasks_day ON timesheet_tasks (day_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_timesheet_days_employee_date ON timesheet_days (employee_id, work_date)`,
}

// EnsureSchema creates the timesheet tables when they do not exist
func EnsureSchema(ctx context.Context, db *database.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
