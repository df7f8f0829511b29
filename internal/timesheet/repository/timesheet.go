package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/pkg/database"
	"github.com/medflow/timesheet/pkg/errors"
	"github.com/shopspring/decimal"
)

// DayRow is a persisted timesheet day
type DayRow struct {
	ID          string      `db:"id"`
	EmployeeID  string      `db:"employee_id"`
	CompanyID   string      `db:"company_id"`
	WorkDate    domain.Date `db:"work_date"`
	PeriodClose domain.Date `db:"period_close"`
	Shift       string      `db:"shift"`
	TimeIn      string      `db:"time_in"`
	TimeOut     string      `db:"time_out"`
}

// TaskRow is a persisted task line; the extra task of a day has IsExtra set
type TaskRow struct {
	ID             string          `db:"id"`
	DayID          string          `db:"day_id"`
	Position       int             `db:"position"`
	Description    string          `db:"description"`
	Hours          decimal.Decimal `db:"hours"`
	JobID          string          `db:"job_id"`
	JobNumber      string          `db:"job_number"`
	JobDescription string          `db:"job_description"`
	ClassCode      string          `db:"class_code"`
	IsExtra        bool            `db:"is_extra"`
}

// SaveResult describes a stored day
type SaveResult struct {
	DayID   string
	Created bool
}

// TimesheetRepository handles timesheet day persistence. Queries use "?"
// bind vars and are rebound for the connected driver.
type TimesheetRepository struct {
	db *database.DB
}

// NewTimesheetRepository creates a new timesheet repository
func NewTimesheetRepository(db *database.DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

// GetDay returns the stored day of an employee or a NotFound error
func (r *TimesheetRepository) GetDay(ctx context.Context, employeeID string, date domain.Date) (*domain.DayRecord, error) {
	var day DayRow
	query := r.db.Rebind(`
		SELECT id, employee_id, company_id, work_date, period_close, shift, time_in, time_out
		FROM timesheet_days
		WHERE employee_id = ? AND work_date = ?
	`)
	if err := r.db.GetContext(ctx, &day, query, employeeID, date); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("timesheet_day")
		}
		return nil, fmt.Errorf("failed to get timesheet day: %w", err)
	}

	tasks, err := r.tasksFor(ctx, []string{day.ID})
	if err != nil {
		return nil, err
	}

	rec := toRecord(day, tasks[day.ID])
	return &rec, nil
}

// ListDays returns the stored days of an employee within rng, ascending
func (r *TimesheetRepository) ListDays(ctx context.Context, employeeID string, rng domain.DateRange) ([]domain.DayRecord, error) {
	var days []DayRow
	query := r.db.Rebind(`
		SELECT id, employee_id, company_id, work_date, period_close, shift, time_in, time_out
		FROM timesheet_days
		WHERE employee_id = ? AND work_date >= ? AND work_date <= ?
		ORDER BY work_date
	`)
	if err := r.db.SelectContext(ctx, &days, query, employeeID, rng.Start, rng.End); err != nil {
		return nil, fmt.Errorf("failed to list timesheet days: %w", err)
	}

	records := make([]domain.DayRecord, 0, len(days))
	if len(days) == 0 {
		return records, nil
	}

	ids := make([]string, 0, len(days))
	for _, d := range days {
		ids = append(ids, d.ID)
	}
	tasks, err := r.tasksFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, d := range days {
		records = append(records, toRecord(d, tasks[d.ID]))
	}
	return records, nil
}

// SaveDay upserts the day and replaces its tasks in one transaction
func (r *TimesheetRepository) SaveDay(ctx context.Context, p *domain.SavePayload, savedBy string) (*SaveResult, error) {
	res := &SaveResult{}

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var existing string
		err := tx.GetContext(ctx, &existing, tx.Rebind(
			`SELECT id FROM timesheet_days WHERE employee_id = ? AND work_date = ?`),
			p.EmployeeID, p.Date)
		switch {
		case stderrors.Is(err, sql.ErrNoRows):
			res.Created = true
			existing = uuid.New().String()
		case err != nil:
			return fmt.Errorf("failed to look up timesheet day: %w", err)
		}

		upsert := tx.Rebind(`
			INSERT INTO timesheet_days (
				id, employee_id, company_id, work_date, period_close,
				shift, time_in, time_out, created_by
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (employee_id, work_date) DO UPDATE SET
				company_id = excluded.company_id,
				period_close = excluded.period_close,
				shift = excluded.shift,
				time_in = excluded.time_in,
				time_out = excluded.time_out,
				updated_at = CURRENT_TIMESTAMP
			RETURNING id
		`)
		if err := tx.GetContext(ctx, &res.DayID, upsert,
			existing, p.EmployeeID, p.CompanyID, p.Date, p.PeriodClose,
			string(p.Shift), p.TimeIn, p.TimeOut, savedBy,
		); err != nil {
			return mapError(err, "failed to save timesheet day")
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM timesheet_tasks WHERE day_id = ?`), res.DayID); err != nil {
			return fmt.Errorf("failed to clear tasks: %w", err)
		}

		rows := taskRows(res.DayID, p)
		insert := `
			INSERT INTO timesheet_tasks (
				id, day_id, position, description, hours,
				job_id, job_number, job_description, class_code, is_extra
			) VALUES (
				:id, :day_id, :position, :description, :hours,
				:job_id, :job_number, :job_description, :class_code, :is_extra
			)
		`
		for _, row := range rows {
			if _, err := tx.NamedExecContext(ctx, insert, row); err != nil {
				return mapError(err, "failed to save task")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// DeleteDay removes a stored day and its tasks
func (r *TimesheetRepository) DeleteDay(ctx context.Context, employeeID string, date domain.Date) error {
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var id string
		err := tx.GetContext(ctx, &id, tx.Rebind(
			`SELECT id FROM timesheet_days WHERE employee_id = ? AND work_date = ?`), employeeID, date)
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NotFound("timesheet_day")
		}
		if err != nil {
			return fmt.Errorf("failed to look up timesheet day: %w", err)
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM timesheet_tasks WHERE day_id = ?`), id); err != nil {
			return fmt.Errorf("failed to delete tasks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM timesheet_days WHERE id = ?`), id); err != nil {
			return fmt.Errorf("failed to delete timesheet day: %w", err)
		}
		return nil
	})
}

func (r *TimesheetRepository) tasksFor(ctx context.Context, dayIDs []string) (map[string][]TaskRow, error) {
	query, args, err := sqlx.In(`
		SELECT id, day_id, position, description, hours,
			job_id, job_number, job_description, class_code, is_extra
		FROM timesheet_tasks
		WHERE day_id IN (?)
		ORDER BY day_id, position
	`, dayIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build task query: %w", err)
	}

	var rows []TaskRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	byDay := make(map[string][]TaskRow, len(dayIDs))
	for _, row := range rows {
		byDay[row.DayID] = append(byDay[row.DayID], row)
	}
	return byDay, nil
}

func taskRows(dayID string, p *domain.SavePayload) []TaskRow {
	rows := make([]TaskRow, 0, len(p.Tasks)+1)
	for i, t := range p.Tasks {
		rows = append(rows, newTaskRow(dayID, i, t, false))
	}
	if p.ExtraTask != nil {
		rows = append(rows, newTaskRow(dayID, len(p.Tasks), *p.ExtraTask, true))
	}
	return rows
}

func newTaskRow(dayID string, position int, t domain.PayloadTask, extra bool) TaskRow {
	return TaskRow{
		ID:             uuid.New().String(),
		DayID:          dayID,
		Position:       position,
		Description:    t.Description,
		Hours:          t.Hours,
		JobID:          t.JobID,
		JobNumber:      t.JobNumber,
		JobDescription: t.JobDescription,
		ClassCode:      t.ClassCode,
		IsExtra:        extra,
	}
}

func toRecord(day DayRow, tasks []TaskRow) domain.DayRecord {
	rec := domain.DayRecord{
		Date:           day.WorkDate,
		Shift:          domain.Shift(day.Shift),
		Tasks:          make([]domain.Task, 0, len(tasks)),
		ExistsOnServer: true,
	}
	if in, err := domain.ParseTimeOfDay(day.TimeIn); err == nil {
		rec.TimeIn = &in
	}
	if out, err := domain.ParseTimeOfDay(day.TimeOut); err == nil {
		rec.TimeOut = &out
	}

	for _, row := range tasks {
		t := domain.Task{
			Description: row.Description,
			Hours:       decimal.NewNullDecimal(row.Hours),
			JobID:       row.JobID,
			ClassCode:   row.ClassCode,
			IsExtra:     row.IsExtra,
		}
		if row.IsExtra {
			rec.ExtraTask = &t
			continue
		}
		rec.Tasks = append(rec.Tasks, t)
	}
	return rec
}

func mapError(err error, msg string) error {
	if appErr := database.MapDBError(err); appErr != nil {
		return appErr
	}
	return fmt.Errorf("%s: %w", msg, err)
}
