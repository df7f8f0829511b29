package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/medflow/timesheet/pkg/errors"
)

// MapDBError converts driver constraint errors into AppErrors with meaningful messages.
// Returns nil when the error is not a recognized constraint violation.
func MapDBError(err error) *errors.AppError {
	if appErr := MapPQError(err); appErr != nil {
		return appErr
	}
	return mapSQLiteError(err)
}

// MapPQError converts a PostgreSQL error to an AppError.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation
	case "23514":
		return mapCheckConstraint(pqErr.Constraint)

	// Unique constraint violation
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr.Constraint))

	// Foreign key violation
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

func mapSQLiteError(err error) *errors.AppError {
	var liteErr sqlite3.Error
	if !errors.As(err, &liteErr) || liteErr.Code != sqlite3.ErrConstraint {
		return nil
	}

	msg := liteErr.Error()
	switch liteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return errors.Conflict(formatConstraintMessage(msg))
	case sqlite3.ErrConstraintForeignKey:
		return errors.BadRequest("referenced record does not exist")
	case sqlite3.ErrConstraintCheck:
		return mapCheckConstraint(msg)
	default:
		return errors.BadRequest("data validation failed")
	}
}

// mapCheckConstraint maps CHECK constraint names to user-friendly messages.
func mapCheckConstraint(constraint string) *errors.AppError {
	switch {
	case strings.Contains(constraint, "shift_valid"):
		return errors.Validation(map[string]string{
			"shift": "must be one of: day, night",
		})
	case strings.Contains(constraint, "hours_non_negative"):
		return errors.Validation(map[string]string{
			"hours": "must not be negative",
		})
	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(constraint string) string {
	switch {
	case strings.Contains(constraint, "employee_id") || strings.Contains(constraint, "employee_day"):
		return "a timesheet day for this employee and date already exists"
	case strings.Contains(constraint, "job_number"):
		return "a job with this number already exists"
	default:
		return "a record with these values already exists"
	}
}
