package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/pkg/database"
	"github.com/medflow/timesheet/pkg/errors"
)

// EmployeeCacheRepository keeps the employee names and companies received
// from staff-service events
type EmployeeCacheRepository struct {
	db *database.DB
}

// NewEmployeeCacheRepository creates a new employee cache repository
func NewEmployeeCacheRepository(db *database.DB) *EmployeeCacheRepository {
	return &EmployeeCacheRepository{db: db}
}

// Set creates or updates a cached employee
func (r *EmployeeCacheRepository) Set(ctx context.Context, emp *domain.Employee) error {
	query := r.db.Rebind(`
		INSERT INTO employee_cache (employee_id, user_id, name, company_id, company_name, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (employee_id) DO UPDATE SET
			user_id = excluded.user_id,
			name = excluded.name,
			company_id = excluded.company_id,
			company_name = excluded.company_name,
			updated_at = CURRENT_TIMESTAMP
	`)
	_, err := r.db.ExecContext(ctx, query, emp.ID, emp.UserID, emp.Name, emp.CompanyID, emp.CompanyName)
	if err != nil {
		return fmt.Errorf("failed to cache employee: %w", err)
	}
	return nil
}

// Get gets a cached employee by ID
func (r *EmployeeCacheRepository) Get(ctx context.Context, employeeID string) (*domain.Employee, error) {
	var emp domain.Employee
	query := r.db.Rebind(`
		SELECT employee_id, user_id, name, company_id, company_name
		FROM employee_cache
		WHERE employee_id = ?
	`)
	if err := r.db.GetContext(ctx, &emp, query, employeeID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("employee")
		}
		return nil, fmt.Errorf("failed to get cached employee: %w", err)
	}
	return &emp, nil
}

// Delete deletes a cached employee
func (r *EmployeeCacheRepository) Delete(ctx context.Context, employeeID string) error {
	query := r.db.Rebind(`DELETE FROM employee_cache WHERE employee_id = ?`)
	_, err := r.db.ExecContext(ctx, query, employeeID)
	return err
}
