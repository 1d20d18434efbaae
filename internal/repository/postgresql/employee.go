package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `id, company_id, employee_code, full_name, department, designation,
	employment_status, created_at, updated_at`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(
		&e.ID,
		&e.CompanyID,
		&e.EmployeeCode,
		&e.FullName,
		&e.Department,
		&e.Designation,
		&e.EmploymentStatus,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

func (e *employeeRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// Create implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	if newEmployee.ID == "" {
		newEmployee.ID = newID()
	}
	if newEmployee.EmploymentStatus == "" {
		newEmployee.EmploymentStatus = employee.EmploymentStatusActive
	}

	query := `
		INSERT INTO employees (
			id, company_id, employee_code, full_name, department, designation,
			employment_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING ` + employeeColumns

	created, err := scanEmployee(q.QueryRow(ctx, query,
		newEmployee.ID,
		newEmployee.CompanyID,
		newEmployee.EmployeeCode,
		newEmployee.FullName,
		newEmployee.Department,
		newEmployee.Designation,
		newEmployee.EmploymentStatus,
	))
	if err != nil {
		if code, _ := pgErrorCode(err); code == uniqueViolation {
			return employee.Employee{}, employee.ErrEmployeeCodeExists
		}
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}
	return created, nil
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1 AND company_id = $2`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if isNoRows(err) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee with id %s: %w", id, err)
	}
	return emp, nil
}

// GetByIDs implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByIDs(ctx context.Context, ids []string, companyID string) ([]employee.Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + employeeColumns + `
		FROM employees
		WHERE company_id = $1 AND id = ANY($2::uuid[])
		ORDER BY employee_code`
	return e.list(ctx, query, companyID, ids)
}

// ListActive implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActive(ctx context.Context, companyID string) ([]employee.Employee, error) {
	query := `SELECT ` + employeeColumns + `
		FROM employees
		WHERE company_id = $1 AND employment_status = $2
		ORDER BY employee_code`
	return e.list(ctx, query, companyID, employee.EmploymentStatusActive)
}

// ListActiveByDepartment implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActiveByDepartment(ctx context.Context, companyID string, department string) ([]employee.Employee, error) {
	query := `SELECT ` + employeeColumns + `
		FROM employees
		WHERE company_id = $1 AND employment_status = $2 AND department = $3
		ORDER BY employee_code`
	return e.list(ctx, query, companyID, employee.EmploymentStatusActive, department)
}

// ListActiveByDesignation implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActiveByDesignation(ctx context.Context, companyID string, designation string) ([]employee.Employee, error) {
	query := `SELECT ` + employeeColumns + `
		FROM employees
		WHERE company_id = $1 AND employment_status = $2 AND designation = $3
		ORDER BY employee_code`
	return e.list(ctx, query, companyID, employee.EmploymentStatusActive, designation)
}
