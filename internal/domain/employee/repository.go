package employee

import "context"

type EmployeeRepository interface {
	Create(ctx context.Context, employee Employee) (Employee, error)
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)

	// GetByIDs returns the employees found among ids; unknown ids are skipped.
	GetByIDs(ctx context.Context, ids []string, companyID string) ([]Employee, error)

	ListActive(ctx context.Context, companyID string) ([]Employee, error)
	ListActiveByDepartment(ctx context.Context, companyID string, department string) ([]Employee, error)
	ListActiveByDesignation(ctx context.Context, companyID string, designation string) ([]Employee, error)
}
