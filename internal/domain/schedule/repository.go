package schedule

import (
	"context"
	"time"
)

// All methods take companyID to keep reads and writes tenant-scoped.

type PolicyRepository interface {
	Create(ctx context.Context, policy AttendancePolicy) (AttendancePolicy, error)
	GetByID(ctx context.Context, id string, companyID string) (AttendancePolicy, error)
	List(ctx context.Context, companyID string) ([]AttendancePolicy, error)
	Update(ctx context.Context, policy AttendancePolicy) (AttendancePolicy, error)
	Delete(ctx context.Context, id string, companyID string) error

	// IsReferenced reports whether any assignment, active or not, uses the policy.
	IsReferenced(ctx context.Context, id string, companyID string) (bool, error)
}

type ShiftRepository interface {
	Create(ctx context.Context, shift Shift) (Shift, error)
	GetByID(ctx context.Context, id string, companyID string) (Shift, error)
	List(ctx context.Context, companyID string) ([]Shift, error)
	Update(ctx context.Context, shift Shift) (Shift, error)
	Delete(ctx context.Context, id string, companyID string) error
	IsReferenced(ctx context.Context, id string, companyID string) (bool, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, assignment EmployeeShiftAssignment) (EmployeeShiftAssignment, error)
	GetByID(ctx context.Context, id string, companyID string) (EmployeeShiftAssignment, error)
	Update(ctx context.Context, assignment EmployeeShiftAssignment) (EmployeeShiftAssignment, error)
	Delete(ctx context.Context, id string, companyID string) error

	// ListByEmployee returns every assignment of the employee, newest
	// effective_from first.
	ListByEmployee(ctx context.Context, companyID string, employeeID string) ([]EmployeeShiftAssignment, error)

	// GetEffective returns the active assignment covering date with Policy
	// and Shift populated, or nil when the employee has none.
	GetEffective(ctx context.Context, companyID string, employeeID string, date time.Time) (*EmployeeShiftAssignment, error)

	// GetEffectiveForEmployees is the batch form of GetEffective, keyed by
	// employee id. Employees without an assignment are absent from the map.
	GetEffectiveForEmployees(ctx context.Context, companyID string, employeeIDs []string, date time.Time) (map[string]EmployeeShiftAssignment, error)

	// LockEmployee serializes assignment writes for one employee until the
	// surrounding transaction ends.
	LockEmployee(ctx context.Context, companyID string, employeeID string) error
}

type HolidayRepository interface {
	Create(ctx context.Context, holiday Holiday) (Holiday, error)
	GetByID(ctx context.Context, id string, companyID string) (Holiday, error)
	List(ctx context.Context, companyID string, filter HolidayFilter) ([]Holiday, error)
	Update(ctx context.Context, holiday Holiday) (Holiday, error)
	Delete(ctx context.Context, id string, companyID string) error
	IsHoliday(ctx context.Context, companyID string, date time.Time) (bool, error)
}
