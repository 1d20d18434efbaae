package schedule

import (
	"context"
	"time"
)

// ScheduleService manages policies, shifts, holidays and shift assignments.
type ScheduleService interface {
	CreatePolicy(ctx context.Context, req CreatePolicyRequest) (PolicyResponse, error)
	GetPolicy(ctx context.Context, id string, companyID string) (PolicyResponse, error)
	ListPolicies(ctx context.Context, companyID string) ([]PolicyResponse, error)
	UpdatePolicy(ctx context.Context, req UpdatePolicyRequest) (PolicyResponse, error)
	DeletePolicy(ctx context.Context, id string, companyID string) error

	CreateShift(ctx context.Context, req CreateShiftRequest) (ShiftResponse, error)
	GetShift(ctx context.Context, id string, companyID string) (ShiftResponse, error)
	ListShifts(ctx context.Context, companyID string) ([]ShiftResponse, error)
	UpdateShift(ctx context.Context, req UpdateShiftRequest) (ShiftResponse, error)
	DeleteShift(ctx context.Context, id string, companyID string) error

	CreateHoliday(ctx context.Context, req CreateHolidayRequest) (HolidayResponse, error)
	ListHolidays(ctx context.Context, companyID string, filter HolidayFilter) ([]HolidayResponse, error)
	UpdateHoliday(ctx context.Context, req UpdateHolidayRequest) (HolidayResponse, error)
	DeleteHoliday(ctx context.Context, id string, companyID string) error

	// CreateAssignments resolves the target employees from the request scope
	// and gives each a new assignment, closing or deactivating overlapping
	// active ones.
	CreateAssignments(ctx context.Context, req CreateAssignmentsRequest) ([]AssignmentResponse, error)
	UpdateAssignment(ctx context.Context, req UpdateAssignmentRequest) (AssignmentResponse, error)
	DeleteAssignment(ctx context.Context, req DeleteAssignmentRequest) error
	ListAssignments(ctx context.Context, companyID string, employeeID string) ([]AssignmentResponse, error)
}

// Resolver answers which rules govern an employee on a date.
type Resolver interface {
	Resolve(ctx context.Context, companyID string, employeeID string, date time.Time) (*EmployeeShiftAssignment, error)
	IsHoliday(ctx context.Context, companyID string, date time.Time) (bool, error)
	HasApprovedLeave(ctx context.Context, companyID string, employeeID string, date time.Time) (bool, error)
}
