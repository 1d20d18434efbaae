package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
)

type resolverImpl struct {
	assignmentRepo schedule.AssignmentRepository
	holidayRepo    schedule.HolidayRepository
	leaveRepo      leave.LeaveRequestRepository
}

// NewResolver answers assignment, holiday and approved-leave lookups for
// the attendance engine.
func NewResolver(
	assignmentRepo schedule.AssignmentRepository,
	holidayRepo schedule.HolidayRepository,
	leaveRepo leave.LeaveRequestRepository,
) schedule.Resolver {
	return &resolverImpl{
		assignmentRepo: assignmentRepo,
		holidayRepo:    holidayRepo,
		leaveRepo:      leaveRepo,
	}
}

// Resolve implements schedule.Resolver. It returns nil when the employee
// has no active assignment covering date.
func (r *resolverImpl) Resolve(ctx context.Context, companyID string, employeeID string, date time.Time) (*schedule.EmployeeShiftAssignment, error) {
	a, err := r.assignmentRepo.GetEffective(ctx, companyID, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get effective assignment: %w", err)
	}
	return a, nil
}

// IsHoliday implements schedule.Resolver.
func (r *resolverImpl) IsHoliday(ctx context.Context, companyID string, date time.Time) (bool, error) {
	return r.holidayRepo.IsHoliday(ctx, companyID, date)
}

// HasApprovedLeave implements schedule.Resolver.
func (r *resolverImpl) HasApprovedLeave(ctx context.Context, companyID string, employeeID string, date time.Time) (bool, error) {
	return r.leaveRepo.HasApprovedLeave(ctx, companyID, employeeID, date)
}
