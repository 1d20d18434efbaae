package leave

import (
	"context"
	"time"
)

type LeaveRequestRepository interface {
	Create(ctx context.Context, req LeaveRequest) (LeaveRequest, error)

	// HasApprovedLeave reports whether an approved request of the employee
	// covers date.
	HasApprovedLeave(ctx context.Context, companyID string, employeeID string, date time.Time) (bool, error)
}
