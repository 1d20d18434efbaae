package attendance

import "github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"

// Punch transition errors
var (
	ErrAlreadyClockedIn     = apperror.Conflict("Already clocked in for today")
	ErrNotClockedIn         = apperror.Conflict("Not clocked in yet")
	ErrAlreadyClockedOut    = apperror.Conflict("Already clocked out for today")
	ErrAlreadyOnBreak       = apperror.Conflict("Already on break")
	ErrBreakAfterClockOut   = apperror.Conflict("Cannot start a break after clocking out")
	ErrNotOnBreak           = apperror.Conflict("No break in progress to end")
	ErrEndBreakBeforeOut    = apperror.Conflict("End the current break before clocking out")
	ErrUnsupportedPunchType = apperror.Validation("unsupported punch type")
)

// Period lock errors
var (
	ErrPeriodLocked  = apperror.Conflict("Attendance period is locked")
	ErrLockNotFound  = apperror.NotFound("attendance lock not found")
	ErrInvalidPeriod = apperror.Validation("period must be in YYYY-MM format")
)

// Regularization errors
var (
	ErrRegularizationNotFound         = apperror.NotFound("regularization request not found")
	ErrRegularizationAlreadyProcessed = apperror.Conflict("regularization request has already been approved or rejected")
)

var (
	ErrSummaryNotFound = apperror.NotFound("daily summary not found")
	ErrNoEmployee      = apperror.Validation("authenticated user is not linked to an employee")
)
