package schedule

import "github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"

var (
	ErrPolicyNotFound     = apperror.NotFound("attendance policy not found")
	ErrPolicyInUse        = apperror.Conflict("attendance policy is referenced by a shift assignment")
	ErrShiftNotFound      = apperror.NotFound("shift not found")
	ErrShiftInUse         = apperror.Conflict("shift is referenced by a shift assignment")
	ErrHolidayNotFound    = apperror.NotFound("holiday not found")
	ErrHolidayExists      = apperror.Conflict("a holiday already exists on this date")
	ErrAssignmentNotFound = apperror.NotFound("shift assignment not found")

	// ErrOverlappingAssignment is returned when an edit would leave two
	// active assignments covering the same date for one employee.
	ErrOverlappingAssignment = apperror.Conflict("shift assignment overlaps another active assignment")
	ErrNoEmployeesInScope    = apperror.Validation("assignment scope resolved to zero employees")
)
