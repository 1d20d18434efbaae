package attendance

import (
	"errors"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
)

func (s *attendanceServiceImpl) dayResponse(d day, onLeave bool) attendance.DayResponse {
	return attendance.DayResponse{
		Summary:         attendance.NewSummaryResponse(d.summary, s.loc),
		Punches:         attendance.NewPunchResponses(d.punches, s.loc),
		Assignment:      assignmentResponse(d.assignment),
		OnApprovedLeave: onLeave,
	}
}

func assignmentResponse(a *schedule.EmployeeShiftAssignment) *schedule.AssignmentResponse {
	if a == nil {
		return nil
	}
	resp := schedule.NewAssignmentResponse(*a)
	return &resp
}

func isClientError(err error) bool {
	return errors.Is(err, apperror.ErrConflict) ||
		errors.Is(err, apperror.ErrValidation) ||
		errors.Is(err, apperror.ErrNotFound)
}
