package attendance

import (
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
)

// ValidateTransition checks whether next may follow the punches already
// recorded for the day. existing must be in punch order. Accepted sequences
// follow IN (BREAK_START BREAK_END)* OUT?.
func ValidateTransition(existing []attendance.Punch, next attendance.PunchType) error {
	var hasIn, hasOut bool
	var latest attendance.PunchType
	for _, p := range existing {
		switch p.PunchType {
		case attendance.PunchIn:
			hasIn = true
		case attendance.PunchOut:
			hasOut = true
		}
		latest = p.PunchType
	}

	switch next {
	case attendance.PunchIn:
		if hasIn {
			return attendance.ErrAlreadyClockedIn
		}
	case attendance.PunchBreakStart:
		if !hasIn {
			return attendance.ErrNotClockedIn
		}
		if hasOut {
			return attendance.ErrBreakAfterClockOut
		}
		if latest == attendance.PunchBreakStart {
			return attendance.ErrAlreadyOnBreak
		}
	case attendance.PunchBreakEnd:
		if latest != attendance.PunchBreakStart {
			return attendance.ErrNotOnBreak
		}
	case attendance.PunchOut:
		if !hasIn {
			return attendance.ErrNotClockedIn
		}
		if hasOut {
			return attendance.ErrAlreadyClockedOut
		}
		if latest == attendance.PunchBreakStart {
			return attendance.ErrEndBreakBeforeOut
		}
	default:
		return attendance.ErrUnsupportedPunchType
	}
	return nil
}
