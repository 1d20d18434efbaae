package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
)

// CalculationInput is everything a daily summary is derived from.
type CalculationInput struct {
	// Punches of the day in punch order.
	Punches    []attendance.Punch
	Assignment *schedule.EmployeeShiftAssignment
	IsHoliday  bool
	IsWeekoff  bool
	// Location is the company time zone used for minutes-of-day.
	Location *time.Location
}

// Calculate derives the summary figures of one day. It has no side effects
// and returns the same figures for the same input.
func Calculate(in CalculationInput) attendance.Figures {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	policy := schedule.DefaultPolicy()
	var shift *schedule.Shift
	if in.Assignment != nil {
		if in.Assignment.Policy != nil {
			policy = *in.Assignment.Policy
		}
		shift = in.Assignment.Shift
	}

	var f attendance.Figures

	for i := range in.Punches {
		p := in.Punches[i]
		if p.PunchType == attendance.PunchIn && (f.FirstInAt == nil || p.PunchAt.Before(*f.FirstInAt)) {
			at := p.PunchAt
			f.FirstInAt = &at
		}
	}
	for i := len(in.Punches) - 1; i >= 0; i-- {
		if in.Punches[i].PunchType == attendance.PunchOut {
			at := in.Punches[i].PunchAt
			f.LastOutAt = &at
			break
		}
	}

	for i := 0; i+1 < len(in.Punches); i++ {
		start, end := in.Punches[i], in.Punches[i+1]
		if start.PunchType == attendance.PunchBreakStart && end.PunchType == attendance.PunchBreakEnd {
			f.BreakMinutes += max(0, dateutil.MinutesBetween(start.PunchAt, end.PunchAt))
		}
	}

	if f.FirstInAt != nil && f.LastOutAt != nil {
		f.WorkMinutes = max(0, dateutil.MinutesBetween(*f.FirstInAt, *f.LastOutAt)-f.BreakMinutes)
	}

	if shift != nil && f.FirstInAt != nil {
		if start, err := shift.StartMinutes(); err == nil {
			f.LateMinutes = max(0, dateutil.MinutesOfDay(*f.FirstInAt, loc)-start-policy.GraceMinutesLate)
		}
	}
	if shift != nil && f.LastOutAt != nil {
		if end, err := shift.EndMinutes(); err == nil {
			f.EarlyMinutes = max(0, end-dateutil.MinutesOfDay(*f.LastOutAt, loc)-policy.GraceMinutesEarly)
		}
	}

	if policy.OvertimeEnabled {
		f.OvertimeMinutes = max(0, f.WorkMinutes-policy.FullDayMinutes)
	}

	f.Status = resolveStatus(in, f, policy)
	return f
}

func resolveStatus(in CalculationInput, f attendance.Figures, policy schedule.AttendancePolicy) attendance.Status {
	if len(in.Punches) == 0 {
		// Approved leave without a punch stays NOT_MARKED.
		switch {
		case in.IsHoliday:
			return attendance.StatusHoliday
		case in.IsWeekoff:
			return attendance.StatusWeekoff
		default:
			return attendance.StatusNotMarked
		}
	}

	if f.FirstInAt != nil {
		if f.LateMinutes > 0 {
			return attendance.StatusLate
		}
		return attendance.StatusPresent
	}

	switch {
	case f.WorkMinutes >= policy.FullDayMinutes && f.LateMinutes > 0:
		return attendance.StatusLate
	case f.WorkMinutes >= policy.FullDayMinutes:
		return attendance.StatusPresent
	case f.WorkMinutes >= policy.HalfDayMinutes:
		return attendance.StatusHalfDay
	default:
		return attendance.StatusAbsent
	}
}
