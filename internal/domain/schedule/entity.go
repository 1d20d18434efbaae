package schedule

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
)

const (
	DefaultFullDayMinutes = 480
	DefaultHalfDayMinutes = 240
)

// AttendancePolicy is a named set of thresholds applied to a working day.
type AttendancePolicy struct {
	ID                string
	CompanyID         string
	Name              string
	FullDayMinutes    int
	HalfDayMinutes    int
	GraceMinutesLate  int
	GraceMinutesEarly int
	OvertimeEnabled   bool
	Extensions        map[string]any
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DefaultPolicy is used when an employee has no assignment for a date.
func DefaultPolicy() AttendancePolicy {
	return AttendancePolicy{
		Name:           "Default",
		FullDayMinutes: DefaultFullDayMinutes,
		HalfDayMinutes: DefaultHalfDayMinutes,
	}
}

type BreakRules struct {
	AllowedBreaks   int  `json:"allowed_breaks"`
	MaxBreakMinutes int  `json:"max_break_minutes"`
	Paid            bool `json:"paid"`
}

// Shift is a named work window. StartTime and EndTime are HH:MM wall-clock
// values in the company time zone.
type Shift struct {
	ID         string
	CompanyID  string
	Name       string
	StartTime  string
	EndTime    string
	BreakRules BreakRules
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (s Shift) StartMinutes() (int, error) {
	return dateutil.ParseClock(s.StartTime)
}

func (s Shift) EndMinutes() (int, error) {
	return dateutil.ParseClock(s.EndTime)
}

// WeekoffPattern is the set of weekdays an employee does not work.
type WeekoffPattern []time.Weekday

func DefaultWeekoff() WeekoffPattern {
	return WeekoffPattern{time.Saturday, time.Sunday}
}

func (p WeekoffPattern) Contains(d time.Weekday) bool {
	for _, wd := range p {
		if wd == d {
			return true
		}
	}
	return false
}

// Normalize sorts and de-duplicates the pattern.
func (p WeekoffPattern) Normalize() WeekoffPattern {
	seen := make(map[time.Weekday]bool, len(p))
	out := make(WeekoffPattern, 0, len(p))
	for _, wd := range p {
		if !seen[wd] {
			seen[wd] = true
			out = append(out, wd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p WeekoffPattern) MarshalJSON() ([]byte, error) {
	names := make([]string, len(p))
	for i, wd := range p {
		names[i] = strings.ToUpper(wd.String()[:3])
	}
	return json.Marshal(names)
}

func (p *WeekoffPattern) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("weekoff_days must be a list of weekday names: %w", err)
	}
	out := make(WeekoffPattern, 0, len(names))
	for _, n := range names {
		wd, err := dateutil.ParseWeekday(n)
		if err != nil {
			return err
		}
		out = append(out, wd)
	}
	*p = out
	return nil
}

// Ints returns the pattern as weekday numbers (0=Sunday) for storage.
func (p WeekoffPattern) Ints() []int16 {
	out := make([]int16, len(p))
	for i, wd := range p {
		out[i] = int16(wd)
	}
	return out
}

func WeekoffFromInts(days []int16) WeekoffPattern {
	out := make(WeekoffPattern, len(days))
	for i, d := range days {
		out[i] = time.Weekday(d)
	}
	return out
}

// EmployeeShiftAssignment binds an employee to a policy and shift over
// [EffectiveFrom, EffectiveTo]. A nil EffectiveTo is open-ended.
type EmployeeShiftAssignment struct {
	ID            string
	CompanyID     string
	EmployeeID    string
	PolicyID      string
	ShiftID       string
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	WeekoffDays   WeekoffPattern
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Joined on resolution
	Policy *AttendancePolicy
	Shift  *Shift
}

// Covers reports whether date falls inside the assignment interval.
func (a EmployeeShiftAssignment) Covers(date time.Time) bool {
	if date.Before(a.EffectiveFrom) {
		return false
	}
	return a.EffectiveTo == nil || !date.After(*a.EffectiveTo)
}

// Overlaps reports whether the assignment interval intersects [from, to].
func (a EmployeeShiftAssignment) Overlaps(from time.Time, to *time.Time) bool {
	if to != nil && a.EffectiveFrom.After(*to) {
		return false
	}
	if a.EffectiveTo != nil && a.EffectiveTo.Before(from) {
		return false
	}
	return true
}

// IsWeekoff reports whether date is a weekoff under the assignment's
// pattern. Without an assignment, or with an empty pattern, Saturday and
// Sunday are weekoffs.
func IsWeekoff(date time.Time, a *EmployeeShiftAssignment) bool {
	pattern := DefaultWeekoff()
	if a != nil && len(a.WeekoffDays) > 0 {
		pattern = a.WeekoffDays
	}
	return pattern.Contains(date.Weekday())
}

type AssignmentScope string

const (
	ScopeEmployees   AssignmentScope = "EMPLOYEES"
	ScopeDepartment  AssignmentScope = "DEPARTMENT"
	ScopeDesignation AssignmentScope = "DESIGNATION"
	ScopeAll         AssignmentScope = "ALL"
)

type Holiday struct {
	ID          string
	CompanyID   string
	Date        time.Time
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
