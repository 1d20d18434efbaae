// Package fixtures reads YAML seed files for the in-memory backend and
// holiday calendars for import.
package fixtures

import (
	"fmt"
	"io"
	"os"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	"gopkg.in/yaml.v3"
)

// File is the on-disk seed layout. Every row belongs to CompanyID.
type File struct {
	CompanyID   string       `yaml:"company_id"`
	Employees   []Employee   `yaml:"employees"`
	Policies    []Policy     `yaml:"policies"`
	Shifts      []Shift      `yaml:"shifts"`
	Assignments []Assignment `yaml:"assignments"`
	Holidays    []Holiday    `yaml:"holidays"`
	Leaves      []Leave      `yaml:"leaves"`
}

type Employee struct {
	ID          string  `yaml:"id"`
	Code        string  `yaml:"code"`
	Name        string  `yaml:"name"`
	Department  *string `yaml:"department"`
	Designation *string `yaml:"designation"`
	Status      string  `yaml:"status"`
}

type Policy struct {
	ID                string `yaml:"id"`
	Name              string `yaml:"name"`
	FullDayMinutes    int    `yaml:"full_day_minutes"`
	HalfDayMinutes    int    `yaml:"half_day_minutes"`
	GraceMinutesLate  int    `yaml:"grace_minutes_late"`
	GraceMinutesEarly int    `yaml:"grace_minutes_early"`
	OvertimeEnabled   bool   `yaml:"overtime_enabled"`
}

type Shift struct {
	ID              string `yaml:"id"`
	Name            string `yaml:"name"`
	Start           string `yaml:"start"`
	End             string `yaml:"end"`
	AllowedBreaks   int    `yaml:"allowed_breaks"`
	MaxBreakMinutes int    `yaml:"max_break_minutes"`
	PaidBreak       bool   `yaml:"paid_break"`
}

type Assignment struct {
	EmployeeID string   `yaml:"employee_id"`
	PolicyID   string   `yaml:"policy_id"`
	ShiftID    string   `yaml:"shift_id"`
	From       string   `yaml:"from"`
	To         *string  `yaml:"to"`
	Weekoff    []string `yaml:"weekoff"`
}

type Holiday struct {
	Date        string  `yaml:"date"`
	Name        string  `yaml:"name"`
	Description *string `yaml:"description"`
}

type Leave struct {
	EmployeeID string `yaml:"employee_id"`
	From       string `yaml:"from"`
	To         string `yaml:"to"`
	Status     string `yaml:"status"`
}

// Parse decodes a seed file. Unknown keys are rejected.
func Parse(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("failed to decode fixtures: %w", err)
	}
	if f.CompanyID == "" {
		return File{}, fmt.Errorf("fixtures: company_id is required")
	}
	return f, nil
}

// LoadFile parses path and loads it into store.
func LoadFile(store *memory.Store, path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open fixtures: %w", err)
	}
	defer fh.Close()

	f, err := Parse(fh)
	if err != nil {
		return err
	}
	seed, err := f.Seed()
	if err != nil {
		return err
	}
	return store.Load(seed)
}

// Seed converts the file into memory store rows.
func (f File) Seed() (memory.Seed, error) {
	var seed memory.Seed

	for _, e := range f.Employees {
		status := employee.EmploymentStatus(e.Status)
		if status == "" {
			status = employee.EmploymentStatusActive
		}
		seed.Employees = append(seed.Employees, employee.Employee{
			ID:               e.ID,
			CompanyID:        f.CompanyID,
			EmployeeCode:     e.Code,
			FullName:         e.Name,
			Department:       e.Department,
			Designation:      e.Designation,
			EmploymentStatus: status,
		})
	}

	for _, p := range f.Policies {
		policy := schedule.AttendancePolicy{
			ID:                p.ID,
			CompanyID:         f.CompanyID,
			Name:              p.Name,
			FullDayMinutes:    p.FullDayMinutes,
			HalfDayMinutes:    p.HalfDayMinutes,
			GraceMinutesLate:  p.GraceMinutesLate,
			GraceMinutesEarly: p.GraceMinutesEarly,
			OvertimeEnabled:   p.OvertimeEnabled,
		}
		if policy.FullDayMinutes == 0 {
			def := schedule.DefaultPolicy()
			policy.FullDayMinutes, policy.HalfDayMinutes = def.FullDayMinutes, def.HalfDayMinutes
		}
		seed.Policies = append(seed.Policies, policy)
	}

	for _, s := range f.Shifts {
		shift := schedule.Shift{
			ID:        s.ID,
			CompanyID: f.CompanyID,
			Name:      s.Name,
			StartTime: s.Start,
			EndTime:   s.End,
			BreakRules: schedule.BreakRules{
				AllowedBreaks:   s.AllowedBreaks,
				MaxBreakMinutes: s.MaxBreakMinutes,
				Paid:            s.PaidBreak,
			},
		}
		if err := schedule.ValidateShiftWindow(shift); err != nil {
			return memory.Seed{}, fmt.Errorf("fixtures shift %q: %w", s.Name, err)
		}
		seed.Shifts = append(seed.Shifts, shift)
	}

	for i, a := range f.Assignments {
		from, err := dateutil.ParseDate(a.From)
		if err != nil {
			return memory.Seed{}, fmt.Errorf("fixtures assignment %d: %w", i, err)
		}
		assignment := schedule.EmployeeShiftAssignment{
			CompanyID:     f.CompanyID,
			EmployeeID:    a.EmployeeID,
			PolicyID:      a.PolicyID,
			ShiftID:       a.ShiftID,
			EffectiveFrom: from,
			WeekoffDays:   schedule.DefaultWeekoff(),
			IsActive:      true,
		}
		if a.To != nil {
			to, err := dateutil.ParseDate(*a.To)
			if err != nil {
				return memory.Seed{}, fmt.Errorf("fixtures assignment %d: %w", i, err)
			}
			assignment.EffectiveTo = &to
		}
		if a.Weekoff != nil {
			days := make(schedule.WeekoffPattern, 0, len(a.Weekoff))
			for _, name := range a.Weekoff {
				wd, err := dateutil.ParseWeekday(name)
				if err != nil {
					return memory.Seed{}, fmt.Errorf("fixtures assignment %d: %w", i, err)
				}
				days = append(days, wd)
			}
			assignment.WeekoffDays = days.Normalize()
		}
		seed.Assignments = append(seed.Assignments, assignment)
	}

	holidays, err := f.HolidayRows()
	if err != nil {
		return memory.Seed{}, err
	}
	seed.Holidays = holidays

	for i, l := range f.Leaves {
		from, err := dateutil.ParseDate(l.From)
		if err != nil {
			return memory.Seed{}, fmt.Errorf("fixtures leave %d: %w", i, err)
		}
		to, err := dateutil.ParseDate(l.To)
		if err != nil {
			return memory.Seed{}, fmt.Errorf("fixtures leave %d: %w", i, err)
		}
		status := leave.LeaveRequestStatus(l.Status)
		if status == "" {
			status = leave.LeaveRequestStatusApproved
		}
		seed.Leaves = append(seed.Leaves, leave.LeaveRequest{
			CompanyID:  f.CompanyID,
			EmployeeID: l.EmployeeID,
			StartDate:  from,
			EndDate:    to,
			Status:     status,
		})
	}

	return seed, nil
}

func (f File) HolidayRows() ([]schedule.Holiday, error) {
	out := make([]schedule.Holiday, 0, len(f.Holidays))
	for _, h := range f.Holidays {
		date, err := dateutil.ParseDate(h.Date)
		if err != nil {
			return nil, fmt.Errorf("fixtures holiday %q: %w", h.Name, err)
		}
		out = append(out, schedule.Holiday{
			CompanyID:   f.CompanyID,
			Date:        date,
			Name:        h.Name,
			Description: h.Description,
		})
	}
	return out, nil
}

// HolidayCalendar is the import format of `attendancectl holidays import`.
type HolidayCalendar struct {
	Holidays []Holiday `yaml:"holidays"`
}

// ParseHolidayCalendar decodes a calendar into create requests for companyID.
func ParseHolidayCalendar(r io.Reader, companyID string) ([]schedule.CreateHolidayRequest, error) {
	var cal HolidayCalendar
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cal); err != nil {
		return nil, fmt.Errorf("failed to decode holiday calendar: %w", err)
	}

	out := make([]schedule.CreateHolidayRequest, 0, len(cal.Holidays))
	for _, h := range cal.Holidays {
		out = append(out, schedule.CreateHolidayRequest{
			CompanyID:   companyID,
			Date:        h.Date,
			Name:        h.Name,
			Description: h.Description,
		})
	}
	return out, nil
}
