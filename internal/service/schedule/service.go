package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
)

type scheduleServiceImpl struct {
	tx             database.Transactor
	policyRepo     schedule.PolicyRepository
	shiftRepo      schedule.ShiftRepository
	assignmentRepo schedule.AssignmentRepository
	holidayRepo    schedule.HolidayRepository
	employeeRepo   employee.EmployeeRepository
}

func NewScheduleService(
	tx database.Transactor,
	policyRepo schedule.PolicyRepository,
	shiftRepo schedule.ShiftRepository,
	assignmentRepo schedule.AssignmentRepository,
	holidayRepo schedule.HolidayRepository,
	employeeRepo employee.EmployeeRepository,
) schedule.ScheduleService {
	return &scheduleServiceImpl{
		tx:             tx,
		policyRepo:     policyRepo,
		shiftRepo:      shiftRepo,
		assignmentRepo: assignmentRepo,
		holidayRepo:    holidayRepo,
		employeeRepo:   employeeRepo,
	}
}

// ========================================
// POLICIES
// ========================================

// CreatePolicy implements schedule.ScheduleService.
func (s *scheduleServiceImpl) CreatePolicy(ctx context.Context, req schedule.CreatePolicyRequest) (schedule.PolicyResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.PolicyResponse{}, err
	}

	created, err := s.policyRepo.Create(ctx, schedule.AttendancePolicy{
		CompanyID:         req.CompanyID,
		Name:              req.Name,
		FullDayMinutes:    req.FullDayMinutes,
		HalfDayMinutes:    req.HalfDayMinutes,
		GraceMinutesLate:  req.GraceMinutesLate,
		GraceMinutesEarly: req.GraceMinutesEarly,
		OvertimeEnabled:   req.OvertimeEnabled,
		Extensions:        req.Extensions,
	})
	if err != nil {
		return schedule.PolicyResponse{}, fmt.Errorf("failed to create attendance policy: %w", err)
	}
	return schedule.NewPolicyResponse(created), nil
}

// GetPolicy implements schedule.ScheduleService.
func (s *scheduleServiceImpl) GetPolicy(ctx context.Context, id string, companyID string) (schedule.PolicyResponse, error) {
	p, err := s.policyRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return schedule.PolicyResponse{}, err
	}
	return schedule.NewPolicyResponse(p), nil
}

// ListPolicies implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ListPolicies(ctx context.Context, companyID string) ([]schedule.PolicyResponse, error) {
	policies, err := s.policyRepo.List(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance policies: %w", err)
	}
	out := make([]schedule.PolicyResponse, 0, len(policies))
	for _, p := range policies {
		out = append(out, schedule.NewPolicyResponse(p))
	}
	return out, nil
}

// UpdatePolicy implements schedule.ScheduleService.
func (s *scheduleServiceImpl) UpdatePolicy(ctx context.Context, req schedule.UpdatePolicyRequest) (schedule.PolicyResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.PolicyResponse{}, err
	}

	var updated schedule.AttendancePolicy
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		p, err := s.policyRepo.GetByID(ctx, req.ID, req.CompanyID)
		if err != nil {
			return err
		}
		req.Apply(&p)
		if p.HalfDayMinutes > p.FullDayMinutes {
			return fieldError("half_day_minutes", "half_day_minutes must not exceed full_day_minutes")
		}
		updated, err = s.policyRepo.Update(ctx, p)
		return err
	})
	if err != nil {
		return schedule.PolicyResponse{}, err
	}
	return schedule.NewPolicyResponse(updated), nil
}

// DeletePolicy implements schedule.ScheduleService. A policy referenced by
// any assignment cannot be deleted.
func (s *scheduleServiceImpl) DeletePolicy(ctx context.Context, id string, companyID string) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.policyRepo.GetByID(ctx, id, companyID); err != nil {
			return err
		}
		inUse, err := s.policyRepo.IsReferenced(ctx, id, companyID)
		if err != nil {
			return fmt.Errorf("failed to check policy references: %w", err)
		}
		if inUse {
			return schedule.ErrPolicyInUse
		}
		return s.policyRepo.Delete(ctx, id, companyID)
	})
}

// ========================================
// SHIFTS
// ========================================

// CreateShift implements schedule.ScheduleService.
func (s *scheduleServiceImpl) CreateShift(ctx context.Context, req schedule.CreateShiftRequest) (schedule.ShiftResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.ShiftResponse{}, err
	}

	created, err := s.shiftRepo.Create(ctx, schedule.Shift{
		CompanyID:  req.CompanyID,
		Name:       req.Name,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		BreakRules: req.BreakRules,
	})
	if err != nil {
		return schedule.ShiftResponse{}, fmt.Errorf("failed to create shift: %w", err)
	}
	return schedule.NewShiftResponse(created), nil
}

// GetShift implements schedule.ScheduleService.
func (s *scheduleServiceImpl) GetShift(ctx context.Context, id string, companyID string) (schedule.ShiftResponse, error) {
	sh, err := s.shiftRepo.GetByID(ctx, id, companyID)
	if err != nil {
		return schedule.ShiftResponse{}, err
	}
	return schedule.NewShiftResponse(sh), nil
}

// ListShifts implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ListShifts(ctx context.Context, companyID string) ([]schedule.ShiftResponse, error) {
	shifts, err := s.shiftRepo.List(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	out := make([]schedule.ShiftResponse, 0, len(shifts))
	for _, sh := range shifts {
		out = append(out, schedule.NewShiftResponse(sh))
	}
	return out, nil
}

// UpdateShift implements schedule.ScheduleService.
func (s *scheduleServiceImpl) UpdateShift(ctx context.Context, req schedule.UpdateShiftRequest) (schedule.ShiftResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.ShiftResponse{}, err
	}

	var updated schedule.Shift
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		sh, err := s.shiftRepo.GetByID(ctx, req.ID, req.CompanyID)
		if err != nil {
			return err
		}
		req.Apply(&sh)
		if err := schedule.ValidateShiftWindow(sh); err != nil {
			return err
		}
		updated, err = s.shiftRepo.Update(ctx, sh)
		return err
	})
	if err != nil {
		return schedule.ShiftResponse{}, err
	}
	return schedule.NewShiftResponse(updated), nil
}

// DeleteShift implements schedule.ScheduleService.
func (s *scheduleServiceImpl) DeleteShift(ctx context.Context, id string, companyID string) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.shiftRepo.GetByID(ctx, id, companyID); err != nil {
			return err
		}
		inUse, err := s.shiftRepo.IsReferenced(ctx, id, companyID)
		if err != nil {
			return fmt.Errorf("failed to check shift references: %w", err)
		}
		if inUse {
			return schedule.ErrShiftInUse
		}
		return s.shiftRepo.Delete(ctx, id, companyID)
	})
}

// ========================================
// HOLIDAYS
// ========================================

// CreateHoliday implements schedule.ScheduleService.
func (s *scheduleServiceImpl) CreateHoliday(ctx context.Context, req schedule.CreateHolidayRequest) (schedule.HolidayResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.HolidayResponse{}, err
	}
	date, _ := dateutil.ParseDate(req.Date)

	created, err := s.holidayRepo.Create(ctx, schedule.Holiday{
		CompanyID:   req.CompanyID,
		Date:        date,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, schedule.ErrHolidayExists) {
			return schedule.HolidayResponse{}, err
		}
		return schedule.HolidayResponse{}, fmt.Errorf("failed to create holiday: %w", err)
	}
	return schedule.NewHolidayResponse(created), nil
}

// ListHolidays implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ListHolidays(ctx context.Context, companyID string, filter schedule.HolidayFilter) ([]schedule.HolidayResponse, error) {
	holidays, err := s.holidayRepo.List(ctx, companyID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	out := make([]schedule.HolidayResponse, 0, len(holidays))
	for _, h := range holidays {
		out = append(out, schedule.NewHolidayResponse(h))
	}
	return out, nil
}

// UpdateHoliday implements schedule.ScheduleService.
func (s *scheduleServiceImpl) UpdateHoliday(ctx context.Context, req schedule.UpdateHolidayRequest) (schedule.HolidayResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.HolidayResponse{}, err
	}

	var updated schedule.Holiday
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		h, err := s.holidayRepo.GetByID(ctx, req.ID, req.CompanyID)
		if err != nil {
			return err
		}
		if req.Date != nil {
			h.Date, _ = dateutil.ParseDate(*req.Date)
		}
		if req.Name != nil {
			h.Name = *req.Name
		}
		if req.Description != nil {
			h.Description = req.Description
		}
		updated, err = s.holidayRepo.Update(ctx, h)
		return err
	})
	if err != nil {
		return schedule.HolidayResponse{}, err
	}
	return schedule.NewHolidayResponse(updated), nil
}

// DeleteHoliday implements schedule.ScheduleService.
func (s *scheduleServiceImpl) DeleteHoliday(ctx context.Context, id string, companyID string) error {
	return s.holidayRepo.Delete(ctx, id, companyID)
}
