package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// assignmentPlan is what has to change among an employee's assignments
// before a new one over [from, to] can be inserted.
type assignmentPlan struct {
	// close holds assignments starting before from, with EffectiveTo moved
	// to the day before from.
	close []schedule.EmployeeShiftAssignment
	// deactivate holds assignments starting on or after from.
	deactivate []schedule.EmployeeShiftAssignment
}

func planAssignment(existing []schedule.EmployeeShiftAssignment, from time.Time, to *time.Time) assignmentPlan {
	var plan assignmentPlan
	for _, a := range existing {
		if !a.IsActive || !a.Overlaps(from, to) {
			continue
		}
		if a.EffectiveFrom.Before(from) {
			end := dateutil.AddDays(from, -1)
			a.EffectiveTo = &end
			plan.close = append(plan.close, a)
			continue
		}
		a.IsActive = false
		plan.deactivate = append(plan.deactivate, a)
	}
	return plan
}

// CreateAssignments implements schedule.ScheduleService. The whole batch
// commits or none of it does.
func (s *scheduleServiceImpl) CreateAssignments(ctx context.Context, req schedule.CreateAssignmentsRequest) ([]schedule.AssignmentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	from, to := req.Range()

	weekoff := req.WeekoffDays.Normalize()
	if len(weekoff) == 0 {
		weekoff = schedule.DefaultWeekoff()
	}

	policy, shift, err := s.loadPolicyAndShift(ctx, req.CompanyID, req.PolicyID, req.ShiftID)
	if err != nil {
		return nil, err
	}

	employees, err := s.resolveScope(ctx, req)
	if err != nil {
		return nil, err
	}

	created := make([]schedule.EmployeeShiftAssignment, 0, len(employees))
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, emp := range employees {
			if err := s.assignmentRepo.LockEmployee(ctx, req.CompanyID, emp.ID); err != nil {
				return fmt.Errorf("failed to lock employee assignments: %w", err)
			}

			existing, err := s.assignmentRepo.ListByEmployee(ctx, req.CompanyID, emp.ID)
			if err != nil {
				return fmt.Errorf("failed to list employee assignments: %w", err)
			}

			plan := planAssignment(existing, from, to)
			for _, a := range plan.deactivate {
				if _, err := s.assignmentRepo.Update(ctx, a); err != nil {
					return fmt.Errorf("failed to deactivate assignment %s: %w", a.ID, err)
				}
			}
			for _, a := range plan.close {
				if _, err := s.assignmentRepo.Update(ctx, a); err != nil {
					return fmt.Errorf("failed to close assignment %s: %w", a.ID, err)
				}
			}

			a, err := s.assignmentRepo.Create(ctx, schedule.EmployeeShiftAssignment{
				CompanyID:     req.CompanyID,
				EmployeeID:    emp.ID,
				PolicyID:      policy.ID,
				ShiftID:       shift.ID,
				EffectiveFrom: from,
				EffectiveTo:   to,
				WeekoffDays:   weekoff,
				IsActive:      true,
			})
			if err != nil {
				return fmt.Errorf("failed to create assignment: %w", err)
			}
			a.Policy = &policy
			a.Shift = &shift
			created = append(created, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]schedule.AssignmentResponse, 0, len(created))
	for _, a := range created {
		out = append(out, schedule.NewAssignmentResponse(a))
	}
	return out, nil
}

// UpdateAssignment implements schedule.ScheduleService. Unlike creation, an
// edit never moves other assignments; it fails when the result would
// overlap another active assignment.
func (s *scheduleServiceImpl) UpdateAssignment(ctx context.Context, req schedule.UpdateAssignmentRequest) (schedule.AssignmentResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.AssignmentResponse{}, err
	}

	var updated schedule.EmployeeShiftAssignment
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		a, err := s.assignmentRepo.GetByID(ctx, req.ID, req.CompanyID)
		if err != nil {
			return err
		}
		if err := s.assignmentRepo.LockEmployee(ctx, req.CompanyID, a.EmployeeID); err != nil {
			return fmt.Errorf("failed to lock employee assignments: %w", err)
		}

		req.Apply(&a)
		if a.EffectiveTo != nil && a.EffectiveTo.Before(a.EffectiveFrom) {
			return fieldError("effective_to", "effective_to must not be before effective_from")
		}

		policy, shift, err := s.loadPolicyAndShift(ctx, req.CompanyID, a.PolicyID, a.ShiftID)
		if err != nil {
			return err
		}

		if a.IsActive {
			others, err := s.assignmentRepo.ListByEmployee(ctx, req.CompanyID, a.EmployeeID)
			if err != nil {
				return fmt.Errorf("failed to list employee assignments: %w", err)
			}
			for _, o := range others {
				if o.ID != a.ID && o.IsActive && o.Overlaps(a.EffectiveFrom, a.EffectiveTo) {
					return schedule.ErrOverlappingAssignment
				}
			}
		}

		updated, err = s.assignmentRepo.Update(ctx, a)
		if err != nil {
			return err
		}
		updated.Policy = &policy
		updated.Shift = &shift
		return nil
	})
	if err != nil {
		return schedule.AssignmentResponse{}, err
	}
	return schedule.NewAssignmentResponse(updated), nil
}

// DeleteAssignment implements schedule.ScheduleService. Soft deletion
// deactivates the assignment and keeps it for history.
func (s *scheduleServiceImpl) DeleteAssignment(ctx context.Context, req schedule.DeleteAssignmentRequest) error {
	if req.Hard {
		return s.assignmentRepo.Delete(ctx, req.ID, req.CompanyID)
	}

	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		a, err := s.assignmentRepo.GetByID(ctx, req.ID, req.CompanyID)
		if err != nil {
			return err
		}
		if !a.IsActive {
			return nil
		}
		a.IsActive = false
		_, err = s.assignmentRepo.Update(ctx, a)
		return err
	})
}

// ListAssignments implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ListAssignments(ctx context.Context, companyID string, employeeID string) ([]schedule.AssignmentResponse, error) {
	if _, err := s.employeeRepo.GetByID(ctx, employeeID, companyID); err != nil {
		return nil, err
	}
	assignments, err := s.assignmentRepo.ListByEmployee(ctx, companyID, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employee assignments: %w", err)
	}
	out := make([]schedule.AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, schedule.NewAssignmentResponse(a))
	}
	return out, nil
}

// loadPolicyAndShift reports unknown references as validation errors.
func (s *scheduleServiceImpl) loadPolicyAndShift(ctx context.Context, companyID, policyID, shiftID string) (schedule.AttendancePolicy, schedule.Shift, error) {
	var errs validator.ValidationErrors

	policy, err := s.policyRepo.GetByID(ctx, policyID, companyID)
	if err != nil {
		if !errors.Is(err, schedule.ErrPolicyNotFound) {
			return schedule.AttendancePolicy{}, schedule.Shift{}, fmt.Errorf("failed to get attendance policy: %w", err)
		}
		errs.Add("policy_id", "policy_id does not reference an existing attendance policy")
	}

	shift, err := s.shiftRepo.GetByID(ctx, shiftID, companyID)
	if err != nil {
		if !errors.Is(err, schedule.ErrShiftNotFound) {
			return schedule.AttendancePolicy{}, schedule.Shift{}, fmt.Errorf("failed to get shift: %w", err)
		}
		errs.Add("shift_id", "shift_id does not reference an existing shift")
	}

	return policy, shift, errs.Err()
}

// resolveScope returns the target employees of an assignment request,
// ordered by id.
func (s *scheduleServiceImpl) resolveScope(ctx context.Context, req schedule.CreateAssignmentsRequest) ([]employee.Employee, error) {
	var (
		employees []employee.Employee
		err       error
	)
	switch req.Scope {
	case schedule.ScopeEmployees:
		ids := dedupe(req.EmployeeIDs)
		employees, err = s.employeeRepo.GetByIDs(ctx, ids, req.CompanyID)
		if err == nil && len(employees) != len(ids) {
			return nil, fieldError("employee_ids", "employee_ids contains unknown employees: "+strings.Join(missingIDs(ids, employees), ", "))
		}
	case schedule.ScopeDepartment:
		employees, err = s.employeeRepo.ListActiveByDepartment(ctx, req.CompanyID, *req.ScopeValue)
	case schedule.ScopeDesignation:
		employees, err = s.employeeRepo.ListActiveByDesignation(ctx, req.CompanyID, *req.ScopeValue)
	case schedule.ScopeAll:
		employees, err = s.employeeRepo.ListActive(ctx, req.CompanyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assignment scope: %w", err)
	}
	if len(employees) == 0 {
		return nil, schedule.ErrNoEmployeesInScope
	}

	sort.Slice(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })
	return employees, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func missingIDs(ids []string, found []employee.Employee) []string {
	have := make(map[string]bool, len(found))
	for _, e := range found {
		have[e.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !have[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

func fieldError(field, message string) error {
	var errs validator.ValidationErrors
	errs.Add(field, message)
	return errs.Err()
}
