package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
)

// ========================================
// POLICIES
// ========================================

type policyRepository struct {
	store *Store
}

func NewPolicyRepository(store *Store) schedule.PolicyRepository {
	return &policyRepository{store: store}
}

func (r *policyRepository) Create(ctx context.Context, p schedule.AttendancePolicy) (schedule.AttendancePolicy, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if p.ID == "" {
		p.ID = newID()
	}
	now := r.store.now()
	p.CreatedAt, p.UpdatedAt = now, now
	r.store.policies[p.ID] = p
	return p, nil
}

func (r *policyRepository) GetByID(ctx context.Context, id string, companyID string) (schedule.AttendancePolicy, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.policies[id]
	if !ok || p.CompanyID != companyID {
		return schedule.AttendancePolicy{}, schedule.ErrPolicyNotFound
	}
	return p, nil
}

func (r *policyRepository) List(ctx context.Context, companyID string) ([]schedule.AttendancePolicy, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []schedule.AttendancePolicy
	for _, p := range r.store.policies {
		if p.CompanyID == companyID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *policyRepository) Update(ctx context.Context, p schedule.AttendancePolicy) (schedule.AttendancePolicy, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.policies[p.ID]
	if !ok || existing.CompanyID != p.CompanyID {
		return schedule.AttendancePolicy{}, schedule.ErrPolicyNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = r.store.now()
	r.store.policies[p.ID] = p
	return p, nil
}

func (r *policyRepository) Delete(ctx context.Context, id string, companyID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.policies[id]
	if !ok || p.CompanyID != companyID {
		return schedule.ErrPolicyNotFound
	}
	for _, a := range r.store.assignments {
		if a.PolicyID == id {
			return schedule.ErrPolicyInUse
		}
	}
	delete(r.store.policies, id)
	return nil
}

func (r *policyRepository) IsReferenced(ctx context.Context, id string, companyID string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, a := range r.store.assignments {
		if a.CompanyID == companyID && a.PolicyID == id {
			return true, nil
		}
	}
	return false, nil
}

// ========================================
// SHIFTS
// ========================================

type shiftRepository struct {
	store *Store
}

func NewShiftRepository(store *Store) schedule.ShiftRepository {
	return &shiftRepository{store: store}
}

func (r *shiftRepository) Create(ctx context.Context, sh schedule.Shift) (schedule.Shift, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if sh.ID == "" {
		sh.ID = newID()
	}
	now := r.store.now()
	sh.CreatedAt, sh.UpdatedAt = now, now
	r.store.shifts[sh.ID] = sh
	return sh, nil
}

func (r *shiftRepository) GetByID(ctx context.Context, id string, companyID string) (schedule.Shift, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	sh, ok := r.store.shifts[id]
	if !ok || sh.CompanyID != companyID {
		return schedule.Shift{}, schedule.ErrShiftNotFound
	}
	return sh, nil
}

func (r *shiftRepository) List(ctx context.Context, companyID string) ([]schedule.Shift, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []schedule.Shift
	for _, sh := range r.store.shifts {
		if sh.CompanyID == companyID {
			out = append(out, sh)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *shiftRepository) Update(ctx context.Context, sh schedule.Shift) (schedule.Shift, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.shifts[sh.ID]
	if !ok || existing.CompanyID != sh.CompanyID {
		return schedule.Shift{}, schedule.ErrShiftNotFound
	}
	sh.CreatedAt = existing.CreatedAt
	sh.UpdatedAt = r.store.now()
	r.store.shifts[sh.ID] = sh
	return sh, nil
}

func (r *shiftRepository) Delete(ctx context.Context, id string, companyID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sh, ok := r.store.shifts[id]
	if !ok || sh.CompanyID != companyID {
		return schedule.ErrShiftNotFound
	}
	for _, a := range r.store.assignments {
		if a.ShiftID == id {
			return schedule.ErrShiftInUse
		}
	}
	delete(r.store.shifts, id)
	return nil
}

func (r *shiftRepository) IsReferenced(ctx context.Context, id string, companyID string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, a := range r.store.assignments {
		if a.CompanyID == companyID && a.ShiftID == id {
			return true, nil
		}
	}
	return false, nil
}

// ========================================
// ASSIGNMENTS
// ========================================

type assignmentRepository struct {
	store *Store
}

func NewAssignmentRepository(store *Store) schedule.AssignmentRepository {
	return &assignmentRepository{store: store}
}

// checkAssignment mirrors the foreign keys and the active-overlap exclusion
// constraint of the SQL schema. Callers hold store.mu.
func (r *assignmentRepository) checkAssignment(a schedule.EmployeeShiftAssignment) error {
	if p, ok := r.store.policies[a.PolicyID]; !ok || p.CompanyID != a.CompanyID {
		return schedule.ErrPolicyNotFound
	}
	if sh, ok := r.store.shifts[a.ShiftID]; !ok || sh.CompanyID != a.CompanyID {
		return schedule.ErrShiftNotFound
	}
	if !a.IsActive {
		return nil
	}
	for _, o := range r.store.assignments {
		if o.ID == a.ID || !o.IsActive || o.CompanyID != a.CompanyID || o.EmployeeID != a.EmployeeID {
			continue
		}
		if o.Overlaps(a.EffectiveFrom, a.EffectiveTo) {
			return schedule.ErrOverlappingAssignment
		}
	}
	return nil
}

// joined returns a with its policy and shift attached. Callers hold store.mu.
func (r *assignmentRepository) joined(a schedule.EmployeeShiftAssignment) schedule.EmployeeShiftAssignment {
	if p, ok := r.store.policies[a.PolicyID]; ok {
		a.Policy = &p
	}
	if sh, ok := r.store.shifts[a.ShiftID]; ok {
		a.Shift = &sh
	}
	return a
}

func (r *assignmentRepository) Create(ctx context.Context, a schedule.EmployeeShiftAssignment) (schedule.EmployeeShiftAssignment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if a.ID == "" {
		a.ID = newID()
	}
	if err := r.checkAssignment(a); err != nil {
		return schedule.EmployeeShiftAssignment{}, err
	}
	a.Policy, a.Shift = nil, nil
	now := r.store.now()
	a.CreatedAt, a.UpdatedAt = now, now
	r.store.assignments[a.ID] = a
	return a, nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id string, companyID string) (schedule.EmployeeShiftAssignment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	a, ok := r.store.assignments[id]
	if !ok || a.CompanyID != companyID {
		return schedule.EmployeeShiftAssignment{}, schedule.ErrAssignmentNotFound
	}
	return a, nil
}

func (r *assignmentRepository) Update(ctx context.Context, a schedule.EmployeeShiftAssignment) (schedule.EmployeeShiftAssignment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.assignments[a.ID]
	if !ok || existing.CompanyID != a.CompanyID {
		return schedule.EmployeeShiftAssignment{}, schedule.ErrAssignmentNotFound
	}
	if err := r.checkAssignment(a); err != nil {
		return schedule.EmployeeShiftAssignment{}, err
	}
	a.Policy, a.Shift = nil, nil
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = r.store.now()
	r.store.assignments[a.ID] = a
	return a, nil
}

func (r *assignmentRepository) Delete(ctx context.Context, id string, companyID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, ok := r.store.assignments[id]
	if !ok || a.CompanyID != companyID {
		return schedule.ErrAssignmentNotFound
	}
	delete(r.store.assignments, id)
	return nil
}

func (r *assignmentRepository) ListByEmployee(ctx context.Context, companyID string, employeeID string) ([]schedule.EmployeeShiftAssignment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []schedule.EmployeeShiftAssignment
	for _, a := range r.store.assignments {
		if a.CompanyID == companyID && a.EmployeeID == employeeID {
			out = append(out, r.joined(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EffectiveFrom.Equal(out[j].EffectiveFrom) {
			return out[i].EffectiveFrom.After(out[j].EffectiveFrom)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// effective returns the active assignment covering date. Callers hold
// store.mu.
func (r *assignmentRepository) effective(companyID, employeeID string, date time.Time) (schedule.EmployeeShiftAssignment, bool) {
	var (
		best  schedule.EmployeeShiftAssignment
		found bool
	)
	for _, a := range r.store.assignments {
		if a.CompanyID != companyID || a.EmployeeID != employeeID || !a.IsActive || !a.Covers(date) {
			continue
		}
		if !found || a.EffectiveFrom.After(best.EffectiveFrom) {
			best, found = a, true
		}
	}
	if !found {
		return schedule.EmployeeShiftAssignment{}, false
	}
	return r.joined(best), true
}

func (r *assignmentRepository) GetEffective(ctx context.Context, companyID string, employeeID string, date time.Time) (*schedule.EmployeeShiftAssignment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	a, ok := r.effective(companyID, employeeID, date)
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *assignmentRepository) GetEffectiveForEmployees(ctx context.Context, companyID string, employeeIDs []string, date time.Time) (map[string]schedule.EmployeeShiftAssignment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make(map[string]schedule.EmployeeShiftAssignment, len(employeeIDs))
	for _, id := range employeeIDs {
		if a, ok := r.effective(companyID, id, date); ok {
			out[id] = a
		}
	}
	return out, nil
}

// LockEmployee is a no-op: transactions on the store are already serialized.
func (r *assignmentRepository) LockEmployee(ctx context.Context, companyID string, employeeID string) error {
	return nil
}

// ========================================
// HOLIDAYS
// ========================================

type holidayRepository struct {
	store *Store
}

func NewHolidayRepository(store *Store) schedule.HolidayRepository {
	return &holidayRepository{store: store}
}

// dateTaken reports whether another holiday of the company falls on date.
// Callers hold store.mu.
func (r *holidayRepository) dateTaken(h schedule.Holiday) bool {
	for _, o := range r.store.holidays {
		if o.ID != h.ID && o.CompanyID == h.CompanyID && o.Date.Equal(h.Date) {
			return true
		}
	}
	return false
}

func (r *holidayRepository) Create(ctx context.Context, h schedule.Holiday) (schedule.Holiday, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if h.ID == "" {
		h.ID = newID()
	}
	if r.dateTaken(h) {
		return schedule.Holiday{}, schedule.ErrHolidayExists
	}
	now := r.store.now()
	h.CreatedAt, h.UpdatedAt = now, now
	r.store.holidays[h.ID] = h
	return h, nil
}

func (r *holidayRepository) GetByID(ctx context.Context, id string, companyID string) (schedule.Holiday, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	h, ok := r.store.holidays[id]
	if !ok || h.CompanyID != companyID {
		return schedule.Holiday{}, schedule.ErrHolidayNotFound
	}
	return h, nil
}

func (r *holidayRepository) List(ctx context.Context, companyID string, filter schedule.HolidayFilter) ([]schedule.Holiday, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []schedule.Holiday
	for _, h := range r.store.holidays {
		if h.CompanyID != companyID {
			continue
		}
		if filter.Year != nil && h.Date.Year() != *filter.Year {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *holidayRepository) Update(ctx context.Context, h schedule.Holiday) (schedule.Holiday, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.holidays[h.ID]
	if !ok || existing.CompanyID != h.CompanyID {
		return schedule.Holiday{}, schedule.ErrHolidayNotFound
	}
	if r.dateTaken(h) {
		return schedule.Holiday{}, schedule.ErrHolidayExists
	}
	h.CreatedAt = existing.CreatedAt
	h.UpdatedAt = r.store.now()
	r.store.holidays[h.ID] = h
	return h, nil
}

func (r *holidayRepository) Delete(ctx context.Context, id string, companyID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	h, ok := r.store.holidays[id]
	if !ok || h.CompanyID != companyID {
		return schedule.ErrHolidayNotFound
	}
	delete(r.store.holidays, id)
	return nil
}

func (r *holidayRepository) IsHoliday(ctx context.Context, companyID string, date time.Time) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, h := range r.store.holidays {
		if h.CompanyID == companyID && h.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}
