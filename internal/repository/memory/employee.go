package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
)

type employeeRepository struct {
	store *Store
}

func NewEmployeeRepository(store *Store) employee.EmployeeRepository {
	return &employeeRepository{store: store}
}

func sortEmployees(list []employee.Employee) []employee.Employee {
	sort.Slice(list, func(i, j int) bool { return list[i].EmployeeCode < list[j].EmployeeCode })
	return list
}

func (r *employeeRepository) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.employees {
		if existing.CompanyID == e.CompanyID && existing.EmployeeCode == e.EmployeeCode {
			return employee.Employee{}, employee.ErrEmployeeCodeExists
		}
	}
	if e.ID == "" {
		e.ID = newID()
	}
	if e.EmploymentStatus == "" {
		e.EmploymentStatus = employee.EmploymentStatusActive
	}
	now := r.store.now()
	e.CreatedAt, e.UpdatedAt = now, now
	r.store.employees[e.ID] = e
	return e, nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	e, ok := r.store.employees[id]
	if !ok || e.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *employeeRepository) GetByIDs(ctx context.Context, ids []string, companyID string) ([]employee.Employee, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []employee.Employee
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if e, ok := r.store.employees[id]; ok && e.CompanyID == companyID {
			out = append(out, e)
		}
	}
	return sortEmployees(out), nil
}

func (r *employeeRepository) listActive(companyID string, match func(employee.Employee) bool) []employee.Employee {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []employee.Employee
	for _, e := range r.store.employees {
		if e.CompanyID == companyID && e.IsActive() && match(e) {
			out = append(out, e)
		}
	}
	return sortEmployees(out)
}

func (r *employeeRepository) ListActive(ctx context.Context, companyID string) ([]employee.Employee, error) {
	return r.listActive(companyID, func(employee.Employee) bool { return true }), nil
}

func (r *employeeRepository) ListActiveByDepartment(ctx context.Context, companyID string, department string) ([]employee.Employee, error) {
	return r.listActive(companyID, func(e employee.Employee) bool {
		return e.Department != nil && *e.Department == department
	}), nil
}

func (r *employeeRepository) ListActiveByDesignation(ctx context.Context, companyID string, designation string) ([]employee.Employee, error) {
	return r.listActive(companyID, func(e employee.Employee) bool {
		return e.Designation != nil && *e.Designation == designation
	}), nil
}
