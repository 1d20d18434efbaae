// Package memory is an in-process backend implementing every repository and
// the transactor. Transactions are serialized by one mutex and rolled back
// by restoring a snapshot, which gives the same isolation the engine relies
// on from PostgreSQL row and advisory locks.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/google/uuid"
)

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	now func() time.Time

	employees       map[string]employee.Employee
	policies        map[string]schedule.AttendancePolicy
	shifts          map[string]schedule.Shift
	assignments     map[string]schedule.EmployeeShiftAssignment
	holidays        map[string]schedule.Holiday
	leaves          map[string]leave.LeaveRequest
	punches         []attendance.Punch
	summaries       map[string]attendance.DailySummary
	regularizations map[string]attendance.Regularization
	locks           map[string]attendance.Lock
}

func NewStore() *Store {
	return &Store{
		now:             time.Now,
		employees:       map[string]employee.Employee{},
		policies:        map[string]schedule.AttendancePolicy{},
		shifts:          map[string]schedule.Shift{},
		assignments:     map[string]schedule.EmployeeShiftAssignment{},
		holidays:        map[string]schedule.Holiday{},
		leaves:          map[string]leave.LeaveRequest{},
		summaries:       map[string]attendance.DailySummary{},
		regularizations: map[string]attendance.Regularization{},
		locks:           map[string]attendance.Lock{},
	}
}

type snapshot struct {
	employees       map[string]employee.Employee
	policies        map[string]schedule.AttendancePolicy
	shifts          map[string]schedule.Shift
	assignments     map[string]schedule.EmployeeShiftAssignment
	holidays        map[string]schedule.Holiday
	leaves          map[string]leave.LeaveRequest
	punches         []attendance.Punch
	summaries       map[string]attendance.DailySummary
	regularizations map[string]attendance.Regularization
	locks           map[string]attendance.Lock
}

// Entities are stored by value and replaced wholesale on update, so shallow
// copies of the collections are enough.
func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		employees:       maps.Clone(s.employees),
		policies:        maps.Clone(s.policies),
		shifts:          maps.Clone(s.shifts),
		assignments:     maps.Clone(s.assignments),
		holidays:        maps.Clone(s.holidays),
		leaves:          maps.Clone(s.leaves),
		punches:         slices.Clone(s.punches),
		summaries:       maps.Clone(s.summaries),
		regularizations: maps.Clone(s.regularizations),
		locks:           maps.Clone(s.locks),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees = snap.employees
	s.policies = snap.policies
	s.shifts = snap.shifts
	s.assignments = snap.assignments
	s.holidays = snap.holidays
	s.leaves = snap.leaves
	s.punches = snap.punches
	s.summaries = snap.summaries
	s.regularizations = snap.regularizations
	s.locks = snap.locks
}

type txKey struct{}

type transactor struct {
	store *Store
}

func NewTransactor(store *Store) database.Transactor {
	return &transactor{store: store}
}

// WithinTransaction implements database.Transactor. A nested call reuses the
// outer transaction.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	snap := t.store.snapshot()
	defer func() {
		if p := recover(); p != nil {
			t.store.restore(snap)
			slog.Error("rolled back in-memory transaction during panic recovery", "panic", p)
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func dayKey(companyID, employeeID string, date time.Time) string {
	return companyID + "|" + employeeID + "|" + dateutil.FormatDate(date)
}

func periodKey(companyID, period string) string {
	return companyID + "|" + period
}

// ========================================
// SEEDING
// ========================================

// Seed is a set of fixture rows loaded into a Store.
type Seed struct {
	Employees   []employee.Employee
	Policies    []schedule.AttendancePolicy
	Shifts      []schedule.Shift
	Assignments []schedule.EmployeeShiftAssignment
	Holidays    []schedule.Holiday
	Leaves      []leave.LeaveRequest
}

// Load inserts seed rows, generating missing ids.
func (s *Store) Load(seed Seed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, e := range seed.Employees {
		if e.ID == "" {
			e.ID = newID()
		}
		if e.EmploymentStatus == "" {
			e.EmploymentStatus = employee.EmploymentStatusActive
		}
		e.CreatedAt, e.UpdatedAt = now, now
		s.employees[e.ID] = e
	}
	for _, p := range seed.Policies {
		if p.ID == "" {
			p.ID = newID()
		}
		p.CreatedAt, p.UpdatedAt = now, now
		s.policies[p.ID] = p
	}
	for _, sh := range seed.Shifts {
		if sh.ID == "" {
			sh.ID = newID()
		}
		sh.CreatedAt, sh.UpdatedAt = now, now
		s.shifts[sh.ID] = sh
	}
	for _, a := range seed.Assignments {
		if a.ID == "" {
			a.ID = newID()
		}
		if _, ok := s.policies[a.PolicyID]; !ok {
			return fmt.Errorf("seed assignment %s: %w", a.ID, schedule.ErrPolicyNotFound)
		}
		if _, ok := s.shifts[a.ShiftID]; !ok {
			return fmt.Errorf("seed assignment %s: %w", a.ID, schedule.ErrShiftNotFound)
		}
		a.Policy, a.Shift = nil, nil
		a.CreatedAt, a.UpdatedAt = now, now
		s.assignments[a.ID] = a
	}
	for _, h := range seed.Holidays {
		if h.ID == "" {
			h.ID = newID()
		}
		h.CreatedAt, h.UpdatedAt = now, now
		s.holidays[h.ID] = h
	}
	for _, l := range seed.Leaves {
		if l.ID == "" {
			l.ID = newID()
		}
		l.CreatedAt = now
		s.leaves[l.ID] = l
	}
	return nil
}
