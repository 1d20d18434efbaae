package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCompanyID = "company-1"

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.Load(Seed{
		Employees: []employee.Employee{
			{ID: "emp-1", CompanyID: testCompanyID, EmployeeCode: "E001", FullName: "Dewi Lestari"},
		},
		Policies: []schedule.AttendancePolicy{
			{ID: "policy-1", CompanyID: testCompanyID, Name: "Standard", FullDayMinutes: 480, HalfDayMinutes: 240},
		},
		Shifts: []schedule.Shift{
			{ID: "shift-1", CompanyID: testCompanyID, Name: "General", StartTime: "09:00", EndTime: "18:00"},
		},
	}))
	return s
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	tx := NewTransactor(s)
	punches := NewPunchRepository(s)
	summaries := NewSummaryRepository(s)
	date := dateutil.Date(2025, time.March, 3)

	errBoom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, _, err := summaries.FindOrCreateForUpdate(ctx, testCompanyID, "emp-1", date)
		require.NoError(t, err)
		_, err = punches.Create(ctx, attendance.Punch{
			CompanyID:  testCompanyID,
			EmployeeID: "emp-1",
			Date:       date,
			PunchType:  attendance.PunchIn,
			PunchAt:    date.Add(9 * time.Hour),
			Source:     attendance.PunchSourceWeb,
		})
		require.NoError(t, err)
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	list, err := punches.ListByEmployeeDate(ctx, testCompanyID, "emp-1", date)
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = summaries.Get(ctx, testCompanyID, "emp-1", date)
	assert.ErrorIs(t, err, attendance.ErrSummaryNotFound)
}

func TestTransactor_RollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	tx := NewTransactor(s)
	locks := NewLockRepository(s)

	assert.Panics(t, func() {
		_ = tx.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := locks.Create(ctx, attendance.Lock{CompanyID: testCompanyID, Period: "2025-03", LockedByUserID: "admin-1"})
			require.NoError(t, err)
			panic("unexpected")
		})
	})

	lock, err := locks.GetByPeriod(ctx, testCompanyID, "2025-03")
	require.NoError(t, err)
	assert.Nil(t, lock)

	// The transaction mutex was released.
	require.NoError(t, tx.WithinTransaction(ctx, func(ctx context.Context) error { return nil }))
}

func TestTransactor_NestedCallJoinsOuter(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	tx := NewTransactor(s)
	locks := NewLockRepository(s)

	errOuter := errors.New("outer failed")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, tx.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := locks.Create(ctx, attendance.Lock{CompanyID: testCompanyID, Period: "2025-03", LockedByUserID: "admin-1"})
			return err
		}))
		return errOuter
	})
	assert.ErrorIs(t, err, errOuter)

	list, err := locks.List(ctx, testCompanyID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAssignmentRepository_RejectsOverlap(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	repo := NewAssignmentRepository(s)

	jan := dateutil.Date(2025, time.January, 1)
	end := dateutil.Date(2025, time.March, 31)
	first, err := repo.Create(ctx, schedule.EmployeeShiftAssignment{
		CompanyID: testCompanyID, EmployeeID: "emp-1", PolicyID: "policy-1", ShiftID: "shift-1",
		EffectiveFrom: jan, EffectiveTo: &end, IsActive: true,
	})
	require.NoError(t, err)

	overlapping := schedule.EmployeeShiftAssignment{
		CompanyID: testCompanyID, EmployeeID: "emp-1", PolicyID: "policy-1", ShiftID: "shift-1",
		EffectiveFrom: dateutil.Date(2025, time.March, 1), IsActive: true,
	}
	_, err = repo.Create(ctx, overlapping)
	assert.ErrorIs(t, err, schedule.ErrOverlappingAssignment)

	// Inactive rows are not part of the constraint.
	overlapping.IsActive = false
	_, err = repo.Create(ctx, overlapping)
	require.NoError(t, err)

	_, err = repo.Create(ctx, schedule.EmployeeShiftAssignment{
		CompanyID: testCompanyID, EmployeeID: "emp-1", PolicyID: "missing", ShiftID: "shift-1",
		EffectiveFrom: dateutil.Date(2026, time.January, 1), IsActive: true,
	})
	assert.ErrorIs(t, err, schedule.ErrPolicyNotFound)

	got, err := repo.GetEffective(ctx, testCompanyID, "emp-1", dateutil.Date(2025, time.March, 15))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
	require.NotNil(t, got.Policy)
	assert.Equal(t, "Standard", got.Policy.Name)

	got, err = repo.GetEffective(ctx, testCompanyID, "emp-1", dateutil.Date(2025, time.April, 1))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSummaryRepository_SetLockedForRange(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	repo := NewSummaryRepository(s)

	march := dateutil.Date(2025, time.March, 10)
	april := dateutil.Date(2025, time.April, 1)
	_, created, err := repo.FindOrCreateForUpdate(ctx, testCompanyID, "emp-1", march)
	require.NoError(t, err)
	assert.True(t, created)
	_, created, err = repo.FindOrCreateForUpdate(ctx, testCompanyID, "emp-1", march)
	require.NoError(t, err)
	assert.False(t, created)
	_, _, err = repo.FindOrCreateForUpdate(ctx, testCompanyID, "emp-1", april)
	require.NoError(t, err)

	from, to, err := dateutil.MonthRange("2025-03")
	require.NoError(t, err)
	n, err := repo.SetLockedForRange(ctx, testCompanyID, from, to, true, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.Get(ctx, testCompanyID, "emp-1", march)
	require.NoError(t, err)
	assert.True(t, got.Locked)
	got, err = repo.Get(ctx, testCompanyID, "emp-1", april)
	require.NoError(t, err)
	assert.False(t, got.Locked)
}
