package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCompanyID = "company-1"

type scheduleFixture struct {
	store *memory.Store
	svc   schedule.ScheduleService
}

func strPtr(s string) *string { return &s }

func newScheduleFixture(t *testing.T) *scheduleFixture {
	t.Helper()

	store := memory.NewStore()
	require.NoError(t, store.Load(memory.Seed{
		Employees: []employee.Employee{
			{ID: "emp-1", CompanyID: testCompanyID, EmployeeCode: "E001", FullName: "Dewi Lestari", Department: strPtr("Engineering"), Designation: strPtr("Backend Engineer")},
			{ID: "emp-2", CompanyID: testCompanyID, EmployeeCode: "E002", FullName: "Raka Pratama", Department: strPtr("Engineering"), Designation: strPtr("QA Engineer")},
			{ID: "emp-3", CompanyID: testCompanyID, EmployeeCode: "E003", FullName: "Sari Wulandari", Department: strPtr("Finance"), Designation: strPtr("Accountant")},
			{ID: "emp-4", CompanyID: testCompanyID, EmployeeCode: "E004", FullName: "Budi Santoso", Department: strPtr("Engineering"), EmploymentStatus: employee.EmploymentStatusResigned},
			{ID: "emp-x", CompanyID: "company-2", EmployeeCode: "E001", FullName: "Other Company"},
		},
		Policies: []schedule.AttendancePolicy{
			{ID: "policy-1", CompanyID: testCompanyID, Name: "Standard", FullDayMinutes: 480, HalfDayMinutes: 240},
		},
		Shifts: []schedule.Shift{
			{ID: "shift-1", CompanyID: testCompanyID, Name: "General", StartTime: "09:00", EndTime: "18:00"},
			{ID: "shift-2", CompanyID: testCompanyID, Name: "Early", StartTime: "07:00", EndTime: "16:00"},
		},
	}))

	svc := NewScheduleService(
		memory.NewTransactor(store),
		memory.NewPolicyRepository(store),
		memory.NewShiftRepository(store),
		memory.NewAssignmentRepository(store),
		memory.NewHolidayRepository(store),
		memory.NewEmployeeRepository(store),
	)
	return &scheduleFixture{store: store, svc: svc}
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	return verrs.ToMap()
}

// ===== POLICY TESTS =====

func TestScheduleService_CreatePolicy(t *testing.T) {
	ctx := context.Background()
	f := newScheduleFixture(t)

	resp, err := f.svc.CreatePolicy(ctx, schedule.CreatePolicyRequest{
		CompanyID:        testCompanyID,
		Name:             "Flexible",
		FullDayMinutes:   420,
		HalfDayMinutes:   210,
		GraceMinutesLate: 15,
		OvertimeEnabled:  true,
		Extensions:       map[string]any{"geo_fence": "jakarta-hq"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "Flexible", resp.Name)
	assert.Equal(t, 15, resp.GraceMinutesLate)
	assert.True(t, resp.OvertimeEnabled)
	assert.Equal(t, "jakarta-hq", resp.Extensions["geo_fence"])

	got, err := f.svc.GetPolicy(ctx, resp.ID, testCompanyID)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, got.ID)

	list, err := f.svc.ListPolicies(ctx, testCompanyID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestScheduleService_UpdatePolicy_HalfDayAboveFullDay(t *testing.T) {
	f := newScheduleFixture(t)

	half := 500
	_, err := f.svc.UpdatePolicy(context.Background(), schedule.UpdatePolicyRequest{
		ID:             "policy-1",
		CompanyID:      testCompanyID,
		HalfDayMinutes: &half,
	})

	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, fieldErrors(t, err), "half_day_minutes")

	p, err := f.svc.GetPolicy(context.Background(), "policy-1", testCompanyID)
	require.NoError(t, err)
	assert.Equal(t, 240, p.HalfDayMinutes)
}

func TestScheduleService_DeletePolicy(t *testing.T) {
	ctx := context.Background()
	f := newScheduleFixture(t)

	_, err := f.svc.CreateAssignments(ctx, schedule.CreateAssignmentsRequest{
		CompanyID:     testCompanyID,
		PolicyID:      "policy-1",
		ShiftID:       "shift-1",
		EffectiveFrom: "2025-01-01",
		Scope:         schedule.ScopeEmployees,
		EmployeeIDs:   []string{"emp-1"},
	})
	require.NoError(t, err)

	err = f.svc.DeletePolicy(ctx, "policy-1", testCompanyID)
	assert.ErrorIs(t, err, schedule.ErrPolicyInUse)

	err = f.svc.DeleteShift(ctx, "shift-1", testCompanyID)
	assert.ErrorIs(t, err, schedule.ErrShiftInUse)

	require.NoError(t, f.svc.DeleteShift(ctx, "shift-2", testCompanyID))
	_, err = f.svc.GetShift(ctx, "shift-2", testCompanyID)
	assert.ErrorIs(t, err, schedule.ErrShiftNotFound)

	err = f.svc.DeletePolicy(ctx, "missing", testCompanyID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// ===== SHIFT TESTS =====

func TestScheduleService_CreateShift_Window(t *testing.T) {
	ctx := context.Background()
	f := newScheduleFixture(t)

	_, err := f.svc.CreateShift(ctx, schedule.CreateShiftRequest{
		CompanyID: testCompanyID,
		Name:      "Night",
		StartTime: "22:00",
		EndTime:   "06:00",
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.svc.CreateShift(ctx, schedule.CreateShiftRequest{
		CompanyID: testCompanyID,
		Name:      "Broken",
		StartTime: "9am",
		EndTime:   "18:00",
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	resp, err := f.svc.CreateShift(ctx, schedule.CreateShiftRequest{
		CompanyID:  testCompanyID,
		Name:       "Late",
		StartTime:  "11:00",
		EndTime:    "20:00",
		BreakRules: schedule.BreakRules{AllowedBreaks: 1, MaxBreakMinutes: 60},
	})
	require.NoError(t, err)
	assert.Equal(t, "11:00", resp.StartTime)
	assert.Equal(t, 60, resp.BreakRules.MaxBreakMinutes)
}

func TestScheduleService_UpdateShift(t *testing.T) {
	ctx := context.Background()
	f := newScheduleFixture(t)

	_, err := f.svc.UpdateShift(ctx, schedule.UpdateShiftRequest{
		ID:        "shift-1",
		CompanyID: testCompanyID,
		EndTime:   strPtr("08:00"),
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	resp, err := f.svc.UpdateShift(ctx, schedule.UpdateShiftRequest{
		ID:        "shift-1",
		CompanyID: testCompanyID,
		StartTime: strPtr("08:30"),
		EndTime:   strPtr("17:30"),
	})
	require.NoError(t, err)
	assert.Equal(t, "08:30", resp.StartTime)
	assert.Equal(t, "17:30", resp.EndTime)
	assert.Equal(t, "General", resp.Name)
}

// ===== HOLIDAY TESTS =====

func TestScheduleService_Holidays(t *testing.T) {
	ctx := context.Background()
	f := newScheduleFixture(t)

	nyepi, err := f.svc.CreateHoliday(ctx, schedule.CreateHolidayRequest{
		CompanyID: testCompanyID,
		Date:      "2025-03-29",
		Name:      "Nyepi",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-29", nyepi.Date)

	_, err = f.svc.CreateHoliday(ctx, schedule.CreateHolidayRequest{
		CompanyID: testCompanyID,
		Date:      "2025-03-29",
		Name:      "Duplicate",
	})
	assert.ErrorIs(t, err, schedule.ErrHolidayExists)

	_, err = f.svc.CreateHoliday(ctx, schedule.CreateHolidayRequest{
		CompanyID: testCompanyID,
		Date:      "2026-01-01",
		Name:      "New Year",
	})
	require.NoError(t, err)

	year := 2025
	list, err := f.svc.ListHolidays(ctx, testCompanyID, schedule.HolidayFilter{Year: &year})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Nyepi", list[0].Name)

	updated, err := f.svc.UpdateHoliday(ctx, schedule.UpdateHolidayRequest{
		ID:          nyepi.ID,
		CompanyID:   testCompanyID,
		Description: strPtr("Day of Silence"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-29", updated.Date)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "Day of Silence", *updated.Description)

	require.NoError(t, f.svc.DeleteHoliday(ctx, nyepi.ID, testCompanyID))
	err = f.svc.DeleteHoliday(ctx, nyepi.ID, testCompanyID)
	assert.ErrorIs(t, err, schedule.ErrHolidayNotFound)
}

// ===== RESOLVER TESTS =====

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	f := newScheduleFixture(t)

	_, err := f.svc.CreateAssignments(ctx, schedule.CreateAssignmentsRequest{
		CompanyID:     testCompanyID,
		PolicyID:      "policy-1",
		ShiftID:       "shift-1",
		EffectiveFrom: "2025-03-01",
		EffectiveTo:   strPtr("2025-03-31"),
		Scope:         schedule.ScopeEmployees,
		EmployeeIDs:   []string{"emp-1"},
	})
	require.NoError(t, err)
	_, err = f.svc.CreateHoliday(ctx, schedule.CreateHolidayRequest{CompanyID: testCompanyID, Date: "2025-03-31", Name: "Idul Fitri"})
	require.NoError(t, err)

	resolver := NewResolver(
		memory.NewAssignmentRepository(f.store),
		memory.NewHolidayRepository(f.store),
		memory.NewLeaveRequestRepository(f.store),
	)

	a, err := resolver.Resolve(ctx, testCompanyID, "emp-1", time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, a)
	require.NotNil(t, a.Shift)
	assert.Equal(t, "09:00", a.Shift.StartTime)
	require.NotNil(t, a.Policy)
	assert.Equal(t, "Standard", a.Policy.Name)

	a, err = resolver.Resolve(ctx, testCompanyID, "emp-1", time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, a)

	holiday, err := resolver.IsHoliday(ctx, testCompanyID, time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, holiday)

	onLeave, err := resolver.HasApprovedLeave(ctx, testCompanyID, "emp-1", time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, onLeave)
}
