package attendance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	scheduleservice "github.com/cmlabs-hris/attendance-engine/internal/service/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCompanyID  = "company-1"
	testEmployeeID = "emp-1"
	testAdminID    = "admin-1"
)

type testEngine struct {
	store     *memory.Store
	svc       Service
	punchRepo attendance.PunchRepository
}

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	store := memory.NewStore()
	require.NoError(t, store.Load(memory.Seed{
		Employees: []employee.Employee{
			{ID: testEmployeeID, CompanyID: testCompanyID, EmployeeCode: "E001", FullName: "Dewi Lestari"},
			{ID: "emp-2", CompanyID: testCompanyID, EmployeeCode: "E002", FullName: "Raka Pratama", EmploymentStatus: employee.EmploymentStatusResigned},
		},
		Policies: []schedule.AttendancePolicy{
			{ID: "policy-1", CompanyID: testCompanyID, Name: "Standard", FullDayMinutes: 480, HalfDayMinutes: 240, GraceMinutesLate: 10},
		},
		Shifts: []schedule.Shift{
			{ID: "shift-1", CompanyID: testCompanyID, Name: "General", StartTime: "09:00", EndTime: "18:00"},
		},
		Assignments: []schedule.EmployeeShiftAssignment{
			{
				CompanyID:     testCompanyID,
				EmployeeID:    testEmployeeID,
				PolicyID:      "policy-1",
				ShiftID:       "shift-1",
				EffectiveFrom: dateutil.Date(2025, time.January, 1),
				WeekoffDays:   schedule.DefaultWeekoff(),
				IsActive:      true,
			},
		},
	}))

	assignmentRepo := memory.NewAssignmentRepository(store)
	resolver := scheduleservice.NewResolver(assignmentRepo, memory.NewHolidayRepository(store), memory.NewLeaveRequestRepository(store))
	punchRepo := memory.NewPunchRepository(store)

	svc := NewAttendanceService(
		memory.NewTransactor(store),
		punchRepo,
		memory.NewSummaryRepository(store),
		memory.NewRegularizationRepository(store),
		memory.NewLockRepository(store),
		memory.NewEmployeeRepository(store),
		resolver,
		Options{
			Location: time.UTC,
			Now:      func() time.Time { return time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC) },
		},
	)
	return &testEngine{store: store, svc: svc, punchRepo: punchRepo}
}

func (e *testEngine) punch(ctx context.Context, date string, pt attendance.PunchType, clock string) (attendance.RecordPunchResponse, error) {
	punchAt := date + "T" + clock + ":00Z"
	return e.svc.RecordPunch(ctx, attendance.RecordPunchRequest{
		CompanyID:  testCompanyID,
		EmployeeID: testEmployeeID,
		Date:       &date,
		PunchType:  pt,
		PunchAt:    &punchAt,
	})
}

func (e *testEngine) punchesOn(t *testing.T, date string) []attendance.Punch {
	t.Helper()
	d, err := dateutil.ParseDate(date)
	require.NoError(t, err)
	list, err := e.punchRepo.ListByEmployeeDate(context.Background(), testCompanyID, testEmployeeID, d)
	require.NoError(t, err)
	return list
}

func (e *testEngine) today(t *testing.T, date string) attendance.DayResponse {
	t.Helper()
	resp, err := e.svc.GetToday(context.Background(), attendance.GetTodayRequest{
		CompanyID:  testCompanyID,
		EmployeeID: testEmployeeID,
		Date:       &date,
	})
	require.NoError(t, err)
	return resp
}

func missedPunch(date string) attendance.CreateRegularizationRequest {
	return attendance.CreateRegularizationRequest{
		CompanyID:         testCompanyID,
		RequestedByUserID: "user-emp-1",
		EmployeeID:        testEmployeeID,
		Date:              date,
		Type:              attendance.RegularizationMissedPunch,
		Punches: []attendance.ManualPunch{
			{PunchType: attendance.PunchOut, PunchAt: date + "T18:00:00Z"},
			{PunchType: attendance.PunchIn, PunchAt: date + "T09:00:00Z"},
		},
	}
}

// ===== PUNCH TESTS =====

func TestAttendanceService_RecordPunch_ComputesSummary(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	// Act
	_, err := e.punch(ctx, "2025-03-03", attendance.PunchIn, "09:05")
	require.NoError(t, err)
	resp, err := e.punch(ctx, "2025-03-03", attendance.PunchOut, "18:00")
	require.NoError(t, err)

	// Assert
	assert.Equal(t, attendance.PunchOut, resp.Punch.PunchType)
	assert.Equal(t, attendance.PunchSourceWeb, resp.Punch.Source)
	assert.Equal(t, 535, resp.Summary.WorkMinutes)
	assert.Equal(t, 0, resp.Summary.LateMinutes)
	assert.Equal(t, attendance.StatusPresent, resp.Summary.Status)
	assert.Equal(t, attendance.SummarySourceAuto, resp.Summary.Source)
	assert.Equal(t, "8.92", resp.Summary.WorkHours.StringFixed(2))
	require.NotNil(t, resp.Assignment)
	assert.Equal(t, "policy-1", resp.Assignment.PolicyID)
}

func TestAttendanceService_RecordPunch_DuplicateIn(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	first, err := e.punch(ctx, "2025-03-03", attendance.PunchIn, "09:00")
	require.NoError(t, err)

	// Act
	_, err = e.punch(ctx, "2025-03-03", attendance.PunchIn, "09:30")

	// Assert
	require.Error(t, err)
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedIn)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "Already clocked in for today", err.Error())

	stored := e.punchesOn(t, "2025-03-03")
	require.Len(t, stored, 1)
	assert.Equal(t, first.Punch.ID, stored[0].ID)
}

func TestAttendanceService_RecordPunch_ConcurrentIn(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	const attempts = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.punch(ctx, "2025-03-03", attendance.PunchIn, "09:00")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if assert.ErrorIs(t, err, attendance.ErrAlreadyClockedIn) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
	assert.Len(t, e.punchesOn(t, "2025-03-03"), 1)
}

func TestAttendanceService_RecordPunch_Rejections(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.punch(ctx, "2025-03-03", attendance.PunchOut, "18:00")
	assert.ErrorIs(t, err, attendance.ErrNotClockedIn)

	_, err = e.punch(ctx, "2025-03-03", attendance.PunchBreakEnd, "13:00")
	assert.ErrorIs(t, err, attendance.ErrNotOnBreak)

	_, err = e.punch(ctx, "2025-03-03", attendance.PunchType("LUNCH"), "13:00")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	date := "2025-03-03"
	_, err = e.svc.RecordPunch(ctx, attendance.RecordPunchRequest{
		CompanyID:  testCompanyID,
		EmployeeID: "emp-2",
		Date:       &date,
		PunchType:  attendance.PunchIn,
	})
	assert.ErrorIs(t, err, employee.ErrEmployeeInactive)

	_, err = e.svc.RecordPunch(ctx, attendance.RecordPunchRequest{
		CompanyID:  testCompanyID,
		EmployeeID: "missing",
		Date:       &date,
		PunchType:  attendance.PunchIn,
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Empty(t, e.punchesOn(t, "2025-03-03"))
}

func TestAttendanceService_RecordPunch_DefaultsToToday(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	resp, err := e.svc.RecordPunch(ctx, attendance.RecordPunchRequest{
		CompanyID:  testCompanyID,
		EmployeeID: testEmployeeID,
		PunchType:  attendance.PunchIn,
	})

	require.NoError(t, err)
	assert.Equal(t, "2025-03-03", resp.Punch.Date)
	assert.Equal(t, "2025-03-03T12:00:00Z", resp.Punch.PunchAt)
	assert.Equal(t, 170, resp.Summary.LateMinutes)
	assert.Equal(t, attendance.StatusLate, resp.Summary.Status)
}

func TestAttendanceService_ManualEdit_ReplacesManualPunches(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.punch(ctx, "2025-03-03", attendance.PunchIn, "09:00")
	require.NoError(t, err)

	edit := attendance.ManualEditRequest{
		CompanyID:   testCompanyID,
		ActorUserID: testAdminID,
		EmployeeID:  testEmployeeID,
		Date:        "2025-03-03",
		Punches:     []attendance.ManualPunch{{PunchType: attendance.PunchOut, PunchAt: "2025-03-03T18:00:00Z"}},
		Note:        "forgot to clock out",
	}

	// Act
	day, err := e.svc.ManualEdit(ctx, edit)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 540, day.Summary.WorkMinutes)
	assert.Equal(t, attendance.SummarySourceManual, day.Summary.Source)
	require.NotNil(t, day.Summary.Notes)
	assert.Contains(t, *day.Summary.Notes, "forgot to clock out")
	assert.Contains(t, *day.Summary.Notes, testAdminID)
	assert.Len(t, day.Punches, 2)

	// A second edit replaces the first one's punches.
	edit.Punches = []attendance.ManualPunch{{PunchType: attendance.PunchOut, PunchAt: "2025-03-03T17:00:00Z"}}
	edit.Note = ""
	day, err = e.svc.ManualEdit(ctx, edit)
	require.NoError(t, err)

	assert.Equal(t, 480, day.Summary.WorkMinutes)
	stored := e.punchesOn(t, "2025-03-03")
	require.Len(t, stored, 2)
	assert.Equal(t, attendance.PunchSourceWeb, stored[0].Source)
	assert.Equal(t, attendance.PunchSourceManual, stored[1].Source)
	assert.Equal(t, testAdminID, stored[1].Meta["edited_by"])
}

func TestAttendanceService_ManualEdit_InvalidPunch(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.svc.ManualEdit(context.Background(), attendance.ManualEditRequest{
		CompanyID:  testCompanyID,
		EmployeeID: testEmployeeID,
		Date:       "2025-03-03",
		Punches:    []attendance.ManualPunch{{PunchType: attendance.PunchIn, PunchAt: "nine o'clock"}},
	})

	assert.ErrorIs(t, err, apperror.ErrValidation)
}

// ===== READ TESTS =====

func TestAttendanceService_GetToday_DayKinds(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.store.Load(memory.Seed{
		Holidays: []schedule.Holiday{
			{CompanyID: testCompanyID, Date: dateutil.Date(2025, time.March, 5), Name: "Nyepi"},
		},
		Leaves: []leave.LeaveRequest{
			{
				CompanyID:  testCompanyID,
				EmployeeID: testEmployeeID,
				StartDate:  dateutil.Date(2025, time.March, 6),
				EndDate:    dateutil.Date(2025, time.March, 6),
				Status:     leave.LeaveRequestStatusApproved,
			},
		},
	}))

	tests := []struct {
		date    string
		status  attendance.Status
		onLeave bool
	}{
		{"2025-03-04", attendance.StatusNotMarked, false},
		{"2025-03-05", attendance.StatusHoliday, false},
		{"2025-03-06", attendance.StatusNotMarked, true},
		{"2025-03-08", attendance.StatusWeekoff, false},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			day := e.today(t, tt.date)
			assert.Equal(t, tt.status, day.Summary.Status)
			assert.Equal(t, tt.onLeave, day.OnApprovedLeave)
			assert.Empty(t, day.Punches)
			assert.NotNil(t, day.Assignment)
		})
	}
}

func TestAttendanceService_RecomputeDay_Idempotent(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.punch(ctx, "2025-03-03", attendance.PunchIn, "09:20")
	require.NoError(t, err)
	_, err = e.punch(ctx, "2025-03-03", attendance.PunchOut, "18:00")
	require.NoError(t, err)

	req := attendance.RecomputeRequest{
		CompanyID:  testCompanyID,
		EmployeeID: testEmployeeID,
		Date:       dateutil.Date(2025, time.March, 3),
	}
	first, err := e.svc.RecomputeDay(ctx, req)
	require.NoError(t, err)
	second, err := e.svc.RecomputeDay(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Figures(), second.Figures())
	assert.Equal(t, 10, second.LateMinutes)
	assert.Equal(t, attendance.StatusLate, second.Status)
}

func TestAttendanceService_GetCalendar(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.punch(ctx, "2025-03-03", attendance.PunchIn, "09:00")
	require.NoError(t, err)
	e.today(t, "2025-03-04")
	e.today(t, "2025-04-01")

	list, err := e.svc.GetCalendar(ctx, attendance.CalendarRequest{
		CompanyID:  testCompanyID,
		EmployeeID: testEmployeeID,
		Month:      "2025-03",
	})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2025-03-03", list[0].Date)
	assert.Equal(t, "2025-03-04", list[1].Date)

	_, err = e.svc.GetCalendar(ctx, attendance.CalendarRequest{
		CompanyID:  testCompanyID,
		EmployeeID: testEmployeeID,
		Month:      "2025-13",
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

// ===== LOCK TESTS =====

func lockMarch(t *testing.T, e *testEngine) attendance.LockResponse {
	t.Helper()
	resp, err := e.svc.LockPeriod(context.Background(), attendance.LockPeriodRequest{
		CompanyID:   testCompanyID,
		ActorUserID: testAdminID,
		Period:      "2025-03",
	})
	require.NoError(t, err)
	return resp
}

func TestAttendanceService_LockPeriod_BlocksWrites(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	pending, err := e.svc.CreateRegularization(ctx, missedPunch("2025-03-04"))
	require.NoError(t, err)
	lockMarch(t, e)

	// Act + Assert: every write into the frozen month is refused.
	_, err = e.punch(ctx, "2025-03-03", attendance.PunchIn, "09:00")
	assert.ErrorIs(t, err, attendance.ErrPeriodLocked)

	_, err = e.svc.ManualEdit(ctx, attendance.ManualEditRequest{
		CompanyID:   testCompanyID,
		ActorUserID: testAdminID,
		EmployeeID:  testEmployeeID,
		Date:        "2025-03-03",
		Punches:     []attendance.ManualPunch{{PunchType: attendance.PunchIn, PunchAt: "2025-03-03T09:00:00Z"}},
	})
	assert.ErrorIs(t, err, attendance.ErrPeriodLocked)

	_, err = e.svc.CreateRegularization(ctx, missedPunch("2025-03-05"))
	assert.ErrorIs(t, err, attendance.ErrPeriodLocked)

	decide := attendance.DecideRegularizationRequest{ID: pending.ID, CompanyID: testCompanyID, ActorUserID: testAdminID}
	_, err = e.svc.ApproveRegularization(ctx, decide)
	assert.ErrorIs(t, err, attendance.ErrPeriodLocked)

	assert.Empty(t, e.punchesOn(t, "2025-03-03"))
	assert.Empty(t, e.punchesOn(t, "2025-03-04"))

	// Other months stay writable.
	_, err = e.punch(ctx, "2025-04-01", attendance.PunchIn, "09:00")
	assert.NoError(t, err)

	// After unlocking the same writes go through.
	require.NoError(t, e.svc.UnlockPeriod(ctx, attendance.UnlockPeriodRequest{
		CompanyID:   testCompanyID,
		ActorUserID: testAdminID,
		Period:      "2025-03",
	}))

	_, err = e.punch(ctx, "2025-03-03", attendance.PunchIn, "09:00")
	assert.NoError(t, err)
	approved, err := e.svc.ApproveRegularization(ctx, decide)
	require.NoError(t, err)
	assert.Equal(t, attendance.RegularizationApproved, approved.Regularization.Status)
}

func TestAttendanceService_LockPeriod_Idempotent(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	first := lockMarch(t, e)
	second := lockMarch(t, e)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "2025-03", first.Period)
	assert.Equal(t, testAdminID, first.LockedByUserID)

	locks, err := e.svc.ListLocks(ctx, testCompanyID)
	require.NoError(t, err)
	assert.Len(t, locks, 1)
}

func TestAttendanceService_LockPeriod_InvalidPeriod(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.svc.LockPeriod(context.Background(), attendance.LockPeriodRequest{
		CompanyID:   testCompanyID,
		ActorUserID: testAdminID,
		Period:      "March 2025",
	})

	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestAttendanceService_LockAndUnlock_FlagSummaries(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.punch(ctx, "2025-03-03", attendance.PunchIn, "09:00")
	require.NoError(t, err)
	lockMarch(t, e)

	list, err := e.svc.GetCalendar(ctx, attendance.CalendarRequest{CompanyID: testCompanyID, EmployeeID: testEmployeeID, Month: "2025-03"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Locked)

	note := "payroll correction"
	require.NoError(t, e.svc.UnlockPeriod(ctx, attendance.UnlockPeriodRequest{
		CompanyID:   testCompanyID,
		ActorUserID: testAdminID,
		Period:      "2025-03",
		Note:        &note,
	}))

	list, err = e.svc.GetCalendar(ctx, attendance.CalendarRequest{CompanyID: testCompanyID, EmployeeID: testEmployeeID, Month: "2025-03"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Locked)
	require.NotNil(t, list[0].Notes)
	assert.Contains(t, *list[0].Notes, "period unlocked")
	assert.Contains(t, *list[0].Notes, note)

	err = e.svc.UnlockPeriod(ctx, attendance.UnlockPeriodRequest{
		CompanyID:   testCompanyID,
		ActorUserID: testAdminID,
		Period:      "2025-03",
	})
	assert.ErrorIs(t, err, attendance.ErrLockNotFound)
}

func TestAttendanceService_GetToday_LockedSummaryIsNotRecomputed(t *testing.T) {
	e := newTestEngine(t)

	before := e.today(t, "2025-03-05")
	require.Equal(t, attendance.StatusNotMarked, before.Summary.Status)
	lockMarch(t, e)

	// A holiday declared after the lock must not rewrite the frozen day.
	require.NoError(t, e.store.Load(memory.Seed{
		Holidays: []schedule.Holiday{
			{CompanyID: testCompanyID, Date: dateutil.Date(2025, time.March, 5), Name: "Nyepi"},
			{CompanyID: testCompanyID, Date: dateutil.Date(2025, time.March, 7), Name: "Company day"},
		},
	}))

	after := e.today(t, "2025-03-05")
	assert.Equal(t, attendance.StatusNotMarked, after.Summary.Status)
	assert.True(t, after.Summary.Locked)
	assert.Equal(t, before.Summary.ID, after.Summary.ID)

	// A day first read while locked is computed once and stored locked.
	fresh := e.today(t, "2025-03-07")
	assert.Equal(t, attendance.StatusHoliday, fresh.Summary.Status)
	assert.True(t, fresh.Summary.Locked)
}

// ===== REGULARIZATION TESTS =====

func TestAttendanceService_ApproveRegularization(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	created, err := e.svc.CreateRegularization(ctx, missedPunch("2025-03-04"))
	require.NoError(t, err)
	assert.Equal(t, attendance.RegularizationPending, created.Status)
	require.Len(t, created.RequestedPunches, 2)
	assert.Equal(t, attendance.PunchIn, created.RequestedPunches[0].PunchType)

	note := "verified with CCTV log"
	decide := attendance.DecideRegularizationRequest{ID: created.ID, CompanyID: testCompanyID, ActorUserID: testAdminID, Note: &note}

	// Act
	resp, err := e.svc.ApproveRegularization(ctx, decide)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, attendance.RegularizationApproved, resp.Regularization.Status)
	require.NotNil(t, resp.Regularization.ActionByUserID)
	assert.Equal(t, testAdminID, *resp.Regularization.ActionByUserID)
	assert.NotNil(t, resp.Regularization.ActionAt)
	assert.Equal(t, &note, resp.Regularization.ActionNote)

	assert.Equal(t, 540, resp.Summary.WorkMinutes)
	assert.Equal(t, attendance.StatusPresent, resp.Summary.Status)
	assert.Equal(t, attendance.SummarySourceRegularized, resp.Summary.Source)

	require.Len(t, resp.Punches, 2)
	for _, p := range resp.Punches {
		assert.Equal(t, attendance.PunchSourceRegularized, p.Source)
		require.NotNil(t, p.RegularizationID)
		assert.Equal(t, created.ID, *p.RegularizationID)
	}

	// Decided requests are immutable.
	_, err = e.svc.ApproveRegularization(ctx, decide)
	assert.ErrorIs(t, err, attendance.ErrRegularizationAlreadyProcessed)
	_, err = e.svc.RejectRegularization(ctx, decide)
	assert.ErrorIs(t, err, attendance.ErrRegularizationAlreadyProcessed)
	assert.Len(t, e.punchesOn(t, "2025-03-04"), 2)
}

func TestAttendanceService_ApproveRegularization_BypassesTransitions(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.punch(ctx, "2025-03-03", attendance.PunchIn, "09:30")
	require.NoError(t, err)

	req := missedPunch("2025-03-03")
	req.Type = attendance.RegularizationWrongPunch
	req.Punches = []attendance.ManualPunch{{PunchType: attendance.PunchIn, PunchAt: "2025-03-03T09:00:00Z"}}
	created, err := e.svc.CreateRegularization(ctx, req)
	require.NoError(t, err)

	resp, err := e.svc.ApproveRegularization(ctx, attendance.DecideRegularizationRequest{ID: created.ID, CompanyID: testCompanyID, ActorUserID: testAdminID})
	require.NoError(t, err)

	require.NotNil(t, resp.Summary.FirstInAt)
	assert.Equal(t, "2025-03-03T09:00:00Z", *resp.Summary.FirstInAt)
	assert.Equal(t, 0, resp.Summary.LateMinutes)
	assert.Len(t, e.punchesOn(t, "2025-03-03"), 2)
}

func TestAttendanceService_RejectRegularization(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	created, err := e.svc.CreateRegularization(ctx, missedPunch("2025-03-04"))
	require.NoError(t, err)

	note := "no evidence"
	resp, err := e.svc.RejectRegularization(ctx, attendance.DecideRegularizationRequest{ID: created.ID, CompanyID: testCompanyID, ActorUserID: testAdminID, Note: &note})
	require.NoError(t, err)

	assert.Equal(t, attendance.RegularizationRejected, resp.Status)
	assert.Equal(t, &note, resp.ActionNote)
	assert.Empty(t, e.punchesOn(t, "2025-03-04"))

	_, err = e.svc.ApproveRegularization(ctx, attendance.DecideRegularizationRequest{ID: created.ID, CompanyID: testCompanyID, ActorUserID: testAdminID})
	assert.ErrorIs(t, err, attendance.ErrRegularizationAlreadyProcessed)
}

func TestAttendanceService_CreateRegularization_Validation(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	req := missedPunch("2025-03-04")
	req.Punches = nil
	_, err := e.svc.CreateRegularization(ctx, req)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	req = missedPunch("04/03/2025")
	_, err = e.svc.CreateRegularization(ctx, req)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = e.svc.ApproveRegularization(ctx, attendance.DecideRegularizationRequest{ID: "missing", CompanyID: testCompanyID, ActorUserID: testAdminID})
	assert.ErrorIs(t, err, attendance.ErrRegularizationNotFound)
}

func TestAttendanceService_ListRegularizations(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	first, err := e.svc.CreateRegularization(ctx, missedPunch("2025-03-04"))
	require.NoError(t, err)
	_, err = e.svc.CreateRegularization(ctx, missedPunch("2025-03-05"))
	require.NoError(t, err)
	_, err = e.svc.RejectRegularization(ctx, attendance.DecideRegularizationRequest{ID: first.ID, CompanyID: testCompanyID, ActorUserID: testAdminID})
	require.NoError(t, err)

	pending := "pending"
	list, err := e.svc.ListRegularizations(ctx, testCompanyID, attendance.RegularizationFilter{Status: &pending})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2025-03-05", list[0].Date)

	all, err := e.svc.ListRegularizations(ctx, testCompanyID, attendance.RegularizationFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bogus := "maybe"
	_, err = e.svc.ListRegularizations(ctx, testCompanyID, attendance.RegularizationFilter{Status: &bogus})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
