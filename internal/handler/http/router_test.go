package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	attendanceservice "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	dashboardservice "github.com/cmlabs-hris/attendance-engine/internal/service/dashboard"
	scheduleservice "github.com/cmlabs-hris/attendance-engine/internal/service/schedule"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCompanyID = "company-1"

type apiResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    json.RawMessage       `json:"data"`
	Error   *response.ErrorDetail `json:"error"`
	Meta    *response.Meta        `json:"meta"`
}

type apiFixture struct {
	router *chi.Mux
	jwt    jwt.Service
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	store := memory.NewStore()
	require.NoError(t, store.Load(memory.Seed{
		Employees: []employee.Employee{
			{ID: "emp-1", CompanyID: testCompanyID, EmployeeCode: "E001", FullName: "Dewi Lestari"},
			{ID: "emp-2", CompanyID: testCompanyID, EmployeeCode: "E002", FullName: "Raka Pratama"},
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
				EmployeeID:    "emp-1",
				PolicyID:      "policy-1",
				ShiftID:       "shift-1",
				EffectiveFrom: dateutil.Date(2025, time.January, 1),
				WeekoffDays:   schedule.DefaultWeekoff(),
				IsActive:      true,
			},
		},
	}))

	now := func() time.Time { return time.Date(2025, time.March, 3, 9, 5, 0, 0, time.UTC) }
	tx := memory.NewTransactor(store)
	employeeRepo := memory.NewEmployeeRepository(store)
	assignmentRepo := memory.NewAssignmentRepository(store)
	holidayRepo := memory.NewHolidayRepository(store)
	summaryRepo := memory.NewSummaryRepository(store)
	regularizationRepo := memory.NewRegularizationRepository(store)

	attendanceSvc := attendanceservice.NewAttendanceService(
		tx,
		memory.NewPunchRepository(store),
		summaryRepo,
		regularizationRepo,
		memory.NewLockRepository(store),
		employeeRepo,
		scheduleservice.NewResolver(assignmentRepo, holidayRepo, memory.NewLeaveRequestRepository(store)),
		attendanceservice.Options{Now: now},
	)
	scheduleSvc := scheduleservice.NewScheduleService(
		tx,
		memory.NewPolicyRepository(store),
		memory.NewShiftRepository(store),
		assignmentRepo,
		holidayRepo,
		employeeRepo,
	)
	dashboardSvc := dashboardservice.NewDashboardService(attendanceSvc, summaryRepo, regularizationRepo, employeeRepo, assignmentRepo, dashboardservice.Options{Now: now})

	jwtService := jwt.NewJWTService("test-secret-key-for-jwt", time.Hour, 0)
	router := NewRouter(
		RouterOptions{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))},
		jwtService,
		NewAttendanceHandler(attendanceSvc),
		NewScheduleHandler(scheduleSvc),
		NewDashboardHandler(dashboardSvc),
	)
	return &apiFixture{router: router, jwt: jwtService}
}

func (f *apiFixture) employeeToken(t *testing.T, employeeID string) string {
	t.Helper()
	token, _, err := f.jwt.GenerateAccessToken(jwt.Claims{
		UserID:     "user-" + employeeID,
		CompanyID:  testCompanyID,
		EmployeeID: &employeeID,
	})
	require.NoError(t, err)
	return token
}

func (f *apiFixture) adminToken(t *testing.T) string {
	t.Helper()
	token, _, err := f.jwt.GenerateAccessToken(jwt.Claims{
		UserID:    "admin-1",
		CompanyID: testCompanyID,
		IsAdmin:   true,
	})
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) (int, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var resp apiResponse
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func TestRouter_RequiresToken(t *testing.T) {
	f := newAPIFixture(t)

	code, _ := f.do(t, http.MethodGet, "/api/v1/attendance/today", "", nil)

	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRecordPunch_EmployeeUsesServerTime(t *testing.T) {
	f := newAPIFixture(t)
	token := f.employeeToken(t, "emp-1")

	// Act: a client supplied timestamp is ignored for employees.
	code, resp := f.do(t, http.MethodPost, "/api/v1/attendance/punches", token, map[string]any{
		"punch_type": "IN",
		"punch_at":   "2025-03-01T07:00:00Z",
	})

	// Assert
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, resp.Success)

	var data struct {
		Punch struct {
			PunchAt string `json:"punch_at"`
			Source  string `json:"source"`
		} `json:"punch"`
		Summary struct {
			Date        string `json:"date"`
			LateMinutes int    `json:"late_minutes"`
			Status      string `json:"status"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "2025-03-03T09:05:00Z", data.Punch.PunchAt)
	assert.Equal(t, "WEB", data.Punch.Source)
	assert.Equal(t, "2025-03-03", data.Summary.Date)
	assert.Equal(t, 0, data.Summary.LateMinutes)

	code, resp = f.do(t, http.MethodPost, "/api/v1/attendance/punches", token, map[string]any{"punch_type": "IN"})
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Already clocked in for today", resp.Error.Message)
}

func TestRecordPunch_ValidationError(t *testing.T) {
	f := newAPIFixture(t)

	code, resp := f.do(t, http.MethodPost, "/api/v1/attendance/punches", f.employeeToken(t, "emp-1"), map[string]any{"punch_type": "LUNCH"})

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "punch_type")
}

func TestRecordPunch_MalformedBody(t *testing.T) {
	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/punches", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.employeeToken(t, "emp-1"))
	rec := httptest.NewRecorder()

	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetToday_OtherEmployeeIsForbidden(t *testing.T) {
	f := newAPIFixture(t)

	code, _ := f.do(t, http.MethodGet, "/api/v1/attendance/today?employee_id=emp-2", f.employeeToken(t, "emp-1"), nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = f.do(t, http.MethodGet, "/api/v1/attendance/today?employee_id=emp-2", f.adminToken(t), nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestGetToday_AdminWithoutEmployee(t *testing.T) {
	f := newAPIFixture(t)

	code, resp := f.do(t, http.MethodGet, "/api/v1/attendance/today", f.adminToken(t), nil)

	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "authenticated user is not linked to an employee", resp.Error.Message)
}

func TestAdminRoutes_RejectEmployees(t *testing.T) {
	f := newAPIFixture(t)
	token := f.employeeToken(t, "emp-1")

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/policies"},
		{http.MethodGet, "/api/v1/shifts"},
		{http.MethodPost, "/api/v1/holidays"},
		{http.MethodPost, "/api/v1/assignments"},
		{http.MethodGet, "/api/v1/dashboard"},
		{http.MethodPost, "/api/v1/attendance/locks"},
		{http.MethodPut, "/api/v1/attendance/manual"},
		{http.MethodPost, "/api/v1/attendance/regularizations/reg-1/approve"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			code, _ := f.do(t, p.method, p.path, token, nil)
			assert.Equal(t, http.StatusForbidden, code)
		})
	}

	// Read-only schedule data stays visible.
	code, _ := f.do(t, http.MethodGet, "/api/v1/holidays", token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = f.do(t, http.MethodGet, "/api/v1/assignments", token, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestLockPeriod_BlocksPunches(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.adminToken(t)
	employee := f.employeeToken(t, "emp-1")

	code, _ := f.do(t, http.MethodPost, "/api/v1/attendance/locks", admin, map[string]any{"period": "2025-03"})
	require.Equal(t, http.StatusCreated, code)

	code, resp := f.do(t, http.MethodPost, "/api/v1/attendance/punches", employee, map[string]any{"punch_type": "IN"})
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Attendance period is locked", resp.Error.Message)

	code, resp = f.do(t, http.MethodGet, "/api/v1/attendance/locks", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var locks []struct {
		Period string `json:"period"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &locks))
	require.Len(t, locks, 1)
	assert.Equal(t, "2025-03", locks[0].Period)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 1, resp.Meta.Total)

	code, _ = f.do(t, http.MethodDelete, "/api/v1/attendance/locks/2025-03", admin, map[string]any{"note": "payroll rerun"})
	assert.Equal(t, http.StatusOK, code)
	code, _ = f.do(t, http.MethodDelete, "/api/v1/attendance/locks/2025-03", admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.do(t, http.MethodPost, "/api/v1/attendance/punches", employee, map[string]any{"punch_type": "IN"})
	assert.Equal(t, http.StatusCreated, code)
}

func TestRegularization_SubmitAndApprove(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.adminToken(t)
	employee := f.employeeToken(t, "emp-1")

	code, resp := f.do(t, http.MethodPost, "/api/v1/attendance/regularizations", employee, map[string]any{
		"date": "2025-03-04",
		"type": "MISSED_PUNCH",
		"punches": []map[string]string{
			{"punch_type": "IN", "punch_at": "2025-03-04T09:00:00Z"},
			{"punch_type": "OUT", "punch_at": "2025-03-04T18:00:00Z"},
		},
	})
	require.Equal(t, http.StatusCreated, code)
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, "PENDING", created.Status)

	// Employees see only their own requests.
	code, resp = f.do(t, http.MethodGet, "/api/v1/attendance/regularizations?status=pending", employee, nil)
	require.Equal(t, http.StatusOK, code)
	var list []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list, 1)
	code, _ = f.do(t, http.MethodGet, "/api/v1/attendance/regularizations", f.employeeToken(t, "emp-2"), nil)
	require.Equal(t, http.StatusOK, code)

	code, resp = f.do(t, http.MethodPost, "/api/v1/attendance/regularizations/"+created.ID+"/approve", admin, map[string]any{"note": "ok"})
	require.Equal(t, http.StatusOK, code)
	var approved struct {
		Summary struct {
			WorkMinutes int    `json:"work_minutes"`
			Status      string `json:"status"`
			Source      string `json:"source"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &approved))
	assert.Equal(t, 540, approved.Summary.WorkMinutes)
	assert.Equal(t, "PRESENT", approved.Summary.Status)
	assert.Equal(t, "REGULARIZED", approved.Summary.Source)

	code, _ = f.do(t, http.MethodPost, "/api/v1/attendance/regularizations/"+created.ID+"/reject", admin, nil)
	assert.Equal(t, http.StatusConflict, code)
}

func TestSchedule_CreatePolicyAndAssign(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.adminToken(t)

	code, resp := f.do(t, http.MethodPost, "/api/v1/shifts", admin, map[string]any{
		"name":       "Early",
		"start_time": "07:00",
		"end_time":   "16:00",
	})
	require.Equal(t, http.StatusCreated, code)
	var shift struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &shift))

	code, resp = f.do(t, http.MethodPost, "/api/v1/assignments", admin, map[string]any{
		"policy_id":      "policy-1",
		"shift_id":       shift.ID,
		"effective_from": "2025-04-01",
		"scope":          "EMPLOYEES",
		"employee_ids":   []string{"emp-1", "emp-2"},
	})
	require.Equal(t, http.StatusCreated, code)
	var assigned []struct {
		EmployeeID string `json:"employee_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &assigned))
	assert.Len(t, assigned, 2)

	code, _ = f.do(t, http.MethodDelete, "/api/v1/policies/policy-1", admin, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = f.do(t, http.MethodGet, "/api/v1/shifts/missing", admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDashboard_Backfill(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.adminToken(t)

	code, resp := f.do(t, http.MethodPost, "/api/v1/dashboard/backfill?date=2025-03-03", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var data map[string]int
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, 2, data["created"])

	code, _ = f.do(t, http.MethodPost, "/api/v1/dashboard/backfill?date=tomorrow", admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = f.do(t, http.MethodGet, "/api/v1/dashboard", admin, nil)
	require.Equal(t, http.StatusOK, code)
	var dash struct {
		TotalEmployees int `json:"total_employees"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &dash))
	assert.Equal(t, 2, dash.TotalEmployees)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	rec := httptest.NewRecorder()

	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
