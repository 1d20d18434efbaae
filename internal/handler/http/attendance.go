package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	attendanceservice "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	RecordPunch(w http.ResponseWriter, r *http.Request)
	GetToday(w http.ResponseWriter, r *http.Request)
	GetCalendar(w http.ResponseWriter, r *http.Request)
	ManualEdit(w http.ResponseWriter, r *http.Request)

	CreateRegularization(w http.ResponseWriter, r *http.Request)
	ListRegularizations(w http.ResponseWriter, r *http.Request)
	ApproveRegularization(w http.ResponseWriter, r *http.Request)
	RejectRegularization(w http.ResponseWriter, r *http.Request)

	LockPeriod(w http.ResponseWriter, r *http.Request)
	UnlockPeriod(w http.ResponseWriter, r *http.Request)
	ListLocks(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendanceservice.Service
}

func NewAttendanceHandler(attendanceService attendanceservice.Service) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && err != io.EOF {
		slog.Debug("Failed to decode request body", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// targetEmployee picks the employee a request acts on. Non-admins may only
// act on themselves.
func targetEmployee(claims jwt.Claims, requested string) (string, error) {
	if requested == "" {
		if claims.EmployeeID == nil {
			return "", attendance.ErrNoEmployee
		}
		return *claims.EmployeeID, nil
	}
	if claims.IsAdmin {
		return requested, nil
	}
	if claims.EmployeeID == nil || *claims.EmployeeID != requested {
		return "", response.ErrForbidden
	}
	return requested, nil
}

func optionalQuery(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

// ==================== PUNCH HANDLERS ====================

// RecordPunch handles POST /attendance/punches
func (h *attendanceHandlerImpl) RecordPunch(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req attendance.RecordPunchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyID = claims.CompanyID
	if req.EmployeeID, err = targetEmployee(claims, req.EmployeeID); err != nil {
		response.HandleError(w, err)
		return
	}
	// Employees punch at server time; only administrators may back-date.
	if !claims.IsAdmin {
		req.Source = attendance.PunchSourceWeb
		req.Date = nil
		req.PunchAt = nil
	}
	if req.Meta == nil {
		req.Meta = map[string]any{}
	}
	req.Meta["recorded_by"] = claims.UserID

	result, err := h.attendanceService.RecordPunch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Punch recorded successfully", result)
}

// GetToday handles GET /attendance/today?employee_id=&date=
func (h *attendanceHandlerImpl) GetToday(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	employeeID, err := targetEmployee(claims, r.URL.Query().Get("employee_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetToday(r.Context(), attendance.GetTodayRequest{
		CompanyID:  claims.CompanyID,
		EmployeeID: employeeID,
		Date:       optionalQuery(r, "date"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetCalendar handles GET /attendance/calendar?employee_id=&month=YYYY-MM
func (h *attendanceHandlerImpl) GetCalendar(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	employeeID, err := targetEmployee(claims, r.URL.Query().Get("employee_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetCalendar(r.Context(), attendance.CalendarRequest{
		CompanyID:  claims.CompanyID,
		EmployeeID: employeeID,
		Month:      r.URL.Query().Get("month"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.List(w, result)
}

// ManualEdit handles PUT /attendance/manual
func (h *attendanceHandlerImpl) ManualEdit(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req attendance.ManualEditRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyID = claims.CompanyID
	req.ActorUserID = claims.UserID

	result, err := h.attendanceService.ManualEdit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance updated successfully", result)
}

// ==================== REGULARIZATION HANDLERS ====================

func (h *attendanceHandlerImpl) CreateRegularization(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req attendance.CreateRegularizationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyID = claims.CompanyID
	req.RequestedByUserID = claims.UserID
	if req.EmployeeID, err = targetEmployee(claims, req.EmployeeID); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.CreateRegularization(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Regularization submitted successfully", result)
}

// ListRegularizations handles GET /attendance/regularizations?employee_id=&status=
func (h *attendanceHandlerImpl) ListRegularizations(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	filter := attendance.RegularizationFilter{
		EmployeeID: optionalQuery(r, "employee_id"),
		Status:     optionalQuery(r, "status"),
	}
	// Employees only ever see their own requests.
	if !claims.IsAdmin {
		requested := ""
		if filter.EmployeeID != nil {
			requested = *filter.EmployeeID
		}
		employeeID, err := targetEmployee(claims, requested)
		if err != nil {
			response.HandleError(w, err)
			return
		}
		filter.EmployeeID = &employeeID
	}

	result, err := h.attendanceService.ListRegularizations(r.Context(), claims.CompanyID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.List(w, result)
}

func (h *attendanceHandlerImpl) decideRequest(w http.ResponseWriter, r *http.Request) (attendance.DecideRegularizationRequest, bool) {
	var req attendance.DecideRegularizationRequest
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return req, false
	}
	if !decodeJSON(w, r, &req) {
		return req, false
	}
	req.ID = chi.URLParam(r, "id")
	req.CompanyID = claims.CompanyID
	req.ActorUserID = claims.UserID
	return req, true
}

// ApproveRegularization handles POST /attendance/regularizations/{id}/approve
func (h *attendanceHandlerImpl) ApproveRegularization(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decideRequest(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.ApproveRegularization(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Regularization approved", result)
}

// RejectRegularization handles POST /attendance/regularizations/{id}/reject
func (h *attendanceHandlerImpl) RejectRegularization(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decideRequest(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.RejectRegularization(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Regularization rejected", result)
}

// ==================== LOCK HANDLERS ====================

// LockPeriod handles POST /attendance/locks
func (h *attendanceHandlerImpl) LockPeriod(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req attendance.LockPeriodRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyID = claims.CompanyID
	req.ActorUserID = claims.UserID

	result, err := h.attendanceService.LockPeriod(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Period locked successfully", result)
}

// UnlockPeriod handles DELETE /attendance/locks/{period}
func (h *attendanceHandlerImpl) UnlockPeriod(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req attendance.UnlockPeriodRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Period = chi.URLParam(r, "period")
	req.CompanyID = claims.CompanyID
	req.ActorUserID = claims.UserID

	if err := h.attendanceService.UnlockPeriod(r.Context(), req); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Period unlocked successfully", nil)
}

func (h *attendanceHandlerImpl) ListLocks(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.ListLocks(r.Context(), claims.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.List(w, result)
}
