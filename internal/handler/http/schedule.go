package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
)

type ScheduleHandler interface {
	// Policy
	CreatePolicy(w http.ResponseWriter, r *http.Request)
	GetPolicy(w http.ResponseWriter, r *http.Request)
	ListPolicies(w http.ResponseWriter, r *http.Request)
	UpdatePolicy(w http.ResponseWriter, r *http.Request)
	DeletePolicy(w http.ResponseWriter, r *http.Request)

	// Shift
	CreateShift(w http.ResponseWriter, r *http.Request)
	GetShift(w http.ResponseWriter, r *http.Request)
	ListShifts(w http.ResponseWriter, r *http.Request)
	UpdateShift(w http.ResponseWriter, r *http.Request)
	DeleteShift(w http.ResponseWriter, r *http.Request)

	// Holiday
	CreateHoliday(w http.ResponseWriter, r *http.Request)
	ListHolidays(w http.ResponseWriter, r *http.Request)
	UpdateHoliday(w http.ResponseWriter, r *http.Request)
	DeleteHoliday(w http.ResponseWriter, r *http.Request)

	// Assignment
	CreateAssignments(w http.ResponseWriter, r *http.Request)
	ListAssignments(w http.ResponseWriter, r *http.Request)
	UpdateAssignment(w http.ResponseWriter, r *http.Request)
	DeleteAssignment(w http.ResponseWriter, r *http.Request)
}

type scheduleHandlerImpl struct {
	scheduleService schedule.ScheduleService
}

func NewScheduleHandler(scheduleService schedule.ScheduleService) ScheduleHandler {
	return &scheduleHandlerImpl{
		scheduleService: scheduleService,
	}
}

// ==================== POLICY HANDLERS ====================

func (h *scheduleHandlerImpl) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req schedule.CreatePolicyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyID = claims.CompanyID

	result, err := h.scheduleService.CreatePolicy(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Attendance policy created successfully", result)
}

func (h *scheduleHandlerImpl) GetPolicy(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.scheduleService.GetPolicy(r.Context(), chi.URLParam(r, "id"), claims.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *scheduleHandlerImpl) ListPolicies(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.scheduleService.ListPolicies(r.Context(), claims.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.List(w, result)
}

func (h *scheduleHandlerImpl) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req schedule.UpdatePolicyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.CompanyID = claims.CompanyID

	result, err := h.scheduleService.UpdatePolicy(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance policy updated successfully", result)
}

func (h *scheduleHandlerImpl) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.scheduleService.DeletePolicy(r.Context(), chi.URLParam(r, "id"), claims.CompanyID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance policy deleted successfully", nil)
}

// ==================== SHIFT HANDLERS ====================

func (h *scheduleHandlerImpl) CreateShift(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req schedule.CreateShiftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyID = claims.CompanyID

	result, err := h.scheduleService.CreateShift(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Shift created successfully", result)
}

func (h *scheduleHandlerImpl) GetShift(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.scheduleService.GetShift(r.Context(), chi.URLParam(r, "id"), claims.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *scheduleHandlerImpl) ListShifts(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.scheduleService.ListShifts(r.Context(), claims.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.List(w, result)
}

func (h *scheduleHandlerImpl) UpdateShift(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req schedule.UpdateShiftRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.CompanyID = claims.CompanyID

	result, err := h.scheduleService.UpdateShift(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Shift updated successfully", result)
}

func (h *scheduleHandlerImpl) DeleteShift(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.scheduleService.DeleteShift(r.Context(), chi.URLParam(r, "id"), claims.CompanyID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Shift deleted successfully", nil)
}

// ==================== HOLIDAY HANDLERS ====================

func (h *scheduleHandlerImpl) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req schedule.CreateHolidayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyID = claims.CompanyID

	result, err := h.scheduleService.CreateHoliday(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Holiday created successfully", result)
}

// ListHolidays handles GET /holidays?year=2025
func (h *scheduleHandlerImpl) ListHolidays(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var filter schedule.HolidayFilter
	if y := r.URL.Query().Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			response.BadRequest(w, "year must be a number", nil)
			return
		}
		filter.Year = &year
	}

	result, err := h.scheduleService.ListHolidays(r.Context(), claims.CompanyID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.List(w, result)
}

func (h *scheduleHandlerImpl) UpdateHoliday(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req schedule.UpdateHolidayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.CompanyID = claims.CompanyID

	result, err := h.scheduleService.UpdateHoliday(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Holiday updated successfully", result)
}

func (h *scheduleHandlerImpl) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if err := h.scheduleService.DeleteHoliday(r.Context(), chi.URLParam(r, "id"), claims.CompanyID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Holiday deleted successfully", nil)
}

// ==================== ASSIGNMENT HANDLERS ====================

func (h *scheduleHandlerImpl) CreateAssignments(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req schedule.CreateAssignmentsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyID = claims.CompanyID

	result, err := h.scheduleService.CreateAssignments(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Shift assigned successfully", result)
}

// ListAssignments handles GET /assignments?employee_id=
func (h *scheduleHandlerImpl) ListAssignments(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.scheduleService.ListAssignments(r.Context(), claims.CompanyID, employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.List(w, result)
}

func (h *scheduleHandlerImpl) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req schedule.UpdateAssignmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.CompanyID = claims.CompanyID

	result, err := h.scheduleService.UpdateAssignment(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Assignment updated successfully", result)
}

// DeleteAssignment handles DELETE /assignments/{id}?hard=true
func (h *scheduleHandlerImpl) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	hard, _ := strconv.ParseBool(r.URL.Query().Get("hard"))
	err = h.scheduleService.DeleteAssignment(r.Context(), schedule.DeleteAssignmentRequest{
		ID:        chi.URLParam(r, "id"),
		CompanyID: claims.CompanyID,
		Hard:      hard,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Assignment deleted successfully", nil)
}
