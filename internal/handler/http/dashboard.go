package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/dashboard"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
)

type DashboardHandler interface {
	// GetDashboard returns the day's status counts and summaries
	GetDashboard(w http.ResponseWriter, r *http.Request)
	// GetAttendanceLogs returns summaries joined with employees
	GetAttendanceLogs(w http.ResponseWriter, r *http.Request)
	// Backfill creates the missing summaries of a day
	Backfill(w http.ResponseWriter, r *http.Request)
}

type dashboardHandlerImpl struct {
	dashboardService dashboard.DashboardService
}

func NewDashboardHandler(dashboardService dashboard.DashboardService) DashboardHandler {
	return &dashboardHandlerImpl{dashboardService: dashboardService}
}

// GetDashboard handles GET /dashboard
func (h *dashboardHandlerImpl) GetDashboard(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.dashboardService.GetDashboard(r.Context(), dashboard.DashboardRequest{
		CompanyID: claims.CompanyID,
		Date:      optionalQuery(r, "date"), // format: YYYY-MM-DD, default: today
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetAttendanceLogs handles GET /dashboard/logs
func (h *dashboardHandlerImpl) GetAttendanceLogs(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.dashboardService.GetAttendanceLogs(r.Context(), dashboard.LogsFilter{
		CompanyID:  claims.CompanyID,
		Date:       optionalQuery(r, "date"),
		Department: optionalQuery(r, "department"),
		Status:     optionalQuery(r, "status"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.List(w, result)
}

// Backfill handles POST /dashboard/backfill?date=YYYY-MM-DD
func (h *dashboardHandlerImpl) Backfill(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	created, err := h.dashboardService.Backfill(r.Context(), claims.CompanyID, r.URL.Query().Get("date"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, map[string]int{"created": created})
}
