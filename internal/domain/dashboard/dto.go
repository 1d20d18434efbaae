package dashboard

import (
	"strings"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type DashboardRequest struct {
	CompanyID string
	Date      *string // YYYY-MM-DD, defaults to today
}

func (r *DashboardRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Date != nil {
		if _, ok := validator.IsValidDate(*r.Date); !ok {
			errs.Add("date", "date must be in YYYY-MM-DD format")
		}
	}
	return errs.Err()
}

type LogsFilter struct {
	CompanyID  string
	Date       *string
	Department *string
	Status     *string
}

func (f *LogsFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Date != nil {
		if _, ok := validator.IsValidDate(*f.Date); !ok {
			errs.Add("date", "date must be in YYYY-MM-DD format")
		}
	}
	if f.Status != nil {
		upper := strings.ToUpper(*f.Status)
		f.Status = &upper
		if !validator.IsInSlice(upper, attendance.StatusValues) {
			errs.Add("status", "status must be one of: "+strings.Join(attendance.StatusValues, ", "))
		}
	}
	return errs.Err()
}

// ========== ATTENDANCE LOG ==========

type EmployeeInfo struct {
	ID           string  `json:"id"`
	EmployeeCode string  `json:"employee_code"`
	FullName     string  `json:"full_name"`
	Department   *string `json:"department,omitempty"`
	Designation  *string `json:"designation,omitempty"`
}

// LogEntry is a daily summary joined with its employee and assignment.
type LogEntry struct {
	Summary    attendance.SummaryResponse   `json:"summary"`
	Employee   EmployeeInfo                 `json:"employee"`
	Assignment *schedule.AssignmentResponse `json:"assignment,omitempty"`
}

// ========== DAILY DASHBOARD ==========

type DashboardResponse struct {
	Date                   string          `json:"date"` // Format: "YYYY-MM-DD"
	TotalEmployees         int             `json:"total_employees"`
	Counts                 map[string]int  `json:"counts"`
	AttendedPercent        decimal.Decimal `json:"attended_percent"` // PRESENT+LATE+HALF_DAY over total
	PendingRegularizations int64           `json:"pending_regularizations"`
	BackfilledSummaries    int             `json:"backfilled_summaries"`
	Summaries              []LogEntry      `json:"summaries"`
}
