package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// PUNCH DTOs
// ========================================

type RecordPunchRequest struct {
	CompanyID  string         `json:"-"`
	EmployeeID string         `json:"employee_id"`
	Date       *string        `json:"date,omitempty" validate:"omitempty,date"`
	PunchType  PunchType      `json:"punch_type" validate:"required,oneof=IN OUT BREAK_START BREAK_END"`
	PunchAt    *string        `json:"punch_at,omitempty"`
	Source     PunchSource    `json:"source,omitempty" validate:"omitempty,oneof=WEB MANUAL"`
	Meta       map[string]any `json:"meta,omitempty"`
}

func (r *RecordPunchRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.CompanyID) {
		errs.Add("company_id", "company_id is required")
	}
	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	if r.PunchAt != nil {
		if _, ok := validator.IsValidDateTime(*r.PunchAt); !ok {
			errs.Add("punch_at", "punch_at must be an RFC3339 timestamp")
		}
	}
	if r.Source == "" {
		r.Source = PunchSourceWeb
	}
	return errs.Err()
}

type ManualPunch struct {
	PunchType PunchType `json:"punch_type" validate:"required,oneof=IN OUT BREAK_START BREAK_END"`
	PunchAt   string    `json:"punch_at" validate:"required"`
}

type ManualEditRequest struct {
	CompanyID   string        `json:"-"`
	ActorUserID string        `json:"-"`
	EmployeeID  string        `json:"employee_id" validate:"required"`
	Date        string        `json:"date" validate:"required,date"`
	Punches     []ManualPunch `json:"punches" validate:"dive"`
	Note        string        `json:"note" validate:"max=500"`
}

func (r *ManualEditRequest) Validate() error {
	errs := validator.Struct(r)
	for i, p := range r.Punches {
		if _, ok := validator.IsValidDateTime(p.PunchAt); !ok && p.PunchAt != "" {
			errs.Add("punches["+validator.Itoa(i)+"].punch_at", "punch_at must be an RFC3339 timestamp")
		}
	}
	return errs.Err()
}

type GetTodayRequest struct {
	CompanyID  string
	EmployeeID string
	Date       *string
}

func (r *GetTodayRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	if r.Date != nil {
		if _, ok := validator.IsValidDate(*r.Date); !ok {
			errs.Add("date", "date must be in YYYY-MM-DD format")
		}
	}
	return errs.Err()
}

type CalendarRequest struct {
	CompanyID  string
	EmployeeID string
	Month      string
}

func (r *CalendarRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	if !validator.IsValidPeriod(r.Month) {
		errs.Add("month", "month must be in YYYY-MM format")
	}
	return errs.Err()
}

type RecomputeRequest struct {
	CompanyID  string
	EmployeeID string
	Date       time.Time
	// Trigger labels the recomputation for metrics, e.g. "read" or "backfill".
	Trigger string
}

// ========================================
// REGULARIZATION DTOs
// ========================================

type CreateRegularizationRequest struct {
	CompanyID         string             `json:"-"`
	RequestedByUserID string             `json:"-"`
	EmployeeID        string             `json:"employee_id"`
	Date              string             `json:"date"`
	Type              RegularizationType `json:"type"`
	Punches           []ManualPunch      `json:"punches" validate:"dive"`
	Reason            *string            `json:"reason,omitempty" validate:"omitempty,max=1000"`
}

func (r *CreateRegularizationRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.CompanyID) {
		errs.Add("company_id", "company_id is required")
	}
	if validator.IsEmpty(r.EmployeeID) {
		errs.Add("employee_id", "employee_id is required")
	}
	if validator.IsEmpty(r.Date) {
		errs.Add("date", "date is required")
	} else if _, ok := validator.IsValidDate(r.Date); !ok {
		errs.Add("date", "date must be in YYYY-MM-DD format")
	}
	if validator.IsEmpty(string(r.Type)) {
		errs.Add("type", "type is required")
	}
	if len(r.Punches) == 0 {
		errs.Add("punches", "at least one proposed punch is required")
	}
	for i, p := range r.Punches {
		if _, ok := validator.IsValidDateTime(p.PunchAt); !ok && p.PunchAt != "" {
			errs.Add("punches["+validator.Itoa(i)+"].punch_at", "punch_at must be an RFC3339 timestamp")
		}
	}
	return errs.Err()
}

// ProposedPunches converts the validated request punches.
func (r *CreateRegularizationRequest) ProposedPunches() []ProposedPunch {
	return toProposed(r.Punches)
}

func (r *ManualEditRequest) ProposedPunches() []ProposedPunch {
	return toProposed(r.Punches)
}

func toProposed(in []ManualPunch) []ProposedPunch {
	out := make([]ProposedPunch, 0, len(in))
	for _, p := range in {
		at, _ := validator.IsValidDateTime(p.PunchAt)
		out = append(out, ProposedPunch{PunchType: p.PunchType, PunchAt: at})
	}
	return out
}

type DecideRegularizationRequest struct {
	ID          string  `json:"-"`
	CompanyID   string  `json:"-"`
	ActorUserID string  `json:"-"`
	Note        *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

func (r *DecideRegularizationRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	if validator.IsEmpty(r.ActorUserID) {
		errs.Add("action_by", "acting user is required")
	}
	return errs.Err()
}

type RegularizationFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`
}

func (f *RegularizationFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Status != nil {
		upper := strings.ToUpper(*f.Status)
		f.Status = &upper
		if !validator.IsInSlice(upper, RegularizationStatusValues) {
			errs.Add("status", "status must be one of: "+strings.Join(RegularizationStatusValues, ", "))
		}
	}
	return errs.Err()
}

// ========================================
// LOCK DTOs
// ========================================

type LockPeriodRequest struct {
	CompanyID   string `json:"-"`
	ActorUserID string `json:"-"`
	Period      string `json:"period" validate:"required,period"`
}

func (r *LockPeriodRequest) Validate() error {
	return validator.Struct(r).Err()
}

type UnlockPeriodRequest struct {
	CompanyID   string  `json:"-"`
	ActorUserID string  `json:"-"`
	Period      string  `json:"period" validate:"required,period"`
	Note        *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

func (r *UnlockPeriodRequest) Validate() error {
	return validator.Struct(r).Err()
}

// ========================================
// RESPONSES
// ========================================

type PunchResponse struct {
	ID               string         `json:"id"`
	Date             string         `json:"date"`
	PunchType        PunchType      `json:"punch_type"`
	PunchAt          string         `json:"punch_at"`
	Source           PunchSource    `json:"source"`
	RegularizationID *string        `json:"regularization_id,omitempty"`
	Meta             map[string]any `json:"meta,omitempty"`
}

func NewPunchResponse(p Punch, loc *time.Location) PunchResponse {
	return PunchResponse{
		ID:               p.ID,
		Date:             dateutil.FormatDate(p.Date),
		PunchType:        p.PunchType,
		PunchAt:          p.PunchAt.In(loc).Format(time.RFC3339),
		Source:           p.Source,
		RegularizationID: p.RegularizationID,
		Meta:             p.Meta,
	}
}

func NewPunchResponses(punches []Punch, loc *time.Location) []PunchResponse {
	out := make([]PunchResponse, 0, len(punches))
	for _, p := range punches {
		out = append(out, NewPunchResponse(p, loc))
	}
	return out
}

type SummaryResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	Date            string          `json:"date"`
	FirstInAt       *string         `json:"first_in_at,omitempty"`
	LastOutAt       *string         `json:"last_out_at,omitempty"`
	WorkMinutes     int             `json:"work_minutes"`
	WorkHours       decimal.Decimal `json:"work_hours"`
	BreakMinutes    int             `json:"break_minutes"`
	LateMinutes     int             `json:"late_minutes"`
	EarlyMinutes    int             `json:"early_minutes"`
	OvertimeMinutes int             `json:"overtime_minutes"`
	Status          Status          `json:"status"`
	Source          SummarySource   `json:"source"`
	Notes           *string         `json:"notes,omitempty"`
	Locked          bool            `json:"locked"`
	UpdatedAt       string          `json:"updated_at"`
}

// MinutesToHours converts minutes to hours rounded to two places.
func MinutesToHours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60)).Round(2)
}

func NewSummaryResponse(s DailySummary, loc *time.Location) SummaryResponse {
	resp := SummaryResponse{
		ID:              s.ID,
		EmployeeID:      s.EmployeeID,
		Date:            dateutil.FormatDate(s.Date),
		WorkMinutes:     s.WorkMinutes,
		WorkHours:       MinutesToHours(s.WorkMinutes),
		BreakMinutes:    s.BreakMinutes,
		LateMinutes:     s.LateMinutes,
		EarlyMinutes:    s.EarlyMinutes,
		OvertimeMinutes: s.OvertimeMinutes,
		Status:          s.Status,
		Source:          s.Source,
		Notes:           s.Notes,
		Locked:          s.Locked,
		UpdatedAt:       s.UpdatedAt.In(loc).Format(time.RFC3339),
	}
	if s.FirstInAt != nil {
		v := s.FirstInAt.In(loc).Format(time.RFC3339)
		resp.FirstInAt = &v
	}
	if s.LastOutAt != nil {
		v := s.LastOutAt.In(loc).Format(time.RFC3339)
		resp.LastOutAt = &v
	}
	return resp
}

type RecordPunchResponse struct {
	Punch      PunchResponse                `json:"punch"`
	Summary    SummaryResponse              `json:"summary"`
	Assignment *schedule.AssignmentResponse `json:"assignment,omitempty"`
}

// DayResponse is the full view of one employee-day.
type DayResponse struct {
	Summary         SummaryResponse              `json:"summary"`
	Punches         []PunchResponse              `json:"punches"`
	Assignment      *schedule.AssignmentResponse `json:"assignment,omitempty"`
	OnApprovedLeave bool                         `json:"on_approved_leave"`
}

type RegularizationResponse struct {
	ID               string               `json:"id"`
	EmployeeID       string               `json:"employee_id"`
	Date             string               `json:"date"`
	Type             RegularizationType   `json:"type"`
	RequestedPunches []ProposedPunch      `json:"requested_punches"`
	Reason           *string              `json:"reason,omitempty"`
	Status           RegularizationStatus `json:"status"`
	ActionByUserID   *string              `json:"action_by_user_id,omitempty"`
	ActionAt         *string              `json:"action_at,omitempty"`
	ActionNote       *string              `json:"action_note,omitempty"`
	CreatedAt        string               `json:"created_at"`
}

func NewRegularizationResponse(r Regularization, loc *time.Location) RegularizationResponse {
	resp := RegularizationResponse{
		ID:               r.ID,
		EmployeeID:       r.EmployeeID,
		Date:             dateutil.FormatDate(r.Date),
		Type:             r.Type,
		RequestedPunches: r.RequestedPunches,
		Reason:           r.Reason,
		Status:           r.Status,
		ActionByUserID:   r.ActionByUserID,
		ActionNote:       r.ActionNote,
		CreatedAt:        r.CreatedAt.In(loc).Format(time.RFC3339),
	}
	if resp.RequestedPunches == nil {
		resp.RequestedPunches = []ProposedPunch{}
	}
	if r.ActionAt != nil {
		v := r.ActionAt.In(loc).Format(time.RFC3339)
		resp.ActionAt = &v
	}
	return resp
}

type ApproveRegularizationResponse struct {
	Regularization RegularizationResponse `json:"regularization"`
	Summary        SummaryResponse        `json:"summary"`
	Punches        []PunchResponse        `json:"punches"`
}

type LockResponse struct {
	ID             string `json:"id"`
	Period         string `json:"period"`
	LockedByUserID string `json:"locked_by_user_id"`
	LockedAt       string `json:"locked_at"`
}

func NewLockResponse(l Lock, loc *time.Location) LockResponse {
	return LockResponse{
		ID:             l.ID,
		Period:         l.Period,
		LockedByUserID: l.LockedByUserID,
		LockedAt:       l.LockedAt.In(loc).Format(time.RFC3339),
	}
}
