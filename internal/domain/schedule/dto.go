package schedule

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// ========================================
// POLICY DTOs
// ========================================

type CreatePolicyRequest struct {
	CompanyID         string         `json:"-"`
	Name              string         `json:"name" validate:"required,max=100"`
	FullDayMinutes    int            `json:"full_day_minutes" validate:"gte=1,lte=1440"`
	HalfDayMinutes    int            `json:"half_day_minutes" validate:"gte=0,lte=1440"`
	GraceMinutesLate  int            `json:"grace_minutes_late" validate:"gte=0,lte=720"`
	GraceMinutesEarly int            `json:"grace_minutes_early" validate:"gte=0,lte=720"`
	OvertimeEnabled   bool           `json:"overtime_enabled"`
	Extensions        map[string]any `json:"extensions,omitempty"`
}

func (r *CreatePolicyRequest) Validate() error {
	errs := validator.Struct(r)
	if r.HalfDayMinutes > r.FullDayMinutes {
		errs.Add("half_day_minutes", "half_day_minutes must not exceed full_day_minutes")
	}
	return errs.Err()
}

type UpdatePolicyRequest struct {
	ID                string         `json:"-"`
	CompanyID         string         `json:"-"`
	Name              *string        `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	FullDayMinutes    *int           `json:"full_day_minutes,omitempty" validate:"omitempty,gte=1,lte=1440"`
	HalfDayMinutes    *int           `json:"half_day_minutes,omitempty" validate:"omitempty,gte=0,lte=1440"`
	GraceMinutesLate  *int           `json:"grace_minutes_late,omitempty" validate:"omitempty,gte=0,lte=720"`
	GraceMinutesEarly *int           `json:"grace_minutes_early,omitempty" validate:"omitempty,gte=0,lte=720"`
	OvertimeEnabled   *bool          `json:"overtime_enabled,omitempty"`
	Extensions        map[string]any `json:"extensions,omitempty"`
}

func (r *UpdatePolicyRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	return errs.Err()
}

// Apply copies the set fields onto p.
func (r *UpdatePolicyRequest) Apply(p *AttendancePolicy) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.FullDayMinutes != nil {
		p.FullDayMinutes = *r.FullDayMinutes
	}
	if r.HalfDayMinutes != nil {
		p.HalfDayMinutes = *r.HalfDayMinutes
	}
	if r.GraceMinutesLate != nil {
		p.GraceMinutesLate = *r.GraceMinutesLate
	}
	if r.GraceMinutesEarly != nil {
		p.GraceMinutesEarly = *r.GraceMinutesEarly
	}
	if r.OvertimeEnabled != nil {
		p.OvertimeEnabled = *r.OvertimeEnabled
	}
	if r.Extensions != nil {
		p.Extensions = r.Extensions
	}
}

type PolicyResponse struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	FullDayMinutes    int            `json:"full_day_minutes"`
	HalfDayMinutes    int            `json:"half_day_minutes"`
	GraceMinutesLate  int            `json:"grace_minutes_late"`
	GraceMinutesEarly int            `json:"grace_minutes_early"`
	OvertimeEnabled   bool           `json:"overtime_enabled"`
	Extensions        map[string]any `json:"extensions,omitempty"`
	CreatedAt         string         `json:"created_at"`
	UpdatedAt         string         `json:"updated_at"`
}

func NewPolicyResponse(p AttendancePolicy) PolicyResponse {
	return PolicyResponse{
		ID:                p.ID,
		Name:              p.Name,
		FullDayMinutes:    p.FullDayMinutes,
		HalfDayMinutes:    p.HalfDayMinutes,
		GraceMinutesLate:  p.GraceMinutesLate,
		GraceMinutesEarly: p.GraceMinutesEarly,
		OvertimeEnabled:   p.OvertimeEnabled,
		Extensions:        p.Extensions,
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         p.UpdatedAt.Format(time.RFC3339),
	}
}

// ========================================
// SHIFT DTOs
// ========================================

type CreateShiftRequest struct {
	CompanyID  string     `json:"-"`
	Name       string     `json:"name" validate:"required,max=100"`
	StartTime  string     `json:"start_time" validate:"required,clock"`
	EndTime    string     `json:"end_time" validate:"required,clock"`
	BreakRules BreakRules `json:"break_rules"`
}

func (r *CreateShiftRequest) Validate() error {
	errs := validator.Struct(r)
	validateShiftWindow(&errs, r.StartTime, r.EndTime)
	validateBreakRules(&errs, r.BreakRules)
	return errs.Err()
}

type UpdateShiftRequest struct {
	ID         string      `json:"-"`
	CompanyID  string      `json:"-"`
	Name       *string     `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	StartTime  *string     `json:"start_time,omitempty" validate:"omitempty,clock"`
	EndTime    *string     `json:"end_time,omitempty" validate:"omitempty,clock"`
	BreakRules *BreakRules `json:"break_rules,omitempty"`
}

func (r *UpdateShiftRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	if r.BreakRules != nil {
		validateBreakRules(&errs, *r.BreakRules)
	}
	return errs.Err()
}

func (r *UpdateShiftRequest) Apply(s *Shift) {
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.StartTime != nil {
		s.StartTime = *r.StartTime
	}
	if r.EndTime != nil {
		s.EndTime = *r.EndTime
	}
	if r.BreakRules != nil {
		s.BreakRules = *r.BreakRules
	}
}

// ValidateShiftWindow checks the merged result of an update.
func ValidateShiftWindow(s Shift) error {
	var errs validator.ValidationErrors
	validateShiftWindow(&errs, s.StartTime, s.EndTime)
	return errs.Err()
}

func validateShiftWindow(errs *validator.ValidationErrors, start, end string) {
	startMin, err1 := dateutil.ParseClock(start)
	endMin, err2 := dateutil.ParseClock(end)
	if err1 != nil || err2 != nil {
		return
	}
	if endMin <= startMin {
		errs.Add("end_time", "end_time must be after start_time")
	}
}

func validateBreakRules(errs *validator.ValidationErrors, b BreakRules) {
	if b.AllowedBreaks < 0 {
		errs.Add("break_rules.allowed_breaks", "allowed_breaks must not be negative")
	}
	if b.MaxBreakMinutes < 0 {
		errs.Add("break_rules.max_break_minutes", "max_break_minutes must not be negative")
	}
}

type ShiftResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	StartTime  string     `json:"start_time"`
	EndTime    string     `json:"end_time"`
	BreakRules BreakRules `json:"break_rules"`
	CreatedAt  string     `json:"created_at"`
	UpdatedAt  string     `json:"updated_at"`
}

func NewShiftResponse(s Shift) ShiftResponse {
	return ShiftResponse{
		ID:         s.ID,
		Name:       s.Name,
		StartTime:  s.StartTime,
		EndTime:    s.EndTime,
		BreakRules: s.BreakRules,
		CreatedAt:  s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  s.UpdatedAt.Format(time.RFC3339),
	}
}

// ========================================
// HOLIDAY DTOs
// ========================================

type CreateHolidayRequest struct {
	CompanyID   string  `json:"-"`
	Date        string  `json:"date" validate:"required,date"`
	Name        string  `json:"name" validate:"required,max=150"`
	Description *string `json:"description,omitempty"`
}

func (r *CreateHolidayRequest) Validate() error {
	return validator.Struct(r).Err()
}

type UpdateHolidayRequest struct {
	ID          string  `json:"-"`
	CompanyID   string  `json:"-"`
	Date        *string `json:"date,omitempty" validate:"omitempty,date"`
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=150"`
	Description *string `json:"description,omitempty"`
}

func (r *UpdateHolidayRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	return errs.Err()
}

type HolidayFilter struct {
	Year *int `json:"year,omitempty"`
}

type HolidayResponse struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func NewHolidayResponse(h Holiday) HolidayResponse {
	return HolidayResponse{
		ID:          h.ID,
		Date:        dateutil.FormatDate(h.Date),
		Name:        h.Name,
		Description: h.Description,
	}
}

// ========================================
// ASSIGNMENT DTOs
// ========================================

type CreateAssignmentsRequest struct {
	CompanyID     string          `json:"-"`
	PolicyID      string          `json:"policy_id" validate:"required"`
	ShiftID       string          `json:"shift_id" validate:"required"`
	EffectiveFrom string          `json:"effective_from" validate:"required,date"`
	EffectiveTo   *string         `json:"effective_to,omitempty" validate:"omitempty,date"`
	WeekoffDays   WeekoffPattern  `json:"weekoff_days,omitempty"`
	Scope         AssignmentScope `json:"scope" validate:"required,oneof=EMPLOYEES DEPARTMENT DESIGNATION ALL"`
	ScopeValue    *string         `json:"scope_value,omitempty"`
	EmployeeIDs   []string        `json:"employee_ids,omitempty"`
}

func (r *CreateAssignmentsRequest) Validate() error {
	errs := validator.Struct(r)

	switch r.Scope {
	case ScopeEmployees:
		if len(r.EmployeeIDs) == 0 {
			errs.Add("employee_ids", "employee_ids is required for scope EMPLOYEES")
		}
	case ScopeDepartment, ScopeDesignation:
		if r.ScopeValue == nil || validator.IsEmpty(*r.ScopeValue) {
			errs.Add("scope_value", "scope_value is required for scope "+string(r.Scope))
		}
	}

	if r.EffectiveTo != nil {
		from, okFrom := validator.IsValidDate(r.EffectiveFrom)
		to, okTo := validator.IsValidDate(*r.EffectiveTo)
		if okFrom && okTo && to.Before(from) {
			errs.Add("effective_to", "effective_to must not be before effective_from")
		}
	}
	return errs.Err()
}

// Range parses the effective interval. Call after Validate.
func (r *CreateAssignmentsRequest) Range() (time.Time, *time.Time) {
	from, _ := dateutil.ParseDate(r.EffectiveFrom)
	if r.EffectiveTo == nil {
		return from, nil
	}
	to, _ := dateutil.ParseDate(*r.EffectiveTo)
	return from, &to
}

type UpdateAssignmentRequest struct {
	ID            string          `json:"-"`
	CompanyID     string          `json:"-"`
	PolicyID      *string         `json:"policy_id,omitempty"`
	ShiftID       *string         `json:"shift_id,omitempty"`
	EffectiveFrom *string         `json:"effective_from,omitempty" validate:"omitempty,date"`
	EffectiveTo   *string         `json:"effective_to,omitempty" validate:"omitempty,date"`
	OpenEnded     bool            `json:"open_ended,omitempty"`
	WeekoffDays   *WeekoffPattern `json:"weekoff_days,omitempty"`
	IsActive      *bool           `json:"is_active,omitempty"`
}

func (r *UpdateAssignmentRequest) Validate() error {
	errs := validator.Struct(r)
	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	if r.OpenEnded && r.EffectiveTo != nil {
		errs.Add("effective_to", "effective_to cannot be combined with open_ended")
	}
	return errs.Err()
}

// Apply copies the set fields onto a. Call after Validate.
func (r *UpdateAssignmentRequest) Apply(a *EmployeeShiftAssignment) {
	if r.PolicyID != nil {
		a.PolicyID = *r.PolicyID
	}
	if r.ShiftID != nil {
		a.ShiftID = *r.ShiftID
	}
	if r.EffectiveFrom != nil {
		a.EffectiveFrom, _ = dateutil.ParseDate(*r.EffectiveFrom)
	}
	if r.EffectiveTo != nil {
		to, _ := dateutil.ParseDate(*r.EffectiveTo)
		a.EffectiveTo = &to
	}
	if r.OpenEnded {
		a.EffectiveTo = nil
	}
	if r.WeekoffDays != nil {
		a.WeekoffDays = r.WeekoffDays.Normalize()
	}
	if r.IsActive != nil {
		a.IsActive = *r.IsActive
	}
}

type DeleteAssignmentRequest struct {
	ID        string
	CompanyID string
	Hard      bool
}

type AssignmentResponse struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employee_id"`
	PolicyID      string          `json:"policy_id"`
	ShiftID       string          `json:"shift_id"`
	EffectiveFrom string          `json:"effective_from"`
	EffectiveTo   *string         `json:"effective_to,omitempty"`
	WeekoffDays   WeekoffPattern  `json:"weekoff_days"`
	IsActive      bool            `json:"is_active"`
	Policy        *PolicyResponse `json:"policy,omitempty"`
	Shift         *ShiftResponse  `json:"shift,omitempty"`
}

func NewAssignmentResponse(a EmployeeShiftAssignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:            a.ID,
		EmployeeID:    a.EmployeeID,
		PolicyID:      a.PolicyID,
		ShiftID:       a.ShiftID,
		EffectiveFrom: dateutil.FormatDate(a.EffectiveFrom),
		WeekoffDays:   a.WeekoffDays,
		IsActive:      a.IsActive,
	}
	if a.EffectiveTo != nil {
		to := dateutil.FormatDate(*a.EffectiveTo)
		resp.EffectiveTo = &to
	}
	if len(resp.WeekoffDays) == 0 {
		resp.WeekoffDays = DefaultWeekoff()
	}
	if a.Policy != nil {
		p := NewPolicyResponse(*a.Policy)
		resp.Policy = &p
	}
	if a.Shift != nil {
		s := NewShiftResponse(*a.Shift)
		resp.Shift = &s
	}
	return resp
}
