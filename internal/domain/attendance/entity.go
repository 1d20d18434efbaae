package attendance

import (
	"time"
)

type PunchType string

const (
	PunchIn         PunchType = "IN"
	PunchOut        PunchType = "OUT"
	PunchBreakStart PunchType = "BREAK_START"
	PunchBreakEnd   PunchType = "BREAK_END"
)

var PunchTypeValues = []string{
	string(PunchIn),
	string(PunchOut),
	string(PunchBreakStart),
	string(PunchBreakEnd),
}

type PunchSource string

const (
	PunchSourceWeb         PunchSource = "WEB"
	PunchSourceManual      PunchSource = "MANUAL"
	PunchSourceRegularized PunchSource = "REGULARIZED"
)

type SummarySource string

const (
	SummarySourceAuto        SummarySource = "AUTO"
	SummarySourceManual      SummarySource = "MANUAL"
	SummarySourceRegularized SummarySource = "REGULARIZED"
)

// SummarySourceFor maps the source of a triggering punch write to the source
// recorded on the summary.
func SummarySourceFor(s PunchSource) SummarySource {
	switch s {
	case PunchSourceManual:
		return SummarySourceManual
	case PunchSourceRegularized:
		return SummarySourceRegularized
	default:
		return SummarySourceAuto
	}
}

type Status string

const (
	StatusNotMarked Status = "NOT_MARKED"
	StatusPresent   Status = "PRESENT"
	StatusLate      Status = "LATE"
	StatusHalfDay   Status = "HALF_DAY"
	StatusAbsent    Status = "ABSENT"
	StatusHoliday   Status = "HOLIDAY"
	StatusWeekoff   Status = "WEEKOFF"
	StatusLeave     Status = "LEAVE"
)

var StatusValues = []string{
	string(StatusNotMarked),
	string(StatusPresent),
	string(StatusLate),
	string(StatusHalfDay),
	string(StatusAbsent),
	string(StatusHoliday),
	string(StatusWeekoff),
	string(StatusLeave),
}

// Punch is an immutable clock event attributed to a calendar Date.
type Punch struct {
	ID               string
	CompanyID        string
	EmployeeID       string
	Date             time.Time
	PunchType        PunchType
	PunchAt          time.Time
	Source           PunchSource
	RegularizationID *string
	Meta             map[string]any
	CreatedAt        time.Time
}

// DailySummary is the derived attendance record of one employee on one date.
type DailySummary struct {
	ID              string
	CompanyID       string
	EmployeeID      string
	Date            time.Time
	FirstInAt       *time.Time
	LastOutAt       *time.Time
	WorkMinutes     int
	BreakMinutes    int
	LateMinutes     int
	EarlyMinutes    int
	OvertimeMinutes int
	Status          Status
	Source          SummarySource
	Notes           *string
	Locked          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Figures are the computed part of a DailySummary.
type Figures struct {
	FirstInAt       *time.Time
	LastOutAt       *time.Time
	WorkMinutes     int
	BreakMinutes    int
	LateMinutes     int
	EarlyMinutes    int
	OvertimeMinutes int
	Status          Status
}

func (s *DailySummary) Apply(f Figures) {
	s.FirstInAt = f.FirstInAt
	s.LastOutAt = f.LastOutAt
	s.WorkMinutes = f.WorkMinutes
	s.BreakMinutes = f.BreakMinutes
	s.LateMinutes = f.LateMinutes
	s.EarlyMinutes = f.EarlyMinutes
	s.OvertimeMinutes = f.OvertimeMinutes
	s.Status = f.Status
}

func (s DailySummary) Figures() Figures {
	return Figures{
		FirstInAt:       s.FirstInAt,
		LastOutAt:       s.LastOutAt,
		WorkMinutes:     s.WorkMinutes,
		BreakMinutes:    s.BreakMinutes,
		LateMinutes:     s.LateMinutes,
		EarlyMinutes:    s.EarlyMinutes,
		OvertimeMinutes: s.OvertimeMinutes,
		Status:          s.Status,
	}
}

// AppendNote adds a line to the free-text notes.
func (s *DailySummary) AppendNote(note string) {
	if note == "" {
		return
	}
	if s.Notes == nil || *s.Notes == "" {
		s.Notes = &note
		return
	}
	joined := *s.Notes + "\n" + note
	s.Notes = &joined
}

type RegularizationStatus string

const (
	RegularizationPending  RegularizationStatus = "PENDING"
	RegularizationApproved RegularizationStatus = "APPROVED"
	RegularizationRejected RegularizationStatus = "REJECTED"
)

var RegularizationStatusValues = []string{
	string(RegularizationPending),
	string(RegularizationApproved),
	string(RegularizationRejected),
}

type RegularizationType string

const (
	RegularizationMissedPunch RegularizationType = "MISSED_PUNCH"
	RegularizationWrongPunch  RegularizationType = "WRONG_PUNCH"
	RegularizationOnDuty      RegularizationType = "ON_DUTY"
	RegularizationOther       RegularizationType = "OTHER"
)

// ProposedPunch is a punch an employee asks to have recorded.
type ProposedPunch struct {
	PunchType PunchType `json:"punch_type"`
	PunchAt   time.Time `json:"punch_at"`
}

// Regularization is an employee correction request. It becomes immutable
// once approved or rejected.
type Regularization struct {
	ID                string
	CompanyID         string
	EmployeeID        string
	Date              time.Time
	Type              RegularizationType
	RequestedPunches  []ProposedPunch
	Reason            *string
	Status            RegularizationStatus
	RequestedByUserID *string
	ActionByUserID    *string
	ActionAt          *time.Time
	ActionNote        *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Lock freezes a company's YYYY-MM period. Its existence is the frozen state.
type Lock struct {
	ID             string
	CompanyID      string
	Period         string
	LockedByUserID string
	LockedAt       time.Time
}
