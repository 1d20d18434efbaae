package attendance

import (
	"context"
)

// AttendanceService records punches and serves the derived daily records.
type AttendanceService interface {
	// RecordPunch validates the transition against the day's punches,
	// persists the punch and recomputes the summary in one transaction.
	RecordPunch(ctx context.Context, req RecordPunchRequest) (RecordPunchResponse, error)

	// ManualEdit replaces the MANUAL punches of a day and recomputes.
	ManualEdit(ctx context.Context, req ManualEditRequest) (DayResponse, error)

	// GetToday recomputes the day before returning it.
	GetToday(ctx context.Context, req GetTodayRequest) (DayResponse, error)

	// GetCalendar returns stored summaries of a month without recomputing.
	GetCalendar(ctx context.Context, req CalendarRequest) ([]SummaryResponse, error)

	// RecomputeDay recomputes one summary. Summaries of locked periods are
	// returned unchanged.
	RecomputeDay(ctx context.Context, req RecomputeRequest) (DailySummary, error)
}

type LockService interface {
	LockPeriod(ctx context.Context, req LockPeriodRequest) (LockResponse, error)
	UnlockPeriod(ctx context.Context, req UnlockPeriodRequest) error
	ListLocks(ctx context.Context, companyID string) ([]LockResponse, error)
}

type RegularizationService interface {
	CreateRegularization(ctx context.Context, req CreateRegularizationRequest) (RegularizationResponse, error)
	ApproveRegularization(ctx context.Context, req DecideRegularizationRequest) (ApproveRegularizationResponse, error)
	RejectRegularization(ctx context.Context, req DecideRegularizationRequest) (RegularizationResponse, error)
	ListRegularizations(ctx context.Context, companyID string, filter RegularizationFilter) ([]RegularizationResponse, error)
}
