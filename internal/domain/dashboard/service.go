package dashboard

import "context"

type DashboardService interface {
	// GetDashboard back-fills missing summaries for every active employee,
	// then reports per-status counts and the joined summaries.
	GetDashboard(ctx context.Context, req DashboardRequest) (DashboardResponse, error)

	GetAttendanceLogs(ctx context.Context, filter LogsFilter) ([]LogEntry, error)

	// Backfill computes summaries for active employees that have none on
	// date and returns how many were created.
	Backfill(ctx context.Context, companyID string, date string) (int, error)
}
