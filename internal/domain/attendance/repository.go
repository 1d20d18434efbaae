package attendance

import (
	"context"
	"time"
)

// All methods take companyID to keep reads and writes tenant-scoped.

type PunchRepository interface {
	Create(ctx context.Context, punch Punch) (Punch, error)

	// ListByEmployeeDate returns the punches attributed to date ordered by
	// punch_at, then creation order.
	ListByEmployeeDate(ctx context.Context, companyID string, employeeID string, date time.Time) ([]Punch, error)

	DeleteBySource(ctx context.Context, companyID string, employeeID string, date time.Time, source PunchSource) (int64, error)
}

type SummaryRepository interface {
	// FindOrCreateForUpdate returns the summary row for (employee, date),
	// inserting a NOT_MARKED row when none exists. Inside a transaction the
	// row stays locked until commit, serializing writers of the same day.
	// created reports whether the row was inserted by this call.
	FindOrCreateForUpdate(ctx context.Context, companyID string, employeeID string, date time.Time) (summary DailySummary, created bool, err error)

	Update(ctx context.Context, summary DailySummary) (DailySummary, error)
	Get(ctx context.Context, companyID string, employeeID string, date time.Time) (DailySummary, error)
	ListByEmployeeRange(ctx context.Context, companyID string, employeeID string, from time.Time, to time.Time) ([]DailySummary, error)

	// ListByDate returns the summaries of date, optionally only those with
	// the given status.
	ListByDate(ctx context.Context, companyID string, date time.Time, status *Status) ([]DailySummary, error)

	// SetLockedForRange flips the locked flag of every summary in
	// [from, to] and appends note to their notes when non-nil.
	SetLockedForRange(ctx context.Context, companyID string, from time.Time, to time.Time, locked bool, note *string) (int64, error)
}

type RegularizationRepository interface {
	Create(ctx context.Context, reg Regularization) (Regularization, error)
	GetByID(ctx context.Context, id string, companyID string) (Regularization, error)

	// GetByIDForUpdate locks the request row for the surrounding transaction.
	GetByIDForUpdate(ctx context.Context, id string, companyID string) (Regularization, error)

	// UpdateDecision persists status and action fields.
	UpdateDecision(ctx context.Context, reg Regularization) (Regularization, error)

	CountPending(ctx context.Context, companyID string) (int64, error)
	List(ctx context.Context, companyID string, filter RegularizationFilter) ([]Regularization, error)
}

type LockRepository interface {
	// Create inserts the lock; an existing lock of the same period is
	// returned unchanged.
	Create(ctx context.Context, lock Lock) (Lock, error)

	// GetByPeriod returns nil when the period is not locked.
	GetByPeriod(ctx context.Context, companyID string, period string) (*Lock, error)

	// Delete reports whether a lock was removed.
	Delete(ctx context.Context, companyID string, period string) (bool, error)
	List(ctx context.Context, companyID string) ([]Lock, error)

	// AcquirePeriodGuard takes a transaction-scoped guard on
	// (company, period). Writers guarded by the lock check take it shared;
	// lock and unlock take it exclusive.
	AcquirePeriodGuard(ctx context.Context, companyID string, period string, exclusive bool) error
}
