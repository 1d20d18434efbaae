package attendance

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LockPeriod implements attendance.LockService. Locking an already locked
// period returns the existing lock.
func (s *attendanceServiceImpl) LockPeriod(ctx context.Context, req attendance.LockPeriodRequest) (attendance.LockResponse, error) {
	ctx, span := tracer.Start(ctx, "attendance.Service.LockPeriod",
		trace.WithAttributes(
			attribute.String("company_id", req.CompanyID),
			attribute.String("period", req.Period),
		),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		return attendance.LockResponse{}, err
	}
	from, to, err := dateutil.MonthRange(req.Period)
	if err != nil {
		return attendance.LockResponse{}, attendance.ErrInvalidPeriod
	}

	var lock attendance.Lock
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lockRepo.AcquirePeriodGuard(ctx, req.CompanyID, req.Period, true); err != nil {
			return fmt.Errorf("acquire period guard: %w", err)
		}

		existing, err := s.lockRepo.GetByPeriod(ctx, req.CompanyID, req.Period)
		if err != nil {
			return fmt.Errorf("get period lock: %w", err)
		}
		if existing != nil {
			lock = *existing
		} else {
			lock, err = s.lockRepo.Create(ctx, attendance.Lock{
				CompanyID:      req.CompanyID,
				Period:         req.Period,
				LockedByUserID: req.ActorUserID,
				LockedAt:       s.now(),
			})
			if err != nil {
				return fmt.Errorf("create period lock: %w", err)
			}
		}

		n, err := s.summaryRepo.SetLockedForRange(ctx, req.CompanyID, from, to, true, nil)
		if err != nil {
			return fmt.Errorf("lock daily summaries: %w", err)
		}
		span.SetAttributes(attribute.Int64("summaries", n))
		return nil
	})
	if err != nil {
		recordSpanError(span, err, "lock period failed")
		return attendance.LockResponse{}, err
	}

	metrics.ObservePeriodLock("lock")
	return attendance.NewLockResponse(lock, s.loc), nil
}

// UnlockPeriod implements attendance.LockService.
func (s *attendanceServiceImpl) UnlockPeriod(ctx context.Context, req attendance.UnlockPeriodRequest) error {
	ctx, span := tracer.Start(ctx, "attendance.Service.UnlockPeriod",
		trace.WithAttributes(
			attribute.String("company_id", req.CompanyID),
			attribute.String("period", req.Period),
		),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		return err
	}
	from, to, err := dateutil.MonthRange(req.Period)
	if err != nil {
		return attendance.ErrInvalidPeriod
	}

	var note *string
	if req.Note != nil && *req.Note != "" {
		n := s.auditNote("period unlocked", req.ActorUserID, *req.Note)
		note = &n
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.lockRepo.AcquirePeriodGuard(ctx, req.CompanyID, req.Period, true); err != nil {
			return fmt.Errorf("acquire period guard: %w", err)
		}

		deleted, err := s.lockRepo.Delete(ctx, req.CompanyID, req.Period)
		if err != nil {
			return fmt.Errorf("delete period lock: %w", err)
		}
		if !deleted {
			return attendance.ErrLockNotFound
		}

		if _, err := s.summaryRepo.SetLockedForRange(ctx, req.CompanyID, from, to, false, note); err != nil {
			return fmt.Errorf("unlock daily summaries: %w", err)
		}
		return nil
	})
	if err != nil {
		recordSpanError(span, err, "unlock period failed")
		return err
	}

	metrics.ObservePeriodLock("unlock")
	return nil
}

// ListLocks implements attendance.LockService.
func (s *attendanceServiceImpl) ListLocks(ctx context.Context, companyID string) ([]attendance.LockResponse, error) {
	locks, err := s.lockRepo.List(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list period locks: %w", err)
	}
	out := make([]attendance.LockResponse, 0, len(locks))
	for _, l := range locks {
		out = append(out, attendance.NewLockResponse(l, s.loc))
	}
	return out, nil
}
