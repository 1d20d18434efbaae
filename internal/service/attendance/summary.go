package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// day is one employee-day as last computed.
type day struct {
	summary    attendance.DailySummary
	punches    []attendance.Punch
	assignment *schedule.EmployeeShiftAssignment
}

// recompute derives summary from the current punches, assignment, holiday
// and weekoff state and stores it. The caller must hold the summary row
// (FindOrCreateForUpdate in the same transaction). A nil source keeps the
// summary's current source.
func (s *attendanceServiceImpl) recompute(ctx context.Context, summary attendance.DailySummary, source *attendance.SummarySource, locked bool, trigger string) (day, error) {
	d, err := s.loadInputs(ctx, summary)
	if err != nil {
		return day{}, err
	}

	holiday, err := s.resolver.IsHoliday(ctx, summary.CompanyID, summary.Date)
	if err != nil {
		return day{}, fmt.Errorf("holiday lookup: %w", err)
	}

	figures := Calculate(CalculationInput{
		Punches:    d.punches,
		Assignment: d.assignment,
		IsHoliday:  holiday,
		IsWeekoff:  schedule.IsWeekoff(summary.Date, d.assignment),
		Location:   s.loc,
	})

	summary.Apply(figures)
	if source != nil {
		summary.Source = *source
	}
	summary.Locked = locked

	updated, err := s.summaryRepo.Update(ctx, summary)
	if err != nil {
		return day{}, fmt.Errorf("update daily summary: %w", err)
	}
	d.summary = updated

	metrics.ObserveRecompute(trigger, "updated")
	return d, nil
}

func (s *attendanceServiceImpl) loadInputs(ctx context.Context, summary attendance.DailySummary) (day, error) {
	punches, err := s.punchRepo.ListByEmployeeDate(ctx, summary.CompanyID, summary.EmployeeID, summary.Date)
	if err != nil {
		return day{}, fmt.Errorf("list punches: %w", err)
	}
	assignment, err := s.resolver.Resolve(ctx, summary.CompanyID, summary.EmployeeID, summary.Date)
	if err != nil {
		return day{}, fmt.Errorf("resolve assignment: %w", err)
	}
	return day{summary: summary, punches: punches, assignment: assignment}, nil
}

// refreshDay recomputes the day unless it belongs to a locked period, in
// which case the stored summary is returned as is. A summary first created
// inside a locked period is computed once and stored locked.
func (s *attendanceServiceImpl) refreshDay(ctx context.Context, companyID, employeeID string, date time.Time, trigger string) (day, error) {
	var d day
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		period := dateutil.PeriodOf(date)
		if err := s.lockRepo.AcquirePeriodGuard(ctx, companyID, period, false); err != nil {
			return fmt.Errorf("acquire period guard: %w", err)
		}
		lock, err := s.lockRepo.GetByPeriod(ctx, companyID, period)
		if err != nil {
			return fmt.Errorf("get period lock: %w", err)
		}

		summary, created, err := s.summaryRepo.FindOrCreateForUpdate(ctx, companyID, employeeID, date)
		if err != nil {
			return fmt.Errorf("find or create daily summary: %w", err)
		}

		if lock != nil && !created {
			d, err = s.loadInputs(ctx, summary)
			if err != nil {
				return err
			}
			metrics.ObserveRecompute(trigger, "skipped_locked")
			return nil
		}

		d, err = s.recompute(ctx, summary, nil, lock != nil, trigger)
		return err
	})
	return d, err
}

// RecomputeDay implements attendance.AttendanceService.
func (s *attendanceServiceImpl) RecomputeDay(ctx context.Context, req attendance.RecomputeRequest) (attendance.DailySummary, error) {
	ctx, span := tracer.Start(ctx, "attendance.Service.RecomputeDay",
		trace.WithAttributes(
			attribute.String("company_id", req.CompanyID),
			attribute.String("employee_id", req.EmployeeID),
			attribute.String("date", dateutil.FormatDate(req.Date)),
			attribute.String("trigger", req.Trigger),
		),
	)
	defer span.End()

	trigger := req.Trigger
	if trigger == "" {
		trigger = "manual"
	}

	d, err := s.refreshDay(ctx, req.CompanyID, req.EmployeeID, req.Date, trigger)
	if err != nil {
		recordSpanError(span, err, "recompute failed")
		return attendance.DailySummary{}, err
	}
	return d.summary, nil
}
