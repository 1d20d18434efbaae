package attendance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ensureNotLocked fails with ErrPeriodLocked when date's period is frozen.
// It must run inside the transaction of the write it guards; the shared
// period guard keeps a concurrent LockPeriod from slipping in between.
func (s *attendanceServiceImpl) ensureNotLocked(ctx context.Context, companyID string, date time.Time) error {
	period := dateutil.PeriodOf(date)
	if err := s.lockRepo.AcquirePeriodGuard(ctx, companyID, period, false); err != nil {
		return fmt.Errorf("acquire period guard: %w", err)
	}
	lock, err := s.lockRepo.GetByPeriod(ctx, companyID, period)
	if err != nil {
		return fmt.Errorf("get period lock: %w", err)
	}
	if lock != nil {
		return attendance.ErrPeriodLocked
	}
	return nil
}

// RecordPunch implements attendance.AttendanceService.
func (s *attendanceServiceImpl) RecordPunch(ctx context.Context, req attendance.RecordPunchRequest) (attendance.RecordPunchResponse, error) {
	ctx, span := tracer.Start(ctx, "attendance.Service.RecordPunch",
		trace.WithAttributes(
			attribute.String("company_id", req.CompanyID),
			attribute.String("employee_id", req.EmployeeID),
			attribute.String("punch_type", string(req.PunchType)),
		),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		return attendance.RecordPunchResponse{}, err
	}

	date, err := s.resolveDate(req.Date)
	if err != nil {
		return attendance.RecordPunchResponse{}, err
	}
	punchAt := s.now()
	if req.PunchAt != nil {
		punchAt, _ = time.Parse(time.RFC3339, *req.PunchAt)
	}

	if _, err := s.requireActiveEmployee(ctx, req.CompanyID, req.EmployeeID); err != nil {
		return attendance.RecordPunchResponse{}, err
	}

	var (
		created attendance.Punch
		d       day
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureNotLocked(ctx, req.CompanyID, date); err != nil {
			return err
		}

		// Taking the summary row first serializes concurrent punches of the
		// same employee-day before the transition check reads the punches.
		summary, _, err := s.summaryRepo.FindOrCreateForUpdate(ctx, req.CompanyID, req.EmployeeID, date)
		if err != nil {
			return fmt.Errorf("find or create daily summary: %w", err)
		}

		existing, err := s.punchRepo.ListByEmployeeDate(ctx, req.CompanyID, req.EmployeeID, date)
		if err != nil {
			return fmt.Errorf("list punches: %w", err)
		}
		if err := ValidateTransition(existing, req.PunchType); err != nil {
			return err
		}

		created, err = s.punchRepo.Create(ctx, attendance.Punch{
			CompanyID:  req.CompanyID,
			EmployeeID: req.EmployeeID,
			Date:       date,
			PunchType:  req.PunchType,
			PunchAt:    punchAt,
			Source:     req.Source,
			Meta:       req.Meta,
		})
		if err != nil {
			return fmt.Errorf("create punch: %w", err)
		}

		source := attendance.SummarySourceFor(req.Source)
		d, err = s.recompute(ctx, summary, &source, false, "punch")
		return err
	})
	if err != nil {
		result := metrics.ResultError
		if isClientError(err) {
			result = metrics.ResultRejected
		}
		metrics.ObservePunch(string(req.PunchType), string(req.Source), result)
		recordSpanError(span, err, "record punch failed")
		return attendance.RecordPunchResponse{}, err
	}
	metrics.ObservePunch(string(req.PunchType), string(req.Source), metrics.ResultAccepted)

	resp := attendance.RecordPunchResponse{
		Punch:   attendance.NewPunchResponse(created, s.loc),
		Summary: attendance.NewSummaryResponse(d.summary, s.loc),
	}
	resp.Assignment = assignmentResponse(d.assignment)
	return resp, nil
}

// ManualEdit implements attendance.AttendanceService. The supplied punches
// replace every MANUAL punch of the day; they are not checked against the
// punch state machine.
func (s *attendanceServiceImpl) ManualEdit(ctx context.Context, req attendance.ManualEditRequest) (attendance.DayResponse, error) {
	ctx, span := tracer.Start(ctx, "attendance.Service.ManualEdit",
		trace.WithAttributes(
			attribute.String("company_id", req.CompanyID),
			attribute.String("employee_id", req.EmployeeID),
			attribute.String("date", req.Date),
			attribute.Int("punches", len(req.Punches)),
		),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		return attendance.DayResponse{}, err
	}
	date, _ := dateutil.ParseDate(req.Date)

	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, req.CompanyID); err != nil {
		return attendance.DayResponse{}, err
	}

	proposed := req.ProposedPunches()
	sort.SliceStable(proposed, func(i, j int) bool { return proposed[i].PunchAt.Before(proposed[j].PunchAt) })

	var d day
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureNotLocked(ctx, req.CompanyID, date); err != nil {
			return err
		}

		summary, _, err := s.summaryRepo.FindOrCreateForUpdate(ctx, req.CompanyID, req.EmployeeID, date)
		if err != nil {
			return fmt.Errorf("find or create daily summary: %w", err)
		}

		if _, err := s.punchRepo.DeleteBySource(ctx, req.CompanyID, req.EmployeeID, date, attendance.PunchSourceManual); err != nil {
			return fmt.Errorf("delete manual punches: %w", err)
		}

		for _, p := range proposed {
			_, err := s.punchRepo.Create(ctx, attendance.Punch{
				CompanyID:  req.CompanyID,
				EmployeeID: req.EmployeeID,
				Date:       date,
				PunchType:  p.PunchType,
				PunchAt:    p.PunchAt,
				Source:     attendance.PunchSourceManual,
				Meta:       map[string]any{"edited_by": req.ActorUserID},
			})
			if err != nil {
				return fmt.Errorf("create manual punch: %w", err)
			}
			metrics.ObservePunch(string(p.PunchType), string(attendance.PunchSourceManual), metrics.ResultAccepted)
		}

		if req.Note != "" {
			summary.AppendNote(s.auditNote("manual edit", req.ActorUserID, req.Note))
		}

		source := attendance.SummarySourceManual
		d, err = s.recompute(ctx, summary, &source, false, "manual_edit")
		return err
	})
	if err != nil {
		recordSpanError(span, err, "manual edit failed")
		return attendance.DayResponse{}, err
	}

	return s.dayResponse(d, false), nil
}

// GetToday implements attendance.AttendanceService.
func (s *attendanceServiceImpl) GetToday(ctx context.Context, req attendance.GetTodayRequest) (attendance.DayResponse, error) {
	ctx, span := tracer.Start(ctx, "attendance.Service.GetToday",
		trace.WithAttributes(
			attribute.String("company_id", req.CompanyID),
			attribute.String("employee_id", req.EmployeeID),
		),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		return attendance.DayResponse{}, err
	}
	date, err := s.resolveDate(req.Date)
	if err != nil {
		return attendance.DayResponse{}, err
	}

	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, req.CompanyID); err != nil {
		return attendance.DayResponse{}, err
	}

	d, err := s.refreshDay(ctx, req.CompanyID, req.EmployeeID, date, "read")
	if err != nil {
		recordSpanError(span, err, "refresh day failed")
		return attendance.DayResponse{}, err
	}

	onLeave, err := s.resolver.HasApprovedLeave(ctx, req.CompanyID, req.EmployeeID, date)
	if err != nil {
		return attendance.DayResponse{}, fmt.Errorf("leave lookup: %w", err)
	}

	return s.dayResponse(d, onLeave), nil
}

// GetCalendar implements attendance.AttendanceService.
func (s *attendanceServiceImpl) GetCalendar(ctx context.Context, req attendance.CalendarRequest) ([]attendance.SummaryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	from, to, err := dateutil.MonthRange(req.Month)
	if err != nil {
		return nil, attendance.ErrInvalidPeriod
	}

	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, req.CompanyID); err != nil {
		return nil, err
	}

	summaries, err := s.summaryRepo.ListByEmployeeRange(ctx, req.CompanyID, req.EmployeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}

	out := make([]attendance.SummaryResponse, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, attendance.NewSummaryResponse(sum, s.loc))
	}
	return out, nil
}
