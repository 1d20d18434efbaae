package attendance

import (
	"context"
	"fmt"
	"sort"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CreateRegularization implements attendance.RegularizationService. The
// proposed punches are stored on the request and applied only on approval.
func (s *attendanceServiceImpl) CreateRegularization(ctx context.Context, req attendance.CreateRegularizationRequest) (attendance.RegularizationResponse, error) {
	ctx, span := tracer.Start(ctx, "attendance.Service.CreateRegularization",
		trace.WithAttributes(
			attribute.String("company_id", req.CompanyID),
			attribute.String("employee_id", req.EmployeeID),
			attribute.String("date", req.Date),
		),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		return attendance.RegularizationResponse{}, err
	}
	date, _ := dateutil.ParseDate(req.Date)

	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, req.CompanyID); err != nil {
		return attendance.RegularizationResponse{}, err
	}

	proposed := req.ProposedPunches()
	sort.SliceStable(proposed, func(i, j int) bool { return proposed[i].PunchAt.Before(proposed[j].PunchAt) })

	var reg attendance.Regularization
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureNotLocked(ctx, req.CompanyID, date); err != nil {
			return err
		}

		var requestedBy *string
		if req.RequestedByUserID != "" {
			requestedBy = &req.RequestedByUserID
		}

		var err error
		reg, err = s.regularizationRepo.Create(ctx, attendance.Regularization{
			CompanyID:         req.CompanyID,
			EmployeeID:        req.EmployeeID,
			Date:              date,
			Type:              req.Type,
			RequestedPunches:  proposed,
			Reason:            req.Reason,
			Status:            attendance.RegularizationPending,
			RequestedByUserID: requestedBy,
		})
		if err != nil {
			return fmt.Errorf("create regularization: %w", err)
		}
		return nil
	})
	if err != nil {
		recordSpanError(span, err, "create regularization failed")
		return attendance.RegularizationResponse{}, err
	}

	metrics.ObserveRegularization("created")
	return attendance.NewRegularizationResponse(reg, s.loc), nil
}

// ApproveRegularization implements attendance.RegularizationService.
// Proposed punches are written as REGULARIZED punches without passing the
// punch state machine.
func (s *attendanceServiceImpl) ApproveRegularization(ctx context.Context, req attendance.DecideRegularizationRequest) (attendance.ApproveRegularizationResponse, error) {
	ctx, span := tracer.Start(ctx, "attendance.Service.ApproveRegularization",
		trace.WithAttributes(
			attribute.String("company_id", req.CompanyID),
			attribute.String("regularization_id", req.ID),
		),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		return attendance.ApproveRegularizationResponse{}, err
	}

	var (
		reg attendance.Regularization
		d   day
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		reg, err = s.regularizationRepo.GetByIDForUpdate(ctx, req.ID, req.CompanyID)
		if err != nil {
			return err
		}
		if reg.Status != attendance.RegularizationPending {
			return attendance.ErrRegularizationAlreadyProcessed
		}

		if err := s.ensureNotLocked(ctx, reg.CompanyID, reg.Date); err != nil {
			return err
		}

		summary, _, err := s.summaryRepo.FindOrCreateForUpdate(ctx, reg.CompanyID, reg.EmployeeID, reg.Date)
		if err != nil {
			return fmt.Errorf("find or create daily summary: %w", err)
		}

		for _, p := range reg.RequestedPunches {
			_, err := s.punchRepo.Create(ctx, attendance.Punch{
				CompanyID:        reg.CompanyID,
				EmployeeID:       reg.EmployeeID,
				Date:             reg.Date,
				PunchType:        p.PunchType,
				PunchAt:          p.PunchAt,
				Source:           attendance.PunchSourceRegularized,
				RegularizationID: &reg.ID,
			})
			if err != nil {
				return fmt.Errorf("create regularized punch: %w", err)
			}
		}

		now := s.now()
		reg.Status = attendance.RegularizationApproved
		reg.ActionByUserID = &req.ActorUserID
		reg.ActionAt = &now
		reg.ActionNote = req.Note
		reg, err = s.regularizationRepo.UpdateDecision(ctx, reg)
		if err != nil {
			return fmt.Errorf("update regularization: %w", err)
		}

		source := attendance.SummarySourceRegularized
		d, err = s.recompute(ctx, summary, &source, false, "regularization")
		return err
	})
	if err != nil {
		recordSpanError(span, err, "approve regularization failed")
		return attendance.ApproveRegularizationResponse{}, err
	}

	metrics.ObserveRegularization("approved")
	return attendance.ApproveRegularizationResponse{
		Regularization: attendance.NewRegularizationResponse(reg, s.loc),
		Summary:        attendance.NewSummaryResponse(d.summary, s.loc),
		Punches:        attendance.NewPunchResponses(d.punches, s.loc),
	}, nil
}

// RejectRegularization implements attendance.RegularizationService.
func (s *attendanceServiceImpl) RejectRegularization(ctx context.Context, req attendance.DecideRegularizationRequest) (attendance.RegularizationResponse, error) {
	ctx, span := tracer.Start(ctx, "attendance.Service.RejectRegularization",
		trace.WithAttributes(
			attribute.String("company_id", req.CompanyID),
			attribute.String("regularization_id", req.ID),
		),
	)
	defer span.End()

	if err := req.Validate(); err != nil {
		return attendance.RegularizationResponse{}, err
	}

	var reg attendance.Regularization
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		reg, err = s.regularizationRepo.GetByIDForUpdate(ctx, req.ID, req.CompanyID)
		if err != nil {
			return err
		}
		if reg.Status != attendance.RegularizationPending {
			return attendance.ErrRegularizationAlreadyProcessed
		}

		now := s.now()
		reg.Status = attendance.RegularizationRejected
		reg.ActionByUserID = &req.ActorUserID
		reg.ActionAt = &now
		reg.ActionNote = req.Note
		reg, err = s.regularizationRepo.UpdateDecision(ctx, reg)
		if err != nil {
			return fmt.Errorf("update regularization: %w", err)
		}
		return nil
	})
	if err != nil {
		recordSpanError(span, err, "reject regularization failed")
		return attendance.RegularizationResponse{}, err
	}

	metrics.ObserveRegularization("rejected")
	return attendance.NewRegularizationResponse(reg, s.loc), nil
}

// ListRegularizations implements attendance.RegularizationService.
func (s *attendanceServiceImpl) ListRegularizations(ctx context.Context, companyID string, filter attendance.RegularizationFilter) ([]attendance.RegularizationResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	regs, err := s.regularizationRepo.List(ctx, companyID, filter)
	if err != nil {
		return nil, fmt.Errorf("list regularizations: %w", err)
	}
	out := make([]attendance.RegularizationResponse, 0, len(regs))
	for _, r := range regs {
		out = append(out, attendance.NewRegularizationResponse(r, s.loc))
	}
	return out, nil
}
