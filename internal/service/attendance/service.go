package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("attendance")

// Service is the full attendance engine surface.
type Service interface {
	attendance.AttendanceService
	attendance.LockService
	attendance.RegularizationService
}

type Options struct {
	// Location is the company time zone. Defaults to UTC.
	Location *time.Location
	// Now overrides the wall clock, mainly for tests.
	Now func() time.Time
}

type attendanceServiceImpl struct {
	tx                 database.Transactor
	punchRepo          attendance.PunchRepository
	summaryRepo        attendance.SummaryRepository
	regularizationRepo attendance.RegularizationRepository
	lockRepo           attendance.LockRepository
	employeeRepo       employee.EmployeeRepository
	resolver           schedule.Resolver
	loc                *time.Location
	now                func() time.Time
}

func NewAttendanceService(
	tx database.Transactor,
	punchRepo attendance.PunchRepository,
	summaryRepo attendance.SummaryRepository,
	regularizationRepo attendance.RegularizationRepository,
	lockRepo attendance.LockRepository,
	employeeRepo employee.EmployeeRepository,
	resolver schedule.Resolver,
	opts Options,
) Service {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &attendanceServiceImpl{
		tx:                 tx,
		punchRepo:          punchRepo,
		summaryRepo:        summaryRepo,
		regularizationRepo: regularizationRepo,
		lockRepo:           lockRepo,
		employeeRepo:       employeeRepo,
		resolver:           resolver,
		loc:                loc,
		now:                now,
	}
}

// resolveDate returns the requested calendar day, or today in the company zone.
func (s *attendanceServiceImpl) resolveDate(date *string) (time.Time, error) {
	if date == nil || *date == "" {
		return dateutil.Today(s.now(), s.loc), nil
	}
	return dateutil.ParseDate(*date)
}

func (s *attendanceServiceImpl) requireActiveEmployee(ctx context.Context, companyID, employeeID string) (employee.Employee, error) {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID, companyID)
	if err != nil {
		return employee.Employee{}, err
	}
	if !emp.IsActive() {
		return employee.Employee{}, employee.ErrEmployeeInactive
	}
	return emp, nil
}

func (s *attendanceServiceImpl) auditNote(action, actor, note string) string {
	return fmt.Sprintf("[%s] %s by %s: %s", s.now().In(s.loc).Format(time.RFC3339), action, actor, note)
}

func recordSpanError(span trace.Span, err error, msg string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
}
