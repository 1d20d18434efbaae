package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/dashboard"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/metrics"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const defaultBackfillConcurrency = 8

type Options struct {
	Location *time.Location
	Now      func() time.Time
	// BackfillConcurrency bounds the recomputations run in parallel.
	BackfillConcurrency int
}

type DashboardServiceImpl struct {
	attendanceService  attendance.AttendanceService
	summaryRepo        attendance.SummaryRepository
	regularizationRepo attendance.RegularizationRepository
	employeeRepo       employee.EmployeeRepository
	assignmentRepo     schedule.AssignmentRepository

	loc         *time.Location
	now         func() time.Time
	concurrency int

	// recomputes collapses concurrent backfills of the same employee-day
	// within this process.
	recomputes singleflight.Group
}

func NewDashboardService(
	attendanceService attendance.AttendanceService,
	summaryRepo attendance.SummaryRepository,
	regularizationRepo attendance.RegularizationRepository,
	employeeRepo employee.EmployeeRepository,
	assignmentRepo schedule.AssignmentRepository,
	opts Options,
) dashboard.DashboardService {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	concurrency := opts.BackfillConcurrency
	if concurrency <= 0 {
		concurrency = defaultBackfillConcurrency
	}
	return &DashboardServiceImpl{
		attendanceService:  attendanceService,
		summaryRepo:        summaryRepo,
		regularizationRepo: regularizationRepo,
		employeeRepo:       employeeRepo,
		assignmentRepo:     assignmentRepo,
		loc:                loc,
		now:                now,
		concurrency:        concurrency,
	}
}

// parseDate parses YYYY-MM-DD, defaulting to today in the company zone.
func (s *DashboardServiceImpl) parseDate(date *string) (time.Time, error) {
	if date == nil || *date == "" {
		return dateutil.Today(s.now(), s.loc), nil
	}
	return dateutil.ParseDate(*date)
}

// Backfill implements dashboard.DashboardService.
func (s *DashboardServiceImpl) Backfill(ctx context.Context, companyID string, date string) (int, error) {
	d, err := dateutil.ParseDate(date)
	if err != nil {
		return 0, apperror.Validation(fmt.Sprintf("date %q must be in YYYY-MM-DD format", date))
	}
	return s.backfill(ctx, companyID, d, "backfill")
}

func (s *DashboardServiceImpl) backfill(ctx context.Context, companyID string, date time.Time, op string) (int, error) {
	started := time.Now()
	employees, err := s.employeeRepo.ListActive(ctx, companyID)
	if err != nil {
		return 0, fmt.Errorf("failed to list active employees: %w", err)
	}
	existing, err := s.summaryRepo.ListByDate(ctx, companyID, date, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to list daily summaries: %w", err)
	}

	have := make(map[string]bool, len(existing))
	for _, sum := range existing {
		have[sum.EmployeeID] = true
	}
	var missing []string
	for _, e := range employees {
		if !have[e.ID] {
			missing = append(missing, e.ID)
		}
	}
	if len(missing) == 0 {
		metrics.ObserveBackfill(op, started, 0)
		return 0, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, employeeID := range missing {
		g.Go(func() error {
			key := companyID + "|" + employeeID + "|" + dateutil.FormatDate(date)
			_, err, _ := s.recomputes.Do(key, func() (any, error) {
				return s.attendanceService.RecomputeDay(gCtx, attendance.RecomputeRequest{
					CompanyID:  companyID,
					EmployeeID: employeeID,
					Date:       date,
					Trigger:    "backfill",
				})
			})
			if err != nil {
				return fmt.Errorf("failed to backfill employee %s: %w", employeeID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	metrics.ObserveBackfill(op, started, len(missing))
	return len(missing), nil
}

// GetDashboard implements dashboard.DashboardService.
func (s *DashboardServiceImpl) GetDashboard(ctx context.Context, req dashboard.DashboardRequest) (dashboard.DashboardResponse, error) {
	if err := req.Validate(); err != nil {
		return dashboard.DashboardResponse{}, err
	}
	date, err := s.parseDate(req.Date)
	if err != nil {
		return dashboard.DashboardResponse{}, err
	}

	backfilled, err := s.backfill(ctx, req.CompanyID, date, "dashboard")
	if err != nil {
		return dashboard.DashboardResponse{}, err
	}

	var (
		summaries []attendance.DailySummary
		pending   int64
		active    []employee.Employee
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		summaries, err = s.summaryRepo.ListByDate(gCtx, req.CompanyID, date, nil)
		return err
	})

	g.Go(func() error {
		var err error
		pending, err = s.regularizationRepo.CountPending(gCtx, req.CompanyID)
		return err
	})

	g.Go(func() error {
		var err error
		active, err = s.employeeRepo.ListActive(gCtx, req.CompanyID)
		return err
	})

	if err := g.Wait(); err != nil {
		return dashboard.DashboardResponse{}, fmt.Errorf("failed to load dashboard data: %w", err)
	}

	entries, err := s.join(ctx, req.CompanyID, date, summaries)
	if err != nil {
		return dashboard.DashboardResponse{}, err
	}

	counts := make(map[string]int, len(attendance.StatusValues))
	for _, st := range attendance.StatusValues {
		counts[st] = 0
	}
	for _, sum := range summaries {
		counts[string(sum.Status)]++
	}

	return dashboard.DashboardResponse{
		Date:                   dateutil.FormatDate(date),
		TotalEmployees:         len(active),
		Counts:                 counts,
		AttendedPercent:        attendedPercent(counts, len(active)),
		PendingRegularizations: pending,
		BackfilledSummaries:    backfilled,
		Summaries:              entries,
	}, nil
}

// GetAttendanceLogs implements dashboard.DashboardService.
func (s *DashboardServiceImpl) GetAttendanceLogs(ctx context.Context, filter dashboard.LogsFilter) ([]dashboard.LogEntry, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	date, err := s.parseDate(filter.Date)
	if err != nil {
		return nil, err
	}

	if _, err := s.backfill(ctx, filter.CompanyID, date, "logs"); err != nil {
		return nil, err
	}

	var status *attendance.Status
	if filter.Status != nil {
		st := attendance.Status(*filter.Status)
		status = &st
	}
	summaries, err := s.summaryRepo.ListByDate(ctx, filter.CompanyID, date, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily summaries: %w", err)
	}

	entries, err := s.join(ctx, filter.CompanyID, date, summaries)
	if err != nil {
		return nil, err
	}

	if filter.Department == nil || *filter.Department == "" {
		return entries, nil
	}
	out := make([]dashboard.LogEntry, 0, len(entries))
	for _, e := range entries {
		if e.Employee.Department != nil && *e.Employee.Department == *filter.Department {
			out = append(out, e)
		}
	}
	return out, nil
}

// join attaches employee and assignment data to summaries, ordered by
// employee code.
func (s *DashboardServiceImpl) join(ctx context.Context, companyID string, date time.Time, summaries []attendance.DailySummary) ([]dashboard.LogEntry, error) {
	ids := make([]string, 0, len(summaries))
	for _, sum := range summaries {
		ids = append(ids, sum.EmployeeID)
	}

	var (
		employees   []employee.Employee
		assignments map[string]schedule.EmployeeShiftAssignment
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		employees, err = s.employeeRepo.GetByIDs(gCtx, ids, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		assignments, err = s.assignmentRepo.GetEffectiveForEmployees(gCtx, companyID, ids, date)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to join attendance logs: %w", err)
	}

	byID := make(map[string]employee.Employee, len(employees))
	for _, e := range employees {
		byID[e.ID] = e
	}

	entries := make([]dashboard.LogEntry, 0, len(summaries))
	for _, sum := range summaries {
		emp, ok := byID[sum.EmployeeID]
		if !ok {
			continue
		}
		entry := dashboard.LogEntry{
			Summary: attendance.NewSummaryResponse(sum, s.loc),
			Employee: dashboard.EmployeeInfo{
				ID:           emp.ID,
				EmployeeCode: emp.EmployeeCode,
				FullName:     emp.FullName,
				Department:   emp.Department,
				Designation:  emp.Designation,
			},
		}
		if a, ok := assignments[sum.EmployeeID]; ok {
			resp := schedule.NewAssignmentResponse(a)
			entry.Assignment = &resp
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Employee.EmployeeCode < entries[j].Employee.EmployeeCode
	})
	return entries, nil
}

// attendedPercent is PRESENT+LATE+HALF_DAY over total, rounded to 2 places.
func attendedPercent(counts map[string]int, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	attended := counts[string(attendance.StatusPresent)] +
		counts[string(attendance.StatusLate)] +
		counts[string(attendance.StatusHalfDay)]
	return decimal.NewFromInt(int64(attended)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}
