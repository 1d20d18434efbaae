// Package app assembles repositories and services for the configured
// storage driver.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/dashboard"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/fixtures"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	dashboardService "github.com/cmlabs-hris/attendance-engine/internal/service/dashboard"
	scheduleService "github.com/cmlabs-hris/attendance-engine/internal/service/schedule"
)

// App holds the wired services.
type App struct {
	Attendance attendanceService.Service
	Schedule   schedule.ScheduleService
	Dashboard  dashboard.DashboardService
	// Location is the company time zone.
	Location *time.Location

	close func()
}

// Close releases the storage backend.
func (a *App) Close() {
	if a.close != nil {
		a.close()
	}
}

type repositories struct {
	tx             database.Transactor
	punch          attendance.PunchRepository
	summary        attendance.SummaryRepository
	regularization attendance.RegularizationRepository
	lock           attendance.LockRepository
	employee       employee.EmployeeRepository
	policy         schedule.PolicyRepository
	shift          schedule.ShiftRepository
	assignment     schedule.AssignmentRepository
	holiday        schedule.HolidayRepository
	leave          leave.LeaveRequestRepository
}

// New opens the storage backend named by cfg.Database.Driver and wires the
// services on top of it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	var (
		repos   repositories
		closeFn func()
	)
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		repos = repositories{
			tx:             postgresql.NewTransactor(db),
			punch:          postgresql.NewPunchRepository(db),
			summary:        postgresql.NewSummaryRepository(db),
			regularization: postgresql.NewRegularizationRepository(db),
			lock:           postgresql.NewLockRepository(db),
			employee:       postgresql.NewEmployeeRepository(db),
			policy:         postgresql.NewPolicyRepository(db),
			shift:          postgresql.NewShiftRepository(db),
			assignment:     postgresql.NewAssignmentRepository(db),
			holiday:        postgresql.NewHolidayRepository(db),
			leave:          postgresql.NewLeaveRequestRepository(db),
		}
		closeFn = db.Close
		logger.Info("connected to postgres", slog.String("host", cfg.Database.Host), slog.String("database", cfg.Database.Name))

	case config.DriverMemory:
		store := memory.NewStore()
		if cfg.Database.FixturesPath != "" {
			if err := fixtures.LoadFile(store, cfg.Database.FixturesPath); err != nil {
				return nil, err
			}
			logger.Info("loaded fixtures", slog.String("path", cfg.Database.FixturesPath))
		}
		repos = repositories{
			tx:             memory.NewTransactor(store),
			punch:          memory.NewPunchRepository(store),
			summary:        memory.NewSummaryRepository(store),
			regularization: memory.NewRegularizationRepository(store),
			lock:           memory.NewLockRepository(store),
			employee:       memory.NewEmployeeRepository(store),
			policy:         memory.NewPolicyRepository(store),
			shift:          memory.NewShiftRepository(store),
			assignment:     memory.NewAssignmentRepository(store),
			holiday:        memory.NewHolidayRepository(store),
			leave:          memory.NewLeaveRequestRepository(store),
		}
		logger.Warn("using in-memory storage, data is lost on exit")

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	resolver := scheduleService.NewResolver(repos.assignment, repos.holiday, repos.leave)
	attendanceSvc := attendanceService.NewAttendanceService(
		repos.tx,
		repos.punch,
		repos.summary,
		repos.regularization,
		repos.lock,
		repos.employee,
		resolver,
		attendanceService.Options{Location: loc},
	)
	scheduleSvc := scheduleService.NewScheduleService(
		repos.tx,
		repos.policy,
		repos.shift,
		repos.assignment,
		repos.holiday,
		repos.employee,
	)
	dashboardSvc := dashboardService.NewDashboardService(
		attendanceSvc,
		repos.summary,
		repos.regularization,
		repos.employee,
		repos.assignment,
		dashboardService.Options{
			Location:            loc,
			BackfillConcurrency: cfg.Attendance.BackfillConcurrency,
		},
	)

	return &App{
		Attendance: attendanceSvc,
		Schedule:   scheduleSvc,
		Dashboard:  dashboardSvc,
		Location:   loc,
		close:      closeFn,
	}, nil
}
