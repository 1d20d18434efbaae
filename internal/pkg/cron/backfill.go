package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/dashboard"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
)

// BackfillJobs fills in the daily summaries of employees who never punched
// on the previous day, so reports stop showing gaps once the day is over.
type BackfillJobs struct {
	dashboardService dashboard.DashboardService
	companyIDs       []string
	loc              *time.Location
	now              func() time.Time
	logger           *slog.Logger
}

func NewBackfillJobs(
	dashboardService dashboard.DashboardService,
	companyIDs []string,
	loc *time.Location,
	now func() time.Time,
	logger *slog.Logger,
) *BackfillJobs {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BackfillJobs{
		dashboardService: dashboardService,
		companyIDs:       companyIDs,
		loc:              loc,
		now:              now,
		logger:           logger,
	}
}

func (j *BackfillJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	if len(j.companyIDs) == 0 {
		j.logger.Info("Cron: no companies configured for backfill")
		return
	}
	scheduler.AddJob("backfill_previous_day", interval, j.BackfillPreviousDay)
}

// BackfillPreviousDay backfills yesterday, in the company zone, for every
// configured company. Backfill only creates missing summaries, so repeated
// runs are harmless.
func (j *BackfillJobs) BackfillPreviousDay(ctx context.Context) error {
	yesterday := dateutil.FormatDate(dateutil.AddDays(dateutil.Today(j.now(), j.loc), -1))

	var errs []error
	total := 0
	for _, companyID := range j.companyIDs {
		created, err := j.dashboardService.Backfill(ctx, companyID, yesterday)
		if err != nil {
			errs = append(errs, fmt.Errorf("company %s: %w", companyID, err))
			continue
		}
		total += created
	}

	if total > 0 {
		j.logger.Info("Cron: backfilled daily summaries", "date", yesterday, "count", total)
	}
	return errors.Join(errs...)
}
