package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backfillCall struct {
	companyID string
	date      string
}

type fakeDashboard struct {
	dashboard.DashboardService

	mu    sync.Mutex
	calls []backfillCall
	fail  map[string]error
}

func (f *fakeDashboard) Backfill(ctx context.Context, companyID string, date string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, backfillCall{companyID, date})
	if err := f.fail[companyID]; err != nil {
		return 0, err
	}
	return 1, nil
}

func TestBackfillPreviousDay_UsesCompanyZone(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	// 2025-03-03 18:30 UTC is already 2025-03-04 in Jakarta.
	now := func() time.Time { return time.Date(2025, 3, 3, 18, 30, 0, 0, time.UTC) }
	svc := &fakeDashboard{}

	jobs := NewBackfillJobs(svc, []string{"company-a", "company-b"}, jakarta, now, nil)
	require.NoError(t, jobs.BackfillPreviousDay(context.Background()))

	assert.Equal(t, []backfillCall{
		{"company-a", "2025-03-03"},
		{"company-b", "2025-03-03"},
	}, svc.calls)
}

func TestBackfillPreviousDay_ContinuesAfterFailure(t *testing.T) {
	boom := errors.New("database unavailable")
	svc := &fakeDashboard{fail: map[string]error{"company-a": boom}}
	now := func() time.Time { return time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC) }

	jobs := NewBackfillJobs(svc, []string{"company-a", "company-b"}, time.UTC, now, nil)
	err := jobs.BackfillPreviousDay(context.Background())

	require.ErrorIs(t, err, boom)
	assert.Len(t, svc.calls, 2)
	assert.Equal(t, "2025-02-28", svc.calls[1].date)
}

func TestScheduler_RegisterAndRunOnce(t *testing.T) {
	svc := &fakeDashboard{}
	jobs := NewBackfillJobs(svc, []string{"company-a"}, time.UTC, nil, nil)
	scheduler := NewScheduler(nil)

	jobs.RegisterJobs(scheduler, time.Hour)
	require.NoError(t, scheduler.RunOnce(context.Background()))

	assert.Len(t, svc.calls, 1)
}

func TestScheduler_SkipsDisabledJobs(t *testing.T) {
	svc := &fakeDashboard{}
	scheduler := NewScheduler(nil)

	NewBackfillJobs(svc, []string{"company-a"}, time.UTC, nil, nil).RegisterJobs(scheduler, 0)
	NewBackfillJobs(svc, nil, time.UTC, nil, nil).RegisterJobs(scheduler, time.Hour)
	require.NoError(t, scheduler.RunOnce(context.Background()))

	assert.Empty(t, svc.calls)
}

func TestScheduler_StartRunsImmediatelyAndStops(t *testing.T) {
	ran := make(chan struct{}, 1)
	scheduler := NewScheduler(nil)
	scheduler.AddJob("probe", time.Hour, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	scheduler.Start(context.Background())
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}
	scheduler.Stop()
}
