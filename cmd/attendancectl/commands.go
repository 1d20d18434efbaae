package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/cmlabs-hris/attendance-engine/internal/app"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/fixtures"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/spf13/cobra"
)

// opener builds the services a command runs against.
type opener func(ctx context.Context) (*app.App, error)

type cli struct {
	open      opener
	companyID string
	actor     string
}

func newRootCmd(open opener) *cobra.Command {
	c := &cli{open: open}

	rootCmd := &cobra.Command{
		Use:          "attendancectl",
		Short:        "Administer attendance periods, summaries and holiday calendars",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&c.companyID, "company", os.Getenv("ATTENDANCE_COMPANY_ID"), "company id (env ATTENDANCE_COMPANY_ID)")
	rootCmd.PersistentFlags().StringVar(&c.actor, "actor", "attendancectl", "user id recorded as the acting administrator")

	lockCmd := &cobra.Command{
		Use:   "lock [YYYY-MM]",
		Short: "Freeze a month so its attendance can no longer change",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runLock,
	}

	var unlockNote string
	unlockCmd := &cobra.Command{
		Use:   "unlock [YYYY-MM]",
		Short: "Re-open a locked month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runUnlock(cmd, args[0], unlockNote)
		},
	}
	unlockCmd.Flags().StringVar(&unlockNote, "note", "", "reason appended to the notes of every summary in the month")

	locksCmd := &cobra.Command{
		Use:   "locks",
		Short: "List locked months",
		Args:  cobra.NoArgs,
		RunE:  c.runLocks,
	}

	var recomputeEmployee, recomputeDate string
	recomputeCmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute one employee's daily summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRecompute(cmd, recomputeEmployee, recomputeDate)
		},
	}
	recomputeCmd.Flags().StringVar(&recomputeEmployee, "employee", "", "employee id")
	recomputeCmd.Flags().StringVar(&recomputeDate, "date", "", "day to recompute (YYYY-MM-DD)")
	_ = recomputeCmd.MarkFlagRequired("employee")
	_ = recomputeCmd.MarkFlagRequired("date")

	var backfillDate string
	backfillCmd := &cobra.Command{
		Use:   "backfill",
		Short: "Create missing summaries for every active employee on a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBackfill(cmd, backfillDate)
		},
	}
	backfillCmd.Flags().StringVar(&backfillDate, "date", "", "day to back-fill (YYYY-MM-DD)")
	_ = backfillCmd.MarkFlagRequired("date")

	holidaysCmd := &cobra.Command{
		Use:   "holidays",
		Short: "Manage the company holiday calendar",
	}
	holidaysImportCmd := &cobra.Command{
		Use:   "import [file.yaml]",
		Short: "Create holidays from a YAML calendar, skipping dates that already exist",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runHolidaysImport,
	}
	holidaysCmd.AddCommand(holidaysImportCmd)

	rootCmd.AddCommand(lockCmd, unlockCmd, locksCmd, recomputeCmd, backfillCmd, holidaysCmd)
	return rootCmd
}

func (c *cli) app(cmd *cobra.Command) (*app.App, error) {
	if c.companyID == "" {
		return nil, errors.New("--company is required")
	}
	return c.open(cmd.Context())
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) runLock(cmd *cobra.Command, args []string) error {
	a, err := c.app(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	lock, err := a.Attendance.LockPeriod(cmd.Context(), attendance.LockPeriodRequest{
		CompanyID:   c.companyID,
		ActorUserID: c.actor,
		Period:      args[0],
	})
	if err != nil {
		return err
	}
	return printJSON(cmd, lock)
}

func (c *cli) runUnlock(cmd *cobra.Command, period, note string) error {
	a, err := c.app(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	req := attendance.UnlockPeriodRequest{
		CompanyID:   c.companyID,
		ActorUserID: c.actor,
		Period:      period,
	}
	if note != "" {
		req.Note = &note
	}
	if err := a.Attendance.UnlockPeriod(cmd.Context(), req); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "unlocked %s\n", period)
	return nil
}

func (c *cli) runLocks(cmd *cobra.Command, args []string) error {
	a, err := c.app(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	locks, err := a.Attendance.ListLocks(cmd.Context(), c.companyID)
	if err != nil {
		return err
	}
	return printJSON(cmd, locks)
}

func (c *cli) runRecompute(cmd *cobra.Command, employeeID, date string) error {
	day, err := dateutil.ParseDate(date)
	if err != nil {
		return fmt.Errorf("invalid --date %q: %w", date, err)
	}
	a, err := c.app(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.Attendance.RecomputeDay(cmd.Context(), attendance.RecomputeRequest{
		CompanyID:  c.companyID,
		EmployeeID: employeeID,
		Date:       day,
		Trigger:    "cli",
	})
	if err != nil {
		return err
	}
	return printJSON(cmd, attendance.NewSummaryResponse(summary, a.Location))
}

func (c *cli) runBackfill(cmd *cobra.Command, date string) error {
	a, err := c.app(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	created, err := a.Dashboard.Backfill(cmd.Context(), c.companyID, date)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %d summaries for %s\n", created, date)
	return nil
}

func (c *cli) runHolidaysImport(cmd *cobra.Command, args []string) error {
	fh, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer fh.Close()

	reqs, err := fixtures.ParseHolidayCalendar(fh, c.companyID)
	if err != nil {
		return err
	}

	a, err := c.app(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var created, skipped int
	for _, req := range reqs {
		_, err := a.Schedule.CreateHoliday(cmd.Context(), req)
		switch {
		case err == nil:
			created++
		case errors.Is(err, apperror.ErrConflict):
			skipped++
		default:
			return fmt.Errorf("holiday %s %q: %w", req.Date, req.Name, err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d holidays, skipped %d existing\n", created, skipped)
	return nil
}
