// Package dateutil holds the calendar arithmetic used by attendance
// computation. Calendar dates are represented as time.Time values at UTC
// midnight, the same shape pgx returns for DATE columns. Nothing here reads
// the process-local time zone; callers pass the location explicitly.
package dateutil

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout   = "2006-01-02"
	PeriodLayout = "2006-01"
	ClockLayout  = "15:04"
)

// Date truncates y/m/d into a calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// DateOf returns the calendar day t falls on when observed in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return Date(local.Year(), local.Month(), local.Day())
}

// Today returns the current calendar day in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	return DateOf(now, loc)
}

func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// ParsePeriod parses a YYYY-MM period and returns its first day.
func ParsePeriod(period string) (time.Time, error) {
	t, err := time.Parse(PeriodLayout, strings.TrimSpace(period))
	if err != nil {
		return time.Time{}, fmt.Errorf("period must be in YYYY-MM format: %w", err)
	}
	return t, nil
}

// PeriodOf returns the YYYY-MM period a date belongs to.
func PeriodOf(d time.Time) string {
	return d.Format(PeriodLayout)
}

// MonthRange returns the first and last calendar day of period.
func MonthRange(period string) (time.Time, time.Time, error) {
	start, err := ParsePeriod(period)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 1, -1), nil
}

// ParseClock parses an HH:MM wall-clock time into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("time must be in HH:MM format: %w", err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// MinutesOfDay returns the minutes elapsed since local midnight in loc.
func MinutesOfDay(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}

// MinutesBetween returns whole minutes from a to b (negative when b is before a).
func MinutesBetween(a, b time.Time) int {
	return int(b.Sub(a) / time.Minute)
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekday accepts full or three-letter English weekday names, any case.
func ParseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("invalid weekday %q", s)
	}
	return wd, nil
}
