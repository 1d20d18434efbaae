package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type summaryRepositoryImpl struct {
	db *database.DB
}

func NewSummaryRepository(db *database.DB) attendance.SummaryRepository {
	return &summaryRepositoryImpl{db: db}
}

const summaryColumns = `id, company_id, employee_id, date, first_in_at, last_out_at,
	work_minutes, break_minutes, late_minutes, early_minutes, overtime_minutes,
	status, source, notes, locked, created_at, updated_at`

func scanSummary(row pgx.Row) (attendance.DailySummary, error) {
	var s attendance.DailySummary
	err := row.Scan(
		&s.ID,
		&s.CompanyID,
		&s.EmployeeID,
		&s.Date,
		&s.FirstInAt,
		&s.LastOutAt,
		&s.WorkMinutes,
		&s.BreakMinutes,
		&s.LateMinutes,
		&s.EarlyMinutes,
		&s.OvertimeMinutes,
		&s.Status,
		&s.Source,
		&s.Notes,
		&s.Locked,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

func (r *summaryRepositoryImpl) list(ctx context.Context, query string, args ...any) ([]attendance.DailySummary, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []attendance.DailySummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// FindOrCreateForUpdate implements attendance.SummaryRepository. The insert
// waits on the unique key while another transaction holds an uncommitted row
// for the same day, then the SELECT ... FOR UPDATE takes the row lock.
func (r *summaryRepositoryImpl) FindOrCreateForUpdate(ctx context.Context, companyID string, employeeID string, date time.Time) (attendance.DailySummary, bool, error) {
	q := GetQuerier(ctx, r.db)

	insert := `
		INSERT INTO attendance_daily_summaries (id, company_id, employee_id, date, status, source, locked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW(), NOW())
		ON CONFLICT (company_id, employee_id, date) DO NOTHING
		RETURNING id
	`

	created := true
	var id string
	err := q.QueryRow(ctx, insert,
		newID(), companyID, employeeID, date,
		attendance.StatusNotMarked, attendance.SummarySourceAuto,
	).Scan(&id)
	if err != nil {
		if err != pgx.ErrNoRows {
			return attendance.DailySummary{}, false, fmt.Errorf("failed to insert daily summary: %w", err)
		}
		created = false
	}

	query := `SELECT ` + summaryColumns + `
		FROM attendance_daily_summaries
		WHERE company_id = $1 AND employee_id = $2 AND date = $3
		FOR UPDATE`

	s, err := scanSummary(q.QueryRow(ctx, query, companyID, employeeID, date))
	if err != nil {
		return attendance.DailySummary{}, false, fmt.Errorf("failed to lock daily summary: %w", err)
	}
	return s, created, nil
}

// Update implements attendance.SummaryRepository.
func (r *summaryRepositoryImpl) Update(ctx context.Context, summary attendance.DailySummary) (attendance.DailySummary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_daily_summaries
		SET first_in_at = $2, last_out_at = $3, work_minutes = $4, break_minutes = $5,
			late_minutes = $6, early_minutes = $7, overtime_minutes = $8,
			status = $9, source = $10, notes = $11, locked = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + summaryColumns

	updated, err := scanSummary(q.QueryRow(ctx, query,
		summary.ID,
		summary.FirstInAt,
		summary.LastOutAt,
		summary.WorkMinutes,
		summary.BreakMinutes,
		summary.LateMinutes,
		summary.EarlyMinutes,
		summary.OvertimeMinutes,
		summary.Status,
		summary.Source,
		summary.Notes,
		summary.Locked,
	))
	if err != nil {
		if isNoRows(err) {
			return attendance.DailySummary{}, attendance.ErrSummaryNotFound
		}
		return attendance.DailySummary{}, fmt.Errorf("failed to update daily summary: %w", err)
	}
	return updated, nil
}

// Get implements attendance.SummaryRepository.
func (r *summaryRepositoryImpl) Get(ctx context.Context, companyID string, employeeID string, date time.Time) (attendance.DailySummary, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + summaryColumns + `
		FROM attendance_daily_summaries
		WHERE company_id = $1 AND employee_id = $2 AND date = $3`

	s, err := scanSummary(q.QueryRow(ctx, query, companyID, employeeID, date))
	if err != nil {
		if isNoRows(err) {
			return attendance.DailySummary{}, attendance.ErrSummaryNotFound
		}
		return attendance.DailySummary{}, fmt.Errorf("failed to get daily summary: %w", err)
	}
	return s, nil
}

// ListByEmployeeRange implements attendance.SummaryRepository.
func (r *summaryRepositoryImpl) ListByEmployeeRange(ctx context.Context, companyID string, employeeID string, from time.Time, to time.Time) ([]attendance.DailySummary, error) {
	query := `SELECT ` + summaryColumns + `
		FROM attendance_daily_summaries
		WHERE company_id = $1 AND employee_id = $2 AND date BETWEEN $3 AND $4
		ORDER BY date`
	return r.list(ctx, query, companyID, employeeID, from, to)
}

// ListByDate implements attendance.SummaryRepository.
func (r *summaryRepositoryImpl) ListByDate(ctx context.Context, companyID string, date time.Time, status *attendance.Status) ([]attendance.DailySummary, error) {
	query := `SELECT ` + summaryColumns + `
		FROM attendance_daily_summaries
		WHERE company_id = $1 AND date = $2`
	args := []any{companyID, date}
	if status != nil {
		query += ` AND status = $3`
		args = append(args, *status)
	}
	query += ` ORDER BY employee_id`
	return r.list(ctx, query, args...)
}

// SetLockedForRange implements attendance.SummaryRepository.
func (r *summaryRepositoryImpl) SetLockedForRange(ctx context.Context, companyID string, from time.Time, to time.Time, locked bool, note *string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_daily_summaries
		SET locked = $4,
			notes = CASE
				WHEN $5::text IS NULL THEN notes
				WHEN notes IS NULL OR notes = '' THEN $5::text
				ELSE notes || E'\n' || $5::text
			END,
			updated_at = NOW()
		WHERE company_id = $1 AND date BETWEEN $2 AND $3
	`

	commandTag, err := q.Exec(ctx, query, companyID, from, to, locked, note)
	if err != nil {
		return 0, fmt.Errorf("failed to set summary lock flags: %w", err)
	}
	return commandTag.RowsAffected(), nil
}
