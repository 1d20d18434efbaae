package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type shiftRepositoryImpl struct {
	db *database.DB
}

func NewShiftRepository(db *database.DB) schedule.ShiftRepository {
	return &shiftRepositoryImpl{db: db}
}

// TIME columns are read back as HH:MM text.
const shiftColumns = `id, company_id, name, to_char(start_time, 'HH24:MI'), to_char(end_time, 'HH24:MI'),
	break_rules, created_at, updated_at`

func scanShift(row pgx.Row) (schedule.Shift, error) {
	var s schedule.Shift
	err := row.Scan(
		&s.ID,
		&s.CompanyID,
		&s.Name,
		&s.StartTime,
		&s.EndTime,
		&s.BreakRules,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

// Create implements schedule.ShiftRepository.
func (r *shiftRepositoryImpl) Create(ctx context.Context, shift schedule.Shift) (schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	if shift.ID == "" {
		shift.ID = newID()
	}

	query := `
		INSERT INTO shifts (id, company_id, name, start_time, end_time, break_rules, created_at, updated_at)
		VALUES ($1, $2, $3, $4::time, $5::time, $6, NOW(), NOW())
		RETURNING ` + shiftColumns

	created, err := scanShift(q.QueryRow(ctx, query,
		shift.ID,
		shift.CompanyID,
		shift.Name,
		shift.StartTime,
		shift.EndTime,
		shift.BreakRules,
	))
	if err != nil {
		return schedule.Shift{}, fmt.Errorf("failed to create shift: %w", err)
	}
	return created, nil
}

// GetByID implements schedule.ShiftRepository.
func (r *shiftRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1 AND company_id = $2`

	s, err := scanShift(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if isNoRows(err) {
			return schedule.Shift{}, schedule.ErrShiftNotFound
		}
		return schedule.Shift{}, fmt.Errorf("failed to get shift with id %s: %w", id, err)
	}
	return s, nil
}

// List implements schedule.ShiftRepository.
func (r *shiftRepositoryImpl) List(ctx context.Context, companyID string) ([]schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE company_id = $1 ORDER BY start_time, name`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []schedule.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, s)
	}
	return shifts, rows.Err()
}

// Update implements schedule.ShiftRepository.
func (r *shiftRepositoryImpl) Update(ctx context.Context, shift schedule.Shift) (schedule.Shift, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE shifts
		SET name = $3, start_time = $4::time, end_time = $5::time, break_rules = $6, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING ` + shiftColumns

	updated, err := scanShift(q.QueryRow(ctx, query,
		shift.ID,
		shift.CompanyID,
		shift.Name,
		shift.StartTime,
		shift.EndTime,
		shift.BreakRules,
	))
	if err != nil {
		if isNoRows(err) {
			return schedule.Shift{}, schedule.ErrShiftNotFound
		}
		return schedule.Shift{}, fmt.Errorf("failed to update shift: %w", err)
	}
	return updated, nil
}

// Delete implements schedule.ShiftRepository.
func (r *shiftRepositoryImpl) Delete(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM shifts WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		if code, _ := pgErrorCode(err); code == foreignKeyViolation {
			return schedule.ErrShiftInUse
		}
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	if commandTag.RowsAffected() != 1 {
		return schedule.ErrShiftNotFound
	}
	return nil
}

// IsReferenced implements schedule.ShiftRepository.
func (r *shiftRepositoryImpl) IsReferenced(ctx context.Context, id string, companyID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT EXISTS (SELECT 1 FROM employee_shift_assignments WHERE shift_id = $1 AND company_id = $2)`

	var exists bool
	if err := q.QueryRow(ctx, query, id, companyID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
