package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type holidayRepositoryImpl struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) schedule.HolidayRepository {
	return &holidayRepositoryImpl{db: db}
}

const holidayColumns = `id, company_id, date, name, description, created_at, updated_at`

func scanHoliday(row pgx.Row) (schedule.Holiday, error) {
	var h schedule.Holiday
	err := row.Scan(&h.ID, &h.CompanyID, &h.Date, &h.Name, &h.Description, &h.CreatedAt, &h.UpdatedAt)
	return h, err
}

// Create implements schedule.HolidayRepository.
func (r *holidayRepositoryImpl) Create(ctx context.Context, holiday schedule.Holiday) (schedule.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	if holiday.ID == "" {
		holiday.ID = newID()
	}

	query := `
		INSERT INTO holidays (id, company_id, date, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING ` + holidayColumns

	created, err := scanHoliday(q.QueryRow(ctx, query,
		holiday.ID, holiday.CompanyID, holiday.Date, holiday.Name, holiday.Description,
	))
	if err != nil {
		if code, _ := pgErrorCode(err); code == uniqueViolation {
			return schedule.Holiday{}, schedule.ErrHolidayExists
		}
		return schedule.Holiday{}, fmt.Errorf("failed to create holiday: %w", err)
	}
	return created, nil
}

// GetByID implements schedule.HolidayRepository.
func (r *holidayRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (schedule.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	h, err := scanHoliday(q.QueryRow(ctx, `SELECT `+holidayColumns+` FROM holidays WHERE id = $1 AND company_id = $2`, id, companyID))
	if err != nil {
		if isNoRows(err) {
			return schedule.Holiday{}, schedule.ErrHolidayNotFound
		}
		return schedule.Holiday{}, fmt.Errorf("failed to get holiday with id %s: %w", id, err)
	}
	return h, nil
}

// List implements schedule.HolidayRepository.
func (r *holidayRepositoryImpl) List(ctx context.Context, companyID string, filter schedule.HolidayFilter) ([]schedule.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + holidayColumns + ` FROM holidays WHERE company_id = $1`
	args := []any{companyID}
	if filter.Year != nil {
		query += ` AND EXTRACT(YEAR FROM date) = $2`
		args = append(args, *filter.Year)
	}
	query += ` ORDER BY date`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []schedule.Holiday
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// Update implements schedule.HolidayRepository.
func (r *holidayRepositoryImpl) Update(ctx context.Context, holiday schedule.Holiday) (schedule.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE holidays
		SET date = $3, name = $4, description = $5, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING ` + holidayColumns

	updated, err := scanHoliday(q.QueryRow(ctx, query,
		holiday.ID, holiday.CompanyID, holiday.Date, holiday.Name, holiday.Description,
	))
	if err != nil {
		if isNoRows(err) {
			return schedule.Holiday{}, schedule.ErrHolidayNotFound
		}
		if code, _ := pgErrorCode(err); code == uniqueViolation {
			return schedule.Holiday{}, schedule.ErrHolidayExists
		}
		return schedule.Holiday{}, fmt.Errorf("failed to update holiday: %w", err)
	}
	return updated, nil
}

// Delete implements schedule.HolidayRepository.
func (r *holidayRepositoryImpl) Delete(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM holidays WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	if commandTag.RowsAffected() != 1 {
		return schedule.ErrHolidayNotFound
	}
	return nil
}

// IsHoliday implements schedule.HolidayRepository.
func (r *holidayRepositoryImpl) IsHoliday(ctx context.Context, companyID string, date time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM holidays WHERE company_id = $1 AND date = $2)`, companyID, date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check holiday: %w", err)
	}
	return exists, nil
}
