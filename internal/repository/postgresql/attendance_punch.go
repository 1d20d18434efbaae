package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

type punchRepositoryImpl struct {
	db *database.DB
}

func NewPunchRepository(db *database.DB) attendance.PunchRepository {
	return &punchRepositoryImpl{db: db}
}

const punchColumns = `id, company_id, employee_id, date, punch_type, punch_at, source,
	regularization_id, meta, created_at`

// Create implements attendance.PunchRepository.
func (r *punchRepositoryImpl) Create(ctx context.Context, punch attendance.Punch) (attendance.Punch, error) {
	q := GetQuerier(ctx, r.db)

	if punch.ID == "" {
		punch.ID = newID()
	}

	query := `
		INSERT INTO attendance_punches (
			id, company_id, employee_id, date, punch_type, punch_at, source, regularization_id, meta
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + punchColumns

	var created attendance.Punch
	err := q.QueryRow(ctx, query,
		punch.ID,
		punch.CompanyID,
		punch.EmployeeID,
		punch.Date,
		punch.PunchType,
		punch.PunchAt,
		punch.Source,
		punch.RegularizationID,
		punch.Meta,
	).Scan(
		&created.ID,
		&created.CompanyID,
		&created.EmployeeID,
		&created.Date,
		&created.PunchType,
		&created.PunchAt,
		&created.Source,
		&created.RegularizationID,
		&created.Meta,
		&created.CreatedAt,
	)
	if err != nil {
		return attendance.Punch{}, fmt.Errorf("failed to create punch: %w", err)
	}
	return created, nil
}

// ListByEmployeeDate implements attendance.PunchRepository.
func (r *punchRepositoryImpl) ListByEmployeeDate(ctx context.Context, companyID string, employeeID string, date time.Time) ([]attendance.Punch, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + punchColumns + `
		FROM attendance_punches
		WHERE company_id = $1 AND employee_id = $2 AND date = $3
		ORDER BY punch_at, created_at, id`

	rows, err := q.Query(ctx, query, companyID, employeeID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var punches []attendance.Punch
	for rows.Next() {
		var p attendance.Punch
		err := rows.Scan(
			&p.ID,
			&p.CompanyID,
			&p.EmployeeID,
			&p.Date,
			&p.PunchType,
			&p.PunchAt,
			&p.Source,
			&p.RegularizationID,
			&p.Meta,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		punches = append(punches, p)
	}
	return punches, rows.Err()
}

// DeleteBySource implements attendance.PunchRepository.
func (r *punchRepositoryImpl) DeleteBySource(ctx context.Context, companyID string, employeeID string, date time.Time, source attendance.PunchSource) (int64, error) {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `
		DELETE FROM attendance_punches
		WHERE company_id = $1 AND employee_id = $2 AND date = $3 AND source = $4
	`, companyID, employeeID, date, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete punches: %w", err)
	}
	return commandTag.RowsAffected(), nil
}
