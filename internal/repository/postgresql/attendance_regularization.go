package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type regularizationRepositoryImpl struct {
	db *database.DB
}

func NewRegularizationRepository(db *database.DB) attendance.RegularizationRepository {
	return &regularizationRepositoryImpl{db: db}
}

const regularizationColumns = `id, company_id, employee_id, date, type, requested_punches, reason,
	status, requested_by_user_id, action_by_user_id, action_at, action_note, created_at, updated_at`

func scanRegularization(row pgx.Row) (attendance.Regularization, error) {
	var reg attendance.Regularization
	err := row.Scan(
		&reg.ID,
		&reg.CompanyID,
		&reg.EmployeeID,
		&reg.Date,
		&reg.Type,
		&reg.RequestedPunches,
		&reg.Reason,
		&reg.Status,
		&reg.RequestedByUserID,
		&reg.ActionByUserID,
		&reg.ActionAt,
		&reg.ActionNote,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	return reg, err
}

// Create implements attendance.RegularizationRepository.
func (r *regularizationRepositoryImpl) Create(ctx context.Context, reg attendance.Regularization) (attendance.Regularization, error) {
	q := GetQuerier(ctx, r.db)

	if reg.ID == "" {
		reg.ID = newID()
	}
	if reg.RequestedPunches == nil {
		reg.RequestedPunches = []attendance.ProposedPunch{}
	}

	query := `
		INSERT INTO attendance_regularizations (
			id, company_id, employee_id, date, type, requested_punches, reason,
			status, requested_by_user_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING ` + regularizationColumns

	created, err := scanRegularization(q.QueryRow(ctx, query,
		reg.ID,
		reg.CompanyID,
		reg.EmployeeID,
		reg.Date,
		reg.Type,
		reg.RequestedPunches,
		reg.Reason,
		reg.Status,
		reg.RequestedByUserID,
	))
	if err != nil {
		return attendance.Regularization{}, fmt.Errorf("failed to create regularization: %w", err)
	}
	return created, nil
}

func (r *regularizationRepositoryImpl) get(ctx context.Context, id, companyID, suffix string) (attendance.Regularization, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + regularizationColumns + `
		FROM attendance_regularizations
		WHERE id = $1 AND company_id = $2` + suffix

	reg, err := scanRegularization(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if isNoRows(err) {
			return attendance.Regularization{}, attendance.ErrRegularizationNotFound
		}
		return attendance.Regularization{}, fmt.Errorf("failed to get regularization with id %s: %w", id, err)
	}
	return reg, nil
}

// GetByID implements attendance.RegularizationRepository.
func (r *regularizationRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (attendance.Regularization, error) {
	return r.get(ctx, id, companyID, "")
}

// GetByIDForUpdate implements attendance.RegularizationRepository.
func (r *regularizationRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string, companyID string) (attendance.Regularization, error) {
	return r.get(ctx, id, companyID, " FOR UPDATE")
}

// UpdateDecision implements attendance.RegularizationRepository.
func (r *regularizationRepositoryImpl) UpdateDecision(ctx context.Context, reg attendance.Regularization) (attendance.Regularization, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_regularizations
		SET status = $3, action_by_user_id = $4, action_at = $5, action_note = $6, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING ` + regularizationColumns

	updated, err := scanRegularization(q.QueryRow(ctx, query,
		reg.ID,
		reg.CompanyID,
		reg.Status,
		reg.ActionByUserID,
		reg.ActionAt,
		reg.ActionNote,
	))
	if err != nil {
		if isNoRows(err) {
			return attendance.Regularization{}, attendance.ErrRegularizationNotFound
		}
		return attendance.Regularization{}, fmt.Errorf("failed to update regularization: %w", err)
	}
	return updated, nil
}

// CountPending implements attendance.RegularizationRepository.
func (r *regularizationRepositoryImpl) CountPending(ctx context.Context, companyID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var total int64
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM attendance_regularizations WHERE company_id = $1 AND status = $2`,
		companyID, attendance.RegularizationPending,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending regularizations: %w", err)
	}
	return total, nil
}

// List implements attendance.RegularizationRepository.
func (r *regularizationRepositoryImpl) List(ctx context.Context, companyID string, filter attendance.RegularizationFilter) ([]attendance.Regularization, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + regularizationColumns + ` FROM attendance_regularizations WHERE company_id = $1`
	args := []any{companyID}
	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		query += fmt.Sprintf(" AND employee_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regs []attendance.Regularization
	for rows.Next() {
		reg, err := scanRegularization(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}
