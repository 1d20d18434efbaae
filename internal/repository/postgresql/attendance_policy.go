package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type policyRepositoryImpl struct {
	db *database.DB
}

func NewPolicyRepository(db *database.DB) schedule.PolicyRepository {
	return &policyRepositoryImpl{db: db}
}

const policyColumns = `id, company_id, name, full_day_minutes, half_day_minutes,
	grace_minutes_late, grace_minutes_early, overtime_enabled, extensions, created_at, updated_at`

func scanPolicy(row pgx.Row) (schedule.AttendancePolicy, error) {
	var p schedule.AttendancePolicy
	err := row.Scan(
		&p.ID,
		&p.CompanyID,
		&p.Name,
		&p.FullDayMinutes,
		&p.HalfDayMinutes,
		&p.GraceMinutesLate,
		&p.GraceMinutesEarly,
		&p.OvertimeEnabled,
		&p.Extensions,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func extensionsOrEmpty(ext map[string]any) map[string]any {
	if ext == nil {
		return map[string]any{}
	}
	return ext
}

// Create implements schedule.PolicyRepository.
func (r *policyRepositoryImpl) Create(ctx context.Context, policy schedule.AttendancePolicy) (schedule.AttendancePolicy, error) {
	q := GetQuerier(ctx, r.db)

	if policy.ID == "" {
		policy.ID = newID()
	}

	query := `
		INSERT INTO attendance_policies (
			id, company_id, name, full_day_minutes, half_day_minutes,
			grace_minutes_late, grace_minutes_early, overtime_enabled, extensions,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING ` + policyColumns

	created, err := scanPolicy(q.QueryRow(ctx, query,
		policy.ID,
		policy.CompanyID,
		policy.Name,
		policy.FullDayMinutes,
		policy.HalfDayMinutes,
		policy.GraceMinutesLate,
		policy.GraceMinutesEarly,
		policy.OvertimeEnabled,
		extensionsOrEmpty(policy.Extensions),
	))
	if err != nil {
		return schedule.AttendancePolicy{}, fmt.Errorf("failed to create attendance policy: %w", err)
	}
	return created, nil
}

// GetByID implements schedule.PolicyRepository.
func (r *policyRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (schedule.AttendancePolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + policyColumns + ` FROM attendance_policies WHERE id = $1 AND company_id = $2`

	p, err := scanPolicy(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if isNoRows(err) {
			return schedule.AttendancePolicy{}, schedule.ErrPolicyNotFound
		}
		return schedule.AttendancePolicy{}, fmt.Errorf("failed to get attendance policy with id %s: %w", id, err)
	}
	return p, nil
}

// List implements schedule.PolicyRepository.
func (r *policyRepositoryImpl) List(ctx context.Context, companyID string) ([]schedule.AttendancePolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + policyColumns + ` FROM attendance_policies WHERE company_id = $1 ORDER BY name`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []schedule.AttendancePolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// Update implements schedule.PolicyRepository.
func (r *policyRepositoryImpl) Update(ctx context.Context, policy schedule.AttendancePolicy) (schedule.AttendancePolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_policies
		SET name = $3, full_day_minutes = $4, half_day_minutes = $5,
			grace_minutes_late = $6, grace_minutes_early = $7, overtime_enabled = $8,
			extensions = $9, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING ` + policyColumns

	updated, err := scanPolicy(q.QueryRow(ctx, query,
		policy.ID,
		policy.CompanyID,
		policy.Name,
		policy.FullDayMinutes,
		policy.HalfDayMinutes,
		policy.GraceMinutesLate,
		policy.GraceMinutesEarly,
		policy.OvertimeEnabled,
		extensionsOrEmpty(policy.Extensions),
	))
	if err != nil {
		if isNoRows(err) {
			return schedule.AttendancePolicy{}, schedule.ErrPolicyNotFound
		}
		return schedule.AttendancePolicy{}, fmt.Errorf("failed to update attendance policy: %w", err)
	}
	return updated, nil
}

// Delete implements schedule.PolicyRepository.
func (r *policyRepositoryImpl) Delete(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM attendance_policies WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		if code, _ := pgErrorCode(err); code == foreignKeyViolation {
			return schedule.ErrPolicyInUse
		}
		return fmt.Errorf("failed to delete attendance policy: %w", err)
	}
	if commandTag.RowsAffected() != 1 {
		return schedule.ErrPolicyNotFound
	}
	return nil
}

// IsReferenced implements schedule.PolicyRepository.
func (r *policyRepositoryImpl) IsReferenced(ctx context.Context, id string, companyID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT EXISTS (SELECT 1 FROM employee_shift_assignments WHERE policy_id = $1 AND company_id = $2)`

	var exists bool
	if err := q.QueryRow(ctx, query, id, companyID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
