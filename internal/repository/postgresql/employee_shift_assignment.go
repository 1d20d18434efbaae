package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeShiftAssignmentRepository struct {
	db *database.DB
}

func NewAssignmentRepository(db *database.DB) schedule.AssignmentRepository {
	return &employeeShiftAssignmentRepository{db: db}
}

const assignmentColumns = `a.id, a.company_id, a.employee_id, a.policy_id, a.shift_id,
	a.effective_from, a.effective_to, a.weekoff_days, a.is_active, a.created_at, a.updated_at`

// assignmentJoinedColumns adds the policy and shift of the assignment.
const assignmentJoinedColumns = assignmentColumns + `,
	p.id, p.company_id, p.name, p.full_day_minutes, p.half_day_minutes,
	p.grace_minutes_late, p.grace_minutes_early, p.overtime_enabled, p.extensions, p.created_at, p.updated_at,
	s.id, s.company_id, s.name, to_char(s.start_time, 'HH24:MI'), to_char(s.end_time, 'HH24:MI'),
	s.break_rules, s.created_at, s.updated_at`

const assignmentJoins = `
	FROM employee_shift_assignments a
	INNER JOIN attendance_policies p ON p.id = a.policy_id
	INNER JOIN shifts s ON s.id = a.shift_id`

func assignmentDest(a *schedule.EmployeeShiftAssignment, weekoff *[]int16) []any {
	return []any{
		&a.ID,
		&a.CompanyID,
		&a.EmployeeID,
		&a.PolicyID,
		&a.ShiftID,
		&a.EffectiveFrom,
		&a.EffectiveTo,
		weekoff,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	}
}

func scanAssignment(row pgx.Row) (schedule.EmployeeShiftAssignment, error) {
	var (
		a       schedule.EmployeeShiftAssignment
		weekoff []int16
	)
	if err := row.Scan(assignmentDest(&a, &weekoff)...); err != nil {
		return a, err
	}
	a.WeekoffDays = schedule.WeekoffFromInts(weekoff)
	return a, nil
}

func scanJoinedAssignment(row pgx.Row) (schedule.EmployeeShiftAssignment, error) {
	var (
		a       schedule.EmployeeShiftAssignment
		weekoff []int16
		p       schedule.AttendancePolicy
		s       schedule.Shift
	)
	dest := assignmentDest(&a, &weekoff)
	dest = append(dest,
		&p.ID, &p.CompanyID, &p.Name, &p.FullDayMinutes, &p.HalfDayMinutes,
		&p.GraceMinutesLate, &p.GraceMinutesEarly, &p.OvertimeEnabled, &p.Extensions, &p.CreatedAt, &p.UpdatedAt,
		&s.ID, &s.CompanyID, &s.Name, &s.StartTime, &s.EndTime,
		&s.BreakRules, &s.CreatedAt, &s.UpdatedAt,
	)
	if err := row.Scan(dest...); err != nil {
		return a, err
	}
	a.WeekoffDays = schedule.WeekoffFromInts(weekoff)
	a.Policy = &p
	a.Shift = &s
	return a, nil
}

func mapAssignmentWriteError(err error) error {
	code, constraint := pgErrorCode(err)
	switch {
	case code == exclusionViolation && constraint == "no_overlapping_active_assignments":
		return schedule.ErrOverlappingAssignment
	case code == foreignKeyViolation && constraint == "employee_shift_assignments_policy_id_fkey":
		return schedule.ErrPolicyNotFound
	case code == foreignKeyViolation && constraint == "employee_shift_assignments_shift_id_fkey":
		return schedule.ErrShiftNotFound
	}
	return err
}

// Create implements schedule.AssignmentRepository.
func (r *employeeShiftAssignmentRepository) Create(ctx context.Context, assignment schedule.EmployeeShiftAssignment) (schedule.EmployeeShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	if assignment.ID == "" {
		assignment.ID = newID()
	}

	query := `
		INSERT INTO employee_shift_assignments AS a (
			id, company_id, employee_id, policy_id, shift_id,
			effective_from, effective_to, weekoff_days, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING ` + assignmentColumns

	created, err := scanAssignment(q.QueryRow(ctx, query,
		assignment.ID,
		assignment.CompanyID,
		assignment.EmployeeID,
		assignment.PolicyID,
		assignment.ShiftID,
		assignment.EffectiveFrom,
		assignment.EffectiveTo,
		assignment.WeekoffDays.Ints(),
		assignment.IsActive,
	))
	if err != nil {
		if mapped := mapAssignmentWriteError(err); mapped != err {
			return schedule.EmployeeShiftAssignment{}, mapped
		}
		return schedule.EmployeeShiftAssignment{}, fmt.Errorf("failed to create shift assignment: %w", err)
	}
	return created, nil
}

// GetByID implements schedule.AssignmentRepository.
func (r *employeeShiftAssignmentRepository) GetByID(ctx context.Context, id string, companyID string) (schedule.EmployeeShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + assignmentColumns + ` FROM employee_shift_assignments a WHERE a.id = $1 AND a.company_id = $2`

	a, err := scanAssignment(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if isNoRows(err) {
			return schedule.EmployeeShiftAssignment{}, schedule.ErrAssignmentNotFound
		}
		return schedule.EmployeeShiftAssignment{}, fmt.Errorf("failed to get shift assignment with id %s: %w", id, err)
	}
	return a, nil
}

// Update implements schedule.AssignmentRepository.
func (r *employeeShiftAssignmentRepository) Update(ctx context.Context, assignment schedule.EmployeeShiftAssignment) (schedule.EmployeeShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE employee_shift_assignments AS a
		SET policy_id = $3, shift_id = $4, effective_from = $5, effective_to = $6,
			weekoff_days = $7, is_active = $8, updated_at = NOW()
		WHERE a.id = $1 AND a.company_id = $2
		RETURNING ` + assignmentColumns

	updated, err := scanAssignment(q.QueryRow(ctx, query,
		assignment.ID,
		assignment.CompanyID,
		assignment.PolicyID,
		assignment.ShiftID,
		assignment.EffectiveFrom,
		assignment.EffectiveTo,
		assignment.WeekoffDays.Ints(),
		assignment.IsActive,
	))
	if err != nil {
		if isNoRows(err) {
			return schedule.EmployeeShiftAssignment{}, schedule.ErrAssignmentNotFound
		}
		if mapped := mapAssignmentWriteError(err); mapped != err {
			return schedule.EmployeeShiftAssignment{}, mapped
		}
		return schedule.EmployeeShiftAssignment{}, fmt.Errorf("failed to update shift assignment: %w", err)
	}
	return updated, nil
}

// Delete implements schedule.AssignmentRepository.
func (r *employeeShiftAssignmentRepository) Delete(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM employee_shift_assignments WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete shift assignment: %w", err)
	}
	if commandTag.RowsAffected() != 1 {
		return schedule.ErrAssignmentNotFound
	}
	return nil
}

// ListByEmployee implements schedule.AssignmentRepository.
func (r *employeeShiftAssignmentRepository) ListByEmployee(ctx context.Context, companyID string, employeeID string) ([]schedule.EmployeeShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + assignmentJoinedColumns + assignmentJoins + `
		WHERE a.company_id = $1 AND a.employee_id = $2
		ORDER BY a.effective_from DESC, a.created_at DESC`

	rows, err := q.Query(ctx, query, companyID, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []schedule.EmployeeShiftAssignment
	for rows.Next() {
		a, err := scanJoinedAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// GetEffective implements schedule.AssignmentRepository.
func (r *employeeShiftAssignmentRepository) GetEffective(ctx context.Context, companyID string, employeeID string, date time.Time) (*schedule.EmployeeShiftAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + assignmentJoinedColumns + assignmentJoins + `
		WHERE a.company_id = $1 AND a.employee_id = $2 AND a.is_active
		  AND a.effective_from <= $3 AND (a.effective_to IS NULL OR a.effective_to >= $3)
		ORDER BY a.effective_from DESC
		LIMIT 1`

	a, err := scanJoinedAssignment(q.QueryRow(ctx, query, companyID, employeeID, date))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get effective shift assignment: %w", err)
	}
	return &a, nil
}

// GetEffectiveForEmployees implements schedule.AssignmentRepository.
func (r *employeeShiftAssignmentRepository) GetEffectiveForEmployees(ctx context.Context, companyID string, employeeIDs []string, date time.Time) (map[string]schedule.EmployeeShiftAssignment, error) {
	out := make(map[string]schedule.EmployeeShiftAssignment, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return out, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `SELECT DISTINCT ON (a.employee_id) ` + assignmentJoinedColumns + assignmentJoins + `
		WHERE a.company_id = $1 AND a.employee_id = ANY($2::uuid[]) AND a.is_active
		  AND a.effective_from <= $3 AND (a.effective_to IS NULL OR a.effective_to >= $3)
		ORDER BY a.employee_id, a.effective_from DESC`

	rows, err := q.Query(ctx, query, companyID, employeeIDs, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanJoinedAssignment(rows)
		if err != nil {
			return nil, err
		}
		out[a.EmployeeID] = a
	}
	return out, rows.Err()
}

// LockEmployee implements schedule.AssignmentRepository.
func (r *employeeShiftAssignmentRepository) LockEmployee(ctx context.Context, companyID string, employeeID string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('assignment:' || $1::text || ':' || $2::text))`, companyID, employeeID)
	if err != nil {
		return fmt.Errorf("failed to lock employee assignments: %w", err)
	}
	return nil
}
