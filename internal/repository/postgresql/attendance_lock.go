package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type lockRepositoryImpl struct {
	db *database.DB
}

func NewLockRepository(db *database.DB) attendance.LockRepository {
	return &lockRepositoryImpl{db: db}
}

const lockColumns = `id, company_id, period, locked_by_user_id, locked_at`

func scanLock(row pgx.Row) (attendance.Lock, error) {
	var l attendance.Lock
	err := row.Scan(&l.ID, &l.CompanyID, &l.Period, &l.LockedByUserID, &l.LockedAt)
	return l, err
}

// Create implements attendance.LockRepository.
func (r *lockRepositoryImpl) Create(ctx context.Context, lock attendance.Lock) (attendance.Lock, error) {
	q := GetQuerier(ctx, r.db)

	if lock.ID == "" {
		lock.ID = newID()
	}

	query := `
		INSERT INTO attendance_locks (id, company_id, period, locked_by_user_id, locked_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id, period) DO NOTHING
		RETURNING ` + lockColumns

	created, err := scanLock(q.QueryRow(ctx, query, lock.ID, lock.CompanyID, lock.Period, lock.LockedByUserID, lock.LockedAt))
	if err == nil {
		return created, nil
	}
	if err != pgx.ErrNoRows {
		return attendance.Lock{}, fmt.Errorf("failed to create period lock: %w", err)
	}

	existing, err := r.GetByPeriod(ctx, lock.CompanyID, lock.Period)
	if err != nil {
		return attendance.Lock{}, err
	}
	if existing == nil {
		return attendance.Lock{}, fmt.Errorf("period lock %s vanished during creation", lock.Period)
	}
	return *existing, nil
}

// GetByPeriod implements attendance.LockRepository.
func (r *lockRepositoryImpl) GetByPeriod(ctx context.Context, companyID string, period string) (*attendance.Lock, error) {
	q := GetQuerier(ctx, r.db)

	l, err := scanLock(q.QueryRow(ctx,
		`SELECT `+lockColumns+` FROM attendance_locks WHERE company_id = $1 AND period = $2`,
		companyID, period,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get period lock: %w", err)
	}
	return &l, nil
}

// Delete implements attendance.LockRepository.
func (r *lockRepositoryImpl) Delete(ctx context.Context, companyID string, period string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, `DELETE FROM attendance_locks WHERE company_id = $1 AND period = $2`, companyID, period)
	if err != nil {
		return false, fmt.Errorf("failed to delete period lock: %w", err)
	}
	return commandTag.RowsAffected() > 0, nil
}

// List implements attendance.LockRepository.
func (r *lockRepositoryImpl) List(ctx context.Context, companyID string) ([]attendance.Lock, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+lockColumns+` FROM attendance_locks WHERE company_id = $1 ORDER BY period DESC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locks []attendance.Lock
	for rows.Next() {
		l, err := scanLock(rows)
		if err != nil {
			return nil, err
		}
		locks = append(locks, l)
	}
	return locks, rows.Err()
}

// AcquirePeriodGuard implements attendance.LockRepository with a
// transaction-scoped advisory lock keyed by company and period.
func (r *lockRepositoryImpl) AcquirePeriodGuard(ctx context.Context, companyID string, period string, exclusive bool) error {
	q := GetQuerier(ctx, r.db)

	fn := "pg_advisory_xact_lock_shared"
	if exclusive {
		fn = "pg_advisory_xact_lock"
	}
	_, err := q.Exec(ctx, `SELECT `+fn+`(hashtext('period:' || $1::text || ':' || $2::text))`, companyID, period)
	if err != nil {
		return fmt.Errorf("failed to acquire period guard: %w", err)
	}
	return nil
}
