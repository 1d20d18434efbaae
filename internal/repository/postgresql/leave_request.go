package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	if request.ID == "" {
		request.ID = newID()
	}

	query := `
		INSERT INTO leave_requests (id, company_id, employee_id, start_date, end_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, company_id, employee_id, start_date, end_date, status, created_at
	`

	var created leave.LeaveRequest
	err := q.QueryRow(ctx, query,
		request.ID,
		request.CompanyID,
		request.EmployeeID,
		request.StartDate,
		request.EndDate,
		request.Status,
	).Scan(
		&created.ID,
		&created.CompanyID,
		&created.EmployeeID,
		&created.StartDate,
		&created.EndDate,
		&created.Status,
		&created.CreatedAt,
	)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	return created, nil
}

// HasApprovedLeave implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) HasApprovedLeave(ctx context.Context, companyID string, employeeID string, date time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM leave_requests
			WHERE company_id = $1 AND employee_id = $2 AND status = $3
			  AND start_date <= $4 AND end_date >= $4
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, companyID, employeeID, leave.LeaveRequestStatusApproved, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check approved leave: %w", err)
	}
	return exists, nil
}
