package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
)

type leaveRequestRepository struct {
	store *Store
}

func NewLeaveRequestRepository(store *Store) leave.LeaveRequestRepository {
	return &leaveRequestRepository{store: store}
}

func (r *leaveRequestRepository) Create(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if req.ID == "" {
		req.ID = newID()
	}
	req.CreatedAt = r.store.now()
	r.store.leaves[req.ID] = req
	return req, nil
}

func (r *leaveRequestRepository) HasApprovedLeave(ctx context.Context, companyID string, employeeID string, date time.Time) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, l := range r.store.leaves {
		if l.CompanyID == companyID && l.EmployeeID == employeeID &&
			l.Status == leave.LeaveRequestStatusApproved && l.Includes(date) {
			return true, nil
		}
	}
	return false, nil
}
