package leave

import "time"

// LeaveRequest is the read model of the leave collaborator. Only approved
// requests matter to attendance.
type LeaveRequest struct {
	ID         string
	CompanyID  string
	EmployeeID string
	StartDate  time.Time
	EndDate    time.Time
	Status     LeaveRequestStatus
	CreatedAt  time.Time
}

type LeaveRequestStatus string

const (
	LeaveRequestStatusWaitingApproval LeaveRequestStatus = "waiting_approval"
	LeaveRequestStatusApproved        LeaveRequestStatus = "approved"
	LeaveRequestStatusRejected        LeaveRequestStatus = "rejected"
	LeaveRequestStatusCancelled       LeaveRequestStatus = "cancelled"
)

// Includes reports whether date lies within the request's inclusive range.
func (l LeaveRequest) Includes(date time.Time) bool {
	return !date.Before(l.StartDate) && !date.After(l.EndDate)
}
