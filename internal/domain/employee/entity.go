package employee

import "time"

// Employee is the read model of the employee directory.
type Employee struct {
	ID               string
	CompanyID        string
	EmployeeCode     string
	FullName         string
	Department       *string
	Designation      *string
	EmploymentStatus EmploymentStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusInactive   EmploymentStatus = "inactive"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}
