package employee

import "github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"

var (
	ErrEmployeeNotFound   = apperror.NotFound("employee not found")
	ErrEmployeeInactive   = apperror.Conflict("employee is not active")
	ErrEmployeeCodeExists = apperror.Conflict("employee code already exists")
)
