package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	case errors.Is(err, jwt.ErrMissingClaim):
		Unauthorized(w, "Invalid token")
	case errors.Is(err, ErrForbidden):
		Forbidden(w, err.Error())
	case errors.Is(err, apperror.ErrValidation):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, apperror.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, apperror.ErrConflict):
		Conflict(w, err.Error())

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

// ErrForbidden is returned by handlers when the caller may not act on the
// requested employee.
var ErrForbidden = errors.New("you are not allowed to access this resource")
