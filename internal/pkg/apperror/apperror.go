package apperror

import "errors"

// Error classes. Domain errors wrap one of these so callers can branch on the
// class with errors.Is without knowing every domain sentinel.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
)

type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.kind
}

// Conflict returns a conflict-class error carrying msg.
func Conflict(msg string) *Error {
	return &Error{kind: ErrConflict, msg: msg}
}

func NotFound(msg string) *Error {
	return &Error{kind: ErrNotFound, msg: msg}
}

func Validation(msg string) *Error {
	return &Error{kind: ErrValidation, msg: msg}
}
