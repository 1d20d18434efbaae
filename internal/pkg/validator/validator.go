package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
	playground "github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string
	Message string
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, err := range v {
		msgs = append(msgs, err.Field+": "+err.Message)
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets errors.Is(err, apperror.ErrValidation) match field errors.
func (v ValidationErrors) Unwrap() error {
	return apperror.ErrValidation
}

func (v ValidationErrors) ToMap() map[string]string {
	result := make(map[string]string)
	for _, err := range v {
		result[err.Field] = err.Message
	}
	return result
}

// Add appends a field error.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, ValidationError{Field: field, Message: message})
}

// Err returns v as an error, or nil when there is nothing to report.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// UUIDv7 regex: version 7 (the 15th character must be '7'), all lowercase hex digits.

// Date validation
func IsValidDate(dateStr string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", dateStr)
	return date, err == nil
}

// Period validation (YYYY-MM)
func IsValidPeriod(period string) bool {
	_, err := time.Parse("2006-01", period)
	return err == nil
}

// Clock validation (HH:MM, 24h)
func IsValidClock(clock string) bool {
	_, err := time.Parse("15:04", clock)
	return err == nil
}

// Slice contains check
func IsInSlice(value string, slice []string) bool {
	for _, item := range slice {
		if item == value {
			return true
		}
	}
	return false
}

// Itoa converts an integer to a string.
func Itoa(i int) string {
	return strconv.Itoa(i)
}

// IsValidDateTime checks if a string is a valid ISO8601 timestamp.
// Accepts formats like: "2024-01-15T10:30:00Z" or "2024-01-15T10:30:00+07:00"
func IsValidDateTime(dateTimeStr string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, dateTimeStr)
	if err == nil {
		return t, true
	}

	t, err = time.Parse(time.RFC3339Nano, dateTimeStr)
	if err == nil {
		return t, true
	}

	return time.Time{}, false
}

var structValidate *playground.Validate

func init() {
	structValidate = playground.New()

	structValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = structValidate.RegisterValidation("date", func(fl playground.FieldLevel) bool {
		_, ok := IsValidDate(fl.Field().String())
		return ok
	})
	_ = structValidate.RegisterValidation("period", func(fl playground.FieldLevel) bool {
		return IsValidPeriod(fl.Field().String())
	})
	_ = structValidate.RegisterValidation("clock", func(fl playground.FieldLevel) bool {
		return IsValidClock(fl.Field().String())
	})
}

// Struct runs the `validate` struct tags of s and converts failures into
// ValidationErrors keyed by json field name.
func Struct(s interface{}) ValidationErrors {
	err := structValidate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}

	var errs ValidationErrors
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), tagMessage(fe))
	}
	return errs
}

func tagMessage(fe playground.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "date":
		return field + " must be in YYYY-MM-DD format"
	case "period":
		return field + " must be in YYYY-MM format"
	case "clock":
		return field + " must be in HH:MM format"
	case "oneof":
		return field + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
