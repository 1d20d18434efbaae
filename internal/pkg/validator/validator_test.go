package validator

import (
	"errors"
	"testing"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
	"github.com/stretchr/testify/assert"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidPeriodAndClock(t *testing.T) {
	assert.True(t, IsValidPeriod("2025-01"))
	assert.False(t, IsValidPeriod("2025-1-01"))
	assert.False(t, IsValidPeriod("2025-13"))

	assert.True(t, IsValidClock("09:00"))
	assert.True(t, IsValidClock("23:59"))
	assert.False(t, IsValidClock("24:00"))
	assert.False(t, IsValidClock("9"))
}

type sampleRequest struct {
	Name   string `json:"name" validate:"required"`
	Date   string `json:"date" validate:"required,date"`
	Period string `json:"period" validate:"omitempty,period"`
	Start  string `json:"start_time" validate:"omitempty,clock"`
	Kind   string `json:"kind" validate:"omitempty,oneof=IN OUT"`
	Grace  int    `json:"grace_minutes" validate:"gte=0,lte=240"`
}

func TestStruct(t *testing.T) {
	errs := Struct(sampleRequest{Name: "ok", Date: "2025-01-02", Period: "2025-01", Start: "09:00", Kind: "IN"})
	assert.Empty(t, errs)
	assert.NoError(t, errs.Err())

	errs = Struct(sampleRequest{Date: "02/01/2025", Period: "Jan", Start: "9am", Kind: "LUNCH", Grace: -1})
	m := errs.ToMap()
	assert.Equal(t, "name is required", m["name"])
	assert.Equal(t, "date must be in YYYY-MM-DD format", m["date"])
	assert.Equal(t, "period must be in YYYY-MM format", m["period"])
	assert.Equal(t, "start_time must be in HH:MM format", m["start_time"])
	assert.Equal(t, "kind must be one of: IN, OUT", m["kind"])
	assert.Contains(t, m, "grace_minutes")
}

func TestValidationErrorsUnwrap(t *testing.T) {
	var errs ValidationErrors
	errs.Add("date", "date is required")

	err := errs.Err()
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	var target ValidationErrors
	assert.True(t, errors.As(err, &target))
	assert.Len(t, target, 1)
}
