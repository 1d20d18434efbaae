package attendance

import (
	"testing"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
)

func sequence(types ...attendance.PunchType) []attendance.Punch {
	out := make([]attendance.Punch, len(types))
	for i, pt := range types {
		out[i] = attendance.Punch{PunchType: pt}
	}
	return out
}

func TestValidateTransition(t *testing.T) {
	in, out := attendance.PunchIn, attendance.PunchOut
	bs, be := attendance.PunchBreakStart, attendance.PunchBreakEnd

	tests := []struct {
		name     string
		existing []attendance.Punch
		next     attendance.PunchType
		wantErr  error
	}{
		{"first IN", nil, in, nil},
		{"second IN", sequence(in), in, attendance.ErrAlreadyClockedIn},
		{"IN after OUT", sequence(in, out), in, attendance.ErrAlreadyClockedIn},
		{"OUT without IN", nil, out, attendance.ErrNotClockedIn},
		{"OUT after IN", sequence(in), out, nil},
		{"second OUT", sequence(in, out), out, attendance.ErrAlreadyClockedOut},
		{"OUT during break", sequence(in, bs), out, attendance.ErrEndBreakBeforeOut},
		{"break without IN", nil, bs, attendance.ErrNotClockedIn},
		{"break after OUT", sequence(in, out), bs, attendance.ErrBreakAfterClockOut},
		{"double break start", sequence(in, bs), bs, attendance.ErrAlreadyOnBreak},
		{"break end without start", sequence(in), be, attendance.ErrNotOnBreak},
		{"break end twice", sequence(in, bs, be), be, attendance.ErrNotOnBreak},
		{"second break", sequence(in, bs, be), bs, nil},
		{"OUT after break", sequence(in, bs, be), out, nil},
		{"unknown type", sequence(in), attendance.PunchType("LUNCH"), attendance.ErrUnsupportedPunchType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.existing, tt.next)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// wellFormed reports whether types match IN (BREAK_START BREAK_END)* OUT?
// or a prefix of it that ends inside a break.
func wellFormed(types []attendance.PunchType) bool {
	if len(types) == 0 {
		return true
	}
	if types[0] != attendance.PunchIn {
		return false
	}
	onBreak, out := false, false
	for _, pt := range types[1:] {
		if out {
			return false
		}
		switch pt {
		case attendance.PunchBreakStart:
			if onBreak {
				return false
			}
			onBreak = true
		case attendance.PunchBreakEnd:
			if !onBreak {
				return false
			}
			onBreak = false
		case attendance.PunchOut:
			if onBreak {
				return false
			}
			out = true
		default:
			return false
		}
	}
	return true
}

// Every sequence of up to six punches is accepted step by step exactly when
// it is a prefix of the punch grammar.
func TestValidateTransition_AcceptsExactlyTheGrammar(t *testing.T) {
	alphabet := []attendance.PunchType{
		attendance.PunchIn,
		attendance.PunchOut,
		attendance.PunchBreakStart,
		attendance.PunchBreakEnd,
	}

	var walk func(prefix []attendance.PunchType)
	walk = func(prefix []attendance.PunchType) {
		if len(prefix) == 6 {
			return
		}
		for _, next := range alphabet {
			candidate := append(append([]attendance.PunchType{}, prefix...), next)
			err := ValidateTransition(sequence(prefix...), next)
			if wellFormed(candidate) {
				if !assert.NoError(t, err, "sequence %v", candidate) {
					continue
				}
				walk(candidate)
			} else {
				assert.Error(t, err, "sequence %v", candidate)
			}
		}
	}
	walk(nil)
}
