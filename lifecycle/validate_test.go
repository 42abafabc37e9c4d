package lifecycle_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hostel-leave/lifecycle"
)

func TestValidateInput_Valid_ReturnsNormalized(t *testing.T) {
	in := validInput(today, today.AddDays(2))
	in.Reason = "  Sister's wedding \n"
	in.Destination = "\tKandy"

	out, err := lifecycle.ValidateInput(in, today)

	require.NoError(t, err)
	assert.Equal(t, "Sister's wedding", out.Reason)
	assert.Equal(t, "Kandy", out.Destination)
	assert.Equal(t, today, out.StartDate)
	assert.True(t, out.ParentApproval, "advisory flag is carried through untouched")
}

func TestValidateInput_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*lifecycle.Input)
		field string
	}{
		{"empty reason", func(in *lifecycle.Input) { in.Reason = "" }, lifecycle.FieldReason},
		{"blank reason", func(in *lifecycle.Input) { in.Reason = "   " }, lifecycle.FieldReason},
		{"empty destination", func(in *lifecycle.Input) { in.Destination = "" }, lifecycle.FieldDestination},
		{"empty contact", func(in *lifecycle.Input) { in.ContactDuringLeave = "" }, lifecycle.FieldContactDuringLeave},
		{"unset leave type", func(in *lifecycle.Input) { in.LeaveType = lifecycle.LeaveTypeUnknown }, lifecycle.FieldLeaveType},
		{"out of range leave type", func(in *lifecycle.Input) { in.LeaveType = lifecycle.LeaveType(42) }, lifecycle.FieldLeaveType},
		{"absent start", func(in *lifecycle.Input) { in.StartDate = lifecycle.Date{} }, lifecycle.FieldStartDate},
		{"absent end", func(in *lifecycle.Input) { in.EndDate = lifecycle.Date{} }, lifecycle.FieldEndDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput(today, today.AddDays(1))
			tt.edit(&in)

			_, err := lifecycle.ValidateInput(in, today)

			require.Error(t, err)
			assert.ErrorIs(t, err, lifecycle.ErrMissingField)
			var lerr *lifecycle.Error
			require.ErrorAs(t, err, &lerr)
			assert.Equal(t, tt.field, lerr.Field)
		})
	}
}

func TestValidateInput_DateRanges(t *testing.T) {
	tests := []struct {
		name    string
		start   lifecycle.Date
		end     lifecycle.Date
		wantErr bool
		field   string
	}{
		{"start today", today, today, false, ""},
		{"start tomorrow", today.AddDays(1), today.AddDays(3), false, ""},
		{"start yesterday", today.AddDays(-1), today.AddDays(2), true, lifecycle.FieldStartDate},
		{"end before start", today.AddDays(5), today.AddDays(4), true, lifecycle.FieldEndDate},
		{"end before start and before today", today.AddDays(2), today.AddDays(-3), true, lifecycle.FieldEndDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lifecycle.ValidateInput(validInput(tt.start, tt.end), today)

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, lifecycle.ErrInvalidDateRange)
			var lerr *lifecycle.Error
			require.ErrorAs(t, err, &lerr)
			assert.Equal(t, tt.field, lerr.Field)
		})
	}
}

func TestValidateInput_MissingFieldWinsOverDateRange(t *testing.T) {
	// GIVEN: both a missing reason and a past start date
	in := validInput(today.AddDays(-2), today)
	in.Reason = ""

	// THEN: exactly one error is reported, deterministically the missing field
	_, err := lifecycle.ValidateInput(in, today)
	assert.ErrorIs(t, err, lifecycle.ErrMissingField)
	assert.False(t, errors.Is(err, lifecycle.ErrInvalidDateRange))
}

func TestDuration(t *testing.T) {
	d := lifecycle.NewDate(2026, time.February, 27)

	assert.Equal(t, 1, lifecycle.Duration(d, d), "single-day leave")
	assert.Equal(t, 7, lifecycle.Duration(d, d.AddDays(6)))
	assert.Equal(t, 3, lifecycle.Duration(d, d.AddDays(2)), "crosses end of February")
	assert.Equal(t, 3, lifecycle.Duration(d.AddDays(2), d), "absolute difference")
	assert.Equal(t, 1, lifecycle.Duration(lifecycle.Date{}, lifecycle.Date{}))
}

func TestDuration_AllSingleDays(t *testing.T) {
	start := lifecycle.NewDate(2026, time.January, 1)
	for i := 0; i < 366; i++ {
		d := start.AddDays(i)
		require.Equal(t, 1, lifecycle.Duration(d, d), "duration(%s, %s)", d, d)
		require.Equal(t, 7, lifecycle.Duration(d, d.AddDays(6)), "week from %s", d)
	}
}
