package lifecycle

import "strings"

// =============================================================================
// VALIDATION - Gate for every create and edit
// =============================================================================

// Field names reported in MissingField / InvalidDateRange errors. They match
// the JSON names the API accepts so views can highlight the right input.
const (
	FieldLeaveType          = "leave_type"
	FieldStartDate          = "start_date"
	FieldEndDate            = "end_date"
	FieldReason             = "reason"
	FieldDestination        = "destination"
	FieldContactDuringLeave = "contact_during_leave"
	FieldStudentID          = "student_id"
)

// ValidateInput checks a candidate create/edit input against today and
// returns it normalized: text trimmed, dates already at day granularity.
//
// Checks run in a fixed order so the same input always reports the same
// error: required text, leave type, dates present, start >= today,
// end >= start.
func ValidateInput(in Input, today Date) (Input, error) {
	out := in
	out.Reason = strings.TrimSpace(in.Reason)
	out.Destination = strings.TrimSpace(in.Destination)
	out.ContactDuringLeave = strings.TrimSpace(in.ContactDuringLeave)

	switch {
	case out.Reason == "":
		return Input{}, missingField(FieldReason)
	case out.Destination == "":
		return Input{}, missingField(FieldDestination)
	case out.ContactDuringLeave == "":
		return Input{}, missingField(FieldContactDuringLeave)
	case !out.LeaveType.Valid():
		return Input{}, missingField(FieldLeaveType)
	case out.StartDate.IsZero():
		return Input{}, missingField(FieldStartDate)
	case out.EndDate.IsZero():
		return Input{}, missingField(FieldEndDate)
	}

	if out.StartDate.Before(today) {
		return Input{}, invalidDateRange(FieldStartDate, "must not be before "+today.String())
	}
	if out.EndDate.Before(out.StartDate) {
		return Input{}, invalidDateRange(FieldEndDate, "must not be before start date "+out.StartDate.String())
	}
	return out, nil
}

// Duration is the inclusive day count between two dates: |end - start| + 1,
// never less than 1. A single-day leave (start == end) has duration 1.
func Duration(start, end Date) int {
	n := DaysBetween(start, end) + 1
	if n < 1 {
		return 1
	}
	return n
}
