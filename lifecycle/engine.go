/*
engine.go - Leave application state machine

PURPOSE:
  Create, Edit, Delete and Transition turn a validated request plus the
  freshly-read record into the value the store should persist. Nothing
  here writes anywhere; the caller persists with compare-and-swap.

OPERATION FLOW:
  ┌──────────────────────────────────────────────────────────────────┐
  │                                                                  │
  │  Create ─▶ ValidateInput ─▶ new record (pending, v1)             │
  │                                                                  │
  │  Edit ───▶ Authorize(edit) ─▶ ValidateInput ─▶ replacement       │
  │                                                                  │
  │  Delete ─▶ Authorize(delete) ─▶ Deletion{ID, Version}            │
  │                                                                  │
  │  Transition ─▶ Authorize(approve|reject) ─▶ terminal record      │
  │                                                                  │
  └──────────────────────────────────────────────────────────────────┘

TIME:
  Every operation takes `now` explicitly. "Today" is the calendar day of
  `now` in the hostel's time zone (Engine.Location), so the same instant
  can be a different day for a hostel in another zone.

ATOMICITY:
  Operations never mutate their arguments. On error the zero Application
  is returned and the input record is untouched.

SEE ALSO:
  - authorize.go: permission table
  - validate.go:  input rules
  - leave/service.go: read → engine → CAS write round-trip
*/
package lifecycle

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Engine applies lifecycle operations. It holds configuration only; every
// method is a pure function of its arguments.
type Engine struct {
	// NewID returns a fresh application identifier.
	NewID func() string

	// Location is the hostel's time zone, used to derive today from now.
	Location *time.Location
}

// NewEngine returns an engine that issues UUID identifiers and evaluates
// "today" in loc (UTC when nil).
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{NewID: uuid.NewString, Location: loc}
}

// Today returns the calendar day of now in the engine's time zone.
func (e *Engine) Today(now time.Time) Date {
	return DateOf(now, e.Location)
}

// Create validates in and builds a new pending application owned by
// studentID. The result is ready to insert.
func (e *Engine) Create(in Input, studentID string, now time.Time) (Application, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return Application{}, missingField(FieldStudentID)
	}

	valid, err := ValidateInput(in, e.Today(now))
	if err != nil {
		return Application{}, err
	}

	return Application{
		ID:                 e.NewID(),
		StudentID:          studentID,
		LeaveType:          valid.LeaveType,
		StartDate:          valid.StartDate,
		EndDate:            valid.EndDate,
		Reason:             valid.Reason,
		Destination:        valid.Destination,
		ContactDuringLeave: valid.ContactDuringLeave,
		ParentApproval:     valid.ParentApproval,
		Status:             StatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
		Version:            1,
	}, nil
}

// Edit replaces every student-editable field of existing with in. ID,
// StudentID, status, CreatedAt and Version are preserved; UpdatedAt is
// refreshed. The store bumps Version when it accepts the write.
func (e *Engine) Edit(existing Application, in Input, actor Actor, now time.Time) (Application, error) {
	if err := Authorize(actor, existing, OpEdit); err != nil {
		return Application{}, err
	}

	valid, err := ValidateInput(in, e.Today(now))
	if err != nil {
		return Application{}, err
	}

	updated := existing.clone()
	updated.LeaveType = valid.LeaveType
	updated.StartDate = valid.StartDate
	updated.EndDate = valid.EndDate
	updated.Reason = valid.Reason
	updated.Destination = valid.Destination
	updated.ContactDuringLeave = valid.ContactDuringLeave
	updated.ParentApproval = valid.ParentApproval
	updated.UpdatedAt = now
	return updated, nil
}

// Delete authorizes removal of existing and returns the deletion signal.
func (e *Engine) Delete(existing Application, actor Actor) (Deletion, error) {
	if err := Authorize(actor, existing, OpDelete); err != nil {
		return Deletion{}, err
	}
	return Deletion{ID: existing.ID, Version: existing.Version}, nil
}

// Transition moves a pending application to its terminal status. The actor's
// ID is recorded as the approver. Calling it again on the result fails with
// InvalidState.
func (e *Engine) Transition(existing Application, actor Actor, decision Decision, remarks string, now time.Time) (Application, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return Application{}, invalidState("unknown decision")
	}
	if err := Authorize(actor, existing, decision.Operation()); err != nil {
		return Application{}, err
	}

	approver := actor.ID
	decidedAt := now

	updated := existing.clone()
	updated.Status = decision.Outcome()
	updated.ApprovedBy = &approver
	updated.ApprovalDate = &decidedAt
	updated.Remarks = strings.TrimSpace(remarks)
	updated.UpdatedAt = now
	return updated, nil
}
