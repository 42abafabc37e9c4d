/*
Package lifecycle provides the leave-application lifecycle engine.

PURPOSE:
  This package owns every business rule for hostel leave applications:
  input validation, who may do what to which record, the status state
  machine, and the derived fields the dashboard shows (duration, overlap,
  status grouping). It is pure computation - no I/O, no clock, no
  goroutines. Callers pass the freshly-read record and the current
  instant, and persist whatever comes back.

KEY CONCEPTS IN THIS FILE (types.go):
  - Application: the sole entity, one leave request by one student
  - LeaveType / Status: closed enums, rendered to text only at the boundary
  - Actor: who is asking (student or admin) and their identifier
  - Operation / Decision: what they are asking to do
  - Input: the student-editable fields of an application

STATE MACHINE:
  ┌─────────┐   approve   ┌──────────┐
  │ pending │ ──────────▶ │ approved │  (terminal)
  │         │   reject    ┌──────────┐
  │         │ ──────────▶ │ rejected │  (terminal)
  └─────────┘             └──────────┘
      │  edit / delete (owning student only)
      └──────▶ pending / removed

SEE ALSO:
  - validate.go:   ValidateInput, Duration
  - authorize.go:  Authorize, the single permission table
  - engine.go:     Create, Edit, Delete, Transition
  - projection.go: FilterByStatus, GroupCounts, Overlapping, Project, Summarize
  - store.go:      Store and AuditLog interfaces
*/
package lifecycle

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// LEAVE TYPE
// =============================================================================

// LeaveType is the category of a leave application.
// The zero value is LeaveTypeUnknown and never passes validation.
type LeaveType uint8

const (
	LeaveTypeUnknown LeaveType = iota
	LeaveHome
	LeaveMedical
	LeaveAcademic
	LeaveEmergency
	LeaveOther
)

var leaveTypeNames = [...]string{
	LeaveTypeUnknown: "",
	LeaveHome:        "home",
	LeaveMedical:     "medical",
	LeaveAcademic:    "academic",
	LeaveEmergency:   "emergency",
	LeaveOther:       "other",
}

var leaveTypeLabels = [...]string{
	LeaveTypeUnknown: "Unknown",
	LeaveHome:        "Home Visit",
	LeaveMedical:     "Medical",
	LeaveAcademic:    "Academic",
	LeaveEmergency:   "Emergency",
	LeaveOther:       "Other",
}

// LeaveTypes lists every valid leave type in display order.
func LeaveTypes() []LeaveType {
	return []LeaveType{LeaveHome, LeaveMedical, LeaveAcademic, LeaveEmergency, LeaveOther}
}

// Valid reports whether t is one of the known leave types.
func (t LeaveType) Valid() bool { return t > LeaveTypeUnknown && t <= LeaveOther }

func (t LeaveType) String() string {
	if int(t) < len(leaveTypeNames) {
		return leaveTypeNames[t]
	}
	return fmt.Sprintf("LeaveType(%d)", uint8(t))
}

// Label is the human-readable name shown in the dashboard.
func (t LeaveType) Label() string {
	if t.Valid() {
		return leaveTypeLabels[t]
	}
	return leaveTypeLabels[LeaveTypeUnknown]
}

// ParseLeaveType maps the wire name to a LeaveType. Matching ignores case
// and surrounding whitespace. Unknown names return LeaveTypeUnknown, false.
func ParseLeaveType(s string) (LeaveType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range LeaveTypes() {
		if leaveTypeNames[t] == s {
			return t, true
		}
	}
	return LeaveTypeUnknown, false
}

func (t LeaveType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("lifecycle: cannot marshal %s", t)
	}
	return []byte(t.String()), nil
}

func (t *LeaveType) UnmarshalText(b []byte) error {
	v, ok := ParseLeaveType(string(b))
	if !ok {
		return fmt.Errorf("lifecycle: unknown leave type %q", b)
	}
	*t = v
	return nil
}

// =============================================================================
// STATUS
// =============================================================================

// Status is the position of an application in the state machine.
type Status uint8

const (
	StatusPending Status = iota + 1
	StatusApproved
	StatusRejected
)

var statusNames = map[Status]string{
	StatusPending:  "pending",
	StatusApproved: "approved",
	StatusRejected: "rejected",
}

var statusLabels = map[Status]string{
	StatusPending:  "Pending",
	StatusApproved: "Approved",
	StatusRejected: "Rejected",
}

// Statuses lists every status in tab order.
func Statuses() []Status { return []Status{StatusPending, StatusApproved, StatusRejected} }

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// IsTerminal reports whether no further transition is allowed from s.
func (s Status) IsTerminal() bool { return s == StatusApproved || s == StatusRejected }

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Label is the display form used by the views.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return "Unknown"
}

// ParseStatus maps the wire name to a Status.
func ParseStatus(s string) (Status, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for st, name := range statusNames {
		if name == s {
			return st, true
		}
	}
	return 0, false
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("lifecycle: cannot marshal %s", s)
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v, ok := ParseStatus(string(b))
	if !ok {
		return fmt.Errorf("lifecycle: unknown status %q", b)
	}
	*s = v
	return nil
}

// StatusFilter selects records by status for listings. The zero value
// matches every status ("all").
type StatusFilter struct {
	status Status
}

// FilterAll matches every record.
var FilterAll = StatusFilter{}

// OnlyStatus matches records in exactly one status.
func OnlyStatus(s Status) StatusFilter { return StatusFilter{status: s} }

// ParseStatusFilter accepts "", "all", or a status name.
func ParseStatusFilter(s string) (StatusFilter, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if trimmed == "" || trimmed == "all" {
		return FilterAll, nil
	}
	st, ok := ParseStatus(trimmed)
	if !ok {
		return FilterAll, fmt.Errorf("lifecycle: unknown status filter %q", s)
	}
	return OnlyStatus(st), nil
}

// IsAll reports whether the filter matches every status.
func (f StatusFilter) IsAll() bool { return f.status == 0 }

// Status returns the selected status and false for "all".
func (f StatusFilter) Status() (Status, bool) { return f.status, f.status != 0 }

func (f StatusFilter) Match(s Status) bool { return f.IsAll() || f.status == s }

func (f StatusFilter) String() string {
	if f.IsAll() {
		return "all"
	}
	return f.status.String()
}

// =============================================================================
// ACTORS AND OPERATIONS
// =============================================================================

// Role is the kind of authenticated party issuing an operation.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleStudent
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseRole maps a claim value to a Role.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return RoleStudent, true
	case "admin":
		return RoleAdmin, true
	default:
		return RoleUnknown, false
	}
}

// Actor is the authenticated party behind an operation. Identity comes from
// the session layer; the engine only compares it.
type Actor struct {
	Role Role
	ID   string
}

func Student(id string) Actor { return Actor{Role: RoleStudent, ID: id} }
func Admin(id string) Actor   { return Actor{Role: RoleAdmin, ID: id} }

func (a Actor) String() string { return a.Role.String() + ":" + a.ID }

// Operation is a mutating request against an existing application.
type Operation uint8

const (
	OpEdit Operation = iota + 1
	OpDelete
	OpApprove
	OpReject
)

func (o Operation) String() string {
	switch o {
	case OpEdit:
		return "edit"
	case OpDelete:
		return "delete"
	case OpApprove:
		return "approve"
	case OpReject:
		return "reject"
	default:
		return fmt.Sprintf("Operation(%d)", uint8(o))
	}
}

// Decision is the admin's verdict on a pending application.
type Decision uint8

const (
	DecisionApprove Decision = iota + 1
	DecisionReject
)

// ParseDecision accepts "approve" or "reject".
func ParseDecision(s string) (Decision, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve":
		return DecisionApprove, true
	case "reject":
		return DecisionReject, true
	default:
		return 0, false
	}
}

func (d Decision) String() string { return d.Operation().String() }

// Operation is the authorization operation guarding this decision.
func (d Decision) Operation() Operation {
	if d == DecisionReject {
		return OpReject
	}
	return OpApprove
}

// Outcome is the terminal status this decision moves an application to.
func (d Decision) Outcome() Status {
	if d == DecisionReject {
		return StatusRejected
	}
	return StatusApproved
}

// =============================================================================
// APPLICATION
// =============================================================================

// Input carries the fields a student supplies at creation and replaces on edit.
type Input struct {
	LeaveType          LeaveType
	StartDate          Date
	EndDate            Date
	Reason             string
	Destination        string
	ContactDuringLeave string
	ParentApproval     bool // advisory only; never gates a transition
}

// Application is one leave request.
//
// ApprovedBy and ApprovalDate are nil while Status is pending and are set
// together by the single transition out of pending.
type Application struct {
	ID                 string
	StudentID          string
	LeaveType          LeaveType
	StartDate          Date
	EndDate            Date
	Reason             string
	Destination        string
	ContactDuringLeave string
	ParentApproval     bool

	Status       Status
	Remarks      string
	ApprovedBy   *string
	ApprovalDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// Version is the optimistic-concurrency token. Stores reject a write
	// whose expected version differs from the stored one.
	Version int
}

func (a Application) IsPending() bool  { return a.Status == StatusPending }
func (a Application) IsApproved() bool { return a.Status == StatusApproved }
func (a Application) IsRejected() bool { return a.Status == StatusRejected }

// Duration is the inclusive number of calendar days covered.
func (a Application) Duration() int { return Duration(a.StartDate, a.EndDate) }

// Input returns the student-editable fields of the application.
func (a Application) Input() Input {
	return Input{
		LeaveType:          a.LeaveType,
		StartDate:          a.StartDate,
		EndDate:            a.EndDate,
		Reason:             a.Reason,
		Destination:        a.Destination,
		ContactDuringLeave: a.ContactDuringLeave,
		ParentApproval:     a.ParentApproval,
	}
}

// clone returns a copy that shares no pointers with a.
func (a Application) clone() Application {
	c := a
	if a.ApprovedBy != nil {
		v := *a.ApprovedBy
		c.ApprovedBy = &v
	}
	if a.ApprovalDate != nil {
		v := *a.ApprovalDate
		c.ApprovalDate = &v
	}
	return c
}

// Deletion signals that the store should remove an application. Version is
// the version the removal was authorized against.
type Deletion struct {
	ID      string
	Version int
}
