/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the lifecycle model from the external API contract: enums travel as
  their wire names, dates as YYYY-MM-DD, instants as RFC 3339.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Leave:
    LeaveDTO, LeaveInputRequest, DecisionRequest
    LeaveListResponse, LeaveDetailResponse, CountsDTO

  Admin:
    SummaryDTO, TypeSummaryDTO, AuditEntryDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Struct tags (go-playground/validator) check shape only: lengths and date
  syntax. Business rules (required fields, date ranges, permissions) belong
  to the lifecycle engine so every caller gets the same answer.

SEE ALSO:
  - handlers.go: Uses these types
  - lifecycle/types.go: Domain model
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/hostel-leave/lifecycle"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// LeaveInputRequest is the body of POST /api/leaves and PUT /api/leaves/{id}.
type LeaveInputRequest struct {
	LeaveType          string `json:"leave_type" validate:"max=32"`
	StartDate          string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate            string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Reason             string `json:"reason" validate:"max=1000"`
	Destination        string `json:"destination" validate:"max=255"`
	ContactDuringLeave string `json:"contact_during_leave" validate:"max=100"`
	ParentApproval     bool   `json:"parent_approval"`
}

// toInput converts the request to engine input. An unknown leave type
// becomes LeaveTypeUnknown and is reported by the engine as missing.
func (r LeaveInputRequest) toInput() (lifecycle.Input, error) {
	start, err := lifecycle.ParseDate(r.StartDate)
	if err != nil {
		return lifecycle.Input{}, err
	}
	end, err := lifecycle.ParseDate(r.EndDate)
	if err != nil {
		return lifecycle.Input{}, err
	}
	leaveType, _ := lifecycle.ParseLeaveType(r.LeaveType)

	return lifecycle.Input{
		LeaveType:          leaveType,
		StartDate:          start,
		EndDate:            end,
		Reason:             r.Reason,
		Destination:        r.Destination,
		ContactDuringLeave: r.ContactDuringLeave,
		ParentApproval:     r.ParentApproval,
	}, nil
}

// DecisionRequest is the body of approve/reject. Remarks may be empty.
type DecisionRequest struct {
	Remarks string `json:"remarks" validate:"max=1000"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// LeaveDTO is one application as seen by the requesting actor.
type LeaveDTO struct {
	ID                 string  `json:"id"`
	StudentID          string  `json:"student_id"`
	LeaveType          string  `json:"leave_type"`
	LeaveTypeLabel     string  `json:"leave_type_label"`
	StartDate          string  `json:"start_date"`
	EndDate            string  `json:"end_date"`
	Duration           int     `json:"duration"`
	Reason             string  `json:"reason"`
	Destination        string  `json:"destination"`
	ContactDuringLeave string  `json:"contact_during_leave"`
	ParentApproval     bool    `json:"parent_approval"`
	Status             string  `json:"status"`
	StatusLabel        string  `json:"status_label"`
	Remarks            string  `json:"remarks"`
	ApprovedBy         *string `json:"approved_by"`
	ApprovalDate       *string `json:"approval_date"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
	Version            int     `json:"version"`

	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanDecide bool `json:"can_decide"`
}

// CountsDTO holds the status tab badges.
type CountsDTO struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

type LeaveListResponse struct {
	Status string     `json:"status"`
	Leaves []LeaveDTO `json:"leaves"`
	Counts CountsDTO  `json:"counts"`
}

type LeaveDetailResponse struct {
	Leave       LeaveDTO   `json:"leave"`
	Overlapping []LeaveDTO `json:"overlapping"`
}

type TypeSummaryDTO struct {
	LeaveType    string          `json:"leave_type"`
	Label        string          `json:"label"`
	Counts       CountsDTO       `json:"counts"`
	TotalDays    int             `json:"total_days"`
	ApprovedDays int             `json:"approved_days"`
	AverageDays  decimal.Decimal `json:"average_days"`
}

type SummaryDTO struct {
	ByType       []TypeSummaryDTO `json:"by_type"`
	Counts       CountsDTO        `json:"counts"`
	TotalDays    int              `json:"total_days"`
	Unclassified CountsDTO        `json:"unclassified"`
}

type AuditEntryDTO struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	ActorID   string         `json:"actor_id"`
	ActorRole string         `json:"actor_role"`
	Action    string         `json:"action"`
	LeaveID   string         `json:"leave_id"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Today       string `json:"today"`
	LastOverdue int    `json:"last_overdue_count"`
	LastCheckAt string `json:"last_overdue_check_at,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Field   string `json:"field,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toLeaveDTO(v lifecycle.View) LeaveDTO {
	dto := LeaveDTO{
		ID:                 v.ID,
		StudentID:          v.StudentID,
		LeaveType:          v.LeaveType.String(),
		LeaveTypeLabel:     v.LeaveTypeLabel,
		StartDate:          v.StartDate.String(),
		EndDate:            v.EndDate.String(),
		Duration:           v.Duration,
		Reason:             v.Reason,
		Destination:        v.Destination,
		ContactDuringLeave: v.ContactDuringLeave,
		ParentApproval:     v.ParentApproval,
		Status:             v.Status.String(),
		StatusLabel:        v.StatusLabel,
		Remarks:            v.Remarks,
		ApprovedBy:         v.ApprovedBy,
		CreatedAt:          v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          v.UpdatedAt.Format(time.RFC3339),
		Version:            v.Version,
		CanEdit:            v.CanEdit,
		CanDelete:          v.CanDelete,
		CanDecide:          v.CanDecide,
	}
	if v.ApprovalDate != nil {
		s := v.ApprovalDate.Format(time.RFC3339)
		dto.ApprovalDate = &s
	}
	return dto
}

func toLeaveDTOs(apps []lifecycle.Application, actor lifecycle.Actor) []LeaveDTO {
	views := lifecycle.ProjectAll(apps, actor)
	dtos := make([]LeaveDTO, len(views))
	for i, v := range views {
		dtos[i] = toLeaveDTO(v)
	}
	return dtos
}

func toCountsDTO(c lifecycle.Counts) CountsDTO {
	return CountsDTO{
		Pending:  c.Pending,
		Approved: c.Approved,
		Rejected: c.Rejected,
		Total:    c.Total(),
	}
}

func toSummaryDTO(s lifecycle.Summary) SummaryDTO {
	byType := make([]TypeSummaryDTO, len(s.ByType))
	for i, ts := range s.ByType {
		byType[i] = TypeSummaryDTO{
			LeaveType:    ts.LeaveType.String(),
			Label:        ts.LeaveType.Label(),
			Counts:       toCountsDTO(ts.Counts),
			TotalDays:    ts.TotalDays,
			ApprovedDays: ts.ApprovedDays,
			AverageDays:  ts.AverageDays,
		}
	}
	return SummaryDTO{
		ByType:       byType,
		Counts:       toCountsDTO(s.Counts),
		TotalDays:    s.TotalDays,
		Unclassified: toCountsDTO(s.Unclassified),
	}
}

func toAuditEntryDTO(e lifecycle.AuditEntry) AuditEntryDTO {
	return AuditEntryDTO{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format(time.RFC3339),
		ActorID:   e.ActorID,
		ActorRole: e.ActorRole.String(),
		Action:    string(e.Action),
		LeaveID:   e.LeaveID,
		Payload:   e.Payload,
	}
}
