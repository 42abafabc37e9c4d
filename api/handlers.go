/*
handlers.go - HTTP API handlers for hostel leave applications

PURPOSE:
  Exposes the leave service via REST API. Handles HTTP request/response and
  JSON serialization, and delegates every decision to leave.Service, which
  in turn asks the lifecycle engine.

ENDPOINTS:
  Leaves (student or admin):
    GET    /api/leaves?status=          List visible applications + counts
    POST   /api/leaves                  Create (student)
    GET    /api/leaves/counts           Tab badges
    GET    /api/leaves/{id}             Detail with overlapping applications
    PUT    /api/leaves/{id}             Edit own pending (student)
    DELETE /api/leaves/{id}             Delete own pending (student)

  Decisions (admin):
    POST   /api/leaves/{id}/approve     Approve pending
    POST   /api/leaves/{id}/reject      Reject pending

  Admin:
    GET    /api/admin/leaves/summary    Per-type totals
    GET    /api/admin/leaves/overdue    Pending applications already started
    GET    /api/admin/audit?leave_id=   Audit trail

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Service: lifecycle round-trips
  - Validate: request shape validation
  - Monitor: optional overdue monitor, reported by /healthz

REQUEST FLOW:
  1. Resolve actor (authenticate middleware)
  2. Decode and shape-validate the body
  3. Call the service
  4. Project records for the actor and serialize

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input, missing field, invalid date range
  - 401: Missing or invalid token
  - 403: Forbidden for this actor
  - 404: Application not found
  - 409: Not pending anymore, or changed since read
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - errors.go: Error to status mapping
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warp/hostel-leave/leave"
	"github.com/warp/hostel-leave/lifecycle"
	"github.com/warp/hostel-leave/logger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *leave.Service
	Logger  *zap.Logger
	Monitor *OverdueMonitor // optional

	validate *validator.Validate

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler around svc.
func NewHandler(svc *leave.Service, log *zap.Logger) *Handler {
	return &Handler{
		Service:  svc,
		Logger:   logger.Module(log, "api"),
		validate: newValidator(),
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (h *Handler) logger(r *http.Request) *zap.Logger {
	return h.Logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
}

// actor returns the authenticated actor. authenticate guarantees presence on
// every /api route; a missing actor is treated as unknown and fails
// authorization in the engine.
func actor(r *http.Request) lifecycle.Actor {
	a, _ := ActorFrom(r.Context())
	return a
}

// decode reads a JSON body into dst and validates its shape. An empty body
// is accepted when allowEmpty is set.
func (h *Handler) decode(r *http.Request, dst any, allowEmpty bool) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return err
		}
	}
	return h.validate.Struct(dst)
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// ListLeaves returns the applications visible to the caller, filtered by
// ?status=, with the counts of every tab.
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	filter, err := lifecycle.ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeBadRequest(w, "Invalid status filter (use all, pending, approved or rejected)", err)
		return
	}

	who := actor(r)
	listing, err := h.Service.List(r.Context(), who, filter)
	if err != nil {
		h.writeServiceError(w, r, "Failed to list leave applications", err)
		return
	}

	writeJSON(w, http.StatusOK, LeaveListResponse{
		Status: filter.String(),
		Leaves: toLeaveDTOs(listing.Records, who),
		Counts: toCountsDTO(listing.Counts),
	})
}

// CreateLeave submits a new application for the calling student.
func (h *Handler) CreateLeave(w http.ResponseWriter, r *http.Request) {
	var req LeaveInputRequest
	if err := h.decode(r, &req, false); err != nil {
		writeBadRequest(w, "Invalid request body", err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeBadRequest(w, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	who := actor(r)
	app, err := h.Service.Create(r.Context(), who, in)
	if err != nil {
		h.writeServiceError(w, r, "Failed to create leave application", err)
		return
	}

	writeJSON(w, http.StatusCreated, toLeaveDTO(lifecycle.Project(app, who)))
}

// GetLeave returns one application with the same student's overlapping ones.
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	who := actor(r)
	detail, err := h.Service.GetDetail(r.Context(), who, id)
	if err != nil {
		h.writeServiceError(w, r, "Failed to get leave application", err)
		return
	}

	writeJSON(w, http.StatusOK, LeaveDetailResponse{
		Leave:       toLeaveDTO(lifecycle.Project(detail.Application, who)),
		Overlapping: toLeaveDTOs(detail.Overlapping, who),
	})
}

// UpdateLeave replaces the editable fields of a pending application.
func (h *Handler) UpdateLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req LeaveInputRequest
	if err := h.decode(r, &req, false); err != nil {
		writeBadRequest(w, "Invalid request body", err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeBadRequest(w, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	who := actor(r)
	app, err := h.Service.Edit(r.Context(), who, id, in)
	if err != nil {
		h.writeServiceError(w, r, "Failed to update leave application", err)
		return
	}

	writeJSON(w, http.StatusOK, toLeaveDTO(lifecycle.Project(app, who)))
}

// DeleteLeave removes a pending application.
func (h *Handler) DeleteLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Service.Delete(r.Context(), actor(r), id); err != nil {
		h.writeServiceError(w, r, "Failed to delete leave application", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LeaveCounts returns the per-status badge counts.
func (h *Handler) LeaveCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Service.Counts(r.Context(), actor(r))
	if err != nil {
		h.writeServiceError(w, r, "Failed to count leave applications", err)
		return
	}

	writeJSON(w, http.StatusOK, toCountsDTO(counts))
}

// =============================================================================
// DECISION HANDLERS
// =============================================================================

// DecideLeave approves or rejects a pending application, per the
// {decision} path segment.
func (h *Handler) DecideLeave(w http.ResponseWriter, r *http.Request) {
	decision, ok := lifecycle.ParseDecision(chi.URLParam(r, "decision"))
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error: "Unknown decision (use approve or reject)",
			Kind:  "not_found",
		})
		return
	}
	h.decide(w, r, decision)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, decision lifecycle.Decision) {
	id := chi.URLParam(r, "id")

	var req DecisionRequest
	if err := h.decode(r, &req, true); err != nil {
		writeBadRequest(w, "Invalid request body", err)
		return
	}

	who := actor(r)
	app, err := h.Service.Decide(r.Context(), who, id, decision, req.Remarks)
	if err != nil {
		h.writeServiceError(w, r, "Failed to "+decision.String()+" leave application", err)
		return
	}

	writeJSON(w, http.StatusOK, toLeaveDTO(lifecycle.Project(app, who)))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// LeaveSummary returns per-type counts and day totals.
func (h *Handler) LeaveSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.Summary(r.Context(), actor(r))
	if err != nil {
		h.writeServiceError(w, r, "Failed to summarize leave applications", err)
		return
	}

	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

// OverdueLeaves lists pending applications whose start date has passed.
func (h *Handler) OverdueLeaves(w http.ResponseWriter, r *http.Request) {
	who := actor(r)
	overdue, err := h.Service.Overdue(r.Context(), who)
	if err != nil {
		h.writeServiceError(w, r, "Failed to list overdue applications", err)
		return
	}

	writeJSON(w, http.StatusOK, toLeaveDTOs(overdue, who))
}

// AuditTrail returns audit entries, optionally for one application.
func (h *Handler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := lifecycle.AuditFilter{
		LeaveID: q.Get("leave_id"),
		ActorID: q.Get("actor_id"),
		Limit:   200,
	}
	if action := q.Get("action"); action != "" {
		filter.Actions = []lifecycle.AuditAction{lifecycle.AuditAction(action)}
	}

	entries, err := h.Service.AuditTrail(r.Context(), actor(r), filter)
	if err != nil {
		h.writeServiceError(w, r, "Failed to read audit trail", err)
		return
	}

	dtos := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toAuditEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HEALTH
// =============================================================================

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports store reachability and the last overdue check.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Service.Store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			h.logger(r).Error("store ping failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
			return
		}
	}

	resp := HealthResponse{Status: "ok", Today: h.Service.Today().String()}
	if h.Monitor != nil {
		count, at := h.Monitor.LastCheck()
		resp.LastOverdue = count
		if !at.IsZero() {
			resp.LastCheckAt = at.Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
