/*
service.go - Leave application round-trips

PURPOSE:
  The engine in package lifecycle is pure. Service is the thin layer that
  gives it a store, a clock and an audit trail: read the record, run the
  engine, write with compare-and-swap, append an audit entry, log.

WRITE FLOW:
  ┌────────┐   ┌────────────┐   ┌──────────────────────┐   ┌───────┐
  │  Get   │──▶│   Engine   │──▶│ Update(app, version) │──▶│ Audit │
  └────────┘   └────────────┘   └──────────────────────┘   └───────┘
                                  │ version moved
                                  ▼
                           InvalidState (stale read)

  A write that loses a race never overwrites: the store rejects it and the
  caller gets InvalidState, exactly as if it had read the newer record.

SCOPING:
  Students list and count their own applications. Admins see everything.
  Summary, overdue and audit reads are admin only.

SEE ALSO:
  - lifecycle/engine.go: operations
  - lifecycle/store.go:  Store and AuditLog contracts
  - api/handlers.go:     HTTP callers
*/
package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/hostel-leave/lifecycle"
	"github.com/warp/hostel-leave/logger"
)

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Store  lifecycle.Store
	Audit  lifecycle.AuditLog // optional
	Engine *lifecycle.Engine
	Clock  func() time.Time
	Logger *zap.Logger
}

// NewService wires a service with the wall clock. A nil logger is replaced
// by a no-op logger; a nil audit log disables auditing.
func NewService(store lifecycle.Store, audit lifecycle.AuditLog, engine *lifecycle.Engine, log *zap.Logger) *Service {
	if engine == nil {
		engine = lifecycle.NewEngine(time.UTC)
	}
	return &Service{
		Store:  store,
		Audit:  audit,
		Engine: engine,
		Clock:  time.Now,
		Logger: logger.Module(log, "leave"),
	}
}

func (s *Service) now() time.Time { return s.Clock() }

// Today is the current calendar day in the hostel's time zone.
func (s *Service) Today() lifecycle.Date { return s.Engine.Today(s.now()) }

// =============================================================================
// WRITES
// =============================================================================

// Create submits a new application for the acting student.
func (s *Service) Create(ctx context.Context, actor lifecycle.Actor, in lifecycle.Input) (lifecycle.Application, error) {
	if err := lifecycle.CanCreate(actor); err != nil {
		s.rejected("create", actor, "", err)
		return lifecycle.Application{}, err
	}

	now := s.now()
	app, err := s.Engine.Create(in, actor.ID, now)
	if err != nil {
		s.rejected("create", actor, "", err)
		return lifecycle.Application{}, err
	}

	if err := s.Store.Insert(ctx, app); err != nil {
		return lifecycle.Application{}, fmt.Errorf("insert leave application: %w", err)
	}

	s.audit(ctx, actor, lifecycle.AuditCreated, app.ID, now, inputPayload(app))
	s.Logger.Info("leave application created",
		zap.String("leave_id", app.ID),
		zap.String("student_id", app.StudentID),
		zap.String("leave_type", app.LeaveType.String()),
		zap.Int("duration", app.Duration()),
	)
	return app, nil
}

// Edit replaces the editable fields of a pending application owned by actor.
func (s *Service) Edit(ctx context.Context, actor lifecycle.Actor, id string, in lifecycle.Input) (lifecycle.Application, error) {
	existing, err := s.Store.Get(ctx, id)
	if err != nil {
		return lifecycle.Application{}, err
	}

	now := s.now()
	updated, err := s.Engine.Edit(existing, in, actor, now)
	if err != nil {
		s.rejected("edit", actor, id, err)
		return lifecycle.Application{}, err
	}

	stored, err := s.Store.Update(ctx, updated, existing.Version)
	if err != nil {
		return lifecycle.Application{}, s.writeFailed("edit", actor, id, err)
	}

	s.audit(ctx, actor, lifecycle.AuditEdited, id, now, inputPayload(stored))
	s.Logger.Info("leave application edited",
		zap.String("leave_id", id),
		zap.String("student_id", stored.StudentID),
		zap.Int("version", stored.Version),
	)
	return stored, nil
}

// Delete removes a pending application owned by actor.
func (s *Service) Delete(ctx context.Context, actor lifecycle.Actor, id string) error {
	existing, err := s.Store.Get(ctx, id)
	if err != nil {
		return err
	}

	del, err := s.Engine.Delete(existing, actor)
	if err != nil {
		s.rejected("delete", actor, id, err)
		return err
	}

	if err := s.Store.Delete(ctx, del.ID, del.Version); err != nil {
		return s.writeFailed("delete", actor, id, err)
	}

	s.audit(ctx, actor, lifecycle.AuditDeleted, id, s.now(), map[string]any{
		"start_date": existing.StartDate.String(),
		"end_date":   existing.EndDate.String(),
	})
	s.Logger.Info("leave application deleted",
		zap.String("leave_id", id),
		zap.String("student_id", existing.StudentID),
	)
	return nil
}

// Decide approves or rejects a pending application. Only admins may decide,
// and only once.
func (s *Service) Decide(ctx context.Context, actor lifecycle.Actor, id string, decision lifecycle.Decision, remarks string) (lifecycle.Application, error) {
	existing, err := s.Store.Get(ctx, id)
	if err != nil {
		return lifecycle.Application{}, err
	}

	now := s.now()
	decided, err := s.Engine.Transition(existing, actor, decision, remarks, now)
	if err != nil {
		s.rejected(decision.String(), actor, id, err)
		return lifecycle.Application{}, err
	}

	stored, err := s.Store.Update(ctx, decided, existing.Version)
	if err != nil {
		return lifecycle.Application{}, s.writeFailed(decision.String(), actor, id, err)
	}

	action := lifecycle.AuditApproved
	if stored.IsRejected() {
		action = lifecycle.AuditRejected
	}
	s.audit(ctx, actor, action, id, now, map[string]any{
		"remarks": stored.Remarks,
	})
	s.Logger.Info("leave application decided",
		zap.String("leave_id", id),
		zap.String("status", stored.Status.String()),
		zap.String("approved_by", actor.ID),
	)
	return stored, nil
}

// Approve is Decide with DecisionApprove.
func (s *Service) Approve(ctx context.Context, actor lifecycle.Actor, id, remarks string) (lifecycle.Application, error) {
	return s.Decide(ctx, actor, id, lifecycle.DecisionApprove, remarks)
}

// Reject is Decide with DecisionReject.
func (s *Service) Reject(ctx context.Context, actor lifecycle.Actor, id, remarks string) (lifecycle.Application, error) {
	return s.Decide(ctx, actor, id, lifecycle.DecisionReject, remarks)
}

// =============================================================================
// READS
// =============================================================================

// Get returns one application if actor may see it.
func (s *Service) Get(ctx context.Context, actor lifecycle.Actor, id string) (lifecycle.Application, error) {
	app, err := s.Store.Get(ctx, id)
	if err != nil {
		return lifecycle.Application{}, err
	}
	if err := lifecycle.CanView(actor, app); err != nil {
		return lifecycle.Application{}, err
	}
	return app, nil
}

// Detail is one application with the same student's overlapping ones.
type Detail struct {
	Application lifecycle.Application
	Overlapping []lifecycle.Application
}

// GetDetail returns an application plus the live applications of the same
// student whose dates intersect it.
func (s *Service) GetDetail(ctx context.Context, actor lifecycle.Actor, id string) (Detail, error) {
	app, err := s.Get(ctx, actor, id)
	if err != nil {
		return Detail{}, err
	}
	siblings, err := s.Store.List(ctx, lifecycle.ListFilter{StudentID: app.StudentID})
	if err != nil {
		return Detail{}, fmt.Errorf("list applications of %s: %w", app.StudentID, err)
	}
	return Detail{Application: app, Overlapping: lifecycle.Overlapping(siblings, app)}, nil
}

// Listing is one status tab plus the badge counts of every tab.
type Listing struct {
	Records []lifecycle.Application
	Counts  lifecycle.Counts
}

// List returns the applications visible to actor that match filter, most
// recent first. Counts cover everything visible, not just the filtered tab.
func (s *Service) List(ctx context.Context, actor lifecycle.Actor, filter lifecycle.StatusFilter) (Listing, error) {
	visible, err := s.visible(ctx, actor)
	if err != nil {
		return Listing{}, err
	}
	return Listing{
		Records: lifecycle.FilterByStatus(visible, filter),
		Counts:  lifecycle.GroupCounts(visible),
	}, nil
}

// Counts returns per-status badge counts for actor's visible applications.
func (s *Service) Counts(ctx context.Context, actor lifecycle.Actor) (lifecycle.Counts, error) {
	visible, err := s.visible(ctx, actor)
	if err != nil {
		return lifecycle.Counts{}, err
	}
	return lifecycle.GroupCounts(visible), nil
}

func (s *Service) visible(ctx context.Context, actor lifecycle.Actor) ([]lifecycle.Application, error) {
	var filter lifecycle.ListFilter
	switch {
	case actor.Role == lifecycle.RoleAdmin:
	case actor.Role == lifecycle.RoleStudent && actor.ID != "":
		filter.StudentID = actor.ID
	default:
		return nil, lifecycle.CanAdminister(actor)
	}

	records, err := s.Store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return records, nil
}

// Summary aggregates every application per leave type. Admin only.
func (s *Service) Summary(ctx context.Context, actor lifecycle.Actor) (lifecycle.Summary, error) {
	if err := lifecycle.CanAdminister(actor); err != nil {
		return lifecycle.Summary{}, err
	}
	records, err := s.Store.List(ctx, lifecycle.ListFilter{})
	if err != nil {
		return lifecycle.Summary{}, fmt.Errorf("list applications: %w", err)
	}
	return lifecycle.Summarize(records), nil
}

// Overdue lists pending applications whose start date has passed. Admin only.
func (s *Service) Overdue(ctx context.Context, actor lifecycle.Actor) ([]lifecycle.Application, error) {
	if err := lifecycle.CanAdminister(actor); err != nil {
		return nil, err
	}
	return s.OverdueAll(ctx)
}

// OverdueAll is Overdue without an actor, for background monitoring.
func (s *Service) OverdueAll(ctx context.Context) ([]lifecycle.Application, error) {
	pending, err := s.Store.List(ctx, lifecycle.ListFilter{Status: lifecycle.OnlyStatus(lifecycle.StatusPending)})
	if err != nil {
		return nil, fmt.Errorf("list pending applications: %w", err)
	}
	return lifecycle.OverduePending(pending, s.Today()), nil
}

// AuditTrail returns audit entries matching filter, oldest first. Admin only.
func (s *Service) AuditTrail(ctx context.Context, actor lifecycle.Actor, filter lifecycle.AuditFilter) ([]lifecycle.AuditEntry, error) {
	if err := lifecycle.CanAdminister(actor); err != nil {
		return nil, err
	}
	if s.Audit == nil {
		return nil, nil
	}
	entries, err := s.Audit.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	return entries, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// writeFailed converts a lost compare-and-swap into InvalidState. Other store
// errors pass through wrapped.
func (s *Service) writeFailed(op string, actor lifecycle.Actor, id string, err error) error {
	if errors.Is(err, lifecycle.ErrConcurrentModification) {
		stale := lifecycle.StaleWrite(id, err)
		s.rejected(op, actor, id, stale)
		return stale
	}
	if lifecycle.IsNotFound(err) {
		return err
	}
	s.Logger.Error("leave application write failed",
		zap.String("op", op),
		zap.String("leave_id", id),
		zap.Error(err),
	)
	return fmt.Errorf("%s %s: %w", op, id, err)
}

func (s *Service) rejected(op string, actor lifecycle.Actor, id string, err error) {
	kind, _ := lifecycle.KindOf(err)
	s.Logger.Warn("leave operation rejected",
		zap.String("op", op),
		zap.String("actor", actor.String()),
		zap.String("leave_id", id),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
}

// audit appends an entry. A failing audit log never fails the operation
// that already committed; it is logged instead.
func (s *Service) audit(ctx context.Context, actor lifecycle.Actor, action lifecycle.AuditAction, leaveID string, at time.Time, payload map[string]any) {
	if s.Audit == nil {
		return
	}
	entry := lifecycle.AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: at,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Action:    action,
		LeaveID:   leaveID,
		Payload:   payload,
	}
	if err := s.Audit.Append(ctx, entry); err != nil {
		s.Logger.Error("audit append failed",
			zap.String("action", string(action)),
			zap.String("leave_id", leaveID),
			zap.Error(err),
		)
	}
}

func inputPayload(app lifecycle.Application) map[string]any {
	return map[string]any{
		"leave_type":      app.LeaveType.String(),
		"start_date":      app.StartDate.String(),
		"end_date":        app.EndDate.String(),
		"duration":        app.Duration(),
		"parent_approval": app.ParentApproval,
	}
}
