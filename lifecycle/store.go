/*
store.go - Persistence interfaces for leave applications

PURPOSE:
  The engine never persists anything. These interfaces describe what the
  surrounding service needs from a store, so SQLite and in-memory
  implementations are interchangeable.

COMPARE-AND-SWAP CONTRACT:
  Update and Delete take the version the caller read. If the stored
  version differs, the write is rejected with ErrConcurrentModification
  and nothing changes. The authorization precondition ("status is
  pending") is therefore checked atomically with the write: a concurrent
  approval bumps the version and the stale edit fails.

  A successful Update stores the record with Version = expected + 1 and
  returns it.

LISTING ORDER:
  List returns most recent first: CreatedAt DESC, then ID DESC.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go:   production SQLite
  - lifecycle/store/memory.go: in-memory for tests and demos

SEE ALSO:
  - leave/service.go: the only caller of these interfaces
*/
package lifecycle

import (
	"context"
	"time"
)

// =============================================================================
// STORE - Leave application persistence with optimistic versioning
// =============================================================================

type Store interface {
	// Insert persists a new application. Returns ErrDuplicateID if the ID exists.
	Insert(ctx context.Context, app Application) error

	// Get returns the application with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (Application, error)

	// Update replaces the stored application if its version equals
	// expectedVersion. Returns the stored record with its new version.
	Update(ctx context.Context, app Application, expectedVersion int) (Application, error)

	// Delete removes the application if its version equals expectedVersion.
	Delete(ctx context.Context, id string, expectedVersion int) error

	// List returns applications matching filter, most recent first.
	List(ctx context.Context, filter ListFilter) ([]Application, error)
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	StudentID string
	Status    StatusFilter
}

// Resetter is implemented by stores that can be wiped, for demo scenarios.
type Resetter interface {
	Reset(ctx context.Context) error
}

// =============================================================================
// AUDIT LOG - Who did what to which application, append-only
// =============================================================================

type AuditAction string

const (
	AuditCreated  AuditAction = "leave_created"
	AuditEdited   AuditAction = "leave_edited"
	AuditDeleted  AuditAction = "leave_deleted"
	AuditApproved AuditAction = "leave_approved"
	AuditRejected AuditAction = "leave_rejected"
)

// AuditEntry records one successful lifecycle operation.
type AuditEntry struct {
	ID        string
	Timestamp time.Time
	ActorID   string
	ActorRole Role
	Action    AuditAction
	LeaveID   string
	Payload   map[string]any
}

// AuditLog stores audit entries. Append-only.
type AuditLog interface {
	Append(ctx context.Context, entry AuditEntry) error
	Query(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

// AuditFilter narrows Query. Entries come back oldest first.
type AuditFilter struct {
	LeaveID string
	ActorID string
	Actions []AuditAction
	Limit   int // 0 means no limit
}

// Matches reports whether e passes the filter (ignoring Limit).
func (f AuditFilter) Matches(e AuditEntry) bool {
	if f.LeaveID != "" && e.LeaveID != f.LeaveID {
		return false
	}
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if len(f.Actions) == 0 {
		return true
	}
	for _, a := range f.Actions {
		if a == e.Action {
			return true
		}
	}
	return false
}
