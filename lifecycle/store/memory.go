// Package store provides in-memory lifecycle.Store and lifecycle.AuditLog
// implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/hostel-leave/lifecycle"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	byID    map[string]lifecycle.Application
	ordered []string // IDs, most recent first
}

func NewMemory() *Memory {
	return &Memory{byID: make(map[string]lifecycle.Application)}
}

// newer reports whether a sorts before b in listing order.
func newer(a, b lifecycle.Application) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (m *Memory) Insert(_ context.Context, app lifecycle.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[app.ID]; exists {
		return fmt.Errorf("insert %s: %w", app.ID, lifecycle.ErrDuplicateID)
	}
	if app.Version == 0 {
		app.Version = 1
	}

	// Binary search for insertion point keeps List free of sorting
	i := sort.Search(len(m.ordered), func(i int) bool {
		return newer(app, m.byID[m.ordered[i]])
	})
	m.ordered = append(m.ordered, "")
	copy(m.ordered[i+1:], m.ordered[i:])
	m.ordered[i] = app.ID
	m.byID[app.ID] = app
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (lifecycle.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	app, ok := m.byID[id]
	if !ok {
		return lifecycle.Application{}, fmt.Errorf("get %s: %w", id, lifecycle.ErrNotFound)
	}
	return app, nil
}

// Update is a compare-and-swap on Version.
func (m *Memory) Update(_ context.Context, app lifecycle.Application, expectedVersion int) (lifecycle.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.byID[app.ID]
	if !ok {
		return lifecycle.Application{}, fmt.Errorf("update %s: %w", app.ID, lifecycle.ErrNotFound)
	}
	if current.Version != expectedVersion {
		return lifecycle.Application{}, fmt.Errorf("update %s (have v%d, expected v%d): %w",
			app.ID, current.Version, expectedVersion, lifecycle.ErrConcurrentModification)
	}

	// Immutable fields stay as stored
	app.StudentID = current.StudentID
	app.CreatedAt = current.CreatedAt
	app.Version = expectedVersion + 1
	m.byID[app.ID] = app
	return app, nil
}

// Delete is a compare-and-swap on Version.
func (m *Memory) Delete(_ context.Context, id string, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("delete %s: %w", id, lifecycle.ErrNotFound)
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("delete %s (have v%d, expected v%d): %w",
			id, current.Version, expectedVersion, lifecycle.ErrConcurrentModification)
	}

	delete(m.byID, id)
	for i, oid := range m.ordered {
		if oid == id {
			m.ordered = append(m.ordered[:i], m.ordered[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) List(_ context.Context, filter lifecycle.ListFilter) ([]lifecycle.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]lifecycle.Application, 0, len(m.ordered))
	for _, id := range m.ordered {
		app := m.byID[id]
		if filter.StudentID != "" && app.StudentID != filter.StudentID {
			continue
		}
		if !filter.Status.Match(app.Status) {
			continue
		}
		result = append(result, app)
	}
	return result, nil
}

// Reset drops every application.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byID = make(map[string]lifecycle.Application)
	m.ordered = nil
	return nil
}

var (
	_ lifecycle.Store    = (*Memory)(nil)
	_ lifecycle.Resetter = (*Memory)(nil)
)

// =============================================================================
// MEMORY AUDIT LOG
// =============================================================================

type AuditMemory struct {
	mu      sync.RWMutex
	entries []lifecycle.AuditEntry
}

func NewAuditMemory() *AuditMemory {
	return &AuditMemory{}
}

func (a *AuditMemory) Append(_ context.Context, entry lifecycle.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func (a *AuditMemory) Query(_ context.Context, filter lifecycle.AuditFilter) ([]lifecycle.AuditEntry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var result []lifecycle.AuditEntry
	for _, e := range a.entries {
		if !filter.Matches(e) {
			continue
		}
		result = append(result, e)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}

// Reset drops every entry.
func (a *AuditMemory) Reset(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = nil
	return nil
}

var _ lifecycle.AuditLog = (*AuditMemory)(nil)
