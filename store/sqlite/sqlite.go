/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements lifecycle.Store (leave applications) and lifecycle.AuditLog
  (audit trail) on SQLite. In production the same SQL runs on PostgreSQL
  with only minor dialect differences.

INTERFACES IMPLEMENTED:
  lifecycle.Store:    leave application persistence with optimistic versioning
  lifecycle.Resetter: demo reset
  lifecycle.AuditLog: append-only audit trail (via Store.AuditLog())

COMPARE-AND-SWAP:
  Every application row carries a version. Writes are conditional:

    UPDATE leave_applications SET ..., version = version + 1
    WHERE id = ? AND version = ?

  Zero rows affected means either the row is gone (ErrNotFound) or someone
  else wrote first (ErrConcurrentModification). Both checks run inside one
  SQL transaction, so the answer is consistent with the failed write.

KEY TABLES:
  leave_applications: one row per application, current state only
  leave_audit:        immutable log of lifecycle operations

INDEXES:
  - idx_leave_student_created: per-student listing, most recent first
  - idx_leave_status_created:  status tabs and the overdue scan
  - idx_audit_leave:           audit trail of one application

TIME FORMAT:
  Instants are stored as fixed-width UTC text so that lexical order equals
  chronological order. Calendar dates are stored as YYYY-MM-DD.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single connection, which also
  lets ":memory:" databases be shared by every query.

USAGE:
  store, err := sqlite.New("./data/hostel.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := leave.NewService(store, store.AuditLog(), engine, logger)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - lifecycle/store.go: interface definitions
  - lifecycle/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/warp/hostel-leave/lifecycle"
)

// timeLayout is RFC 3339 with a fixed nine-digit fraction, always UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements lifecycle.Store on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection, for health probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS leave_applications (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		reason TEXT NOT NULL,
		destination TEXT NOT NULL,
		contact_during_leave TEXT NOT NULL,
		parent_approval INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
		remarks TEXT NOT NULL DEFAULT '',
		approved_by TEXT,
		approval_date TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_leave_student_created
		ON leave_applications(student_id, created_at DESC, id DESC);
	CREATE INDEX IF NOT EXISTS idx_leave_status_created
		ON leave_applications(status, created_at DESC, id DESC);

	-- Audit trail (append-only)
	CREATE TABLE IF NOT EXISTS leave_audit (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		actor_role TEXT NOT NULL,
		action TEXT NOT NULL,
		leave_id TEXT NOT NULL,
		payload_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_leave
		ON leave_audit(leave_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_actor
		ON leave_audit(actor_id, timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// APPLICATION STORE (lifecycle.Store interface)
// =============================================================================

const applicationColumns = `
	id, student_id, leave_type, start_date, end_date, reason, destination,
	contact_during_leave, parent_approval, status, remarks, approved_by,
	approval_date, created_at, updated_at, version`

// Insert persists a new application.
func (s *Store) Insert(ctx context.Context, app lifecycle.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if app.Version == 0 {
		app.Version = 1
	}

	query := `INSERT INTO leave_applications (` + applicationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		app.ID,
		app.StudentID,
		app.LeaveType.String(),
		app.StartDate.String(),
		app.EndDate.String(),
		app.Reason,
		app.Destination,
		app.ContactDuringLeave,
		app.ParentApproval,
		app.Status.String(),
		app.Remarks,
		nullStringPtr(app.ApprovedBy),
		nullTime(app.ApprovalDate),
		formatTime(app.CreatedAt),
		formatTime(app.UpdatedAt),
		app.Version,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("insert %s: %w", app.ID, lifecycle.ErrDuplicateID)
		}
		return fmt.Errorf("failed to insert leave application: %w", err)
	}
	return nil
}

// Get returns the application with the given ID.
func (s *Store) Get(ctx context.Context, id string) (lifecycle.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return getApplication(ctx, s.db, id)
}

// Update writes app if the stored version equals expectedVersion. StudentID
// and CreatedAt are never rewritten.
func (s *Store) Update(ctx context.Context, app lifecycle.Application, expectedVersion int) (lifecycle.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return lifecycle.Application{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	query := `
		UPDATE leave_applications SET
			leave_type = ?, start_date = ?, end_date = ?, reason = ?, destination = ?,
			contact_during_leave = ?, parent_approval = ?, status = ?, remarks = ?,
			approved_by = ?, approval_date = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`
	res, err := sqlTx.ExecContext(ctx, query,
		app.LeaveType.String(),
		app.StartDate.String(),
		app.EndDate.String(),
		app.Reason,
		app.Destination,
		app.ContactDuringLeave,
		app.ParentApproval,
		app.Status.String(),
		app.Remarks,
		nullStringPtr(app.ApprovedBy),
		nullTime(app.ApprovalDate),
		formatTime(app.UpdatedAt),
		app.ID,
		expectedVersion,
	)
	if err != nil {
		return lifecycle.Application{}, fmt.Errorf("failed to update leave application: %w", err)
	}
	if err := casResult(ctx, sqlTx, res, "update", app.ID, expectedVersion); err != nil {
		return lifecycle.Application{}, err
	}

	stored, err := getApplication(ctx, sqlTx, app.ID)
	if err != nil {
		return lifecycle.Application{}, err
	}
	if err := sqlTx.Commit(); err != nil {
		return lifecycle.Application{}, fmt.Errorf("failed to commit update: %w", err)
	}
	return stored, nil
}

// Delete removes the application if the stored version equals expectedVersion.
func (s *Store) Delete(ctx context.Context, id string, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	res, err := sqlTx.ExecContext(ctx,
		"DELETE FROM leave_applications WHERE id = ? AND version = ?",
		id, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to delete leave application: %w", err)
	}
	if err := casResult(ctx, sqlTx, res, "delete", id, expectedVersion); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// List returns matching applications, most recent first.
func (s *Store) List(ctx context.Context, filter lifecycle.ListFilter) ([]lifecycle.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if filter.StudentID != "" {
		where = append(where, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if st, ok := filter.Status.Status(); ok {
		where = append(where, "status = ?")
		args = append(args, st.String())
	}

	query := "SELECT " + applicationColumns + " FROM leave_applications"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave applications: %w", err)
	}
	defer rows.Close()

	apps := []lifecycle.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getApplication(ctx context.Context, db queryer, id string) (lifecycle.Application, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+applicationColumns+" FROM leave_applications WHERE id = ?", id)

	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return lifecycle.Application{}, fmt.Errorf("get %s: %w", id, lifecycle.ErrNotFound)
	}
	return app, err
}

// casResult turns a zero-row conditional write into ErrNotFound or
// ErrConcurrentModification.
func casResult(ctx context.Context, db queryer, res sql.Result, op, id string, expectedVersion int) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	var current int
	err = db.QueryRowContext(ctx, "SELECT version FROM leave_applications WHERE id = ?", id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", op, id, lifecycle.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read version: %w", err)
	}
	return fmt.Errorf("%s %s (have v%d, expected v%d): %w",
		op, id, current, expectedVersion, lifecycle.ErrConcurrentModification)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(row scanner) (lifecycle.Application, error) {
	var (
		app          lifecycle.Application
		leaveType    string
		startDate    string
		endDate      string
		status       string
		approvedBy   sql.NullString
		approvalDate sql.NullString
		createdAt    string
		updatedAt    string
	)

	err := row.Scan(
		&app.ID, &app.StudentID, &leaveType, &startDate, &endDate,
		&app.Reason, &app.Destination, &app.ContactDuringLeave, &app.ParentApproval,
		&status, &app.Remarks, &approvedBy, &approvalDate,
		&createdAt, &updatedAt, &app.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return app, err
		}
		return app, fmt.Errorf("failed to scan leave application: %w", err)
	}

	var ok bool
	if app.LeaveType, ok = lifecycle.ParseLeaveType(leaveType); !ok {
		return app, fmt.Errorf("leave application %s: unknown leave type %q", app.ID, leaveType)
	}
	if app.Status, ok = lifecycle.ParseStatus(status); !ok {
		return app, fmt.Errorf("leave application %s: unknown status %q", app.ID, status)
	}
	if app.StartDate, err = lifecycle.ParseDate(startDate); err != nil {
		return app, err
	}
	if app.EndDate, err = lifecycle.ParseDate(endDate); err != nil {
		return app, err
	}
	if approvedBy.Valid {
		v := approvedBy.String
		app.ApprovedBy = &v
	}
	if approvalDate.Valid {
		t, err := parseTime(approvalDate.String)
		if err != nil {
			return app, err
		}
		app.ApprovalDate = &t
	}
	if app.CreatedAt, err = parseTime(createdAt); err != nil {
		return app, err
	}
	if app.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return app, err
	}
	return app, nil
}

// =============================================================================
// AUDIT LOG (lifecycle.AuditLog interface)
// =============================================================================

// AuditLog is the audit trail sharing the store's database.
type AuditLog struct {
	s *Store
}

// AuditLog returns the audit trail backed by this store.
func (s *Store) AuditLog() *AuditLog {
	return &AuditLog{s: s}
}

// Append adds an audit entry.
func (a *AuditLog) Append(ctx context.Context, entry lifecycle.AuditEntry) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	var payload sql.NullString
	if len(entry.Payload) > 0 {
		b, err := json.Marshal(entry.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode audit payload: %w", err)
		}
		payload = sql.NullString{String: string(b), Valid: true}
	}

	_, err := a.s.db.ExecContext(ctx, `
		INSERT INTO leave_audit (id, timestamp, actor_id, actor_role, action, leave_id, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		formatTime(entry.Timestamp),
		entry.ActorID,
		entry.ActorRole.String(),
		string(entry.Action),
		entry.LeaveID,
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// Query returns matching entries, oldest first.
func (a *AuditLog) Query(ctx context.Context, filter lifecycle.AuditFilter) ([]lifecycle.AuditEntry, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if filter.LeaveID != "" {
		where = append(where, "leave_id = ?")
		args = append(args, filter.LeaveID)
	}
	if filter.ActorID != "" {
		where = append(where, "actor_id = ?")
		args = append(args, filter.ActorID)
	}
	if len(filter.Actions) > 0 {
		marks := make([]string, len(filter.Actions))
		for i, act := range filter.Actions {
			marks[i] = "?"
			args = append(args, string(act))
		}
		where = append(where, "action IN ("+strings.Join(marks, ", ")+")")
	}

	query := "SELECT id, timestamp, actor_id, actor_role, action, leave_id, payload_json FROM leave_audit"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp ASC, rowid ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := a.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []lifecycle.AuditEntry
	for rows.Next() {
		var (
			e         lifecycle.AuditEntry
			timestamp string
			role      string
			action    string
			payload   sql.NullString
		)
		if err := rows.Scan(&e.ID, &timestamp, &e.ActorID, &role, &action, &e.LeaveID, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if e.Timestamp, err = parseTime(timestamp); err != nil {
			return nil, err
		}
		e.ActorRole, _ = lifecycle.ParseRole(role)
		e.Action = lifecycle.AuditAction(action)
		if payload.Valid && payload.String != "" {
			if err := json.Unmarshal([]byte(payload.String), &e.Payload); err != nil {
				return nil, fmt.Errorf("failed to decode audit payload of %s: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"leave_audit", "leave_applications"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears the audit trail only.
func (a *AuditLog) Reset(ctx context.Context) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	_, err := a.s.db.ExecContext(ctx, "DELETE FROM leave_audit")
	return err
}

var (
	_ lifecycle.Store    = (*Store)(nil)
	_ lifecycle.Resetter = (*Store)(nil)
	_ lifecycle.AuditLog = (*AuditLog)(nil)
	_ lifecycle.Resetter = (*AuditLog)(nil)
)

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", s, err)
	}
	return t, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
