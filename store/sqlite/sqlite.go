/*
Package sqlite provides a SQLite-backed implementation of the engine's
storage interfaces.

PURPOSE:
  Implements EntryTxStore, DeadlineStore, ExceptionTxStore, and AuditLog
  using SQLite. In production the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

UNIQUENESS ENFORCEMENT:
  The one-open-entry invariant is enforced at the database level with a
  partial unique index:

    CREATE UNIQUE INDEX idx_one_open_entry
      ON time_entries(user_id, entry_date)
      WHERE clock_out_time IS NULL

  so two racing clock-ins cannot both commit even across processes. The
  engine's precondition recheck inside WithTx turns the second attempt
  into AlreadyClockedIn before the index ever fires; the index is the
  backstop.

CONCURRENCY:
  A sync.RWMutex serializes writers in-process; WAL mode lets readers
  proceed concurrently. WithTx holds the write lock for the duration of
  the SQL transaction, satisfying the read-check-write atomicity contract.

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - engine/store.go: interface definitions and the atomicity contract
  - engine/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/compliance-engine/engine"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

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

// Entries returns the time entry store view.
func (s *Store) Entries() engine.EntryTxStore { return &entryStore{s: s, q: s.db} }

// Deadlines returns the deadline store view.
func (s *Store) Deadlines() engine.DeadlineStore { return &deadlineStore{s: s} }

// Exceptions returns the exception request store view.
func (s *Store) Exceptions() engine.ExceptionTxStore { return &exceptionStore{s: s, q: s.db} }

// Audit returns the audit log view.
func (s *Store) Audit() engine.AuditLog { return &auditStore{s: s} }

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Daily clock records, one row per worker per session per day
	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		clock_in_time TEXT NOT NULL,
		clock_out_time TEXT,
		break_start_time TEXT,
		break_end_time TEXT,
		total_hours TEXT NOT NULL DEFAULT '0',
		regular_hours TEXT NOT NULL DEFAULT '0',
		evening_hours TEXT NOT NULL DEFAULT '0',
		weekend_hours TEXT NOT NULL DEFAULT '0',
		is_approved INTEGER NOT NULL DEFAULT 0,
		approved_by TEXT,
		approved_at TEXT,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_user_date
		ON time_entries(user_id, entry_date);
	CREATE INDEX IF NOT EXISTS idx_entries_date
		ON time_entries(entry_date);

	-- CRITICAL: at most one open entry per worker per day. Two racing
	-- clock-ins cannot both commit; the second fails this index.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_one_open_entry
		ON time_entries(user_id, entry_date)
		WHERE clock_out_time IS NULL;

	-- Provider-scoped obligations with a due instant
	CREATE TABLE IF NOT EXISTS compliance_deadlines (
		id TEXT PRIMARY KEY,
		provider_id TEXT NOT NULL,
		deadline_type TEXT NOT NULL DEFAULT '',
		deadline_date TEXT NOT NULL,
		is_met INTEGER NOT NULL DEFAULT 0,
		met_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_deadlines_provider
		ON compliance_deadlines(provider_id, deadline_date);

	-- Deadline extension requests under review
	CREATE TABLE IF NOT EXISTS exception_requests (
		id TEXT PRIMARY KEY,
		provider_id TEXT NOT NULL,
		requested_extension_until TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		reviewed_by TEXT,
		reviewed_at TEXT,
		review_notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_exceptions_provider_status
		ON exception_requests(provider_id, status);

	-- Approval-state audit trail (append-only; no UPDATE or DELETE ever)
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		target_id TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_target
		ON audit_log(target_id, at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx abstracts *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// TIME ENTRIES (engine.EntryTxStore)
// =============================================================================

type entryStore struct {
	s  *Store
	q  dbtx
	tx bool // true inside WithTx; the write lock is already held
}

const entryColumns = `id, user_id, entry_date, clock_in_time, clock_out_time,
	break_start_time, break_end_time, total_hours, regular_hours,
	evening_hours, weekend_hours, is_approved, approved_by, approved_at,
	notes, created_at, updated_at`

func (es *entryStore) GetEntry(ctx context.Context, id engine.EntryID) (*engine.TimeEntry, error) {
	if !es.tx {
		es.s.mu.RLock()
		defer es.s.mu.RUnlock()
	}

	row := es.q.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE id = ?`, string(id))
	return scanEntry(row)
}

func (es *entryStore) FindOpenEntry(ctx context.Context, userID engine.UserID, day time.Time) (*engine.TimeEntry, error) {
	if !es.tx {
		es.s.mu.RLock()
		defer es.s.mu.RUnlock()
	}

	row := es.q.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries
		 WHERE user_id = ? AND entry_date = ? AND clock_out_time IS NULL`,
		string(userID), formatDay(day))
	return scanEntry(row)
}

func (es *entryStore) ListEntries(ctx context.Context, f engine.EntryFilter) ([]*engine.TimeEntry, error) {
	if !es.tx {
		es.s.mu.RLock()
		defer es.s.mu.RUnlock()
	}

	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE 1=1`
	var args []any
	if f.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, string(f.UserID))
	}
	if !f.Day.IsZero() {
		query += ` AND entry_date = ?`
		args = append(args, formatDay(f.Day))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := es.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query time entries: %w", err)
	}
	defer rows.Close()

	var result []*engine.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (es *entryStore) SaveEntry(ctx context.Context, e *engine.TimeEntry) error {
	if !es.tx {
		es.s.mu.Lock()
		defer es.s.mu.Unlock()
	}

	query := `
		INSERT INTO time_entries (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			entry_date = excluded.entry_date,
			clock_in_time = excluded.clock_in_time,
			clock_out_time = excluded.clock_out_time,
			break_start_time = excluded.break_start_time,
			break_end_time = excluded.break_end_time,
			total_hours = excluded.total_hours,
			regular_hours = excluded.regular_hours,
			evening_hours = excluded.evening_hours,
			weekend_hours = excluded.weekend_hours,
			is_approved = excluded.is_approved,
			approved_by = excluded.approved_by,
			approved_at = excluded.approved_at,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`

	var approvedBy sql.NullString
	if e.ApprovedBy != nil {
		approvedBy = sql.NullString{String: string(*e.ApprovedBy), Valid: true}
	}

	_, err := es.q.ExecContext(ctx, query,
		string(e.ID),
		string(e.UserID),
		formatDay(e.EntryDate),
		formatTime(e.ClockInTime),
		nullTime(e.ClockOutTime),
		nullTime(e.BreakStartTime),
		nullTime(e.BreakEndTime),
		e.TotalHours.String(),
		e.RegularHours.String(),
		e.EveningHours.String(),
		e.WeekendHours.String(),
		boolToInt(e.IsApproved),
		approvedBy,
		nullTime(e.ApprovedAt),
		e.Notes,
		formatTime(e.CreatedAt),
		formatTime(e.UpdatedAt),
	)
	if err != nil {
		if isOpenEntryConflict(err) {
			return &engine.AlreadyClockedInError{UserID: e.UserID, Date: e.EntryDate}
		}
		return fmt.Errorf("failed to save time entry: %w", err)
	}
	return nil
}

func (es *entryStore) DeleteEntry(ctx context.Context, id engine.EntryID) error {
	if !es.tx {
		es.s.mu.Lock()
		defer es.s.mu.Unlock()
	}

	_, err := es.q.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete time entry: %w", err)
	}
	return nil
}

func (es *entryStore) WithTx(ctx context.Context, fn func(engine.EntryStore) error) error {
	es.s.mu.Lock()
	defer es.s.mu.Unlock()

	tx, err := es.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&entryStore{s: es.s, q: tx, tx: true}); err != nil {
		return err
	}
	return tx.Commit()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*engine.TimeEntry, error) {
	var (
		e              engine.TimeEntry
		id, userID     string
		entryDate      string
		clockIn        string
		clockOut       sql.NullString
		breakStart     sql.NullString
		breakEnd       sql.NullString
		total, regular string
		evening, wkend string
		isApproved     int
		approvedBy     sql.NullString
		approvedAt     sql.NullString
		createdAt      string
		updatedAt      string
	)

	err := row.Scan(&id, &userID, &entryDate, &clockIn, &clockOut,
		&breakStart, &breakEnd, &total, &regular, &evening, &wkend,
		&isApproved, &approvedBy, &approvedAt, &e.Notes, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan time entry: %w", err)
	}

	e.ID = engine.EntryID(id)
	e.UserID = engine.UserID(userID)
	e.EntryDate = parseDay(entryDate)
	e.ClockInTime = parseTime(clockIn)
	e.ClockOutTime = parseNullTime(clockOut)
	e.BreakStartTime = parseNullTime(breakStart)
	e.BreakEndTime = parseNullTime(breakEnd)
	e.TotalHours = parseDec(total)
	e.RegularHours = parseDec(regular)
	e.EveningHours = parseDec(evening)
	e.WeekendHours = parseDec(wkend)
	e.IsApproved = isApproved != 0
	if approvedBy.Valid {
		v := engine.UserID(approvedBy.String)
		e.ApprovedBy = &v
	}
	e.ApprovedAt = parseNullTime(approvedAt)
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return &e, nil
}

// =============================================================================
// DEADLINES (engine.DeadlineStore)
// =============================================================================

type deadlineStore struct {
	s *Store
}

const deadlineColumns = `id, provider_id, deadline_type, deadline_date,
	is_met, met_at, created_at, updated_at`

func (ds *deadlineStore) GetDeadline(ctx context.Context, id engine.DeadlineID) (*engine.ComplianceDeadline, error) {
	ds.s.mu.RLock()
	defer ds.s.mu.RUnlock()

	row := ds.s.db.QueryRowContext(ctx,
		`SELECT `+deadlineColumns+` FROM compliance_deadlines WHERE id = ?`, string(id))
	return scanDeadline(row)
}

func (ds *deadlineStore) ListDeadlines(ctx context.Context, f engine.DeadlineFilter) ([]*engine.ComplianceDeadline, error) {
	ds.s.mu.RLock()
	defer ds.s.mu.RUnlock()

	query := `SELECT ` + deadlineColumns + ` FROM compliance_deadlines WHERE 1=1`
	var args []any
	if f.ProviderID != "" {
		query += ` AND provider_id = ?`
		args = append(args, string(f.ProviderID))
	}
	query += ` ORDER BY deadline_date ASC`

	rows, err := ds.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deadlines: %w", err)
	}
	defer rows.Close()

	var result []*engine.ComplianceDeadline
	for rows.Next() {
		d, err := scanDeadline(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (ds *deadlineStore) SaveDeadline(ctx context.Context, d *engine.ComplianceDeadline) error {
	ds.s.mu.Lock()
	defer ds.s.mu.Unlock()

	query := `
		INSERT INTO compliance_deadlines (` + deadlineColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			provider_id = excluded.provider_id,
			deadline_type = excluded.deadline_type,
			deadline_date = excluded.deadline_date,
			is_met = excluded.is_met,
			met_at = excluded.met_at,
			updated_at = excluded.updated_at
	`

	_, err := ds.s.db.ExecContext(ctx, query,
		string(d.ID),
		string(d.ProviderID),
		d.DeadlineType,
		formatTime(d.DeadlineDate),
		boolToInt(d.IsMet),
		nullTime(d.MetAt),
		formatTime(d.CreatedAt),
		formatTime(d.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save deadline: %w", err)
	}
	return nil
}

func (ds *deadlineStore) MarkMet(ctx context.Context, id engine.DeadlineID, at time.Time) (*engine.ComplianceDeadline, error) {
	ds.s.mu.Lock()
	defer ds.s.mu.Unlock()

	// Flip exactly once; a second call leaves the original met_at.
	_, err := ds.s.db.ExecContext(ctx,
		`UPDATE compliance_deadlines
		 SET is_met = 1, met_at = ?, updated_at = ?
		 WHERE id = ? AND is_met = 0`,
		formatTime(at), formatTime(at), string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to mark deadline met: %w", err)
	}

	row := ds.s.db.QueryRowContext(ctx,
		`SELECT `+deadlineColumns+` FROM compliance_deadlines WHERE id = ?`, string(id))
	d, err := scanDeadline(row)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, &engine.NotFoundError{Kind: "deadline", ID: string(id)}
	}
	return d, nil
}

func scanDeadline(row rowScanner) (*engine.ComplianceDeadline, error) {
	var (
		d                    engine.ComplianceDeadline
		id, providerID       string
		deadlineDate         string
		isMet                int
		metAt                sql.NullString
		createdAt, updatedAt string
	)

	err := row.Scan(&id, &providerID, &d.DeadlineType, &deadlineDate,
		&isMet, &metAt, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan deadline: %w", err)
	}

	d.ID = engine.DeadlineID(id)
	d.ProviderID = engine.ProviderID(providerID)
	d.DeadlineDate = parseTime(deadlineDate)
	d.IsMet = isMet != 0
	d.MetAt = parseNullTime(metAt)
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	return &d, nil
}

// =============================================================================
// EXCEPTION REQUESTS (engine.ExceptionTxStore)
// =============================================================================

type exceptionStore struct {
	s  *Store
	q  dbtx
	tx bool
}

const exceptionColumns = `id, provider_id, requested_extension_until, reason,
	status, reviewed_by, reviewed_at, review_notes, created_at, updated_at`

func (xs *exceptionStore) GetException(ctx context.Context, id engine.ExceptionID) (*engine.DeadlineExceptionRequest, error) {
	if !xs.tx {
		xs.s.mu.RLock()
		defer xs.s.mu.RUnlock()
	}

	row := xs.q.QueryRowContext(ctx,
		`SELECT `+exceptionColumns+` FROM exception_requests WHERE id = ?`, string(id))
	return scanException(row)
}

func (xs *exceptionStore) ListExceptions(ctx context.Context, f engine.ExceptionFilter) ([]*engine.DeadlineExceptionRequest, error) {
	if !xs.tx {
		xs.s.mu.RLock()
		defer xs.s.mu.RUnlock()
	}

	query := `SELECT ` + exceptionColumns + ` FROM exception_requests WHERE 1=1`
	var args []any
	if f.ProviderID != "" {
		query += ` AND provider_id = ?`
		args = append(args, string(f.ProviderID))
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := xs.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exception requests: %w", err)
	}
	defer rows.Close()

	var result []*engine.DeadlineExceptionRequest
	for rows.Next() {
		r, err := scanException(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (xs *exceptionStore) SaveException(ctx context.Context, r *engine.DeadlineExceptionRequest) error {
	if !xs.tx {
		xs.s.mu.Lock()
		defer xs.s.mu.Unlock()
	}

	query := `
		INSERT INTO exception_requests (` + exceptionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			provider_id = excluded.provider_id,
			requested_extension_until = excluded.requested_extension_until,
			reason = excluded.reason,
			status = excluded.status,
			reviewed_by = excluded.reviewed_by,
			reviewed_at = excluded.reviewed_at,
			review_notes = excluded.review_notes,
			updated_at = excluded.updated_at
	`

	var reviewedBy sql.NullString
	if r.ReviewedBy != nil {
		reviewedBy = sql.NullString{String: string(*r.ReviewedBy), Valid: true}
	}

	_, err := xs.q.ExecContext(ctx, query,
		string(r.ID),
		string(r.ProviderID),
		formatTime(r.RequestedExtensionUntil),
		r.Reason,
		string(r.Status),
		reviewedBy,
		nullTime(r.ReviewedAt),
		r.ReviewNotes,
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save exception request: %w", err)
	}
	return nil
}

func (xs *exceptionStore) DeleteException(ctx context.Context, id engine.ExceptionID) error {
	if !xs.tx {
		xs.s.mu.Lock()
		defer xs.s.mu.Unlock()
	}

	_, err := xs.q.ExecContext(ctx, `DELETE FROM exception_requests WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete exception request: %w", err)
	}
	return nil
}

func (xs *exceptionStore) WithTx(ctx context.Context, fn func(engine.ExceptionStore) error) error {
	xs.s.mu.Lock()
	defer xs.s.mu.Unlock()

	tx, err := xs.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&exceptionStore{s: xs.s, q: tx, tx: true}); err != nil {
		return err
	}
	return tx.Commit()
}

func scanException(row rowScanner) (*engine.DeadlineExceptionRequest, error) {
	var (
		r                    engine.DeadlineExceptionRequest
		id, providerID       string
		until, status        string
		reviewedBy           sql.NullString
		reviewedAt           sql.NullString
		createdAt, updatedAt string
	)

	err := row.Scan(&id, &providerID, &until, &r.Reason, &status,
		&reviewedBy, &reviewedAt, &r.ReviewNotes, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan exception request: %w", err)
	}

	r.ID = engine.ExceptionID(id)
	r.ProviderID = engine.ProviderID(providerID)
	r.RequestedExtensionUntil = parseTime(until)
	r.Status = engine.ExceptionStatus(status)
	if reviewedBy.Valid {
		v := engine.UserID(reviewedBy.String)
		r.ReviewedBy = &v
	}
	r.ReviewedAt = parseNullTime(reviewedAt)
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}

// =============================================================================
// AUDIT LOG (engine.AuditLog)
// =============================================================================

type auditStore struct {
	s *Store
}

func (as *auditStore) Append(ctx context.Context, rec engine.AuditRecord) error {
	as.s.mu.Lock()
	defer as.s.mu.Unlock()

	_, err := as.s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, target_id, actor_id, action, note, at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TargetID, rec.ActorID, string(rec.Action), rec.Note, formatTime(rec.At))
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

func (as *auditStore) ByTarget(ctx context.Context, targetID string) ([]engine.AuditRecord, error) {
	as.s.mu.RLock()
	defer as.s.mu.RUnlock()

	rows, err := as.s.db.QueryContext(ctx,
		`SELECT id, target_id, actor_id, action, note, at
		 FROM audit_log WHERE target_id = ? ORDER BY at ASC`, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var result []engine.AuditRecord
	for rows.Next() {
		var rec engine.AuditRecord
		var action, at string
		if err := rows.Scan(&rec.ID, &rec.TargetID, &rec.ActorID, &action, &rec.Note, &at); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		rec.Action = engine.AuditAction(action)
		rec.At = parseTime(at)
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Helper functions

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func formatDay(t time.Time) string { return t.Format("2006-01-02") }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseDay(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isOpenEntryConflict(err error) bool {
	return err != nil &&
		strings.Contains(err.Error(), "UNIQUE constraint failed") &&
		strings.Contains(err.Error(), "time_entries")
}
