package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"bidsbuild/internal/fileutil"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users must delete the database afterwards.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match
// the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store persists conversion records in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run-log database at dbPath, creating
// parent directories as needed.
func Open(dbPath string) (*Store, error) {
	if err := fileutil.EnsureDir(filepath.Dir(dbPath)); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete the database to rebuild)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Start records a pending conversion step. Reattempting the same step
// within one invocation resets its status to pending.
func (s *Store) Start(ctx context.Context, invocationID, subject, session string, dataType DataType) (*Record, error) {
	now := time.Now().UTC()
	stamp := now.Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx, `
		INSERT INTO conversions (invocation_id, subject, session, data_type, status, detail, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, '', ?, ?)
		ON CONFLICT (invocation_id, subject, session, data_type)
		DO UPDATE SET status = excluded.status, detail = '', updated_at = excluded.updated_at`,
		invocationID, subject, session, string(dataType), string(StatusPending), stamp, stamp)
	if err != nil {
		return nil, fmt.Errorf("start conversion record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("conversion record id: %w", err)
	}
	return &Record{
		ID:           id,
		InvocationID: invocationID,
		Subject:      subject,
		Session:      session,
		DataType:     dataType,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Finish updates a record with its terminal status and detail message.
func (s *Store) Finish(ctx context.Context, rec *Record, status Status, detail string) error {
	if rec == nil {
		return errors.New("nil record")
	}
	now := time.Now().UTC()
	_, err := s.execWithRetry(ctx, `
		UPDATE conversions SET status = ?, detail = ?, updated_at = ?
		WHERE invocation_id = ? AND subject = ? AND session = ? AND data_type = ?`,
		string(status), detail, now.Format(time.RFC3339Nano),
		rec.InvocationID, rec.Subject, rec.Session, string(rec.DataType))
	if err != nil {
		return fmt.Errorf("finish conversion record: %w", err)
	}
	rec.Status = status
	rec.Detail = detail
	rec.UpdatedAt = now
	return nil
}

// List returns records matching the filter, newest invocation first then
// subject/session/datatype order within it.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Record, error) {
	ctx = ensureContext(ctx)
	query := `SELECT id, invocation_id, subject, session, data_type, status, detail, created_at, updated_at
		FROM conversions`
	var (
		clauses []string
		args    []any
	)
	if filter.InvocationID != "" {
		clauses = append(clauses, "invocation_id = ?")
		args = append(args, filter.InvocationID)
	}
	if filter.Subject != "" {
		clauses = append(clauses, "subject = ?")
		args = append(args, filter.Subject)
	}
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, subject, session, data_type"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversion records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LatestInvocation returns the invocation id of the most recent record, or
// empty when the log has none.
func (s *Store) LatestInvocation(ctx context.Context) (string, error) {
	ctx = ensureContext(ctx)
	var id string
	err := s.db.QueryRowContext(ctx,
		"SELECT invocation_id FROM conversions ORDER BY created_at DESC, id DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest invocation: %w", err)
	}
	return id, nil
}

// Summary counts records per status for one invocation.
func (s *Store) Summary(ctx context.Context, invocationID string) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(1) FROM conversions WHERE invocation_id = ? GROUP BY status", invocationID)
	if err != nil {
		return nil, fmt.Errorf("summarize invocation: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[Status(status)] = n
	}
	return counts, rows.Err()
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	var (
		rec      Record
		dataType string
		status   string
		created  string
		updated  string
	)
	if err := rows.Scan(&rec.ID, &rec.InvocationID, &rec.Subject, &rec.Session,
		&dataType, &status, &rec.Detail, &created, &updated); err != nil {
		return nil, fmt.Errorf("scan conversion record: %w", err)
	}
	rec.DataType = DataType(dataType)
	rec.Status = Status(status)
	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &rec, nil
}
