package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mnemosyne/internal/config"
)

// Store manages content persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const contentColumns = "id, image, description, timestamp, deviceid"

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

// Open initializes or connects to the content database at the configured path.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.Server.DatabasePath)
}

// OpenPath initializes or connects to the content database at an explicit
// filesystem path.
func OpenPath(dbPath string) (*Store, error) {
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

	store := &Store{db: db, path: filepath.Clean(dbPath)}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Insert stores a capture and returns its assigned identifier. Blank
// timestamps get the current wall clock time.
func (s *Store) Insert(ctx context.Context, content Content) (int64, error) {
	timestamp := strings.TrimSpace(content.Timestamp)
	if timestamp == "" {
		timestamp = FormatTimestamp(time.Now())
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO content (image, description, timestamp, deviceid) VALUES (?, ?, ?, ?)`,
		content.Image,
		content.Description,
		timestamp,
		content.DeviceID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert content: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// GetByID fetches a single capture. Returns nil when the row does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*Content, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+contentColumns+` FROM content WHERE id = ?`, id)
	content, err := scanContent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	return content, nil
}

// ListAll returns every capture ordered by identifier.
func (s *Store) ListAll(ctx context.Context) ([]Content, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+contentColumns+` FROM content ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectContent(rows)
}

// ListRange returns captures whose timestamp falls inside the inclusive
// [start, end] interval, ordered by timestamp then identifier. Timestamps in
// the stored layout compare correctly as strings.
func (s *Store) ListRange(ctx context.Context, start, end string) ([]Content, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+contentColumns+` FROM content
         WHERE timestamp >= ? AND timestamp <= ?
         ORDER BY timestamp, id`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("list content range: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectContent(rows)
}

// ListEntries returns the timestamp and description of every capture in the
// inclusive [start, end] interval, ordered chronologically.
func (s *Store) ListEntries(ctx context.Context, start, end string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT timestamp, description FROM content
         WHERE timestamp >= ? AND timestamp <= ?
         ORDER BY timestamp, id`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.Timestamp, &entry.Description); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// DeleteByIDs removes the captures with the given identifiers and reports how
// many rows were removed. Unknown identifiers are ignored.
func (s *Store) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := s.execWithRetry(ctx,
		`DELETE FROM content WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete content: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

// Count returns the number of stored captures.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT COUNT(1) FROM content").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count content: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (*Content, error) {
	var content Content
	if err := row.Scan(
		&content.ID,
		&content.Image,
		&content.Description,
		&content.Timestamp,
		&content.DeviceID,
	); err != nil {
		return nil, err
	}
	return &content, nil
}

func collectContent(rows *sql.Rows) ([]Content, error) {
	var items []Content
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		items = append(items, *content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content: %w", err)
	}
	return items, nil
}
