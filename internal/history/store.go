package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"glacia/internal/config"
)

// Store manages history persistence backed by SQLite. One record store is
// keyed by id with a non-unique secondary index on owner_key; retrieval is
// always scoped to a single owner.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

var (
	sharedOnce  sync.Once
	sharedStore *Store
	sharedErr   error
)

// Shared returns the process-wide store handle, opening it on first use.
// Concurrent first calls all resolve to the same handle.
func Shared(cfg *config.Config) (*Store, error) {
	sharedOnce.Do(func() {
		sharedStore, sharedErr = Open(cfg)
	})
	return sharedStore, sharedErr
}

// Open initializes or connects to the history database and applies
// migrations. The database directory is locked against other processes for
// the lifetime of the handle; contention reports ErrStorageUnavailable.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("%w: ensure directories: %w", ErrStorageUnavailable, err)
	}

	dbPath := filepath.Join(cfg.Paths.StateDir, "history.db")
	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: acquire lock: %w", ErrStorageUnavailable, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: history database is in use by another process", ErrStorageUnavailable)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("%w: open sqlite db: %w", ErrStorageUnavailable, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("%w: apply pragma %q: %w", ErrStorageUnavailable, pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	return store, nil
}

// Close closes the underlying database connection and releases the lock.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
	return err
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Put upserts a record by id: insert when absent, overwrite when present.
// Repeating a put with the same id and payload is a no-op in effect.
func (s *Store) Put(ctx context.Context, ownerKey string, record *Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrWriteFailed)
	}
	if strings.TrimSpace(ownerKey) == "" {
		return fmt.Errorf("%w: owner key required", ErrWriteFailed)
	}
	if err := record.Generated.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	var sourceBase64, sourceMime any
	if record.SourceImage != nil {
		sourceBase64 = record.SourceImage.Base64
		sourceMime = record.SourceImage.MimeType
	}
	var mediaBase64, mediaMime any
	if record.Generated.Image != nil {
		mediaBase64 = record.Generated.Image.Base64
		mediaMime = record.Generated.Image.MimeType
	}

	err := s.execWithRetry(ctx,
		`INSERT INTO history_records (
            id, owner_key, timestamp, prompt,
            source_base64, source_mime, media_type, media_base64, media_mime
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            owner_key = excluded.owner_key,
            timestamp = excluded.timestamp,
            prompt = excluded.prompt,
            source_base64 = excluded.source_base64,
            source_mime = excluded.source_mime,
            media_type = excluded.media_type,
            media_base64 = excluded.media_base64,
            media_mime = excluded.media_mime`,
		record.ID,
		ownerKey,
		record.Timestamp,
		record.Prompt,
		sourceBase64,
		sourceMime,
		string(record.Generated.Type),
		mediaBase64,
		mediaMime,
	)
	if err != nil {
		return fmt.Errorf("%w: put record %s: %w", ErrWriteFailed, record.ID, err)
	}
	return nil
}

// ListByOwner returns all records for an owner, newest first by timestamp.
// An owner with no records yields an empty slice, never an error.
func (s *Store) ListByOwner(ctx context.Context, ownerKey string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM history_records WHERE owner_key = ? ORDER BY timestamp DESC, id DESC`,
		ownerKey,
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := make([]*Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// GetByID fetches a record by identifier, returning nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM history_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// DeleteByID removes the record if present. Deleting a nonexistent id is
// not an error.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	if err := s.execWithRetry(ctx, `DELETE FROM history_records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: delete record %s: %w", ErrDeleteFailed, id, err)
	}
	return nil
}

// CountByOwner returns the number of records an owner holds.
func (s *Store) CountByOwner(ctx context.Context, ownerKey string) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM history_records WHERE owner_key = ?`, ownerKey)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

const recordColumns = "id, owner_key, timestamp, prompt, source_base64, source_mime, media_type, media_base64, media_mime"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id           string
		owner        string
		timestamp    int64
		prompt       string
		sourceBase64 sql.NullString
		sourceMime   sql.NullString
		mediaType    string
		mediaBase64  sql.NullString
		mediaMime    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&owner,
		&timestamp,
		&prompt,
		&sourceBase64,
		&sourceMime,
		&mediaType,
		&mediaBase64,
		&mediaMime,
	); err != nil {
		return nil, err
	}

	record := &Record{
		ID:        id,
		OwnerKey:  owner,
		Timestamp: timestamp,
		Prompt:    prompt,
	}
	if sourceBase64.Valid && sourceMime.Valid {
		record.SourceImage = &ImagePayload{Base64: sourceBase64.String, MimeType: sourceMime.String}
	}
	parsed, ok := ParseMediaType(mediaType)
	if !ok {
		return nil, fmt.Errorf("record %s has unknown media type %q", id, mediaType)
	}
	record.Generated = GeneratedMedia{Type: parsed}
	if parsed == MediaTypeImage && mediaBase64.Valid && mediaMime.Valid {
		record.Generated.Image = &ImagePayload{Base64: mediaBase64.String, MimeType: mediaMime.String}
	}
	return record, nil
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

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
