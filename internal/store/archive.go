package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/logscrub/internal/record"
)

// DBFileName is the name of the database file inside the database directory.
const DBFileName = "logscrub.db"

// Archive provides SQLite-based storage for captured error records.
type Archive struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Archive behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates an Archive in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Archive, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	a := &Archive{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := a.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return a, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Path returns the database file path.
func (a *Archive) Path() string {
	return a.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (a *Archive) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fingerprint TEXT NOT NULL UNIQUE,
		name TEXT,
		level INTEGER NOT NULL,
		msg TEXT,
		record_json TEXT NOT NULL,
		source TEXT,
		occurrences INTEGER NOT NULL DEFAULT 1,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_seen DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_errors_level ON errors(level);
	CREATE INDEX IF NOT EXISTS idx_errors_last_seen ON errors(last_seen);
	`

	_, err := a.db.ExecContext(context.Background(), schema)
	return err
}

// Entry is an archived error record.
type Entry struct {
	ID          int64
	Fingerprint string
	Name        string
	Level       int64
	Message     string
	Record      *record.Mapping
	Source      string
	Occurrences int
	FirstSeen   time.Time
	LastSeen    time.Time
}

// Fingerprint returns the hex SHA3-256 digest of the canonical JSON
// encoding of rec. Records with the same fields in the same order share a
// fingerprint.
func Fingerprint(rec *record.Mapping) string {
	sum := sha3.Sum256(record.AppendJSON(nil, rec))
	return hex.EncodeToString(sum[:])
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const upsertQuery = `
	INSERT INTO errors (fingerprint, name, level, msg, record_json, source)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(fingerprint) DO UPDATE SET
		occurrences = occurrences + 1,
		source = excluded.source,
		last_seen = CURRENT_TIMESTAMP
	`

func save(ctx context.Context, ex execer, source string, rec *record.Mapping) (string, error) {
	if rec == nil {
		return "", errors.New("nil record")
	}
	fp := Fingerprint(rec)
	level, _ := record.LevelOf(rec)
	name := ""
	if v, ok := rec.Get(record.KeyName); ok {
		if t, ok := v.(record.Text); ok {
			name = string(t)
		}
	}

	_, err := ex.ExecContext(ctx, upsertQuery,
		fp,
		name,
		level,
		record.Message(rec),
		string(record.AppendJSON(nil, rec)),
		source,
	)
	if err != nil {
		return "", fmt.Errorf("failed to save error record: %w", err)
	}
	return fp, nil
}

// Save stores rec, or bumps the occurrence count of an identical record.
// It returns the record's fingerprint.
func (a *Archive) Save(ctx context.Context, source string, rec *record.Mapping) (string, error) {
	return save(ctx, a.db, source, rec)
}

// SaveAll stores recs in one transaction and returns how many were saved.
func (a *Archive) SaveAll(ctx context.Context, source string, recs []*record.Mapping) (int, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	for i, rec := range recs {
		if _, err := save(ctx, tx, source, rec); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(recs), nil
}

const selectColumns = `
	SELECT id, fingerprint, name, level, msg, record_json, source, occurrences, first_seen, last_seen
	FROM errors
	`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var (
		e                   Entry
		name, msg, source   sql.NullString
		recordJSON          string
		firstSeen, lastSeen string
	)
	if err := s.Scan(&e.ID, &e.Fingerprint, &name, &e.Level, &msg, &recordJSON, &source,
		&e.Occurrences, &firstSeen, &lastSeen); err != nil {
		return nil, err
	}
	e.Name = name.String
	e.Message = msg.String
	e.Source = source.String
	e.FirstSeen = parseTimestamp(firstSeen)
	e.LastSeen = parseTimestamp(lastSeen)

	rec, err := record.DecodeRecord([]byte(recordJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored record %d: %w", e.ID, err)
	}
	e.Record = rec
	return &e, nil
}

// Get retrieves an entry by fingerprint. It returns nil without error when
// no entry matches.
func (a *Archive) Get(ctx context.Context, fingerprint string) (*Entry, error) {
	row := a.db.QueryRowContext(ctx, selectColumns+"WHERE fingerprint = ?", fingerprint)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get error record: %w", err)
	}
	return e, nil
}

// ListOptions filters List.
type ListOptions struct {
	// MinLevel skips entries below this level.
	MinLevel int64

	// Source restricts entries to one input name.
	Source string

	// Limit caps the number of entries. Zero means no limit.
	Limit int
}

// List returns entries, most recently seen first.
func (a *Archive) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	query := selectColumns + "WHERE level >= ?"
	args := []any{opts.MinLevel}
	if opts.Source != "" {
		query += " AND source = ?"
		args = append(args, opts.Source)
	}
	query += " ORDER BY last_seen DESC, id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list error records: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan error record: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Count returns the number of distinct archived records.
func (a *Archive) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM errors").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count error records: %w", err)
	}
	return n, nil
}

// Purge deletes entries not seen within maxAge and returns how many were removed.
func (a *Archive) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	modifier := fmt.Sprintf("-%d seconds", int(maxAge.Seconds()))
	res, err := a.db.ExecContext(ctx, "DELETE FROM errors WHERE last_seen < datetime('now', ?)", modifier)
	if err != nil {
		return 0, fmt.Errorf("failed to purge error records: %w", err)
	}
	return res.RowsAffected()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
