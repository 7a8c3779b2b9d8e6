// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/freqlog/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

const schemaVersion = 1

var (
	// ErrNewerSchema is returned when the database was written by a newer release.
	ErrNewerSchema = errors.New("database schema is newer than supported")
	// ErrSamePath is returned when a merge is asked to read and write the same file.
	ErrSamePath = errors.New("database paths must be distinct")
	// ErrNoSchema is returned when a read-only source has never been initialized.
	ErrNoSchema = errors.New("database has no freqlog schema")
)

// Store is the persistence gateway for word, chord and banlist data.
type Store struct {
	db *sql.DB
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// openReadOnly opens an existing database for reading without migrating it.
func openReadOnly(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.checkVersion(ctx); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on version mismatch.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

func (s *Store) checkVersion(ctx context.Context) error {
	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	switch {
	case version > schemaVersion:
		return fmt.Errorf("%w: found %d, supported %d", ErrNewerSchema, version, schemaVersion)
	case version == 0:
		return ErrNoSchema
	}
	return nil
}

func dsn(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SchemaVersion reports the schema version recorded in the database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func (s *Store) migrate() error {
	version, err := s.SchemaVersion(context.Background())
	if err != nil {
		return err
	}
	if version > schemaVersion {
		return fmt.Errorf("%w: found %d, supported %d", ErrNewerSchema, version, schemaVersion)
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS freqlog (
			word TEXT PRIMARY KEY,
			word_lower TEXT NOT NULL,
			word_first TEXT NOT NULL,
			frequency INTEGER NOT NULL,
			last_used TEXT NOT NULL,
			average_speed_ns INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chordlog (
			chord TEXT PRIMARY KEY,
			chord_lower TEXT NOT NULL,
			chord_first TEXT NOT NULL,
			frequency INTEGER NOT NULL,
			last_used TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS banlist (
			mode INTEGER NOT NULL,
			key TEXT NOT NULL,
			word TEXT NOT NULL,
			date_added TEXT NOT NULL,
			PRIMARY KEY (mode, key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_freqlog_word_lower ON freqlog(word_lower);`,
		`CREATE INDEX IF NOT EXISTS idx_freqlog_word_first ON freqlog(word_first);`,
		`CREATE INDEX IF NOT EXISTS idx_chordlog_chord_lower ON chordlog(chord_lower);`,
		`CREATE INDEX IF NOT EXISTS idx_chordlog_chord_first ON chordlog(chord_first);`,
		fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// foldColumn names the precomputed column holding base folded under mode.
func foldColumn(base string, mode model.CaseMode) string {
	switch mode {
	case model.Insensitive:
		return base + "_lower"
	case model.FirstChar:
		return base + "_first"
	default:
		return base
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}
