package journal

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists journal entries to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite journal.
// The path should be a file path (e.g., "./lifecycle.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS lifecycle_log (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			handle TEXT NOT NULL DEFAULT '',
			chain_id TEXT NOT NULL DEFAULT '',
			event_type TEXT NOT NULL DEFAULT '',
			stage INTEGER NOT NULL DEFAULT -1,
			detail TEXT NOT NULL DEFAULT '',
			timestamp TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_lifecycle_log_kind
		ON lifecycle_log(kind)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO lifecycle_log (kind, handle, chain_id, event_type, stage, detail, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, string(e.Kind), e.Handle, e.ChainID, e.EventType, e.Stage, e.Detail,
		ts.UTC().Format(time.RFC3339Nano))

	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	query := `
		SELECT kind, handle, chain_id, event_type, stage, detail, timestamp
		FROM lifecycle_log ORDER BY seq`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		// Newest entries, returned oldest-first.
		query = `
			SELECT kind, handle, chain_id, event_type, stage, detail, timestamp
			FROM (
				SELECT * FROM lifecycle_log ORDER BY seq DESC LIMIT ?
			) ORDER BY seq`
		rows, err = s.db.Query(query, limit)
	} else {
		rows, err = s.db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind, timestamp string
		if err := rows.Scan(&kind, &e.Handle, &e.ChainID, &e.EventType, &e.Stage, &e.Detail, &timestamp); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Kind = Kind(kind)
		if ts, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
			e.Timestamp = ts
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", err)
	}
	return entries, nil
}

// CountByKind implements Store.
func (s *SQLiteStore) CountByKind() (map[Kind]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT kind, COUNT(*) FROM lifecycle_log GROUP BY kind
	`)
	if err != nil {
		return nil, fmt.Errorf("count journal entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[Kind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan journal count: %w", err)
		}
		counts[Kind(kind)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal counts: %w", err)
	}
	return counts, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
