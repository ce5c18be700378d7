// Package searchlog records catalog searches in SQLite so that queries
// visitors run without finding an integration can be reviewed later.
package searchlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gnana997/intcat/pkg/catalog"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const (
	defaultMissedLimit = 10
	maxMissedLimit     = 100
)

// Source values for Entry.Source.
const (
	SourceHTTP = "http"
	SourceMCP  = "mcp"
	SourceCLI  = "cli"
)

// Entry is one search as seen by a surface.
type Entry struct {
	Time        time.Time
	Source      string
	Category    string
	Query       string
	ResultCount int
}

// MissedQuery is a normalized query that returned nothing.
type MissedQuery struct {
	Query    string    `json:"query"`
	Searches int       `json:"searches"`
	LastSeen time.Time `json:"last_seen"`
}

// Stats summarizes the log.
type Stats struct {
	Searches        int `json:"searches"`
	ZeroResult      int `json:"zero_result"`
	DistinctQueries int `json:"distinct_queries"`
}

// Now is a replaceable clock for testing.
var Now = func() time.Time { return time.Now() }

// Store is a SQLite-backed search log. Safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the log at path. Use MemoryPath for a throwaway log.
func Open(path string) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("searchlog: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("searchlog: open database: %w", err)
	}
	// One connection: an in-memory database exists per connection, and
	// SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS searches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts INTEGER NOT NULL,
		source TEXT NOT NULL,
		category TEXT NOT NULL,
		query TEXT NOT NULL,
		result_count INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_searches_missed ON searches(result_count, query);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("searchlog: create schema: %w", err)
	}
	return nil
}

// Record stores e. Entries whose query is blank after normalization are
// browsing, not searching, and are skipped.
func (s *Store) Record(ctx context.Context, e Entry) error {
	query := catalog.NormalizeQuery(e.Query)
	if query == "" {
		return nil
	}
	ts := e.Time
	if ts.IsZero() {
		ts = Now()
	}
	category := e.Category
	if category == "" {
		category = catalog.AllCategory
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO searches (ts, source, category, query, result_count) VALUES (?, ?, ?, ?, ?)`,
		ts.UnixMilli(), e.Source, category, query, e.ResultCount)
	if err != nil {
		return fmt.Errorf("searchlog: record: %w", err)
	}
	return nil
}

// TopMissed returns the most frequent zero-result queries, most searched
// first, then most recent. limit defaults to 10 and is capped at 100.
func (s *Store) TopMissed(ctx context.Context, limit int) ([]MissedQuery, error) {
	if limit <= 0 {
		limit = defaultMissedLimit
	}
	if limit > maxMissedLimit {
		limit = maxMissedLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT query, COUNT(*) AS n, MAX(ts) AS last
		FROM searches
		WHERE result_count = 0
		GROUP BY query
		ORDER BY n DESC, last DESC, query ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("searchlog: query missed: %w", err)
	}
	defer rows.Close()

	result := make([]MissedQuery, 0)
	for rows.Next() {
		var (
			m    MissedQuery
			last int64
		)
		if err := rows.Scan(&m.Query, &m.Searches, &last); err != nil {
			return nil, fmt.Errorf("searchlog: scan missed: %w", err)
		}
		m.LastSeen = time.UnixMilli(last).UTC()
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("searchlog: iterate missed: %w", err)
	}
	return result, nil
}

// Stats returns totals over the whole log.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN result_count = 0 THEN 1 ELSE 0 END), 0),
		       COUNT(DISTINCT query)
		FROM searches`).Scan(&st.Searches, &st.ZeroResult, &st.DistinctQueries)
	if err != nil {
		return Stats{}, fmt.Errorf("searchlog: stats: %w", err)
	}
	return st, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
