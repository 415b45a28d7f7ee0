// Package store persists a queryable history of clause analyses.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Analysis is one recorded scan: what was requested and how much was found.
// Document text is never stored, only its length.
type Analysis struct {
	ID            string
	CreatedAt     time.Time
	Categories    []string
	TotalFound    int
	Returned      int
	Truncated     bool
	DocumentBytes int
	Duration      time.Duration
}

// AnalysisStore records analyses in a local sqlite database
type AnalysisStore struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) the analysis store at dbPath
func New(dbPath string) (*AnalysisStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, err
	}

	s := &AnalysisStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *AnalysisStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		categories TEXT NOT NULL,
		total_found INTEGER NOT NULL,
		returned INTEGER NOT NULL,
		truncated INTEGER NOT NULL,
		document_bytes INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize analysis schema: %w", err)
	}

	return nil
}

// Record inserts an analysis. A missing ID or timestamp is filled in.
func (s *AnalysisStore) Record(a *Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	categoriesJSON, err := json.Marshal(a.Categories)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		"INSERT INTO analyses (id, created_at, categories, total_found, returned, truncated, document_bytes, duration_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		a.ID, a.CreatedAt, string(categoriesJSON), a.TotalFound, a.Returned,
		boolToInt(a.Truncated), a.DocumentBytes, a.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record analysis: %w", err)
	}

	return nil
}

// Get returns a single analysis by id
func (s *AnalysisStore) Get(id string) (*Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(
		"SELECT id, created_at, categories, total_found, returned, truncated, document_bytes, duration_ms FROM analyses WHERE id = ?",
		id,
	)

	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis %q not found", id)
	}
	return a, err
}

// Recent returns the most recent analyses, newest first
func (s *AnalysisStore) Recent(limit int) ([]*Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		"SELECT id, created_at, categories, total_found, returned, truncated, document_bytes, duration_ms FROM analyses ORDER BY created_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []*Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}

	return analyses, rows.Err()
}

// CountByCategory returns how many recorded analyses requested each category
func (s *AnalysisStore) CountByCategory() (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT categories FROM analyses")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var categoriesJSON string
		if err := rows.Scan(&categoriesJSON); err != nil {
			return nil, err
		}

		var categories []string
		if err := json.Unmarshal([]byte(categoriesJSON), &categories); err != nil {
			continue
		}
		for _, c := range categories {
			counts[c]++
		}
	}

	return counts, rows.Err()
}

// Close closes the underlying database
func (s *AnalysisStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAnalysis(row rowScanner) (*Analysis, error) {
	a := &Analysis{}
	var categoriesJSON string
	var truncated int
	var durationMS int64

	err := row.Scan(&a.ID, &a.CreatedAt, &categoriesJSON, &a.TotalFound,
		&a.Returned, &truncated, &a.DocumentBytes, &durationMS)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(categoriesJSON), &a.Categories); err != nil {
		a.Categories = []string{}
	}
	a.Truncated = truncated != 0
	a.Duration = time.Duration(durationMS) * time.Millisecond

	return a, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
