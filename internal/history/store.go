// Package history persists completed resolutions to SQLite so past queries
// and their outcomes survive restarts.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/phenolab/ontosift/internal/funnel"
	"github.com/phenolab/ontosift/internal/models"
)

// Record is one stored resolution.
type Record struct {
	ID          string         `json:"id"`
	Query       string         `json:"query"`
	QuerySent   string         `json:"query_sent"`
	Outcome     models.Outcome `json:"outcome"`
	ResultCount int            `json:"result_count"`
	TopID       string         `json:"top_id,omitempty"`
	ElapsedMS   int64          `json:"elapsed_ms"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Store is a SQLite-backed resolution log.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the history database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS resolutions (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		query_sent TEXT NOT NULL,
		outcome TEXT NOT NULL,
		result_count INTEGER NOT NULL,
		top_id TEXT,
		elapsed_ms INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_resolutions_created_at ON resolutions(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Record stores one completed resolution and returns its assigned ID.
func (s *Store) Record(ctx context.Context, res *funnel.Resolution) (string, error) {
	id := uuid.New().String()
	topID := ""
	if len(res.Results) > 0 {
		topID = res.Results[0].ID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resolutions (id, query, query_sent, outcome, result_count, top_id, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, res.Query, res.QuerySent, string(res.Outcome), len(res.Results), topID, res.ElapsedMS)
	if err != nil {
		return "", fmt.Errorf("failed to record resolution: %w", err)
	}
	return id, nil
}

// Recent returns the newest resolutions, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query, query_sent, outcome, result_count, COALESCE(top_id, ''), elapsed_ms, created_at
		FROM resolutions ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var r Record
		var outcome string
		if err := rows.Scan(&r.ID, &r.Query, &r.QuerySent, &outcome, &r.ResultCount, &r.TopID, &r.ElapsedMS, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resolution: %w", err)
		}
		r.Outcome = models.Outcome(outcome)
		records = append(records, &r)
	}
	return records, rows.Err()
}

// Count returns the total number of stored resolutions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM resolutions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count resolutions: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
