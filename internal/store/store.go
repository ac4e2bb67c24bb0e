// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store keeps a SQLite ledger of command runs and of the cited-by
// targets already queried, so a bulk pull interrupted by the weekly quota
// resumes where it stopped.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusStopped = "quota_exhausted"
	StatusFailed  = "failed"
)

// Cited-by target statuses.
const (
	CitedHit  = "hit"
	CitedMiss = "miss"
)

const (
	timeFormat     = time.RFC3339
	defaultRunList = 20
)

// Run is one row of the runs table.
type Run struct {
	ID          string         `db:"id"`
	Command     string         `db:"command"`
	Input       string         `db:"input"`
	Output      string         `db:"output"`
	Status      string         `db:"status"`
	Records     int            `db:"records"`
	Failures    int            `db:"failures"`
	Unprocessed int            `db:"unprocessed"`
	Quota       sql.NullInt64  `db:"quota"`
	StartedAt   string         `db:"started_at"`
	FinishedAt  sql.NullString `db:"finished_at"`
}

// Outcome is what a finished run reports.
type Outcome struct {
	Status      string
	Records     int
	Failures    int
	Unprocessed int
	// Quota is the last remaining quota seen, or negative when unknown.
	Quota int
}

// Store is the ledger database.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open opens or creates the ledger at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			input TEXT NOT NULL DEFAULT '',
			output TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			records INTEGER NOT NULL DEFAULT 0,
			failures INTEGER NOT NULL DEFAULT 0,
			unprocessed INTEGER NOT NULL DEFAULT 0,
			quota INTEGER,
			started_at TEXT NOT NULL,
			finished_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS cited_progress (
			input TEXT NOT NULL,
			eid TEXT NOT NULL,
			run_id TEXT NOT NULL REFERENCES runs(id),
			status TEXT NOT NULL,
			done_at TEXT NOT NULL,
			PRIMARY KEY (input, eid)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// StartRun records a new running command and returns its id.
func (s *Store) StartRun(ctx context.Context, command, input, output string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, input, output, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, command, input, output, StatusRunning, s.now().UTC().Format(timeFormat))
	if err != nil {
		return "", fmt.Errorf("starting run: %w", err)
	}
	return id, nil
}

// FinishRun stores the outcome of run id.
func (s *Store) FinishRun(ctx context.Context, id string, o Outcome) error {
	quota := sql.NullInt64{Int64: int64(o.Quota), Valid: o.Quota >= 0}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, records = ?, failures = ?, unprocessed = ?, quota = ?, finished_at = ?
		 WHERE id = ?`,
		o.Status, o.Records, o.Failures, o.Unprocessed, quota, s.now().UTC().Format(timeFormat), id)
	if err != nil {
		return fmt.Errorf("finishing run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finishing run: no run %q", id)
	}
	return nil
}

// Runs lists the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = defaultRunList
	}
	var runs []Run
	err := s.db.SelectContext(ctx, &runs,
		`SELECT id, command, input, output, status, records, failures, unprocessed, quota, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// MarkCited records eids of input as queried by run with the given status.
func (s *Store) MarkCited(ctx context.Context, runID, input, status string, eids []string) error {
	if len(eids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("marking cited-by progress: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx,
		`INSERT OR REPLACE INTO cited_progress (input, eid, run_id, status, done_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("marking cited-by progress: %w", err)
	}
	defer stmt.Close()

	now := s.now().UTC().Format(timeFormat)
	for _, eid := range eids {
		if _, err := stmt.ExecContext(ctx, input, eid, runID, status, now); err != nil {
			return fmt.Errorf("marking cited-by progress for %s: %w", eid, err)
		}
	}
	return tx.Commit()
}

// CitedDone returns the eids of input already queried by earlier runs.
func (s *Store) CitedDone(ctx context.Context, input string) (map[string]bool, error) {
	var eids []string
	if err := s.db.SelectContext(ctx, &eids, `SELECT eid FROM cited_progress WHERE input = ?`, input); err != nil {
		return nil, fmt.Errorf("loading cited-by progress: %w", err)
	}
	done := make(map[string]bool, len(eids))
	for _, e := range eids {
		done[e] = true
	}
	return done, nil
}
