// Package history keeps a per-output-directory SQLite ledger of pipeline runs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// FileName is the ledger file inside the state directory.
const FileName = "history.db"

// ErrNoRuns is returned by Last when nothing has been recorded.
var ErrNoRuns = errors.New("no runs recorded")

// Run is one pipeline invocation.
type Run struct {
	ID         int64     `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Experiment int       `json:"experiment"`
	ModelDir   string    `json:"model_dir"`
	Reason     string    `json:"reason,omitempty"`
	Recompile  bool      `json:"recompile"`
	Generated  bool      `json:"generated"`
	Changed    []string  `json:"changed,omitempty"`
	State      string    `json:"state"`
	Error      string    `json:"error,omitempty"`
}

// Duration is the wall time of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the run finished without error.
func (r Run) Succeeded() bool {
	return r.Error == ""
}

// Ledger is an open history database.
type Ledger struct {
	db   *sql.DB
	path string
}

// Open opens or creates the ledger in stateDir.
func Open(ctx context.Context, stateDir string) (*Ledger, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	path := filepath.Join(stateDir, FileName)
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Ledger{db: db, path: path}, nil
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.path
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record stores run and returns its assigned ID.
func (l *Ledger) Record(ctx context.Context, run Run) (int64, error) {
	var changed any
	if len(run.Changed) > 0 {
		data, err := json.Marshal(run.Changed)
		if err != nil {
			return 0, fmt.Errorf("failed to encode changed files: %w", err)
		}
		changed = string(data)
	}

	res, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (started_at, finished_at, experiment, model_dir, reason,
		                  recompile, generated, changed, state, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Experiment, run.ModelDir, nullString(run.Reason),
		run.Recompile, run.Generated, changed, run.State, nullString(run.Error))
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", err)
	}
	return res.LastInsertId()
}

// List returns up to limit runs, newest first. A limit <= 0 returns every run.
func (l *Ledger) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, finished_at, experiment, model_dir, reason,
	                 recompile, generated, changed, state, error
	          FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Last returns the most recent run, or ErrNoRuns.
func (l *Ledger) Last(ctx context.Context) (Run, error) {
	runs, err := l.List(ctx, 1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrNoRuns
	}
	return runs[0], nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run                 Run
		started, finished   string
		reason, changed, ee sql.NullString
	)
	if err := rows.Scan(&run.ID, &started, &finished, &run.Experiment, &run.ModelDir, &reason,
		&run.Recompile, &run.Generated, &changed, &run.State, &ee); err != nil {
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}

	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, fmt.Errorf("run %d: bad started_at: %w", run.ID, err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return Run{}, fmt.Errorf("run %d: bad finished_at: %w", run.ID, err)
	}
	run.Reason = reason.String
	run.Error = ee.String
	if changed.Valid && changed.String != "" {
		if err := json.Unmarshal([]byte(changed.String), &run.Changed); err != nil {
			return Run{}, fmt.Errorf("run %d: bad changed list: %w", run.ID, err)
		}
	}
	return run, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
