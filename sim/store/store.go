// Package store archives completed simulation runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/chainreact/chainreact-sim/sim"
)

// ErrNotFound is returned by GetRun for unknown ids.
var ErrNotFound = errors.New("run not found")

// Run is one archived simulation.
type Run struct {
	ID        string                 `json:"simulation_id"`
	CreatedAt time.Time              `json:"created_at"`
	Config    sim.RunConfig          `json:"agent_config"`
	Summary   sim.RunSummary         `json:"summary"`
	History   map[string]sim.History `json:"full_history"`
	Events    []sim.Event            `json:"events,omitempty"`
}

// RunInfo is the listing view of a run.
type RunInfo struct {
	ID        string `db:"id" json:"simulation_id"`
	CreatedAt string `db:"created_at" json:"created_at"`
	Weeks     int    `db:"weeks" json:"weeks"`
	TotalCost int    `db:"total_cost" json:"total_cost"`
}

type runRow struct {
	RunInfo
	ConfigJSON  string `db:"config_json"`
	SummaryJSON string `db:"summary_json"`
	HistoryJSON string `db:"history_json"`
	EventsJSON  string `db:"events_json"`
}

// DB wraps a SQLite connection holding the run archive.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates the archive at path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows one writer; serialize through a single connection.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		weeks INTEGER NOT NULL,
		total_cost INTEGER NOT NULL,
		config_json TEXT NOT NULL,
		summary_json TEXT NOT NULL,
		history_json TEXT NOT NULL,
		events_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun inserts or replaces a run.
func (db *DB) SaveRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("save run: empty id")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	row := runRow{
		RunInfo: RunInfo{
			ID:        run.ID,
			CreatedAt: run.CreatedAt.UTC().Format(time.RFC3339Nano),
			Weeks:     run.Summary.Weeks,
			TotalCost: run.Summary.TotalCost(),
		},
	}
	var err error
	if row.ConfigJSON, err = marshal(run.Config); err != nil {
		return fmt.Errorf("save run %s: config: %w", run.ID, err)
	}
	if row.SummaryJSON, err = marshal(run.Summary); err != nil {
		return fmt.Errorf("save run %s: summary: %w", run.ID, err)
	}
	if row.HistoryJSON, err = marshal(run.History); err != nil {
		return fmt.Errorf("save run %s: history: %w", run.ID, err)
	}
	if row.EventsJSON, err = marshal(run.Events); err != nil {
		return fmt.Errorf("save run %s: events: %w", run.ID, err)
	}

	_, err = db.conn.NamedExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, created_at, weeks, total_cost, config_json, summary_json, history_json, events_json)
		VALUES (:id, :created_at, :weeks, :total_cost, :config_json, :summary_json, :history_json, :events_json)`, row)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun loads a run by id.
func (db *DB) GetRun(ctx context.Context, id string) (*Run, error) {
	var row runRow
	err := db.conn.GetContext(ctx, &row, `SELECT * FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}

	run := &Run{ID: row.ID}
	if run.CreatedAt, err = time.Parse(time.RFC3339Nano, row.CreatedAt); err != nil {
		return nil, fmt.Errorf("get run %s: created_at: %w", id, err)
	}
	if err := json.Unmarshal([]byte(row.ConfigJSON), &run.Config); err != nil {
		return nil, fmt.Errorf("get run %s: config: %w", id, err)
	}
	if err := json.Unmarshal([]byte(row.SummaryJSON), &run.Summary); err != nil {
		return nil, fmt.Errorf("get run %s: summary: %w", id, err)
	}
	if err := json.Unmarshal([]byte(row.HistoryJSON), &run.History); err != nil {
		return nil, fmt.Errorf("get run %s: history: %w", id, err)
	}
	if err := json.Unmarshal([]byte(row.EventsJSON), &run.Events); err != nil {
		return nil, fmt.Errorf("get run %s: events: %w", id, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first, at most limit of them.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []RunInfo
	err := db.conn.SelectContext(ctx, &runs,
		`SELECT id, created_at, weeks, total_cost FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func marshal(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
