package matchdb

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

	"robosoccer/internal/shared/types"
)

// Index is a SQLite store of finished matches and their gameplay events.
type Index struct {
	db *sql.DB
}

// Open creates or opens the index at path. ":memory:" is accepted for tests.
func Open(path string) (*Index, error) {
	if path == "" {
		return nil, errors.New("matchdb: empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("matchdb: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("matchdb: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("matchdb: pragmas: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("matchdb: schema: %w", err)
	}
	return &Index{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS matches (
			match_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			score_left INTEGER NOT NULL,
			score_right INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			sim_seconds REAL NOT NULL,
			shots INTEGER NOT NULL,
			passes INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id TEXT NOT NULL,
			type TEXT NOT NULL,
			side TEXT NOT NULL,
			robot_id INTEGER NOT NULL,
			sim_time REAL NOT NULL,
			occurred_ms INTEGER NOT NULL,
			payload_json TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_match ON events(match_id, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (x *Index) Close() error { return x.db.Close() }

// RecordMatch inserts or replaces the summary of a match.
func (x *Index) RecordMatch(ctx context.Context, m types.MatchSummary) error {
	_, err := x.db.ExecContext(ctx, `INSERT OR REPLACE INTO matches
		(match_id, seed, score_left, score_right, ticks, sim_seconds, shots, passes, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.MatchID, m.Seed, m.ScoreLeft, m.ScoreRight, int64(m.Ticks), m.SimSeconds, m.Shots, m.Passes,
		m.StartedAt.UTC().Format(time.RFC3339Nano), m.EndedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("matchdb: record match %s: %w", m.MatchID, err)
	}
	return nil
}

// RecordEvents appends events of matchID in one transaction.
func (x *Index) RecordEvents(ctx context.Context, matchID string, events []types.GameplayEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("matchdb: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO events
		(match_id, type, side, robot_id, sim_time, occurred_ms) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("matchdb: prepare: %w", err)
	}
	defer stmt.Close()
	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, matchID, e.Type, e.Side, e.RobotID, e.SimTime, e.OccurredMS); err != nil {
			return fmt.Errorf("matchdb: insert event: %w", err)
		}
	}
	return tx.Commit()
}

// RecordTelemetry stores an externally posted event with its payload.
func (x *Index) RecordTelemetry(ctx context.Context, ev types.TelemetryEvent) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("matchdb: marshal payload: %w", err)
	}
	_, err = x.db.ExecContext(ctx, `INSERT INTO events
		(match_id, type, side, robot_id, sim_time, occurred_ms, payload_json) VALUES (?, ?, ?, ?, 0, ?, ?)`,
		ev.MatchID, ev.EventType, ev.Side, ev.RobotID, ev.Timestamp, string(payload))
	if err != nil {
		return fmt.Errorf("matchdb: record telemetry: %w", err)
	}
	return nil
}

// ListMatches returns up to limit matches, most recently ended first.
func (x *Index) ListMatches(ctx context.Context, limit int) ([]types.MatchSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := x.db.QueryContext(ctx, `SELECT match_id, seed, score_left, score_right, ticks, sim_seconds,
		shots, passes, started_at, ended_at FROM matches ORDER BY ended_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("matchdb: list matches: %w", err)
	}
	defer rows.Close()

	var out []types.MatchSummary
	for rows.Next() {
		var (
			m              types.MatchSummary
			ticks          int64
			started, ended string
		)
		if err := rows.Scan(&m.MatchID, &m.Seed, &m.ScoreLeft, &m.ScoreRight, &ticks, &m.SimSeconds,
			&m.Shots, &m.Passes, &started, &ended); err != nil {
			return nil, fmt.Errorf("matchdb: scan match: %w", err)
		}
		m.Ticks = uint64(ticks)
		m.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		m.EndedAt, _ = time.Parse(time.RFC3339Nano, ended)
		out = append(out, m)
	}
	return out, rows.Err()
}

// MatchEvents returns the events of matchID in insertion order.
func (x *Index) MatchEvents(ctx context.Context, matchID string, limit int) ([]types.GameplayEvent, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := x.db.QueryContext(ctx, `SELECT type, side, robot_id, sim_time, occurred_ms FROM events
		WHERE match_id = ? ORDER BY seq LIMIT ?`, matchID, limit)
	if err != nil {
		return nil, fmt.Errorf("matchdb: match events: %w", err)
	}
	defer rows.Close()

	out := make([]types.GameplayEvent, 0)
	for rows.Next() {
		var e types.GameplayEvent
		if err := rows.Scan(&e.Type, &e.Side, &e.RobotID, &e.SimTime, &e.OccurredMS); err != nil {
			return nil, fmt.Errorf("matchdb: scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// EventCounts totals stored events by type.
func (x *Index) EventCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := x.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM events GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("matchdb: event counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			typ string
			n   int64
		)
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("matchdb: scan count: %w", err)
		}
		out[typ] = n
	}
	return out, rows.Err()
}
