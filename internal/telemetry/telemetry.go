// Package telemetry records gameplay events. Emitting never fails from the
// caller's point of view: storage errors are logged and dropped.
package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type Props map[string]any

type Emitter interface {
	Emit(name string, props Props)
	Close() error
}

// Noop is used when telemetry is switched off.
type Noop struct{}

func (Noop) Emit(string, Props) {}
func (Noop) Close() error       { return nil }

// LogEmitter writes each event as a structured log line.
type LogEmitter struct {
	logger *slog.Logger
}

func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger}
}

func (e *LogEmitter) Emit(name string, props Props) {
	args := make([]any, 0, 2+2*len(props))
	args = append(args, "event", name)
	for k, v := range props {
		args = append(args, k, v)
	}
	e.logger.Info("telemetry", args...)
}

func (e *LogEmitter) Close() error { return nil }

type Event struct {
	ID    int64
	At    time.Time
	Name  string
	Props Props
}

// SQLiteEmitter appends events to a local events table.
type SQLiteEmitter struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *slog.Logger
	now    func() time.Time
}

func NewSQLiteEmitter(dbPath string, logger *slog.Logger) (*SQLiteEmitter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create telemetry directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	e := &SQLiteEmitter{db: db, logger: logger, now: time.Now}
	if err := e.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return e, nil
}

func (e *SQLiteEmitter) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			name       TEXT NOT NULL,
			properties TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_ts ON events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_events_name ON events(name)`,
	}
	for _, s := range stmts {
		if _, err := e.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:32], err)
		}
	}
	return nil
}

func (e *SQLiteEmitter) Emit(name string, props Props) {
	if props == nil {
		props = Props{}
	}
	body, err := json.Marshal(props)
	if err != nil {
		e.logger.Warn("telemetry encode failed", "event", name, "err", err)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.db.Exec(`INSERT INTO events (timestamp, name, properties) VALUES (?,?,?)`,
		e.now().UnixMilli(), name, string(body)); err != nil {
		e.logger.Warn("telemetry write failed", "event", name, "err", err)
	}
}

// Recent returns up to limit events, newest first.
func (e *SQLiteEmitter) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := e.db.QueryContext(ctx, `SELECT id, timestamp, name, properties FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var (
			ev  Event
			ts  int64
			raw string
		)
		if err := rows.Scan(&ev.ID, &ts, &ev.Name, &raw); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.At = time.UnixMilli(ts).UTC()
		if err := json.Unmarshal([]byte(raw), &ev.Props); err != nil {
			ev.Props = Props{}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (e *SQLiteEmitter) Close() error {
	return e.db.Close()
}

// New picks an emitter by mode: "off", "log" or "sqlite". An sqlite emitter
// that cannot open falls back to logging.
func New(mode, dbPath string, logger *slog.Logger) Emitter {
	switch mode {
	case "off":
		return Noop{}
	case "sqlite":
		e, err := NewSQLiteEmitter(dbPath, logger)
		if err == nil {
			return e
		}
		if logger != nil {
			logger.Warn("telemetry store unavailable", "path", dbPath, "err", err)
		}
		return NewLogEmitter(logger)
	default:
		return NewLogEmitter(logger)
	}
}
