package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"gearflip/internal/game"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (or creates) the save database at dbPath and applies any
// pending migrations.
func OpenSQLite(ctx context.Context, dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create save directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	s := &SQLiteStore{db: db, logger: logger}
	if err := s.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("save store opened", "path", dbPath)
	return s, nil
}

func (s *SQLiteStore) applyMigrations(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate schema migrations: %w", err)
	}
	rows.Close()

	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		base := path.Base(file)
		if applied[base] {
			continue
		}
		body, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", base, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, slot string) (game.GameState, error) {
	name, err := normalizeSlot(slot)
	if err != nil {
		return game.GameState{}, err
	}
	var payload string
	err = s.db.QueryRowContext(ctx, "SELECT payload FROM saves WHERE slot = ?", name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return game.GameState{}, ErrSlotNotFound
	}
	if err != nil {
		return game.GameState{}, fmt.Errorf("load save %s: %w", name, err)
	}
	return restore(s.logger, name, []byte(payload)), nil
}

func (s *SQLiteStore) Save(ctx context.Context, slot string, st game.GameState) error {
	name, err := normalizeSlot(slot)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	meta := slotFor(name, st, time.Now().UTC())
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saves (slot, run_seed, day, total_days, score, game_over, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			run_seed = excluded.run_seed,
			day = excluded.day,
			total_days = excluded.total_days,
			score = excluded.score,
			game_over = excluded.game_over,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, meta.Name, meta.RunSeed, meta.Day, meta.TotalDays, meta.Score, meta.GameOver, string(payload), meta.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, slot string) error {
	name, err := normalizeSlot(slot)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM saves WHERE slot = ?", name)
	if err != nil {
		return fmt.Errorf("delete save %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Slot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT slot, run_seed, day, total_days, score, game_over, updated_at
		FROM saves
		ORDER BY slot
	`)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	defer rows.Close()

	out := []Slot{}
	for rows.Next() {
		var sl Slot
		if err := rows.Scan(&sl.Name, &sl.RunSeed, &sl.Day, &sl.TotalDays, &sl.Score, &sl.GameOver, &sl.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan save: %w", err)
		}
		out = append(out, sl)
	}
	return out, rows.Err()
}

// PutRaw writes payload as-is, bypassing encoding.
func (s *SQLiteStore) PutRaw(ctx context.Context, slot string, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO saves (slot, run_seed, day, total_days, score, game_over, payload, updated_at)
		VALUES (?, '', 0, 0, 0, 0, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, slot, string(payload), time.Now().UTC())
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
