package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gearflip/internal/game"
)

type PGStore struct {
	db  *pgxpool.Pool
	log *slog.Logger
}

func NewPGStore(db *pgxpool.Pool, logger *slog.Logger) *PGStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PGStore{db: db, log: logger}
}

// EnsureSchema creates the leaderboard tables if they are missing.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE SCHEMA IF NOT EXISTS gearflip`,
		`CREATE TABLE IF NOT EXISTS gearflip.scores (
			id                   UUID PRIMARY KEY,
			submission_key       TEXT UNIQUE,
			display_name         TEXT NOT NULL,
			score                BIGINT NOT NULL,
			run_seed             TEXT NOT NULL,
			day                  INT NOT NULL,
			total_days           INT NOT NULL,
			completed            BOOLEAN NOT NULL,
			eligible             BOOLEAN NOT NULL,
			cash                 BIGINT NOT NULL,
			reputation           INT NOT NULL,
			inventory_slots_used INT NOT NULL,
			inventory_capacity   INT NOT NULL,
			best_flip            JSONB,
			rarest_sold          JSONB,
			email                TEXT,
			email_opt_in         BOOLEAN NOT NULL DEFAULT false,
			submitted_at         TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_ranked ON gearflip.scores (score DESC, submitted_at) WHERE eligible`,
		`CREATE TABLE IF NOT EXISTS gearflip.challenge_seeds (
			challenge_date DATE PRIMARY KEY,
			seed           TEXT NOT NULL,
			published_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func nullableText(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func (s *PGStore) Submit(ctx context.Context, sub game.Submission) (Receipt, error) {
	sub, err := Validate(sub)
	if err != nil {
		return Receipt{}, err
	}
	var best, rarest []byte
	if sub.BestFlip != nil {
		if best, err = json.Marshal(sub.BestFlip); err != nil {
			return Receipt{}, err
		}
	}
	if sub.RarestSold != nil {
		if rarest, err = json.Marshal(sub.RarestSold); err != nil {
			return Receipt{}, err
		}
	}

	r := Receipt{ID: uuid.NewString(), Eligible: sub.Ranked()}
	err = s.db.QueryRow(ctx, `
		INSERT INTO gearflip.scores (
			id, submission_key, display_name, score, run_seed, day, total_days, completed, eligible,
			cash, reputation, inventory_slots_used, inventory_capacity, best_flip, rarest_sold, email, email_opt_in
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (submission_key) DO NOTHING
		RETURNING id::text, eligible
	`, r.ID, nullableText(sub.SubmissionKey), sub.DisplayName, sub.Score, sub.RunSeed, sub.Day, sub.TotalDays,
		sub.Completed, r.Eligible, sub.Cash, sub.Reputation, sub.InventorySlotsUsed, sub.InventoryCapacity,
		best, rarest, nullableText(sub.Email), sub.EmailOptIn,
	).Scan(&r.ID, &r.Eligible)
	if errors.Is(err, pgx.ErrNoRows) {
		err = s.db.QueryRow(ctx, `
			SELECT id::text, eligible FROM gearflip.scores WHERE submission_key = $1
		`, sub.SubmissionKey).Scan(&r.ID, &r.Eligible)
		if err == nil {
			s.log.Info("duplicate submission replayed", "submission_key", sub.SubmissionKey)
		}
	}
	if err != nil {
		return Receipt{}, fmt.Errorf("insert score: %w", err)
	}
	return r, nil
}

func (s *PGStore) Top(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT display_name, score, run_seed, cash, reputation,
		       COALESCE(best_flip->>'name', ''), submitted_at
		FROM gearflip.scores
		WHERE eligible
		ORDER BY score DESC, submitted_at ASC
		LIMIT $1
	`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	rank := 1
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.DisplayName, &e.Score, &e.RunSeed, &e.Cash, &e.Reputation, &e.BestFlip, &e.SubmittedAt); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PGStore) Challenge(ctx context.Context, date time.Time) (Challenge, error) {
	day := date.UTC().Format(time.DateOnly)
	c := Challenge{Date: day}
	err := s.db.QueryRow(ctx, `
		SELECT seed FROM gearflip.challenge_seeds WHERE challenge_date = $1::date
	`, day).Scan(&c.Seed)
	if errors.Is(err, pgx.ErrNoRows) {
		return Challenge{}, ErrNoChallenge
	}
	if err != nil {
		return Challenge{}, err
	}
	return c, nil
}

func (s *PGStore) PublishChallenge(ctx context.Context, c Challenge) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO gearflip.challenge_seeds (challenge_date, seed)
		VALUES ($1::date, $2)
		ON CONFLICT (challenge_date) DO NOTHING
	`, c.Date, c.Seed)
	if err != nil {
		return fmt.Errorf("publish challenge: %w", err)
	}
	return nil
}
