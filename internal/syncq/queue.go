package syncq

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"gearflip/internal/cli"
	"gearflip/internal/config"
	"gearflip/internal/game"
)

// batchSize matches the server's per-request cap.
const batchSize = 50

// Entry is a score submission waiting for the leaderboard to come back.
type Entry struct {
	Submission game.Submission `json:"submission"`
	QueuedAt   time.Time       `json:"queued_at"`
	Attempts   int             `json:"attempts"`
	LastError  string          `json:"last_error,omitempty"`
}

type Submitter interface {
	SubmitBatch(ctx context.Context, subs []game.Submission) ([]cli.BatchResult, error)
}

type DrainResult struct {
	Sent      int
	Rejected  int
	Remaining int
}

func queuePath() (string, error) {
	dir, err := config.HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "queue.json"), nil
}

func Load() ([]Entry, error) {
	path, err := queuePath()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []Entry{}, nil
	}
	var out []Entry
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func Save(entries []Entry) error {
	path, err := queuePath()
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// Push queues sub, assigning it a submission key so a replay after a lost
// response cannot create a duplicate row.
func Push(sub game.Submission) (Entry, error) {
	if sub.SubmissionKey == "" {
		sub.SubmissionKey = uuid.NewString()
	}
	entries, err := Load()
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if e.Submission.SubmissionKey == sub.SubmissionKey {
			return e, nil
		}
	}
	e := Entry{Submission: sub, QueuedAt: time.Now().UTC()}
	entries = append(entries, e)
	return e, Save(entries)
}

// Drain replays queued submissions in batches. Accepted and rejected entries
// leave the queue; a retryable failure stops the drain and keeps the rest.
func Drain(ctx context.Context, s Submitter, logger *slog.Logger) (DrainResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := Load()
	if err != nil {
		return DrainResult{}, err
	}
	var res DrainResult
	var keep []Entry
	var drainErr error
	for start := 0; start < len(entries); start += batchSize {
		end := min(start+batchSize, len(entries))
		chunk := entries[start:end]
		if drainErr != nil {
			keep = append(keep, chunk...)
			continue
		}
		subs := make([]game.Submission, len(chunk))
		for i, e := range chunk {
			subs[i] = e.Submission
		}
		results, err := s.SubmitBatch(ctx, subs)
		if err != nil {
			logger.Warn("queue drain failed", "err", err, "pending", len(entries)-start)
			for _, e := range chunk {
				e.Attempts++
				e.LastError = err.Error()
				keep = append(keep, e)
			}
			if cli.Retryable(err) {
				drainErr = err
			}
			continue
		}
		byKey := make(map[string]cli.BatchResult, len(results))
		for _, r := range results {
			byKey[r.SubmissionKey] = r
		}
		for _, e := range chunk {
			r, ok := byKey[e.Submission.SubmissionKey]
			switch {
			case !ok:
				e.Attempts++
				e.LastError = "missing from batch response"
				keep = append(keep, e)
			case r.Receipt != nil:
				res.Sent++
			default:
				logger.Info("queued score rejected", "submission_key", e.Submission.SubmissionKey, "err", r.Error)
				res.Rejected++
			}
		}
	}
	if keep == nil {
		keep = []Entry{}
	}
	res.Remaining = len(keep)
	if err := Save(keep); err != nil {
		return res, err
	}
	return res, drainErr
}
