package cli

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gearflip/internal/api"
	"gearflip/internal/config"
	"gearflip/internal/game"
	"gearflip/internal/leaderboard"
)

func finishedRun(name string, score int) game.Submission {
	return game.Submission{DisplayName: name, Score: score, RunSeed: "s", Day: 21, TotalDays: 21, Completed: true, Cash: score, InventoryCapacity: 8}
}

func newTestClient(t *testing.T, board leaderboard.Store) *Client {
	t.Helper()
	srv := api.New(config.APIConfig{LeaderboardLimit: 50}, nil, board)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL + "/")
}

func TestClientSubmitAndLeaderboard(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, leaderboard.NewMemoryStore())

	sub := finishedRun("Slash", 4000)
	sub.SubmissionKey = "run-1"
	r, err := c.SubmitScore(ctx, sub)
	if err != nil || !r.Eligible {
		t.Fatalf("submit: %+v %v", r, err)
	}
	again, err := c.SubmitScore(ctx, sub)
	if err != nil || again.ID != r.ID {
		t.Fatalf("replay: %+v %v", again, err)
	}
	if _, err := c.SubmitScore(ctx, finishedRun("Angus", 9000)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	rows, err := c.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(rows) != 2 || rows[0].DisplayName != "Angus" || rows[1].Rank != 2 {
		t.Fatalf("rows %+v", rows)
	}
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()

	_, err := newTestClient(t, leaderboard.NewMemoryStore()).SubmitScore(ctx, finishedRun("", 1))
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if Retryable(err) {
		t.Fatalf("rejected submission should not be retried")
	}

	_, err = newTestClient(t, nil).SubmitScore(ctx, finishedRun("Slash", 1))
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusServiceUnavailable || apiErr.Message != "server not configured" {
		t.Fatalf("expected 503, got %v", err)
	}
	if !Retryable(err) {
		t.Fatalf("unconfigured server should be retried later")
	}

	dead := NewClient("http://127.0.0.1:1")
	dead.HTTP.Timeout = time.Second
	if _, err := dead.Leaderboard(ctx, 5); err == nil || !Retryable(err) {
		t.Fatalf("network failure should be retryable, got %v", err)
	}
}

func TestClientBatchAndChallenge(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, leaderboard.NewMemoryStore())

	ok := finishedRun("Slash", 100)
	ok.SubmissionKey = "q-1"
	results, err := c.SubmitBatch(ctx, []game.Submission{ok, finishedRun("", 1)})
	if err != nil || len(results) != 2 {
		t.Fatalf("batch: %+v %v", results, err)
	}
	if results[0].Receipt == nil || results[0].SubmissionKey != "q-1" || results[1].Error == "" {
		t.Fatalf("results %+v", results)
	}

	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	ch, published, err := c.Challenge(ctx, day)
	if err != nil || published || ch != leaderboard.ChallengeSeed(day) {
		t.Fatalf("challenge %+v published=%v err=%v", ch, published, err)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	t.Setenv("GEARFLIP_HOME", t.TempDir())

	p, err := LoadProfile()
	if err != nil || p != (Profile{}) {
		t.Fatalf("empty profile: %+v %v", p, err)
	}
	if err := SaveProfile(Profile{DisplayName: "  Slash ", Email: "s@example.com", EmailOptIn: true}); err != nil {
		t.Fatalf("save: %v", err)
	}
	p, err = LoadProfile()
	if err != nil || p.DisplayName != "Slash" || !p.EmailOptIn {
		t.Fatalf("loaded %+v %v", p, err)
	}
	if err := ClearProfile(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if p, _ := LoadProfile(); p.DisplayName != "" {
		t.Fatalf("profile survived clear")
	}
}
