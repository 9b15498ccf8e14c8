package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gearflip/internal/config"
	"gearflip/internal/game"
	"gearflip/internal/leaderboard"
)

type brokenBoard struct{}

func (brokenBoard) Submit(context.Context, game.Submission) (leaderboard.Receipt, error) {
	return leaderboard.Receipt{}, errors.New("connection refused")
}
func (brokenBoard) Top(context.Context, int) ([]leaderboard.Entry, error) {
	return nil, errors.New("connection refused")
}
func (brokenBoard) Challenge(context.Context, time.Time) (leaderboard.Challenge, error) {
	return leaderboard.Challenge{}, errors.New("connection refused")
}
func (brokenBoard) PublishChallenge(context.Context, leaderboard.Challenge) error { return nil }

func newTestServer(board leaderboard.Store) *httptest.Server {
	s := New(config.APIConfig{LeaderboardLimit: 50}, nil, board)
	return httptest.NewServer(s.Handler())
}

func finishedRun(name string, score int) game.Submission {
	return game.Submission{DisplayName: name, Score: score, RunSeed: "s", Day: 21, TotalDays: 21, Completed: true, Cash: score, InventoryCapacity: 8}
}

func post(t *testing.T, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(nil)
	defer ts.Close()
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var body map[string]any
	decode(t, resp, &body)
	if resp.StatusCode != http.StatusOK || body["ok"] != true || body["configured"] != false {
		t.Fatalf("status=%d body=%v", resp.StatusCode, body)
	}
}

func TestSubmitAndRank(t *testing.T) {
	ts := newTestServer(leaderboard.NewMemoryStore())
	defer ts.Close()

	resp := post(t, ts.URL+"/v1/scores", finishedRun("Slash", 4000), map[string]string{"Idempotency-Key": "k1"})
	var receipt leaderboard.Receipt
	decode(t, resp, &receipt)
	if resp.StatusCode != http.StatusCreated || !receipt.Eligible || receipt.ID == "" {
		t.Fatalf("status=%d receipt=%+v", resp.StatusCode, receipt)
	}

	resp = post(t, ts.URL+"/v1/scores", finishedRun("Slash", 4000), map[string]string{"Idempotency-Key": "k1"})
	var again leaderboard.Receipt
	decode(t, resp, &again)
	if again.ID != receipt.ID {
		t.Fatalf("idempotent replay created %s", again.ID)
	}

	post(t, ts.URL+"/v1/scores", finishedRun("Angus", 9000), nil).Body.Close()

	lb, err := http.Get(ts.URL + "/v1/leaderboard?limit=5")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var body struct {
		Rows []leaderboard.Entry `json:"rows"`
	}
	decode(t, lb, &body)
	if len(body.Rows) != 2 || body.Rows[0].DisplayName != "Angus" || body.Rows[1].Rank != 2 {
		t.Fatalf("rows %+v", body.Rows)
	}
}

func TestSubmitValidation(t *testing.T) {
	ts := newTestServer(leaderboard.NewMemoryStore())
	defer ts.Close()

	bad := finishedRun("", 10)
	resp := post(t, ts.URL+"/v1/scores", bad, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", resp.StatusCode)
	}

	resp = post(t, ts.URL+"/v1/scores", map[string]any{"display_name": "x", "mystery": 1}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown field status %d", resp.StatusCode)
	}

	lb, _ := http.Get(ts.URL + "/v1/leaderboard?limit=zero")
	lb.Body.Close()
	if lb.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad limit status %d", lb.StatusCode)
	}
}

func TestBoundaryErrors(t *testing.T) {
	tests := []struct {
		name   string
		board  leaderboard.Store
		status int
		msg    string
	}{
		{"not configured", nil, http.StatusServiceUnavailable, "server not configured"},
		{"db down", brokenBoard{}, http.StatusInternalServerError, "db error"},
	}
	for _, tc := range tests {
		ts := newTestServer(tc.board)
		resp := post(t, ts.URL+"/v1/scores", finishedRun("Slash", 1), nil)
		var body map[string]string
		decode(t, resp, &body)
		ts.Close()
		if resp.StatusCode != tc.status || body["error"] != tc.msg {
			t.Fatalf("%s: status=%d body=%v", tc.name, resp.StatusCode, body)
		}
	}
}

func TestBatchSubmit(t *testing.T) {
	ts := newTestServer(leaderboard.NewMemoryStore())
	defer ts.Close()
	ok := finishedRun("Slash", 100)
	ok.SubmissionKey = "q-1"
	resp := post(t, ts.URL+"/v1/scores/batch", map[string]any{"submissions": []game.Submission{ok, finishedRun("", 5)}}, nil)
	var body struct {
		Results []batchResult `json:"results"`
	}
	decode(t, resp, &body)
	if len(body.Results) != 2 {
		t.Fatalf("results %+v", body.Results)
	}
	if body.Results[0].Receipt == nil || body.Results[0].SubmissionKey != "q-1" {
		t.Fatalf("first result %+v", body.Results[0])
	}
	if body.Results[1].Error == "" || body.Results[1].Receipt != nil {
		t.Fatalf("second result %+v", body.Results[1])
	}
}

func TestChallenge(t *testing.T) {
	board := leaderboard.NewMemoryStore()
	ts := newTestServer(board)
	defer ts.Close()

	day := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	var body struct {
		Challenge leaderboard.Challenge `json:"challenge"`
		Published bool                  `json:"published"`
	}
	resp, _ := http.Get(ts.URL + "/v1/challenge?date=2026-10-18")
	decode(t, resp, &body)
	if body.Published || body.Challenge != leaderboard.ChallengeSeed(day) {
		t.Fatalf("derived challenge %+v", body)
	}

	_ = board.PublishChallenge(context.Background(), leaderboard.Challenge{Date: "2026-10-18", Seed: "custom"})
	resp, _ = http.Get(ts.URL + "/v1/challenge?date=2026-10-18")
	decode(t, resp, &body)
	if !body.Published || body.Challenge.Seed != "custom" {
		t.Fatalf("published challenge %+v", body)
	}

	bad, _ := http.Get(ts.URL + "/v1/challenge?date=18/10/2026")
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", bad.StatusCode)
	}
}
