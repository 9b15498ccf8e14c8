package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gearflip/internal/game"
	"gearflip/internal/leaderboard"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// Retryable reports whether err is worth queueing for a later retry: network
// failures and server-side errors are, rejected submissions are not.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return !errors.Is(err, context.Canceled)
}

type BatchResult struct {
	SubmissionKey string               `json:"submission_key"`
	Receipt       *leaderboard.Receipt `json:"receipt,omitempty"`
	Error         string               `json:"error,omitempty"`
}

func (c *Client) SubmitScore(ctx context.Context, sub game.Submission) (leaderboard.Receipt, error) {
	var out leaderboard.Receipt
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/scores", sub, &out, sub.SubmissionKey)
	return out, err
}

func (c *Client) SubmitBatch(ctx context.Context, subs []game.Submission) ([]BatchResult, error) {
	var out struct {
		Results []BatchResult `json:"results"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/scores/batch", map[string]any{
		"submissions": subs,
	}, &out, "")
	return out.Results, err
}

func (c *Client) Leaderboard(ctx context.Context, limit int) ([]leaderboard.Entry, error) {
	path := "/v1/leaderboard"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Rows []leaderboard.Entry `json:"rows"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out, "")
	return out.Rows, err
}

// Challenge fetches the challenge seed for date. The bool reports whether the
// server had published it.
func (c *Client) Challenge(ctx context.Context, date time.Time) (leaderboard.Challenge, bool, error) {
	var out struct {
		Challenge leaderboard.Challenge `json:"challenge"`
		Published bool                  `json:"published"`
	}
	path := "/v1/challenge?date=" + url.QueryEscape(date.UTC().Format(time.DateOnly))
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out, "")
	return out.Challenge, out.Published, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
