package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gearflip/internal/config"
	"gearflip/internal/game"
	"gearflip/internal/leaderboard"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const maxBatch = 50

type Server struct {
	cfg   config.APIConfig
	log   *slog.Logger
	board leaderboard.Store
	mux   *chi.Mux
	now   func() time.Time
}

// New builds the HTTP server. board may be nil, in which case every
// leaderboard route answers "server not configured".
func New(cfg config.APIConfig, logger *slog.Logger, board leaderboard.Store) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:   cfg,
		log:   logger,
		board: board,
		mux:   chi.NewRouter(),
		now:   time.Now,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	timeout := s.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "configured": s.board != nil})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/scores", s.handleSubmitScore)
		r.Post("/scores/batch", s.handleSubmitBatch)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/challenge", s.handleChallenge)
	})
}

func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	if s.board == nil {
		writeDomainError(w, leaderboard.ErrNotConfigured)
		return
	}
	var in game.Submission
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.SubmissionKey == "" {
		in.SubmissionKey = idempotencyKey(r)
	}
	out, err := s.board.Submit(r.Context(), in)
	if err != nil {
		s.log.Warn("score rejected", "request_id", middleware.GetReqID(r.Context()), "err", err)
		writeDomainError(w, err)
		return
	}
	s.log.Info("score accepted", "id", out.ID, "eligible", out.Eligible, "score", in.Score)
	writeJSON(w, http.StatusCreated, out)
}

type batchResult struct {
	SubmissionKey string               `json:"submission_key"`
	Receipt       *leaderboard.Receipt `json:"receipt,omitempty"`
	Error         string               `json:"error,omitempty"`
}

// handleSubmitBatch replays queued submissions. Each item succeeds or fails
// on its own.
func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	if s.board == nil {
		writeDomainError(w, leaderboard.ErrNotConfigured)
		return
	}
	var in struct {
		Submissions []game.Submission `json:"submissions"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(in.Submissions) > maxBatch {
		writeError(w, http.StatusBadRequest, "too many submissions in one batch")
		return
	}
	results := make([]batchResult, 0, len(in.Submissions))
	for _, sub := range in.Submissions {
		if sub.SubmissionKey == "" {
			sub.SubmissionKey = uuid.NewString()
		}
		res := batchResult{SubmissionKey: sub.SubmissionKey}
		out, err := s.board.Submit(r.Context(), sub)
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Receipt = &out
		}
		results = append(results, res)
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.board == nil {
		writeDomainError(w, leaderboard.ErrNotConfigured)
		return
	}
	limit := s.cfg.LeaderboardLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	out, err := s.board.Top(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": out})
}

// handleChallenge returns the published seed for a date, or the derived one
// when the worker has not published it yet.
func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	date := s.now().UTC()
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = d
	}
	if s.board == nil {
		writeJSON(w, http.StatusOK, map[string]any{"challenge": leaderboard.ChallengeSeed(date), "published": false})
		return
	}
	c, err := s.board.Challenge(r.Context(), date)
	if errors.Is(err, leaderboard.ErrNoChallenge) {
		writeJSON(w, http.StatusOK, map[string]any{"challenge": leaderboard.ChallengeSeed(date), "published": false})
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"challenge": c, "published": true})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, leaderboard.ErrInvalidSubmission):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, leaderboard.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, leaderboard.ErrNoChallenge):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "db error")
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func idempotencyKey(r *http.Request) string {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" {
		return key
	}
	return uuid.NewString()
}
