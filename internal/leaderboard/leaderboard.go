// Package leaderboard accepts run submissions, ranks standard runs and
// publishes the daily challenge seed.
package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"gearflip/internal/game"
)

const (
	MaxDisplayName = 24
	DefaultLimit   = 50
	MaxLimit       = 200
)

var (
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrNotConfigured     = errors.New("server not configured")
	ErrNoChallenge       = errors.New("no challenge published for that date")
)

var blockedNameFragments = []string{
	"admin",
	"moderator",
	"support",
	"shit",
	"fuck",
	"bitch",
	"nazi",
}

// Receipt is returned for every accepted submission.
type Receipt struct {
	ID       string `json:"id"`
	Eligible bool   `json:"eligible"`
}

type Entry struct {
	Rank        int       `json:"rank"`
	DisplayName string    `json:"display_name"`
	Score       int       `json:"score"`
	RunSeed     string    `json:"run_seed"`
	Cash        int       `json:"cash"`
	Reputation  int       `json:"reputation"`
	BestFlip    string    `json:"best_flip,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type Challenge struct {
	Date string `json:"date"`
	Seed string `json:"seed"`
}

type Store interface {
	Submit(ctx context.Context, sub game.Submission) (Receipt, error)
	Top(ctx context.Context, limit int) ([]Entry, error)
	Challenge(ctx context.Context, date time.Time) (Challenge, error)
	PublishChallenge(ctx context.Context, c Challenge) error
}

// Validate trims and checks a submission.
func Validate(sub game.Submission) (game.Submission, error) {
	sub.DisplayName = strings.TrimSpace(sub.DisplayName)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.RunSeed = strings.TrimSpace(sub.RunSeed)

	n := utf8.RuneCountInString(sub.DisplayName)
	if n < 1 || n > MaxDisplayName {
		return sub, fmt.Errorf("%w: display name must be 1-%d characters", ErrInvalidSubmission, MaxDisplayName)
	}
	lower := strings.ToLower(sub.DisplayName)
	for _, frag := range blockedNameFragments {
		if strings.Contains(lower, frag) {
			return sub, fmt.Errorf("%w: display name is not allowed", ErrInvalidSubmission)
		}
	}
	if sub.RunSeed == "" {
		return sub, fmt.Errorf("%w: run seed is required", ErrInvalidSubmission)
	}
	if sub.TotalDays < game.MinRunLength || sub.TotalDays > game.MaxRunLength {
		return sub, fmt.Errorf("%w: total days must be %d-%d", ErrInvalidSubmission, game.MinRunLength, game.MaxRunLength)
	}
	if sub.Day < 1 || sub.Day > sub.TotalDays {
		return sub, fmt.Errorf("%w: day out of range", ErrInvalidSubmission)
	}
	if sub.Score < 0 || sub.Cash < 0 {
		return sub, fmt.Errorf("%w: negative score", ErrInvalidSubmission)
	}
	if sub.InventoryCapacity > 0 && sub.InventorySlotsUsed > sub.InventoryCapacity {
		return sub, fmt.Errorf("%w: inventory over capacity", ErrInvalidSubmission)
	}
	if sub.Email != "" && !strings.Contains(sub.Email, "@") {
		return sub, fmt.Errorf("%w: email looks wrong", ErrInvalidSubmission)
	}
	if sub.Email == "" {
		sub.EmailOptIn = false
	}
	return sub, nil
}

var challengeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://gearflip.dev/challenge"))

// ChallengeSeed derives the run seed for a UTC date. Every player gets the
// same seed for the same date.
func ChallengeSeed(date time.Time) Challenge {
	day := date.UTC().Format(time.DateOnly)
	id := uuid.NewSHA1(challengeNamespace, []byte(day))
	return Challenge{Date: day, Seed: "daily-" + strings.ReplaceAll(id.String(), "-", "")[:12]}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
