package leaderboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"gearflip/internal/game"
)

type stored struct {
	id  string
	sub game.Submission
	at  time.Time
}

// MemoryStore is an in-process Store for tests and offline play.
type MemoryStore struct {
	mu         sync.Mutex
	entries    []stored
	byKey      map[string]Receipt
	challenges map[string]Challenge
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byKey: map[string]Receipt{}, challenges: map[string]Challenge{}, now: time.Now}
}

func (m *MemoryStore) Submit(_ context.Context, sub game.Submission) (Receipt, error) {
	sub, err := Validate(sub)
	if err != nil {
		return Receipt{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub.SubmissionKey != "" {
		if r, ok := m.byKey[sub.SubmissionKey]; ok {
			return r, nil
		}
	}
	r := Receipt{ID: uuid.NewString(), Eligible: sub.Ranked()}
	m.entries = append(m.entries, stored{id: r.ID, sub: sub, at: m.now().UTC()})
	if sub.SubmissionKey != "" {
		m.byKey[sub.SubmissionKey] = r
	}
	return r, nil
}

func (m *MemoryStore) Top(_ context.Context, limit int) ([]Entry, error) {
	limit = clampLimit(limit)
	m.mu.Lock()
	ranked := make([]stored, 0, len(m.entries))
	for _, e := range m.entries {
		if e.sub.Ranked() {
			ranked = append(ranked, e)
		}
	}
	m.mu.Unlock()

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].sub.Score != ranked[j].sub.Score {
			return ranked[i].sub.Score > ranked[j].sub.Score
		}
		return ranked[i].at.Before(ranked[j].at)
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]Entry, 0, len(ranked))
	for i, e := range ranked {
		out = append(out, entryFor(i+1, e.sub, e.at))
	}
	return out, nil
}

func (m *MemoryStore) Challenge(_ context.Context, date time.Time) (Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.challenges[date.UTC().Format(time.DateOnly)]
	if !ok {
		return Challenge{}, ErrNoChallenge
	}
	return c, nil
}

func (m *MemoryStore) PublishChallenge(_ context.Context, c Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.challenges[c.Date] = c
	return nil
}

func entryFor(rank int, sub game.Submission, at time.Time) Entry {
	e := Entry{
		Rank:        rank,
		DisplayName: sub.DisplayName,
		Score:       sub.Score,
		RunSeed:     sub.RunSeed,
		Cash:        sub.Cash,
		Reputation:  sub.Reputation,
		SubmittedAt: at,
	}
	if sub.BestFlip != nil {
		e.BestFlip = sub.BestFlip.Name
	}
	return e
}
