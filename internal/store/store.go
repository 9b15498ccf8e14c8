// Package store persists runs by save slot. Saved records are plain JSON and
// are always loaded through game.Restore, so older or damaged records still
// yield a playable run.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"gearflip/internal/game"
)

const DefaultSlot = "default"

var (
	ErrSlotNotFound = errors.New("save slot not found")
	ErrInvalidSlot  = errors.New("invalid save slot")
)

// Slot describes a saved run without decoding it.
type Slot struct {
	Name      string    `json:"name"`
	RunSeed   string    `json:"run_seed"`
	Day       int       `json:"day"`
	TotalDays int       `json:"total_days"`
	Score     int       `json:"score"`
	GameOver  bool      `json:"game_over"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Store interface {
	Load(ctx context.Context, slot string) (game.GameState, error)
	Save(ctx context.Context, slot string, st game.GameState) error
	Delete(ctx context.Context, slot string) error
	List(ctx context.Context) ([]Slot, error)
	Close() error
}

func normalizeSlot(slot string) (string, error) {
	slot = strings.ToLower(strings.TrimSpace(slot))
	if slot == "" {
		return DefaultSlot, nil
	}
	if len(slot) > 32 {
		return "", ErrInvalidSlot
	}
	for _, r := range slot {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return "", ErrInvalidSlot
		}
	}
	return slot, nil
}

func slotFor(name string, st game.GameState, now time.Time) Slot {
	return Slot{
		Name:      name,
		RunSeed:   st.RunSeed,
		Day:       st.Day,
		TotalDays: st.TotalDays,
		Score:     st.Score(),
		GameOver:  st.IsGameOver,
		UpdatedAt: now,
	}
}

func restore(logger *slog.Logger, slot string, payload []byte) game.GameState {
	st, ok := game.Restore(payload)
	if !ok {
		logger.Warn("save unreadable, starting fresh", "slot", slot)
	}
	return st
}

// MemoryStore keeps encoded saves in memory. It goes through the same JSON
// path as SQLiteStore.
type MemoryStore struct {
	mu     sync.Mutex
	saves  map[string][]byte
	slots  map[string]Slot
	logger *slog.Logger
}

func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{saves: map[string][]byte{}, slots: map[string]Slot{}, logger: logger}
}

func (m *MemoryStore) Load(_ context.Context, slot string) (game.GameState, error) {
	name, err := normalizeSlot(slot)
	if err != nil {
		return game.GameState{}, err
	}
	m.mu.Lock()
	payload, ok := m.saves[name]
	m.mu.Unlock()
	if !ok {
		return game.GameState{}, ErrSlotNotFound
	}
	return restore(m.logger, name, payload), nil
}

func (m *MemoryStore) Save(_ context.Context, slot string, st game.GameState) error {
	name, err := normalizeSlot(slot)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[name] = payload
	m.slots[name] = slotFor(name, st, time.Now().UTC())
	return nil
}

// Put stores a raw payload, for records written by other versions.
func (m *MemoryStore) Put(slot string, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[slot] = append([]byte(nil), payload...)
	m.slots[slot] = Slot{Name: slot, UpdatedAt: time.Now().UTC()}
}

func (m *MemoryStore) Delete(_ context.Context, slot string) error {
	name, err := normalizeSlot(slot)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.saves[name]; !ok {
		return ErrSlotNotFound
	}
	delete(m.saves, name)
	delete(m.slots, name)
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]Slot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Slot, 0, len(m.slots))
	for _, s := range m.slots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
