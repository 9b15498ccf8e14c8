package game

import (
	"encoding/json"
	"errors"
	"strings"

	"gearflip/internal/catalog"
	"gearflip/internal/duel"
	"gearflip/internal/market"
)

// MarshalJSON writes the pending encounter as a {kind, data} envelope.
func (g GameState) MarshalJSON() ([]byte, error) {
	type plain GameState
	env, err := encodeEncounter(g.PendingEncounter)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		plain
		PendingEncounter *encounterEnvelope `json:"pending_encounter,omitempty"`
	}{plain: plain(g), PendingEncounter: env})
}

// UnmarshalJSON decodes onto the receiver's current values, so fields missing
// from data keep whatever defaults the receiver already had. An unknown
// encounter kind is dropped.
func (g *GameState) UnmarshalJSON(data []byte) error {
	type plain GameState
	aux := struct {
		*plain
		PendingEncounter *encounterEnvelope `json:"pending_encounter"`
	}{plain: (*plain)(g)}
	err := json.Unmarshal(data, &aux)
	if aux.PendingEncounter != nil {
		if enc, derr := decodeEncounter(*aux.PendingEncounter); derr == nil {
			g.PendingEncounter = enc
		}
	}
	return err
}

// Restore rebuilds a run from a saved record of any vintage. The record is
// merged field by field onto a fresh default state; fields of the wrong type
// are skipped. Unreadable input yields a fresh run. The bool reports whether
// anything was restored.
func Restore(data []byte) (GameState, bool) {
	base := NewGame("", StandardRunLength, catalog.DefaultLocation)
	if len(strings.TrimSpace(string(data))) == 0 {
		return base, false
	}
	st := base.clone()
	st.Messages = nil
	st.Market = nil
	st.PerformanceMarket = nil
	st.RunSeed = ""
	if err := json.Unmarshal(data, &st); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return base, false
		}
	}
	if strings.TrimSpace(st.RunSeed) == "" {
		st.RunSeed = base.RunSeed
	}
	return normalize(st), true
}

// normalize enforces the invariants a saved record might have lost.
func normalize(st GameState) GameState {
	st.TotalDays = ClampRunLength(st.TotalDays)
	st.Day = clampInt(st.Day, 1, st.TotalDays)
	if _, ok := catalog.LookupLocation(st.Location); !ok {
		st.Location = catalog.DefaultLocation
	}
	if st.Cash < 0 {
		st.Cash = 0
	}
	st.BagTier = clampInt(st.BagTier, 0, catalog.MaxBagTier)
	st.Capacity = catalog.BagCapacity(st.BagTier)
	st.Reputation = clampInt(st.Reputation, 0, MaxReputation)
	if st.TradeDeclines < 0 {
		st.TradeDeclines = 0
	}

	items := make([]OwnedItem, 0, len(st.Inventory))
	for _, it := range st.Inventory {
		if it.ID == "" || it.Name == "" {
			continue
		}
		if it.AuthStatus == "" {
			it.AuthStatus = AuthNone
		}
		if it.AuthMultiplier <= 0 {
			it.AuthMultiplier = 1
		}
		if it.LuthierStatus == "" {
			it.LuthierStatus = LuthierNone
		}
		if it.AuctionStatus == "" {
			it.AuctionStatus = AuctionNone
		}
		if it.Heat < 0 {
			it.Heat = 0
		}
		items = append(items, it)
	}
	st.Inventory = items

	if st.InspectedMarketIDs == nil {
		st.InspectedMarketIDs = []string{}
	}
	if st.RecentFlipDays == nil {
		st.RecentFlipDays = []int{}
	}
	if st.OwnedPerformance == nil {
		st.OwnedPerformance = []string{}
	}
	if st.PendingDuel != nil {
		if _, ok := duel.LookupChallenger(st.PendingDuel.ChallengerID); !ok || st.PendingDuel.Resolved() {
			st.PendingDuel = nil
		}
	}
	if st.PendingDuel != nil && st.PendingEncounter != nil {
		st.PendingEncounter = nil
	}
	if !st.IsGameOver {
		if len(st.Market) == 0 {
			st.stockMarket()
		}
		if len(st.PerformanceMarket) == 0 {
			st.PerformanceMarket = market.Boosts(st.Day, st.Location, st.RunSeed)
		}
	}
	return st
}
