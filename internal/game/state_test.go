package game

import (
	"encoding/json"
	"testing"

	"gearflip/internal/catalog"
	"gearflip/internal/market"
)

func blankState() GameState {
	return GameState{
		RunSeed:            "flip",
		Day:                1,
		TotalDays:          StandardRunLength,
		Location:           catalog.DefaultLocation,
		Cash:               1000,
		Capacity:           catalog.BagCapacity(0),
		Reputation:         40,
		Inventory:          []OwnedItem{},
		InspectedMarketIDs: []string{},
		RecentFlipDays:     []int{},
		OwnedPerformance:   []string{},
	}
}

func listing(id string, c catalog.Category, base, price int) market.Item {
	return market.Item{
		ID:        id,
		Name:      "Test " + id,
		Category:  c,
		BasePrice: base,
		Price:     price,
		Trend:     market.ClassifyTrend(base, price),
		Rarity:    catalog.RarityCommon,
		Condition: catalog.ConditionGood,
	}
}

func owned(id string, c catalog.Category, base int) OwnedItem {
	return newOwned(listing(id, c, base, base), base, 1, false)
}

func lastMessage(st GameState) Message {
	if len(st.Messages) == 0 {
		return Message{}
	}
	return st.Messages[len(st.Messages)-1]
}

func TestNewGameDefaults(t *testing.T) {
	st := NewGame("seed", 0, "Nowhere")
	if st.Day != 1 || st.TotalDays != StandardRunLength {
		t.Fatalf("day %d/%d", st.Day, st.TotalDays)
	}
	if st.Location != catalog.DefaultLocation {
		t.Fatalf("location %q", st.Location)
	}
	if st.Cash != StartingCash || st.Reputation != StartingReputation || st.Capacity != 8 {
		t.Fatalf("unexpected start %+v", st.Summary())
	}
	if len(st.Market) < market.MinListings || len(st.Market) > market.MaxListings {
		t.Fatalf("market has %d listings", len(st.Market))
	}
	if len(st.PerformanceMarket) != 3 {
		t.Fatalf("performance market has %d boosts", len(st.PerformanceMarket))
	}
	if len(st.Messages) == 0 {
		t.Fatalf("expected opening messages")
	}
}

func TestClampRunLength(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 21}, {3, 7}, {7, 7}, {30, 30}, {90, 90}, {200, 90},
	}
	for _, tc := range tests {
		if got := ClampRunLength(tc.in); got != tc.want {
			t.Fatalf("ClampRunLength(%d)=%d want %d", tc.in, got, tc.want)
		}
	}
}

func TestNewGameSeedReproducesMarket(t *testing.T) {
	a := NewGame("seed", 21, "Downtown Music Row")
	b := NewGame("seed", 21, "Downtown Music Row")
	if len(a.Market) != len(b.Market) {
		t.Fatalf("market sizes differ")
	}
	for i := range a.Market {
		if a.Market[i] != b.Market[i] {
			t.Fatalf("listing %d differs", i)
		}
	}
	if NewGame("", 21, "").RunSeed == "" {
		t.Fatalf("blank seed should be replaced")
	}
}

func TestCloneIsolatesSlices(t *testing.T) {
	st := blankState()
	st.Inventory = append(st.Inventory, owned("a", catalog.CategoryPedal, 100))
	c := st.clone()
	c.Inventory[0].Heat = 99
	c.Inventory = append(c.Inventory, owned("b", catalog.CategoryPedal, 100))
	if st.Inventory[0].Heat == 99 || len(st.Inventory) != 1 {
		t.Fatalf("clone shares inventory with original")
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	st := blankState()
	st.Inventory = append(st.Inventory, owned("a", catalog.CategoryAmp, 700))
	st.PendingEncounter = WorldAuction{Item: listing("w", catalog.CategoryGuitar, 9000, 9000), StartingBid: 5400, PremiumRate: 0.05, MinReputation: 35}
	st.stockMarket()

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, ok := Restore(data)
	if !ok {
		t.Fatalf("restore reported failure")
	}
	if got.RunSeed != "flip" || got.Cash != st.Cash || len(got.Inventory) != 1 {
		t.Fatalf("restored %+v", got.Summary())
	}
	wa, isAuction := got.PendingEncounter.(WorldAuction)
	if !isAuction || wa.StartingBid != 5400 {
		t.Fatalf("pending encounter not restored: %#v", got.PendingEncounter)
	}
	if len(got.Market) != len(st.Market) {
		t.Fatalf("market not restored")
	}
}

func TestRestoreMergesPartialRecord(t *testing.T) {
	got, ok := Restore([]byte(`{"run_seed":"old","cash":5000,"reputation":"high","bag_tier":7,"inventory_capacity":999}`))
	if !ok {
		t.Fatalf("partial record rejected")
	}
	if got.Cash != 5000 {
		t.Fatalf("cash %d", got.Cash)
	}
	if got.Reputation != StartingReputation {
		t.Fatalf("bad-typed reputation should keep default, got %d", got.Reputation)
	}
	if got.BagTier != catalog.MaxBagTier || got.Capacity != catalog.BagCapacity(catalog.MaxBagTier) {
		t.Fatalf("capacity not derived from tier: tier=%d cap=%d", got.BagTier, got.Capacity)
	}
	if len(got.Market) == 0 || got.Inventory == nil {
		t.Fatalf("defaults not filled")
	}
}

func TestRestoreGarbageStartsFresh(t *testing.T) {
	got, ok := Restore([]byte(`{"cash": 12`))
	if ok {
		t.Fatalf("syntax error should not count as restored")
	}
	if got.Cash != StartingCash || got.Day != 1 {
		t.Fatalf("expected fresh run, got %+v", got.Summary())
	}
	if _, ok := Restore(nil); ok {
		t.Fatalf("empty input should not count as restored")
	}
}

func TestRestoreDropsUnknownEncounter(t *testing.T) {
	got, _ := Restore([]byte(`{"run_seed":"x","pending_encounter":{"kind":"alien","data":{}}}`))
	if got.PendingEncounter != nil {
		t.Fatalf("unknown encounter kept: %#v", got.PendingEncounter)
	}
}
