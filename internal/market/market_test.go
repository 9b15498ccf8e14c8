package market

import (
	"fmt"
	"testing"

	"gearflip/internal/catalog"
)

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(1, "Downtown Music Row", "seed")
	b := Generate(1, "Downtown Music Row", "seed")
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("listing %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGenerateInvariants(t *testing.T) {
	for day := 1; day <= 40; day++ {
		for _, loc := range catalog.Locations {
			seed := fmt.Sprintf("run-%d", day%7)
			items := Generate(day, loc.Name, seed)
			if len(items) < MinListings || len(items) > MaxListings {
				t.Fatalf("day %d %s: %d listings", day, loc.Name, len(items))
			}
			affordable := false
			legendary := 0
			ids := map[string]bool{}
			for _, it := range items {
				if it.Price <= AffordableCap {
					affordable = true
				}
				if it.Rarity == catalog.RarityLegendary {
					legendary++
				}
				if it.Price < PriceFloor {
					t.Fatalf("price below floor: %+v", it)
				}
				if it.Trend != ClassifyTrend(it.BasePrice, it.Price) {
					t.Fatalf("trend mismatch: %+v", it)
				}
				if ids[it.ID] {
					t.Fatalf("duplicate id %s", it.ID)
				}
				ids[it.ID] = true
			}
			if !affordable {
				t.Fatalf("day %d %s: no listing <= %d", day, loc.Name, AffordableCap)
			}
			if legendary > 1 {
				t.Fatalf("day %d %s: %d legendary listings", day, loc.Name, legendary)
			}
		}
	}
}

func TestGenerateDiffersByContext(t *testing.T) {
	a := Generate(1, "Downtown Music Row", "seed")
	b := Generate(2, "Downtown Music Row", "seed")
	if a[0].ID == b[0].ID {
		t.Fatalf("ids should embed the day")
	}
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		base, price int
		want        Trend
	}{
		{100, 107, TrendUp},
		{100, 106, TrendStable},
		{100, 94, TrendStable},
		{100, 93, TrendDown},
		{0, 50, TrendStable},
	}
	for _, tc := range tests {
		if got := ClassifyTrend(tc.base, tc.price); got != tc.want {
			t.Fatalf("base=%d price=%d got %s want %s", tc.base, tc.price, got, tc.want)
		}
	}
}

func TestApplyShiftRepricesOnlyTargets(t *testing.T) {
	items := []Item{
		{ID: "a", Category: catalog.CategoryAmp, BasePrice: 1000, Price: 1000, Trend: TrendStable},
		{ID: "b", Category: catalog.CategoryGuitar, BasePrice: 800, Price: 800, Trend: TrendStable},
		{ID: "c", Category: catalog.CategoryAmp, BasePrice: 500, Price: 500, Trend: TrendStable},
		{ID: "d", Category: catalog.CategoryPedal, BasePrice: 90, Price: 90, Trend: TrendStable},
	}
	sh, ok := LookupShift(ShiftAmpGlut)
	if !ok {
		t.Fatalf("missing shift")
	}
	out := ApplyShift(sh, items, "seed", 3, "Pawn Shop Strip")
	if len(out) != len(items) {
		t.Fatalf("shift changed listing count")
	}
	changed := 0
	for i, it := range out {
		if it.Category != catalog.CategoryAmp {
			if it != items[i] {
				t.Fatalf("non-target repriced: %+v", it)
			}
			continue
		}
		if it.Price != items[i].Price {
			changed++
			lo := int(float64(it.BasePrice)*0.45) - 1
			hi := int(float64(it.BasePrice)*0.80) + 1
			if it.Price < lo || it.Price > hi {
				t.Fatalf("discount out of band: %+v", it)
			}
		}
	}
	if changed < 1 || changed > 2 {
		t.Fatalf("expected 1-2 repriced, got %d", changed)
	}
	if items[0].Price != 1000 {
		t.Fatalf("input slice mutated")
	}
}

func TestApplyShiftNoTargets(t *testing.T) {
	items := []Item{{ID: "a", Category: catalog.CategoryPedal, BasePrice: 90, Price: 90}}
	sh, _ := LookupShift(ShiftTourRush)
	out := ApplyShift(sh, items, "seed", 1, "Online Marketplace")
	if out[0] != items[0] {
		t.Fatalf("unexpected change %+v", out[0])
	}
}

func TestPickShiftDeterministic(t *testing.T) {
	a := PickShift(4, "Online Marketplace", "abc")
	b := PickShift(4, "Online Marketplace", "abc")
	if a.ID != b.ID {
		t.Fatalf("shift differs: %s vs %s", a.ID, b.ID)
	}
}

func TestRecapTieIsSteady(t *testing.T) {
	items := []Item{
		{Category: catalog.CategoryAmp, Trend: TrendUp},
		{Category: catalog.CategoryPedal, Trend: TrendDown},
		{Category: catalog.CategoryPedal, Trend: TrendStable},
	}
	got := Recap("Pawn Shop Strip", items)
	want := "Pawn Shop Strip today: 1 Amp, 2 Pedal; prices steady."
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestBoostsDeterministic(t *testing.T) {
	a := Boosts(2, "Online Marketplace", "seed")
	b := Boosts(2, "Online Marketplace", "seed")
	if len(a) != 3 || len(b) != 3 {
		t.Fatalf("expected 3 boosts")
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatalf("boost order differs")
		}
	}
}
