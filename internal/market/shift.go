package market

import (
	"math"

	"gearflip/internal/catalog"
	"gearflip/internal/rng"
)

type ShiftID string

const (
	ShiftAmpGlut      ShiftID = "amp-glut"
	ShiftTourRush     ShiftID = "tour-rush"
	ShiftPedalHype    ShiftID = "pedal-hype"
	ShiftEstateWave   ShiftID = "estate-wave"
	ShiftPartsDrought ShiftID = "parts-drought"
)

// Shift is one of the fixed macro events. Discount events reprice targets to
// 45-80% of base, spikes to 105-140%.
type Shift struct {
	ID        ShiftID
	Title     string
	Narrative string
	Discount  bool
	matches   func(Item) bool
}

func byCategory(c catalog.Category) func(Item) bool {
	return func(it Item) bool { return it.Category == c }
}

var Shifts = []Shift{
	{
		ID:        ShiftAmpGlut,
		Title:     "Amp Glut",
		Narrative: "A rehearsal studio closed and dumped its backline. Amps are going cheap.",
		Discount:  true,
		matches:   byCategory(catalog.CategoryAmp),
	},
	{
		ID:        ShiftTourRush,
		Title:     "Tour Season Rush",
		Narrative: "Bands are gearing up for summer tours. Guitars are in demand.",
		matches:   byCategory(catalog.CategoryGuitar),
	},
	{
		ID:        ShiftPedalHype,
		Title:     "Pedal Hype",
		Narrative: "A viral rig rundown has everyone chasing the same stompboxes.",
		matches:   byCategory(catalog.CategoryPedal),
	},
	{
		ID:        ShiftEstateWave,
		Title:     "Estate Sale Wave",
		Narrative: "A collector's estate hit the market. Rare pieces are priced to move.",
		Discount:  true,
		matches: func(it Item) bool {
			return it.Rarity.Rank() >= catalog.RarityRare.Rank()
		},
	},
	{
		ID:        ShiftPartsDrought,
		Title:     "Parts Drought",
		Narrative: "Shipping delays dried up the parts supply. Spares are pricey.",
		matches:   byCategory(catalog.CategoryParts),
	},
}

func LookupShift(id ShiftID) (Shift, bool) {
	for _, sh := range Shifts {
		if sh.ID == id {
			return sh, true
		}
	}
	return Shift{}, false
}

// PickShift chooses the day's event for a location.
func PickShift(day int, location, seed string) Shift {
	s := rng.ForContext(seed, rng.Tag(day, location, "shift"))
	return Shifts[s.Intn(len(Shifts))]
}

// ApplyShift reprices 1-2 matching listings and returns a new slice. Listings
// are never added or removed.
func ApplyShift(sh Shift, items []Item, seed string, day int, location string) []Item {
	out := append([]Item(nil), items...)
	if sh.matches == nil {
		return out
	}
	var candidates []int
	for i, it := range out {
		if sh.matches(it) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return out
	}
	s := rng.ForContext(seed, rng.Tag(day, location, "shift-apply"))
	s.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	n := 1 + s.Intn(2)
	if n > len(candidates) {
		n = len(candidates)
	}
	for _, idx := range candidates[:n] {
		var factor float64
		if sh.Discount {
			factor = s.Range(0.45, 0.80)
		} else {
			factor = s.Range(1.05, 1.40)
		}
		it := out[idx]
		it.Price = int(math.Round(float64(it.BasePrice) * factor))
		if it.Price < PriceFloor {
			it.Price = PriceFloor
		}
		it.Trend = ClassifyTrend(it.BasePrice, it.Price)
		out[idx] = it
	}
	return out
}
