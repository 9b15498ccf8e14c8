// Package market builds the daily listings for a location and applies the
// day's macro shift event on top of them.
package market

import (
	"fmt"
	"math"
	"strings"

	"gearflip/internal/catalog"
	"gearflip/internal/rng"
)

const (
	MinListings      = 7
	MaxListings      = 9
	PriceFloor       = 40
	AffordableCap    = 300
	cheapTemplateMax = 200
	priceJitter      = 0.15
	trendThreshold   = 0.06
)

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Item is one purchasable listing. IDs are stable for a (day, location, slot,
// name) tuple and repeat across days.
type Item struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Category    catalog.Category  `json:"category"`
	BasePrice   int               `json:"base_price"`
	Price       int               `json:"price"`
	Trend       Trend             `json:"trend"`
	Rarity      catalog.Rarity    `json:"rarity"`
	Condition   catalog.Condition `json:"condition"`
	ScamRisk    float64           `json:"scam_risk"`
	HeatRisk    float64           `json:"heat_risk"`
	Description string            `json:"description"`
}

func (i Item) Slots() int {
	return i.Category.Slots()
}

// ClassifyTrend compares an instance price to its base price.
func ClassifyTrend(base, price int) Trend {
	if base <= 0 {
		return TrendStable
	}
	dev := float64(price-base) / float64(base)
	switch {
	case dev > trendThreshold:
		return TrendUp
	case dev < -trendThreshold:
		return TrendDown
	default:
		return TrendStable
	}
}

// ItemID is the listing id for a slot.
func ItemID(day int, location string, slot int, name string) string {
	return fmt.Sprintf("d%d-%s-%d-%s", day, slug(location), slot, slug(name))
}

// Generate produces the listings for day at location. The result depends only
// on its arguments.
func Generate(day int, location, seed string) []Item {
	s := rng.ForContext(seed, rng.Tag(day, location, "market"))
	count := s.IntRange(MinListings, MaxListings)
	items := make([]Item, 0, count)
	for slot := 0; slot < count; slot++ {
		items = append(items, draw(s, catalog.Templates, day, location, slot))
	}
	ensureAffordable(s, items, day, location)
	capLegendary(s, items, day, location)
	return items
}

// Instantiate turns a template into a listing using one jitter draw from s.
func Instantiate(s *rng.Stream, t catalog.Template, cond catalog.Condition, day int, location string, slot int) Item {
	jitter := s.Range(-priceJitter, priceJitter)
	bias := catalog.LocationBias(location, t.Category)
	price := int(math.Round(float64(t.BasePrice) * (1 + jitter + bias) * cond.Multiplier()))
	if price < PriceFloor {
		price = PriceFloor
	}
	return Item{
		ID:          ItemID(day, location, slot, t.Name),
		Name:        t.Name,
		Category:    t.Category,
		BasePrice:   t.BasePrice,
		Price:       price,
		Trend:       ClassifyTrend(t.BasePrice, price),
		Rarity:      t.Rarity,
		Condition:   cond,
		ScamRisk:    t.ScamRisk,
		HeatRisk:    t.HeatRisk,
		Description: t.Description,
	}
}

// PickTemplate samples pool by rarity population weight.
func PickTemplate(s *rng.Stream, pool []catalog.Template) catalog.Template {
	weights := make([]float64, len(pool))
	for i, t := range pool {
		weights[i] = t.Rarity.Weight()
	}
	idx := s.Weighted(weights)
	if idx < 0 {
		return pool[0]
	}
	return pool[idx]
}

// PickCondition samples a condition by population weight.
func PickCondition(s *rng.Stream) catalog.Condition {
	weights := make([]float64, len(catalog.Conditions))
	for i, c := range catalog.Conditions {
		weights[i] = c.Weight()
	}
	idx := s.Weighted(weights)
	if idx < 0 {
		return catalog.ConditionGood
	}
	return catalog.Conditions[idx]
}

func draw(s *rng.Stream, pool []catalog.Template, day int, location string, slot int) Item {
	t := PickTemplate(s, pool)
	cond := PickCondition(s)
	return Instantiate(s, t, cond, day, location, slot)
}

func ensureAffordable(s *rng.Stream, items []Item, day int, location string) {
	if len(items) == 0 {
		return
	}
	for _, it := range items {
		if it.Price <= AffordableCap {
			return
		}
	}
	var cheap []catalog.Template
	for _, t := range catalog.Templates {
		if t.BasePrice <= cheapTemplateMax {
			cheap = append(cheap, t)
		}
	}
	slot := len(items) - 1
	it := draw(s, cheap, day, location, slot)
	if it.Price > AffordableCap {
		it.Price = AffordableCap
		it.Trend = ClassifyTrend(it.BasePrice, it.Price)
	}
	items[slot] = it
}

func capLegendary(s *rng.Stream, items []Item, day int, location string) {
	var pool []catalog.Template
	seen := false
	for i := range items {
		if items[i].Rarity != catalog.RarityLegendary {
			continue
		}
		if !seen {
			seen = true
			continue
		}
		if pool == nil {
			for _, t := range catalog.Templates {
				if t.Rarity != catalog.RarityLegendary {
					pool = append(pool, t)
				}
			}
		}
		items[i] = draw(s, pool, day, location, i)
	}
}

// Boosts is the day's performance-item stock at a location.
func Boosts(day int, location, seed string) []catalog.Boost {
	s := rng.ForContext(seed, rng.Tag(day, location, "perf"))
	pool := append([]catalog.Boost(nil), catalog.Boosts...)
	s.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	n := 3
	if n > len(pool) {
		n = len(pool)
	}
	return pool[:n]
}

// Recap summarizes the listings by category and net trend direction.
func Recap(location string, items []Item) string {
	counts := map[catalog.Category]int{}
	net := 0
	for _, it := range items {
		counts[it.Category]++
		switch it.Trend {
		case TrendUp:
			net++
		case TrendDown:
			net--
		}
	}
	parts := make([]string, 0, len(catalog.Categories))
	for _, c := range catalog.Categories {
		if counts[c] == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d %s", counts[c], c))
	}
	direction := "steady"
	switch {
	case net > 0:
		direction = "trending up"
	case net < 0:
		direction = "trending down"
	}
	return fmt.Sprintf("%s today: %s; prices %s.", location, strings.Join(parts, ", "), direction)
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	dash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
