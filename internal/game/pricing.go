package game

import (
	"math"

	"gearflip/internal/catalog"
)

const (
	sellSpread       = 0.90
	minSellPrice     = 25
	recentFlipWindow = 3
	reputationValue  = 20
)

type HeatLevel string

const (
	HeatLow    HeatLevel = "Low"
	HeatMedium HeatLevel = "Medium"
	HeatHigh   HeatLevel = "High"
)

func heatFor(risk float64) int {
	return int(math.Round(risk * 100))
}

// SellPrice is what a dealer at the current location pays for the item today.
func (g GameState) SellPrice(it OwnedItem) int {
	if it.SameDayPrice > 0 && g.Day == it.DayAcquired {
		return it.SameDayPrice
	}
	mult := it.AuthMultiplier
	if mult <= 0 {
		mult = 1
	}
	bias := catalog.LocationBias(g.Location, it.Category)
	price := int(math.Round(float64(it.BasePrice) * it.Condition.Multiplier() * mult * (1 + bias) * sellSpread))
	if price < minSellPrice {
		return minSellPrice
	}
	return price
}

// InventoryValue sums today's sell price of every owned item.
func (g GameState) InventoryValue() int {
	total := 0
	for _, it := range g.Inventory {
		total += g.SellPrice(it)
	}
	return total
}

func (g GameState) TotalHeat() int {
	total := 0
	for _, it := range g.Inventory {
		total += it.Heat
	}
	return total
}

// RecentFlips counts sales within the trailing window ending today.
func (g GameState) RecentFlips() int {
	n := 0
	for _, d := range g.RecentFlipDays {
		if g.Day-d <= recentFlipWindow {
			n++
		}
	}
	return n
}

// HeatLevel is derived from owned heat and recent flipping; it is never stored.
func (g GameState) HeatLevel() HeatLevel {
	score := g.TotalHeat() + 10*g.RecentFlips()
	switch {
	case score >= 120:
		return HeatHigh
	case score >= 60:
		return HeatMedium
	default:
		return HeatLow
	}
}

func (g *GameState) pruneFlips() {
	kept := g.RecentFlipDays[:0:0]
	for _, d := range g.RecentFlipDays {
		if g.Day-d <= recentFlipWindow {
			kept = append(kept, d)
		}
	}
	g.RecentFlipDays = kept
}

// recordSale updates the best-so-far trackers and the flip streak.
func (g *GameState) recordSale(it OwnedItem, price int) {
	g.updateBests(it, price)
	g.RecentFlipDays = append(g.RecentFlipDays, g.Day)
	g.pruneFlips()
}

// updateBests only ever raises BestFlip profit and RarestSold rank.
func (g *GameState) updateBests(it OwnedItem, price int) {
	profit := price - it.PurchasePrice
	if g.BestFlip == nil || profit > g.BestFlip.Profit {
		g.BestFlip = &FlipRecord{Name: it.Name, Profit: profit, Day: g.Day}
	}
	if g.RarestSold == nil || it.Rarity.Rank() > g.RarestSold.Rarity.Rank() {
		g.RarestSold = &SoldRecord{Name: it.Name, Rarity: it.Rarity, Price: price, Day: g.Day}
	}
}

// Score is cash plus inventory valuation plus a reputation bonus.
func (g GameState) Score() int {
	return g.Cash + g.InventoryValue() + g.Reputation*reputationValue
}

type Summary struct {
	Score           int         `json:"score"`
	Cash            int         `json:"cash"`
	InventoryValue  int         `json:"inventory_value"`
	ReputationBonus int         `json:"reputation_bonus"`
	Reputation      int         `json:"reputation"`
	Day             int         `json:"day"`
	TotalDays       int         `json:"total_days"`
	Completed       bool        `json:"completed"`
	SlotsUsed       int         `json:"inventory_slots_used"`
	Capacity        int         `json:"inventory_capacity"`
	HeatLevel       HeatLevel   `json:"heat_level"`
	LoanDue         int         `json:"loan_due"`
	BestFlip        *FlipRecord `json:"best_flip,omitempty"`
	RarestSold      *SoldRecord `json:"rarest_sold,omitempty"`
}

func (g GameState) Summary() Summary {
	s := Summary{
		Cash:            g.Cash,
		InventoryValue:  g.InventoryValue(),
		ReputationBonus: g.Reputation * reputationValue,
		Reputation:      g.Reputation,
		Day:             g.Day,
		TotalDays:       g.TotalDays,
		Completed:       g.IsGameOver,
		SlotsUsed:       g.SlotsUsed(),
		Capacity:        g.Capacity,
		HeatLevel:       g.HeatLevel(),
		BestFlip:        g.BestFlip,
		RarestSold:      g.RarestSold,
	}
	s.Score = s.Cash + s.InventoryValue + s.ReputationBonus
	if g.Credit.Loan != nil {
		s.LoanDue = g.Credit.Loan.BalanceDue
	}
	return s
}
