package game

import (
	"fmt"

	"gearflip/internal/catalog"
	"gearflip/internal/duel"
	"gearflip/internal/market"
	"gearflip/internal/rng"
)

const jamChance = 0.18

func (g GameState) ownsBoost(id string) (int, bool) {
	for i, b := range g.OwnedPerformance {
		if b == id {
			return i, true
		}
	}
	return -1, false
}

// PickDuelOption chooses this round's approach and an optional owned boost.
func PickDuelOption(st GameState, optionID, boostID string) GameState {
	if st.PendingDuel == nil {
		return st.reject("Nobody is challenging you right now.")
	}
	if boostID != "" {
		if _, ok := st.ownsBoost(boostID); !ok {
			return st.reject("You don't have that in your gig bag.")
		}
	}
	d, err := duel.Pick(*st.PendingDuel, optionID, boostID)
	if err != nil {
		return st.reject(fmt.Sprintf("Can't do that: %v.", err))
	}
	next := st.clone()
	next.PendingDuel = &d
	return next
}

// PlayDuelRound scores the selected approach with a timing accuracy in [0,1]
// and settles the duel after its last round.
func PlayDuelRound(st GameState, accuracy float64) GameState {
	if st.PendingDuel == nil {
		return st.reject("Nobody is challenging you right now.")
	}
	cur := *st.PendingDuel
	next := st.clone()

	var boost *catalog.Boost
	if cur.BoostID != "" {
		if i, ok := next.ownsBoost(cur.BoostID); ok {
			if b, ok := catalog.LookupBoost(cur.BoostID); ok {
				boost = &b
				next.OwnedPerformance = append(next.OwnedPerformance[:i:i], next.OwnedPerformance[i+1:]...)
			}
		}
	}
	ctx := duel.Context{
		Reputation: st.Reputation,
		HasGuitar:  st.hasCategory(catalog.CategoryGuitar),
		HasAmp:     st.hasCategory(catalog.CategoryAmp),
		HeatLevel:  string(st.HeatLevel()),
	}
	s := rng.ForContext(st.RunSeed, rng.Tag(st.Day, st.Location, "duel", cur.Round))
	d, res, err := duel.Play(cur, ctx, boost, accuracy, s)
	if err != nil {
		return st.reject(fmt.Sprintf("Can't play yet: %v.", err))
	}
	next.say(MsgEvent, fmt.Sprintf("Round %d: you %.0f, %s %.0f. %s", res.Round, res.PlayerScore, d.Label, res.OpponentScore, res.Reaction))
	if !d.Resolved() {
		next.PendingDuel = &d
		return next
	}
	next.PendingDuel = nil
	out, err := duel.Settle(d, rng.ForContext(st.RunSeed, rng.Tag(st.Day, st.Location, "duel-bonus")))
	if err != nil {
		next.say(MsgWarn, fmt.Sprintf("The jam fizzles out: %v.", err))
		return next
	}
	next.addCash(out.CashDelta)
	next.addReputation(out.ReputationDelta)
	switch out.Verdict {
	case duel.VerdictWin:
		next.say(MsgGood, fmt.Sprintf("You win the jam against %s. +$%d, reputation +%d.", d.Label, out.CashDelta, out.ReputationDelta))
	case duel.VerdictLose:
		next.say(MsgBad, fmt.Sprintf("%s takes it. You pay $%d, reputation %d.", d.Label, -out.CashDelta, out.ReputationDelta))
	default:
		next.say(MsgInfo, fmt.Sprintf("Called a draw with %s. Nobody pays.", d.Label))
	}
	if out.Bonus != "" {
		next.applyDuelBonus(out.Bonus)
	}
	return next
}

func (g *GameState) applyDuelBonus(kind duel.BonusKind) {
	s := rng.ForContext(g.RunSeed, rng.Tag(g.Day, g.Location, "duel-reward"))
	it := market.Instantiate(s, market.PickTemplate(s, catalog.Templates), market.PickCondition(s), g.Day, g.Location, 0)
	it.ID = market.ItemID(g.Day, "jam reward", 0, it.Name)
	switch kind {
	case duel.BonusListing:
		g.Market = append(g.Market, it)
		g.say(MsgGood, fmt.Sprintf("A fan tips you off: a %s just hit the market for $%d.", it.Name, it.Price))
	case duel.BonusItem:
		if !g.fits(it.Slots()) {
			return
		}
		g.Inventory = append(g.Inventory, newOwned(it, 0, g.Day, false))
		g.say(MsgGood, fmt.Sprintf("Your challenger hands over a %s as a sore-loser gift.", it.Name))
	}
}

// DeclineDuel walks away before any round has been played.
func DeclineDuel(st GameState) GameState {
	if st.PendingDuel == nil {
		return st.reject("Nobody is challenging you right now.")
	}
	if err := duel.Decline(*st.PendingDuel); err != nil {
		return st.reject("Too late to back out now.")
	}
	next := st.clone()
	label := st.PendingDuel.Label
	next.PendingDuel = nil
	next.addReputation(-1)
	next.say(MsgBad, fmt.Sprintf("You pass on %s. Someone in the crowd boos. Reputation -1.", label))
	return next
}
