package game

import (
	"fmt"
	"math"

	"gearflip/internal/catalog"
	"gearflip/internal/market"
	"gearflip/internal/rng"
)

const (
	worldStartRate      = 0.60
	worldPremiumRate    = 0.05
	worldMinReputation  = 35
	worldCountdown      = 20
	opponentSpikeChance = 0.22
	listingSpikeChance  = 0.25
	listingHammerFloor  = 50
)

type AuctionOutcome string

const (
	OutcomeBlocked   AuctionOutcome = "blocked"
	OutcomeNoBid     AuctionOutcome = "no_bid"
	OutcomePassed    AuctionOutcome = "passed"
	OutcomeOutbid    AuctionOutcome = "outbid"
	OutcomeForfeited AuctionOutcome = "forfeited"
	OutcomeNoSpace   AuctionOutcome = "no_space"
	OutcomeWon       AuctionOutcome = "won"
)

type AuctionResolution struct {
	Outcome     AuctionOutcome `json:"outcome"`
	MaxBid      int            `json:"max_bid"`
	OpponentMax int            `json:"opponent_max"`
	FinalPrice  int            `json:"final_price"`
	Premium     int            `json:"premium"`
	TotalCost   int            `json:"total_cost"`
}

// BidIncrement is the auctioneer's step for an item of the given base price.
func BidIncrement(basePrice int) int {
	switch {
	case basePrice < 1000:
		return 25
	case basePrice < 2500:
		return 50
	case basePrice < 5000:
		return 100
	case basePrice < 10000:
		return 250
	default:
		return 500
	}
}

func newWorldAuction(seed string, day int, location string) WorldAuction {
	s := rng.ForContext(seed, rng.Tag(day, location, "auction-item"))
	t := market.PickTemplate(s, catalog.TemplatesByRarity(catalog.RarityLegendary))
	it := market.Instantiate(s, t, market.PickCondition(s), day, location, 0)
	it.ID = market.ItemID(day, "world auction", 0, it.Name)
	return WorldAuction{
		Item:             it,
		StartingBid:      int(math.Round(float64(it.BasePrice) * worldStartRate)),
		PremiumRate:      worldPremiumRate,
		MinReputation:    worldMinReputation,
		CountdownSeconds: worldCountdown,
	}
}

func opponentMaxBid(s *rng.Stream, basePrice int) int {
	bid := float64(basePrice) * s.Range(0.45, 1.65)
	if s.Chance(opponentSpikeChance) {
		bid += float64(basePrice) * s.Range(0.90, 2.20)
	}
	return int(math.Round(bid))
}

// ResolveWorldAuction settles the pending world auction against the player's
// max bid. A bid of 0 stands for a countdown that ran out. The result stays on
// the encounter until DismissEncounter.
func ResolveWorldAuction(st GameState, maxBid int) GameState {
	wa, ok := st.PendingEncounter.(WorldAuction)
	if !ok {
		return st.noEncounter(EncounterWorldAuction)
	}
	if wa.Resolution != nil {
		return st.reject("That auction is already over.")
	}
	maxBid = clampInt(maxBid, 0, st.Cash)
	res := AuctionResolution{MaxBid: maxBid}
	next := st.clone()
	name := wa.Item.Name

	switch {
	case st.Reputation < wa.MinReputation:
		res.Outcome = OutcomeBlocked
		next.say(MsgWarn, fmt.Sprintf("The house won't register you. You need reputation %d.", wa.MinReputation))
	case maxBid < 1:
		res.Outcome = OutcomeNoBid
		res.FinalPrice = wa.StartingBid
		next.say(MsgInfo, fmt.Sprintf("You never raised your paddle. The %s opened at $%d.", name, wa.StartingBid))
	default:
		s := rng.ForContext(st.RunSeed, rng.Tag(st.Day, st.Location, "auction-bid"))
		opp := opponentMaxBid(s, wa.Item.BasePrice)
		res.OpponentMax = opp
		if maxBid < wa.StartingBid && opp < wa.StartingBid {
			res.Outcome = OutcomePassed
			res.FinalPrice = wa.StartingBid
			next.say(MsgInfo, fmt.Sprintf("No one met the $%d opening bid. The %s passes.", wa.StartingBid, name))
			break
		}
		won := maxBid > opp
		loser := maxBid
		if won {
			loser = opp
		}
		hammer := loser + BidIncrement(wa.Item.BasePrice)
		if hammer < wa.StartingBid {
			hammer = wa.StartingBid
		}
		res.FinalPrice = hammer
		if !won {
			res.Outcome = OutcomeOutbid
			next.say(MsgInfo, fmt.Sprintf("Outbid. The %s hammers at $%d to a phone bidder.", name, hammer))
			break
		}
		res.Premium = int(math.Round(float64(hammer) * wa.PremiumRate))
		res.TotalCost = hammer + res.Premium
		switch {
		case res.TotalCost > st.Cash:
			res.Outcome = OutcomeForfeited
			next.say(MsgBad, fmt.Sprintf("You won at $%d but can't cover $%d with premium. The win is voided.", hammer, res.TotalCost))
		case !st.fits(wa.Item.Slots()):
			res.Outcome = OutcomeNoSpace
			next.say(MsgBad, fmt.Sprintf("You won the %s but have nowhere to put it. The house re-offers it.", name))
		default:
			res.Outcome = OutcomeWon
			next.addCash(-res.TotalCost)
			next.Inventory = append(next.Inventory, newOwned(wa.Item, res.TotalCost, st.Day, false))
			next.say(MsgGood, fmt.Sprintf("Sold to you! %s at $%d plus $%d premium.", name, hammer, res.Premium))
		}
	}
	wa.Resolution = &res
	next.PendingEncounter = wa
	return next
}

// listingHammer rolls the sale price of a player-listed item.
func listingHammer(seed string, it OwnedItem) int {
	s := rng.ForContext(seed, rng.Tag("listing", it.ID, it.AuctionResolveDay))
	mult := s.Range(0.35, 1.75)
	if s.Chance(listingSpikeChance) {
		mult += s.Range(0.40, 2.00)
	}
	hammer := int(math.Round(float64(it.AuctionBaseline) * mult))
	if hammer < listingHammerFloor {
		return listingHammerFloor
	}
	return hammer
}
