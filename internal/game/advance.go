package game

import (
	"fmt"
	"math"

	"gearflip/internal/catalog"
	"gearflip/internal/credit"
	"gearflip/internal/duel"
	"gearflip/internal/rng"
)

const (
	repoHotHeat         = 40
	repoMaxRisk         = 0.75
	repoMinFine         = 80
	repoFineRate        = 0.04
	repoRepPenalty      = 8
	repoInsurancePayout = 0.40
	worldAuctionChance  = 0.08
	encounterChance     = 0.22
	bulkLotShare        = 0.32
	tradeOfferShare     = 0.28
	mysteriousShare     = 0.20
)

type note struct {
	kind MessageKind
	text string
}

type notes []note

func (n *notes) add(kind MessageKind, format string, args ...any) {
	*n = append(*n, note{kind: kind, text: fmt.Sprintf(format, args...)})
}

// AdvanceDay travels to destination and runs one day of the world. On the
// last day it liquidates the run instead. Once the run is over it returns st
// unchanged.
func AdvanceDay(st GameState, destination string, travel []string) GameState {
	if st.IsGameOver {
		return st
	}
	if st.Day >= st.TotalDays {
		return liquidate(st)
	}

	next := st.clone()
	var travelN, headerN, macroN, creditN, authN, luthierN, auctionN, encounterN, repoN notes

	for _, t := range travel {
		travelN.add(MsgInfo, "%s", t)
	}
	if _, ok := catalog.LookupLocation(destination); ok && destination != next.Location {
		travelN.add(MsgInfo, "You arrive at %s.", destination)
		next.Location = destination
	}

	// 1. New day, new market.
	next.Day++
	headerN.add(MsgInfo, "Day %d of %d at %s.", next.Day, next.TotalDays, next.Location)
	next.expirePending(&encounterN)
	for _, m := range next.stockMarket() {
		macroN.add(MsgEvent, "%s", m)
	}
	next.InspectedMarketIDs = []string{}
	next.pruneFlips()

	// 2. Credit.
	res := credit.Tick(next.Credit, next.Day, next.Cash)
	next.Credit = res.Line
	next.addCash(res.CashDelta)
	next.addReputation(res.ReputationDelta)
	for _, n := range res.Notes {
		kind := MsgWarn
		if res.CashDelta < 0 || res.ReputationDelta < 0 {
			kind = MsgBad
		}
		creditN.add(kind, "%s", n)
	}

	// 3. Luthier jobs.
	for i := range next.Inventory {
		it := &next.Inventory[i]
		if it.LuthierStatus != LuthierPending || it.LuthierReadyDay > next.Day {
			continue
		}
		it.Condition = it.LuthierTarget
		it.LuthierStatus = LuthierComplete
		luthierN.add(MsgGood, "The luthier finished your %s. It's %s now.", it.Name, it.Condition)
	}

	// 4. Authentication jobs.
	for i := range next.Inventory {
		it := &next.Inventory[i]
		if it.AuthStatus != AuthPending || it.AuthReadyDay > next.Day {
			continue
		}
		switch it.AuthOutcome {
		case AuthSuccess:
			it.AuthMultiplier = authSuccessMult
			it.Heat = max(0, it.Heat-authSuccessHeat)
			next.addReputation(1)
			authN.add(MsgGood, "Your %s authenticated clean. Value up, heat down, reputation +1.", it.Name)
		case AuthFail:
			it.AuthMultiplier = authFailMult
			next.addReputation(-1)
			authN.add(MsgBad, "Your %s failed authentication. Value down, reputation -1.", it.Name)
		default:
			it.AuthOutcome = AuthPartial
			it.Heat = max(0, it.Heat-authPartialHeat)
			authN.add(MsgInfo, "Your %s came back with partial papers. Some heat comes off.", it.Name)
		}
		it.AuthStatus = it.AuthOutcome
	}

	// 5. Repo risk.
	next.repo(rng.ForContext(next.RunSeed, rng.Tag(next.Day, next.Location, "repo")), &repoN)

	// 6. Player-listed auctions.
	for i := 0; i < len(next.Inventory); {
		it := next.Inventory[i]
		if it.AuctionStatus != AuctionListed || it.AuctionResolveDay > next.Day {
			i++
			continue
		}
		hammer := listingHammer(next.RunSeed, it)
		premium := int(math.Round(float64(hammer) * it.AuctionPremiumRate))
		next.removeItem(i)
		next.addCash(hammer)
		next.recordSale(it, hammer)
		auctionN.add(MsgGood, "Your %s hammered at $%d (buyer paid $%d premium). %s.", it.Name, hammer, premium, signed(hammer-it.PurchasePrice))
	}

	// 7-8. Random events.
	next.rollEvents(&encounterN)

	for _, group := range []notes{travelN, headerN, macroN, creditN, authN, luthierN, auctionN, encounterN, repoN} {
		for _, n := range group {
			next.say(n.kind, n.text)
		}
	}
	return next
}

func (g *GameState) expirePending(out *notes) {
	if g.PendingDuel != nil {
		out.add(MsgInfo, "%s got tired of waiting for you.", g.PendingDuel.Label)
		g.PendingDuel = nil
	}
	switch enc := g.PendingEncounter.(type) {
	case nil:
	case WorldAuction:
		if enc.Resolution == nil {
			out.add(MsgInfo, "The %s sold without you.", enc.Item.Name)
		}
	case RepairScare:
		out.add(MsgInfo, "The buyer for your %s stopped calling.", enc.Name)
	default:
		out.add(MsgInfo, "Yesterday's %s offer is gone.", humanKind(enc.Kind()))
	}
	g.PendingEncounter = nil
}

// RepoRisk is today's chance that the heat comes for your hottest item.
func (g GameState) RepoRisk() float64 {
	hot, listed := 0, 0
	for _, it := range g.Inventory {
		if it.Heat >= repoHotHeat {
			hot++
		}
		if it.AuctionStatus == AuctionListed {
			listed++
		}
	}
	scanner := 0.0
	if g.Tools.SerialScanner {
		scanner = 1
	}
	risk := 0.05 +
		0.002*float64(g.TotalHeat()) +
		0.05*float64(hot) +
		0.08*float64(listed) +
		0.06*float64(g.RecentFlips()) -
		0.002*float64(g.Reputation) -
		0.08*scanner
	return math.Max(0, math.Min(repoMaxRisk, risk))
}

func (g *GameState) hottest() (int, bool) {
	idx := -1
	for i, it := range g.Inventory {
		if it.Heat < repoHotHeat {
			continue
		}
		if idx < 0 || it.Heat > g.Inventory[idx].Heat {
			idx = i
		}
	}
	return idx, idx >= 0
}

func (g *GameState) repo(s *rng.Stream, out *notes) {
	if _, ok := g.hottest(); !ok {
		return
	}
	if s.Float64() >= g.RepoRisk() {
		return
	}
	g.confiscate(out)
}

// confiscate takes the hottest item, fines the player and pays out insurance.
func (g *GameState) confiscate(out *notes) {
	i, ok := g.hottest()
	if !ok {
		return
	}
	it := g.removeItem(i)
	fine := max(repoMinFine, int(math.Round(float64(g.Cash)*repoFineRate)))
	g.addCash(-fine)
	g.addReputation(-repoRepPenalty)
	out.add(MsgBad, "Repo! They took your %s. Fine $%d, reputation -%d.", it.Name, fine, repoRepPenalty)
	if it.Insured {
		payout := int(math.Round(float64(it.BasePrice) * repoInsurancePayout))
		g.addCash(payout)
		out.add(MsgInfo, "Insurance pays $%d for the %s.", payout, it.Name)
	}
}

func (g *GameState) rollEvents(out *notes) {
	s := rng.ForContext(g.RunSeed, rng.Tag(g.Day, g.Location, "events"))
	if s.Chance(jamChance) {
		d := duel.New(rng.ForContext(g.RunSeed, rng.Tag(g.Day, g.Location, "duel-setup")), g.Cash)
		g.PendingDuel = &d
		out.add(MsgEvent, "%s Wager: $%d over %d round(s).", d.Intro, d.Wager, d.TotalRounds)
		return
	}
	if s.Chance(worldAuctionChance) {
		wa := newWorldAuction(g.RunSeed, g.Day, g.Location)
		g.PendingEncounter = wa
		out.add(MsgEvent, "%s", encounterIntro(wa))
		return
	}
	if !s.Chance(encounterChance) {
		return
	}
	es := rng.ForContext(g.RunSeed, rng.Tag(g.Day, g.Location, "encounter"))
	var enc Encounter
	switch r := s.Float64(); {
	case r < bulkLotShare:
		enc = newBulkLot(es, g.Day, g.Location)
	case r < bulkLotShare+tradeOfferShare:
		if offer, ok := newTradeOffer(es, *g); ok {
			enc = offer
		}
	case r < bulkLotShare+tradeOfferShare+mysteriousShare:
		enc = newMysteriousListing(es, g.Day, g.Location)
	}
	if enc == nil {
		return
	}
	g.PendingEncounter = enc
	out.add(MsgEvent, "%s", encounterIntro(enc))
}

// liquidate ends the run: every item is sold at today's price and any loan is
// settled from cash as far as it will go.
func liquidate(st GameState) GameState {
	next := st.clone()
	total := 0
	for _, it := range next.Inventory {
		price := next.SellPrice(it)
		total += price
		next.updateBests(it, price)
	}
	count := len(next.Inventory)
	next.Inventory = []OwnedItem{}
	next.addCash(total)
	next.PendingDuel = nil
	next.PendingEncounter = nil
	next.IsGameOver = true

	next.say(MsgInfo, fmt.Sprintf("Last day. You liquidate %d item(s) for $%d.", count, total))
	if loan := next.Credit.Loan; loan != nil {
		res := credit.Repay(next.Credit, next.Cash, loan.BalanceDue)
		next.applyCreditResult(res, MsgInfo)
		if next.Credit.Loan != nil {
			next.say(MsgBad, fmt.Sprintf("You still owe $%d. The lenders will remember.", next.Credit.Loan.BalanceDue))
		}
	}
	next.say(MsgGood, fmt.Sprintf("Final score: $%d.", next.Score()))
	return next
}

func humanKind(k EncounterKind) string {
	switch k {
	case EncounterBulkLot:
		return "bulk lot"
	case EncounterTradeOffer:
		return "trade"
	case EncounterMysterious:
		return "mystery listing"
	case EncounterWorldAuction:
		return "auction"
	default:
		return "repair"
	}
}
