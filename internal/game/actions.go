package game

import (
	"fmt"
	"math"

	"gearflip/internal/catalog"
	"gearflip/internal/rng"
)

const (
	uvLightFactor    = 0.5
	scamRepPenalty   = 3
	repairScareSafe  = 0.06
	repairScareRisky = 0.18
	repairCompFactor = 0.85
	authDays         = 2
	luthierDays      = 2
	listingDays      = 2
	listingPremium   = 0.10
	insuranceRate    = 0.08
	authSuccessMult  = 1.08
	authFailMult     = 0.90
	authSuccessHeat  = 40
	authPartialHeat  = 15
	mintSuccessBonus = 10.0
	authBaseFee      = 40
	authFeeRate      = 0.04
)

// AuthFee is the authentication price for an item.
func AuthFee(it OwnedItem) int {
	return int(math.Round(authBaseFee + authFeeRate*float64(it.BasePrice)))
}

// LuthierFee is the bench price for one condition upgrade.
func LuthierFee(c catalog.Category) int {
	switch c {
	case catalog.CategoryAmp:
		return 180
	case catalog.CategoryGuitar:
		return 140
	case catalog.CategoryPedal:
		return 60
	default:
		return 40
	}
}

func InsuranceFee(it OwnedItem) int {
	return int(math.Round(insuranceRate * float64(it.BasePrice)))
}

func (g GameState) closed() bool {
	return g.IsGameOver
}

// awaitingScare reports whether a repair-scare buyer is holding the item.
func (g GameState) awaitingScare(itemID string) bool {
	rs, ok := g.PendingEncounter.(RepairScare)
	return ok && rs.ItemID == itemID
}

func (g GameState) scareCanInterrupt() bool {
	wa, ok := g.PendingEncounter.(WorldAuction)
	return !ok || wa.Resolution != nil
}

// Inspect marks a listing as looked-over for today and reveals its risks.
func Inspect(st GameState, listingID string) GameState {
	if st.closed() {
		return st.reject("The run is over.")
	}
	i, ok := st.findListing(listingID)
	if !ok {
		return st.reject("That listing is gone.")
	}
	it := st.Market[i]
	next := st.clone()
	if !st.inspected(listingID) {
		next.InspectedMarketIDs = append(next.InspectedMarketIDs, listingID)
	}
	next.say(MsgInfo, fmt.Sprintf("You look over the %s (%s, %s). Scam risk %.0f%%, heat %d.",
		it.Name, it.Condition, it.Rarity, it.ScamRisk*100, heatFor(it.HeatRisk)))
	return next
}

// Buy purchases a listing. A scam roll on the listing's own stream may take
// the money without delivering the item.
func Buy(st GameState, listingID string) GameState {
	if st.closed() {
		return st.reject("The run is over.")
	}
	i, ok := st.findListing(listingID)
	if !ok {
		return st.reject("That listing is gone.")
	}
	it := st.Market[i]
	if st.Cash < it.Price {
		return st.reject(fmt.Sprintf("You need $%d for the %s.", it.Price, it.Name))
	}
	if !st.fits(it.Slots()) {
		return st.reject(fmt.Sprintf("No room: the %s needs %d slots and you have %d free.", it.Name, it.Slots(), st.FreeSlots()))
	}

	next := st.clone()
	next.Market = append(next.Market[:i:i], next.Market[i+1:]...)
	next.addCash(-it.Price)

	inspected := st.inspected(listingID)
	risk := it.ScamRisk
	if inspected && st.Tools.UVLight {
		risk *= uvLightFactor
	}
	s := rng.ForContext(st.RunSeed, rng.Tag(st.Day, st.Location, "scam", listingID))
	if s.Chance(risk) {
		next.addReputation(-scamRepPenalty)
		next.say(MsgBad, fmt.Sprintf("The %s was a fake. $%d gone and reputation -%d.", it.Name, it.Price, scamRepPenalty))
		return next
	}
	next.Inventory = append(next.Inventory, newOwned(it, it.Price, st.Day, inspected))
	next.say(MsgGood, fmt.Sprintf("Bought %s for $%d.", it.Name, it.Price))
	return next
}

// Sell sells an owned item at today's price. A manual sale can be interrupted
// by a repair scare, which takes the encounter slot from anything but a live
// world auction. While an auction is live the scared buyer just walks.
func Sell(st GameState, itemID string) GameState {
	if st.closed() {
		return st.reject("The run is over.")
	}
	i, ok := st.findItem(itemID)
	if !ok {
		return st.reject("You don't own that.")
	}
	it := st.Inventory[i]
	if it.Busy() {
		return st.reject(fmt.Sprintf("The %s %s.", it.Name, it.busyReason()))
	}
	if st.awaitingScare(itemID) {
		return st.reject("The buyer is still waiting on your answer about the " + it.Name + ".")
	}
	if it.SaleCooldownDay > st.Day {
		return st.reject(fmt.Sprintf("Nobody will touch the %s until tomorrow.", it.Name))
	}
	price := st.SellPrice(it)

	chance := repairScareRisky
	if it.AuthStatus == AuthSuccess || it.Condition == catalog.ConditionMint {
		chance = repairScareSafe
	}
	s := rng.ForContext(st.RunSeed, rng.Tag(st.Day, "repair", itemID))
	if s.Chance(chance) {
		next := st.clone()
		comp := int(math.Round(float64(price) * repairCompFactor))
		if !st.scareCanInterrupt() {
			next.Inventory[i].SaleCooldownDay = st.Day + 1
			next.say(MsgBad, fmt.Sprintf("The buyer plugs in the %s, hears a crackle and leaves. Nobody else will look at it today.", it.Name))
			return next
		}
		switch prev := st.PendingEncounter.(type) {
		case nil:
		case RepairScare:
			next.say(MsgInfo, fmt.Sprintf("The buyer for your %s stops waiting.", prev.Name))
		default:
			next.say(MsgInfo, fmt.Sprintf("The %s moves on while you deal with the buyer.", humanKind(prev.Kind())))
		}
		next.PendingEncounter = RepairScare{ItemID: it.ID, Name: it.Name, AskPrice: price, CompPrice: comp}
		next.say(MsgEvent, fmt.Sprintf("The buyer plugs in the %s and hears a crackle. They offer $%d instead of $%d.", it.Name, comp, price))
		return next
	}

	next := st.clone()
	next.removeItem(i)
	next.addCash(price)
	next.recordSale(it, price)
	next.say(MsgGood, fmt.Sprintf("Sold %s for $%d (%s).", it.Name, price, signed(price-it.PurchasePrice)))
	return next
}

// UpgradeBag moves to the next bag tier.
func UpgradeBag(st GameState) GameState {
	if st.closed() {
		return st.reject("The run is over.")
	}
	cost, ok := catalog.BagUpgradeCost(st.BagTier)
	if !ok {
		return st.reject("Your bag is already the biggest one.")
	}
	if st.Cash < cost {
		return st.reject(fmt.Sprintf("A bigger bag costs $%d.", cost))
	}
	next := st.clone()
	next.addCash(-cost)
	next.BagTier++
	next.Capacity = catalog.BagCapacity(next.BagTier)
	next.say(MsgGood, fmt.Sprintf("Upgraded your bag to %d slots for $%d.", next.Capacity, cost))
	return next
}

func BuyTool(st GameState, tool catalog.Tool) GameState {
	if st.closed() {
		return st.reject("The run is over.")
	}
	price, ok := catalog.ToolPrice(tool)
	if !ok {
		return st.reject(fmt.Sprintf("Nobody sells a %q.", tool))
	}
	if st.Tools.Has(tool) {
		return st.reject("You already own one.")
	}
	if st.Cash < price {
		return st.reject(fmt.Sprintf("That costs $%d.", price))
	}
	next := st.clone()
	next.addCash(-price)
	switch tool {
	case catalog.ToolSerialScanner:
		next.Tools.SerialScanner = true
	case catalog.ToolUVLight:
		next.Tools.UVLight = true
	}
	next.say(MsgGood, fmt.Sprintf("Bought a %s for $%d.", tool, price))
	return next
}

// BuyBoost buys a performance item from today's gear table.
func BuyBoost(st GameState, boostID string) GameState {
	if st.closed() {
		return st.reject("The run is over.")
	}
	var b catalog.Boost
	found := false
	for _, pb := range st.PerformanceMarket {
		if pb.ID == boostID {
			b, found = pb, true
			break
		}
	}
	if !found {
		return st.reject("That isn't on the gear table today.")
	}
	if st.Cash < b.Price {
		return st.reject(fmt.Sprintf("%s costs $%d.", b.Name, b.Price))
	}
	next := st.clone()
	next.addCash(-b.Price)
	next.OwnedPerformance = append(next.OwnedPerformance, b.ID)
	next.say(MsgGood, fmt.Sprintf("Picked up %s for $%d.", b.Name, b.Price))
	return next
}

// Authenticate sends an item out. The outcome is rolled now and revealed when
// the job comes back.
func Authenticate(st GameState, itemID string) GameState {
	if st.closed() {
		return st.reject("The run is over.")
	}
	i, ok := st.findItem(itemID)
	if !ok {
		return st.reject("You don't own that.")
	}
	it := st.Inventory[i]
	if it.Busy() {
		return st.reject(fmt.Sprintf("The %s %s.", it.Name, it.busyReason()))
	}
	if st.awaitingScare(itemID) {
		return st.reject("The buyer is still waiting on your answer about the " + it.Name + ".")
	}
	if it.AuthStatus != AuthNone && it.AuthStatus != "" {
		return st.reject(fmt.Sprintf("The %s has already been authenticated.", it.Name))
	}
	fee := AuthFee(it)
	if st.Cash < fee {
		return st.reject(fmt.Sprintf("Authentication costs $%d.", fee))
	}

	weights := []float64{55, 25, 20}
	if it.Condition == catalog.ConditionMint {
		weights[0] += mintSuccessBonus
	}
	outcomes := []AuthStatus{AuthSuccess, AuthPartial, AuthFail}
	s := rng.ForContext(st.RunSeed, rng.Tag(st.Day, "auth", itemID))
	outcome := AuthPartial
	if idx := s.Weighted(weights); idx >= 0 {
		outcome = outcomes[idx]
	}

	next := st.clone()
	next.addCash(-fee)
	item := &next.Inventory[i]
	item.AuthStatus = AuthPending
	item.AuthReadyDay = st.Day + authDays
	item.AuthOutcome = outcome
	next.say(MsgInfo, fmt.Sprintf("Sent the %s for authentication ($%d). Results on day %d.", it.Name, fee, item.AuthReadyDay))
	return next
}

// SendToLuthier books a one-tier condition upgrade.
func SendToLuthier(st GameState, itemID string) GameState {
	if st.closed() {
		return st.reject("The run is over.")
	}
	i, ok := st.findItem(itemID)
	if !ok {
		return st.reject("You don't own that.")
	}
	it := st.Inventory[i]
	if it.Busy() {
		return st.reject(fmt.Sprintf("The %s %s.", it.Name, it.busyReason()))
	}
	if st.awaitingScare(itemID) {
		return st.reject("The buyer is still waiting on your answer about the " + it.Name + ".")
	}
	target, ok := it.Condition.Upgrade()
	if !ok {
		return st.reject(fmt.Sprintf("The %s is already mint.", it.Name))
	}
	fee := LuthierFee(it.Category)
	if st.Cash < fee {
		return st.reject(fmt.Sprintf("The luthier wants $%d.", fee))
	}
	next := st.clone()
	next.addCash(-fee)
	item := &next.Inventory[i]
	item.LuthierStatus = LuthierPending
	item.LuthierReadyDay = st.Day + luthierDays
	item.LuthierTarget = target
	next.say(MsgInfo, fmt.Sprintf("The luthier takes the %s ($%d). Back on day %d as %s.", it.Name, fee, item.LuthierReadyDay, target))
	return next
}

// Insure buys a one-time policy that pays out if the item is repossessed.
func Insure(st GameState, itemID string) GameState {
	if st.closed() {
		return st.reject("The run is over.")
	}
	i, ok := st.findItem(itemID)
	if !ok {
		return st.reject("You don't own that.")
	}
	it := st.Inventory[i]
	if it.Insured {
		return st.reject(fmt.Sprintf("The %s is already insured.", it.Name))
	}
	fee := InsuranceFee(it)
	if st.Cash < fee {
		return st.reject(fmt.Sprintf("Insurance costs $%d.", fee))
	}
	next := st.clone()
	next.addCash(-fee)
	next.Inventory[i].Insured = true
	next.Inventory[i].InsurancePaid = fee
	next.say(MsgInfo, fmt.Sprintf("Insured the %s for $%d.", it.Name, fee))
	return next
}

// ListForAuction consigns an item to the auction house. It sells when the
// day advances past its resolve day.
func ListForAuction(st GameState, itemID string) GameState {
	if st.closed() {
		return st.reject("The run is over.")
	}
	i, ok := st.findItem(itemID)
	if !ok {
		return st.reject("You don't own that.")
	}
	it := st.Inventory[i]
	if it.Busy() {
		return st.reject(fmt.Sprintf("The %s %s.", it.Name, it.busyReason()))
	}
	if st.awaitingScare(itemID) {
		return st.reject("The buyer is still waiting on your answer about the " + it.Name + ".")
	}
	next := st.clone()
	item := &next.Inventory[i]
	item.AuctionStatus = AuctionListed
	item.AuctionListedDay = st.Day
	item.AuctionResolveDay = st.Day + listingDays
	item.AuctionPremiumRate = listingPremium
	item.AuctionBaseline = st.SellPrice(it)
	next.say(MsgInfo, fmt.Sprintf("Listed the %s at auction. Hammer falls on day %d.", it.Name, item.AuctionResolveDay))
	return next
}

func signed(v int) string {
	if v < 0 {
		return fmt.Sprintf("-$%d", -v)
	}
	return fmt.Sprintf("+$%d", v)
}
