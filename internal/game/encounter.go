package game

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"gearflip/internal/catalog"
	"gearflip/internal/market"
	"gearflip/internal/rng"
)

type EncounterKind string

const (
	EncounterBulkLot      EncounterKind = "bulk_lot"
	EncounterTradeOffer   EncounterKind = "trade_offer"
	EncounterMysterious   EncounterKind = "mysterious_listing"
	EncounterWorldAuction EncounterKind = "world_auction"
	EncounterRepairScare  EncounterKind = "repair_scare"
)

// Encounter is one of BulkLot, TradeOffer, MysteriousListing, WorldAuction or
// RepairScare. Values are replaced, never edited in place.
type Encounter interface {
	Kind() EncounterKind
	encounter()
}

type BulkLot struct {
	Items         []market.Item `json:"items"`
	Descriptors   []string      `json:"descriptors"`
	TotalCost     int           `json:"total_cost"`
	ProjectChance float64       `json:"project_chance"`
}

type TradeOffer struct {
	RequestedID   string      `json:"requested_id"`
	RequestedName string      `json:"requested_name"`
	Offered       market.Item `json:"offered"`
}

type MysteriousListing struct {
	Item         market.Item `json:"item"`
	ProofChecked bool        `json:"proof_checked"`
	ScamRisk     float64     `json:"scam_risk"`
}

type WorldAuction struct {
	Item             market.Item        `json:"item"`
	StartingBid      int                `json:"starting_bid"`
	PremiumRate      float64            `json:"premium_rate"`
	MinReputation    int                `json:"min_reputation"`
	CountdownSeconds int                `json:"countdown_seconds"`
	Resolution       *AuctionResolution `json:"resolution,omitempty"`
}

// RepairScare interrupts a manual sale.
type RepairScare struct {
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	AskPrice  int    `json:"ask_price"`
	CompPrice int    `json:"comp_price"`
}

func (BulkLot) Kind() EncounterKind           { return EncounterBulkLot }
func (TradeOffer) Kind() EncounterKind        { return EncounterTradeOffer }
func (MysteriousListing) Kind() EncounterKind { return EncounterMysterious }
func (WorldAuction) Kind() EncounterKind      { return EncounterWorldAuction }
func (RepairScare) Kind() EncounterKind       { return EncounterRepairScare }

func (BulkLot) encounter()           {}
func (TradeOffer) encounter()        {}
func (MysteriousListing) encounter() {}
func (WorldAuction) encounter()      {}
func (RepairScare) encounter()       {}

const (
	bulkPurchaseRate     = 0.75
	bulkProjectChance    = 0.35
	tradeDeclineFreebies = 2
	proofVanishChance    = 0.35
	proofRiskReduction   = 0.25
	minScamRisk          = 0.05
	mysteriousRepPenalty = 4
	mysteriousRiskBump   = 0.30
	maxMysteriousRisk    = 0.85
)

var bulkAdjectives = []string{"dusty", "taped-up", "unlabeled", "half-boxed", "sticker-covered"}

func newBulkLot(s *rng.Stream, day int, location string) BulkLot {
	pool := append(catalog.TemplatesByRarity(catalog.RarityCommon), catalog.TemplatesByRarity(catalog.RarityUncommon)...)
	count := s.IntRange(3, 4)
	lot := BulkLot{ProjectChance: bulkProjectChance}
	listed := 0
	for slot := 0; slot < count; slot++ {
		it := market.Instantiate(s, market.PickTemplate(s, pool), market.PickCondition(s), day, location, slot)
		it.ID = market.ItemID(day, "bulk lot", slot, it.Name)
		lot.Items = append(lot.Items, it)
		adj := bulkAdjectives[s.Intn(len(bulkAdjectives))]
		lot.Descriptors = append(lot.Descriptors, fmt.Sprintf("a %s %s", adj, strings.ToLower(string(it.Category))))
		listed += it.Price
	}
	lot.TotalCost = int(math.Round(float64(listed) * bulkPurchaseRate))
	return lot
}

func (b BulkLot) slots() int {
	n := 0
	for _, it := range b.Items {
		n += it.Slots()
	}
	return n
}

func newTradeOffer(s *rng.Stream, st GameState) (TradeOffer, bool) {
	var candidates []OwnedItem
	for _, it := range st.Inventory {
		if !it.Busy() {
			candidates = append(candidates, it)
		}
	}
	if len(candidates) == 0 {
		return TradeOffer{}, false
	}
	want := candidates[s.Intn(len(candidates))]
	offered := market.Instantiate(s, market.PickTemplate(s, catalog.Templates), market.PickCondition(s), st.Day, st.Location, 0)
	offered.ID = market.ItemID(st.Day, "trade", 0, offered.Name)
	return TradeOffer{RequestedID: want.ID, RequestedName: want.Name, Offered: offered}, true
}

func newMysteriousListing(s *rng.Stream, day int, location string) MysteriousListing {
	pool := append(catalog.TemplatesByRarity(catalog.RarityUncommon), catalog.TemplatesByRarity(catalog.RarityRare)...)
	t := market.PickTemplate(s, pool)
	cond := market.PickCondition(s)
	it := market.Instantiate(s, t, cond, day, location, 0)
	it.ID = market.ItemID(day, "mystery", 0, it.Name)
	it.Price = int(math.Round(float64(t.BasePrice) * cond.Multiplier() * s.Range(0.40, 0.60)))
	if it.Price < market.PriceFloor {
		it.Price = market.PriceFloor
	}
	it.Trend = market.ClassifyTrend(it.BasePrice, it.Price)
	it.ScamRisk = math.Min(maxMysteriousRisk, t.ScamRisk+mysteriousRiskBump)
	return MysteriousListing{Item: it, ScamRisk: it.ScamRisk}
}

func (g GameState) noEncounter(kind EncounterKind) GameState {
	return g.reject(fmt.Sprintf("There is no %s waiting on you.", humanKind(kind)))
}

// AcceptBulkLot buys the whole lot. If it cannot fit, the lot moves on.
func AcceptBulkLot(st GameState) GameState {
	lot, ok := st.PendingEncounter.(BulkLot)
	if !ok {
		return st.noEncounter(EncounterBulkLot)
	}
	if !st.fits(lot.slots()) {
		next := st.clone()
		next.PendingEncounter = nil
		next.say(MsgWarn, fmt.Sprintf("The lot needs %d slots and you have %d free. The seller moves on.", lot.slots(), st.FreeSlots()))
		return next
	}
	if st.Cash < lot.TotalCost {
		return st.reject(fmt.Sprintf("The lot costs $%d.", lot.TotalCost))
	}
	next := st.clone()
	next.PendingEncounter = nil
	next.addCash(-lot.TotalCost)
	s := rng.ForContext(st.RunSeed, rng.Tag(st.Day, st.Location, "bulk-accept"))
	var names []string
	for _, it := range lot.Items {
		if s.Chance(lot.ProjectChance) {
			it.Condition = catalog.ConditionProject
		}
		paid := int(math.Round(float64(it.Price) * bulkPurchaseRate))
		next.Inventory = append(next.Inventory, newOwned(it, paid, st.Day, false))
		names = append(names, fmt.Sprintf("%s (%s)", it.Name, it.Condition))
	}
	next.say(MsgGood, fmt.Sprintf("Hauled the lot home for $%d: %s.", lot.TotalCost, strings.Join(names, ", ")))
	return next
}

// AcceptTrade swaps the requested item for the offered one.
func AcceptTrade(st GameState) GameState {
	offer, ok := st.PendingEncounter.(TradeOffer)
	if !ok {
		return st.noEncounter(EncounterTradeOffer)
	}
	i, ok := st.findItem(offer.RequestedID)
	if !ok {
		next := st.clone()
		next.PendingEncounter = nil
		next.say(MsgWarn, fmt.Sprintf("You no longer have the %s. The trader shrugs and leaves.", offer.RequestedName))
		return next
	}
	it := st.Inventory[i]
	if it.Busy() {
		return st.reject(fmt.Sprintf("The %s %s.", it.Name, it.busyReason()))
	}
	if st.SlotsUsed()-it.Slots()+offer.Offered.Slots() > st.Capacity {
		return st.reject(fmt.Sprintf("The %s won't fit in your bag.", offer.Offered.Name))
	}
	next := st.clone()
	next.PendingEncounter = nil
	next.removeItem(i)
	next.Inventory = append(next.Inventory, newOwned(offer.Offered, 0, st.Day, false))
	next.addReputation(1)
	next.say(MsgGood, fmt.Sprintf("Traded your %s for a %s %s. Reputation +1.", it.Name, offer.Offered.Condition, offer.Offered.Name))
	return next
}

// DeclineTrade turns the trader down. Repeated refusals get noticed.
func DeclineTrade(st GameState) GameState {
	offer, ok := st.PendingEncounter.(TradeOffer)
	if !ok {
		return st.noEncounter(EncounterTradeOffer)
	}
	next := st.clone()
	next.PendingEncounter = nil
	next.TradeDeclines++
	if next.TradeDeclines > tradeDeclineFreebies {
		next.addReputation(-1)
		next.say(MsgBad, fmt.Sprintf("You keep the %s. Word is getting around that you never trade. Reputation -1.", offer.RequestedName))
		return next
	}
	next.say(MsgInfo, fmt.Sprintf("You keep the %s.", offer.RequestedName))
	return next
}

// AskForProof may spook the seller. Otherwise the paperwork lowers the risk.
func AskForProof(st GameState) GameState {
	ml, ok := st.PendingEncounter.(MysteriousListing)
	if !ok {
		return st.noEncounter(EncounterMysterious)
	}
	if ml.ProofChecked {
		return st.reject("You already asked. That's all the paperwork there is.")
	}
	next := st.clone()
	s := rng.ForContext(st.RunSeed, rng.Tag(st.Day, st.Location, "proof"))
	if s.Chance(proofVanishChance) {
		next.PendingEncounter = nil
		next.say(MsgBad, fmt.Sprintf("The seller of the %s stops answering. The listing is gone.", ml.Item.Name))
		return next
	}
	ml.ProofChecked = true
	ml.ScamRisk = math.Max(minScamRisk, ml.ScamRisk-proofRiskReduction)
	next.PendingEncounter = ml
	next.say(MsgInfo, fmt.Sprintf("Receipts and a serial photo check out. Scam risk now %.0f%%.", ml.ScamRisk*100))
	return next
}

// BuyMysterious buys the listing at its current risk.
func BuyMysterious(st GameState) GameState {
	ml, ok := st.PendingEncounter.(MysteriousListing)
	if !ok {
		return st.noEncounter(EncounterMysterious)
	}
	it := ml.Item
	if st.Cash < it.Price {
		return st.reject(fmt.Sprintf("You need $%d.", it.Price))
	}
	if !st.fits(it.Slots()) {
		return st.reject(fmt.Sprintf("No room for the %s.", it.Name))
	}
	next := st.clone()
	next.PendingEncounter = nil
	next.addCash(-it.Price)
	s := rng.ForContext(st.RunSeed, rng.Tag(st.Day, st.Location, "mysterious-buy"))
	if s.Chance(ml.ScamRisk) {
		next.addReputation(-mysteriousRepPenalty)
		next.say(MsgBad, fmt.Sprintf("The %s never shows up. $%d gone, reputation -%d.", it.Name, it.Price, mysteriousRepPenalty))
		return next
	}
	it.ScamRisk = ml.ScamRisk
	owned := newOwned(it, it.Price, st.Day, ml.ProofChecked)
	owned.SameDayPrice = it.Price
	next.Inventory = append(next.Inventory, owned)
	next.say(MsgGood, fmt.Sprintf("The %s is real. Picked it up for $%d.", it.Name, it.Price))
	return next
}

// AcceptComp takes the discounted offer from a repair scare.
func AcceptComp(st GameState) GameState {
	rs, ok := st.PendingEncounter.(RepairScare)
	if !ok {
		return st.noEncounter(EncounterRepairScare)
	}
	next := st.clone()
	next.PendingEncounter = nil
	i, ok := st.findItem(rs.ItemID)
	if !ok {
		next.say(MsgWarn, "The buyer wanted something you no longer have.")
		return next
	}
	if held := st.Inventory[i]; held.Busy() {
		next.say(MsgWarn, fmt.Sprintf("The %s %s, so the buyer leaves empty-handed.", held.Name, held.busyReason()))
		return next
	}
	it := next.removeItem(i)
	next.addCash(rs.CompPrice)
	next.recordSale(it, rs.CompPrice)
	next.addReputation(1)
	next.say(MsgGood, fmt.Sprintf("Sold the %s for $%d with a repair discount. Reputation +1.", it.Name, rs.CompPrice))
	return next
}

// HoldFirm refuses the discount. The item can't be sold again today.
func HoldFirm(st GameState) GameState {
	rs, ok := st.PendingEncounter.(RepairScare)
	if !ok {
		return st.noEncounter(EncounterRepairScare)
	}
	next := st.clone()
	next.PendingEncounter = nil
	next.addReputation(-1)
	if i, ok := st.findItem(rs.ItemID); ok {
		next.Inventory[i].SaleCooldownDay = st.Day + 1
	}
	next.say(MsgBad, fmt.Sprintf("You hold firm on the %s. The buyer walks and tells friends. Reputation -1.", rs.Name))
	return next
}

// DeclineEncounter takes the decline path of whatever is pending.
func DeclineEncounter(st GameState) GameState {
	switch enc := st.PendingEncounter.(type) {
	case nil:
		return st.reject("Nothing is waiting on you.")
	case TradeOffer:
		return DeclineTrade(st)
	case RepairScare:
		return HoldFirm(st)
	case WorldAuction:
		if enc.Resolution != nil {
			return DismissEncounter(st)
		}
		next := st.clone()
		next.PendingEncounter = nil
		next.say(MsgInfo, fmt.Sprintf("You sit out the auction for the %s.", enc.Item.Name))
		return next
	case BulkLot:
		next := st.clone()
		next.PendingEncounter = nil
		next.say(MsgInfo, "You pass on the bulk lot.")
		return next
	case MysteriousListing:
		next := st.clone()
		next.PendingEncounter = nil
		next.say(MsgInfo, fmt.Sprintf("You pass on the %s.", enc.Item.Name))
		return next
	default:
		return st.reject("Nothing is waiting on you.")
	}
}

// DismissEncounter clears a world auction whose result has been shown.
func DismissEncounter(st GameState) GameState {
	wa, ok := st.PendingEncounter.(WorldAuction)
	if !ok || wa.Resolution == nil {
		return st.reject("Nothing to dismiss.")
	}
	next := st.clone()
	next.PendingEncounter = nil
	return next
}

func encounterIntro(enc Encounter) string {
	switch e := enc.(type) {
	case BulkLot:
		return fmt.Sprintf("A guy with a van offers a bulk lot for $%d: %s.", e.TotalCost, strings.Join(e.Descriptors, ", "))
	case TradeOffer:
		return fmt.Sprintf("A trader wants your %s and offers a %s %s straight up.", e.RequestedName, e.Offered.Condition, e.Offered.Name)
	case MysteriousListing:
		return fmt.Sprintf("A blurry listing: %s for $%d. No photos of the serial.", e.Item.Name, e.Item.Price)
	case WorldAuction:
		return fmt.Sprintf("An auction house is selling a %s %s. Opening bid $%d, reputation %d+ to register.",
			e.Item.Condition, e.Item.Name, e.StartingBid, e.MinReputation)
	default:
		return ""
	}
}

type encounterEnvelope struct {
	Kind EncounterKind   `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func encodeEncounter(enc Encounter) (*encounterEnvelope, error) {
	if enc == nil {
		return nil, nil
	}
	data, err := json.Marshal(enc)
	if err != nil {
		return nil, err
	}
	return &encounterEnvelope{Kind: enc.Kind(), Data: data}, nil
}

func decodeEncounter(env encounterEnvelope) (Encounter, error) {
	switch env.Kind {
	case EncounterBulkLot:
		var e BulkLot
		err := json.Unmarshal(env.Data, &e)
		return e, err
	case EncounterTradeOffer:
		var e TradeOffer
		err := json.Unmarshal(env.Data, &e)
		return e, err
	case EncounterMysterious:
		var e MysteriousListing
		err := json.Unmarshal(env.Data, &e)
		return e, err
	case EncounterWorldAuction:
		var e WorldAuction
		err := json.Unmarshal(env.Data, &e)
		return e, err
	case EncounterRepairScare:
		var e RepairScare
		err := json.Unmarshal(env.Data, &e)
		return e, err
	default:
		return nil, fmt.Errorf("unknown encounter kind %q", env.Kind)
	}
}
