// Package game holds the authoritative run state and every transform over it:
// player actions, encounter resolution, the day-advance state machine and the
// score projection.
//
// Transforms take a GameState by value and return a new one. They never fail;
// a rejected action returns the prior state plus a message explaining why.
package game

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gearflip/internal/catalog"
	"gearflip/internal/credit"
	"gearflip/internal/duel"
	"gearflip/internal/market"
)

const (
	StartingCash       = 1000
	StartingReputation = 40
	StandardRunLength  = 21
	MinRunLength       = 7
	MaxRunLength       = 90
	MaxReputation      = 100
)

type MessageKind string

const (
	MsgInfo  MessageKind = "info"
	MsgGood  MessageKind = "good"
	MsgBad   MessageKind = "bad"
	MsgWarn  MessageKind = "warn"
	MsgEvent MessageKind = "event"
)

// Message is one line of the run log. IDs are cosmetic and not seeded.
type Message struct {
	ID   string      `json:"id"`
	Day  int         `json:"day"`
	Kind MessageKind `json:"kind"`
	Text string      `json:"text"`
}

type AuthStatus string

const (
	AuthNone    AuthStatus = "none"
	AuthPending AuthStatus = "pending"
	AuthSuccess AuthStatus = "success"
	AuthPartial AuthStatus = "partial"
	AuthFail    AuthStatus = "fail"
)

type LuthierStatus string

const (
	LuthierNone     LuthierStatus = "none"
	LuthierPending  LuthierStatus = "pending"
	LuthierComplete LuthierStatus = "complete"
)

type AuctionStatus string

const (
	AuctionNone   AuctionStatus = "none"
	AuctionListed AuctionStatus = "listed"
)

// OwnedItem is a listing snapshot plus everything that happened to it since
// the player acquired it.
type OwnedItem struct {
	market.Item
	PurchasePrice   int  `json:"purchase_price"`
	Heat            int  `json:"heat"`
	DayAcquired     int  `json:"day_acquired"`
	SameDayPrice    int  `json:"same_day_price,omitempty"`
	SaleCooldownDay int  `json:"sale_cooldown_day,omitempty"`
	Inspected       bool `json:"inspected"`

	AuctionStatus      AuctionStatus `json:"auction_status"`
	AuctionListedDay   int           `json:"auction_listed_day,omitempty"`
	AuctionResolveDay  int           `json:"auction_resolve_day,omitempty"`
	AuctionPremiumRate float64       `json:"auction_premium_rate,omitempty"`
	AuctionBaseline    int           `json:"auction_baseline,omitempty"`

	AuthStatus     AuthStatus `json:"auth_status"`
	AuthReadyDay   int        `json:"auth_ready_day,omitempty"`
	AuthOutcome    AuthStatus `json:"auth_outcome,omitempty"`
	AuthMultiplier float64    `json:"auth_multiplier"`

	Insured       bool `json:"insured"`
	InsurancePaid int  `json:"insurance_paid,omitempty"`

	LuthierStatus   LuthierStatus     `json:"luthier_status"`
	LuthierReadyDay int               `json:"luthier_ready_day,omitempty"`
	LuthierTarget   catalog.Condition `json:"luthier_target,omitempty"`
}

// Busy reports whether the item is tied up in authentication, repair or a
// listing. Busy items cannot be sold, authenticated, repaired or listed.
func (it OwnedItem) Busy() bool {
	return it.AuthStatus == AuthPending || it.LuthierStatus == LuthierPending || it.AuctionStatus == AuctionListed
}

func (it OwnedItem) busyReason() string {
	switch {
	case it.AuthStatus == AuthPending:
		return "is out for authentication"
	case it.LuthierStatus == LuthierPending:
		return "is on the luthier's bench"
	case it.AuctionStatus == AuctionListed:
		return "is listed at auction"
	default:
		return ""
	}
}

func newOwned(listing market.Item, paid, day int, inspected bool) OwnedItem {
	return OwnedItem{
		Item:           listing,
		PurchasePrice:  paid,
		Heat:           heatFor(listing.HeatRisk),
		DayAcquired:    day,
		Inspected:      inspected,
		AuctionStatus:  AuctionNone,
		AuthStatus:     AuthNone,
		AuthMultiplier: 1,
		LuthierStatus:  LuthierNone,
	}
}

type FlipRecord struct {
	Name   string `json:"name"`
	Profit int    `json:"profit"`
	Day    int    `json:"day"`
}

type SoldRecord struct {
	Name   string         `json:"name"`
	Rarity catalog.Rarity `json:"rarity"`
	Price  int            `json:"price"`
	Day    int            `json:"day"`
}

type Tools struct {
	SerialScanner bool `json:"serial_scanner"`
	UVLight       bool `json:"uv_light"`
}

func (t Tools) Has(tool catalog.Tool) bool {
	switch tool {
	case catalog.ToolSerialScanner:
		return t.SerialScanner
	case catalog.ToolUVLight:
		return t.UVLight
	default:
		return false
	}
}

// GameState is the whole run. PendingEncounter is serialized through an
// envelope; see MarshalJSON.
type GameState struct {
	RunSeed            string          `json:"run_seed"`
	Day                int             `json:"day"`
	TotalDays          int             `json:"total_days"`
	Location           string          `json:"location"`
	Cash               int             `json:"cash"`
	BagTier            int             `json:"bag_tier"`
	Capacity           int             `json:"inventory_capacity"`
	Inventory          []OwnedItem     `json:"inventory"`
	Reputation         int             `json:"reputation"`
	InspectedMarketIDs []string        `json:"inspected_market_ids"`
	RecentFlipDays     []int           `json:"recent_flip_days"`
	IsGameOver         bool            `json:"is_game_over"`
	BestFlip           *FlipRecord     `json:"best_flip,omitempty"`
	RarestSold         *SoldRecord     `json:"rarest_sold,omitempty"`
	Tools              Tools           `json:"tools"`
	PendingDuel        *duel.State     `json:"pending_duel,omitempty"`
	PendingEncounter   Encounter       `json:"-"`
	TradeDeclines      int             `json:"trade_declines"`
	PerformanceMarket  []catalog.Boost `json:"performance_market"`
	OwnedPerformance   []string        `json:"owned_performance"`
	Market             []market.Item   `json:"market"`
	ShiftID            market.ShiftID  `json:"shift_id,omitempty"`
	Messages           []Message       `json:"messages"`
	Credit             credit.Line     `json:"credit"`
}

// NewGame starts a run. totalDays is clamped to the allowed run lengths and an
// unknown location falls back to the default.
func NewGame(seed string, totalDays int, location string) GameState {
	if strings.TrimSpace(seed) == "" {
		seed = NewSeed()
	}
	if _, ok := catalog.LookupLocation(location); !ok {
		location = catalog.DefaultLocation
	}
	st := GameState{
		RunSeed:            seed,
		Day:                1,
		TotalDays:          ClampRunLength(totalDays),
		Location:           location,
		Cash:               StartingCash,
		Capacity:           catalog.BagCapacity(0),
		Inventory:          []OwnedItem{},
		Reputation:         StartingReputation,
		InspectedMarketIDs: []string{},
		RecentFlipDays:     []int{},
		OwnedPerformance:   []string{},
	}
	st.say(MsgInfo, fmt.Sprintf("You roll into %s with $%d and a bag that holds %d slots.", location, st.Cash, st.Capacity))
	macro := st.stockMarket()
	for _, m := range macro {
		st.say(MsgEvent, m)
	}
	return st
}

// NewSeed returns a fresh run seed.
func NewSeed() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func ClampRunLength(days int) int {
	if days == 0 {
		return StandardRunLength
	}
	if days < MinRunLength {
		return MinRunLength
	}
	if days > MaxRunLength {
		return MaxRunLength
	}
	return days
}

// stockMarket fills today's listings, shift event and boosts for the current
// day and location, returning the macro-condition messages.
func (g *GameState) stockMarket() []string {
	items := market.Generate(g.Day, g.Location, g.RunSeed)
	sh := market.PickShift(g.Day, g.Location, g.RunSeed)
	g.Market = market.ApplyShift(sh, items, g.RunSeed, g.Day, g.Location)
	g.ShiftID = sh.ID
	g.PerformanceMarket = market.Boosts(g.Day, g.Location, g.RunSeed)
	return []string{sh.Title + ": " + sh.Narrative, market.Recap(g.Location, g.Market)}
}

func (g GameState) clone() GameState {
	next := g
	next.Inventory = append([]OwnedItem(nil), g.Inventory...)
	next.InspectedMarketIDs = append([]string(nil), g.InspectedMarketIDs...)
	next.RecentFlipDays = append([]int(nil), g.RecentFlipDays...)
	next.PerformanceMarket = append([]catalog.Boost(nil), g.PerformanceMarket...)
	next.OwnedPerformance = append([]string(nil), g.OwnedPerformance...)
	next.Market = append([]market.Item(nil), g.Market...)
	next.Messages = append([]Message(nil), g.Messages...)
	if g.BestFlip != nil {
		bf := *g.BestFlip
		next.BestFlip = &bf
	}
	if g.RarestSold != nil {
		rs := *g.RarestSold
		next.RarestSold = &rs
	}
	if g.PendingDuel != nil {
		d := *g.PendingDuel
		d.Options = append([]duel.Option(nil), d.Options...)
		next.PendingDuel = &d
	}
	if g.Credit.Loan != nil {
		loan := *g.Credit.Loan
		next.Credit.Loan = &loan
	}
	return next
}

func (g *GameState) say(kind MessageKind, text string) {
	g.Messages = append(g.Messages, Message{ID: uuid.NewString(), Day: g.Day, Kind: kind, Text: text})
}

// reject returns a copy of g with a warning appended and nothing else changed.
func (g GameState) reject(text string) GameState {
	next := g.clone()
	next.say(MsgWarn, text)
	return next
}

func (g *GameState) addCash(delta int) {
	g.Cash += delta
	if g.Cash < 0 {
		g.Cash = 0
	}
}

func (g *GameState) addReputation(delta int) {
	g.Reputation = clampInt(g.Reputation+delta, 0, MaxReputation)
}

// SlotsUsed is the inventory slot sum.
func (g GameState) SlotsUsed() int {
	used := 0
	for _, it := range g.Inventory {
		used += it.Slots()
	}
	return used
}

func (g GameState) FreeSlots() int {
	return g.Capacity - g.SlotsUsed()
}

func (g GameState) fits(slots int) bool {
	return g.SlotsUsed()+slots <= g.Capacity
}

func (g GameState) findItem(id string) (int, bool) {
	for i, it := range g.Inventory {
		if it.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (g GameState) findListing(id string) (int, bool) {
	for i, it := range g.Market {
		if it.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (g GameState) inspected(listingID string) bool {
	for _, id := range g.InspectedMarketIDs {
		if id == listingID {
			return true
		}
	}
	return false
}

func (g *GameState) removeItem(i int) OwnedItem {
	it := g.Inventory[i]
	g.Inventory = append(g.Inventory[:i:i], g.Inventory[i+1:]...)
	return it
}

func (g GameState) hasCategory(c catalog.Category) bool {
	for _, it := range g.Inventory {
		if it.Category == c {
			return true
		}
	}
	return false
}

// Busy reports whether a duel or encounter is waiting on the player.
func (g GameState) Busy() bool {
	return g.PendingDuel != nil || g.PendingEncounter != nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
