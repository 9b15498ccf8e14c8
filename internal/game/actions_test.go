package game

import (
	"reflect"
	"testing"

	"gearflip/internal/catalog"
	"gearflip/internal/market"
)

func TestInspectTracksListing(t *testing.T) {
	st := blankState()
	st.Market = []market.Item{listing("amp", catalog.CategoryAmp, 400, 380)}
	st = Inspect(st, "amp")
	st = Inspect(st, "amp")
	if len(st.InspectedMarketIDs) != 1 || st.InspectedMarketIDs[0] != "amp" {
		t.Fatalf("inspected ids %v", st.InspectedMarketIDs)
	}
	before := len(st.Messages)
	st = Inspect(st, "missing")
	if len(st.Messages) != before+1 || lastMessage(st).Kind != MsgWarn {
		t.Fatalf("missing listing should only warn")
	}
}

func TestBuyAddsItemAndSpendsCash(t *testing.T) {
	st := blankState()
	st.Market = []market.Item{listing("amp", catalog.CategoryAmp, 400, 380)}
	st.Market[0].HeatRisk = 0.12
	next := Buy(st, "amp")
	if next.Cash != 620 {
		t.Fatalf("cash %d", next.Cash)
	}
	if len(next.Inventory) != 1 || next.Inventory[0].PurchasePrice != 380 || next.Inventory[0].Heat != 12 {
		t.Fatalf("inventory %+v", next.Inventory)
	}
	if len(next.Market) != 0 {
		t.Fatalf("listing should leave the market")
	}
	if len(st.Market) != 1 || st.Cash != 1000 {
		t.Fatalf("input state mutated")
	}
}

func TestBuyRejectsWithoutMutation(t *testing.T) {
	st := blankState()
	st.Market = []market.Item{listing("amp", catalog.CategoryAmp, 400, 380)}
	st.Inventory = []OwnedItem{
		owned("a1", catalog.CategoryAmp, 100),
		owned("a2", catalog.CategoryAmp, 100),
	}
	// 6 of 8 slots used, an amp needs 3.
	next := Buy(st, "amp")
	if len(next.Inventory) != 2 || next.Cash != st.Cash || len(next.Market) != 1 {
		t.Fatalf("over-capacity buy mutated state")
	}
	if lastMessage(next).Kind != MsgWarn {
		t.Fatalf("expected a warning")
	}

	poor := blankState()
	poor.Cash = 10
	poor.Market = []market.Item{listing("amp", catalog.CategoryAmp, 400, 380)}
	if got := Buy(poor, "amp"); got.Cash != 10 || len(got.Inventory) != 0 {
		t.Fatalf("unaffordable buy went through")
	}
}

func TestCapacityHoldsAcrossBuys(t *testing.T) {
	st := blankState()
	st.Cash = 100_000
	for i := 0; i < 6; i++ {
		st.Market = append(st.Market, listing(string(rune('a'+i)), catalog.CategoryGuitar, 100, 100))
	}
	for i := 0; i < 6; i++ {
		st = Buy(st, string(rune('a'+i)))
		if st.SlotsUsed() > st.Capacity {
			t.Fatalf("slots %d exceed capacity %d", st.SlotsUsed(), st.Capacity)
		}
	}
	if len(st.Inventory) != 4 {
		t.Fatalf("expected 4 guitars in 8 slots, got %d", len(st.Inventory))
	}
}

func TestBuyScam(t *testing.T) {
	st := blankState()
	st.Market = []market.Item{listing("fake", catalog.CategoryPedal, 200, 150)}
	st.Market[0].ScamRisk = 1
	next := Buy(st, "fake")
	if next.Cash != 850 || len(next.Inventory) != 0 || next.Reputation != 37 {
		t.Fatalf("scam outcome cash=%d inv=%d rep=%d", next.Cash, len(next.Inventory), next.Reputation)
	}
	if lastMessage(next).Kind != MsgBad {
		t.Fatalf("expected a bad message")
	}
}

func TestSellPrice(t *testing.T) {
	st := blankState()
	it := owned("p", catalog.CategoryParts, 100)
	if got := st.SellPrice(it); got != 90 {
		t.Fatalf("sell price %d want 90", got)
	}
	it.AuthMultiplier = 1.08
	it.Condition = catalog.ConditionMint
	// 100 * 1.2 * 1.08 * 0.9
	if got := st.SellPrice(it); got != 117 {
		t.Fatalf("mint authenticated price %d want 117", got)
	}
	it.BasePrice = 10
	if got := st.SellPrice(it); got != minSellPrice {
		t.Fatalf("floor %d", got)
	}
}

func TestSameDayOverride(t *testing.T) {
	st := blankState()
	it := owned("p", catalog.CategoryParts, 100)
	it.SameDayPrice = 55
	if got := st.SellPrice(it); got != 55 {
		t.Fatalf("same-day price %d", got)
	}
	st.Day = 2
	if got := st.SellPrice(it); got != 90 {
		t.Fatalf("override should lapse after the acquisition day, got %d", got)
	}
}

func TestSellUpdatesBestsMonotonically(t *testing.T) {
	st := blankState()
	cheap := owned("amp", catalog.CategoryParts, 100)
	cheap.PurchasePrice = 10
	rare := owned("strat", catalog.CategoryParts, 100)
	rare.PurchasePrice = 80
	rare.Rarity = catalog.RarityRare
	plain := owned("delay", catalog.CategoryParts, 100)
	plain.PurchasePrice = 85
	st.Inventory = []OwnedItem{cheap, rare, plain}

	st = Sell(st, "amp")
	if st.BestFlip == nil || st.BestFlip.Profit != 80 {
		t.Fatalf("best flip %+v", st.BestFlip)
	}
	st = Sell(st, "strat")
	if st.BestFlip.Profit != 80 || st.RarestSold.Rarity != catalog.RarityRare {
		t.Fatalf("bests after rare sale: %+v %+v", st.BestFlip, st.RarestSold)
	}
	st = Sell(st, "delay")
	if st.BestFlip.Profit != 80 || st.RarestSold.Rarity != catalog.RarityRare {
		t.Fatalf("bests regressed: %+v %+v", st.BestFlip, st.RarestSold)
	}
	if len(st.Inventory) != 0 || st.Cash != 1270 {
		t.Fatalf("inventory=%d cash=%d", len(st.Inventory), st.Cash)
	}
	if st.RecentFlips() != 3 {
		t.Fatalf("recent flips %d", st.RecentFlips())
	}
}

func TestSellCanTriggerRepairScare(t *testing.T) {
	st := blankState()
	st.Inventory = []OwnedItem{owned("axe", catalog.CategoryParts, 100)}
	next := Sell(st, "axe")
	rs, ok := next.PendingEncounter.(RepairScare)
	if !ok {
		t.Fatalf("expected repair scare, got %#v", next.PendingEncounter)
	}
	if rs.AskPrice != 90 || rs.CompPrice != 77 || len(next.Inventory) != 1 {
		t.Fatalf("scare %+v", rs)
	}
	if again := Sell(next, "axe"); len(again.Inventory) != 1 {
		t.Fatalf("re-selling bypassed the scare")
	}

	comp := AcceptComp(next)
	if comp.Cash != 1077 || comp.Reputation != 41 || len(comp.Inventory) != 0 || comp.PendingEncounter != nil {
		t.Fatalf("comp cash=%d rep=%d", comp.Cash, comp.Reputation)
	}

	held := HoldFirm(next)
	if held.Reputation != 39 || held.PendingEncounter != nil || held.Inventory[0].SaleCooldownDay != 2 {
		t.Fatalf("hold firm rep=%d item=%+v", held.Reputation, held.Inventory[0])
	}
	if blocked := Sell(held, "axe"); len(blocked.Inventory) != 1 {
		t.Fatalf("item sold during cooldown")
	}
}

func TestScaredItemCannotBeLockedThenComped(t *testing.T) {
	st := blankState()
	st.Inventory = []OwnedItem{owned("axe", catalog.CategoryParts, 100)}
	scared := Sell(st, "axe")
	if _, ok := scared.PendingEncounter.(RepairScare); !ok {
		t.Fatalf("expected repair scare, got %#v", scared.PendingEncounter)
	}

	locks := map[string]func(GameState, string) GameState{
		"list":         ListForAuction,
		"authenticate": Authenticate,
		"luthier":      SendToLuthier,
	}
	for name, lock := range locks {
		locked := lock(scared, "axe")
		if !reflect.DeepEqual(locked.Inventory, scared.Inventory) || locked.Cash != scared.Cash {
			t.Fatalf("%s went through while the buyer was waiting: %+v", name, locked.Inventory)
		}
		if lastMessage(locked).Kind != MsgWarn {
			t.Fatalf("%s: expected a warning, got %+v", name, lastMessage(locked))
		}
	}

	busy := map[string]func(*OwnedItem){
		"listed": func(it *OwnedItem) { it.AuctionStatus = AuctionListed; it.AuctionResolveDay = 3 },
		"auth":   func(it *OwnedItem) { it.AuthStatus = AuthPending; it.AuthReadyDay = 3 },
	}
	for name, mark := range busy {
		forced := scared.clone()
		mark(&forced.Inventory[0])
		got := AcceptComp(forced)
		if len(got.Inventory) != 1 || got.Cash != forced.Cash || got.Reputation != forced.Reputation {
			t.Fatalf("%s item was comped: inventory=%d cash=%d", name, len(got.Inventory), got.Cash)
		}
		if got.PendingEncounter != nil || lastMessage(got).Kind != MsgWarn {
			t.Fatalf("%s: scare should close with a warning", name)
		}
	}
}

func TestRepairScareTakesStaleEncounterSlot(t *testing.T) {
	st := bulkState()
	st.Inventory = []OwnedItem{owned("axe", catalog.CategoryParts, 100)}
	next := Sell(st, "axe")
	rs, ok := next.PendingEncounter.(RepairScare)
	if !ok || rs.ItemID != "axe" || len(next.Inventory) != 1 {
		t.Fatalf("scare did not replace the bulk lot: %#v", next.PendingEncounter)
	}

	live := blankState()
	live.Inventory = []OwnedItem{owned("axe", catalog.CategoryParts, 100)}
	live.PendingEncounter = WorldAuction{
		Item:        listing("w", catalog.CategoryGuitar, 9000, 9000),
		StartingBid: 5400,
		PremiumRate: worldPremiumRate,
	}
	walked := Sell(live, "axe")
	if _, ok := walked.PendingEncounter.(WorldAuction); !ok {
		t.Fatalf("live auction was displaced: %#v", walked.PendingEncounter)
	}
	if len(walked.Inventory) != 1 || walked.Cash != live.Cash || walked.Inventory[0].SaleCooldownDay != 2 {
		t.Fatalf("walk-away sale cash=%d item=%+v", walked.Cash, walked.Inventory)
	}
}

func TestBusyItemsAreFrozen(t *testing.T) {
	busy := map[string]func(*OwnedItem){
		"auth":    func(it *OwnedItem) { it.AuthStatus = AuthPending; it.AuthReadyDay = 3 },
		"luthier": func(it *OwnedItem) { it.LuthierStatus = LuthierPending; it.LuthierReadyDay = 3 },
		"listed":  func(it *OwnedItem) { it.AuctionStatus = AuctionListed; it.AuctionResolveDay = 3 },
	}
	actions := map[string]func(GameState, string) GameState{
		"sell":         Sell,
		"authenticate": Authenticate,
		"luthier":      SendToLuthier,
		"list":         ListForAuction,
	}
	for bname, mark := range busy {
		st := blankState()
		it := owned("amp", catalog.CategoryAmp, 500)
		it.Condition = catalog.ConditionProject
		mark(&it)
		st.Inventory = []OwnedItem{it}
		for aname, act := range actions {
			next := act(st, "amp")
			if !reflect.DeepEqual(next.Inventory, st.Inventory) || next.Cash != st.Cash {
				t.Fatalf("%s on %s item changed state: %+v", aname, bname, next.Inventory)
			}
		}
	}
}

func TestAuthenticateLocksOutcome(t *testing.T) {
	st := blankState()
	st.Inventory = []OwnedItem{owned("amp", catalog.CategoryAmp, 1000)}
	next := Authenticate(st, "amp")
	it := next.Inventory[0]
	if it.AuthStatus != AuthPending || it.AuthReadyDay != 3 {
		t.Fatalf("auth state %+v", it)
	}
	switch it.AuthOutcome {
	case AuthSuccess, AuthPartial, AuthFail:
	default:
		t.Fatalf("outcome not locked: %q", it.AuthOutcome)
	}
	if next.Cash != 1000-AuthFee(st.Inventory[0]) || AuthFee(st.Inventory[0]) != 80 {
		t.Fatalf("fee charged %d", 1000-next.Cash)
	}
	again := Authenticate(Authenticate(st, "amp"), "amp")
	if again.Inventory[0].AuthOutcome != it.AuthOutcome {
		t.Fatalf("outcome not deterministic")
	}

	done := st
	done.Inventory = []OwnedItem{owned("amp", catalog.CategoryAmp, 1000)}
	done.Inventory[0].AuthStatus = AuthFail
	if got := Authenticate(done, "amp"); got.Cash != done.Cash {
		t.Fatalf("re-authentication allowed")
	}
}

func TestLuthierAndInsurance(t *testing.T) {
	st := blankState()
	it := owned("ped", catalog.CategoryPedal, 200)
	it.Condition = catalog.ConditionProject
	st.Inventory = []OwnedItem{it}

	next := SendToLuthier(st, "ped")
	got := next.Inventory[0]
	if got.LuthierStatus != LuthierPending || got.LuthierTarget != catalog.ConditionGood || next.Cash != 940 {
		t.Fatalf("luthier %+v cash=%d", got, next.Cash)
	}

	ins := Insure(st, "ped")
	if !ins.Inventory[0].Insured || ins.Inventory[0].InsurancePaid != 16 || ins.Cash != 984 {
		t.Fatalf("insurance %+v cash=%d", ins.Inventory[0], ins.Cash)
	}
	if twice := Insure(ins, "ped"); twice.Cash != ins.Cash {
		t.Fatalf("insured twice")
	}

	mint := blankState()
	m := owned("m", catalog.CategoryPedal, 200)
	m.Condition = catalog.ConditionMint
	mint.Inventory = []OwnedItem{m}
	if got := SendToLuthier(mint, "m"); got.Cash != mint.Cash {
		t.Fatalf("mint item sent to luthier")
	}
}

func TestListForAuction(t *testing.T) {
	st := blankState()
	st.Inventory = []OwnedItem{owned("p", catalog.CategoryParts, 100)}
	next := ListForAuction(st, "p")
	it := next.Inventory[0]
	if it.AuctionStatus != AuctionListed || it.AuctionResolveDay != 3 || it.AuctionBaseline != 90 || it.AuctionPremiumRate != listingPremium {
		t.Fatalf("listing %+v", it)
	}
}

func TestShopActions(t *testing.T) {
	st := blankState()
	st = UpgradeBag(st)
	if st.BagTier != 1 || st.Capacity != 12 || st.Cash != 650 {
		t.Fatalf("bag tier=%d cap=%d cash=%d", st.BagTier, st.Capacity, st.Cash)
	}
	st = UpgradeBag(st)
	if st.BagTier != 1 {
		t.Fatalf("upgrade without cash")
	}

	st = BuyTool(st, catalog.ToolUVLight)
	if !st.Tools.UVLight || st.Cash != 500 {
		t.Fatalf("uv light tools=%+v cash=%d", st.Tools, st.Cash)
	}
	if again := BuyTool(st, catalog.ToolUVLight); again.Cash != 500 {
		t.Fatalf("bought tool twice")
	}

	st.PerformanceMarket = []catalog.Boost{catalog.Boosts[0]}
	st = BuyBoost(st, catalog.Boosts[0].ID)
	if len(st.OwnedPerformance) != 1 || st.Cash != 500-catalog.Boosts[0].Price {
		t.Fatalf("boost owned=%v cash=%d", st.OwnedPerformance, st.Cash)
	}
	if got := BuyBoost(st, "not-for-sale"); len(got.OwnedPerformance) != 1 {
		t.Fatalf("bought boost not on the table")
	}
}

func TestHeatLevel(t *testing.T) {
	st := blankState()
	if st.HeatLevel() != HeatLow {
		t.Fatalf("empty inventory heat %s", st.HeatLevel())
	}
	a := owned("a", catalog.CategoryParts, 100)
	a.Heat = 50
	st.Inventory = []OwnedItem{a}
	st.RecentFlipDays = []int{1}
	if st.HeatLevel() != HeatMedium {
		t.Fatalf("heat 60 should be medium, got %s", st.HeatLevel())
	}
	b := a
	b.ID = "b"
	b.Heat = 60
	st.Inventory = append(st.Inventory, b)
	if st.HeatLevel() != HeatHigh {
		t.Fatalf("heat 110 + flip should be high, got %s", st.HeatLevel())
	}
}

func TestScore(t *testing.T) {
	st := blankState()
	st.Inventory = []OwnedItem{owned("p", catalog.CategoryParts, 100)}
	if got := st.Score(); got != 1000+90+40*20 {
		t.Fatalf("score %d", got)
	}
	if st.Summary().Score != st.Score() {
		t.Fatalf("summary score disagrees")
	}
}

func TestActionsRejectedAfterGameOver(t *testing.T) {
	st := blankState()
	st.IsGameOver = true
	st.Market = []market.Item{listing("x", catalog.CategoryParts, 50, 50)}
	if got := Buy(st, "x"); len(got.Inventory) != 0 || got.Cash != st.Cash {
		t.Fatalf("bought after game over")
	}
}
