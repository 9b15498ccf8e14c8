package main

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gearflip/internal/catalog"
	"gearflip/internal/credit"
	"gearflip/internal/game"
	"gearflip/internal/leaderboard"
	"gearflip/internal/market"
	"gearflip/internal/store"

	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
	dim         = color.New(color.FgHiBlack)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptInt(label string, min int) (int, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(strings.TrimPrefix(text, "$"))
		if err != nil {
			printWarn("Enter a whole number.")
			continue
		}
		if v < min {
			printWarn(fmt.Sprintf("Value must be >= %d", min))
			continue
		}
		return v, nil
	}
}

func promptFloat(label string, min, max float64) (float64, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			printWarn("Enter a valid number.")
			continue
		}
		if v < min || v > max {
			printWarn(fmt.Sprintf("Value must be between %.2f and %.2f", min, max))
			continue
		}
		return v, nil
	}
}

func renderMessages(msgs []game.Message) {
	for _, m := range msgs {
		switch m.Kind {
		case game.MsgGood:
			success.Println(m.Text)
		case game.MsgBad:
			danger.Println(m.Text)
		case game.MsgWarn:
			warn.Println(m.Text)
		case game.MsgEvent:
			accent.Println(m.Text)
		default:
			neutral.Println(m.Text)
		}
	}
}

func renderStatus(st game.GameState) {
	s := st.Summary()
	accent.Printf("\n== DAY %d/%d @ %s ==\n", st.Day, st.TotalDays, strings.ToUpper(st.Location))
	fmt.Printf("Cash:        %s\n", money(st.Cash))
	fmt.Printf("Reputation:  %d\n", st.Reputation)
	fmt.Printf("Heat:        %s\n", colorizeHeat(s.HeatLevel))
	fmt.Printf("Bag:         %d/%d slots\n", s.SlotsUsed, s.Capacity)
	fmt.Printf("Score:       %s\n", money(s.Score))
	if st.Credit.Loan != nil {
		fmt.Printf("Loan:        %s due day %d\n", danger.Sprint(money(st.Credit.Loan.BalanceDue)), st.Credit.Loan.DueDay)
	}
	if st.Credit.Frozen {
		fmt.Printf("Credit:      %s\n", danger.Sprint("frozen"))
	}
	switch {
	case st.PendingDuel != nil:
		printWarn(fmt.Sprintf("%s is waiting on you. See `gearflip duel`.", st.PendingDuel.Label))
	case st.PendingEncounter != nil:
		printWarn("Something needs your attention. See `gearflip encounter`.")
	}
	if st.IsGameOver {
		printInfo("This run is over.")
	}
	fmt.Println()
}

func renderMarket(st game.GameState) {
	accent.Printf("\n== %s MARKET (day %d) ==\n", strings.ToUpper(st.Location), st.Day)
	if len(st.Market) == 0 {
		printInfo("Nothing for sale today.")
		return
	}
	fmt.Printf("%-3s %-30s %-7s %-8s %-10s %5s %9s %-7s %s\n", "#", "ITEM", "TYPE", "COND", "RARITY", "SLOTS", "PRICE", "TREND", "")
	for i, it := range st.Market {
		mark := ""
		if slices.Contains(st.InspectedMarketIDs, it.ID) {
			mark = dim.Sprintf("scam %.0f%%", it.ScamRisk*100)
		}
		fmt.Printf("%-3d %-30s %-7s %-8s %-10s %5d %9s %-7s %s\n",
			i+1,
			truncate(it.Name, 30),
			it.Category,
			it.Condition,
			it.Rarity,
			it.Slots(),
			money(it.Price),
			colorizeTrend(it.Trend),
			mark,
		)
	}
	if len(st.PerformanceMarket) > 0 {
		fmt.Println()
		accent.Println("Gear table")
		for _, b := range st.PerformanceMarket {
			fmt.Printf("  %-14s %-18s %8s\n", b.ID, b.Name, money(b.Price))
		}
	}
	fmt.Println()
}

func renderInventory(st game.GameState) {
	accent.Printf("\n== BAG %d/%d ==\n", st.SlotsUsed(), st.Capacity)
	if len(st.Inventory) == 0 {
		printInfo("Your bag is empty.")
	} else {
		fmt.Printf("%-3s %-30s %-8s %-10s %9s %9s %s\n", "#", "ITEM", "COND", "RARITY", "PAID", "SELLS", "NOTES")
		for i, it := range st.Inventory {
			fmt.Printf("%-3d %-30s %-8s %-10s %9s %9s %s\n",
				i+1,
				truncate(it.Name, 30),
				it.Condition,
				it.Rarity,
				money(it.PurchasePrice),
				money(st.SellPrice(it)),
				itemNotes(it),
			)
		}
	}
	if len(st.OwnedPerformance) > 0 {
		fmt.Printf("Gig bag: %s\n", strings.Join(st.OwnedPerformance, ", "))
	}
	var tools []string
	for _, t := range []catalog.Tool{catalog.ToolSerialScanner, catalog.ToolUVLight} {
		if st.Tools.Has(t) {
			tools = append(tools, string(t))
		}
	}
	if len(tools) > 0 {
		fmt.Printf("Tools:   %s\n", strings.Join(tools, ", "))
	}
	fmt.Println()
}

func itemNotes(it game.OwnedItem) string {
	var notes []string
	switch {
	case it.AuthStatus == game.AuthPending:
		notes = append(notes, fmt.Sprintf("auth back day %d", it.AuthReadyDay))
	case it.AuthStatus != game.AuthNone && it.AuthStatus != "":
		notes = append(notes, "auth "+string(it.AuthStatus))
	}
	if it.LuthierStatus == game.LuthierPending {
		notes = append(notes, fmt.Sprintf("bench until day %d", it.LuthierReadyDay))
	}
	if it.AuctionStatus == game.AuctionListed {
		notes = append(notes, fmt.Sprintf("auction day %d", it.AuctionResolveDay))
	}
	if it.Insured {
		notes = append(notes, "insured")
	}
	if it.Heat >= 40 {
		notes = append(notes, danger.Sprintf("heat %d", it.Heat))
	}
	return strings.Join(notes, ", ")
}

func renderShop(st game.GameState) {
	accent.Println("\n== SHOP ==")
	if cost, ok := catalog.BagUpgradeCost(st.BagTier); ok {
		fmt.Printf("  %-16s %8s  (%d -> %d slots)\n", "bag", money(cost), catalog.BagCapacity(st.BagTier), catalog.BagCapacity(st.BagTier+1))
	} else {
		fmt.Printf("  %-16s %8s\n", "bag", "maxed")
	}
	for _, t := range []catalog.Tool{catalog.ToolSerialScanner, catalog.ToolUVLight} {
		price, _ := catalog.ToolPrice(t)
		owned := ""
		if st.Tools.Has(t) {
			owned = dim.Sprint("owned")
		}
		fmt.Printf("  %-16s %8s  %s\n", t, money(price), owned)
	}
	for _, b := range st.PerformanceMarket {
		fmt.Printf("  %-16s %8s  %s\n", b.ID, money(b.Price), b.Name)
	}
	fmt.Println()
}

func renderLocations(current string) {
	accent.Println("\n== WHERE TO ==")
	for i, l := range catalog.Locations {
		name := l.Name
		if l.Name == current {
			name = success.Sprint(l.Name + " (here)")
		}
		fmt.Printf("%d. %s\n   %s\n", i+1, name, dim.Sprint(l.Blurb))
	}
	fmt.Println()
}

func renderEncounter(st game.GameState) {
	if st.PendingEncounter == nil {
		printInfo("Nothing is waiting on you.")
		return
	}
	switch e := st.PendingEncounter.(type) {
	case game.BulkLot:
		accent.Println("\n== BULK LOT ==")
		fmt.Printf("A seller wants %s for the lot:\n", money(e.TotalCost))
		for _, d := range e.Descriptors {
			fmt.Printf("  - %s\n", d)
		}
		fmt.Printf("Some of it may turn out to be a project (%.0f%%).\n", e.ProjectChance*100)
		dim.Println("accept | decline")
	case game.TradeOffer:
		accent.Println("\n== TRADE OFFER ==")
		fmt.Printf("They want your %s.\n", e.RequestedName)
		fmt.Printf("They offer a %s %s (%s, lists around %s).\n", e.Offered.Condition, e.Offered.Name, e.Offered.Rarity, money(e.Offered.Price))
		dim.Println("accept | decline")
	case game.MysteriousListing:
		accent.Println("\n== TOO GOOD TO BE TRUE ==")
		fmt.Printf("%s, %s, for %s.\n", e.Item.Name, e.Item.Condition, money(e.Item.Price))
		if e.ProofChecked {
			fmt.Printf("The seller sent proof. Scam risk now %.0f%%.\n", e.ScamRisk*100)
		} else {
			fmt.Println("No photos, no serial, cash only.")
		}
		dim.Println("accept | proof | decline")
	case game.WorldAuction:
		accent.Println("\n== WORLD AUCTION ==")
		fmt.Printf("%s (%s, %s)\n", e.Item.Name, e.Item.Condition, e.Item.Rarity)
		fmt.Printf("Opening bid %s, steps of %s, buyer's premium %.0f%%.\n",
			money(e.StartingBid), money(game.BidIncrement(e.Item.BasePrice)), e.PremiumRate*100)
		fmt.Printf("Registration needs reputation %d. You have %d.\n", e.MinReputation, st.Reputation)
		if e.Resolution != nil {
			renderAuctionResolution(*e.Resolution)
			dim.Println("dismiss")
		} else {
			dim.Println("bid <max> | decline")
		}
	case game.RepairScare:
		accent.Println("\n== THE BUYER HESITATES ==")
		fmt.Printf("The buyer found a problem with your %s.\n", e.Name)
		fmt.Printf("You asked %s. They offer %s.\n", money(e.AskPrice), money(e.CompPrice))
		dim.Println("accept | hold | decline")
	}
	fmt.Println()
}

func renderAuctionResolution(r game.AuctionResolution) {
	label := string(r.Outcome)
	switch r.Outcome {
	case game.OutcomeWon:
		label = success.Sprint("WON")
	case game.OutcomeOutbid, game.OutcomeForfeited, game.OutcomeBlocked:
		label = danger.Sprint(strings.ToUpper(label))
	default:
		label = warn.Sprint(strings.ToUpper(label))
	}
	fmt.Printf("Result: %s\n", label)
	if r.FinalPrice > 0 {
		fmt.Printf("Hammer %s + premium %s = %s\n", money(r.FinalPrice), money(r.Premium), money(r.TotalCost))
	}
	if r.MaxBid > 0 {
		fmt.Printf("Your ceiling was %s.\n", money(r.MaxBid))
	}
}

func renderDuel(st game.GameState) {
	d := st.PendingDuel
	if d == nil {
		printInfo("Nobody is challenging you right now.")
		return
	}
	accent.Printf("\n== %s ==\n", strings.ToUpper(d.Label))
	if !d.Started() {
		fmt.Println(d.Intro)
	}
	fmt.Printf("Wager %s, round %d of %d. You %.1f, them %.1f.\n", money(d.Wager), min(d.Round, d.TotalRounds), d.TotalRounds, d.PlayerScore, d.OpponentScore)
	if d.LastReaction != "" {
		dim.Println(d.LastReaction)
	}
	if d.SelectedOptionID != "" {
		fmt.Printf("Playing: %s", d.SelectedOptionID)
		if d.BoostID != "" {
			fmt.Printf(" with %s", d.BoostID)
		}
		fmt.Println()
		dim.Println("play")
	} else {
		for _, o := range d.Options {
			fmt.Printf("  %-16s %s\n", o.ID, o.Label)
		}
		if len(st.OwnedPerformance) > 0 {
			fmt.Printf("Gig bag: %s\n", strings.Join(st.OwnedPerformance, ", "))
		}
		dim.Println("pick <option> [--boost id] | decline")
	}
	fmt.Println()
}

func renderCredit(st game.GameState) {
	tier := credit.TierFor(st.Reputation)
	accent.Println("\n== CREDIT ==")
	switch {
	case st.Credit.Frozen:
		printError("Your line is frozen after a default.")
	case tier.Limit == 0:
		printWarn("Nobody will lend to you at this reputation.")
	default:
		fmt.Printf("Limit %s at %.0f%%, due in %d days.\n", money(tier.Limit), tier.Rate*100, credit.TermDays)
	}
	if l := st.Credit.Loan; l != nil {
		fmt.Printf("Borrowed %s on day %d. Owe %s by day %d.\n", money(l.Principal), l.DrawDay, money(l.BalanceDue), l.DueDay)
	}
	fmt.Println()
}

func renderSummary(st game.GameState) {
	s := st.Summary()
	accent.Println("\n== RUN SUMMARY ==")
	fmt.Printf("Seed:             %s\n", st.RunSeed)
	fmt.Printf("Day:              %d/%d\n", s.Day, s.TotalDays)
	fmt.Printf("Cash:             %s\n", money(s.Cash))
	fmt.Printf("Inventory value:  %s\n", money(s.InventoryValue))
	fmt.Printf("Reputation bonus: %s\n", money(s.ReputationBonus))
	success.Printf("Score:            %s\n", money(s.Score))
	if s.BestFlip != nil {
		fmt.Printf("Best flip:        %s (%s profit, day %d)\n", s.BestFlip.Name, signedMoney(s.BestFlip.Profit), s.BestFlip.Day)
	}
	if s.RarestSold != nil {
		fmt.Printf("Rarest sold:      %s (%s)\n", s.RarestSold.Name, s.RarestSold.Rarity)
	}
	fmt.Println()
}

func renderLeaderboard(rows []leaderboard.Entry) {
	accent.Println("\n== LEADERBOARD ==")
	if len(rows) == 0 {
		printInfo("No ranked runs yet.")
		return
	}
	fmt.Printf("%-6s %-24s %12s %-20s %s\n", "RANK", "PLAYER", "SCORE", "BEST FLIP", "WHEN")
	for _, r := range rows {
		fmt.Printf("%-6d %-24s %12s %-20s %s\n",
			r.Rank,
			truncate(r.DisplayName, 24),
			money(r.Score),
			truncate(r.BestFlip, 20),
			r.SubmittedAt.Local().Format(time.DateOnly),
		)
	}
	fmt.Println()
}

func renderSaves(slots []store.Slot, current string) {
	accent.Println("\n== SAVES ==")
	if len(slots) == 0 {
		printInfo("No saved runs.")
		return
	}
	fmt.Printf("%-2s %-16s %-14s %-8s %12s %s\n", "", "SLOT", "SEED", "DAY", "SCORE", "UPDATED")
	for _, s := range slots {
		mark := ""
		if s.Name == current {
			mark = "*"
		}
		day := fmt.Sprintf("%d/%d", s.Day, s.TotalDays)
		if s.GameOver {
			day = "done"
		}
		fmt.Printf("%-2s %-16s %-14s %-8s %12s %s\n", mark, s.Name, truncate(s.RunSeed, 14), day, money(s.Score), s.UpdatedAt.Local().Format(time.DateTime))
	}
	fmt.Println()
}

func colorizeHeat(h game.HeatLevel) string {
	switch h {
	case game.HeatHigh:
		return danger.Sprint(h)
	case game.HeatMedium:
		return warn.Sprint(h)
	default:
		return success.Sprint(h)
	}
}

func colorizeTrend(t market.Trend) string {
	switch t {
	case market.TrendUp:
		return danger.Sprint("up")
	case market.TrendDown:
		return success.Sprint("down")
	default:
		return neutral.Sprint("flat")
	}
}

func money(v int) string {
	if v < 0 {
		return "-$" + comma(-v)
	}
	return "$" + comma(v)
}

func signedMoney(v int) string {
	if v > 0 {
		return "+" + money(v)
	}
	return money(v)
}

func comma(v int) string {
	s := strconv.Itoa(v)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
