package game

import "gearflip/internal/credit"

// DrawCredit opens a loan against the player's reputation tier.
func DrawCredit(st GameState, amount int) GameState {
	if st.closed() {
		return st.reject("The run is over.")
	}
	return st.applyCredit(credit.Draw(st.Credit, st.Reputation, amount, st.Day))
}

// RepayCredit pays down the active loan with up to amount of cash.
func RepayCredit(st GameState, amount int) GameState {
	return st.applyCredit(credit.Repay(st.Credit, st.Cash, amount))
}

func (g GameState) applyCredit(res credit.Result) GameState {
	next := g.clone()
	kind := MsgInfo
	if !res.OK {
		kind = MsgWarn
	}
	next.applyCreditResult(res, kind)
	return next
}

func (g *GameState) applyCreditResult(res credit.Result, kind MessageKind) {
	g.Credit = res.Line
	g.addCash(res.CashDelta)
	g.addReputation(res.ReputationDelta)
	for _, n := range res.Notes {
		g.say(kind, n)
	}
}
