// Package credit implements the run's single credit line: reputation-tiered
// draws, flat-fee balances, default freezes and cash garnishment.
package credit

import (
	"fmt"
	"math"
)

const (
	TermDays          = 3
	GarnishRate       = 0.30
	DefaultRepPenalty = 10
)

// Loan balances are fixed at draw time and only ever decrease.
type Loan struct {
	Principal      int     `json:"principal"`
	BalanceDue     int     `json:"balance_due"`
	Rate           float64 `json:"rate"`
	DrawDay        int     `json:"draw_day"`
	DueDay         int     `json:"due_day"`
	Defaulted      bool    `json:"defaulted"`
	PenaltyApplied bool    `json:"penalty_applied"`
}

type Line struct {
	Frozen bool  `json:"frozen"`
	Loan   *Loan `json:"loan,omitempty"`
}

func (l Line) clone() Line {
	if l.Loan != nil {
		loan := *l.Loan
		l.Loan = &loan
	}
	return l
}

type Tier struct {
	MinReputation int
	Limit         int
	Rate          float64
}

var tiers = []Tier{
	{MinReputation: 80, Limit: 15_000, Rate: 0.12},
	{MinReputation: 65, Limit: 10_000, Rate: 0.16},
	{MinReputation: 50, Limit: 7_500, Rate: 0.20},
	{MinReputation: 30, Limit: 3_000, Rate: 0.28},
}

// TierFor returns the limit and rate for a reputation. Below the lowest tier
// the limit is 0.
func TierFor(reputation int) Tier {
	for _, t := range tiers {
		if reputation >= t.MinReputation {
			return t
		}
	}
	return Tier{}
}

// Result is the outcome of a credit transform. Cash and reputation deltas are
// applied by the caller.
type Result struct {
	Line            Line
	OK              bool
	CashDelta       int
	ReputationDelta int
	Notes           []string
}

func reject(l Line, format string, args ...any) Result {
	return Result{Line: l, Notes: []string{fmt.Sprintf(format, args...)}}
}

// Draw opens a loan for amount, clamped to the reputation limit.
func Draw(l Line, reputation, amount, day int) Result {
	if l.Frozen {
		return reject(l, "Credit line is frozen after a default.")
	}
	if l.Loan != nil {
		return reject(l, "You already have a loan outstanding ($%d due day %d).", l.Loan.BalanceDue, l.Loan.DueDay)
	}
	tier := TierFor(reputation)
	if tier.Limit <= 0 {
		return reject(l, "Lenders won't talk to you yet. Build some reputation first.")
	}
	if amount > tier.Limit {
		amount = tier.Limit
	}
	if amount <= 0 {
		return reject(l, "Draw amount must be positive.")
	}
	next := l.clone()
	next.Loan = &Loan{
		Principal:  amount,
		BalanceDue: int(math.Round(float64(amount) * (1 + tier.Rate))),
		Rate:       tier.Rate,
		DrawDay:    day,
		DueDay:     day + TermDays,
	}
	return Result{
		Line:      next,
		OK:        true,
		CashDelta: amount,
		Notes: []string{fmt.Sprintf("Drew $%d at %.0f%%. $%d due by day %d.",
			amount, tier.Rate*100, next.Loan.BalanceDue, next.Loan.DueDay)},
	}
}

// Repay pays down the balance with up to amount of cash. Clearing the balance
// removes the loan but never lifts a freeze.
func Repay(l Line, cash, amount int) Result {
	if l.Loan == nil {
		return reject(l, "No loan to repay.")
	}
	pay := amount
	if pay > cash {
		pay = cash
	}
	if pay > l.Loan.BalanceDue {
		pay = l.Loan.BalanceDue
	}
	if pay <= 0 {
		return reject(l, "Nothing to repay with.")
	}
	next := l.clone()
	next.Loan.BalanceDue -= pay
	res := Result{Line: next, OK: true, CashDelta: -pay}
	if next.Loan.BalanceDue == 0 {
		next.Loan = nil
		res.Line = next
		res.Notes = append(res.Notes, fmt.Sprintf("Paid $%d. Loan cleared.", pay))
		return res
	}
	res.Notes = append(res.Notes, fmt.Sprintf("Paid $%d. $%d still due.", pay, next.Loan.BalanceDue))
	return res
}

// Tick runs the day-advance credit step for day with the player's cash.
func Tick(l Line, day, cash int) Result {
	if l.Loan == nil {
		return Result{Line: l, OK: true}
	}
	next := l.clone()
	res := Result{Line: next, OK: true}
	loan := next.Loan
	switch {
	case day > loan.DueDay:
		if !loan.PenaltyApplied {
			loan.PenaltyApplied = true
			loan.Defaulted = true
			next.Frozen = true
			res.ReputationDelta = -DefaultRepPenalty
			res.Notes = append(res.Notes, fmt.Sprintf("Loan defaulted. Reputation -%d and your credit line is frozen.", DefaultRepPenalty))
		}
		garnish := int(math.Round(float64(cash) * GarnishRate))
		if garnish > loan.BalanceDue {
			garnish = loan.BalanceDue
		}
		if garnish > 0 {
			loan.BalanceDue -= garnish
			res.CashDelta = -garnish
			res.Notes = append(res.Notes, fmt.Sprintf("Collectors garnished $%d. $%d remains.", garnish, loan.BalanceDue))
		}
		if loan.BalanceDue == 0 {
			next.Loan = nil
			res.Notes = append(res.Notes, "Defaulted loan settled. The line stays frozen.")
		}
	case day == loan.DueDay:
		res.Notes = append(res.Notes, fmt.Sprintf("Loan due today: $%d.", loan.BalanceDue))
	}
	res.Line = next
	return res
}
