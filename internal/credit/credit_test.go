package credit

import "testing"

func TestTierFor(t *testing.T) {
	tests := []struct {
		rep   int
		limit int
		rate  float64
	}{
		{rep: 100, limit: 15_000, rate: 0.12},
		{rep: 80, limit: 15_000, rate: 0.12},
		{rep: 79, limit: 10_000, rate: 0.16},
		{rep: 50, limit: 7_500, rate: 0.20},
		{rep: 30, limit: 3_000, rate: 0.28},
		{rep: 29, limit: 0, rate: 0},
	}
	for _, tc := range tests {
		got := TierFor(tc.rep)
		if got.Limit != tc.limit || got.Rate != tc.rate {
			t.Fatalf("rep=%d got %+v", tc.rep, got)
		}
	}
}

func TestDrawFullLimitAtReputation50(t *testing.T) {
	res := Draw(Line{}, 50, 7_500, 4)
	if !res.OK {
		t.Fatalf("draw rejected: %v", res.Notes)
	}
	if res.Line.Loan.BalanceDue != 9000 {
		t.Fatalf("balance due %d want 9000", res.Line.Loan.BalanceDue)
	}
	if res.Line.Loan.DueDay != 7 {
		t.Fatalf("due day %d want 7", res.Line.Loan.DueDay)
	}
	if res.CashDelta != 7_500 {
		t.Fatalf("cash delta %d", res.CashDelta)
	}
}

func TestDrawClampsAndBlocks(t *testing.T) {
	res := Draw(Line{}, 50, 99_999, 1)
	if res.Line.Loan.Principal != 7_500 {
		t.Fatalf("expected clamp to limit, got %d", res.Line.Loan.Principal)
	}
	if again := Draw(res.Line, 50, 100, 1); again.OK {
		t.Fatalf("second active loan allowed")
	}
	if frozen := Draw(Line{Frozen: true}, 90, 100, 1); frozen.OK {
		t.Fatalf("frozen line allowed a draw")
	}
	if low := Draw(Line{}, 10, 100, 1); low.OK {
		t.Fatalf("zero-limit draw allowed")
	}
	if zero := Draw(Line{}, 90, 0, 1); zero.OK {
		t.Fatalf("zero amount allowed")
	}
}

func TestRepayPartialAndFull(t *testing.T) {
	line := Draw(Line{}, 50, 1_000, 1).Line
	res := Repay(line, 500, 10_000)
	if !res.OK || res.CashDelta != -500 || res.Line.Loan.BalanceDue != 700 {
		t.Fatalf("partial repay: %+v loan=%+v", res, res.Line.Loan)
	}
	if line.Loan.BalanceDue != 1200 {
		t.Fatalf("input line mutated: %+v", line.Loan)
	}
	res = Repay(res.Line, 5_000, 5_000)
	if res.Line.Loan != nil || res.CashDelta != -700 {
		t.Fatalf("full repay: %+v", res)
	}
}

func TestTickDefaultFreezesOnceAndGarnishes(t *testing.T) {
	line := Draw(Line{}, 50, 1_000, 1).Line // 1200 due day 4

	res := Tick(line, 4, 1_000)
	if res.CashDelta != 0 || res.ReputationDelta != 0 || len(res.Notes) != 1 {
		t.Fatalf("due-day tick should only warn: %+v", res)
	}

	res = Tick(line, 5, 1_000)
	if !res.Line.Frozen || res.ReputationDelta != -DefaultRepPenalty {
		t.Fatalf("expected freeze + penalty: %+v", res)
	}
	if res.CashDelta != -300 || res.Line.Loan.BalanceDue != 900 {
		t.Fatalf("garnish: %+v loan=%+v", res, res.Line.Loan)
	}

	res = Tick(res.Line, 6, 1_000)
	if res.ReputationDelta != 0 {
		t.Fatalf("penalty applied twice")
	}
	if res.Line.Loan.BalanceDue != 600 {
		t.Fatalf("balance %d", res.Line.Loan.BalanceDue)
	}
}

func TestTickGarnishClearsButKeepsFreeze(t *testing.T) {
	line := Draw(Line{}, 50, 100, 1).Line // 120 due day 4
	res := Tick(line, 5, 10_000)
	if res.Line.Loan != nil {
		t.Fatalf("expected loan cleared")
	}
	if !res.Line.Frozen {
		t.Fatalf("freeze lifted")
	}
	if res.CashDelta != -120 {
		t.Fatalf("cash delta %d", res.CashDelta)
	}
}

func TestLoanBalanceNeverIncreases(t *testing.T) {
	line := Draw(Line{}, 65, 10_000, 1).Line
	prev := line.Loan.BalanceDue
	for day := 2; day < 12 && line.Loan != nil; day++ {
		line = Tick(line, day, 2_000).Line
		if line.Loan != nil {
			if line.Loan.BalanceDue > prev {
				t.Fatalf("balance grew on day %d: %d > %d", day, line.Loan.BalanceDue, prev)
			}
			prev = line.Loan.BalanceDue
		}
	}
}
