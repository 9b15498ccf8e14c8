package duel

import (
	"errors"
	"testing"

	"gearflip/internal/catalog"
	"gearflip/internal/rng"
)

func TestNewOffersThreeDistinctGenericOptions(t *testing.T) {
	st := New(rng.New(11), 10_000)
	if len(st.Options) != 3 {
		t.Fatalf("got %d options", len(st.Options))
	}
	seen := map[string]bool{}
	for _, o := range st.Options {
		if seen[o.ID] {
			t.Fatalf("duplicate option %s", o.ID)
		}
		seen[o.ID] = true
	}
	c, ok := LookupChallenger(st.ChallengerID)
	if !ok {
		t.Fatalf("unknown challenger %s", st.ChallengerID)
	}
	if st.Wager != c.Wager || st.TotalRounds != c.TotalRounds || st.Round != 1 || st.Phase != PhasePick {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestNewCapsWagerAtCash(t *testing.T) {
	st := New(rng.New(3), 40)
	if st.Wager > 40 {
		t.Fatalf("wager %d exceeds cash", st.Wager)
	}
}

func TestPhaseMachine(t *testing.T) {
	st := State{
		ChallengerID: "shredder",
		Options:      append([]Option(nil), GenericOptions[:3]...),
		Round:        1,
		TotalRounds:  2,
		Phase:        PhasePick,
		Wager:        100,
	}
	if _, _, err := Play(st, Context{}, nil, 0.5, rng.New(1)); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase, got %v", err)
	}
	if _, err := Pick(st, "nope", ""); !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("expected ErrUnknownOption, got %v", err)
	}
	st, err := Pick(st, st.Options[0].ID, "fresh-strings")
	if err != nil {
		t.Fatalf("pick: %v", err)
	}
	if st.Phase != PhaseMeter {
		t.Fatalf("phase %s", st.Phase)
	}
	boost, _ := catalog.LookupBoost("fresh-strings")
	st, res, err := Play(st, Context{Reputation: 50}, &boost, 0.9, rng.New(2))
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if res.Round != 1 || st.Round != 2 || st.Phase != PhasePick {
		t.Fatalf("after round 1: %+v", st)
	}
	if st.BoostID != "" {
		t.Fatalf("boost should clear each round")
	}
	c, _ := LookupChallenger("shredder")
	if st.Options[2].ID != c.Signature.ID {
		t.Fatalf("signature option not offered in round 2: %+v", st.Options)
	}
	st, _ = Pick(st, c.Signature.ID, "")
	st, _, err = Play(st, Context{Reputation: 50}, nil, 0.5, rng.New(3))
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if !st.Resolved() || st.Phase != PhaseResolved {
		t.Fatalf("expected resolved, got %+v", st)
	}
}

func TestAccuracyRaisesScore(t *testing.T) {
	base := State{
		ChallengerID:     "busker",
		Options:          []Option{GenericOptions[1]},
		Round:            1,
		TotalRounds:      1,
		Phase:            PhaseMeter,
		SelectedOptionID: GenericOptions[1].ID,
	}
	_, low, _ := Play(base, Context{Reputation: 50}, nil, 0, rng.New(9))
	_, high, _ := Play(base, Context{Reputation: 50}, nil, 1, rng.New(9))
	if high.PlayerScore <= low.PlayerScore {
		t.Fatalf("perfect timing %v should beat zero timing %v", high.PlayerScore, low.PlayerScore)
	}
}

func TestGearAndHeat(t *testing.T) {
	if got := gearBonus(Context{HasGuitar: true, HasAmp: true}); got != 10 {
		t.Fatalf("gear bonus %v", got)
	}
	if heatPenalty("High") != 10 || heatPenalty("Medium") != 5 || heatPenalty("Low") != 0 {
		t.Fatalf("heat penalties wrong")
	}
}

func TestJudge(t *testing.T) {
	tests := []struct {
		p, o float64
		want Verdict
	}{
		{p: 58, o: 50, want: VerdictWin},
		{p: 57.9, o: 50, want: VerdictTie},
		{p: 42, o: 50, want: VerdictLose},
		{p: 42.1, o: 50, want: VerdictTie},
	}
	for _, tc := range tests {
		if got := Judge(tc.p, tc.o); got != tc.want {
			t.Fatalf("Judge(%v,%v)=%s want %s", tc.p, tc.o, got, tc.want)
		}
	}
}

func TestSettle(t *testing.T) {
	st := State{ChallengerID: "bluesman", Wager: 400, Round: 4, TotalRounds: 3, PlayerScore: 100, OpponentScore: 50, LastOptionID: "call-response", LastBoostID: "ebow"}
	out, err := Settle(st, rng.New(5))
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	// 4 base + 2 signature + 2 ebow
	if out.Verdict != VerdictWin || out.CashDelta != 400 || out.ReputationDelta != 8 {
		t.Fatalf("win outcome %+v", out)
	}

	st.PlayerScore = 10
	out, _ = Settle(st, rng.New(5))
	if out.Verdict != VerdictLose || out.CashDelta != -400 || out.ReputationDelta != -3 {
		t.Fatalf("lose outcome %+v", out)
	}

	st.PlayerScore = 50
	out, _ = Settle(st, rng.New(5))
	if out.Verdict != VerdictTie || out.CashDelta != 0 || out.ReputationDelta != 0 {
		t.Fatalf("tie outcome %+v", out)
	}

	st.Round = 2
	if _, err := Settle(st, rng.New(5)); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("expected ErrWrongPhase for unresolved duel")
	}
}

func TestDeclineOnlyBeforeFirstRound(t *testing.T) {
	if err := Decline(State{Round: 1, TotalRounds: 2}); err != nil {
		t.Fatalf("decline before play: %v", err)
	}
	if err := Decline(State{Round: 2, TotalRounds: 2}); !errors.Is(err, ErrAlreadyPlayed) {
		t.Fatalf("expected ErrAlreadyPlayed, got %v", err)
	}
}
