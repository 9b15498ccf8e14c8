// Package duel resolves jam challenges: a few rounds where the player picks an
// approach, plays a timing meter, and accumulates score against a challenger.
package duel

import (
	"errors"
	"fmt"

	"gearflip/internal/catalog"
	"gearflip/internal/rng"
)

var (
	ErrWrongPhase    = errors.New("duel is not waiting for that input")
	ErrUnknownOption = errors.New("option not offered this round")
	ErrAlreadyPlayed = errors.New("duel already underway")
)

const (
	WinMargin      = 8.0
	OpponentSpread = 28.0
)

type Option struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	PlayerBonus float64 `json:"player_bonus"`
	Variance    float64 `json:"variance"`
	RepBonus    int     `json:"rep_bonus"`
}

var GenericOptions = []Option{
	{ID: "crowd-pleaser", Label: "Crowd Pleaser", PlayerBonus: 4, Variance: 10, RepBonus: 1},
	{ID: "restraint", Label: "Tasteful Restraint", PlayerBonus: 6, Variance: 4},
	{ID: "wild-improv", Label: "Wild Improv", PlayerBonus: 2, Variance: 20, RepBonus: 1},
	{ID: "tone-chase", Label: "Tone Chase", PlayerBonus: 5, Variance: 8},
}

type BonusKind string

const (
	BonusListing BonusKind = "listing"
	BonusItem    BonusKind = "item"
)

type Challenger struct {
	ID          string
	Label       string
	Intro       string
	Wager       int
	TotalRounds int
	BaseSkill   float64
	RepReward   int
	RepLoss     int
	Signature   Option
	BonusChance float64
	BonusKind   BonusKind
}

var Challengers = []Challenger{
	{
		ID: "busker", Label: "Street Busker Sal", Intro: "Sal kicks an open guitar case your way. \"One song. Loser buys.\"",
		Wager: 100, TotalRounds: 1, BaseSkill: 14, RepReward: 2, RepLoss: 1,
		Signature:   Option{ID: "one-man-band", Label: "One-Man Band", PlayerBonus: 7, Variance: 10, RepBonus: 1},
		BonusChance: 0.25, BonusKind: BonusListing,
	},
	{
		ID: "shredder", Label: "Mall Shredder Kyle", Intro: "Kyle plugs into the demo amp and cranks the gain. \"Beat this.\"",
		Wager: 250, TotalRounds: 2, BaseSkill: 20, RepReward: 3, RepLoss: 2,
		Signature:   Option{ID: "sweep-barrage", Label: "Sweep-Picking Barrage", PlayerBonus: 8, Variance: 16, RepBonus: 1},
		BonusChance: 0.30, BonusKind: BonusItem,
	},
	{
		ID: "bluesman", Label: "Old Bluesman Earl", Intro: "Earl taps his boot. \"Let's see if you can say something with it.\"",
		Wager: 400, TotalRounds: 3, BaseSkill: 26, RepReward: 4, RepLoss: 3,
		Signature:   Option{ID: "call-response", Label: "Twelve-Bar Call & Response", PlayerBonus: 9, Variance: 6, RepBonus: 2},
		BonusChance: 0.35, BonusKind: BonusItem,
	},
	{
		ID: "session", Label: "Session Ace Marta", Intro: "Marta counts you in without looking up. \"Four rounds. Keep up.\"",
		Wager: 800, TotalRounds: 4, BaseSkill: 32, RepReward: 6, RepLoss: 4,
		Signature:   Option{ID: "perfect-pocket", Label: "Perfect Pocket", PlayerBonus: 10, Variance: 5, RepBonus: 2},
		BonusChance: 0.40, BonusKind: BonusListing,
	},
}

func LookupChallenger(id string) (Challenger, bool) {
	for _, c := range Challengers {
		if c.ID == id {
			return c, true
		}
	}
	return Challenger{}, false
}

type Phase string

const (
	PhasePick     Phase = "pick"
	PhaseMeter    Phase = "meter"
	PhaseResolved Phase = "resolved"
)

// State is a pending duel. It is discarded once Round passes TotalRounds.
type State struct {
	ChallengerID     string   `json:"challenger_id"`
	Label            string   `json:"label"`
	Intro            string   `json:"intro"`
	Wager            int      `json:"wager"`
	Options          []Option `json:"options"`
	Round            int      `json:"round"`
	TotalRounds      int      `json:"total_rounds"`
	PlayerScore      float64  `json:"player_score"`
	OpponentScore    float64  `json:"opponent_score"`
	LastReaction     string   `json:"last_reaction,omitempty"`
	BoostID          string   `json:"boost_id,omitempty"`
	Phase            Phase    `json:"phase"`
	SelectedOptionID string   `json:"selected_option_id,omitempty"`
	LastOptionID     string   `json:"last_option_id,omitempty"`
	LastBoostID      string   `json:"last_boost_id,omitempty"`
}

func (st State) clone() State {
	st.Options = append([]Option(nil), st.Options...)
	return st
}

// Started reports whether any round has resolved.
func (st State) Started() bool {
	return st.Round > 1
}

func (st State) Resolved() bool {
	return st.Round > st.TotalRounds
}

// New rolls a challenger and three of the four generic options.
func New(s *rng.Stream, cash int) State {
	c := Challengers[s.Intn(len(Challengers))]
	opts := append([]Option(nil), GenericOptions...)
	s.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	wager := c.Wager
	if wager > cash {
		wager = cash
	}
	if wager < 0 {
		wager = 0
	}
	return State{
		ChallengerID: c.ID,
		Label:        c.Label,
		Intro:        c.Intro,
		Wager:        wager,
		Options:      opts[:3],
		Round:        1,
		TotalRounds:  c.TotalRounds,
		Phase:        PhasePick,
	}
}

// Pick selects an approach (and optionally a boost) and moves to the meter.
func Pick(st State, optionID, boostID string) (State, error) {
	if st.Phase != PhasePick {
		return st, ErrWrongPhase
	}
	if _, ok := findOption(st.Options, optionID); !ok {
		return st, ErrUnknownOption
	}
	next := st.clone()
	next.SelectedOptionID = optionID
	next.BoostID = boostID
	next.Phase = PhaseMeter
	return next, nil
}

// Decline is allowed until the first round resolves.
func Decline(st State) error {
	if st.Started() {
		return ErrAlreadyPlayed
	}
	return nil
}

// Context carries the player-side inputs to round scoring.
type Context struct {
	Reputation int
	HasGuitar  bool
	HasAmp     bool
	HeatLevel  string
}

func gearBonus(ctx Context) float64 {
	bonus := 0.0
	if ctx.HasGuitar {
		bonus += 6
	}
	if ctx.HasAmp {
		bonus += 4
	}
	return bonus
}

func heatPenalty(level string) float64 {
	switch level {
	case "High":
		return 10
	case "Medium":
		return 5
	default:
		return 0
	}
}

// TimingScale is how much meter accuracy swings a round.
func TimingScale(round, totalRounds int) float64 {
	return 18 + 4*float64(round-1) + 2*float64(totalRounds)
}

type RoundResult struct {
	Round         int
	PlayerScore   float64
	OpponentScore float64
	Reaction      string
}

// Play scores the meter result for the selected option. boost may be nil.
func Play(st State, ctx Context, boost *catalog.Boost, accuracy float64, s *rng.Stream) (State, RoundResult, error) {
	if st.Phase != PhaseMeter {
		return st, RoundResult{}, ErrWrongPhase
	}
	c, ok := LookupChallenger(st.ChallengerID)
	if !ok {
		return st, RoundResult{}, fmt.Errorf("unknown challenger %q", st.ChallengerID)
	}
	opt, ok := findOption(st.Options, st.SelectedOptionID)
	if !ok {
		return st, RoundResult{}, ErrUnknownOption
	}
	if accuracy < 0 {
		accuracy = 0
	}
	if accuracy > 1 {
		accuracy = 1
	}
	var b catalog.Boost
	if boost != nil {
		b = *boost
	}

	variance := opt.Variance + b.Variance
	if variance < 0 {
		variance = 0
	}
	player := float64(ctx.Reputation)*0.4 +
		opt.PlayerBonus + b.PlayerBonus +
		s.Float64()*variance*(1-accuracy*0.45) +
		gearBonus(ctx) - heatPenalty(ctx.HeatLevel) +
		(accuracy-0.5)*TimingScale(st.Round, st.TotalRounds)
	opponent := c.BaseSkill + s.Float64()*OpponentSpread - b.OpponentPenalty

	next := st.clone()
	next.PlayerScore += player
	next.OpponentScore += opponent
	res := RoundResult{Round: st.Round, PlayerScore: player, OpponentScore: opponent, Reaction: reaction(player, opponent)}
	next.LastReaction = res.Reaction
	next.LastOptionID = opt.ID
	next.LastBoostID = b.ID
	next.BoostID = ""
	next.SelectedOptionID = ""
	next.Round++
	if next.Round > next.TotalRounds {
		next.Phase = PhaseResolved
		return next, res, nil
	}
	next.Phase = PhasePick
	if len(next.Options) > 0 {
		next.Options[len(next.Options)-1] = c.Signature
	}
	return next, res, nil
}

func reaction(player, opponent float64) string {
	switch d := player - opponent; {
	case d >= 12:
		return "The room erupts. That round was yours."
	case d >= 3:
		return "Heads nod along. You edged that one."
	case d > -3:
		return "Dead even. Nobody's sure who took it."
	case d > -12:
		return "A few claps, mostly for them."
	default:
		return "They buried you. Someone winces."
	}
}

type Verdict string

const (
	VerdictWin  Verdict = "win"
	VerdictLose Verdict = "lose"
	VerdictTie  Verdict = "tie"
)

// Judge compares accumulated totals with the fixed margin.
func Judge(player, opponent float64) Verdict {
	switch {
	case player >= opponent+WinMargin:
		return VerdictWin
	case player <= opponent-WinMargin:
		return VerdictLose
	default:
		return VerdictTie
	}
}

type Outcome struct {
	Verdict         Verdict
	CashDelta       int
	ReputationDelta int
	Bonus           BonusKind
}

// Settle computes the payout for a resolved duel.
func Settle(st State, s *rng.Stream) (Outcome, error) {
	if !st.Resolved() {
		return Outcome{}, ErrWrongPhase
	}
	c, ok := LookupChallenger(st.ChallengerID)
	if !ok {
		return Outcome{}, fmt.Errorf("unknown challenger %q", st.ChallengerID)
	}
	out := Outcome{Verdict: Judge(st.PlayerScore, st.OpponentScore)}
	switch out.Verdict {
	case VerdictWin:
		out.CashDelta = st.Wager
		out.ReputationDelta = c.RepReward
		if opt, ok := findOption(append(append([]Option(nil), GenericOptions...), c.Signature), st.LastOptionID); ok {
			out.ReputationDelta += opt.RepBonus
		}
		if b, ok := catalog.LookupBoost(st.LastBoostID); ok {
			out.ReputationDelta += b.RepBonus
		}
		if s.Chance(c.BonusChance) {
			out.Bonus = c.BonusKind
		}
	case VerdictLose:
		out.CashDelta = -st.Wager
		out.ReputationDelta = -c.RepLoss
	}
	return out, nil
}

func findOption(opts []Option, id string) (Option, bool) {
	for _, o := range opts {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}
