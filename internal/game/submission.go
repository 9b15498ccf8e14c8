package game

// Submission is the leaderboard record for a run.
type Submission struct {
	DisplayName        string      `json:"display_name"`
	Score              int         `json:"score"`
	RunSeed            string      `json:"run_seed"`
	Day                int         `json:"day"`
	TotalDays          int         `json:"total_days"`
	Completed          bool        `json:"completed"`
	Cash               int         `json:"cash"`
	Reputation         int         `json:"reputation"`
	InventorySlotsUsed int         `json:"inventory_slots_used"`
	InventoryCapacity  int         `json:"inventory_capacity"`
	BestFlip           *FlipRecord `json:"best_flip,omitempty"`
	RarestSold         *SoldRecord `json:"rarest_sold,omitempty"`
	Email              string      `json:"email,omitempty"`
	EmailOptIn         bool        `json:"email_opt_in,omitempty"`
	SubmissionKey      string      `json:"submission_key,omitempty"`
}

// Submission projects the run onto a leaderboard record.
func (g GameState) Submission(displayName, email string, emailOptIn bool) Submission {
	sub := Submission{
		DisplayName:        displayName,
		Score:              g.Score(),
		RunSeed:            g.RunSeed,
		Day:                g.Day,
		TotalDays:          g.TotalDays,
		Completed:          g.IsGameOver,
		Cash:               g.Cash,
		Reputation:         g.Reputation,
		InventorySlotsUsed: g.SlotsUsed(),
		InventoryCapacity:  g.Capacity,
		Email:              email,
		EmailOptIn:         emailOptIn && email != "",
	}
	if g.BestFlip != nil {
		b := *g.BestFlip
		sub.BestFlip = &b
	}
	if g.RarestSold != nil {
		r := *g.RarestSold
		sub.RarestSold = &r
	}
	return sub
}

// Ranked reports whether a submission counts for the standard leaderboard.
func (s Submission) Ranked() bool {
	return s.TotalDays == StandardRunLength && s.Completed && s.Day >= s.TotalDays
}
