package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	cl "gearflip/internal/cli"
	"gearflip/internal/game"
	"gearflip/internal/leaderboard"
	"gearflip/internal/syncq"
	"gearflip/internal/telemetry"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var submissionNamespace = uuid.MustParse("0d8f6c3e-3f0a-4f5e-9a51-6c1f2b7d9e40")

// submissionKey is stable for a finished run under one name, so submitting
// the same run twice replays instead of duplicating.
func submissionKey(sub game.Submission) string {
	raw := strings.Join([]string{sub.RunSeed, strconv.Itoa(sub.TotalDays), strconv.Itoa(sub.Score), strings.ToLower(sub.DisplayName)}, "|")
	return uuid.NewSHA1(submissionNamespace, []byte(raw)).String()
}

func newProfileCmd(a *app) *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Show the name your scores are posted under",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cl.LoadProfile()
			if err != nil {
				return err
			}
			if p.DisplayName == "" {
				printInfo("No profile yet. Set one with `gearflip profile set --name <name>`.")
				return nil
			}
			fmt.Printf("Name:   %s\n", p.DisplayName)
			if p.Email != "" {
				fmt.Printf("Email:  %s (updates: %t)\n", p.Email, p.EmailOptIn)
			}
			return nil
		},
	}

	var (
		name  string
		email string
		optIn bool
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Save your display name and optional email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cl.LoadProfile()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("name") {
				p.DisplayName = name
			}
			if cmd.Flags().Changed("email") {
				p.Email = email
			}
			if cmd.Flags().Changed("opt-in") {
				p.EmailOptIn = optIn
			}
			if strings.TrimSpace(p.DisplayName) == "" {
				if p.DisplayName, err = promptRequired("Display name"); err != nil {
					return err
				}
			}
			if err := cl.SaveProfile(p); err != nil {
				return err
			}
			printSuccess("Profile saved.")
			return nil
		},
	}
	set.Flags().StringVar(&name, "name", "", "display name")
	set.Flags().StringVar(&email, "email", "", "email for updates")
	set.Flags().BoolVar(&optIn, "opt-in", false, "receive update emails")

	profile.AddCommand(set, &cobra.Command{
		Use:   "clear",
		Short: "Forget the saved profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearProfile(); err != nil {
				return err
			}
			printSuccess("Profile cleared.")
			return nil
		},
	})
	return profile
}

func newSubmitCmd(a *app) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Post a finished run to the leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if !st.IsGameOver {
				return fmt.Errorf("the run is on day %d/%d, finish it first", st.Day, st.TotalDays)
			}
			p, err := cl.LoadProfile()
			if err != nil {
				return err
			}
			if name != "" {
				p.DisplayName = name
			}
			if strings.TrimSpace(p.DisplayName) == "" {
				if p.DisplayName, err = promptRequired("Display name"); err != nil {
					return err
				}
				if err := cl.SaveProfile(p); err != nil {
					return err
				}
			}

			sub := st.Submission(p.DisplayName, p.Email, p.EmailOptIn)
			sub.SubmissionKey = submissionKey(sub)

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			receipt, err := a.client().SubmitScore(ctx, sub)
			if err != nil {
				if !cl.Retryable(err) {
					return err
				}
				if _, qerr := syncq.Push(sub); qerr != nil {
					return fmt.Errorf("submit failed (%v) and could not be queued: %w", err, qerr)
				}
				a.log.Info("submission queued", "err", err)
				printWarn("Leaderboard unreachable. Queued, run `gearflip sync` later.")
				a.emit("score_queued", st, telemetry.Props{"score": sub.Score})
				return nil
			}
			if receipt.Eligible {
				printSuccess(fmt.Sprintf("Posted %s as %s.", money(sub.Score), sub.DisplayName))
			} else {
				printInfo(fmt.Sprintf("Posted %s. Only standard %d-day runs are ranked.", money(sub.Score), game.StandardRunLength))
			}
			a.emit("score_submitted", st, telemetry.Props{"score": sub.Score, "eligible": receipt.Eligible})
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name for this submission")
	return cmd
}

func newLeaderboardCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "leaderboard",
		Short:   "Show the top ranked runs",
		Aliases: []string{"lb"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			rows, err := a.client().Leaderboard(ctx, limit)
			if err != nil {
				return err
			}
			renderLeaderboard(rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "rows to show")
	return cmd
}

func newChallengeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "challenge",
		Short: "Show today's shared challenge seed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			c, published, err := a.client().Challenge(ctx, now)
			if err != nil {
				var apiErr *cl.APIError
				if errors.As(err, &apiErr) && apiErr.Status < 500 {
					return err
				}
				c, published = leaderboard.ChallengeSeed(now), false
				printWarn("Leaderboard unreachable, showing the locally derived seed.")
			}
			accent.Printf("\n== CHALLENGE %s ==\n", c.Date)
			fmt.Printf("Seed: %s\n", c.Seed)
			if !published {
				dim.Println("not yet published")
			}
			fmt.Println("Play it with `gearflip new --daily`.")
			return nil
		},
	}
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay queued score submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := syncq.Load()
			if err != nil {
				return err
			}
			if len(queue) == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()
			res, err := syncq.Drain(ctx, a.client(), a.log)
			if err != nil {
				printError(fmt.Sprintf("Sync stopped: %v", err))
			}
			if res.Rejected > 0 {
				printWarn(fmt.Sprintf("%d queued scores were rejected by the server and dropped.", res.Rejected))
			}
			printSuccess(fmt.Sprintf("Sync complete: sent=%d remaining=%d", res.Sent, res.Remaining))
			return nil
		},
	}
}
