package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gearflip/internal/game"
	"gearflip/internal/telemetry"

	"github.com/spf13/cobra"
)

func encounterKind(st game.GameState) string {
	if st.PendingEncounter == nil {
		return ""
	}
	return string(st.PendingEncounter.Kind())
}

// acceptEncounter takes the "yes" path of whatever is pending. Auctions take a
// bid instead.
func acceptEncounter(st game.GameState) game.GameState {
	switch st.PendingEncounter.(type) {
	case game.BulkLot:
		return game.AcceptBulkLot(st)
	case game.TradeOffer:
		return game.AcceptTrade(st)
	case game.MysteriousListing:
		return game.BuyMysterious(st)
	case game.RepairScare:
		return game.AcceptComp(st)
	case game.WorldAuction:
		printWarn("Auctions take a ceiling: `gearflip encounter bid <max>`.")
		return st
	default:
		return game.DeclineEncounter(st)
	}
}

func newEncounterCmd(a *app) *cobra.Command {
	enc := &cobra.Command{
		Use:     "encounter",
		Short:   "Show or answer whatever is waiting on you",
		Aliases: []string{"enc"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			renderEncounter(st)
			return nil
		},
	}
	simple := func(use, short, event string, fn func(game.GameState) game.GameState) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := a.load(cmd.Context())
				if err != nil {
					return err
				}
				if err := a.act(cmd, event, telemetry.Props{"kind": encounterKind(st)}, fn); err != nil {
					return err
				}
				next, err := a.load(cmd.Context())
				if err != nil {
					return err
				}
				if next.PendingEncounter != nil {
					renderEncounter(next)
				}
				return nil
			},
		}
	}
	enc.AddCommand(
		simple("accept", "Take the deal", "encounter_accepted", acceptEncounter),
		simple("decline", "Walk away", "encounter_declined", game.DeclineEncounter),
		simple("proof", "Ask a mysterious seller for proof", "encounter_proof", game.AskForProof),
		simple("hold", "Refuse a buyer's discount", "encounter_held", game.HoldFirm),
		simple("dismiss", "Clear a finished auction", "encounter_dismissed", game.DismissEncounter),
		newBidCmd(a),
	)
	return enc
}

const defaultBidCountdown = 20 * time.Second

type bidLine struct {
	bid int
	err error
}

// promptBid reads a max bid before the countdown runs out. On expiry it
// reports expired with a zero bid.
func promptBid(ctx context.Context, in *bufio.Reader, label string, countdown time.Duration) (bid int, expired bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, countdown)
	defer cancel()

	lines := make(chan bidLine, 1)
	go func() {
		for {
			text, err := in.ReadString('\n')
			if err != nil {
				lines <- bidLine{err: err}
				return
			}
			v, perr := strconv.Atoi(strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(text), "$"), ",", ""))
			if perr != nil || v < 0 {
				printWarn("Enter a whole number.")
				fmt.Printf("%s: ", label)
				continue
			}
			lines <- bidLine{bid: v}
			return
		}
	}()

	fmt.Printf("%s: ", label)
	select {
	case l := <-lines:
		return l.bid, false, l.err
	case <-ctx.Done():
		fmt.Println()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, true, nil
		}
		return 0, false, ctx.Err()
	}
}

func newBidCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bid [max]",
		Short: "Set your ceiling for a world auction (0 lets it pass)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			wa, ok := st.PendingEncounter.(game.WorldAuction)
			if !ok {
				return errors.New("no auction is running")
			}
			if wa.Resolution != nil {
				return errors.New("that auction is over, clear it with `gearflip encounter dismiss`")
			}
			var maxBid int
			if len(args) > 0 {
				maxBid, err = strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(args[0]), "$"))
				if err != nil || maxBid < 0 {
					return fmt.Errorf("invalid bid %q", args[0])
				}
			} else {
				renderEncounter(st)
				countdown := time.Duration(wa.CountdownSeconds) * time.Second
				if countdown <= 0 {
					countdown = defaultBidCountdown
				}
				label := fmt.Sprintf("Max bid within %s (cash %s, opening %s)", countdown, money(st.Cash), money(wa.StartingBid))
				var expired bool
				if maxBid, expired, err = promptBid(cmd.Context(), stdinReader, label, countdown); err != nil {
					return err
				}
				if expired {
					printWarn("Time's up. The hammer falls without your paddle.")
				}
			}
			err = a.act(cmd, "auction_bid", telemetry.Props{"max_bid": maxBid, "item": wa.Item.Name}, func(st game.GameState) game.GameState {
				return game.ResolveWorldAuction(st, maxBid)
			})
			if err != nil {
				return err
			}
			next, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if done, ok := next.PendingEncounter.(game.WorldAuction); ok && done.Resolution != nil {
				renderAuctionResolution(*done.Resolution)
			}
			return nil
		},
	}
}

func newDuelCmd(a *app) *cobra.Command {
	d := &cobra.Command{
		Use:     "duel",
		Short:   "Show the jam duel you've been challenged to",
		Aliases: []string{"jam"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			renderDuel(st)
			return nil
		},
	}

	var boost string
	pick := &cobra.Command{
		Use:   "pick <option>",
		Short: "Choose how to play this round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			option := strings.TrimSpace(args[0])
			return a.act(cmd, "duel_pick", telemetry.Props{"option": option, "boost": boost}, func(st game.GameState) game.GameState {
				return game.PickDuelOption(st, option, boost)
			})
		},
	}
	pick.Flags().StringVar(&boost, "boost", "", "performance gear to burn this round")

	var accuracy float64
	play := &cobra.Command{
		Use:   "play",
		Short: "Play the round on the timing meter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if st.PendingDuel == nil {
				return errors.New("nobody is challenging you right now")
			}
			if !cmd.Flags().Changed("accuracy") {
				d := st.PendingDuel
				label := fmt.Sprintf("%s, round %d/%d", d.Label, d.Round, d.TotalRounds)
				if accuracy, err = runMeter(label, d.Round, d.TotalRounds); err != nil {
					return err
				}
			}
			err = a.act(cmd, "duel_round", telemetry.Props{"accuracy": accuracy, "challenger": st.PendingDuel.ChallengerID}, func(st game.GameState) game.GameState {
				return game.PlayDuelRound(st, accuracy)
			})
			if err != nil {
				return err
			}
			next, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if next.PendingDuel != nil {
				renderDuel(next)
			}
			return nil
		},
	}
	play.Flags().Float64Var(&accuracy, "accuracy", 0, "timing accuracy in [0,1] instead of the meter")

	d.AddCommand(
		pick,
		play,
		&cobra.Command{
			Use:   "decline",
			Short: "Back out of the duel",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.act(cmd, "duel_declined", nil, game.DeclineDuel)
			},
		},
	)
	return d
}

func newCreditCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "credit",
		Short: "Show your credit line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			renderCredit(st)
			return nil
		},
	}
	c.AddCommand(
		&cobra.Command{
			Use:   "draw <amount>",
			Short: "Borrow against your reputation",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				amount, err := amountArg(args[0])
				if err != nil {
					return err
				}
				return a.act(cmd, "credit_drawn", telemetry.Props{"amount": amount}, func(st game.GameState) game.GameState {
					return game.DrawCredit(st, amount)
				})
			},
		},
		&cobra.Command{
			Use:   "repay <amount|all>",
			Short: "Pay down the loan",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := a.load(cmd.Context())
				if err != nil {
					return err
				}
				amount := 0
				if strings.EqualFold(strings.TrimSpace(args[0]), "all") {
					if st.Credit.Loan != nil {
						amount = min(st.Credit.Loan.BalanceDue, st.Cash)
					}
				} else if amount, err = amountArg(args[0]); err != nil {
					return err
				}
				return a.act(cmd, "credit_repaid", telemetry.Props{"amount": amount}, func(st game.GameState) game.GameState {
					return game.RepayCredit(st, amount)
				})
			},
		},
	)
	return c
}

func amountArg(raw string) (int, error) {
	v, err := strconv.Atoi(strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(raw), "$"), ",", ""))
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	return v, nil
}
