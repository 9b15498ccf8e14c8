package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	cl "gearflip/internal/cli"
	"gearflip/internal/config"
	"gearflip/internal/game"
	"gearflip/internal/leaderboard"
	"gearflip/internal/store"
	"gearflip/internal/telemetry"

	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	slot       string

	cfg    config.CLIConfig
	log    *slog.Logger
	saves  store.Store
	events telemetry.Emitter
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{}
	root := &cobra.Command{
		Use:          "gearflip",
		Short:        "Flip guitar gear for three weeks and see what you walk away with",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.gearflip/config.yaml)")
	root.PersistentFlags().StringVar(&a.slot, "slot", store.DefaultSlot, "save slot to play in")

	root.AddCommand(
		newNewCmd(a),
		newStatusCmd(a),
		newInventoryCmd(a),
		newMarketCmd(a),
		newLocationsCmd(a),
		newTravelCmd(a),
		newInspectCmd(a),
		newBuyCmd(a),
		newSellCmd(a),
		newAuthCmd(a),
		newLuthierCmd(a),
		newInsureCmd(a),
		newListCmd(a),
		newShopCmd(a),
		newEncounterCmd(a),
		newDuelCmd(a),
		newCreditCmd(a),
		newScoreCmd(a),
		newSavesCmd(a),
		newEventsCmd(a),
		newProfileCmd(a),
		newSubmitCmd(a),
		newLeaderboardCmd(a),
		newChallengeCmd(a),
		newSyncCmd(a),
	)

	err := root.ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) open(ctx context.Context) error {
	path := a.configPath
	if path == "" {
		p, err := config.DefaultCLIPath()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, err := config.LoadCLI(path)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))

	saves, err := store.OpenSQLite(ctx, cfg.SavePath, a.log)
	if err != nil {
		return err
	}
	a.saves = saves
	a.events = telemetry.New(cfg.Telemetry, filepath.Join(filepath.Dir(cfg.SavePath), "telemetry.db"), a.log)
	return nil
}

func (a *app) close() {
	if a.events != nil {
		_ = a.events.Close()
	}
	if a.saves != nil {
		if err := a.saves.Close(); err != nil {
			a.log.Warn("close save store", "err", err)
		}
	}
}

func parseLevel(v string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
		return slog.LevelWarn
	}
	return lvl
}

func (a *app) client() *cl.Client {
	return cl.NewClient(a.cfg.APIBaseURL)
}

func (a *app) load(ctx context.Context) (game.GameState, error) {
	st, err := a.saves.Load(ctx, a.slot)
	if errors.Is(err, store.ErrSlotNotFound) {
		return st, fmt.Errorf("no run in slot %q, start one with `gearflip new`", a.slot)
	}
	return st, err
}

func (a *app) emit(name string, st game.GameState, props telemetry.Props) {
	out := telemetry.Props{"slot": a.slot, "run_seed": st.RunSeed, "day": st.Day}
	for k, v := range props {
		out[k] = v
	}
	a.events.Emit(name, out)
}

// act loads the slot, applies fn, saves the result and prints whatever the
// run log gained.
func (a *app) act(cmd *cobra.Command, event string, props telemetry.Props, fn func(game.GameState) game.GameState) error {
	ctx := cmd.Context()
	st, err := a.load(ctx)
	if err != nil {
		return err
	}
	next := fn(st)
	if err := a.saves.Save(ctx, a.slot, next); err != nil {
		return err
	}
	fresh := freshMessages(st, next)
	renderMessages(fresh)

	if props == nil {
		props = telemetry.Props{}
	}
	props["rejected"] = len(fresh) == 1 && fresh[0].Kind == game.MsgWarn
	a.emit(event, next, props)

	if next.IsGameOver && !st.IsGameOver {
		renderSummary(next)
		a.emit("run_completed", next, telemetry.Props{"score": next.Score(), "total_days": next.TotalDays})
		printInfo("Post it with `gearflip submit`.")
	}
	return nil
}

func freshMessages(before, after game.GameState) []game.Message {
	if len(after.Messages) < len(before.Messages) {
		return after.Messages
	}
	return after.Messages[len(before.Messages):]
}

// listingArg accepts a 1-based market row number or a listing ID.
func listingArg(st game.GameState, arg string) string {
	if n, err := strconv.Atoi(strings.TrimSpace(arg)); err == nil && n >= 1 && n <= len(st.Market) {
		return st.Market[n-1].ID
	}
	return strings.TrimSpace(arg)
}

// itemArg accepts a 1-based inventory row number or an item ID.
func itemArg(st game.GameState, arg string) string {
	if n, err := strconv.Atoi(strings.TrimSpace(arg)); err == nil && n >= 1 && n <= len(st.Inventory) {
		return st.Inventory[n-1].ID
	}
	return strings.TrimSpace(arg)
}

func newNewCmd(a *app) *cobra.Command {
	var (
		seed     string
		days     int
		location string
		daily    bool
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new run in the current slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !force {
				if cur, err := a.saves.Load(ctx, a.slot); err == nil && !cur.IsGameOver {
					return fmt.Errorf("slot %q has a run on day %d/%d, use --force to abandon it", a.slot, cur.Day, cur.TotalDays)
				}
			}
			if days == 0 {
				days = a.cfg.RunLength
			}
			if daily {
				seed = a.dailySeed(ctx)
				days = game.StandardRunLength
			}
			st := game.NewGame(seed, days, location)
			if err := a.saves.Save(ctx, a.slot, st); err != nil {
				return err
			}
			renderMessages(st.Messages)
			renderStatus(st)
			a.emit("run_started", st, telemetry.Props{"total_days": st.TotalDays, "location": st.Location, "daily": daily})
			return nil
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "run seed (random if empty)")
	cmd.Flags().IntVar(&days, "days", 0, "run length in days")
	cmd.Flags().StringVar(&location, "location", "", "starting location")
	cmd.Flags().BoolVar(&daily, "daily", false, "play today's challenge seed")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite a run in progress")
	return cmd
}

// dailySeed asks the server for today's seed and derives it locally when the
// server cannot be reached.
func (a *app) dailySeed(ctx context.Context) string {
	now := time.Now().UTC()
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	c, _, err := a.client().Challenge(reqCtx, now)
	if err != nil || c.Seed == "" {
		a.log.Info("challenge lookup failed, deriving locally", "err", err)
		return leaderboard.ChallengeSeed(now).Seed
	}
	return c.Seed
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show where you are and what you're carrying",
		Aliases: []string{"st"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			renderStatus(st)
			renderInventory(st)
			return nil
		},
	}
}

func newInventoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "inventory",
		Short:   "List the gear in your bag",
		Aliases: []string{"inv"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			renderInventory(st)
			return nil
		},
	}
}

func newScoreCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Show the current score breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(st.Summary())
			}
			renderSummary(st)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func newSavesCmd(a *app) *cobra.Command {
	saves := &cobra.Command{
		Use:   "saves",
		Short: "List saved runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slots, err := a.saves.List(cmd.Context())
			if err != nil {
				return err
			}
			renderSaves(slots, a.slot)
			return nil
		},
	}
	saves.AddCommand(&cobra.Command{
		Use:   "delete <slot>",
		Short: "Delete a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.saves.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Deleted slot %q.", args[0]))
			return nil
		},
	})
	return saves
}

func newEventsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:    "events",
		Short:  "Show recent local telemetry events",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recorder, ok := a.events.(*telemetry.SQLiteEmitter)
			if !ok {
				printInfo("Events are not being recorded locally.")
				return nil
			}
			events, err := recorder.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, e := range events {
				raw, _ := json.Marshal(e.Props)
				fmt.Printf("%s  %-18s %s\n", e.At.Local().Format(time.DateTime), e.Name, dim.Sprint(string(raw)))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of events")
	return cmd
}
