package main

import (
	"fmt"
	"strconv"
	"strings"

	"gearflip/internal/catalog"
	"gearflip/internal/game"
	"gearflip/internal/telemetry"

	"github.com/spf13/cobra"
)

func newMarketCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "market",
		Short:   "Show today's listings",
		Aliases: []string{"m"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			renderMarket(st)
			return nil
		},
	}
}

func newLocationsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "List the places you can travel to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			renderLocations(st.Location)
			return nil
		},
	}
}

// locationArg accepts a 1-based row from `locations`, a case-insensitive name
// or a unique name prefix.
func locationArg(args []string, current string) (string, error) {
	raw := strings.TrimSpace(strings.Join(args, " "))
	if raw == "" {
		return current, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 1 || n > len(catalog.Locations) {
			return "", fmt.Errorf("no location #%d", n)
		}
		return catalog.Locations[n-1].Name, nil
	}
	var matches []string
	for _, l := range catalog.Locations {
		name := strings.ToLower(l.Name)
		if name == strings.ToLower(raw) {
			return l.Name, nil
		}
		if strings.HasPrefix(name, strings.ToLower(raw)) {
			matches = append(matches, l.Name)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("unknown location %q", raw)
	default:
		return "", fmt.Errorf("%q could be %s", raw, strings.Join(matches, " or "))
	}
}

func newTravelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "travel [location]",
		Short:   "End the day, optionally moving somewhere else",
		Aliases: []string{"next", "advance"},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if st.Busy() {
				printWarn("Deal with what's in front of you first.")
				renderEncounter(st)
				renderDuel(st)
				return nil
			}
			dest, err := locationArg(args, st.Location)
			if err != nil {
				return err
			}
			var travel []string
			if dest != st.Location {
				travel = append(travel, fmt.Sprintf("You pack %d slots of gear into the car and leave %s.", st.SlotsUsed(), st.Location))
			}
			err = a.act(cmd, "day_advanced", telemetry.Props{"from": st.Location, "to": dest}, func(st game.GameState) game.GameState {
				return game.AdvanceDay(st, dest, travel)
			})
			if err != nil {
				return err
			}
			next, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if next.PendingEncounter != nil {
				renderEncounter(next)
			}
			if next.PendingDuel != nil {
				renderDuel(next)
			}
			return nil
		},
	}
}

func itemAction(a *app, use, short, event string, market bool, fn func(game.GameState, string) game.GameState) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.act(cmd, event, telemetry.Props{"ref": args[0]}, func(st game.GameState) game.GameState {
				id := itemArg(st, args[0])
				if market {
					id = listingArg(st, args[0])
				}
				return fn(st, id)
			})
		},
	}
}

func newInspectCmd(a *app) *cobra.Command {
	return itemAction(a, "inspect <listing>", "Look a listing over before buying", "listing_inspected", true, game.Inspect)
}

func newBuyCmd(a *app) *cobra.Command {
	return itemAction(a, "buy <listing>", "Buy a listing from today's market", "item_bought", true, game.Buy)
}

func newSellCmd(a *app) *cobra.Command {
	return itemAction(a, "sell <item>", "Sell an item to a local dealer", "item_sold", false, game.Sell)
}

func newAuthCmd(a *app) *cobra.Command {
	return itemAction(a, "auth <item>", "Send an item out for authentication", "item_authenticated", false, game.Authenticate)
}

func newLuthierCmd(a *app) *cobra.Command {
	return itemAction(a, "luthier <item>", "Put an item on the luthier's bench", "item_repaired", false, game.SendToLuthier)
}

func newInsureCmd(a *app) *cobra.Command {
	return itemAction(a, "insure <item>", "Insure an item against repossession", "item_insured", false, game.Insure)
}

func newListCmd(a *app) *cobra.Command {
	return itemAction(a, "list <item>", "List an item at auction", "item_listed", false, game.ListForAuction)
}

func newShopCmd(a *app) *cobra.Command {
	shop := &cobra.Command{
		Use:   "shop",
		Short: "Bag upgrades, tools and performance gear",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			renderShop(st)
			return nil
		},
	}
	shop.AddCommand(&cobra.Command{
		Use:   "bag",
		Short: "Upgrade your bag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.act(cmd, "bag_upgraded", nil, game.UpgradeBag)
		},
	})
	shop.AddCommand(&cobra.Command{
		Use:   "tool <serial-scanner|uv-light>",
		Short: "Buy a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := catalog.Tool(strings.ToLower(strings.TrimSpace(args[0])))
			return a.act(cmd, "tool_bought", telemetry.Props{"tool": string(tool)}, func(st game.GameState) game.GameState {
				return game.BuyTool(st, tool)
			})
		},
	})
	shop.AddCommand(&cobra.Command{
		Use:   "boost <id>",
		Short: "Buy performance gear from today's table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.ToLower(strings.TrimSpace(args[0]))
			return a.act(cmd, "boost_bought", telemetry.Props{"boost": id}, func(st game.GameState) game.GameState {
				return game.BuyBoost(st, id)
			})
		},
	})
	return shop
}
