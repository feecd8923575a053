package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/manaforge/internal/commit"
	"github.com/ramonehamilton/manaforge/internal/deckstats"
	"github.com/ramonehamilton/manaforge/internal/format"
	"github.com/ramonehamilton/manaforge/internal/staging"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <deck-id>",
		Short: "Check a deck against its format rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.commits.Validate(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Println(format.BadgeText(*result))
			for _, e := range result.Errors {
				fmt.Printf("  error:   %s\n", e)
			}
			for _, w := range result.Warnings {
				fmt.Printf("  warning: %s\n", w)
			}
			if len(result.Unresolved) > 0 {
				fmt.Printf("  %d cards could not be resolved: %s\n", len(result.Unresolved), strings.Join(result.Unresolved, ", "))
			}
			if !result.IsValid {
				return errors.New("deck is invalid")
			}
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <deck-id>",
		Short: "Print mana curve and color statistics for a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			deck, err := a.decks.GetByID(ctx, args[0])
			if err != nil {
				return err
			}
			if deck == nil {
				return commit.ErrDeckNotFound
			}
			entries, err := a.decks.GetCards(ctx, deck.ID)
			if err != nil {
				return err
			}
			lookup, err := a.cards.Resolve(ctx, commit.CardIDs(deck, entries))
			if err != nil {
				return err
			}
			stats := deckstats.Calculate(entries, lookup)

			fmt.Printf("%s (%s)\n", deck.Name, deck.Format)
			fmt.Printf("Mainboard: %d  Sideboard: %d  Maybeboard: %d\n", stats.MainboardCount, stats.SideboardCount, stats.MaybeboardCount)
			fmt.Printf("Average mana value: %.1f\n", stats.AverageCMC)
			fmt.Println("Mana curve:")
			for _, p := range stats.CurvePoints() {
				fmt.Printf("  %-2s %s %d\n", p.Label, strings.Repeat("#", p.Count), p.Count)
			}
			fmt.Println("Colors:")
			for _, p := range stats.ColorPoints() {
				fmt.Printf("  %-9s %d (%s)\n", p.Name, p.Count, deckstats.Percentage(p.Count, stats.MainboardCount))
			}

			chart, _ := cmd.Flags().GetString("chart")
			if chart == "" {
				return nil
			}
			f, err := os.Create(chart)
			if err != nil {
				return fmt.Errorf("failed to create chart file: %w", err)
			}
			defer f.Close()

			config := deckstats.DefaultChartConfig()
			config.Title = deck.Name
			if err := deckstats.RenderHTML(f, stats, config); err != nil {
				return err
			}
			fmt.Printf("Chart written to %s\n", chart)
			return nil
		},
	}

	cmd.Flags().String("chart", "", "write an HTML chart page to this path")
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <deck-id>",
		Short: "List the commits of a deck, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			entries, err := a.history.ListByDeck(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No history.")
				return nil
			}

			for _, e := range entries {
				fmt.Printf("%s  %s  %s  %s\n", e.ID, e.CommittedAt.Local().Format("2006-01-02 15:04"), e.UserID, e.Message)
				for _, c := range e.Changes {
					fmt.Printf("    %s %s %s\n", staging.Icon(c.Action), c.CardID, staging.DisplayText(c))
				}
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "maximum number of commits to show (0 for all)")
	return cmd
}

func revertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revert <history-id>",
		Short: "Commit the inverse of a previous commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			user, _ := cmd.Flags().GetString("user")
			outcome, err := a.commits.Revert(cmd.Context(), args[0], user)
			if err != nil {
				return err
			}

			fmt.Printf("Created %s: %s (%d applied, %d skipped)\n",
				outcome.History.ID, outcome.History.Message, outcome.Result.Applied, outcome.Result.Skipped)
			if outcome.Validation != nil {
				fmt.Println("Deck is now:", format.BadgeText(*outcome.Validation))
			}
			return nil
		},
	}

	cmd.Flags().String("user", "local", "user id recorded on the revert commit")
	return cmd
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local card cache",
	}

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Remove cached cards older than the given age",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			maxAge, _ := cmd.Flags().GetDuration("older-than")
			if maxAge <= 0 {
				if maxAge, err = a.cfg.GetCacheTTL(); err != nil {
					return err
				}
			}
			n, err := a.cards.Prune(cmd.Context(), maxAge)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d cached cards\n", n)
			return nil
		},
	}
	prune.Flags().Duration("older-than", 0, "age cutoff (default: the configured cache TTL)")

	cmd.AddCommand(prune)
	return cmd
}
