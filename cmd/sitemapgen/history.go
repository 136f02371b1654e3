package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/nao1215/sitemapgen/internal/config"
	"github.com/nao1215/sitemapgen/internal/database"
	"github.com/nao1215/sitemapgen/internal/model"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command and its subcommands.
// These commands read the run history database written by `crawl`.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored crawl runs",
		Long: `History lists and compares crawl runs stored in the run database.

Every crawl is stored automatically unless --no-save was given. Stored
runs let you track how a site's URL set changes over time.

Examples:
  # List all stored runs
  sitemapgen history list

  # List runs for one seed URL
  sitemapgen history list https://example.com/

  # Show a stored run (use list to find the ID)
  sitemapgen history show 5

  # Show which URLs appeared or disappeared between two runs
  sitemapgen history diff 5 9

  # Compare the two most recent runs of a seed
  sitemapgen history diff https://example.com/`,
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryDiffCmd())

	return cmd
}

// openHistoryDB opens the run database in the XDG data directory.
// The database must already exist: history commands never create it.
func openHistoryDB() (*database.HistoryDB, error) {
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false

	db, err := database.Open(config.XDGDataDir(), opts)
	if err != nil {
		return nil, fmt.Errorf("no run history found (run `sitemapgen crawl` first): %w", err)
	}
	return db, nil
}

// newHistoryListCmd creates the `history list` subcommand.
func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [seed-url]",
		Short: "List stored crawl runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openHistoryDB()
			if err != nil {
				return err
			}
			defer db.Close()

			seed := ""
			if len(args) == 1 {
				seed = args[0]
			}

			runs, err := db.ListRuns(cmd.Context(), seed)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored runs.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSEED\tSTARTED\tDURATION\tURLS")
			for _, run := range runs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n",
					run.ID,
					run.SeedURL,
					run.StartedAt.Format("2006-01-02 15:04:05"),
					run.Duration.Round(time.Millisecond),
					run.URLCount,
				)
			}
			return w.Flush()
		},
	}
}

// newHistoryShowCmd creates the `history show` subcommand.
func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a stored crawl run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run ID %q: %w", args[0], err)
			}

			db, err := openHistoryDB()
			if err != nil {
				return err
			}
			defer db.Close()

			run, err := db.GetRun(cmd.Context(), id)
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run %d not found (use `history list` to see stored runs)", id)
			}

			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(run)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %d\n", run.ID)
			fmt.Fprintf(out, "  Seed:     %s\n", run.SeedURL)
			fmt.Fprintf(out, "  Started:  %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "  Duration: %s\n", run.Duration.Round(time.Millisecond))
			fmt.Fprintf(out, "  URLs:     %d\n", run.URLCount())
			fmt.Fprintf(out, "  Filtered: %d (exclude %d, tracking %d, depth %d, limit %d, http %d)\n",
				run.Stats.TotalFiltered(),
				run.Stats.FilteredByExclude,
				run.Stats.FilteredByTracking,
				run.Stats.FilteredByDepth,
				run.Stats.FilteredByMaxURLs,
				run.Stats.Non200Status,
			)
			fmt.Fprintln(out)
			for _, u := range run.URLs {
				fmt.Fprintln(out, u)
			}
			return nil
		},
	}

	cmd.Flags().BoolP("json", "j", false, "Output the run as JSON")

	return cmd
}

// newHistoryDiffCmd creates the `history diff` subcommand.
func newHistoryDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff (<older-id> <newer-id> | <seed-url>)",
		Short: "Show URL changes between two runs",
		Long: `Diff shows the URLs that appeared and disappeared between two stored runs.

With two run IDs, those runs are compared directly. With a seed URL, the
two most recent runs of that seed are compared.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openHistoryDB()
			if err != nil {
				return err
			}
			defer db.Close()

			older, newer, err := resolveDiffRuns(cmd, db, args)
			if err != nil {
				return err
			}

			added, removed := newer.Diff(older)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Comparing run %d (%s) against run %d (%s)\n",
				newer.ID, newer.StartedAt.Format("2006-01-02 15:04:05"),
				older.ID, older.StartedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "  %d URLs -> %d URLs (%+d)\n\n",
				older.URLCount(), newer.URLCount(), newer.URLCount()-older.URLCount())

			if len(added) == 0 && len(removed) == 0 {
				fmt.Fprintln(out, "No changes.")
				return nil
			}
			for _, u := range added {
				fmt.Fprintf(out, "+ %s\n", u)
			}
			for _, u := range removed {
				fmt.Fprintf(out, "- %s\n", u)
			}
			return nil
		},
	}
}

// resolveDiffRuns loads the two runs named by the diff arguments: either
// two explicit run IDs, or the latest two runs of a seed URL.
func resolveDiffRuns(cmd *cobra.Command, db *database.HistoryDB, args []string) (older, newer *model.Run, err error) {
	ctx := cmd.Context()

	if len(args) == 2 {
		olderID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid run ID %q: %w", args[0], err)
		}
		newerID, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid run ID %q: %w", args[1], err)
		}

		older, err = db.GetRun(ctx, olderID)
		if err != nil {
			return nil, nil, err
		}
		if older == nil {
			return nil, nil, fmt.Errorf("run %d not found", olderID)
		}
		newer, err = db.GetRun(ctx, newerID)
		if err != nil {
			return nil, nil, err
		}
		if newer == nil {
			return nil, nil, fmt.Errorf("run %d not found", newerID)
		}
		return older, newer, nil
	}

	// One argument: a seed URL whose latest two runs are compared.
	seed := args[0]
	runs, err := db.ListRuns(ctx, seed)
	if err != nil {
		return nil, nil, err
	}
	if len(runs) < 2 {
		return nil, nil, errors.New("need at least two stored runs for this seed to diff")
	}

	newer, err = db.GetRun(ctx, runs[0].ID)
	if err != nil {
		return nil, nil, err
	}
	older, err = db.GetRun(ctx, runs[1].ID)
	if err != nil {
		return nil, nil, err
	}
	if older == nil || newer == nil {
		return nil, nil, errors.New("stored run disappeared while reading history")
	}
	return older, newer, nil
}
