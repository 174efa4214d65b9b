package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/docmirror/docmirror/internal/config"
	"github.com/docmirror/docmirror/internal/frontier"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the persisted crawl",
		Long: `Status reports the page and image counters of the persisted crawl
frontier and the most recent run, without touching the network.

Useful after an interrupted run to see how much work --resume would skip.`,
		Args: cobra.NoArgs,
		RunE: runStatusCmd,
	}

	cmd.Flags().String("state-dir", "",
		"Directory holding the crawl state database (default: XDG data dir)")

	return cmd
}

// runStatusCmd executes the status command.
func runStatusCmd(cmd *cobra.Command, _ []string) error {
	stateDir, err := cmd.Flags().GetString("state-dir")
	if err != nil {
		return err
	}
	if stateDir == "" {
		stateDir = config.XDGDataDir()
	}

	// Never create an empty frontier just to report on it.
	opts := frontier.DefaultOptions()
	opts.CreateIfNotExists = false
	store, err := frontier.Open(stateDir, opts)
	if err != nil {
		return fmt.Errorf("no crawl state found (run \"docmirror mirror\" first): %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	stats, err := store.Statistics(ctx)
	if err != nil {
		return fmt.Errorf("failed to read crawl state: %w", err)
	}

	fmt.Fprintf(out, "Crawl state: %s\n\n", store.Path())
	fmt.Fprintf(out, "Pages:  %d total\n", stats.Pages.Total)
	fmt.Fprintf(out, "  completed:   %d\n", stats.Pages.Completed)
	fmt.Fprintf(out, "  pending:     %d\n", stats.Pages.Pending)
	fmt.Fprintf(out, "  in progress: %d\n", stats.Pages.InProgress)
	fmt.Fprintf(out, "  failed:      %d\n", stats.Pages.Failed)
	fmt.Fprintf(out, "Images: %d total, %d downloaded, %d failed\n",
		stats.Images.Total, stats.Images.Downloaded, stats.Images.Failed)

	run, err := store.LatestRun(ctx)
	if err != nil {
		if errors.Is(err, frontier.ErrRunNotFound) {
			return nil
		}
		return fmt.Errorf("failed to read run history: %w", err)
	}

	fmt.Fprintf(out, "\nLast run: %s\n", run.UUID)
	fmt.Fprintf(out, "  started: %s\n", run.StartedAt.Format(time.RFC3339))
	if run.CompletedAt.IsZero() {
		fmt.Fprintln(out, "  completed: (interrupted)")
	} else {
		fmt.Fprintf(out, "  completed: %s\n", run.CompletedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(out, "  pages: %d completed, %d failed\n", run.PagesCompleted, run.PagesFailed)

	return nil
}
