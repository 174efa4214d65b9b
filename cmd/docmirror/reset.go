package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docmirror/docmirror/internal/config"
	"github.com/docmirror/docmirror/internal/frontier"
)

// NewResetCmd creates the reset command.
func NewResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the persisted crawl state",
		Long: `Reset clears the persisted crawl frontier so the next mirror run starts
from scratch.

With --failed, only failed pages are put back in the queue; completed pages
and their files are untouched. Use this to give transient failures another
chance with "mirror --resume".`,
		Args: cobra.NoArgs,
		RunE: runResetCmd,
	}

	cmd.Flags().String("state-dir", "",
		"Directory holding the crawl state database (default: XDG data dir)")
	cmd.Flags().Bool("failed", false,
		"Requeue failed pages instead of clearing everything")
	cmd.Flags().Int("max-retries", config.DefaultMaxRetries,
		"With --failed, only requeue pages with fewer failures than this ceiling")
	cmd.Flags().BoolP("force", "f", false,
		"Clear without confirmation")

	return cmd
}

// runResetCmd executes the reset command.
func runResetCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	stateDir, err := flags.GetString("state-dir")
	if err != nil {
		return err
	}
	if stateDir == "" {
		stateDir = config.XDGDataDir()
	}
	failedOnly, err := flags.GetBool("failed")
	if err != nil {
		return err
	}
	maxRetries, err := flags.GetInt("max-retries")
	if err != nil {
		return err
	}
	force, err := flags.GetBool("force")
	if err != nil {
		return err
	}

	opts := frontier.DefaultOptions()
	opts.CreateIfNotExists = false
	store, err := frontier.Open(stateDir, opts)
	if err != nil {
		return fmt.Errorf("no crawl state found: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if failedOnly {
		n, err := store.ResetForRetry(ctx, maxRetries)
		if err != nil {
			return fmt.Errorf("failed to requeue failed pages: %w", err)
		}
		fmt.Fprintf(out, "Requeued %d failed pages. Run \"docmirror mirror --resume\" to retry them.\n", n)
		return nil
	}

	if !force {
		fmt.Fprintf(out, "This clears all crawl state in %s. Continue? [y/N]: ", store.Path())
		var answer string
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &answer); err != nil || (answer != "y" && answer != "Y") {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	if err := store.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear crawl state: %w", err)
	}
	fmt.Fprintln(out, "Crawl state cleared.")
	return nil
}
