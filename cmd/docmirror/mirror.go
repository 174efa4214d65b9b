package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docmirror/docmirror/internal/config"
	"github.com/docmirror/docmirror/internal/crawler"
	"github.com/docmirror/docmirror/internal/frontier"
	"github.com/docmirror/docmirror/internal/log"
	"github.com/docmirror/docmirror/internal/report"
	"github.com/docmirror/docmirror/internal/resolver"
	"github.com/docmirror/docmirror/internal/writer"
)

// NewMirrorCmd creates the mirror command.
func NewMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror [base-url]",
		Short: "Crawl a documentation site into local markdown files",
		Long: `Mirror crawls a documentation website starting from the base URL and
converts every page into a markdown file under the output directory.

The crawl runs in phases: discover seeds the frontier, scrape fetches and
converts pages with a bounded worker pool, images are downloaded, failed
pages get one deliberate retry pass, then the table of contents is
generated, internal links are rewritten to local references, and the
output is linted.

Progress is persisted after every page, so an interrupted run resumes with
--resume without refetching completed pages.

Examples:
  # Mirror a documentation site
  docmirror mirror https://support.example.com/product

  # Resume an interrupted run
  docmirror mirror --resume https://support.example.com/product

  # Faster, less polite crawl with more workers
  docmirror mirror -w 10 --delay 500ms https://support.example.com/product

  # Re-render pages already in the frontier without network discovery
  docmirror mirror --dry-run https://support.example.com/product

Configuration file (.docmirror) example:
  defaults:
    workers: 5
    delay: 2s
  sites:
    https://support.example.com/product:
      depth: 6
      include-resources: true`,
		Args: cobra.MaximumNArgs(1),
		RunE: runMirrorCmd,
	}

	// Crawl behavior flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Output directory for generated markdown")
	cmd.Flags().String("state-dir",
		"", "Directory for the crawl state database (default: XDG data dir)")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent scrape workers")
	cmd.Flags().Duration("delay", config.DefaultRequestDelay,
		"Delay between requests, shared across workers")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request fetch timeout")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxCrawlDepth,
		"Maximum crawl depth from the base URL (0 = unlimited)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to fetch (0 = unlimited)")
	cmd.Flags().Int("max-retries", config.DefaultMaxRetries,
		"Per-page retry ceiling across all phases")
	cmd.Flags().Int("max-failures", config.DefaultMaxConsecutiveFailures,
		"Abort after this many consecutive page failures")
	cmd.Flags().Duration("max-runtime", config.DefaultMaxRuntime,
		"Abort after this much wall-clock time (0 = unlimited)")
	cmd.Flags().String("restriction", string(config.RestrictionRoot),
		`URL restriction mode: "root", "host", or "off"`)
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header for all requests")

	// Mode flags
	cmd.Flags().Bool("resume", false,
		"Keep the existing frontier and continue the previous run")
	cmd.Flags().Bool("dry-run", false,
		"Re-scrape the known frontier only; no discovery, images, or linting")
	cmd.Flags().Bool("include-resources", false,
		"Also crawl the site's resources section")
	cmd.Flags().Bool("no-lint", false,
		"Skip the final markdown lint pass")
	cmd.Flags().Bool("redirect-stubs", false,
		"Write a stub file for URLs that redirect to an already-mirrored page")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .docmirror in current or home directory)")

	// Report flags
	cmd.Flags().StringP("report", "r", "",
		"Also write a markdown run report to the specified file")
	cmd.Flags().Bool("json-logs", false,
		"Emit logs as JSON instead of text")

	return cmd
}

// runMirrorCmd executes the mirror command.
func runMirrorCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildMirrorConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, err := setupLogger(cmd, cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	// Interrupts cancel the run; the deferred frontier reset inside the
	// orchestrator keeps the state resumable.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runMirror(ctx, cmd, cfg, logger)
}

// buildMirrorConfig layers defaults, the config file, DOCMIRROR_*
// environment variables, and explicit CLI flags, in that order.
func buildMirrorConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.New()
	if len(args) > 0 {
		cfg.BaseURL = strings.TrimRight(args[0], "/")
	}

	explicit, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = explicit

	path, err := config.FindConfigFile(explicit)
	if err != nil {
		return nil, err
	}
	if path != "" {
		file, err := config.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		file.Apply(cfg)
	}

	cfg.ApplyEnv()

	if err := applyMirrorFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyMirrorFlags overlays flags the user actually passed. Flag defaults
// mirror the config defaults, so untouched flags never mask the config
// file or the environment.
func applyMirrorFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("output") {
		if cfg.OutputDir, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	if flags.Changed("state-dir") {
		if cfg.StateDir, err = flags.GetString("state-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return err
		}
	}
	if flags.Changed("delay") {
		if cfg.RequestDelay, err = flags.GetDuration("delay"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("depth") {
		if cfg.MaxCrawlDepth, err = flags.GetInt("depth"); err != nil {
			return err
		}
	}
	if flags.Changed("max-pages") {
		if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
			return err
		}
	}
	if flags.Changed("max-retries") {
		if cfg.MaxRetries, err = flags.GetInt("max-retries"); err != nil {
			return err
		}
	}
	if flags.Changed("max-failures") {
		if cfg.MaxConsecutiveFailures, err = flags.GetInt("max-failures"); err != nil {
			return err
		}
	}
	if flags.Changed("max-runtime") {
		if cfg.MaxRuntime, err = flags.GetDuration("max-runtime"); err != nil {
			return err
		}
	}
	if flags.Changed("restriction") {
		mode, err := flags.GetString("restriction")
		if err != nil {
			return err
		}
		cfg.Restriction = config.DomainRestriction(mode)
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return err
		}
	}

	if cfg.Resume, err = flags.GetBool("resume"); err != nil {
		return err
	}
	if cfg.DryRun, err = flags.GetBool("dry-run"); err != nil {
		return err
	}
	if flags.Changed("include-resources") {
		if cfg.IncludeResources, err = flags.GetBool("include-resources"); err != nil {
			return err
		}
	}
	if cfg.NoLint, err = flags.GetBool("no-lint"); err != nil {
		return err
	}
	if cfg.RedirectStubs, err = flags.GetBool("redirect-stubs"); err != nil {
		return err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the phase-tagged structured logger.
func setupLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	jsonLogs, err := cmd.Flags().GetBool("json-logs")
	if err != nil {
		return nil, err
	}
	if jsonLogs {
		return log.NewPhaseJSONLogger(os.Stderr, cfg.Verbose), nil
	}
	return log.NewPhaseLogger(os.Stderr, cfg.Verbose), nil
}

// runMirror wires the collaborators together and executes the crawl.
func runMirror(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting mirror",
		"baseURL", cfg.BaseURL,
		"output", cfg.OutputDir,
		"workers", cfg.Workers,
		"resume", cfg.Resume,
		"dryRun", cfg.DryRun,
	)

	store, err := frontier.Open(cfg.StateDir, frontier.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open crawl state: %w", err)
	}
	defer store.Close()
	logger.Info("crawl state opened", "path", store.Path())

	w, err := writer.New(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to prepare output directory: %w", err)
	}

	orch := crawler.New(cfg, store, w, resolver.New(cfg.BaseURL, logger),
		crawler.WithLogger(logger),
	)

	summary, runErr := orch.Run(ctx)
	if summary != nil {
		if err := outputSummary(cmd, summary); err != nil {
			logger.Error("failed to write run report", "error", err)
		}
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Mirror interrupted; rerun with --resume to continue.")
		}
		return runErr
	}
	return nil
}

// outputSummary prints the run summary and optionally saves the markdown
// report next to it.
func outputSummary(cmd *cobra.Command, summary *report.Summary) error {
	writers := []report.Writer{report.NewTextWriter(cmd.OutOrStdout())}

	reportFile, err := cmd.Flags().GetString("report")
	if err != nil {
		return err
	}
	if reportFile != "" {
		dir := filepath.Dir(reportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}
		f, err := os.Create(reportFile)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		writers = append(writers, report.NewMarkdownWriter(f))
	}

	_, err = report.NewMultiWriter(writers...).Write(summary)
	return err
}
