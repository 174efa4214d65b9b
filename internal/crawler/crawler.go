package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/docmirror/docmirror/internal/breaker"
	"github.com/docmirror/docmirror/internal/config"
	"github.com/docmirror/docmirror/internal/fetch"
	"github.com/docmirror/docmirror/internal/frontier"
	"github.com/docmirror/docmirror/internal/health"
	"github.com/docmirror/docmirror/internal/log"
	"github.com/docmirror/docmirror/internal/ratelimit"
	"github.com/docmirror/docmirror/internal/report"
	"github.com/docmirror/docmirror/internal/resolver"
	"github.com/docmirror/docmirror/internal/writer"
)

// defaultMonitorInterval is how often the background watchdog checks
// runtime and health during a run.
const defaultMonitorInterval = 60 * time.Second

// ImageDownloader is the slice of the image downloader the orchestrator
// needs. Tests inject a fake.
type ImageDownloader interface {
	Download(ctx context.Context, imageURL string) (string, error)
}

// Phase is one stage of a mirror run.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows phases to carry configuration state
// 2. It provides a Name() method for logging and phase-tagged records
// 3. It's more extensible for future features (e.g., per-phase budgets)
type Phase interface {
	// Run executes the phase. Returning an error aborts the run; work
	// that should not stop the crawl is recorded in the frontier instead.
	Run(ctx context.Context) error

	// Name returns the phase's name for logging purposes.
	Name() string
}

// phaseFunc adapts a function to the Phase interface.
type phaseFunc struct {
	name string
	run  func(ctx context.Context) error
}

func (p phaseFunc) Run(ctx context.Context) error { return p.run(ctx) }
func (p phaseFunc) Name() string                  { return p.name }

// Orchestrator runs the crawl phases against shared collaborators.
type Orchestrator struct {
	cfg      *config.Config
	store    *frontier.Store
	fetcher  fetch.Fetcher
	writer   *writer.Writer
	resolver *resolver.Resolver
	images   ImageDownloader
	limiter  *ratelimit.Limiter
	retry    ratelimit.Policy
	breaker  *breaker.Breaker
	monitor  health.Monitor
	logger   *slog.Logger

	// monitorInterval is the watchdog tick. Tests shorten it.
	monitorInterval time.Duration

	// workers is the current scrape pool size. The watchdog halves it
	// when memory runs short; it is never restored within a run.
	workers atomic.Int32

	// pagesScraped counts pages completed this run, for the page budget.
	pagesScraped atomic.Int64

	// consecutiveFailures tracks the current unbroken failure streak.
	consecutiveFailures atomic.Int64

	started time.Time
	runID   int64
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFetcher replaces the page fetcher.
func WithFetcher(f fetch.Fetcher) Option {
	return func(o *Orchestrator) { o.fetcher = f }
}

// WithImageDownloader replaces the image downloader.
func WithImageDownloader(d ImageDownloader) Option {
	return func(o *Orchestrator) { o.images = d }
}

// WithMonitor replaces the health monitor.
func WithMonitor(m health.Monitor) Option {
	return func(o *Orchestrator) { o.monitor = m }
}

// WithLogger sets a custom logger. If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithRetryPolicy replaces the per-page retry policy.
func WithRetryPolicy(p ratelimit.Policy) Option {
	return func(o *Orchestrator) { o.retry = p }
}

// WithBreaker replaces the circuit breaker.
func WithBreaker(b *breaker.Breaker) Option {
	return func(o *Orchestrator) { o.breaker = b }
}

// WithMonitorInterval sets how often the watchdog checks runtime and
// health.
func WithMonitorInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.monitorInterval = d }
}

// New creates an Orchestrator. The store, writer, and resolver are
// required; the network-facing collaborators default to production
// implementations built from the config.
func New(cfg *config.Config, store *frontier.Store, w *writer.Writer, r *resolver.Resolver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:             cfg,
		store:           store,
		writer:          w,
		resolver:        r,
		limiter:         ratelimit.NewLimiter(cfg.RequestDelay, cfg.Workers),
		retry:           ratelimit.DefaultPolicy(cfg.MaxRetries),
		breaker:         breaker.New(breaker.DefaultThreshold, breaker.DefaultRecoveryTimeout),
		monitorInterval: defaultMonitorInterval,
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.fetcher == nil {
		o.fetcher = fetch.NewClient(cfg.Timeout, fetch.WithUserAgent(cfg.UserAgent))
	}
	if o.images == nil {
		o.images = downloaderAdapter{cfg: cfg, root: w.Root()}.build()
	}
	if o.monitor == nil {
		o.monitor = health.NewSystemMonitor(w.Root(), []string{cfg.BaseURL})
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	o.workers.Store(int32(cfg.Workers))
	return o
}

// Run executes the crawl from start to finish and returns the run summary.
// A fatal error still produces a summary alongside the error; the frontier
// keeps whatever progress was made.
func (o *Orchestrator) Run(ctx context.Context) (*report.Summary, error) {
	o.started = time.Now()

	if err := o.prepare(ctx); err != nil {
		return nil, err
	}

	// The watchdog owns the runtime limit and health-driven throttling.
	watchCtx, stopWatch := context.WithCancelCause(ctx)
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		o.watch(watchCtx, stopWatch)
	}()

	runErr := o.runPhases(watchCtx)

	stopWatch(nil)
	<-watchDone

	// Interrupted claims go back to pending so the next run can resume.
	resetCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if n, err := o.store.ResetInProgress(resetCtx); err != nil {
		o.logger.Warn("failed to reset interrupted pages", "error", err)
	} else if n > 0 {
		o.logger.Info("reset interrupted pages for next run", "pages", n)
	}

	summary := o.buildSummary(resetCtx)
	if err := o.completeRun(resetCtx, summary); err != nil {
		o.logger.Warn("failed to record run completion", "error", err)
	}

	// A watchdog abort cancels the phase contexts, so workers surface
	// plain cancellation; the cause is the error worth reporting.
	if cause := context.Cause(watchCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		if runErr == nil || errors.Is(runErr, context.Canceled) {
			runErr = cause
		}
	}
	return summary, runErr
}

// prepare resets or clears the frontier and opens the run record.
func (o *Orchestrator) prepare(ctx context.Context) error {
	if o.cfg.Resume || o.cfg.DryRun {
		n, err := o.store.ResetInProgress(ctx)
		if err != nil {
			return fmt.Errorf("failed to prepare resumed run: %w", err)
		}
		if n > 0 {
			o.logger.Info("resuming interrupted run", "reset_pages", n)
		}
	} else {
		if err := o.store.ClearAll(ctx); err != nil {
			return fmt.Errorf("failed to clear frontier: %w", err)
		}
	}

	runID, err := o.store.StartRun(ctx)
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	o.runID = runID
	return nil
}

// phases returns the phase sequence for this run. A dry run only scrapes
// the already-known frontier and rebuilds the index.
func (o *Orchestrator) phases() []Phase {
	scrape := phaseFunc{"scrape-pages", o.runScrape}
	index := phaseFunc{"generate-index", o.runGenerateIndex}

	if o.cfg.DryRun {
		return []Phase{scrape, index}
	}

	all := []Phase{
		phaseFunc{"discover", o.runDiscover},
		scrape,
		phaseFunc{"download-images", o.runDownloadImages},
		phaseFunc{"retry-failed", o.runRetryFailed},
		index,
		phaseFunc{"resolve-links", o.runResolveLinks},
	}
	if !o.cfg.NoLint {
		all = append(all, phaseFunc{"lint", o.runLint})
	}
	return all
}

func (o *Orchestrator) runPhases(ctx context.Context) error {
	for _, phase := range o.phases() {
		phaseCtx := log.WithPhase(ctx, phase.Name())
		o.logger.InfoContext(phaseCtx, "phase started")

		start := time.Now()
		if err := phase.Run(phaseCtx); err != nil {
			o.logger.ErrorContext(phaseCtx, "phase failed", "error", err, "elapsed", time.Since(start).Round(time.Millisecond))
			return fmt.Errorf("phase %s: %w", phase.Name(), err)
		}
		o.logger.InfoContext(phaseCtx, "phase finished", "elapsed", time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// watch enforces the runtime limit and reacts to health checks until the
// run finishes.
func (o *Orchestrator) watch(ctx context.Context, abort context.CancelCauseFunc) {
	ticker := time.NewTicker(o.monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if o.cfg.MaxRuntime > 0 && time.Since(o.started) > o.cfg.MaxRuntime {
			o.logger.Error("maximum runtime exceeded, aborting run", "limit", o.cfg.MaxRuntime)
			abort(ErrRuntimeExceeded)
			return
		}

		status := o.monitor.Check(ctx)
		if memory, ok := status.Checks[health.CheckMemory]; ok && !memory.Healthy {
			current := o.workers.Load()
			if current > 1 {
				halved := max(1, current/2)
				o.workers.Store(halved)
				o.logger.Warn("memory pressure, shrinking worker pool",
					"reason", memory.Message, "workers", halved)
			}
		}
		for name, check := range status.Checks {
			if !check.Healthy && name != health.CheckMemory {
				o.logger.Warn("health check failed", "check", name, "detail", check.Message)
			}
		}

		if stats, err := o.store.Statistics(ctx); err == nil {
			_ = o.store.UpdateRunStats(ctx, o.runID, stats)
		}
	}
}

func (o *Orchestrator) buildSummary(ctx context.Context) *report.Summary {
	summary := &report.Summary{
		BaseURL:   o.cfg.BaseURL,
		OutputDir: o.writer.Root(),
		Started:   o.started,
		Finished:  time.Now(),
		DryRun:    o.cfg.DryRun,
	}

	if stats, err := o.store.Statistics(ctx); err == nil {
		summary.Stats = *stats
	}
	// Failed pages beyond any retry ceiling are the ones worth showing.
	if failed, err := o.store.FailedPagesForRetry(ctx, 1<<30); err == nil {
		summary.FailedPages = failed
	}
	summary.Warnings = o.monitor.Check(ctx).Warnings

	return summary
}

func (o *Orchestrator) completeRun(ctx context.Context, summary *report.Summary) error {
	return o.store.CompleteRun(ctx, o.runID, &summary.Stats)
}
