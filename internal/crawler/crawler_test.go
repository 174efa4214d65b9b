package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docmirror/docmirror/internal/config"
	"github.com/docmirror/docmirror/internal/fetch"
	"github.com/docmirror/docmirror/internal/frontier"
	"github.com/docmirror/docmirror/internal/health"
	"github.com/docmirror/docmirror/internal/model"
	"github.com/docmirror/docmirror/internal/ratelimit"
	"github.com/docmirror/docmirror/internal/resolver"
	"github.com/docmirror/docmirror/internal/writer"
)

const testBase = "https://docs.test/product"

// fakePage is one URL served by the fetcher stub.
type fakePage struct {
	html     string
	finalURL string
	err      error
}

type fetcherStub struct {
	mu    sync.Mutex
	pages map[string]fakePage
	calls map[string]int
}

func newFetcherStub(pages map[string]fakePage) *fetcherStub {
	return &fetcherStub{pages: pages, calls: make(map[string]int)}
}

func (f *fetcherStub) Fetch(_ context.Context, url string) (*fetch.Result, error) {
	f.mu.Lock()
	f.calls[url]++
	page, ok := f.pages[url]
	f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unexpected fetch of %s", url)
	}
	if page.err != nil {
		return nil, page.err
	}

	final := page.finalURL
	if final == "" {
		final = url
	}
	return &fetch.Result{FinalURL: final, HTML: page.html}, nil
}

func (f *fetcherStub) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

type fakeMonitor struct {
	status health.Status
}

func (m fakeMonitor) Check(context.Context) health.Status { return m.status }

type fakeImages struct{}

func (fakeImages) Download(context.Context, string) (string, error) {
	return "images/fake.png", nil
}

// pageHTML builds a plausible documentation page with the given links.
func pageHTML(title string, links ...string) string {
	var sb strings.Builder
	sb.WriteString("<html><head><title>" + title + "</title></head><body><main>")
	sb.WriteString("<h1>" + title + "</h1>")
	sb.WriteString("<p>Body text for " + title + ".</p>")
	for _, link := range links {
		sb.WriteString(`<p><a href="` + link + `">` + title + " link</a></p>")
	}
	sb.WriteString("</main></body></html>")
	return sb.String()
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.New()
	cfg.BaseURL = testBase
	cfg.OutputDir = t.TempDir()
	cfg.Workers = 1
	cfg.RequestDelay = time.Millisecond
	cfg.MaxRetries = 1
	cfg.MaxConsecutiveFailures = 100
	cfg.MaxCrawlDepth = 4
	cfg.MaxPages = 0
	cfg.MaxRuntime = 0
	return cfg
}

// quickPolicy keeps per-page retries instant and deterministic.
func quickPolicy() ratelimit.Policy {
	return ratelimit.Policy{
		MaxAttempts:  1,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Base:         2.0,
	}
}

func newTestOrchestrator(t *testing.T, cfg *config.Config, f fetch.Fetcher, extra ...Option) (*Orchestrator, *frontier.Store) {
	t.Helper()

	store, err := frontier.Open(t.TempDir(), frontier.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	w, err := writer.New(cfg.OutputDir)
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := []Option{
		WithFetcher(f),
		WithImageDownloader(fakeImages{}),
		WithMonitor(fakeMonitor{status: health.Status{Healthy: true}}),
		WithLogger(logger),
		WithRetryPolicy(quickPolicy()),
	}
	opts = append(opts, extra...)

	o := New(cfg, store, w, resolver.New(cfg.BaseURL, logger), opts...)
	return o, store
}

func TestRunMirrorsSiteWithOneFailingPage(t *testing.T) {
	t.Parallel()

	stub := newFetcherStub(map[string]fakePage{
		testBase:                  {html: pageHTML("Product Home", testBase+"/docs/a", testBase+"/docs/b", testBase+"/docs/broken")},
		testBase + "/docs":        {html: pageHTML("Documentation")},
		testBase + "/docs/a":      {html: pageHTML("Page A")},
		testBase + "/docs/b":      {html: pageHTML("Page B")},
		testBase + "/docs/broken": {err: errors.New("connection timed out")},
	})

	cfg := testConfig(t)
	o, store := newTestOrchestrator(t, cfg, stub)

	summary, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if summary.Stats.Pages.Completed != 4 {
		t.Errorf("completed = %d, want 4", summary.Stats.Pages.Completed)
	}
	if summary.Stats.Pages.Failed != 1 {
		t.Errorf("failed = %d, want 1", summary.Stats.Pages.Failed)
	}

	rec, err := store.Page(context.Background(), testBase+"/docs/broken")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != model.StatusFailed {
		t.Errorf("broken page status = %s, want failed", rec.Status)
	}
	// The scrape-phase failure uses up the whole ceiling of 1, so the
	// retry phase must not touch the page or its count.
	if rec.RetryCount != 1 {
		t.Errorf("broken page retry count = %d, want 1", rec.RetryCount)
	}
	if got := stub.callCount(testBase + "/docs/broken"); got != 1 {
		t.Errorf("broken page fetched %d times, want 1", got)
	}
	if rec.ErrorMessage == "" {
		t.Error("broken page should carry its last error")
	}

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, writer.IndexFile))
	if err != nil {
		t.Fatalf("index missing: %v", err)
	}
	if !strings.Contains(string(data), "Table of Contents") {
		t.Error("index missing title")
	}
}

func TestRunRedirectToCompletedPage(t *testing.T) {
	t.Parallel()

	// The home page links to A and to a moved URL that redirects to A.
	// With one worker, A completes before the moved URL is processed.
	stub := newFetcherStub(map[string]fakePage{
		testBase:                 {html: pageHTML("Product Home", testBase+"/docs/a", testBase+"/docs/moved")},
		testBase + "/docs":       {html: pageHTML("Documentation")},
		testBase + "/docs/a":     {html: pageHTML("Page A")},
		testBase + "/docs/moved": {html: pageHTML("Page A"), finalURL: testBase + "/docs/a"},
	})

	cfg := testConfig(t)
	o, store := newTestOrchestrator(t, cfg, stub)

	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	ctx := context.Background()
	target, err := store.Page(ctx, testBase+"/docs/a")
	if err != nil {
		t.Fatal(err)
	}
	moved, err := store.Page(ctx, testBase+"/docs/moved")
	if err != nil {
		t.Fatal(err)
	}

	if moved.Status != model.StatusCompleted {
		t.Fatalf("moved page status = %s, want completed", moved.Status)
	}
	if moved.FilePath != target.FilePath {
		t.Errorf("moved page file = %q, want canonical %q", moved.FilePath, target.FilePath)
	}

	// Home, docs index, page A, and the generated index. No duplicate
	// file for the redirected URL.
	if got := countMarkdownFiles(t, cfg.OutputDir); got != 4 {
		t.Errorf("markdown files = %d, want 4", got)
	}
}

func TestRunAbortsOnFailureStreak(t *testing.T) {
	t.Parallel()

	pages := map[string]fakePage{
		testBase:           {html: pageHTML("Home", testBase+"/docs/x1", testBase+"/docs/x2", testBase+"/docs/x3", testBase+"/docs/x4", testBase+"/docs/x5")},
		testBase + "/docs": {err: errors.New("boom")},
	}
	for i := 1; i <= 5; i++ {
		pages[fmt.Sprintf("%s/docs/x%d", testBase, i)] = fakePage{err: errors.New("boom")}
	}
	stub := newFetcherStub(pages)

	cfg := testConfig(t)
	cfg.MaxConsecutiveFailures = 5

	o, _ := newTestOrchestrator(t, cfg, stub)

	_, err := o.Run(context.Background())
	if !errors.Is(err, ErrTooManyFailures) {
		t.Errorf("Run() = %v, want ErrTooManyFailures", err)
	}
}

func TestRunHonorsPageLimit(t *testing.T) {
	t.Parallel()

	stub := newFetcherStub(map[string]fakePage{
		testBase:             {html: pageHTML("Home", testBase+"/docs/a", testBase+"/docs/b")},
		testBase + "/docs":   {html: pageHTML("Documentation")},
		testBase + "/docs/a": {html: pageHTML("Page A")},
		testBase + "/docs/b": {html: pageHTML("Page B")},
	})

	cfg := testConfig(t)
	cfg.MaxPages = 1

	o, store := newTestOrchestrator(t, cfg, stub)
	summary, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if summary.Stats.Pages.Completed != 1 {
		t.Errorf("completed = %d, want 1", summary.Stats.Pages.Completed)
	}

	rec, err := store.Page(context.Background(), testBase+"/docs")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != model.StatusSkipped || rec.ErrorMessage != pageLimitMessage {
		t.Errorf("second page = %s %q, want skipped with limit message", rec.Status, rec.ErrorMessage)
	}
}

func TestRunResumeKeepsCompletedPages(t *testing.T) {
	t.Parallel()

	stub := newFetcherStub(map[string]fakePage{
		testBase:             {html: pageHTML("Home", testBase+"/docs/a")},
		testBase + "/docs":   {html: pageHTML("Documentation")},
		testBase + "/docs/a": {html: pageHTML("Page A")},
	})

	cfg := testConfig(t)
	o, store := newTestOrchestrator(t, cfg, stub)
	if _, err := o.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	first := stub.callCount(testBase + "/docs/a")
	if first != 1 {
		t.Fatalf("page A fetched %d times in first run, want 1", first)
	}

	// A resumed run reuses the same frontier: nothing is pending, so
	// nothing is fetched again.
	cfg.Resume = true

	w, err := writer.New(cfg.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	o2 := New(cfg, store, w, resolver.New(cfg.BaseURL, logger),
		WithFetcher(stub),
		WithImageDownloader(fakeImages{}),
		WithMonitor(fakeMonitor{status: health.Status{Healthy: true}}),
		WithLogger(logger),
		WithRetryPolicy(quickPolicy()),
	)

	if _, err := o2.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := stub.callCount(testBase + "/docs/a"); got != first {
		t.Errorf("resumed run refetched page A: %d fetches", got)
	}
}

func TestRunRewritesLinksToLocalReferences(t *testing.T) {
	t.Parallel()

	stub := newFetcherStub(map[string]fakePage{
		testBase:             {html: pageHTML("Home", testBase+"/docs/a")},
		testBase + "/docs":   {html: pageHTML("Documentation")},
		testBase + "/docs/a": {html: pageHTML("Page A", testBase)},
	})

	cfg := testConfig(t)
	o, store := newTestOrchestrator(t, cfg, stub)
	if _, err := o.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	rec, err := store.Page(context.Background(), testBase+"/docs/a")
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, filepath.FromSlash(rec.FilePath)))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if strings.Contains(content, "]("+testBase) {
		t.Errorf("absolute site link survived link resolution:\n%s", content)
	}
	if !strings.Contains(content, "[[") {
		t.Errorf("no wiki reference produced:\n%s", content)
	}
}

// blockingFetcher parks every fetch until the context is cancelled.
type blockingFetcher struct{}

func (blockingFetcher) Fetch(ctx context.Context, _ string) (*fetch.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRunAbortsWhenRuntimeExceeded(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.MaxRuntime = 30 * time.Millisecond

	o, _ := newTestOrchestrator(t, cfg, blockingFetcher{},
		WithMonitorInterval(5*time.Millisecond),
	)

	_, err := o.Run(context.Background())
	if !errors.Is(err, ErrRuntimeExceeded) {
		t.Errorf("Run() = %v, want ErrRuntimeExceeded", err)
	}
}

func TestWatchAbortsPastRuntimeLimit(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.MaxRuntime = time.Minute

	o, _ := newTestOrchestrator(t, cfg, newFetcherStub(nil))
	o.monitorInterval = time.Millisecond
	o.started = time.Now().Add(-time.Hour)

	ctx, abort := context.WithCancelCause(context.Background())
	defer abort(nil)

	o.watch(ctx, abort)

	if cause := context.Cause(ctx); !errors.Is(cause, ErrRuntimeExceeded) {
		t.Errorf("abort cause = %v, want ErrRuntimeExceeded", cause)
	}
}

func TestWatchHalvesWorkersOnMemoryPressure(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Workers = 4

	lowMemory := fakeMonitor{status: health.Status{
		Healthy: false,
		Checks: map[string]health.Check{
			health.CheckMemory: {Healthy: false, Message: "available memory low"},
		},
	}}

	o, _ := newTestOrchestrator(t, cfg, newFetcherStub(nil), WithMonitor(lowMemory))
	o.monitorInterval = time.Millisecond
	o.started = time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		o.watch(ctx, func(error) {})
	}()

	// The pool shrinks on every tick and bottoms out at one worker,
	// never recovering within the run.
	deadline := time.After(2 * time.Second)
	for o.workers.Load() > 1 {
		select {
		case <-deadline:
			cancel()
			<-done
			t.Fatalf("workers = %d, never reached 1", o.workers.Load())
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	<-done

	if got := o.workers.Load(); got != 1 {
		t.Errorf("workers = %d, want 1", got)
	}
}

func TestDryRunPhases(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.DryRun = true

	o, _ := newTestOrchestrator(t, cfg, newFetcherStub(nil))

	var names []string
	for _, phase := range o.phases() {
		names = append(names, phase.Name())
	}
	want := []string{"scrape-pages", "generate-index"}
	if len(names) != len(want) {
		t.Fatalf("dry run phases = %v, want %v", names, want)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("phase[%d] = %s, want %s", i, names[i], name)
		}
	}
}

func TestPhasesSkipLintWhenDisabled(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.NoLint = true

	o, _ := newTestOrchestrator(t, cfg, newFetcherStub(nil))
	for _, phase := range o.phases() {
		if phase.Name() == "lint" {
			t.Error("lint phase present despite being disabled")
		}
	}
}

func countMarkdownFiles(t *testing.T, root string) int {
	t.Helper()

	count := 0
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && strings.HasSuffix(d.Name(), ".md") {
			count++
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return count
}
