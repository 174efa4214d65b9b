package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/docmirror/docmirror/internal/extract"
	"github.com/docmirror/docmirror/internal/fetch"
	"github.com/docmirror/docmirror/internal/frontier"
	"github.com/docmirror/docmirror/internal/model"
	"github.com/docmirror/docmirror/internal/ratelimit"
	"github.com/docmirror/docmirror/internal/writer"
)

// pageLimitMessage is recorded on pages skipped for the page budget.
const pageLimitMessage = "Page limit reached"

// runScrape drains the pending frontier in waves. Each wave fans the
// current pending set out to the worker pool; pages discovered during a
// wave land in the next one. The loop ends when a wave starts empty.
func (o *Orchestrator) runScrape(ctx context.Context) error {
	for wave := 1; ; wave++ {
		pending, err := o.store.PendingPages(ctx, o.cfg.MaxCrawlDepth)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}

		o.logger.InfoContext(ctx, "scrape wave started",
			"wave", wave, "pending", len(pending), "workers", o.workers.Load())

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(int(o.workers.Load()))

		for _, page := range pending {
			g.Go(func() error {
				return o.scrapePage(gctx, page.URL, page.CrawlDepth)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
}

// scrapePage processes one page end to end: budget and breaker gates,
// atomic claim, rate-limited fetch with retries, extraction, write, and
// frontier bookkeeping. Per-page failures are recorded and return nil;
// only run-fatal conditions return an error.
func (o *Orchestrator) scrapePage(ctx context.Context, pageURL string, depth int) error {
	if o.cfg.MaxPages > 0 && o.pagesScraped.Load() >= int64(o.cfg.MaxPages) {
		return o.store.Skip(ctx, pageURL, pageLimitMessage)
	}

	// A refused attempt is not a site failure: the page is parked as
	// failed for the retry phase without touching the failure streak.
	if !o.breaker.Allow() {
		return o.store.Fail(ctx, pageURL, "Circuit breaker open")
	}

	if err := o.store.Claim(ctx, pageURL); err != nil {
		if errors.Is(err, frontier.ErrNotClaimable) {
			return nil
		}
		return err
	}

	if err := o.limiter.Acquire(ctx, 1); err != nil {
		return err
	}

	content, finalURL, err := o.fetchAndExtract(ctx, pageURL)
	if err != nil {
		// A cancelled run is not a page failure; the claim is returned
		// to pending by the post-run reset.
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return o.recordFailure(ctx, pageURL, err)
	}

	if finalURL != pageURL {
		if handled, err := o.handleRedirect(ctx, pageURL, finalURL, content); handled || err != nil {
			return err
		}
	}

	relPath, err := o.writer.Save(writer.PagePath(finalURL, content.Title, content.Hints), content.Markdown)
	if err != nil {
		return o.recordFailure(ctx, pageURL, err)
	}

	if err := o.store.Complete(ctx, pageURL, content.Title, relPath, content.Hash); err != nil {
		return err
	}
	o.resolver.AddPageMapping(pageURL, relPath, content.Title)
	if finalURL != pageURL {
		o.resolver.AddPageMapping(finalURL, relPath, content.Title)
	}

	if !o.cfg.DryRun {
		if err := o.enqueueDiscoveries(ctx, pageURL, depth, content); err != nil {
			return err
		}
	}

	o.breaker.RecordSuccess()
	o.consecutiveFailures.Store(0)
	o.pagesScraped.Add(1)

	o.logger.DebugContext(ctx, "page completed", "url", pageURL, "file", relPath, "depth", depth)
	return nil
}

// fetchAndExtract retrieves and parses a page under the retry policy.
// Responses that can never succeed are marked permanent so the policy
// stops early.
func (o *Orchestrator) fetchAndExtract(ctx context.Context, pageURL string) (*extract.Content, string, error) {
	var (
		content  *extract.Content
		finalURL string
	)

	err := o.retry.Do(ctx, func(ctx context.Context) error {
		res, err := o.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			if errors.Is(err, fetch.ErrNotFound) || errors.Is(err, fetch.ErrNotHTML) {
				return ratelimit.Permanent(err)
			}
			return err
		}

		c, err := extract.Extract(res.HTML, res.FinalURL)
		if err != nil {
			return err
		}

		content = c
		finalURL = strings.TrimRight(res.FinalURL, "/")
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	if finalURL == "" {
		finalURL = pageURL
	}
	return content, finalURL, nil
}

// handleRedirect records a redirect and short-circuits when the target is
// already mirrored: the original URL completes pointing at the canonical
// file instead of writing a duplicate. Returns handled=false when the
// caller should continue and write the page under the final URL.
func (o *Orchestrator) handleRedirect(ctx context.Context, pageURL, finalURL string, content *extract.Content) (bool, error) {
	o.resolver.AddRedirect(pageURL, finalURL)
	o.logger.DebugContext(ctx, "redirect recorded", "from", pageURL, "to", finalURL)

	target, err := o.store.Page(ctx, finalURL)
	if err != nil {
		if errors.Is(err, frontier.ErrPageNotFound) {
			return false, nil
		}
		return true, err
	}
	if target.Status != model.StatusCompleted || target.FilePath == "" {
		return false, nil
	}

	if o.cfg.RedirectStubs {
		stub := fmt.Sprintf("This page has moved. See [[%s|%s]].\n",
			strings.TrimSuffix(target.FilePath, ".md"), target.Title)
		stubPath := writer.PagePath(pageURL, content.Title, model.NavigationHints{})
		if _, err := o.writer.Save(stubPath, stub); err != nil {
			return true, o.recordFailure(ctx, pageURL, err)
		}
	}

	if err := o.store.Complete(ctx, pageURL, target.Title, target.FilePath, target.ContentHash); err != nil {
		return true, err
	}
	o.resolver.AddPageMapping(pageURL, target.FilePath, target.Title)

	o.breaker.RecordSuccess()
	o.consecutiveFailures.Store(0)
	return true, nil
}

// enqueueDiscoveries adds the page's links and images to the frontier.
func (o *Orchestrator) enqueueDiscoveries(ctx context.Context, pageURL string, depth int, content *extract.Content) error {
	nextDepth := depth + 1
	if o.cfg.MaxCrawlDepth > 0 && nextDepth > o.cfg.MaxCrawlDepth {
		return nil
	}

	added := 0
	for _, link := range content.Links {
		if !o.cfg.AllowURL(link) {
			continue
		}
		if err := o.store.AddPage(ctx, link, nextDepth, pageURL); err != nil {
			return err
		}
		added++
	}

	for _, img := range content.Images {
		if err := o.store.AddImage(ctx, img, pageURL); err != nil {
			return err
		}
	}

	if added > 0 {
		o.logger.DebugContext(ctx, "links discovered", "page", pageURL, "links", added, "depth", nextDepth)
	}
	return nil
}

// recordFailure books a page failure and enforces the consecutive-failure
// ceiling. Returns nil for an ordinary failure, ErrTooManyFailures at the
// ceiling.
func (o *Orchestrator) recordFailure(ctx context.Context, pageURL string, cause error) error {
	o.logger.WarnContext(ctx, "page failed", "url", pageURL, "error", cause)

	if err := o.store.Fail(ctx, pageURL, cause.Error()); err != nil {
		return err
	}
	o.breaker.RecordFailure()

	streak := o.consecutiveFailures.Add(1)
	if streak >= int64(o.cfg.MaxConsecutiveFailures) {
		return fmt.Errorf("%w: %d in a row, last on %s", ErrTooManyFailures, streak, pageURL)
	}
	return nil
}
