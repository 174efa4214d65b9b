package crawler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docmirror/docmirror/internal/config"
	"github.com/docmirror/docmirror/internal/images"
	"github.com/docmirror/docmirror/internal/lint"
)

// downloaderAdapter defers building the production image downloader until
// the output root is known.
type downloaderAdapter struct {
	cfg  *config.Config
	root string
}

func (d downloaderAdapter) build() ImageDownloader {
	return images.NewDownloader(d.root, d.cfg.UserAgent, d.cfg.Timeout)
}

// runDiscover seeds the frontier with the crawl entry points. Everything
// else is discovered while scraping.
func (o *Orchestrator) runDiscover(ctx context.Context) error {
	seeds := []string{
		o.cfg.BaseURL,
		o.cfg.BaseURL + "/docs",
	}
	if o.cfg.IncludeResources {
		seeds = append(seeds, o.cfg.BaseURL+"/resources")
	}

	for _, seed := range seeds {
		if err := o.store.AddPage(ctx, seed, 0, ""); err != nil {
			return err
		}
	}

	o.logger.InfoContext(ctx, "frontier seeded", "seeds", len(seeds))
	return nil
}

// runDownloadImages downloads every pending image with a bounded pool.
// Individual download failures are recorded in the frontier, not fatal.
func (o *Orchestrator) runDownloadImages(ctx context.Context) error {
	pending, err := o.store.PendingImages(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(int(o.workers.Load()))

	for _, img := range pending {
		g.Go(func() error {
			if err := o.limiter.Acquire(gctx, 1); err != nil {
				return err
			}

			localPath, err := o.images.Download(gctx, img.URL)
			if err != nil {
				o.logger.DebugContext(gctx, "image download failed", "url", img.URL, "error", err)
				return o.store.FailImage(gctx, img.URL, err.Error())
			}
			return o.store.CompleteImage(gctx, img.URL, localPath)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	o.logger.InfoContext(ctx, "image downloads finished", "images", len(pending))
	return nil
}

// runRetryFailed gives failed pages one more pass at reduced concurrency.
// The breaker is reset first; the failures that opened it are exactly what
// this phase is about to retry deliberately.
func (o *Orchestrator) runRetryFailed(ctx context.Context) error {
	failed, err := o.store.FailedPagesForRetry(ctx, o.cfg.MaxRetries)
	if err != nil {
		return err
	}
	if len(failed) == 0 {
		return nil
	}

	o.breaker.Reset()
	o.logger.InfoContext(ctx, "retrying failed pages", "pages", len(failed))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, int(o.workers.Load())/2))

	for _, page := range failed {
		g.Go(func() error {
			// Pages that have failed more often wait longer before the
			// next attempt, capped at 30 seconds.
			delay := time.Duration(min(30, 1<<page.RetryCount)) * time.Second
			timer := time.NewTimer(delay)
			select {
			case <-gctx.Done():
				timer.Stop()
				return gctx.Err()
			case <-timer.C:
			}

			return o.scrapePage(gctx, page.URL, page.CrawlDepth)
		})
	}
	return g.Wait()
}

// runGenerateIndex writes the table of contents from completed pages.
func (o *Orchestrator) runGenerateIndex(ctx context.Context) error {
	completed, err := o.store.CompletedPages(ctx)
	if err != nil {
		return err
	}

	if err := o.writer.WriteIndex(completed); err != nil {
		return err
	}

	o.logger.InfoContext(ctx, "index generated", "pages", len(completed))
	return nil
}

// runResolveLinks rewrites absolute site URLs in every generated file into
// local references.
func (o *Orchestrator) runResolveLinks(ctx context.Context) error {
	if err := o.resolver.LoadFromFrontier(ctx, o.store); err != nil {
		return err
	}

	completed, err := o.store.CompletedPages(ctx)
	if err != nil {
		return err
	}

	rewritten := 0
	for _, page := range completed {
		if err := ctx.Err(); err != nil {
			return err
		}

		abs := filepath.Join(o.writer.Root(), filepath.FromSlash(page.FilePath))
		data, err := os.ReadFile(abs)
		if err != nil {
			o.logger.WarnContext(ctx, "cannot read page for link rewrite", "file", page.FilePath, "error", err)
			continue
		}

		fixed := o.resolver.RewriteReferences(string(data), page.FilePath)
		if fixed == string(data) {
			continue
		}
		if err := os.WriteFile(abs, []byte(fixed), 0644); err != nil {
			return fmt.Errorf("failed to rewrite %s: %w", page.FilePath, err)
		}
		rewritten++
	}

	o.logger.InfoContext(ctx, "links resolved", "files_rewritten", rewritten, "mappings", o.resolver.MappingCount())
	return nil
}

// runLint fixes mechanical markdown issues across the output tree.
func (o *Orchestrator) runLint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	linter := &lint.Linter{Fix: true}
	result, err := linter.Run(o.writer.Root())
	if err != nil {
		return err
	}

	o.logger.InfoContext(ctx, "lint finished",
		"files_checked", result.FilesChecked,
		"files_fixed", result.FilesFixed,
		"issues", len(result.Issues))
	return nil
}
