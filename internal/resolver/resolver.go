package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/docmirror/docmirror/internal/model"
)

// maxRedirectHops bounds redirect chain following. Chains longer than this
// in practice mean a cycle the map check missed.
const maxRedirectHops = 20

// CompletedPagesLister is the slice of the frontier store the resolver
// needs to rebuild its mapping.
type CompletedPagesLister interface {
	CompletedPages(ctx context.Context) ([]*model.PageRecord, error)
}

// Resolver maps page URLs to local files and rewrites references. Safe for
// concurrent use: workers add mappings while scraping, and the resolve
// phase reads them.
type Resolver struct {
	mu sync.RWMutex

	// baseURL without trailing slash.
	baseURL string

	// urlToFile maps a normalized page URL to its output file path with
	// the extension stripped, forward slashes.
	urlToFile map[string]string

	// titleToFile maps a lowercased page title to the page's bare
	// filename. Last write wins when titles collide.
	titleToFile map[string]string

	// redirects maps a requested URL to the URL it redirected to.
	redirects map[string]string

	logger *slog.Logger
}

// New creates a Resolver for pages under baseURL.
func New(baseURL string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		baseURL:     strings.TrimRight(baseURL, "/"),
		urlToFile:   make(map[string]string),
		titleToFile: make(map[string]string),
		redirects:   make(map[string]string),
		logger:      logger,
	}
}

// AddPageMapping records where a page's markdown was written. filePath is
// relative to the output root.
func (r *Resolver) AddPageMapping(pageURL, filePath, title string) {
	key := strings.TrimRight(pageURL, "/")
	file := strings.TrimSuffix(strings.ReplaceAll(filePath, "\\", "/"), ".md")

	r.mu.Lock()
	defer r.mu.Unlock()

	r.urlToFile[key] = file
	if title != "" {
		r.titleToFile[strings.ToLower(title)] = baseName(file)
	}
}

// AddRedirect records that from redirected to to.
func (r *Resolver) AddRedirect(from, to string) {
	from = strings.TrimRight(from, "/")
	to = strings.TrimRight(to, "/")
	if from == to {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirects[from] = to
}

// FollowRedirects resolves a URL through the recorded redirect chain. A
// cycle or an over-long chain is logged and resolution stops at the URL
// reached so far.
func (r *Resolver) FollowRedirects(pageURL string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	current := strings.TrimRight(pageURL, "/")
	visited := map[string]bool{current: true}

	for range maxRedirectHops {
		next, ok := r.redirects[current]
		if !ok {
			return current
		}
		if visited[next] {
			r.logger.Warn("redirect cycle detected", "url", pageURL, "at", current)
			return current
		}
		visited[next] = true
		current = next
	}

	r.logger.Warn("redirect chain too long", "url", pageURL)
	return current
}

// FileFor returns the extension-stripped output file for a URL, following
// redirects first.
func (r *Resolver) FileFor(pageURL string) (string, bool) {
	resolved := r.FollowRedirects(pageURL)

	r.mu.RLock()
	defer r.mu.RUnlock()
	file, ok := r.urlToFile[resolved]
	return file, ok
}

// MappingCount returns the number of URL mappings, for progress logging.
func (r *Resolver) MappingCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.urlToFile)
}

// LoadFromFrontier rebuilds the URL mapping from completed pages. Safe to
// call on a populated resolver; existing entries are overwritten with the
// frontier's view.
func (r *Resolver) LoadFromFrontier(ctx context.Context, store CompletedPagesLister) error {
	pages, err := store.CompletedPages(ctx)
	if err != nil {
		return fmt.Errorf("failed to load completed pages: %w", err)
	}

	for _, page := range pages {
		r.AddPageMapping(page.URL, page.FilePath, page.Title)
	}

	r.logger.Debug("resolver mapping loaded", "pages", len(pages))
	return nil
}

// ResolveToReference converts one markdown link to a wiki reference.
// currentFile is the output file being rewritten, relative to the output
// root. Links outside the documentation site are returned unchanged.
//
// Resolution tries, in order: the exact URL mapping (after redirects), a
// /docs/ or /resources/ path variant, the page title matching the link
// text, and finally a filename guessed from the URL slug.
func (r *Resolver) ResolveToReference(text, href, currentFile string) string {
	unchanged := fmt.Sprintf("[%s](%s)", text, href)

	link := strings.TrimRight(strings.SplitN(href, "#", 2)[0], "/")
	if link == "" || !strings.HasPrefix(link, r.baseURL) {
		return unchanged
	}

	if link == r.baseURL {
		return fmt.Sprintf("[[%s|%s]]", RelativePath(currentFile, "index.md"), text)
	}

	if file, ok := r.FileFor(link); ok {
		return fmt.Sprintf("[[%s|%s]]", RelativePath(currentFile, file+".md"), text)
	}

	// Sites are inconsistent about the /docs/ and /resources/ path
	// segments; try inserting them before giving up on the URL.
	tail := strings.TrimPrefix(link, r.baseURL+"/")
	for _, variant := range []string{r.baseURL + "/docs/" + tail, r.baseURL + "/resources/" + tail} {
		if file, ok := r.FileFor(variant); ok {
			return fmt.Sprintf("[[%s|%s]]", RelativePath(currentFile, file+".md"), text)
		}
	}

	// Short link texts like "here" match too many titles to be safe.
	if len(text) > 3 {
		r.mu.RLock()
		file, ok := r.titleToFile[strings.ToLower(strings.TrimSpace(text))]
		r.mu.RUnlock()
		if ok {
			return fmt.Sprintf("[[%s|%s]]", file, text)
		}
	}

	guess := r.guessReference(link)
	if guess == "" {
		return unchanged
	}
	return fmt.Sprintf("[[%s|%s]]", guess, text)
}

// guessReference derives a probable wiki target from a URL that was never
// crawled, converting its slug to a title-cased filename.
func (r *Resolver) guessReference(link string) string {
	tail := strings.TrimPrefix(link, r.baseURL)
	tail = strings.Trim(tail, "/")
	if tail == "" {
		return ""
	}

	segments := strings.Split(tail, "/")
	name := SlugToTitle(segments[len(segments)-1])
	if name == "" {
		return ""
	}

	// Resource pages live under resources/ in the output tree; docs pages
	// are referenced by bare filename.
	if segments[0] == "resources" {
		return "resources/" + name
	}
	return name
}

func baseName(file string) string {
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		return file[idx+1:]
	}
	return file
}
