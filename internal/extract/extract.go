package extract

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/docmirror/docmirror/internal/model"
)

// ErrNoContent is returned when no usable content region is found.
var ErrNoContent = errors.New("no content region found in page")

// contentSelectors are tried in order to locate the main content region.
// Documentation sites vary; the first match wins.
var contentSelectors = []string{
	"main",
	"article",
	"[role='main']",
	"#main-content",
	"#content",
	".content",
	"body",
}

// chromeSelectors match elements stripped from the content region before
// conversion: navigation, scripts, and other non-content chrome.
var chromeSelectors = []string{
	"script", "style", "noscript", "iframe",
	"nav", "header", "footer", "aside",
	".breadcrumbs", ".breadcrumb", ".sidebar", ".toc",
	".feedback", ".page-rating", ".edit-this-page",
}

// Content is everything extracted from one page.
type Content struct {
	// Title is the page title, preferring the content's first h1 over the
	// document title tag.
	Title string

	// Markdown is the converted page body.
	Markdown string

	// Hash is an md5 hex digest of Markdown, used to detect unchanged
	// pages on re-crawl.
	Hash string

	// Hints is the navigation structure used for file placement.
	Hints model.NavigationHints

	// Links are the absolute, normalized URLs discovered on the page.
	Links []string

	// Images are the absolute URLs of content images.
	Images []string
}

// Extract parses page HTML and returns its content, hints, and links.
// pageURL anchors relative URL resolution and must be the final URL after
// redirects.
func Extract(html, pageURL string) (*Content, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	// Discover links and hints before chrome stripping: both live in the
	// navigation elements the content pass removes.
	links := discoverLinks(doc, pageURL)
	hints := extractHints(doc, pageURL)

	region := findContent(doc)
	if region == nil {
		return nil, ErrNoContent
	}

	title := contentTitle(doc, region)
	images := contentImages(region, pageURL)

	for _, sel := range chromeSelectors {
		region.Find(sel).Remove()
	}

	markdown := strings.TrimSpace(toMarkdown(region, pageURL))
	if markdown == "" {
		return nil, ErrNoContent
	}

	sum := md5.Sum([]byte(markdown))

	return &Content{
		Title:    title,
		Markdown: markdown,
		Hash:     hex.EncodeToString(sum[:]),
		Hints:    hints,
		Links:    links,
		Images:   images,
	}, nil
}

// findContent returns the first matching content region.
func findContent(doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentSelectors {
		if region := doc.Find(sel).First(); region.Length() > 0 {
			return region
		}
	}
	return nil
}

// contentTitle prefers the first h1 inside the content region, then the
// document title with common " | Site Name" suffixes trimmed.
func contentTitle(doc *goquery.Document, region *goquery.Selection) string {
	if h1 := strings.TrimSpace(region.Find("h1").First().Text()); h1 != "" {
		return h1
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	for _, sep := range []string{" | ", " - ", " — "} {
		if idx := strings.Index(title, sep); idx > 0 {
			title = title[:idx]
			break
		}
	}
	return strings.TrimSpace(title)
}

// contentImages collects absolute URLs of images inside the content region.
func contentImages(region *goquery.Selection, pageURL string) []string {
	var images []string
	seen := make(map[string]bool)

	region.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		abs, ok := absoluteImageURL(src, pageURL)
		if ok && !seen[abs] {
			seen[abs] = true
			images = append(images, abs)
		}
	})
	return images
}
