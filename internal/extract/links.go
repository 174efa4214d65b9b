package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// trackingParams are query parameters stripped during normalization so the
// same page reached through different campaigns dedupes to one frontier row.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"ref":          true,
}

// excludedPathParts mark URLs that are never documentation pages.
var excludedPathParts = []string{
	"/api/",
	"/rest/",
	"/download/",
	"/attachments/",
	"/login",
	"/signup",
	"/signin",
	"/logout",
}

// excludedExtensions mark direct file links.
var excludedExtensions = []string{
	".pdf", ".zip", ".tar.gz", ".dmg", ".exe", ".msi",
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp",
	".css", ".js", ".json", ".xml", ".ico",
}

// discoverLinks returns the normalized absolute URLs of all anchors in the
// document, deduplicated in document order.
func discoverLinks(doc *goquery.Document, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		normalized, ok := NormalizeURL(href, base)
		if ok && !seen[normalized] {
			seen[normalized] = true
			links = append(links, normalized)
		}
	})
	return links
}

// NormalizeURL resolves href against base and canonicalizes it: fragment
// dropped, tracking parameters removed, trailing slash trimmed on non-root
// paths. Returns false for non-http links and excluded URLs.
func NormalizeURL(href string, base *url.URL) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	u := base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}

	u.Fragment = ""

	lowerPath := strings.ToLower(u.Path)
	for _, part := range excludedPathParts {
		if strings.Contains(lowerPath, part) {
			return "", false
		}
	}
	for _, ext := range excludedExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			return "", false
		}
	}

	if u.RawQuery != "" {
		q := u.Query()
		for param := range trackingParams {
			q.Del(param)
		}
		u.RawQuery = q.Encode()
	}

	s := u.String()
	if u.Path != "/" && u.Path != "" {
		s = strings.TrimRight(s, "/")
	}
	return s, true
}

// absoluteImageURL resolves an img src against the page URL. Data URIs and
// tracking pixels are rejected.
func absoluteImageURL(src, pageURL string) (string, bool) {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "data:") {
		return "", false
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", false
	}
	ref, err := url.Parse(src)
	if err != nil {
		return "", false
	}

	u := base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Fragment = ""
	return u.String(), true
}
