package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/docmirror/docmirror/internal/model"
)

// breadcrumbSelectors locate the breadcrumb trail.
var breadcrumbSelectors = []string{
	"nav[aria-label='breadcrumb'] a",
	"nav[aria-label='Breadcrumb'] a",
	".breadcrumbs a",
	".breadcrumb a",
	"ol.breadcrumb a",
}

// sidebarSelectors locate the navigation sidebar.
var sidebarSelectors = []string{
	"nav.sidebar",
	"aside nav",
	"nav[aria-label='Side navigation']",
	".side-nav",
	".sidebar",
}

// extractHints pulls the breadcrumb trail and sidebar placement for a page.
// Missing structure is not an error; pages with no hints fall back to
// URL-derived file placement.
func extractHints(doc *goquery.Document, pageURL string) model.NavigationHints {
	var hints model.NavigationHints

	base, err := url.Parse(pageURL)
	if err != nil {
		return hints
	}

	hints.Breadcrumbs = extractBreadcrumbs(doc, base)
	extractSidebar(doc, base, pageURL, &hints)

	if hints.CurrentPageTitle == "" && len(hints.Breadcrumbs) > 0 {
		hints.CurrentPageTitle = hints.Breadcrumbs[len(hints.Breadcrumbs)-1].Name
	}
	return hints
}

func extractBreadcrumbs(doc *goquery.Document, base *url.URL) []model.BreadcrumbEntry {
	for _, sel := range breadcrumbSelectors {
		links := doc.Find(sel)
		if links.Length() == 0 {
			continue
		}

		var crumbs []model.BreadcrumbEntry
		links.Each(func(_ int, a *goquery.Selection) {
			name := strings.TrimSpace(a.Text())
			if name == "" {
				return
			}
			href, _ := a.Attr("href")
			entry := model.BreadcrumbEntry{Name: name}
			if abs, ok := absoluteHref(href, base); ok && !strings.HasPrefix(abs, "#") {
				entry.URL = abs
			}
			crumbs = append(crumbs, entry)
		})
		if len(crumbs) > 0 {
			return crumbs
		}
	}
	return nil
}

// extractSidebar locates the current page in the navigation sidebar and
// fills in the section heading, siblings, and section-index flag.
func extractSidebar(doc *goquery.Document, base *url.URL, pageURL string, hints *model.NavigationHints) {
	var sidebar *goquery.Selection
	for _, sel := range sidebarSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			sidebar = s
			break
		}
	}
	if sidebar == nil {
		return
	}

	active := findActiveLink(sidebar, base, pageURL)
	if active == nil {
		return
	}

	hints.CurrentPageTitle = strings.TrimSpace(active.Text())

	// The section is the nearest enclosing list; its heading is the link
	// or summary element directly before that list.
	section := active.Closest("ul, ol")
	if section.Length() == 0 {
		return
	}

	heading := section.Prev()
	if heading.Length() > 0 {
		text := strings.TrimSpace(heading.Text())
		if link := heading.Find("a").First(); link.Length() > 0 {
			text = strings.TrimSpace(link.Text())
			if href, ok := link.Attr("href"); ok {
				if abs, ok := absoluteHref(href, base); ok {
					hints.SectionURL = abs
				}
			}
		} else if href, ok := heading.Attr("href"); ok {
			if abs, ok := absoluteHref(href, base); ok {
				hints.SectionURL = abs
			}
		}
		hints.SectionHeading = text
	}

	if hints.SectionURL != "" && sameURL(hints.SectionURL, pageURL) {
		hints.IsSectionIndex = true
	}

	section.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		link := li.Find("a").First()
		if link.Length() == 0 {
			return
		}
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		abs, ok := absoluteHref(href, base)
		if title == "" || !ok || sameURL(abs, pageURL) {
			return
		}
		hints.Siblings = append(hints.Siblings, model.SiblingRef{Title: title, URL: abs})
	})
}

// findActiveLink returns the sidebar link pointing at the current page,
// preferring explicit active markers over href comparison.
func findActiveLink(sidebar *goquery.Selection, base *url.URL, pageURL string) *goquery.Selection {
	for _, sel := range []string{"a[aria-current='page']", "a.active", "a.is-active", "li.active > a"} {
		if a := sidebar.Find(sel).First(); a.Length() > 0 {
			return a
		}
	}

	var match *goquery.Selection
	sidebar.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if abs, ok := absoluteHref(href, base); ok && sameURL(abs, pageURL) {
			match = a
			return false
		}
		return true
	})
	return match
}

// sameURL compares two URLs ignoring trailing slashes and fragments.
func sameURL(a, b string) bool {
	trim := func(s string) string {
		if idx := strings.IndexByte(s, '#'); idx >= 0 {
			s = s[:idx]
		}
		return strings.TrimRight(s, "/")
	}
	return trim(a) == trim(b)
}
