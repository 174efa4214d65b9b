package model

// NavigationHints carries the navigation structure extracted alongside a
// page's content. The file writer uses it to place the page in the output
// tree and the link resolver to title cross-references.
//
// Design decision: this is an explicit struct rather than a nested map.
// Every field the writer consumes is named and typed; absent hints are the
// zero value.
type NavigationHints struct {
	// SectionHeading is the heading of the navigation section containing
	// the page, used as the page's output directory name.
	SectionHeading string

	// SectionURL is the URL of the section's index page, if any.
	SectionURL string

	// CurrentPageTitle is the page title as shown in the navigation tree.
	// Preferred over the <title> tag for the output filename.
	CurrentPageTitle string

	// Siblings lists the other pages in the same navigation section.
	Siblings []SiblingRef

	// Breadcrumbs is the ancestor trail from the site root to the page,
	// outermost first. The last entry is the page itself.
	Breadcrumbs []BreadcrumbEntry

	// IsSectionIndex reports whether the page is its section's index page,
	// in which case it is written as <section>/index.md.
	IsSectionIndex bool
}

// SiblingRef is one entry in a page's navigation section.
type SiblingRef struct {
	Title string
	URL   string
}

// BreadcrumbEntry is one level of a page's breadcrumb trail.
type BreadcrumbEntry struct {
	Name string
	URL  string
}

// Empty reports whether no hints were extracted at all.
func (h NavigationHints) Empty() bool {
	return h.SectionHeading == "" && h.CurrentPageTitle == "" &&
		len(h.Siblings) == 0 && len(h.Breadcrumbs) == 0
}
