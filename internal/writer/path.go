package writer

import (
	"net/url"
	"path"
	"strings"

	"github.com/docmirror/docmirror/internal/model"
	"github.com/docmirror/docmirror/internal/resolver"
)

// Root directories in the output tree.
const (
	DocsDir      = "docs"
	ResourcesDir = "resources"
)

// skippedDirNames are breadcrumb entries that duplicate the root
// directories and would nest the tree pointlessly.
var skippedDirNames = map[string]bool{
	"docs":      true,
	"resources": true,
	"home":      true,
}

// PagePath decides the output path for a page, relative to the output
// root, using forward slashes.
//
// Directory placement: the root is docs/ or resources/ depending on the
// URL, then the breadcrumb trail minus the site root and the page itself,
// then the sidebar section when the breadcrumbs don't already end with it.
// The filename is the navigation title, the extracted title, or a
// title-cased URL slug, in that order of preference.
func PagePath(pageURL, title string, hints model.NavigationHints) string {
	root := DocsDir
	if u, err := url.Parse(pageURL); err == nil && strings.Contains(u.Path, "/resources") {
		root = ResourcesDir
	}

	dirs := []string{root}

	// Breadcrumbs run site root, sections..., current page. The first and
	// last entries never name a directory.
	if len(hints.Breadcrumbs) > 2 {
		for _, crumb := range hints.Breadcrumbs[1 : len(hints.Breadcrumbs)-1] {
			name := sanitizeName(crumb.Name)
			if name != "" && !skippedDirNames[strings.ToLower(name)] {
				dirs = append(dirs, name)
			}
		}
	}

	if section := sanitizeName(hints.SectionHeading); section != "" {
		if len(dirs) == 1 || !strings.EqualFold(dirs[len(dirs)-1], section) {
			dirs = append(dirs, section)
		}
	}

	if hints.IsSectionIndex {
		return path.Join(append(dirs, "index.md")...)
	}

	name := sanitizeName(hints.CurrentPageTitle)
	if name == "" {
		name = sanitizeName(title)
	}
	if name == "" {
		name = slugName(pageURL)
	}
	if name == "" {
		name = "index"
	}

	return path.Join(append(dirs, name+".md")...)
}

// slugName derives a filename from the last URL path segment. A URL ending
// in a slash names a section, so it gets index.
func slugName(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Path, "/") {
		return "index"
	}
	segment := path.Base(u.Path)
	if segment == "." || segment == "/" {
		return ""
	}
	return sanitizeName(resolver.SlugToTitle(segment))
}

// sanitizeName makes a string safe as a single path element. Separators
// and characters that are special on common filesystems are replaced, and
// the result is trimmed to a sane length.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", " -", "*", "", "?", "",
		"\"", "'", "<", "(", ">", ")", "|", "-", "\x00", "",
	)
	name = replacer.Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	name = strings.Trim(name, ". ")

	const maxNameLen = 120
	if len(name) > maxNameLen {
		name = strings.TrimRight(name[:maxNameLen], ". ")
	}
	return name
}
