package resolver

import (
	"regexp"
	"strings"
)

var (
	// wikiLinkPattern matches [[target]] and [[target|text]].
	wikiLinkPattern = regexp.MustCompile(`\[\[([^\]|]+)(?:\|([^\]]*))?\]\]`)

	// markdownLinkPattern matches [text](url) and captures a leading "!"
	// so image embeds can be left alone.
	markdownLinkPattern = regexp.MustCompile(`(!?)\[([^\]]*)\]\(([^)\s]+)\)`)
)

// RewriteReferences converts the links in one generated file. Wiki links
// with unresolvable bare targets are repaired first, then remaining
// absolute markdown links are resolved to local references. currentFile is
// the file's path relative to the output root.
func (r *Resolver) RewriteReferences(content, currentFile string) string {
	content = r.fixWikiLinks(content, currentFile)

	return markdownLinkPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := markdownLinkPattern.FindStringSubmatch(match)
		bang, text, href := groups[1], groups[2], groups[3]

		if bang == "!" {
			return match
		}
		if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
			return match
		}
		return r.ResolveToReference(text, href, currentFile)
	})
}

// fixWikiLinks repairs wiki links whose bare targets don't name a real
// file, usually because an earlier pass guessed a title from a slug. A
// target already containing a path is trusted as written.
func (r *Resolver) fixWikiLinks(content, currentFile string) string {
	return wikiLinkPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := wikiLinkPattern.FindStringSubmatch(match)
		target, text := strings.TrimSpace(groups[1]), groups[2]

		if strings.Contains(target, "/") {
			return match
		}

		file, ok := r.findByName(target)
		if !ok {
			return match
		}

		fixed := RelativePath(currentFile, file+".md")
		if text == "" {
			text = target
		}
		return "[[" + fixed + "|" + text + "]]"
	})
}

// findByName locates a mapped file by bare name: exact filename match
// first, then slug-derived titles, then a URL tail match.
func (r *Resolver) findByName(target string) (string, bool) {
	lower := strings.ToLower(target)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, file := range r.urlToFile {
		if strings.EqualFold(baseName(file), target) {
			return file, true
		}
	}

	for url, file := range r.urlToFile {
		slug := baseName(url)
		if strings.EqualFold(SlugToTitle(slug), target) {
			return file, true
		}
		if strings.Contains(strings.ToLower(url), lower) {
			return file, true
		}
	}
	return "", false
}
