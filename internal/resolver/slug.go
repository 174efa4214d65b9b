package resolver

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// stopWords stay lowercase in slug-derived titles, except in first
// position.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true,
	"by": true, "for": true, "from": true, "in": true, "is": true,
	"of": true, "on": true, "or": true, "the": true, "to": true,
	"with": true,
}

var titleCaser = cases.Title(language.English)

// SlugToTitle converts a URL slug like "how-to-install-the-agent" into a
// probable page title, "How to Install the Agent". Words are title-cased
// except stop words, which stay lowercase unless they lead.
func SlugToTitle(slug string) string {
	slug = strings.TrimSpace(strings.ToLower(slug))
	if slug == "" {
		return ""
	}

	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	})

	for i, word := range words {
		if i > 0 && stopWords[word] {
			continue
		}
		words[i] = titleCaser.String(word)
	}
	return strings.Join(words, " ")
}
