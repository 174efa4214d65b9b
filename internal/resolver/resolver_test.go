package resolver

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/docmirror/docmirror/internal/model"
)

const testBase = "https://support.example.com/product"

func newTestResolver() *Resolver {
	return New(testBase, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRelativePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source string
		target string
		want   string
	}{
		{"docs/a/x.md", "docs/b/y.md", "../b/y"},
		{"docs/a/x.md", "docs/a/y.md", "y"},
		{"docs/a/b/c/x.md", "docs/y.md", "../../../y"},
		{"docs/x.md", "docs/a/y.md", "a/y"},
		{"index.md", "docs/a/y.md", "docs/a/y"},
		{"docs/a/x.md", "index.md", "../../index"},
	}

	for _, tt := range tests {
		if got := RelativePath(tt.source, tt.target); got != tt.want {
			t.Errorf("RelativePath(%q, %q) = %q, want %q", tt.source, tt.target, got, tt.want)
		}
	}
}

func TestResolveExactMapping(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	r.AddPageMapping(testBase+"/docs/setup/install", "docs/setup/Installing the agent.md", "Installing the agent")

	got := r.ResolveToReference("install guide", testBase+"/docs/setup/install", "docs/intro/Overview.md")
	want := "[[../setup/Installing the agent|install guide]]"
	if got != want {
		t.Errorf("ResolveToReference() = %q, want %q", got, want)
	}
}

func TestResolveTrailingSlashAndFragment(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	r.AddPageMapping(testBase+"/docs/setup", "docs/Setup.md", "Setup")

	got := r.ResolveToReference("setup", testBase+"/docs/setup/#linux", "docs/Overview.md")
	want := "[[Setup|setup]]"
	if got != want {
		t.Errorf("ResolveToReference() = %q, want %q", got, want)
	}
}

func TestResolveExternalUnchanged(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	href := "https://golang.org/doc"
	got := r.ResolveToReference("Go docs", href, "docs/Overview.md")
	if got != "[Go docs]("+href+")" {
		t.Errorf("external link was rewritten: %q", got)
	}
}

func TestResolveBaseURLToIndex(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	got := r.ResolveToReference("home", testBase+"/", "docs/a/X.md")
	want := "[[../../index|home]]"
	if got != want {
		t.Errorf("ResolveToReference() = %q, want %q", got, want)
	}
}

func TestResolvePathVariant(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	r.AddPageMapping(testBase+"/docs/setup/install", "docs/setup/Install.md", "Install")

	// Link written without the /docs/ segment.
	got := r.ResolveToReference("install", testBase+"/setup/install", "docs/Overview.md")
	want := "[[setup/Install|install]]"
	if got != want {
		t.Errorf("ResolveToReference() = %q, want %q", got, want)
	}
}

func TestResolveTitleFallback(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	r.AddPageMapping(testBase+"/docs/setup/install", "docs/setup/Installing the agent.md", "Installing the agent")

	got := r.ResolveToReference("Installing the agent", testBase+"/kb/9913", "docs/Overview.md")
	want := "[[Installing the agent|Installing the agent]]"
	if got != want {
		t.Errorf("ResolveToReference() = %q, want %q", got, want)
	}

	// Short link text must not trigger the title fallback.
	short := r.ResolveToReference("it", testBase+"/kb/9913", "docs/Overview.md")
	if short == want {
		t.Error("short link text should not match by title")
	}
}

func TestResolveSlugGuess(t *testing.T) {
	t.Parallel()

	r := newTestResolver()

	got := r.ResolveToReference("guide", testBase+"/docs/how-to-install-the-agent", "docs/Overview.md")
	want := "[[How to Install the Agent|guide]]"
	if got != want {
		t.Errorf("ResolveToReference() = %q, want %q", got, want)
	}

	got = r.ResolveToReference("notes", testBase+"/resources/release-notes", "docs/Overview.md")
	want = "[[resources/Release Notes|notes]]"
	if got != want {
		t.Errorf("ResolveToReference() = %q, want %q", got, want)
	}
}

func TestSlugToTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		slug string
		want string
	}{
		{"getting-started", "Getting Started"},
		{"how-to-install-the-agent", "How to Install the Agent"},
		{"the-basics", "The Basics"},
		{"api_reference", "Api Reference"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SlugToTitle(tt.slug); got != tt.want {
			t.Errorf("SlugToTitle(%q) = %q, want %q", tt.slug, got, tt.want)
		}
	}
}

func TestFollowRedirects(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	r.AddRedirect(testBase+"/docs/old", testBase+"/docs/moved")
	r.AddRedirect(testBase+"/docs/moved", testBase+"/docs/final")

	got := r.FollowRedirects(testBase + "/docs/old/")
	if got != testBase+"/docs/final" {
		t.Errorf("FollowRedirects() = %q", got)
	}

	// Unknown URLs pass through.
	if got := r.FollowRedirects(testBase + "/docs/direct"); got != testBase+"/docs/direct" {
		t.Errorf("FollowRedirects() on unknown = %q", got)
	}
}

func TestFollowRedirectsCycleTerminates(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	r.AddRedirect(testBase+"/a", testBase+"/b")
	r.AddRedirect(testBase+"/b", testBase+"/a")

	// Must terminate and return the URL reached at cycle detection.
	got := r.FollowRedirects(testBase + "/a")
	if got != testBase+"/b" {
		t.Errorf("FollowRedirects() = %q, want the last URL before the cycle repeats", got)
	}
}

func TestRewriteReferences(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	r.AddPageMapping(testBase+"/docs/setup/install", "docs/setup/Install.md", "Install")

	content := "See [the install guide](" + testBase + "/docs/setup/install) first.\n" +
		"External: [Go](https://golang.org) stays.\n" +
		"Relative [anchor](#section) stays.\n" +
		"Image ![diagram](https://cdn.example.com/d.png) stays.\n"

	got := r.RewriteReferences(content, "docs/Overview.md")

	if !contains(got, "[[setup/Install|the install guide]]") {
		t.Errorf("internal link not rewritten: %q", got)
	}
	if !contains(got, "[Go](https://golang.org)") {
		t.Errorf("external link was touched: %q", got)
	}
	if !contains(got, "[anchor](#section)") {
		t.Errorf("relative anchor was touched: %q", got)
	}
	if !contains(got, "![diagram](https://cdn.example.com/d.png)") {
		t.Errorf("image embed was touched: %q", got)
	}
}

func TestRewriteFixesBareWikiLinks(t *testing.T) {
	t.Parallel()

	r := newTestResolver()
	r.AddPageMapping(testBase+"/docs/setup/install", "docs/setup/Install.md", "Install")

	got := r.RewriteReferences("See [[Install|the guide]].", "docs/a/Page.md")
	if !contains(got, "[[../setup/Install|the guide]]") {
		t.Errorf("bare wiki link not repaired: %q", got)
	}

	// Targets with paths are trusted as written.
	pathLink := "See [[../setup/Install|guide]]."
	if r.RewriteReferences(pathLink, "docs/a/Page.md") != pathLink {
		t.Error("pathful wiki link should be untouched")
	}
}

type fakeLister struct {
	pages []*model.PageRecord
}

func (f *fakeLister) CompletedPages(context.Context) ([]*model.PageRecord, error) {
	return f.pages, nil
}

func TestLoadFromFrontier(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{pages: []*model.PageRecord{
		{URL: testBase + "/docs/a", FilePath: "docs/A.md", Title: "A Page"},
		{URL: testBase + "/docs/b", FilePath: "docs/B.md", Title: "B Page"},
	}}

	r := newTestResolver()
	if err := r.LoadFromFrontier(context.Background(), lister); err != nil {
		t.Fatalf("LoadFromFrontier() = %v", err)
	}
	if r.MappingCount() != 2 {
		t.Errorf("MappingCount() = %d, want 2", r.MappingCount())
	}

	// Idempotent.
	if err := r.LoadFromFrontier(context.Background(), lister); err != nil {
		t.Fatal(err)
	}
	if r.MappingCount() != 2 {
		t.Errorf("MappingCount() after reload = %d, want 2", r.MappingCount())
	}
}

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}
