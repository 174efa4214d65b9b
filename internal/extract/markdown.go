package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// blankLines collapses runs of three or more newlines left by nested block
// elements.
var blankLines = regexp.MustCompile(`\n{3,}`)

// toMarkdown converts the content region to markdown. Relative link and
// image URLs are made absolute against the page URL; the link resolver
// rewrites them to local references in a later phase.
func toMarkdown(region *goquery.Selection, pageURL string) string {
	base, _ := url.Parse(pageURL)

	var sb strings.Builder
	for _, node := range region.Nodes {
		renderNode(&sb, node, base, renderState{})
	}
	return blankLines.ReplaceAllString(sb.String(), "\n\n")
}

// renderState carries list nesting context down the walk.
type renderState struct {
	listDepth int
	ordered   bool
	itemIndex int
}

func renderNode(sb *strings.Builder, n *html.Node, base *url.URL, st renderState) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(collapseSpace(n.Data))
		return
	case html.ElementNode:
		renderElement(sb, n, base, st)
		return
	default:
		renderChildren(sb, n, base, st)
	}
}

func renderChildren(sb *strings.Builder, n *html.Node, base *url.URL, st renderState) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderNode(sb, c, base, st)
	}
}

func renderElement(sb *strings.Builder, n *html.Node, base *url.URL, st renderState) {
	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(n.Data[1] - '0')
		sb.WriteString("\n\n")
		sb.WriteString(strings.Repeat("#", level))
		sb.WriteString(" ")
		sb.WriteString(strings.TrimSpace(childText(n)))
		sb.WriteString("\n\n")

	case "p":
		sb.WriteString("\n\n")
		renderChildren(sb, n, base, st)
		sb.WriteString("\n\n")

	case "br":
		sb.WriteString("\n")

	case "hr":
		sb.WriteString("\n\n---\n\n")

	case "strong", "b":
		sb.WriteString("**")
		renderChildren(sb, n, base, st)
		sb.WriteString("**")

	case "em", "i":
		sb.WriteString("*")
		renderChildren(sb, n, base, st)
		sb.WriteString("*")

	case "code":
		// Inline only; code inside pre is handled by the pre case.
		sb.WriteString("`")
		sb.WriteString(childText(n))
		sb.WriteString("`")

	case "pre":
		lang := codeLanguage(n)
		sb.WriteString("\n\n```")
		sb.WriteString(lang)
		sb.WriteString("\n")
		sb.WriteString(strings.TrimRight(rawText(n), "\n"))
		sb.WriteString("\n```\n\n")

	case "a":
		text := strings.TrimSpace(childText(n))
		href := attr(n, "href")
		if text == "" {
			return
		}
		if abs, ok := absoluteHref(href, base); ok {
			fmt.Fprintf(sb, "[%s](%s)", text, abs)
		} else {
			sb.WriteString(text)
		}

	case "img":
		alt := attr(n, "alt")
		if abs, ok := absoluteImageURL(attr(n, "src"), base.String()); ok {
			fmt.Fprintf(sb, "![%s](%s)", alt, abs)
		}

	case "ul", "ol":
		st.listDepth++
		st.ordered = n.Data == "ol"
		st.itemIndex = 0
		if st.listDepth == 1 {
			sb.WriteString("\n\n")
		} else {
			sb.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "li" {
				st.itemIndex++
				renderListItem(sb, c, base, st)
			}
		}
		if st.listDepth == 1 {
			sb.WriteString("\n")
		}

	case "blockquote":
		sb.WriteString("\n\n")
		inner := renderToString(n, base, st)
		for _, line := range strings.Split(strings.TrimSpace(inner), "\n") {
			sb.WriteString("> ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")

	case "table":
		renderTable(sb, n)

	case "script", "style", "noscript", "iframe", "svg", "button", "form":
		// Dropped entirely.

	default:
		renderChildren(sb, n, base, st)
	}
}

func renderListItem(sb *strings.Builder, li *html.Node, base *url.URL, st renderState) {
	indent := strings.Repeat("  ", st.listDepth-1)
	marker := "- "
	if st.ordered {
		marker = fmt.Sprintf("%d. ", st.itemIndex)
	}

	inner := strings.TrimSpace(renderToString(li, base, st))
	lines := strings.Split(inner, "\n")
	sb.WriteString(indent)
	sb.WriteString(marker)
	sb.WriteString(lines[0])
	sb.WriteString("\n")
	for _, line := range lines[1:] {
		if line = strings.TrimSpace(line); line != "" {
			sb.WriteString(indent)
			sb.WriteString("  ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
}

// renderTable emits a pipe table. Cell content is flattened to plain text;
// nested block elements in table cells are rare in documentation and not
// worth preserving.
func renderTable(sb *strings.Builder, table *html.Node) {
	var rows [][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, strings.TrimSpace(collapseSpace(childText(c))))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)

	if len(rows) == 0 {
		return
	}

	sb.WriteString("\n\n")
	for i, row := range rows {
		sb.WriteString("| ")
		sb.WriteString(strings.Join(row, " | "))
		sb.WriteString(" |\n")
		if i == 0 {
			sb.WriteString("|")
			sb.WriteString(strings.Repeat(" --- |", len(row)))
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")
}

func renderToString(n *html.Node, base *url.URL, st renderState) string {
	var sb strings.Builder
	renderChildren(&sb, n, base, st)
	return sb.String()
}

// childText returns the concatenated text of a node with whitespace
// collapsed.
func childText(n *html.Node) string {
	return collapseSpace(rawText(n))
}

// rawText returns the concatenated text of a node, whitespace preserved.
func rawText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// collapseSpace folds runs of whitespace into single spaces, preserving the
// leading and trailing space when present so inline elements keep their
// separation.
func collapseSpace(s string) string {
	if s == "" {
		return s
	}
	fields := strings.Fields(s)
	joined := strings.Join(fields, " ")
	if joined == "" {
		return " "
	}
	if s[0] == ' ' || s[0] == '\n' || s[0] == '\t' {
		joined = " " + joined
	}
	last := s[len(s)-1]
	if last == ' ' || last == '\n' || last == '\t' {
		joined += " "
	}
	return joined
}

// codeLanguage pulls a language hint from class attributes like
// "language-go" or "highlight-python" on the pre or its code child.
func codeLanguage(pre *html.Node) string {
	candidates := []string{attr(pre, "class")}
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "code" {
			candidates = append(candidates, attr(c, "class"))
		}
	}
	for _, class := range candidates {
		for _, part := range strings.Fields(class) {
			for _, prefix := range []string{"language-", "lang-", "highlight-"} {
				if lang, ok := strings.CutPrefix(part, prefix); ok {
					return lang
				}
			}
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// absoluteHref resolves a content link against the page URL. Unlike
// NormalizeURL this keeps fragments, since in-page anchors are meaningful
// inside content.
func absoluteHref(href string, base *url.URL) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	if strings.HasPrefix(href, "#") {
		return href, true
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	u := base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}
