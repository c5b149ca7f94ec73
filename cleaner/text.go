package cleaner

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// invisibleSelector matches elements that never render as text.
const invisibleSelector = "script, style, noscript, template, svg, iframe"

// boilerplateSelector adds page chrome to the invisible set.
const boilerplateSelector = invisibleSelector + ", nav, header, footer, aside"

var (
	invisibleMatcher   = cascadia.MustCompile(invisibleSelector)
	boilerplateMatcher = cascadia.MustCompile(boilerplateSelector)
	paragraphMatcher   = cascadia.MustCompile("p")
	bodyMatcher        = cascadia.MustCompile("body")
)

// paragraphText strips boilerplate elements and joins the text of the
// remaining <p> elements, one paragraph per line.
func paragraphText(rawHTML string) extraction {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return extraction{}
	}
	removeMatching(doc, boilerplateMatcher)

	var (
		texts []string
		buf   bytes.Buffer
	)
	for _, p := range cascadia.QueryAll(doc, paragraphMatcher) {
		text := collapseSpace(nodeText(p))
		if text == "" {
			continue
		}
		texts = append(texts, text)
		_ = html.Render(&buf, p)
	}

	return extraction{
		text: strings.Join(texts, "\n"),
		html: buf.String(),
	}
}

// visibleText returns every piece of rendered text on the page.
func visibleText(rawHTML string) extraction {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return extraction{}
	}
	removeMatching(doc, invisibleMatcher)

	root := doc
	if body := cascadia.Query(doc, bodyMatcher); body != nil {
		root = body
	}

	var lines []string
	collectTextLines(root, &lines)
	return extraction{text: strings.Join(lines, "\n")}
}

// StripSelectors removes every element matching one of selectors.
// Invalid selectors are ignored; on parse failure the input is returned.
func StripSelectors(rawHTML string, selectors []string) string {
	if len(selectors) == 0 {
		return rawHTML
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rawHTML
	}

	for _, selector := range selectors {
		if _, err := cascadia.Parse(selector); err != nil {
			continue
		}
		doc.Find(selector).Remove()
	}

	out, err := doc.Html()
	if err != nil {
		return rawHTML
	}
	return out
}

func removeMatching(doc *html.Node, m cascadia.Matcher) {
	for _, n := range cascadia.QueryAll(doc, m) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// collectTextLines appends each non-blank text node as its own line.
func collectTextLines(n *html.Node, lines *[]string) {
	if n.Type == html.TextNode {
		if text := collapseSpace(n.Data); text != "" {
			*lines = append(*lines, text)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectTextLines(c, lines)
	}
}

// normalizeText collapses whitespace inside each line and drops blank lines.
func normalizeText(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = collapseSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
