package cleaner

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/scout/models"
)

// Link extraction limits.
const (
	DefaultMaxLinks    = 100
	DefaultSearchLimit = 50

	// minAnchorText is the shortest anchor text kept as a candidate.
	minAnchorText = 3
)

// noOverview is reported when a page has no paragraph worth summarizing.
const noOverview = "No meaningful text overview found on this page."

// ExtractLinks returns the anchors of rawHTML as absolute URLs resolved
// against baseURL, in document order.
//
// Anchors without at least three characters of visible text are skipped,
// as are non-http(s) targets. The URL fragment is dropped before
// deduplication so "/a" and "/a#top" count once. At most maxLinks
// candidates are returned (DefaultMaxLinks when maxLinks <= 0).
func ExtractLinks(rawHTML, baseURL string, maxLinks int) []models.LinkCandidate {
	if maxLinks <= 0 {
		maxLinks = DefaultMaxLinks
	}
	return collectLinks(rawHTML, baseURL, maxLinks)
}

// SearchLinks returns the candidates whose anchor text or URL contains
// query, compared case-insensitively. At most limit results are returned
// (DefaultSearchLimit when limit <= 0).
func SearchLinks(rawHTML, baseURL, query string, limit int) []models.LinkCandidate {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	needle := strings.ToLower(strings.TrimSpace(query))

	matches := []models.LinkCandidate{}
	for _, link := range collectLinks(rawHTML, baseURL, 0) {
		if len(matches) >= limit {
			break
		}
		if strings.Contains(strings.ToLower(link.Text), needle) ||
			strings.Contains(strings.ToLower(link.URL), needle) {
			matches = append(matches, link)
		}
	}
	return matches
}

// collectLinks walks every a[href]. A limit of 0 means no cap.
func collectLinks(rawHTML, baseURL string, limit int) []models.LinkCandidate {
	links := []models.LinkCandidate{}

	base, err := url.Parse(baseURL)
	if err != nil {
		return links
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return links
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return true
		}

		text := collapseSpace(s.Text())
		if utf8.RuneCountInString(text) < minAnchorText {
			return true
		}

		resolved, err := base.Parse(href)
		if err != nil {
			return true
		}
		// javascript:, mailto:, tel: and friends.
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}
		resolved.Fragment = ""
		resolved.RawFragment = ""

		absURL := resolved.String()
		if _, ok := seen[absURL]; ok {
			return true
		}
		seen[absURL] = struct{}{}

		links = append(links, models.LinkCandidate{Text: text, URL: absURL})
		return limit == 0 || len(links) < limit
	})

	return links
}

// PageOverview is a short description of a page used while browsing.
type PageOverview struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Summarize returns the page title and its first three paragraphs that are
// longer than 40 characters.
func Summarize(rawHTML string) PageOverview {
	overview := PageOverview{Title: PageTitle(rawHTML), Summary: noOverview}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return overview
	}

	var parts []string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := collapseSpace(s.Text())
		if len(text) > 40 {
			parts = append(parts, text)
		}
		return len(parts) < 3
	})
	if len(parts) > 0 {
		overview.Summary = strings.Join(parts, "\n\n")
	}
	return overview
}

// PageTitle returns the text of the first <title> element, or models.NoTitle.
func PageTitle(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return models.NoTitle
	}
	title := collapseSpace(doc.Find("title").First().Text())
	if title == "" {
		return models.NoTitle
	}
	return title
}

// collapseSpace trims s and folds every whitespace run into one space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
