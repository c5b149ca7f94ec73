package explore

import (
	"net/url"
	"strings"

	"github.com/use-agent/scout/models"
	"github.com/use-agent/scout/relevance"
)

// nonArticleSegments mark listing and account pages.
var nonArticleSegments = []string{
	"login", "signin", "sign-in", "signup", "sign-up", "register",
	"subscribe", "account", "tag", "tags", "category", "categories",
	"author", "authors", "search", "privacy", "terms", "contact",
}

// pick returns the index of the best unattempted candidate, or -1.
//
// Candidates whose anchor text or URL mentions the most topic keywords
// come first. Without any keyword hit, a link that looks like an article
// on the seed's host is preferred. Otherwise the first unattempted
// candidate is used. Ties keep discovery order.
func pick(candidates []models.LinkCandidate, attempted map[string]bool, keywords []string, seedHost string) int {
	bestHits, bestIdx := 0, -1
	articleIdx, firstIdx := -1, -1

	for i, c := range candidates {
		if attempted[c.URL] {
			continue
		}
		if firstIdx < 0 {
			firstIdx = i
		}
		if hits := relevance.CountMatches(c.Text+" "+c.URL, keywords); hits > bestHits {
			bestHits, bestIdx = hits, i
		}
		if articleIdx < 0 && looksLikeArticle(c.URL, seedHost) {
			articleIdx = i
		}
	}

	switch {
	case bestIdx >= 0:
		return bestIdx
	case articleIdx >= 0:
		return articleIdx
	default:
		return firstIdx
	}
}

// looksLikeArticle reports whether rawURL is on seedHost with a path long
// enough to be a story and no listing or account segment.
func looksLikeArticle(rawURL, seedHost string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if seedHost != "" && !sameSite(u.Hostname(), seedHost) {
		return false
	}
	path := strings.Trim(u.Path, "/")
	if len(path) <= 10 {
		return false
	}
	for _, seg := range strings.Split(strings.ToLower(path), "/") {
		for _, bad := range nonArticleSegments {
			if seg == bad {
				return false
			}
		}
	}
	return true
}

// sameSite treats "www." as insignificant.
func sameSite(a, b string) bool {
	a = strings.TrimPrefix(strings.ToLower(a), "www.")
	b = strings.TrimPrefix(strings.ToLower(b), "www.")
	return a == b
}
