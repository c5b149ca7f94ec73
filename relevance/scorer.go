// Package relevance judges whether extracted text is about a topic.
//
// Scoring is a keyword heuristic with no I/O: the same topic, title and
// snippet always yield the same verdict.
package relevance

import (
	"strings"
	"unicode/utf8"

	"github.com/use-agent/scout/models"
)

// Threshold is the score a title or snippet must exceed to count as a match.
const Threshold = 0.3

// MinSnippetChars is the shortest snippet that can end an exploration.
const MinSnippetChars = 100

// Reasons, in priority order. An error page always wins over keyword matches.
const (
	ReasonErrorPage    = "error_page"
	ReasonStrongMatch  = "strong_match"
	ReasonTitleMatch   = "title_match"
	ReasonContentMatch = "content_match"
	ReasonWeakMatch    = "weak_match"
)

// ErrorMarkers flag error pages, paywalls and cookie walls when found in a snippet.
var ErrorMarkers = []string{
	"404",
	"page not found",
	"access denied",
	"subscribe to continue",
	"cookie policy",
}

var reasonText = map[string]string{
	ReasonErrorPage:    "Content appears to be an error page, paywall, or cookie notice, not a real article.",
	ReasonStrongMatch:  "Strong match: topic keywords found in both title and content.",
	ReasonTitleMatch:   "Moderate match: topic keywords found in title but limited in content body.",
	ReasonContentMatch: "Moderate match: topic keywords found in content but not in title.",
	ReasonWeakMatch:    "Weak match: few topic keywords found.",
}

// Describe returns a human-readable sentence for a reason code.
func Describe(reason string) string {
	return reasonText[reason]
}

// Keywords splits a topic into lowercase keywords longer than two characters.
func Keywords(topic string) []string {
	fields := strings.Fields(strings.ToLower(topic))
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 2 {
			keywords = append(keywords, f)
		}
	}
	return keywords
}

// CountMatches returns how many keywords occur in text as case-insensitive
// substrings. Each keyword counts at most once.
func CountMatches(text string, keywords []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

// IsErrorPage reports whether the snippet carries any error marker.
func IsErrorPage(snippet string) bool {
	lower := strings.ToLower(snippet)
	for _, marker := range ErrorMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Evaluate scores an article title and body snippet against topic.
func Evaluate(topic, title, snippet string) models.RelevanceVerdict {
	keywords := Keywords(topic)
	total := len(keywords)
	if total == 0 {
		total = 1
	}

	titleScore := float64(CountMatches(title, keywords)) / float64(total)
	contentScore := float64(CountMatches(snippet, keywords)) / float64(total)
	errorPage := IsErrorPage(snippet)

	titleHit := titleScore > Threshold
	contentHit := contentScore > Threshold
	relevant := (titleHit || contentHit) && !errorPage

	v := models.RelevanceVerdict{
		TitleScore:   titleScore,
		ContentScore: contentScore,
		IsRelevant:   relevant,
		IsErrorPage:  errorPage,
		ShouldRetry:  !relevant || utf8.RuneCountInString(strings.TrimSpace(snippet)) < MinSnippetChars,
	}

	switch {
	case errorPage:
		v.Reason = ReasonErrorPage
	case titleHit && contentHit:
		v.Reason = ReasonStrongMatch
	case titleHit:
		v.Reason = ReasonTitleMatch
	case contentHit:
		v.Reason = ReasonContentMatch
	default:
		v.Reason = ReasonWeakMatch
	}

	if !errorPage {
		v.Score = max(titleScore, contentScore)
	}
	return v
}

// Snippet returns the first n runes of body, trimmed of surrounding space.
func Snippet(body string, n int) string {
	body = strings.TrimSpace(body)
	if n <= 0 || utf8.RuneCountInString(body) <= n {
		return body
	}
	runes := []rune(body)
	return string(runes[:n])
}
