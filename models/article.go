package models

// NoTitle is the title reported when a page has no usable <title>.
const NoTitle = "No Title Found"

// ExtractionStrategy names the extraction step that produced an article body.
type ExtractionStrategy string

const (
	StrategyReadability ExtractionStrategy = "readability"
	StrategyParagraphs  ExtractionStrategy = "paragraphs"
	StrategyFullText    ExtractionStrategy = "full_text"

	// StrategyNone means every strategy came back empty.
	StrategyNone ExtractionStrategy = "none"
)

// LinkCandidate is an anchor found on a page, resolved to an absolute URL.
type LinkCandidate struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// ExtractedArticle is the readable content of one page.
//
// BodyText is plain text with boilerplate removed. An empty BodyText is the
// extraction failure signal; it is never omitted.
type ExtractedArticle struct {
	URL      string             `json:"url"`
	Title    string             `json:"title"`
	BodyText string             `json:"body_text"`
	Strategy ExtractionStrategy `json:"extraction_strategy"`

	// Markdown renders the winning strategy's HTML. For the full_text
	// strategy it equals BodyText.
	Markdown string `json:"markdown,omitempty"`

	// Language is an ISO 639-1 code, empty when detection was skipped or unsure.
	Language string `json:"language,omitempty"`
	Byline   string `json:"byline,omitempty"`
	SiteName string `json:"site_name,omitempty"`
}

// RelevanceVerdict is the scorer's judgement of one article against a topic.
type RelevanceVerdict struct {
	// Score is in [0,1]: the larger of TitleScore and ContentScore, and 0
	// for error pages.
	Score        float64 `json:"score"`
	TitleScore   float64 `json:"title_score"`
	ContentScore float64 `json:"content_score"`
	IsRelevant   bool    `json:"is_relevant"`
	IsErrorPage  bool    `json:"is_error_page"`
	Reason       string  `json:"reason"`
	ShouldRetry  bool    `json:"should_retry"`
}

// ScoredArticle pairs an article with its verdict. SeedURL records which
// input URL the exploration started from.
type ScoredArticle struct {
	SeedURL string           `json:"seed_url"`
	Article ExtractedArticle `json:"article"`
	Verdict RelevanceVerdict `json:"verdict"`
}
