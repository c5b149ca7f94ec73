// Package cleaner turns raw HTML into link candidates and readable articles.
package cleaner

import (
	"log/slog"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/use-agent/scout/models"
)

// Extraction modes for the first strategy.
const (
	ModeReadability = "readability"

	// ModeAuto races readability against the pruning scorer.
	ModeAuto = "auto"
)

// DefaultMinChars is the shortest structured extraction accepted before
// falling back to the paragraph strategy.
const DefaultMinChars = 100

// Options configures an Extractor.
type Options struct {
	Mode             string
	ExcludeSelectors []string
	DetectLanguage   bool

	// MinChars is the structured strategy's acceptance length.
	MinChars int
}

// extraction is one strategy's output.
type extraction struct {
	text     string
	html     string
	byline   string
	siteName string
}

type strategy struct {
	name   models.ExtractionStrategy
	run    func(rawHTML, sourceURL string) extraction
	accept func(text string) bool
}

// Extractor converts raw HTML into an article by trying an ordered list
// of strategies until one yields usable text:
//
//	readability → <p> text without page chrome → all visible text
//
// It is safe for concurrent use.
type Extractor struct {
	opts        Options
	mdConverter *converter.Converter
	strategies  []strategy
}

// NewExtractor builds an Extractor with the default strategy chain.
func NewExtractor(opts Options) *Extractor {
	if opts.MinChars <= 0 {
		opts.MinChars = DefaultMinChars
	}

	e := &Extractor{
		opts:        opts,
		mdConverter: newMarkdownConverter(),
	}

	structured := func(rawHTML, sourceURL string) extraction {
		return readabilityText(rawHTML, sourceURL)
	}
	if opts.Mode == ModeAuto {
		structured = func(rawHTML, sourceURL string) extraction {
			return bestOfText(rawHTML, sourceURL, opts.MinChars)
		}
	}

	nonEmpty := func(text string) bool { return text != "" }
	e.strategies = []strategy{
		{
			name: models.StrategyReadability,
			run:  structured,
			accept: func(text string) bool {
				return utf8.RuneCountInString(text) >= opts.MinChars
			},
		},
		{
			name:   models.StrategyParagraphs,
			run:    func(rawHTML, _ string) extraction { return paragraphText(rawHTML) },
			accept: nonEmpty,
		},
		{
			name:   models.StrategyFullText,
			run:    func(rawHTML, _ string) extraction { return visibleText(rawHTML) },
			accept: nonEmpty,
		},
	}
	return e
}

// Extract never fails: when no strategy finds text the article comes back
// with an empty body and models.StrategyNone.
func (e *Extractor) Extract(rawHTML, sourceURL string) models.ExtractedArticle {
	article := models.ExtractedArticle{
		URL:      sourceURL,
		Title:    PageTitle(rawHTML),
		Strategy: models.StrategyNone,
	}

	rawHTML = StripSelectors(rawHTML, e.opts.ExcludeSelectors)

	for _, s := range e.strategies {
		res := s.run(rawHTML, sourceURL)
		if !s.accept(res.text) {
			slog.Debug("extract: strategy rejected",
				"url", sourceURL, "strategy", s.name, "chars", utf8.RuneCountInString(res.text),
			)
			continue
		}

		article.BodyText = res.text
		article.Strategy = s.name
		article.Byline = res.byline
		article.SiteName = res.siteName
		article.Markdown = e.markdown(res, sourceURL)
		break
	}

	if e.opts.DetectLanguage && article.BodyText != "" {
		article.Language = DetectLanguage(article.BodyText)
	}
	return article
}

// markdown renders the strategy's HTML, falling back to its plain text.
func (e *Extractor) markdown(res extraction, sourceURL string) string {
	if res.html == "" {
		return res.text
	}
	md, err := ToMarkdown(e.mdConverter, res.html, sourceURL)
	if err != nil || md == "" {
		slog.Debug("extract: markdown conversion failed", "url", sourceURL, "error", err)
		return res.text
	}
	return md
}
