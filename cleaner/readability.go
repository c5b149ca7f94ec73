package cleaner

import (
	"log/slog"
	nurl "net/url"
	"strings"
	"sync"

	readability "github.com/go-shiori/go-readability"
)

// readabilityText runs the Mozilla Readability algorithm on rawHTML.
//
// A failed parse returns an empty extraction; deciding whether the text is
// long enough is left to the strategy chain.
func readabilityText(rawHTML, sourceURL string) extraction {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		slog.Debug("readability: invalid source URL", "url", sourceURL, "error", err)
		return extraction{}
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Debug("readability: extraction failed", "url", sourceURL, "error", err)
		return extraction{}
	}

	return extraction{
		text:     normalizeText(article.TextContent),
		html:     article.Content,
		byline:   strings.TrimSpace(article.Byline),
		siteName: strings.TrimSpace(article.SiteName),
	}
}

// bestOfText runs readability and the pruning scorer concurrently and keeps
// the one that found more text, unless it is over ten times longer than a
// still-substantial alternative (usually noise).
func bestOfText(rawHTML, sourceURL string, minChars int) extraction {
	var (
		byReadability extraction
		byPruning     extraction
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		byReadability = readabilityText(rawHTML, sourceURL)
	}()
	go func() {
		defer wg.Done()
		byPruning = prunedText(rawHTML)
	}()
	wg.Wait()

	useReadability := len(byReadability.text) >= len(byPruning.text)
	if useReadability && len(byPruning.text) > minChars {
		if len(byReadability.text) > 10*len(byPruning.text) {
			useReadability = false
		}
	} else if !useReadability && len(byReadability.text) > minChars {
		if len(byPruning.text) > 10*len(byReadability.text) {
			useReadability = true
		}
	}

	if useReadability {
		return byReadability
	}
	byPruning.byline = byReadability.byline
	byPruning.siteName = byReadability.siteName
	return byPruning
}
