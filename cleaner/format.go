package cleaner

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/use-agent/scout/models"
)

// Output formats accepted by Render.
const (
	FormatText              = "text"
	FormatMarkdown          = "markdown"
	FormatMarkdownCitations = "markdown_citations"
)

// newMarkdownConverter returns a goroutine-safe converter. The base plugin
// drops script, style, iframe and similar noise; tables keep minimal cell
// padding.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// ToMarkdown converts an HTML fragment, resolving relative links against domain.
func ToMarkdown(conv *converter.Converter, htmlContent string, domain string) (string, error) {
	md, err := conv.ConvertString(htmlContent, converter.WithDomain(domain))
	return strings.TrimSpace(md), err
}

// Render returns the article content in the requested output format.
// Unknown formats render as plain text.
func Render(article models.ExtractedArticle, format string) string {
	switch format {
	case FormatMarkdown:
		if article.Markdown != "" {
			return article.Markdown
		}
	case FormatMarkdownCitations:
		if article.Markdown != "" {
			return ConvertToCitations(article.Markdown)
		}
	}
	return article.BodyText
}

// inlineLinkRe matches Markdown inline links: [text](url)
var inlineLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// ConvertToCitations rewrites inline links as numbered references listed
// after a rule at the end. A repeated URL reuses its number.
func ConvertToCitations(markdown string) string {
	numbers := make(map[string]int)
	var refs []string

	out := inlineLinkRe.ReplaceAllStringFunc(markdown, func(match string) string {
		parts := inlineLinkRe.FindStringSubmatch(match)
		text, target := parts[1], parts[2]

		n, ok := numbers[target]
		if !ok {
			n = len(refs) + 1
			numbers[target] = n
			refs = append(refs, fmt.Sprintf("[%d]: %s", n, target))
		}
		return fmt.Sprintf("[%s][%d]", text, n)
	})

	if len(refs) == 0 {
		return markdown
	}
	return out + "\n\n---\n" + strings.Join(refs, "\n")
}

// EstimateTokens approximates a token count as one token per three runes,
// a middle ground between English (~4) and CJK (~1.5) text.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return max(n/3, 1)
}
