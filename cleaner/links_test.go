package cleaner

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/scout/models"
)

func TestExtractLinks_DedupRelativeAndAbsolute(t *testing.T) {
	page := `<html><body>
		<a href="/story/one">First story</a>
		<a href="https://example.com/story/one">First story again</a>
		<a href="story/two#comments">Second story</a>
		<a href="/news/story/two">Second story, top</a>
	</body></html>`

	links := ExtractLinks(page, "https://example.com/news/", 0)

	require.Len(t, links, 2)
	assert.Equal(t, models.LinkCandidate{Text: "First story", URL: "https://example.com/story/one"}, links[0])
	assert.Equal(t, "https://example.com/news/story/two", links[1].URL)
	assert.Equal(t, "Second story", links[1].Text)
}

func TestExtractLinks_SkipsShortTextAndOtherSchemes(t *testing.T) {
	page := `<body>
		<a href="/a">Go</a>
		<a href="/b">   </a>
		<a href="/c"><img src="x.png"></a>
		<a href="mailto:desk@example.com">Email the desk</a>
		<a href="javascript:void(0)">Open menu</a>
		<a href="/d">  Read   more
		   here </a>
	</body>`

	links := ExtractLinks(page, "https://example.com", 0)

	require.Len(t, links, 1)
	assert.Equal(t, "Read more here", links[0].Text)
	assert.Equal(t, "https://example.com/d", links[0].URL)
}

func TestExtractLinks_Cap(t *testing.T) {
	var sb strings.Builder
	for i := range 150 {
		fmt.Fprintf(&sb, `<a href="/item/%d">Item number %d</a>`, i, i)
	}

	assert.Len(t, ExtractLinks(sb.String(), "https://example.com", 0), DefaultMaxLinks)

	links := ExtractLinks(sb.String(), "https://example.com", 10)
	require.Len(t, links, 10)
	assert.Equal(t, "https://example.com/item/9", links[9].URL)
}

func TestExtractLinks_BadBaseURL(t *testing.T) {
	assert.Empty(t, ExtractLinks(`<a href="/a">Anchor</a>`, "://bad", 0))
}

func TestSearchLinks(t *testing.T) {
	page := `<body>
		<a href="/tech/ai-regulation">New rules for machines</a>
		<a href="/sport/final">AI referee in the final</a>
		<a href="/weather">Weather today</a>
	</body>`

	matches := SearchLinks(page, "https://example.com", "ai", 0)
	require.Len(t, matches, 2)
	assert.Equal(t, "https://example.com/tech/ai-regulation", matches[0].URL)
	assert.Equal(t, "AI referee in the final", matches[1].Text)

	assert.Len(t, SearchLinks(page, "https://example.com", "AI", 1), 1)
	assert.Empty(t, SearchLinks(page, "https://example.com", "elections", 0))
}

func TestSearchLinks_LooksBeyondExtractCap(t *testing.T) {
	var sb strings.Builder
	for i := range 120 {
		fmt.Fprintf(&sb, `<a href="/item/%d">Item number %d</a>`, i, i)
	}
	sb.WriteString(`<a href="/special">Special report</a>`)

	matches := SearchLinks(sb.String(), "https://example.com", "special", 0)
	require.Len(t, matches, 1)
}

func TestSummarize(t *testing.T) {
	long := strings.Repeat("word ", 12)
	page := fmt.Sprintf(`<html><head><title> Daily  News </title></head><body>
		<p>short</p><p>one %s</p><p>two %s</p><p>three %s</p><p>four %s</p>
	</body></html>`, long, long, long, long)

	overview := Summarize(page)
	assert.Equal(t, "Daily News", overview.Title)
	parts := strings.Split(overview.Summary, "\n\n")
	require.Len(t, parts, 3)
	assert.True(t, strings.HasPrefix(parts[0], "one"))
	assert.True(t, strings.HasPrefix(parts[2], "three"))
}

func TestSummarize_NoParagraphs(t *testing.T) {
	overview := Summarize(`<body><div>nothing</div></body>`)
	assert.Equal(t, models.NoTitle, overview.Title)
	assert.Equal(t, noOverview, overview.Summary)
}
