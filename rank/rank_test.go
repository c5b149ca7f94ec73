package rank

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/scout/models"
)

func scored(url string, score float64) models.ScoredArticle {
	return models.ScoredArticle{
		SeedURL: url,
		Article: models.ExtractedArticle{URL: url, Title: url, BodyText: "unique body for " + url},
		Verdict: models.RelevanceVerdict{Score: score},
	}
}

func urlsOf(list []models.ScoredArticle) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.Article.URL
	}
	return out
}

func TestRank_SortsDescendingAndFilters(t *testing.T) {
	in := []models.ScoredArticle{
		scored("low", 0.2),
		scored("mid", 0.5),
		scored("high", 0.9),
		scored("edge", 0.3),
	}

	got := Rank(in, 0.3, 0)

	assert.Equal(t, []string{"high", "mid", "edge"}, urlsOf(got))
	for _, a := range got {
		assert.GreaterOrEqual(t, a.Verdict.Score, 0.3)
	}
	assert.Equal(t, "low", in[0].Article.URL, "input untouched")
}

func TestRank_StableForTies(t *testing.T) {
	in := []models.ScoredArticle{
		scored("a", 0.5),
		scored("b", 0.7),
		scored("c", 0.5),
		scored("d", 0.7),
		scored("e", 0.5),
	}

	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, urlsOf(Rank(in, 0, 0)))
}

func TestRank_TopK(t *testing.T) {
	in := []models.ScoredArticle{scored("a", 0.4), scored("b", 0.8), scored("c", 0.6)}

	assert.Equal(t, []string{"b", "c"}, urlsOf(Rank(in, 0, 2)))
	assert.Len(t, Rank(in, 0, 10), 3)
	assert.Len(t, Rank(in, 0, -1), 3)
}

func TestRank_EmptyIsValid(t *testing.T) {
	got := Rank([]models.ScoredArticle{scored("a", 0.1)}, 0.5, 5)

	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, Rank(nil, 0.5, 5))
}

func TestDedup_KeepsHigherRankedCopy(t *testing.T) {
	story := strings.Repeat("Officials from nearly 200 countries reached a deal to triple renewable capacity. ", 5)
	first := scored("wire", 0.9)
	first.Article.BodyText = story
	dup := scored("syndicated", 0.8)
	dup.Article.BodyText = story
	other := scored("other", 0.7)
	other.Article.BodyText = strings.Repeat("The home side won the derby with a late goal in stoppage time. ", 5)

	got := Dedup([]models.ScoredArticle{first, dup, other}, 3)

	assert.Equal(t, []string{"wire", "other"}, urlsOf(got))
	assert.Len(t, Dedup([]models.ScoredArticle{first, dup}, 0), 2, "0 disables dedup")
}

func TestDedup_EmptyBodiesAreNotDuplicates(t *testing.T) {
	a := scored("a", 0.9)
	a.Article.BodyText = ""
	b := scored("b", 0.8)
	b.Article.BodyText = ""

	assert.Len(t, Dedup([]models.ScoredArticle{a, b}, 3), 2)
}

func TestSelect_DedupsBeforeTruncating(t *testing.T) {
	body := strings.Repeat("Same wire story text repeated across many outlets today. ", 5)
	a := scored("a", 0.9)
	a.Article.BodyText = body
	b := scored("b", 0.8)
	b.Article.BodyText = body
	c := scored("c", 0.7)

	assert.Equal(t, []string{"a", "c"}, urlsOf(Select([]models.ScoredArticle{a, b, c}, 0.3, 2, 3)))
}
