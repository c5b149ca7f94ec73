package explore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/scout/models"
)

func TestPick(t *testing.T) {
	keywords := []string{"climate", "summit"}
	candidates := []models.LinkCandidate{
		{Text: "Login", URL: "https://news.example.com/login"},
		{Text: "Sports roundup", URL: "https://news.example.com/sport/weekend-roundup"},
		{Text: "Climate talks", URL: "https://news.example.com/world/talks-resume"},
		{Text: "Climate summit ends", URL: "https://news.example.com/world/summit-ends"},
	}

	assert.Equal(t, 3, pick(candidates, map[string]bool{}, keywords, "news.example.com"))

	attempted := map[string]bool{candidates[3].URL: true}
	assert.Equal(t, 2, pick(candidates, attempted, keywords, "news.example.com"))

	attempted[candidates[2].URL] = true
	assert.Equal(t, 1, pick(candidates, attempted, keywords, "news.example.com"), "article-like link beats login")

	attempted[candidates[1].URL] = true
	assert.Equal(t, 0, pick(candidates, attempted, keywords, "news.example.com"), "first unattempted as last resort")

	attempted[candidates[0].URL] = true
	assert.Equal(t, -1, pick(candidates, attempted, keywords, "news.example.com"))
}

func TestLooksLikeArticle(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://news.example.com/world/2024/summit-ends", true},
		{"https://www.news.example.com/world/2024/summit-ends", true},
		{"https://other.example.org/world/2024/summit-ends", false},
		{"https://news.example.com/about", false},
		{"https://news.example.com/tag/climate-change", false},
		{"https://news.example.com/author/jane-doe-profile", false},
		{"https://news.example.com/account/subscribe", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, looksLikeArticle(tt.url, "news.example.com"), tt.url)
	}
}
