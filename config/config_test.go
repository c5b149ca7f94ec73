package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 15*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, DefaultUserAgent, cfg.Fetch.UserAgent)
	assert.Equal(t, 6, cfg.Explore.CallsLimit)
	assert.Equal(t, 2, cfg.Explore.MaxReads)
	assert.Equal(t, 100, cfg.Explore.MaxLinks)
	assert.Equal(t, 50, cfg.Explore.SearchLinksLimit)
	assert.Equal(t, 500, cfg.Explore.SnippetChars)
	assert.Equal(t, 100, cfg.Explore.MinBodyChars)
	assert.Equal(t, time.Second, cfg.Batch.PolitenessDelay)
	assert.False(t, cfg.Browser.Enabled)
	assert.Equal(t, "readability", cfg.Extract.Mode)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SCOUT_CALLS_LIMIT", "9")
	t.Setenv("SCOUT_MIN_RELEVANCE", "0.5")
	t.Setenv("SCOUT_API_KEYS", "a, b ,,c")
	t.Setenv("SCOUT_ENGINE_STAGE_DELAYS", "0s,1s,bogus")
	t.Setenv("SCOUT_FETCH_TIMEOUT", "not-a-duration")

	cfg := Load()

	assert.Equal(t, 9, cfg.Explore.CallsLimit)
	assert.InDelta(t, 0.5, cfg.Batch.MinRelevance, 1e-9)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Auth.APIKeys)
	assert.Equal(t, []time.Duration{0, time.Second}, cfg.Engine.StageDelays)
	assert.Equal(t, 15*time.Second, cfg.Fetch.Timeout)
}
