package rank

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/scout/engine"
	"github.com/use-agent/scout/explore"
	"github.com/use-agent/scout/models"
)

type fakeExplorer struct {
	mu       sync.Mutex
	outcomes map[string]explore.Outcome
	seen     []string

	// after, when set, runs after each exploration.
	after func()
}

func (f *fakeExplorer) Explore(_ context.Context, seedURL, topic string, _ int) explore.Outcome {
	f.mu.Lock()
	f.seen = append(f.seen, seedURL)
	out, ok := f.outcomes[seedURL]
	f.mu.Unlock()

	if !ok {
		out = explore.Outcome{Phase: explore.PhaseExhausted, StopReason: explore.StopSeedUnreachable}
	}
	out.SeedURL = seedURL
	out.Topic = topic
	if f.after != nil {
		f.after()
	}
	return out
}

func found(url string, score float64) explore.Outcome {
	return explore.Outcome{
		Found:      true,
		Article:    models.ExtractedArticle{URL: url + "/story", Title: "Story", BodyText: "body of " + url},
		Verdict:    models.RelevanceVerdict{Score: score, IsRelevant: true},
		Phase:      explore.PhaseAccepted,
		StopReason: explore.StopRelevant,
	}
}

func newTestRunner(x explore.Explorer, global engine.Waiter, conc int) (*Runner, *[]engine.Waiter) {
	var got []engine.Waiter
	factory := func(w engine.Waiter) explore.Explorer {
		got = append(got, w)
		return x
	}
	return NewRunner(factory, global, Config{Concurrency: conc, MaxArticles: 5}), &got
}

func TestScrapeAndRank_TwoFailOneSucceeds(t *testing.T) {
	x := &fakeExplorer{outcomes: map[string]explore.Outcome{
		"https://b.example.com": found("https://b.example.com", 0.6),
	}}
	r, _ := newTestRunner(x, nil, 3)

	res := r.ScrapeAndRank(context.Background(),
		[]string{"https://a.example.com", "https://b.example.com", "https://c.example.com"},
		"climate summit", Options{MinRelevance: 0.5})

	require.Len(t, res.Articles, 1)
	assert.Equal(t, "https://b.example.com/story", res.Articles[0].Article.URL)
	assert.Equal(t, "https://b.example.com", res.Articles[0].SeedURL)
	assert.Equal(t, 3, res.Explored)
	assert.False(t, res.Canceled)
	assert.False(t, res.NoContent())
}

func TestScrapeAndRank_NoContent(t *testing.T) {
	x := &fakeExplorer{outcomes: map[string]explore.Outcome{
		"https://a.example.com": found("https://a.example.com", 0.2),
	}}
	r, _ := newTestRunner(x, nil, 2)

	res := r.ScrapeAndRank(context.Background(), []string{"https://a.example.com", "https://b.example.com"}, "topic", Options{MinRelevance: 0.3})

	assert.True(t, res.NoContent())
	assert.False(t, res.Canceled)
	assert.Equal(t, 2, res.Explored)
}

func TestScrapeAndRank_DedupsURLsAndSkipsBlanks(t *testing.T) {
	x := &fakeExplorer{}
	r, _ := newTestRunner(x, nil, 2)

	res := r.ScrapeAndRank(context.Background(),
		[]string{" https://a.example.com ", "", "https://a.example.com", "  ", "https://b.example.com"},
		"topic", Options{})

	assert.Equal(t, 2, res.Total)
	assert.ElementsMatch(t, []string{"https://a.example.com", "https://b.example.com"}, x.seen)
}

func TestScrapeAndRank_SequentialUsesPolitenessLimiter(t *testing.T) {
	global := &countingWaiter{}
	r, waiters := newTestRunner(&fakeExplorer{}, global, 3)

	r.ScrapeAndRank(context.Background(), []string{"https://a.example.com", "https://b.example.com"}, "topic", Options{Concurrency: 1})
	r.ScrapeAndRank(context.Background(), []string{"https://a.example.com", "https://b.example.com"}, "topic", Options{})

	require.Len(t, *waiters, 2)
	assert.NotNil(t, (*waiters)[0])
	assert.NotSame(t, global, (*waiters)[0])
	assert.Same(t, global, (*waiters)[1])
}

func TestScrapeAndRank_CancelReturnsPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	x := &fakeExplorer{
		outcomes: map[string]explore.Outcome{
			"https://a.example.com": found("https://a.example.com", 0.9),
			"https://b.example.com": found("https://b.example.com", 0.8),
		},
		after: cancel,
	}
	r, _ := newTestRunner(x, nil, 1)

	var progress []int
	res := r.ScrapeAndRank(ctx,
		[]string{"https://a.example.com", "https://b.example.com", "https://c.example.com"},
		"topic", Options{OnOutcome: func(done, total int, _ explore.Outcome) {
			progress = append(progress, done)
			assert.Equal(t, 3, total)
		}})

	assert.True(t, res.Canceled)
	assert.Equal(t, 1, res.Explored)
	require.Len(t, res.Articles, 1)
	assert.Equal(t, "https://a.example.com", res.Articles[0].SeedURL)
	assert.Equal(t, []int{1}, progress)
	assert.Equal(t, []string{"https://a.example.com"}, x.seen)
}

func TestScrapeAndRank_MaxArticles(t *testing.T) {
	x := &fakeExplorer{outcomes: map[string]explore.Outcome{
		"https://a.example.com": found("https://a.example.com", 0.4),
		"https://b.example.com": found("https://b.example.com", 0.9),
		"https://c.example.com": found("https://c.example.com", 0.7),
	}}
	r, _ := newTestRunner(x, nil, 3)

	res := r.ScrapeAndRank(context.Background(),
		[]string{"https://a.example.com", "https://b.example.com", "https://c.example.com"},
		"topic", Options{MinRelevance: 0.3, MaxArticles: 2})

	require.Len(t, res.Articles, 2)
	assert.Equal(t, "https://b.example.com", res.Articles[0].SeedURL)
	assert.Equal(t, "https://c.example.com", res.Articles[1].SeedURL)
	assert.Len(t, res.Outcomes, 3)
	assert.Equal(t, "https://a.example.com", res.Outcomes[0].SeedURL, "outcomes keep input order")
}

type countingWaiter struct {
	mu sync.Mutex
	n  int
}

func (w *countingWaiter) Wait(context.Context) error {
	w.mu.Lock()
	w.n++
	w.mu.Unlock()
	return nil
}
