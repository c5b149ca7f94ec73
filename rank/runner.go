package rank

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/scout/engine"
	"github.com/use-agent/scout/explore"
	"github.com/use-agent/scout/models"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ExplorerFactory builds an Explorer whose fetches wait on w first.
// w may be nil.
type ExplorerFactory func(w engine.Waiter) explore.Explorer

// Config holds batch defaults.
type Config struct {
	Concurrency int

	// PolitenessDelay spaces fetches when a batch runs sequentially.
	PolitenessDelay time.Duration

	MinRelevance  float64
	MaxArticles   int
	DedupDistance int
}

// Options tunes one batch. Zero Concurrency, MaxArticles and CallsLimit
// fall back to the Runner's defaults; MinRelevance is used as given.
type Options struct {
	MinRelevance float64
	MaxArticles  int
	Concurrency  int
	CallsLimit   int

	// OnOutcome, when set, is called after each exploration finishes.
	// Calls are serialized.
	OnOutcome func(done, total int, out explore.Outcome)
}

// Result is the outcome of one batch.
type Result struct {
	// Articles is the ranked selection.
	Articles []models.ScoredArticle

	// Outcomes holds every finished exploration in input order.
	Outcomes []explore.Outcome

	// Total is the number of distinct seed URLs; Explored how many finished.
	Total    int
	Explored int

	// Canceled is true when the batch stopped early. Articles then covers
	// only the explorations that finished.
	Canceled bool
}

// NoContent reports that the batch ran but nothing cleared the threshold.
func (r Result) NoContent() bool { return len(r.Articles) == 0 }

// Runner explores seed URLs in parallel and ranks what they yield.
type Runner struct {
	factory ExplorerFactory
	global  engine.Waiter
	cfg     Config
}

// NewRunner creates a Runner. global is the limiter shared by concurrent
// workers and may be nil.
func NewRunner(factory ExplorerFactory, global engine.Waiter, cfg Config) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Runner{factory: factory, global: global, cfg: cfg}
}

// ScrapeAndRank explores every URL for topic and returns the ranked
// articles. At most opts.Concurrency explorations run at once. A sequential
// batch waits PolitenessDelay between fetches; a concurrent one shares the
// global limiter instead.
//
// Canceling ctx stops new explorations from starting; whatever finished is
// still ranked and returned.
func (r *Runner) ScrapeAndRank(ctx context.Context, urls []string, topic string, opts Options) Result {
	start := time.Now()
	seeds := uniqueURLs(urls)

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = r.cfg.Concurrency
	}
	concurrency = max(min(concurrency, len(seeds)), 1)

	maxArticles := opts.MaxArticles
	if maxArticles <= 0 {
		maxArticles = r.cfg.MaxArticles
	}

	var limiter engine.Waiter
	if concurrency == 1 {
		limiter = rate.NewLimiter(rate.Every(r.cfg.PolitenessDelay), 1)
	} else if r.global != nil {
		limiter = r.global
	}
	explorer := r.factory(limiter)

	outcomes := make([]explore.Outcome, len(seeds))
	finished := make([]bool, len(seeds))
	var (
		mu   sync.Mutex
		done int
	)

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for i, seed := range seeds {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			out := explorer.Explore(ctx, seed, topic, opts.CallsLimit)
			if out.StopReason == explore.StopCanceled {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			outcomes[i] = out
			finished[i] = true
			done++
			if opts.OnOutcome != nil {
				opts.OnOutcome(done, len(seeds), out)
			}
			return nil
		})
	}
	// Workers never return errors.
	_ = g.Wait()

	res := Result{Total: len(seeds), Canceled: ctx.Err() != nil}
	var scored []models.ScoredArticle
	for i, ok := range finished {
		if !ok {
			continue
		}
		res.Outcomes = append(res.Outcomes, outcomes[i])
		if sa, found := outcomes[i].Scored(); found {
			scored = append(scored, sa)
		}
	}
	res.Explored = len(res.Outcomes)
	res.Articles = Select(scored, opts.MinRelevance, maxArticles, r.cfg.DedupDistance)

	slog.Info("batch ranked",
		"topic", topic,
		"urls", len(seeds),
		"explored", res.Explored,
		"selected", len(res.Articles),
		"concurrency", concurrency,
		"canceled", res.Canceled,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res
}

// uniqueURLs trims entries, skips blanks and drops repeats, keeping order.
func uniqueURLs(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
