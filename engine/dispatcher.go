package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"
)

// Dispatcher races engines with staged escalation. The cheapest engine
// starts first; heavier ones start after their stage delay unless an
// earlier engine already succeeded. Dispatcher is itself an Engine.
type Dispatcher struct {
	engines []Engine
	delays  []time.Duration
	memory  *DomainMemory
}

// NewDispatcher creates a Dispatcher. engines[i] starts stageDelays[i]
// after the race begins; missing delays are treated as 0.
func NewDispatcher(engines []Engine, stageDelays []time.Duration, memory *DomainMemory) *Dispatcher {
	delays := make([]time.Duration, len(engines))
	copy(delays, stageDelays)
	return &Dispatcher{
		engines: engines,
		delays:  delays,
		memory:  memory,
	}
}

func (d *Dispatcher) Name() string { return "dispatcher" }

// Fetch tries the engine remembered for the host first, then races all
// engines. When every engine fails the most informative error is returned:
// an upstream HTTP status beats a generic failure.
func (d *Dispatcher) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	host := hostOf(req.URL)

	if remembered := d.memory.Get(host); remembered != "" {
		for _, eng := range d.engines {
			if eng.Name() != remembered {
				continue
			}
			slog.Debug("domain memory hit", "host", host, "engine", remembered)
			result, err := eng.Fetch(ctx, req)
			if err == nil {
				return result, nil
			}
			if ctx.Err() != nil {
				return nil, classify(err)
			}
			slog.Info("remembered engine failed, running full race",
				"host", host, "engine", remembered, "error", err)
			d.memory.Delete(host)
			break
		}
	}

	return d.race(ctx, req, host)
}

func (d *Dispatcher) race(ctx context.Context, req *FetchRequest, host string) (*FetchResult, error) {
	type raceResult struct {
		result *FetchResult
		err    error
	}

	raceCtx, raceCancel := context.WithCancel(ctx)
	defer raceCancel()

	results := make(chan raceResult, len(d.engines))
	var wg sync.WaitGroup

	for i, eng := range d.engines {
		wg.Add(1)
		go func(e Engine, delay time.Duration) {
			defer wg.Done()

			if delay > 0 {
				select {
				case <-raceCtx.Done():
					return
				case <-time.After(delay):
				}
			}
			if raceCtx.Err() != nil {
				return
			}

			slog.Debug("engine starting", "engine", e.Name(), "url", req.URL)
			result, err := e.Fetch(raceCtx, req)
			if err != nil {
				slog.Debug("engine failed", "engine", e.Name(), "url", req.URL, "error", err)
			}
			results <- raceResult{result: result, err: err}
		}(eng, d.delays[i])
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var best *FetchError
	for rr := range results {
		if rr.err != nil {
			fe := classify(rr.err)
			if best == nil || best.Status != StatusHTTPError {
				best = fe
			}
			continue
		}
		raceCancel()
		slog.Debug("engine won race", "engine", rr.result.EngineName, "url", req.URL)
		d.memory.Set(host, rr.result.EngineName)
		return rr.result, nil
	}

	if best == nil {
		if err := ctx.Err(); err != nil {
			return nil, classify(err)
		}
		return nil, &FetchError{Status: StatusNetworkError, Err: fmt.Errorf("all engines failed for %s", req.URL)}
	}
	return nil, best
}

// hostOf returns the lowercase hostname of rawURL.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
