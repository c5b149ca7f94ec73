package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// DefaultTimeout bounds a single fetch when none is configured.
const DefaultTimeout = 15 * time.Second

// Waiter blocks until the caller may issue another request.
// *rate.Limiter satisfies it.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Fetcher issues one GET per call and never retries; deciding what to do
// with a failure is the caller's job.
type Fetcher struct {
	engine  Engine
	timeout time.Duration
	limiter Waiter
}

// NewFetcher wraps eng with a per-request timeout (DefaultTimeout when <= 0).
func NewFetcher(eng Engine, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{engine: eng, timeout: timeout}
}

// WithLimiter returns a copy of f that waits on w before every request.
// Copies share the underlying engine.
func (f *Fetcher) WithLimiter(w Waiter) *Fetcher {
	c := *f
	c.limiter = w
	return &c
}

// Fetch retrieves rawURL. The request carries a browser identity and a
// Referer set to the URL's own origin.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) PageFetchResult {
	start := time.Now()
	result := PageFetchResult{URL: rawURL}

	origin, err := originOf(rawURL)
	if err != nil {
		result.Status = StatusNetworkError
		result.Err = err
		return result
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			fe := classify(err)
			// A limiter refuses up front when the wait would overrun the deadline.
			if _, ok := ctx.Deadline(); ok && fe.Status == StatusNetworkError && !errors.Is(err, context.Canceled) {
				fe = &FetchError{Status: StatusTimeout, Err: err}
			}
			result.Status, result.Err = fe.Status, fe
			return result
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	res, err := f.engine.Fetch(fetchCtx, &FetchRequest{
		URL:     rawURL,
		Headers: map[string]string{"Referer": origin},
	})
	result.Elapsed = time.Since(start)

	if err != nil {
		fe := classify(err)
		if fe.Status == StatusNetworkError && errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			fe = &FetchError{Status: StatusTimeout, Err: err}
		}
		result.Status = fe.Status
		result.StatusCode = fe.StatusCode
		result.Err = fe
		slog.Debug("fetch failed", "url", rawURL, "status", fe.Status, "error", err, "elapsed_ms", result.Elapsed.Milliseconds())
		return result
	}

	result.Status = StatusOK
	result.Body = res.Body
	result.ContentType = res.ContentType
	result.Title = res.Title
	result.StatusCode = res.StatusCode
	result.FinalURL = res.FinalURL
	result.Engine = res.EngineName
	slog.Debug("fetch ok", "url", rawURL, "engine", res.EngineName, "bytes", len(res.Body), "elapsed_ms", result.Elapsed.Milliseconds())
	return result
}

// originOf returns "scheme://host/" for an absolute http(s) URL.
func originOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return u.Scheme + "://" + u.Host + "/", nil
}
