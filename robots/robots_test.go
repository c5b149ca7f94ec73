package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/scout/config"
)

func newRobotsServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestAllowedRespectsDisallow(t *testing.T) {
	srv, hits := newRobotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /private/\n")
	a := NewAgent(config.RobotsConfig{Respect: true}, "scout-test", srv.Client())
	ctx := context.Background()

	assert.True(t, a.Allowed(ctx, srv.URL+"/news/story"))
	assert.False(t, a.Allowed(ctx, srv.URL+"/private/page"))
	assert.Equal(t, int32(1), hits.Load(), "rules are cached per host")
}

func TestAllowedRefetchesAfterTTL(t *testing.T) {
	srv, hits := newRobotsServer(t, http.StatusOK, "User-agent: *\nDisallow:\n")
	a := NewAgent(config.RobotsConfig{Respect: true, CacheTTL: time.Minute}, "scout-test", srv.Client())
	now := time.Now()
	a.now = func() time.Time { return now }

	assert.True(t, a.Allowed(context.Background(), srv.URL+"/a"))
	now = now.Add(2 * time.Minute)
	assert.True(t, a.Allowed(context.Background(), srv.URL+"/b"))

	assert.Equal(t, int32(2), hits.Load())
}

func TestAllowedMissingRobotsAllowsAll(t *testing.T) {
	srv, _ := newRobotsServer(t, http.StatusNotFound, "")
	a := NewAgent(config.RobotsConfig{Respect: true}, "scout-test", srv.Client())

	assert.True(t, a.Allowed(context.Background(), srv.URL+"/anything"))
}

func TestAllowedServerErrorFailsOpen(t *testing.T) {
	srv, hits := newRobotsServer(t, http.StatusInternalServerError, "")
	a := NewAgent(config.RobotsConfig{Respect: true}, "scout-test", srv.Client())

	assert.True(t, a.Allowed(context.Background(), srv.URL+"/a"))
	assert.True(t, a.Allowed(context.Background(), srv.URL+"/b"))
	assert.Equal(t, int32(2), hits.Load(), "failures are not cached")
}

func TestAllowedOverridesAndDisabled(t *testing.T) {
	srv, hits := newRobotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /\n")
	u, _ := url.Parse(srv.URL)

	overridden := NewAgent(config.RobotsConfig{Respect: true, Overrides: []string{" " + u.Hostname() + " "}}, "scout-test", srv.Client())
	assert.True(t, overridden.Allowed(context.Background(), srv.URL+"/x"))

	disabled := NewAgent(config.RobotsConfig{Respect: false}, "scout-test", srv.Client())
	assert.True(t, disabled.Allowed(context.Background(), srv.URL+"/x"))

	assert.Equal(t, int32(0), hits.Load())
}

func TestAllowedRejectsRelativeURL(t *testing.T) {
	a := NewAgent(config.RobotsConfig{Respect: false}, "scout-test", nil)

	assert.False(t, a.Allowed(context.Background(), "/relative/path"))
	assert.False(t, a.Allowed(context.Background(), "://bad"))
}

type countingWaiter struct{ calls atomic.Int32 }

func (w *countingWaiter) Wait(context.Context) error {
	w.calls.Add(1)
	return nil
}

func TestAllowedWaitsOnLimiterBeforeFetching(t *testing.T) {
	srv, hits := newRobotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /private/\n")
	base := NewAgent(config.RobotsConfig{Respect: true}, "scout-test", srv.Client())
	waiter := &countingWaiter{}
	a := base.WithLimiter(waiter)
	ctx := context.Background()

	assert.True(t, a.Allowed(ctx, srv.URL+"/a"))
	assert.False(t, a.Allowed(ctx, srv.URL+"/private/b"))
	assert.Equal(t, int32(1), waiter.calls.Load(), "cached rules need no wait")
	assert.Equal(t, int32(1), hits.Load())

	// The base agent sees the rules its copy fetched.
	assert.False(t, base.Allowed(ctx, srv.URL+"/private/c"))
	assert.Equal(t, int32(1), hits.Load())
}
