package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	name  string
	delay time.Duration
	err   error
	calls atomic.Int32
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	f.calls.Add(1)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(f.delay):
	}
	if f.err != nil {
		return nil, f.err
	}
	return &FetchResult{Body: []byte("<html></html>"), StatusCode: 200, EngineName: f.name}, nil
}

func TestDispatcher_EscalatesOnFailure(t *testing.T) {
	mem := NewDomainMemory(time.Hour)
	defer mem.Stop()

	httpEng := &fakeEngine{name: "http", err: &FetchError{Status: StatusNetworkError, Err: ErrScriptShell}}
	rodEng := &fakeEngine{name: "rod"}
	d := NewDispatcher([]Engine{httpEng, rodEng}, []time.Duration{0, 10 * time.Millisecond}, mem)

	res, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://news.example.com/a"})
	require.NoError(t, err)
	assert.Equal(t, "rod", res.EngineName)
	assert.Equal(t, "rod", mem.Get("news.example.com"))

	// The remembered engine is tried alone next time.
	_, err = d.Fetch(context.Background(), &FetchRequest{URL: "https://news.example.com/b"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), httpEng.calls.Load())
	assert.Equal(t, int32(2), rodEng.calls.Load())
}

func TestDispatcher_PrefersHTTPStatusError(t *testing.T) {
	mem := NewDomainMemory(time.Hour)
	defer mem.Stop()

	d := NewDispatcher([]Engine{
		&fakeEngine{name: "http", err: &FetchError{Status: StatusHTTPError, StatusCode: 403}},
		&fakeEngine{name: "rod", delay: 5 * time.Millisecond, err: errors.New("browser crashed")},
	}, nil, mem)

	_, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://blocked.example.com"})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, StatusHTTPError, fe.Status)
	assert.Equal(t, 403, fe.StatusCode)
	assert.Empty(t, mem.Get("blocked.example.com"))
}

func TestDispatcher_StaleMemoryFallsBackToRace(t *testing.T) {
	mem := NewDomainMemory(time.Hour)
	defer mem.Stop()
	mem.Set("example.com", "rod")

	d := NewDispatcher([]Engine{
		&fakeEngine{name: "http"},
		&fakeEngine{name: "rod", err: errors.New("down")},
	}, []time.Duration{0, time.Second}, mem)

	res, err := d.Fetch(context.Background(), &FetchRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "http", res.EngineName)
	assert.Equal(t, "http", mem.Get("example.com"))
}

func TestDispatcher_TimeoutThroughFetcher(t *testing.T) {
	mem := NewDomainMemory(time.Hour)
	defer mem.Stop()

	d := NewDispatcher([]Engine{&fakeEngine{name: "http", delay: time.Second}}, nil, mem)
	res := NewFetcher(d, 20*time.Millisecond).Fetch(context.Background(), "https://slow.example.com")

	assert.Equal(t, StatusTimeout, res.Status)
}

func TestDomainMemory_Expiry(t *testing.T) {
	mem := NewDomainMemory(time.Minute)
	defer mem.Stop()

	now := time.Now()
	mem.now = func() time.Time { return now }
	mem.Set("a.example", "http")
	assert.Equal(t, "http", mem.Get("a.example"))

	mem.now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.Empty(t, mem.Get("a.example"))
	assert.Equal(t, 0, mem.Len())

	mem.Stop()
	mem.Stop()
}
