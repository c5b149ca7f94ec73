// Package engine fetches pages. Engines do the network work; Fetcher wraps
// them with a timeout and a shared limiter and reports every outcome as a
// typed PageFetchResult instead of an error.
package engine

import (
	"context"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "rod", "rod-stealth").
	Name() string

	// Fetch retrieves the page for req. Failures should be *FetchError
	// where the engine knows the failure kind.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Stealth bool
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	Body        []byte
	ContentType string
	Title       string
	StatusCode  int
	FinalURL    string
	EngineName  string
}
