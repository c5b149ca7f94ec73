package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/use-agent/scout/models"
)

// Status classifies the outcome of one fetch attempt.
type Status int

const (
	StatusOK Status = iota
	StatusNetworkError
	StatusHTTPError
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNetworkError:
		return "network_error"
	case StatusHTTPError:
		return "http_error"
	case StatusTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Sentinel causes wrapped by FetchError.
var (
	ErrInvalidURL   = errors.New("invalid url")
	ErrNotHTML      = errors.New("response is not html")
	ErrScriptShell  = errors.New("page needs javascript rendering")
	ErrBodyTooLarge = errors.New("response body too large")
	ErrNavigation   = errors.New("browser navigation failed")
)

// FetchError is a classified fetch failure.
type FetchError struct {
	Status     Status
	StatusCode int // set for StatusHTTPError
	Err        error
}

func (e *FetchError) Error() string {
	if e.Status == StatusHTTPError {
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Status, e.Err)
	}
	return e.Status.String()
}

func (e *FetchError) Unwrap() error { return e.Err }

// classify turns any engine error into a FetchError.
func classify(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{Status: StatusTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Status: StatusTimeout, Err: err}
	}
	return &FetchError{Status: StatusNetworkError, Err: err}
}

// PageFetchResult is the immutable outcome of one fetch attempt.
type PageFetchResult struct {
	URL    string
	Status Status

	// Body and ContentType are set only when Status is StatusOK.
	Body        []byte
	ContentType string
	Title       string
	FinalURL    string
	Engine      string

	// StatusCode is the upstream HTTP status when one was received.
	StatusCode int

	// Err is the underlying cause for failed fetches.
	Err error

	Elapsed time.Duration
}

// OK reports whether the fetch produced a page.
func (r PageFetchResult) OK() bool { return r.Status == StatusOK }

// HTML returns the body as a string.
func (r PageFetchResult) HTML() string { return string(r.Body) }

// Describe is a short diagnostic such as "ok", "http 404" or "timeout".
func (r PageFetchResult) Describe() string {
	switch r.Status {
	case StatusOK:
		return "ok"
	case StatusHTTPError:
		return fmt.Sprintf("http %d", r.StatusCode)
	case StatusNetworkError:
		if r.Err != nil {
			return "network error: " + r.Err.Error()
		}
		return "network error"
	default:
		return r.Status.String()
	}
}

// AsError maps a failed fetch onto the API error type. It returns nil for
// successful fetches.
func (r PageFetchResult) AsError() *models.ScrapeError {
	switch r.Status {
	case StatusOK:
		return nil
	case StatusTimeout:
		return models.NewScrapeError(models.ErrCodeTimeout, "fetch timed out: "+r.URL, r.Err)
	case StatusHTTPError:
		return models.NewScrapeError(models.ErrCodeHTTPStatus, fmt.Sprintf("upstream returned %d: %s", r.StatusCode, r.URL), r.Err)
	default:
		if errors.Is(r.Err, ErrNavigation) {
			return models.NewScrapeError(models.ErrCodeNavigation, "navigation failed: "+r.URL, r.Err)
		}
		return models.NewScrapeError(models.ErrCodeNetwork, "fetch failed: "+r.URL, r.Err)
	}
}
