package engine

import (
	"context"
	"fmt"
)

// RenderFunc renders a page in a headless browser. It is injected from
// main so that engine does not import the browser package.
type RenderFunc func(ctx context.Context, req *FetchRequest) (*FetchResult, error)

// RodEngine is the browser tier of the dispatcher. The stealth variant
// forces anti-detection evasions on every request.
type RodEngine struct {
	render       RenderFunc
	forceStealth bool
	name         string
}

// NewRodEngine creates a RodEngine around render.
func NewRodEngine(render RenderFunc, forceStealth bool) *RodEngine {
	name := "rod"
	if forceStealth {
		name = "rod-stealth"
	}
	return &RodEngine{
		render:       render,
		forceStealth: forceStealth,
		name:         name,
	}
}

func (e *RodEngine) Name() string { return e.name }

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.render == nil {
		return nil, &FetchError{Status: StatusNetworkError, Err: fmt.Errorf("%s: renderer not configured", e.name)}
	}

	r := *req
	if e.forceStealth {
		r.Stealth = true
	}

	result, err := e.render(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}
	if result.StatusCode >= 400 {
		return nil, &FetchError{Status: StatusHTTPError, StatusCode: result.StatusCode}
	}

	result.EngineName = e.name
	return result, nil
}
