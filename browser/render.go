package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/scout/engine"
	"github.com/ysmood/gson"
)

// Render loads req.URL in a pooled tab and returns the rendered DOM.
// It has the engine.RenderFunc signature.
//
// Stealth scripts, headers and request blocking are installed before
// navigation; they do not apply to loads that already started.
func (b *Browser) Render(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	b.activePages.Add(1)
	defer b.activePages.Add(-1)

	page, err := b.pagePool.Get(func() (*rod.Page, error) {
		return b.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, &engine.FetchError{Status: engine.StatusNetworkError, Err: err}
	}

	// The original page handle has no request context, so this cleanup
	// still runs after ctx expires.
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("browser: reset to about:blank failed", "error", navErr)
		}
		b.pagePool.Put(page)
	}()

	if req.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("browser: stealth injection failed", "error", err)
		}
	}

	if b.userAgent != "" {
		_ = proto.NetworkSetUserAgentOverride{UserAgent: b.userAgent}.Call(page)
	}
	if len(req.Headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(req.Headers)}.Call(page)
	}

	if router := blockResources(page, b.cfg.BlockedResourceTypes); router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)
	if err := p.Navigate(req.URL); err != nil {
		return nil, renderError(fmt.Errorf("%w: %w", engine.ErrNavigation, err))
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("browser: DOM did not settle, using current DOM", "url", req.URL, "error", err)
	}

	removeOverlays(p)

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, renderError(err)
	}

	finalURL := evalString(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	return &engine.FetchResult{
		Body:        []byte(rawHTML),
		ContentType: "text/html",
		Title:       evalString(p, `() => document.title`),
		StatusCode:  navigationStatus(p),
		FinalURL:    finalURL,
	}, nil
}

// navigationStatus reads the document's HTTP status from the Navigation
// Timing API; 0 when the browser does not expose it.
func navigationStatus(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

// removeOverlays drops fixed or sticky high z-index layers such as cookie
// banners and subscription modals, and restores page scrolling.
func removeOverlays(p *rod.Page) {
	const js = `() => {
		for (const el of document.querySelectorAll('*')) {
			const style = window.getComputedStyle(el);
			if (style.position === 'fixed' || style.position === 'sticky') {
				const z = parseInt(style.zIndex, 10);
				if (z >= 900 || style.zIndex === 'auto') el.remove();
			}
		}
		const selectors = [
			'[class*="cookie"]', '[class*="consent"]', '[class*="overlay"]',
			'[id*="cookie"]', '[id*="consent"]', '[class*="paywall"]',
			'[class*="gdpr"]', '[id*="gdpr"]',
		];
		for (const sel of selectors) {
			document.querySelectorAll(sel).forEach(el => {
				const pos = window.getComputedStyle(el).position;
				if (pos === 'fixed' || pos === 'sticky' || pos === 'absolute') el.remove();
			});
		}
		document.documentElement.style.overflow = '';
		if (document.body) document.body.style.overflow = '';
	}`
	_, _ = p.Eval(js)
}

func evalString(p *rod.Page, js string) string {
	res, err := p.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain map to proto.NetworkHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// renderError classifies a rod failure for the fetcher.
func renderError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &engine.FetchError{Status: engine.StatusTimeout, Err: err}
	default:
		return &engine.FetchError{Status: engine.StatusNetworkError, Err: err}
	}
}
