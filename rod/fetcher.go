// Package rod implements sitegraph.Fetcher with headless Chrome, for sites
// whose links and content only exist after JavaScript runs.
package rod

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fwojciec/sitegraph"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds a single page load.
const DefaultFetchTimeout = 10 * time.Second

// Ensure Fetcher implements sitegraph.Fetcher at compile time.
var _ sitegraph.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML using Chrome browser automation.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager *BrowserManager
	timeout time.Duration
	settle  time.Duration
	closed  atomic.Bool
}

// Option configures a Fetcher.
type Option func(*fetcherConfig)

type fetcherConfig struct {
	timeout        time.Duration
	settle         time.Duration
	managerOptions []ManagerOption
}

// WithFetchTimeout bounds each page load.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *fetcherConfig) {
		c.timeout = d
	}
}

// WithSettle waits until the DOM has been stable for d after the load
// event. Zero skips the wait.
func WithSettle(d time.Duration) Option {
	return func(c *fetcherConfig) {
		c.settle = d
	}
}

// WithRecycleAfter recycles the browser after n pages.
func WithRecycleAfter(n int64) Option {
	return func(c *fetcherConfig) {
		c.managerOptions = append(c.managerOptions, WithMaxPages(n))
	}
}

// NewFetcher launches a headless browser. Close must be called when the
// Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	cfg := fetcherConfig{timeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	manager, err := NewBrowserManager(cfg.managerOptions...)
	if err != nil {
		return nil, sitegraph.Errorf(sitegraph.EUNAVAILABLE, "start browser: %v", err)
	}

	return &Fetcher{
		manager: manager,
		timeout: cfg.timeout,
		settle:  cfg.settle,
	}, nil
}

// Fetch navigates to url and returns the rendered document. The status code
// comes from the navigation timing entry and defaults to 200 when the
// browser does not report one.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*sitegraph.Response, error) {
	if f.closed.Load() {
		return nil, sitegraph.Errorf(sitegraph.EINVALID, "fetcher is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	browser := f.manager.Browser()
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, sitegraph.Errorf(sitegraph.EUNAVAILABLE, "open page: %v", err)
	}
	defer page.Close()
	defer f.manager.IncrementPageCount()

	page = page.Context(ctx)

	start := time.Now()
	if err := page.Navigate(url); err != nil {
		return nil, contextOr(ctx, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, contextOr(ctx, err)
	}
	if f.settle > 0 {
		if err := page.WaitStable(f.settle); err != nil {
			return nil, contextOr(ctx, err)
		}
	}
	latency := time.Since(start)

	html, err := page.HTML()
	if err != nil {
		return nil, contextOr(ctx, err)
	}

	resp := &sitegraph.Response{
		URL:        url,
		StatusCode: http.StatusOK,
		Body:       html,
		Latency:    latency,
	}
	if info, err := page.Info(); err == nil && info.URL != "" {
		resp.URL = info.URL
	}
	if obj, err := page.Eval(`() => document.contentType`); err == nil {
		resp.ContentType = obj.Value.Str()
	}
	if obj, err := page.Eval(navigationStatusJS); err == nil {
		if code := obj.Value.Int(); code > 0 {
			resp.StatusCode = code
		}
	}
	return resp, nil
}

const navigationStatusJS = `() => {
	const entries = performance.getEntriesByType('navigation');
	return entries.length > 0 && entries[0].responseStatus ? entries[0].responseStatus : 0;
}`

// contextOr prefers the context error so callers can classify timeouts
// and cancellation.
func contextOr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// LauncherPID returns the process ID of the browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.manager.Close()
}
