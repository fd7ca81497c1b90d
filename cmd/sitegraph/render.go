package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fwojciec/sitegraph"
	"github.com/fwojciec/sitegraph/crawl"
	sghttp "github.com/fwojciec/sitegraph/http"
	"github.com/fwojciec/sitegraph/rod"
)

// newFetcher returns the fetcher selected by --render. With "auto" the
// origin is fetched both ways and the browser is kept only when rendering
// reveals content the plain fetch misses.
func (m *Main) newFetcher(ctx context.Context, c CrawlCmd, extractor sitegraph.Extractor, stderr io.Writer) (sitegraph.Fetcher, error) {
	var plain sitegraph.Fetcher = sghttp.NewFetcher(sghttp.WithTimeout(c.Timeout))
	if c.Render == "never" {
		m.closers = append(m.closers, plain.Close)
		return plain, nil
	}

	browser, err := rod.NewFetcher(rod.WithFetchTimeout(c.Timeout))
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed")
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	if c.Render == "always" {
		m.closers = append(m.closers, browser.Close)
		return browser, nil
	}

	scope, err := sitegraph.NewScope(c.URL, c.Blacklist)
	if err != nil {
		_ = browser.Close()
		return nil, err
	}

	chosen := ChooseFetcher(ctx, scope, plain, browser, extractor)
	if chosen == plain {
		_ = browser.Close()
		fmt.Fprintln(stderr, "  Rendering not needed, using HTTP fetcher")
	} else {
		fmt.Fprintln(stderr, "  Site builds content with JavaScript, using browser fetcher")
	}
	m.closers = append(m.closers, chosen.Close)
	return chosen, nil
}

// ChooseFetcher fetches the scope's origin with both fetchers and returns
// browser when the rendered page has significantly more content. A failed
// browser fetch always selects plain.
func ChooseFetcher(ctx context.Context, scope *sitegraph.Scope, plain, browser sitegraph.Fetcher, extractor sitegraph.Extractor) sitegraph.Fetcher {
	static, err := plain.Fetch(ctx, scope.Origin())
	if err != nil {
		static = nil
	}

	rendered, err := browser.Fetch(ctx, scope.Origin())
	if err != nil {
		return plain
	}

	if crawl.NeedsRendering(static, rendered, extractor, scope) {
		return browser
	}
	return plain
}
