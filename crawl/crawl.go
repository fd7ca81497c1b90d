// Package crawl drives the fetch, extract, embed, and store loop that
// builds the site graph, starting from a single origin URL.
package crawl

import (
	"context"
	"errors"
	"fmt"
	neturl "net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fwojciec/sitegraph"
	"github.com/fwojciec/sitegraph/embedding"
)

// Frontier configuration.
const (
	// frontierMinExpectedURLs is the smallest Bloom filter sizing.
	frontierMinExpectedURLs = 1000
	// frontierURLsPerPage estimates distinct URLs discovered per crawled page.
	frontierURLsPerPage = 20
	// frontierFalsePositiveRate is the acceptable false positive rate of the pre-check.
	frontierFalsePositiveRate = 0.01
)

// DefaultEmbedTextLimit caps the text submitted for a page embedding.
const DefaultEmbedTextLimit = 8000

// DefaultSimilarityNeighbors is the number of SIMILAR_TO edges per page.
const DefaultSimilarityNeighbors = 5

// Crawler builds the site graph for one origin.
//
// Fetcher, Extractor, and Store are required. Embedder, RateLimiter,
// Sitemaps, and Cache are optional. A Crawler may run one crawl at a time.
type Crawler struct {
	Fetcher     sitegraph.Fetcher
	Extractor   sitegraph.Extractor
	Embedder    sitegraph.Embedder
	Store       sitegraph.GraphStore
	RateLimiter sitegraph.DomainLimiter
	Sitemaps    sitegraph.SitemapService
	Cache       *embedding.Cache

	// Frontier replaces the crawl queue. When nil, Run uses a new Frontier
	// limited to the configured depth.
	Frontier sitegraph.URLFrontier

	// Workers is the size of the fetch/extract/embed pool. Defaults to 1.
	Workers int

	RetryDelays []time.Duration
	RetryLogger LogFunc

	// EmbedTextLimit caps page text submitted for embedding.
	// Defaults to DefaultEmbedTextLimit.
	EmbedTextLimit int

	// SimilarityThreshold enables a SIMILAR_TO linking pass after the crawl
	// when greater than zero. Must be within [0, 1].
	SimilarityThreshold float64

	// SimilarityNeighbors caps SIMILAR_TO edges per page.
	// Defaults to DefaultSimilarityNeighbors.
	SimilarityNeighbors int

	stopped atomic.Bool
}

// Stats summarizes a crawl. Stats are returned even when the crawl is
// interrupted.
type Stats struct {
	PagesCrawled  int
	PagesFailed   int
	PagesSkipped  int
	Elements      int
	ExternalLinks int
	SimilarLinks  int
	Bytes         int
	Elapsed       time.Duration

	// FailedURLs maps each failed URL to its failure reason.
	FailedURLs map[string]string

	// Stopped is true when Stop ended the crawl before the frontier drained.
	Stopped bool
}

// ProgressEvent reports progress during a crawl.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Queued    int
	URL       string
	Depth     int
	Attempts  int
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressSeeded ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressSkipped
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// pageResult holds the outcome of processing a single URL.
type pageResult struct {
	item     sitegraph.CrawlItem
	url      string
	outcome  Outcome
	reason   string
	attempts int
	bytes    int
	links    []string
	elements int
	external int
	vector   []float32

	// warn collects relationship write failures after the page was stored.
	warn error

	// fatal aborts the crawl, e.g. rejected embedding credentials.
	fatal error
}

// Stop asks a running crawl to stop accepting new URLs. Pages already being
// processed are finished.
func (c *Crawler) Stop() {
	c.stopped.Store(true)
}

// Run crawls breadth-first from cfg.Origin until the frontier drains, the
// page limit is reached, Stop is called, or ctx is canceled.
//
// Single-page failures never end the crawl. Run returns an error for an
// invalid configuration, a canceled context, or a fatal embedding error;
// the returned Stats are always non-nil.
func (c *Crawler) Run(ctx context.Context, cfg sitegraph.CrawlConfig, progress ProgressFunc) (*Stats, error) {
	begin := time.Now()
	stats := &Stats{FailedURLs: make(map[string]string)}

	if err := cfg.Validate(); err != nil {
		return stats, err
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return stats, sitegraph.Errorf(sitegraph.EINVALID, "similarity threshold must be within [0, 1], got %v", c.SimilarityThreshold)
	}
	scope, err := cfg.Scope()
	if err != nil {
		return stats, err
	}
	c.stopped.Store(false)

	frontier := c.Frontier
	if frontier == nil {
		expected := max(uint(cfg.MaxPages)*frontierURLsPerPage, frontierMinExpectedURLs)
		frontier = NewFrontier(cfg.MaxDepth, expected, frontierFalsePositiveRate)
	}
	frontier.Push(sitegraph.CrawlItem{URL: scope.Origin(), Depth: 0})
	c.seedFromSitemap(ctx, scope, frontier, progress)

	vectors := make(map[string][]float32)
	var fatal error

	handle := func(res *pageResult) bool {
		completed := stats.PagesCrawled + stats.PagesFailed + stats.PagesSkipped + 1
		event := ProgressEvent{
			Completed: completed,
			URL:       res.url,
			Depth:     res.item.Depth,
			Attempts:  res.attempts,
		}

		if res.fatal != nil && fatal == nil {
			fatal = res.fatal
			c.Stop()
		}

		if res.outcome == OutcomeSuccess && res.url != res.item.URL && !frontier.MarkVisited(res.url) {
			res.outcome = OutcomeSkip
			res.reason = "redirects to visited " + res.url
		}

		switch res.outcome {
		case OutcomeSuccess:
			stats.PagesCrawled++
			stats.Bytes += res.bytes
			stats.Elements += res.elements
			stats.ExternalLinks += res.external
			if res.vector != nil {
				vectors[res.url] = res.vector
			}
			for _, link := range res.links {
				frontier.Push(sitegraph.CrawlItem{URL: link, Depth: res.item.Depth + 1, Referrer: res.url})
			}
			event.Type = ProgressCompleted
			event.Error = res.warn
		case OutcomeSkip:
			stats.PagesSkipped++
			event.Type = ProgressSkipped
			event.Error = errors.New(res.reason)
		default:
			stats.PagesFailed++
			stats.FailedURLs[res.item.URL] = res.reason
			frontier.Fail(res.item.URL, res.reason)
			event.Type = ProgressFailed
			event.URL = res.item.URL
			event.Error = errors.New(res.reason)
		}

		event.Queued = frontier.Len()
		if progress != nil {
			progress(event)
		}
		return res.outcome == OutcomeSuccess
	}

	process := func(ctx context.Context, item sitegraph.CrawlItem) pageResult {
		return c.process(ctx, scope, item)
	}

	walkErr := c.walkFrontier(ctx, frontier, cfg.MaxPages, process, handle)
	stats.Stopped = c.stopped.Load()

	var linkErr error
	if walkErr == nil && fatal == nil && c.SimilarityThreshold > 0 {
		stats.SimilarLinks, linkErr = c.linkSimilar(ctx, vectors)
	}

	stats.Elapsed = time.Since(begin)
	if progress != nil {
		progress(ProgressEvent{
			Type:      ProgressFinished,
			Completed: stats.PagesCrawled + stats.PagesFailed + stats.PagesSkipped,
		})
	}

	switch {
	case fatal != nil:
		return stats, fatal
	case walkErr != nil:
		return stats, walkErr
	case linkErr != nil:
		return stats, fmt.Errorf("link similar pages: %w", linkErr)
	}
	return stats, nil
}

// seedFromSitemap queues sitemap URLs at depth 1. Sitemap failures are
// reported but never fatal.
func (c *Crawler) seedFromSitemap(ctx context.Context, scope *sitegraph.Scope, frontier sitegraph.URLFrontier, progress ProgressFunc) {
	if c.Sitemaps == nil {
		return
	}
	urls, err := c.Sitemaps.DiscoverURLs(ctx, scope.Origin(), scope)
	queued := 0
	for _, u := range urls {
		if frontier.Push(sitegraph.CrawlItem{URL: u, Depth: 1, Referrer: scope.Origin()}) {
			queued++
		}
	}
	if progress != nil {
		progress(ProgressEvent{Type: ProgressSeeded, Queued: queued, URL: scope.Origin(), Error: err})
	}
}

// process fetches, extracts, embeds, and stores a single URL.
func (c *Crawler) process(ctx context.Context, scope *sitegraph.Scope, item sitegraph.CrawlItem) pageResult {
	res := pageResult{item: item, url: item.URL}

	if c.RateLimiter != nil {
		if err := c.RateLimiter.Wait(ctx, hostOf(item.URL)); err != nil {
			res.outcome = OutcomePermanent
			res.reason = err.Error()
			return res
		}
	}

	delays := c.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	fetched := FetchWithRetryDelays(ctx, item.URL, c.Fetcher.Fetch, c.RetryLogger, delays)
	res.attempts = fetched.Attempts
	if fetched.Outcome != OutcomeSuccess {
		res.outcome = fetched.Outcome
		res.reason = fetched.Reason
		return res
	}
	resp := fetched.Response
	res.bytes = len(resp.Body)

	// Store redirected pages under their final URL when it stays in scope.
	if resp.URL != "" && resp.URL != item.URL {
		final, ok := scope.Allow(resp.URL, "")
		if !ok {
			res.outcome = OutcomeSkip
			res.reason = fmt.Sprintf("redirected out of scope to %s", resp.URL)
			return res
		}
		res.url = final
	}

	content := c.Extractor.Extract(resp.Body, res.url, scope)
	page := newPage(res.url, resp, content)

	vec, err := c.embed(ctx, page)
	if err != nil {
		res.outcome = OutcomePermanent
		res.reason = fmt.Sprintf("embed: %s", sitegraph.ErrorMessage(err))
		res.fatal = err
		return res
	}
	page.Embedding = vec

	if _, err := c.Store.UpsertPage(ctx, page); err != nil {
		res.outcome = OutcomePermanent
		res.reason = fmt.Sprintf("store page: %v", err)
		return res
	}
	if vec != nil && c.Cache != nil {
		c.Cache.Put(page.URL, page.ContentHash, vec)
	}

	res.outcome = OutcomeSuccess
	res.vector = vec
	res.warn = c.storeEdges(ctx, page.URL, content, &res)
	return res
}

// embed returns the page vector, reusing a cached or stored vector when the
// content hash is unchanged.
func (c *Crawler) embed(ctx context.Context, page *sitegraph.Page) ([]float32, error) {
	if c.Embedder == nil {
		return nil, nil
	}
	if c.Cache != nil {
		if vec, ok := c.Cache.Get(page.URL, page.ContentHash); ok {
			return vec, nil
		}
	}
	if node, err := c.Store.FindNode(ctx, page.URL); err == nil && node.Page != nil {
		if node.Page.ContentHash == page.ContentHash && node.Page.Embedding != nil {
			return node.Page.Embedding, nil
		}
	}

	limit := c.EmbedTextLimit
	if limit <= 0 {
		limit = DefaultEmbedTextLimit
	}
	text := EmbeddingText(page, limit)
	if text == "" {
		return nil, nil
	}
	return c.Embedder.Embed(ctx, text)
}

// storeEdges writes elements and outbound links for a stored page.
func (c *Crawler) storeEdges(ctx context.Context, pageURL string, content *sitegraph.PageContent, res *pageResult) error {
	var errs []error

	for _, el := range content.Elements {
		if err := c.Store.UpsertElement(ctx, pageURL, el); err != nil {
			errs = append(errs, fmt.Errorf("element %s: %w", el.ID, err))
			continue
		}
		res.elements++
		if el.NavigatesTo == "" {
			continue
		}
		if err := c.Store.UpsertRelationship(ctx, el.ID, el.NavigatesTo, sitegraph.NavigatesTo); err != nil {
			errs = append(errs, fmt.Errorf("navigates to %s: %w", el.NavigatesTo, err))
		}
	}

	seen := make(map[string]bool)
	for _, link := range content.Links {
		if link.URL == "" || link.URL == pageURL || seen[link.URL] {
			continue
		}

		var rel sitegraph.RelationType
		switch link.Scope {
		case sitegraph.ScopeInternal:
			rel = sitegraph.LinksTo
		case sitegraph.ScopeExternal:
			rel = sitegraph.LinksToExternal
		default:
			continue
		}
		seen[link.URL] = true

		if err := c.Store.UpsertRelationship(ctx, pageURL, link.URL, rel); err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", rel, link.URL, err))
			continue
		}
		if rel == sitegraph.LinksTo {
			res.links = append(res.links, link.URL)
		} else {
			res.external++
		}
	}

	return errors.Join(errs...)
}

// newPage builds the Page record for a fetched document.
func newPage(pageURL string, resp *sitegraph.Response, content *sitegraph.PageContent) *sitegraph.Page {
	page := &sitegraph.Page{
		URL:         pageURL,
		Title:       content.Title,
		Description: content.Description,
		Keywords:    content.Keywords,
		Text:        content.Text,
		ContentHash: ComputeHash(content.Title + "\n" + content.Description + "\n" + content.Text),
		StatusCode:  resp.StatusCode,
		Latency:     resp.Latency,
		ParseError:  content.ParseError,
		LastCrawled: time.Now().UTC(),
	}
	if u, err := neturl.Parse(pageURL); err == nil {
		page.Domain = u.Host
		page.Path = u.Path
	}
	return page
}

// EmbeddingText returns the text submitted for a page embedding: title,
// description, and body text, capped at limit runes.
func EmbeddingText(page *sitegraph.Page, limit int) string {
	var parts []string
	for _, s := range []string{page.Title, page.Description, page.Text} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	text := strings.Join(parts, "\n")
	if limit > 0 {
		if runes := []rune(text); len(runes) > limit {
			text = string(runes[:limit])
		}
	}
	return text
}

func hostOf(rawURL string) string {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}
