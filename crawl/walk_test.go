package crawl_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/sitegraph"
	"github.com/fwojciec/sitegraph/crawl"
	"github.com/fwojciec/sitegraph/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fanOutExtractor links the origin to n pages and every other page to nothing.
func fanOutExtractor(n int) *mock.Extractor {
	return &mock.Extractor{
		ExtractFn: func(_ string, pageURL string, scope *sitegraph.Scope) *sitegraph.PageContent {
			content := &sitegraph.PageContent{Title: pageURL, Text: "content"}
			if pageURL != scope.Origin() {
				return content
			}
			for i := 1; i <= n; i++ {
				content.Links = append(content.Links, sitegraph.Link{
					URL:   fmt.Sprintf("https://example.com/page%d", i),
					Scope: sitegraph.ScopeInternal,
				})
			}
			return content
		},
	}
}

func htmlDoc(url string) *sitegraph.Response {
	return &sitegraph.Response{URL: url, StatusCode: 200, ContentType: "text/html", Body: "<html></html>"}
}

func TestCrawler_Run_Workers(t *testing.T) {
	t.Parallel()

	t.Run("processes URLs in parallel with multiple workers", func(t *testing.T) {
		t.Parallel()

		var maxConcurrent atomic.Int32
		var current atomic.Int32

		const numPages = 10
		const workers = 3

		c := &crawl.Crawler{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (*sitegraph.Response, error) {
					n := current.Add(1)
					for {
						peak := maxConcurrent.Load()
						if n <= peak || maxConcurrent.CompareAndSwap(peak, n) {
							break
						}
					}
					time.Sleep(50 * time.Millisecond)
					current.Add(-1)
					return htmlDoc(url), nil
				},
			},
			Extractor:   fanOutExtractor(numPages),
			Store:       newStore(t),
			Workers:     workers,
			RetryDelays: []time.Duration{},
		}

		stats, err := c.Run(context.Background(), config("https://example.com"), nil)

		require.NoError(t, err)
		assert.Equal(t, numPages+1, stats.PagesCrawled)
		assert.GreaterOrEqual(t, maxConcurrent.Load(), int32(2),
			"expected concurrent fetches with %d workers, peak was %d", workers, maxConcurrent.Load())
	})

	t.Run("never fetches beyond max pages", func(t *testing.T) {
		t.Parallel()

		var fetchCount atomic.Int32
		c := &crawl.Crawler{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (*sitegraph.Response, error) {
					fetchCount.Add(1)
					return htmlDoc(url), nil
				},
			},
			Extractor:   fanOutExtractor(100),
			Store:       newStore(t),
			Workers:     5,
			RetryDelays: []time.Duration{},
		}
		cfg := config("https://example.com")
		cfg.MaxPages = 10

		stats, err := c.Run(context.Background(), cfg, nil)

		require.NoError(t, err)
		assert.Equal(t, 10, stats.PagesCrawled)
		assert.Equal(t, int32(10), fetchCount.Load())
	})

	t.Run("failed pages do not count toward max pages", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Crawler{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (*sitegraph.Response, error) {
					if url == "https://example.com/page1" {
						return &sitegraph.Response{URL: url, StatusCode: 404}, nil
					}
					return htmlDoc(url), nil
				},
			},
			Extractor:   fanOutExtractor(5),
			Store:       newStore(t),
			RetryDelays: []time.Duration{},
		}
		cfg := config("https://example.com")
		cfg.MaxPages = 3

		stats, err := c.Run(context.Background(), cfg, nil)

		require.NoError(t, err)
		assert.Equal(t, 3, stats.PagesCrawled)
		assert.Equal(t, 1, stats.PagesFailed)
		assert.Equal(t, "HTTP 404", stats.FailedURLs["https://example.com/page1"])
	})

	t.Run("rate limiter failure fails the page", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Crawler{
			Fetcher: &mock.Fetcher{
				FetchFn: func(_ context.Context, url string) (*sitegraph.Response, error) {
					return htmlDoc(url), nil
				},
			},
			Extractor: fanOutExtractor(0),
			Store:     newStore(t),
			RateLimiter: &mock.DomainLimiter{
				WaitFn: func(context.Context, string) error {
					return sitegraph.Errorf(sitegraph.EUNAVAILABLE, "limiter closed")
				},
			},
		}

		stats, err := c.Run(context.Background(), config("https://example.com"), nil)

		require.NoError(t, err)
		assert.Zero(t, stats.PagesCrawled)
		assert.Equal(t, 1, stats.PagesFailed)
	})
}

func TestCrawler_Run_Frontier(t *testing.T) {
	t.Parallel()

	var queue []sitegraph.CrawlItem
	var pushed []string
	failed := map[string]string{}
	frontier := &mock.URLFrontier{
		PushFn: func(item sitegraph.CrawlItem) bool {
			pushed = append(pushed, item.URL)
			queue = append(queue, item)
			return true
		},
		PopFn: func() (sitegraph.CrawlItem, bool) {
			if len(queue) == 0 {
				return sitegraph.CrawlItem{}, false
			}
			item := queue[0]
			queue = queue[1:]
			return item, true
		},
		FailFn:        func(url, reason string) { failed[url] = reason },
		MarkVisitedFn: func(string) bool { return true },
		LenFn:         func() int { return len(queue) },
		SeenFn:        func(string) bool { return false },
	}
	c := &crawl.Crawler{
		Fetcher: &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (*sitegraph.Response, error) {
				if url == "https://example.com/page2" {
					return &sitegraph.Response{URL: url, StatusCode: 410}, nil
				}
				return htmlDoc(url), nil
			},
		},
		Extractor:   fanOutExtractor(2),
		Store:       newStore(t),
		Frontier:    frontier,
		RetryDelays: []time.Duration{},
	}

	stats, err := c.Run(context.Background(), config("https://example.com"), nil)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.PagesCrawled)
	assert.Equal(t, []string{
		"https://example.com/",
		"https://example.com/page1",
		"https://example.com/page2",
	}, pushed)
	assert.Equal(t, map[string]string{"https://example.com/page2": "HTTP 410"}, failed)
}
