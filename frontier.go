package sitegraph

import "context"

// CrawlItem is a URL waiting in the crawl frontier.
type CrawlItem struct {
	URL      string
	Depth    int
	Referrer string
}

// URLFrontier manages a breadth-first crawl queue with deduplication.
type URLFrontier interface {
	// Push adds an item to the frontier.
	// Returns false if the URL is already queued, visited, or failed, or
	// if the item exceeds the depth limit.
	Push(item CrawlItem) bool

	// Pop returns the oldest queued item and marks it visited.
	// Returns false if the frontier is empty.
	Pop() (CrawlItem, bool)

	// Fail moves a URL to the failed set with a reason.
	Fail(url, reason string)

	// MarkVisited records a URL as visited and drops it from the queue.
	// Returns false if the URL was already visited.
	MarkVisited(url string) bool

	// Len returns the number of URLs in the queue.
	Len() int

	// Seen returns true if the URL is queued, visited, or failed.
	Seen(url string) bool
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
