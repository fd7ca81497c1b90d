package crawl

import (
	"maps"
	"sync"

	"github.com/fwojciec/sitegraph"
	"github.com/fwojciec/sitegraph/bloom"
)

// Compile-time interface verification.
var _ sitegraph.URLFrontier = (*Frontier)(nil)

// Frontier is an in-memory breadth-first URL frontier.
//
// A Bloom filter answers most "never seen" checks; the exact queued,
// visited, and failed sets confirm positives so a false positive never
// drops a URL. Frontier is safe for concurrent use by multiple goroutines.
type Frontier struct {
	mu       sync.Mutex
	maxDepth int
	seen     *bloom.Filter
	queue    []sitegraph.CrawlItem
	head     int
	queued   map[string]struct{}
	visited  map[string]struct{}
	failed   map[string]string
}

// NewFrontier creates a Frontier that drops items deeper than maxDepth.
// A negative maxDepth disables the depth limit. The Bloom filter is sized
// for n expected URLs with the given false positive rate.
func NewFrontier(maxDepth int, n uint, fpRate float64) *Frontier {
	return &Frontier{
		maxDepth: maxDepth,
		seen:     bloom.NewFilter(n, fpRate),
		queued:   make(map[string]struct{}),
		visited:  make(map[string]struct{}),
		failed:   make(map[string]string),
	}
}

// Push adds an item to the back of the queue.
// Returns false if the URL is known or the item is deeper than the limit.
func (f *Frontier) Push(item sitegraph.CrawlItem) bool {
	if item.URL == "" {
		return false
	}
	if f.maxDepth >= 0 && item.Depth > f.maxDepth {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.known(item.URL) {
		return false
	}
	f.seen.Add(item.URL)
	f.queued[item.URL] = struct{}{}
	f.queue = append(f.queue, item)
	return true
}

// Pop removes the oldest queued item and marks it visited. Items visited
// since they were pushed are dropped. The bool result is false if the
// frontier is empty.
func (f *Frontier) Pop() (sitegraph.CrawlItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for f.head < len(f.queue) {
		item := f.queue[f.head]
		f.queue[f.head] = sitegraph.CrawlItem{}
		f.head++

		// Reclaim the consumed prefix once it dominates the slice.
		if f.head > 64 && f.head*2 > len(f.queue) {
			f.queue = append([]sitegraph.CrawlItem(nil), f.queue[f.head:]...)
			f.head = 0
		}

		if _, ok := f.queued[item.URL]; !ok {
			continue
		}
		delete(f.queued, item.URL)
		f.visited[item.URL] = struct{}{}
		return item, true
	}
	return sitegraph.CrawlItem{}, false
}

// Fail moves url to the failed set. It will never be queued again.
func (f *Frontier) Fail(url, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seen.Add(url)
	delete(f.visited, url)
	f.failed[url] = reason
}

// MarkVisited records url as visited, e.g. the final URL of a redirect,
// and removes it from the queue. It returns false if url was already
// visited.
func (f *Frontier) MarkVisited(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[url]; ok {
		return false
	}
	f.seen.Add(url)
	delete(f.queued, url)
	f.visited[url] = struct{}{}
	return true
}

// Len returns the number of URLs in the queue.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queued)
}

// Seen returns true if the URL is queued, visited, or failed.
func (f *Frontier) Seen(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.known(url)
}

// Visited returns the number of visited URLs.
func (f *Frontier) Visited() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// Failed returns a copy of the failed set, mapping URL to reason.
func (f *Frontier) Failed() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return maps.Clone(f.failed)
}

// known must be called with mu held.
func (f *Frontier) known(url string) bool {
	if !f.seen.MayContain(url) {
		return false
	}
	if _, ok := f.queued[url]; ok {
		return true
	}
	if _, ok := f.visited[url]; ok {
		return true
	}
	_, ok := f.failed[url]
	return ok
}
