package mock

import (
	"context"

	"github.com/fwojciec/sitegraph"
)

var _ sitegraph.URLFrontier = (*URLFrontier)(nil)

// URLFrontier is a mock implementation of sitegraph.URLFrontier.
type URLFrontier struct {
	PushFn        func(item sitegraph.CrawlItem) bool
	PopFn         func() (sitegraph.CrawlItem, bool)
	FailFn        func(url, reason string)
	MarkVisitedFn func(url string) bool
	LenFn         func() int
	SeenFn        func(url string) bool
}

func (f *URLFrontier) Push(item sitegraph.CrawlItem) bool {
	return f.PushFn(item)
}

func (f *URLFrontier) Pop() (sitegraph.CrawlItem, bool) {
	return f.PopFn()
}

func (f *URLFrontier) Fail(url, reason string) {
	f.FailFn(url, reason)
}

func (f *URLFrontier) MarkVisited(url string) bool {
	return f.MarkVisitedFn(url)
}

func (f *URLFrontier) Len() int {
	return f.LenFn()
}

func (f *URLFrontier) Seen(url string) bool {
	return f.SeenFn(url)
}

var _ sitegraph.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of sitegraph.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
