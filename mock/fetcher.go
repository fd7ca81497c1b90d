package mock

import (
	"context"

	"github.com/fwojciec/sitegraph"
)

var _ sitegraph.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of sitegraph.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*sitegraph.Response, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*sitegraph.Response, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}
