package prometheus

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/fwojciec/sitegraph"
)

// Ensure Fetcher implements sitegraph.Fetcher.
var _ sitegraph.Fetcher = (*Fetcher)(nil)

// Fetcher wraps a Fetcher with request, latency, and size metrics.
type Fetcher struct {
	next    sitegraph.Fetcher
	metrics *Metrics
}

// NewFetcher creates a new Fetcher.
func NewFetcher(next sitegraph.Fetcher, metrics *Metrics) *Fetcher {
	return &Fetcher{next: next, metrics: metrics}
}

// Fetch delegates to the wrapped fetcher and records the outcome.
// Transport failures are counted with status "error".
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*sitegraph.Response, error) {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}

	begin := time.Now()
	resp, err := f.next.Fetch(ctx, rawURL)
	f.metrics.FetchDuration.WithLabelValues(host).Observe(time.Since(begin).Seconds())

	if err != nil {
		f.metrics.FetchRequests.WithLabelValues(host, "error").Inc()
		return nil, err
	}
	f.metrics.FetchRequests.WithLabelValues(host, statusClass(resp.StatusCode)).Inc()
	f.metrics.FetchBytes.Add(float64(len(resp.Body)))
	return resp, nil
}

// Close delegates to the wrapped fetcher.
func (f *Fetcher) Close() error {
	return f.next.Close()
}

// statusClass buckets a status code as 2xx, 3xx, and so on.
func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}
