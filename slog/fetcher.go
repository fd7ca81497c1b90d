package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitegraph"
)

// Ensure LoggingFetcher implements sitegraph.Fetcher.
var _ sitegraph.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging.
type LoggingFetcher struct {
	next   sitegraph.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next sitegraph.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs status, size, and latency.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (resp *sitegraph.Response, err error) {
	defer func(begin time.Time) {
		attrs := []any{"url", url}
		if resp != nil {
			attrs = append(attrs,
				"status", resp.StatusCode,
				"bytes", len(resp.Body),
			)
			if resp.URL != url {
				attrs = append(attrs, "final_url", resp.URL)
			}
		}
		attrs = append(attrs, "duration", time.Since(begin), "err", err)
		f.logger.Info("fetch", attrs...)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
