package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/fwojciec/sitegraph"
	"github.com/fwojciec/sitegraph/crawl"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	cfg := sitegraph.CrawlConfig{
		Origin:    c.URL,
		MaxPages:  c.MaxPages,
		MaxDepth:  c.MaxDepth,
		Blacklist: c.Blacklist,
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sitegraph.ErrorMessage(err))
		return err
	}

	if deps.Metrics != nil && c.MetricsAddr != "" {
		shutdown, err := serveMetrics(deps, c.MetricsAddr)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}
		defer shutdown()
	}

	// The first interrupt lets in-flight pages finish; the second aborts.
	ctx, cancel := context.WithCancel(deps.Ctx)
	defer cancel()
	interrupts := make(chan os.Signal, 2)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		select {
		case <-interrupts:
			deps.Crawler.Stop()
		case <-ctx.Done():
			return
		}
		select {
		case <-interrupts:
			cancel()
		case <-ctx.Done():
		}
	}()

	progress := func(event crawl.ProgressEvent) {
		switch event.Type {
		case crawl.ProgressSeeded:
			if event.Error != nil {
				fmt.Fprintf(deps.Stderr, "  sitemap: %v\n", event.Error)
			}
			fmt.Fprintf(deps.Stdout, "  Seeded %d URLs from sitemap\n", event.Queued)
		case crawl.ProgressCompleted:
			fmt.Fprintf(deps.Stdout, "  [%d] %s (%d queued)\n", event.Completed, crawl.TruncateURL(event.URL, 80), event.Queued)
			if event.Error != nil {
				fmt.Fprintf(deps.Stderr, "  warn %s: %v\n", event.URL, event.Error)
			}
		case crawl.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  fail %s: %v\n", event.URL, event.Error)
		case crawl.ProgressSkipped:
			fmt.Fprintf(deps.Stderr, "  skip %s: %v\n", event.URL, event.Error)
		}
	}

	stats, err := deps.Crawler.Run(ctx, cfg, progress)
	if stats != nil {
		printCrawlStats(deps, stats)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error crawling: %v\n", err)
		return err
	}
	return nil
}

func printCrawlStats(deps *Dependencies, stats *crawl.Stats) {
	fmt.Fprintf(deps.Stdout, "Crawled %d pages (%d failed, %d skipped) in %s, %s, %s\n",
		stats.PagesCrawled, stats.PagesFailed, stats.PagesSkipped,
		stats.Elapsed.Round(time.Millisecond),
		crawl.FormatBytes(stats.Bytes),
		crawl.FormatRate(stats.PagesCrawled, stats.Elapsed))
	fmt.Fprintf(deps.Stdout, "  %d elements, %d external links, %d similar links\n",
		stats.Elements, stats.ExternalLinks, stats.SimilarLinks)
	if stats.Stopped {
		fmt.Fprintln(deps.Stdout, "  Stopped before the frontier was exhausted")
	}
}

// serveMetrics exposes the crawl metrics at /metrics until the returned
// function is called.
func serveMetrics(deps *Dependencies, addr string) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for metrics on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", deps.Metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(deps.Stderr, "  metrics server: %v\n", err)
		}
	}()
	fmt.Fprintf(deps.Stderr, "  Serving metrics on http://%s/metrics\n", ln.Addr())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
