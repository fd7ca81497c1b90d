package crawl

import (
	"context"

	"github.com/fwojciec/sitegraph"
	"golang.org/x/sync/errgroup"
)

// walkProcessor processes a URL and returns a pageResult.
type walkProcessor func(ctx context.Context, item sitegraph.CrawlItem) pageResult

// walkResultHandler handles a completed pageResult on the coordinator
// goroutine. It returns true when the result counts toward the page limit.
type walkResultHandler func(result *pageResult) bool

// walkFrontier drains the frontier through a bounded worker pool.
//
// The coordinator goroutine owns dispatch and result handling, so the
// handler needs no locking. It never has more URLs in flight than would let
// successful pages exceed maxPages, and it stops dispatching once Stop is
// called. Results of in-flight URLs are always handled before returning.
func (c *Crawler) walkFrontier(
	ctx context.Context,
	frontier sitegraph.URLFrontier,
	maxPages int,
	processURL walkProcessor,
	handleResult walkResultHandler,
) error {
	workers := c.Workers
	if workers <= 0 {
		workers = 1
	}

	workCh := make(chan sitegraph.CrawlItem)
	resultCh := make(chan pageResult)

	g, gctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			for item := range workCh {
				result := processURL(gctx, item)
				select {
				case resultCh <- result:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	// Close result channel when all workers are done
	go func() {
		_ = g.Wait()
		close(resultCh)
	}()

	succeeded := 0
	pending := 0
	var next *sitegraph.CrawlItem

	canDispatch := func() bool {
		return !c.stopped.Load() && succeeded+pending < maxPages
	}

coordinatorLoop:
	for {
		if next == nil && canDispatch() {
			if item, ok := frontier.Pop(); ok {
				next = &item
			}
		}

		if pending == 0 && (next == nil || !canDispatch()) {
			break coordinatorLoop
		}
		if ctx.Err() != nil {
			break coordinatorLoop
		}

		// A nil channel disables the dispatch case.
		var dispatchCh chan<- sitegraph.CrawlItem
		var item sitegraph.CrawlItem
		if next != nil && canDispatch() {
			dispatchCh = workCh
			item = *next
		}

		select {
		case <-ctx.Done():
			break coordinatorLoop
		case dispatchCh <- item:
			pending++
			next = nil
		case result := <-resultCh:
			pending--
			if handleResult(&result) {
				succeeded++
			}
		}
	}

	// Signal workers to stop and handle results still in flight.
	close(workCh)
	for result := range resultCh {
		handleResult(&result)
	}

	return ctx.Err()
}
