package crawl

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/fwojciec/sitegraph"
)

// linkSimilar adds SIMILAR_TO edges from every page embedded during the
// crawl to its nearest neighbors scoring at least SimilarityThreshold.
// It returns the number of edges written.
func (c *Crawler) linkSimilar(ctx context.Context, vectors map[string][]float32) (int, error) {
	neighbors := c.SimilarityNeighbors
	if neighbors <= 0 {
		neighbors = DefaultSimilarityNeighbors
	}

	urls := make([]string, 0, len(vectors))
	for u := range vectors {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	linked := 0
	var errs []error
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return linked, err
		}

		// One extra result since the page matches itself.
		matches, err := c.Store.FindSimilarNodes(ctx, vectors[u], neighbors+1)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
			continue
		}

		n := 0
		for _, m := range matches {
			if m.Page.URL == u {
				continue
			}
			if m.Score < c.SimilarityThreshold || n >= neighbors {
				break
			}
			if err := c.Store.UpsertRelationship(ctx, u, m.Page.URL, sitegraph.SimilarTo); err != nil {
				errs = append(errs, fmt.Errorf("%s -> %s: %w", u, m.Page.URL, err))
				continue
			}
			n++
		}
		linked += n
	}
	return linked, errors.Join(errs...)
}
