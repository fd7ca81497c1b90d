// Package navigate answers free-text navigation queries against the site
// graph: it ranks pages by semantic similarity and turns the shortest path
// to the best match into numbered steps.
package navigate

import (
	"context"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/sitegraph"
	"github.com/fwojciec/sitegraph/embedding"
)

// DefaultPreviewLength caps match previews built from page text.
const DefaultPreviewLength = 200

// Matcher ranks graph pages against a free-text query.
type Matcher struct {
	embedder sitegraph.Embedder
	store    sitegraph.GraphStore
	cache    *embedding.Cache
}

// NewMatcher creates a Matcher. A nil cache disables query vector reuse.
func NewMatcher(embedder sitegraph.Embedder, store sitegraph.GraphStore, cache *embedding.Cache) *Matcher {
	return &Matcher{embedder: embedder, store: store, cache: cache}
}

// Match embeds the query and keywords and returns up to limit pages by
// descending similarity. An empty result means nothing could be matched,
// including when the query could not be embedded.
func (m *Matcher) Match(ctx context.Context, query string, keywords []string, limit int) ([]sitegraph.Match, error) {
	text := QueryText(query, keywords)
	if text == "" {
		return nil, sitegraph.Errorf(sitegraph.EINVALID, "query required")
	}
	if limit <= 0 {
		return nil, sitegraph.Errorf(sitegraph.EINVALID, "limit must be positive, got %d", limit)
	}

	vec, err := m.queryVector(ctx, text)
	if err != nil {
		return nil, err
	}
	if sitegraph.Magnitude(vec) == 0 {
		return []sitegraph.Match{}, nil
	}

	scored, err := m.store.FindSimilarNodes(ctx, vec, limit)
	if err != nil {
		return nil, err
	}

	matches := make([]sitegraph.Match, 0, len(scored))
	for _, s := range scored {
		matches = append(matches, sitegraph.Match{
			NodeID:  s.Page.URL,
			Title:   s.Page.Title,
			Score:   s.Score,
			Preview: Preview(s.Page, DefaultPreviewLength),
		})
	}
	return matches, nil
}

// queryVector embeds text, reusing a vector cached for identical text.
func (m *Matcher) queryVector(ctx context.Context, text string) ([]float32, error) {
	hash := fmt.Sprintf("%016x", xxhash.Sum64String(text))
	key := "query:" + hash

	if m.cache != nil {
		if vec, ok := m.cache.Get(key, hash); ok {
			return vec, nil
		}
	}
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if m.cache != nil {
		m.cache.Put(key, hash, vec)
	}
	return vec, nil
}

// QueryText joins the query with its keywords.
func QueryText(query string, keywords []string) string {
	parts := []string{strings.TrimSpace(query)}
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			parts = append(parts, k)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Preview returns the page description, or the first n runes of its text.
func Preview(page *sitegraph.Page, n int) string {
	if page.Description != "" {
		return page.Description
	}
	runes := []rune(page.Text)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}
