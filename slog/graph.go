package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitegraph"
)

// Ensure LoggingGraphStore implements sitegraph.GraphStore.
var _ sitegraph.GraphStore = (*LoggingGraphStore)(nil)

// LoggingGraphStore wraps a GraphStore with logging. Writes log at debug
// level; queries log at info level.
type LoggingGraphStore struct {
	next   sitegraph.GraphStore
	logger *slog.Logger
}

// NewLoggingGraphStore creates a new LoggingGraphStore.
func NewLoggingGraphStore(next sitegraph.GraphStore, logger *slog.Logger) *LoggingGraphStore {
	return &LoggingGraphStore{next: next, logger: logger}
}

func (s *LoggingGraphStore) UpsertPage(ctx context.Context, page *sitegraph.Page) (id string, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("upsert page",
			"url", page.URL,
			"has_vector", page.Embedding != nil,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.UpsertPage(ctx, page)
}

func (s *LoggingGraphStore) UpsertRelationship(ctx context.Context, fromID, toID string, rel sitegraph.RelationType) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("upsert relationship",
			"type", rel.String(),
			"from", fromID,
			"to", toID,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.UpsertRelationship(ctx, fromID, toID, rel)
}

func (s *LoggingGraphStore) UpsertElement(ctx context.Context, pageURL string, element *sitegraph.Element) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("upsert element",
			"page", pageURL,
			"id", element.ID,
			"type", string(element.Type),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.UpsertElement(ctx, pageURL, element)
}

func (s *LoggingGraphStore) FindNode(ctx context.Context, id string) (node *sitegraph.GraphNode, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find node",
			"id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindNode(ctx, id)
}

func (s *LoggingGraphStore) FindSimilarNodes(ctx context.Context, vec []float32, limit int) (pages []*sitegraph.ScoredPage, err error) {
	defer func(begin time.Time) {
		attrs := []any{"dims", len(vec), "limit", limit, "count", len(pages)}
		if len(pages) > 0 {
			attrs = append(attrs, "top", pages[0].Page.URL, "score", pages[0].Score)
		}
		attrs = append(attrs, "duration", time.Since(begin), "err", err)
		s.logger.Info("find similar nodes", attrs...)
	}(time.Now())
	return s.next.FindSimilarNodes(ctx, vec, limit)
}

func (s *LoggingGraphStore) FindShortestPath(ctx context.Context, startID, endID string, maxHops int) (res *sitegraph.PathResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{"start", startID, "end", endID, "max_hops", maxHops}
		if res != nil {
			attrs = append(attrs, "found", res.Found, "hops", res.Hops())
		}
		attrs = append(attrs, "duration", time.Since(begin), "err", err)
		s.logger.Info("find shortest path", attrs...)
	}(time.Now())
	return s.next.FindShortestPath(ctx, startID, endID, maxHops)
}

func (s *LoggingGraphStore) Stats(ctx context.Context) (*sitegraph.GraphStats, error) {
	return s.next.Stats(ctx)
}
