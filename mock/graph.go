package mock

import (
	"context"

	"github.com/fwojciec/sitegraph"
)

var _ sitegraph.GraphStore = (*GraphStore)(nil)

// GraphStore is a mock implementation of sitegraph.GraphStore.
type GraphStore struct {
	UpsertPageFn         func(ctx context.Context, page *sitegraph.Page) (string, error)
	UpsertRelationshipFn func(ctx context.Context, fromID, toID string, rel sitegraph.RelationType) error
	UpsertElementFn      func(ctx context.Context, pageURL string, element *sitegraph.Element) error
	FindNodeFn           func(ctx context.Context, id string) (*sitegraph.GraphNode, error)
	FindSimilarNodesFn   func(ctx context.Context, vec []float32, limit int) ([]*sitegraph.ScoredPage, error)
	FindShortestPathFn   func(ctx context.Context, startID, endID string, maxHops int) (*sitegraph.PathResult, error)
	StatsFn              func(ctx context.Context) (*sitegraph.GraphStats, error)
}

func (s *GraphStore) UpsertPage(ctx context.Context, page *sitegraph.Page) (string, error) {
	return s.UpsertPageFn(ctx, page)
}

func (s *GraphStore) UpsertRelationship(ctx context.Context, fromID, toID string, rel sitegraph.RelationType) error {
	return s.UpsertRelationshipFn(ctx, fromID, toID, rel)
}

func (s *GraphStore) UpsertElement(ctx context.Context, pageURL string, element *sitegraph.Element) error {
	return s.UpsertElementFn(ctx, pageURL, element)
}

func (s *GraphStore) FindNode(ctx context.Context, id string) (*sitegraph.GraphNode, error) {
	return s.FindNodeFn(ctx, id)
}

func (s *GraphStore) FindSimilarNodes(ctx context.Context, vec []float32, limit int) ([]*sitegraph.ScoredPage, error) {
	return s.FindSimilarNodesFn(ctx, vec, limit)
}

func (s *GraphStore) FindShortestPath(ctx context.Context, startID, endID string, maxHops int) (*sitegraph.PathResult, error) {
	return s.FindShortestPathFn(ctx, startID, endID, maxHops)
}

func (s *GraphStore) Stats(ctx context.Context) (*sitegraph.GraphStats, error) {
	return s.StatsFn(ctx)
}
