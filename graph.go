package sitegraph

import "context"

// DefaultMaxHops bounds shortest-path searches when the caller has no preference.
const DefaultMaxHops = 10

// GraphStore persists the crawl graph and answers similarity and
// shortest-path queries against it.
//
// Every mutation is an upsert: calling it twice with the same input leaves
// the graph unchanged. Implementations must be safe for concurrent use.
type GraphStore interface {
	// UpsertPage creates the page if absent, else updates its mutable
	// fields in place. It returns the canonical URL.
	UpsertPage(ctx context.Context, page *Page) (string, error)

	// UpsertRelationship creates the relationship if absent. Targets of
	// LinksTo, NavigatesTo, and SimilarTo that do not exist yet are created
	// as stub pages; the target of LinksToExternal is created as an
	// ExternalLink and its reference count incremented once per source.
	UpsertRelationship(ctx context.Context, fromID, toID string, rel RelationType) error

	// UpsertElement creates or updates the element and its HasElement edge
	// from the owning page.
	UpsertElement(ctx context.Context, pageURL string, element *Element) error

	// FindNode returns the node with the given ID.
	// Returns ENOTFOUND if no such node exists.
	FindNode(ctx context.Context, id string) (*GraphNode, error)

	// FindSimilarNodes returns up to limit pages ranked by descending cosine
	// similarity to vec. Pages without a vector are excluded. A zero-magnitude
	// vector returns EINVALID.
	FindSimilarNodes(ctx context.Context, vec []float32, limit int) ([]*ScoredPage, error)

	// FindShortestPath returns the shortest path from startID to endID over
	// all relationship types, traversed as undirected, within maxHops.
	// A missing endpoint returns ENOTFOUND; no path within the bound returns
	// a result with Found set to false.
	FindShortestPath(ctx context.Context, startID, endID string, maxHops int) (*PathResult, error)

	// Stats returns node and relationship counts.
	Stats(ctx context.Context) (*GraphStats, error)
}

// ScoredPage is a page with its similarity to a query vector.
type ScoredPage struct {
	Page  *Page
	Score float64
}

// PathEdge is one stored relationship traversed by a path. From and To
// follow the stored direction, which may oppose the traversal direction.
type PathEdge struct {
	From string
	To   string
	Type RelationType
}

// PathResult is the outcome of a shortest-path query.
type PathResult struct {
	Found bool

	StartID string
	EndID   string

	// Nodes are in traversal order from StartID to EndID.
	Nodes []*GraphNode

	// Edges[i] connects Nodes[i] and Nodes[i+1].
	Edges []PathEdge
}

// Hops returns the number of relationships on the path.
func (r *PathResult) Hops() int {
	return len(r.Edges)
}

// GraphStats holds node and relationship counts.
type GraphStats struct {
	Pages         int
	CrawledPages  int
	Elements      int
	ExternalLinks int
	Relationships map[RelationType]int
}
