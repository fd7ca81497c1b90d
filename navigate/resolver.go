package navigate

import (
	"context"

	"github.com/fwojciec/sitegraph"
)

// DefaultHomeID is the start node used when neither the request nor the
// Resolver names one.
const DefaultHomeID = "homepage"

// Resolver turns shortest paths into numbered navigation steps.
type Resolver struct {
	store   sitegraph.GraphStore
	homeID  string
	maxHops int
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithHomeID sets the start node used when a request has none.
func WithHomeID(id string) ResolverOption {
	return func(r *Resolver) {
		r.homeID = id
	}
}

// WithMaxHops bounds path length. Defaults to sitegraph.DefaultMaxHops.
func WithMaxHops(n int) ResolverOption {
	return func(r *Resolver) {
		r.maxHops = n
	}
}

// NewResolver creates a Resolver.
func NewResolver(store sitegraph.GraphStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{store: store, homeID: DefaultHomeID, maxHops: sitegraph.DefaultMaxHops}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HomeID returns the default start node.
func (r *Resolver) HomeID() string {
	return r.homeID
}

// Resolve finds the route from startID, or the home node when empty, to
// endID. A route with Found false is returned when no path exists within
// the hop bound. Missing endpoints return ENOTFOUND.
func (r *Resolver) Resolve(ctx context.Context, startID, endID string) (*sitegraph.Route, error) {
	if startID == "" {
		startID = r.homeID
	}
	if endID == "" {
		return nil, sitegraph.Errorf(sitegraph.EINVALID, "destination required")
	}

	path, err := r.store.FindShortestPath(ctx, startID, endID, r.maxHops)
	if err != nil {
		return nil, err
	}

	route := &sitegraph.Route{Found: path.Found, StartID: startID, EndID: endID}
	if !path.Found {
		return route, nil
	}
	route.Steps = Steps(path.Nodes)
	return route, nil
}

// Steps numbers the nodes of a path and describes what to do at each.
func Steps(nodes []*sitegraph.GraphNode) []sitegraph.Step {
	steps := make([]sitegraph.Step, len(nodes))
	last := len(nodes) - 1
	for i, n := range nodes {
		step := sitegraph.Step{Number: i + 1, NodeID: n.ID, NodeType: n.Kind}
		switch {
		case i == 0:
			step.Action = sitegraph.ActionStart
			step.Description = "Start at: " + n.ID
		case i == last:
			step.Action = sitegraph.ActionDestination
			step.Description = "Destination reached: " + n.ID
		case n.Kind == sitegraph.NodeElement:
			step.Action = sitegraph.ActionClick
			step.Description = "Click on: " + n.Label()
		default:
			step.Action = sitegraph.ActionNavigate
			step.Description = "Navigate to page: " + n.ID
		}
		steps[i] = step
	}
	return steps
}
