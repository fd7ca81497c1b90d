package navigate

import (
	"context"
	"fmt"

	"github.com/fwojciec/sitegraph"
)

// DefaultMatchLimit is the number of candidates ranked per request. The
// first is the destination and the rest are reported as alternates.
const DefaultMatchLimit = 3

// Ensure Navigator implements sitegraph.Navigator at compile time.
var _ sitegraph.Navigator = (*Navigator)(nil)

// Navigator matches a query to a destination and resolves the route to it.
type Navigator struct {
	Matcher  *Matcher
	Resolver *Resolver

	// Limit is the number of candidates ranked. Defaults to DefaultMatchLimit.
	Limit int
}

// NewNavigator creates a Navigator.
func NewNavigator(matcher *Matcher, resolver *Resolver) *Navigator {
	return &Navigator{Matcher: matcher, Resolver: resolver, Limit: DefaultMatchLimit}
}

// Navigate answers req. Failing to find a destination, a start node, or a
// path is reported with StatusError rather than an error.
func (n *Navigator) Navigate(ctx context.Context, req sitegraph.NavigationRequest) (*sitegraph.Navigation, error) {
	limit := n.Limit
	if limit <= 0 {
		limit = DefaultMatchLimit
	}

	matches, err := n.Matcher.Match(ctx, req.Query, req.Keywords, limit)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return failure("No matching destinations found", nil, nil), nil
	}

	best := matches[0]
	alternates := matches[1:]

	route, err := n.Resolver.Resolve(ctx, req.StartID, best.NodeID)
	if sitegraph.ErrorCode(err) == sitegraph.ENOTFOUND {
		return failure(sitegraph.ErrorMessage(err), &best, alternates), nil
	}
	if err != nil {
		return nil, err
	}
	if !route.Found {
		msg := fmt.Sprintf("No navigation path found from %s to %s", route.StartID, route.EndID)
		return failure(msg, &best, alternates), nil
	}

	return &sitegraph.Navigation{
		Status:     sitegraph.StatusSuccess,
		Path:       route.Steps,
		BestMatch:  &best,
		Alternates: alternates,
	}, nil
}

func failure(msg string, best *sitegraph.Match, alternates []sitegraph.Match) *sitegraph.Navigation {
	if alternates == nil {
		alternates = []sitegraph.Match{}
	}
	return &sitegraph.Navigation{
		Status:     sitegraph.StatusError,
		Message:    msg,
		Path:       []sitegraph.Step{},
		BestMatch:  best,
		Alternates: alternates,
	}
}
