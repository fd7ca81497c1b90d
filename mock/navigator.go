package mock

import (
	"context"

	"github.com/fwojciec/sitegraph"
)

var _ sitegraph.Navigator = (*Navigator)(nil)

// Navigator is a mock implementation of sitegraph.Navigator.
type Navigator struct {
	NavigateFn func(ctx context.Context, req sitegraph.NavigationRequest) (*sitegraph.Navigation, error)
}

func (n *Navigator) Navigate(ctx context.Context, req sitegraph.NavigationRequest) (*sitegraph.Navigation, error) {
	return n.NavigateFn(ctx, req)
}
