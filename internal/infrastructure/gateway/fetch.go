package gateway

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/distribuidoracarol/panel/internal/core/domain"
	"github.com/distribuidoracarol/panel/internal/core/ports"
)

const maxParallelFetches = 4

// FetchAll issues independent GETs concurrently and returns once every one
// has settled. Results are in the order of paths regardless of completion
// order.
func FetchAll(ctx context.Context, gw ports.Gateway, paths ...string) []domain.Response {
	out := make([]domain.Response, len(paths))

	var g errgroup.Group
	g.SetLimit(maxParallelFetches)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			out[i] = gw.Request(ctx, p, ports.RequestOptions{})
			return nil
		})
	}
	_ = g.Wait()

	return out
}
