package scan

import (
	"context"
	"fmt"
	"strings"

	"cartify/internal/domain"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned when no product matches a scanned code.
var ErrNotFound = domain.ErrNotFound

type productLookup interface {
	GetProduct(ctx context.Context, code string) (domain.Product, error)
}

// Resolver turns scanned codes into products. It never touches the cart.
type Resolver struct {
	lookup productLookup
	group  singleflight.Group
}

func NewResolver(lookup productLookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve looks code up remotely. Concurrent calls for the same code share
// one request.
func (r *Resolver) Resolve(ctx context.Context, code string) (domain.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Product{}, fmt.Errorf("%w: empty barcode", domain.ErrValidation)
	}

	ch := r.group.DoChan(code, func() (any, error) {
		return r.lookup.GetProduct(context.WithoutCancel(ctx), code)
	})
	select {
	case <-ctx.Done():
		return domain.Product{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Product{}, fmt.Errorf("resolve %q: %w", code, res.Err)
		}
		return res.Val.(domain.Product), nil
	}
}
