package blob

import "context"

// Well known keys of the local store.
const (
	KeyUser = "user"
	KeyCart = "cart"
)

// Repository is a flat key-value store for JSON encoded blobs. Get returns
// domain.ErrNotFound for a missing key; Remove of a missing key is not an
// error.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
