package ports

import "context"

// Storage is the origin-scoped persistent key/value store the session lives in.
// GetItem reports ok=false when the key is absent.
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}
