// Package store provides the durable key-value storage used for
// session-scoped state: the guest cart, the auth token, and the cached
// current user. Backends are swappable behind the Store interface so cart
// logic never touches storage details.
package store

import (
	"context"
	"errors"
)

// Keys used by the storefront client for session-scoped state.
const (
	KeyGuestCart = "guest_cart"
	KeyToken     = "token"
	KeyUser      = "user"
)

// ErrNoValue indicates the key holds nothing.
var ErrNoValue = errors.New("no value stored")

// Store is a durable key-value store. Values are opaque bytes; callers own
// serialization. Load returns ErrNoValue for absent keys. Clear on an
// absent key is a no-op.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Clear(ctx context.Context, key string) error
}
