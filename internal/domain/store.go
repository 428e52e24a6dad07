package domain

import "context"

// Storage keys. Each state machine owns a disjoint subset and never reads
// the others.
const (
	KeyUsers           = "users"
	KeyCurrentUser     = "currentUser"
	KeyIsAuthenticated = "isAuthenticated"
	KeyRememberedEmail = "rememberedEmail"
	KeyContacts        = "contacts"
)

// Mutation is a single key write within Store.Apply. A nil Value removes the key.
type Mutation struct {
	Key   string
	Value []byte
}

// Store is the durable key/value medium the state machines mirror into.
// Values are opaque bytes; callers encode JSON.
type Store interface {
	// Get returns ErrNotFound when the key has never been written or was removed.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Remove is a no-op for missing keys.
	Remove(ctx context.Context, key string) error
	// Apply writes all mutations or none of them.
	Apply(ctx context.Context, mutations ...Mutation) error
	// Keys lists every stored key in lexical order.
	Keys(ctx context.Context) ([]string, error)
}
