package domain

import "context"

// Database is a storage medium holding the key-value Store. Implementations
// own their schema and migrations.
type Database interface {
	Migrate(ctx context.Context) error
	Store() Store
	Close() error
}
