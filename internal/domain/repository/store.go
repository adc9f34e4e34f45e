package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Store is the embedded analytical store (C1): a table namespace backed
// by a pool of logically independent read/write handles, dispatched
// round-robin, plus the table-existence check the loaders build on.
type Store interface {
	// Handle returns the next handle in the round-robin pool.
	Handle() *sqlx.DB

	// Exec runs a statement against the next pooled handle.
	Exec(ctx context.Context, query string, args ...interface{}) error

	// Select runs a query against the next pooled handle and scans all
	// rows into dest, which must be a pointer to a slice.
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error

	// Get runs a query expected to return at most one row.
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error

	// TableExists reports whether a table has already been created,
	// the idempotency check the registry and stops loaders rely on.
	TableExists(ctx context.Context, name string) (bool, error)

	Close() error
}
