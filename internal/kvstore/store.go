// Package kvstore provides the durable key-value store the repositories
// persist into: a SQLite-backed implementation for real use, an in-memory
// one for tests and as a transparent fallback when the durable medium is
// unavailable.
package kvstore

import "context"

// Store is a byte-oriented key-value store. A missing key is not an error:
// Read reports absence through its second result, and absence means
// "uninitialized" to the repositories.
type Store interface {
	Read(ctx context.Context, key string) (value []byte, ok bool, err error)
	Write(ctx context.Context, key string, value []byte) error
	Close() error
}

// DefaultNamespace prefixes the store keys of all collections.
const DefaultNamespace = "fintrack"

// Keys builds the per-collection store keys for a namespace. Repositories
// accept an explicit key, so tests can isolate themselves by namespace.
type Keys struct {
	Namespace string
}

func (k Keys) ns() string {
	if k.Namespace == "" {
		return DefaultNamespace
	}
	return k.Namespace
}

func (k Keys) Accounts() string     { return k.ns() + ".accounts" }
func (k Keys) Categories() string   { return k.ns() + ".categories" }
func (k Keys) Budgets() string      { return k.ns() + ".budgets" }
func (k Keys) Goals() string        { return k.ns() + ".goals" }
func (k Keys) Cuotas() string       { return k.ns() + ".cuotas" }
func (k Keys) Transactions() string { return k.ns() + ".transactions" }
func (k Keys) Positions() string    { return k.ns() + ".investments.positions" }
func (k Keys) Snapshots() string    { return k.ns() + ".investments.snapshots" }
func (k Keys) Refs() string         { return k.ns() + ".investments.refs" }
