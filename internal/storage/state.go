// Package storage implements the versioned repositories: one per entity
// collection, each owning a single store key holding
// {"version": <int>, "items": [...]}. Repositories validate input on write,
// migrate older on-store schemas forward on read, and never hand out
// references into their own state: every boundary crossing goes through
// serialization, so callers always hold private copies.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/kvstore"
)

// migrateFunc upgrades the raw items array of one schema version to the
// next. Registered per fromVersion and applied in a loop until the current
// version is reached.
type migrateFunc func(items json.RawMessage) (json.RawMessage, error)

// state is the on-store shape of one collection.
type state[T any] struct {
	Version int `json:"version"`
	Items   []T `json:"items"`
}

// rawState defers item decoding so older schemas can be migrated first.
type rawState struct {
	Version int             `json:"version"`
	Items   json.RawMessage `json:"items"`
}

// collection is the generic persistence core shared by all repositories.
type collection[T any] struct {
	store      kvstore.Store
	key        string
	version    int
	defaults   func() []T
	migrations map[int]migrateFunc
	idOf       func(T) string
	now        func() time.Time
}

func newCollection[T any](store kvstore.Store, key string, version int, defaults func() []T, idOf func(T) string) *collection[T] {
	if defaults == nil {
		defaults = func() []T { return []T{} }
	}
	return &collection[T]{
		store:    store,
		key:      key,
		version:  version,
		defaults: defaults,
		idOf:     idOf,
		now:      time.Now,
	}
}

func (c *collection[T]) timestamp() string {
	return c.now().UTC().Format(time.RFC3339)
}

// readState loads the collection, synthesizing the default state when the
// key is absent and silently resetting on corrupt or unrecognized content.
// Known older versions are migrated forward and persisted before return.
func (c *collection[T]) readState(ctx context.Context) (state[T], error) {
	raw, found, err := c.store.Read(ctx, c.key)
	if err != nil {
		return state[T]{}, fmt.Errorf("read %s: %w", c.key, err)
	}
	if !found {
		return c.reset(ctx)
	}

	var rs rawState
	if err := json.Unmarshal(raw, &rs); err != nil || rs.Items == nil {
		slog.WarnContext(ctx, "Discarding unreadable collection state", "key", c.key)
		return c.reset(ctx)
	}
	if rs.Version < 1 || rs.Version > c.version {
		slog.WarnContext(ctx, "Discarding collection state with unknown version",
			"key", c.key, "version", rs.Version)
		return c.reset(ctx)
	}

	items := rs.Items
	migrated := false
	for v := rs.Version; v < c.version; v++ {
		fn, ok := c.migrations[v]
		if !ok {
			slog.WarnContext(ctx, "No migration registered, resetting collection",
				"key", c.key, "from_version", v)
			return c.reset(ctx)
		}
		items, err = fn(items)
		if err != nil {
			slog.WarnContext(ctx, "Migration failed, resetting collection",
				"key", c.key, "from_version", v, "error", err)
			return c.reset(ctx)
		}
		migrated = true
	}

	var decoded []T
	if err := json.Unmarshal(items, &decoded); err != nil {
		slog.WarnContext(ctx, "Discarding collection items that do not match the schema",
			"key", c.key, "error", err)
		return c.reset(ctx)
	}
	if decoded == nil {
		decoded = []T{}
	}

	st := state[T]{Version: c.version, Items: decoded}
	if migrated {
		if err := c.writeState(ctx, st.Items); err != nil {
			return state[T]{}, err
		}
		slog.InfoContext(ctx, "Migrated collection state",
			"key", c.key, "from_version", rs.Version, "to_version", c.version)
	}
	return st, nil
}

func (c *collection[T]) reset(ctx context.Context) (state[T], error) {
	st := state[T]{Version: c.version, Items: c.defaults()}
	if err := c.writeState(ctx, st.Items); err != nil {
		return state[T]{}, err
	}
	return st, nil
}

// writeState persists the collection at the current version.
func (c *collection[T]) writeState(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(state[T]{Version: c.version, Items: items})
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.store.Write(ctx, c.key, raw); err != nil {
		return fmt.Errorf("persist %s: %w", c.key, err)
	}
	return nil
}

func (c *collection[T]) list(ctx context.Context) ([]T, error) {
	st, err := c.readState(ctx)
	if err != nil {
		return nil, err
	}
	return st.Items, nil
}

// getByID returns a copy of the record, or nil when the id is unknown.
func (c *collection[T]) getByID(ctx context.Context, id string) (*T, error) {
	st, err := c.readState(ctx)
	if err != nil {
		return nil, err
	}
	if i := c.indexOf(st.Items, id); i >= 0 {
		item := st.Items[i]
		return &item, nil
	}
	return nil, nil
}

// insert appends an already-validated record and persists.
func (c *collection[T]) insert(ctx context.Context, item T) error {
	st, err := c.readState(ctx)
	if err != nil {
		return err
	}
	return c.writeState(ctx, append(st.Items, item))
}

// remove deletes the record when present and not protected. The first result
// reports whether a record was removed.
func (c *collection[T]) remove(ctx context.Context, id string, protected func(T) bool) (bool, error) {
	st, err := c.readState(ctx)
	if err != nil {
		return false, err
	}
	i := c.indexOf(st.Items, id)
	if i < 0 {
		return false, nil
	}
	if protected != nil && protected(st.Items[i]) {
		return false, nil
	}
	items := append(st.Items[:i], st.Items[i+1:]...)
	if err := c.writeState(ctx, items); err != nil {
		return false, err
	}
	return true, nil
}

// clearAll resets the collection to its default initial state.
func (c *collection[T]) clearAll(ctx context.Context) error {
	return c.writeState(ctx, c.defaults())
}

func (c *collection[T]) indexOf(items []T, id string) int {
	if id == "" {
		return -1
	}
	for i, item := range items {
		if c.idOf(item) == id {
			return i
		}
	}
	return -1
}
