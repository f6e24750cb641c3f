// Package history keeps small bounded, de-duplicated lists (most notably the
// command history) in a byte-oriented store.
package history

import (
	"encoding/json"
	"log/slog"
	"reflect"
	"sync"

	"github.com/asheshgoplani/tfdeck/internal/logging"
)

var histLog = logging.ForComponent(logging.CompHistory)

// MaxEntries bounds every list kept by a Cache.
const MaxEntries = 10

// Store is the persistence a Cache needs. *statedb.StateDB implements it.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// Updater is implemented by stores that can rewrite one key atomically.
// Extend uses it when available so writers in other processes sharing the
// store cannot drop each other's entries.
type Updater interface {
	Update(key string, fn func(old []byte, ok bool) ([]byte, error)) error
}

// writeMu serializes read-modify-write cycles within the process. It is
// package level because several Caches may wrap the same store.
var writeMu sync.Mutex

// Option configures a Cache.
type Option[T any] func(*Cache[T])

// WithEqual replaces the equality used by Extend to drop duplicates.
func WithEqual[T any](eq func(a, b T) bool) Option[T] {
	return func(c *Cache[T]) { c.equal = eq }
}

// WithLimit overrides MaxEntries.
func WithLimit[T any](n int) Option[T] {
	return func(c *Cache[T]) {
		if n > 0 {
			c.limit = n
		}
	}
}

// Cache stores JSON-encoded lists of T. Storage failures never reach the
// caller: reads fall back to the given default and writes are dropped.
type Cache[T any] struct {
	store Store
	equal func(a, b T) bool
	limit int
}

// New returns a Cache backed by store.
func New[T any](store Store, opts ...Option[T]) *Cache[T] {
	c := &Cache[T]{
		store: store,
		equal: func(a, b T) bool { return reflect.DeepEqual(a, b) },
		limit: MaxEntries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the list under key, or def when the key is missing or cannot
// be read.
func (c *Cache[T]) Get(key string, def []T) []T {
	raw, ok, err := c.store.Get(key)
	if err != nil {
		histLog.Debug("history_get_failed", slog.String("key", key), slog.String("error", err.Error()))
		return def
	}
	if !ok {
		return def
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		histLog.Debug("history_decode_failed", slog.String("key", key), slog.String("error", err.Error()))
		return def
	}
	return out
}

// Set replaces the list under key.
func (c *Cache[T]) Set(key string, values []T) {
	writeMu.Lock()
	defer writeMu.Unlock()
	c.set(key, values)
}

func (c *Cache[T]) set(key string, values []T) {
	if values == nil {
		values = []T{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		histLog.Debug("history_encode_failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if err := c.store.Set(key, raw); err != nil {
		histLog.Debug("history_set_failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Extend moves v to the end of the list under key, removing any equal
// entries, and evicts the oldest entries beyond the limit.
func (c *Cache[T]) Extend(key string, v T) {
	writeMu.Lock()
	defer writeMu.Unlock()

	u, ok := c.store.(Updater)
	if !ok {
		c.set(key, c.extended(c.Get(key, nil), v))
		return
	}
	err := u.Update(key, func(old []byte, found bool) ([]byte, error) {
		var current []T
		if found {
			if err := json.Unmarshal(old, &current); err != nil {
				histLog.Debug("history_decode_failed", slog.String("key", key), slog.String("error", err.Error()))
				current = nil
			}
		}
		return json.Marshal(c.extended(current, v))
	})
	if err != nil {
		histLog.Debug("history_update_failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (c *Cache[T]) extended(current []T, v T) []T {
	next := make([]T, 0, len(current)+1)
	for _, item := range current {
		if !c.equal(item, v) {
			next = append(next, item)
		}
	}
	next = append(next, v)
	if over := len(next) - c.limit; over > 0 {
		next = next[over:]
	}
	return next
}
