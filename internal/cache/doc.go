// Package cache implements the bounded in-memory caches behind the search
// service: a generic LRU store with per-entry TTL, and a Manager that owns
// the three namespaces (query results, semantic results, knowledge content)
// with deterministic key derivation.
//
// # Bounded cache
//
//	c, err := cache.New[string, int](200)
//	c.Put("a", 1, time.Hour)
//	v, ok := c.Get("a")
//
// Capacity is a hard invariant: inserting a new key at capacity evicts
// exactly one entry, the least-recently-used. Entries past their TTL are
// removed on the next Get and counted as misses. Get promotes; Put of an
// existing key replaces and promotes without eviction.
//
// # Key derivation
//
// Keys are sha256 digests of a type-tagged, order-preserving serialization:
//
//	key, _ := cache.DeriveKey(cache.NamespaceQuery, "manning equation", types.ModeHybrid, 5)
//
// Equal argument tuples always derive equal keys; tuple order matters.
// Unsupported argument types fail with a *types.CacheError, which callers
// treat as "bypass the cache for this call".
//
// # Concurrency
//
// Every cache owns one mutex scoped to map mutation only. Nothing in this
// package performs I/O while holding a lock, so two concurrent misses for
// the same key may both compute and both write; last write wins. There is
// deliberately no single-flight guarantee.
package cache
