// Package service composes the cache manager and the hybrid search engine
// into the cache-aware search façade used by the MCP surface and the CLI.
//
// Locks are never held across backend calls: a miss releases the cache,
// computes, then stores. Two concurrent misses for the same key may both
// compute; last write wins. Cache-side failures (key derivation) degrade
// to an uncached computation and are never visible to callers.
package service
