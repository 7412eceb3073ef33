package service

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hydrolearn/knowsearch/internal/cache"
	"github.com/hydrolearn/knowsearch/internal/metrics"
	"github.com/hydrolearn/knowsearch/internal/search"
	"github.com/hydrolearn/knowsearch/pkg/types"
)

// DefaultBatchWorkers bounds the concurrency of BatchSearch.
const DefaultBatchWorkers = 4

// Service is the cache-aware façade over the hybrid search engine. All
// lookups and stores go through the cache manager; cache failures are
// logged and bypassed, never surfaced to callers.
type Service struct {
	engine *search.Engine
	caches *cache.Manager

	metrics      *metrics.Metrics
	cacheTTL     time.Duration // 0 means the namespace default
	batchWorkers int
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics attaches a metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithCacheTTL overrides the TTL used when storing search results.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.cacheTTL = ttl }
}

// WithBatchWorkers sets the BatchSearch concurrency.
func WithBatchWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchWorkers = n
		}
	}
}

// New creates the search service over an engine and a cache manager.
func New(engine *search.Engine, caches *cache.Manager, opts ...Option) *Service {
	s := &Service{
		engine:       engine,
		caches:       caches,
		batchWorkers: DefaultBatchWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs one cache-checked query. On a hit the cached payload is
// returned with FromCache=true and timing covering only the lookup; on a
// miss the engine computes, the result is stored, and timing covers the
// full computation. The cache key encodes query, mode, topK, and alpha.
func (s *Service) Search(ctx context.Context, query string, topK int, mode types.Mode, alpha float64, useCache bool) (*types.SearchResponse, error) {
	return s.cachedSearch(mode, useCache,
		[]any{query, mode, topK, alpha},
		func() (*types.SearchResponse, error) {
			return s.engine.Search(ctx, query, topK, mode, alpha)
		})
}

// AdvancedSearch is Search with category/level filtering; the cache key
// additionally encodes both filters.
func (s *Service) AdvancedSearch(ctx context.Context, query, category, level string, topK int, mode types.Mode, alpha float64, useCache bool) (*types.SearchResponse, error) {
	return s.cachedSearch(mode, useCache,
		[]any{"advanced", query, mode, topK, alpha, category, level},
		func() (*types.SearchResponse, error) {
			return s.engine.AdvancedSearch(ctx, query, category, level, topK, mode, alpha)
		})
}

// cachedSearch is the caching discipline shared by Search and
// AdvancedSearch: derive a query-namespace key from keyParts, serve a hit
// with lookup-only timing, otherwise compute, store, and report full
// timings. Key derivation failure fails soft: log and compute without the
// cache.
func (s *Service) cachedSearch(mode types.Mode, useCache bool, keyParts []any, compute func() (*types.SearchResponse, error)) (*types.SearchResponse, error) {
	start := time.Now()

	var key cache.Key
	haveKey := false
	if useCache {
		k, err := cache.DeriveKey(cache.NamespaceQuery, keyParts...)
		if err != nil {
			log.Printf("cache key derivation failed, bypassing cache: %v", err)
		} else {
			key = k
			haveKey = true
			if resp, ok := s.caches.GetCachedQueryKey(key); ok {
				s.metrics.ObserveCacheLookup(string(cache.NamespaceQuery), true)
				elapsed := time.Since(start)
				resp.FromCache = true
				resp.Timing = types.Timing{CacheLookup: elapsed, Total: elapsed}
				s.metrics.ObserveSearch(string(resp.Mode), true, elapsed)
				return resp, nil
			}
			s.metrics.ObserveCacheLookup(string(cache.NamespaceQuery), false)
		}
	}

	lookupDone := time.Now()
	resp, err := compute()
	if err != nil {
		s.metrics.ObserveSearchError(string(mode))
		return nil, err
	}

	if haveKey {
		s.caches.CacheQueryKey(key, resp, s.cacheTTL)
	}

	resp.FromCache = false
	resp.Timing = types.Timing{
		CacheLookup: lookupDone.Sub(start),
		Compute:     time.Since(lookupDone),
		Total:       time.Since(start),
	}
	s.metrics.ObserveSearch(string(resp.Mode), false, resp.Timing.Total)
	return resp, nil
}

// BatchSearch runs Search per query with bounded parallelism. Each query
// evaluates its own cache state independently; results come back in input
// order. The first engine error cancels the remaining queries.
func (s *Service) BatchSearch(ctx context.Context, queries []string, topK int, mode types.Mode, useCache bool) (*types.BatchResponse, error) {
	start := time.Now()

	responses := make([]*types.SearchResponse, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchWorkers)
	for i, q := range queries {
		g.Go(func() error {
			resp, err := s.Search(gctx, q, topK, mode, search.DefaultAlpha, useCache)
			if err != nil {
				return err
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hits := 0
	for _, resp := range responses {
		if resp.FromCache {
			hits++
		}
	}

	batch := &types.BatchResponse{
		Results:   responses,
		CacheHits: hits,
		Duration:  time.Since(start),
	}
	if len(queries) > 0 {
		batch.CacheHitRate = float64(hits) / float64(len(queries))
	}
	return batch, nil
}

// WarmupCache pre-populates the query cache by running each common query
// with caching enabled, purely for the side effect. Individual query
// failures are logged and skipped; the warm-up always visits every query.
func (s *Service) WarmupCache(ctx context.Context, commonQueries []string, topK int, mode types.Mode) (*types.WarmupResult, error) {
	start := time.Now()

	warmed := 0
	for _, q := range commonQueries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := s.Search(ctx, q, topK, mode, search.DefaultAlpha, true); err != nil {
			log.Printf("warmup query %q failed: %v", q, err)
			continue
		}
		warmed++
	}

	return &types.WarmupResult{
		WarmedCount: warmed,
		Duration:    time.Since(start),
		CacheStats:  s.caches.Stats(),
	}, nil
}

// GetCacheStats returns per-namespace cache statistics.
func (s *Service) GetCacheStats() cache.ManagerStats {
	return s.caches.Stats()
}

// ClearCache empties all cache namespaces.
func (s *Service) ClearCache() {
	s.caches.ClearAll()
}
