package search

import (
	"context"

	"github.com/hydrolearn/knowsearch/internal/cache"
	"github.com/hydrolearn/knowsearch/pkg/types"
)

// CachedSemanticSearcher decorates a semantic backend with the semantic
// cache namespace, so repeated hybrid and semantic-mode calls for the same
// (query, nResults) pair reuse one backend round trip. Embedding a query
// is the expensive half of semantic search, which makes the raw result
// worth caching separately from fused responses: fused entries vary with
// mode, topK, and alpha, while the raw neighbor list does not.
type CachedSemanticSearcher struct {
	backend SemanticSearcher
	caches  *cache.Manager
}

// NewCachedSemanticSearcher wraps backend with the manager's semantic
// namespace.
func NewCachedSemanticSearcher(backend SemanticSearcher, caches *cache.Manager) *CachedSemanticSearcher {
	return &CachedSemanticSearcher{backend: backend, caches: caches}
}

// SearchSemantic serves from the semantic cache when possible, otherwise
// queries the backend and stores the result with the namespace default TTL.
// Backend errors are never cached.
func (c *CachedSemanticSearcher) SearchSemantic(ctx context.Context, query string, nResults int) (*types.SemanticResult, error) {
	if res, ok := c.caches.GetCachedSemantic(query, nResults); ok {
		return res, nil
	}

	res, err := c.backend.SearchSemantic(ctx, query, nResults)
	if err != nil {
		return nil, err
	}

	// Key derivation over (string, int) cannot hit the unsupported-type path.
	_ = c.caches.CacheSemantic(query, nResults, res, 0)
	return res, nil
}
