package search

import (
	"context"

	"github.com/hydrolearn/knowsearch/pkg/types"
)

// KeywordSearcher is the port to the full-text search backend. It returns
// title-ranked matches from the knowledge store, best first. Failures
// surface as *types.KeywordSearchError.
type KeywordSearcher interface {
	SearchKeyword(ctx context.Context, query string, topK int) ([]types.KeywordHit, error)
}

// SemanticSearcher is the port to the vector search backend. It returns
// nearest neighbors with distances, closest first. Failures surface as
// *types.SemanticSearchError.
type SemanticSearcher interface {
	SearchSemantic(ctx context.Context, query string, nResults int) (*types.SemanticResult, error)
}
