// Package types provides shared type definitions for the knowsearch service.
//
// This package defines the domain types used across the cache, search, and
// service layers, plus the typed error taxonomy.
//
// # Core Types
//
// SearchHit is a raw result from one backend:
//
//	hit := types.SearchHit{
//	    Title:  "Manning equation",
//	    Score:  0.92,
//	    Rank:   1,
//	    Source: types.SourceKeyword,
//	}
//
// FusedResult is a deduplicated entry in a fused ranking. When both backends
// return the same title, both contributions are merged into one FusedResult:
//
//	fr.Sources        // [keyword, semantic]
//	fr.CombinedScore  // alpha-weighted sum of rank-normalized scores
//
// SearchResponse is the caller-facing unit and the value cached by the
// service layer. Clone produces the deep copies used on cache store/load.
//
// # Errors
//
// Backend failures carry their origin as a typed error:
//
//	var kwErr *types.KeywordSearchError
//	if errors.As(err, &kwErr) {
//	    log.Printf("keyword backend down: %v", kwErr.Unwrap())
//	}
//
// CacheError is advisory only: the service bypasses the cache and recomputes,
// so it never reaches the end user.
package types
