// Package search implements hybrid knowledge search combining keyword and
// semantic backends with weighted rank fusion.
//
// The engine provides three search modes:
//   - Hybrid: both backends fused with an alpha weight (default)
//   - Keyword: full-text title search only
//   - Semantic: vector nearest-neighbor search only
//
// # Rank fusion
//
// Hybrid mode requests 2*topK candidates from each backend, then merges by
// title. A hit at 1-based rank r contributes a rank-normalized score of
// 1/(r+1); keyword contributions are weighted by alpha and semantic by
// (1-alpha):
//
//	combined(title) = alpha * 1/(kwRank+1) + (1-alpha) * 1/(semRank+1)
//
// alpha=1 reproduces pure keyword ordering, alpha=0 pure semantic ordering.
// Titles are deduplicated with case-sensitive exact match: the same title
// from both backends merges into one result carrying both ranks. Ties keep
// insertion order (keyword scan, then semantic scan), so identical inputs
// always produce identical orderings.
//
// # Failure semantics
//
// In keyword or semantic mode a backend failure propagates to the caller as
// *types.KeywordSearchError or *types.SemanticSearchError with no fallback.
// In hybrid mode the engine degrades to the surviving source and only fails
// when both backends fail; construct with WithStrictHybrid to fail fast on
// either backend error instead.
//
// # Derived operations
//
// AdvancedSearch oversamples topK by a factor of 3, then filters by category
// (substring) and level (exact). MultiQuerySearch fans one search out per
// query and merges by title keeping the best combined score.
package search
