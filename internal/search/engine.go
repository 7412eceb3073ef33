package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hydrolearn/knowsearch/pkg/types"
)

const (
	// DefaultTopK is used when a request does not specify a result count.
	DefaultTopK = 5
	// DefaultAlpha balances keyword and semantic contributions equally.
	DefaultAlpha = 0.5

	// Hybrid mode requests more candidates than the caller asked for so the
	// fusion step has enough overlap to work with.
	hybridOversample = 2
	// AdvancedSearch oversamples further because category/level filtering
	// discards survivors after ranking.
	filterOversample = 3
)

// Engine fuses keyword and semantic search into one ranked list.
type Engine struct {
	keyword  KeywordSearcher
	semantic SemanticSearcher

	// strictHybrid makes hybrid mode fail when either backend fails.
	// The default degrades to single-source ranking and only fails when
	// both backends fail.
	strictHybrid bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithStrictHybrid makes hybrid searches fail fast on any backend error
// instead of degrading to the surviving source.
func WithStrictHybrid() Option {
	return func(e *Engine) { e.strictHybrid = true }
}

// NewEngine creates a search engine over the two backends.
func NewEngine(keyword KeywordSearcher, semantic SemanticSearcher, opts ...Option) *Engine {
	e := &Engine{keyword: keyword, semantic: semantic}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// normalizeRequest applies defaults and validates query, mode, and alpha.
func normalizeRequest(query string, topK *int, mode *types.Mode, alpha float64) error {
	if strings.TrimSpace(query) == "" {
		return types.ErrEmptyQuery
	}
	if *topK <= 0 {
		*topK = DefaultTopK
	}
	if *mode == "" {
		*mode = types.ModeHybrid
	}
	if err := mode.Validate(); err != nil {
		return err
	}
	if alpha < 0 || alpha > 1 {
		return fmt.Errorf("alpha %g: %w", alpha, types.ErrInvalidAlpha)
	}
	return nil
}

// Search runs a single query in the given mode. In keyword and semantic
// modes a backend failure propagates as its typed error with no fallback.
func (e *Engine) Search(ctx context.Context, query string, topK int, mode types.Mode, alpha float64) (*types.SearchResponse, error) {
	if err := normalizeRequest(query, &topK, &mode, alpha); err != nil {
		return nil, err
	}

	var results []types.FusedResult
	var stats types.FusionStats
	var err error

	switch mode {
	case types.ModeKeyword:
		results, err = e.keywordSearch(ctx, query, topK)
		stats.KeywordOnly = len(results)
	case types.ModeSemantic:
		results, err = e.semanticSearch(ctx, query, topK)
		stats.SemanticOnly = len(results)
	case types.ModeHybrid:
		results, stats, err = e.hybridSearch(ctx, query, topK, alpha)
	}
	if err != nil {
		return nil, err
	}

	return &types.SearchResponse{
		Query:   query,
		Mode:    mode,
		Alpha:   alpha,
		Results: results,
		Stats:   stats,
	}, nil
}

// keywordSearch wraps backend hits with their 1-based rank, no fusion.
func (e *Engine) keywordSearch(ctx context.Context, query string, topK int) ([]types.FusedResult, error) {
	raw, err := e.keyword.SearchKeyword(ctx, query, topK)
	if err != nil {
		return nil, asKeywordError(query, err)
	}

	hits := make([]types.SearchHit, len(raw))
	for i, h := range raw {
		hits[i] = types.SearchHit{
			Title:    h.Title,
			Category: h.Category,
			Level:    h.Level,
			Score:    h.MatchScore,
			Rank:     i + 1,
			Source:   types.SourceKeyword,
		}
	}
	return singleSourceResults(hits), nil
}

// semanticSearch wraps backend neighbors with rank; score is 1 - distance.
func (e *Engine) semanticSearch(ctx context.Context, query string, topK int) ([]types.FusedResult, error) {
	res, err := e.semantic.SearchSemantic(ctx, query, topK)
	if err != nil {
		return nil, asSemanticError(query, err)
	}

	n := semanticLen(res)
	hits := make([]types.SearchHit, n)
	for i := 0; i < n; i++ {
		hits[i] = types.SearchHit{
			Title:    res.Metadatas[i].Title,
			Category: res.Metadatas[i].Category,
			Level:    res.Metadatas[i].Level,
			Score:    1 - res.Distances[i],
			Rank:     i + 1,
			Source:   types.SourceSemantic,
		}
	}
	return singleSourceResults(hits), nil
}

// singleSourceResults lifts ranked hits from one backend into the fused
// result shape without fusion.
func singleSourceResults(hits []types.SearchHit) []types.FusedResult {
	results := make([]types.FusedResult, len(hits))
	for i, hit := range hits {
		fr := types.FusedResult{
			Title:         hit.Title,
			Category:      hit.Category,
			Level:         hit.Level,
			Sources:       []types.Source{hit.Source},
			CombinedScore: hit.Score,
		}
		if hit.Source == types.SourceKeyword {
			fr.KeywordScore = hit.Score
			fr.KeywordRank = hit.Rank
		} else {
			fr.SemanticScore = hit.Score
			fr.SemanticRank = hit.Rank
		}
		results[i] = fr
	}
	return results
}

// portResult carries one backend's answer through the fan-in channel.
type portResult struct {
	keywordHits []types.KeywordHit
	semanticRes *types.SemanticResult
	err         error
}

// hybridSearch queries both backends concurrently and fuses the rankings.
func (e *Engine) hybridSearch(ctx context.Context, query string, topK int, alpha float64) ([]types.FusedResult, types.FusionStats, error) {
	fetch := topK * hybridOversample

	kwChan := make(chan portResult, 1)
	semChan := make(chan portResult, 1)

	go func() {
		hits, err := e.keyword.SearchKeyword(ctx, query, fetch)
		select {
		case kwChan <- portResult{keywordHits: hits, err: err}:
		case <-ctx.Done():
		}
	}()
	go func() {
		res, err := e.semantic.SearchSemantic(ctx, query, fetch)
		select {
		case semChan <- portResult{semanticRes: res, err: err}:
		case <-ctx.Done():
		}
	}()

	var kwRes, semRes portResult
	var kwDone, semDone bool
	for !kwDone || !semDone {
		select {
		case kwRes = <-kwChan:
			kwDone = true
		case semRes = <-semChan:
			semDone = true
		case <-ctx.Done():
			return nil, types.FusionStats{}, ctx.Err()
		}
	}

	if kwRes.err != nil && semRes.err != nil {
		return nil, types.FusionStats{}, fmt.Errorf("both searches failed: keyword=%w, semantic=%v",
			asKeywordError(query, kwRes.err), asSemanticError(query, semRes.err))
	}
	if e.strictHybrid {
		if kwRes.err != nil {
			return nil, types.FusionStats{}, asKeywordError(query, kwRes.err)
		}
		if semRes.err != nil {
			return nil, types.FusionStats{}, asSemanticError(query, semRes.err)
		}
	}

	results, stats := fuse(kwRes.keywordHits, semRes.semanticRes, alpha, topK)
	return results, stats, nil
}

// fuse merges the two rankings by title. Each hit at 1-based rank r
// contributes a rank-normalized score of 1/(r+1), weighted by alpha for
// keyword and (1-alpha) for semantic. Ties in the combined score keep
// insertion order (keyword scan first, then semantic) so the ordering is
// deterministic.
func fuse(kwHits []types.KeywordHit, semRes *types.SemanticResult, alpha float64, topK int) ([]types.FusedResult, types.FusionStats) {
	merged := make([]types.FusedResult, 0, len(kwHits))
	index := make(map[string]int, len(kwHits))

	for i, hit := range kwHits {
		norm := 1.0 / float64(i+2) // rank r = i+1, normScore = 1/(r+1)
		merged = append(merged, types.FusedResult{
			Title:         hit.Title,
			Category:      hit.Category,
			Level:         hit.Level,
			KeywordScore:  hit.MatchScore,
			KeywordRank:   i + 1,
			Sources:       []types.Source{types.SourceKeyword},
			CombinedScore: alpha * norm,
		})
		index[hit.Title] = len(merged) - 1
	}

	n := semanticLen(semRes)
	for i := 0; i < n; i++ {
		norm := 1.0 / float64(i+2)
		score := 1 - semRes.Distances[i]
		meta := semRes.Metadatas[i]

		if at, ok := index[meta.Title]; ok {
			fr := &merged[at]
			fr.CombinedScore += (1 - alpha) * norm
			fr.SemanticScore = score
			fr.SemanticRank = i + 1
			fr.Sources = append(fr.Sources, types.SourceSemantic)
			continue
		}

		merged = append(merged, types.FusedResult{
			Title:         meta.Title,
			Category:      meta.Category,
			Level:         meta.Level,
			SemanticScore: score,
			SemanticRank:  i + 1,
			Sources:       []types.Source{types.SourceSemantic},
			CombinedScore: (1 - alpha) * norm,
		})
		index[meta.Title] = len(merged) - 1
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CombinedScore > merged[j].CombinedScore
	})
	if len(merged) > topK {
		merged = merged[:topK]
	}

	var stats types.FusionStats
	for i := range merged {
		switch {
		case len(merged[i].Sources) == 2:
			stats.Both++
		case merged[i].HasSource(types.SourceKeyword):
			stats.KeywordOnly++
		default:
			stats.SemanticOnly++
		}
	}
	return merged, stats
}

// AdvancedSearch runs Search with an oversampled topK, then keeps results
// whose category contains the requested category substring and whose level
// matches exactly, stopping once topK survivors are collected. Empty
// filters match everything.
func (e *Engine) AdvancedSearch(ctx context.Context, query, category, level string, topK int, mode types.Mode, alpha float64) (*types.SearchResponse, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	resp, err := e.Search(ctx, query, topK*filterOversample, mode, alpha)
	if err != nil {
		return nil, err
	}

	filtered := make([]types.FusedResult, 0, topK)
	for _, r := range resp.Results {
		if category != "" && !strings.Contains(r.Category, category) {
			continue
		}
		if level != "" && r.Level != level {
			continue
		}
		filtered = append(filtered, r)
		if len(filtered) == topK {
			break
		}
	}

	resp.Results = filtered
	resp.Stats = recountStats(filtered)
	return resp, nil
}

// MultiQuerySearch runs Search per query and merges by title, keeping the
// maximum combined score any query achieved for that title.
func (e *Engine) MultiQuerySearch(ctx context.Context, queries []string, topK int, mode types.Mode) ([]types.FusedResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	merged := make([]types.FusedResult, 0, topK)
	index := make(map[string]int)

	for _, q := range queries {
		resp, err := e.Search(ctx, q, topK, mode, DefaultAlpha)
		if err != nil {
			return nil, err
		}
		for _, r := range resp.Results {
			if at, ok := index[r.Title]; ok {
				if r.CombinedScore > merged[at].CombinedScore {
					merged[at] = r
				}
				continue
			}
			merged = append(merged, r)
			index[r.Title] = len(merged) - 1
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CombinedScore > merged[j].CombinedScore
	})
	if len(merged) > topK {
		merged = merged[:topK]
	}
	return merged, nil
}

func recountStats(results []types.FusedResult) types.FusionStats {
	var stats types.FusionStats
	for i := range results {
		switch {
		case len(results[i].Sources) == 2:
			stats.Both++
		case results[i].HasSource(types.SourceKeyword):
			stats.KeywordOnly++
		default:
			stats.SemanticOnly++
		}
	}
	return stats
}

// semanticLen guards against backends returning ragged parallel slices.
func semanticLen(res *types.SemanticResult) int {
	if res == nil {
		return 0
	}
	n := len(res.IDs)
	if len(res.Metadatas) < n {
		n = len(res.Metadatas)
	}
	if len(res.Distances) < n {
		n = len(res.Distances)
	}
	return n
}

func asKeywordError(query string, err error) error {
	var kw *types.KeywordSearchError
	if errors.As(err, &kw) {
		return err
	}
	return &types.KeywordSearchError{Query: query, Err: err}
}

func asSemanticError(query string, err error) error {
	var sem *types.SemanticSearchError
	if errors.As(err, &sem) {
		return err
	}
	return &types.SemanticSearchError{Query: query, Err: err}
}
