package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrolearn/knowsearch/pkg/types"
)

// mockKeyword implements KeywordSearcher for testing
type mockKeyword struct {
	searchFunc func(ctx context.Context, query string, topK int) ([]types.KeywordHit, error)
}

func (m *mockKeyword) SearchKeyword(ctx context.Context, query string, topK int) ([]types.KeywordHit, error) {
	return m.searchFunc(ctx, query, topK)
}

// mockSemantic implements SemanticSearcher for testing
type mockSemantic struct {
	searchFunc func(ctx context.Context, query string, nResults int) (*types.SemanticResult, error)
}

func (m *mockSemantic) SearchSemantic(ctx context.Context, query string, nResults int) (*types.SemanticResult, error) {
	return m.searchFunc(ctx, query, nResults)
}

func staticKeyword(hits ...types.KeywordHit) *mockKeyword {
	return &mockKeyword{searchFunc: func(_ context.Context, _ string, topK int) ([]types.KeywordHit, error) {
		if topK > len(hits) {
			topK = len(hits)
		}
		return hits[:topK], nil
	}}
}

func staticSemantic(res types.SemanticResult) *mockSemantic {
	return &mockSemantic{searchFunc: func(_ context.Context, _ string, nResults int) (*types.SemanticResult, error) {
		out := res
		if nResults < len(out.IDs) {
			out.IDs = out.IDs[:nResults]
			out.Metadatas = out.Metadatas[:nResults]
			out.Distances = out.Distances[:nResults]
		}
		return &out, nil
	}}
}

func kwHit(title string, score float64) types.KeywordHit {
	return types.KeywordHit{Title: title, Category: "hydraulics", Level: "intermediate", MatchScore: score}
}

// Fixed corpus: keyword returns [X, Y], semantic returns [Y, Z].
func fixedCorpusEngine(opts ...Option) *Engine {
	kw := staticKeyword(kwHit("X", 0.9), kwHit("Y", 0.8))
	sem := staticSemantic(types.SemanticResult{
		IDs: []string{"y", "z"},
		Metadatas: []types.SemanticMetadata{
			{Title: "Y", Category: "hydraulics", Level: "intermediate"},
			{Title: "Z", Category: "hydrology", Level: "advanced"},
		},
		Distances: []float64{0.2, 0.5},
	})
	return NewEngine(kw, sem, opts...)
}

func titles(results []types.FusedResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Title
	}
	return out
}

func TestKeywordModeRanksWithoutFusion(t *testing.T) {
	e := fixedCorpusEngine()

	resp, err := e.Search(context.Background(), "flow", 2, types.ModeKeyword, 0.5)
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, []string{"X", "Y"}, titles(resp.Results))
	assert.Equal(t, 1, resp.Results[0].KeywordRank)
	assert.Equal(t, 2, resp.Results[1].KeywordRank)
	assert.Equal(t, 0.9, resp.Results[0].KeywordScore)
	assert.Equal(t, []types.Source{types.SourceKeyword}, resp.Results[0].Sources)
	assert.Equal(t, 2, resp.Stats.KeywordOnly)
}

func TestSemanticModeScoreIsOneMinusDistance(t *testing.T) {
	e := fixedCorpusEngine()

	resp, err := e.Search(context.Background(), "flow", 2, types.ModeSemantic, 0.5)
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, []string{"Y", "Z"}, titles(resp.Results))
	assert.InDelta(t, 0.8, resp.Results[0].SemanticScore, 1e-9)
	assert.InDelta(t, 0.5, resp.Results[1].SemanticScore, 1e-9)
	assert.Equal(t, 1, resp.Results[0].SemanticRank)
	assert.Equal(t, 2, resp.Stats.SemanticOnly)
}

func TestHybridWorkedExample(t *testing.T) {
	e := fixedCorpusEngine()

	resp, err := e.Search(context.Background(), "flow", 3, types.ModeHybrid, 0.5)
	require.NoError(t, err)

	// Y: keyword rank 2 (0.5 * 1/3) + semantic rank 1 (0.5 * 1/2) = 0.41667
	// X: keyword rank 1 (0.5 * 1/2)                               = 0.25
	// Z: semantic rank 2 (0.5 * 1/3)                              = 0.16667
	require.Equal(t, []string{"Y", "X", "Z"}, titles(resp.Results))
	assert.InDelta(t, 0.5/3+0.5/2, resp.Results[0].CombinedScore, 1e-9)
	assert.InDelta(t, 0.25, resp.Results[1].CombinedScore, 1e-9)
	assert.InDelta(t, 0.5/3, resp.Results[2].CombinedScore, 1e-9)

	assert.Equal(t, types.FusionStats{KeywordOnly: 1, SemanticOnly: 1, Both: 1}, resp.Stats)

	y := resp.Results[0]
	assert.Equal(t, 2, y.KeywordRank)
	assert.Equal(t, 1, y.SemanticRank)
	assert.ElementsMatch(t, []types.Source{types.SourceKeyword, types.SourceSemantic}, y.Sources)
}

func TestHybridOversamplesBothPorts(t *testing.T) {
	var kwAsked, semAsked int
	kw := &mockKeyword{searchFunc: func(_ context.Context, _ string, topK int) ([]types.KeywordHit, error) {
		kwAsked = topK
		return nil, nil
	}}
	sem := &mockSemantic{searchFunc: func(_ context.Context, _ string, nResults int) (*types.SemanticResult, error) {
		semAsked = nResults
		return &types.SemanticResult{}, nil
	}}

	_, err := NewEngine(kw, sem).Search(context.Background(), "q", 5, types.ModeHybrid, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 10, kwAsked)
	assert.Equal(t, 10, semAsked)
}

func TestDeduplicationByTitle(t *testing.T) {
	kw := staticKeyword(kwHit("X", 0.9))
	sem := staticSemantic(types.SemanticResult{
		IDs:       []string{"x"},
		Metadatas: []types.SemanticMetadata{{Title: "X"}},
		Distances: []float64{0.1},
	})
	e := NewEngine(kw, sem)

	alpha := 0.7
	resp, err := e.Search(context.Background(), "q", 5, types.ModeHybrid, alpha)
	require.NoError(t, err)

	require.Len(t, resp.Results, 1, "same title from both sources must merge")
	x := resp.Results[0]
	assert.InDelta(t, alpha/2+(1-alpha)/2, x.CombinedScore, 1e-9)
	assert.Equal(t, types.FusionStats{Both: 1}, resp.Stats)
}

func TestAlphaBoundaries(t *testing.T) {
	e := fixedCorpusEngine()
	ctx := context.Background()

	keyword, err := e.Search(ctx, "flow", 2, types.ModeKeyword, 0.5)
	require.NoError(t, err)
	semantic, err := e.Search(ctx, "flow", 2, types.ModeSemantic, 0.5)
	require.NoError(t, err)

	pureKw, err := e.Search(ctx, "flow", 2, types.ModeHybrid, 1.0)
	require.NoError(t, err)
	assert.Equal(t, titles(keyword.Results), titles(pureKw.Results),
		"alpha=1 must reproduce pure keyword ordering")

	pureSem, err := e.Search(ctx, "flow", 2, types.ModeHybrid, 0.0)
	require.NoError(t, err)
	assert.Equal(t, titles(semantic.Results), titles(pureSem.Results),
		"alpha=0 must reproduce pure semantic ordering")
}

func TestDeterministicOrdering(t *testing.T) {
	e := fixedCorpusEngine()
	ctx := context.Background()

	first, err := e.Search(ctx, "flow", 3, types.ModeHybrid, 0.5)
	require.NoError(t, err)
	second, err := e.Search(ctx, "flow", 3, types.ModeHybrid, 0.5)
	require.NoError(t, err)

	assert.Equal(t, first.Results, second.Results)
}

func TestRequestValidation(t *testing.T) {
	e := fixedCorpusEngine()
	ctx := context.Background()

	_, err := e.Search(ctx, "  ", 5, types.ModeHybrid, 0.5)
	assert.ErrorIs(t, err, types.ErrEmptyQuery)

	_, err = e.Search(ctx, "q", 5, types.ModeHybrid, 1.5)
	assert.ErrorIs(t, err, types.ErrInvalidAlpha)

	_, err = e.Search(ctx, "q", 5, types.Mode("fuzzy"), 0.5)
	var modeErr *types.InvalidModeError
	assert.ErrorAs(t, err, &modeErr)

	// Empty mode and non-positive topK fall back to defaults
	resp, err := e.Search(ctx, "q", 0, "", 0.5)
	require.NoError(t, err)
	assert.Equal(t, types.ModeHybrid, resp.Mode)
}

func TestSingleModeErrorsPropagateTyped(t *testing.T) {
	boom := errors.New("backend down")
	kw := &mockKeyword{searchFunc: func(context.Context, string, int) ([]types.KeywordHit, error) {
		return nil, boom
	}}
	sem := &mockSemantic{searchFunc: func(context.Context, string, int) (*types.SemanticResult, error) {
		return nil, boom
	}}
	e := NewEngine(kw, sem)
	ctx := context.Background()

	_, err := e.Search(ctx, "q", 5, types.ModeKeyword, 0.5)
	var kwErr *types.KeywordSearchError
	require.ErrorAs(t, err, &kwErr)
	assert.ErrorIs(t, err, boom)

	_, err = e.Search(ctx, "q", 5, types.ModeSemantic, 0.5)
	var semErr *types.SemanticSearchError
	require.ErrorAs(t, err, &semErr)
	assert.ErrorIs(t, err, boom)
}

func TestHybridDegradesToSurvivingSource(t *testing.T) {
	kw := &mockKeyword{searchFunc: func(context.Context, string, int) ([]types.KeywordHit, error) {
		return nil, errors.New("keyword backend down")
	}}
	sem := staticSemantic(types.SemanticResult{
		IDs:       []string{"y"},
		Metadatas: []types.SemanticMetadata{{Title: "Y"}},
		Distances: []float64{0.2},
	})
	e := NewEngine(kw, sem)

	resp, err := e.Search(context.Background(), "q", 5, types.ModeHybrid, 0.5)
	require.NoError(t, err, "default hybrid degrades when one backend fails")
	assert.Equal(t, []string{"Y"}, titles(resp.Results))
	assert.Equal(t, 1, resp.Stats.SemanticOnly)
}

func TestHybridFailsWhenBothSourcesFail(t *testing.T) {
	kw := &mockKeyword{searchFunc: func(context.Context, string, int) ([]types.KeywordHit, error) {
		return nil, errors.New("keyword down")
	}}
	sem := &mockSemantic{searchFunc: func(context.Context, string, int) (*types.SemanticResult, error) {
		return nil, errors.New("semantic down")
	}}

	_, err := NewEngine(kw, sem).Search(context.Background(), "q", 5, types.ModeHybrid, 0.5)
	require.Error(t, err)
}

func TestStrictHybridFailsFast(t *testing.T) {
	kw := &mockKeyword{searchFunc: func(context.Context, string, int) ([]types.KeywordHit, error) {
		return nil, errors.New("keyword down")
	}}
	sem := staticSemantic(types.SemanticResult{
		IDs:       []string{"y"},
		Metadatas: []types.SemanticMetadata{{Title: "Y"}},
		Distances: []float64{0.2},
	})

	_, err := NewEngine(kw, sem, WithStrictHybrid()).Search(context.Background(), "q", 5, types.ModeHybrid, 0.5)
	var kwErr *types.KeywordSearchError
	require.ErrorAs(t, err, &kwErr)
}

func TestHybridHonorsCancellation(t *testing.T) {
	blocker := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	kw := &mockKeyword{searchFunc: func(ctx context.Context, _ string, _ int) ([]types.KeywordHit, error) {
		return nil, blocker(ctx)
	}}
	sem := &mockSemantic{searchFunc: func(ctx context.Context, _ string, _ int) (*types.SemanticResult, error) {
		return nil, blocker(ctx)
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(kw, sem).Search(ctx, "q", 5, types.ModeHybrid, 0.5)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAdvancedSearchFilters(t *testing.T) {
	kw := staticKeyword(
		types.KeywordHit{Title: "A", Category: "open-channel hydraulics", Level: "beginner", MatchScore: 0.9},
		types.KeywordHit{Title: "B", Category: "groundwater", Level: "advanced", MatchScore: 0.8},
		types.KeywordHit{Title: "C", Category: "pipe hydraulics", Level: "beginner", MatchScore: 0.7},
		types.KeywordHit{Title: "D", Category: "hydraulics", Level: "advanced", MatchScore: 0.6},
	)
	sem := staticSemantic(types.SemanticResult{})
	e := NewEngine(kw, sem)

	resp, err := e.AdvancedSearch(context.Background(), "q", "hydraulics", "beginner", 5, types.ModeKeyword, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, titles(resp.Results))
	assert.Equal(t, 2, resp.Stats.KeywordOnly)
}

func TestAdvancedSearchStopsAtTopK(t *testing.T) {
	var asked int
	kw := &mockKeyword{searchFunc: func(_ context.Context, _ string, topK int) ([]types.KeywordHit, error) {
		asked = topK
		hits := make([]types.KeywordHit, topK)
		for i := range hits {
			hits[i] = types.KeywordHit{Title: string(rune('a' + i)), Category: "c", Level: "l", MatchScore: 1 - float64(i)*0.01}
		}
		return hits, nil
	}}
	e := NewEngine(kw, staticSemantic(types.SemanticResult{}))

	resp, err := e.AdvancedSearch(context.Background(), "q", "c", "l", 2, types.ModeKeyword, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 6, asked, "oversamples topK by 3 before filtering")
	assert.Len(t, resp.Results, 2, "stops collecting at topK survivors")
}

func TestMultiQuerySearchKeepsMaxScore(t *testing.T) {
	calls := 0
	kw := &mockKeyword{searchFunc: func(_ context.Context, query string, _ int) ([]types.KeywordHit, error) {
		calls++
		switch query {
		case "q1":
			return []types.KeywordHit{kwHit("shared", 0.9), kwHit("only-q1", 0.5)}, nil
		default:
			return []types.KeywordHit{kwHit("only-q2", 0.95), kwHit("shared", 0.4)}, nil
		}
	}}
	e := NewEngine(kw, staticSemantic(types.SemanticResult{}))

	results, err := e.MultiQuerySearch(context.Background(), []string{"q1", "q2"}, 5, types.ModeKeyword)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	require.Equal(t, []string{"only-q2", "shared", "only-q1"}, titles(results))
	// "shared" keeps its best score across queries (0.9 from q1, rank 1)
	assert.InDelta(t, 0.9, results[1].CombinedScore, 1e-9)
}

func BenchmarkFuse(b *testing.B) {
	kwHits := make([]types.KeywordHit, 100)
	sem := types.SemanticResult{
		IDs:       make([]string, 100),
		Metadatas: make([]types.SemanticMetadata, 100),
		Distances: make([]float64, 100),
	}
	for i := 0; i < 100; i++ {
		kwHits[i] = kwHit(string(rune('a'+i%26))+string(rune('0'+i/26)), 1-float64(i)*0.005)
		sem.IDs[i] = kwHits[i].Title
		sem.Metadatas[i] = types.SemanticMetadata{Title: kwHits[(i*7)%100].Title}
		sem.Distances[i] = float64(i) * 0.005
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fuse(kwHits, &sem, 0.5, 50)
	}
}
