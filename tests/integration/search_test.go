package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/hydrolearn/knowsearch/internal/cache"
	"github.com/hydrolearn/knowsearch/internal/embedder"
	"github.com/hydrolearn/knowsearch/internal/search"
	"github.com/hydrolearn/knowsearch/internal/service"
	"github.com/hydrolearn/knowsearch/internal/store"
	"github.com/hydrolearn/knowsearch/pkg/types"
)

// SearchPipelineSuite exercises the full stack: SQLite store with FTS5 and
// embeddings, the fusion engine, the cache manager, and the service layer.
type SearchPipelineSuite struct {
	suite.Suite
	store   *store.Store
	service *service.Service
	ctx     context.Context
}

func (s *SearchPipelineSuite) SetupTest() {
	s.ctx = context.Background()

	emb := embedder.NewLocalProvider(embedder.NewCache(0))
	st, err := store.New(":memory:", emb)
	s.Require().NoError(err)
	s.store = st

	caches, err := cache.NewManager(cache.DefaultConfig())
	s.Require().NoError(err)
	engine := search.NewEngine(st, search.NewCachedSemanticSearcher(st, caches))
	s.service = service.New(engine, caches)

	entries := []*types.KnowledgeEntry{
		{ID: "kn-1", Title: "Manning equation for open channel flow", Content: "Uniform flow velocity computed from channel roughness, slope and hydraulic radius.", Category: "hydraulics", Level: "intermediate"},
		{ID: "kn-2", Title: "Darcy's law for groundwater flow", Content: "Discharge through porous media proportional to the hydraulic gradient.", Category: "groundwater", Level: "beginner"},
		{ID: "kn-3", Title: "Sharp-crested weir discharge", Content: "Flow measurement over weirs in open channel structures.", Category: "hydraulics", Level: "advanced"},
		{ID: "kn-4", Title: "Unit hydrograph theory", Content: "Linear rainfall-runoff response of a catchment to effective precipitation.", Category: "hydrology", Level: "intermediate"},
		{ID: "kn-5", Title: "Evapotranspiration estimation", Content: "Water loss from soil and vegetation estimated with the Penman-Monteith method.", Category: "hydrology", Level: "beginner"},
	}
	for _, e := range entries {
		s.Require().NoError(st.UpsertEntry(s.ctx, e))
	}
}

func (s *SearchPipelineSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *SearchPipelineSuite) TestKeywordPipeline() {
	resp, err := s.service.Search(s.ctx, "open channel flow", 3, types.ModeKeyword, 0.5, false)
	s.Require().NoError(err)
	s.Require().NotEmpty(resp.Results)

	for _, r := range resp.Results {
		s.True(r.HasSource(types.SourceKeyword))
		s.Zero(r.SemanticScore)
	}
}

func (s *SearchPipelineSuite) TestSemanticPipelineReturnsRequestedCount() {
	resp, err := s.service.Search(s.ctx, "rainfall runoff catchment response", 3, types.ModeSemantic, 0.5, false)
	s.Require().NoError(err)
	s.Require().Len(resp.Results, 3)

	// Distances come back ascending, so combined scores descend.
	for i := 1; i < len(resp.Results); i++ {
		s.GreaterOrEqual(resp.Results[i-1].CombinedScore, resp.Results[i].CombinedScore)
	}
}

func (s *SearchPipelineSuite) TestHybridFusesBothBackends() {
	resp, err := s.service.Search(s.ctx, "weir discharge measurement", 5, types.ModeHybrid, 0.5, false)
	s.Require().NoError(err)
	s.Require().NotEmpty(resp.Results)

	total := resp.Stats.KeywordOnly + resp.Stats.SemanticOnly + resp.Stats.Both
	s.Equal(len(resp.Results), total)
	s.Positive(resp.Stats.Both+resp.Stats.SemanticOnly, "semantic backend should contribute")
}

func (s *SearchPipelineSuite) TestCachedSearchRoundTrip() {
	first, err := s.service.Search(s.ctx, "groundwater hydraulic gradient", 3, types.ModeHybrid, 0.5, true)
	s.Require().NoError(err)
	s.False(first.FromCache)

	second, err := s.service.Search(s.ctx, "groundwater hydraulic gradient", 3, types.ModeHybrid, 0.5, true)
	s.Require().NoError(err)
	s.True(second.FromCache)
	s.Equal(first.Results, second.Results)

	stats := s.service.GetCacheStats()
	s.Equal(uint64(1), stats.Query.Hits)
}

func (s *SearchPipelineSuite) TestAdvancedSearchFilters() {
	resp, err := s.service.AdvancedSearch(s.ctx, "flow", "hydraulics", "", 5, types.ModeKeyword, 0.5, false)
	s.Require().NoError(err)
	for _, r := range resp.Results {
		s.Equal("hydraulics", r.Category)
	}

	resp, err = s.service.AdvancedSearch(s.ctx, "flow", "", "beginner", 5, types.ModeHybrid, 0.5, false)
	s.Require().NoError(err)
	for _, r := range resp.Results {
		s.Equal("beginner", r.Level)
	}
}

func (s *SearchPipelineSuite) TestBatchAndWarmup() {
	warm, err := s.service.WarmupCache(s.ctx, []string{"open channel flow", "unit hydrograph"}, 5, types.ModeHybrid)
	s.Require().NoError(err)
	s.Equal(2, warm.WarmedCount)

	batch, err := s.service.BatchSearch(s.ctx, []string{"open channel flow", "unit hydrograph", "evapotranspiration"}, 5, types.ModeHybrid, true)
	s.Require().NoError(err)
	s.Require().Len(batch.Results, 3)
	s.Equal(2, batch.CacheHits)
	s.InDelta(2.0/3.0, batch.CacheHitRate, 1e-9)
}

func (s *SearchPipelineSuite) TestSemanticResultsReusedAcrossAlphas() {
	// Different alphas miss the query cache but fetch the same raw
	// neighbor list, which the semantic namespace serves on the second call.
	first, err := s.service.Search(s.ctx, "catchment rainfall response", 3, types.ModeHybrid, 0.3, true)
	s.Require().NoError(err)
	s.Require().NotEmpty(first.Results)

	second, err := s.service.Search(s.ctx, "catchment rainfall response", 3, types.ModeHybrid, 0.7, true)
	s.Require().NoError(err)
	s.False(second.FromCache)
	s.Require().NotEmpty(second.Results)

	stats := s.service.GetCacheStats()
	s.Equal(uint64(1), stats.Semantic.Misses)
	s.Equal(uint64(1), stats.Semantic.Hits)
}

func (s *SearchPipelineSuite) TestUpsertIsVisibleToSearch() {
	entry := &types.KnowledgeEntry{ID: "kn-6", Title: "Saint-Venant equations", Content: "Unsteady open channel flow described by continuity and momentum.", Category: "hydraulics", Level: "advanced"}
	s.Require().NoError(s.store.UpsertEntry(s.ctx, entry))

	resp, err := s.service.Search(s.ctx, "Saint-Venant unsteady", 3, types.ModeKeyword, 0.5, false)
	s.Require().NoError(err)
	s.Require().NotEmpty(resp.Results)
	s.Equal("Saint-Venant equations", resp.Results[0].Title)
}

func TestSearchPipelineSuite(t *testing.T) {
	suite.Run(t, new(SearchPipelineSuite))
}
