package types

import "time"

// Source identifies which search backend produced a hit.
type Source string

const (
	SourceKeyword  Source = "keyword"
	SourceSemantic Source = "semantic"
)

// Mode selects the search strategy.
type Mode string

const (
	ModeKeyword  Mode = "keyword"
	ModeSemantic Mode = "semantic"
	ModeHybrid   Mode = "hybrid" // Rank fusion over both backends
)

// Validate reports whether the mode is one of the closed set.
func (m Mode) Validate() error {
	switch m {
	case ModeKeyword, ModeSemantic, ModeHybrid:
		return nil
	}
	return &InvalidModeError{Mode: string(m)}
}

// SearchHit is a single result from one backend, produced fresh per call.
type SearchHit struct {
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Level    string  `json:"level"`
	Score    float64 `json:"score"`
	Rank     int     `json:"rank"` // 1-based position in the backend's ordering
	Source   Source  `json:"source"`
}

// FusedResult is one deduplicated entry in a fused ranking. Title is the
// deduplication identity: the same title from both backends merges into a
// single FusedResult carrying both contributions.
type FusedResult struct {
	Title         string   `json:"title"`
	Category      string   `json:"category"`
	Level         string   `json:"level"`
	KeywordScore  float64  `json:"keyword_score"`
	SemanticScore float64  `json:"semantic_score"`
	KeywordRank   int      `json:"keyword_rank,omitempty"`  // 0 when keyword did not contribute
	SemanticRank  int      `json:"semantic_rank,omitempty"` // 0 when semantic did not contribute
	Sources       []Source `json:"sources"`
	CombinedScore float64  `json:"combined_score"`
}

// HasSource reports whether the given backend contributed to this result.
func (fr *FusedResult) HasSource(src Source) bool {
	for _, s := range fr.Sources {
		if s == src {
			return true
		}
	}
	return false
}

// FusionStats counts how many fused results each backend contributed to.
type FusionStats struct {
	KeywordOnly  int `json:"keyword_only"`
	SemanticOnly int `json:"semantic_only"`
	Both         int `json:"both"`
}

// Timing breaks down where a search call spent its time.
type Timing struct {
	CacheLookup time.Duration `json:"cache_lookup"`
	Compute     time.Duration `json:"compute"`
	Total       time.Duration `json:"total"`
}

// SearchResponse is the unit returned to callers and stored in the query cache.
type SearchResponse struct {
	Query     string        `json:"query"`
	Mode      Mode          `json:"mode"`
	Alpha     float64       `json:"alpha"`
	Results   []FusedResult `json:"results"`
	Stats     FusionStats   `json:"stats"`
	FromCache bool          `json:"from_cache"`
	Timing    Timing        `json:"timing"`
}

// Clone returns a deep copy. Cached responses are cloned on both store and
// load so callers can never mutate an entry another caller will observe.
func (sr *SearchResponse) Clone() *SearchResponse {
	if sr == nil {
		return nil
	}
	dst := *sr
	dst.Results = make([]FusedResult, len(sr.Results))
	for i, r := range sr.Results {
		dst.Results[i] = r
		dst.Results[i].Sources = append([]Source(nil), r.Sources...)
	}
	return &dst
}

// BatchResponse aggregates per-query responses from a batch search.
type BatchResponse struct {
	Results      []*SearchResponse `json:"results"`
	CacheHits    int               `json:"cache_hits"`
	CacheHitRate float64           `json:"cache_hit_rate"`
	Duration     time.Duration     `json:"duration"`
}

// WarmupResult reports the outcome of a cache warm-up pass.
type WarmupResult struct {
	WarmedCount int           `json:"warmed_count"`
	Duration    time.Duration `json:"duration"`
	CacheStats  any           `json:"cache_stats_after"`
}

// KeywordHit is a raw match from the keyword (full-text) backend.
type KeywordHit struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Category   string  `json:"category"`
	Level      string  `json:"level"`
	MatchScore float64 `json:"match_score"`
}

// SemanticMetadata describes one nearest-neighbor match.
type SemanticMetadata struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Level    string `json:"level"`
}

// SemanticResult is the column-oriented response of the semantic backend.
// The three slices are parallel: IDs[i], Metadatas[i], and Distances[i]
// describe the i-th nearest neighbor.
type SemanticResult struct {
	IDs       []string           `json:"ids"`
	Metadatas []SemanticMetadata `json:"metadatas"`
	Distances []float64          `json:"distances"`
}

// Clone returns a deep copy. Cached results are cloned on both store and
// load, same as SearchResponse.
func (sr *SemanticResult) Clone() *SemanticResult {
	if sr == nil {
		return nil
	}
	return &SemanticResult{
		IDs:       append([]string(nil), sr.IDs...),
		Metadatas: append([]SemanticMetadata(nil), sr.Metadatas...),
		Distances: append([]float64(nil), sr.Distances...),
	}
}

// KnowledgeEntry is a stored knowledge item, the unit of the knowledge store.
type KnowledgeEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Level     string    `json:"level"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy the caller may mutate freely. All fields are
// values, so a struct copy is a deep copy.
func (ke *KnowledgeEntry) Clone() *KnowledgeEntry {
	if ke == nil {
		return nil
	}
	dst := *ke
	return &dst
}
