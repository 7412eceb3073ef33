package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hydrolearn/knowsearch/internal/store"
	"github.com/hydrolearn/knowsearch/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyQuery    = -32001 // Query parameter is empty
	ErrorCodeNotFound      = -32002 // Knowledge entry does not exist
	ErrorCodeBackendFailed = -32003 // Both retrieval backends failed
)

// handleSearchKnowledge handles the search_knowledge tool invocation
func (s *Server) handleSearchKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	topK, mode, err := s.searchParams(args)
	if err != nil {
		return nil, err
	}
	alpha := getFloatDefault(args, "alpha", s.cfg.Search.Alpha)
	if alpha < 0 || alpha > 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "alpha must be between 0.0 and 1.0", map[string]interface{}{
			"param": "alpha",
			"value": alpha,
		})
	}
	category := getStringDefault(args, "category", "")
	level := getStringDefault(args, "level", "")
	useCache := getBoolDefault(args, "use_cache", true)

	var resp *types.SearchResponse
	if category != "" || level != "" {
		resp, err = s.service.AdvancedSearch(ctx, query, category, level, topK, mode, alpha, useCache)
	} else {
		resp, err = s.service.Search(ctx, query, topK, mode, alpha, useCache)
	}
	if err != nil {
		return nil, searchError(err)
	}

	return mcp.NewToolResultText(formatJSON(searchResponseMap(resp))), nil
}

// handleBatchSearch handles the batch_search tool invocation
func (s *Server) handleBatchSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	queries, err := getStringSlice(args, "queries")
	if err != nil {
		return nil, err
	}

	topK, mode, err := s.searchParams(args)
	if err != nil {
		return nil, err
	}
	useCache := getBoolDefault(args, "use_cache", true)

	batch, err := s.service.BatchSearch(ctx, queries, topK, mode, useCache)
	if err != nil {
		return nil, searchError(err)
	}

	results := make([]map[string]interface{}, len(batch.Results))
	for i, r := range batch.Results {
		results[i] = searchResponseMap(r)
	}
	response := map[string]interface{}{
		"results":        results,
		"cache_hits":     batch.CacheHits,
		"cache_hit_rate": batch.CacheHitRate,
		"duration_ms":    batch.Duration.Milliseconds(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleWarmupCache handles the warmup_cache tool invocation
func (s *Server) handleWarmupCache(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	queries, err := getStringSlice(args, "queries")
	if err != nil {
		return nil, err
	}

	topK, mode, err := s.searchParams(args)
	if err != nil {
		return nil, err
	}

	result, err := s.service.WarmupCache(ctx, queries, topK, mode)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "warmup failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"warmed_count": result.WarmedCount,
		"duration_ms":  result.Duration.Milliseconds(),
		"cache_stats":  result.CacheStats,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleAddKnowledge handles the add_knowledge tool invocation
func (s *Server) handleAddKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	entry := &types.KnowledgeEntry{
		ID:       getStringDefault(args, "id", ""),
		Title:    getStringDefault(args, "title", ""),
		Content:  getStringDefault(args, "content", ""),
		Category: getStringDefault(args, "category", ""),
		Level:    getStringDefault(args, "level", ""),
	}
	for _, p := range []struct {
		name, val string
	}{{"id", entry.ID}, {"title", entry.Title}, {"content", entry.Content}} {
		if p.val == "" {
			return nil, newMCPError(ErrorCodeInvalidParams, p.name+" parameter is required", map[string]interface{}{
				"param":  p.name,
				"reason": "missing or empty",
			})
		}
	}

	if err := s.store.UpsertEntry(ctx, entry); err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to store entry", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Stored content supersedes anything previously cached for this id.
	_ = s.caches.CacheKnowledge(entry.ID, entry, 0)

	response := map[string]interface{}{
		"stored": true,
		"id":     entry.ID,
		"title":  entry.Title,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetKnowledge handles the get_knowledge tool invocation
func (s *Server) handleGetKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "id parameter is required", map[string]interface{}{
			"param":  "id",
			"reason": "missing or empty",
		})
	}

	entry, fromCache := s.caches.GetCachedKnowledge(id)
	if !fromCache {
		var err error
		entry, err = s.store.GetEntry(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, newMCPError(ErrorCodeNotFound, "knowledge entry not found", map[string]interface{}{
				"id": id,
			})
		}
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to load entry", map[string]interface{}{
				"error": err.Error(),
			})
		}
		_ = s.caches.CacheKnowledge(id, entry, 0)
	}

	response := map[string]interface{}{
		"id":         entry.ID,
		"title":      entry.Title,
		"content":    entry.Content,
		"category":   entry.Category,
		"level":      entry.Level,
		"from_cache": fromCache,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleCacheStats handles the cache_stats tool invocation
func (s *Server) handleCacheStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.service.GetCacheStats()

	response := map[string]interface{}{
		"query":      stats.Query,
		"semantic":   stats.Semantic,
		"knowledge":  stats.Knowledge,
		"total_size": stats.TotalSize,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleClearCache handles the clear_cache tool invocation
func (s *Server) handleClearCache(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.service.ClearCache()

	response := map[string]interface{}{
		"cleared": true,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// searchParams validates the top_k and mode parameters shared by the search
// tools, falling back to the configured defaults.
func (s *Server) searchParams(args map[string]interface{}) (int, types.Mode, error) {
	topK := getIntDefault(args, "top_k", s.cfg.Search.TopK)
	if topK < 1 || topK > 100 {
		return 0, "", newMCPError(ErrorCodeInvalidParams, "top_k must be between 1 and 100", map[string]interface{}{
			"param": "top_k",
			"value": topK,
		})
	}

	mode := types.Mode(getStringDefault(args, "mode", s.cfg.Search.Mode))
	if err := mode.Validate(); err != nil {
		return 0, "", newMCPError(ErrorCodeInvalidParams, "invalid mode", map[string]interface{}{
			"param":   "mode",
			"value":   string(mode),
			"allowed": []string{"keyword", "semantic", "hybrid"},
		})
	}

	return topK, mode, nil
}

// searchError maps service errors onto MCP error codes.
func searchError(err error) error {
	switch {
	case errors.Is(err, types.ErrEmptyQuery):
		return newMCPError(ErrorCodeEmptyQuery, "query cannot be empty", nil)
	case errors.Is(err, types.ErrInvalidTopK), errors.Is(err, types.ErrInvalidAlpha):
		return newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
	}
	var modeErr *types.InvalidModeError
	if errors.As(err, &modeErr) {
		return newMCPError(ErrorCodeInvalidParams, err.Error(), map[string]interface{}{
			"param": "mode",
			"value": modeErr.Mode,
		})
	}
	return newMCPError(ErrorCodeBackendFailed, "search failed", map[string]interface{}{
		"error": err.Error(),
	})
}

// searchResponseMap flattens a SearchResponse for the wire.
func searchResponseMap(resp *types.SearchResponse) map[string]interface{} {
	results := make([]map[string]interface{}, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = map[string]interface{}{
			"title":          r.Title,
			"category":       r.Category,
			"level":          r.Level,
			"keyword_score":  r.KeywordScore,
			"semantic_score": r.SemanticScore,
			"combined_score": r.CombinedScore,
			"sources":        r.Sources,
		}
	}
	return map[string]interface{}{
		"query":      resp.Query,
		"mode":       string(resp.Mode),
		"alpha":      resp.Alpha,
		"results":    results,
		"stats":      resp.Stats,
		"from_cache": resp.FromCache,
		"timing_ms": map[string]interface{}{
			"cache_lookup": resp.Timing.CacheLookup.Milliseconds(),
			"compute":      resp.Timing.Compute.Milliseconds(),
			"total":        resp.Timing.Total.Milliseconds(),
		},
	}
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getStringSlice extracts a required non-empty []string parameter.
func getStringSlice(args map[string]interface{}, key string) ([]string, error) {
	raw, ok := args[key].([]interface{})
	if !ok || len(raw) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, key+" parameter is required and cannot be empty", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	out := make([]string, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, newMCPError(ErrorCodeInvalidParams, key+" must be an array of strings", map[string]interface{}{
				"param": key,
				"index": i,
			})
		}
		out[i] = s
	}
	return out, nil
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a float parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	if val, ok := args[key].(int); ok {
		return float64(val)
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
