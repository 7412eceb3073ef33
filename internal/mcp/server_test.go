package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrolearn/knowsearch/internal/config"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.StorePath = filepath.Join(t.TempDir(), "knowsearch.db")

	s, err := NewServer(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) (map[string]interface{}, error) {
	t.Helper()

	var req mcp.CallToolRequest
	req.Params.Arguments = args

	result, err := handler(context.Background(), req)
	if err != nil {
		return nil, err
	}
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	return payload, nil
}

func addEntry(t *testing.T, s *Server, id, title, content, category, level string) {
	t.Helper()
	payload, err := callTool(t, s.handleAddKnowledge, map[string]interface{}{
		"id": id, "title": title, "content": content, "category": category, "level": level,
	})
	require.NoError(t, err)
	assert.Equal(t, true, payload["stored"])
}

func TestNewServerWiresComponents(t *testing.T) {
	s := setupTestServer(t)

	assert.NotNil(t, s.mcp)
	assert.NotNil(t, s.store)
	assert.NotNil(t, s.service)
	assert.NotNil(t, s.caches)
}

func TestAddAndGetKnowledge(t *testing.T) {
	s := setupTestServer(t)
	addEntry(t, s, "kn-1", "Darcy's law", "Groundwater discharge proportional to hydraulic gradient.", "groundwater", "beginner")

	// add_knowledge primes the knowledge cache
	payload, err := callTool(t, s.handleGetKnowledge, map[string]interface{}{"id": "kn-1"})
	require.NoError(t, err)
	assert.Equal(t, "Darcy's law", payload["title"])
	assert.Equal(t, true, payload["from_cache"])

	_, err = callTool(t, s.handleClearCache, nil)
	require.NoError(t, err)

	payload, err = callTool(t, s.handleGetKnowledge, map[string]interface{}{"id": "kn-1"})
	require.NoError(t, err)
	assert.Equal(t, false, payload["from_cache"])
}

func TestGetKnowledgeNotFound(t *testing.T) {
	s := setupTestServer(t)

	_, err := callTool(t, s.handleGetKnowledge, map[string]interface{}{"id": "missing"})
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeNotFound, mcpErr.Code)
}

func TestSearchKnowledgeEndToEnd(t *testing.T) {
	s := setupTestServer(t)
	addEntry(t, s, "kn-1", "Manning equation", "Uniform open channel flow velocity from roughness and slope.", "hydraulics", "intermediate")
	addEntry(t, s, "kn-2", "Unit hydrograph", "Rainfall-runoff response of a catchment.", "hydrology", "beginner")

	args := map[string]interface{}{
		"query": "open channel flow",
		"mode":  "keyword",
		"top_k": float64(3),
	}
	payload, err := callTool(t, s.handleSearchKnowledge, args)
	require.NoError(t, err)
	assert.Equal(t, false, payload["from_cache"])
	results, ok := payload["results"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, results)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "Manning equation", first["title"])

	// Second identical call is answered from the query cache.
	payload, err = callTool(t, s.handleSearchKnowledge, args)
	require.NoError(t, err)
	assert.Equal(t, true, payload["from_cache"])
}

func TestSearchKnowledgeValidation(t *testing.T) {
	s := setupTestServer(t)

	_, err := callTool(t, s.handleSearchKnowledge, map[string]interface{}{})
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeEmptyQuery, mcpErr.Code)

	_, err = callTool(t, s.handleSearchKnowledge, map[string]interface{}{"query": "x", "mode": "fuzzy"})
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)

	_, err = callTool(t, s.handleSearchKnowledge, map[string]interface{}{"query": "x", "top_k": float64(500)})
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)

	_, err = callTool(t, s.handleSearchKnowledge, map[string]interface{}{"query": "x", "alpha": 1.5})
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestBatchSearchReportsHitRate(t *testing.T) {
	s := setupTestServer(t)
	addEntry(t, s, "kn-1", "Sharp-crested weirs", "Discharge measurement over weirs in open channels.", "hydraulics", "advanced")

	// Prime the cache with one of the two queries.
	_, err := callTool(t, s.handleSearchKnowledge, map[string]interface{}{"query": "weirs", "mode": "keyword"})
	require.NoError(t, err)

	payload, err := callTool(t, s.handleBatchSearch, map[string]interface{}{
		"queries": []interface{}{"weirs", "discharge"},
		"mode":    "keyword",
	})
	require.NoError(t, err)
	assert.Equal(t, float64(1), payload["cache_hits"])
	assert.Equal(t, 0.5, payload["cache_hit_rate"])

	_, err = callTool(t, s.handleBatchSearch, map[string]interface{}{"queries": []interface{}{}})
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestWarmupCache(t *testing.T) {
	s := setupTestServer(t)
	addEntry(t, s, "kn-1", "Evapotranspiration", "Water loss from soil and vegetation to the atmosphere.", "hydrology", "beginner")

	payload, err := callTool(t, s.handleWarmupCache, map[string]interface{}{
		"queries": []interface{}{"evapotranspiration", "soil water"},
		"mode":    "keyword",
	})
	require.NoError(t, err)
	assert.Equal(t, float64(2), payload["warmed_count"])

	stats, err := callTool(t, s.handleCacheStats, nil)
	require.NoError(t, err)
	query, ok := stats["query"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), query["size"])
}
