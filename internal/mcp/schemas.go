package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchKnowledgeTool returns the tool definition for search_knowledge
func searchKnowledgeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_knowledge",
		Description: "Search the knowledge base with keyword, semantic, or hybrid retrieval",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     5,
					"minimum":     1,
					"maximum":     100,
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "Search strategy",
					"enum":        []string{"keyword", "semantic", "hybrid"},
					"default":     "hybrid",
				},
				"alpha": map[string]interface{}{
					"type":        "number",
					"description": "Hybrid weight for the keyword backend, 0.0-1.0",
					"default":     0.5,
					"minimum":     0.0,
					"maximum":     1.0,
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Optional category substring filter",
				},
				"level": map[string]interface{}{
					"type":        "string",
					"description": "Optional exact difficulty level filter",
				},
				"use_cache": map[string]interface{}{
					"type":        "boolean",
					"description": "If false, bypass the query cache for this call",
					"default":     true,
				},
			},
			Required: []string{"query"},
		},
	}
}

// batchSearchTool returns the tool definition for batch_search
func batchSearchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "batch_search",
		Description: "Run several searches in one call and report the cache hit rate",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"queries": map[string]interface{}{
					"type":        "array",
					"description": "Queries to run, answered in the same order",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results per query (1-100)",
					"default":     5,
					"minimum":     1,
					"maximum":     100,
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "Search strategy applied to every query",
					"enum":        []string{"keyword", "semantic", "hybrid"},
					"default":     "hybrid",
				},
				"use_cache": map[string]interface{}{
					"type":        "boolean",
					"description": "If false, bypass the query cache",
					"default":     true,
				},
			},
			Required: []string{"queries"},
		},
	}
}

// warmupCacheTool returns the tool definition for warmup_cache
func warmupCacheTool() mcp.Tool {
	return mcp.Tool{
		Name:        "warmup_cache",
		Description: "Pre-populate the query cache with a list of common queries",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"queries": map[string]interface{}{
					"type":        "array",
					"description": "Queries to warm",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Result count cached per query (1-100)",
					"default":     5,
					"minimum":     1,
					"maximum":     100,
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "Search strategy used while warming",
					"enum":        []string{"keyword", "semantic", "hybrid"},
					"default":     "hybrid",
				},
			},
			Required: []string{"queries"},
		},
	}
}

// addKnowledgeTool returns the tool definition for add_knowledge
func addKnowledgeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "add_knowledge",
		Description: "Insert or update a knowledge entry, re-embedding its content",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Stable entry identifier; an existing id is overwritten",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Entry title (the deduplication identity in search results)",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Entry body text",
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Topic category, e.g. 'hydrology'",
				},
				"level": map[string]interface{}{
					"type":        "string",
					"description": "Difficulty level, e.g. 'beginner'",
				},
			},
			Required: []string{"id", "title", "content"},
		},
	}
}

// getKnowledgeTool returns the tool definition for get_knowledge
func getKnowledgeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_knowledge",
		Description: "Fetch a single knowledge entry by id, served from cache when possible",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Entry identifier",
				},
			},
			Required: []string{"id"},
		},
	}
}

// cacheStatsTool returns the tool definition for cache_stats
func cacheStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "cache_stats",
		Description: "Report size, capacity, and hit rate for each cache namespace",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// clearCacheTool returns the tool definition for clear_cache
func clearCacheTool() mcp.Tool {
	return mcp.Tool{
		Name:        "clear_cache",
		Description: "Empty every cache namespace and reset hit/miss counters",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
