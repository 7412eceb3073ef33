package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hydrolearn/knowsearch/internal/cache"
	"github.com/hydrolearn/knowsearch/internal/config"
	"github.com/hydrolearn/knowsearch/internal/embedder"
	"github.com/hydrolearn/knowsearch/internal/metrics"
	"github.com/hydrolearn/knowsearch/internal/search"
	"github.com/hydrolearn/knowsearch/internal/service"
	"github.com/hydrolearn/knowsearch/internal/store"
)

const (
	// ServerName is the MCP server name
	ServerName = "knowsearch"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	cfg     *config.Config
	store   *store.Store
	service *service.Service
	caches  *cache.Manager
}

// NewServer creates a new MCP server instance from a loaded configuration.
func NewServer(cfg *config.Config, m *metrics.Metrics) (*Server, error) {
	dbPath := cfg.StorePath
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir := filepath.Join(home, ".knowsearch")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dbPath = filepath.Join(dir, "knowsearch.db")
	}

	emb := embedder.NewLocalProvider(embedder.NewCache(cfg.EmbeddingCacheSize))

	st, err := store.New(dbPath, emb)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	caches, err := cache.NewManager(cfg.CacheManagerConfig())
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to initialize caches: %w", err)
	}

	var engineOpts []search.Option
	if cfg.Search.StrictHybrid {
		engineOpts = append(engineOpts, search.WithStrictHybrid())
	}
	engine := search.NewEngine(st, search.NewCachedSemanticSearcher(st, caches), engineOpts...)

	svc := service.New(engine, caches,
		service.WithMetrics(m),
		service.WithBatchWorkers(cfg.BatchWorkers),
	)

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:     mcpServer,
		cfg:     cfg,
		store:   st,
		service: svc,
		caches:  caches,
	}

	s.registerTools()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.store.Close() }()
	return server.ServeStdio(s.mcp)
}

// Close releases the underlying store without serving.
func (s *Server) Close() error {
	return s.store.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchKnowledgeTool(), s.handleSearchKnowledge)
	s.mcp.AddTool(batchSearchTool(), s.handleBatchSearch)
	s.mcp.AddTool(warmupCacheTool(), s.handleWarmupCache)
	s.mcp.AddTool(addKnowledgeTool(), s.handleAddKnowledge)
	s.mcp.AddTool(getKnowledgeTool(), s.handleGetKnowledge)
	s.mcp.AddTool(cacheStatsTool(), s.handleCacheStats)
	s.mcp.AddTool(clearCacheTool(), s.handleClearCache)
}
