package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/hydrolearn/knowsearch/internal/cache"
	"github.com/hydrolearn/knowsearch/internal/config"
	"github.com/hydrolearn/knowsearch/internal/embedder"
	"github.com/hydrolearn/knowsearch/internal/search"
	"github.com/hydrolearn/knowsearch/internal/service"
	"github.com/hydrolearn/knowsearch/internal/store"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var configFile string

func main() {
	// stdout is reserved for tool output (and the MCP protocol stream under
	// serve), so all logging goes to stderr.
	log.SetOutput(os.Stderr)

	rootCmd := &cobra.Command{
		Use:   "knowsearch",
		Short: "Cached hybrid knowledge search",
		Long:  "Search a knowledge base with keyword, semantic, or rank-fusion hybrid retrieval, served through a bounded TTL+LRU cache",
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to YAML config file")
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(warmupCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("knowsearch %s\n", version)
			fmt.Printf("Build Time: %s\n", buildTime)
			fmt.Printf("SQLite Driver: %s (%s)\n", store.DriverName, store.BuildMode)
		},
	}
}

// loadConfig resolves the effective configuration: file, then environment
// overrides on top.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}
	config.LoadFromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openService builds the full search stack for one-shot commands. The
// returned close function releases the store.
func openService(cfg *config.Config) (*service.Service, *store.Store, func(), error) {
	if cfg.StorePath == "" {
		return nil, nil, nil, fmt.Errorf("store path required: set store_path in config or KNOWSEARCH_STORE_PATH")
	}

	emb := embedder.NewLocalProvider(embedder.NewCache(cfg.EmbeddingCacheSize))
	st, err := store.New(cfg.StorePath, emb)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}

	caches, err := cache.NewManager(cfg.CacheManagerConfig())
	if err != nil {
		_ = st.Close()
		return nil, nil, nil, err
	}

	var engineOpts []search.Option
	if cfg.Search.StrictHybrid {
		engineOpts = append(engineOpts, search.WithStrictHybrid())
	}
	engine := search.NewEngine(st, search.NewCachedSemanticSearcher(st, caches), engineOpts...)

	svc := service.New(engine, caches, service.WithBatchWorkers(cfg.BatchWorkers))
	return svc, st, func() { _ = st.Close() }, nil
}
