// Package config loads the knowsearch service configuration from YAML
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hydrolearn/knowsearch/internal/cache"
	"github.com/hydrolearn/knowsearch/pkg/types"
)

// NamespaceConfig sizes one cache namespace. TTLSeconds of 0 keeps the
// built-in default for that namespace.
type NamespaceConfig struct {
	Capacity   int `yaml:"capacity"`
	TTLSeconds int `yaml:"ttl_seconds"`
}

// CacheConfig holds the three namespace sizings.
type CacheConfig struct {
	Query     NamespaceConfig `yaml:"query"`
	Semantic  NamespaceConfig `yaml:"semantic"`
	Knowledge NamespaceConfig `yaml:"knowledge"`
}

// SearchConfig holds per-call defaults and the hybrid failure policy.
type SearchConfig struct {
	TopK         int     `yaml:"top_k"`
	Mode         string  `yaml:"mode"`
	Alpha        float64 `yaml:"alpha"`
	StrictHybrid bool    `yaml:"strict_hybrid"`
}

// Config is the full service configuration.
type Config struct {
	StorePath          string       `yaml:"store_path"`
	MetricsAddr        string       `yaml:"metrics_addr"`
	EmbeddingCacheSize int          `yaml:"embedding_cache_size"`
	BatchWorkers       int          `yaml:"batch_workers"`
	Cache              CacheConfig  `yaml:"cache"`
	Search             SearchConfig `yaml:"search"`
}

// Default returns the standard configuration.
func Default() *Config {
	return &Config{
		StorePath:          "",
		MetricsAddr:        "",
		EmbeddingCacheSize: 10000,
		BatchWorkers:       4,
		Cache: CacheConfig{
			Query:     NamespaceConfig{Capacity: cache.DefaultQueryCapacity, TTLSeconds: int(cache.DefaultQueryTTL.Seconds())},
			Semantic:  NamespaceConfig{Capacity: cache.DefaultSemanticCapacity, TTLSeconds: int(cache.DefaultSemanticTTL.Seconds())},
			Knowledge: NamespaceConfig{Capacity: cache.DefaultKnowledgeCapacity, TTLSeconds: int(cache.DefaultKnowledgeTTL.Seconds())},
		},
		Search: SearchConfig{
			TopK:  5,
			Mode:  string(types.ModeHybrid),
			Alpha: 0.5,
		},
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv applies environment variable overrides.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("KNOWSEARCH_STORE_PATH"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("KNOWSEARCH_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("KNOWSEARCH_MODE"); v != "" {
		cfg.Search.Mode = v
	}
	if v := os.Getenv("KNOWSEARCH_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.TopK = n
		}
	}
	if v := os.Getenv("KNOWSEARCH_ALPHA"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.Alpha = f
		}
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if err := types.Mode(c.Search.Mode).Validate(); err != nil {
		return err
	}
	if c.Search.Alpha < 0 || c.Search.Alpha > 1 {
		return fmt.Errorf("search.alpha %g: %w", c.Search.Alpha, types.ErrInvalidAlpha)
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("search.top_k %d: %w", c.Search.TopK, types.ErrInvalidTopK)
	}
	for name, ns := range map[string]NamespaceConfig{
		"query": c.Cache.Query, "semantic": c.Cache.Semantic, "knowledge": c.Cache.Knowledge,
	} {
		if ns.Capacity <= 0 {
			return fmt.Errorf("cache.%s.capacity %d: %w", name, ns.Capacity, types.ErrInvalidCapacity)
		}
	}
	return nil
}

// CacheManagerConfig converts to the cache package's config shape.
func (c *Config) CacheManagerConfig() cache.Config {
	return cache.Config{
		Query:     cache.NamespaceConfig{Capacity: c.Cache.Query.Capacity, TTL: time.Duration(c.Cache.Query.TTLSeconds) * time.Second},
		Semantic:  cache.NamespaceConfig{Capacity: c.Cache.Semantic.Capacity, TTL: time.Duration(c.Cache.Semantic.TTLSeconds) * time.Second},
		Knowledge: cache.NamespaceConfig{Capacity: c.Cache.Knowledge.Capacity, TTL: time.Duration(c.Cache.Knowledge.TTLSeconds) * time.Second},
	}
}
