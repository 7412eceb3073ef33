package cache

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hydrolearn/knowsearch/pkg/types"
)

// Key is a derived cache key: the sha256 digest of a type-tagged,
// order-preserving serialization of the call arguments.
type Key [32]byte

// Namespace names one of the manager's caches.
type Namespace string

const (
	NamespaceQuery     Namespace = "query"
	NamespaceSemantic  Namespace = "semantic"
	NamespaceKnowledge Namespace = "knowledge"
)

// Default per-namespace sizing. Query results churn fastest, knowledge
// content is the most stable.
const (
	DefaultQueryCapacity     = 200
	DefaultSemanticCapacity  = 100
	DefaultKnowledgeCapacity = 50

	DefaultQueryTTL     = time.Hour
	DefaultSemanticTTL  = 2 * time.Hour
	DefaultKnowledgeTTL = 24 * time.Hour
)

// NamespaceConfig sizes one cache namespace.
type NamespaceConfig struct {
	Capacity int
	TTL      time.Duration
}

// Config configures all three namespaces.
type Config struct {
	Query     NamespaceConfig
	Semantic  NamespaceConfig
	Knowledge NamespaceConfig
}

// DefaultConfig returns the standard namespace sizing.
func DefaultConfig() Config {
	return Config{
		Query:     NamespaceConfig{Capacity: DefaultQueryCapacity, TTL: DefaultQueryTTL},
		Semantic:  NamespaceConfig{Capacity: DefaultSemanticCapacity, TTL: DefaultSemanticTTL},
		Knowledge: NamespaceConfig{Capacity: DefaultKnowledgeCapacity, TTL: DefaultKnowledgeTTL},
	}
}

// ManagerStats aggregates per-namespace stats.
type ManagerStats struct {
	Query     Stats `json:"query"`
	Semantic  Stats `json:"semantic"`
	Knowledge Stats `json:"knowledge"`
	TotalSize int   `json:"total_size"`
}

// Manager owns the three cache namespaces used by the search service:
// fused query results, raw semantic backend results, and knowledge content.
// Each namespace has its own capacity and default TTL.
type Manager struct {
	query     *Cache[Key, *types.SearchResponse]
	semantic  *Cache[Key, *types.SemanticResult]
	knowledge *Cache[Key, *types.KnowledgeEntry]

	queryTTL     time.Duration
	semanticTTL  time.Duration
	knowledgeTTL time.Duration
}

// NewManager creates a Manager with the given namespace sizing.
func NewManager(cfg Config) (*Manager, error) {
	queryCache, err := New[Key, *types.SearchResponse](cfg.Query.Capacity)
	if err != nil {
		return nil, fmt.Errorf("query namespace: %w", err)
	}
	semanticCache, err := New[Key, *types.SemanticResult](cfg.Semantic.Capacity)
	if err != nil {
		return nil, fmt.Errorf("semantic namespace: %w", err)
	}
	knowledgeCache, err := New[Key, *types.KnowledgeEntry](cfg.Knowledge.Capacity)
	if err != nil {
		return nil, fmt.Errorf("knowledge namespace: %w", err)
	}

	return &Manager{
		query:        queryCache,
		semantic:     semanticCache,
		knowledge:    knowledgeCache,
		queryTTL:     cfg.Query.TTL,
		semanticTTL:  cfg.Semantic.TTL,
		knowledgeTTL: cfg.Knowledge.TTL,
	}, nil
}

// DeriveKey produces a stable key for an ordered argument tuple. Each part
// is serialized with a type tag so that, e.g., int(1) and "1" cannot
// collide, and the serialization is hashed with sha256. Equal tuples in
// equal order always derive the same key; order matters.
func DeriveKey(ns Namespace, parts ...any) (Key, error) {
	var b strings.Builder
	b.WriteString(string(ns))

	for _, part := range parts {
		b.WriteByte('|')
		switch v := part.(type) {
		case string:
			b.WriteString("s:")
			b.WriteString(v)
		case int:
			b.WriteString("i:")
			b.WriteString(strconv.Itoa(v))
		case int64:
			b.WriteString("i:")
			b.WriteString(strconv.FormatInt(v, 10))
		case float64:
			b.WriteString("f:")
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		case bool:
			b.WriteString("b:")
			b.WriteString(strconv.FormatBool(v))
		case time.Duration:
			b.WriteString("d:")
			b.WriteString(v.String())
		case types.Mode:
			b.WriteString("m:")
			b.WriteString(string(v))
		case fmt.Stringer:
			b.WriteString("t:")
			b.WriteString(v.String())
		default:
			return Key{}, &types.CacheError{
				Namespace: string(ns),
				Err:       fmt.Errorf("unsupported key component type %T", part),
			}
		}
	}

	return sha256.Sum256([]byte(b.String())), nil
}

// CacheQuery stores a fused search response. A ttl <= 0 uses the namespace
// default. The response is cloned before storing so later caller mutation
// cannot corrupt the cached copy.
func (m *Manager) CacheQuery(query string, mode types.Mode, topK int, resp *types.SearchResponse, ttl time.Duration) error {
	key, err := DeriveKey(NamespaceQuery, query, mode, topK)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = m.queryTTL
	}
	m.query.Put(key, resp.Clone(), ttl)
	return nil
}

// GetCachedQuery looks up a fused search response. The returned response is
// a clone owned by the caller.
func (m *Manager) GetCachedQuery(query string, mode types.Mode, topK int) (*types.SearchResponse, bool) {
	key, err := DeriveKey(NamespaceQuery, query, mode, topK)
	if err != nil {
		return nil, false
	}
	resp, ok := m.query.Get(key)
	if !ok {
		return nil, false
	}
	return resp.Clone(), true
}

// CacheQueryKey stores a response under a pre-derived key. Used by callers
// whose key encodes extra dimensions (e.g. category/level filters).
func (m *Manager) CacheQueryKey(key Key, resp *types.SearchResponse, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.queryTTL
	}
	m.query.Put(key, resp.Clone(), ttl)
}

// GetCachedQueryKey looks up a response by pre-derived key.
func (m *Manager) GetCachedQueryKey(key Key) (*types.SearchResponse, bool) {
	resp, ok := m.query.Get(key)
	if !ok {
		return nil, false
	}
	return resp.Clone(), true
}

// CacheSemantic stores a raw semantic backend result. Cloned on store so
// later caller mutation cannot corrupt the cached copy.
func (m *Manager) CacheSemantic(query string, nResults int, result *types.SemanticResult, ttl time.Duration) error {
	key, err := DeriveKey(NamespaceSemantic, query, nResults)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = m.semanticTTL
	}
	m.semantic.Put(key, result.Clone(), ttl)
	return nil
}

// GetCachedSemantic looks up a raw semantic backend result.
func (m *Manager) GetCachedSemantic(query string, nResults int) (*types.SemanticResult, bool) {
	key, err := DeriveKey(NamespaceSemantic, query, nResults)
	if err != nil {
		return nil, false
	}
	result, ok := m.semantic.Get(key)
	if !ok {
		return nil, false
	}
	return result.Clone(), true
}

// CacheKnowledge stores knowledge content by ID. Cloned on store, same as
// the other namespaces.
func (m *Manager) CacheKnowledge(id string, entry *types.KnowledgeEntry, ttl time.Duration) error {
	key, err := DeriveKey(NamespaceKnowledge, id)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = m.knowledgeTTL
	}
	m.knowledge.Put(key, entry.Clone(), ttl)
	return nil
}

// GetCachedKnowledge looks up knowledge content by ID.
func (m *Manager) GetCachedKnowledge(id string) (*types.KnowledgeEntry, bool) {
	key, err := DeriveKey(NamespaceKnowledge, id)
	if err != nil {
		return nil, false
	}
	entry, ok := m.knowledge.Get(key)
	if !ok {
		return nil, false
	}
	return entry.Clone(), true
}

// ClearAll empties every namespace and resets all counters.
func (m *Manager) ClearAll() {
	m.query.Clear()
	m.semantic.Clear()
	m.knowledge.Clear()
}

// Stats returns per-namespace stats plus the aggregate entry count.
func (m *Manager) Stats() ManagerStats {
	s := ManagerStats{
		Query:     m.query.Stats(),
		Semantic:  m.semantic.Stats(),
		Knowledge: m.knowledge.Stats(),
	}
	s.TotalSize = s.Query.Size + s.Semantic.Size + s.Knowledge.Size
	return s
}
