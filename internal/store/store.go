package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hydrolearn/knowsearch/internal/embedder"
	"github.com/hydrolearn/knowsearch/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entry doesn't exist
	ErrNotFound = errors.New("not found")
)

// Store is the SQLite-backed knowledge store. It implements both search
// ports: full-text keyword search over an FTS5 index, and semantic search
// by cosine distance over embeddings stored alongside each entry.
type Store struct {
	db       *sql.DB
	embedder embedder.Embedder
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// New creates a knowledge store at dbPath (":memory:" for tests) using emb
// to produce entry and query embeddings.
func New(dbPath string, emb embedder.Embedder) (*Store, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &Store{db: db, embedder: emb}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertEntry inserts or replaces a knowledge entry and its embedding.
// The embedding covers title and content so either can match a query.
func (s *Store) UpsertEntry(ctx context.Context, entry *types.KnowledgeEntry) error {
	if entry.ID == "" {
		return fmt.Errorf("knowledge entry requires an ID")
	}
	if entry.Title == "" {
		return fmt.Errorf("knowledge entry %q requires a title", entry.ID)
	}

	emb, err := s.embedder.Embed(ctx, entry.Title+"\n"+entry.Content)
	if err != nil {
		return fmt.Errorf("failed to embed entry %q: %w", entry.ID, err)
	}

	query := `
		INSERT INTO knowledge (id, title, content, category, level, embedding, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id)
		DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			category = excluded.category,
			level = excluded.level,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
		RETURNING created_at, updated_at
	`
	now := time.Now()
	err = s.db.QueryRowContext(ctx, query,
		entry.ID, entry.Title, entry.Content, entry.Category, entry.Level,
		serializeVector(emb.Vector), now, now,
	).Scan(&entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert entry %q: %w", entry.ID, err)
	}
	return nil
}

// GetEntry loads one knowledge entry by ID.
func (s *Store) GetEntry(ctx context.Context, id string) (*types.KnowledgeEntry, error) {
	query := `
		SELECT id, title, content, category, level, created_at, updated_at
		FROM knowledge
		WHERE id = ?
	`
	var entry types.KnowledgeEntry
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&entry.ID, &entry.Title, &entry.Content, &entry.Category, &entry.Level,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteEntry removes an entry; deleting an absent ID is a no-op.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM knowledge WHERE id = ?`, id)
	return err
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knowledge`).Scan(&count)
	return count, err
}

// SearchKeyword implements the keyword search port over the FTS5 index.
// Results come back best match first; MatchScore is the negated BM25 rank
// (FTS5 ranks are negative, lower is better), so higher is better.
func (s *Store) SearchKeyword(ctx context.Context, query string, topK int) ([]types.KeywordHit, error) {
	match := sanitizeFTSQuery(query)
	if match == "" {
		return []types.KeywordHit{}, nil
	}

	sqlQuery := `
		SELECT k.title, k.content, k.category, k.level, fts.rank
		FROM knowledge_fts fts
		JOIN knowledge k ON k.id = fts.id
		WHERE knowledge_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, sqlQuery, match, topK)
	if err != nil {
		return nil, &types.KeywordSearchError{Query: query, Err: err}
	}
	defer func() { _ = rows.Close() }()

	hits := make([]types.KeywordHit, 0, topK)
	for rows.Next() {
		var hit types.KeywordHit
		var rank float64
		if err := rows.Scan(&hit.Title, &hit.Content, &hit.Category, &hit.Level, &rank); err != nil {
			return nil, &types.KeywordSearchError{Query: query, Err: err}
		}
		hit.MatchScore = -rank
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.KeywordSearchError{Query: query, Err: err}
	}
	return hits, nil
}

// neighbor is one scored candidate in the semantic scan
type neighbor struct {
	id       string
	meta     types.SemanticMetadata
	distance float64
}

// SearchSemantic implements the semantic search port: the query is
// embedded, then compared against every stored embedding with cosine
// similarity in Go. A sequential scan is fine at this corpus size.
func (s *Store) SearchSemantic(ctx context.Context, query string, nResults int) (*types.SemanticResult, error) {
	queryEmb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &types.SemanticSearchError{Query: query, Err: fmt.Errorf("failed to embed query: %w", err)}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, category, level, embedding
		FROM knowledge
		WHERE embedding IS NOT NULL
	`)
	if err != nil {
		return nil, &types.SemanticSearchError{Query: query, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var candidates []neighbor
	for rows.Next() {
		var n neighbor
		var blob []byte
		if err := rows.Scan(&n.id, &n.meta.Title, &n.meta.Category, &n.meta.Level, &blob); err != nil {
			return nil, &types.SemanticSearchError{Query: query, Err: err}
		}
		n.distance = 1 - cosineSimilarity(queryEmb.Vector, deserializeVector(blob))
		candidates = append(candidates, n)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.SemanticSearchError{Query: query, Err: err}
	}

	// Closest first; ties broken by ID to keep the ordering deterministic
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].id < candidates[j].id
	})
	if nResults >= 0 && len(candidates) > nResults {
		candidates = candidates[:nResults]
	}

	result := &types.SemanticResult{
		IDs:       make([]string, len(candidates)),
		Metadatas: make([]types.SemanticMetadata, len(candidates)),
		Distances: make([]float64, len(candidates)),
	}
	for i, c := range candidates {
		result.IDs[i] = c.id
		result.Metadatas[i] = c.meta
		result.Distances[i] = c.distance
	}
	return result, nil
}
