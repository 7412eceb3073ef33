package embedder

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

const (
	// LocalDimension is the vector size of the local provider.
	LocalDimension = 256

	// ProviderLocal identifies the local token-hash provider.
	ProviderLocal = "local"
)

// LocalProvider produces deterministic embeddings without any model or
// network dependency: each token is hashed into a bucket of a fixed-size
// vector, which is then L2-normalized. Two texts sharing vocabulary land
// near each other under cosine distance, which is enough for the semantic
// backend over small teaching corpora and keeps search fully offline.
type LocalProvider struct {
	cache *Cache
}

// NewLocalProvider creates a local token-hash embedder.
func NewLocalProvider(cache *Cache) *LocalProvider {
	return &LocalProvider{cache: cache}
}

// Embed generates the token-hash embedding for text.
func (l *LocalProvider) Embed(ctx context.Context, text string) (*Embedding, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := ComputeHash(text)
	if l.cache != nil {
		if emb, ok := l.cache.Get(hash); ok {
			return emb, nil
		}
	}

	vector := make([]float32, LocalDimension)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vector[h.Sum32()%LocalDimension]++
	}
	vector = NormalizeVector(vector)

	emb := &Embedding{
		Vector:    vector,
		Dimension: LocalDimension,
		Provider:  ProviderLocal,
		Hash:      hash,
	}
	if l.cache != nil {
		l.cache.Set(hash, emb)
	}
	return emb, nil
}

func (l *LocalProvider) Dimension() int {
	return LocalDimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

// tokenize lower-cases and splits on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
