// Package embedder generates vector embeddings for knowledge text.
//
// The only built-in provider is LocalProvider, a deterministic token-hash
// embedder that needs no model download or API key. The Embedder interface
// leaves room for API-backed providers. Embeddings are cached in an LRU
// keyed by content hash, so re-embedding unchanged text is free.
package embedder
