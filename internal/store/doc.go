// Package store implements the SQLite-backed knowledge store and both
// search backends over it.
//
// Keyword search runs against an FTS5 index kept in sync with the
// knowledge table by triggers; query text is sanitized into quoted
// OR-joined tokens before matching. Semantic search embeds the query and
// scans stored embeddings with cosine similarity in Go, which is adequate
// for teaching-sized corpora.
//
// Two drivers are supported via build tags: mattn/go-sqlite3 with the
// sqlite_cgo tag, modernc.org/sqlite otherwise. Both builds use WAL mode
// and a single connection.
package store
