// Package mcp implements the Model Context Protocol (MCP) server for knowsearch.
//
// The server exposes the knowledge search service to AI assistants over
// JSON-RPC 2.0 on stdio:
//   - search_knowledge: keyword, semantic, or hybrid search with optional filters
//   - batch_search: several queries in one call with cache hit reporting
//   - warmup_cache: pre-populate the query cache
//   - add_knowledge: insert or update a knowledge entry
//   - get_knowledge: fetch one entry by id
//   - cache_stats, clear_cache: cache introspection and reset
//
// stdout carries the protocol stream, so all logging goes to stderr.
package mcp
