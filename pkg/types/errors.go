package types

import (
	"errors"
	"fmt"
)

// Domain errors for request validation
var (
	ErrEmptyQuery      = errors.New("query cannot be empty")
	ErrInvalidTopK     = errors.New("topK must be >= 1")
	ErrInvalidAlpha    = errors.New("alpha must be between 0 and 1")
	ErrInvalidCapacity = errors.New("capacity must be a positive integer")
)

// InvalidModeError is returned when a search mode is outside the closed set.
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid search mode %q (allowed: keyword, semantic, hybrid)", e.Mode)
}

// KeywordSearchError wraps a failure from the keyword search backend.
type KeywordSearchError struct {
	Query string
	Err   error
}

func (e *KeywordSearchError) Error() string {
	return fmt.Sprintf("keyword search failed for %q: %v", e.Query, e.Err)
}

func (e *KeywordSearchError) Unwrap() error { return e.Err }

// SemanticSearchError wraps a failure from the semantic search backend.
type SemanticSearchError struct {
	Query string
	Err   error
}

func (e *SemanticSearchError) Error() string {
	return fmt.Sprintf("semantic search failed for %q: %v", e.Query, e.Err)
}

func (e *SemanticSearchError) Unwrap() error { return e.Err }

// CacheError wraps a cache-side failure (key derivation, serialization).
// Callers treat it as advisory: the cache is bypassed and the search
// recomputes, so a CacheError never surfaces to the end user.
type CacheError struct {
	Namespace string
	Err       error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error in namespace %q: %v", e.Namespace, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }
