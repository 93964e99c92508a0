package memvec

import "errors"

var (
	// ErrNotConfigured is returned by Open when neither an embedding API
	// key nor a custom embedder is supplied. The store is never handed out
	// in a degraded, operation-swallowing state.
	ErrNotConfigured = errors.New("no embedding API key or custom embedder configured")

	// ErrLengthMismatch is returned by AddTexts when texts and metadatas
	// have different lengths.
	ErrLengthMismatch = errors.New("texts and metadatas length mismatch")
)
