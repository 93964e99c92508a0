package port

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// EmbedBatch generates embeddings for the given texts.
	// Returns one vector per input text, in input order. Implementations
	// must fail rather than silently truncate a batch they cannot process.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}
