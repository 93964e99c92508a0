package memvec

import (
	"log/slog"

	"memvec/internal/adapter/embedding"
)

type options struct {
	embedder Embedder
	backend  DocumentStore
	logger   *slog.Logger
}

// Option configures Open behavior.
type Option func(*options)

// WithEmbedder overrides the default OpenAI-compatible embedding provider.
func WithEmbedder(e Embedder) Option {
	return func(o *options) {
		o.embedder = e
	}
}

// WithEmbedFunc overrides the embedding provider with a plain batch
// function. The function must return one vector of the given dimension per
// input text, in input order.
func WithEmbedFunc(fn embedding.BatchFunc, dimension int) Option {
	return func(o *options) {
		o.embedder = embedding.NewFuncEmbedder(fn, dimension, "")
	}
}

// WithBackend overrides the default BoltDB persistence backend.
func WithBackend(b DocumentStore) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithLogger sets the structured logger. Defaults to a text handler on
// stderr at the configured level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
