package embedding

import "context"

// BatchFunc is a caller-supplied embedding function. It must return one
// vector per input text, in input order, or an error.
type BatchFunc func(ctx context.Context, texts []string) ([][]float32, error)

// FuncEmbedder adapts a BatchFunc to the Embedder port, letting callers
// swap in their own provider without implementing the full interface.
type FuncEmbedder struct {
	fn        BatchFunc
	dimension int
	name      string
}

func NewFuncEmbedder(fn BatchFunc, dimension int, name string) *FuncEmbedder {
	if name == "" {
		name = "custom"
	}
	return &FuncEmbedder{fn: fn, dimension: dimension, name: name}
}

func (e *FuncEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.fn(ctx, texts)
}

func (e *FuncEmbedder) Dimension() int {
	return e.dimension
}

func (e *FuncEmbedder) ModelName() string {
	return e.name
}
