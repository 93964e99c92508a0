package domain

import "time"

// Embedding pairs a vector with its precomputed L2 norm. It is constructed
// once at embed time and treated as immutable afterwards; the magnitude is
// never updated independently of the vector.
type Embedding struct {
	Vector    []float32 `json:"vector"`
	Magnitude float64   `json:"magnitude"`
}

// Zero reports whether the embedding has no usable direction.
func (e Embedding) Zero() bool {
	return e.Magnitude == 0
}

// Document is a stored text with its embedding and usage counters.
type Document struct {
	ID        uint64         `json:"id"`
	Text      string         `json:"text"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding Embedding      `json:"embedding"`
	CreatedAt time.Time      `json:"created_at"`
	Hits      int            `json:"hits"`
}

// Candidate is a document to be inserted, before embedding.
type Candidate struct {
	Text     string
	Metadata map[string]any
}

// FilterFunc decides whether a document's metadata matches a query filter.
type FilterFunc func(metadata map[string]any) bool

// DefaultK is the result cap used when a query does not set K.
const DefaultK = 4

// Query describes a similarity search. It is ephemeral and never persisted.
type Query struct {
	Text string
	// K caps the number of results; DefaultK when <= 0.
	K int
	// Filter restricts scoring to matching documents; nil matches all.
	Filter FilterFunc
	// IncludeValues keeps Embedding populated on returned results.
	IncludeValues bool
}

// SearchResult is a document plus its normalized similarity score in [0,1].
type SearchResult struct {
	Document
	Score float64 `json:"score"`
}

// QueryEcho returns the query text and the embedding computed for it.
type QueryEcho struct {
	Text      string    `json:"text"`
	Embedding Embedding `json:"embedding"`
}

// SearchResponse is the full result of a similarity search.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Query   QueryEcho      `json:"query"`
}
