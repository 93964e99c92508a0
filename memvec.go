// Package memvec is an embedded vector store for short text documents. It
// persists documents with their embeddings in a local BoltDB file, answers
// exact nearest-neighbor queries by linear-scan cosine similarity, and keeps
// the set under a serialized-size budget with usage-aware eviction (fewest
// hits first, oldest first among ties).
//
// The store assumes a single logical writer: mutating calls are serialized
// internally, but the design targets single-user local storage, not
// multi-writer coordination.
package memvec

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"memvec/config"
	"memvec/internal/adapter/embedding"
	"memvec/internal/adapter/store"
	"memvec/internal/docset"
	"memvec/internal/domain"
	"memvec/internal/port"
	"memvec/internal/similarity"
)

// Re-exported types forming the public API surface.
type (
	Document       = domain.Document
	Embedding      = domain.Embedding
	Query          = domain.Query
	FilterFunc     = domain.FilterFunc
	SearchResult   = domain.SearchResult
	SearchResponse = domain.SearchResponse
	QueryEcho      = domain.QueryEcho
	Embedder       = port.Embedder
	DocumentStore  = port.DocumentStore
)

// DefaultK is the result cap used when a query does not set K.
const DefaultK = domain.DefaultK

// Store composes the embedding provider, the document set manager and the
// persistence backend behind add/search/delete operations.
type Store struct {
	mu       sync.Mutex
	embedder Embedder
	backend  DocumentStore
	set      *docset.Manager
	logger   *slog.Logger
}

// Open builds a ready store: it resolves the embedding provider, opens the
// persistence backend, hydrates the in-memory set and applies one eviction
// pass. Returns ErrNotConfigured when no API key is available and no custom
// embedder was supplied; no inert store object is ever returned.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Store, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.Logging.SlogLevel(),
		}))
	}

	embedder := o.embedder
	if embedder == nil {
		apiKey := cfg.Embedding.APIKey()
		if apiKey == "" {
			return nil, ErrNotConfigured
		}
		var err error
		embedder, err = embedding.NewOpenAIEmbedder(apiKey, cfg.Embedding.Model, cfg.Embedding.BaseURL, cfg.Embedding.Dimension)
		if err != nil {
			return nil, fmt.Errorf("configure embedder: %w", err)
		}
	}

	backend := o.backend
	if backend == nil {
		if dir := filepath.Dir(cfg.Store.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create store directory: %w", err)
			}
		}
		var err error
		backend, err = store.NewBoltStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open backend: %w", err)
		}
	}

	set := docset.NewManager(embedder, backend, cfg.Store.MaxStoredSizeBytes(), logger)
	if err := set.Hydrate(ctx); err != nil {
		backend.Close()
		return nil, err
	}

	logger.Info("store ready",
		"documents", set.Len(),
		"model", embedder.ModelName(),
		"max_size_mb", cfg.Store.MaxStoredSizeMB,
	)

	return &Store{
		embedder: embedder,
		backend:  backend,
		set:      set,
		logger:   logger,
	}, nil
}

// AddText inserts a single text. A nil document with a nil error means the
// text was a duplicate or empty and was dropped; callers check for absence
// rather than an error.
func (s *Store) AddText(ctx context.Context, text string, metadata map[string]any) (*Document, error) {
	docs, err := s.AddTexts(ctx, []string{text}, []map[string]any{metadata})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// AddTexts embeds and inserts the texts that survive deduplication,
// pairing texts[i] with metadatas[i]. Returns ErrLengthMismatch when the
// slices differ in length. Dropped texts are simply absent from the result.
func (s *Store) AddTexts(ctx context.Context, texts []string, metadatas []map[string]any) ([]*Document, error) {
	if len(texts) != len(metadatas) {
		return nil, fmt.Errorf("%w: %d texts, %d metadatas", ErrLengthMismatch, len(texts), len(metadatas))
	}

	candidates := make([]domain.Candidate, len(texts))
	for i, text := range texts {
		candidates[i] = domain.Candidate{Text: text, Metadata: metadatas[i]}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.InsertBatch(ctx, candidates)
}

// SimilaritySearch embeds the query text, scores every document matching
// the filter, and returns the top K by descending score (stable for ties).
// Hit counters of returned documents are incremented and the set is
// persisted. Unless Query.IncludeValues is set, returned documents carry no
// embedding. The response always echoes the query text and its embedding.
func (s *Store) SimilaritySearch(ctx context.Context, q Query) (*SearchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vectors, err := s.embedder.EmbedBatch(ctx, []string{q.Text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for the query", len(vectors))
	}
	queryEmb := similarity.NewEmbedding(vectors[0])

	type scoredDoc struct {
		doc   *domain.Document
		score float64
	}

	docs := s.set.Filter(q.Filter)
	scored := make([]scoredDoc, 0, len(docs))
	for _, d := range docs {
		score, err := similarity.Score(d.Embedding, queryEmb)
		if err != nil {
			return nil, err
		}
		scored = append(scored, scoredDoc{doc: d, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	k := q.K
	if k <= 0 {
		k = DefaultK
	}
	if k > len(scored) {
		k = len(scored)
	}
	top := scored[:k]

	if len(top) > 0 {
		matched := make([]*domain.Document, len(top))
		for i, sd := range top {
			matched[i] = sd.doc
		}
		s.set.RecordHits(matched)
		s.set.Evict()
		s.set.Persist(ctx)
	}

	results := make([]SearchResult, len(top))
	for i, sd := range top {
		doc := *sd.doc
		if !q.IncludeValues {
			doc.Embedding = Embedding{}
		}
		results[i] = SearchResult{Document: doc, Score: sd.score}
	}

	return &SearchResponse{
		Results: results,
		Query:   QueryEcho{Text: q.Text, Embedding: queryEmb},
	}, nil
}

// DeleteByMetadataValue removes every document whose metadata contains the
// given value in any field, then persists. Returns the number removed.
func (s *Store) DeleteByMetadataValue(ctx context.Context, value any) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.set.RemoveByMetadataValue(value)
	s.set.Persist(ctx)
	return removed, nil
}

// BulkLoadSession suspends eviction while seeding a large corpus. Eviction
// resumes, with an immediate catch-up pass, when the session is closed.
type BulkLoadSession struct {
	s     *Store
	inner *docset.BulkLoadSession
}

// BeginBulkLoad opens a bulk-load session.
func (s *Store) BeginBulkLoad() *BulkLoadSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &BulkLoadSession{s: s, inner: s.set.BeginBulkLoad()}
}

// Close resumes eviction, runs the deferred pass and persists any removals.
// Safe to call twice.
func (b *BulkLoadSession) Close(ctx context.Context) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	b.inner.Close(ctx)
}

// Count returns the number of live documents.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Len()
}

// Size returns the serialized byte size of the live set, the measure the
// eviction policy budgets against.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Size()
}

// Close releases the persistence backend.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Close()
}
