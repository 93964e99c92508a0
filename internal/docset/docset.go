// Package docset owns the in-memory document collection: uniqueness,
// embedding assignment, hit accounting and the size-bounded eviction policy.
package docset

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"time"

	"memvec/internal/domain"
	"memvec/internal/port"
	"memvec/internal/similarity"
)

// Manager exclusively owns the in-memory document set. It is not safe for
// concurrent use; the facade serializes access to it.
type Manager struct {
	embedder port.Embedder
	store    port.DocumentStore
	maxBytes int
	logger   *slog.Logger

	docs      []*domain.Document
	bulkLoads int
}

// NewManager creates a manager with the given eviction ceiling in bytes.
func NewManager(embedder port.Embedder, store port.DocumentStore, maxBytes int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		embedder: embedder,
		store:    store,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Hydrate loads the persisted set into memory and applies one eviction pass.
func (m *Manager) Hydrate(ctx context.Context) error {
	docs, err := m.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	m.docs = docs
	if m.Evict() > 0 {
		m.Persist(ctx)
	}
	return nil
}

// Len returns the number of live documents.
func (m *Manager) Len() int {
	return len(m.docs)
}

// Size returns the serialized byte size of the full in-memory set, the same
// measure the eviction policy uses.
func (m *Manager) Size() int {
	return m.encodedSize()
}

// Documents returns the live documents in insertion order. The returned
// slice is a copy; the documents are shared.
func (m *Manager) Documents() []*domain.Document {
	out := make([]*domain.Document, len(m.docs))
	copy(out, m.docs)
	return out
}

// Filter returns the documents whose metadata satisfies pred, order
// preserved. A nil predicate matches everything.
func (m *Manager) Filter(pred domain.FilterFunc) []*domain.Document {
	if pred == nil {
		return m.Documents()
	}
	var out []*domain.Document
	for _, d := range m.docs {
		if pred(d.Metadata) {
			out = append(out, d)
		}
	}
	return out
}

// InsertBatch embeds and appends the candidates that survive deduplication.
// Dropped are: empty or whitespace-only texts, texts already in memory,
// texts already persisted (checked once per batch), and repeats within the
// batch itself. If nothing survives the provider is never called and nothing
// is persisted. Returns the inserted documents in candidate order.
func (m *Manager) InsertBatch(ctx context.Context, candidates []domain.Candidate) ([]*domain.Document, error) {
	seen := make(map[string]struct{}, len(m.docs))
	for _, d := range m.docs {
		seen[d.Text] = struct{}{}
	}

	survivors := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		if _, dup := seen[c.Text]; dup {
			continue
		}
		seen[c.Text] = struct{}{}
		survivors = append(survivors, c)
	}
	if len(survivors) == 0 {
		return nil, nil
	}

	// One backend read per batch. Memory is authoritative, so a failed
	// read only weakens deduplication; it does not fail the insert.
	persisted, err := m.store.Texts(ctx)
	if err != nil {
		m.logger.Warn("backend duplicate check failed, using in-memory set only", "error", err)
	} else {
		kept := survivors[:0]
		for _, c := range survivors {
			if _, dup := persisted[c.Text]; dup {
				continue
			}
			kept = append(kept, c)
		}
		survivors = kept
	}
	if len(survivors) == 0 {
		return nil, nil
	}

	texts := make([]string, len(survivors))
	for i, c := range survivors {
		texts[i] = c.Text
	}
	vectors, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}

	now := time.Now()
	inserted := make([]*domain.Document, 0, len(survivors))
	for i, c := range survivors {
		doc := &domain.Document{
			Text:      c.Text,
			Metadata:  c.Metadata,
			Embedding: similarity.NewEmbedding(vectors[i]),
			CreatedAt: now,
		}
		m.docs = append(m.docs, doc)
		inserted = append(inserted, doc)
	}

	m.Evict()
	m.Persist(ctx)
	return inserted, nil
}

// RecordHits increments the hit counter of each given document, once per
// document. Documents are matched by identity, not re-looked-up.
func (m *Manager) RecordHits(docs []*domain.Document) {
	for _, d := range docs {
		d.Hits++
	}
}

// Evict removes documents while the serialized size of the set exceeds the
// ceiling: lowest hits first, oldest first among equal hits, stable for full
// ties. Returns the number of documents removed. No-op inside a bulk-load
// session.
func (m *Manager) Evict() int {
	if m.bulkLoads > 0 {
		return 0
	}
	removed := 0
	for len(m.docs) > 0 && m.encodedSize() > m.maxBytes {
		sort.SliceStable(m.docs, func(i, j int) bool {
			if m.docs[i].Hits != m.docs[j].Hits {
				return m.docs[i].Hits < m.docs[j].Hits
			}
			return m.docs[i].CreatedAt.Before(m.docs[j].CreatedAt)
		})
		m.docs = append(m.docs[:0], m.docs[1:]...)
		removed++
	}
	if removed > 0 {
		m.logger.Debug("evicted documents", "removed", removed, "remaining", len(m.docs))
	}
	return removed
}

// RemoveByMetadataValue removes every document whose metadata contains
// target among its values, in any field. Returns the number removed.
func (m *Manager) RemoveByMetadataValue(target any) int {
	kept := m.docs[:0]
	removed := 0
	for _, d := range m.docs {
		if metadataHasValue(d.Metadata, target) {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	m.docs = kept
	return removed
}

// Persist mirrors the in-memory set to the backend. Failures are logged and
// not surfaced: the in-memory mutation already happened and stands, leaving
// memory and backend divergent until the next successful save.
func (m *Manager) Persist(ctx context.Context) {
	if err := m.store.ReplaceAll(ctx, m.docs); err != nil {
		m.logger.Error("persist failed, backend lags in-memory set",
			"error", err,
			"documents", len(m.docs),
		)
	}
}

func (m *Manager) encodedSize() int {
	data, err := json.Marshal(m.docs)
	if err != nil {
		m.logger.Warn("size measurement failed, skipping eviction", "error", err)
		return 0
	}
	return len(data)
}

func metadataHasValue(meta map[string]any, target any) bool {
	for _, v := range meta {
		if reflect.DeepEqual(v, target) {
			return true
		}
	}
	return false
}
