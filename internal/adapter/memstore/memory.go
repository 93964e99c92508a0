// Package memstore provides an in-memory DocumentStore used by tests and
// the CLI dry-run mode. Documents are deep-copied on the way in and out so
// the mirror cannot alias the live set.
package memstore

import (
	"context"
	"sync"

	"memvec/internal/domain"
)

type MemoryStore struct {
	mu     sync.Mutex
	nextID uint64
	docs   []*domain.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadAll(ctx context.Context) ([]*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Document, len(s.docs))
	for i, d := range s.docs {
		out[i] = cloneDoc(d)
	}
	return out, nil
}

func (s *MemoryStore) Texts(ctx context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	texts := make(map[string]struct{}, len(s.docs))
	for _, d := range s.docs {
		texts[d.Text] = struct{}{}
	}
	return texts, nil
}

func (s *MemoryStore) ReplaceAll(ctx context.Context, docs []*domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		if d.ID == 0 {
			s.nextID++
			d.ID = s.nextID
		} else if d.ID > s.nextID {
			s.nextID = d.ID
		}
	}
	s.docs = make([]*domain.Document, len(docs))
	for i, d := range docs {
		s.docs[i] = cloneDoc(d)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func cloneDoc(d *domain.Document) *domain.Document {
	c := *d
	c.Embedding.Vector = append([]float32(nil), d.Embedding.Vector...)
	if d.Metadata != nil {
		c.Metadata = make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
