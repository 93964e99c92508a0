package docset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"memvec/internal/domain"
	"memvec/internal/similarity"
)

type fakeEmbedder struct {
	dim   int
	calls int
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, e.dim)
		for j, r := range text {
			if j >= e.dim {
				break
			}
			v[j] = float32(r) / 1000.0
		}
		out[i] = v
	}
	return out, nil
}

func (e *fakeEmbedder) Dimension() int {
	return e.dim
}

func (e *fakeEmbedder) ModelName() string {
	return "fake"
}

type fakeStore struct {
	nextID       uint64
	docs         []*domain.Document
	replaceCalls int
	failReplace  error
	failTexts    error
}

func (s *fakeStore) LoadAll(ctx context.Context) ([]*domain.Document, error) {
	out := make([]*domain.Document, len(s.docs))
	copy(out, s.docs)
	return out, nil
}

func (s *fakeStore) Texts(ctx context.Context) (map[string]struct{}, error) {
	if s.failTexts != nil {
		return nil, s.failTexts
	}
	texts := make(map[string]struct{}, len(s.docs))
	for _, d := range s.docs {
		texts[d.Text] = struct{}{}
	}
	return texts, nil
}

func (s *fakeStore) ReplaceAll(ctx context.Context, docs []*domain.Document) error {
	s.replaceCalls++
	if s.failReplace != nil {
		return s.failReplace
	}
	for _, d := range docs {
		if d.ID == 0 {
			s.nextID++
			d.ID = s.nextID
		}
	}
	s.docs = make([]*domain.Document, len(docs))
	copy(s.docs, docs)
	return nil
}

func (s *fakeStore) Close() error { return nil }

func candidates(texts ...string) []domain.Candidate {
	out := make([]domain.Candidate, len(texts))
	for i, text := range texts {
		out[i] = domain.Candidate{Text: text}
	}
	return out
}

func newTestManager(dim, maxBytes int) (*Manager, *fakeEmbedder, *fakeStore) {
	em := &fakeEmbedder{dim: dim}
	st := &fakeStore{}
	return NewManager(em, st, maxBytes, nil), em, st
}

func TestInsertBatch_EmbedsAndAppends(t *testing.T) {
	ctx := context.Background()
	m, em, st := newTestManager(8, 1<<20)

	inserted, err := m.InsertBatch(ctx, candidates("alpha", "beta", "gamma"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inserted) != 3 {
		t.Fatalf("expected 3 inserted, got %d", len(inserted))
	}
	if em.calls != 1 {
		t.Errorf("expected 1 embedder call for the batch, got %d", em.calls)
	}
	if st.replaceCalls != 1 {
		t.Errorf("expected 1 persist, got %d", st.replaceCalls)
	}
	for _, doc := range inserted {
		if len(doc.Embedding.Vector) != 8 {
			t.Errorf("expected vector length 8, got %d", len(doc.Embedding.Vector))
		}
		if got, want := doc.Embedding.Magnitude, similarity.Magnitude(doc.Embedding.Vector); got != want {
			t.Errorf("magnitude %v does not match L2 norm %v", got, want)
		}
		if doc.ID == 0 {
			t.Error("expected backend-assigned ID")
		}
		if doc.Hits != 0 {
			t.Errorf("expected hits to start at 0, got %d", doc.Hits)
		}
		if doc.CreatedAt.IsZero() {
			t.Error("expected timestamp to be set")
		}
	}
}

func TestInsertBatch_DropsEmptyAndDuplicates(t *testing.T) {
	ctx := context.Background()
	m, em, _ := newTestManager(4, 1<<20)

	if _, err := m.InsertBatch(ctx, candidates("alpha")); err != nil {
		t.Fatal(err)
	}

	inserted, err := m.InsertBatch(ctx, candidates("", "   ", "alpha", "beta", "beta"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inserted) != 1 || inserted[0].Text != "beta" {
		t.Fatalf("expected only beta to survive, got %d docs", len(inserted))
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 live documents, got %d", m.Len())
	}
	if em.calls != 2 {
		t.Errorf("expected 2 embedder calls, got %d", em.calls)
	}
}

func TestInsertBatch_AllDroppedShortCircuits(t *testing.T) {
	ctx := context.Background()
	m, em, st := newTestManager(4, 1<<20)

	if _, err := m.InsertBatch(ctx, candidates("alpha")); err != nil {
		t.Fatal(err)
	}
	em.calls = 0
	st.replaceCalls = 0

	inserted, err := m.InsertBatch(ctx, candidates("alpha", "", "  \t "))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inserted) != 0 {
		t.Fatalf("expected no insertions, got %d", len(inserted))
	}
	if em.calls != 0 {
		t.Errorf("expected no embedder call, got %d", em.calls)
	}
	if st.replaceCalls != 0 {
		t.Errorf("expected no persist, got %d", st.replaceCalls)
	}
}

func TestInsertBatch_BackendDuplicateDropped(t *testing.T) {
	ctx := context.Background()
	em := &fakeEmbedder{dim: 4}
	st := &fakeStore{}
	if err := st.ReplaceAll(ctx, []*domain.Document{{Text: "alpha"}}); err != nil {
		t.Fatal(err)
	}

	// Fresh manager with empty memory but a backend that already holds alpha.
	m := NewManager(em, st, 1<<20, nil)
	inserted, err := m.InsertBatch(ctx, candidates("alpha"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inserted) != 0 {
		t.Fatalf("expected backend duplicate to be dropped, got %d docs", len(inserted))
	}
	if em.calls != 0 {
		t.Errorf("expected no embedder call, got %d", em.calls)
	}
}

func TestInsertBatch_BackendCheckFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	em := &fakeEmbedder{dim: 4}
	st := &fakeStore{failTexts: errors.New("disk gone")}
	m := NewManager(em, st, 1<<20, nil)

	inserted, err := m.InsertBatch(ctx, candidates("alpha"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inserted) != 1 {
		t.Fatalf("expected insert to proceed on backend read failure, got %d docs", len(inserted))
	}
}

func TestInsertBatch_PersistFailureIsSilent(t *testing.T) {
	ctx := context.Background()
	em := &fakeEmbedder{dim: 4}
	st := &fakeStore{failReplace: errors.New("tx failed")}
	m := NewManager(em, st, 1<<20, nil)

	inserted, err := m.InsertBatch(ctx, candidates("alpha"))
	if err != nil {
		t.Fatalf("persist failure must not surface, got %v", err)
	}
	if len(inserted) != 1 || m.Len() != 1 {
		t.Error("in-memory effect must stand despite persist failure")
	}
}

func TestRecordHits(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(4, 1<<20)

	inserted, err := m.InsertBatch(ctx, candidates("alpha", "beta"))
	if err != nil {
		t.Fatal(err)
	}

	m.RecordHits(inserted[:1])
	m.RecordHits(inserted[:1])
	if inserted[0].Hits != 2 {
		t.Errorf("expected 2 hits, got %d", inserted[0].Hits)
	}
	if inserted[1].Hits != 0 {
		t.Errorf("expected 0 hits, got %d", inserted[1].Hits)
	}
}

func TestFilter(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(4, 1<<20)

	_, err := m.InsertBatch(ctx, []domain.Candidate{
		{Text: "alpha", Metadata: map[string]any{"tag": "work"}},
		{Text: "beta", Metadata: map[string]any{"tag": "home"}},
		{Text: "gamma", Metadata: map[string]any{"tag": "work"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	all := m.Filter(nil)
	if len(all) != 3 {
		t.Fatalf("nil predicate should return all, got %d", len(all))
	}

	work := m.Filter(func(meta map[string]any) bool { return meta["tag"] == "work" })
	if len(work) != 2 || work[0].Text != "alpha" || work[1].Text != "gamma" {
		t.Errorf("expected [alpha gamma] in original order, got %d docs", len(work))
	}
}

func TestEvict_NoopUnderBudget(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(4, 1<<20)

	if _, err := m.InsertBatch(ctx, candidates("alpha", "beta")); err != nil {
		t.Fatal(err)
	}
	if removed := m.Evict(); removed != 0 {
		t.Errorf("expected no eviction under budget, removed %d", removed)
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 documents, got %d", m.Len())
	}
}

func TestEvict_LowestHitsOldestFirst(t *testing.T) {
	ctx := context.Background()
	em := &fakeEmbedder{dim: 4}
	st := &fakeStore{}
	m := NewManager(em, st, 1<<20, nil)

	if _, err := m.InsertBatch(ctx, candidates("alpha")); err != nil {
		t.Fatal(err)
	}
	if _, err := m.InsertBatch(ctx, candidates("beta")); err != nil {
		t.Fatal(err)
	}
	if _, err := m.InsertBatch(ctx, candidates("gamma")); err != nil {
		t.Fatal(err)
	}

	docs := m.Documents()
	m.RecordHits(docs[1:2]) // beta: 1 hit
	m.RecordHits(docs[1:2]) // beta: 2 hits
	m.RecordHits(docs[2:3]) // gamma: 1 hit
	m.Persist(ctx)

	// Ceiling that fits exactly the highest-value document. Eviction must
	// drop alpha (0 hits) first, then gamma (1 hit, older than nothing else
	// at that level), keeping beta.
	survivor, err := json.Marshal([]*domain.Document{docs[1]})
	if err != nil {
		t.Fatal(err)
	}

	m2 := NewManager(em, st, len(survivor), nil)
	if err := m2.Hydrate(ctx); err != nil {
		t.Fatal(err)
	}
	if m2.Len() != 1 {
		t.Fatalf("expected 1 survivor, got %d", m2.Len())
	}
	if got := m2.Documents()[0].Text; got != "beta" {
		t.Errorf("expected beta to survive, got %s", got)
	}
}

func TestEvict_SizeBudgetScenario(t *testing.T) {
	ctx := context.Background()
	budgetMB := 0.01
	ceiling := int(budgetMB * 1024 * 1024)
	m, _, _ := newTestManager(768, ceiling)

	texts := make([]string, 50)
	for i := range texts {
		texts[i] = fmt.Sprintf("document number %d", i)
	}
	if _, err := m.InsertBatch(ctx, candidates(texts...)); err != nil {
		t.Fatal(err)
	}

	if size := m.Size(); size > ceiling {
		t.Errorf("size %d exceeds ceiling %d after insert", size, ceiling)
	}
	if m.Len() == 0 {
		t.Fatal("expected at least one document to survive")
	}

	// All hits and timestamps are equal, so survivors must be the most
	// recently positioned candidates.
	remaining := m.Documents()
	offset := 50 - len(remaining)
	for i, doc := range remaining {
		if want := texts[offset+i]; doc.Text != want {
			t.Errorf("survivor %d = %q, want %q", i, doc.Text, want)
		}
	}
}

func TestRemoveByMetadataValue(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(4, 1<<20)

	_, err := m.InsertBatch(ctx, []domain.Candidate{
		{Text: "alpha", Metadata: map[string]any{"session": "s1"}},
		{Text: "beta", Metadata: map[string]any{"origin": "s1"}},
		{Text: "gamma", Metadata: map[string]any{"session": "s2"}},
		{Text: "delta", Metadata: map[string]any{"count": 3}},
		{Text: "epsilon"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Matches any metadata field holding the value, regardless of key.
	if removed := m.RemoveByMetadataValue("s1"); removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if removed := m.RemoveByMetadataValue(3); removed != 1 {
		t.Errorf("expected 1 removed for non-string value, got %d", removed)
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 remaining, got %d", m.Len())
	}
}

func TestBulkLoadSession(t *testing.T) {
	ctx := context.Background()
	ceiling := 200
	m, _, _ := newTestManager(32, ceiling)

	session := m.BeginBulkLoad()

	texts := make([]string, 20)
	for i := range texts {
		texts[i] = fmt.Sprintf("bulk document %d", i)
	}
	if _, err := m.InsertBatch(ctx, candidates(texts...)); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 20 {
		t.Fatalf("eviction must be suspended during bulk load, have %d docs", m.Len())
	}

	session.Close(ctx)
	if size := m.Size(); size > ceiling {
		t.Errorf("expected catch-up eviction on close, size %d > %d", size, ceiling)
	}

	// Closing again must not re-enter or panic.
	session.Close(ctx)
}

func TestBulkLoadSession_Nested(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(32, 100)

	outer := m.BeginBulkLoad()
	inner := m.BeginBulkLoad()

	if _, err := m.InsertBatch(ctx, candidates("alpha", "beta", "gamma")); err != nil {
		t.Fatal(err)
	}

	inner.Close(ctx)
	if removed := m.Evict(); removed != 0 {
		t.Errorf("eviction must stay suspended while the outer session is open, removed %d", removed)
	}

	outer.Close(ctx)
	if size := m.Size(); size > 100 {
		t.Errorf("expected eviction after last close, size %d", size)
	}
}
