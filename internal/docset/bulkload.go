package docset

import (
	"context"
	"sync"
)

// BulkLoadSession suspends eviction while a large corpus is seeded, so the
// set is not scanned and sorted after every intermediate insert. Closing the
// session resumes eviction and immediately runs a catch-up pass; the scoped
// form guarantees the suspension cannot be left on by omission.
type BulkLoadSession struct {
	m    *Manager
	once sync.Once
}

// BeginBulkLoad opens a session. Sessions nest; eviction resumes when the
// last one closes.
func (m *Manager) BeginBulkLoad() *BulkLoadSession {
	m.bulkLoads++
	return &BulkLoadSession{m: m}
}

// Close resumes eviction and, if this was the last open session, runs the
// deferred eviction pass and persists any removals. Safe to call twice.
func (s *BulkLoadSession) Close(ctx context.Context) {
	s.once.Do(func() {
		s.m.bulkLoads--
		if s.m.bulkLoads > 0 {
			return
		}
		if s.m.Evict() > 0 {
			s.m.Persist(ctx)
		}
	})
}
