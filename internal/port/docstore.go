package port

import (
	"context"

	"memvec/internal/domain"
)

// DocumentStore is the persistence backend: a local record store that
// supports reading the full document set and replacing it wholesale.
// Memory is authoritative; the backend is a mirror.
type DocumentStore interface {
	// LoadAll reads every persisted document.
	LoadAll(ctx context.Context) ([]*domain.Document, error)

	// Texts returns the set of persisted document texts. Used to
	// deduplicate an insert batch against the backend in one read.
	Texts(ctx context.Context) (map[string]struct{}, error)

	// ReplaceAll clears the store and writes the given documents inside a
	// single transaction. Documents with ID 0 are assigned a fresh,
	// never-reused identifier before the write.
	ReplaceAll(ctx context.Context, docs []*domain.Document) error

	Close() error
}
