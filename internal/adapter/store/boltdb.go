package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
	"memvec/internal/domain"
)

// CurrentSchemaVersion is the storage format version. Increment on breaking
// changes to the persisted document encoding.
const CurrentSchemaVersion = 1

var (
	bucketDocuments  = []byte("documents")
	bucketMeta       = []byte("meta")
	keySchemaVersion = []byte("schema_version")
)

// BoltStore persists the document set in a local BoltDB file. Records are
// keyed by a big-endian document ID assigned from the bucket sequence, so
// identifiers stay unique across clear-and-rewrite cycles.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens or creates the store at path and verifies the schema
// version.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketDocuments); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketDocuments, err)
		}
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketMeta, err)
		}

		stored := meta.Get(keySchemaVersion)
		if stored == nil {
			var buf [8]byte
			binary.BigEndian.PutUint64(buf[:], CurrentSchemaVersion)
			return meta.Put(keySchemaVersion, buf[:])
		}
		if v := binary.BigEndian.Uint64(stored); v != CurrentSchemaVersion {
			return fmt.Errorf("unsupported schema version %d, want %d", v, CurrentSchemaVersion)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// LoadAll reads every persisted document. Corrupted records are skipped.
func (s *BoltStore) LoadAll(ctx context.Context) ([]*domain.Document, error) {
	var docs []*domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocuments).ForEach(func(k, v []byte) error {
			var doc domain.Document
			if err := json.Unmarshal(v, &doc); err != nil {
				return nil
			}
			docs = append(docs, &doc)
			return nil
		})
	})
	return docs, err
}

// Texts returns the set of persisted document texts.
func (s *BoltStore) Texts(ctx context.Context) (map[string]struct{}, error) {
	texts := make(map[string]struct{})
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocuments).ForEach(func(k, v []byte) error {
			var rec struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil
			}
			texts[rec.Text] = struct{}{}
			return nil
		})
	})
	return texts, err
}

// ReplaceAll clears the documents bucket and rewrites the given set in one
// transaction. Documents without an ID get one from the bucket sequence,
// which survives clears and never hands out the same ID twice.
func (s *BoltStore) ReplaceAll(ctx context.Context, docs []*domain.Document) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocuments)

		for _, doc := range docs {
			if doc.ID != 0 {
				continue
			}
			seq, err := b.NextSequence()
			if err != nil {
				return fmt.Errorf("failed to assign document id: %w", err)
			}
			doc.ID = seq
		}

		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
		}

		for _, doc := range docs {
			data, err := json.Marshal(doc)
			if err != nil {
				return err
			}
			if err := b.Put(itob(doc.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func itob(id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return buf[:]
}
