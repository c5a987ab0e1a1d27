// Package memory implements an in-memory share.Store.
//
// This implementation is suitable for tests, development environments and
// ephemeral runs where shares do not need to survive a restart. It persists
// the same canonical bytes as the durable backends so digests are identical
// across store types.
package memory

import (
	"context"
	"sync"

	"github.com/marmos91/dittoshare/pkg/share"
)

// MemoryShareStore implements share.Store backed by process memory.
//
// Thread safety: all operations are protected by a read-write mutex, making
// the store safe for concurrent use from multiple goroutines.
type MemoryShareStore struct {
	mu sync.RWMutex

	// live maps share ID to the canonical serialized document
	live map[string][]byte

	// archived holds tombstoned documents, excluded from RetrieveAll
	archived map[string][]byte
}

// NewMemoryShareStore creates an empty in-memory share store.
func NewMemoryShareStore() *MemoryShareStore {
	return &MemoryShareStore{
		live:     make(map[string][]byte),
		archived: make(map[string][]byte),
	}
}

// Store implements share.Store.
func (s *MemoryShareStore) Store(ctx context.Context, doc *share.Doc) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", share.StoreFailure("store", err)
	}

	data, digest, err := share.EncodeDoc(doc)
	if err != nil {
		return "", share.StoreFailure("store", err)
	}

	s.mu.Lock()
	s.live[doc.ID] = data
	s.mu.Unlock()

	return digest, nil
}

// RetrieveAll implements share.Store.
func (s *MemoryShareStore) RetrieveAll(ctx context.Context) ([]share.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, share.StoreFailure("retrieve", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]share.Record, 0, len(s.live))
	for _, data := range s.live {
		doc, err := share.DecodeDoc(data)
		if err != nil {
			return nil, share.StoreFailure("retrieve", err)
		}
		recs = append(recs, share.Record{Digest: share.DigestBytes(data), Doc: doc})
	}
	return recs, nil
}

// Archive implements share.Store.
func (s *MemoryShareStore) Archive(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return share.StoreFailure("archive", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.live[id]
	if !ok {
		return &share.Error{Code: share.ErrNotFound, Message: "share " + id + " is not stored"}
	}
	s.archived[id] = data
	delete(s.live, id)
	return nil
}
