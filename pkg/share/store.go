package share

import "context"

// Store is the durable persistence contract consumed by the Collection.
//
// Implementations live in the sibling packages badger, s3 and memory. All of
// them persist the canonical serialization produced by EncodeDoc, keyed by
// document ID, and report the content digest of those bytes.
//
// Implementations must be safe for concurrent use: the Collection serializes
// writes per document ID but writes for different IDs overlap freely.
type Store interface {
	// Store durably writes doc and returns the content digest of its
	// canonical serialization. The write must be atomic: RetrieveAll never
	// observes a partially written document.
	Store(ctx context.Context, doc *Doc) (string, error)

	// RetrieveAll returns every live (non-archived) document with its
	// digest. Called once at startup to rebuild the in-memory index; order
	// is not significant.
	RetrieveAll(ctx context.Context) ([]Record, error)

	// Archive tombstones the document so it is excluded from future
	// RetrieveAll results. Copies already held by callers stay valid.
	Archive(ctx context.Context, id string) error
}
