// Package share implements the media share document model and its in-memory
// collection manager.
//
// A share document is a content-addressed, versioned record describing a media
// share: the actor that created it, the actors allowed to write (maintainers)
// or read (viewers) it, optional album metadata, and the ordered list of
// content digests it references.
//
// Documents are immutable values. Every accepted mutation replaces the whole
// document with a new value carrying the same ID, produced by the pure
// functions in factory.go. The stateful Collection indexes the current
// document per ID, serializes mutation per ID, persists through a Store and
// notifies subscribers of lifecycle events.
package share

// Document schema discriminator and forward-compatibility tag. Producers
// always stamp both; consumers must tolerate unknown fields.
const (
	DocType    = "mediashare"
	DocVersion = "1.0"
)

// Doc is a media share document.
//
// Doc values are immutable once returned by CreateDoc or UpdateDoc. Callers
// must never modify a Doc or any of its slices in place; UpdateDoc relies on
// pointer identity to signal "nothing changed".
type Doc struct {
	// DocType is the schema discriminator, always "mediashare"
	DocType string `json:"docType"`

	// Version is the schema version tag, always "1.0"
	Version string `json:"version"`

	// ID uniquely identifies the share. Assigned once at creation, never reused.
	ID string `json:"id"`

	// Author is the UUID of the creating actor.
	// The author is never listed in Maintainers or Viewers.
	Author string `json:"author"`

	// Maintainers lists actor UUIDs with write access to Contents.
	// Deduplicated; disjoint from Viewers; excludes Author.
	Maintainers []string `json:"maintainers"`

	// Viewers lists actor UUIDs with read-only access.
	// Deduplicated; disjoint from Maintainers; excludes Author.
	Viewers []string `json:"viewers"`

	// Album is optional album metadata. nil means no album; an empty-field
	// object is never stored (it collapses to nil on update).
	Album *Album `json:"album"`

	// Sticky pins the share in client listings. Defaults to false.
	Sticky bool `json:"sticky"`

	// CreatedAt is the creation time in epoch milliseconds. Fixed at creation.
	CreatedAt int64 `json:"createdAt"`

	// ModifiedAt is the last mutation time in epoch milliseconds.
	// Monotonically non-decreasing; CreatedAt <= ModifiedAt always holds.
	ModifiedAt int64 `json:"modifiedAt"`

	// Contents is the ordered list of referenced content entries.
	// Digests are unique within the list. Non-empty at creation time;
	// later deletions may legally empty it (the share stays valid).
	Contents []ContentEntry `json:"contents"`
}

// Album holds optional title/text metadata attached to a share.
type Album struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// ContentEntry references one blob by content digest.
type ContentEntry struct {
	// Digest is the 64-character lowercase hex content hash of the blob
	Digest string `json:"digest"`

	// Creator is the UUID of the actor that contributed this entry
	Creator string `json:"creator"`

	// CreatedAt is when the entry was added, in epoch milliseconds
	CreatedAt int64 `json:"createdAt"`
}

// Record pairs a document with the content digest identifying its persisted
// bytes. Records are what the Collection indexes, returns to callers and
// carries in events. The per-document mutation lock is Collection-internal
// state and is not part of the record.
type Record struct {
	// Digest is the content digest of the document's canonical serialization
	Digest string

	// Doc is the current document value
	Doc *Doc
}
