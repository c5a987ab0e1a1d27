package share

import (
	"time"

	"github.com/google/uuid"
)

// CreateRequest carries the caller-supplied fields for a new share document.
//
// Pointer fields distinguish "absent" from a zero value: a nil Album means no
// album, a nil Sticky defaults to false.
type CreateRequest struct {
	Maintainers []string `json:"maintainers"`
	Viewers     []string `json:"viewers"`
	Album       *Album   `json:"album"`
	Sticky      *bool    `json:"sticky"`
	Contents    []string `json:"contents"`
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// CreateDoc builds a new share document authored by authorID.
//
// Participant lists are deduplicated, invalid identifiers are dropped, the
// author is excluded from both lists and maintainer status wins ties between
// the two. Contents keeps the valid, deduplicated digests of the request; an
// empty result is rejected with ErrInvalidArgument since a share without
// content is meaningless.
//
// CreateDoc is pure except for the fresh ID and timestamps: no I/O, no shared
// state.
func CreateDoc(authorID string, req CreateRequest) (*Doc, error) {
	maintainers := dedupeValid(req.Maintainers, IsUUID)
	maintainers, _ = subtractIDs(maintainers, []string{authorID})

	viewers := dedupeValid(req.Viewers, IsUUID)
	viewers, _ = subtractIDs(viewers, []string{authorID})
	viewers, _ = subtractIDs(viewers, maintainers)

	var album *Album
	if req.Album != nil {
		album = &Album{Title: req.Album.Title, Text: req.Album.Text}
	}

	sticky := req.Sticky != nil && *req.Sticky

	digests := dedupeValid(req.Contents, IsDigest)
	if len(digests) == 0 {
		return nil, invalidArgumentf("share must reference at least one valid content digest")
	}

	now := nowMillis()
	contents := make([]ContentEntry, 0, len(digests))
	for _, digest := range digests {
		contents = append(contents, ContentEntry{
			Digest:    digest,
			Creator:   authorID,
			CreatedAt: now,
		})
	}

	return &Doc{
		DocType:     DocType,
		Version:     DocVersion,
		ID:          uuid.NewString(),
		Author:      authorID,
		Maintainers: maintainers,
		Viewers:     viewers,
		Album:       album,
		Sticky:      sticky,
		CreatedAt:   now,
		ModifiedAt:  now,
		Contents:    contents,
	}, nil
}

// UpdateDoc applies a patch to doc on behalf of actorID and returns the
// resulting document.
//
// For each (path, action) pair only the first matching operation in ops is
// honored; later duplicates are ignored. Operations the actor lacks
// permission for are silent no-ops: participant, album and sticky mutation is
// author-only, contents mutation is open to the author and maintainers, and a
// maintainer may delete only entries they personally contributed.
//
// When no field actually differs from the input, UpdateDoc returns doc itself
// with ModifiedAt untouched. Pointer identity with the input is the caller's
// sole no-op signal. Otherwise a fresh document is returned with ModifiedAt
// bumped; the input is never modified.
func UpdateDoc(actorID string, doc *Doc, ops []Operation) *Doc {
	maintainers := doc.Maintainers
	viewers := doc.Viewers
	album := doc.Album
	sticky := doc.Sticky
	contents := doc.Contents
	changed := false
	now := nowMillis()

	if actorID == doc.Author {
		if op, ok := findOp(ops, PathMaintainers, ActionAdd); ok {
			if vals, valid := stringsValue(op.Value); valid {
				add := dedupeValid(vals, IsUUID)
				add, _ = subtractIDs(add, []string{doc.Author})
				if next, ch := unionIDs(maintainers, add); ch {
					maintainers = next
					changed = true

					// Promotion strips the new maintainer from viewers;
					// the lists stay disjoint at all times.
					if nextViewers, ch2 := subtractIDs(viewers, maintainers); ch2 {
						viewers = nextViewers
					}
				}
			}
		}

		if op, ok := findOp(ops, PathMaintainers, ActionDelete); ok {
			if vals, valid := stringsValue(op.Value); valid {
				if next, ch := subtractIDs(maintainers, dedupeValid(vals, IsUUID)); ch {
					maintainers = next
					changed = true

					// Content contributed by a removed maintainer goes with them.
					removed, _ := subtractIDs(doc.Maintainers, next)
					if pruned, ch2 := pruneByCreator(contents, removed); ch2 {
						contents = pruned
					}
				}
			}
		}

		if op, ok := findOp(ops, PathViewers, ActionAdd); ok {
			if vals, valid := stringsValue(op.Value); valid {
				add := dedupeValid(vals, IsUUID)
				add, _ = subtractIDs(add, []string{doc.Author})
				if next, ch := unionIDs(viewers, add); ch {
					viewers = next
					changed = true
				}
				// Maintainer status wins ties.
				if next, ch := subtractIDs(viewers, maintainers); ch {
					viewers = next
					changed = true
				}
			}
		}

		if op, ok := findOp(ops, PathViewers, ActionDelete); ok {
			if vals, valid := stringsValue(op.Value); valid {
				if next, ch := subtractIDs(viewers, dedupeValid(vals, IsUUID)); ch {
					viewers = next
					changed = true
				}
			}
		}

		if op, ok := findOp(ops, PathAlbum, ActionUpdate); ok {
			if title, text, valid := albumValue(op.Value); valid {
				newTitle, newText := "", ""
				if album != nil {
					newTitle, newText = album.Title, album.Text
				}
				if title != nil {
					newTitle = *title
				}
				if text != nil {
					newText = *text
				}

				var next *Album
				if newTitle != "" || newText != "" {
					next = &Album{Title: newTitle, Text: newText}
				}
				if !albumEqual(album, next) {
					album = next
					changed = true
				}
			}
		}

		if op, ok := findOp(ops, PathSticky, ActionUpdate); ok {
			if v, valid := boolValue(op.Value); valid && v != sticky {
				sticky = v
				changed = true
			}
		}
	}

	if actorID == doc.Author || containsID(doc.Maintainers, actorID) {
		if op, ok := findOp(ops, PathContents, ActionAdd); ok {
			if vals, valid := stringsValue(op.Value); valid {
				next := contents
				added := false
				for _, digest := range dedupeValid(vals, IsDigest) {
					if containsDigest(next, digest) {
						continue
					}
					if !added {
						next = append([]ContentEntry(nil), contents...)
						added = true
					}
					next = append(next, ContentEntry{
						Digest:    digest,
						Creator:   actorID,
						CreatedAt: now,
					})
				}
				if added {
					contents = next
					changed = true
				}
			}
		}

		if op, ok := findOp(ops, PathContents, ActionDelete); ok {
			if vals, valid := stringsValue(op.Value); valid {
				drop := make(map[string]struct{})
				for _, digest := range dedupeValid(vals, IsDigest) {
					drop[digest] = struct{}{}
				}

				next := make([]ContentEntry, 0, len(contents))
				for _, entry := range contents {
					_, hit := drop[entry.Digest]
					// A maintainer may delete only content they contributed.
					if hit && (actorID == doc.Author || actorID == entry.Creator) {
						continue
					}
					next = append(next, entry)
				}
				if len(next) != len(contents) {
					contents = next
					changed = true
				}
			}
		}
	}

	if !changed {
		return doc
	}

	return &Doc{
		DocType:     doc.DocType,
		Version:     doc.Version,
		ID:          doc.ID,
		Author:      doc.Author,
		Maintainers: maintainers,
		Viewers:     viewers,
		Album:       album,
		Sticky:      sticky,
		CreatedAt:   doc.CreatedAt,
		ModifiedAt:  now,
		Contents:    contents,
	}
}

func albumEqual(a, b *Album) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Title == b.Title && a.Text == b.Text
}

func containsDigest(entries []ContentEntry, digest string) bool {
	for _, e := range entries {
		if e.Digest == digest {
			return true
		}
	}
	return false
}

// pruneByCreator removes every entry contributed by one of the given
// creators, returning whether anything was removed.
func pruneByCreator(entries []ContentEntry, creators []string) ([]ContentEntry, bool) {
	if len(creators) == 0 {
		return entries, false
	}

	drop := make(map[string]struct{}, len(creators))
	for _, c := range creators {
		drop[c] = struct{}{}
	}

	out := make([]ContentEntry, 0, len(entries))
	for _, e := range entries {
		if _, hit := drop[e.Creator]; hit {
			continue
		}
		out = append(out, e)
	}
	if len(out) == len(entries) {
		return entries, false
	}
	return out, true
}
