package share

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	authorID = "11111111-1111-4111-8111-111111111111"
	aliceID  = "22222222-2222-4222-8222-222222222222"
	bobID    = "33333333-3333-4333-8333-333333333333"
	carolID  = "44444444-4444-4444-8444-444444444444"
)

var (
	digestA = strings.Repeat("aa", 32)
	digestB = strings.Repeat("bb", 32)
	digestC = strings.Repeat("cc", 32)
)

func mustCreate(t *testing.T, req CreateRequest) *Doc {
	t.Helper()
	doc, err := CreateDoc(authorID, req)
	require.NoError(t, err)
	return doc
}

func TestCreateDocBasics(t *testing.T) {
	doc := mustCreate(t, CreateRequest{Contents: []string{digestA}})

	assert.Equal(t, DocType, doc.DocType)
	assert.Equal(t, DocVersion, doc.Version)
	assert.True(t, IsUUID(doc.ID))
	assert.Equal(t, authorID, doc.Author)
	assert.Empty(t, doc.Maintainers)
	assert.Empty(t, doc.Viewers)
	assert.Nil(t, doc.Album)
	assert.False(t, doc.Sticky)
	assert.Equal(t, doc.CreatedAt, doc.ModifiedAt)

	require.Len(t, doc.Contents, 1)
	assert.Equal(t, digestA, doc.Contents[0].Digest)
	assert.Equal(t, authorID, doc.Contents[0].Creator)
	assert.Equal(t, doc.CreatedAt, doc.Contents[0].CreatedAt)
}

func TestCreateDocParticipantNormalization(t *testing.T) {
	doc := mustCreate(t, CreateRequest{
		// Duplicates, the author and an invalid id must all be dropped.
		Maintainers: []string{aliceID, aliceID, authorID, "not-a-uuid"},
		// bob is both maintainer and viewer; maintainer status wins.
		Viewers:  []string{bobID, aliceID, authorID},
		Contents: []string{digestA},
	})

	assert.Equal(t, []string{aliceID}, doc.Maintainers)
	assert.Equal(t, []string{bobID}, doc.Viewers)
}

func TestCreateDocContentNormalization(t *testing.T) {
	doc := mustCreate(t, CreateRequest{
		Contents: []string{digestA, "bogus", digestB, digestA},
	})

	require.Len(t, doc.Contents, 2)
	assert.Equal(t, digestA, doc.Contents[0].Digest)
	assert.Equal(t, digestB, doc.Contents[1].Digest)
}

func TestCreateDocRequiresContent(t *testing.T) {
	for _, contents := range [][]string{nil, {}, {"bogus", "also-bogus"}} {
		_, err := CreateDoc(authorID, CreateRequest{Contents: contents})
		require.Error(t, err)
		code, ok := CodeOf(err)
		require.True(t, ok)
		assert.Equal(t, ErrInvalidArgument, code)
	}
}

func TestCreateDocAlbumAndSticky(t *testing.T) {
	album := &Album{Title: "holiday", Text: "summer 2025"}
	sticky := true
	doc := mustCreate(t, CreateRequest{
		Album:    album,
		Sticky:   &sticky,
		Contents: []string{digestA},
	})

	require.NotNil(t, doc.Album)
	assert.Equal(t, "holiday", doc.Album.Title)
	assert.True(t, doc.Sticky)

	// The document owns its own copy of the album.
	album.Title = "mutated"
	assert.Equal(t, "holiday", doc.Album.Title)
}

func TestUpdateDocNoChangeReturnsSamePointer(t *testing.T) {
	doc := mustCreate(t, CreateRequest{Contents: []string{digestA}})

	assert.Same(t, doc, UpdateDoc(authorID, doc, []Operation{}))

	// Adding an already-present digest changes nothing.
	got := UpdateDoc(authorID, doc, []Operation{
		{Path: PathContents, Action: ActionAdd, Value: []string{digestA}},
	})
	assert.Same(t, doc, got)

	// Unknown paths and malformed values are silent no-ops.
	got = UpdateDoc(authorID, doc, []Operation{
		{Path: "bogus", Action: ActionAdd, Value: []string{aliceID}},
		{Path: PathSticky, Action: ActionUpdate, Value: "not-a-bool"},
	})
	assert.Same(t, doc, got)
}

func TestUpdateDocMaintainersAdd(t *testing.T) {
	doc := mustCreate(t, CreateRequest{Contents: []string{digestA}})

	got := UpdateDoc(authorID, doc, []Operation{
		{Path: PathMaintainers, Action: ActionAdd, Value: []string{aliceID, authorID, "junk"}},
	})

	require.NotSame(t, doc, got)
	assert.Equal(t, []string{aliceID}, got.Maintainers)
	assert.GreaterOrEqual(t, got.ModifiedAt, doc.ModifiedAt)
	assert.Equal(t, doc.CreatedAt, got.CreatedAt)
	// The input document is untouched.
	assert.Empty(t, doc.Maintainers)
}

func TestUpdateDocPromotionRemovesViewer(t *testing.T) {
	doc := mustCreate(t, CreateRequest{
		Viewers:  []string{aliceID, bobID},
		Contents: []string{digestA},
	})

	// A bare promotion strips the new maintainer from viewers; other
	// viewers are untouched.
	got := UpdateDoc(authorID, doc, []Operation{
		{Path: PathMaintainers, Action: ActionAdd, Value: []string{aliceID}},
	})

	assert.Equal(t, []string{aliceID}, got.Maintainers)
	assert.Equal(t, []string{bobID}, got.Viewers)

	// Promotion combined with viewers.add in the same patch keeps the
	// lists disjoint too.
	got = UpdateDoc(authorID, doc, []Operation{
		{Path: PathMaintainers, Action: ActionAdd, Value: []string{aliceID}},
		{Path: PathViewers, Action: ActionAdd, Value: []string{carolID}},
	})

	assert.Equal(t, []string{aliceID}, got.Maintainers)
	assert.Equal(t, []string{bobID, carolID}, got.Viewers)
}

func TestUpdateDocFirstMatchWins(t *testing.T) {
	doc := mustCreate(t, CreateRequest{Contents: []string{digestA}})

	got := UpdateDoc(authorID, doc, []Operation{
		{Path: PathMaintainers, Action: ActionAdd, Value: []string{aliceID}},
		{Path: PathMaintainers, Action: ActionAdd, Value: []string{bobID}},
	})

	assert.Equal(t, []string{aliceID}, got.Maintainers)
}

func TestUpdateDocMaintainerDeleteCascades(t *testing.T) {
	doc := mustCreate(t, CreateRequest{
		Maintainers: []string{aliceID},
		Contents:    []string{digestA},
	})

	// alice contributes two entries.
	doc = UpdateDoc(aliceID, doc, []Operation{
		{Path: PathContents, Action: ActionAdd, Value: []string{digestB, digestC}},
	})
	require.Len(t, doc.Contents, 3)

	// Removing alice removes every entry she contributed, not just one.
	got := UpdateDoc(authorID, doc, []Operation{
		{Path: PathMaintainers, Action: ActionDelete, Value: []string{aliceID}},
	})

	assert.Empty(t, got.Maintainers)
	require.Len(t, got.Contents, 1)
	assert.Equal(t, digestA, got.Contents[0].Digest)
	assert.Equal(t, authorID, got.Contents[0].Creator)
}

func TestUpdateDocAlbum(t *testing.T) {
	doc := mustCreate(t, CreateRequest{
		Album:    &Album{Title: "t", Text: "x"},
		Contents: []string{digestA},
	})

	// Partial update keeps the missing field.
	got := UpdateDoc(authorID, doc, []Operation{
		{Path: PathAlbum, Action: ActionUpdate, Value: map[string]any{"title": "new"}},
	})
	require.NotNil(t, got.Album)
	assert.Equal(t, "new", got.Album.Title)
	assert.Equal(t, "x", got.Album.Text)

	// Same values produce an identity no-op.
	same := UpdateDoc(authorID, got, []Operation{
		{Path: PathAlbum, Action: ActionUpdate, Value: map[string]any{"title": "new", "text": "x"}},
	})
	assert.Same(t, got, same)

	// Clearing both fields collapses the album to nil.
	cleared := UpdateDoc(authorID, got, []Operation{
		{Path: PathAlbum, Action: ActionUpdate, Value: map[string]any{"title": "", "text": ""}},
	})
	require.NotSame(t, got, cleared)
	assert.Nil(t, cleared.Album)
}

func TestUpdateDocSticky(t *testing.T) {
	doc := mustCreate(t, CreateRequest{Contents: []string{digestA}})

	got := UpdateDoc(authorID, doc, []Operation{
		{Path: PathSticky, Action: ActionUpdate, Value: true},
	})
	require.NotSame(t, doc, got)
	assert.True(t, got.Sticky)

	same := UpdateDoc(authorID, got, []Operation{
		{Path: PathSticky, Action: ActionUpdate, Value: true},
	})
	assert.Same(t, got, same)
}

func TestUpdateDocUnauthorizedOpsAreSilent(t *testing.T) {
	doc := mustCreate(t, CreateRequest{
		Maintainers: []string{aliceID},
		Viewers:     []string{bobID},
		Contents:    []string{digestA},
	})

	// A maintainer cannot touch participants, album or sticky. The whole
	// patch is a no-op, not an error.
	got := UpdateDoc(aliceID, doc, []Operation{
		{Path: PathMaintainers, Action: ActionAdd, Value: []string{carolID}},
		{Path: PathViewers, Action: ActionDelete, Value: []string{bobID}},
		{Path: PathSticky, Action: ActionUpdate, Value: true},
	})
	assert.Same(t, doc, got)

	// A maintainer may still add content in the same patch; only the
	// unauthorized operations are dropped.
	got = UpdateDoc(aliceID, doc, []Operation{
		{Path: PathSticky, Action: ActionUpdate, Value: true},
		{Path: PathContents, Action: ActionAdd, Value: []string{digestB}},
	})
	require.NotSame(t, doc, got)
	assert.False(t, got.Sticky)
	require.Len(t, got.Contents, 2)
	assert.Equal(t, aliceID, got.Contents[1].Creator)
}

func TestUpdateDocContentsDeletePermissions(t *testing.T) {
	doc := mustCreate(t, CreateRequest{
		Maintainers: []string{aliceID},
		Contents:    []string{digestA},
	})
	doc = UpdateDoc(aliceID, doc, []Operation{
		{Path: PathContents, Action: ActionAdd, Value: []string{digestB}},
	})
	require.Len(t, doc.Contents, 2)

	// A maintainer may delete only entries they contributed; the author's
	// entry survives silently.
	got := UpdateDoc(aliceID, doc, []Operation{
		{Path: PathContents, Action: ActionDelete, Value: []string{digestA, digestB}},
	})
	require.Len(t, got.Contents, 1)
	assert.Equal(t, digestA, got.Contents[0].Digest)

	// The author may delete anything.
	got = UpdateDoc(authorID, doc, []Operation{
		{Path: PathContents, Action: ActionDelete, Value: []string{digestA, digestB}},
	})
	assert.Empty(t, got.Contents)
}

func TestUpdateDocEmptyContentsRemainsValid(t *testing.T) {
	doc := mustCreate(t, CreateRequest{Contents: []string{digestA}})

	got := UpdateDoc(authorID, doc, []Operation{
		{Path: PathContents, Action: ActionDelete, Value: []string{digestA}},
	})

	require.NotSame(t, doc, got)
	assert.Empty(t, got.Contents)
	assert.Equal(t, doc.ID, got.ID)

	// The emptied document still accepts further updates.
	refilled := UpdateDoc(authorID, got, []Operation{
		{Path: PathContents, Action: ActionAdd, Value: []string{digestB}},
	})
	require.Len(t, refilled.Contents, 1)
}

func TestUpdateDocJSONShapedValues(t *testing.T) {
	doc := mustCreate(t, CreateRequest{Contents: []string{digestA}})

	// encoding/json hands the API layer []any, not []string.
	got := UpdateDoc(authorID, doc, []Operation{
		{Path: PathMaintainers, Action: ActionAdd, Value: []any{aliceID, 42, bobID}},
	})

	assert.Equal(t, []string{aliceID, bobID}, got.Maintainers)
}

func TestRoleOf(t *testing.T) {
	doc := mustCreate(t, CreateRequest{
		Maintainers: []string{aliceID},
		Viewers:     []string{bobID},
		Contents:    []string{digestA},
	})

	assert.Equal(t, RoleAuthor, RoleOf(authorID, doc))
	assert.Equal(t, RoleMaintainer, RoleOf(aliceID, doc))
	assert.Equal(t, RoleViewer, RoleOf(bobID, doc))
	assert.Equal(t, RoleNone, RoleOf(carolID, doc))
}
