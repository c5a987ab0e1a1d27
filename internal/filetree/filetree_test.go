package filetree

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMkdirAndList(t *testing.T) {
	tree := New("/tmp/blobs")

	docs, err := tree.Mkdir(tree.Root(), "docs")
	require.NoError(t, err)
	assert.Equal(t, KindDirectory, docs.Kind)
	assert.Equal(t, tree.Root(), docs.Parent)

	pics, err := tree.Mkdir(tree.Root(), "pics")
	require.NoError(t, err)

	children, err := tree.List(tree.Root())
	require.NoError(t, err)
	assert.Len(t, children, 2)

	names := map[string]bool{}
	for _, c := range children {
		names[c.Name] = true
	}
	assert.True(t, names["docs"])
	assert.True(t, names["pics"])

	_, err = tree.List(pics.ID)
	require.NoError(t, err)
}

func TestCreateFileCarriesDigest(t *testing.T) {
	tree := New("/tmp/blobs")
	digest := "7ae472f501d01f68f0a5b05c1a72e92ea4e254f9e4a9be16c8a42aa53b9123aa"

	f, err := tree.CreateFile(tree.Root(), "photo.jpg", digest)
	require.NoError(t, err)
	assert.Equal(t, KindFile, f.Kind)
	assert.Equal(t, digest, f.Digest)
}

func TestDuplicateNameRejected(t *testing.T) {
	tree := New("/tmp/blobs")

	_, err := tree.Mkdir(tree.Root(), "docs")
	require.NoError(t, err)

	_, err = tree.Mkdir(tree.Root(), "docs")
	assert.ErrorIs(t, err, ErrNameTaken)

	_, err = tree.CreateFile(tree.Root(), "docs", "")
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestInvalidNames(t *testing.T) {
	tree := New("/tmp/blobs")

	for _, name := range []string{"", ".", "..", "a/b"} {
		_, err := tree.Mkdir(tree.Root(), name)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}
}

func TestRename(t *testing.T) {
	tree := New("/tmp/blobs")

	f, err := tree.CreateFile(tree.Root(), "old.jpg", "")
	require.NoError(t, err)

	renamed, err := tree.Rename(f.ID, "new.jpg")
	require.NoError(t, err)
	assert.Equal(t, "new.jpg", renamed.Name)
	assert.Equal(t, f.ID, renamed.ID)

	// Old name is free again.
	_, err = tree.CreateFile(tree.Root(), "old.jpg", "")
	require.NoError(t, err)
}

func TestRenameToTakenName(t *testing.T) {
	tree := New("/tmp/blobs")

	a, err := tree.CreateFile(tree.Root(), "a", "")
	require.NoError(t, err)
	_, err = tree.CreateFile(tree.Root(), "b", "")
	require.NoError(t, err)

	_, err = tree.Rename(a.ID, "b")
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestMove(t *testing.T) {
	tree := New("/tmp/blobs")

	docs, err := tree.Mkdir(tree.Root(), "docs")
	require.NoError(t, err)
	f, err := tree.CreateFile(tree.Root(), "report.pdf", "")
	require.NoError(t, err)

	moved, err := tree.Move(f.ID, docs.ID)
	require.NoError(t, err)
	assert.Equal(t, docs.ID, moved.Parent)

	rootChildren, err := tree.List(tree.Root())
	require.NoError(t, err)
	assert.Len(t, rootChildren, 1)

	docsChildren, err := tree.List(docs.ID)
	require.NoError(t, err)
	require.Len(t, docsChildren, 1)
	assert.Equal(t, "report.pdf", docsChildren[0].Name)
}

func TestMoveIntoOwnSubtreeRejected(t *testing.T) {
	tree := New("/tmp/blobs")

	outer, err := tree.Mkdir(tree.Root(), "outer")
	require.NoError(t, err)
	inner, err := tree.Mkdir(outer.ID, "inner")
	require.NoError(t, err)

	_, err = tree.Move(outer.ID, inner.ID)
	assert.ErrorIs(t, err, ErrCycle)

	_, err = tree.Move(outer.ID, outer.ID)
	assert.ErrorIs(t, err, ErrCycle)
}

func TestMoveIntoFileRejected(t *testing.T) {
	tree := New("/tmp/blobs")

	f, err := tree.CreateFile(tree.Root(), "f", "")
	require.NoError(t, err)
	d, err := tree.Mkdir(tree.Root(), "d")
	require.NoError(t, err)

	_, err = tree.Move(d.ID, f.ID)
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestRemove(t *testing.T) {
	tree := New("/tmp/blobs")

	d, err := tree.Mkdir(tree.Root(), "d")
	require.NoError(t, err)
	f, err := tree.CreateFile(d.ID, "f", "")
	require.NoError(t, err)

	// Non-empty directory refuses removal.
	err = tree.Remove(d.ID)
	assert.ErrorIs(t, err, ErrNotEmpty)

	require.NoError(t, tree.Remove(f.ID))
	require.NoError(t, tree.Remove(d.ID))
	assert.Equal(t, 1, tree.Len())

	err = tree.Remove(f.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRootIsProtected(t *testing.T) {
	tree := New("/tmp/blobs")

	_, err := tree.Rename(tree.Root(), "x")
	assert.Error(t, err)

	sub, err := tree.Mkdir(tree.Root(), "sub")
	require.NoError(t, err)
	_, err = tree.Move(tree.Root(), sub.ID)
	assert.Error(t, err)

	assert.Error(t, tree.Remove(tree.Root()))
}

func TestBlobPath(t *testing.T) {
	tree := New("/var/lib/dittoshare/blobs")
	digest := "abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789"

	want := filepath.Join("/var/lib/dittoshare/blobs", "ab", digest)
	assert.Equal(t, want, tree.BlobPath(digest))

	// Short input must not panic.
	assert.Equal(t, filepath.Join("/var/lib/dittoshare/blobs", "a"), tree.BlobPath("a"))
	assert.Equal(t, "/var/lib/dittoshare/blobs", tree.BlobPath(""))
}
