// Package filetree provides a UUID-addressed in-memory file tree.
//
// The tree tracks directories and digest-bearing file nodes. It does not own
// the file bytes; file nodes carry the content digest and the tree resolves a
// digest to the blob location under the configured blob root. Share documents
// reference contents by digest, so the tree is the bridge between a share
// entry and a readable file on disk.
package filetree

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a node ID does not exist in the tree.
	ErrNotFound = errors.New("node not found")

	// ErrNotDirectory is returned when a directory operation targets a file.
	ErrNotDirectory = errors.New("node is not a directory")

	// ErrNameTaken is returned when a sibling with the same name exists.
	ErrNameTaken = errors.New("name already taken")

	// ErrNotEmpty is returned when removing a directory that has children.
	ErrNotEmpty = errors.New("directory not empty")

	// ErrInvalidName is returned for empty names or names containing a slash.
	ErrInvalidName = errors.New("invalid node name")

	// ErrCycle is returned when a move would place a directory under itself.
	ErrCycle = errors.New("move would create a cycle")
)

// Kind discriminates tree nodes.
type Kind int

const (
	KindDirectory Kind = iota
	KindFile
)

func (k Kind) String() string {
	if k == KindFile {
		return "file"
	}
	return "directory"
}

// Node is a snapshot of one tree node. Returned by value; mutating it does
// not affect the tree.
type Node struct {
	ID     string
	Parent string
	Name   string
	Kind   Kind

	// Digest is the content digest for file nodes, empty for directories.
	Digest string
}

type node struct {
	Node
	children map[string]*node // keyed by name
}

// Tree is an in-memory file tree rooted at a single directory node.
//
// Thread safety: all operations are protected by a read-write mutex.
type Tree struct {
	mu       sync.RWMutex
	blobRoot string
	nodes    map[string]*node
	root     *node
}

// New creates an empty tree. blobRoot is the directory under which content
// blobs live, used by BlobPath.
func New(blobRoot string) *Tree {
	root := &node{
		Node:     Node{ID: uuid.NewString(), Kind: KindDirectory},
		children: make(map[string]*node),
	}
	return &Tree{
		blobRoot: blobRoot,
		nodes:    map[string]*node{root.ID: root},
		root:     root,
	}
}

// Root returns the ID of the root directory.
func (t *Tree) Root() string {
	return t.root.ID
}

// BlobPath resolves a content digest to its blob location on disk. The blob
// layout fans out on the first two hex characters to keep directory sizes
// bounded. Digests shorter than the fan-out width land directly under the
// blob root.
func (t *Tree) BlobPath(digest string) string {
	if len(digest) < 2 {
		return filepath.Join(t.blobRoot, digest)
	}
	return filepath.Join(t.blobRoot, digest[:2], digest)
}

// List returns the children of directory id, in unspecified order.
func (t *Tree) List(id string) ([]Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, err := t.dir(id)
	if err != nil {
		return nil, err
	}
	out := make([]Node, 0, len(n.children))
	for _, child := range n.children {
		out = append(out, child.Node)
	}
	return out, nil
}

// Get returns the node with the given id.
func (t *Tree) Get(id string) (Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, ok := t.nodes[id]
	if !ok {
		return Node{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return n.Node, nil
}

// Mkdir creates a directory named name under parent and returns it.
func (t *Tree) Mkdir(parent, name string) (Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.create(parent, name, KindDirectory, "")
}

// CreateFile creates a file node named name under parent, carrying digest.
func (t *Tree) CreateFile(parent, name, digest string) (Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.create(parent, name, KindFile, digest)
}

// Rename changes the name of node id within its current directory.
func (t *Tree) Rename(id, name string) (Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !validName(name) {
		return Node{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	n, ok := t.nodes[id]
	if !ok {
		return Node{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if n == t.root {
		return Node{}, fmt.Errorf("%w: cannot rename root", ErrInvalidName)
	}
	if n.Name == name {
		return n.Node, nil
	}

	parent := t.nodes[n.Parent]
	if _, taken := parent.children[name]; taken {
		return Node{}, fmt.Errorf("%w: %q", ErrNameTaken, name)
	}
	delete(parent.children, n.Name)
	n.Name = name
	parent.children[name] = n
	return n.Node, nil
}

// Move reparents node id under directory newParent, keeping its name.
func (t *Tree) Move(id, newParent string) (Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[id]
	if !ok {
		return Node{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if n == t.root {
		return Node{}, fmt.Errorf("%w: cannot move root", ErrInvalidName)
	}
	dst, err := t.dir(newParent)
	if err != nil {
		return Node{}, err
	}
	if _, taken := dst.children[n.Name]; taken && dst.children[n.Name] != n {
		return Node{}, fmt.Errorf("%w: %q", ErrNameTaken, n.Name)
	}

	// Walk up from the destination; hitting the moved node means the move
	// would detach a subtree into itself.
	for cur := dst; cur != nil; cur = t.nodes[cur.Parent] {
		if cur == n {
			return Node{}, ErrCycle
		}
		if cur == t.root {
			break
		}
	}

	old := t.nodes[n.Parent]
	delete(old.children, n.Name)
	n.Parent = dst.ID
	dst.children[n.Name] = n
	return n.Node, nil
}

// Remove deletes node id. Directories must be empty.
func (t *Tree) Remove(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if n == t.root {
		return fmt.Errorf("%w: cannot remove root", ErrInvalidName)
	}
	if n.Kind == KindDirectory && len(n.children) > 0 {
		return fmt.Errorf("%w: %s", ErrNotEmpty, id)
	}

	delete(t.nodes[n.Parent].children, n.Name)
	delete(t.nodes, id)
	return nil
}

// Len returns the number of nodes in the tree, root included.
func (t *Tree) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

func (t *Tree) create(parent, name string, kind Kind, digest string) (Node, error) {
	if !validName(name) {
		return Node{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	p, err := t.dir(parent)
	if err != nil {
		return Node{}, err
	}
	if _, taken := p.children[name]; taken {
		return Node{}, fmt.Errorf("%w: %q", ErrNameTaken, name)
	}

	n := &node{
		Node: Node{
			ID:     uuid.NewString(),
			Parent: p.ID,
			Name:   name,
			Kind:   kind,
			Digest: digest,
		},
	}
	if kind == KindDirectory {
		n.children = make(map[string]*node)
	}
	t.nodes[n.ID] = n
	p.children[name] = n
	return n.Node, nil
}

// dir looks up id and requires it to be a directory. Callers must hold t.mu.
func (t *Tree) dir(id string) (*node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if n.Kind != KindDirectory {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, id)
	}
	return n, nil
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] == '/' || name[i] == 0 {
			return false
		}
	}
	return true
}
