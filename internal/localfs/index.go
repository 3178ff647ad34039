package localfs

import (
	"bytes"
	"unsafe"

	"github.com/twmb/go-rbtree"
)

// indexEntry is an intrusive red-black tree node: key -> the byte range in
// the segment file holding that key's compressed value. Embedding
// rbtree.Node keeps the tree allocation-free beyond the entries themselves,
// the same intrusive-node idiom the library is built around.
type indexEntry struct {
	rbtree.Node
	key    []byte
	offset int64
	length int64
}

func entryOf(n *rbtree.Node) *indexEntry {
	return (*indexEntry)(unsafe.Pointer(n))
}

func compareEntries(l, r *rbtree.Node) int {
	return bytes.Compare(entryOf(l).key, entryOf(r).key)
}

// segmentIndex is the in-memory, sorted index for one open segment,
// supporting O(log n) point lookups without scanning the file per read.
type segmentIndex struct {
	tree    rbtree.Tree
	entries []*indexEntry // retained so the tree's nodes are not GC'd out from under it
}

func newSegmentIndex() *segmentIndex {
	return &segmentIndex{}
}

func (idx *segmentIndex) insert(key []byte, offset, length int64) {
	e := &indexEntry{key: key, offset: offset, length: length}
	idx.entries = append(idx.entries, e)
	idx.tree.Insert(&e.Node, compareEntries)
}

// lookup returns the byte range for key, or ok=false if key is not indexed.
func (idx *segmentIndex) lookup(key []byte) (offset, length int64, ok bool) {
	needle := &indexEntry{key: key}
	found := idx.tree.Find(&needle.Node, compareEntries)
	if found == nil {
		return 0, 0, false
	}
	e := entryOf(found)
	return e.offset, e.length, true
}

func (idx *segmentIndex) len() int { return len(idx.entries) }
