package filesystem

import (
	"strings"

	"github.com/brettbedarf/embedfs"
	"github.com/brettbedarf/embedfs/image"
	iradix "github.com/hashicorp/go-immutable-radix"
)

// index is the immutable path trie behind the Asset Store. Keys are
// PathKey.TrieKey values and values are file contents.
type index struct {
	tree *iradix.Tree
}

func newIndex(entries []image.Entry) *index {
	txn := iradix.New().Txn()
	for _, e := range entries {
		key := embedfs.ParsePathKey(e.Path)
		if len(key) == 0 {
			continue
		}
		txn.Insert([]byte(key.TrieKey()), e.Content)
	}
	return &index{tree: txn.Commit()}
}

func (ix *index) Len() int {
	return ix.tree.Len()
}

// lookup resolves key to a file on exact match, otherwise to a directory
// whose children are the distinct stored paths below key truncated to one
// more component.
func (ix *index) lookup(key embedfs.PathKey) (*embedfs.Entry, bool) {
	trieKey := key.TrieKey()
	if len(key) > 0 {
		if v, ok := ix.tree.Get([]byte(trieKey)); ok {
			return &embedfs.Entry{
				Kind:    embedfs.FileEntry,
				Key:     key,
				Ino:     InodeOf(key),
				Content: v.([]byte),
			}, true
		}
	}

	prefix := ""
	if len(key) > 0 {
		prefix = trieKey + "/"
	}
	var children []embedfs.Child
	seen := make(map[uint64]int)
	ix.tree.Root().WalkPrefix([]byte(prefix), func(k []byte, _ interface{}) bool {
		name, _, nested := strings.Cut(string(k[len(prefix):]), "/")
		child := key.Child(name)
		ino := InodeOf(child)
		kind := embedfs.DirEntry
		if !nested {
			kind = embedfs.FileEntry
		}
		if i, ok := seen[ino]; ok {
			if kind == embedfs.FileEntry {
				children[i].Kind = kind
			}
			return false
		}
		seen[ino] = len(children)
		children = append(children, embedfs.Child{Key: child, Ino: ino, Kind: kind})
		return false
	})
	if len(children) == 0 {
		return nil, false
	}
	return &embedfs.Entry{
		Kind:     embedfs.DirEntry,
		Key:      key,
		Ino:      InodeOf(key),
		Children: children,
	}, true
}
