// Package embedfs contains core domain types and interfaces for serving a
// read-only file tree embedded in the running executable.
package embedfs

import (
	"slices"
	"strings"
)

// PathKey is a canonical path expressed as its components, starting from the
// filesystem root. It never holds empty, "." or ".." components. The empty key
// is the root itself.
type PathKey []string

// String renders the key as an absolute path.
func (k PathKey) String() string {
	return "/" + strings.Join(k, "/")
}

// TrieKey is the key used to index the Asset Store: components joined by "/"
// without a leading separator.
func (k PathKey) TrieKey() string {
	return strings.Join(k, "/")
}

// Equal compares keys component-wise.
func (k PathKey) Equal(other PathKey) bool {
	return slices.Equal(k, other)
}

// Name returns the last component, or "/" for the root.
func (k PathKey) Name() string {
	if len(k) == 0 {
		return "/"
	}
	return k[len(k)-1]
}

// Clone returns a copy that does not share backing storage with k.
func (k PathKey) Clone() PathKey {
	return slices.Clone(k)
}

// Child returns a new key with name appended.
func (k PathKey) Child(name string) PathKey {
	child := make(PathKey, len(k), len(k)+1)
	copy(child, k)
	return append(child, name)
}

// ParsePathKey splits a slash-separated path into components, dropping
// empty and "." components. ".." is kept as a literal and is only resolved by
// canonicalization against a base.
func ParsePathKey(p string) PathKey {
	parts := strings.Split(p, "/")
	key := make(PathKey, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		key = append(key, part)
	}
	return key
}
