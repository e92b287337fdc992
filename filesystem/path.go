package filesystem

import (
	"strings"

	"github.com/brettbedarf/embedfs"
)

// Canonicalize resolves raw against base. Normal components are appended,
// ".." drops the last component (a no-op at the root) and "." or empty
// components are ignored. An absolute raw path ignores base.
func Canonicalize(base embedfs.PathKey, raw string) embedfs.PathKey {
	var out embedfs.PathKey
	if !strings.HasPrefix(raw, "/") {
		out = base.Clone()
	}
	for _, part := range strings.Split(raw, "/") {
		switch part {
		case "", ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, part)
		}
	}
	if out == nil {
		out = embedfs.PathKey{}
	}
	return out
}

// IsAbs reports whether p starts at the root.
func IsAbs(p string) bool {
	return strings.HasPrefix(p, "/")
}
