package filesystem

import (
	"github.com/brettbedarf/embedfs"
	"github.com/puzpuzpuz/xsync/v4"
)

// MetaCache memoizes synthetic metadata per canonical path. Entries are never
// invalidated because the embedded tree cannot change. Failed computations
// are not cached.
type MetaCache struct {
	entries *xsync.Map[string, embedfs.Metadata]
	enabled bool
}

func NewMetaCache(enabled bool) *MetaCache {
	return &MetaCache{
		entries: xsync.NewMap[string, embedfs.Metadata](),
		enabled: enabled,
	}
}

// GetOrCompute returns the cached record for key or stores the result of
// compute. Concurrent first lookups may both compute; the first stored
// record wins and is returned to both.
func (c *MetaCache) GetOrCompute(key string, compute func() (embedfs.Metadata, error)) (embedfs.Metadata, error) {
	if !c.enabled {
		return compute()
	}
	if md, ok := c.entries.Load(key); ok {
		return md, nil
	}
	md, err := compute()
	if err != nil {
		return md, err
	}
	actual, _ := c.entries.LoadOrStore(key, md)
	return actual, nil
}

// Len returns the number of cached records.
func (c *MetaCache) Len() int {
	return c.entries.Size()
}
