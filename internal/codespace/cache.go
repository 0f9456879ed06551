package codespace

import "context"

// Cache memoizes code maps by canonical path for the lifetime of one run.
// Code-list documents are assumed not to change while a run is in progress.
type Cache struct {
	next  Resolver
	codes map[string]CodeMap
}

// NewCache wraps next. A nil next uses FileResolver.
func NewCache(next Resolver) *Cache {
	if next == nil {
		next = FileResolver{}
	}
	return &Cache{next: next, codes: make(map[string]CodeMap)}
}

// Resolve returns the cached map for path, loading it on first use. Failed
// loads are not cached.
func (c *Cache) Resolve(ctx context.Context, path string) (CodeMap, error) {
	if codes, ok := c.codes[path]; ok {
		return codes, nil
	}
	codes, err := c.next.Resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	c.codes[path] = codes
	return codes, nil
}

// Len returns the number of cached documents.
func (c *Cache) Len() int { return len(c.codes) }
