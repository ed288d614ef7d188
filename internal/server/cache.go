package server

import (
	"context"
	"sync"
	"time"

	"github.com/mj1618/inspector-cli/internal/inspector"
	"github.com/mj1618/inspector-cli/internal/model"
)

// Capturer captures a tree. *inspector.Client implements it.
type Capturer interface {
	Capture(ctx context.Context, opts inspector.CaptureOptions) (*model.Tree, error)
}

// cacheEntry holds a cached tree with its timestamp.
type cacheEntry struct {
	tree      *model.Tree
	timestamp time.Time
}

// TreeCache provides a TTL-based cache for captured trees, keyed by capture
// options. Callers must treat returned trees as read-only.
type TreeCache struct {
	mu      sync.Mutex
	entries map[inspector.CaptureOptions]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewTreeCache creates a new cache. A ttl of 0 disables caching.
func NewTreeCache(ttl time.Duration) *TreeCache {
	return &TreeCache{
		entries: make(map[inspector.CaptureOptions]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Capture returns a cached tree if within TTL, otherwise captures fresh.
// The second result reports a cache hit.
func (c *TreeCache) Capture(ctx context.Context, capturer Capturer, opts inspector.CaptureOptions) (*model.Tree, bool, error) {
	if c.ttl == 0 {
		tree, err := capturer.Capture(ctx, opts)
		return tree, false, err
	}

	c.mu.Lock()
	if entry, ok := c.entries[opts]; ok && c.now().Sub(entry.timestamp) < c.ttl {
		c.mu.Unlock()
		return entry.tree, true, nil
	}
	c.mu.Unlock()

	tree, err := capturer.Capture(ctx, opts)
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	c.entries[opts] = cacheEntry{tree: tree, timestamp: c.now()}
	c.mu.Unlock()

	return tree, false, nil
}

// InvalidateAll clears the entire cache.
func (c *TreeCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[inspector.CaptureOptions]cacheEntry)
}

// Len returns the number of cached trees.
func (c *TreeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
