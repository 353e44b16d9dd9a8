// Package ctxcache caches per-(owner, course) roster snapshots so the
// transform endpoints do not hit storage on every call. Entries are
// replaced whole: a concurrent reader sees either the prior snapshot or the
// new one, never a partially updated mix.
package ctxcache

import (
	"context"
	"sync"
	"time"

	"github.com/quipper/poc/aitutor/be/pkg/pii/index"
	"github.com/quipper/poc/aitutor/be/pkg/repositories/groups"
	"github.com/quipper/poc/aitutor/be/pkg/repositories/roster"
)

// Key scopes a snapshot to one instructor's view of one course.
type Key struct {
	Owner  string
	Course string
}

// Snapshot is the complete roster context for one key, with the reverse
// index prebuilt so transforms never rebuild it per request.
type Snapshot struct {
	Roster    []*roster.Entry
	Custom    []*roster.Variation
	Groups    []*groups.Group
	Index     *index.Index
	FetchedAt time.Time
}

// LoaderFunc supplies a fresh snapshot from storage. The cache calls it on
// miss or expiry; it must not return a partially built snapshot.
type LoaderFunc func(ctx context.Context, key Key) (*Snapshot, error)

type Cache struct {
	mu      sync.RWMutex
	entries map[Key]*Snapshot
	ttl     time.Duration
	loader  LoaderFunc
	now     func() time.Time // overridable in tests
}

// New creates a cache with the given TTL. Reads older than the TTL trigger
// a reload through loader; explicit Invalidate forces one immediately.
func New(ttl time.Duration, loader LoaderFunc) *Cache {
	return &Cache{
		entries: make(map[Key]*Snapshot),
		ttl:     ttl,
		loader:  loader,
		now:     time.Now,
	}
}

// Get returns the cached snapshot when fresh, loading otherwise. Concurrent
// loads for the same key may race; the last writer wins, which is fine
// because storage, not the cache, is the source of truth.
func (c *Cache) Get(ctx context.Context, key Key) (*Snapshot, error) {
	if s := c.getFresh(key); s != nil {
		return s, nil
	}
	s, err := c.loader(ctx, key)
	if err != nil {
		return nil, err
	}
	s.FetchedAt = c.now()
	c.mu.Lock()
	c.entries[key] = s
	c.mu.Unlock()
	return s, nil
}

func (c *Cache) getFresh(key Key) *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.entries[key]; ok && c.now().Sub(s.FetchedAt) < c.ttl {
		return s
	}
	return nil
}

// Invalidate drops the snapshot for one key. Called after every roster or
// group mutation so the next transform sees current data.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateOwner drops every snapshot belonging to one owner.
func (c *Cache) InvalidateOwner(owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.Owner == owner {
			delete(c.entries, k)
		}
	}
}
