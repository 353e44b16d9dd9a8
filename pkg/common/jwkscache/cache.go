// Package jwkscache caches the authorization server's JWKS so bearer-token
// verification does not fetch keys on every request.
package jwkscache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// Cache provides JWKS retrieval with TTL caching and stale fallback.
type Cache interface {
	Get(ctx context.Context, url string) (jwk.Set, error)
	Invalidate(url string)
}

type entry struct {
	set             jwk.Set
	expiry          time.Time
	allowStaleUntil time.Time
}

type memoryCache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	client     *http.Client
	ttl        time.Duration
	staleGrace time.Duration
}

// New creates an in-memory JWKS cache. staleGrace allows serving an expired
// set when a refresh fails, so a flapping auth server does not take the
// whole API down with it.
func New(ttl, staleGrace time.Duration) Cache {
	return &memoryCache{
		entries:    make(map[string]*entry),
		client:     &http.Client{Timeout: 5 * time.Second},
		ttl:        ttl,
		staleGrace: staleGrace,
	}
}

func (c *memoryCache) Invalidate(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, url)
}

func (c *memoryCache) Get(ctx context.Context, url string) (jwk.Set, error) {
	if set := c.getFresh(url); set != nil {
		return set, nil
	}
	return c.fetch(ctx, url)
}

func (c *memoryCache) getFresh(url string) jwk.Set {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[url]; ok && time.Now().Before(e.expiry) && e.set != nil {
		return e.set
	}
	return nil
}

func (c *memoryCache) fetch(ctx context.Context, url string) (jwk.Set, error) {
	c.mu.RLock()
	prev := c.entries[url]
	c.mu.RUnlock()

	stale := func() (jwk.Set, bool) {
		if prev != nil && time.Now().Before(prev.allowStaleUntil) && prev.set != nil {
			return prev.set, true
		}
		return nil, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		if s, ok := stale(); ok {
			return s, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if s, ok := stale(); ok {
			return s, nil
		}
		return nil, fmt.Errorf("jwkscache: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1MB guard
	if err != nil {
		return nil, err
	}
	set, err := jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("jwkscache: parse JWKS: %w", err)
	}
	now := time.Now()
	c.mu.Lock()
	c.entries[url] = &entry{
		set:             set,
		expiry:          now.Add(c.ttl),
		allowStaleUntil: now.Add(c.ttl + c.staleGrace),
	}
	c.mu.Unlock()
	return set, nil
}
