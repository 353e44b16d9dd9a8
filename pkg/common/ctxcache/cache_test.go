package ctxcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quipper/poc/aitutor/be/pkg/pii/index"
	"github.com/quipper/poc/aitutor/be/pkg/repositories/roster"
)

func snapshotFor(name string) *Snapshot {
	entries := []*roster.Entry{{Anchor: 1, DisplayName: name, Role: "student"}}
	return &Snapshot{Roster: entries, Index: index.Build(entries, nil, nil)}
}

func TestGetCachesUntilTTL(t *testing.T) {
	loads := 0
	c := New(time.Minute, func(ctx context.Context, key Key) (*Snapshot, error) {
		loads++
		return snapshotFor("Ana Souza"), nil
	})
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	key := Key{Owner: "t1", Course: "c1"}
	s1, err := c.Get(context.Background(), key)
	require.NoError(t, err)
	s2, err := c.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, loads)

	// Past the TTL the next read reloads.
	now = now.Add(2 * time.Minute)
	_, err = c.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestInvalidateForcesReload(t *testing.T) {
	loads := 0
	c := New(time.Hour, func(ctx context.Context, key Key) (*Snapshot, error) {
		loads++
		return snapshotFor("Ana Souza"), nil
	})
	key := Key{Owner: "t1", Course: "c1"}
	_, err := c.Get(context.Background(), key)
	require.NoError(t, err)
	c.Invalidate(key)
	_, err = c.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestInvalidateOwner(t *testing.T) {
	loads := map[Key]int{}
	c := New(time.Hour, func(ctx context.Context, key Key) (*Snapshot, error) {
		loads[key]++
		return snapshotFor("Ana Souza"), nil
	})
	k1 := Key{Owner: "t1", Course: "c1"}
	k2 := Key{Owner: "t1", Course: "c2"}
	k3 := Key{Owner: "t2", Course: "c1"}
	for _, k := range []Key{k1, k2, k3} {
		_, err := c.Get(context.Background(), k)
		require.NoError(t, err)
	}
	c.InvalidateOwner("t1")
	for _, k := range []Key{k1, k2, k3} {
		_, err := c.Get(context.Background(), k)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, loads[k1])
	assert.Equal(t, 2, loads[k2])
	assert.Equal(t, 1, loads[k3])
}

func TestLoaderErrorNotCached(t *testing.T) {
	fail := true
	c := New(time.Hour, func(ctx context.Context, key Key) (*Snapshot, error) {
		if fail {
			return nil, assert.AnError
		}
		return snapshotFor("Ana Souza"), nil
	})
	key := Key{Owner: "t1", Course: "c1"}
	_, err := c.Get(context.Background(), key)
	assert.Error(t, err)
	fail = false
	s, err := c.Get(context.Background(), key)
	require.NoError(t, err)
	assert.NotNil(t, s.Index)
}

func TestConcurrentReadsSeeWholeSnapshots(t *testing.T) {
	c := New(time.Nanosecond, func(ctx context.Context, key Key) (*Snapshot, error) {
		// Every read reloads; snapshots alternate but are always complete.
		return snapshotFor("Ana Souza"), nil
	})
	key := Key{Owner: "t1", Course: "c1"}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s, err := c.Get(context.Background(), key)
				assert.NoError(t, err)
				assert.NotNil(t, s.Index)
				assert.Len(t, s.Roster, 1)
			}
		}()
	}
	wg.Wait()
}
