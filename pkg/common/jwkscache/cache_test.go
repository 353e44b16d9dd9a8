package jwkscache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jwksBody = `{"keys":[{"kty":"oct","kid":"k1","k":"c2VjcmV0LXNpZ25pbmcta2V5"}]}`

func TestGetCachesWithinTTL(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(jwksBody))
	}))
	defer srv.Close()

	c := New(time.Minute, time.Hour)
	set, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())

	_, err = c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.EqualValues(t, 1, hits.Load())

	c.Invalidate(srv.URL)
	_, err = c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.EqualValues(t, 2, hits.Load())
}

func TestStaleServedOnUpstreamFailure(t *testing.T) {
	var failing atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(jwksBody))
	}))
	defer srv.Close()

	// Zero TTL expires immediately; the grace window keeps the old set
	// usable while the upstream is down.
	c := New(0, time.Hour)
	_, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	failing.Store(true)
	set, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
}

func TestErrorWithoutCachedSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(time.Minute, time.Hour)
	_, err := c.Get(context.Background(), srv.URL)
	assert.Error(t, err)
}
