package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hitCounter struct{ hits, misses int }

func (c *hitCounter) ReportCache(hit bool) {
	if hit {
		c.hits++
		return
	}
	c.misses++
}

func newTestCache(t *testing.T, recorder HitRecorder) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute, recorder), mr
}

func TestCacheVersionStartsAtOneAndBumps(t *testing.T) {
	cache, _ := newTestCache(t, nil)
	ctx := context.Background()

	ver, err := cache.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ver)

	before, err := cache.BuildKey(ctx, "dashboard", "a")
	require.NoError(t, err)
	assert.Equal(t, "reports:dashboard:a:v1", before)

	require.NoError(t, cache.Bump(ctx))
	after, err := cache.BuildKey(ctx, "dashboard", "a")
	require.NoError(t, err)
	assert.Equal(t, "reports:dashboard:a:v2", after)
}

func TestFetchServesSecondCallFromRedis(t *testing.T) {
	counter := &hitCounter{}
	cache, mr := newTestCache(t, counter)
	ctx := context.Background()
	calls := 0
	loader := func(context.Context) ([]string, error) {
		calls++
		return []string{"lomito", "pizza"}, nil
	}

	first, err := Fetch(ctx, cache, "reports:k", loader)
	require.NoError(t, err)
	second, err := Fetch(ctx, cache, "reports:k", loader)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, counter.hits)
	assert.Equal(t, 1, counter.misses)
	assert.True(t, mr.Exists("reports:k"))
	assert.Equal(t, time.Minute, mr.TTL("reports:k"))
}

func TestFetchDoesNotCacheFailures(t *testing.T) {
	cache, mr := newTestCache(t, nil)
	boom := errors.New("boom")
	_, err := Fetch(context.Background(), cache, "reports:k", func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("reports:k"))
}

func TestNilCachePassesThrough(t *testing.T) {
	var cache *Cache
	key, err := cache.BuildKey(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "reports:x", key)
	require.NoError(t, cache.Bump(context.Background()))

	v, err := Fetch(context.Background(), cache, key, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
