package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/motomuse/service-routes/internal/geo"
	"github.com/motomuse/service-routes/internal/pipeline"
)

func newTestCache(t *testing.T) (*ResponseCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, time.Hour, zap.NewNop()), mr
}

func testPrefs() pipeline.Preferences {
	return pipeline.Preferences{
		Shape:      pipeline.ShapeLoop,
		DistanceKm: 150,
		Curviness:  4,
		Start:      geo.Point{Lat: 52.0, Lng: 5.0},
	}
}

func TestKey_StableAndPrefixed(t *testing.T) {
	k1, err := Key(testPrefs())
	require.NoError(t, err)
	k2, err := Key(testPrefs())
	require.NoError(t, err)

	assert.Equal(t, k1, k2, "identical preferences share a key")
	assert.True(t, strings.HasPrefix(k1, "routes:outcome:"))

	other := testPrefs()
	other.DistanceKm = 151
	k3, err := Key(other)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3, "any preference change changes the key")
}

func TestCache_PutThenGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	key, err := Key(testPrefs())
	require.NoError(t, err)

	_, ok := c.Get(ctx, key)
	assert.False(t, ok, "empty cache misses")

	outcome := &pipeline.Outcome{
		Route:  &pipeline.RouteResult{Polyline: "abc", DistanceKm: 150},
		Passed: true,
		Attempts: []pipeline.Attempt{
			{Index: 1, Prompt: pipeline.PromptInitial},
		},
	}
	c.Put(ctx, key, outcome)

	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, outcome.Route.Polyline, got.Route.Polyline)
	assert.True(t, got.Passed)
	require.Len(t, got.Attempts, 1)
	assert.Equal(t, pipeline.PromptInitial, got.Attempts[0].Prompt)
}

func TestCache_WriteOnce(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	key, err := Key(testPrefs())
	require.NoError(t, err)

	first := &pipeline.Outcome{Route: &pipeline.RouteResult{Polyline: "first"}, Passed: true}
	second := &pipeline.Outcome{Route: &pipeline.RouteResult{Polyline: "second"}}

	c.Put(ctx, key, first)
	c.Put(ctx, key, second)

	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "first", got.Route.Polyline, "a losing concurrent write never clobbers the entry")
}

func TestCache_EntriesExpire(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	key, err := Key(testPrefs())
	require.NoError(t, err)
	c.Put(ctx, key, &pipeline.Outcome{Route: &pipeline.RouteResult{Polyline: "abc"}})

	mr.FastForward(2 * time.Hour)

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)
}

func TestCache_UndecodableEntryIsAMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	key, err := Key(testPrefs())
	require.NoError(t, err)
	require.NoError(t, mr.Set(key, "{not json"))

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)
}

func TestCache_RedisOutageIsAMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	key, err := Key(testPrefs())
	require.NoError(t, err)
	mr.Close()

	_, ok := c.Get(ctx, key)
	assert.False(t, ok, "a cache outage must never fail the request")
}
