package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	apperrors "github.com/kapu/sevenlist-go/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewWithClient(client, zap.NewNop()), mr
}

type payload struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

func TestCacheService_SetGet(t *testing.T) {
	svc, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "k", payload{Title: "Duna", Count: 2}, time.Minute))

	var got payload
	found, err := svc.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Title: "Duna", Count: 2}, got)

	mr.FastForward(2 * time.Minute)
	found, err = svc.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheService_GetMiss(t *testing.T) {
	svc, _ := newTestCache(t)

	found, err := svc.Get(context.Background(), "missing", nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheService_GetCorrupt(t *testing.T) {
	svc, mr := newTestCache(t)
	require.NoError(t, mr.Set("bad", "{not json"))

	var got payload
	_, err := svc.Get(context.Background(), "bad", &got)

	var cacheErr *apperrors.CacheError
	require.True(t, errors.As(err, &cacheErr))
	assert.Equal(t, "get", cacheErr.Operation)
}

func TestCacheService_DelPattern(t *testing.T) {
	svc, mr := newTestCache(t)
	ctx := context.Background()

	for _, k := range []string{"search:movies:a", "search:movies:b", "search:books:a"} {
		require.NoError(t, svc.Set(ctx, k, 1, 0))
	}

	n, err := svc.DelPattern(ctx, "search:movies:*")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, mr.Exists("search:books:a"))
}

func TestCacheService_Unavailable(t *testing.T) {
	svc, mr := newTestCache(t)
	mr.Close()

	_, err := svc.Get(context.Background(), "k", nil)
	assert.Error(t, err)
	assert.Error(t, svc.Ping(context.Background()))
}
