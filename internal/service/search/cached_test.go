package search

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kapu/sevenlist-go/internal/domain"
	"github.com/kapu/sevenlist-go/internal/service/cache"
	apperrors "github.com/kapu/sevenlist-go/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) (*cache.CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewWithClient(client, zap.NewNop()), mr
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "search:movies:tmdb:a chegada", CacheKey(domain.CategoryMovies, "tmdb", "  A   Chegada "))
}

func TestCachedProvider_HitSkipsUpstream(t *testing.T) {
	svc, mr := newTestCache(t)
	inner := &fakeProvider{name: "tmdb", category: domain.CategoryMovies,
		results: []domain.SearchResult{{Title: "Interestelar", Subtitle: "Filme • 2014", Category: domain.CategoryMovies}}}
	p := NewCachedProvider(inner, svc, time.Minute, zap.NewNop())

	first, err := p.Search(context.Background(), "Intereste")
	require.NoError(t, err)
	second, err := p.Search(context.Background(), "intereste ")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.Calls())
	assert.True(t, mr.Exists("search:movies:tmdb:intereste"))
	assert.Equal(t, time.Minute, mr.TTL("search:movies:tmdb:intereste"))
}

func TestCachedProvider_DoesNotCacheEmptyOrFailed(t *testing.T) {
	svc, mr := newTestCache(t)

	empty := &fakeProvider{name: "itunes", category: domain.CategoryMusic}
	p := NewCachedProvider(empty, svc, time.Minute, zap.NewNop())
	_, _ = p.Search(context.Background(), "zzz")
	_, _ = p.Search(context.Background(), "zzz")
	assert.Equal(t, 2, empty.Calls())

	failing := &fakeProvider{name: "tmdb", category: domain.CategoryMovies, err: apperrors.NewAPIError("down", 503, nil)}
	p = NewCachedProvider(failing, svc, time.Minute, zap.NewNop())
	_, err := p.Search(context.Background(), "duna")
	assert.Error(t, err)

	assert.Empty(t, mr.Keys())
}

func TestCachedProvider_CacheDownFallsThrough(t *testing.T) {
	svc, mr := newTestCache(t)
	mr.Close()

	inner := &fakeProvider{name: "tmdb", category: domain.CategoryMovies,
		results: []domain.SearchResult{{Title: "Duna"}}}
	p := NewCachedProvider(inner, svc, time.Minute, zap.NewNop())

	results, err := p.Search(context.Background(), "duna")
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 1, inner.Calls())
}

func TestNewCachedProvider_DisabledReturnsInner(t *testing.T) {
	svc, _ := newTestCache(t)
	inner := &fakeProvider{name: "tmdb", category: domain.CategoryMovies}

	assert.Same(t, inner, NewCachedProvider(inner, svc, 0, zap.NewNop()))
	assert.Same(t, inner, NewCachedProvider(inner, nil, time.Minute, zap.NewNop()))
}

func TestRouter_WithCachedProvider(t *testing.T) {
	svc, _ := newTestCache(t)
	inner := &fakeProvider{name: "google_books", category: domain.CategoryBooks,
		results: []domain.SearchResult{{Title: "Duna", Category: domain.CategoryBooks}}}

	r, err := NewRouter(zap.NewNop(), NewCachedProvider(inner, svc, time.Minute, zap.NewNop()))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		out := r.Lookup(context.Background(), "duna", domain.CategoryBooks)
		assert.Equal(t, StatusOK, out.Status)
		assert.Equal(t, "google_books", out.Provider)
	}
	assert.Equal(t, 1, inner.Calls())
}
