package search

import (
	"context"
	"fmt"
	"time"

	"github.com/kapu/sevenlist-go/internal/constants"
	"github.com/kapu/sevenlist-go/internal/domain"
	"github.com/kapu/sevenlist-go/internal/service/catalog"
	"github.com/kapu/sevenlist-go/internal/util"
	"go.uber.org/zap"
)

// ResultCache is the subset of cache.CacheService used here.
type ResultCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedProvider memoizes non-empty results of another provider.
// Cache failures fall through to the live provider.
type CachedProvider struct {
	inner  catalog.Provider
	cache  ResultCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProvider wraps inner. A ttl <= 0 or nil cache returns inner unchanged.
func NewCachedProvider(inner catalog.Provider, cache ResultCache, ttl time.Duration, logger *zap.Logger) catalog.Provider {
	if cache == nil || ttl <= 0 {
		return inner
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProvider{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func (p *CachedProvider) Name() string { return p.inner.Name() }

func (p *CachedProvider) Category() domain.Category { return p.inner.Category() }

func (p *CachedProvider) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	key := CacheKey(p.inner.Category(), p.inner.Name(), query)

	var cached []domain.SearchResult
	found, err := p.cache.Get(ctx, key, &cached)
	if err != nil {
		p.logger.Debug("Search cache read failed", zap.String("key", key), zap.Error(err))
	} else if found && len(cached) > 0 {
		return cached, nil
	}

	results, err := p.inner.Search(ctx, query)
	if err != nil || len(results) == 0 {
		return results, err
	}

	if err := p.cache.Set(ctx, key, results, p.ttl); err != nil {
		p.logger.Debug("Search cache write failed", zap.String("key", key), zap.Error(err))
	}
	return results, nil
}

// CacheKey is search:<category>:<provider>:<normalized query>.
func CacheKey(category domain.Category, provider, query string) string {
	return fmt.Sprintf("%s:%s:%s:%s", constants.CacheKeys.SearchPrefix, category, provider, util.NormalizeKey(query))
}
