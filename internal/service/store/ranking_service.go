package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kapu/sevenlist-go/internal/constants"
	"github.com/kapu/sevenlist-go/internal/domain"
	"github.com/kapu/sevenlist-go/internal/util"
	"go.uber.org/zap"
)

// ShelfSource is satisfied by *ShelfRepository.
type ShelfSource interface {
	ShelvesByCountry(ctx context.Context, country string) ([]*domain.Shelf, error)
	Countries(ctx context.Context) ([]string, error)
}

// RankingCache is the subset of cache.CacheService used for rankings.
type RankingCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DelPattern(ctx context.Context, pattern string) (int64, error)
}

// RankingService computes the most shelved titles per category and country.
type RankingService struct {
	source ShelfSource
	cache  RankingCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewRankingService wires a shelf source with an optional cache.
func NewRankingService(source ShelfSource, cache RankingCache, logger *zap.Logger) *RankingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RankingService{
		source: source,
		cache:  cache,
		ttl:    constants.CacheTTL.Rankings,
		logger: logger,
	}
}

// Top returns up to limit entries; limit <= 0 uses the default ranking size.
func (s *RankingService) Top(ctx context.Context, category domain.Category, country string, limit int) ([]domain.RankingEntry, error) {
	if !category.IsValid() {
		return nil, fmt.Errorf("unknown category %q", category)
	}
	if limit <= 0 {
		limit = constants.StoreLimits.RankingSize
	}
	country = strings.ToUpper(strings.TrimSpace(country))

	key := rankingKey(category, country, limit)
	if s.cache != nil {
		var cached []domain.RankingEntry
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("Ranking cache read failed", zap.String("key", key), zap.Error(err))
		} else if found {
			return cached, nil
		}
	}

	shelves, err := s.source.ShelvesByCountry(ctx, country)
	if err != nil {
		return nil, err
	}
	entries := AggregateRankings(shelves, category, country, limit)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, entries, s.ttl); err != nil {
			s.logger.Warn("Ranking cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return entries, nil
}

// Invalidate drops every cached ranking after a shelf or profile change.
func (s *RankingService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	n, err := s.cache.DelPattern(ctx, constants.CacheKeys.RankingPrefix+":*")
	if err != nil {
		s.logger.Warn("Ranking cache invalidation failed", zap.Error(err))
		return
	}
	s.logger.Debug("Rankings invalidated", zap.Int64("keys", n))
}

// Countries lists the countries that can be ranked.
func (s *RankingService) Countries(ctx context.Context) ([]string, error) {
	return s.source.Countries(ctx)
}

func rankingKey(category domain.Category, country string, limit int) string {
	if country == "" {
		country = "all"
	}
	return fmt.Sprintf("%s:%s:%s:%d", constants.CacheKeys.RankingPrefix, category, country, limit)
}

// AggregateRankings counts how many shelves hold each (title, subtitle) pair in
// the category. Matching ignores case and spacing; the first spelling seen is kept.
// Results are ordered by count, then title.
func AggregateRankings(shelves []*domain.Shelf, category domain.Category, country string, limit int) []domain.RankingEntry {
	index := make(map[string]int)
	entries := make([]domain.RankingEntry, 0)

	for _, shelf := range shelves {
		if shelf == nil {
			continue
		}
		seen := make(map[string]struct{}, domain.ShelfSize)
		for _, item := range shelf.Row(category) {
			if item == nil || strings.TrimSpace(item.Title) == "" {
				continue
			}
			key := util.NormalizeKey(item.Title) + "\x00" + util.NormalizeKey(item.Subtitle)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			if i, ok := index[key]; ok {
				entries[i].Count++
				if entries[i].ImageURL == "" {
					entries[i].ImageURL = item.ImageURL
				}
				continue
			}
			index[key] = len(entries)
			entries = append(entries, domain.RankingEntry{
				Title:    strings.TrimSpace(item.Title),
				Subtitle: strings.TrimSpace(item.Subtitle),
				ImageURL: item.ImageURL,
				Category: category,
				Country:  country,
				Count:    1,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return strings.ToLower(entries[i].Title) < strings.ToLower(entries[j].Title)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
