package constants

import "time"

var CacheTTL = struct {
	SearchResults time.Duration
	Rankings      time.Duration
}{
	SearchResults: 10 * time.Minute, // overridden by SEARCH_CACHE_TTL_SECONDS
	Rankings:      5 * time.Minute,
}

var CacheKeys = struct {
	SearchPrefix  string
	RankingPrefix string
}{
	SearchPrefix:  "search",
	RankingPrefix: "rankings",
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
}{
	ReadyTimeout: 5 * time.Second,
}

var RetryConfig = struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      time.Duration
}{
	MaxAttempts: 2, // autocomplete path, keep it short
	BaseDelay:   250 * time.Millisecond,
	Jitter:      100 * time.Millisecond,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,
	ResetTimeout:        30 * time.Second,
	RateLimitTimeout:    10 * time.Minute,
	HealthCheckInterval: 5 * time.Minute,
	HealthCheckTimeout:  10 * time.Second,
}

var APIConfig = struct {
	CatalogTimeout   time.Duration
	TextGenTimeout   time.Duration
	TMDbImageBaseURL string
	PlaceholderURL   string
	AffiliateBaseURL string
}{
	CatalogTimeout:   8 * time.Second,
	TextGenTimeout:   30 * time.Second,
	TMDbImageBaseURL: "https://image.tmdb.org/t/p/w342",
	PlaceholderURL:   "https://picsum.photos/seed/%s/300/450",
	AffiliateBaseURL: "https://www.amazon.com.br/s",
}

var SearchLimits = struct {
	MinQueryRunes int
	MaxQueryRunes int
	MaxResults    int
}{
	MinQueryRunes: 2,
	MaxQueryRunes: 200,
	MaxResults:    5,
}

var MusicBrainzConfig = struct {
	MinInterval      time.Duration
	CoverConcurrency int
}{
	MinInterval:      1000 * time.Millisecond,
	CoverConcurrency: 5,
}

var TokenConfig = struct {
	ExpirySkew time.Duration
}{
	ExpirySkew: 5 * time.Minute,
}

var PersonaConfig = struct {
	MinTitleRunes   int
	MaxOutputRunes  int
	Temperature     float64
	MaxOutputTokens int
	Emojis          int
}{
	MinTitleRunes:   10,
	MaxOutputRunes:  280,
	Temperature:     0.85,
	MaxOutputTokens: 250,
	Emojis:          3,
}

var ShelfLimits = struct {
	MaxEntryRunes int
}{
	MaxEntryRunes: 300,
}

var StoreLimits = struct {
	RankingSize  int
	ExploreLimit int
}{
	RankingSize:  20,
	ExploreLimit: 50,
}

var ServerConfig = struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}{
	ReadTimeout:     10 * time.Second,
	WriteTimeout:    45 * time.Second,
	RequestTimeout:  40 * time.Second,
	ShutdownTimeout: 10 * time.Second,
	MaxBodyBytes:    64 << 10,
}
