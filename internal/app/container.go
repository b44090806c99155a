package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kapu/sevenlist-go/internal/config"
	"github.com/kapu/sevenlist-go/internal/constants"
	"github.com/kapu/sevenlist-go/internal/prompt"
	"github.com/kapu/sevenlist-go/internal/server"
	"github.com/kapu/sevenlist-go/internal/service/affiliate"
	"github.com/kapu/sevenlist-go/internal/service/ai"
	"github.com/kapu/sevenlist-go/internal/service/cache"
	"github.com/kapu/sevenlist-go/internal/service/catalog"
	"github.com/kapu/sevenlist-go/internal/service/database"
	"github.com/kapu/sevenlist-go/internal/service/persona"
	"github.com/kapu/sevenlist-go/internal/service/search"
	"github.com/kapu/sevenlist-go/internal/service/store"
	"go.uber.org/zap"
)

// Container bundles assembled services for constructing the HTTP server.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Cache    *cache.CacheService
	Postgres *database.PostgresService
	Search   *search.Router
	Persona  *persona.Generator
	Links    *affiliate.Builder
	Profiles *store.ProfileRepository
	Shelves  *store.ShelfRepository
	Rankings *store.RankingService

	// Upstreams are the catalog requesters whose breakers /health reports.
	Upstreams []*catalog.Requester
	TextGen   *ai.ModelManager

	closers []func()
}

// NewServer instantiates the HTTP surface over the built services.
func (c *Container) NewServer() (*server.Server, error) {
	if c == nil || c.Search == nil {
		return nil, fmt.Errorf("container not initialized")
	}

	deps := server.Dependencies{
		Search:  c.Search,
		Persona: c.Persona,
		Links:   c.Links,
	}
	for _, u := range c.Upstreams {
		deps.Breakers = append(deps.Breakers, u)
	}
	if c.TextGen != nil {
		deps.Breakers = append(deps.Breakers, c.TextGen)
	}
	// Typed nils must not leak into the interfaces.
	if c.Profiles != nil {
		deps.Profiles = c.Profiles
	}
	if c.Shelves != nil {
		deps.Shelves = c.Shelves
	}
	if c.Rankings != nil {
		deps.Rankings = c.Rankings
	}

	return server.New(deps, server.Options{
		AllowedOrigins: c.Config.Server.AllowedOrigins,
		JWTSecret:      c.Config.Auth.JWTSecret,
	}, c.Logger), nil
}

// Close releases infrastructure in reverse construction order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles every service. Redis is optional and degrades to uncached
// search; an enabled Postgres that cannot be reached is fatal.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c := &Container{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	if cfg.Redis.Enabled {
		cacheSvc, cacheErr := cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if cacheErr != nil {
			logger.Warn("Redis unavailable, continuing without cache", zap.Error(cacheErr))
		} else {
			c.Cache = cacheSvc
			c.closers = append(c.closers, func() { _ = cacheSvc.Close() })
		}
	}

	if cfg.Postgres.Enabled {
		postgresSvc, pgErr := database.NewPostgresService(ctx, database.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		}, logger)
		if pgErr != nil {
			return nil, fmt.Errorf("failed to create postgres service: %w", pgErr)
		}
		c.Postgres = postgresSvc
		c.closers = append(c.closers, func() { _ = postgresSvc.Close() })

		if err := postgresSvc.Migrate(ctx); err != nil {
			return nil, err
		}

		c.Profiles = store.NewProfileRepository(postgresSvc, logger)
		c.Shelves = store.NewShelfRepository(postgresSvc, logger)
		var rankingCache store.RankingCache
		if c.Cache != nil {
			rankingCache = c.Cache
		}
		c.Rankings = store.NewRankingService(c.Shelves, rankingCache, logger)
	} else {
		logger.Warn("PostgreSQL disabled; profile, shelf and ranking routes are unavailable")
	}

	var resultCache search.ResultCache
	if c.Cache != nil {
		resultCache = c.Cache
	}
	c.Search, c.Upstreams, err = NewSearchRouter(ctx, cfg, resultCache, logger)
	if err != nil {
		return nil, err
	}

	c.TextGen, err = NewModelManager(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.Persona = persona.NewGenerator(c.TextGen, prompt.DefaultPromptBuilder(), logger)

	c.Links = affiliate.NewBuilder(cfg.Affiliate.Tag)

	return c, nil
}

// NewSearchRouter builds one provider per category and returns the requesters
// behind them. resultCache may be nil.
func NewSearchRouter(ctx context.Context, cfg *config.Config, resultCache search.ResultCache, logger *zap.Logger) (*search.Router, []*catalog.Requester, error) {
	httpClient := &http.Client{Timeout: constants.APIConfig.CatalogTimeout}

	tmdbRequester := catalog.NewRequester("tmdb", httpClient, logger)
	movies := catalog.NewTMDbProvider(catalog.TMDbConfig{
		APIKey:  cfg.TMDb.APIKey,
		BaseURL: cfg.TMDb.BaseURL,
	}, tmdbRequester, logger)

	booksRequester := catalog.NewRequester("googlebooks", httpClient, logger)
	books, err := catalog.NewGoogleBooksProvider(ctx, catalog.GoogleBooksConfig{
		APIKey:   cfg.GoogleBooks.APIKey,
		Endpoint: cfg.GoogleBooks.Endpoint,
	}, httpClient, booksRequester, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create books provider: %w", err)
	}

	music, musicRequesters := newMusicProvider(cfg, httpClient, logger)
	requesters := append([]*catalog.Requester{tmdbRequester, booksRequester}, musicRequesters...)

	logger.Info("Catalog providers configured",
		zap.String("movies", movies.Name()),
		zap.String("books", books.Name()),
		zap.String("music", music.Name()),
		zap.Duration("cache_ttl", cfg.Search.CacheTTL),
		zap.Bool("cache_enabled", resultCache != nil),
	)

	router, err := search.NewRouter(logger,
		search.NewCachedProvider(movies, resultCache, cfg.Search.CacheTTL, logger),
		search.NewCachedProvider(books, resultCache, cfg.Search.CacheTTL, logger),
		search.NewCachedProvider(music, resultCache, cfg.Search.CacheTTL, logger),
	)
	if err != nil {
		return nil, nil, err
	}
	return router, requesters, nil
}

func newMusicProvider(cfg *config.Config, httpClient *http.Client, logger *zap.Logger) (catalog.Provider, []*catalog.Requester) {
	switch cfg.Music.Provider {
	case config.MusicProviderSpotify:
		tokens := catalog.NewTokenCache(catalog.NewClientCredentialsExchange(catalog.ClientCredentialsConfig{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			TokenURL:     cfg.Spotify.TokenURL,
		}, httpClient), logger)
		requester := catalog.NewRequester("spotify", httpClient, logger)
		return catalog.NewSpotifyProvider(catalog.SpotifyConfig{
			BaseURL: cfg.Spotify.BaseURL,
		}, tokens, requester, logger), []*catalog.Requester{requester}

	case config.MusicProviderMusicBrainz:
		ua := catalog.WithUserAgent(cfg.MusicBrainz.UserAgent)
		releases := catalog.NewRequester("musicbrainz", httpClient, logger, ua)
		covers := catalog.NewRequester("coverartarchive", httpClient, logger, ua, catalog.WithMaxAttempts(1))
		return catalog.NewMusicBrainzProvider(catalog.MusicBrainzConfig{
			BaseURL:     cfg.MusicBrainz.BaseURL,
			CoverArtURL: cfg.MusicBrainz.CoverArtURL,
		}, releases, covers, logger), []*catalog.Requester{releases, covers}

	default:
		requester := catalog.NewRequester("itunes", httpClient, logger)
		return catalog.NewITunesProvider(catalog.ITunesConfig{
			BaseURL: cfg.ITunes.BaseURL,
			Country: cfg.ITunes.Country,
		}, requester, logger), []*catalog.Requester{requester}
	}
}

// NewModelManager wires the text providers. Missing keys leave it without
// providers rather than failing.
func NewModelManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*ai.ModelManager, error) {
	httpClient := &http.Client{Timeout: constants.APIConfig.TextGenTimeout}

	modelManager, err := ai.NewModelManager(ctx, ai.ModelManagerConfig{
		Primary:        cfg.AI.Primary,
		EnableFallback: cfg.AI.EnableFallback,
		HTTPClient:     httpClient,
		OpenAI: ai.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		},
		Gemini: ai.GeminiConfig{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Gemini.Model,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model manager: %w", err)
	}
	return modelManager, nil
}

// NewPersonaGenerator wires the text providers behind the persona generator.
func NewPersonaGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*persona.Generator, error) {
	modelManager, err := NewModelManager(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return persona.NewGenerator(modelManager, prompt.DefaultPromptBuilder(), logger), nil
}
