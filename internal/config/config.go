package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kapu/sevenlist-go/internal/constants"
)

type Config struct {
	Server      ServerConfig
	Auth        AuthConfig
	TMDb        TMDbConfig
	GoogleBooks GoogleBooksConfig
	Music       MusicConfig
	Spotify     SpotifyConfig
	MusicBrainz MusicBrainzConfig
	ITunes      ITunesConfig
	OpenAI      OpenAIConfig
	Gemini      GeminiConfig
	AI          AIConfig
	Affiliate   AffiliateConfig
	Search      SearchConfig
	Redis       RedisConfig
	Postgres    PostgresConfig
	Logging     LoggingConfig
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

type AuthConfig struct {
	JWTSecret string
}

type TMDbConfig struct {
	APIKey  string
	BaseURL string
}

type GoogleBooksConfig struct {
	APIKey   string
	Endpoint string
}

type MusicConfig struct {
	Provider string
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	BaseURL      string
}

type MusicBrainzConfig struct {
	BaseURL     string
	CoverArtURL string
	UserAgent   string
}

type ITunesConfig struct {
	BaseURL string
	Country string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type AIConfig struct {
	Primary        string
	EnableFallback bool
}

type AffiliateConfig struct {
	Tag string
}

type SearchConfig struct {
	CacheTTL time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type LoggingConfig struct {
	Level string
	File  string
}

const (
	MusicProviderITunes      = "itunes"
	MusicProviderSpotify     = "spotify"
	MusicProviderMusicBrainz = "musicbrainz"

	AIProviderOpenAI = "openai"
	AIProviderGemini = "gemini"
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("PORT", 8080),
			AllowedOrigins: parseCommaSeparated(getEnv("ALLOWED_ORIGINS",
				"https://7list.me,https://www.7list.me,https://7list.vercel.app,http://localhost:5173,http://localhost:3000")),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		TMDb: TMDbConfig{
			APIKey:  getEnv("TMDB_API_KEY", ""),
			BaseURL: getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		},
		GoogleBooks: GoogleBooksConfig{
			APIKey:   getEnv("GOOGLE_BOOKS_API_KEY", ""),
			Endpoint: getEnv("GOOGLE_BOOKS_ENDPOINT", ""),
		},
		Music: MusicConfig{
			Provider: strings.ToLower(getEnv("MUSIC_PROVIDER", MusicProviderITunes)),
		},
		Spotify: SpotifyConfig{
			ClientID:     getEnv("SPOTIFY_CLIENT_ID", ""),
			ClientSecret: getEnv("SPOTIFY_CLIENT_SECRET", ""),
			TokenURL:     getEnv("SPOTIFY_TOKEN_URL", "https://accounts.spotify.com/api/token"),
			BaseURL:      getEnv("SPOTIFY_BASE_URL", "https://api.spotify.com/v1"),
		},
		MusicBrainz: MusicBrainzConfig{
			BaseURL:     getEnv("MUSICBRAINZ_BASE_URL", "https://musicbrainz.org/ws/2"),
			CoverArtURL: getEnv("COVERART_BASE_URL", "https://coverartarchive.org"),
			UserAgent:   getEnv("MUSICBRAINZ_USER_AGENT", "7list/1.0.0 (https://7list.vercel.app)"),
		},
		ITunes: ITunesConfig{
			BaseURL: getEnv("ITUNES_BASE_URL", "https://itunes.apple.com"),
			Country: getEnv("ITUNES_COUNTRY", "BR"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: getEnv("OPENAI_BASE_URL", ""),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		AI: AIConfig{
			Primary:        strings.ToLower(getEnv("AI_PRIMARY_PROVIDER", AIProviderOpenAI)),
			EnableFallback: getEnvBool("AI_ENABLE_FALLBACK", true),
		},
		Affiliate: AffiliateConfig{
			Tag: getEnv("AFFILIATE_TAG", "7list-mvp-20"),
		},
		Search: SearchConfig{
			CacheTTL: time.Duration(getEnvInt("SEARCH_CACHE_TTL_SECONDS", int(constants.CacheTTL.SearchResults/time.Second))) * time.Second,
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Enabled:  getEnvBool("POSTGRES_ENABLED", true),
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "sevenlist"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Music.Provider {
	case MusicProviderITunes, MusicProviderSpotify, MusicProviderMusicBrainz:
	default:
		return fmt.Errorf("MUSIC_PROVIDER must be one of itunes, spotify, musicbrainz; got %q", c.Music.Provider)
	}
	switch c.AI.Primary {
	case AIProviderOpenAI, AIProviderGemini:
	default:
		return fmt.Errorf("AI_PRIMARY_PROVIDER must be openai or gemini; got %q", c.AI.Primary)
	}
	if c.Search.CacheTTL < 0 {
		return fmt.Errorf("SEARCH_CACHE_TTL_SECONDS must not be negative")
	}
	if c.Affiliate.Tag == "" {
		return fmt.Errorf("AFFILIATE_TAG must not be empty")
	}
	return nil
}

// HasTextProvider reports whether at least one text-generation credential is present.
func (c *Config) HasTextProvider() bool {
	return c.OpenAI.APIKey != "" || c.Gemini.APIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
