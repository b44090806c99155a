package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kapu/sevenlist-go/internal/config"
	"github.com/kapu/sevenlist-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(musicProvider string) *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: 8080, AllowedOrigins: []string{"http://localhost:5173"}},
		Auth:      config.AuthConfig{JWTSecret: "secret"},
		TMDb:      config.TMDbConfig{BaseURL: "http://127.0.0.1:1"},
		Music:     config.MusicConfig{Provider: musicProvider},
		ITunes:    config.ITunesConfig{BaseURL: "http://127.0.0.1:1", Country: "BR"},
		AI:        config.AIConfig{Primary: config.AIProviderOpenAI},
		Affiliate: config.AffiliateConfig{Tag: "7list-mvp-20"},
		Search:    config.SearchConfig{CacheTTL: 10 * time.Minute},
	}
}

func TestBuild_WithoutInfrastructure(t *testing.T) {
	c, err := Build(context.Background(), testConfig(config.MusicProviderITunes), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(c.Close)

	assert.Nil(t, c.Cache)
	assert.Nil(t, c.Postgres)
	assert.Nil(t, c.Profiles)
	require.NotNil(t, c.Search)
	require.NotNil(t, c.Persona)
	assert.False(t, c.Persona.Configured())

	for _, cat := range domain.Categories {
		_, ok := c.Search.Provider(cat)
		assert.True(t, ok, "provider for %s", cat)
	}

	srv, err := c.NewServer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rankings", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBuild_MovieSearchWithoutKeyIsEmpty(t *testing.T) {
	c, err := Build(context.Background(), testConfig(config.MusicProviderITunes), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(c.Close)

	results := c.Search.Search(context.Background(), "Interestelar", domain.CategoryMovies)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestNewSearchRouter_MusicProviderSelection(t *testing.T) {
	cases := map[string]string{
		config.MusicProviderITunes:      "itunes",
		config.MusicProviderSpotify:     "spotify",
		config.MusicProviderMusicBrainz: "musicbrainz",
		"":                              "itunes",
	}
	for setting, want := range cases {
		router, _, err := NewSearchRouter(context.Background(), testConfig(setting), nil, zap.NewNop())
		require.NoError(t, err)

		p, ok := router.Provider(domain.CategoryMusic)
		require.True(t, ok)
		assert.Equal(t, want, p.Name(), "MUSIC_PROVIDER=%q", setting)
	}
}

func TestNewSearchRouter_ReturnsUpstreamRequesters(t *testing.T) {
	cases := map[string][]string{
		config.MusicProviderITunes:      {"tmdb", "googlebooks", "itunes"},
		config.MusicProviderSpotify:     {"tmdb", "googlebooks", "spotify"},
		config.MusicProviderMusicBrainz: {"tmdb", "googlebooks", "musicbrainz", "coverartarchive"},
	}
	for setting, want := range cases {
		_, requesters, err := NewSearchRouter(context.Background(), testConfig(setting), nil, zap.NewNop())
		require.NoError(t, err)

		names := make([]string, 0, len(requesters))
		for _, r := range requesters {
			names = append(names, r.Name())
			assert.False(t, r.IsCircuitOpen())
		}
		assert.Equal(t, want, names, "MUSIC_PROVIDER=%q", setting)
	}
}

func TestContainer_HealthListsBreakers(t *testing.T) {
	c, err := Build(context.Background(), testConfig(config.MusicProviderITunes), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	require.NotNil(t, c.TextGen)

	srv, err := c.NewServer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status   string `json:"status"`
		Breakers []struct {
			Name string `json:"name"`
		} `json:"breakers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)

	names := make([]string, 0, len(body.Breakers))
	for _, b := range body.Breakers {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"tmdb", "googlebooks", "itunes", "text-generation"}, names)
}

func TestBuild_NilArguments(t *testing.T) {
	_, err := Build(context.Background(), nil, zap.NewNop())
	assert.Error(t, err)
	_, err = Build(context.Background(), testConfig(""), nil)
	assert.Error(t, err)
}
