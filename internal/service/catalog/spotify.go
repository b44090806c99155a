package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kapu/sevenlist-go/internal/domain"
	apperrors "github.com/kapu/sevenlist-go/pkg/errors"
	"go.uber.org/zap"
)

type SpotifyConfig struct {
	BaseURL string
	Market  string
}

// SpotifyProvider searches tracks with an app-level bearer token.
type SpotifyProvider struct {
	requester *Requester
	tokens    *TokenCache
	cfg       SpotifyConfig
	logger    *zap.Logger
}

func NewSpotifyProvider(cfg SpotifyConfig, tokens *TokenCache, requester *Requester, logger *zap.Logger) *SpotifyProvider {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Market == "" {
		cfg.Market = "BR"
	}
	return &SpotifyProvider{requester: requester, tokens: tokens, cfg: cfg, logger: logger}
}

func (p *SpotifyProvider) Name() string { return "spotify" }

func (p *SpotifyProvider) Category() domain.Category { return domain.CategoryMusic }

type spotifySearchResponse struct {
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

type spotifyTrack struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name        string `json:"name"`
		ReleaseDate string `json:"release_date"`
		Images      []struct {
			URL    string `json:"url"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"images"`
	} `json:"album"`
}

func (p *SpotifyProvider) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	token, err := p.tokens.Token(ctx)
	if err != nil {
		var cfgErr *apperrors.ConfigError
		if errors.As(err, &cfgErr) {
			p.logger.Warn("Spotify credentials missing, music search disabled")
		}
		return nil, fmt.Errorf("spotify token: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("market", p.cfg.Market)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	body, err := p.requester.Get(ctx, p.cfg.BaseURL+"/search", params, header)
	if err != nil {
		var apiErr *apperrors.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			p.tokens.Invalidate()
		}
		return nil, fmt.Errorf("spotify search: %w", err)
	}

	var resp spotifySearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.NewAPIError("spotify: malformed response", 200, nil).WithCause(err)
	}

	return mapSpotifyTracks(resp.Tracks.Items), nil
}

func mapSpotifyTracks(tracks []spotifyTrack) []domain.SearchResult {
	tracks = capResults(tracks)
	results := make([]domain.SearchResult, 0, len(tracks))
	for _, t := range tracks {
		title := strings.TrimSpace(t.Name)
		if title == "" {
			continue
		}

		artists := make([]string, 0, len(t.Artists))
		for _, a := range t.Artists {
			if a.Name != "" {
				artists = append(artists, a.Name)
			}
		}

		image, width := "", -1
		for _, img := range t.Album.Images {
			if img.URL != "" && img.Width > width {
				image, width = img.URL, img.Width
			}
		}
		if image == "" {
			image = PlaceholderImage(title)
		}

		results = append(results, domain.SearchResult{
			Title:      title,
			Subtitle:   JoinSubtitle(strings.Join(artists, ", "), t.Album.Name, yearOf(t.Album.ReleaseDate)),
			ImageURL:   image,
			ExternalID: t.ID,
			Category:   domain.CategoryMusic,
		})
	}
	return results
}
