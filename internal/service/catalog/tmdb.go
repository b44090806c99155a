package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kapu/sevenlist-go/internal/constants"
	"github.com/kapu/sevenlist-go/internal/domain"
	"github.com/kapu/sevenlist-go/pkg/errors"
	"go.uber.org/zap"
)

type TMDbConfig struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
}

// TMDbProvider searches movies on The Movie Database.
type TMDbProvider struct {
	requester *Requester
	cfg       TMDbConfig
	logger    *zap.Logger
}

func NewTMDbProvider(cfg TMDbConfig, requester *Requester, logger *zap.Logger) *TMDbProvider {
	if cfg.ImageBaseURL == "" {
		cfg.ImageBaseURL = constants.APIConfig.TMDbImageBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &TMDbProvider{
		requester: requester,
		cfg:       cfg,
		logger:    logger,
	}
}

func (p *TMDbProvider) Name() string { return "tmdb" }

func (p *TMDbProvider) Category() domain.Category { return domain.CategoryMovies }

type tmdbSearchResponse struct {
	Results []tmdbMovie `json:"results"`
}

type tmdbMovie struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
	ReleaseDate   string `json:"release_date"`
	PosterPath    string `json:"poster_path"`
}

func (p *TMDbProvider) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	if p.cfg.APIKey == "" {
		p.logger.Warn("TMDb API key missing, movie search disabled")
		return nil, errors.NewConfigError("TMDb API key is not configured", "TMDB_API_KEY")
	}

	params := url.Values{}
	params.Set("api_key", p.cfg.APIKey)
	params.Set("query", query)
	params.Set("language", "pt-BR")
	params.Set("page", "1")

	body, err := p.requester.Get(ctx, p.cfg.BaseURL+"/search/movie", params, nil)
	if err != nil {
		return nil, fmt.Errorf("tmdb search: %w", err)
	}

	var resp tmdbSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.NewAPIError("tmdb: malformed response", 200, nil).WithCause(err)
	}

	return p.mapMovies(resp.Results), nil
}

func (p *TMDbProvider) mapMovies(movies []tmdbMovie) []domain.SearchResult {
	movies = capResults(movies)
	results := make([]domain.SearchResult, 0, len(movies))
	for _, m := range movies {
		title := firstNonEmpty(m.Title, m.OriginalTitle)
		if title == "" {
			continue
		}

		image := PlaceholderImage(title)
		if m.PosterPath != "" {
			image = p.cfg.ImageBaseURL + m.PosterPath
		}

		results = append(results, domain.SearchResult{
			Title:      title,
			Subtitle:   JoinSubtitle("Filme", yearOf(m.ReleaseDate)),
			ImageURL:   image,
			ExternalID: strconv.FormatInt(m.ID, 10),
			Category:   domain.CategoryMovies,
		})
	}
	return results
}
