package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kapu/sevenlist-go/internal/domain"
	"github.com/kapu/sevenlist-go/pkg/errors"
	"go.uber.org/zap"
)

type ITunesConfig struct {
	BaseURL string
	Country string
}

// ITunesProvider searches songs on the iTunes Search API. No credential is needed.
type ITunesProvider struct {
	requester *Requester
	cfg       ITunesConfig
	logger    *zap.Logger
}

func NewITunesProvider(cfg ITunesConfig, requester *Requester, logger *zap.Logger) *ITunesProvider {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Country == "" {
		cfg.Country = "BR"
	}
	return &ITunesProvider{requester: requester, cfg: cfg, logger: logger}
}

func (p *ITunesProvider) Name() string { return "itunes" }

func (p *ITunesProvider) Category() domain.Category { return domain.CategoryMusic }

type itunesResponse struct {
	Results []itunesTrack `json:"results"`
}

type itunesTrack struct {
	TrackID        int64  `json:"trackId"`
	CollectionID   int64  `json:"collectionId"`
	TrackName      string `json:"trackName"`
	CollectionName string `json:"collectionName"`
	ArtistName     string `json:"artistName"`
	ReleaseDate    string `json:"releaseDate"`
	ArtworkURL100  string `json:"artworkUrl100"`
}

func (p *ITunesProvider) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	params := url.Values{}
	params.Set("term", query)
	params.Set("media", "music")
	params.Set("entity", "song")
	params.Set("country", p.cfg.Country)

	body, err := p.requester.Get(ctx, p.cfg.BaseURL+"/search", params, nil)
	if err != nil {
		return nil, fmt.Errorf("itunes search: %w", err)
	}

	var resp itunesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.NewAPIError("itunes: malformed response", 200, nil).WithCause(err)
	}

	return mapTracks(resp.Results), nil
}

func mapTracks(tracks []itunesTrack) []domain.SearchResult {
	tracks = capResults(tracks)
	results := make([]domain.SearchResult, 0, len(tracks))
	for _, t := range tracks {
		title := firstNonEmpty(t.TrackName, t.CollectionName)
		if title == "" {
			continue
		}

		image := secureImage(strings.Replace(t.ArtworkURL100, "100x100bb", "600x600bb", 1))
		if image == "" {
			image = PlaceholderImage(title)
		}

		album := t.CollectionName
		if album == title {
			album = ""
		}

		id := t.TrackID
		if id == 0 {
			id = t.CollectionID
		}
		externalID := ""
		if id != 0 {
			externalID = strconv.FormatInt(id, 10)
		}

		results = append(results, domain.SearchResult{
			Title:      title,
			Subtitle:   JoinSubtitle(t.ArtistName, album, yearOf(t.ReleaseDate)),
			ImageURL:   image,
			ExternalID: externalID,
			Category:   domain.CategoryMusic,
		})
	}
	return results
}
