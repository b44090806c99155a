package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kapu/sevenlist-go/internal/constants"
	"github.com/kapu/sevenlist-go/internal/domain"
	"github.com/kapu/sevenlist-go/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// musicBrainzLimiter is shared by every MusicBrainzProvider in the process;
// the public API allows one request per second per client.
var musicBrainzLimiter = rate.NewLimiter(rate.Every(constants.MusicBrainzConfig.MinInterval), 1)

type MusicBrainzConfig struct {
	BaseURL     string
	CoverArtURL string
}

// MusicBrainzProvider searches releases and resolves cover art per release.
type MusicBrainzProvider struct {
	requester *Requester
	covers    *Requester
	limiter   *rate.Limiter
	cfg       MusicBrainzConfig
	logger    *zap.Logger
}

type MusicBrainzOption func(*MusicBrainzProvider)

// WithLimiter replaces the process-wide limiter.
func WithLimiter(l *rate.Limiter) MusicBrainzOption {
	return func(p *MusicBrainzProvider) { p.limiter = l }
}

// NewMusicBrainzProvider needs a requester carrying the mandatory User-Agent
// and a separate one for the Cover Art Archive.
func NewMusicBrainzProvider(cfg MusicBrainzConfig, requester, covers *Requester, logger *zap.Logger, opts ...MusicBrainzOption) *MusicBrainzProvider {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.CoverArtURL = strings.TrimRight(cfg.CoverArtURL, "/")
	p := &MusicBrainzProvider{
		requester: requester,
		covers:    covers,
		limiter:   musicBrainzLimiter,
		cfg:       cfg,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *MusicBrainzProvider) Name() string { return "musicbrainz" }

func (p *MusicBrainzProvider) Category() domain.Category { return domain.CategoryMusic }

type mbReleaseResponse struct {
	Releases []mbRelease `json:"releases"`
}

type mbRelease struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Date         string `json:"date"`
	ArtistCredit []struct {
		Name string `json:"name"`
	} `json:"artist-credit"`
}

type coverArtResponse struct {
	Images []struct {
		Front      bool   `json:"front"`
		Image      string `json:"image"`
		Thumbnails struct {
			Large string `json:"large"`
			Small string `json:"small"`
		} `json:"thumbnails"`
	} `json:"images"`
}

func (p *MusicBrainzProvider) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("fmt", "json")
	reqURL := p.cfg.BaseURL + "/release/?" + params.Encode()

	// Every attempt, retries included, passes the limiter.
	var body []byte
	err := p.requester.Call(ctx, func(ctx context.Context) error {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		b, err := p.requester.do(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("musicbrainz search: %w", err)
	}

	var resp mbReleaseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.NewAPIError("musicbrainz: malformed response", 200, nil).WithCause(err)
	}

	releases := capResults(resp.Releases)
	images := p.lookupCovers(ctx, releases)

	results := make([]domain.SearchResult, 0, len(releases))
	for i, r := range releases {
		title := firstNonEmpty(r.Title, "Álbum desconhecido")
		artist := "Artista desconhecido"
		if len(r.ArtistCredit) > 0 && strings.TrimSpace(r.ArtistCredit[0].Name) != "" {
			artist = r.ArtistCredit[0].Name
		}
		results = append(results, domain.SearchResult{
			Title:      title,
			Subtitle:   JoinSubtitle(artist, yearOf(r.Date)),
			ImageURL:   images[i],
			ExternalID: r.ID,
			Category:   domain.CategoryMusic,
		})
	}
	return results, nil
}

// lookupCovers fetches cover art concurrently. images[i] belongs to releases[i].
func (p *MusicBrainzProvider) lookupCovers(ctx context.Context, releases []mbRelease) []string {
	images := make([]string, len(releases))
	wp := pool.New().WithMaxGoroutines(constants.MusicBrainzConfig.CoverConcurrency)
	for i, r := range releases {
		wp.Go(func() {
			images[i] = p.coverFor(ctx, r.ID)
		})
	}
	wp.Wait()
	return images
}

func (p *MusicBrainzProvider) coverFor(ctx context.Context, releaseID string) string {
	placeholder := PlaceholderImage(releaseID)
	if releaseID == "" || p.covers == nil {
		return placeholder
	}

	body, err := p.covers.Get(ctx, p.cfg.CoverArtURL+"/release/"+url.PathEscape(releaseID), nil, nil)
	if err != nil {
		p.logger.Debug("Cover art lookup failed", zap.String("release", releaseID), zap.Error(err))
		return placeholder
	}

	var resp coverArtResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return placeholder
	}

	for _, img := range resp.Images {
		if !img.Front {
			continue
		}
		if u := secureImage(firstNonEmpty(img.Thumbnails.Large, img.Thumbnails.Small, img.Image)); u != "" {
			return u
		}
	}
	return placeholder
}
