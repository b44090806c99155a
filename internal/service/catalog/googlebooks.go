package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kapu/sevenlist-go/internal/constants"
	"github.com/kapu/sevenlist-go/internal/domain"
	apperrors "github.com/kapu/sevenlist-go/pkg/errors"
	"go.uber.org/zap"
	books "google.golang.org/api/books/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type GoogleBooksConfig struct {
	APIKey string
	// Endpoint overrides the API root, e.g. "http://127.0.0.1:8080/".
	Endpoint string
}

// GoogleBooksProvider searches Portuguese-language books.
type GoogleBooksProvider struct {
	service   *books.Service
	requester *Requester
	logger    *zap.Logger
}

func NewGoogleBooksProvider(ctx context.Context, cfg GoogleBooksConfig, httpClient *http.Client, requester *Requester, logger *zap.Logger) (*GoogleBooksProvider, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.APIConfig.CatalogTimeout}
	}

	// The key is optional; a caller-supplied client bypasses option.WithAPIKey,
	// so it is attached by the transport instead.
	client := &http.Client{
		Timeout:   httpClient.Timeout,
		Transport: &apiKeyTransport{key: cfg.APIKey, base: httpClient.Transport},
	}

	opts := []option.ClientOption{
		option.WithHTTPClient(client),
		option.WithoutAuthentication(),
	}
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	svc, err := books.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewServiceError("failed to create books client", "google_books", "init", err)
	}

	return &GoogleBooksProvider{
		service:   svc,
		requester: requester,
		logger:    logger,
	}, nil
}

func (p *GoogleBooksProvider) Name() string { return "google_books" }

func (p *GoogleBooksProvider) Category() domain.Category { return domain.CategoryBooks }

func (p *GoogleBooksProvider) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	var volumes *books.Volumes
	err := p.requester.Call(ctx, func(ctx context.Context) error {
		v, err := p.service.Volumes.List(query).
			LangRestrict("pt").
			PrintType("books").
			Context(ctx).
			Do()
		if err != nil {
			return toAPIError(err)
		}
		volumes = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("google books search: %w", err)
	}
	if volumes == nil {
		return []domain.SearchResult{}, nil
	}

	return mapVolumes(volumes.Items), nil
}

func mapVolumes(items []*books.Volume) []domain.SearchResult {
	items = capResults(items)
	results := make([]domain.SearchResult, 0, len(items))
	for _, v := range items {
		if v == nil {
			continue
		}
		info := v.VolumeInfo
		if info == nil {
			info = &books.VolumeVolumeInfo{}
		}

		title := firstNonEmpty(info.Title, "Título desconhecido")
		authors := strings.Join(info.Authors, ", ")
		if strings.TrimSpace(authors) == "" {
			authors = "Autor desconhecido"
		}

		image := ""
		if info.ImageLinks != nil {
			image = secureImage(firstNonEmpty(info.ImageLinks.Thumbnail, info.ImageLinks.SmallThumbnail))
		}
		if image == "" {
			image = PlaceholderImage(title)
		}

		results = append(results, domain.SearchResult{
			Title:      title,
			Subtitle:   JoinSubtitle(authors, yearOf(info.PublishedDate)),
			ImageURL:   image,
			ExternalID: v.Id,
			Category:   domain.CategoryBooks,
		})
	}
	return results
}

func toAPIError(err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return apperrors.NewAPIError(fmt.Sprintf("google books responded %d", gErr.Code), gErr.Code, nil).WithCause(err)
	}
	return apperrors.NewAPIError("google books request failed", 0, nil).WithCause(err)
}

type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.key == "" {
		return base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	q := clone.URL.Query()
	q.Set("key", t.key)
	clone.URL.RawQuery = q.Encode()
	return base.RoundTrip(clone)
}
