package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kapu/sevenlist-go/internal/constants"
	"github.com/kapu/sevenlist-go/internal/domain"
	"github.com/kapu/sevenlist-go/internal/service/catalog"
	"github.com/kapu/sevenlist-go/internal/util"
	apperrors "github.com/kapu/sevenlist-go/pkg/errors"
	"go.uber.org/zap"
)

type Status string

const (
	// StatusOK means the provider answered with at least one result.
	StatusOK Status = "ok"
	// StatusEmpty means the provider answered with no matches.
	StatusEmpty Status = "empty"
	// StatusSkipped means the query was too short and no provider was called.
	StatusSkipped Status = "skipped"
	// StatusFailed means the provider errored or the category is unknown.
	StatusFailed Status = "failed"
)

// Outcome is the full result of one lookup. Results is never nil.
type Outcome struct {
	Status   Status
	Results  []domain.SearchResult
	Provider string
	Err      error
}

// Router dispatches a query to the provider registered for its category.
type Router struct {
	providers map[domain.Category]catalog.Provider
	logger    *zap.Logger
}

// NewRouter builds the category lookup table. Each category may have one provider.
func NewRouter(logger *zap.Logger, providers ...catalog.Provider) (*Router, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	table := make(map[domain.Category]catalog.Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			continue
		}
		c := p.Category()
		if !c.IsValid() {
			return nil, fmt.Errorf("provider %s has invalid category %q", p.Name(), c)
		}
		if existing, ok := table[c]; ok {
			return nil, fmt.Errorf("category %s already served by %s", c, existing.Name())
		}
		table[c] = p
	}
	return &Router{providers: table, logger: logger}, nil
}

// Provider returns the provider registered for category.
func (r *Router) Provider(category domain.Category) (catalog.Provider, bool) {
	p, ok := r.providers[category]
	return p, ok
}

// Search returns results for query, or an empty list on any failure.
func (r *Router) Search(ctx context.Context, query string, category domain.Category) []domain.SearchResult {
	return r.Lookup(ctx, query, category).Results
}

// Lookup runs the query and reports how it went.
func (r *Router) Lookup(ctx context.Context, query string, category domain.Category) Outcome {
	query = strings.TrimSpace(query)
	if util.RuneLen(query) < constants.SearchLimits.MinQueryRunes {
		return Outcome{Status: StatusSkipped, Results: []domain.SearchResult{}}
	}

	provider, ok := r.providers[category]
	if !ok {
		return Outcome{
			Status:  StatusFailed,
			Results: []domain.SearchResult{},
			Err:     apperrors.NewValidationError("unsupported category", "category", string(category)),
		}
	}

	results, err := provider.Search(ctx, query)
	if err != nil {
		r.logFailure(provider.Name(), category, err)
		return Outcome{
			Status:   StatusFailed,
			Results:  []domain.SearchResult{},
			Provider: provider.Name(),
			Err:      err,
		}
	}

	if len(results) == 0 {
		return Outcome{Status: StatusEmpty, Results: []domain.SearchResult{}, Provider: provider.Name()}
	}

	return Outcome{Status: StatusOK, Results: results, Provider: provider.Name()}
}

func (r *Router) logFailure(provider string, category domain.Category, err error) {
	fields := []zap.Field{
		zap.String("provider", provider),
		zap.String("category", category.String()),
		zap.Error(err),
	}
	switch {
	case errors.Is(err, context.Canceled):
		r.logger.Debug("Search cancelled", fields...)
	case isConfigError(err):
		r.logger.Warn("Search provider not configured", fields...)
	default:
		r.logger.Warn("Search provider failed", fields...)
	}
}

func isConfigError(err error) bool {
	var cfgErr *apperrors.ConfigError
	return errors.As(err, &cfgErr)
}
