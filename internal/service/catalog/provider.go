package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/kapu/sevenlist-go/internal/constants"
	"github.com/kapu/sevenlist-go/internal/domain"
)

// Provider searches one upstream catalog and returns normalized results,
// at most constants.SearchLimits.MaxResults, in upstream order.
type Provider interface {
	Name() string
	Category() domain.Category
	Search(ctx context.Context, query string) ([]domain.SearchResult, error)
}

// SubtitleSeparator joins subtitle fields.
const SubtitleSeparator = " • "

// JoinSubtitle joins the non-empty parts with SubtitleSeparator.
func JoinSubtitle(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, SubtitleSeparator)
}

// PlaceholderImage returns a deterministic stock image for seed.
func PlaceholderImage(seed string) string {
	return fmt.Sprintf(constants.APIConfig.PlaceholderURL, url.PathEscape(seed))
}

// capResults keeps the first MaxResults upstream entries.
func capResults[T any](items []T) []T {
	if len(items) > constants.SearchLimits.MaxResults {
		return items[:constants.SearchLimits.MaxResults]
	}
	return items
}

// yearOf extracts the leading four-digit year of a date such as "2014-11-05".
func yearOf(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return ""
	}
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return date[:4]
}

// secureImage upgrades http links and drops the page-curl decoration.
func secureImage(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") {
		raw = "https://" + strings.TrimPrefix(raw, "http://")
	}
	return strings.ReplaceAll(raw, "&edge=curl", "")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
