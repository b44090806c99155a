package affiliate

import (
	"net/url"
	"strings"

	"github.com/kapu/sevenlist-go/internal/constants"
	"github.com/kapu/sevenlist-go/internal/domain"
)

// Builder produces tagged storefront search links for picked items.
type Builder struct {
	baseURL string
	tag     string
}

func NewBuilder(tag string) *Builder {
	return &Builder{baseURL: constants.APIConfig.AffiliateBaseURL, tag: tag}
}

// BuildLink searches the storefront for "<title> <subtitle>". The category is
// accepted so per-category storefront sections can be added without changing callers.
func (b *Builder) BuildLink(result domain.SearchResult, _ domain.Category) string {
	terms := strings.TrimSpace(result.Title + " " + result.Subtitle)

	q := url.Values{}
	q.Set("k", terms)
	q.Set("tag", b.tag)
	return b.baseURL + "?" + q.Encode()
}

var _ domain.LinkBuilder = (*Builder)(nil)
