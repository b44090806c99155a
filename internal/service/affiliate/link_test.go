package affiliate

import (
	"net/url"
	"testing"

	"github.com/kapu/sevenlist-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLink(t *testing.T) {
	b := NewBuilder("7list-mvp-20")
	result := domain.SearchResult{Title: "Duna", Subtitle: "Frank Herbert • 1965"}

	link := b.BuildLink(result, domain.CategoryBooks)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "www.amazon.com.br", u.Host)
	assert.Equal(t, "/s", u.Path)
	assert.Equal(t, "Duna Frank Herbert • 1965", u.Query().Get("k"))
	assert.Equal(t, "7list-mvp-20", u.Query().Get("tag"))
}

func TestBuildLink_EscapesReservedCharacters(t *testing.T) {
	link := NewBuilder("tag-20").BuildLink(domain.SearchResult{Title: "Rock & Roll #1?", Subtitle: "a=b"}, domain.CategoryMusic)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "Rock & Roll #1? a=b", u.Query().Get("k"))
	assert.Equal(t, "tag-20", u.Query().Get("tag"))
	assert.Empty(t, u.Fragment)
}

func TestBuildLink_NoSubtitle(t *testing.T) {
	link := NewBuilder("t").BuildLink(domain.SearchResult{Title: "Arrival"}, domain.CategoryMovies)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "Arrival", u.Query().Get("k"))
}
