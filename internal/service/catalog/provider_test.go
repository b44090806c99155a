package catalog

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestRequester(name string, opts ...RequesterOption) *Requester {
	r := NewRequester(name, &http.Client{}, zap.NewNop(), opts...)
	r.baseDelay, r.jitter = 0, 0
	return r
}

func newJSONServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func assertWellFormedURL(t *testing.T, raw string) {
	t.Helper()
	u, err := url.Parse(raw)
	if assert.NoError(t, err) {
		assert.True(t, u.IsAbs(), "expected absolute url, got %q", raw)
		assert.Contains(t, []string{"http", "https"}, u.Scheme)
	}
}

func TestJoinSubtitle(t *testing.T) {
	assert.Equal(t, "Filme • 2014", JoinSubtitle("Filme", "2014"))
	assert.Equal(t, "Filme", JoinSubtitle("Filme", ""))
	assert.Equal(t, "Artista • Álbum • 1999", JoinSubtitle("Artista", " Álbum ", "1999"))
	assert.Equal(t, "", JoinSubtitle("", " "))
}

func TestPlaceholderImage(t *testing.T) {
	a := PlaceholderImage("O Poderoso Chefão")
	assert.Equal(t, a, PlaceholderImage("O Poderoso Chefão"))
	assert.NotEqual(t, a, PlaceholderImage("Duna"))
	assert.True(t, strings.HasPrefix(a, "https://picsum.photos/seed/"))
	assert.True(t, strings.HasSuffix(a, "/300/450"))
	assert.NotContains(t, a, " ")
	assertWellFormedURL(t, a)
}

func TestYearOf(t *testing.T) {
	assert.Equal(t, "2014", yearOf("2014-11-05"))
	assert.Equal(t, "1965", yearOf("1965"))
	assert.Equal(t, "", yearOf("19"))
	assert.Equal(t, "", yearOf("n/a-2000"))
	assert.Equal(t, "", yearOf(""))
}

func TestSecureImage(t *testing.T) {
	assert.Equal(t,
		"https://books.google.com/books/content?id=abc&printsec=frontcover&img=1&zoom=1",
		secureImage("http://books.google.com/books/content?id=abc&printsec=frontcover&img=1&zoom=1&edge=curl"))
	assert.Equal(t, "", secureImage("  "))
}

func TestCapResults(t *testing.T) {
	assert.Len(t, capResults([]int{1, 2, 3, 4, 5, 6, 7, 8}), 5)
	assert.Equal(t, []int{1, 2}, capResults([]int{1, 2}))
	assert.Empty(t, capResults([]int(nil)))
}
