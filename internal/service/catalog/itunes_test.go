package catalog

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestITunesProvider_Search(t *testing.T) {
	srv := newJSONServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "construção", q.Get("term"))
		assert.Equal(t, "music", q.Get("media"))
		assert.Equal(t, "song", q.Get("entity"))
		assert.Equal(t, "BR", q.Get("country"))
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		fmt.Fprint(w, `{"resultCount":2,"results":[
			{"trackId":11,"trackName":"Construção","collectionName":"Construção","artistName":"Chico Buarque",
			 "releaseDate":"1971-01-01T12:00:00Z","artworkUrl100":"https://is1.mzstatic.com/a/100x100bb.jpg"},
			{"collectionId":22,"collectionName":"Álbum Sem Faixa","artistName":"Alguém"}
		]}`)
	})

	p := NewITunesProvider(ITunesConfig{BaseURL: srv.URL}, newTestRequester("itunes"), zap.NewNop())
	results, err := p.Search(context.Background(), "construção")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Construção", results[0].Title)
	assert.Equal(t, "Chico Buarque • 1971", results[0].Subtitle)
	assert.Equal(t, "https://is1.mzstatic.com/a/600x600bb.jpg", results[0].ImageURL)
	assert.Equal(t, "11", results[0].ExternalID)

	assert.Equal(t, "Álbum Sem Faixa", results[1].Title)
	assert.Equal(t, "Alguém", results[1].Subtitle)
	assert.Equal(t, PlaceholderImage("Álbum Sem Faixa"), results[1].ImageURL)
	assert.Equal(t, "22", results[1].ExternalID)
}

func TestITunesProvider_AlbumInSubtitle(t *testing.T) {
	srv := newJSONServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"trackId":1,"trackName":"Águas de Março","collectionName":"Elis & Tom","artistName":"Elis Regina","releaseDate":"1974-01-01"}]}`)
	})

	p := NewITunesProvider(ITunesConfig{BaseURL: srv.URL}, newTestRequester("itunes"), zap.NewNop())
	results, err := p.Search(context.Background(), "aguas")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Elis Regina • Elis & Tom • 1974", results[0].Subtitle)
}
