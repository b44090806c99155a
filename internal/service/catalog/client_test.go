package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kapu/sevenlist-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequester_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := newJSONServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	})

	r := newTestRequester("test", WithMaxAttempts(2))
	body, err := r.Get(context.Background(), srv.URL, nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRequester_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := newJSONServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	})

	r := newTestRequester("test", WithMaxAttempts(3))
	_, err := r.Get(context.Background(), srv.URL, nil, nil)

	var apiErr *apperrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.False(t, r.IsCircuitOpen())
}

func TestRequester_OpensCircuit(t *testing.T) {
	var calls int32
	srv := newJSONServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	r := newTestRequester("test", WithMaxAttempts(1))
	for i := 0; i < 3; i++ {
		_, err := r.Get(context.Background(), srv.URL, nil, nil)
		require.Error(t, err)
	}
	require.True(t, r.IsCircuitOpen())

	_, err := r.Get(context.Background(), srv.URL, nil, nil)
	var apiErr *apperrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRequester_SendsHeaders(t *testing.T) {
	srv := newJSONServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7list-test/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "x", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{}`)
	})

	r := newTestRequester("test", WithUserAgent("7list-test/1.0"))
	h := http.Header{}
	h.Set("Authorization", "Bearer abc")
	_, err := r.Get(context.Background(), srv.URL, map[string][]string{"q": {"x"}}, h)
	require.NoError(t, err)
}

func TestRequester_ContextCancelStopsRetry(t *testing.T) {
	srv := newJSONServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	r := newTestRequester("test", WithMaxAttempts(5))
	r.baseDelay = time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Get(ctx, srv.URL, nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
