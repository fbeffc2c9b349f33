package openaq

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchLatest(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("coordinates")
		gotKey = r.Header.Get("X-API-Key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"value":12.5}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")
	resp, err := client.FetchLatest(context.Background(), -0.18, -78.47)
	require.NoError(t, err)

	assert.Equal(t, "/v3/latest", gotPath)
	assert.Equal(t, "-0.18,-78.47", gotQuery)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.ContentType)
	assert.JSONEq(t, `{"results":[{"value":12.5}]}`, string(resp.Body))
}

func TestFetchLatestPassesUpstreamStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("down"))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, "k").FetchLatest(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "down", string(resp.Body))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "single attempt only")
}

func TestFetchLatestWithoutKey(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", "")
	assert.False(t, client.Configured())

	_, err := client.FetchLatest(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = client.FetchLatestWithRetry(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestFetchLatestWithRetryRecovers(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k")
	client.MaxElapsedTime = 10 * time.Second

	resp, err := client.FetchLatestWithRetry(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, `{"results":[]}`, string(resp.Body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchLatestWithRetryPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("bad key"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k").FetchLatestWithRetry(context.Background(), 1, 2)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "err = %v, want *StatusError", err)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
