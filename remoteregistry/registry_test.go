package remoteregistry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotprompt-go/dotprompt"
)

func newTestServer(t *testing.T, files map[string]string, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestStore(t *testing.T, srv *httptest.Server, opts ...Option) *Store {
	t.Helper()
	fetcher, err := NewHTTPFetcher(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return New(fetcher, opts...)
}

func TestStore_Load(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, map[string]string{"/greeter.prompt": "Hello {{name}}"}, nil)
	s := newTestStore(t, srv)

	source, err := s.Load(context.Background(), "greeter")
	require.NoError(t, err)
	assert.Equal(t, "Hello {{name}}", source)
}

func TestStore_LoadMissing(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil, nil)
	s := newTestStore(t, srv)

	_, err := s.Load(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_LoadPartial_UnderscoreFallback(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, map[string]string{"/_footer.prompt": "-- footer --"}, nil)
	s := newTestStore(t, srv)

	partial, err := s.LoadPartial(context.Background(), "footer")
	require.NoError(t, err)
	require.NotNil(t, partial)
	assert.Equal(t, "-- footer --", partial.Source)
}

func TestStore_LoadPartial_MissingIsNil(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil, nil)
	s := newTestStore(t, srv)

	partial, err := s.LoadPartial(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, partial)
}

func TestStore_CacheHitsServerOnce(t *testing.T) {
	t.Parallel()
	var hits atomic.Int64
	srv := newTestServer(t, map[string]string{"/x.prompt": "body"}, &hits)
	s := newTestStore(t, srv)

	for range 3 {
		_, err := s.Load(context.Background(), "x")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), hits.Load())
}

func TestStore_TTLExpiryRefetches(t *testing.T) {
	t.Parallel()
	var hits atomic.Int64
	srv := newTestServer(t, map[string]string{"/x.prompt": "body"}, &hits)
	s := newTestStore(t, srv, WithTTL(time.Nanosecond))

	_, err := s.Load(context.Background(), "x")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = s.Load(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestStore_Evict(t *testing.T) {
	t.Parallel()
	var hits atomic.Int64
	srv := newTestServer(t, map[string]string{"/x.prompt": "body"}, &hits)
	s := newTestStore(t, srv)

	_, err := s.Load(context.Background(), "x")
	require.NoError(t, err)
	s.Evict("x")
	_, err = s.Load(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestStore_InvalidName(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, nil, nil)
	s := newTestStore(t, srv)

	_, err := s.Load(context.Background(), "a/b")
	require.ErrorIs(t, err, dotprompt.ErrInvalidName)
}

func TestHTTPFetcher_StatusError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	fetcher, err := NewHTTPFetcher(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background(), "x.prompt")
	require.ErrorIs(t, err, ErrHTTPStatus)
	require.ErrorIs(t, err, ErrFetchFailed)
}

func TestHTTPFetcher_AuthToken(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sekrit" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)
	fetcher, err := NewHTTPFetcher(srv.URL, WithHTTPClient(srv.Client()), WithAuthToken("sekrit"))
	require.NoError(t, err)

	data, err := fetcher.Fetch(context.Background(), "x.prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

func TestNewHTTPFetcher_InvalidBaseURL(t *testing.T) {
	t.Parallel()
	_, err := NewHTTPFetcher("")
	require.Error(t, err)
	_, err = NewHTTPFetcher("not-a-url")
	require.Error(t, err)
}
