package gestalt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSource_Load(t *testing.T) {
	var failures, largeHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/configs/app.yaml", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Token"))
		_, _ = w.Write([]byte("port: 8080"))
	})
	mux.HandleFunc("/configs/app", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"port": 8080}`))
	})
	mux.HandleFunc("/configs/plain", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("port=8080"))
	})
	mux.HandleFunc("/configs/missing.json", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	mux.HandleFunc("/configs/flaky.json", func(w http.ResponseWriter, _ *http.Request) {
		if failures.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok": true}`))
	})
	mux.HandleFunc("/configs/slow.json", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	mux.HandleFunc("/configs/large.json", func(w http.ResponseWriter, _ *http.Request) {
		largeHits.Add(1)
		_, _ = w.Write([]byte(`{"payload": "0123456789"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()

	t.Run("HTTPSource_Load_FormatFromURL", func(t *testing.T) {
		source := NewHTTPSource(srv.URL+"/configs/app.yaml?rev=1",
			WithHTTPSourceHeader("X-Token", "secret"),
			WithHTTPSourceName("remote"),
		)
		b, m, err := source.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "port: 8080", string(b))
		assert.Equal(t, Metadata{Format: "yaml", Source: "remote"}, m)
	})

	t.Run("HTTPSource_Load_FormatFromContentType", func(t *testing.T) {
		_, m, err := NewHTTPSource(srv.URL + "/configs/app").Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "json", m.Format)
		assert.Equal(t, srv.URL+"/configs/app", m.Source)
	})

	t.Run("HTTPSource_Load_ExplicitFormat", func(t *testing.T) {
		_, m, err := NewHTTPSource(srv.URL+"/configs/plain", WithHTTPSourceFormat("props")).Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "properties", m.Format)
	})

	t.Run("HTTPSource_Load_UnknownFormat", func(t *testing.T) {
		_, _, err := NewHTTPSource(srv.URL + "/configs/plain").Load(ctx)
		assert.ErrorContains(t, err, "cannot detect format")
	})

	t.Run("HTTPSource_Load_NotFoundIsNotRetried", func(t *testing.T) {
		_, _, err := NewHTTPSource(srv.URL+"/configs/missing.json", WithHTTPSourceRetries(3)).Load(ctx)
		assert.EqualError(t, err, "HTTPSource: non-2xx status code: 404")
	})

	t.Run("HTTPSource_Load_Retries", func(t *testing.T) {
		b, _, err := NewHTTPSource(srv.URL+"/configs/flaky.json", WithHTTPSourceRetries(3)).Load(ctx)
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok": true}`, string(b))
		assert.Equal(t, int32(3), failures.Load())
	})

	t.Run("HTTPSource_Load_ContextCanceled", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, _, err := NewHTTPSource(srv.URL + "/configs/slow.json").Load(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("HTTPSource_Load_BodyTooLarge", func(t *testing.T) {
		_, _, err := NewHTTPSource(srv.URL+"/configs/large.json",
			WithHTTPSourceMaxBodySize(8),
			WithHTTPSourceRetries(3),
		).Load(ctx)
		assert.ErrorIs(t, err, ErrBodyTooLarge)
		assert.Equal(t, int32(1), largeHits.Load())

		b, _, err := NewHTTPSource(srv.URL+"/configs/large.json", WithHTTPSourceMaxBodySize(25)).Load(ctx)
		require.NoError(t, err)
		assert.Len(t, b, 25)
	})

	t.Run("HTTPSource_Load_InvalidURL", func(t *testing.T) {
		_, _, err := NewHTTPSource("not a url").Load(ctx)
		assert.ErrorContains(t, err, "invalid url")
	})
}

func TestMapSource_Load(t *testing.T) {
	values := map[string]string{"db.port": "3306"}
	source := NewMapSource(values)
	values["db.port"] = "changed"

	b, m, err := source.Load(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"db.port":"3306"}`, string(b))
	assert.Equal(t, "mapConfig", m.Format)
}

func TestStringSource_Load(t *testing.T) {
	t.Run("StringSource_Load_Success", func(t *testing.T) {
		b, m, err := NewStringSource("a: b", "YML").Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "a: b", string(b))
		assert.Equal(t, "yaml", m.Format)
	})

	t.Run("StringSource_Load_NoFormat", func(t *testing.T) {
		_, _, err := NewStringSource("a: b", "").Load(context.Background())
		assert.EqualError(t, err, "StringSource: format is empty")
	})
}
