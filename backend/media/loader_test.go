package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestHTTPLoaderCachesBody(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write(pngHeader)
	}))
	defer srv.Close()

	cache := NewCache(4)
	l := NewHTTPLoader(cache, 0)
	url := srv.URL + "/files/view/p1.png"

	require.NoError(t, l.Load(context.Background(), url))
	require.NoError(t, l.Load(context.Background(), url))

	e, ok := cache.Get(url)
	require.True(t, ok)
	assert.Equal(t, pngHeader, e.Body)
	assert.Equal(t, "image/png", e.ContentType)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestHTTPLoaderRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cache := NewCache(4)
	err := NewHTTPLoader(cache, 0).Load(context.Background(), srv.URL+"/missing.mp3")
	assert.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

func TestHTTPLoaderCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewHTTPLoader(NewCache(1), 0).Load(ctx, "http://127.0.0.1:1/a.mp3")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPLoaderEmptyURL(t *testing.T) {
	assert.Error(t, NewHTTPLoader(NewCache(1), 0).Load(context.Background(), ""))
}
