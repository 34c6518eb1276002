package dataset

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
	"go.uber.org/zap"

	"photo-map/report"
)

func TestHTTPSource_Decodes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/areas.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"a1","name":"Castle","centerLat":34.85,"centerLng":134.6,"radiusKm":0.8,"isActive":true},{"id":"a2","name":"Broken","radiusKm":1,"isActive":true}]`))
	})
	mux.HandleFunc("/photos.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"p1","title":"Keep","takenAt":"2024-04-02T05:41:00Z","latitude":34.85,"longitude":134.6,"viewCount":3,"isFeatured":true,"tags":["castle"]}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := &HTTPSource{AreasURL: srv.URL + "/areas.json", PhotosURL: srv.URL + "/photos.json", Log: zap.NewNop()}

	areas, err := src.Areas(context.Background())
	require.NoError(t, err)
	require.Len(t, areas, 2)
	assert.True(t, areas[0].HasCenter())
	assert.False(t, areas[1].HasCenter(), "missing coordinates stay nil")

	photos, err := src.Photos(context.Background())
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, time.Date(2024, 4, 2, 5, 41, 0, 0, time.UTC), photos[0].TakenAt)
	assert.Equal(t, []string{"castle"}, photos[0].Tags)
}

func TestHTTPSource_RetriesBounded(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := &HTTPSource{AreasURL: srv.URL, Attempts: 3, RetryDelay: time.Millisecond}
	_, err := src.Areas(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestHTTPSource_RecoversOnRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			_, _ = w.Write([]byte(`[{"id":`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	src := &HTTPSource{PhotosURL: srv.URL, Attempts: 2, RetryDelay: time.Millisecond}
	photos, err := src.Photos(context.Background())
	require.NoError(t, err)
	assert.Empty(t, photos)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestHTTPSource_UsesCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	cache := NewBodyCache(time.Minute)
	defer cache.Close()
	src := &HTTPSource{AreasURL: srv.URL, Cache: cache}
	for i := 0; i < 3; i++ {
		_, err := src.Areas(context.Background())
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestHTTPSource_MalformedBodyFallsBack(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	src := &HTTPSource{AreasURL: srv.URL, PhotosURL: srv.URL, Attempts: 2, RetryDelay: time.Millisecond, Log: zap.NewNop()}
	_, err := src.Areas(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errMalformedJSON))
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))

	tracker := report.NewTracker(zap.NewNop())
	c := NewCatalog(src, EmbeddedSource{}, tracker, zap.NewNop())
	require.NoError(t, c.Load(context.Background()))
	assert.True(t, c.Degraded())

	areas, _ := EmbeddedSource{}.Areas(context.Background())
	photos, _ := EmbeddedSource{}.Photos(context.Background())
	assert.Equal(t, areas, c.Areas())
	assert.Equal(t, photos, c.Photos())
	assert.Equal(t, 2, tracker.Count(report.KindDataFetch))
}
