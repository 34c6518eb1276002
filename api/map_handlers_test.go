package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"photo-map/clustering"
	"photo-map/dataset"
	"photo-map/marker"
	"photo-map/model"
	"photo-map/report"
	"photo-map/storage"
)

const testPassword = "hunter2"

func newTestRouter(t *testing.T) (*mux.Router, *MapHandlers) {
	t.Helper()
	logger := zap.NewNop()
	tracker := report.NewTracker(logger)
	catalog := dataset.NewCatalog(dataset.EmbeddedSource{}, nil, tracker, logger)
	require.NoError(t, catalog.Load(context.Background()))

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := clustering.DefaultConfig()
	h := &MapHandlers{
		Catalog:   catalog,
		Clusterer: clustering.NewClusterer(cfg, logger, tracker),
		Builder:   marker.NewBuilder(cfg, tracker, logger),
		Tracker:   tracker,
		Log:       logger,
		Storage:   &storage.LocalPhotoStorage{Directory: t.TempDir(), URLPrefix: "/uploads"},
		SecretKey: "test-secret",
		PwHash:    string(hash),
	}
	r := mux.NewRouter()
	h.Register(r)
	return r, h
}

func do(t *testing.T, r http.Handler, req *http.Request, out any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func TestClustersEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	var resp clustersResponse
	rec := do(t, r, httptest.NewRequest(http.MethodGet, "/api/clusters?zoom=10", nil), &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Clusters, 3)
	assert.True(t, resp.Clusters[0].IsCluster)
	assert.Equal(t, []string{"himeji-castle", "kokoen"}, resp.Clusters[0].MemberIDs())
	assert.Equal(t, "shoshazan", resp.Clusters[1].ID)
	assert.Equal(t, "tatsuno", resp.Clusters[2].ID)

	rec = do(t, r, httptest.NewRequest(http.MethodGet, "/api/clusters?zoom=14", nil), &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp.Clusters, 4)

	rec = do(t, r, httptest.NewRequest(http.MethodGet, "/api/clusters", nil), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	for _, zoom := range []string{"abc", "NaN", "Inf", "-1", "25"} {
		rec = do(t, r, httptest.NewRequest(http.MethodGet, "/api/clusters?zoom="+zoom, nil), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, zoom)
		rec = do(t, r, httptest.NewRequest(http.MethodGet, "/api/markers?zoom="+zoom, nil), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, zoom)
	}
}

func TestMarkersEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	var resp markersResponse
	rec := do(t, r, httptest.NewRequest(http.MethodGet, "/api/markers?zoom=15", nil), &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Markers, 4)
	for _, m := range resp.Markers {
		assert.Equal(t, 42, m.SizePx)
		assert.NotEmpty(t, m.IconSVG)
		assert.NotEmpty(t, m.ThumbnailURL)
	}
}

func TestMarkerSizeEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	var resp map[string]int
	rec := do(t, r, httptest.NewRequest(http.MethodGet, "/api/marker-size?zoom=13&cluster=true", nil), &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 36, resp["sizePx"])

	rec = do(t, r, httptest.NewRequest(http.MethodGet, "/api/marker-size?zoom=13&cluster=maybe", nil), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, r, httptest.NewRequest(http.MethodGet, "/api/marker-size?zoom=NaN&cluster=true", nil), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAreaPhotosEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	var resp photosResponse
	rec := do(t, r, httptest.NewRequest(http.MethodGet, "/api/areas/shoshazan/photos?layout=timeline", nil), &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "timeline", resp.Layout)
	require.Len(t, resp.Days, 1)
	assert.Equal(t, "2022-10-09", resp.Days[0].Date)
	require.Len(t, resp.Days[0].Photos, 2)
	assert.Equal(t, "p-0005", resp.Days[0].Photos[0].ID)
	require.NotNil(t, resp.Representative)
	assert.Equal(t, "p-0005", resp.Representative.ID)

	rec = do(t, r, httptest.NewRequest(http.MethodGet, "/api/areas/atlantis/photos", nil), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, r, httptest.NewRequest(http.MethodGet, "/api/areas/shoshazan/photos?layout=mosaic", nil), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClusterPhotosEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	id := clustering.ClusterID([]string{"himeji-castle", "kokoen"})

	var resp photosResponse
	rec := do(t, r, httptest.NewRequest(http.MethodGet, "/api/clusters/"+id+"/photos?zoom=10", nil), &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "grid", resp.Layout)
	require.NotEmpty(t, resp.Photos)
	require.NotNil(t, resp.Representative)
	assert.Equal(t, "p-0001", resp.Representative.ID)
	assert.Equal(t, "p-0001", resp.Photos[0].ID)

	rec = do(t, r, httptest.NewRequest(http.MethodGet, "/api/clusters/"+id+"/photos?zoom=15", nil), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	var resp statusResponse
	rec := do(t, r, httptest.NewRequest(http.MethodGet, "/api/status", nil), &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, resp.Degraded)
	assert.Equal(t, 5, resp.Areas)
	assert.Equal(t, 8, resp.Photos)
	assert.Empty(t, resp.Failures)
}

func login(t *testing.T, r http.Handler, password string) *httptest.ResponseRecorder {
	body := strings.NewReader(`{"password":"` + password + `"}`)
	return do(t, r, httptest.NewRequest(http.MethodPost, "/api/login", body), nil)
}

func uploadRequest(t *testing.T, token string, fields map[string]string) *http.Request {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("file", "sunset.png")
	require.NoError(t, err)
	_, err = part.Write(pngBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/photos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestLoginAndSubmitPhoto(t *testing.T) {
	r, h := newTestRouter(t)

	rec := login(t, r, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = login(t, r, testPassword)
	require.Equal(t, http.StatusOK, rec.Code)
	var tok map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	require.NotEmpty(t, tok["token"])

	rec = do(t, r, uploadRequest(t, "", map[string]string{"latitude": "34.8394", "longitude": "134.6939"}), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, r, uploadRequest(t, tok["token"], map[string]string{"title": "Sunset"}), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no EXIF and no coordinates")

	var photo model.Photo
	rec = do(t, r, uploadRequest(t, tok["token"], map[string]string{
		"title":     "Sunset",
		"tags":      "castle, evening ,",
		"latitude":  "34.8394",
		"longitude": "134.6939",
	}), &photo)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Sunset", photo.Title)
	assert.Equal(t, []string{"castle", "evening"}, photo.Tags)
	assert.Equal(t, "/uploads/"+photo.ID+".png", photo.ImageURL)
	assert.Equal(t, "/uploads/"+photo.ID+"_thumb.jpg", photo.ThumbnailURL)
	assert.Len(t, h.Catalog.Photos(), 9)

	var resp clustersResponse
	do(t, r, httptest.NewRequest(http.MethodGet, "/api/clusters?zoom=14", nil), &resp)
	require.NotEmpty(t, resp.Clusters)
	assert.Equal(t, "himeji-castle", resp.Clusters[0].ID)
	assert.Equal(t, 5, resp.Clusters[0].PhotoCount)
}
