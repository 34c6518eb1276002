package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"photo-map/clustering"
	"photo-map/dataset"
	"photo-map/gallery"
	"photo-map/marker"
	"photo-map/model"
	"photo-map/report"
	"photo-map/storage"
)

const maxZoom = 24

type MapHandlers struct {
	Catalog   *dataset.Catalog
	Clusterer *clustering.Clusterer
	Builder   *marker.Builder
	Tracker   *report.Tracker
	Log       *zap.Logger

	// Photo submission; disabled when Storage is nil.
	Storage   storage.PhotoStorage
	DB        storage.CatalogDB
	SecretKey string
	PwHash    string
}

func (h *MapHandlers) Register(r *mux.Router) {
	r.HandleFunc("/api/areas", h.handleAreas).Methods(http.MethodGet)
	r.HandleFunc("/api/areas/{id}/photos", h.handleAreaPhotos).Methods(http.MethodGet)
	r.HandleFunc("/api/photos", h.handlePhotos).Methods(http.MethodGet)
	r.HandleFunc("/api/photos", h.authMiddleware(h.handleSubmitPhoto)).Methods(http.MethodPost)
	r.HandleFunc("/api/clusters", h.handleClusters).Methods(http.MethodGet)
	r.HandleFunc("/api/clusters/{id}/photos", h.handleClusterPhotos).Methods(http.MethodGet)
	r.HandleFunc("/api/markers", h.handleMarkers).Methods(http.MethodGet)
	r.HandleFunc("/api/marker-size", h.handleMarkerSize).Methods(http.MethodGet)
	r.HandleFunc("/api/status", h.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/login", h.handleLogin).Methods(http.MethodPost)
}

type clustersResponse struct {
	Zoom     float64         `json:"zoom"`
	Clusters []model.Cluster `json:"clusters"`
	Warnings []string        `json:"warnings,omitempty"`
}

type markersResponse struct {
	Zoom    float64        `json:"zoom"`
	Markers []model.Marker `json:"markers"`
}

type photosResponse struct {
	Layout         string        `json:"layout"`
	Photos         []model.Photo `json:"photos,omitempty"`
	Days           []gallery.Day `json:"days,omitempty"`
	Representative *model.Photo  `json:"representative"`
}

type statusResponse struct {
	Degraded bool           `json:"degraded"`
	Areas    int            `json:"areas"`
	Photos   int            `json:"photos"`
	Failures []report.Entry `json:"failures"`
}

func (h *MapHandlers) handleAreas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Catalog.Areas())
}

func (h *MapHandlers) handlePhotos(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Catalog.Photos())
}

func (h *MapHandlers) handleAreaPhotos(w http.ResponseWriter, r *http.Request) {
	layout, err := gallery.ParseLayout(r.URL.Query().Get("layout"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	area, ok := h.Catalog.Area(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "area not found")
		return
	}
	photos := clustering.PhotosInArea(area, h.Catalog.Photos())
	writeJSON(w, http.StatusOK, layoutPhotos(photos, layout))
}

func (h *MapHandlers) handleClusters(w http.ResponseWriter, r *http.Request) {
	zoom, err := parseZoom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	clusters, warnings, _ := h.compute(zoom)
	resp := clustersResponse{Zoom: zoom, Clusters: clusters}
	for _, warn := range warnings {
		resp.Warnings = append(resp.Warnings, warn.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MapHandlers) handleMarkers(w http.ResponseWriter, r *http.Request) {
	zoom, err := parseZoom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	clusters, _, index := h.compute(zoom)
	writeJSON(w, http.StatusOK, markersResponse{
		Zoom:    zoom,
		Markers: h.Builder.Build(clusters, index, zoom),
	})
}

func (h *MapHandlers) handleClusterPhotos(w http.ResponseWriter, r *http.Request) {
	zoom, err := parseZoom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	layout, err := gallery.ParseLayout(r.URL.Query().Get("layout"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := mux.Vars(r)["id"]
	clusters, _, index := h.compute(zoom)
	for _, c := range clusters {
		if c.ID == id {
			writeJSON(w, http.StatusOK, layoutPhotos(index.InCluster(c), layout))
			return
		}
	}
	writeError(w, http.StatusNotFound, "cluster not found at this zoom")
}

func (h *MapHandlers) handleMarkerSize(w http.ResponseWriter, r *http.Request) {
	zoom, err := parseZoom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	isCluster := false
	if v := r.URL.Query().Get("cluster"); v != "" {
		isCluster, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "cluster must be a boolean")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]int{"sizePx": h.Clusterer.MarkerSize(zoom, isCluster)})
}

func (h *MapHandlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	areas, photos, _ := h.Catalog.Snapshot()
	resp := statusResponse{
		Degraded: h.Catalog.Degraded(),
		Areas:    len(areas),
		Photos:   len(photos),
		Failures: []report.Entry{},
	}
	if h.Tracker != nil {
		resp.Failures = h.Tracker.Snapshot()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MapHandlers) compute(zoom float64) ([]model.Cluster, []error, *clustering.PhotoIndex) {
	areas, photos, _ := h.Catalog.Snapshot()
	index := clustering.NewPhotoIndex(photos)
	clusters, warnings := h.Clusterer.Compute(areas, index, zoom)
	return clusters, warnings, index
}

func layoutPhotos(photos []model.Photo, layout gallery.Layout) photosResponse {
	resp := photosResponse{
		Layout:         layout.String(),
		Representative: clustering.RepresentativePhoto(photos),
	}
	if layout == gallery.LayoutTimeline {
		resp.Days = gallery.Timeline(photos)
	} else {
		resp.Photos = gallery.Grid(photos)
	}
	return resp
}

func parseZoom(r *http.Request) (float64, error) {
	v := r.URL.Query().Get("zoom")
	if v == "" {
		return 0, fmt.Errorf("zoom is required")
	}
	zoom, err := strconv.ParseFloat(v, 64)
	if err != nil || !validZoom(zoom) {
		return 0, fmt.Errorf("zoom must be a number between 0 and %d", maxZoom)
	}
	return zoom, nil
}

// validZoom is written as a range test so NaN is rejected.
func validZoom(zoom float64) bool {
	return zoom >= 0 && zoom <= maxZoom
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
