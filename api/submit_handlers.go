package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"photo-map/model"
	"photo-map/storage"
)

const maxUploadBytes = 32 << 20

// handleSubmitPhoto accepts a multipart upload with a "file" part and
// optional title, description, tags, latitude and longitude fields.
// Coordinates and capture time fall back to the image's EXIF data.
func (h *MapHandlers) handleSubmitPhoto(w http.ResponseWriter, r *http.Request) {
	if h.Storage == nil {
		writeError(w, http.StatusServiceUnavailable, "photo submission is disabled")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.Log.Warn("failed to parse upload", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file found in the request")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "error reading file")
		return
	}

	photo := model.Photo{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Tags:        splitTags(r.FormValue("tags")),
	}
	if photo.Title == "" {
		photo.Title = header.Filename
	}

	exifData, exifErr := storage.ReadExif(content)
	if exifErr != nil {
		h.Log.Debug("no EXIF data in upload", zap.String("filename", header.Filename), zap.Error(exifErr))
	}
	photo.TakenAt = exifData.TakenAt
	if photo.TakenAt.IsZero() {
		photo.TakenAt = time.Now().UTC()
	}

	lat, lng, ok, err := formCoordinates(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch {
	case ok:
		photo.Latitude, photo.Longitude = lat, lng
	case exifData.HasLocation:
		photo.Latitude, photo.Longitude = exifData.Latitude, exifData.Longitude
	default:
		writeError(w, http.StatusBadRequest, "photo has no location: send latitude and longitude")
		return
	}

	fileName := photo.ID + strings.ToLower(filepath.Ext(header.Filename))
	stored, err := h.Storage.SavePhoto(fileName, content)
	if errors.Is(err, storage.ErrUnsupportedImage) {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported image")
		return
	}
	if err != nil {
		h.Log.Error("failed to store photo", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}
	photo.ImageURL = stored.ImageURL
	photo.ThumbnailURL = stored.ThumbnailURL

	if h.DB != nil {
		if err := h.DB.SavePhoto(r.Context(), photo); err != nil {
			h.Log.Error("failed to save photo record", zap.String("id", photo.ID), zap.Error(err))
			if rmErr := h.Storage.DeletePhoto(fileName); rmErr != nil {
				h.Log.Warn("failed to remove stored files", zap.String("file", fileName), zap.Error(rmErr))
			}
			writeError(w, http.StatusInternalServerError, "failed to save photo")
			return
		}
	}
	if err := h.Catalog.AppendPhoto(photo); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	h.Log.Info("photo submitted",
		zap.String("id", photo.ID),
		zap.Float64("lat", photo.Latitude),
		zap.Float64("lng", photo.Longitude),
	)
	writeJSON(w, http.StatusCreated, photo)
}

func formCoordinates(r *http.Request) (float64, float64, bool, error) {
	latStr, lngStr := r.FormValue("latitude"), r.FormValue("longitude")
	if latStr == "" && lngStr == "" {
		return 0, 0, false, nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, false, errors.New("latitude must be between -90 and 90")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil || lng < -180 || lng > 180 {
		return 0, 0, false, errors.New("longitude must be between -180 and 180")
	}
	return lat, lng, true, nil
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
