// Package dataset loads the area and photo collections and owns them for
// the rest of the process.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"

	"photo-map/model"
)

// Source provides the area and photo collections.
type Source interface {
	Areas(ctx context.Context) ([]model.Area, error)
	Photos(ctx context.Context) ([]model.Photo, error)
}

func decodeAreas(body []byte) ([]model.Area, error) {
	var areas []model.Area
	if err := json.Unmarshal(body, &areas); err != nil {
		return nil, fmt.Errorf("decode areas: %w", err)
	}
	return areas, nil
}

func decodePhotos(body []byte) ([]model.Photo, error) {
	var photos []model.Photo
	if err := json.Unmarshal(body, &photos); err != nil {
		return nil, fmt.Errorf("decode photos: %w", err)
	}
	return photos, nil
}
