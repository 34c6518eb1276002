package dataset

import (
	"context"
	_ "embed"

	"photo-map/model"
)

// Fallback collections compiled into the binary so the map still renders
// when the configured sources are unreachable.
var (
	//go:embed data/areas.json
	embeddedAreas []byte

	//go:embed data/photos.json
	embeddedPhotos []byte
)

type EmbeddedSource struct{}

func (EmbeddedSource) Areas(context.Context) ([]model.Area, error) {
	return decodeAreas(embeddedAreas)
}

func (EmbeddedSource) Photos(context.Context) ([]model.Photo, error) {
	return decodePhotos(embeddedPhotos)
}
