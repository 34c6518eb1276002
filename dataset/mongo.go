package dataset

import (
	"context"

	"photo-map/model"
	"photo-map/storage"
)

// MongoSource reads the collections from MongoDB.
type MongoSource struct {
	DB storage.CatalogDB
}

func (s MongoSource) Areas(ctx context.Context) ([]model.Area, error) {
	return s.DB.ListAreas(ctx)
}

func (s MongoSource) Photos(ctx context.Context) ([]model.Photo, error) {
	return s.DB.ListPhotos(ctx)
}
