package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-map/model"
)

// Runs only against a live server, e.g. MONGO_TEST_URI=mongodb://localhost:27017
func TestMongoCatalogDB(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := &MongoCatalogDB{}
	dbName := "photo_map_test_" + uuid.NewString()[:8]
	require.NoError(t, db.Connect(ctx, uri, dbName))
	defer func() {
		_ = db.mongoClient.Database(dbName).Drop(ctx)
		_ = db.Close(ctx)
	}()

	require.NoError(t, db.SaveArea(ctx, model.Area{ID: "a1", Name: "Castle", CenterLat: model.Coord(34.839), CenterLng: model.Coord(134.694), RadiusKm: 1, IsActive: true}))
	require.NoError(t, db.SaveArea(ctx, model.Area{ID: "a2", Name: "Port", CenterLat: model.Coord(34.78), CenterLng: model.Coord(134.67), RadiusKm: 1, IsActive: true}))
	areas, err := db.ListAreas(ctx)
	require.NoError(t, err)
	require.Len(t, areas, 2)
	assert.Equal(t, "a1", areas[0].ID)

	near := model.Photo{ID: "p1", Title: "Keep", Latitude: 34.839, Longitude: 134.694, TakenAt: time.Now().UTC().Truncate(time.Millisecond)}
	far := model.Photo{ID: "p2", Title: "Sea", Latitude: 34.70, Longitude: 134.50}
	require.NoError(t, db.SavePhoto(ctx, near))
	require.NoError(t, db.SavePhoto(ctx, far))

	got, err := db.GetPhoto(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Keep", got.Title)

	_, err = db.GetPhoto(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	found, err := db.SearchPhotosByLocation(ctx, 134.694, 34.839, 500)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "p1", found[0].ID)

	all, err := db.ListPhotos(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
