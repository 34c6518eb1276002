package storage

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"photo-map/model"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

type CatalogDB interface {
	Connect(ctx context.Context, connectionString, databaseName string) error
	Close(ctx context.Context) error
	SavePhoto(ctx context.Context, photo model.Photo) error
	GetPhoto(ctx context.Context, id string) (*model.Photo, error)
	ListPhotos(ctx context.Context) ([]model.Photo, error)
	SearchPhotosByLocation(ctx context.Context, lng, lat float64, meters int) ([]model.Photo, error)
	SaveArea(ctx context.Context, area model.Area) error
	ListAreas(ctx context.Context) ([]model.Area, error)
}

// MongoCatalogDB keeps photos and areas in two collections of one database.
type MongoCatalogDB struct {
	Log *zap.Logger

	mongoClient *mongo.Client
	photos      *mongo.Collection
	areas       *mongo.Collection
}

const (
	photosCollection = "photos"
	areasCollection  = "areas"
)

func (db *MongoCatalogDB) logger() *zap.Logger {
	if db.Log == nil {
		return zap.NewNop()
	}
	return db.Log
}

func (db *MongoCatalogDB) Connect(ctx context.Context, connectionString, databaseName string) error {
	var err error
	db.mongoClient, err = mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return err
	}

	err = db.mongoClient.Ping(ctx, nil)
	if err != nil {
		return err
	}

	database := db.mongoClient.Database(databaseName)
	db.photos = database.Collection(photosCollection)
	db.areas = database.Collection(areasCollection)

	_, err = db.photos.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "location", Value: "2dsphere"}},
	})
	if err != nil {
		return err
	}

	db.logger().Info("connected to MongoDB", zap.String("database", databaseName))
	return nil
}

func (db *MongoCatalogDB) Close(ctx context.Context) error {
	if db.mongoClient != nil {
		err := db.mongoClient.Disconnect(ctx)
		if err != nil {
			return err
		}
		db.logger().Info("disconnected from MongoDB")
	}
	return nil
}

// SavePhoto upserts a photo and keeps its GeoJSON location in sync with
// its coordinates.
func (db *MongoCatalogDB) SavePhoto(ctx context.Context, photo model.Photo) error {
	photo.Location = model.NewGeoPoint(photo.Latitude, photo.Longitude)
	filter := bson.D{{Key: "_id", Value: photo.ID}}
	_, err := db.photos.ReplaceOne(ctx, filter, photo, options.Replace().SetUpsert(true))
	if err != nil {
		return err
	}
	db.logger().Debug("photo saved to MongoDB", zap.String("id", photo.ID))
	return nil
}

func (db *MongoCatalogDB) GetPhoto(ctx context.Context, id string) (*model.Photo, error) {
	var photo model.Photo

	filter := bson.D{{Key: "_id", Value: id}}
	err := db.photos.FindOne(ctx, filter).Decode(&photo)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		db.logger().Error("error getting photo from MongoDB", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return &photo, nil
}

func (db *MongoCatalogDB) ListPhotos(ctx context.Context) ([]model.Photo, error) {
	var photos []model.Photo
	opts := options.Find().SetSort(bson.D{{Key: "taken_at", Value: -1}})
	cursor, err := db.photos.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	if err = cursor.All(ctx, &photos); err != nil {
		return nil, err
	}
	return photos, nil
}

// SearchPhotosByLocation returns photos within meters of a point, nearest
// first.
func (db *MongoCatalogDB) SearchPhotosByLocation(ctx context.Context, lng, lat float64, meters int) ([]model.Photo, error) {
	var photos []model.Photo

	filter := bson.D{
		{Key: "location", Value: bson.D{
			{Key: "$near", Value: bson.D{
				{Key: "$geometry", Value: model.NewGeoPoint(lat, lng)},
				{Key: "$maxDistance", Value: meters},
			}},
		}},
	}

	cursor, err := db.photos.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err = cursor.All(ctx, &photos); err != nil {
		return nil, err
	}

	return photos, nil
}

func (db *MongoCatalogDB) SaveArea(ctx context.Context, area model.Area) error {
	filter := bson.D{{Key: "_id", Value: area.ID}}
	_, err := db.areas.ReplaceOne(ctx, filter, area, options.Replace().SetUpsert(true))
	return err
}

// ListAreas returns areas in insertion order, which is the clustering order.
func (db *MongoCatalogDB) ListAreas(ctx context.Context) ([]model.Area, error) {
	var areas []model.Area
	opts := options.Find().SetSort(bson.D{{Key: "$natural", Value: 1}})
	cursor, err := db.areas.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	if err = cursor.All(ctx, &areas); err != nil {
		return nil, err
	}
	return areas, nil
}
