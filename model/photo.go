package model

import (
	"time"
)

// Photo is a single geotagged image shown on the map.
type Photo struct {
	ID           string    `json:"id" bson:"_id"`
	Title        string    `json:"title" bson:"title"`
	Description  string    `json:"description,omitempty" bson:"description,omitempty"`
	TakenAt      time.Time `json:"takenAt" bson:"taken_at,omitempty"`
	Latitude     float64   `json:"latitude" bson:"latitude"`
	Longitude    float64   `json:"longitude" bson:"longitude"`
	Location     *GeoPoint `json:"-" bson:"location,omitempty"`
	ImageURL     string    `json:"imageUrl" bson:"image_url"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty" bson:"thumbnail_url,omitempty"`
	Tags         []string  `json:"tags,omitempty" bson:"tags,omitempty"`
	ViewCount    int       `json:"viewCount" bson:"view_count"`
	IsFeatured   bool      `json:"isFeatured" bson:"is_featured"`
}

// GeoPoint is a GeoJSON point as stored by MongoDB.
type GeoPoint struct {
	Type        string    `bson:"type,omitempty"`
	Coordinates []float64 `bson:"coordinates,omitempty"` // [longitude, latitude]
}

// NewGeoPoint builds the GeoJSON point for a latitude/longitude pair.
func NewGeoPoint(lat, lng float64) *GeoPoint {
	return &GeoPoint{
		Type:        "Point",
		Coordinates: []float64{lng, lat},
	}
}

// Clone returns a copy that shares no slices or pointers with p.
func (p Photo) Clone() Photo {
	if p.Tags != nil {
		p.Tags = append([]string(nil), p.Tags...)
	}
	if p.Location != nil {
		loc := *p.Location
		loc.Coordinates = append([]float64(nil), loc.Coordinates...)
		p.Location = &loc
	}
	return p
}
