package storage

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// ExifData is the subset of EXIF metadata used for submitted photos.
type ExifData struct {
	HasLocation bool
	Latitude    float64
	Longitude   float64
	TakenAt     time.Time
}

// ReadExif extracts GPS position and capture time. Missing fields are left
// zero; an image without any EXIF block returns an error.
func ReadExif(content []byte) (ExifData, error) {
	x, err := exif.Decode(bytes.NewReader(content))
	if err != nil {
		return ExifData{}, err
	}

	var data ExifData
	if lat, lng, err := x.LatLong(); err == nil {
		data.HasLocation = true
		data.Latitude = lat
		data.Longitude = lng
	}
	if tm, err := x.DateTime(); err == nil {
		data.TakenAt = tm
	}
	return data, nil
}
