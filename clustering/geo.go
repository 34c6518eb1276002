package clustering

import (
	"math"

	"photo-map/model"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// PhotosInArea returns the photos within area.RadiusKm of the area center,
// boundary included. Areas without a center or a positive radius match
// nothing.
func PhotosInArea(area model.Area, photos []model.Photo) []model.Photo {
	if !area.HasCenter() || area.RadiusKm <= 0 {
		return nil
	}
	lat, lng := area.Center()
	var result []model.Photo
	for _, p := range photos {
		if HaversineKm(lat, lng, p.Latitude, p.Longitude) <= area.RadiusKm {
			result = append(result, p)
		}
	}
	return result
}

// PhotoIndex memoizes PhotosInArea by area id for one pass over a fixed
// photo collection.
type PhotoIndex struct {
	photos []model.Photo
	byArea map[string][]model.Photo
}

func NewPhotoIndex(photos []model.Photo) *PhotoIndex {
	return &PhotoIndex{
		photos: photos,
		byArea: make(map[string][]model.Photo),
	}
}

// InArea returns the photos of the area, computing them at most once.
func (ix *PhotoIndex) InArea(area model.Area) []model.Photo {
	if cached, ok := ix.byArea[area.ID]; ok {
		return cached
	}
	result := PhotosInArea(area, ix.photos)
	ix.byArea[area.ID] = result
	return result
}

// InCluster returns the photos of every member area. A photo inside two
// overlapping member areas is returned once, in first-seen order.
func (ix *PhotoIndex) InCluster(c model.Cluster) []model.Photo {
	seen := make(map[string]bool)
	var result []model.Photo
	for _, a := range c.MemberAreas {
		for _, p := range ix.InArea(a) {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			result = append(result, p)
		}
	}
	return result
}
