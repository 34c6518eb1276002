package model

// Area is a named region of interest. Photos belong to an area when they
// lie within RadiusKm of its center.
type Area struct {
	ID        string   `json:"id" bson:"_id"`
	Name      string   `json:"name" bson:"name"`
	CenterLat *float64 `json:"centerLat" bson:"center_lat,omitempty"`
	CenterLng *float64 `json:"centerLng" bson:"center_lng,omitempty"`
	RadiusKm  float64  `json:"radiusKm" bson:"radius_km"`
	IsActive  bool     `json:"isActive" bson:"is_active"`
}

// HasCenter reports whether both center coordinates are present.
func (a Area) HasCenter() bool {
	return a.CenterLat != nil && a.CenterLng != nil
}

// Center returns the area center. Callers must check HasCenter first.
func (a Area) Center() (float64, float64) {
	return *a.CenterLat, *a.CenterLng
}

// Coord is a small helper for building areas in code and tests.
func Coord(v float64) *float64 {
	return &v
}

// Clone returns a copy that shares no pointers with a.
func (a Area) Clone() Area {
	if a.CenterLat != nil {
		a.CenterLat = Coord(*a.CenterLat)
	}
	if a.CenterLng != nil {
		a.CenterLng = Coord(*a.CenterLng)
	}
	return a
}
