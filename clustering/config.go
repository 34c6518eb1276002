package clustering

import (
	"errors"
	"math"
)

// SizeBand maps every zoom up to and including MaxZoom to marker sizes in
// pixels. Bands must be ordered by MaxZoom.
type SizeBand struct {
	MaxZoom float64
	Single  int
	Cluster int
}

// DefaultSizeBands is the zoom to marker size table used by the map.
var DefaultSizeBands = []SizeBand{
	{MaxZoom: 10, Single: 12, Cluster: 16},
	{MaxZoom: 12, Single: 18, Cluster: 24},
	{MaxZoom: 14, Single: 30, Cluster: 36},
	{MaxZoom: 16, Single: 42, Cluster: 48},
	{MaxZoom: math.Inf(1), Single: 54, Cluster: 60},
}

// Config holds the clustering parameters. It is static for the lifetime of
// a process.
// ClusterZoomThreshold - zoom at or below which areas are grouped
// ClusterDistanceKm - max great-circle distance between a seed area and a member
// DedupePhotos - count a photo once per cluster even if member areas overlap
// SizeBands - marker size table, DefaultSizeBands when empty
type Config struct {
	ClusterZoomThreshold float64
	ClusterDistanceKm    float64
	DedupePhotos         bool
	SizeBands            []SizeBand
}

// DefaultConfig returns threshold 12 and distance 2 km.
func DefaultConfig() Config {
	return Config{
		ClusterZoomThreshold: 12,
		ClusterDistanceKm:    2.0,
		SizeBands:            DefaultSizeBands,
	}
}

// Validate checks the distance and that the size table cannot shrink as
// zoom grows.
func (c Config) Validate() error {
	if c.ClusterDistanceKm < 0 || math.IsNaN(c.ClusterDistanceKm) {
		return errors.New("cluster distance must be a non-negative number")
	}
	if math.IsNaN(c.ClusterZoomThreshold) {
		return errors.New("cluster zoom threshold must be a number")
	}
	bands := c.bands()
	for i := 1; i < len(bands); i++ {
		prev, cur := bands[i-1], bands[i]
		if cur.MaxZoom <= prev.MaxZoom {
			return errors.New("size bands must be ordered by zoom")
		}
		if cur.Single < prev.Single || cur.Cluster < prev.Cluster {
			return errors.New("size bands must not shrink with zoom")
		}
	}
	return nil
}

func (c Config) bands() []SizeBand {
	if len(c.SizeBands) == 0 {
		return DefaultSizeBands
	}
	return c.SizeBands
}
