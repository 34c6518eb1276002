package clustering

// MarkerSizeForZoom returns the marker size in pixels for a zoom level.
// It is a step function over cfg's size bands; zooms past the last band use
// the last band.
func MarkerSizeForZoom(zoom float64, isCluster bool, cfg Config) int {
	bands := cfg.bands()
	band := bands[len(bands)-1]
	for _, b := range bands {
		if zoom <= b.MaxZoom {
			band = b
			break
		}
	}
	if isCluster {
		return band.Cluster
	}
	return band.Single
}
