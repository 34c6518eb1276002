// Package clustering groups photo areas into map markers.
//
// Areas are clustered with a greedy pass: areas are visited in input order,
// each unassigned area seeds a group and pulls in every other unassigned
// area whose center lies within ClusterDistanceKm (great-circle distance).
// Above ClusterZoomThreshold no grouping happens and every area gets its
// own marker.
//
// Usage:
//
//	//1.Configure
//	cfg := clustering.DefaultConfig()
//
//	//2.Compute clusters for the current zoom
//	clusters, err := clustering.ComputeClusters(areas, photos, zoom, cfg)
//
//	//3.Size the markers
//	size := clustering.MarkerSizeForZoom(zoom, clusters[0].IsCluster, cfg)
//
// ComputeClusters never aborts on bad area data: areas without a center are
// skipped and reported through the returned error, which may be non-nil
// alongside a usable result.
//
// All functions are pure and never modify their inputs.
package clustering
