package model

// Cluster groups one or more areas that are visually coincident at a zoom
// level. Clusters are rebuilt on every pass and never mutated.
type Cluster struct {
	ID          string  `json:"id"`
	CenterLat   float64 `json:"centerLat"`
	CenterLng   float64 `json:"centerLng"`
	MemberAreas []Area  `json:"memberAreas"`
	PhotoCount  int     `json:"photoCount"`
	IsCluster   bool    `json:"isCluster"`
}

// MemberIDs returns the member area ids in first-seen order.
func (c Cluster) MemberIDs() []string {
	ids := make([]string, len(c.MemberAreas))
	for i, a := range c.MemberAreas {
		ids[i] = a.ID
	}
	return ids
}

// Marker is what the map draws for a cluster.
type Marker struct {
	ClusterID    string  `json:"clusterId"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	SizePx       int     `json:"sizePx"`
	IsCluster    bool    `json:"isCluster"`
	PhotoCount   int     `json:"photoCount"`
	Label        string  `json:"label"`
	IconSVG      string  `json:"iconSvg"`
	ThumbnailURL string  `json:"thumbnailUrl,omitempty"`
	Fallback     bool    `json:"fallback,omitempty"`
}
