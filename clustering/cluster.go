package clustering

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"photo-map/model"
	"photo-map/report"
)

// clusterNamespace seeds the name-based UUIDs of multi-area clusters.
var clusterNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("photo-map/cluster"))

// candidate is an active, placeable area together with its photos.
type candidate struct {
	area   model.Area
	lat    float64
	lng    float64
	photos []model.Photo
}

// ComputeClusters groups the active, photo-bearing areas for a zoom level.
//
// Above cfg.ClusterZoomThreshold every area is its own cluster. At or below
// it, areas are grouped greedily in input order: each unassigned area seeds a
// cluster and takes every later unassigned area within cfg.ClusterDistanceKm
// of the seed, boundary included. Clusters come out in seed order.
//
// Inactive areas and areas without photos produce nothing. Active areas
// without a center are skipped and returned as *InvalidAreaDataError values
// combined with multierr; the clusters are still valid in that case.
func ComputeClusters(areas []model.Area, photos []model.Photo, zoom float64, cfg Config) ([]model.Cluster, error) {
	return computeClusters(areas, NewPhotoIndex(photos), zoom, cfg)
}

func computeClusters(areas []model.Area, index *PhotoIndex, zoom float64, cfg Config) ([]model.Cluster, error) {
	var errs error
	candidates := make([]candidate, 0, len(areas))
	for _, a := range areas {
		if !a.IsActive {
			continue
		}
		if !a.HasCenter() {
			errs = multierr.Append(errs, missingCenter(a.ID, a.CenterLat != nil, a.CenterLng != nil))
			continue
		}
		inArea := index.InArea(a)
		if len(inArea) == 0 {
			continue
		}
		lat, lng := a.Center()
		candidates = append(candidates, candidate{area: a, lat: lat, lng: lng, photos: inArea})
	}

	if zoom > cfg.ClusterZoomThreshold {
		result := make([]model.Cluster, len(candidates))
		for i, c := range candidates {
			result[i] = singleton(c)
		}
		return result, errs
	}

	var result []model.Cluster
	assigned := make([]bool, len(candidates))
	for i, seed := range candidates {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		group := []candidate{seed}
		for j := i + 1; j < len(candidates); j++ {
			if assigned[j] {
				continue
			}
			b := candidates[j]
			if HaversineKm(seed.lat, seed.lng, b.lat, b.lng) <= cfg.ClusterDistanceKm {
				assigned[j] = true
				group = append(group, b)
			}
		}
		if len(group) == 1 {
			result = append(result, singleton(seed))
			continue
		}
		result = append(result, merge(group, cfg.DedupePhotos))
	}
	return result, errs
}

func singleton(c candidate) model.Cluster {
	return model.Cluster{
		ID:          c.area.ID,
		CenterLat:   c.lat,
		CenterLng:   c.lng,
		MemberAreas: []model.Area{c.area},
		PhotoCount:  len(c.photos),
		IsCluster:   false,
	}
}

func merge(group []candidate, dedupe bool) model.Cluster {
	var sumLat, sumLng float64
	members := make([]model.Area, len(group))
	ids := make([]string, len(group))
	count := 0
	seen := make(map[string]bool)
	for i, c := range group {
		sumLat += c.lat
		sumLng += c.lng
		members[i] = c.area
		ids[i] = c.area.ID
		if !dedupe {
			count += len(c.photos)
			continue
		}
		for _, p := range c.photos {
			if !seen[p.ID] {
				seen[p.ID] = true
				count++
			}
		}
	}
	n := float64(len(group))
	return model.Cluster{
		ID:          ClusterID(ids),
		CenterLat:   sumLat / n,
		CenterLng:   sumLng / n,
		MemberAreas: members,
		PhotoCount:  count,
		IsCluster:   true,
	}
}

// ClusterID derives the id of a cluster from its member area ids. The
// order of ids does not matter. A single id is returned unchanged.
func ClusterID(areaIDs []string) string {
	if len(areaIDs) == 1 {
		return areaIDs[0]
	}
	sorted := append([]string(nil), areaIDs...)
	sort.Strings(sorted)
	return "cluster-" + uuid.NewSHA1(clusterNamespace, []byte(strings.Join(sorted, ","))).String()
}

// Clusterer binds a Config to a logger and a Reporter so that skipped areas
// are surfaced instead of silently dropped.
type Clusterer struct {
	cfg      Config
	log      *zap.Logger
	reporter report.Reporter
}

func NewClusterer(cfg Config, logger *zap.Logger, reporter report.Reporter) *Clusterer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = report.Discard
	}
	return &Clusterer{cfg: cfg, log: logger, reporter: reporter}
}

func (c *Clusterer) Config() Config {
	return c.cfg
}

// Compute runs ComputeClusters against a shared PhotoIndex and reports every
// skipped area. The returned warnings are the skipped areas' errors.
func (c *Clusterer) Compute(areas []model.Area, index *PhotoIndex, zoom float64) ([]model.Cluster, []error) {
	clusters, err := computeClusters(areas, index, zoom, c.cfg)
	warnings := multierr.Errors(err)
	for _, w := range warnings {
		c.log.Warn("skipping area", zap.Error(w))
		c.reporter.Report(report.KindInvalidArea, w)
	}
	c.log.Debug("clusters computed",
		zap.Float64("zoom", zoom),
		zap.Int("areas", len(areas)),
		zap.Int("clusters", len(clusters)),
	)
	return clusters, warnings
}

// MarkerSize is MarkerSizeForZoom with the Clusterer's config.
func (c *Clusterer) MarkerSize(zoom float64, isCluster bool) int {
	return MarkerSizeForZoom(zoom, isCluster, c.cfg)
}
