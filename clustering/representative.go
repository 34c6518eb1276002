package clustering

import (
	"photo-map/model"
)

// RepresentativePhoto picks the photo that stands for an area or cluster:
// featured photos first, then the highest view count, then the most
// recently taken. Remaining ties keep the earliest photo. Returns nil for
// no photos.
func RepresentativePhoto(photos []model.Photo) *model.Photo {
	if len(photos) == 0 {
		return nil
	}
	best := photos[0]
	for _, p := range photos[1:] {
		if preferred(p, best) {
			best = p
		}
	}
	return &best
}

// preferred reports whether a ranks strictly above b.
func preferred(a, b model.Photo) bool {
	if a.IsFeatured != b.IsFeatured {
		return a.IsFeatured
	}
	if a.ViewCount != b.ViewCount {
		return a.ViewCount > b.ViewCount
	}
	return a.TakenAt.After(b.TakenAt)
}
