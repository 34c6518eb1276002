// Package gallery orders an area's photos for the grid and timeline panels.
package gallery

import (
	"fmt"
	"sort"
	"time"

	"photo-map/model"
)

// Layout selects how a panel lists photos.
type Layout int

const (
	LayoutGrid Layout = iota
	LayoutTimeline
)

func (l Layout) String() string {
	if l == LayoutTimeline {
		return "timeline"
	}
	return "grid"
}

// ParseLayout accepts "grid", "timeline" or "" (grid).
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "", "grid":
		return LayoutGrid, nil
	case "timeline":
		return LayoutTimeline, nil
	}
	return LayoutGrid, fmt.Errorf("unknown layout %q", s)
}

// Day is one timeline section.
type Day struct {
	Date   string        `json:"date"`
	Photos []model.Photo `json:"photos"`
}

// Grid orders photos featured first, then by views, then newest first.
func Grid(photos []model.Photo) []model.Photo {
	out := append([]model.Photo(nil), photos...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsFeatured != b.IsFeatured {
			return a.IsFeatured
		}
		if a.ViewCount != b.ViewCount {
			return a.ViewCount > b.ViewCount
		}
		return a.TakenAt.After(b.TakenAt)
	})
	return out
}

// Timeline groups photos by UTC calendar day, newest day first and newest
// photo first within a day. Photos without a capture time go last under
// an empty date.
func Timeline(photos []model.Photo) []Day {
	sorted := append([]model.Photo(nil), photos...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TakenAt.After(sorted[j].TakenAt)
	})

	var days []Day
	for _, p := range sorted {
		date := dayOf(p.TakenAt)
		if n := len(days); n > 0 && days[n-1].Date == date {
			days[n-1].Photos = append(days[n-1].Photos, p)
			continue
		}
		days = append(days, Day{Date: date, Photos: []model.Photo{p}})
	}
	return days
}

func dayOf(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
