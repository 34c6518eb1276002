// Package mapview drives marker recomputation from map viewport events.
package mapview

import (
	"photo-map/gallery"
)

// EventKind is the closed set of viewport events.
type EventKind int

const (
	ZoomChanged EventKind = iota
	RefreshRequested
	ClusterSelected
	DisplayModeToggled
)

func (k EventKind) String() string {
	switch k {
	case ZoomChanged:
		return "zoom_changed"
	case RefreshRequested:
		return "refresh_requested"
	case ClusterSelected:
		return "cluster_selected"
	case DisplayModeToggled:
		return "display_mode_toggled"
	default:
		return "unknown"
	}
}

// Event is a viewport message. Only the payload field matching Kind is read.
type Event struct {
	Kind      EventKind
	Zoom      float64
	ClusterID string
	Mode      gallery.Layout
}

// ZoomEnd is sent when the map finishes a zoom step.
func ZoomEnd(zoom float64) Event {
	return Event{Kind: ZoomChanged, Zoom: zoom}
}

// Refresh asks for an immediate recompute.
func Refresh() Event {
	return Event{Kind: RefreshRequested}
}

// Select marks a cluster as the current selection.
func Select(clusterID string) Event {
	return Event{Kind: ClusterSelected, ClusterID: clusterID}
}

// SetMode switches the panel layout.
func SetMode(mode gallery.Layout) Event {
	return Event{Kind: DisplayModeToggled, Mode: mode}
}
