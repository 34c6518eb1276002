package mapview

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"photo-map/clustering"
	"photo-map/gallery"
	"photo-map/marker"
	"photo-map/model"
)

const DefaultDebounce = 150 * time.Millisecond

var ErrSessionClosed = errors.New("session closed")

// Collections is the read side of the catalog.
type Collections interface {
	Snapshot() ([]model.Area, []model.Photo, uint64)
}

// Snapshot is the complete marker state after one event. A new Snapshot
// replaces the previous one as a whole.
type Snapshot struct {
	Seq        uint64          `json:"seq"`
	Zoom       float64         `json:"zoom"`
	Clusters   []model.Cluster `json:"clusters"`
	Markers    []model.Marker  `json:"markers"`
	Warnings   []string        `json:"warnings,omitempty"`
	SelectedID string          `json:"selectedId,omitempty"`
	Mode       string          `json:"mode"`
}

type Options struct {
	InitialZoom float64
	Debounce    time.Duration
}

// Session owns the viewport state of one map. All state lives in a single
// goroutine; callers talk to it through Send and Updates.
type Session struct {
	catalog   Collections
	clusterer *clustering.Clusterer
	builder   *marker.Builder
	log       *zap.Logger
	debounce  time.Duration

	events  chan Event
	updates chan Snapshot
	done    chan struct{}
	current atomic.Pointer[Snapshot]

	// owned by run
	zoom     float64
	mode     gallery.Layout
	selected string
	clusters []model.Cluster
	seq      uint64
}

// NewSession computes the initial markers and starts the session goroutine,
// which stops when ctx is done.
func NewSession(ctx context.Context, catalog Collections, clusterer *clustering.Clusterer, builder *marker.Builder, logger *zap.Logger, opts Options) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	s := &Session{
		catalog:   catalog,
		clusterer: clusterer,
		builder:   builder,
		log:       logger,
		debounce:  opts.Debounce,
		events:    make(chan Event, 16),
		updates:   make(chan Snapshot, 1),
		done:      make(chan struct{}),
		zoom:      opts.InitialZoom,
	}
	s.recompute()
	go s.run(ctx)
	return s
}

// Send delivers an event to the session.
func (s *Session) Send(ctx context.Context, ev Event) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	case s.events <- ev:
		return nil
	}
}

// Updates yields the latest Snapshot after each change. Unread snapshots
// are replaced by newer ones. The channel closes with the session.
func (s *Session) Updates() <-chan Snapshot {
	return s.updates
}

// Current returns the most recent Snapshot.
func (s *Session) Current() Snapshot {
	return *s.current.Load()
}

func (s *Session) run(ctx context.Context) {
	defer close(s.updates)
	defer close(s.done)

	timer := time.NewTimer(s.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	var (
		pending    float64
		hasPending bool
	)

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return

		case <-timer.C:
			if hasPending {
				s.zoom = pending
				hasPending = false
				s.recompute()
			}

		case ev := <-s.events:
			switch ev.Kind {
			case ZoomChanged:
				pending = ev.Zoom
				hasPending = true
				timer.Reset(s.debounce)
			case RefreshRequested:
				if hasPending {
					timer.Stop()
					s.zoom = pending
					hasPending = false
				}
				s.recompute()
			case ClusterSelected:
				if !s.hasCluster(ev.ClusterID) {
					s.log.Debug("ignoring selection of unknown cluster", zap.String("cluster", ev.ClusterID))
					continue
				}
				s.selected = ev.ClusterID
				s.publish(s.Current())
			case DisplayModeToggled:
				s.mode = ev.Mode
				s.publish(s.Current())
			}
		}
	}
}

func (s *Session) hasCluster(id string) bool {
	for _, c := range s.clusters {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (s *Session) recompute() {
	areas, photos, _ := s.catalog.Snapshot()
	index := clustering.NewPhotoIndex(photos)
	clusters, warnings := s.clusterer.Compute(areas, index, s.zoom)
	s.clusters = clusters
	if !s.hasCluster(s.selected) {
		s.selected = ""
	}
	s.seq++

	snap := Snapshot{
		Seq:      s.seq,
		Zoom:     s.zoom,
		Clusters: clusters,
		Markers:  s.builder.Build(clusters, index, s.zoom),
	}
	for _, w := range warnings {
		snap.Warnings = append(snap.Warnings, w.Error())
	}
	s.publish(snap)
}

// publish stamps the session's selection and mode on snap, stores it and
// offers it on the updates channel, dropping an unread older snapshot.
func (s *Session) publish(snap Snapshot) {
	snap.SelectedID = s.selected
	snap.Mode = s.mode.String()
	s.current.Store(&snap)

	select {
	case s.updates <- snap:
	default:
		select {
		case <-s.updates:
		default:
		}
		s.updates <- snap
	}
}
