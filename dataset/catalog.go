package dataset

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"photo-map/model"
	"photo-map/report"
)

var ErrDuplicatePhoto = errors.New("photo already exists")

// Catalog owns the in-memory area and photo collections. Readers always get
// copies, so nothing outside the catalog can change them.
type Catalog struct {
	primary  Source
	fallback Source
	reporter report.Reporter
	log      *zap.Logger

	mu       sync.RWMutex
	areas    []model.Area
	photos   []model.Photo
	degraded bool
	version  uint64
}

// NewCatalog builds an empty catalog. fallback may be nil.
func NewCatalog(primary, fallback Source, reporter report.Reporter, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reporter == nil {
		reporter = report.Discard
	}
	return &Catalog{
		primary:  primary,
		fallback: fallback,
		reporter: reporter,
		log:      logger,
	}
}

// Load fetches both collections concurrently. A collection whose primary
// source fails is taken from the fallback and the catalog is marked
// degraded. Load fails only when a collection has no usable source.
func (c *Catalog) Load(ctx context.Context) error {
	var (
		areas                         []model.Area
		photos                        []model.Photo
		areasDegraded, photosDegraded bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		areas, areasDegraded, err = load(gctx, c, "areas", Source.Areas)
		return err
	})
	g.Go(func() error {
		var err error
		photos, photosDegraded, err = load(gctx, c, "photos", Source.Photos)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	c.areas = cloneAreas(areas)
	c.photos = clonePhotos(photos)
	c.degraded = areasDegraded || photosDegraded
	c.version++
	c.mu.Unlock()

	c.log.Info("catalog loaded",
		zap.Int("areas", len(areas)),
		zap.Int("photos", len(photos)),
		zap.Bool("degraded", areasDegraded || photosDegraded),
	)
	return nil
}

func load[T any](ctx context.Context, c *Catalog, what string, get func(Source, context.Context) ([]T, error)) ([]T, bool, error) {
	items, err := get(c.primary, ctx)
	if err == nil {
		return items, false, nil
	}
	err = fmt.Errorf("load %s: %w", what, err)
	c.reporter.Report(report.KindDataFetch, err)
	if c.fallback == nil {
		return nil, false, err
	}

	c.log.Warn("using fallback dataset", zap.String("collection", what), zap.Error(err))
	items, fbErr := get(c.fallback, ctx)
	if fbErr != nil {
		return nil, false, multierr.Combine(err, fmt.Errorf("load fallback %s: %w", what, fbErr))
	}
	return items, true, nil
}

func (c *Catalog) Areas() []model.Area {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneAreas(c.areas)
}

func (c *Catalog) Photos() []model.Photo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clonePhotos(c.photos)
}

// Snapshot returns both collections as of the same moment together with
// the catalog version.
func (c *Catalog) Snapshot() ([]model.Area, []model.Photo, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneAreas(c.areas), clonePhotos(c.photos), c.version
}

func (c *Catalog) Area(id string) (model.Area, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.areas {
		if a.ID == id {
			return a.Clone(), true
		}
	}
	return model.Area{}, false
}

// AppendPhoto adds a submitted photo to the collection.
func (c *Catalog) AppendPhoto(p model.Photo) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.photos {
		if existing.ID == p.ID {
			return fmt.Errorf("%w: %s", ErrDuplicatePhoto, p.ID)
		}
	}
	c.photos = append(c.photos, p.Clone())
	c.version++
	return nil
}

func cloneAreas(areas []model.Area) []model.Area {
	if areas == nil {
		return nil
	}
	out := make([]model.Area, len(areas))
	for i, a := range areas {
		out[i] = a.Clone()
	}
	return out
}

func clonePhotos(photos []model.Photo) []model.Photo {
	if photos == nil {
		return nil
	}
	out := make([]model.Photo, len(photos))
	for i, p := range photos {
		out[i] = p.Clone()
	}
	return out
}

// Degraded reports whether any collection came from the fallback source.
func (c *Catalog) Degraded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.degraded
}

// Version changes every time the collections change.
func (c *Catalog) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}
