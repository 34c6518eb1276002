package dataset

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long a fetched document is reused.
const DefaultCacheTTL = 5 * time.Minute

var errCacheClosed = errors.New("cache closed")

type lookupRequest struct {
	url   string
	reply chan lookupResponse
}

type lookupResponse struct {
	body []byte
	ok   bool
}

type storeRequest struct {
	url  string
	body []byte
}

type cacheEntry struct {
	body    []byte
	expires time.Time
}

// BodyCache keeps fetched response bodies by URL for a TTL. A single
// goroutine owns the map. Misses are loaded by the caller, with at most one
// load in flight per URL; failed loads are never cached.
type BodyCache struct {
	ttl     time.Duration
	lookups chan lookupRequest
	stores  chan storeRequest
	quit    chan struct{}
	now     func() time.Time
	flight  singleflight.Group
}

// NewBodyCache starts the cache goroutine. A non-positive ttl disables
// caching and returns nil, which Get treats as a pass-through.
func NewBodyCache(ttl time.Duration) *BodyCache {
	return newBodyCache(ttl, time.Now)
}

func newBodyCache(ttl time.Duration, now func() time.Time) *BodyCache {
	if ttl <= 0 {
		return nil
	}
	c := &BodyCache{
		ttl:     ttl,
		lookups: make(chan lookupRequest),
		stores:  make(chan storeRequest),
		quit:    make(chan struct{}),
		now:     now,
	}
	go c.loop()
	return c
}

// Close stops the cache goroutine. Safe to call more than once.
func (c *BodyCache) Close() {
	if c == nil {
		return
	}
	select {
	case <-c.quit:
	default:
		close(c.quit)
	}
}

// Get returns the cached body for url or calls loader to fetch it.
// Concurrent misses for the same url share one loader call.
func (c *BodyCache) Get(ctx context.Context, url string, loader func(context.Context) ([]byte, error)) ([]byte, error) {
	if c == nil {
		return loader(ctx)
	}
	select {
	case <-c.quit:
		return nil, errCacheClosed
	default:
	}
	body, ok, err := c.lookup(ctx, url)
	if err != nil || ok {
		return body, err
	}

	ch := c.flight.DoChan(url, func() (interface{}, error) {
		// A flight for url may have finished between the lookup and now.
		if body, ok, err := c.lookup(ctx, url); err != nil || ok {
			return body, err
		}
		body, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		c.store(url, body)
		return body, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.quit:
		return nil, errCacheClosed
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *BodyCache) lookup(ctx context.Context, url string) ([]byte, bool, error) {
	req := lookupRequest{url: url, reply: make(chan lookupResponse, 1)}
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case <-c.quit:
		return nil, false, errCacheClosed
	case c.lookups <- req:
	}
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case <-c.quit:
		return nil, false, errCacheClosed
	case resp := <-req.reply:
		return resp.body, resp.ok, nil
	}
}

func (c *BodyCache) store(url string, body []byte) {
	select {
	case <-c.quit:
	case c.stores <- storeRequest{url: url, body: body}:
	}
}

func (c *BodyCache) loop() {
	entries := make(map[string]cacheEntry)
	for {
		select {
		case <-c.quit:
			return
		case req := <-c.lookups:
			entry, ok := entries[req.url]
			if ok && !c.now().Before(entry.expires) {
				delete(entries, req.url)
				ok = false
			}
			req.reply <- lookupResponse{body: entry.body, ok: ok}
		case req := <-c.stores:
			entries[req.url] = cacheEntry{body: req.body, expires: c.now().Add(c.ttl)}
		}
	}
}
