package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"photo-map/model"
)

const (
	DefaultAttempts   = 3
	DefaultRetryDelay = 500 * time.Millisecond
	networkTimeout    = 20 * time.Second
	maxBodyBytes      = 32 << 20
)

var errMalformedJSON = errors.New("malformed JSON")

// HTTPSource fetches the collections as static JSON documents. Each fetch
// is retried up to Attempts times and successful bodies are kept in Cache.
type HTTPSource struct {
	AreasURL   string
	PhotosURL  string
	Client     *http.Client
	Cache      *BodyCache
	Attempts   int
	RetryDelay time.Duration
	Log        *zap.Logger
}

func (s *HTTPSource) Areas(ctx context.Context) ([]model.Area, error) {
	body, err := s.fetch(ctx, s.AreasURL)
	if err != nil {
		return nil, err
	}
	return decodeAreas(body)
}

func (s *HTTPSource) Photos(ctx context.Context) ([]model.Photo, error) {
	body, err := s.fetch(ctx, s.PhotosURL)
	if err != nil {
		return nil, err
	}
	return decodePhotos(body)
}

func (s *HTTPSource) fetch(ctx context.Context, url string) ([]byte, error) {
	return s.Cache.Get(ctx, url, func(ctx context.Context) ([]byte, error) {
		return s.fetchWithRetry(ctx, url)
	})
}

func (s *HTTPSource) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	attempts := s.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	delay := s.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		body, err := s.get(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		s.logger().Warn("fetch failed",
			zap.String("url", url),
			zap.Int("attempt", i),
			zap.Error(err),
		)
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("fetch %s failed after %d attempts: %w", url, attempts, lastErr)
}

func (s *HTTPSource) get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, networkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errMalformedJSON
	}
	return body, nil
}

func (s *HTTPSource) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
