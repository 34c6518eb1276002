package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"photo-map/clustering"
	"photo-map/dataset"
)

// Config contains application configuration.
type Config struct {
	Port       string
	AreasURL   string
	PhotosURL  string
	MongoURI   string
	MongoDB    string
	UploadDir  string
	JWTSecret  string
	PwHash     string
	Cluster    clustering.Config
	Attempts   int
	RetryDelay time.Duration
	CacheTTL   time.Duration
	Debounce   time.Duration
}

// Load reads configuration from environment variables and .env.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:      getenv("PORT", "8080"),
		AreasURL:  os.Getenv("AREAS_URL"),
		PhotosURL: os.Getenv("PHOTOS_URL"),
		MongoURI:  os.Getenv("MONGO_URI"),
		MongoDB:   getenv("MONGO_DB", "photo_map"),
		UploadDir: getenv("UPLOAD_DIR", "./.uploads"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		PwHash:    os.Getenv("PW"),
		Cluster:   clustering.DefaultConfig(),
	}

	var err error
	if cfg.Cluster.ClusterZoomThreshold, err = floatEnv("CLUSTER_ZOOM_THRESHOLD", cfg.Cluster.ClusterZoomThreshold); err != nil {
		return Config{}, err
	}
	if cfg.Cluster.ClusterDistanceKm, err = floatEnv("CLUSTER_DISTANCE_KM", cfg.Cluster.ClusterDistanceKm); err != nil {
		return Config{}, err
	}
	if cfg.Cluster.DedupePhotos, err = boolEnv("DEDUPE_PHOTOS", false); err != nil {
		return Config{}, err
	}
	if cfg.Attempts, err = intEnv("FETCH_ATTEMPTS", dataset.DefaultAttempts); err != nil {
		return Config{}, err
	}
	if cfg.RetryDelay, err = durationEnv("FETCH_RETRY_DELAY", dataset.DefaultRetryDelay); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", dataset.DefaultCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.Debounce, err = durationEnv("ZOOM_DEBOUNCE", 150*time.Millisecond); err != nil {
		return Config{}, err
	}

	if (cfg.AreasURL == "") != (cfg.PhotosURL == "") {
		return Config{}, fmt.Errorf("AREAS_URL and PHOTOS_URL must be set together")
	}
	if err := cfg.Cluster.Validate(); err != nil {
		return Config{}, fmt.Errorf("cluster config: %w", err)
	}
	return cfg, nil
}

// SubmissionsEnabled reports whether login and photo submission are set up.
func (c Config) SubmissionsEnabled() bool {
	return c.JWTSecret != "" && c.PwHash != ""
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
