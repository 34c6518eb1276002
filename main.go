package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"photo-map/api"
	"photo-map/clustering"
	"photo-map/config"
	"photo-map/dataset"
	"photo-map/marker"
	"photo-map/report"
	"photo-map/storage"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := report.NewTracker(logger)

	var mongodb *storage.MongoCatalogDB
	if cfg.MongoURI != "" {
		mongodb = &storage.MongoCatalogDB{Log: logger}
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := mongodb.Connect(connectCtx, cfg.MongoURI, cfg.MongoDB)
		cancel()
		if err != nil {
			logger.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer mongodb.Close(context.Background())
	}

	cache := dataset.NewBodyCache(cfg.CacheTTL)
	defer cache.Close()

	var primary dataset.Source = dataset.EmbeddedSource{}
	switch {
	case cfg.AreasURL != "":
		primary = &dataset.HTTPSource{
			AreasURL:   cfg.AreasURL,
			PhotosURL:  cfg.PhotosURL,
			Cache:      cache,
			Attempts:   cfg.Attempts,
			RetryDelay: cfg.RetryDelay,
			Log:        logger,
		}
	case mongodb != nil:
		primary = dataset.MongoSource{DB: mongodb}
	}

	catalog := dataset.NewCatalog(primary, dataset.EmbeddedSource{}, tracker, logger)
	if err := catalog.Load(ctx); err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}

	handlers := &api.MapHandlers{
		Catalog:   catalog,
		Clusterer: clustering.NewClusterer(cfg.Cluster, logger, tracker),
		Builder:   marker.NewBuilder(cfg.Cluster, tracker, logger),
		Tracker:   tracker,
		Log:       logger,
	}
	if cfg.SubmissionsEnabled() {
		handlers.Storage = &storage.LocalPhotoStorage{Directory: cfg.UploadDir, URLPrefix: "/uploads"}
		handlers.SecretKey = cfg.JWTSecret
		handlers.PwHash = cfg.PwHash
		if mongodb != nil {
			handlers.DB = mongodb
		}
	}

	router := mux.NewRouter()
	router.Use(api.RecoveryMiddleware(logger), api.RequestLoggerMiddleware(logger))
	handlers.Register(router)
	sessions := &api.SessionHandlers{Map: handlers, Debounce: cfg.Debounce}
	sessions.Register(router)
	router.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server", zap.String("addr", srv.Addr), zap.Bool("degraded", catalog.Degraded()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
