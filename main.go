package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"streamvault/api"
	"streamvault/config"
	"streamvault/handlers"
	"streamvault/internal/database"
	"streamvault/services/catalog"
	"streamvault/services/metadata"
	"streamvault/services/progress"
	"streamvault/services/selection"
	"streamvault/services/session"
	"streamvault/utils"
)

func main() {
	configPath := flag.String("config", "./data/settings.json", "path to settings file")
	flag.Parse()

	cfgManager := config.NewManager(*configPath)
	cfg := cfgManager.Get()

	setupLogging(cfg)

	if err := os.MkdirAll(cfg.Server.DataDir, 0o755); err != nil {
		log.Fatalf("[main] create data dir: %v", err)
	}

	db, err := database.NewDB(database.Config{
		DatabasePath: filepath.Join(cfg.Server.DataDir, "streamvault.db"),
	})
	if err != nil {
		log.Fatalf("[main] open database: %v", err)
	}
	defer db.Close()

	catalogRepo := database.NewCatalogRepository(db.Connection())
	cacheRepo := database.NewCacheRepository(db.Connection())
	progressRepo := database.NewProgressRepository(db.Connection())

	xtream := catalog.NewXtreamClient(cfg.Catalog.Host, cfg.Catalog.Username, cfg.Catalog.Password)
	catalogSvc := catalog.NewService(catalogRepo, xtream,
		catalog.WithBatchSize(cfg.Catalog.SyncBatchSize),
		catalog.WithSyncMaxAge(time.Duration(cfg.Catalog.SyncMaxAgeH)*time.Hour),
	)

	metadataSvc := metadata.NewService(cfg.Metadata.APIKey, cfg.Metadata.Language, cacheRepo, cfg.Metadata.CacheTTLH)
	selectionSvc := selection.NewService(catalogSvc, metadataSvc, cacheRepo)

	var sink progress.Sink
	if cfg.Progress.RemoteURL != "" {
		sink = progress.NewHTTPSink(cfg.Progress.RemoteURL)
	} else {
		sink = progress.NewFileSink(afero.NewOsFs(), cfg.Server.DataDir)
	}
	tracker, err := progress.NewTracker(progressRepo, sink, time.Duration(cfg.Progress.DebounceMS)*time.Millisecond)
	if err != nil {
		log.Fatalf("[main] load progress: %v", err)
	}

	sessions := session.NewManager(tracker, db)
	if cfg.Catalog.Host != "" {
		sessions.Login(session.Credentials{
			Host:     cfg.Catalog.Host,
			Username: cfg.Catalog.Username,
			Password: cfg.Catalog.Password,
		})
	}

	router := utils.NewRouter()

	syncHandler := handlers.NewSyncHandler(catalogSvc)
	catalogHandler := handlers.NewCatalogHandler(catalogSvc)
	homeHandler := handlers.NewHomeHandler(selectionSvc)
	progressHandler := handlers.NewProgressHandler(tracker)
	sessionHandler := handlers.NewSessionHandler(sessions)

	syncLimiter := api.NewIPRateLimiter(rate.Every(12*time.Second), 5)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/sync", api.RateLimit(syncLimiter, syncHandler.Trigger)).Methods(http.MethodPost)
	apiRouter.HandleFunc("/sync/status", syncHandler.Status).Methods(http.MethodGet)
	apiRouter.HandleFunc("/categories", catalogHandler.Categories).Methods(http.MethodGet)
	apiRouter.HandleFunc("/streams", catalogHandler.Streams).Methods(http.MethodGet)
	apiRouter.HandleFunc("/streams/all", catalogHandler.AllStreams).Methods(http.MethodGet)
	apiRouter.HandleFunc("/details/{kind}/{id}", catalogHandler.Detail).Methods(http.MethodGet)
	apiRouter.HandleFunc("/home/carousels", homeHandler.Carousels).Methods(http.MethodGet)
	apiRouter.HandleFunc("/home/hero", homeHandler.Hero).Methods(http.MethodGet)
	apiRouter.HandleFunc("/home/trailer/{kind}/{id}", homeHandler.Trailer).Methods(http.MethodGet)
	apiRouter.HandleFunc("/watch-progress", progressHandler.List).Methods(http.MethodGet)
	apiRouter.HandleFunc("/watch-progress", progressHandler.Update).Methods(http.MethodPost)
	apiRouter.HandleFunc("/watch-progress/{id}", progressHandler.Get).Methods(http.MethodGet)
	apiRouter.HandleFunc("/session", sessionHandler.Current).Methods(http.MethodGet)
	apiRouter.HandleFunc("/session/logout", sessionHandler.Logout).Methods(http.MethodPost)

	server := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: router,
	}

	// Kick off an initial sync when the mirror is missing or stale.
	if cfg.Catalog.Host != "" && catalogSvc.NeedsSync() {
		go func() {
			if err := catalogSvc.SyncAll(context.Background()); err != nil {
				log.Printf("[main] initial sync failed: %v", err)
			}
		}()
	}

	go func() {
		log.Printf("[main] listening on %s", cfg.Server.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("[main] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] shutdown: %v", err)
	}
	if err := tracker.Flush(); err != nil {
		log.Printf("[main] final progress flush: %v", err)
	}
}

// setupLogging mirrors log output to a rotated file when one is configured.
func setupLogging(cfg config.Settings) {
	if cfg.Logging.File == "" {
		return
	}
	rotated := &lumberjack.Logger{
		Filename:   cfg.Logging.File,
		MaxSize:    cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotated))
}
