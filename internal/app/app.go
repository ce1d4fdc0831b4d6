package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/bookmarks"
	"github.com/MrSnakeDoc/bookmarker/internal/config"
	"github.com/MrSnakeDoc/bookmarker/internal/favicon"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver"
	"github.com/MrSnakeDoc/bookmarker/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	"github.com/MrSnakeDoc/bookmarker/internal/scheduler"
	"github.com/MrSnakeDoc/bookmarker/internal/sources/homepage"
	"github.com/MrSnakeDoc/bookmarker/internal/version"
)

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	server  *httpserver.Server
	backend *Backend
	store   *bookmarks.Store
	sync    *scheduler.HomepageSync
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Open storage early - fail fast if unavailable
	backend, err := OpenBackend(context.Background(), cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open %s storage: %v", cfg.Storage, err)
		os.Exit(1)
	}
	loggerClient.Info("storage initialized successfully",
		logger.String("backend", cfg.Storage),
		logger.String("key", cfg.SlotKey))

	store := bookmarks.New(backend.Slot,
		bookmarks.WithKey(cfg.SlotKey),
		bookmarks.WithLogger(loggerClient),
	)

	// Load once at startup so the first request sees the collection
	loaded := store.Load(context.Background())
	loggerClient.Info("bookmarks loaded", logger.Int("count", len(loaded)))

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		Location:       cfg.Location(),
		Store:          store,
		Slot:           backend.Slot,
		Favicons:       favicon.NewResolver(cfg.FaviconEndpoint),
		StorageBackend: cfg.Storage,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxy,
	}

	server := httpserver.New(cfg, loggerClient, d)

	var sync *scheduler.HomepageSync
	if cfg.HomepageBookmarks != "" {
		history := homepage.NewHistory(backend.Slot, homepage.HistoryKey(cfg.SlotKey))
		sync = scheduler.NewHomepageSync(cfg.HomepageBookmarks, store, history, loggerClient, cfg.HomepageSyncInterval)
	}

	return &App{
		cfg:     cfg,
		logger:  loggerClient,
		server:  server,
		backend: backend,
		store:   store,
		sync:    sync,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Bookmarker v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Bookmarker %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.sync != nil {
		if err := a.sync.Start(ctx); err != nil {
			// Not fatal: bookmarks already stored stay available
			a.logger.Error("homepage sync disabled", logger.Error(err))
			a.sync = nil
		} else {
			a.logger.Info("homepage sync started",
				logger.String("file", a.cfg.HomepageBookmarks),
				logger.Duration("interval", a.cfg.HomepageSyncInterval))
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		a.stopSync()
		a.closeBackend()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.stopSync()
	a.closeBackend()

	a.logger.Info("✅ Bookmarker stopped cleanly")
	_ = a.logger.Sync()
	return nil
}

func (a *App) stopSync() {
	if a.sync != nil {
		a.sync.Stop()
	}
}

func (a *App) closeBackend() {
	if err := a.backend.Close(); err != nil {
		a.logger.Warnf("failed to close %s storage: %v", a.cfg.Storage, err)
	} else {
		a.logger.Infof("✅ %s storage closed cleanly", a.cfg.Storage)
	}
}
