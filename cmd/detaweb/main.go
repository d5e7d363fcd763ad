// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/detagroup/detaweb/internal/analytics"
	"github.com/detagroup/detaweb/internal/cache"
	"github.com/detagroup/detaweb/internal/config"
	"github.com/detagroup/detaweb/internal/geoip"
	"github.com/detagroup/detaweb/internal/handler/api"
	"github.com/detagroup/detaweb/internal/i18n"
	"github.com/detagroup/detaweb/internal/locale"
	"github.com/detagroup/detaweb/internal/logging"
	"github.com/detagroup/detaweb/internal/middleware"
	"github.com/detagroup/detaweb/internal/notify"
	"github.com/detagroup/detaweb/internal/scheduler"
	"github.com/detagroup/detaweb/internal/service"
	"github.com/detagroup/detaweb/internal/session"
	"github.com/detagroup/detaweb/internal/storage"
	"github.com/detagroup/detaweb/internal/store"
	"github.com/detagroup/detaweb/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "detaweb - Deta Group site backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DETA_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DETA_DB_DRIVER         sqlite|postgres (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DETA_DB_PATH           SQLite database path (default: ./data/detaweb.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DETA_DATABASE_URL      PostgreSQL DSN\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DETA_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DETA_ENV               development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DETA_STORAGE           local|s3 (default: local)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DETA_REDIS_URL         Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  DETA_NOTIFY_URL        Email sender endpoint (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("detaweb %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.UsePostgres() {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	slog.Info("initializing database", "driver", cfg.DBDriver)
	db, err := store.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}()

	slog.Info("running database migrations")
	if err := store.MigrateDialect(db, cfg.DBDriver); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	queries := store.NewWithDialect(db, cfg.DBDriver)

	// WARN and ERROR records also go to the event log table.
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, queries))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	if cfg.DoSeed {
		if err := store.SeedAdmin(ctx, queries, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	catalog, err := i18n.Load(logger)
	if err != nil {
		return fmt.Errorf("loading translations: %w", err)
	}
	registry := locale.NewRegistry()
	if err := registry.Load(ctx, queries); err != nil {
		return fmt.Errorf("loading languages: %w", err)
	}
	slog.Info("languages loaded", "default", registry.Default(), "active", registry.Codes())

	c, cacheInfo, err := cache.NewCache(cache.Config{
		RedisURL:         cfg.RedisURL,
		Prefix:           cfg.CachePrefix,
		DefaultTTL:       cfg.CacheTTLDuration(),
		MaxSize:          cfg.CacheMaxSize,
		CleanupInterval:  time.Minute,
		FallbackToMemory: true,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = c.Close() }()
	if cfg.UseRedisCache() && cacheInfo.Fallback {
		slog.Warn("redis unavailable, using memory cache", "redis_url", cacheInfo.RedisURL, "error", cacheInfo.Err)
	} else {
		slog.Info("cache initialized", "backend", cacheInfo.Backend)
	}

	files, err := storage.New(ctx, storage.Config{
		Backend: cfg.Storage,
		Dir:     cfg.UploadsDir,
		BaseURL: "/uploads",
		S3: storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		},
	})
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	slog.Info("storage initialized", "backend", cfg.Storage)

	dispatcher := notify.NewDispatcher(queries, logger, notify.Config{
		URL:     cfg.NotifyURL,
		Secret:  cfg.NotifySecret,
		Workers: cfg.NotifyWorkers,
		Timeout: cfg.NotifyTimeout,
	})
	dispatcher.Start(ctx)
	defer dispatcher.Stop()
	if !cfg.NotificationsEnabled() {
		slog.Warn("DETA_NOTIFY_URL not set, order emails are disabled and not recorded")
	}

	var geo *geoip.Lookup
	if cfg.GeoIPEnabled() {
		geo, err = geoip.Open(cfg.GeoIPDBPath)
		if err != nil {
			slog.Warn("geoip database unavailable, countries will not be recorded", "error", err)
			geo = nil
		} else {
			defer func() { _ = geo.Close() }()
		}
	}
	recorder := analytics.NewRecorder(queries, geo, logger, 1024)
	recorder.Start(ctx)
	defer recorder.Stop()

	ttl := cfg.CacheTTLDuration()
	events := service.NewEventService(queries, logger)
	services := api.Services{
		Orders:    service.NewOrderService(db, queries, c, dispatcher, logger, ttl),
		Content:   service.NewContentService(db, queries, registry, c, logger, ttl),
		Lookups:   service.NewLookupService(db, queries, registry, c, logger, ttl),
		Languages: service.NewLanguageService(db, queries, registry, c, logger),
		Users:     service.NewUserService(db, queries, logger),
		Media:     service.NewMediaService(db, queries, files, logger),
		Events:    events,
	}

	sessionManager := session.New(db, queries, cfg.IsDevelopment())
	loginGuard := middleware.NewLoginGuard(middleware.DefaultLoginGuardConfig())

	maintenance := scheduler.Maintenance{
		EventRetention:    time.Duration(cfg.EventRetentionDays) * 24 * time.Hour,
		PageViewRetention: time.Duration(cfg.PageViewRetentionDays) * 24 * time.Hour,
		Events:            events,
		PageViews:         recorder,
		Notifications:     dispatcher,
		LoginGuard:        loginGuard,
	}
	if dbStore, ok := sessionManager.Store.(*session.DBStore); ok {
		maintenance.Sessions = dbStore
	}
	if geo != nil {
		maintenance.GeoIP = geo
	}

	sched := scheduler.New(logger)
	for _, job := range maintenance.Jobs(logger) {
		if err := sched.Add(job); err != nil {
			return fmt.Errorf("scheduling %s: %w", job.Name, err)
		}
	}
	sched.Start()
	defer sched.Stop()

	apiHandler := api.NewHandler(api.Config{
		DB:             db,
		Cache:          c,
		Services:       services,
		Registry:       registry,
		Sessions:       sessionManager,
		LoginGuard:     loginGuard,
		Analytics:      recorder,
		Jobs:           sched,
		PageViews:      recorder,
		Version:        versionInfo,
		Logger:         logger,
		OrderRateLimit: cfg.OrderRateLimit,
		LoginRateLimit: cfg.LoginRateLimit,
	})

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.SecurityHeaders(cfg.IsDevelopment()))

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Compress(5))
		r.Use(middleware.CSRF([]byte(cfg.SessionSecret), trustedOrigins(cfg.PublicURL)))
		r.Use(sessionManager.LoadAndSave)
		r.Use(middleware.Locale(registry, catalog, sessionManager))
		r.Mount("/", apiHandler.Routes())
	})

	if !cfg.UseS3() {
		// Upload object names are content-addressed, so they never change.
		uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))
		r.Handle("/uploads/*", middleware.ImmutableCache(365*24*time.Hour)(uploads))
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Longer to allow for large uploads and slow connections
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// trustedOrigins returns the host of the public URL, which browsers send as
// Origin when the site frontend is served from another port or domain.
func trustedOrigins(publicURL string) []string {
	u, err := url.Parse(publicURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}
