package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/charlie0129/chess-stats-go/internal/api"
	"github.com/charlie0129/chess-stats-go/internal/archive"
	"github.com/charlie0129/chess-stats-go/internal/cache"
	"github.com/charlie0129/chess-stats-go/internal/chesscom"
	"github.com/charlie0129/chess-stats-go/internal/client"
	"github.com/charlie0129/chess-stats-go/internal/config"
	"github.com/charlie0129/chess-stats-go/internal/database"
	"github.com/charlie0129/chess-stats-go/internal/export"
	"github.com/charlie0129/chess-stats-go/internal/session"
	"github.com/charlie0129/chess-stats-go/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	loc := cfg.GetTimezone()

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("local time", "time", time.Now().In(loc).Format(time.RFC3339))

	// Profile cache: redis when configured, in-process otherwise
	var profiles cache.Cache = cache.NewMemory()
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rc, err := cache.NewRedis(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		profiles = rc
	}
	defer profiles.Close()

	upstream := chesscom.NewClientWithBaseURL(cfg.UserAgent, cfg.ProxyURL, cfg.ChessComBaseURL)
	fetcher := archive.NewFetcher(upstream, db, cfg.FetchWorkers, loc)
	exports := export.NewWriter(cfg.DownloadsDir, db)

	// Start background refresh scheduler
	scheduler := archive.NewScheduler(fetcher, db, exports, archive.SchedulerConfig{
		Schedule:  cfg.RefreshSchedule,
		Window:    cfg.GetRefreshWindow(),
		Retention: cfg.GetExportRetention(),
		Location:  loc,
	})
	scheduler.Start()

	// JSON API
	mux := http.NewServeMux()
	api.NewHandler(api.Options{
		Upstream:   upstream,
		Fetcher:    fetcher,
		Store:      db,
		Profiles:   profiles,
		ProfileTTL: cfg.GetProfileCacheTTL(),
		Exports:    exports,
		Location:   loc,
	}).RegisterRoutes(mux)

	// UI sessions talk to the API over HTTP like any other client
	backend := client.NewClient(cfg.APIBaseURL)
	sessions := web.NewSessions(cfg.GetSessionTTL(), func() *session.Controller {
		return session.NewController(backend,
			session.WithBannerTimeout(cfg.GetBannerTimeout()),
			session.WithLocation(loc),
		)
	})
	stopSweep := make(chan struct{})
	go sessions.Run(time.Minute, stopSweep)
	web.NewHandler(sessions).RegisterRoutes(mux)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: false,
	}).Handler(mux)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      web.RequestLogger(corsHandler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		scheduler.Stop()
		close(stopSweep)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		sessions.Close()
	}()

	slog.Info("server starting", "addr", cfg.ListenAddr, "api_base_url", cfg.APIBaseURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
