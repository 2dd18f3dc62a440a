package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apihttp "playbackengine/internal/api/http"
	"playbackengine/internal/app"
	"playbackengine/internal/domain"
	"playbackengine/internal/metrics"
	mongorepo "playbackengine/internal/repository/mongo"
	"playbackengine/internal/services/ai"
	"playbackengine/internal/services/engine"
	"playbackengine/internal/session"
	"playbackengine/internal/telemetry"

	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "playback-engine")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "playback-engine"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.Bool("translateEnabled", cfg.TranslateURL != ""),
		slog.Bool("synchronizeEnabled", cfg.SynchronizeURL != ""),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
	defer cancel()

	mongoOpts := otelmongo.NewMonitor()
	mongoClient, err := mongorepo.Connect(ctx, cfg.MongoURI, options.Client().SetMonitor(mongoOpts))
	if err != nil {
		logger.Error("mongo connect failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		logger.Error("mongo ping failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	preferencesRepo := mongorepo.NewPreferencesRepository(mongoClient, cfg.MongoDatabase)
	progressRepo := mongorepo.NewProgressRepository(mongoClient, cfg.MongoDatabase)
	if err := progressRepo.EnsureIndexes(ctx); err != nil {
		logger.Warn("mongo ensure indexes failed", slog.String("error", err.Error()))
	}

	aiClient := ai.NewClient(cfg.TranslateURL, cfg.SynchronizeURL,
		time.Duration(cfg.AITimeoutSec)*time.Second, logger)
	factory := engine.NewHTTPFactory(logger)

	// The server is both the Navigator and the OnChange sink for sessions; it
	// is constructed after the manager, so both hooks bind late.
	var server *apihttp.Server
	manager := session.NewManager(session.ManagerConfig{
		Factory:      factory,
		Translator:   aiClient,
		Synchronizer: aiClient,
		Fetcher:      aiClient,
		Preferences:  preferencesRepo,
		Progress:     progressRepo,
		Navigator:    navigatorFunc(func(contentID string, autoplay bool) {
			if server != nil {
				server.NavigateNext(contentID, autoplay)
			}
		}),
		Logger: logger,
		OnChange: func(sessionID string, state domain.PlaybackSession) {
			if server != nil {
				server.BroadcastSession(sessionID, state)
			}
		},
		OnSurfaceSource: func(sessionID, url string) {
			if server != nil {
				server.BroadcastSource(sessionID, url)
			}
		},
	})

	server = apihttp.NewServer(manager, logger,
		apihttp.WithPreferences(preferencesRepo),
		apihttp.WithProgress(progressRepo),
		apihttp.WithRateLimit(float64(cfg.RateLimitRPS), int(cfg.RateLimitBurst)),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("server started", slog.String("addr", cfg.HTTPAddr))

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	manager.Close()
	server.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown error", slog.String("error", err.Error()))
	}
	if err := mongoClient.Disconnect(context.Background()); err != nil {
		logger.Warn("mongo disconnect error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

type navigatorFunc func(contentID string, autoplay bool)

func (f navigatorFunc) NavigateNext(contentID string, autoplay bool) {
	f(contentID, autoplay)
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
