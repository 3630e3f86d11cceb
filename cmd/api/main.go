// Package main is the entry point for the feed API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/openlove/feedrank/internal/api"
	"github.com/openlove/feedrank/internal/auth"
	"github.com/openlove/feedrank/internal/cache"
	"github.com/openlove/feedrank/internal/config"
	"github.com/openlove/feedrank/internal/feed"
	"github.com/openlove/feedrank/internal/health"
	"github.com/openlove/feedrank/internal/middleware"
	"github.com/openlove/feedrank/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("OpenLove Feed API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config:", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	weights, err := feed.LoadCalibration(cfg.RankingCalibrationPath)
	if err != nil {
		// LoadCalibration already fell back to defaults; keep serving.
		logger.Warn("ranking calibration unavailable", "error", err)
	}

	registry := prometheus.NewRegistry()

	feedMetrics := feed.NewMetrics()
	if err := feedMetrics.Register(registry); err != nil {
		logger.Error("failed to register feed metrics", "error", err)
		os.Exit(1)
	}
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		logger.Error("failed to register http metrics", "error", err)
		os.Exit(1)
	}

	engine := feed.NewEngine(
		store.NewPostgres(db),
		cache.NewRedis(redisClient, time.Duration(cfg.FeedCacheTTLSeconds)*time.Second),
		feed.Config{
			CandidatePool: cfg.FeedCandidatePool,
			Weights:       weights,
			Rand:          rand.New(rand.NewSource(time.Now().UnixNano())),
			GeoRanking:    cfg.RankGeoEnabled,
			Logger:        logger,
			Metrics:       feedMetrics,
		},
	)

	feedHandlers := api.NewFeedHandlers(engine)
	healthHandlers := api.NewHealthHandlers(api.HealthHandlersConfig{
		DBChecker:    health.NewDBChecker(db),
		RedisChecker: health.NewRedisChecker(redisClient),
	})

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	requireAuth := auth.RequireAuth(jwtService, api.Unauthorized)

	mux := http.NewServeMux()
	mux.Handle("/feed/for-you", requireAuth(http.HandlerFunc(feedHandlers.ForYou)))
	mux.Handle("/feed/following", requireAuth(http.HandlerFunc(feedHandlers.Following)))
	mux.Handle("/feed/explore", requireAuth(http.HandlerFunc(feedHandlers.Explore)))
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Apply middleware: RequestID -> Logging -> HTTPMetrics
	handler := middleware.RequestID(
		middleware.Logging(logger)(
			middleware.HTTPMetrics(httpMetrics)(mux)))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
