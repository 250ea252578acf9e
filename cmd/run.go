package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/ByGamer01/DamnBruh/api"
	"github.com/ByGamer01/DamnBruh/auth"
	"github.com/ByGamer01/DamnBruh/config"
	"github.com/ByGamer01/DamnBruh/database"
	"github.com/ByGamer01/DamnBruh/events"
	"github.com/ByGamer01/DamnBruh/monitoring"
	"github.com/ByGamer01/DamnBruh/repository"
	"github.com/ByGamer01/DamnBruh/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	configureLogging(cfg.Environment)
	logrus.Info("Starting damnbruh API server...")

	// Initialize database connection
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	logrus.Info("Database connection established")

	// Leaderboard cache is optional; the service falls back to the
	// database when no client is configured
	var cache *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		cache = redis.NewClient(opts)
		if err := cache.Ping(ctx).Err(); err != nil {
			logrus.WithError(err).Warn("Redis unreachable, leaderboard caching disabled")
			_ = cache.Close()
			cache = nil
		} else {
			defer cache.Close()
			logrus.Info("Redis connection established")
		}
	}

	// Initialize event bus and unit of work factory
	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize token verification
	verifier := auth.NewVerifier(auth.Config{
		AppID:     cfg.PrivyAppID,
		AppSecret: cfg.PrivyAppSecret,
		BaseURL:   cfg.PrivyBaseURL,
	})

	// Initialize services
	userService := service.NewUserService(uowFactory, service.UserConfig{
		CommissionRate: cfg.CommissionRate,
	})
	gameService := service.NewGameService(uowFactory, service.NewMockMatchmaker(), service.GameConfig{
		MinBetAmount: cfg.MinBetAmount,
		MaxBetAmount: cfg.MaxBetAmount,
		HouseEdge:    cfg.HouseEdge,
	})
	leaderboardService := service.NewLeaderboardService(uowFactory, cache)
	ledgerService := service.NewLedgerService(uowFactory, service.LedgerConfig{
		MinWithdrawal: cfg.MinWithdrawal,
		MaxWithdrawal: cfg.MaxWithdrawal,
	})

	// Initialize metrics and attach them to the event bus
	registry := prometheus.NewRegistry()
	collector := monitoring.NewCollector(registry)
	collector.Subscribe(eventBus)

	rateLimiter := api.NewRateLimiter(api.RateLimiterConfig{
		GeneralPerMinute: cfg.MaxRequestsPerMinute,
		BetsPerMinute:    cfg.MaxBetsPerMinute,
	})
	defer rateLimiter.Stop()

	router := api.NewRouter(&api.RouterDeps{
		Verifier:          verifier,
		Profiles:          verifier,
		Users:             userService,
		Games:             gameService,
		Leaderboards:      leaderboardService,
		Ledger:            ledgerService,
		RateLimiter:       rateLimiter,
		Collector:         collector,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		MetricsHandler:    monitoring.Handler(registry),
	})

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"addr":        cfg.ListenAddr,
			"environment": cfg.Environment,
		}).Info("Listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("Graceful shutdown incomplete")
	}

	logrus.Info("Shutdown completed")
	return nil
}

func configureLogging(environment string) {
	if environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
		return
	}
	logrus.SetLevel(logrus.DebugLevel)
}
