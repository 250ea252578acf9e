package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// HTTP server
	ListenAddr        string
	CORSAllowedOrigin string

	// Database configuration
	DatabaseURL string

	// Redis configuration; empty disables the leaderboard cache
	RedisURL string

	// Identity provider (Privy)
	PrivyAppID     string
	PrivyAppSecret string
	PrivyBaseURL   string

	// Game settings
	MinBetAmount decimal.Decimal
	MaxBetAmount decimal.Decimal
	HouseEdge    decimal.Decimal

	// Withdrawal settings
	MinWithdrawal decimal.Decimal
	MaxWithdrawal decimal.Decimal

	// Affiliate settings
	CommissionRate decimal.Decimal

	// Rate limits per user
	MaxRequestsPerMinute int
	MaxBetsPerMinute     int

	// Environment is "development", "production" or "test"
	Environment string
}

// Load reads configuration from environment variables. It is called once
// at startup and the result is passed down explicitly; there is no
// global instance.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:        envOr("LISTEN_ADDR", ":8001"),
		CORSAllowedOrigin: envOr("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		PrivyAppID:     os.Getenv("PRIVY_APP_ID"),
		PrivyAppSecret: os.Getenv("PRIVY_APP_SECRET"),
		PrivyBaseURL:   envOr("PRIVY_BASE_URL", "https://auth.privy.io"),

		MinBetAmount: decimalEnvOr("MIN_BET_AMOUNT", "0.001"),
		MaxBetAmount: decimalEnvOr("MAX_BET_AMOUNT", "10.0"),
		HouseEdge:    decimalEnvOr("HOUSE_EDGE", "0.02"),

		MinWithdrawal: decimalEnvOr("MIN_WITHDRAWAL", "0.01"),
		MaxWithdrawal: decimalEnvOr("MAX_WITHDRAWAL", "100.0"),

		CommissionRate: decimalEnvOr("COMMISSION_RATE", "0.05"),

		MaxRequestsPerMinute: intEnvOr("MAX_REQUESTS_PER_MINUTE", 60),
		MaxBetsPerMinute:     intEnvOr("MAX_BETS_PER_MINUTE", 10),

		Environment: envOr("ENVIRONMENT", "development"),
	}

	if cfg.Environment != "test" {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if cfg.PrivyAppID == "" {
			return nil, fmt.Errorf("PRIVY_APP_ID is required")
		}
	}

	if cfg.MinBetAmount.GreaterThan(cfg.MaxBetAmount) {
		return nil, fmt.Errorf("MIN_BET_AMOUNT %s exceeds MAX_BET_AMOUNT %s", cfg.MinBetAmount, cfg.MaxBetAmount)
	}
	if cfg.MinWithdrawal.GreaterThan(cfg.MaxWithdrawal) {
		return nil, fmt.Errorf("MIN_WITHDRAWAL %s exceeds MAX_WITHDRAWAL %s", cfg.MinWithdrawal, cfg.MaxWithdrawal)
	}
	if cfg.HouseEdge.IsNegative() || cfg.HouseEdge.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("HOUSE_EDGE %s must be in [0, 1)", cfg.HouseEdge)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnvOr(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func decimalEnvOr(key, fallback string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if parsed, err := decimal.NewFromString(value); err == nil {
			return parsed
		}
	}
	return decimal.RequireFromString(fallback)
}
