package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"chess-crawler/internal/constants"
)

type Config struct {
	DBPath       string
	APIBaseURL   string
	UserAgent    string
	LogLevel     string
	CacheTTL     time.Duration
	RequestDelay time.Duration
	MonthsBack   int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:       getEnv("DB_PATH", "chess.db"),
		APIBaseURL:   getEnv("API_BASE_URL", "https://api.chess.com"),
		UserAgent:    getEnv("USER_AGENT", "chess-crawler/1.0"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		CacheTTL:     getDurationEnv("CACHE_TTL", constants.ResponseCacheTTL),
		RequestDelay: getDurationEnv("REQUEST_DELAY", constants.RequestDelay),
		MonthsBack:   getIntEnv("MONTHS_BACK", constants.DefaultMonthsBack),
	}

	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL must not be empty")
	}
	if cfg.MonthsBack < 1 {
		return nil, fmt.Errorf("MONTHS_BACK must be at least 1, got %d", cfg.MonthsBack)
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("api_base_url", cfg.APIBaseURL).
		Str("log_level", cfg.LogLevel).
		Dur("cache_ttl", cfg.CacheTTL).
		Dur("request_delay", cfg.RequestDelay).
		Int("months_back", cfg.MonthsBack).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

var Module = fx.Provide(Load)
