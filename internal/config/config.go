package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	IFPAAPIKey     string
	IFPABaseURL    string
	MatchplayToken string
	MatchplayBase  string
	ServerPort     string
	LogLevel       string
	CacheEnabled   bool
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		IFPAAPIKey:     getEnv("IFPA_API_KEY", ""),
		IFPABaseURL:    getEnv("IFPA_BASE_URL", "https://api.ifpapinball.com"),
		MatchplayToken: getEnv("MATCHPLAY_TOKEN", ""),
		MatchplayBase:  getEnv("MATCHPLAY_BASE_URL", "https://app.matchplay.events/api"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CacheEnabled:   getEnv("CACHE_ENABLED", "true") != "false",
	}

	if cfg.IFPAAPIKey == "" {
		return nil, fmt.Errorf("IFPA_API_KEY is required")
	}
	if cfg.MatchplayToken == "" {
		return nil, fmt.Errorf("MATCHPLAY_TOKEN is required")
	}

	logger.Info().
		Str("ifpa_base_url", cfg.IFPABaseURL).
		Str("matchplay_base_url", cfg.MatchplayBase).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Bool("cache_enabled", cfg.CacheEnabled).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
