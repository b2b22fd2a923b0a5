package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	DBPath          string
	ServerPort      string
	LogLevel        string
	NotifyWebhook   string // optional; direct messages are dropped when empty
	RoleWebhook     string // optional; tier markers are only logged when empty
	VenueNamePrefix string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:          getEnv("DB_PATH", "hsm_players.db"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		NotifyWebhook:   getEnv("NOTIFY_WEBHOOK_URL", ""),
		RoleWebhook:     getEnv("ROLE_WEBHOOK_URL", ""),
		VenueNamePrefix: getEnv("VENUE_NAME_PREFIX", "hsm"),
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Bool("notify_webhook", cfg.NotifyWebhook != "").
		Bool("role_webhook", cfg.RoleWebhook != "").
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
