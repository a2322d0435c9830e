package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all service configuration, populated from the environment.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// RedisURL enables Redis-backed session storage. When empty, sessions
	// are held in process memory.
	RedisURL string `env:"REDIS_URL"`

	GenerationURL string `env:"GENERATION_URL" envDefault:"https://tamagotchi.brancaskitchen.workers.dev/"`
	ImageURL      string `env:"IMAGE_URL" envDefault:"https://tamagotchipfp.brancaskitchen.workers.dev"`
	AnimationURL  string `env:"ANIMATION_URL" envDefault:"https://tamagotchianimation.brancaskitchen.workers.dev"`

	GenerationTimeout time.Duration `env:"GENERATION_TIMEOUT" envDefault:"60s"`
	ImageTimeout      time.Duration `env:"IMAGE_TIMEOUT" envDefault:"120s"`
}

// Load reads configuration from a .env file (when present) and the
// environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps the configured level string to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
