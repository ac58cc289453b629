package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds the settings of the quotation server
type AppConfig struct {
	Port           string
	DatabaseType   string
	DatabaseURL    string
	RedisURL       string
	JWTSecret      string
	CatalogDir     string
	CalcDelay      time.Duration
	SubmitAttempts int
	SubmitBackoff  time.Duration
	DraftTTL       time.Duration
}

// DefaultAppConfig returns the settings used when nothing is configured
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Port:           "8080",
		DatabaseType:   "memory",
		CalcDelay:      800 * time.Millisecond,
		SubmitAttempts: 3,
		SubmitBackoff:  500 * time.Millisecond,
		DraftTTL:       7 * 24 * time.Hour,
	}
}

// LoadAppConfig reads settings from the environment after loading envFile.
// A missing env file is not an error.
func LoadAppConfig(envFile string) (AppConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return AppConfig{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return AppConfigFromEnv(os.Getenv)
}

// AppConfigFromEnv builds the configuration from a lookup function
func AppConfigFromEnv(getenv func(string) string) (AppConfig, error) {
	cfg := DefaultAppConfig()

	if v := getenv("QUOTEGO_PORT"); v != "" {
		cfg.Port = v
	}
	if v := getenv("DATABASE_TYPE"); v != "" {
		cfg.DatabaseType = strings.ToLower(v)
	}
	cfg.DatabaseURL = getenv("DATABASE_URL")
	cfg.RedisURL = getenv("REDIS_URL")
	cfg.JWTSecret = getenv("JWT_SECRET")
	cfg.CatalogDir = getenv("CATALOG_DIR")

	var err error
	if cfg.CalcDelay, err = durationEnv(getenv, "CALC_DELAY", cfg.CalcDelay); err != nil {
		return AppConfig{}, err
	}
	if cfg.SubmitBackoff, err = durationEnv(getenv, "SUBMIT_BACKOFF", cfg.SubmitBackoff); err != nil {
		return AppConfig{}, err
	}
	if cfg.DraftTTL, err = durationEnv(getenv, "DRAFT_TTL", cfg.DraftTTL); err != nil {
		return AppConfig{}, err
	}
	if v := getenv("SUBMIT_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return AppConfig{}, fmt.Errorf("SUBMIT_ATTEMPTS: %w", err)
		}
		cfg.SubmitAttempts = n
	}

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for usable values
func (c AppConfig) Validate() error {
	switch c.DatabaseType {
	case "memory":
	case "sqlite", "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s", c.DatabaseType)
		}
	default:
		return fmt.Errorf("unknown DATABASE_TYPE %q", c.DatabaseType)
	}
	if c.SubmitAttempts < 1 {
		return fmt.Errorf("SUBMIT_ATTEMPTS must be at least 1")
	}
	if c.CalcDelay < 0 || c.SubmitBackoff < 0 {
		return fmt.Errorf("delays cannot be negative")
	}
	if c.DraftTTL <= 0 {
		return fmt.Errorf("DRAFT_TTL must be positive")
	}
	return nil
}

func durationEnv(getenv func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
