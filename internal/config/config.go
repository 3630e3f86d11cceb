// Package config provides configuration loading and validation for the
// feed API server. It uses koanf to merge environment variables with
// optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the feed API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database
	DatabaseURL string `koanf:"database_url"`

	// Redis page cache
	RedisURL            string `koanf:"redis_url"`
	FeedCacheTTLSeconds int    `koanf:"feed_cache_ttl_seconds"`

	// JWT Authentication
	JWTSecret string `koanf:"jwt_secret"`

	// Ranking
	FeedCandidatePool      int    `koanf:"feed_candidate_pool"`
	RankingCalibrationPath string `koanf:"ranking_calibration_path"`

	// RankGeoEnabled switches the location scoring component from its
	// neutral constant to real geodistance. Off until the coordinate
	// backfill completes.
	RankGeoEnabled bool `koanf:"rank_geo_enabled"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrMissingRedisURL    = errors.New("REDIS_URL is required")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET is required")
	ErrInvalidPort        = errors.New("PORT must be a valid integer")
)

// Default values for non-secret configuration.
const (
	DefaultPort                = 8080
	DefaultEnv                 = "development"
	DefaultFeedCacheTTLSeconds = 60
	DefaultFeedCandidatePool   = 500
	DefaultRankGeoEnabled      = false
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if
// valid).
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// Try OPENLOVE_PORT first, then PORT for platform compatibility
	port, portErr := getEnvIntOrDefaultMulti([]string{"OPENLOVE_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	cacheTTL, ttlErr := getEnvIntOrDefault("FEED_CACHE_TTL_SECONDS", k.Int("feed_cache_ttl_seconds"), DefaultFeedCacheTTLSeconds)
	if ttlErr != nil {
		loadErrs = append(loadErrs, ttlErr)
	}

	pool, poolErr := getEnvIntOrDefault("FEED_CANDIDATE_POOL", k.Int("feed_candidate_pool"), DefaultFeedCandidatePool)
	if poolErr != nil {
		loadErrs = append(loadErrs, poolErr)
	}

	rankGeoEnabled := DefaultRankGeoEnabled
	if k.Exists("rank_geo_enabled") {
		rankGeoEnabled = k.Bool("rank_geo_enabled")
	}
	if val := os.Getenv("RANK_GEO_ENABLED"); val != "" {
		rankGeoEnabled = val == "true" || val == "1"
	}

	cfg := &Config{
		Port:                   port,
		Env:                    getEnvOrDefault("OPENLOVE_ENV", k.String("env"), DefaultEnv),
		DatabaseURL:            getEnvOrDefault("DATABASE_URL", k.String("database_url"), ""),
		RedisURL:               getEnvOrDefault("REDIS_URL", k.String("redis_url"), ""),
		FeedCacheTTLSeconds:    cacheTTL,
		JWTSecret:              getEnvOrDefault("JWT_SECRET", k.String("jwt_secret"), ""),
		FeedCandidatePool:      pool,
		RankingCalibrationPath: getEnvOrDefault("RANKING_CALIBRATION_PATH", k.String("ranking_calibration_path"), ""),
		RankGeoEnabled:         rankGeoEnabled,
	}

	loadErrs = append(loadErrs, cfg.Validate()...)
	return cfg, loadErrs
}

// Validate checks that all required configuration values are present.
func (c *Config) Validate() []error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.RedisURL == "" {
		errs = append(errs, ErrMissingRedisURL)
	}
	if c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ErrInvalidPort)
	}

	return errs
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnvOrDefault returns the env value if set, then the file value,
// then the default.
func getEnvOrDefault(envKey, fileValue, defaultValue string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// getEnvIntOrDefault parses an integer env value with file and default
// fallbacks.
func getEnvIntOrDefault(envKey string, fileValue, defaultValue int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return defaultValue, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return parsed, nil
	}
	if fileValue != 0 {
		return fileValue, nil
	}
	return defaultValue, nil
}

// getEnvIntOrDefaultMulti tries multiple env keys in order before the
// file value and default.
func getEnvIntOrDefaultMulti(envKeys []string, fileValue, defaultValue int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			parsed, err := strconv.Atoi(val)
			if err != nil {
				return defaultValue, fmt.Errorf("%s must be a valid integer: %w", key, err)
			}
			return parsed, nil
		}
	}
	if fileValue != 0 {
		return fileValue, nil
	}
	return defaultValue, nil
}
