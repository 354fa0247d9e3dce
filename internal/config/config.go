package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, sourced from the environment (with an
// optional .env file for local runs).
type Config struct {
	// Upstream API.
	APIKey      string
	HTTPTimeout time.Duration

	// Reference datasets.
	TargetAirportsFile string
	WorldAirportsFile  string

	// Orchestration.
	SleepBetweenCalls time.Duration
	MaxRetryRounds    int

	// Persistence.
	DatabaseURL     string
	MigrationsDir   string
	UpsertBatchSize int

	// Optional timezone-name cache.
	RedisURL string

	// Scheduled mode: zero means run once and exit.
	RunEvery   time.Duration
	StatusPort string
}

// Load reads configuration from the environment. Missing required variables
// and unparseable values are startup errors, reported before any fetch.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIKey:             os.Getenv("API_KEY"),
		TargetAirportsFile: getenvDefault("TARGET_AIRPORTS_FILE", "data/germany_airports.json"),
		WorldAirportsFile:  getenvDefault("WORLD_AIRPORTS_FILE", "data/world_airports.json"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		MigrationsDir:      getenvDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:           os.Getenv("REDIS_URL"),
		StatusPort:         getenvDefault("STATUS_PORT", "8080"),
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("required environment variable API_KEY not set")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("required environment variable DATABASE_URL not set")
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.SleepBetweenCalls, err = getenvDuration("SLEEP_BETWEEN_CALLS", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.MaxRetryRounds, err = getenvInt("MAX_RETRY_ROUNDS", 5); err != nil {
		return nil, err
	}
	if cfg.UpsertBatchSize, err = getenvInt("UPSERT_BATCH_SIZE", 200); err != nil {
		return nil, err
	}
	if cfg.RunEvery, err = getenvDuration("RUN_EVERY", 0); err != nil {
		return nil, err
	}

	if cfg.MaxRetryRounds < 1 {
		return nil, fmt.Errorf("MAX_RETRY_ROUNDS must be at least 1, got %d", cfg.MaxRetryRounds)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
