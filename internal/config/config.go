// Package config loads duoload settings from the environment, optionally
// populated from a .env file.
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

// Environment variable names.
const (
	EnvAPIURL         = "DUOLOAD_API_URL"
	EnvUserAgent      = "DUOLOAD_USER_AGENT"
	EnvPageSize       = "DUOLOAD_PAGE_SIZE"
	EnvPageDelay      = "DUOLOAD_PAGE_DELAY"
	EnvLogLevel       = "DUOLOAD_LOG_LEVEL"
	EnvLogPretty      = "DUOLOAD_LOG_PRETTY"
	EnvRedisURL       = "REDIS_URL"
	EnvCacheTTL       = "DUOLOAD_CACHE_TTL"
	EnvMongoURI       = "MONGO_URI"
	EnvMongoDatabase  = "MONGO_DATABASE"
	EnvPushgatewayURL = "PUSHGATEWAY_URL"
)

// Config holds all settings that are not per-invocation flags.
type Config struct {
	APIURL    string
	UserAgent string
	PageSize  int
	PageDelay time.Duration

	LogLevel  string
	LogPretty bool

	// RedisURL enables the page cache, e.g. redis://localhost:6379/0.
	RedisURL string
	CacheTTL time.Duration

	MongoURI      string
	MongoDatabase string

	PushgatewayURL string
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		APIURL:        "https://api.duocards.com/graphql",
		UserAgent:     "duoload/1.0",
		PageSize:      100,
		PageDelay:     1 * time.Second,
		LogLevel:      "info",
		CacheTTL:      15 * time.Minute,
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "duoload",
	}
}

// LoadDotEnv loads the given .env files (".env" when none are given) into the
// environment without overriding variables that are already set.
// Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the environment on top of Default.
func Load() (*Config, error) {
	cfg := Default()

	cfg.APIURL = getString(EnvAPIURL, cfg.APIURL)
	cfg.UserAgent = getString(EnvUserAgent, cfg.UserAgent)
	cfg.LogLevel = getString(EnvLogLevel, cfg.LogLevel)
	cfg.RedisURL = getString(EnvRedisURL, cfg.RedisURL)
	cfg.MongoURI = getString(EnvMongoURI, cfg.MongoURI)
	cfg.MongoDatabase = getString(EnvMongoDatabase, cfg.MongoDatabase)
	cfg.PushgatewayURL = getString(EnvPushgatewayURL, cfg.PushgatewayURL)

	var err error
	if cfg.PageSize, err = getInt(EnvPageSize, cfg.PageSize); err != nil {
		return nil, err
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("%s must be a positive integer (got %d)", EnvPageSize, cfg.PageSize)
	}

	if cfg.PageDelay, err = getDuration(EnvPageDelay, cfg.PageDelay); err != nil {
		return nil, err
	}
	if cfg.PageDelay < 0 {
		return nil, fmt.Errorf("%s must not be negative (got %s)", EnvPageDelay, cfg.PageDelay)
	}

	if cfg.CacheTTL, err = getDuration(EnvCacheTTL, cfg.CacheTTL); err != nil {
		return nil, err
	}

	if cfg.LogPretty, err = getBool(EnvLogPretty, cfg.LogPretty); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := getString(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := getString(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func getBool(key string, def bool) (bool, error) {
	v := getString(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}
