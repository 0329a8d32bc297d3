package cli

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
)

// Environment variables read as flag fallbacks.
const (
	EnvCatalog     = "KIOSK_CATALOG"
	EnvPages       = "KIOSK_PAGES"
	EnvRedisAddr   = "KIOSK_REDIS_ADDR"
	EnvRedisPass   = "KIOSK_REDIS_PASSWORD"
	EnvRedisDB     = "KIOSK_REDIS_DB"
	EnvRedisPrefix = "KIOSK_REDIS_PREFIX"
	EnvFeedKey     = "KIOSK_FEED_KEY"
	EnvPort        = "KIOSK_PORT"
	EnvLogLevel    = "KIOSK_LOG_LEVEL"
)

// Options contains the configuration shared by every command.
type Options struct {
	// CatalogPath is the catalog document (JSON or YAML).
	CatalogPath string
	// PagesDir is a directory of Markdown pages. Empty means built-in pages.
	PagesDir string

	// RedisAddr enables the Redis feed publisher when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// FeedKey is a hex encoded 32 byte key. When set, shipping details in
	// order events are sealed before they leave the process.
	FeedKey string

	LogLevel string
	Debug    bool
}

// EnvOr returns the environment variable if set, else def.
func EnvOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// EnvInt is EnvOr for integers. Invalid values fall back to def.
func EnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// FeedKeyBytes decodes FeedKey. It returns nil when no key is configured.
func (o Options) FeedKeyBytes() ([]byte, error) {
	if o.FeedKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(o.FeedKey)
	if err != nil {
		return nil, fmt.Errorf("invalid feed key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid feed key: want 32 bytes, got %d", len(key))
	}
	return key, nil
}
