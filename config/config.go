package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort          string
	ExpoAPIBaseURL      string
	DatabaseURL         string
	LogLevel            string
	CacheTTLMinutes     string
	SessionIdleMinutes  string
	RankRefreshMinutes  string
	UpstreamTimeoutSecs string
}

// SimplifiedCacheConfig holds cache configuration for filtered-plot payloads
type SimplifiedCacheConfig struct {
	DefaultTTL time.Duration `json:"default_ttl"`
	MaxSize    int           `json:"max_size"`
}

// DefaultCacheConfig returns default cache configuration.
// Plot inventory changes often during an active expo, so the TTL stays short.
func DefaultCacheConfig() *SimplifiedCacheConfig {
	return &SimplifiedCacheConfig{
		DefaultTTL: 2 * time.Minute,
		MaxSize:    500,
	}
}

// GetCacheTTL returns the cache TTL from environment or default
func (c *Config) GetCacheTTL() time.Duration {
	return minutesOrDefault(c.CacheTTLMinutes, "CACHE_TTL_MINUTES", 2*time.Minute)
}

// GetSessionIdleTimeout returns how long an idle session survives before the sweep job removes it
func (c *Config) GetSessionIdleTimeout() time.Duration {
	return minutesOrDefault(c.SessionIdleMinutes, "SESSION_IDLE_TIMEOUT_MINUTES", 60*time.Minute)
}

// GetRankRefreshInterval returns how often bid ranks are re-fetched for active bidders
func (c *Config) GetRankRefreshInterval() time.Duration {
	return minutesOrDefault(c.RankRefreshMinutes, "RANK_REFRESH_MINUTES", 5*time.Minute)
}

// GetUpstreamTimeout returns the per-request timeout for calls to the expo backend
func (c *Config) GetUpstreamTimeout() time.Duration {
	if c.UpstreamTimeoutSecs == "" {
		return 30 * time.Second
	}
	secs, err := strconv.Atoi(c.UpstreamTimeoutSecs)
	if err != nil || secs <= 0 {
		logrus.Warnf("Invalid UPSTREAM_TIMEOUT_SECONDS value: %s, using default 30s", c.UpstreamTimeoutSecs)
		return 30 * time.Second
	}
	return time.Duration(secs) * time.Second
}

func minutesOrDefault(raw, name string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		logrus.Warnf("Invalid %s value: %s, using default %v", name, raw, fallback)
		return fallback
	}
	return time.Duration(minutes) * time.Minute
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		ExpoAPIBaseURL:      getEnv("EXPO_API_BASE_URL", "https://api.dhadigitalexpo.com/api"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		CacheTTLMinutes:     getEnv("CACHE_TTL_MINUTES", "2"),
		SessionIdleMinutes:  getEnv("SESSION_IDLE_TIMEOUT_MINUTES", "60"),
		RankRefreshMinutes:  getEnv("RANK_REFRESH_MINUTES", "5"),
		UpstreamTimeoutSecs: getEnv("UPSTREAM_TIMEOUT_SECONDS", "30"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
