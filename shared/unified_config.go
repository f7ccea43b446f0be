package shared

import (
	"time"

	"github.com/sirupsen/logrus"
)

// UnifiedConfiguration holds tuning parameters for the gateway's upstream
// client, database pool and cache
type UnifiedConfiguration struct {
	Upstream UpstreamConfig `json:"upstream"`
	Database DatabaseConfig `json:"database"`
	Cache    CacheConfig    `json:"cache"`
}

// UpstreamConfig holds expo backend client configuration
type UpstreamConfig struct {
	BaseURL            string        `json:"base_url"`
	HTTPRequestTimeout time.Duration `json:"http_timeout"`
	RequestRateLimit   time.Duration `json:"rate_limit"`
	MaxRetryAttempts   int           `json:"max_retries"` // Background jobs only
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	PingTimeout     time.Duration `json:"ping_timeout"`
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	DefaultTTL time.Duration `json:"default_ttl"`
	MaxSize    int           `json:"max_size"`
}

// NewDefaultUnifiedConfiguration returns production-ready default configuration
func NewDefaultUnifiedConfiguration() *UnifiedConfiguration {
	return &UnifiedConfiguration{
		Upstream: UpstreamConfig{
			HTTPRequestTimeout: 30 * time.Second,
			RequestRateLimit:   500 * time.Millisecond,
			MaxRetryAttempts:   3,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			PingTimeout:     5 * time.Second,
		},
		Cache: CacheConfig{
			DefaultTTL: 2 * time.Minute,
			MaxSize:    500,
		},
	}
}

// ValidateAndApplyDefaults validates configuration and applies defaults for invalid values
func (c *UnifiedConfiguration) ValidateAndApplyDefaults() {
	logger := logrus.WithField("component", "UnifiedConfiguration")

	if c.Upstream.HTTPRequestTimeout <= 0 {
		c.Upstream.HTTPRequestTimeout = 30 * time.Second
		logger.Debug("Applied default Upstream.HTTPRequestTimeout")
	}

	if c.Upstream.RequestRateLimit <= 0 {
		c.Upstream.RequestRateLimit = 500 * time.Millisecond
		logger.Debug("Applied default Upstream.RequestRateLimit")
	}

	if c.Upstream.MaxRetryAttempts <= 0 {
		c.Upstream.MaxRetryAttempts = 3
		logger.Debug("Applied default Upstream.MaxRetryAttempts")
	}

	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 25
		logger.Debug("Applied default Database.MaxOpenConns")
	}

	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
		logger.Debug("Applied default Database.MaxIdleConns")
	}

	if c.Database.ConnMaxLifetime <= 0 {
		c.Database.ConnMaxLifetime = 5 * time.Minute
		logger.Debug("Applied default Database.ConnMaxLifetime")
	}

	if c.Cache.DefaultTTL <= 0 {
		c.Cache.DefaultTTL = 2 * time.Minute
		logger.Debug("Applied default Cache.DefaultTTL")
	}

	if c.Cache.MaxSize <= 0 {
		c.Cache.MaxSize = 500
		logger.Debug("Applied default Cache.MaxSize")
	}
}
