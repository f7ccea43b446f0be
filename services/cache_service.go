package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/ShafHaider007/expo-portal/models"
	"github.com/sirupsen/logrus"
)

// CacheEntry represents a cached item with expiration
type CacheEntry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// IsExpired checks if the cache entry has expired
func (ce *CacheEntry) IsExpired() bool {
	return time.Now().After(ce.ExpiresAt)
}

// CacheService caches upstream payloads: in-memory with TTL and eviction,
// plus optional database persistence for filtered-plot payloads so a restart
// does not hammer the expo backend. Thread-safe via a read/write lock.
type CacheService struct {
	cache      map[string]*CacheEntry
	mutex      sync.RWMutex
	defaultTTL time.Duration
	maxSize    int
	DB         *sql.DB // nil when the gateway runs without a database
}

// NewCacheService creates a cache service with default configuration
func NewCacheService(db *sql.DB) *CacheService {
	return NewCacheServiceWithConfig(db, 2*time.Minute, 500)
}

// NewCacheServiceWithConfig creates a cache service with custom configuration
func NewCacheServiceWithConfig(db *sql.DB, defaultTTL time.Duration, maxSize int) *CacheService {
	cs := &CacheService{
		cache:      make(map[string]*CacheEntry),
		defaultTTL: defaultTTL,
		maxSize:    maxSize,
		DB:         db,
	}

	// Start cleanup goroutine
	go cs.cleanupExpired()

	return cs
}

// Get retrieves a value from the in-memory cache
func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	entry, exists := cs.cache[key]
	if !exists || entry.IsExpired() {
		return nil, false
	}

	return entry.Data, true
}

// Set stores a value in cache with default TTL
func (cs *CacheService) Set(key string, value interface{}) {
	cs.SetWithTTL(key, value, cs.defaultTTL)
}

// SetWithTTL stores a value in cache with custom TTL
func (cs *CacheService) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	if len(cs.cache) >= cs.maxSize {
		cs.evictOldest()
	}

	cs.cache[key] = &CacheEntry{
		Data:      value,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// evictOldest removes the oldest entry from cache (simple FIFO eviction)
func (cs *CacheService) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range cs.cache {
		if oldestKey == "" || entry.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(cs.cache, oldestKey)
	}
}

// Delete removes a value from cache
func (cs *CacheService) Delete(key string) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	delete(cs.cache, key)
}

// Clear removes all values from cache
func (cs *CacheService) Clear() {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.cache = make(map[string]*CacheEntry)
}

// Size returns the number of items in cache
func (cs *CacheService) Size() int {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	return len(cs.cache)
}

// cleanupExpired removes expired entries from cache
func (cs *CacheService) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		removed := 0
		cs.mutex.Lock()
		for key, entry := range cs.cache {
			if entry.IsExpired() {
				delete(cs.cache, key)
				removed++
			}
		}
		cs.mutex.Unlock()

		if removed > 0 {
			logrus.WithFields(logrus.Fields{
				"component": "CacheService",
				"removed":   removed,
			}).Debug("Removed expired in-memory cache entries")
		}
	}
}

// Database cache methods for filtered-plot payloads

// StorePlotPayload persists one filtered-plots payload keyed by its filter combination
func (cs *CacheService) StorePlotPayload(ctx context.Context, filterKey string, payload json.RawMessage, ttl time.Duration) error {
	if cs.DB == nil {
		return nil
	}

	query := `
		INSERT INTO plot_cache (filter_key, payload, fetched_at, expires_at)
		VALUES ($1, $2, NOW(), $3)
		ON CONFLICT (filter_key) DO UPDATE SET
			payload = EXCLUDED.payload,
			fetched_at = EXCLUDED.fetched_at,
			expires_at = EXCLUDED.expires_at
	`

	_, err := cs.DB.ExecContext(ctx, query, filterKey, []byte(payload), time.Now().Add(ttl))
	return err
}

// GetPlotPayload retrieves an unexpired persisted payload, or nil on miss
func (cs *CacheService) GetPlotPayload(ctx context.Context, filterKey string) (*models.PlotCacheRecord, error) {
	if cs.DB == nil {
		return nil, nil
	}

	query := `
		SELECT id, filter_key, payload, fetched_at, expires_at
		FROM plot_cache
		WHERE filter_key = $1 AND expires_at > NOW()
	`

	var record models.PlotCacheRecord
	var payload []byte
	err := cs.DB.QueryRowContext(ctx, query, filterKey).Scan(
		&record.ID, &record.FilterKey, &payload, &record.FetchedAt, &record.ExpiresAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	record.Payload = json.RawMessage(payload)
	return &record, nil
}

// CleanupExpiredDB removes expired persisted payloads
func (cs *CacheService) CleanupExpiredDB(ctx context.Context) error {
	if cs.DB == nil {
		return nil
	}

	result, err := cs.DB.ExecContext(ctx, `DELETE FROM plot_cache WHERE expires_at < NOW()`)
	if err != nil {
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		logrus.WithFields(logrus.Fields{
			"component": "CacheService",
			"removed":   rowsAffected,
		}).Info("Cleaned up expired persisted plot payloads")
	}

	return nil
}
