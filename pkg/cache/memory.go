package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Values without an explicit TTL stay around long enough to cover any
// settings profile between restarts.
const defaultMemoryTTL = 7 * 24 * time.Hour

type memoryEntry struct {
	data     []byte
	expireAt time.Time
	lastUsed time.Time
}

// MemoryCache is the in-process fallback used when Redis is disabled, and
// the L1 of the layered cache. Entries are stored as JSON so Get behaves
// identically to the Redis implementation. Oldest entries are evicted once
// maxSize is reached.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	maxSize int
	janitor *time.Ticker
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		entries: make(map[string]*memoryEntry),
		maxSize: cfg.MaxSize,
		janitor: time.NewTicker(cfg.CleanupInterval),
	}
	go mc.sweep()
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if expiration <= 0 {
		expiration = defaultMemoryTTL
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, exists := mc.entries[key]; !exists && len(mc.entries) >= mc.maxSize {
		mc.evictOldest()
	}
	now := time.Now()
	mc.entries[key] = &memoryEntry{data: data, expireAt: now.Add(expiration), lastUsed: now}
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	entry, ok := mc.entries[key]
	if !ok || time.Now().After(entry.expireAt) {
		if ok {
			delete(mc.entries, key)
		}
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	entry.lastUsed = time.Now()
	data := entry.data
	mc.mu.Unlock()

	return json.Unmarshal(data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		delete(mc.entries, key)
	}
	return nil
}

// Close stops the background sweeper.
func (mc *MemoryCache) Close() error {
	if mc.janitor != nil {
		mc.janitor.Stop()
	}
	return nil
}

func (mc *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestUse time.Time
	for key, entry := range mc.entries {
		if oldestKey == "" || entry.lastUsed.Before(oldestUse) {
			oldestKey = key
			oldestUse = entry.lastUsed
		}
	}
	if oldestKey != "" {
		delete(mc.entries, oldestKey)
	}
}

func (mc *MemoryCache) sweep() {
	for range mc.janitor.C {
		now := time.Now()
		mc.mu.Lock()
		for key, entry := range mc.entries {
			if now.After(entry.expireAt) {
				delete(mc.entries, key)
			}
		}
		mc.mu.Unlock()
	}
}
