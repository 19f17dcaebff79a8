package inmemory

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type item struct {
	value     interface{}
	expiresAt time.Time
}

type Cache struct {
	mu     sync.Mutex
	items  map[string]item
	logger *zap.Logger
}

func NewCache(logger *zap.Logger) *Cache {
	return &Cache{
		items:  make(map[string]item),
		logger: logger,
	}
}

func (c *Cache) Set(key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item{value: value}
	c.logger.Debug("value added to cache", zap.String("key", key))
	return nil
}

// SetWithTTL stores a value that expires ttl seconds from now.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item{
		value:     value,
		expiresAt: time.Now().Add(time.Duration(ttl) * time.Second),
	}
	c.logger.Debug("value added to cache", zap.String("key", key), zap.Int64("ttl", ttl))
	return nil
}

func (c *Cache) Get(key string) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.items[key]
	if !ok {
		c.logger.Debug("value not found in cache", zap.String("key", key))
		return nil, nil
	}
	if !v.expiresAt.IsZero() && time.Now().After(v.expiresAt) {
		// Expired entries are dropped here so the map does not grow with
		// keys that are never refetched.
		delete(c.items, key)
		c.logger.Debug("value expired in cache", zap.String("key", key))
		return nil, nil
	}

	c.logger.Debug("value retrieved from cache", zap.String("key", key))
	return v.value, nil
}
