package tracker

import (
	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	// MaxIdempotencyKeyLen bounds the client supplied key, so an entry always fits the cache.
	MaxIdempotencyKeyLen = 128

	minReplayCacheSize = 512 * 1024
)

// ReplayCache remembers which session an ingestion request produced, keyed by
// the client's idempotency key. A retried upload then gets the stored session
// back instead of a second one.
type ReplayCache struct {
	cache         *freecache.Cache
	expireSeconds int
}

// NewReplayCache creates a cache of sizeBytes (at least 512 KiB).
// expireSeconds <= 0 keeps keys until evicted.
func NewReplayCache(sizeBytes, expireSeconds int) *ReplayCache {
	return &ReplayCache{
		cache:         freecache.NewCache(max(sizeBytes, minReplayCacheSize)),
		expireSeconds: max(expireSeconds, 0),
	}
}

func (c *ReplayCache) sessionID(key string) (string, bool) {
	value, err := c.cache.Get([]byte(key))
	if err != nil {
		return "", false
	}
	return string(value), true
}

func (c *ReplayCache) remember(key, sessionID string) {
	if err := c.cache.Set([]byte(key), []byte(sessionID), c.expireSeconds); err != nil {
		log.Debugf("replay cache set [%s]: %s", key, err)
	}
}

// Len is the number of remembered keys.
func (c *ReplayCache) Len() int64 {
	return c.cache.EntryCount()
}
