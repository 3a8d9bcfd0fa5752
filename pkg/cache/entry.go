package cache

import (
	"time"
)

// CacheEntry is a cached model response.
type CacheEntry struct {
	// Text is the raw response text returned by the model.
	Text string `json:"text"`

	// Expires is when the entry becomes stale.
	Expires time.Time `json:"expires"`

	// CachedAt is when the entry was stored.
	CachedAt time.Time `json:"cached_at"`
}

// NewEntry creates an entry for text that lives for ttl.
func NewEntry(text string, ttl time.Duration) *CacheEntry {
	now := time.Now()
	return &CacheEntry{
		Text:     text,
		Expires:  now.Add(ttl),
		CachedAt: now,
	}
}

// IsExpired returns true if the cache entry has expired.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
