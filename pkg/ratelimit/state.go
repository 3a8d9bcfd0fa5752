// Package ratelimit tracks per-credential rate-limit cooldowns.
// When the model answers 429 for a credential, the Retry-After window is
// stored in Redis under the credential's fingerprint so later runs skip a
// key that is still cooling down instead of spending a request on it.
package ratelimit

import (
	"time"
)

// RedisKeyPrefix namespaces cooldown state in Redis.
const RedisKeyPrefix = "placement:ratelimit"

// DefaultCooldown applies when a 429 carries no usable Retry-After header.
const DefaultCooldown = 60 * time.Second

// MaxCooldown caps the stored cooldown regardless of Retry-After.
const MaxCooldown = 24 * time.Hour

// StateKey returns the Redis hash key for a credential fingerprint.
func StateKey(fingerprint string) string {
	return RedisKeyPrefix + ":" + fingerprint
}

// CooldownState is the rate-limit state of one credential.
type CooldownState struct {
	// Fingerprint identifies the credential without revealing it.
	Fingerprint string `json:"fingerprint"`

	// Until is when the credential may be used again.
	Until time.Time `json:"until"`

	// Hits counts rate-limit responses seen inside the current window.
	Hits int `json:"hits"`

	// LastUpdate is when the state was last written.
	LastUpdate time.Time `json:"last_update"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *CooldownState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// Active reports whether the credential is still cooling down.
func (s *CooldownState) Active() bool {
	return time.Now().Before(s.Until)
}

// Remaining returns the duration until the cooldown ends.
// Returns 0 if the cooldown has already passed.
func (s *CooldownState) Remaining() time.Duration {
	d := time.Until(s.Until)
	if d < 0 {
		return 0
	}
	return d
}
