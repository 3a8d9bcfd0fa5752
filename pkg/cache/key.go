package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Mode identifies which kind of request produced a response.
type Mode string

const (
	// ModePlacement is a batch placement inference.
	ModePlacement Mode = "placement"

	// ModeReport is a narrative report generation.
	ModeReport Mode = "report"
)

// keyPrefix namespaces every cache key.
const keyPrefix = "placement:cache"

// CacheKey identifies a cached response.
type CacheKey struct {
	Model  string
	Mode   Mode
	Digest string
}

// NewKey builds a key from the model, mode and prompt payload.
func NewKey(model string, mode Mode, payload string) CacheKey {
	sum := sha256.Sum256([]byte(payload))
	return CacheKey{
		Model:  model,
		Mode:   mode,
		Digest: hex.EncodeToString(sum[:]),
	}
}

// String generates the Redis key.
// Format: placement:cache:mode:model:digest
//
// Example:
//
//	placement:cache:placement:gemini-1.5-flash:9f86d0...
func (k CacheKey) String() string {
	parts := []string{keyPrefix}
	if k.Mode != "" {
		parts = append(parts, string(k.Mode))
	}
	if model := strings.TrimSpace(k.Model); model != "" {
		parts = append(parts, model)
	}
	parts = append(parts, k.Digest)
	return strings.Join(parts, ":")
}
