package cache

import (
	"strings"
	"testing"
)

func TestNewKey_Deterministic(t *testing.T) {
	a := NewKey("gemini-1.5-flash", ModePlacement, "prompt body")
	b := NewKey("gemini-1.5-flash", ModePlacement, "prompt body")
	if a.String() != b.String() {
		t.Errorf("same input produced different keys: %q vs %q", a, b)
	}
	if len(a.Digest) != 64 {
		t.Errorf("digest length = %d, want 64", len(a.Digest))
	}
}

func TestNewKey_Distinguishes(t *testing.T) {
	base := NewKey("gemini-1.5-flash", ModePlacement, "prompt body")

	tests := []struct {
		name string
		key  CacheKey
	}{
		{"different payload", NewKey("gemini-1.5-flash", ModePlacement, "prompt body!")},
		{"different model", NewKey("gemini-1.5-pro", ModePlacement, "prompt body")},
		{"different mode", NewKey("gemini-1.5-flash", ModeReport, "prompt body")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.key.String() == base.String() {
				t.Errorf("keys collide: %q", base)
			}
		})
	}
}

func TestCacheKey_String(t *testing.T) {
	key := CacheKey{Model: "m", Mode: ModeReport, Digest: "abc"}
	if got, want := key.String(), "placement:cache:report:m:abc"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	bare := CacheKey{Digest: "abc"}
	if got := bare.String(); !strings.HasPrefix(got, keyPrefix) || !strings.HasSuffix(got, ":abc") {
		t.Errorf("String() = %q", got)
	}
}
