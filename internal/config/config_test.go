package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.BatchSize)
	assert.Equal(t, "placement-analyzer:api-keys", cfg.CredentialsKey)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 120*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, 3, cfg.Gemini.MaxAttempts)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.False(t, cfg.CandidatesEnabled())
}

func TestNew_FromEnvironment(t *testing.T) {
	t.Setenv("PLACEMENT_BATCH_SIZE", "20")
	t.Setenv("PLACEMENT_REDIS_ADDR", "redis:6380")
	t.Setenv("PLACEMENT_REDIS_DB", "2")
	t.Setenv("PLACEMENT_GEMINI_MODEL", "gemini-2.5-pro")
	t.Setenv("PLACEMENT_GEMINI_TIMEOUT", "30s")
	t.Setenv("PLACEMENT_CACHE_ENABLED", "false")
	t.Setenv("PLACEMENT_CANDIDATES_BASE_URL", "https://candidates.example.com")
	t.Setenv("PLACEMENT_LOG_LEVEL", "debug")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Batch().BatchSize)
	opts := cfg.RedisOptions()
	assert.Equal(t, "redis:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.True(t, cfg.CandidatesEnabled())
	assert.Equal(t, "https://candidates.example.com", cfg.CandidatesClient().BaseURL)
	assert.Equal(t, "debug", string(cfg.Logging().Level))

	inf := cfg.Inference(nil, nil)
	assert.Equal(t, "gemini-2.5-pro", inf.Model)
	assert.Equal(t, 30*time.Second, inf.Timeout)
	assert.Nil(t, inf.Cache)
}

func TestNew_Invalid(t *testing.T) {
	t.Setenv("PLACEMENT_BATCH_SIZE", "not-a-number")
	_, err := New()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"batch size", func(c *Config) { c.BatchSize = 0 }, "batch size"},
		{"attempts", func(c *Config) { c.Gemini.MaxAttempts = 0 }, "max attempts"},
		{"model", func(c *Config) { c.Gemini.Model = "" }, "model is required"},
		{"cache ttl", func(c *Config) { c.Cache.TTL = 0 }, "cache ttl"},
		{"cache ttl ignored when disabled", func(c *Config) { c.Cache.Enabled = false; c.Cache.TTL = 0 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := New()
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
