// Package config loads the analyzer configuration from PLACEMENT_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/batch"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/cache"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/candidates"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/inference"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/logging"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/ratelimit"
)

type Config struct {
	Redis      RedisConfig
	Log        LogConfig
	Gemini     GeminiConfig
	Cache      CacheConfig
	Candidates CandidatesConfig
	Server     ServerConfig

	BatchSize      int    `envconfig:"PLACEMENT_BATCH_SIZE" default:"15"`
	CredentialsKey string `envconfig:"PLACEMENT_CREDENTIALS_KEY" default:"placement-analyzer:api-keys"`
}

type RedisConfig struct {
	Addr     string `envconfig:"PLACEMENT_REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"PLACEMENT_REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"PLACEMENT_REDIS_DB" default:"0"`
}

type LogConfig struct {
	Level  string `envconfig:"PLACEMENT_LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"PLACEMENT_LOG_PRETTY" default:"false"`
}

type GeminiConfig struct {
	BaseURL        string        `envconfig:"PLACEMENT_GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`
	Model          string        `envconfig:"PLACEMENT_GEMINI_MODEL" default:"gemini-2.5-flash"`
	Timeout        time.Duration `envconfig:"PLACEMENT_GEMINI_TIMEOUT" default:"120s"`
	MaxAttempts    int           `envconfig:"PLACEMENT_GEMINI_MAX_ATTEMPTS" default:"3"`
	InitialBackoff time.Duration `envconfig:"PLACEMENT_GEMINI_INITIAL_BACKOFF" default:"1s"`
}

type CacheConfig struct {
	Enabled bool          `envconfig:"PLACEMENT_CACHE_ENABLED" default:"true"`
	TTL     time.Duration `envconfig:"PLACEMENT_CACHE_TTL" default:"24h"`
}

type CandidatesConfig struct {
	BaseURL string        `envconfig:"PLACEMENT_CANDIDATES_BASE_URL" default:""`
	Token   string        `envconfig:"PLACEMENT_CANDIDATES_TOKEN" default:""`
	Timeout time.Duration `envconfig:"PLACEMENT_CANDIDATES_TIMEOUT" default:"30s"`
}

type ServerConfig struct {
	Address string `envconfig:"PLACEMENT_ADDRESS" default:":8080"`
}

// New reads the configuration from the environment and validates it.
func New() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the environment cannot express as types.
func (c *Config) Validate() error {
	var errs []error
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch size must be at least 1, got %d", c.BatchSize))
	}
	if c.Gemini.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("gemini max attempts must be at least 1, got %d", c.Gemini.MaxAttempts))
	}
	if c.Gemini.Model == "" {
		errs = append(errs, errors.New("gemini model is required"))
	}
	if c.Gemini.BaseURL == "" {
		errs = append(errs, errors.New("gemini base url is required"))
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache ttl must be positive, got %s", c.Cache.TTL))
	}
	return errors.Join(errs...)
}

func (c *Config) RedisOptions() *redis.Options {
	return &redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	}
}

func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Log.Level)
	cfg.Pretty = c.Log.Pretty
	return cfg
}

func (c *Config) Batch() batch.Config {
	return batch.Config{BatchSize: c.BatchSize}
}

// Inference builds the model client configuration. cacheManager and limiter
// may be nil.
func (c *Config) Inference(cacheManager *cache.Manager, limiter *ratelimit.Tracker) inference.Config {
	cfg := inference.DefaultConfig()
	cfg.BaseURL = c.Gemini.BaseURL
	cfg.Model = c.Gemini.Model
	cfg.Timeout = c.Gemini.Timeout
	cfg.Retry.MaxAttempts = c.Gemini.MaxAttempts
	cfg.Retry.InitialBackoff = c.Gemini.InitialBackoff
	cfg.CacheTTL = c.Cache.TTL
	if c.Cache.Enabled {
		cfg.Cache = cacheManager
	}
	cfg.RateLimiter = limiter
	return cfg
}

// CandidatesEnabled reports whether the candidate service is configured.
func (c *Config) CandidatesEnabled() bool {
	return c.Candidates.BaseURL != ""
}

func (c *Config) CandidatesClient() candidates.Config {
	return candidates.Config{
		BaseURL: c.Candidates.BaseURL,
		Token:   c.Candidates.Token,
		Timeout: c.Candidates.Timeout,
	}
}
