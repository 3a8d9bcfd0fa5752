package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/internal/config"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/cache"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/credentials"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/inference"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/logging"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/ratelimit"
)

type commandContext struct {
	logLevel  *string
	redisAddr *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
	logger     zerolog.Logger

	redisOnce sync.Once
	redis     *redis.Client
	redisErr  error
}

func newCommandContext(logLevel, redisAddr *string) *commandContext {
	return &commandContext{logLevel: logLevel, redisAddr: redisAddr}
}

func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.New()
		if err != nil {
			c.configErr = fmt.Errorf("load configuration: %w", err)
			return
		}
		if c.logLevel != nil && strings.TrimSpace(*c.logLevel) != "" {
			cfg.Log.Level = strings.TrimSpace(*c.logLevel)
		}
		if c.redisAddr != nil && strings.TrimSpace(*c.redisAddr) != "" {
			cfg.Redis.Addr = strings.TrimSpace(*c.redisAddr)
		}

		logCfg := cfg.Logging()
		logCfg.Output = cmd.ErrOrStderr()
		c.logger = logging.Setup(logCfg)
		c.config = cfg
	})
	return c.config, c.configErr
}

// redisClient connects to Redis once and pings it.
func (c *commandContext) redisClient(ctx context.Context) (*redis.Client, error) {
	c.redisOnce.Do(func() {
		client := redis.NewClient(c.config.RedisOptions())
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			c.redisErr = fmt.Errorf("connect to redis at %s: %w", c.config.Redis.Addr, err)
			return
		}
		c.redis = client
	})
	return c.redis, c.redisErr
}

func (c *commandContext) credentialStore(ctx context.Context) (credentials.Store, error) {
	client, err := c.redisClient(ctx)
	if err != nil {
		return nil, err
	}
	return credentials.NewRedisStore(client, c.config.CredentialsKey), nil
}

func (c *commandContext) rateLimiter(ctx context.Context) *ratelimit.Tracker {
	client, err := c.redisClient(ctx)
	if err != nil {
		return ratelimit.NewTracker(nil, c.logger)
	}
	return ratelimit.NewTracker(client, c.logger)
}

// inferenceClient builds the model client. Without Redis it runs without
// the response cache and cooldown tracking.
func (c *commandContext) inferenceClient(ctx context.Context) (*inference.Client, error) {
	var manager *cache.Manager
	var limiter *ratelimit.Tracker

	client, err := c.redisClient(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Redis unavailable, running without cache and cooldown tracking")
	} else {
		manager = cache.NewManager(client)
		limiter = ratelimit.NewTracker(client, c.logger)
	}
	return inference.New(c.config.Inference(manager, limiter))
}

func (c *commandContext) close() {
	if c.redis != nil {
		_ = c.redis.Close()
	}
}
