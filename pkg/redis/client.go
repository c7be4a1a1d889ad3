package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/loanqa/pkg/config"
	"github.com/wonny/loanqa/pkg/logger"
)

const connectTimeout = 3 * time.Second

// Client holds the snapshot cache connection. A disabled client turns
// every cache call into a no-op so the API and scheduler run without Redis.
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb  *redis.Client
	addr string
}

// New connects to the Redis named in cfg.Redis. REDIS_ENABLED=false yields a
// disabled client and no error.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{}, nil
	}

	addr := fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port)
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: connectTimeout,
	})

	c := &Client{rdb: rdb, addr: addr}
	if err := c.HealthCheck(ctx); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"addr": addr,
		"db":   cfg.Redis.DB,
	}).Info("Connected to redis")

	return c, nil
}

// HealthCheck pings the server within connectTimeout. Always nil when disabled.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping %s: %w", c.addr, err)
	}
	return nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Enabled returns whether Redis is enabled
func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}
