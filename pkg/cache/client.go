package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pulso-data/pulso-etl/pkg/utils"
)

// Pub/Sub channels for run notifications.
const (
	ChannelRunFinished = "pulso:etl:run.finished"
	ChannelMartRebuilt = "pulso:etl:mart.rebuilt"
	keyLastReport      = "pulso:etl:last_report"
	keyWatermarkStatus = "pulso:etl:watermark_status"
	defaultReportTTL   = 48 * time.Hour
)

// Client wraps Redis for run-report caching and real-time notifications.
type Client struct {
	client *redis.Client
	logger *zap.Logger
}

// NewClient creates a Redis client from environment configuration.
// Environment variables:
//   - REDIS_HOST: Redis host (default: "localhost")
//   - REDIS_PORT: Redis port (default: "6379")
//   - REDIS_PASSWORD: Redis password (default: "")
//   - REDIS_DB: Redis database number (default: "0")
func NewClient(ctx context.Context, logger *zap.Logger) (*Client, error) {
	host := utils.Env("REDIS_HOST", "localhost")
	port := utils.Env("REDIS_PORT", "6379")
	password := utils.Env("REDIS_PASSWORD", "")
	db := utils.EnvInt("REDIS_DB", 0)

	addr := fmt.Sprintf("%s:%s", host, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.Info("Connected to Redis", zap.String("addr", addr), zap.Int("db", db))
	return &Client{client: rdb, logger: logger}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Publish publishes a message to a Pub/Sub channel. Best effort: errors
// are logged, never returned, so notification failures cannot fail a run.
func (c *Client) Publish(ctx context.Context, channel string, message interface{}) {
	if err := c.client.Publish(ctx, channel, message).Err(); err != nil {
		c.logger.Warn("Failed to publish Redis message",
			zap.String("channel", channel),
			zap.Error(err))
	}
}

// Subscribe subscribes to one or more Pub/Sub channels. The caller is
// responsible for closing the returned PubSub.
func (c *Client) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return c.client.Subscribe(ctx, channels...)
}

// Health checks if Redis is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// StoreReport caches a run report as JSON and announces the run. Best
// effort like Publish.
func (c *Client) StoreReport(ctx context.Context, report interface{}) {
	raw, err := json.Marshal(report)
	if err != nil {
		c.logger.Warn("Failed to marshal run report", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, keyLastReport, raw, defaultReportTTL).Err(); err != nil {
		c.logger.Warn("Failed to cache run report", zap.Error(err))
		return
	}
	c.Publish(ctx, ChannelRunFinished, raw)
}

// LastReport returns the cached run report JSON, or nil when absent.
func (c *Client) LastReport(ctx context.Context) ([]byte, error) {
	raw, err := c.client.Get(ctx, keyLastReport).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached report: %w", err)
	}
	return raw, nil
}

// StoreWatermarkStatus caches the latest watermark summary.
func (c *Client) StoreWatermarkStatus(ctx context.Context, status interface{}) {
	raw, err := json.Marshal(status)
	if err != nil {
		c.logger.Warn("Failed to marshal watermark status", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, keyWatermarkStatus, raw, defaultReportTTL).Err(); err != nil {
		c.logger.Warn("Failed to cache watermark status", zap.Error(err))
	}
}
