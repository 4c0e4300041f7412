package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client caches SQL result sets and the per-session cached date context
// handed to the classification service.
type Client struct {
	client *redis.Client
	logger *zap.Logger
}

func NewClient(host string, port int, password string, db int, logger *zap.Logger) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, logger: logger}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetQueryResult(ctx context.Context, queryHash string, rows interface{}, ttl time.Duration) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal result set: %w", err)
	}

	if err := c.client.Set(ctx, "query:"+queryHash, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set query cache: %w", err)
	}

	c.logger.Debug("query result cached", zap.String("query_hash", queryHash), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetQueryResult(ctx context.Context, queryHash string, rows interface{}) (bool, error) {
	data, err := c.client.Get(ctx, "query:"+queryHash).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get query cache: %w", err)
	}

	if err := json.Unmarshal(data, rows); err != nil {
		return false, fmt.Errorf("failed to unmarshal result set: %w", err)
	}

	c.logger.Debug("query cache hit", zap.String("query_hash", queryHash))
	return true, nil
}

func (c *Client) SetDateContext(ctx context.Context, sessionID string, dateContext string, ttl time.Duration) error {
	if err := c.client.Set(ctx, "datectx:"+sessionID, dateContext, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set date context: %w", err)
	}
	return nil
}

func (c *Client) GetDateContext(ctx context.Context, sessionID string) (string, error) {
	val, err := c.client.Get(ctx, "datectx:"+sessionID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get date context: %w", err)
	}
	return val, nil
}

// InvalidateQueryCache drops every cached result set, used after menu or
// order mutations.
func (c *Client) InvalidateQueryCache(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "query:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.Warn("failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	c.logger.Info("query cache invalidated")
	return nil
}
