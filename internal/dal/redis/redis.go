package redis

import (
	"context"
	"fmt"
	"os"

	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Client represents a Redis client.
type Client struct {
	rdb *goredis.Client
}

// RDB returns the underlying go-redis client.
func (c *Client) RDB() *goredis.Client {
	return c.rdb
}

// Close closes the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// MustNewClient connects to Redis and pings it.
func MustNewClient() *Client {
	addr := viper.GetString("redis.addr")

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       viper.GetInt("redis.db"),
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	zap.L().Info("Redis connected", zap.String("addr", addr))

	return &Client{rdb: rdb}
}
