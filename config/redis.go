package config

import (
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// ConnectRedis establishes a connection to Redis, used to fan out realtime
// message events across API instances.
func ConnectRedis(cfg *Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	redisClient = redis.NewClient(opts)
	log.Println("Redis client configured for", opts.Addr)
	return redisClient, nil
}

// GetRedis returns the Redis client instance
func GetRedis() *redis.Client {
	return redisClient
}

// SetRedis sets the Redis client instance (primarily for testing)
func SetRedis(client *redis.Client) {
	redisClient = client
}
