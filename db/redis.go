package db

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"charterbus/config"
)

var RedisClient *redis.Client

// InitRedis connects the shared client used by the session, quote and
// payment stores. Redis is required: every browser session record lives
// here, so a missing connection is fatal at boot.
func InitRedis() {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     config.Envs.RedisAddr,
		Password: config.Envs.RedisPassword,
		DB:       0,
	})

	if _, err := RedisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
}

func Close() {
	if RedisClient != nil {
		RedisClient.Close()
	}
}
