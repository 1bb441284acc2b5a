package config

import (
	"PhotoReveal/services/redis"
	"log"
	"os"
)

// ConnectRedis connects to the Redis instance named by REDIS_URL.
func ConnectRedis() (*redis.RedisClient, error) {
	redisUri := os.Getenv("REDIS_URL")
	if redisUri == "" {
		redisUri = "localhost:6379"
	}
	redisClient, err := redis.InitRedis(redisUri, 0)
	if err != nil {
		return nil, err
	}
	log.Println("Redis connection established")
	return redisClient, nil
}
