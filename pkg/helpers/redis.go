package helpers

import "github.com/redis/go-redis/v9"

// NewRedisClient initializes a redis client. Used only by the rate-limit
// middleware; auth state itself is stateless.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
