package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns nil when url is empty or the server is unreachable; callers
// treat a nil client as "no cache, no cooldown, no pub/sub".
func ConnectRedis(url string) *redis.Client {
	if url == "" {
		log.Println("⚠️ REDIS_URL not set, running without redis")
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("❌ invalid REDIS_URL: %v", err)
		return nil
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("❌ redis unreachable, running without it: %v", err)
		_ = client.Close()
		return nil
	}

	log.Println("✅ Connected to redis")
	return client
}
