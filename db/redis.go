package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"labVerifyServer/config"

	"github.com/redis/go-redis/v9"
)

var (
	// RedisClient is the global Redis client instance
	RedisClient *redis.Client
)

// InitRedis initializes the Redis client connection
func InitRedis() error {
	log.Println("🔌 Connecting to Redis...")

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "localhost:6379"
	}

	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			redisDB = db
		}
	}

	RedisClient = redis.NewClient(&redis.Options{
		Addr:         redisURL,
		Password:     redisPassword,
		DB:           redisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := RedisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("✅ Redis connected successfully - URL: %s", redisURL)
	return nil
}

// CloseRedis closes the Redis connection
func CloseRedis() error {
	if RedisClient != nil {
		log.Println("🔌 Closing Redis connection...")
		return RedisClient.Close()
	}
	return nil
}

/* =========================
   ANOMALY WINDOWS
   Redis Key: scores:recent:{playerId} -> List of recent scores
   Redis Key: submissions:rate:{playerId} -> Counter with window TTL
========================= */

// WindowStore implements verify.WindowStore on the global Redis client.
// Every method degrades gracefully when Redis is unavailable: anomaly
// review is best-effort and must never fail a submission.
type WindowStore struct{}

// RecentScores returns the player's recent accepted scores, newest first
func (WindowStore) RecentScores(ctx context.Context, playerID string) ([]int64, error) {
	if RedisClient == nil {
		return nil, nil
	}

	key := fmt.Sprintf(config.RedisRecentScoresKey, playerID)

	values, err := RedisClient.LRange(ctx, key, 0, config.RecentScoresMax-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get recent scores: %w", err)
	}

	scores := make([]int64, 0, len(values))
	for _, v := range values {
		score, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Printf("⚠️  Skipping malformed score entry for %s: %q", playerID, v)
			continue
		}
		scores = append(scores, score)
	}

	return scores, nil
}

// PushScore records a new accepted score in the player's rolling window
func (WindowStore) PushScore(ctx context.Context, playerID string, score int64) error {
	if RedisClient == nil {
		return nil
	}

	key := fmt.Sprintf(config.RedisRecentScoresKey, playerID)

	pipe := RedisClient.Pipeline()
	pipe.LPush(ctx, key, strconv.FormatInt(score, 10))
	pipe.LTrim(ctx, key, 0, config.RecentScoresMax-1)
	pipe.Expire(ctx, key, config.RecentScoresTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push score: %w", err)
	}

	return nil
}

// IncrSubmissionRate bumps the player's submission counter for the
// current rate window and returns the new count
func (WindowStore) IncrSubmissionRate(ctx context.Context, playerID string) (int64, error) {
	if RedisClient == nil {
		return 0, nil
	}

	key := fmt.Sprintf(config.RedisSubmissionRateKey, playerID)

	count, err := RedisClient.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment submission rate: %w", err)
	}

	// First submission in the window starts the clock
	if count == 1 {
		RedisClient.Expire(ctx, key, config.SubmissionRateTTL)
	}

	return count, nil
}

/* =========================
   HEALTH CHECK
========================= */

// HealthCheck performs a Redis health check
func HealthCheck(ctx context.Context) error {
	if RedisClient == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return RedisClient.Ping(ctx).Err()
}
