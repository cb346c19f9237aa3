package config

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Published once the connection succeeds; requests may already be reading them.
var (
	rdb    atomic.Pointer[redis.Client]
	locker atomic.Pointer[redislock.Client]
)

func GetRedisDB() *redis.Client {
	return rdb.Load()
}

// GetRedisLock returns nil when REDIS_ADDRESS is not configured or redis never answered.
func GetRedisLock() *redislock.Client {
	return locker.Load()
}

// ConnectRedisWithRetry connects and sets the global Redis client + lock client.
// Redis is optional here: with no REDIS_ADDRESS it returns immediately.
// Call this from main() AFTER the HTTP server is listening.
func ConnectRedisWithRetry(ctx context.Context, maxAttempts int) {
	logger := GetLogger()
	redisAddr := EnvString("REDIS_ADDRESS", "")
	if redisAddr == "" {
		logger.Info("REDIS_ADDRESS not set; reconcile runs are not locked across replicas")
		return
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client := redis.NewClient(&redis.Options{
			Addr: redisAddr,
			DB:   0, // use default DB
		})
		if err := client.Ping(ctx).Err(); err == nil {
			locker.Store(redislock.New(client))
			rdb.Store(client)
			logger.Infof("connected to redis (attempt=%d addr=%s)", attempt, redisAddr)
			return
		} else {
			_ = client.Close()
			sleep := time.Second * time.Duration(1<<min(attempt, 5))
			if sleep > 30*time.Second {
				sleep = 30 * time.Second
			}
			logger.Warnf("failed to connect redis (attempt=%d addr=%s): %v; retrying in %s", attempt, redisAddr, err, sleep)
			select {
			case <-ctx.Done():
				return
			case <-time.After(sleep):
			}
		}
	}
}

// CloseRedis closes the shared client and unpublishes it.
func CloseRedis() {
	locker.Store(nil)
	if client := rdb.Swap(nil); client != nil {
		_ = client.Close()
	}
}
