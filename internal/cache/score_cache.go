// Package cache keeps the freshest driver score in redis so monitoring
// clients can read it without hitting Postgres. The cache is advisory: the
// scoring path never depends on it, and a nil *ScoreCache is a no-op.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const scoreTTL = 5 * time.Minute

type ScoreCache struct {
	rdb *redis.Client
}

// New returns a score cache backed by the redis at addr, or nil when addr
// is empty (caching disabled).
func New(addr string) *ScoreCache {
	if addr == "" {
		return nil
	}
	return &ScoreCache{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func scoreKey(userID uint) string {
	return fmt.Sprintf("driver:%d:score", userID)
}

// SetScore stores the latest score. Failures are logged, never surfaced.
func (c *ScoreCache) SetScore(ctx context.Context, userID uint, score int) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, scoreKey(userID), score, scoreTTL).Err(); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("score cache set failed")
	}
}

// GetScore returns the cached score and whether it was present.
func (c *ScoreCache) GetScore(ctx context.Context, userID uint) (int, bool) {
	if c == nil {
		return 0, false
	}
	raw, err := c.rdb.Get(ctx, scoreKey(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			logrus.WithError(err).WithField("user_id", userID).Warn("score cache get failed")
		}
		return 0, false
	}
	score, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return score, true
}
