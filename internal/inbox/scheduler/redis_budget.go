package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "allie:inbox:retry:"

// attemptsTTL bounds how long a failure history is remembered.
const attemptsTTL = 24 * time.Hour

// RedisBudget keeps retry history in Redis so it survives restarts and is
// shared by every worker of a family.
type RedisBudget struct {
	client *redis.Client
	policy Backoff
}

// NewRedisBudget creates a Redis-backed budget.
func NewRedisBudget(client *redis.Client, policy Backoff) *RedisBudget {
	return &RedisBudget{client: client, policy: policy}
}

func (b *RedisBudget) attemptsKey(key domain.ItemKey) string {
	return redisKeyPrefix + string(key.Collection) + ":" + key.ID + ":attempts"
}

func (b *RedisBudget) cooldownKey(key domain.ItemKey) string {
	return redisKeyPrefix + string(key.Collection) + ":" + key.ID + ":cooldown"
}

func (b *RedisBudget) Allow(ctx context.Context, key domain.ItemKey) (bool, error) {
	failures, err := b.client.Get(ctx, b.attemptsKey(key)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("read attempts: %w", err)
	}
	if failures >= b.policy.MaxAttempts {
		return false, nil
	}
	cooling, err := b.client.Exists(ctx, b.cooldownKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("read cooldown: %w", err)
	}
	return cooling == 0, nil
}

func (b *RedisBudget) RecordFailure(ctx context.Context, key domain.ItemKey) (time.Duration, bool, error) {
	attempts := b.attemptsKey(key)
	failures, err := b.client.Incr(ctx, attempts).Result()
	if err != nil {
		return 0, false, fmt.Errorf("count failure: %w", err)
	}
	if err := b.client.Expire(ctx, attempts, attemptsTTL).Err(); err != nil {
		return 0, false, fmt.Errorf("expire attempts: %w", err)
	}
	delay := b.policy.Delay(int(failures))
	if delay > 0 {
		if err := b.client.Set(ctx, b.cooldownKey(key), failures, delay).Err(); err != nil {
			return 0, false, fmt.Errorf("set cooldown: %w", err)
		}
	}
	return delay, int(failures) >= b.policy.MaxAttempts, nil
}

func (b *RedisBudget) Reset(ctx context.Context, key domain.ItemKey) error {
	if err := b.client.Del(ctx, b.attemptsKey(key), b.cooldownKey(key)).Err(); err != nil {
		return fmt.Errorf("reset retry budget: %w", err)
	}
	return nil
}
