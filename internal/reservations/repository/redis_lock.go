package repository

import (
	"context"
	"fmt"
	"time"

	reservationserrors "campusbook/internal/reservations/errors"

	"github.com/go-redis/redis/v8"
)

// releaseScript deletes the key only when it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisReservationLocker struct {
	client *redis.Client
	prefix string
}

func NewRedisReservationLocker(client *redis.Client, prefix string) ReservationLocker {
	return &redisReservationLocker{
		client: client,
		prefix: prefix,
	}
}

func (l *redisReservationLocker) key(resourceID string) string {
	return l.prefix + LockKey(resourceID)
}

func (l *redisReservationLocker) TryAcquire(ctx context.Context, resourceID string, owner string, ttl time.Duration) error {
	ok, err := l.client.SetNX(ctx, l.key(resourceID), owner, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire reservation lock: %w", err)
	}
	if !ok {
		return reservationserrors.ErrLockHeld
	}
	return nil
}

func (l *redisReservationLocker) Release(ctx context.Context, resourceID string, owner string) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key(resourceID)}, owner).Int()
	if err != nil {
		return fmt.Errorf("failed to release reservation lock: %w", err)
	}
	if deleted == 0 {
		return reservationserrors.ErrLockNotOwned
	}
	return nil
}
