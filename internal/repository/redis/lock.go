package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Rrens/order-intake/internal/domain"
)

const lockPrefix = "intake:lock:"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// CustomerLock serialises turns for one customer across replicas
type CustomerLock struct {
	client *Client
	ttl    time.Duration
	retry  time.Duration
}

func NewCustomerLock(client *Client, ttl time.Duration) *CustomerLock {
	return &CustomerLock{client: client, ttl: ttl, retry: 50 * time.Millisecond}
}

// Acquire blocks until the lock is held or ctx ends
func (l *CustomerLock) Acquire(ctx context.Context, customerID string) (func(), error) {
	key := lockPrefix + customerID
	token := uuid.NewString()

	for {
		ok, err := l.client.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", domain.ErrLockNotAcquired, ctx.Err())
		case <-time.After(l.retry):
		}
	}

	return func() {
		// the turn's context may already be done
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.client.rdb, []string{key}, token).Err()
	}, nil
}
