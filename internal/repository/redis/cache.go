package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/order-intake/internal/domain"
	"github.com/Rrens/order-intake/internal/security"
)

const (
	orderListPrefix = "intake:orders:"
	orderListTTL    = time.Minute
)

// OrderListCache fronts an OrderService and keeps recent order lists per phone.
// Creating an order invalidates the customer's cached list.
type OrderListCache struct {
	domain.OrderService
	client *Client
}

// NewOrderListCache wraps next
func NewOrderListCache(client *Client, next domain.OrderService) *OrderListCache {
	return &OrderListCache{OrderService: next, client: client}
}

func (c *OrderListCache) ListOrders(ctx context.Context, phone string, limit int) ([]domain.OrderSummary, error) {
	key := c.key(phone, limit)

	if data, err := c.client.rdb.Get(ctx, key).Bytes(); err == nil {
		var orders []domain.OrderSummary
		if err := json.Unmarshal(data, &orders); err == nil {
			return orders, nil
		}
	}

	orders, err := c.OrderService.ListOrders(ctx, phone, limit)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(orders)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal orders: %w", err)
	}
	if err := c.client.rdb.Set(ctx, key, data, orderListTTL).Err(); err != nil {
		log.Warn().Err(err).Str("phone", security.MaskPhone(phone)).Msg("Failed to cache order list")
	}
	return orders, nil
}

func (c *OrderListCache) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	result, err := c.OrderService.CreateOrder(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := c.Invalidate(ctx, req.CustomerPhone); err != nil {
		log.Warn().Err(err).Str("phone", security.MaskPhone(req.CustomerPhone)).Msg("Failed to invalidate order list")
	}
	return result, nil
}

// Invalidate removes every cached list for phone
func (c *OrderListCache) Invalidate(ctx context.Context, phone string) error {
	pattern := orderListPrefix + phoneDigest(phone) + ":*"
	var cursor uint64

	for {
		keys, nextCursor, err := c.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete keys: %w", err)
			}
		}
		cursor = nextCursor
		if cursor == 0 {
			return nil
		}
	}
}

func (c *OrderListCache) key(phone string, limit int) string {
	return fmt.Sprintf("%s%s:%d", orderListPrefix, phoneDigest(phone), limit)
}

// phoneDigest keeps raw phone numbers out of key names
func phoneDigest(phone string) string {
	sum := sha256.Sum256([]byte(phone))
	return hex.EncodeToString(sum[:8])
}
