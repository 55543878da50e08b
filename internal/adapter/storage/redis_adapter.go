package storage

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"storefront/internal/port"
)

const stockKeyPrefix = "stock:"

// decrementStockScript conditionally decrements cached stock. Returns 1 on
// success, 0 when insufficient, -1 when the key is not cached.
var decrementStockScript = redis.NewScript(`
local key = KEYS[1]
local quantity = tonumber(ARGV[1])

local current = redis.call('GET', key)
if not current then
	return -1
end

current = tonumber(current)
if current >= quantity then
	redis.call('DECRBY', key, quantity)
	return 1
end

return 0
`)

// RedisAdapter caches per-product stock as an optimistic gate in front of
// the database transaction.
type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func stockKey(productID int64) string {
	return stockKeyPrefix + strconv.FormatInt(productID, 10)
}

func (r *RedisAdapter) DecrementStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	result, err := decrementStockScript.Run(ctx, r.client, []string{stockKey(productID)}, quantity).Int()
	if err != nil {
		return false, err
	}
	if result == -1 {
		return false, port.ErrStockNotCached
	}
	return result == 1, nil
}

func (r *RedisAdapter) RestoreStock(ctx context.Context, productID int64, quantity int) error {
	return r.client.IncrBy(ctx, stockKey(productID), int64(quantity)).Err()
}

func (r *RedisAdapter) SetStock(ctx context.Context, productID int64, quantity int) error {
	return r.client.Set(ctx, stockKey(productID), quantity, 0).Err()
}
