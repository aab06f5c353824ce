package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wuehlmarkt/kiosk/internal/domain"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

// RedisCache shares resolved products across the kiosks of one store.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, barcode string) (*domain.ScannableItem, error) {
	data, err := r.client.Get(ctx, cacheKey(barcode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var item domain.ScannableItem
	if err2 := json.Unmarshal(data, &item); err2 != nil {
		return nil, fmt.Errorf("unmarshal item failed: %w", err2)
	}
	return &item, nil
}

func (r RedisCache) Set(ctx context.Context, barcode string, item *domain.ScannableItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item failed: %w", err)
	}

	// jitter spreads expiry so a store full of kiosks does not refetch the
	// whole catalog in the same minute
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if errSet := r.client.Set(ctx, cacheKey(barcode), data, r.baseTTL+jitter).Err(); errSet != nil {
		return fmt.Errorf("redis set failed: %w", errSet)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, barcode string) error {
	if err := r.client.Del(ctx, cacheKey(barcode)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(barcode string) string {
	return fmt.Sprintf("item:%s", barcode)
}
