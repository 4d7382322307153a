package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/yieldscan/internal/domain"
)

// PriceCache implements domain.PriceCache using Redis string keys with a
// server-side TTL. Keys are "price:{tokenAddress}" (lowercased); entries are
// replaced wholesale on refresh, so concurrent writers racing on the same
// token settle on the last write.
type PriceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPriceCache creates a PriceCache backed by the given Client with the
// given entry TTL.
func NewPriceCache(c *Client, ttl time.Duration) *PriceCache {
	return &PriceCache{rdb: c.Underlying(), ttl: ttl}
}

func priceKey(tokenAddress string) string {
	return "price:" + strings.ToLower(tokenAddress)
}

// Set stores a resolved price; Redis expires the key after the TTL.
func (pc *PriceCache) Set(ctx context.Context, tokenAddress string, price float64) error {
	val := strconv.FormatFloat(price, 'f', -1, 64)
	if err := pc.rdb.Set(ctx, priceKey(tokenAddress), val, pc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set price %s: %w", tokenAddress, err)
	}
	return nil
}

// Get retrieves a live cached price. A missing or expired key is reported
// as ok=false, not as an error.
func (pc *PriceCache) Get(ctx context.Context, tokenAddress string) (float64, bool, error) {
	val, err := pc.rdb.Get(ctx, priceKey(tokenAddress)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis: get price %s: %w", tokenAddress, err)
	}
	price, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("redis: parse price %s: %w", tokenAddress, err)
	}
	return price, true, nil
}

// Compile-time interface check.
var _ domain.PriceCache = (*PriceCache)(nil)
