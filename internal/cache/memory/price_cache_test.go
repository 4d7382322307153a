package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceCacheRoundTrip(t *testing.T) {
	pc := NewPriceCache(time.Minute)
	ctx := context.Background()

	_, ok, err := pc.Get(ctx, "0xAAAA")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, pc.Set(ctx, "0xAAAA", 3.5))

	price, ok, err := pc.Get(ctx, "0xAAAA")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3.5, price)
}

func TestPriceCacheKeysAreCaseInsensitive(t *testing.T) {
	pc := NewPriceCache(time.Minute)
	ctx := context.Background()

	require.NoError(t, pc.Set(ctx, "0xAbCd", 1.25))
	price, ok, err := pc.Get(ctx, "0xABCD")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1.25, price)
}

func TestPriceCacheExpiry(t *testing.T) {
	pc := NewPriceCache(time.Minute)
	now := time.Now()
	pc.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, pc.Set(ctx, "0xAAAA", 2.0))

	now = now.Add(59 * time.Second)
	_, ok, err := pc.Get(ctx, "0xAAAA")
	require.NoError(t, err)
	assert.True(t, ok, "entry should still be live before the TTL")

	now = now.Add(2 * time.Second)
	_, ok, err = pc.Get(ctx, "0xAAAA")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire after the TTL")
}

func TestPriceCacheOverwrite(t *testing.T) {
	pc := NewPriceCache(time.Minute)
	ctx := context.Background()

	require.NoError(t, pc.Set(ctx, "0xAAAA", 1.0))
	require.NoError(t, pc.Set(ctx, "0xAAAA", 9.0))

	price, ok, err := pc.Get(ctx, "0xAAAA")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 9.0, price)
}
