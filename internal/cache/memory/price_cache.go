// Package memory implements the price cache as an in-process TTL map, the
// default for single-instance deployments.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/yieldscan/internal/domain"
)

// PriceCache is a mutex-guarded map of token address to price with a fixed
// TTL. Entries are replaced wholesale, never mutated in place, so readers
// can never observe a torn entry.
type PriceCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry
}

type entry struct {
	price  float64
	expiry time.Time
}

// NewPriceCache creates a PriceCache with the given entry TTL.
func NewPriceCache(ttl time.Duration) *PriceCache {
	return &PriceCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Get returns a live cached price. Expired entries are treated as absent
// and lazily deleted.
func (pc *PriceCache) Get(_ context.Context, tokenAddress string) (float64, bool, error) {
	key := strings.ToLower(tokenAddress)

	pc.mu.RLock()
	e, ok := pc.entries[key]
	pc.mu.RUnlock()

	if !ok {
		return 0, false, nil
	}
	if pc.now().After(e.expiry) {
		pc.mu.Lock()
		if cur, ok := pc.entries[key]; ok && cur.expiry.Equal(e.expiry) {
			delete(pc.entries, key)
		}
		pc.mu.Unlock()
		return 0, false, nil
	}
	return e.price, true, nil
}

// Set stores a price, replacing any previous entry.
func (pc *PriceCache) Set(_ context.Context, tokenAddress string, price float64) error {
	key := strings.ToLower(tokenAddress)
	pc.mu.Lock()
	pc.entries[key] = entry{price: price, expiry: pc.now().Add(pc.ttl)}
	pc.mu.Unlock()
	return nil
}

// Compile-time interface check.
var _ domain.PriceCache = (*PriceCache)(nil)
