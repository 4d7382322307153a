package domain

import "context"

// PriceCache stores resolved token prices for the duration of a TTL window.
// Implementations own the TTL. Concurrent writers may race on the same
// token; last write wins, which is acceptable because duplicate resolutions
// within a window converge to the same value.
type PriceCache interface {
	// Get returns the cached price and whether a live entry exists.
	Get(ctx context.Context, tokenAddress string) (float64, bool, error)
	// Set stores a price, replacing any previous entry wholesale.
	Set(ctx context.Context, tokenAddress string, price float64) error
}
