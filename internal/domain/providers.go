package domain

import (
	"context"
	"time"
)

// ContractReader executes a read-only contract call and returns the decoded
// output values. Implementations own address checksumming, ABI encoding and
// transport; callers pass the method name as declared in the ABI table.
type ContractReader interface {
	Call(ctx context.Context, address, method string, args ...any) ([]any, error)
}

// SeriesKind selects which daily series a HistoryProvider should return.
type SeriesKind string

const (
	SeriesTokenPriceUSD SeriesKind = "token_price_usd"
	SeriesPairTVLUSD    SeriesKind = "pair_tvl_usd"
)

// SeriesRef identifies the entity a daily series is requested for.
type SeriesRef struct {
	Kind    SeriesKind
	Address string
}

// HistoryProvider returns historical daily series (oldest first) for tokens
// and pairs, feeding the volatility and impermanent-loss risk factors.
type HistoryProvider interface {
	DailySeries(ctx context.Context, ref SeriesRef, days int) ([]DailyPoint, error)
}

// AgeProvider reports when a pair was created on chain, feeding the age risk
// factor. An unknown pair yields ErrNotFound; the scorer falls back to a
// neutral factor.
type AgeProvider interface {
	CreatedAt(ctx context.Context, pairAddress string) (time.Time, error)
}

// ProtocolMetricsProvider returns protocol-wide metrics for the reputation
// blend.
type ProtocolMetricsProvider interface {
	Get(ctx context.Context, protocolID string) (ProtocolMetrics, error)
}
