// Package oracle resolves token prices in a reference currency by walking a
// graph of AMM trading pairs, with a TTL cache in front of pair reads.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"strings"

	"github.com/alanyoungcy/yieldscan/internal/chain"
	"github.com/alanyoungcy/yieldscan/internal/domain"
)

// maxHops caps the pair-graph search depth. One intermediate quote token
// (token -> quote -> reference) is the deepest path worth paying for; deeper
// paths compound thin-pair noise and the search cost is unbounded on cyclic
// graphs without a cap.
const maxHops = 2

// Oracle resolves token prices in the reference token (a USD-pegged asset)
// via direct or multi-hop pair lookup on one AMM factory.
type Oracle struct {
	reader    domain.ContractReader
	cache     domain.PriceCache
	factory   string
	reference string
	quotes    []string
	logger    *slog.Logger
}

// New creates an Oracle. quotes are the intermediate tokens tried, in order,
// when a token has no direct pair against the reference.
func New(reader domain.ContractReader, cache domain.PriceCache, factory, reference string, quotes []string, logger *slog.Logger) *Oracle {
	return &Oracle{
		reader:    reader,
		cache:     cache,
		factory:   factory,
		reference: reference,
		quotes:    quotes,
		logger:    logger.With(slog.String("component", "oracle")),
	}
}

// ResolvePrice returns the token's price in the reference currency. A token
// with no pair path of depth <= maxHops yields domain.ErrPriceUnresolved;
// the caller decides whether to exclude the item or treat the price as zero.
// Transport failures are returned as-is.
//
// Resolved prices are cached by token address. Concurrent resolutions of
// the same token may race to fetch; the last write wins, which is sound
// because on-chain values converge within a cache window.
func (o *Oracle) ResolvePrice(ctx context.Context, tokenAddress string) (float64, error) {
	if chain.SameAddress(tokenAddress, o.reference) {
		return 1.0, nil
	}

	if price, ok, err := o.cache.Get(ctx, tokenAddress); err != nil {
		o.logger.Warn("price cache read failed", slog.String("token", tokenAddress), slog.String("error", err.Error()))
	} else if ok {
		return price, nil
	}

	price, err := o.search(ctx, tokenAddress)
	if err != nil {
		return 0, err
	}

	if err := o.cache.Set(ctx, tokenAddress, price); err != nil {
		o.logger.Warn("price cache write failed", slog.String("token", tokenAddress), slog.String("error", err.Error()))
	}
	return price, nil
}

// hop is one frontier entry in the pair-graph search: a token reachable from
// the origin and the accumulated price factor along the path to it.
type hop struct {
	token  string
	factor float64
	depth  int
}

// search runs a breadth-first, depth-bounded walk over the pair graph. At
// each frontier token it first tries a direct pair against the reference;
// failing that it expands through the configured quote tokens. A visited set
// keeps cyclic pair graphs from re-expanding.
func (o *Oracle) search(ctx context.Context, tokenAddress string) (float64, error) {
	queue := []hop{{token: tokenAddress, factor: 1.0, depth: 0}}
	visited := map[string]bool{addrKey(tokenAddress): true}

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]

		ratio, err := o.pairPrice(ctx, h.token, o.reference)
		switch {
		case err == nil:
			return h.factor * ratio, nil
		case !errors.Is(err, domain.ErrNotFound):
			return 0, err
		}

		if h.depth+1 >= maxHops {
			continue
		}
		for _, quote := range o.quotes {
			if visited[addrKey(quote)] || chain.SameAddress(quote, o.reference) {
				continue
			}
			ratio, err := o.pairPrice(ctx, h.token, quote)
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			if err != nil {
				return 0, err
			}
			visited[addrKey(quote)] = true
			queue = append(queue, hop{token: quote, factor: h.factor * ratio, depth: h.depth + 1})
		}
	}

	return 0, fmt.Errorf("oracle: token %s: %w", tokenAddress, domain.ErrPriceUnresolved)
}

// pairPrice returns the price of tokenA denominated in tokenB from their
// direct pair's reserves, or domain.ErrNotFound when no pair exists or a
// reserve is empty. Reserves are normalized by each token's declared
// decimals before the ratio is taken.
func (o *Oracle) pairPrice(ctx context.Context, tokenA, tokenB string) (float64, error) {
	outs, err := o.reader.Call(ctx, o.factory, "getPair", tokenA, tokenB)
	if err != nil {
		return 0, fmt.Errorf("oracle: getPair(%s,%s): %w", tokenA, tokenB, err)
	}
	pairAddr, err := chain.AsAddress(outs[0])
	if err != nil {
		return 0, err
	}
	if chain.IsZeroAddress(pairAddr) {
		return 0, fmt.Errorf("oracle: no pair %s/%s: %w", tokenA, tokenB, domain.ErrNotFound)
	}

	outs, err = o.reader.Call(ctx, pairAddr, "getReserves")
	if err != nil {
		return 0, fmt.Errorf("oracle: getReserves(%s): %w", pairAddr, err)
	}
	reserve0, err := chain.AsBigInt(outs[0])
	if err != nil {
		return 0, err
	}
	reserve1, err := chain.AsBigInt(outs[1])
	if err != nil {
		return 0, err
	}

	outs, err = o.reader.Call(ctx, pairAddr, "token0")
	if err != nil {
		return 0, fmt.Errorf("oracle: token0(%s): %w", pairAddr, err)
	}
	token0, err := chain.AsAddress(outs[0])
	if err != nil {
		return 0, err
	}

	decA, err := o.tokenDecimals(ctx, tokenA)
	if err != nil {
		return 0, err
	}
	decB, err := o.tokenDecimals(ctx, tokenB)
	if err != nil {
		return 0, err
	}

	// Orient reserves so reserveA belongs to tokenA.
	reserveA, reserveB := reserve0, reserve1
	if !chain.SameAddress(tokenA, token0) {
		reserveA, reserveB = reserve1, reserve0
	}

	normA := Normalize(reserveA, decA)
	normB := Normalize(reserveB, decB)
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("oracle: empty reserves in pair %s: %w", pairAddr, domain.ErrNotFound)
	}

	return normB / normA, nil
}

func (o *Oracle) tokenDecimals(ctx context.Context, token string) (uint8, error) {
	outs, err := o.reader.Call(ctx, token, "decimals")
	if err != nil {
		return 0, fmt.Errorf("oracle: decimals(%s): %w", token, err)
	}
	return chain.AsUint8(outs[0])
}

// Normalize converts a raw integer amount to a float scaled down by the
// token's decimals.
func Normalize(amount *big.Int, decimals uint8) float64 {
	if amount == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(
		new(big.Float).SetInt(amount),
		big.NewFloat(math.Pow10(int(decimals))),
	).Float64()
	return f
}

// addrKey canonicalizes an address for map keys.
func addrKey(addr string) string {
	return strings.ToLower(addr)
}
