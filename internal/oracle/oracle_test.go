package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/yieldscan/internal/cache/memory"
	"github.com/alanyoungcy/yieldscan/internal/domain"
)

const (
	busd  = "0x00000000000000000000000000000000000000B1"
	wbnb  = "0x00000000000000000000000000000000000000B2"
	cake  = "0x00000000000000000000000000000000000000B3"
	dust  = "0x00000000000000000000000000000000000000B4"
	zeros = "0x0000000000000000000000000000000000000000"
)

// fakeReader serves a configurable pair graph through the ContractReader
// interface. Pairs are registered in both orderings.
type fakeReader struct {
	pairs    map[string]string
	reserves map[string][2]*big.Int
	token0   map[string]string
	decimals map[string]uint8
	calls    int
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		pairs:    make(map[string]string),
		reserves: make(map[string][2]*big.Int),
		token0:   make(map[string]string),
		decimals: make(map[string]uint8),
	}
}

func (f *fakeReader) addToken(addr string, decimals uint8) {
	f.decimals[strings.ToLower(addr)] = decimals
}

func (f *fakeReader) addPair(pairAddr, tokenA, tokenB string, reserveA, reserveB *big.Int) {
	a, b := strings.ToLower(tokenA), strings.ToLower(tokenB)
	f.pairs[a+"|"+b] = pairAddr
	f.pairs[b+"|"+a] = pairAddr
	key := strings.ToLower(pairAddr)
	f.reserves[key] = [2]*big.Int{reserveA, reserveB}
	f.token0[key] = tokenA
}

func (f *fakeReader) Call(_ context.Context, address, method string, args ...any) ([]any, error) {
	f.calls++
	switch method {
	case "getPair":
		a := strings.ToLower(args[0].(string))
		b := strings.ToLower(args[1].(string))
		pair, ok := f.pairs[a+"|"+b]
		if !ok {
			pair = zeros
		}
		return []any{pair}, nil
	case "getReserves":
		r, ok := f.reserves[strings.ToLower(address)]
		if !ok {
			return nil, fmt.Errorf("no reserves for %s", address)
		}
		return []any{r[0], r[1], uint32(0)}, nil
	case "token0":
		return []any{f.token0[strings.ToLower(address)]}, nil
	case "decimals":
		d, ok := f.decimals[strings.ToLower(address)]
		if !ok {
			return nil, fmt.Errorf("no decimals for %s", address)
		}
		return []any{d}, nil
	default:
		return nil, fmt.Errorf("unexpected method %s", method)
	}
}

func units(n int64, decimals uint8) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(big.NewInt(n), scale)
}

func newTestOracle(reader domain.ContractReader) *Oracle {
	cache := memory.NewPriceCache(time.Minute)
	factory := "0x00000000000000000000000000000000000000FA"
	return New(reader, cache, factory, busd, []string{wbnb}, slog.Default())
}

func TestResolvePriceReferenceIsOne(t *testing.T) {
	o := newTestOracle(newFakeReader())
	price, err := o.ResolvePrice(context.Background(), busd)
	require.NoError(t, err)
	assert.Equal(t, 1.0, price)
}

func TestResolvePriceDirectPair(t *testing.T) {
	r := newFakeReader()
	r.addToken(cake, 18)
	r.addToken(busd, 18)
	// 1000 CAKE vs 5000 BUSD -> $5.
	r.addPair("0x00000000000000000000000000000000000000P1", cake, busd,
		units(1000, 18), units(5000, 18))

	o := newTestOracle(r)
	price, err := o.ResolvePrice(context.Background(), cake)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, price, 1e-9)
}

func TestResolvePriceNormalizesDecimals(t *testing.T) {
	r := newFakeReader()
	r.addToken(dust, 8)
	r.addToken(busd, 18)
	// 100 DUST (8 decimals) vs 250 BUSD -> $2.50.
	r.addPair("0x00000000000000000000000000000000000000P2", dust, busd,
		units(100, 8), units(250, 18))

	o := newTestOracle(r)
	price, err := o.ResolvePrice(context.Background(), dust)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, price, 1e-9)
}

func TestResolvePriceTwoHops(t *testing.T) {
	r := newFakeReader()
	r.addToken(cake, 18)
	r.addToken(wbnb, 18)
	r.addToken(busd, 18)
	// CAKE/WBNB: 100 CAKE vs 2 WBNB -> 0.02 WBNB per CAKE.
	r.addPair("0x00000000000000000000000000000000000000P3", cake, wbnb,
		units(100, 18), units(2, 18))
	// WBNB/BUSD: 10 WBNB vs 3000 BUSD -> $300 per WBNB.
	r.addPair("0x00000000000000000000000000000000000000P4", wbnb, busd,
		units(10, 18), units(3000, 18))

	o := newTestOracle(r)
	price, err := o.ResolvePrice(context.Background(), cake)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, price, 1e-9)
}

func TestResolvePriceNoPath(t *testing.T) {
	r := newFakeReader()
	r.addToken(dust, 18)

	o := newTestOracle(r)
	_, err := o.ResolvePrice(context.Background(), dust)
	require.ErrorIs(t, err, domain.ErrPriceUnresolved)
}

func TestResolvePriceEmptyReservesTreatedAsNoPair(t *testing.T) {
	r := newFakeReader()
	r.addToken(dust, 18)
	r.addToken(busd, 18)
	r.addPair("0x00000000000000000000000000000000000000P5", dust, busd,
		big.NewInt(0), units(5000, 18))

	o := newTestOracle(r)
	_, err := o.ResolvePrice(context.Background(), dust)
	require.ErrorIs(t, err, domain.ErrPriceUnresolved)
}

func TestResolvePriceReciprocal(t *testing.T) {
	r := newFakeReader()
	r.addToken(cake, 18)
	r.addToken(busd, 18)
	r.addPair("0x00000000000000000000000000000000000000P6", cake, busd,
		units(777, 18), units(1234, 18))

	// Quote CAKE in BUSD, then BUSD in CAKE with the reference flipped.
	forward := newTestOracle(r)
	priceAB, err := forward.ResolvePrice(context.Background(), cake)
	require.NoError(t, err)

	backward := New(r, memory.NewPriceCache(time.Minute),
		"0x00000000000000000000000000000000000000FA", cake, nil, slog.Default())
	priceBA, err := backward.ResolvePrice(context.Background(), busd)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, priceAB*priceBA, 1e-9)
}

func TestResolvePriceUsesCache(t *testing.T) {
	r := newFakeReader()
	r.addToken(cake, 18)
	r.addToken(busd, 18)
	r.addPair("0x00000000000000000000000000000000000000P7", cake, busd,
		units(1000, 18), units(5000, 18))

	o := newTestOracle(r)
	_, err := o.ResolvePrice(context.Background(), cake)
	require.NoError(t, err)

	callsAfterFirst := r.calls
	price, err := o.ResolvePrice(context.Background(), cake)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, price, 1e-9)
	assert.Equal(t, callsAfterFirst, r.calls, "second resolution should be served from cache")
}

func TestNormalize(t *testing.T) {
	assert.InDelta(t, 1.5, Normalize(units(15, 17), 18), 1e-12)
	assert.InDelta(t, 42, Normalize(big.NewInt(42), 0), 1e-12)
	assert.Zero(t, Normalize(nil, 18))
}
