package protocol

import (
	"context"
	"fmt"
	"math/big"

	"github.com/alanyoungcy/yieldscan/internal/chain"
	"github.com/alanyoungcy/yieldscan/internal/domain"
)

// nativeMarketDecimals is assumed for markets whose underlying is the chain's
// native coin (the underlying() call reverts on those).
const nativeMarketDecimals = 18

// Lending scans a comptroller-style money market: each listed market token
// wraps one underlying asset and accrues a per-block supply rate.
type Lending struct {
	name        string
	comptroller string
	reader      domain.ContractReader
}

// NewLending creates an adapter for one comptroller contract.
func NewLending(name, comptroller string, reader domain.ContractReader) *Lending {
	return &Lending{name: name, comptroller: comptroller, reader: reader}
}

func (l *Lending) Name() string          { return l.name }
func (l *Lending) Kind() domain.PoolKind { return domain.PoolKindLending }

// EnumeratePools lists every market registered on the comptroller. Markets
// are addressed directly, so PID is -1.
func (l *Lending) EnumeratePools(ctx context.Context) ([]domain.PoolRef, error) {
	outs, err := l.reader.Call(ctx, l.comptroller, "getAllMarkets")
	if err != nil {
		return nil, fmt.Errorf("protocol %s: getAllMarkets: %w", l.name, err)
	}
	markets, err := chain.AsAddresses(outs[0])
	if err != nil {
		return nil, err
	}

	refs := make([]domain.PoolRef, 0, len(markets))
	for _, m := range markets {
		refs = append(refs, domain.PoolRef{
			Protocol: l.name,
			Kind:     domain.PoolKindLending,
			Address:  m,
			PID:      -1,
		})
	}
	return refs, nil
}

// FetchPoolDetail reads the market's underlying token, supply rate and size.
func (l *Lending) FetchPoolDetail(ctx context.Context, ref domain.PoolRef) (*domain.PoolDetail, error) {
	fail := func(err error) (*domain.PoolDetail, error) {
		return nil, &domain.PoolFetchError{Protocol: l.name, Address: ref.Address, Err: err}
	}

	underlying, err := l.underlyingToken(ctx, ref.Address)
	if err != nil {
		return fail(err)
	}

	supplyRate, err := l.bigIntCall(ctx, ref.Address, "supplyRatePerBlock")
	if err != nil {
		return fail(err)
	}
	totalSupply, err := l.bigIntCall(ctx, ref.Address, "totalSupply")
	if err != nil {
		return fail(err)
	}
	totalBorrows, err := l.bigIntCall(ctx, ref.Address, "totalBorrows")
	if err != nil {
		return fail(err)
	}
	exchangeRate, err := l.bigIntCall(ctx, ref.Address, "exchangeRateStored")
	if err != nil {
		return fail(err)
	}

	return &domain.PoolDetail{
		Ref: ref,
		Lending: &domain.LendingDetail{
			Underlying:         underlying,
			SupplyRatePerBlock: supplyRate,
			TotalSupply:        totalSupply,
			TotalBorrows:       totalBorrows,
			ExchangeRate:       exchangeRate,
		},
	}, nil
}

// underlyingToken resolves the market's underlying ERC-20. The native-coin
// market has no underlying() and reverts; it is represented by the market's
// own symbol with the native decimal scale and no price-graph address.
func (l *Lending) underlyingToken(ctx context.Context, market string) (domain.Token, error) {
	outs, err := l.reader.Call(ctx, market, "underlying")
	if err == nil {
		addr, aerr := chain.AsAddress(outs[0])
		if aerr != nil {
			return domain.Token{}, aerr
		}
		return fetchToken(ctx, l.reader, addr)
	}

	outs, serr := l.reader.Call(ctx, market, "symbol")
	if serr != nil {
		return domain.Token{}, fmt.Errorf("underlying(%s): %w", market, err)
	}
	symbol, serr := chain.AsString(outs[0])
	if serr != nil {
		return domain.Token{}, serr
	}
	return domain.Token{Symbol: symbol, Decimals: nativeMarketDecimals}, nil
}

func (l *Lending) bigIntCall(ctx context.Context, address, method string) (*big.Int, error) {
	outs, err := l.reader.Call(ctx, address, method)
	if err != nil {
		return nil, fmt.Errorf("%s(%s): %w", method, address, err)
	}
	return chain.AsBigInt(outs[0])
}
