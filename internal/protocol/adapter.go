// Package protocol implements one adapter per protocol family. An adapter
// knows how to enumerate a protocol's pools and assemble the raw fields the
// calculators need; it carries no pricing or scoring logic.
package protocol

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/yieldscan/internal/chain"
	"github.com/alanyoungcy/yieldscan/internal/domain"
)

// Adapter is the capability each protocol variant implements. The set of
// variants is closed: AMM farm, lending market, yield vault.
type Adapter interface {
	// Name is the protocol identifier stamped on opportunities.
	Name() string
	// Kind reports which pool variant this adapter produces.
	Kind() domain.PoolKind
	// EnumeratePools lists the protocol's pools. Failure here is an
	// adapter-level error: the protocol contributes nothing to the scan.
	EnumeratePools(ctx context.Context) ([]domain.PoolRef, error)
	// FetchPoolDetail assembles the raw fields for one pool. Failure is a
	// per-item error wrapped in *domain.PoolFetchError.
	FetchPoolDetail(ctx context.Context, ref domain.PoolRef) (*domain.PoolDetail, error)
}

// fetchToken reads ERC-20 metadata for an address. Shared by all variants.
func fetchToken(ctx context.Context, reader domain.ContractReader, address string) (domain.Token, error) {
	outs, err := reader.Call(ctx, address, "symbol")
	if err != nil {
		return domain.Token{}, fmt.Errorf("protocol: symbol(%s): %w", address, err)
	}
	symbol, err := chain.AsString(outs[0])
	if err != nil {
		return domain.Token{}, err
	}

	outs, err = reader.Call(ctx, address, "decimals")
	if err != nil {
		return domain.Token{}, fmt.Errorf("protocol: decimals(%s): %w", address, err)
	}
	decimals, err := chain.AsUint8(outs[0])
	if err != nil {
		return domain.Token{}, err
	}

	return domain.Token{Address: address, Symbol: symbol, Decimals: decimals}, nil
}
