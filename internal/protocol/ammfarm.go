package protocol

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/yieldscan/internal/chain"
	"github.com/alanyoungcy/yieldscan/internal/domain"
)

// AmmFarm scans a masterchef-style staking contract whose pools stake AMM
// pair tokens and emit a reward token per block.
type AmmFarm struct {
	name           string
	masterchef     string
	rewardToken    string
	emissionMethod string
	reader         domain.ContractReader
}

// NewAmmFarm creates an adapter for one masterchef contract. emissionMethod
// is the contract's per-block emission getter (e.g. "cakePerBlock"), which
// varies by fork.
func NewAmmFarm(name, masterchef, rewardToken, emissionMethod string, reader domain.ContractReader) *AmmFarm {
	return &AmmFarm{
		name:           name,
		masterchef:     masterchef,
		rewardToken:    rewardToken,
		emissionMethod: emissionMethod,
		reader:         reader,
	}
}

func (a *AmmFarm) Name() string          { return a.name }
func (a *AmmFarm) Kind() domain.PoolKind { return domain.PoolKindFarm }

// EnumeratePools lists pool indices 0..poolLength-1. The staked pair address
// is not known until detail time, so refs carry the PID only.
func (a *AmmFarm) EnumeratePools(ctx context.Context) ([]domain.PoolRef, error) {
	outs, err := a.reader.Call(ctx, a.masterchef, "poolLength")
	if err != nil {
		return nil, fmt.Errorf("protocol %s: poolLength: %w", a.name, err)
	}
	length, err := chain.AsBigInt(outs[0])
	if err != nil {
		return nil, err
	}

	n := int(length.Int64())
	refs := make([]domain.PoolRef, 0, n)
	for i := 0; i < n; i++ {
		refs = append(refs, domain.PoolRef{
			Protocol: a.name,
			Kind:     domain.PoolKindFarm,
			PID:      i,
		})
	}
	return refs, nil
}

// FetchPoolDetail reads the masterchef pool entry and the staked pair's
// tokens and reserves. The returned detail's Ref carries the pair address
// resolved from poolInfo.
func (a *AmmFarm) FetchPoolDetail(ctx context.Context, ref domain.PoolRef) (*domain.PoolDetail, error) {
	fail := func(err error) (*domain.PoolDetail, error) {
		return nil, &domain.PoolFetchError{
			Protocol: a.name,
			Address:  fmt.Sprintf("%s[pid=%d]", ref.Address, ref.PID),
			Err:      err,
		}
	}

	outs, err := a.reader.Call(ctx, a.masterchef, "poolInfo", int64(ref.PID))
	if err != nil {
		return fail(fmt.Errorf("poolInfo: %w", err))
	}
	lpToken, err := chain.AsAddress(outs[0])
	if err != nil {
		return fail(err)
	}
	allocPoint, err := chain.AsBigInt(outs[1])
	if err != nil {
		return fail(err)
	}
	ref.Address = lpToken

	outs, err = a.reader.Call(ctx, a.masterchef, "totalAllocPoint")
	if err != nil {
		return fail(fmt.Errorf("totalAllocPoint: %w", err))
	}
	totalAlloc, err := chain.AsBigInt(outs[0])
	if err != nil {
		return fail(err)
	}

	outs, err = a.reader.Call(ctx, a.masterchef, a.emissionMethod)
	if err != nil {
		return fail(fmt.Errorf("%s: %w", a.emissionMethod, err))
	}
	emission, err := chain.AsBigInt(outs[0])
	if err != nil {
		return fail(err)
	}

	token0Addr, token1Addr, err := a.pairTokens(ctx, lpToken)
	if err != nil {
		return fail(err)
	}
	token0, err := fetchToken(ctx, a.reader, token0Addr)
	if err != nil {
		return fail(err)
	}
	token1, err := fetchToken(ctx, a.reader, token1Addr)
	if err != nil {
		return fail(err)
	}

	outs, err = a.reader.Call(ctx, lpToken, "getReserves")
	if err != nil {
		return fail(fmt.Errorf("getReserves: %w", err))
	}
	reserve0, err := chain.AsBigInt(outs[0])
	if err != nil {
		return fail(err)
	}
	reserve1, err := chain.AsBigInt(outs[1])
	if err != nil {
		return fail(err)
	}

	reward, err := fetchToken(ctx, a.reader, a.rewardToken)
	if err != nil {
		return fail(err)
	}

	return &domain.PoolDetail{
		Ref: ref,
		Farm: &domain.FarmDetail{
			Token0:           token0,
			Token1:           token1,
			Reserve0:         reserve0,
			Reserve1:         reserve1,
			AllocPoint:       allocPoint,
			TotalAllocPoint:  totalAlloc,
			EmissionPerBlock: emission,
			RewardToken:      reward,
		},
	}, nil
}

func (a *AmmFarm) pairTokens(ctx context.Context, pair string) (string, string, error) {
	outs, err := a.reader.Call(ctx, pair, "token0")
	if err != nil {
		return "", "", fmt.Errorf("token0: %w", err)
	}
	token0, err := chain.AsAddress(outs[0])
	if err != nil {
		return "", "", err
	}

	outs, err = a.reader.Call(ctx, pair, "token1")
	if err != nil {
		return "", "", fmt.Errorf("token1: %w", err)
	}
	token1, err := chain.AsAddress(outs[0])
	if err != nil {
		return "", "", err
	}
	return token0, token1, nil
}

// Compile-time interface checks for all adapters.
var (
	_ Adapter = (*AmmFarm)(nil)
	_ Adapter = (*Lending)(nil)
	_ Adapter = (*Vault)(nil)
)
