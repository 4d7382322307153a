package protocol

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/yieldscan/internal/chain"
	"github.com/alanyoungcy/yieldscan/internal/domain"
)

// Vault scans a fairlaunch-style reward contract whose pools stake
// interest-bearing vault tokens. Each vault lends its idle underlying out to
// leveraged positions and tracks the outstanding debt.
type Vault struct {
	name           string
	fairlaunch     string
	rewardToken    string
	emissionMethod string
	reader         domain.ContractReader
}

// NewVault creates an adapter for one fairlaunch contract.
func NewVault(name, fairlaunch, rewardToken, emissionMethod string, reader domain.ContractReader) *Vault {
	return &Vault{
		name:           name,
		fairlaunch:     fairlaunch,
		rewardToken:    rewardToken,
		emissionMethod: emissionMethod,
		reader:         reader,
	}
}

func (v *Vault) Name() string          { return v.name }
func (v *Vault) Kind() domain.PoolKind { return domain.PoolKindVault }

// EnumeratePools lists fairlaunch pool indices. Not every staked token is a
// vault (governance staking pools share the same contract); those fail the
// vault calls at detail time and are dropped per-item.
func (v *Vault) EnumeratePools(ctx context.Context) ([]domain.PoolRef, error) {
	outs, err := v.reader.Call(ctx, v.fairlaunch, "poolLength")
	if err != nil {
		return nil, fmt.Errorf("protocol %s: poolLength: %w", v.name, err)
	}
	length, err := chain.AsBigInt(outs[0])
	if err != nil {
		return nil, err
	}

	n := int(length.Int64())
	refs := make([]domain.PoolRef, 0, n)
	for i := 0; i < n; i++ {
		refs = append(refs, domain.PoolRef{
			Protocol: v.name,
			Kind:     domain.PoolKindVault,
			PID:      i,
		})
	}
	return refs, nil
}

// FetchPoolDetail resolves the staked vault token and reads its underlying,
// balance and debt, plus the reward schedule for the pool.
func (v *Vault) FetchPoolDetail(ctx context.Context, ref domain.PoolRef) (*domain.PoolDetail, error) {
	fail := func(err error) (*domain.PoolDetail, error) {
		return nil, &domain.PoolFetchError{
			Protocol: v.name,
			Address:  fmt.Sprintf("%s[pid=%d]", ref.Address, ref.PID),
			Err:      err,
		}
	}

	outs, err := v.reader.Call(ctx, v.fairlaunch, "poolInfo", int64(ref.PID))
	if err != nil {
		return fail(fmt.Errorf("poolInfo: %w", err))
	}
	vaultAddr, err := chain.AsAddress(outs[0])
	if err != nil {
		return fail(err)
	}
	allocPoint, err := chain.AsBigInt(outs[1])
	if err != nil {
		return fail(err)
	}
	ref.Address = vaultAddr

	outs, err = v.reader.Call(ctx, v.fairlaunch, "totalAllocPoint")
	if err != nil {
		return fail(fmt.Errorf("totalAllocPoint: %w", err))
	}
	totalAlloc, err := chain.AsBigInt(outs[0])
	if err != nil {
		return fail(err)
	}

	outs, err = v.reader.Call(ctx, v.fairlaunch, v.emissionMethod)
	if err != nil {
		return fail(fmt.Errorf("%s: %w", v.emissionMethod, err))
	}
	emission, err := chain.AsBigInt(outs[0])
	if err != nil {
		return fail(err)
	}

	outs, err = v.reader.Call(ctx, vaultAddr, "token")
	if err != nil {
		return fail(fmt.Errorf("token: %w", err))
	}
	underlyingAddr, err := chain.AsAddress(outs[0])
	if err != nil {
		return fail(err)
	}
	underlying, err := fetchToken(ctx, v.reader, underlyingAddr)
	if err != nil {
		return fail(err)
	}

	outs, err = v.reader.Call(ctx, vaultAddr, "totalToken")
	if err != nil {
		return fail(fmt.Errorf("totalToken: %w", err))
	}
	deposited, err := chain.AsBigInt(outs[0])
	if err != nil {
		return fail(err)
	}

	outs, err = v.reader.Call(ctx, vaultAddr, "vaultDebtVal")
	if err != nil {
		return fail(fmt.Errorf("vaultDebtVal: %w", err))
	}
	debt, err := chain.AsBigInt(outs[0])
	if err != nil {
		return fail(err)
	}

	reward, err := fetchToken(ctx, v.reader, v.rewardToken)
	if err != nil {
		return fail(err)
	}

	return &domain.PoolDetail{
		Ref: ref,
		Vault: &domain.VaultDetail{
			Underlying:       underlying,
			TotalDeposited:   deposited,
			TotalDebt:        debt,
			AllocPoint:       allocPoint,
			TotalAllocPoint:  totalAlloc,
			EmissionPerBlock: emission,
			RewardToken:      reward,
		},
	}, nil
}
