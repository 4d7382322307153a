package domain

import "math/big"

// PoolKind distinguishes the closed set of pool variants the scanner
// understands.
type PoolKind string

const (
	PoolKindFarm    PoolKind = "farm"
	PoolKindLending PoolKind = "lending"
	PoolKindVault   PoolKind = "vault"
)

// PoolRef is a lightweight handle to a pool discovered during enumeration.
// It carries just enough identity to fetch full detail later.
type PoolRef struct {
	Protocol string
	Kind     PoolKind
	Address  string
	// PID is the masterchef/fairlaunch pool index, or -1 when the protocol
	// enumerates by address only (lending markets).
	PID int
}

// PoolDetail holds the raw fields an adapter assembled for one pool. Exactly
// one of the kind-specific sub-structs is non-nil, matching Ref.Kind. Raw
// integer amounts keep their on-chain scale; normalization happens in the
// calculators.
type PoolDetail struct {
	Ref     PoolRef
	Farm    *FarmDetail
	Lending *LendingDetail
	Vault   *VaultDetail
}

// FarmDetail holds the inputs for an emission-weighted AMM farm.
type FarmDetail struct {
	Token0           Token
	Token1           Token
	Reserve0         *big.Int
	Reserve1         *big.Int
	AllocPoint       *big.Int
	TotalAllocPoint  *big.Int
	EmissionPerBlock *big.Int // reward token wei emitted per block
	RewardToken      Token
}

// LendingDetail holds the inputs for an interest-bearing lending market.
type LendingDetail struct {
	Underlying         Token
	SupplyRatePerBlock *big.Int // 1e18-scaled per-block rate
	TotalSupply        *big.Int // market tokens outstanding
	TotalBorrows       *big.Int // underlying wei borrowed
	ExchangeRate       *big.Int // 1e18-scaled underlying per market token
}

// VaultDetail holds the inputs for a yield vault with a reward schedule.
type VaultDetail struct {
	Underlying       Token
	TotalDeposited   *big.Int // underlying wei held by the vault
	TotalDebt        *big.Int // underlying wei lent out to positions
	AllocPoint       *big.Int
	TotalAllocPoint  *big.Int
	EmissionPerBlock *big.Int
	RewardToken      Token
}
