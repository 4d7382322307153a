// Package yield computes annualized return rates from raw on-chain emission
// and interest parameters.
package yield

import (
	"math"
	"math/big"
)

// DefaultBlocksPerYear is the BSC block count per year (~3s blocks).
const DefaultBlocksPerYear = 10_512_000

// weiScale is the 1e18 fixed-point scale used by emission amounts and
// per-block interest rates.
var weiScale = big.NewFloat(1e18)

// Calculator turns emission schedules and per-block rates into annualized
// percentages. All methods return 0 for inputs that make the rate undefined
// (zero TVL, zero total allocation); a pool with no liquidity has no return,
// not an infinite one.
type Calculator struct {
	blocksPerYear  float64
	maxLendingRate float64
}

// NewCalculator creates a Calculator. maxLendingRate caps the vault
// utilization model and is a fraction (0.15 = 15%).
func NewCalculator(blocksPerYear int64, maxLendingRate float64) *Calculator {
	if blocksPerYear <= 0 {
		blocksPerYear = DefaultBlocksPerYear
	}
	return &Calculator{
		blocksPerYear:  float64(blocksPerYear),
		maxLendingRate: maxLendingRate,
	}
}

// FarmAPR computes the annual percentage rate of an emission-weighted farm:
//
//	annualRewardUSD = emission/1e18 * blocksPerYear * alloc/totalAlloc * rewardPriceUSD
//	aprPercent      = 100 * annualRewardUSD / poolTVLUSD
func (c *Calculator) FarmAPR(emissionPerBlock, allocPoint, totalAllocPoint *big.Int, rewardPriceUSD, poolTVLUSD float64) float64 {
	if totalAllocPoint == nil || totalAllocPoint.Sign() == 0 || poolTVLUSD == 0 {
		return 0
	}
	if emissionPerBlock == nil || allocPoint == nil {
		return 0
	}

	emission := bigToFloat(new(big.Float).Quo(new(big.Float).SetInt(emissionPerBlock), weiScale))
	share := bigToFloat(new(big.Float).Quo(new(big.Float).SetInt(allocPoint), new(big.Float).SetInt(totalAllocPoint)))

	annualRewardUSD := emission * c.blocksPerYear * share * rewardPriceUSD
	apr := 100 * annualRewardUSD / poolTVLUSD
	if apr < 0 || math.IsNaN(apr) || math.IsInf(apr, 0) {
		return 0
	}
	return apr
}

// LendingAPY compounds a 1e18-scaled per-block interest rate over a year:
//
//	apyPercent = 100 * ((1+r)^blocksPerYear - 1)
//
// Evaluated as expm1(blocksPerYear * log1p(r)). Per-block rates are on the
// order of 1e-9, so the naive power form loses all significant digits of r
// in the 1+r sum; log1p/expm1 keep full precision in the log domain.
func (c *Calculator) LendingAPY(ratePerBlock *big.Int) float64 {
	if ratePerBlock == nil || ratePerBlock.Sign() <= 0 {
		return 0
	}
	r := bigToFloat(new(big.Float).Quo(new(big.Float).SetInt(ratePerBlock), weiScale))
	return 100 * math.Expm1(c.blocksPerYear*math.Log1p(r))
}

// VaultBaseAPR computes a vault's base lending yield from its utilization:
// the idle share of deposits earns up to maxLendingRate. Returns a
// percentage.
func (c *Calculator) VaultBaseAPR(totalDeposited, totalDebt *big.Int) float64 {
	if totalDeposited == nil || totalDeposited.Sign() == 0 {
		return 0
	}
	deposited := bigToFloat(new(big.Float).SetInt(totalDeposited))
	debt := 0.0
	if totalDebt != nil {
		debt = bigToFloat(new(big.Float).SetInt(totalDebt))
	}
	idle := (deposited - debt) / deposited
	if idle < 0 {
		idle = 0
	}
	return 100 * idle * c.maxLendingRate
}

func bigToFloat(f *big.Float) float64 {
	v, _ := f.Float64()
	return v
}
