package yield

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func TestFarmAPR(t *testing.T) {
	calc := NewCalculator(DefaultBlocksPerYear, 0.15)

	t.Run("known value", func(t *testing.T) {
		// 1 token/block, full allocation, $1 reward, $10M TVL:
		// annual reward = 10_512_000 USD -> APR = 105.12%
		apr := calc.FarmAPR(wei(1), big.NewInt(1), big.NewInt(1), 1.0, 10_000_000)
		assert.InDelta(t, 105.12, apr, 1e-9)
	})

	t.Run("allocation share scales linearly", func(t *testing.T) {
		full := calc.FarmAPR(wei(1), big.NewInt(10), big.NewInt(10), 1.0, 1_000_000)
		half := calc.FarmAPR(wei(1), big.NewInt(5), big.NewInt(10), 1.0, 1_000_000)
		assert.InDelta(t, full/2, half, 1e-9)
	})

	t.Run("zero total allocation yields zero", func(t *testing.T) {
		assert.Zero(t, calc.FarmAPR(wei(1), big.NewInt(1), big.NewInt(0), 1.0, 1_000_000))
	})

	t.Run("zero TVL yields zero", func(t *testing.T) {
		assert.Zero(t, calc.FarmAPR(wei(1), big.NewInt(1), big.NewInt(1), 1.0, 0))
	})

	t.Run("nil inputs yield zero", func(t *testing.T) {
		assert.Zero(t, calc.FarmAPR(nil, big.NewInt(1), big.NewInt(1), 1.0, 1_000_000))
		assert.Zero(t, calc.FarmAPR(wei(1), nil, big.NewInt(1), 1.0, 1_000_000))
		assert.Zero(t, calc.FarmAPR(wei(1), big.NewInt(1), nil, 1.0, 1_000_000))
	})
}

func TestLendingAPY(t *testing.T) {
	calc := NewCalculator(DefaultBlocksPerYear, 0.15)

	t.Run("typical per-block rate", func(t *testing.T) {
		// 1e-9 per block compounds to expm1(10_512_000 * log1p(1e-9)).
		apy := calc.LendingAPY(big.NewInt(1_000_000_000)) // 1e9 wei = 1e-9
		want := 100 * math.Expm1(float64(DefaultBlocksPerYear)*math.Log1p(1e-9))
		assert.InDelta(t, want, apy, 1e-12)
		assert.Greater(t, apy, 1.0)
		assert.Less(t, apy, 1.1)
	})

	t.Run("stable across tiny rate magnitudes", func(t *testing.T) {
		// Rates from 1e-10 to 1e-8 per block must produce strictly
		// increasing, finite APYs.
		prev := 0.0
		for _, rate := range []int64{100_000_000, 1_000_000_000, 10_000_000_000} {
			apy := calc.LendingAPY(big.NewInt(rate))
			require.False(t, math.IsNaN(apy) || math.IsInf(apy, 0))
			require.Greater(t, apy, prev)
			prev = apy
		}
	})

	t.Run("zero and nil rates yield zero", func(t *testing.T) {
		assert.Zero(t, calc.LendingAPY(big.NewInt(0)))
		assert.Zero(t, calc.LendingAPY(nil))
	})
}

func TestVaultBaseAPR(t *testing.T) {
	calc := NewCalculator(DefaultBlocksPerYear, 0.15)

	t.Run("idle share earns the ceiling", func(t *testing.T) {
		// 40% idle at a 15% ceiling -> 6%.
		apr := calc.VaultBaseAPR(wei(100), wei(60))
		assert.InDelta(t, 6.0, apr, 1e-9)
	})

	t.Run("fully utilized vault earns nothing", func(t *testing.T) {
		assert.Zero(t, calc.VaultBaseAPR(wei(100), wei(100)))
	})

	t.Run("debt above deposits clamps to zero", func(t *testing.T) {
		assert.Zero(t, calc.VaultBaseAPR(wei(100), wei(150)))
	})

	t.Run("empty vault yields zero", func(t *testing.T) {
		assert.Zero(t, calc.VaultBaseAPR(big.NewInt(0), big.NewInt(0)))
		assert.Zero(t, calc.VaultBaseAPR(nil, nil))
	})

	t.Run("nil debt treated as zero", func(t *testing.T) {
		apr := calc.VaultBaseAPR(wei(100), nil)
		assert.InDelta(t, 15.0, apr, 1e-9)
	})
}
