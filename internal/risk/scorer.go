// Package risk derives normalized risk factors from market signals and
// combines them into one composite score in [0,1].
package risk

import (
	"math"

	"github.com/alanyoungcy/yieldscan/internal/domain"
)

// Weights are the composite blend weights for the five risk factors. They
// should sum to 1; Composite clamps its result regardless so a misconfigured
// table cannot push a score outside [0,1].
type Weights struct {
	TVL             float64
	Volatility      float64
	Age             float64
	ImpermanentLoss float64
	Protocol        float64
}

// DefaultWeights returns the standard factor weighting.
func DefaultWeights() Weights {
	return Weights{
		TVL:             0.25,
		Volatility:      0.20,
		Age:             0.15,
		ImpermanentLoss: 0.20,
		Protocol:        0.20,
	}
}

// Scorer combines risk factors under a fixed weight table.
type Scorer struct {
	weights Weights
}

// NewScorer creates a Scorer with the given weights.
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Composite returns the weighted composite risk score in [0,1]. The protocol
// factor is a reputation score (higher = safer) and is inverted before
// weighting, since reputation and risk move oppositely.
func (s *Scorer) Composite(f domain.RiskFactors) float64 {
	score := f.TVL*s.weights.TVL +
		f.Volatility*s.weights.Volatility +
		f.Age*s.weights.Age +
		f.ImpermanentLoss*s.weights.ImpermanentLoss +
		(1-f.Protocol)*s.weights.Protocol
	return clamp01(score)
}

// TVLRisk maps pool TVL in USD onto a risk step: deeper liquidity, lower
// risk. Thresholds are boundary-inclusive.
func TVLRisk(tvlUSD float64) float64 {
	switch {
	case tvlUSD >= 10_000_000:
		return 0.1
	case tvlUSD >= 5_000_000:
		return 0.3
	case tvlUSD >= 1_000_000:
		return 0.5
	case tvlUSD >= 500_000:
		return 0.7
	default:
		return 0.9
	}
}

// AgeRisk maps pool age in days onto a risk step: newer pools are riskier.
func AgeRisk(ageDays int) float64 {
	switch {
	case ageDays >= 365:
		return 0.2
	case ageDays >= 180:
		return 0.4
	case ageDays >= 90:
		return 0.6
	case ageDays >= 30:
		return 0.8
	default:
		return 1.0
	}
}

// Volatility scores the annualized volatility of a daily price series,
// clamped so that 100% annualized volatility saturates the score at 1.
// Series shorter than two points score 0.
func Volatility(prices []float64) float64 {
	returns := dailyReturns(prices)
	if len(returns) == 0 {
		return 0
	}
	annual := stdDev(returns) * math.Sqrt(365)
	return clamp01(annual)
}

// ImpermanentLoss scores divergence risk for a two-token pool from the
// historical ratio of the tokens' prices: volatile or sharply-drawn-down
// ratios mean higher IL exposure. Both series must cover the same days;
// days where either price is zero are skipped.
func ImpermanentLoss(prices0, prices1 []float64) float64 {
	n := min(len(prices0), len(prices1))
	ratios := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if prices0[i] == 0 || prices1[i] == 0 {
			continue
		}
		ratios = append(ratios, prices1[i]/prices0[i])
	}
	if len(ratios) < 2 {
		return 0
	}

	volScore := math.Min(1, stdDev(ratios))
	drawdownScore := math.Min(1, maxDrawdown(ratios))
	return 0.7*volScore + 0.3*drawdownScore
}

// Reputation blends a configured base score with protocol-health sub-scores.
// Each sub-score is independently clamped to [0,1] before weighting.
func Reputation(base, tvlGrowth, userAdoption, auditFreshness float64) float64 {
	return 0.4*clamp01(base) +
		0.2*clamp01(tvlGrowth) +
		0.2*clamp01(userAdoption) +
		0.2*clamp01(auditFreshness)
}

// TVLGrowthScore maps a 24h TVL change percentage onto [0,1], centering
// flat TVL at ~0.33 so growth raises the score and decline lowers it.
func TVLGrowthScore(changePct float64) float64 {
	return clamp01((changePct/100 + 0.5) / 1.5)
}

// dailyReturns computes period-over-period fractional returns, skipping
// zero-price days that would divide by zero.
func dailyReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	return returns
}

// maxDrawdown returns the largest peak-to-trough decline in the series as a
// fraction of the peak.
func maxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0]
	maxDD := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// stdDev is the population standard deviation.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
