package domain

import "time"

// RiskFactors are the normalized risk components derived for one
// opportunity. Every field is in [0,1], higher meaning riskier, except
// Protocol which is a reputation score (higher meaning safer) and is
// inverted by the composite scorer.
type RiskFactors struct {
	TVL             float64
	Volatility      float64
	Age             float64
	ImpermanentLoss float64
	Protocol        float64
}

// Opportunity is the scanner's output record: one yield-bearing position
// with its annualized rate, composite risk and risk-adjusted ROI. Immutable
// once constructed.
type Opportunity struct {
	ID          string
	ScanID      string
	Protocol    string
	Kind        PoolKind
	Address     string
	TVLUSD      float64
	RatePercent float64
	RiskScore   float64
	// ExpectedROI is the risk-discounted annual return as a fraction:
	// RatePercent/100 * (1 - RiskScore).
	ExpectedROI float64
	Timestamp   time.Time
}

// DailyPoint is one sample of a daily time series (price, TVL).
type DailyPoint struct {
	Date  time.Time
	Value float64
}

// ProtocolMetrics are protocol-wide figures used by the reputation blend.
type ProtocolMetrics struct {
	TVL          float64
	TVLChange24h float64 // percent
	McapRatio    float64
}
