package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/yieldscan/internal/domain"
	"github.com/alanyoungcy/yieldscan/internal/protocol"
	"github.com/alanyoungcy/yieldscan/internal/risk"
	"github.com/alanyoungcy/yieldscan/internal/yield"
)

const underlyingAddr = "0x00000000000000000000000000000000000000A1"

// fakeAdapter serves canned pool details keyed by address.
type fakeAdapter struct {
	name      string
	kind      domain.PoolKind
	details   map[string]*domain.PoolDetail
	order     []string
	enumErr   error
	failAddrs map[string]bool
}

func (f *fakeAdapter) Name() string          { return f.name }
func (f *fakeAdapter) Kind() domain.PoolKind { return f.kind }

func (f *fakeAdapter) EnumeratePools(context.Context) ([]domain.PoolRef, error) {
	if f.enumErr != nil {
		return nil, f.enumErr
	}
	refs := make([]domain.PoolRef, 0, len(f.order))
	for _, addr := range f.order {
		refs = append(refs, domain.PoolRef{
			Protocol: f.name, Kind: f.kind, Address: addr, PID: -1,
		})
	}
	return refs, nil
}

func (f *fakeAdapter) FetchPoolDetail(_ context.Context, ref domain.PoolRef) (*domain.PoolDetail, error) {
	if f.failAddrs[ref.Address] {
		return nil, &domain.PoolFetchError{
			Protocol: f.name, Address: ref.Address, Err: errors.New("execution reverted"),
		}
	}
	detail, ok := f.details[ref.Address]
	if !ok {
		return nil, &domain.PoolFetchError{
			Protocol: f.name, Address: ref.Address, Err: domain.ErrNotFound,
		}
	}
	return detail, nil
}

// fakeResolver prices tokens from a fixed table; unknown tokens are
// unresolvable.
type fakeResolver struct {
	prices map[string]float64
}

func (f *fakeResolver) ResolvePrice(_ context.Context, tokenAddress string) (float64, error) {
	price, ok := f.prices[strings.ToLower(tokenAddress)]
	if !ok {
		return 0, fmt.Errorf("resolver: token %s: %w", tokenAddress, domain.ErrPriceUnresolved)
	}
	return price, nil
}

// noHistory has indexed nothing; every factor derived from it goes neutral.
type noHistory struct{}

func (noHistory) DailySeries(context.Context, domain.SeriesRef, int) ([]domain.DailyPoint, error) {
	return nil, domain.ErrNotFound
}

func (noHistory) CreatedAt(context.Context, string) (time.Time, error) {
	return time.Time{}, domain.ErrNotFound
}

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func lendingDetail(protocolName, addr string, ratePerBlock, supplyTokens int64) *domain.PoolDetail {
	return &domain.PoolDetail{
		Ref: domain.PoolRef{Protocol: protocolName, Kind: domain.PoolKindLending, Address: addr, PID: -1},
		Lending: &domain.LendingDetail{
			Underlying:         domain.Token{Address: underlyingAddr, Symbol: "USDT", Decimals: 18},
			SupplyRatePerBlock: big.NewInt(ratePerBlock),
			TotalSupply:        units(supplyTokens),
			TotalBorrows:       units(supplyTokens / 2),
			ExchangeRate:       big.NewInt(1e18),
		},
	}
}

// permissiveOpts passes everything through: the filter thresholds are wide
// open so structural tests see every assembled opportunity.
func permissiveOpts() Options {
	return Options{Concurrency: 4, HistoryDays: 30, MaxRiskScore: 1}
}

func newTestOrchestrator(t *testing.T, adapters []*fakeAdapter, opts Options) *Orchestrator {
	t.Helper()
	reg := protocol.NewRegistry()
	for _, a := range adapters {
		require.NoError(t, reg.Register(protocol.Entry{Adapter: a, BaseReputation: 0.8}))
	}
	resolver := &fakeResolver{prices: map[string]float64{
		strings.ToLower(underlyingAddr): 1.0,
	}}
	calc := yield.NewCalculator(yield.DefaultBlocksPerYear, 0.15)
	scorer := risk.NewScorer(risk.DefaultWeights())
	return New(reg, resolver, calc, scorer, noHistory{}, noHistory{}, nil, opts, slog.Default())
}

func TestScanProducesRankedOpportunities(t *testing.T) {
	adapter := &fakeAdapter{
		name: "venus", kind: domain.PoolKindLending,
		order: []string{"0xM1", "0xM2"},
		details: map[string]*domain.PoolDetail{
			"0xM1": lendingDetail("venus", "0xM1", 1_000_000_000, 2_000_000),
			"0xM2": lendingDetail("venus", "0xM2", 5_000_000_000, 2_000_000),
		},
	}

	o := newTestOrchestrator(t, []*fakeAdapter{adapter}, permissiveOpts())
	result, err := o.Scan(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.ScanID)
	assert.Equal(t, 2, result.PoolsScanned)
	assert.Zero(t, result.PoolsFailed)
	require.Len(t, result.Opportunities, 2)

	// Higher per-block rate ranks first at equal risk.
	first, second := result.Opportunities[0], result.Opportunities[1]
	assert.Equal(t, "0xM2", first.Address)
	assert.Greater(t, first.RatePercent, second.RatePercent)
	assert.Greater(t, first.ExpectedROI, second.ExpectedROI)

	for _, opp := range result.Opportunities {
		assert.Equal(t, result.ScanID, opp.ScanID)
		assert.NotEmpty(t, opp.ID)
		assert.Equal(t, "venus", opp.Protocol)
		assert.Equal(t, domain.PoolKindLending, opp.Kind)
		assert.InDelta(t, 2_000_000, opp.TVLUSD, 1)
		assert.InDelta(t, opp.RatePercent/100*(1-opp.RiskScore), opp.ExpectedROI, 1e-12)
	}
}

func TestScanSurvivesFailingAdapter(t *testing.T) {
	broken := &fakeAdapter{
		name: "pancakeswap", kind: domain.PoolKindFarm,
		enumErr: errors.New("rpc unavailable"),
	}
	healthy := &fakeAdapter{
		name: "venus", kind: domain.PoolKindLending,
		order: []string{"0xM1"},
		details: map[string]*domain.PoolDetail{
			"0xM1": lendingDetail("venus", "0xM1", 1_000_000_000, 2_000_000),
		},
	}

	o := newTestOrchestrator(t, []*fakeAdapter{broken, healthy}, permissiveOpts())
	result, err := o.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Opportunities, 1)
	assert.Equal(t, "venus", result.Opportunities[0].Protocol)
}

func TestScanDropsFailingPools(t *testing.T) {
	adapter := &fakeAdapter{
		name: "venus", kind: domain.PoolKindLending,
		order: []string{"0xM1", "0xM2"},
		details: map[string]*domain.PoolDetail{
			"0xM1": lendingDetail("venus", "0xM1", 1_000_000_000, 2_000_000),
		},
		failAddrs: map[string]bool{"0xM2": true},
	}

	o := newTestOrchestrator(t, []*fakeAdapter{adapter}, permissiveOpts())
	result, err := o.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.PoolsScanned)
	assert.Equal(t, 1, result.PoolsFailed)
	require.Len(t, result.Opportunities, 1)
	assert.Equal(t, "0xM1", result.Opportunities[0].Address)
}

func TestScanExcludesUnresolvedPrices(t *testing.T) {
	detail := lendingDetail("venus", "0xM1", 1_000_000_000, 2_000_000)
	detail.Lending.Underlying.Address = "0xUNPRICEABLE"
	adapter := &fakeAdapter{
		name: "venus", kind: domain.PoolKindLending,
		order:   []string{"0xM1"},
		details: map[string]*domain.PoolDetail{"0xM1": detail},
	}

	o := newTestOrchestrator(t, []*fakeAdapter{adapter}, permissiveOpts())
	result, err := o.Scan(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Opportunities)
	assert.Equal(t, 1, result.PoolsFailed)
}

func TestScanAppliesFilters(t *testing.T) {
	newAdapter := func() *fakeAdapter {
		return &fakeAdapter{
			name: "venus", kind: domain.PoolKindLending,
			order: []string{"0xM1"},
			details: map[string]*domain.PoolDetail{
				"0xM1": lendingDetail("venus", "0xM1", 1_000_000_000, 2_000_000),
			},
		}
	}

	t.Run("min TVL", func(t *testing.T) {
		opts := permissiveOpts()
		opts.MinTVLUSD = 5_000_000
		o := newTestOrchestrator(t, []*fakeAdapter{newAdapter()}, opts)
		result, err := o.Scan(context.Background())
		require.NoError(t, err)
		assert.Empty(t, result.Opportunities)
	})

	t.Run("max risk", func(t *testing.T) {
		opts := permissiveOpts()
		opts.MaxRiskScore = 0.01
		o := newTestOrchestrator(t, []*fakeAdapter{newAdapter()}, opts)
		result, err := o.Scan(context.Background())
		require.NoError(t, err)
		assert.Empty(t, result.Opportunities)
	})

	t.Run("min expected ROI", func(t *testing.T) {
		opts := permissiveOpts()
		opts.MinExpectedROI = 0.99
		o := newTestOrchestrator(t, []*fakeAdapter{newAdapter()}, opts)
		result, err := o.Scan(context.Background())
		require.NoError(t, err)
		assert.Empty(t, result.Opportunities)
	})
}

func TestScanTieBreaksByAddress(t *testing.T) {
	adapter := &fakeAdapter{
		name: "venus", kind: domain.PoolKindLending,
		order: []string{"0xB", "0xA"},
		details: map[string]*domain.PoolDetail{
			"0xA": lendingDetail("venus", "0xA", 1_000_000_000, 2_000_000),
			"0xB": lendingDetail("venus", "0xB", 1_000_000_000, 2_000_000),
		},
	}

	o := newTestOrchestrator(t, []*fakeAdapter{adapter}, permissiveOpts())
	result, err := o.Scan(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Opportunities, 2)
	assert.Equal(t, "0xA", result.Opportunities[0].Address)
	assert.Equal(t, "0xB", result.Opportunities[1].Address)
}

func TestScanRespectsMaxPoolsPerProtocol(t *testing.T) {
	adapter := &fakeAdapter{
		name: "venus", kind: domain.PoolKindLending,
		order: []string{"0xM1", "0xM2", "0xM3"},
		details: map[string]*domain.PoolDetail{
			"0xM1": lendingDetail("venus", "0xM1", 1_000_000_000, 2_000_000),
			"0xM2": lendingDetail("venus", "0xM2", 1_000_000_000, 2_000_000),
			"0xM3": lendingDetail("venus", "0xM3", 1_000_000_000, 2_000_000),
		},
	}

	opts := permissiveOpts()
	opts.MaxPoolsPerProtocol = 2
	o := newTestOrchestrator(t, []*fakeAdapter{adapter}, opts)
	result, err := o.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.PoolsScanned)
	assert.Len(t, result.Opportunities, 2)
}

func TestScanCancelled(t *testing.T) {
	adapter := &fakeAdapter{
		name: "venus", kind: domain.PoolKindLending,
		order: []string{"0xM1"},
		details: map[string]*domain.PoolDetail{
			"0xM1": lendingDetail("venus", "0xM1", 1_000_000_000, 2_000_000),
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newTestOrchestrator(t, []*fakeAdapter{adapter}, permissiveOpts())
	_, err := o.Scan(ctx)
	require.ErrorIs(t, err, domain.ErrContextDone)
}
