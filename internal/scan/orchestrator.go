// Package scan runs full scan cycles: enumerate pools across protocol
// adapters, fetch details under bounded concurrency, assemble priced and
// risk-scored opportunities, then filter and rank them.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/alanyoungcy/yieldscan/internal/domain"
	"github.com/alanyoungcy/yieldscan/internal/oracle"
	"github.com/alanyoungcy/yieldscan/internal/protocol"
	"github.com/alanyoungcy/yieldscan/internal/risk"
	"github.com/alanyoungcy/yieldscan/internal/yield"
)

// PriceResolver resolves a token's USD price. Satisfied by *oracle.Oracle.
type PriceResolver interface {
	ResolvePrice(ctx context.Context, tokenAddress string) (float64, error)
}

// Options are the orchestration and filtering knobs for a scan cycle.
type Options struct {
	// Concurrency bounds in-flight pool fetches across all adapters.
	Concurrency int
	// MinExpectedROI drops opportunities below this risk-adjusted return
	// (fraction, 0.15 = 15%).
	MinExpectedROI float64
	// MaxRiskScore drops opportunities riskier than this composite score.
	MaxRiskScore float64
	// MinTVLUSD drops thin pools.
	MinTVLUSD float64
	// HistoryDays is the lookback window for volatility and IL series.
	HistoryDays int
	// MaxPoolsPerProtocol truncates enumeration; 0 means no limit.
	MaxPoolsPerProtocol int
}

// neutralFactor substitutes for a risk sub-score whose inputs are
// unavailable: neither optimistic nor alarming.
const neutralFactor = 0.5

// Orchestrator runs scan cycles over a fixed set of protocol adapters.
type Orchestrator struct {
	registry *protocol.Registry
	prices   PriceResolver
	calc     *yield.Calculator
	scorer   *risk.Scorer
	history  domain.HistoryProvider
	age      domain.AgeProvider
	metrics  domain.ProtocolMetricsProvider
	opts     Options
	logger   *slog.Logger
}

// New creates an Orchestrator. metrics may be nil; reputation then falls back
// to each protocol's configured base score with neutral health sub-scores.
func New(
	registry *protocol.Registry,
	prices PriceResolver,
	calc *yield.Calculator,
	scorer *risk.Scorer,
	history domain.HistoryProvider,
	age domain.AgeProvider,
	metrics domain.ProtocolMetricsProvider,
	opts Options,
	logger *slog.Logger,
) *Orchestrator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 8
	}
	return &Orchestrator{
		registry: registry,
		prices:   prices,
		calc:     calc,
		scorer:   scorer,
		history:  history,
		age:      age,
		metrics:  metrics,
		opts:     opts,
		logger:   logger.With(slog.String("component", "scan")),
	}
}

// Result is the outcome of one scan cycle.
type Result struct {
	ScanID        string               `json:"scan_id"`
	StartedAt     time.Time            `json:"started_at"`
	FinishedAt    time.Time            `json:"finished_at"`
	PoolsScanned  int                  `json:"pools_scanned"`
	PoolsFailed   int                  `json:"pools_failed"`
	Opportunities []domain.Opportunity `json:"opportunities"`
}

// task is one pool queued for fetching, with its protocol context attached.
type task struct {
	entry protocol.Entry
	ref   domain.PoolRef
}

// Scan runs one full cycle. Per-pool failures are logged and dropped; a
// protocol whose enumeration fails contributes nothing. The only error
// returned is context cancellation.
func (o *Orchestrator) Scan(ctx context.Context) (*Result, error) {
	result := &Result{
		ScanID:    uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	logger := o.logger.With(slog.String("scan_id", result.ScanID))

	reputations := o.protocolReputations(ctx)

	var tasks []task
	for _, entry := range o.registry.List() {
		refs, err := entry.Adapter.EnumeratePools(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("scan: %w", domain.ErrContextDone)
			}
			logger.Warn("pool enumeration failed",
				slog.String("protocol", entry.Adapter.Name()),
				slog.String("error", err.Error()))
			continue
		}
		if o.opts.MaxPoolsPerProtocol > 0 && len(refs) > o.opts.MaxPoolsPerProtocol {
			refs = refs[:o.opts.MaxPoolsPerProtocol]
		}
		for _, ref := range refs {
			tasks = append(tasks, task{entry: entry, ref: ref})
		}
	}
	result.PoolsScanned = len(tasks)

	sem := semaphore.NewWeighted(int64(o.opts.Concurrency))
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		opps   []domain.Opportunity
		failed int
	)

	for _, t := range tasks {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(t task) {
			defer wg.Done()
			defer sem.Release(1)

			opp, err := o.processPool(ctx, t, result.ScanID, reputations[t.entry.Adapter.Name()])
			if err != nil {
				if ctx.Err() == nil {
					logger.Warn("pool dropped",
						slog.String("protocol", t.ref.Protocol),
						slog.String("address", t.ref.Address),
						slog.Int("pid", t.ref.PID),
						slog.String("error", err.Error()))
				}
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			mu.Lock()
			opps = append(opps, opp)
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, fmt.Errorf("scan: %w", domain.ErrContextDone)
	}

	result.PoolsFailed = failed
	result.Opportunities = o.rank(o.filter(opps))
	result.FinishedAt = time.Now().UTC()

	logger.Info("scan complete",
		slog.Int("pools_scanned", result.PoolsScanned),
		slog.Int("pools_failed", result.PoolsFailed),
		slog.Int("opportunities", len(result.Opportunities)),
		slog.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)))
	return result, nil
}

// protocolReputations computes the reputation factor once per protocol before
// fan-out, so every pool of a protocol shares one score and the metrics API
// is hit once per protocol, not once per pool.
func (o *Orchestrator) protocolReputations(ctx context.Context) map[string]float64 {
	out := make(map[string]float64)
	for _, entry := range o.registry.List() {
		name := entry.Adapter.Name()
		tvlGrowth := neutralFactor
		if o.metrics != nil && entry.MetricsID != "" {
			m, err := o.metrics.Get(ctx, entry.MetricsID)
			if err != nil {
				o.logger.Warn("protocol metrics unavailable",
					slog.String("protocol", name),
					slog.String("error", err.Error()))
			} else {
				tvlGrowth = risk.TVLGrowthScore(m.TVLChange24h)
			}
		}
		// User adoption and audit freshness have no live data source yet;
		// they enter as neutral sub-scores.
		out[name] = risk.Reputation(entry.BaseReputation, tvlGrowth, neutralFactor, neutralFactor)
	}
	return out
}

// processPool fetches one pool's detail and assembles an opportunity.
func (o *Orchestrator) processPool(ctx context.Context, t task, scanID string, reputation float64) (domain.Opportunity, error) {
	detail, err := t.entry.Adapter.FetchPoolDetail(ctx, t.ref)
	if err != nil {
		return domain.Opportunity{}, err
	}

	var (
		tvl     float64
		rate    float64
		factors domain.RiskFactors
	)
	factors.Protocol = reputation

	switch detail.Ref.Kind {
	case domain.PoolKindFarm:
		tvl, rate, factors, err = o.assembleFarm(ctx, detail, factors)
	case domain.PoolKindLending:
		tvl, rate, factors, err = o.assembleLending(ctx, detail, factors)
	case domain.PoolKindVault:
		tvl, rate, factors, err = o.assembleVault(ctx, detail, factors)
	default:
		err = fmt.Errorf("scan: unknown pool kind %q", detail.Ref.Kind)
	}
	if err != nil {
		return domain.Opportunity{}, err
	}

	factors.TVL = risk.TVLRisk(tvl)
	score := o.scorer.Composite(factors)

	return domain.Opportunity{
		ID:          uuid.NewString(),
		ScanID:      scanID,
		Protocol:    detail.Ref.Protocol,
		Kind:        detail.Ref.Kind,
		Address:     detail.Ref.Address,
		TVLUSD:      tvl,
		RatePercent: rate,
		RiskScore:   score,
		ExpectedROI: rate / 100 * (1 - score),
		Timestamp:   time.Now().UTC(),
	}, nil
}

// assembleFarm prices both pair tokens, computes pool TVL from normalized
// reserves, and derives volatility and IL factors from the tokens' daily
// price histories.
func (o *Orchestrator) assembleFarm(ctx context.Context, detail *domain.PoolDetail, factors domain.RiskFactors) (float64, float64, domain.RiskFactors, error) {
	farm := detail.Farm

	price0, err := o.prices.ResolvePrice(ctx, farm.Token0.Address)
	if err != nil {
		return 0, 0, factors, err
	}
	price1, err := o.prices.ResolvePrice(ctx, farm.Token1.Address)
	if err != nil {
		return 0, 0, factors, err
	}
	rewardPrice, err := o.prices.ResolvePrice(ctx, farm.RewardToken.Address)
	if err != nil {
		return 0, 0, factors, err
	}

	tvl := oracle.Normalize(farm.Reserve0, farm.Token0.Decimals)*price0 +
		oracle.Normalize(farm.Reserve1, farm.Token1.Decimals)*price1

	rate := o.calc.FarmAPR(farm.EmissionPerBlock, farm.AllocPoint, farm.TotalAllocPoint, rewardPrice, tvl)

	series0, err := o.seriesValues(ctx, domain.SeriesRef{Kind: domain.SeriesTokenPriceUSD, Address: farm.Token0.Address})
	if err != nil {
		return 0, 0, factors, err
	}
	series1, err := o.seriesValues(ctx, domain.SeriesRef{Kind: domain.SeriesTokenPriceUSD, Address: farm.Token1.Address})
	if err != nil {
		return 0, 0, factors, err
	}

	switch {
	case series0 != nil && series1 != nil:
		factors.Volatility = max(risk.Volatility(series0), risk.Volatility(series1))
		factors.ImpermanentLoss = risk.ImpermanentLoss(series0, series1)
	default:
		// Token histories missing; a pair-level TVL history still carries a
		// volatility signal.
		pairSeries, err := o.seriesValues(ctx, domain.SeriesRef{Kind: domain.SeriesPairTVLUSD, Address: detail.Ref.Address})
		if err != nil {
			return 0, 0, factors, err
		}
		if pairSeries != nil {
			factors.Volatility = risk.Volatility(pairSeries)
		} else {
			factors.Volatility = neutralFactor
		}
		factors.ImpermanentLoss = neutralFactor
	}

	factors.Age = o.ageFactor(ctx, detail.Ref.Address)
	return tvl, rate, factors, nil
}

// assembleLending prices the underlying, sizes the market as
// totalSupply·exchangeRate, and compounds the per-block supply rate. A single
// asset has no impermanent loss, and markets carry no creation record, so
// those factors are 0 and neutral respectively.
func (o *Orchestrator) assembleLending(ctx context.Context, detail *domain.PoolDetail, factors domain.RiskFactors) (float64, float64, domain.RiskFactors, error) {
	lend := detail.Lending

	price, err := o.prices.ResolvePrice(ctx, lend.Underlying.Address)
	if err != nil {
		return 0, 0, factors, err
	}

	tvl := oracle.Normalize(supplyUnderlying(lend.TotalSupply, lend.ExchangeRate), lend.Underlying.Decimals) * price
	rate := o.calc.LendingAPY(lend.SupplyRatePerBlock)

	series, err := o.seriesValues(ctx, domain.SeriesRef{Kind: domain.SeriesTokenPriceUSD, Address: lend.Underlying.Address})
	if err != nil {
		return 0, 0, factors, err
	}
	if series != nil {
		factors.Volatility = risk.Volatility(series)
	} else {
		factors.Volatility = neutralFactor
	}
	factors.ImpermanentLoss = 0
	factors.Age = neutralFactor
	return tvl, rate, factors, nil
}

// assembleVault prices the underlying and combines the vault's utilization
// yield with the reward emission APR over the same TVL.
func (o *Orchestrator) assembleVault(ctx context.Context, detail *domain.PoolDetail, factors domain.RiskFactors) (float64, float64, domain.RiskFactors, error) {
	vault := detail.Vault

	price, err := o.prices.ResolvePrice(ctx, vault.Underlying.Address)
	if err != nil {
		return 0, 0, factors, err
	}
	rewardPrice, err := o.prices.ResolvePrice(ctx, vault.RewardToken.Address)
	if err != nil {
		return 0, 0, factors, err
	}

	tvl := oracle.Normalize(vault.TotalDeposited, vault.Underlying.Decimals) * price
	rate := o.calc.VaultBaseAPR(vault.TotalDeposited, vault.TotalDebt) +
		o.calc.FarmAPR(vault.EmissionPerBlock, vault.AllocPoint, vault.TotalAllocPoint, rewardPrice, tvl)

	series, err := o.seriesValues(ctx, domain.SeriesRef{Kind: domain.SeriesTokenPriceUSD, Address: vault.Underlying.Address})
	if err != nil {
		return 0, 0, factors, err
	}
	if series != nil {
		factors.Volatility = risk.Volatility(series)
	} else {
		factors.Volatility = neutralFactor
	}
	factors.ImpermanentLoss = 0
	factors.Age = neutralFactor
	return tvl, rate, factors, nil
}

// seriesValues fetches a daily series and strips it to values. An entity the
// provider has never indexed is reported as (nil, nil); transport failures
// propagate and drop the item.
func (o *Orchestrator) seriesValues(ctx context.Context, ref domain.SeriesRef) ([]float64, error) {
	points, err := o.history.DailySeries(ctx, ref, o.opts.HistoryDays)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	return values, nil
}

// ageFactor derives the age risk factor from the pair's creation time,
// neutral when the creation record is unknown.
func (o *Orchestrator) ageFactor(ctx context.Context, pairAddress string) float64 {
	createdAt, err := o.age.CreatedAt(ctx, pairAddress)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && ctx.Err() == nil {
			o.logger.Warn("pool age unavailable",
				slog.String("address", pairAddress),
				slog.String("error", err.Error()))
		}
		return neutralFactor
	}
	ageDays := int(time.Since(createdAt).Hours() / 24)
	return risk.AgeRisk(ageDays)
}

// filter applies the configured opportunity thresholds.
func (o *Orchestrator) filter(opps []domain.Opportunity) []domain.Opportunity {
	out := make([]domain.Opportunity, 0, len(opps))
	for _, opp := range opps {
		if opp.ExpectedROI < o.opts.MinExpectedROI {
			continue
		}
		if opp.RiskScore > o.opts.MaxRiskScore {
			continue
		}
		if opp.TVLUSD < o.opts.MinTVLUSD {
			continue
		}
		out = append(out, opp)
	}
	return out
}

// rank sorts by ExpectedROI descending, then RiskScore ascending, then
// Address ascending so equal-scoring items order deterministically.
func (o *Orchestrator) rank(opps []domain.Opportunity) []domain.Opportunity {
	sort.Slice(opps, func(i, j int) bool {
		if opps[i].ExpectedROI != opps[j].ExpectedROI {
			return opps[i].ExpectedROI > opps[j].ExpectedROI
		}
		if opps[i].RiskScore != opps[j].RiskScore {
			return opps[i].RiskScore < opps[j].RiskScore
		}
		return opps[i].Address < opps[j].Address
	})
	return opps
}

// supplyUnderlying converts market-token supply to underlying units via the
// 1e18-scaled exchange rate.
func supplyUnderlying(totalSupply, exchangeRate *big.Int) *big.Int {
	if totalSupply == nil || exchangeRate == nil {
		return big.NewInt(0)
	}
	product := new(big.Int).Mul(totalSupply, exchangeRate)
	return product.Div(product, big.NewInt(1e18))
}
