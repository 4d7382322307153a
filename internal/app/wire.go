package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/yieldscan/internal/blob/s3"
	"github.com/alanyoungcy/yieldscan/internal/cache/memory"
	"github.com/alanyoungcy/yieldscan/internal/cache/redis"
	"github.com/alanyoungcy/yieldscan/internal/chain"
	"github.com/alanyoungcy/yieldscan/internal/config"
	"github.com/alanyoungcy/yieldscan/internal/domain"
	"github.com/alanyoungcy/yieldscan/internal/history"
	"github.com/alanyoungcy/yieldscan/internal/notify"
	"github.com/alanyoungcy/yieldscan/internal/oracle"
	"github.com/alanyoungcy/yieldscan/internal/protocol"
	"github.com/alanyoungcy/yieldscan/internal/risk"
	"github.com/alanyoungcy/yieldscan/internal/scan"
	"github.com/alanyoungcy/yieldscan/internal/store/postgres"
	"github.com/alanyoungcy/yieldscan/internal/yield"
)

// Dependencies bundles everything the application modes need. Optional
// members (Store, Archiver) are nil when their backend is disabled in
// configuration; modes check before use.
type Dependencies struct {
	Orchestrator *scan.Orchestrator
	Store        domain.OpportunityStore
	Archiver     *s3blob.Archiver
	Alerter      *notify.Alerter
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Chain reader ---
	reader, err := chain.Dial(ctx, cfg.Chain.RPCURL, cfg.Chain.CallTimeout.Duration)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: chain: %w", err)
	}
	closers = append(closers, reader.Close)

	// --- Price cache ---
	var priceCache domain.PriceCache
	switch cfg.Oracle.CacheBackend {
	case "redis":
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		priceCache = redis.NewPriceCache(redisClient, cfg.Oracle.CacheTTL.Duration)
	default:
		priceCache = memory.NewPriceCache(cfg.Oracle.CacheTTL.Duration)
	}

	// --- Core engine ---
	priceOracle := oracle.New(reader, priceCache,
		cfg.Oracle.FactoryAddress, cfg.Oracle.ReferenceToken, cfg.Oracle.QuoteTokens, logger)
	calc := yield.NewCalculator(cfg.Chain.BlocksPerYear, cfg.Yield.MaxLendingRate)
	scorer := risk.NewScorer(risk.Weights{
		TVL:             cfg.Risk.TVLWeight,
		Volatility:      cfg.Risk.VolatilityWeight,
		Age:             cfg.Risk.AgeWeight,
		ImpermanentLoss: cfg.Risk.ImpermanentLossWeight,
		Protocol:        cfg.Risk.ProtocolWeight,
	})

	registry, err := protocol.Build(cfg.Protocols, reader)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: protocols: %w", err)
	}

	subgraph := history.NewSubgraphClient(cfg.History.SubgraphURL, cfg.History.SubgraphKey)
	metrics := history.NewDefiLlamaClient(cfg.History.DefiLlamaURL)

	deps.Orchestrator = scan.New(registry, priceOracle, calc, scorer,
		subgraph, subgraph, metrics,
		scan.Options{
			Concurrency:         cfg.Scan.Concurrency,
			MinExpectedROI:      cfg.Scan.MinExpectedROI,
			MaxRiskScore:        cfg.Scan.MaxRiskScore,
			MinTVLUSD:           cfg.Scan.MinTVLUSD,
			HistoryDays:         cfg.Scan.HistoryDays,
			MaxPoolsPerProtocol: cfg.Scan.MaxPoolsPerProtocol,
		}, logger)

	// --- PostgreSQL ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.Store = postgres.NewOpportunityStore(pgClient.Pool())
	}

	// --- S3 snapshot archival ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client))
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Alerter = notify.NewAlerter(senders, cfg.Notify.TopN, cfg.Notify.MinROI, logger)
	}

	return deps, cleanup, nil
}
