// Package config defines the top-level configuration for the yield scanner
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by YIELDSCAN_* environment
// variables.
type Config struct {
	Chain     ChainConfig     `toml:"chain"`
	Oracle    OracleConfig    `toml:"oracle"`
	Yield     YieldConfig     `toml:"yield"`
	Risk      RiskConfig      `toml:"risk"`
	Scan      ScanConfig      `toml:"scan"`
	History   HistoryConfig   `toml:"history"`
	Protocols ProtocolsConfig `toml:"protocols"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// ChainConfig holds JSON-RPC endpoint and chain timing parameters.
type ChainConfig struct {
	RPCURL        string `toml:"rpc_url"`
	BlocksPerYear int64  `toml:"blocks_per_year"`
	// CallTimeout bounds a single contract read.
	CallTimeout duration `toml:"call_timeout"`
}

// OracleConfig holds price-resolution parameters.
type OracleConfig struct {
	// FactoryAddress is the AMM factory used for pair discovery.
	FactoryAddress string `toml:"factory_address"`
	// ReferenceToken is the USD-pegged token prices are quoted in.
	ReferenceToken string `toml:"reference_token"`
	// QuoteTokens are intermediate tokens tried when no direct reference
	// pair exists, in priority order.
	QuoteTokens []string `toml:"quote_tokens"`
	CacheTTL    duration `toml:"cache_ttl"`
	// CacheBackend selects "memory" or "redis".
	CacheBackend string `toml:"cache_backend"`
}

// YieldConfig holds rate-computation parameters.
type YieldConfig struct {
	// MaxLendingRate caps the vault utilization model (fraction, 0.15 = 15%).
	MaxLendingRate float64 `toml:"max_lending_rate"`
}

// RiskConfig holds composite risk weights. They should sum to 1; the scorer
// clamps the composite regardless.
type RiskConfig struct {
	TVLWeight             float64 `toml:"tvl_weight"`
	VolatilityWeight      float64 `toml:"volatility_weight"`
	AgeWeight             float64 `toml:"age_weight"`
	ImpermanentLossWeight float64 `toml:"impermanent_loss_weight"`
	ProtocolWeight        float64 `toml:"protocol_weight"`
}

// ScanConfig holds orchestration and filtering parameters.
type ScanConfig struct {
	// Concurrency bounds in-flight pool detail fetches across all adapters.
	Concurrency    int      `toml:"concurrency"`
	MinExpectedROI float64  `toml:"min_expected_roi"`
	MaxRiskScore   float64  `toml:"max_risk_score"`
	MinTVLUSD      float64  `toml:"min_tvl_usd"`
	HistoryDays    int      `toml:"history_days"`
	Interval       duration `toml:"interval"`
	// MaxPoolsPerProtocol truncates enumeration on very large protocols;
	// 0 means no limit.
	MaxPoolsPerProtocol int `toml:"max_pools_per_protocol"`
}

// HistoryConfig holds subgraph and metrics API endpoints.
type HistoryConfig struct {
	SubgraphURL  string `toml:"subgraph_url"`
	SubgraphKey  string `toml:"subgraph_key"`
	DefiLlamaURL string `toml:"defillama_url"`
}

// ProtocolsConfig enumerates the protocols to scan, one list per variant.
type ProtocolsConfig struct {
	Farms   []FarmProtocolConfig    `toml:"farms"`
	Lending []LendingProtocolConfig `toml:"lending"`
	Vaults  []VaultProtocolConfig   `toml:"vaults"`
}

// FarmProtocolConfig describes one masterchef-style AMM farm protocol.
type FarmProtocolConfig struct {
	Name           string  `toml:"name"`
	Masterchef     string  `toml:"masterchef"`
	RewardToken    string  `toml:"reward_token"`
	EmissionMethod string  `toml:"emission_method"`
	BaseReputation float64 `toml:"base_reputation"`
	MetricsID      string  `toml:"metrics_id"`
}

// LendingProtocolConfig describes one comptroller-style lending protocol.
type LendingProtocolConfig struct {
	Name           string  `toml:"name"`
	Comptroller    string  `toml:"comptroller"`
	BaseReputation float64 `toml:"base_reputation"`
	MetricsID      string  `toml:"metrics_id"`
}

// VaultProtocolConfig describes one fairlaunch-style vault protocol.
type VaultProtocolConfig struct {
	Name           string  `toml:"name"`
	Fairlaunch     string  `toml:"fairlaunch"`
	RewardToken    string  `toml:"reward_token"`
	EmissionMethod string  `toml:"emission_method"`
	BaseReputation float64 `toml:"base_reputation"`
	MetricsID      string  `toml:"metrics_id"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for scan snapshots.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// NotifyConfig holds notification channel credentials and thresholds.
type NotifyConfig struct {
	TelegramToken     string  `toml:"telegram_token"`
	TelegramChatID    string  `toml:"telegram_chat_id"`
	DiscordWebhookURL string  `toml:"discord_webhook_url"`
	TopN              int     `toml:"top_n"`
	MinROI            float64 `toml:"min_roi"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the BSC mainnet protocol set and
// reasonable operational defaults.
func Defaults() Config {
	return Config{
		Chain: ChainConfig{
			RPCURL:        "https://bsc-dataseed.binance.org/",
			BlocksPerYear: 10_512_000,
			CallTimeout:   duration{10 * time.Second},
		},
		Oracle: OracleConfig{
			FactoryAddress: "0xcA143Ce32Fe78f1f7019d7d551a6402fC5350c73",
			ReferenceToken: "0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56", // BUSD
			QuoteTokens: []string{
				"0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c", // WBNB
			},
			CacheTTL:     duration{5 * time.Minute},
			CacheBackend: "memory",
		},
		Yield: YieldConfig{
			MaxLendingRate: 0.15,
		},
		Risk: RiskConfig{
			TVLWeight:             0.25,
			VolatilityWeight:      0.20,
			AgeWeight:             0.15,
			ImpermanentLossWeight: 0.20,
			ProtocolWeight:        0.20,
		},
		Scan: ScanConfig{
			Concurrency:         8,
			MinExpectedROI:      0.15,
			MaxRiskScore:        0.65,
			MinTVLUSD:           500_000,
			HistoryDays:         30,
			Interval:            duration{15 * time.Minute},
			MaxPoolsPerProtocol: 0,
		},
		History: HistoryConfig{
			SubgraphURL:  "https://api.thegraph.com/subgraphs/name/pancakeswap/exchange-v2",
			DefiLlamaURL: "https://api.llama.fi",
		},
		Protocols: ProtocolsConfig{
			Farms: []FarmProtocolConfig{
				{
					Name:           "pancakeswap",
					Masterchef:     "0x73feaa1eE314F8c655E354234017bE2193C9E24E",
					RewardToken:    "0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82", // CAKE
					EmissionMethod: "cakePerBlock",
					BaseReputation: 0.9,
					MetricsID:      "pancakeswap",
				},
				{
					Name:           "biswap",
					Masterchef:     "0xDbc1A13490deeF9c3C12b44FE77b503c1B061739",
					RewardToken:    "0x965F527D9159dCe6288a2219DB51fc6Eef120dD1", // BSW
					EmissionMethod: "BSWPerBlock",
					BaseReputation: 0.75,
					MetricsID:      "biswap",
				},
			},
			Lending: []LendingProtocolConfig{
				{
					Name:           "venus",
					Comptroller:    "0xfD36E2c2a6789Db23113685031d7F16329158384",
					BaseReputation: 0.85,
					MetricsID:      "venus",
				},
			},
			Vaults: []VaultProtocolConfig{
				{
					Name:           "alpaca",
					Fairlaunch:     "0xA625AB01B08ce023B2a342Dbb12a16f2C8489A8F",
					RewardToken:    "0x8F0528cE5eF7B51152A59745bEfDD91D97091d2F", // ALPACA
					EmissionMethod: "alpacaPerBlock",
					BaseReputation: 0.8,
					MetricsID:      "alpaca-finance",
				},
			},
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "yieldscan",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "yieldscan-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Notify: NotifyConfig{
			TopN:   5,
			MinROI: 0.25,
		},
		Mode:     "scan",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"scan":  true,
	"watch": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validCacheBackends enumerates the accepted oracle cache backends.
var validCacheBackends = map[string]bool{
	"memory": true,
	"redis":  true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: scan, watch)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Chain
	if c.Chain.RPCURL == "" {
		errs = append(errs, "chain: rpc_url must not be empty")
	}
	if c.Chain.BlocksPerYear <= 0 {
		errs = append(errs, "chain: blocks_per_year must be positive")
	}

	// Oracle
	if c.Oracle.FactoryAddress == "" {
		errs = append(errs, "oracle: factory_address must not be empty")
	}
	if c.Oracle.ReferenceToken == "" {
		errs = append(errs, "oracle: reference_token must not be empty")
	}
	if c.Oracle.CacheTTL.Duration <= 0 {
		errs = append(errs, "oracle: cache_ttl must be positive")
	}
	if !validCacheBackends[c.Oracle.CacheBackend] {
		errs = append(errs, fmt.Sprintf("oracle: unknown cache_backend %q (valid: memory, redis)", c.Oracle.CacheBackend))
	}
	if c.Oracle.CacheBackend == "redis" && c.Redis.Addr == "" {
		errs = append(errs, "oracle: cache_backend redis requires redis.addr")
	}

	// Yield
	if c.Yield.MaxLendingRate <= 0 || c.Yield.MaxLendingRate > 1 {
		errs = append(errs, fmt.Sprintf("yield: max_lending_rate must be in (0,1], got %v", c.Yield.MaxLendingRate))
	}

	// Risk weights
	for name, w := range map[string]float64{
		"tvl_weight":              c.Risk.TVLWeight,
		"volatility_weight":       c.Risk.VolatilityWeight,
		"age_weight":              c.Risk.AgeWeight,
		"impermanent_loss_weight": c.Risk.ImpermanentLossWeight,
		"protocol_weight":         c.Risk.ProtocolWeight,
	} {
		if w < 0 || w > 1 {
			errs = append(errs, fmt.Sprintf("risk: %s must be in [0,1], got %v", name, w))
		}
	}

	// Scan
	if c.Scan.Concurrency < 1 {
		errs = append(errs, "scan: concurrency must be >= 1")
	}
	if c.Scan.MaxRiskScore < 0 || c.Scan.MaxRiskScore > 1 {
		errs = append(errs, fmt.Sprintf("scan: max_risk_score must be in [0,1], got %v", c.Scan.MaxRiskScore))
	}
	if c.Scan.MinTVLUSD < 0 {
		errs = append(errs, "scan: min_tvl_usd must be >= 0")
	}
	if c.Scan.HistoryDays < 2 {
		errs = append(errs, "scan: history_days must be >= 2")
	}
	if c.Mode == "watch" && c.Scan.Interval.Duration <= 0 {
		errs = append(errs, "scan: interval must be positive in watch mode")
	}

	// History
	if c.History.SubgraphURL == "" {
		errs = append(errs, "history: subgraph_url must not be empty")
	}
	if c.History.DefiLlamaURL == "" {
		errs = append(errs, "history: defillama_url must not be empty")
	}

	// Protocols
	if len(c.Protocols.Farms)+len(c.Protocols.Lending)+len(c.Protocols.Vaults) == 0 {
		errs = append(errs, "protocols: at least one protocol must be configured")
	}
	for i, p := range c.Protocols.Farms {
		if p.Name == "" || p.Masterchef == "" || p.RewardToken == "" || p.EmissionMethod == "" {
			errs = append(errs, fmt.Sprintf("protocols.farms[%d]: name, masterchef, reward_token and emission_method are required", i))
		}
	}
	for i, p := range c.Protocols.Lending {
		if p.Name == "" || p.Comptroller == "" {
			errs = append(errs, fmt.Sprintf("protocols.lending[%d]: name and comptroller are required", i))
		}
	}
	for i, p := range c.Protocols.Vaults {
		if p.Name == "" || p.Fairlaunch == "" || p.RewardToken == "" || p.EmissionMethod == "" {
			errs = append(errs, fmt.Sprintf("protocols.vaults[%d]: name, fairlaunch, reward_token and emission_method are required", i))
		}
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	// Notify
	if c.Notify.TopN < 0 {
		errs = append(errs, "notify: top_n must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
