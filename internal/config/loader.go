package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies YIELDSCAN_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known YIELDSCAN_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Chain ──
	setStr(&cfg.Chain.RPCURL, "YIELDSCAN_CHAIN_RPC_URL")
	setInt64(&cfg.Chain.BlocksPerYear, "YIELDSCAN_CHAIN_BLOCKS_PER_YEAR")
	setDuration(&cfg.Chain.CallTimeout, "YIELDSCAN_CHAIN_CALL_TIMEOUT")

	// ── Oracle ──
	setStr(&cfg.Oracle.FactoryAddress, "YIELDSCAN_ORACLE_FACTORY_ADDRESS")
	setStr(&cfg.Oracle.ReferenceToken, "YIELDSCAN_ORACLE_REFERENCE_TOKEN")
	setStringSlice(&cfg.Oracle.QuoteTokens, "YIELDSCAN_ORACLE_QUOTE_TOKENS")
	setDuration(&cfg.Oracle.CacheTTL, "YIELDSCAN_ORACLE_CACHE_TTL")
	setStr(&cfg.Oracle.CacheBackend, "YIELDSCAN_ORACLE_CACHE_BACKEND")

	// ── Scan ──
	setInt(&cfg.Scan.Concurrency, "YIELDSCAN_SCAN_CONCURRENCY")
	setFloat64(&cfg.Scan.MinExpectedROI, "YIELDSCAN_SCAN_MIN_EXPECTED_ROI")
	setFloat64(&cfg.Scan.MaxRiskScore, "YIELDSCAN_SCAN_MAX_RISK_SCORE")
	setFloat64(&cfg.Scan.MinTVLUSD, "YIELDSCAN_SCAN_MIN_TVL_USD")
	setInt(&cfg.Scan.HistoryDays, "YIELDSCAN_SCAN_HISTORY_DAYS")
	setDuration(&cfg.Scan.Interval, "YIELDSCAN_SCAN_INTERVAL")
	setInt(&cfg.Scan.MaxPoolsPerProtocol, "YIELDSCAN_SCAN_MAX_POOLS_PER_PROTOCOL")

	// ── History ──
	setStr(&cfg.History.SubgraphURL, "YIELDSCAN_HISTORY_SUBGRAPH_URL")
	setStr(&cfg.History.SubgraphKey, "YIELDSCAN_HISTORY_SUBGRAPH_KEY")
	setStr(&cfg.History.DefiLlamaURL, "YIELDSCAN_HISTORY_DEFILLAMA_URL")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "YIELDSCAN_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "YIELDSCAN_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "YIELDSCAN_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "YIELDSCAN_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "YIELDSCAN_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "YIELDSCAN_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "YIELDSCAN_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "YIELDSCAN_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "YIELDSCAN_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "YIELDSCAN_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "YIELDSCAN_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "YIELDSCAN_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "YIELDSCAN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "YIELDSCAN_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "YIELDSCAN_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "YIELDSCAN_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "YIELDSCAN_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "YIELDSCAN_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "YIELDSCAN_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "YIELDSCAN_S3_REGION")
	setStr(&cfg.S3.Bucket, "YIELDSCAN_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "YIELDSCAN_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "YIELDSCAN_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "YIELDSCAN_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "YIELDSCAN_S3_FORCE_PATH_STYLE")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "YIELDSCAN_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "YIELDSCAN_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "YIELDSCAN_NOTIFY_DISCORD_WEBHOOK_URL")
	setInt(&cfg.Notify.TopN, "YIELDSCAN_NOTIFY_TOP_N")
	setFloat64(&cfg.Notify.MinROI, "YIELDSCAN_NOTIFY_MIN_ROI")

	// ── Top-level ──
	setStr(&cfg.Mode, "YIELDSCAN_MODE")
	setStr(&cfg.LogLevel, "YIELDSCAN_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
