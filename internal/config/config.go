package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// RPC settings
	RPCUrl string
	WSUrl  string

	// Wallet
	WalletPrivateKey string

	// Redis settings
	RedisAddr string

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// HTTP client settings
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	RPCRateLimit float64 // requests per second, 0 = unlimited

	// API server
	APIAddr string
	APIKey  string
	DevMode bool

	// Discovery settings
	MinLiquidityUSD float64
	SOLPriceUSD     float64 // fallback when the price API is unreachable
	JupiterPriceURL string

	// Risk settings
	MinHolders       int
	MaxRiskScore     int
	PumpThresholdPct float64

	// Snipe settings
	LPDeltaPct     float64
	LPSupplyFloor  uint64
	WatchInterval  time.Duration
	ConfirmTimeout time.Duration
}

func Load() *Config {
	return &Config{
		// RPC
		RPCUrl: getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		WSUrl:  getEnv("SOLANA_WS_URL", "wss://api.mainnet-beta.solana.com"),

		// Wallet
		WalletPrivateKey: getEnv("WALLET_PRIVATE_KEY", ""),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "sniper"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// HTTP
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 5),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 2*time.Second),
		RPCRateLimit: getFloatEnv("RPC_RATE_LIMIT", 10),

		// API
		APIAddr: getEnv("API_ADDR", ":8080"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// Discovery
		MinLiquidityUSD: getFloatEnv("MIN_LIQUIDITY_USD", 1000),
		SOLPriceUSD:     getFloatEnv("SOL_PRICE_USD", 100),
		JupiterPriceURL: getEnv("JUPITER_PRICE_URL", ""),

		// Risk
		MinHolders:       getIntEnv("RISK_MIN_HOLDERS", 10),
		MaxRiskScore:     getIntEnv("RISK_MAX_SCORE", 70),
		PumpThresholdPct: getFloatEnv("RISK_PUMP_THRESHOLD_PCT", 50),

		// Sniper
		LPDeltaPct:     getFloatEnv("SNIPER_LP_DELTA_PCT", 1),
		LPSupplyFloor:  getUint64Env("SNIPER_LP_SUPPLY_FLOOR", 1_000_000),
		WatchInterval:  getDurationEnv("WATCH_INTERVAL", time.Second),
		ConfirmTimeout: getDurationEnv("CONFIRM_TIMEOUT", 60*time.Second),
	}
}

// Validate checks the settings the agent cannot run without.
func (c *Config) Validate() error {
	if c.RPCUrl == "" {
		return fmt.Errorf("SOLANA_RPC_URL is required")
	}
	if c.WSUrl == "" {
		return fmt.Errorf("SOLANA_WS_URL is required")
	}
	if c.WalletPrivateKey == "" {
		return fmt.Errorf("WALLET_PRIVATE_KEY is required")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getUint64Env(key string, defaultVal uint64) uint64 {
	if val := os.Getenv(key); val != "" {
		if u, err := strconv.ParseUint(val, 10, 64); err == nil {
			return u
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
