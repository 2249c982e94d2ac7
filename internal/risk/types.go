package risk

import (
	"context"

	"github.com/tradertony/snipe-agent/internal/models"
)

// Assessment is the composite result of all risk checks for a token. The
// score is derived solely from the current check results and is deterministic
// for identical inputs.
type Assessment struct {
	Token              string  `json:"token"`
	Score              int     `json:"score"` // clamped to [0,100]
	Honeypot           bool    `json:"honeypot"`
	LowLiquidity       bool    `json:"low_liquidity"`
	SuspiciousActivity bool    `json:"suspicious_activity"`
	Rejected           bool    `json:"rejected"`
	Rationale          string  `json:"rationale"`
	LiquidityUSD       float64 `json:"liquidity_usd"`
	HolderCount        int     `json:"holder_count"`
}

// Config defines risk scoring parameters.
type Config struct {
	MinHolders       int
	MinLiquidityUSD  float64
	PumpThresholdPct float64 // adjacent price change that counts as a pump
	MaxScore         int     // scores above this reject the snipe
}

// DefaultConfig returns conservative scoring settings.
func DefaultConfig() Config {
	return Config{
		MinHolders:       10,
		MinLiquidityUSD:  1000,
		PumpThresholdPct: 50,
		MaxScore:         70,
	}
}

// DataProvider supplies the token facts the analyzer scores. The concrete
// values come from external collaborators (indexers, oracles); the analyzer
// itself stays pure.
type DataProvider interface {
	ContractVerified(ctx context.Context, token string) (bool, error)
	HolderCount(ctx context.Context, token string) (int, error)
	LiquidityUSD(ctx context.Context, token string) (float64, error)
	RecentTrades(ctx context.Context, token string) ([]models.Trade, error)
}

// SellSimulator answers whether a sell of the token can execute at all. A
// definitive "no" marks the token a honeypot.
type SellSimulator interface {
	CanSell(ctx context.Context, token string) (bool, error)
}
