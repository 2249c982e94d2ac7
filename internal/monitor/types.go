package monitor

import (
	"context"
	"time"

	"github.com/tradertony/snipe-agent/internal/raydium"
	"github.com/tradertony/snipe-agent/internal/stream"
)

// Source streams raw program account notifications into the monitor. The
// websocket client satisfies this; tests substitute a fake.
type Source interface {
	Run(ctx context.Context, handler stream.Handler) error
}

// MarketData supplies the sampled values per-token watches compare. Price
// oracle and volume feeds are external collaborators behind this interface.
type MarketData interface {
	PriceSOL(ctx context.Context, token string) (float64, error)
	LiquidityUSD(ctx context.Context, token string) (float64, error)
	Volume24h(ctx context.Context, token string) (float64, error)
}

// SOLPriceSource reports the current SOL/USD price. The live implementation
// queries an external price API; tests and degraded setups use a static one.
type SOLPriceSource interface {
	SOLPriceUSD(ctx context.Context) float64
}

// StaticSOLPrice is a fixed-price SOLPriceSource.
type StaticSOLPrice float64

func (s StaticSOLPrice) SOLPriceUSD(ctx context.Context) float64 { return float64(s) }

// Config holds discovery filters and watch settings. LPDeltaPct and
// LPSupplyFloor parameterize the LP-addition predicate; the defaults are
// starting points, not derived constants.
type Config struct {
	MinLiquidityUSD float64
	SOLPriceUSD     float64        // static fallback when SOLPrice is nil
	SOLPrice        SOLPriceSource // optional live price source
	WatchInterval   time.Duration
	LPDeltaPct      float64
	LPSupplyFloor   uint64
}

// Thresholds are the percentage deltas that trigger a watch alert.
type Thresholds struct {
	PricePct     float64
	LiquidityPct float64
	VolumePct    float64
}

// DefaultThresholds mirror the original monitor settings.
func DefaultThresholds() Thresholds {
	return Thresholds{PricePct: 5, LiquidityPct: 10, VolumePct: 100}
}

// PoolDiscovered is dispatched exactly once per (pool, token) pair per
// running session.
type PoolDiscovered struct {
	Pool         *raydium.PoolState
	Token        string
	PriceSOL     float64
	LiquidityUSD float64
	Slot         uint64
	Timestamp    time.Time
}

// LPAddition reports that a token's pool satisfied the LP-addition predicate:
// LP supply grew past the configured delta, or a new pool appeared with LP
// supply above the floor.
type LPAddition struct {
	Pool       *raydium.PoolState
	Token      string
	PrevSupply uint64 // 0 for a newly observed pool
	Timestamp  time.Time
}
