package models

import "time"

// AlertType classifies a watch alert.
type AlertType string

const (
	AlertPriceChange     AlertType = "PRICE_CHANGE"
	AlertLiquidityChange AlertType = "LIQUIDITY_CHANGE"
	AlertVolumeSpike     AlertType = "VOLUME_SPIKE"
)

// Alert is a threshold-breach notification emitted by a token watch.
type Alert struct {
	Type      AlertType `json:"type"`
	Token     string    `json:"token"`
	DeltaPct  float64   `json:"delta_pct"`
	Current   float64   `json:"current"`
	Previous  float64   `json:"previous"`
	Timestamp time.Time `json:"timestamp"`
}

// PoolDiscovery is the pub/sub form of a pool discovery event.
type PoolDiscovery struct {
	Pool         string    `json:"pool"`
	Token        string    `json:"token"`
	PriceSOL     float64   `json:"price_sol"`
	LiquidityUSD float64   `json:"liquidity_usd"`
	Slot         uint64    `json:"slot"`
	Timestamp    time.Time `json:"timestamp"`
}

// TradeSide marks a trade direction in token trade history.
type TradeSide string

const (
	TradeBuy  TradeSide = "BUY"
	TradeSell TradeSide = "SELL"
)

// Trade is one historical trade, ordered by (Block, Sequence).
type Trade struct {
	Block     uint64    `json:"block"`
	Sequence  uint64    `json:"sequence"`
	Signature string    `json:"signature"`
	Token     string    `json:"token"`
	Side      TradeSide `json:"side"`
	Value     float64   `json:"value"` // trade size in quote terms
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// SnipeRecord is the persisted outcome of one snipe lifecycle.
type SnipeRecord struct {
	Token         string    `json:"token"`
	Signature     string    `json:"signature"`
	Side          string    `json:"side"` // "BUY" or "SELL"
	AmountIn      uint64    `json:"amount_in"`
	AmountOut     uint64    `json:"amount_out"`
	Price         float64   `json:"price"`
	Reason        string    `json:"reason"` // entry, TAKE_PROFIT, STOP_LOSS
	Slot          uint64    `json:"slot"`
	Timestamp     time.Time `json:"timestamp"`
	FinalState    string    `json:"final_state"`
	RiskScore     int       `json:"risk_score"`
	RiskRationale string    `json:"risk_rationale"`
}
