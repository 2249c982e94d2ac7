package server

import (
	"github.com/tradertony/snipe-agent/internal/models"
	"github.com/tradertony/snipe-agent/internal/sniper"
)

// ErrorResponse is the standard error envelope for all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details any    `json:"details,omitempty"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

type WalletResponse struct {
	Address    string  `json:"address"`
	BalanceSOL float64 `json:"balance_sol"`
}

// SnipeResponse reports one snipe's lifecycle view.
type SnipeResponse struct {
	Token    string           `json:"token"`
	State    sniper.State     `json:"state"`
	Reason   string           `json:"reason,omitempty"`
	Position *sniper.Position `json:"position,omitempty"`
}

type CancelResponse struct {
	Token     string `json:"token"`
	Cancelled bool   `json:"cancelled"`
}

// WatchRequest overrides the default alert thresholds, in percent.
type WatchRequest struct {
	PricePct     float64 `json:"price_pct"`
	LiquidityPct float64 `json:"liquidity_pct"`
	VolumePct    float64 `json:"volume_pct"`
}

type WatchResponse struct {
	Token  string `json:"token"`
	Active bool   `json:"active"`
}

type AlertsResponse struct {
	Items []models.Alert `json:"items"`
}

// TokenInfoResponse is the pool-derived view of a token. MarketCapUSD is an
// estimate from the mint supply at the current pool price; it is omitted
// when the mint account cannot be read.
type TokenInfoResponse struct {
	Token        string  `json:"token"`
	Pool         string  `json:"pool"`
	PriceSOL     float64 `json:"price_sol"`
	PriceUSD     float64 `json:"price_usd"`
	LiquidityUSD float64 `json:"liquidity_usd"`
	MarketCapUSD float64 `json:"market_cap_usd,omitempty"`
}
