package sniper

import (
	"fmt"

	"github.com/tradertony/snipe-agent/internal/models"
)

// State is a snipe lifecycle state.
type State string

const (
	StateInit       State = "INIT"
	StateConfigured State = "CONFIGURED"
	StateArmed      State = "ARMED"
	StateExecuting  State = "EXECUTING"
	StateHolding    State = "HOLDING"
	StateClosed     State = "CLOSED"
	StateRejected   State = "REJECTED"
	StateFailed     State = "FAILED"
	StateCancelled  State = "CANCELLED"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	switch s {
	case StateClosed, StateRejected, StateFailed, StateCancelled:
		return true
	}
	return false
}

// Config is the full parameter set for one snipe. It is immutable once the
// controller leaves CONFIGURED.
type Config struct {
	Token     string `json:"token"`
	BuyAmount uint64 `json:"buy_amount"` // lamports of quote to spend

	TakeProfitPct         float64 `json:"take_profit_pct"`
	StopLossPct           float64 `json:"stop_loss_pct"`
	TrailingTakeProfitPct float64 `json:"trailing_take_profit_pct"` // 0 disables trailing
	TrailingStopLossPct   float64 `json:"trailing_stop_loss_pct"`   // 0 disables trailing

	SlippagePct float64 `json:"slippage_pct"`
	PriorityFee uint64  `json:"priority_fee"` // micro-lamports per compute unit
	AntiMEV     bool    `json:"anti_mev"`
	MaxRetries  int     `json:"max_retries"`
}

// Validate checks the config before the controller accepts it.
func (c *Config) Validate() error {
	if c.Token == "" {
		return &models.ValidationError{Field: "token", Msg: "must not be empty"}
	}
	if c.BuyAmount == 0 {
		return &models.ValidationError{Field: "buy_amount", Msg: "must be > 0"}
	}
	if c.SlippagePct < 0 || c.SlippagePct > 100 {
		return &models.ValidationError{Field: "slippage_pct", Msg: "must be in [0,100]"}
	}
	if c.TakeProfitPct < 0 {
		return &models.ValidationError{Field: "take_profit_pct", Msg: "must be >= 0"}
	}
	if c.StopLossPct < 0 {
		return &models.ValidationError{Field: "stop_loss_pct", Msg: "must be >= 0"}
	}
	if c.MaxRetries < 0 {
		return &models.ValidationError{Field: "max_retries", Msg: "must be >= 0"}
	}
	return nil
}

// Position is the controller-owned record of an open holding. Prices are
// quote lamports per token base unit.
type Position struct {
	Token          string  `json:"token"`
	PoolAddress    string  `json:"pool_address"`
	EntryPrice     float64 `json:"entry_price"`
	EntrySignature string  `json:"entry_signature"`
	TokenBalance   uint64  `json:"token_balance"`

	HighestPrice    float64 `json:"highest_price"`
	LowestPrice     float64 `json:"lowest_price"`
	TakeProfitPrice float64 `json:"take_profit_price"`
	StopLossPrice   float64 `json:"stop_loss_price"`

	// Gate verdict from the buy, carried through to the exit record.
	RiskScore     int    `json:"risk_score"`
	RiskRationale string `json:"risk_rationale"`
}

// ErrAlreadyActive is returned when a second snipe attempts to arm a token
// that another controller already holds armed or executing.
var ErrAlreadyActive = fmt.Errorf("token already armed or executing")
