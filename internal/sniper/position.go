package sniper

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tradertony/snipe-agent/internal/constants"
	"github.com/tradertony/snipe-agent/internal/raydium"
)

// Exit reasons recorded on a closed position.
const (
	ExitTakeProfit = "TAKE_PROFIT"
	ExitStopLoss   = "STOP_LOSS"
)

// NewPosition builds the position record from a confirmed buy. Entry price
// comes from the realized balance delta inside BuyResult, not the pre-trade
// quote.
func NewPosition(cfg *Config, buy *BuyResult) *Position {
	entry := buy.EntryPrice
	pos := &Position{
		Token:          cfg.Token,
		PoolAddress:    buy.Pool.Address,
		EntryPrice:     entry,
		EntrySignature: buy.Signature,
		TokenBalance:   buy.TokensReceived,
		HighestPrice:   entry,
		LowestPrice:    entry,
	}
	if cfg.TakeProfitPct > 0 {
		pos.TakeProfitPrice = entry * (1 + cfg.TakeProfitPct/100)
	}
	if cfg.StopLossPct > 0 {
		pos.StopLossPrice = entry * (1 - cfg.StopLossPct/100)
	}
	return pos
}

// PoolWatcher reads current pool state for price sampling.
type PoolWatcher interface {
	RefreshPool(ctx context.Context, address string) (*raydium.PoolState, error)
}

// ExitSeller executes the exit swap for a held position.
type ExitSeller interface {
	ExecuteSell(ctx context.Context, cfg *Config, pos *Position, reason string) (*SellResult, error)
}

// PositionMonitor samples the pool price at a fixed interval and exits the
// position on a take-profit or stop-loss breach. Take-profit is evaluated
// before stop-loss on every tick, so exactly one reason fires when both
// thresholds are crossed at once.
type PositionMonitor struct {
	seller   ExitSeller
	pools    PoolWatcher
	cfg      *Config
	pos      *Position
	interval time.Duration
	logger   *logrus.Logger

	// Trailing triggers arm once the price clears the static target; from
	// then on the trigger trails the watermark instead of staying fixed.
	trailTPArmed bool
	trailSLArmed bool
	initialTP    float64
	initialSL    float64
}

func NewPositionMonitor(seller ExitSeller, pools PoolWatcher, cfg *Config, pos *Position, interval time.Duration, logger *logrus.Logger) *PositionMonitor {
	if interval <= 0 {
		interval = constants.DefaultWatchInterval
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &PositionMonitor{
		seller:    seller,
		pools:     pools,
		cfg:       cfg,
		pos:       pos,
		interval:  interval,
		logger:    logger,
		initialTP: pos.TakeProfitPrice,
		initialSL: pos.StopLossPrice,
	}
}

// Position returns the monitored position record.
func (p *PositionMonitor) Position() *Position { return p.pos }

// Run samples until the position exits or the context is cancelled. Returns
// the exit reason on a successful sell; a cancelled context returns the
// context error with the position still held. A failed sell is logged and the
// position re-evaluated on the next tick rather than abandoned.
func (p *PositionMonitor) Run(ctx context.Context) (string, *SellResult, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", nil, ctx.Err()
		case <-ticker.C:
		}

		state, err := p.pools.RefreshPool(ctx, p.pos.PoolAddress)
		if err != nil {
			if ctx.Err() != nil {
				return "", nil, ctx.Err()
			}
			p.logger.WithError(err).WithField("token", p.pos.Token).Warn("price sample failed")
			continue
		}
		price := raydium.Price(state)
		if price <= 0 {
			continue
		}

		reason := p.Evaluate(price)
		if reason == "" {
			continue
		}

		res, err := p.seller.ExecuteSell(ctx, p.cfg, p.pos, reason)
		if err != nil {
			if ctx.Err() != nil {
				return "", nil, ctx.Err()
			}
			p.logger.WithError(err).WithFields(logrus.Fields{
				"token":  p.pos.Token,
				"reason": reason,
			}).Warn("exit sell failed, position stays open")
			continue
		}
		return reason, res, nil
	}
}

// Evaluate updates watermarks and trailing triggers for one price sample and
// returns the exit reason, or "" to keep holding.
func (p *PositionMonitor) Evaluate(price float64) string {
	pos := p.pos

	if price > pos.HighestPrice {
		pos.HighestPrice = price
	}
	if price < pos.LowestPrice {
		pos.LowestPrice = price
	}

	// Trailing take-profit: once the watermark clears the static target the
	// trigger trails the watermark, ratcheting up monotonically.
	if p.cfg.TrailingTakeProfitPct > 0 && p.initialTP > 0 && pos.HighestPrice >= p.initialTP {
		trailed := pos.HighestPrice * (1 - p.cfg.TrailingTakeProfitPct/100)
		if !p.trailTPArmed || trailed > pos.TakeProfitPrice {
			pos.TakeProfitPrice = trailed
			p.trailTPArmed = true
		}
	}

	// Trailing stop-loss ratchets downward from the low watermark once it
	// breaches the static level.
	if p.cfg.TrailingStopLossPct > 0 && p.initialSL > 0 && pos.LowestPrice <= p.initialSL {
		trailed := pos.LowestPrice * (1 + p.cfg.TrailingStopLossPct/100)
		if !p.trailSLArmed || trailed < pos.StopLossPrice {
			pos.StopLossPrice = trailed
			p.trailSLArmed = true
		}
	}

	// Take-profit before stop-loss, deterministically.
	if p.trailTPArmed {
		if price <= pos.TakeProfitPrice {
			return ExitTakeProfit
		}
	} else if p.initialTP > 0 && price >= pos.TakeProfitPrice {
		return ExitTakeProfit
	}

	if p.trailSLArmed {
		if price >= pos.StopLossPrice {
			return ExitStopLoss
		}
	} else if p.initialSL > 0 && price <= pos.StopLossPrice {
		return ExitStopLoss
	}

	return ""
}
