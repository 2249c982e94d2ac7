package sniper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradertony/snipe-agent/internal/models"
	"github.com/tradertony/snipe-agent/internal/raydium"
)

func testPosition(t *testing.T, cfg *Config, entry float64) (*Position, *PositionMonitor) {
	t.Helper()
	buy := &BuyResult{
		Signature:      "entry-sig",
		Pool:           &raydium.Pool{Address: "pool-1"},
		TokensReceived: 1_000_000,
		EntryPrice:     entry,
	}
	pos := NewPosition(cfg, buy)
	pm := NewPositionMonitor(nil, nil, cfg, pos, time.Second, nil)
	return pos, pm
}

func TestNewPosition_Thresholds(t *testing.T) {
	cfg := &Config{Token: "tok", BuyAmount: 1, TakeProfitPct: 50, StopLossPct: 20}
	pos, _ := testPosition(t, cfg, 1.0)

	assert.Equal(t, 1.0, pos.EntryPrice)
	assert.InDelta(t, 1.5, pos.TakeProfitPrice, 1e-12)
	assert.InDelta(t, 0.8, pos.StopLossPrice, 1e-12)
	assert.Equal(t, 1.0, pos.HighestPrice)
	assert.Equal(t, 1.0, pos.LowestPrice)
}

func TestEvaluate_StaticTakeProfit(t *testing.T) {
	cfg := &Config{Token: "tok", BuyAmount: 1, TakeProfitPct: 50, StopLossPct: 20}
	_, pm := testPosition(t, cfg, 1.0)

	assert.Equal(t, "", pm.Evaluate(1.2))
	assert.Equal(t, "", pm.Evaluate(1.49))
	assert.Equal(t, ExitTakeProfit, pm.Evaluate(1.5))
}

func TestEvaluate_StaticStopLoss(t *testing.T) {
	cfg := &Config{Token: "tok", BuyAmount: 1, TakeProfitPct: 50, StopLossPct: 10}
	pos, pm := testPosition(t, cfg, 1.0)

	assert.Equal(t, "", pm.Evaluate(0.95))
	assert.Equal(t, ExitStopLoss, pm.Evaluate(0.9))
	assert.Equal(t, 0.9, pos.LowestPrice)
}

func TestEvaluate_TrailingTakeProfit(t *testing.T) {
	// entry 1.0, take profit 50%, trailing 10%: a rise to 1.6 ratchets the
	// trigger to 1.44; the fall to 1.44 takes profit there, not at the
	// static 1.5.
	cfg := &Config{Token: "tok", BuyAmount: 1, TakeProfitPct: 50, TrailingTakeProfitPct: 10, StopLossPct: 20}
	pos, pm := testPosition(t, cfg, 1.0)

	assert.Equal(t, "", pm.Evaluate(1.2))
	assert.Equal(t, "", pm.Evaluate(1.6))
	assert.InDelta(t, 1.44, pos.TakeProfitPrice, 1e-9)
	assert.Equal(t, 1.6, pos.HighestPrice)

	// Still above the trailed trigger.
	assert.Equal(t, "", pm.Evaluate(1.5))

	assert.Equal(t, ExitTakeProfit, pm.Evaluate(1.44))
}

func TestEvaluate_TrailingRatchetsMonotonically(t *testing.T) {
	cfg := &Config{Token: "tok", BuyAmount: 1, TakeProfitPct: 50, TrailingTakeProfitPct: 10, StopLossPct: 20}
	pos, pm := testPosition(t, cfg, 1.0)

	require.Equal(t, "", pm.Evaluate(1.6))
	first := pos.TakeProfitPrice

	// A dip does not loosen the trigger.
	require.Equal(t, "", pm.Evaluate(1.5))
	assert.Equal(t, first, pos.TakeProfitPrice)

	// A new high tightens it.
	require.Equal(t, "", pm.Evaluate(2.0))
	assert.Greater(t, pos.TakeProfitPrice, first)
	assert.InDelta(t, 1.8, pos.TakeProfitPrice, 1e-9)
}

func TestEvaluate_TakeProfitBeforeStopLoss(t *testing.T) {
	// After the trailing trigger arms, a crash below both thresholds exits
	// as TAKE_PROFIT: take-profit is evaluated first, deterministically.
	cfg := &Config{Token: "tok", BuyAmount: 1, TakeProfitPct: 50, TrailingTakeProfitPct: 10, StopLossPct: 10}
	_, pm := testPosition(t, cfg, 1.0)

	require.Equal(t, "", pm.Evaluate(1.6))
	assert.Equal(t, ExitTakeProfit, pm.Evaluate(0.85))
}

// fixedPools reports the same pool price on every sample.
type fixedPools struct {
	price float64
}

func (f *fixedPools) RefreshPool(ctx context.Context, address string) (*raydium.PoolState, error) {
	base := uint64(1_000_000_000)
	return &raydium.PoolState{
		Address:      address,
		Status:       1,
		BaseReserve:  base,
		QuoteReserve: uint64(f.price * float64(base)),
	}, nil
}

// flakySeller fails a set number of sells before succeeding.
type flakySeller struct {
	mu       sync.Mutex
	failures int
	reasons  []string
}

func (s *flakySeller) ExecuteSell(ctx context.Context, cfg *Config, pos *Position, reason string) (*SellResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reasons = append(s.reasons, reason)
	if s.failures > 0 {
		s.failures--
		return nil, &models.TransientChainError{Op: "sendTransaction", Err: context.DeadlineExceeded}
	}
	return &SellResult{Signature: "exit-sig", AmountIn: pos.TokenBalance}, nil
}

func TestRun_SellFailureKeepsHolding(t *testing.T) {
	// The price sits above take-profit on every tick. The first exit sell
	// fails; the position must stay held and the exit retried on the next
	// tick rather than abandoned.
	cfg := &Config{Token: "tok", BuyAmount: 1, TakeProfitPct: 50, StopLossPct: 20}
	pos, _ := testPosition(t, cfg, 1.0)

	seller := &flakySeller{failures: 1}
	pm := NewPositionMonitor(seller, &fixedPools{price: 1.6}, cfg, pos, 2*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reason, res, err := pm.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExitTakeProfit, reason)
	require.NotNil(t, res)
	assert.Equal(t, "exit-sig", res.Signature)

	// One failed attempt, then the retry that closed the position.
	assert.Equal(t, []string{ExitTakeProfit, ExitTakeProfit}, seller.reasons)
}

func TestRun_CancelWhileHolding(t *testing.T) {
	// Cancellation stops sampling without a forced exit.
	cfg := &Config{Token: "tok", BuyAmount: 1, TakeProfitPct: 50, StopLossPct: 20}
	pos, _ := testPosition(t, cfg, 1.0)

	seller := &flakySeller{}
	pm := NewPositionMonitor(seller, &fixedPools{price: 1.1}, cfg, pos, 2*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	reason, res, err := pm.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, reason)
	assert.Nil(t, res)
	assert.Empty(t, seller.reasons)
}

func TestEvaluate_NoThresholds(t *testing.T) {
	// Neither take-profit nor stop-loss configured: nothing ever fires.
	cfg := &Config{Token: "tok", BuyAmount: 1}
	_, pm := testPosition(t, cfg, 1.0)

	for _, price := range []float64{0.1, 1.0, 100.0} {
		assert.Equal(t, "", pm.Evaluate(price))
	}
}
