package risk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradertony/snipe-agent/internal/models"
)

type fakeProvider struct {
	verified  bool
	holders   int
	liquidity float64
	trades    []models.Trade
}

func (f *fakeProvider) ContractVerified(ctx context.Context, token string) (bool, error) {
	return f.verified, nil
}
func (f *fakeProvider) HolderCount(ctx context.Context, token string) (int, error) {
	return f.holders, nil
}
func (f *fakeProvider) LiquidityUSD(ctx context.Context, token string) (float64, error) {
	return f.liquidity, nil
}
func (f *fakeProvider) RecentTrades(ctx context.Context, token string) ([]models.Trade, error) {
	return f.trades, nil
}

type fakeSim struct {
	canSell bool
}

func (f *fakeSim) CanSell(ctx context.Context, token string) (bool, error) {
	return f.canSell, nil
}

func TestAnalyze_AdditiveScoring(t *testing.T) {
	// holders=5 (min 10) and liquidity=$500 (min $1000): 30+20=50, below
	// the default max of 70, so not rejected.
	provider := &fakeProvider{verified: true, holders: 5, liquidity: 500}
	a := NewAnalyzer(provider, &fakeSim{canSell: true}, DefaultConfig(), nil)

	out, err := a.Analyze(context.Background(), "token")
	require.NoError(t, err)

	assert.Equal(t, 50, out.Score)
	assert.False(t, out.Rejected)
	assert.True(t, out.LowLiquidity)
	assert.False(t, out.Honeypot)
	assert.Contains(t, out.Rationale, "holders")
	assert.Contains(t, out.Rationale, "liquidity")
}

func TestAnalyze_RejectsAboveMax(t *testing.T) {
	// unverified(50) + holders(30) = 80 > 70.
	provider := &fakeProvider{verified: false, holders: 5, liquidity: 5000}
	a := NewAnalyzer(provider, &fakeSim{canSell: true}, DefaultConfig(), nil)

	out, err := a.Analyze(context.Background(), "token")
	require.NoError(t, err)

	assert.Equal(t, 80, out.Score)
	assert.True(t, out.Rejected)
}

func TestAnalyze_HoneypotSaturates(t *testing.T) {
	// Everything else is clean; the honeypot alone forces rejection with a
	// saturated score.
	provider := &fakeProvider{verified: true, holders: 100, liquidity: 50_000}
	a := NewAnalyzer(provider, &fakeSim{canSell: false}, DefaultConfig(), nil)

	out, err := a.Analyze(context.Background(), "token")
	require.NoError(t, err)

	assert.Equal(t, 100, out.Score)
	assert.True(t, out.Honeypot)
	assert.True(t, out.Rejected)
	assert.Contains(t, out.Rationale, "honeypot")
}

func TestAnalyze_ScoreClampedTo100(t *testing.T) {
	// All additive checks fire: 50+30+20+40 = 140, clamped to 100.
	trades := []models.Trade{
		{Block: 1, Sequence: 0, Side: models.TradeBuy, Price: 1.0, Value: 100},
		{Block: 1, Sequence: 1, Side: models.TradeSell, Price: 2.0, Value: 500},
	}
	provider := &fakeProvider{verified: false, holders: 1, liquidity: 10, trades: trades}
	a := NewAnalyzer(provider, &fakeSim{canSell: true}, DefaultConfig(), nil)

	out, err := a.Analyze(context.Background(), "token")
	require.NoError(t, err)

	assert.Equal(t, 100, out.Score)
	assert.True(t, out.Rejected)
	assert.True(t, out.SuspiciousActivity)
}

func TestAnalyze_Deterministic(t *testing.T) {
	provider := &fakeProvider{verified: false, holders: 5, liquidity: 500}
	a := NewAnalyzer(provider, &fakeSim{canSell: true}, DefaultConfig(), nil)

	first, err := a.Analyze(context.Background(), "token")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := a.Analyze(context.Background(), "token")
		require.NoError(t, err)
		assert.Equal(t, first.Score, again.Score)
		assert.Equal(t, first.Rationale, again.Rationale)
		assert.Equal(t, first.Rejected, again.Rejected)
	}
}
