package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tradertony/snipe-agent/internal/models"
)

func TestOrderTrades(t *testing.T) {
	trades := []models.Trade{
		{Block: 2, Sequence: 1},
		{Block: 1, Sequence: 5},
		{Block: 2, Sequence: 0},
	}

	ordered := orderTrades(trades)
	assert.Equal(t, uint64(1), ordered[0].Block)
	assert.Equal(t, uint64(0), ordered[1].Sequence)
	assert.Equal(t, uint64(1), ordered[2].Sequence)

	// Input untouched.
	assert.Equal(t, uint64(2), trades[0].Block)
}

func TestDetectPumpAndDump(t *testing.T) {
	// +100% jump followed by a sell worth 5x the prior trade.
	trades := []models.Trade{
		{Block: 1, Sequence: 0, Side: models.TradeBuy, Price: 1.0, Value: 100},
		{Block: 1, Sequence: 1, Side: models.TradeSell, Price: 2.0, Value: 500},
	}
	assert.True(t, DetectPumpAndDump(trades, 50))

	// Same jump but the sell is too small.
	small := []models.Trade{
		{Block: 1, Sequence: 0, Side: models.TradeBuy, Price: 1.0, Value: 100},
		{Block: 1, Sequence: 1, Side: models.TradeSell, Price: 2.0, Value: 150},
	}
	assert.False(t, DetectPumpAndDump(small, 50))

	// Jump below the threshold.
	flat := []models.Trade{
		{Block: 1, Sequence: 0, Side: models.TradeBuy, Price: 1.0, Value: 100},
		{Block: 1, Sequence: 1, Side: models.TradeSell, Price: 1.2, Value: 500},
	}
	assert.False(t, DetectPumpAndDump(flat, 50))

	// A big buy after a jump is not a dump.
	buy := []models.Trade{
		{Block: 1, Sequence: 0, Side: models.TradeBuy, Price: 1.0, Value: 100},
		{Block: 1, Sequence: 1, Side: models.TradeBuy, Price: 2.0, Value: 500},
	}
	assert.False(t, DetectPumpAndDump(buy, 50))

	assert.False(t, DetectPumpAndDump(nil, 50))
}

func TestDetectFlashLoanSpike(t *testing.T) {
	// 20 quiet trades averaging 100, then one block moving 5000.
	var trades []models.Trade
	for i := 0; i < 20; i++ {
		trades = append(trades, models.Trade{Block: uint64(i), Sequence: 0, Value: 100})
	}
	trades = append(trades, models.Trade{Block: 100, Sequence: 0, Value: 5000})

	assert.True(t, DetectFlashLoanSpike(trades))
}

func TestDetectFlashLoanSpike_SteadyVolume(t *testing.T) {
	var trades []models.Trade
	for i := 0; i < 20; i++ {
		trades = append(trades, models.Trade{Block: uint64(i), Sequence: 0, Value: 100})
	}
	assert.False(t, DetectFlashLoanSpike(trades))
	assert.False(t, DetectFlashLoanSpike(nil))
}
