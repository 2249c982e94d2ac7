package risk

import (
	"sort"

	"github.com/tradertony/snipe-agent/internal/models"
)

// orderTrades returns trades sorted by block then sequence. The detectors
// require this ordering; the input slice is not modified.
func orderTrades(trades []models.Trade) []models.Trade {
	out := make([]models.Trade, len(trades))
	copy(out, trades)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Block != out[j].Block {
			return out[i].Block < out[j].Block
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out
}

// DetectPumpAndDump looks for a sudden price increase followed by a large
// sell: an adjacent pair where the price change exceeds thresholdPct and the
// following trade is a sell worth at least twice the prior trade's value.
func DetectPumpAndDump(trades []models.Trade, thresholdPct float64) bool {
	for i := 0; i+1 < len(trades); i++ {
		prev, next := trades[i], trades[i+1]
		if prev.Price == 0 {
			continue
		}
		changePct := (next.Price - prev.Price) / prev.Price * 100
		if changePct > thresholdPct && next.Side == models.TradeSell && next.Value >= prev.Value*2 {
			return true
		}
	}
	return false
}

// DetectFlashLoanSpike looks for any block whose aggregate volume exceeds
// 10x the trailing 100-trade average.
func DetectFlashLoanSpike(trades []models.Trade) bool {
	if len(trades) == 0 {
		return false
	}

	window := trades
	if len(window) > 100 {
		window = window[len(window)-100:]
	}
	var total float64
	for _, t := range window {
		total += t.Value
	}
	average := total / float64(len(window))
	if average == 0 {
		return false
	}

	blockVolume := make(map[uint64]float64)
	for _, t := range trades {
		blockVolume[t.Block] += t.Value
	}
	for _, vol := range blockVolume {
		if vol > average*10 {
			return true
		}
	}
	return false
}
