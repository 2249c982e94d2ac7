package raydium

import (
	"fmt"
	"math/big"

	"github.com/tradertony/snipe-agent/internal/constants"
)

// Price returns the pool spot price quote_reserve/base_reserve. A drained
// base side yields 0, never a panic.
func Price(pool *PoolState) float64 {
	if pool == nil || pool.BaseReserve == 0 {
		return 0
	}
	return float64(pool.QuoteReserve) / float64(pool.BaseReserve)
}

// QuoteSwap computes a constant-product swap quote using integer arithmetic
// only; amounts are never passed through floating point. baseToQuote selects
// the direction: true swaps base->quote, false quote->base.
//
// fee       = floor(input * fee_rate / scale)
// expected  = floor(reserveOut * net / (reserveIn + net))
// minimum   = floor(expected * (10000 - slippageBps) / 10000)
func QuoteSwap(pool *PoolState, inputAmount uint64, slippageBps uint16, baseToQuote bool) (*SwapQuote, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	if inputAmount == 0 {
		return nil, fmt.Errorf("invalid inputs: amount must be > 0")
	}

	reserveIn, reserveOut := pool.BaseReserve, pool.QuoteReserve
	if !baseToQuote {
		reserveIn, reserveOut = pool.QuoteReserve, pool.BaseReserve
	}
	if reserveOut == 0 {
		return nil, fmt.Errorf("invalid inputs: output reserve is empty")
	}

	// fee on input, big.Int to prevent overflow
	inputBig := new(big.Int).SetUint64(inputAmount)
	feeBig := new(big.Int).Mul(inputBig, new(big.Int).SetUint64(pool.FeeRate))
	feeBig.Div(feeBig, big.NewInt(constants.FeeRateScale))
	fee := feeBig.Uint64()

	net := new(big.Int).Sub(inputBig, feeBig)

	// expected = reserveOut * net / (reserveIn + net)
	numerator := new(big.Int).Mul(new(big.Int).SetUint64(reserveOut), net)
	denominator := new(big.Int).Add(new(big.Int).SetUint64(reserveIn), net)
	expectedBig := new(big.Int).Div(numerator, denominator)

	if !expectedBig.IsUint64() {
		return nil, fmt.Errorf("output amount overflow")
	}
	expected := expectedBig.Uint64()

	minimum := ApplySlippage(expected, slippageBps)

	impact := float64(expected) / float64(reserveOut) * 100

	return &SwapQuote{
		InputAmount:    inputAmount,
		ExpectedOutput: expected,
		MinimumOutput:  minimum,
		FeeAmount:      fee,
		PriceImpactPct: impact,
	}, nil
}

// ApplySlippage calculates minimum output with slippage tolerance.
// slippageBps: basis points (e.g., 100 = 1%, 50 = 0.5%)
func ApplySlippage(amountOut uint64, slippageBps uint16) uint64 {
	if slippageBps >= 10000 {
		return 0 // 100% slippage = no output
	}

	factor := new(big.Int).SetUint64(10000 - uint64(slippageBps))
	result := new(big.Int).Mul(new(big.Int).SetUint64(amountOut), factor)
	result.Div(result, big.NewInt(10000))

	return result.Uint64()
}

// PercentToBps converts a percent slippage value to basis points.
func PercentToBps(pct float64) uint16 {
	if pct <= 0 {
		return 0
	}
	if pct >= 100 {
		return 10000
	}
	return uint16(pct * 100)
}
