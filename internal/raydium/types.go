package raydium

import (
	"github.com/gagliardetto/solana-go"
)

// PoolState is the decoded on-chain state of a constant-product pool.
type PoolState struct {
	Address      string
	Status       uint8
	TokenMint    solana.PublicKey
	LPSupply     uint64
	BaseReserve  uint64
	QuoteReserve uint64
	FeeRate      uint64 // fractional fee scaled by constants.FeeRateScale
	LastUpdate   uint64 // slot
}

// SwapQuote contains quote details for a swap. MinimumOutput is always
// <= ExpectedOutput.
type SwapQuote struct {
	InputAmount    uint64
	ExpectedOutput uint64
	MinimumOutput  uint64
	FeeAmount      uint64
	PriceImpactPct float64
}

// Pool pairs a pool account address with its decoded state.
type Pool struct {
	Address string
	State   *PoolState
}
