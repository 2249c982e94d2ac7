package constants

import "time"

// Redis keys
const (
	RedisKeyRecentAlerts = "alerts:recent"
)

// Redis Pub/Sub channels
const (
	PubSubChannelAlerts    = "alerts:live"
	PubSubChannelDiscovery = "pools:discovered"
)

// Limits
const (
	MaxRecentAlerts = 100
)

// Default intervals and timeouts
const (
	DefaultWatchInterval   = 1 * time.Second
	DefaultConfirmTimeout  = 60 * time.Second
	DefaultResubscribeBase = 1 * time.Second
	MaxResubscribeBackoff  = 30 * time.Second
)

// Program addresses
var ProgramAddresses = map[string]string{
	// Raydium AMM v4
	"Raydium": "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8",
	// Raydium pool state program watched for new pools
	"RaydiumPool": "9KEPoZmtHUrBbhWN1v1KWLMkkvwY6WLtAVUCPRtRjP4z",
}

// WSOLMint is the wrapped SOL mint.
const WSOLMint = "So11111111111111111111111111111111111111112"

// Pool account layout offsets (little-endian, fixed layout).
const (
	PoolOffsetStatus       = 0
	PoolOffsetTokenMint    = 72
	PoolOffsetLPSupply     = 168
	PoolOffsetBaseReserve  = 200
	PoolOffsetQuoteReserve = 208
	PoolOffsetFeeRate      = 216
	PoolOffsetLastUpdate   = 224
	PoolAccountMinLen      = 232
)

// FeeRateScale is the fixed-point scale of the pool fee_rate field.
const FeeRateScale = 1_000_000

// LamportsPerSOL converts lamports to SOL.
const LamportsPerSOL = 1_000_000_000
