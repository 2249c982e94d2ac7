package raydium

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/tradertony/snipe-agent/internal/constants"
	"github.com/tradertony/snipe-agent/internal/models"
)

// DecodePool decodes raw pool account bytes into a PoolState. The layout is
// fixed little-endian: status u8@0, token_mint 32B@72, lp_supply u64@168,
// base_reserve u64@200, quote_reserve u64@208, fee_rate u64@216,
// last_update u64@224.
func DecodePool(address string, data []byte) (*PoolState, error) {
	if len(data) < constants.PoolAccountMinLen {
		return nil, &models.CodecError{
			Account: address,
			Msg:     fmt.Sprintf("account data too short: %d bytes, need %d", len(data), constants.PoolAccountMinLen),
		}
	}

	var mint solana.PublicKey
	copy(mint[:], data[constants.PoolOffsetTokenMint:constants.PoolOffsetTokenMint+32])

	return &PoolState{
		Address:      address,
		Status:       data[constants.PoolOffsetStatus],
		TokenMint:    mint,
		LPSupply:     binary.LittleEndian.Uint64(data[constants.PoolOffsetLPSupply:]),
		BaseReserve:  binary.LittleEndian.Uint64(data[constants.PoolOffsetBaseReserve:]),
		QuoteReserve: binary.LittleEndian.Uint64(data[constants.PoolOffsetQuoteReserve:]),
		FeeRate:      binary.LittleEndian.Uint64(data[constants.PoolOffsetFeeRate:]),
		LastUpdate:   binary.LittleEndian.Uint64(data[constants.PoolOffsetLastUpdate:]),
	}, nil
}
