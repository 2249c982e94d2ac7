package raydium

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradertony/snipe-agent/internal/constants"
	"github.com/tradertony/snipe-agent/internal/models"
)

// poolBytes builds a raw account buffer in the fixed pool layout.
func poolBytes(status uint8, mint solana.PublicKey, lpSupply, base, quote, feeRate, lastUpdate uint64) []byte {
	data := make([]byte, constants.PoolAccountMinLen)
	data[constants.PoolOffsetStatus] = status
	copy(data[constants.PoolOffsetTokenMint:constants.PoolOffsetTokenMint+32], mint.Bytes())
	binary.LittleEndian.PutUint64(data[constants.PoolOffsetLPSupply:], lpSupply)
	binary.LittleEndian.PutUint64(data[constants.PoolOffsetBaseReserve:], base)
	binary.LittleEndian.PutUint64(data[constants.PoolOffsetQuoteReserve:], quote)
	binary.LittleEndian.PutUint64(data[constants.PoolOffsetFeeRate:], feeRate)
	binary.LittleEndian.PutUint64(data[constants.PoolOffsetLastUpdate:], lastUpdate)
	return data
}

func TestDecodePool(t *testing.T) {
	mint := solana.MustPublicKeyFromBase58(constants.WSOLMint)
	data := poolBytes(1, mint, 5_000_000, 1_000_000_000, 50_000_000_000, 2500, 12345)

	state, err := DecodePool("pool-address", data)
	require.NoError(t, err)

	assert.Equal(t, "pool-address", state.Address)
	assert.Equal(t, uint8(1), state.Status)
	assert.Equal(t, mint, state.TokenMint)
	assert.Equal(t, uint64(5_000_000), state.LPSupply)
	assert.Equal(t, uint64(1_000_000_000), state.BaseReserve)
	assert.Equal(t, uint64(50_000_000_000), state.QuoteReserve)
	assert.Equal(t, uint64(2500), state.FeeRate)
	assert.Equal(t, uint64(12345), state.LastUpdate)
}

func TestDecodePool_ShortBuffer(t *testing.T) {
	data := make([]byte, constants.PoolAccountMinLen-1)

	state, err := DecodePool("pool-address", data)
	assert.Nil(t, state)

	var cerr *models.CodecError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "pool-address", cerr.Account)
}

func TestDecodePool_EmptyBuffer(t *testing.T) {
	_, err := DecodePool("pool-address", nil)
	var cerr *models.CodecError
	assert.ErrorAs(t, err, &cerr)
}
