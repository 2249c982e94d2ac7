package raydium

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// BuildSwapInstruction constructs the pool swap instruction.
//
// Instruction data layout:
// [0]    = instruction discriminator (1 = Swap)
// [1:9]  = amount_in (u64, little-endian)
// [9:17] = minimum_amount_out (u64, little-endian)
func BuildSwapInstruction(
	programID solana.PublicKey,
	poolAccount solana.PublicKey,
	userAuthority solana.PublicKey, // the signer
	userSource solana.PublicKey, // user's input token account
	userDestination solana.PublicKey, // user's output token account
	amountIn uint64,
	minAmountOut uint64,
) (solana.Instruction, error) {

	if poolAccount.IsZero() {
		return nil, fmt.Errorf("pool account cannot be zero")
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: poolAccount, IsWritable: true, IsSigner: false},
		{PublicKey: userAuthority, IsWritable: true, IsSigner: true},
		{PublicKey: userSource, IsWritable: true, IsSigner: false},
		{PublicKey: userDestination, IsWritable: true, IsSigner: false},
		{PublicKey: solana.TokenProgramID, IsWritable: false, IsSigner: false},
	}

	data := make([]byte, 17)
	data[0] = 1 // Swap instruction discriminator
	binary.LittleEndian.PutUint64(data[1:9], amountIn)
	binary.LittleEndian.PutUint64(data[9:17], minAmountOut)

	return solana.NewInstruction(programID, accounts, data), nil
}
