package sniper

import (
	"context"
	"errors"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/tradertony/snipe-agent/internal/constants"
	"github.com/tradertony/snipe-agent/internal/models"
	"github.com/tradertony/snipe-agent/internal/raydium"
	"github.com/tradertony/snipe-agent/internal/wallet"
)

// SellProbe answers the honeypot question by simulating a minimal sell
// against the token's pool. A token whose sell instruction cannot execute at
// all is a honeypot; a sell that merely lacks funds is not.
type SellProbe struct {
	wallet   *wallet.Wallet
	resolver *raydium.Resolver
	logger   *logrus.Logger
}

func NewSellProbe(w *wallet.Wallet, resolver *raydium.Resolver, logger *logrus.Logger) *SellProbe {
	if logger == nil {
		logger = logrus.New()
	}
	return &SellProbe{wallet: w, resolver: resolver, logger: logger}
}

// CanSell simulates a one-unit sell of the token. A token with no pool
// cannot be exited and counts as unsellable.
func (p *SellProbe) CanSell(ctx context.Context, token string) (bool, error) {
	pool, err := p.resolver.FindPoolByToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNoPoolFound) {
			return false, nil
		}
		return false, err
	}

	owner := p.wallet.PublicKey()
	tokenATA, _, err := FindAssociatedTokenAddress(owner, pool.State.TokenMint)
	if err != nil {
		return false, err
	}
	wsolMint := solana.MustPublicKeyFromBase58(constants.WSOLMint)
	wsolATA, _, err := FindAssociatedTokenAddress(owner, wsolMint)
	if err != nil {
		return false, err
	}

	poolKey, err := solana.PublicKeyFromBase58(pool.Address)
	if err != nil {
		return false, &models.CodecError{Account: pool.Address, Msg: "invalid pool address"}
	}
	programKey, err := solana.PublicKeyFromBase58(p.resolver.ProgramID())
	if err != nil {
		return false, err
	}

	swapIx, err := raydium.BuildSwapInstruction(
		programKey, poolKey, owner, tokenATA, wsolATA, 1, 0,
	)
	if err != nil {
		return false, err
	}

	tx, err := p.wallet.BuildTransaction(ctx, []solana.Instruction{swapIx})
	if err != nil {
		return false, err
	}

	// sigVerify is off and the blockhash is replaced, so no signing needed.
	result, err := p.wallet.SimulateTransaction(ctx, tx)
	if err != nil {
		return false, err
	}
	if result.Success {
		return true, nil
	}

	// The probe wallet usually holds none of the token; a plain funds error
	// means the sell path itself works.
	msg := strings.ToLower(result.Error)
	if strings.Contains(msg, "insufficient") {
		return true, nil
	}

	p.logger.WithFields(logrus.Fields{
		"token": token,
		"error": result.Error,
	}).Debug("sell probe rejected")
	return false, nil
}
