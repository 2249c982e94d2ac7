package sniper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/tradertony/snipe-agent/internal/constants"
	"github.com/tradertony/snipe-agent/internal/models"
	"github.com/tradertony/snipe-agent/internal/raydium"
	"github.com/tradertony/snipe-agent/internal/risk"
	"github.com/tradertony/snipe-agent/internal/storage"
	"github.com/tradertony/snipe-agent/internal/wallet"
)

// Executor builds, shapes, submits, and confirms snipe transactions. Retry
// policy lives here and nowhere below: sends are retried on transient chain
// errors and confirmation timeouts, never on an explicit on-chain rejection.
type Executor struct {
	wallet   *wallet.Wallet
	resolver *raydium.Resolver
	store    storage.SnipeStore // optional, best-effort
	logger   *logrus.Logger

	shaper         *shaper
	confirmTimeout time.Duration
	retryBackoff   time.Duration
}

func NewExecutor(w *wallet.Wallet, resolver *raydium.Resolver, store storage.SnipeStore, logger *logrus.Logger) *Executor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Executor{
		wallet:         w,
		resolver:       resolver,
		store:          store,
		logger:         logger,
		shaper:         newShaper(),
		confirmTimeout: constants.DefaultConfirmTimeout,
		retryBackoff:   500 * time.Millisecond,
	}
}

// WithConfirmTimeout overrides the per-attempt confirmation timeout.
func (e *Executor) WithConfirmTimeout(d time.Duration) *Executor {
	if d > 0 {
		e.confirmTimeout = d
	}
	return e
}

// BuyPlan is the prepared, shape-independent part of a buy: the core
// instruction list plus everything needed to measure the realized fill.
type BuyPlan struct {
	Pool          *raydium.Pool
	Quote         *raydium.SwapQuote
	TokenATA      solana.PublicKey
	BalanceBefore uint64
	Core          []solana.Instruction
}

// BuyResult is the outcome of a confirmed buy.
type BuyResult struct {
	Signature      string
	Slot           uint64
	Pool           *raydium.Pool
	Quote          *raydium.SwapQuote
	TokenATA       solana.PublicKey
	TokensReceived uint64
	EntryPrice     float64 // quote lamports per token base unit
}

// SellResult is the outcome of a confirmed sell.
type SellResult struct {
	Signature string
	Slot      uint64
	AmountIn  uint64
	Quote     *raydium.SwapQuote
}

// BuildBuy resolves routing accounts for the token and prepares the core
// instruction list: wSOL wrap, optional account creation, and the swap.
// Compute-budget and padding instructions are added per attempt at submit
// time, not here.
func (e *Executor) BuildBuy(ctx context.Context, cfg *Config) (*BuyPlan, error) {
	// Reject an underfunded buy before touching routing accounts; waiting
	// for the on-chain rejection would burn a retry cycle at snipe time.
	balanceSOL, err := e.wallet.GetBalanceSOL(ctx)
	if err != nil {
		return nil, &models.TransientChainError{Op: "getBalance", Err: err}
	}
	requiredSOL := float64(cfg.BuyAmount) / constants.LamportsPerSOL
	if balanceSOL < requiredSOL {
		return nil, &models.ValidationError{
			Field: "buy_amount",
			Msg:   fmt.Sprintf("wallet holds %.4f SOL, buy needs %.4f SOL", balanceSOL, requiredSOL),
		}
	}

	pool, err := e.resolver.FindPoolByToken(ctx, cfg.Token)
	if err != nil {
		return nil, err
	}

	slippageBps := raydium.PercentToBps(cfg.SlippagePct)
	quote, err := raydium.QuoteSwap(pool.State, cfg.BuyAmount, slippageBps, false)
	if err != nil {
		return nil, err
	}

	owner := e.wallet.PublicKey()
	wsolMint := solana.MustPublicKeyFromBase58(constants.WSOLMint)

	wsolATA, _, err := FindAssociatedTokenAddress(owner, wsolMint)
	if err != nil {
		return nil, fmt.Errorf("derive wSOL account: %w", err)
	}
	tokenATA, _, err := FindAssociatedTokenAddress(owner, pool.State.TokenMint)
	if err != nil {
		return nil, fmt.Errorf("derive token account: %w", err)
	}

	wsolExists, err := e.wallet.AccountExists(ctx, wsolATA)
	if err != nil {
		return nil, &models.TransientChainError{Op: "accountExists", Err: err}
	}
	tokenExists, err := e.wallet.AccountExists(ctx, tokenATA)
	if err != nil {
		return nil, &models.TransientChainError{Op: "accountExists", Err: err}
	}

	var balanceBefore uint64
	if tokenExists {
		balanceBefore, err = e.wallet.RPC().GetTokenAccountBalance(ctx, tokenATA.String())
		if err != nil {
			return nil, &models.TransientChainError{Op: "getTokenAccountBalance", Err: err}
		}
	}

	poolKey, err := solana.PublicKeyFromBase58(pool.Address)
	if err != nil {
		return nil, &models.CodecError{Account: pool.Address, Msg: "invalid pool address"}
	}
	programKey, err := solana.PublicKeyFromBase58(e.resolver.ProgramID())
	if err != nil {
		return nil, fmt.Errorf("invalid pool program id: %w", err)
	}

	var core []solana.Instruction
	if !wsolExists {
		core = append(core, NewCreateAssociatedTokenAccountIx(owner, wsolATA, owner, wsolMint))
	}
	if !tokenExists {
		core = append(core, NewCreateAssociatedTokenAccountIx(owner, tokenATA, owner, pool.State.TokenMint))
	}

	// Wrap the quote side: fund the wSOL account and sync its balance.
	core = append(core,
		NewSystemTransferIx(owner, wsolATA, cfg.BuyAmount),
		NewTokenSyncNativeIx(wsolATA),
	)

	swapIx, err := raydium.BuildSwapInstruction(
		programKey, poolKey, owner, wsolATA, tokenATA,
		cfg.BuyAmount, quote.MinimumOutput,
	)
	if err != nil {
		return nil, err
	}
	core = append(core, swapIx)

	// Unwrap leftovers when the wSOL account was created just for this buy.
	if !wsolExists {
		core = append(core, NewTokenCloseAccountIx(wsolATA, owner, owner))
	}

	return &BuyPlan{
		Pool:          pool,
		Quote:         quote,
		TokenATA:      tokenATA,
		BalanceBefore: balanceBefore,
		Core:          core,
	}, nil
}

// Submit shapes, signs, sends, and confirms the instruction list, retrying up
// to cfg.MaxRetries. Every attempt uses a fresh blockhash and, with anti-MEV
// on, a re-randomized fee/budget/padding profile. An on-chain rejection stops
// the loop immediately.
func (e *Executor) Submit(ctx context.Context, cfg *Config, core []solana.Instruction) (string, uint64, error) {
	owner := e.wallet.PublicKey()
	attempts := cfg.MaxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", 0, ctx.Err()
			case <-time.After(e.retryBackoff):
			}
		}

		sh := e.shaper.shape(cfg.PriorityFee, cfg.AntiMEV)
		ixs := shapedInstructions(sh, owner, core)

		tx, err := e.wallet.BuildTransaction(ctx, ixs)
		if err != nil {
			lastErr = err
			continue
		}
		if err := e.wallet.SignTx(tx); err != nil {
			return "", 0, err
		}

		sig, err := e.wallet.SendTx(ctx, tx, nil)
		if err != nil {
			if isRejection(err) {
				return "", 0, err
			}
			lastErr = err
			e.logger.WithError(err).WithField("attempt", attempt+1).Warn("send failed, retrying")
			continue
		}

		slot, err := e.wallet.ConfirmTransaction(ctx, sig, "confirmed", e.confirmTimeout)
		if err != nil {
			if isRejection(err) {
				return sig, 0, err
			}
			lastErr = err
			e.logger.WithError(err).WithFields(logrus.Fields{
				"attempt":   attempt + 1,
				"signature": sig,
			}).Warn("confirmation failed, retrying with fresh blockhash")
			continue
		}

		return sig, slot, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no submission attempts made")
	}
	return "", 0, lastErr
}

// ExecuteBuy runs the full buy path and measures the realized fill from the
// destination account's balance delta, not the pre-trade quote. The gate
// assessment that cleared this buy is carried into the persisted record.
func (e *Executor) ExecuteBuy(ctx context.Context, cfg *Config, gate *risk.Assessment) (*BuyResult, error) {
	plan, err := e.BuildBuy(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sig, slot, err := e.Submit(ctx, cfg, plan.Core)
	if err != nil {
		return nil, err
	}

	received := e.realizedDelta(ctx, plan)
	if received == 0 {
		// Balance read failed or lagged; fall back to the quoted fill.
		e.logger.WithField("signature", sig).Warn("could not measure realized fill, using quoted output")
		received = plan.Quote.ExpectedOutput
	}

	entryPrice := float64(cfg.BuyAmount) / float64(received)

	res := &BuyResult{
		Signature:      sig,
		Slot:           slot,
		Pool:           plan.Pool,
		Quote:          plan.Quote,
		TokenATA:       plan.TokenATA,
		TokensReceived: received,
		EntryPrice:     entryPrice,
	}

	e.logger.WithFields(logrus.Fields{
		"token":       cfg.Token,
		"signature":   sig,
		"slot":        slot,
		"received":    received,
		"entry_price": entryPrice,
	}).Info("buy confirmed")

	rec := &models.SnipeRecord{
		Token:      cfg.Token,
		Signature:  sig,
		Side:       "BUY",
		AmountIn:   cfg.BuyAmount,
		AmountOut:  received,
		Price:      entryPrice,
		Reason:     "entry",
		Slot:       slot,
		Timestamp:  time.Now(),
		FinalState: string(StateHolding),
	}
	if gate != nil {
		rec.RiskScore = gate.Score
		rec.RiskRationale = gate.Rationale
	}
	e.record(ctx, rec)

	return res, nil
}

// ExecuteSell mirrors ExecuteBuy using the position's full token balance and
// a fresh quote for slippage protection.
func (e *Executor) ExecuteSell(ctx context.Context, cfg *Config, pos *Position, reason string) (*SellResult, error) {
	owner := e.wallet.PublicKey()
	wsolMint := solana.MustPublicKeyFromBase58(constants.WSOLMint)
	tokenMint, err := solana.PublicKeyFromBase58(pos.Token)
	if err != nil {
		return nil, &models.ValidationError{Field: "token", Msg: "invalid token address"}
	}

	tokenATA, _, err := FindAssociatedTokenAddress(owner, tokenMint)
	if err != nil {
		return nil, fmt.Errorf("derive token account: %w", err)
	}
	wsolATA, _, err := FindAssociatedTokenAddress(owner, wsolMint)
	if err != nil {
		return nil, fmt.Errorf("derive wSOL account: %w", err)
	}

	balance, err := e.wallet.RPC().GetTokenAccountBalance(ctx, tokenATA.String())
	if err != nil {
		return nil, &models.TransientChainError{Op: "getTokenAccountBalance", Err: err}
	}
	if balance == 0 {
		return nil, &models.ValidationError{Field: "position", Msg: "no token balance to sell"}
	}

	state, err := e.resolver.RefreshPool(ctx, pos.PoolAddress)
	if err != nil {
		return nil, err
	}

	slippageBps := raydium.PercentToBps(cfg.SlippagePct)
	quote, err := raydium.QuoteSwap(state, balance, slippageBps, true)
	if err != nil {
		return nil, err
	}

	wsolExists, err := e.wallet.AccountExists(ctx, wsolATA)
	if err != nil {
		return nil, &models.TransientChainError{Op: "accountExists", Err: err}
	}

	poolKey, err := solana.PublicKeyFromBase58(pos.PoolAddress)
	if err != nil {
		return nil, &models.CodecError{Account: pos.PoolAddress, Msg: "invalid pool address"}
	}
	programKey, err := solana.PublicKeyFromBase58(e.resolver.ProgramID())
	if err != nil {
		return nil, fmt.Errorf("invalid pool program id: %w", err)
	}

	var core []solana.Instruction
	if !wsolExists {
		core = append(core, NewCreateAssociatedTokenAccountIx(owner, wsolATA, owner, wsolMint))
	}

	swapIx, err := raydium.BuildSwapInstruction(
		programKey, poolKey, owner, tokenATA, wsolATA,
		balance, quote.MinimumOutput,
	)
	if err != nil {
		return nil, err
	}
	core = append(core, swapIx)

	// Unwrap proceeds when the wSOL account was created just for this sell.
	if !wsolExists {
		core = append(core, NewTokenCloseAccountIx(wsolATA, owner, owner))
	}

	sig, slot, err := e.Submit(ctx, cfg, core)
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"token":     pos.Token,
		"signature": sig,
		"slot":      slot,
		"amount_in": balance,
		"reason":    reason,
	}).Info("sell confirmed")

	e.record(ctx, &models.SnipeRecord{
		Token:         pos.Token,
		Signature:     sig,
		Side:          "SELL",
		AmountIn:      balance,
		AmountOut:     quote.ExpectedOutput,
		Price:         raydium.Price(state),
		Reason:        reason,
		Slot:          slot,
		Timestamp:     time.Now(),
		FinalState:    string(StateClosed),
		RiskScore:     pos.RiskScore,
		RiskRationale: pos.RiskRationale,
	})

	return &SellResult{Signature: sig, Slot: slot, AmountIn: balance, Quote: quote}, nil
}

// realizedDelta reads the destination account balance and returns the
// increase over the pre-trade balance. 0 means the delta is unavailable.
func (e *Executor) realizedDelta(ctx context.Context, plan *BuyPlan) uint64 {
	after, err := e.wallet.RPC().GetTokenAccountBalance(ctx, plan.TokenATA.String())
	if err != nil {
		e.logger.WithError(err).Warn("post-buy balance read failed")
		return 0
	}
	if after <= plan.BalanceBefore {
		return 0
	}
	return after - plan.BalanceBefore
}

// record persists one lifecycle event best-effort; storage failures never
// affect the trade.
func (e *Executor) record(ctx context.Context, rec *models.SnipeRecord) {
	if e.store == nil {
		return
	}
	if err := e.store.InsertSnipe(ctx, rec); err != nil {
		e.logger.WithError(err).Warn("failed to persist snipe record")
	}
}

func isRejection(err error) bool {
	var rej *models.OnChainRejection
	return errors.As(err, &rej)
}
