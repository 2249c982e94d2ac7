package risk

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Score weights. Checks are additive and non-exclusive; a honeypot result
// saturates the score and forces rejection regardless of the rest.
const (
	scoreUnverifiedContract = 50
	scoreFewHolders         = 30
	scoreLowLiquidity       = 20
	scorePumpAndDump        = 40
	scoreMax                = 100
)

// Analyzer combines independent token checks into a composite assessment.
type Analyzer struct {
	provider DataProvider
	sim      SellSimulator
	cfg      Config
	logger   *logrus.Logger
}

func NewAnalyzer(provider DataProvider, sim SellSimulator, cfg Config, logger *logrus.Logger) *Analyzer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Analyzer{provider: provider, sim: sim, cfg: cfg, logger: logger}
}

// Analyze runs all checks for a token. Checks run in a fixed order so the
// score and rationale are deterministic for identical provider answers.
func (a *Analyzer) Analyze(ctx context.Context, token string) (*Assessment, error) {
	out := &Assessment{Token: token}
	var rationale []string
	score := 0

	verified, err := a.provider.ContractVerified(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("contract verification check: %w", err)
	}
	if !verified {
		score += scoreUnverifiedContract
		rationale = append(rationale, "no verified contract code found")
	}

	holders, err := a.provider.HolderCount(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("holder count check: %w", err)
	}
	out.HolderCount = holders
	if holders < a.cfg.MinHolders {
		score += scoreFewHolders
		rationale = append(rationale, fmt.Sprintf("only %d holders found (minimum %d)", holders, a.cfg.MinHolders))
	}

	liquidity, err := a.provider.LiquidityUSD(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("liquidity check: %w", err)
	}
	out.LiquidityUSD = liquidity
	if liquidity < a.cfg.MinLiquidityUSD {
		out.LowLiquidity = true
		score += scoreLowLiquidity
		rationale = append(rationale, fmt.Sprintf("low liquidity ($%.2f, minimum $%.2f)", liquidity, a.cfg.MinLiquidityUSD))
	}

	trades, err := a.provider.RecentTrades(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("trade history check: %w", err)
	}
	ordered := orderTrades(trades)

	if DetectPumpAndDump(ordered, a.cfg.PumpThresholdPct) {
		out.SuspiciousActivity = true
		score += scorePumpAndDump
		rationale = append(rationale, "pump and dump pattern detected")
	}
	if DetectFlashLoanSpike(ordered) {
		out.SuspiciousActivity = true
		rationale = append(rationale, "flash loan volume spike detected")
	}

	canSell, err := a.sim.CanSell(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("sell simulation: %w", err)
	}
	if !canSell {
		out.Honeypot = true
		rationale = append(rationale, "cannot sell token (honeypot)")
	}

	// Honeypot saturates: nothing can redeem a token that cannot be exited.
	if out.Honeypot {
		score = scoreMax
		out.Rejected = true
	} else {
		if score > scoreMax {
			score = scoreMax
		}
		out.Rejected = score > a.cfg.MaxScore
	}

	out.Score = score
	out.Rationale = strings.Join(rationale, "; ")

	a.logger.WithFields(logrus.Fields{
		"token":    token,
		"score":    out.Score,
		"rejected": out.Rejected,
	}).Debug("risk assessment complete")

	return out, nil
}

// MaxScore exposes the configured rejection threshold.
func (a *Analyzer) MaxScore() int { return a.cfg.MaxScore }
