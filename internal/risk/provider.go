package risk

import (
	"context"
	"errors"

	"github.com/tradertony/snipe-agent/internal/constants"
	"github.com/tradertony/snipe-agent/internal/models"
	"github.com/tradertony/snipe-agent/internal/raydium"
	"github.com/tradertony/snipe-agent/internal/rpc"
)

// TradeFeed supplies holder counts and trade history from an external
// indexer. The chain alone cannot answer these cheaply, so they stay behind
// an interface; a nil feed yields conservative defaults.
type TradeFeed interface {
	HolderCount(ctx context.Context, token string) (int, error)
	RecentTrades(ctx context.Context, token string) ([]models.Trade, error)
}

// SOLPriceSource reports the current SOL/USD price used to value liquidity.
type SOLPriceSource interface {
	SOLPriceUSD(ctx context.Context) float64
}

// ChainProvider answers DataProvider queries from on-chain state where
// possible and delegates the rest to an optional TradeFeed.
type ChainProvider struct {
	client   *rpc.Client
	resolver *raydium.Resolver
	prices   SOLPriceSource
	feed     TradeFeed
}

func NewChainProvider(client *rpc.Client, resolver *raydium.Resolver, prices SOLPriceSource, feed TradeFeed) *ChainProvider {
	return &ChainProvider{
		client:   client,
		resolver: resolver,
		prices:   prices,
		feed:     feed,
	}
}

// ContractVerified checks that the mint account exists on-chain. A token
// whose mint cannot be read has nothing verifiable about it.
func (p *ChainProvider) ContractVerified(ctx context.Context, token string) (bool, error) {
	_, err := p.client.GetAccountData(ctx, token)
	if err != nil {
		if errors.Is(err, rpc.ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// HolderCount comes from the trade feed; without one the count is 0, which
// scores the token conservatively.
func (p *ChainProvider) HolderCount(ctx context.Context, token string) (int, error) {
	if p.feed == nil {
		return 0, nil
	}
	return p.feed.HolderCount(ctx, token)
}

// LiquidityUSD values both sides of the token's pool from the quote reserve.
// A token without a pool has zero liquidity.
func (p *ChainProvider) LiquidityUSD(ctx context.Context, token string) (float64, error) {
	pool, err := p.resolver.FindPoolByToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNoPoolFound) {
			return 0, nil
		}
		return 0, err
	}
	quoteSOL := float64(pool.State.QuoteReserve) / constants.LamportsPerSOL
	return quoteSOL * p.prices.SOLPriceUSD(ctx) * 2, nil
}

func (p *ChainProvider) RecentTrades(ctx context.Context, token string) ([]models.Trade, error) {
	if p.feed == nil {
		return nil, nil
	}
	return p.feed.RecentTrades(ctx, token)
}
