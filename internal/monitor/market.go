package monitor

import (
	"context"
	"errors"

	"github.com/tradertony/snipe-agent/internal/constants"
	"github.com/tradertony/snipe-agent/internal/models"
	"github.com/tradertony/snipe-agent/internal/raydium"
)

// VolumeFeed supplies 24h trade volume from an external indexer; nil means
// volume samples read as 0 and volume alerts never fire.
type VolumeFeed interface {
	Volume24h(ctx context.Context, token string) (float64, error)
}

// PoolMarketData samples price and liquidity straight from the token's pool
// account and volume from an optional feed.
type PoolMarketData struct {
	resolver *raydium.Resolver
	prices   SOLPriceSource
	feed     VolumeFeed
}

func NewPoolMarketData(resolver *raydium.Resolver, prices SOLPriceSource, feed VolumeFeed) *PoolMarketData {
	return &PoolMarketData{resolver: resolver, prices: prices, feed: feed}
}

func (p *PoolMarketData) PriceSOL(ctx context.Context, token string) (float64, error) {
	pool, err := p.resolver.FindPoolByToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNoPoolFound) {
			return 0, nil
		}
		return 0, err
	}
	return raydium.Price(pool.State), nil
}

func (p *PoolMarketData) LiquidityUSD(ctx context.Context, token string) (float64, error) {
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

func (p *PoolMarketData) Volume24h(ctx context.Context, token string) (float64, error) {
	if p.feed == nil {
		return 0, nil
	}
	return p.feed.Volume24h(ctx, token)
}
