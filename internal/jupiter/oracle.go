package jupiter

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tradertony/snipe-agent/internal/constants"
)

// SOLOracle reports the live SOL/USD price, cached for a TTL. When the API
// is unreachable it serves the last good price, or the configured fallback
// before any fetch has succeeded.
type SOLOracle struct {
	client   *Client
	fallback float64
	ttl      time.Duration
	logger   *logrus.Logger

	mu      sync.Mutex
	price   float64
	fetched time.Time
}

func NewSOLOracle(client *Client, fallback float64, ttl time.Duration, logger *logrus.Logger) *SOLOracle {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &SOLOracle{
		client:   client,
		fallback: fallback,
		ttl:      ttl,
		logger:   logger,
	}
}

// SOLPriceUSD returns the cached price, refreshing it once per TTL. It never
// fails: a fetch error degrades to the last known or fallback price.
func (o *SOLOracle) SOLPriceUSD(ctx context.Context) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.price > 0 && time.Since(o.fetched) < o.ttl {
		return o.price
	}

	fetchCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	price, err := o.client.USDPrice(fetchCtx, constants.WSOLMint)
	if err != nil || price <= 0 {
		if err != nil {
			o.logger.WithError(err).Debug("SOL price fetch failed")
		}
		if o.price > 0 {
			return o.price
		}
		return o.fallback
	}

	o.price = price
	o.fetched = time.Now()
	return price
}
