package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tradertony/snipe-agent/internal/constants"
	"github.com/tradertony/snipe-agent/internal/models"
	"github.com/tradertony/snipe-agent/internal/raydium"
	"github.com/tradertony/snipe-agent/internal/storage"
	"github.com/tradertony/snipe-agent/internal/stream"
)

// Monitor owns the single discovery subscription and the per-token watch
// tasks. Shared state (seen-set, LP observations, subscriber lists) is
// guarded by one mutex; each watch task owns its own sampling state.
type Monitor struct {
	source Source
	market MarketData
	cache  storage.AlertCache // optional, best-effort
	cfg    Config
	logger *logrus.Logger

	mu            sync.Mutex
	seen          map[string]struct{}
	lpLast        map[string]uint64
	lpWatchers    map[string][]chan LPAddition
	discoverySubs []chan PoolDiscovered
	watchCancels  map[string]context.CancelFunc

	alertMu sync.Mutex
	alerts  []models.Alert
}

func New(source Source, market MarketData, cache storage.AlertCache, cfg Config, logger *logrus.Logger) *Monitor {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.WatchInterval == 0 {
		cfg.WatchInterval = constants.DefaultWatchInterval
	}
	if cfg.LPDeltaPct == 0 {
		cfg.LPDeltaPct = 1
	}
	if cfg.LPSupplyFloor == 0 {
		cfg.LPSupplyFloor = 1_000_000
	}
	if cfg.SOLPrice == nil {
		cfg.SOLPrice = StaticSOLPrice(cfg.SOLPriceUSD)
	}
	return &Monitor{
		source:       source,
		market:       market,
		cache:        cache,
		cfg:          cfg,
		logger:       logger,
		seen:         make(map[string]struct{}),
		lpLast:       make(map[string]uint64),
		lpWatchers:   make(map[string][]chan LPAddition),
		watchCancels: make(map[string]context.CancelFunc),
	}
}

// Start runs the discovery subscription until the context is cancelled. The
// stream client handles backoff-and-resubscribe; a bad notification is
// skipped here without terminating the stream.
func (m *Monitor) Start(ctx context.Context) error {
	err := m.source.Run(ctx, m.handleNotification)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Subscribe returns a channel of discovery events. Slow consumers drop
// events rather than stalling the stream.
func (m *Monitor) Subscribe() <-chan PoolDiscovered {
	ch := make(chan PoolDiscovered, 16)
	m.mu.Lock()
	m.discoverySubs = append(m.discoverySubs, ch)
	m.mu.Unlock()
	return ch
}

// RegisterLPWatch registers interest in LP additions for a token. The
// returned cancel func removes the registration.
func (m *Monitor) RegisterLPWatch(token string) (<-chan LPAddition, func()) {
	ch := make(chan LPAddition, 4)
	m.mu.Lock()
	m.lpWatchers[token] = append(m.lpWatchers[token], ch)
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		watchers := m.lpWatchers[token]
		for i, w := range watchers {
			if w == ch {
				m.lpWatchers[token] = append(watchers[:i], watchers[i+1:]...)
				break
			}
		}
		if len(m.lpWatchers[token]) == 0 {
			delete(m.lpWatchers, token)
		}
	}
	return ch, cancel
}

func (m *Monitor) handleNotification(n stream.Notification) {
	state, err := raydium.DecodePool(n.Account, n.Data)
	if err != nil {
		m.logger.WithError(err).WithField("account", n.Account).Warn("skipping undecodable pool notification")
		return
	}

	token := state.TokenMint.String()

	m.dispatchLPAdditions(state, token)

	// Discovery filters: funded pool with a real price.
	price := raydium.Price(state)
	liquidity := m.liquidityUSD(state)
	if price <= 0 || liquidity < m.cfg.MinLiquidityUSD {
		return
	}

	key := state.Address + "|" + token
	m.mu.Lock()
	if _, dup := m.seen[key]; dup {
		m.mu.Unlock()
		return
	}
	m.seen[key] = struct{}{}
	subs := make([]chan PoolDiscovered, len(m.discoverySubs))
	copy(subs, m.discoverySubs)
	m.mu.Unlock()

	ev := PoolDiscovered{
		Pool:         state,
		Token:        token,
		PriceSOL:     price,
		LiquidityUSD: liquidity,
		Slot:         n.Slot,
		Timestamp:    time.Now(),
	}

	m.logger.WithFields(logrus.Fields{
		"pool":      state.Address,
		"token":     token,
		"price":     price,
		"liquidity": liquidity,
	}).Info("pool discovered")

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			m.logger.WithField("token", token).Warn("discovery subscriber full, dropping event")
		}
	}

	m.publishDiscovery(ev)
}

// publishDiscovery mirrors a discovery event to the cache's live channel on a
// best-effort basis, like recordAlert does for watch alerts.
func (m *Monitor) publishDiscovery(ev PoolDiscovered) {
	if m.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := m.cache.PublishDiscovery(ctx, &models.PoolDiscovery{
		Pool:         ev.Pool.Address,
		Token:        ev.Token,
		PriceSOL:     ev.PriceSOL,
		LiquidityUSD: ev.LiquidityUSD,
		Slot:         ev.Slot,
		Timestamp:    ev.Timestamp,
	})
	if err != nil {
		m.logger.WithError(err).Warn("failed to publish discovery event")
	}
}

// dispatchLPAdditions evaluates the LP-addition predicate against the last
// observation for this token and notifies registered watchers.
func (m *Monitor) dispatchLPAdditions(state *raydium.PoolState, token string) {
	m.mu.Lock()
	last, known := m.lpLast[token]
	m.lpLast[token] = state.LPSupply

	fired := false
	if known {
		fired = float64(state.LPSupply) > float64(last)*(1+m.cfg.LPDeltaPct/100)
	} else {
		fired = state.LPSupply >= m.cfg.LPSupplyFloor
	}

	var watchers []chan LPAddition
	if fired {
		watchers = append(watchers, m.lpWatchers[token]...)
	}
	m.mu.Unlock()

	if !fired || len(watchers) == 0 {
		return
	}

	ev := LPAddition{Pool: state, Token: token, Timestamp: time.Now()}
	if known {
		ev.PrevSupply = last
	}
	for _, ch := range watchers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (m *Monitor) liquidityUSD(state *raydium.PoolState) float64 {
	// Quote side in SOL, doubled for both sides of the pool.
	quoteSOL := float64(state.QuoteReserve) / constants.LamportsPerSOL
	return quoteSOL * m.cfg.SOLPrice.SOLPriceUSD(context.Background()) * 2
}
