package monitor

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradertony/snipe-agent/internal/constants"
	"github.com/tradertony/snipe-agent/internal/models"
	"github.com/tradertony/snipe-agent/internal/stream"
)

// fakeAlertCache records everything pushed at it.
type fakeAlertCache struct {
	mu          sync.Mutex
	alerts      []models.Alert
	published   []models.Alert
	discoveries []models.PoolDiscovery
}

func (f *fakeAlertCache) AddAlert(ctx context.Context, alert *models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, *alert)
	return nil
}

func (f *fakeAlertCache) GetRecentAlerts(ctx context.Context, limit int64) ([]*models.Alert, error) {
	return nil, nil
}

func (f *fakeAlertCache) PublishAlert(ctx context.Context, alert *models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, *alert)
	return nil
}

func (f *fakeAlertCache) PublishDiscovery(ctx context.Context, ev *models.PoolDiscovery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discoveries = append(f.discoveries, *ev)
	return nil
}

func (f *fakeAlertCache) Ping(ctx context.Context) error { return nil }
func (f *fakeAlertCache) Close() error                   { return nil }

func (f *fakeAlertCache) discoveryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.discoveries)
}

type fakeSource struct{}

func (fakeSource) Run(ctx context.Context, handler stream.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func testPoolBytes(mint solana.PublicKey, lpSupply, base, quote uint64) []byte {
	data := make([]byte, constants.PoolAccountMinLen)
	data[constants.PoolOffsetStatus] = 1
	copy(data[constants.PoolOffsetTokenMint:constants.PoolOffsetTokenMint+32], mint.Bytes())
	binary.LittleEndian.PutUint64(data[constants.PoolOffsetLPSupply:], lpSupply)
	binary.LittleEndian.PutUint64(data[constants.PoolOffsetBaseReserve:], base)
	binary.LittleEndian.PutUint64(data[constants.PoolOffsetQuoteReserve:], quote)
	return data
}

func newTestMonitor(t *testing.T) *Monitor {
	t.Helper()
	return New(fakeSource{}, nil, nil, Config{
		MinLiquidityUSD: 1000,
		SOLPriceUSD:     100,
		WatchInterval:   5 * time.Millisecond,
	}, nil)
}

func TestHandleNotification_DedupesPerPoolToken(t *testing.T) {
	m := newTestMonitor(t)
	events := m.Subscribe()

	mint := solana.MustPublicKeyFromBase58(constants.WSOLMint)
	data := testPoolBytes(mint, 5_000_000, 1_000_000_000, 50_000_000_000)

	// Same (pool, token) twice: exactly one discovery dispatched.
	m.handleNotification(stream.Notification{Account: "pool-1", Data: data, Slot: 10})
	m.handleNotification(stream.Notification{Account: "pool-1", Data: data, Slot: 11})

	select {
	case ev := <-events:
		assert.Equal(t, "pool-1", ev.Pool.Address)
		assert.Equal(t, mint.String(), ev.Token)
		assert.Equal(t, uint64(10), ev.Slot)
		assert.Equal(t, 50.0, ev.PriceSOL)
	case <-time.After(time.Second):
		t.Fatal("expected a discovery event")
	}

	select {
	case <-events:
		t.Fatal("duplicate notification dispatched twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandleNotification_PublishesDiscovery(t *testing.T) {
	cache := &fakeAlertCache{}
	m := New(fakeSource{}, nil, cache, Config{
		MinLiquidityUSD: 1000,
		SOLPriceUSD:     100,
		WatchInterval:   5 * time.Millisecond,
	}, nil)

	mint := solana.MustPublicKeyFromBase58(constants.WSOLMint)
	data := testPoolBytes(mint, 5_000_000, 1_000_000_000, 50_000_000_000)

	m.handleNotification(stream.Notification{Account: "pool-1", Data: data, Slot: 10})
	// Duplicate: the discovery must not be re-published.
	m.handleNotification(stream.Notification{Account: "pool-1", Data: data, Slot: 11})

	require.Equal(t, 1, cache.discoveryCount())
	ev := cache.discoveries[0]
	assert.Equal(t, "pool-1", ev.Pool)
	assert.Equal(t, mint.String(), ev.Token)
	assert.Equal(t, 50.0, ev.PriceSOL)
	assert.Equal(t, 10000.0, ev.LiquidityUSD)
	assert.Equal(t, uint64(10), ev.Slot)
}

func TestHandleNotification_FiltersUnfundedPools(t *testing.T) {
	m := newTestMonitor(t)
	events := m.Subscribe()

	mint := solana.MustPublicKeyFromBase58(constants.WSOLMint)

	// Drained base side: price 0.
	m.handleNotification(stream.Notification{
		Account: "pool-1",
		Data:    testPoolBytes(mint, 5_000_000, 0, 50_000_000_000),
	})
	// Liquidity below the floor: 0.001 SOL quote side.
	m.handleNotification(stream.Notification{
		Account: "pool-2",
		Data:    testPoolBytes(mint, 5_000_000, 1_000_000, 1_000_000),
	})

	select {
	case <-events:
		t.Fatal("filtered pool dispatched")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHandleNotification_SkipsBadBytes(t *testing.T) {
	m := newTestMonitor(t)
	events := m.Subscribe()

	m.handleNotification(stream.Notification{Account: "pool-1", Data: []byte{1, 2, 3}})

	select {
	case <-events:
		t.Fatal("undecodable notification dispatched")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLPAdditionPredicate(t *testing.T) {
	m := newTestMonitor(t)
	mint := solana.MustPublicKeyFromBase58(constants.WSOLMint)
	token := mint.String()

	events, cancel := m.RegisterLPWatch(token)
	defer cancel()

	recv := func() (LPAddition, bool) {
		select {
		case ev := <-events:
			return ev, true
		case <-time.After(50 * time.Millisecond):
			return LPAddition{}, false
		}
	}

	// New pool above the supply floor fires.
	m.handleNotification(stream.Notification{
		Account: "pool-1",
		Data:    testPoolBytes(mint, 2_000_000, 1_000_000_000, 50_000_000_000),
	})
	ev, ok := recv()
	require.True(t, ok, "first observation above floor should fire")
	assert.Equal(t, uint64(0), ev.PrevSupply)

	// +0.5% is below the delta threshold.
	m.handleNotification(stream.Notification{
		Account: "pool-1",
		Data:    testPoolBytes(mint, 2_010_000, 1_000_000_000, 50_000_000_000),
	})
	_, ok = recv()
	assert.False(t, ok, "sub-threshold increase should not fire")

	// +2.5% versus the last observation fires.
	m.handleNotification(stream.Notification{
		Account: "pool-1",
		Data:    testPoolBytes(mint, 2_060_000, 1_000_000_000, 50_000_000_000),
	})
	ev, ok = recv()
	require.True(t, ok, "threshold increase should fire")
	assert.Equal(t, uint64(2_010_000), ev.PrevSupply)
}

func TestLPAdditionPredicate_NewPoolBelowFloor(t *testing.T) {
	m := newTestMonitor(t)
	mint := solana.MustPublicKeyFromBase58(constants.WSOLMint)

	events, cancel := m.RegisterLPWatch(mint.String())
	defer cancel()

	m.handleNotification(stream.Notification{
		Account: "pool-1",
		Data:    testPoolBytes(mint, 500_000, 1_000_000_000, 50_000_000_000),
	})

	select {
	case <-events:
		t.Fatal("below-floor pool should not fire")
	case <-time.After(50 * time.Millisecond):
	}
}
