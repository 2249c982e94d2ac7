package sniper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradertony/snipe-agent/internal/models"
	"github.com/tradertony/snipe-agent/internal/risk"
)

func newTestManager(t *testing.T, ctx context.Context) *Manager {
	t.Helper()
	f := newControllerFixture(t, ctx)
	analyzer := risk.NewAnalyzer(stubProvider{verified: true, holders: 100, liquidity: 50_000}, stubSim{canSell: true}, risk.DefaultConfig(), nil)
	return NewManager(f.monitor, analyzer, f.executor, 5*time.Millisecond, nil)
}

func TestManager_SetupSnipeRejectsInvalidConfig(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := newTestManager(t, ctx)

	cfg := validConfig()
	cfg.SlippagePct = 150

	ctrl, err := m.SetupSnipe(ctx, cfg)
	assert.Nil(t, ctrl)

	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "slippage_pct", ve.Field)
	assert.Nil(t, m.Get(cfg.Token))
}

func TestManager_SetupSnipeArmsAndRejectsDuplicate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := newTestManager(t, ctx)

	cfg := validConfig()
	ctrl, err := m.SetupSnipe(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, StateArmed, ctrl.State())

	_, err = m.SetupSnipe(ctx, cfg)
	assert.ErrorIs(t, err, ErrAlreadyActive)

	state, _, err := m.GetStatus(cfg.Token)
	require.NoError(t, err)
	assert.Equal(t, StateArmed, state)
}

func TestManager_CancelAndRearm(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := newTestManager(t, ctx)

	cfg := validConfig()
	ctrl, err := m.SetupSnipe(ctx, cfg)
	require.NoError(t, err)

	assert.True(t, m.Cancel(cfg.Token))
	select {
	case <-ctrl.Done():
	case <-time.After(time.Second):
		t.Fatal("cancel not honored")
	}
	assert.Equal(t, StateCancelled, ctrl.State())

	// A terminal snipe is not cancellable and does not block a new setup.
	assert.False(t, m.Cancel(cfg.Token))
	replacement, err := m.SetupSnipe(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, StateArmed, replacement.State())
}

func TestManager_GetStatusUnknownToken(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := newTestManager(t, ctx)

	_, _, err := m.GetStatus("unknown-token")
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "token", ve.Field)

	assert.False(t, m.Cancel("unknown-token"))
}
