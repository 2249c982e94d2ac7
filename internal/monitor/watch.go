package monitor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tradertony/snipe-agent/internal/constants"
	"github.com/tradertony/snipe-agent/internal/models"
)

// StartWatch spawns an independent sampling task for token. Returns false if a
// watch for the token is already running. The task samples price, liquidity,
// and 24h volume every WatchInterval and emits an alert for each metric whose
// percentage change since the previous sample exceeds its threshold.
func (m *Monitor) StartWatch(token string, th Thresholds) bool {
	m.mu.Lock()
	if _, running := m.watchCancels[token]; running {
		m.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.watchCancels[token] = cancel
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"token":      token,
		"price_pct":  th.PricePct,
		"liq_pct":    th.LiquidityPct,
		"volume_pct": th.VolumePct,
	}).Info("watch started")

	go m.runWatch(ctx, token, th)
	return true
}

// StopWatch cancels the watch task for token. Returns false if none is
// running.
func (m *Monitor) StopWatch(token string) bool {
	m.mu.Lock()
	cancel, running := m.watchCancels[token]
	if running {
		delete(m.watchCancels, token)
	}
	m.mu.Unlock()

	if !running {
		return false
	}
	cancel()
	m.logger.WithField("token", token).Info("watch stopped")
	return true
}

// watchSample is the per-tick snapshot a watch task compares against its
// previous one. Each task owns its own sample; nothing here is shared.
type watchSample struct {
	price     float64
	liquidity float64
	volume    float64
}

func (m *Monitor) runWatch(ctx context.Context, token string, th Thresholds) {
	ticker := time.NewTicker(m.cfg.WatchInterval)
	defer ticker.Stop()

	var last watchSample
	var haveLast bool

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cur, err := m.sample(ctx, token)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.WithError(err).WithField("token", token).Warn("watch sample failed")
			continue
		}

		if haveLast {
			m.compare(token, models.AlertPriceChange, last.price, cur.price, th.PricePct)
			m.compare(token, models.AlertLiquidityChange, last.liquidity, cur.liquidity, th.LiquidityPct)
			m.compare(token, models.AlertVolumeSpike, last.volume, cur.volume, th.VolumePct)
		}
		last = cur
		haveLast = true
	}
}

func (m *Monitor) sample(ctx context.Context, token string) (watchSample, error) {
	price, err := m.market.PriceSOL(ctx, token)
	if err != nil {
		return watchSample{}, err
	}
	liq, err := m.market.LiquidityUSD(ctx, token)
	if err != nil {
		return watchSample{}, err
	}
	vol, err := m.market.Volume24h(ctx, token)
	if err != nil {
		return watchSample{}, err
	}
	return watchSample{price: price, liquidity: liq, volume: vol}, nil
}

// compare emits an alert when the absolute percentage change from prev to cur
// exceeds thresholdPct. A zero previous value cannot produce a meaningful
// percentage and is skipped.
func (m *Monitor) compare(token string, typ models.AlertType, prev, cur, thresholdPct float64) {
	if prev == 0 {
		return
	}
	deltaPct := (cur - prev) / prev * 100
	abs := deltaPct
	if abs < 0 {
		abs = -abs
	}
	if abs <= thresholdPct {
		return
	}

	alert := models.Alert{
		Type:      typ,
		Token:     token,
		DeltaPct:  deltaPct,
		Current:   cur,
		Previous:  prev,
		Timestamp: time.Now(),
	}
	m.recordAlert(alert)
}

// recordAlert appends to the in-memory ring and mirrors to the cache on a
// best-effort basis. Cache failures never affect the watch task.
func (m *Monitor) recordAlert(alert models.Alert) {
	m.alertMu.Lock()
	m.alerts = append(m.alerts, alert)
	if len(m.alerts) > constants.MaxRecentAlerts {
		m.alerts = m.alerts[len(m.alerts)-constants.MaxRecentAlerts:]
	}
	m.alertMu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"type":      alert.Type,
		"token":     alert.Token,
		"delta_pct": alert.DeltaPct,
	}).Info("alert")

	if m.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.cache.AddAlert(ctx, &alert); err != nil {
		m.logger.WithError(err).Warn("failed to cache alert")
	}
	if err := m.cache.PublishAlert(ctx, &alert); err != nil {
		m.logger.WithError(err).Warn("failed to publish alert")
	}
}

// GetRecentAlerts returns up to limit alerts, newest first. limit <= 0 means
// all retained alerts.
func (m *Monitor) GetRecentAlerts(limit int) []models.Alert {
	m.alertMu.Lock()
	defer m.alertMu.Unlock()

	n := len(m.alerts)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]models.Alert, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.alerts[i])
	}
	return out
}

// StopAllWatches cancels every running watch task, used during shutdown.
func (m *Monitor) StopAllWatches() {
	m.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(m.watchCancels))
	for token, cancel := range m.watchCancels {
		cancels = append(cancels, cancel)
		delete(m.watchCancels, token)
	}
	m.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}
