package storage

import (
	"context"
	"io"

	"github.com/tradertony/snipe-agent/internal/models"
)

// AlertCache defines the interface for caching and fanning out alerts.
type AlertCache interface {
	// AddAlert appends an alert to the recent-alerts list
	AddAlert(ctx context.Context, alert *models.Alert) error

	// GetRecentAlerts retrieves the most recent alerts, newest first
	GetRecentAlerts(ctx context.Context, limit int64) ([]*models.Alert, error)

	// PublishAlert publishes an alert to the live Pub/Sub channel
	PublishAlert(ctx context.Context, alert *models.Alert) error

	// PublishDiscovery fans a pool discovery event out to live subscribers
	PublishDiscovery(ctx context.Context, ev *models.PoolDiscovery) error

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error

	io.Closer
}

// SnipeStore defines the interface for persistent snipe history.
type SnipeStore interface {
	// InsertSnipe records one snipe lifecycle event
	InsertSnipe(ctx context.Context, rec *models.SnipeRecord) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	io.Closer
}
