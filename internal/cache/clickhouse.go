package cache

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/tradertony/snipe-agent/internal/models"
)

// ClickHouseStore persists snipe lifecycle history for later analysis. The
// trading core never reads from it; writes are best-effort.
type ClickHouseStore struct {
	conn driver.Conn
}

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Database == "" {
		cfg.Database = "snipes"
	}
	if cfg.Username == "" {
		cfg.Username = "default"
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseStore{conn: conn}, nil
}

func (c *ClickHouseStore) InsertSnipe(ctx context.Context, rec *models.SnipeRecord) error {
	query := `
		INSERT INTO snipes (
			token, signature, side, amount_in, amount_out,
			price, reason, slot, timestamp, final_state,
			risk_score, risk_rationale
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		rec.Token,
		rec.Signature,
		rec.Side,
		rec.AmountIn,
		rec.AmountOut,
		rec.Price,
		rec.Reason,
		rec.Slot,
		rec.Timestamp,
		rec.FinalState,
		rec.RiskScore,
		rec.RiskRationale,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snipe record: %w", err)
	}

	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
