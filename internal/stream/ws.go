package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/tradertony/snipe-agent/internal/constants"
	"github.com/tradertony/snipe-agent/internal/rpc"
)

// Notification is one account-change event from a program subscription.
type Notification struct {
	Account string
	Data    []byte
	Slot    uint64
}

// Handler processes a single notification. A handler error is logged and the
// stream continues; only transport failures trigger a resubscribe.
type Handler func(n Notification)

// WSClient maintains one programSubscribe subscription over a websocket,
// resubscribing with bounded backoff after transport errors.
type WSClient struct {
	url       string
	programID string
	logger    *logrus.Logger
}

type WSConfig struct {
	URL       string
	ProgramID string
	Logger    *logrus.Logger
}

func NewWSClient(cfg WSConfig) *WSClient {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &WSClient{
		url:       cfg.URL,
		programID: cfg.ProgramID,
		logger:    cfg.Logger,
	}
}

// Run connects, subscribes, and dispatches notifications until the context is
// cancelled. Transport errors reconnect with exponential backoff capped at
// MaxResubscribeBackoff; a malformed notification is skipped, never fatal.
func (c *WSClient) Run(ctx context.Context, handler Handler) error {
	backoff := constants.DefaultResubscribeBase

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.runOnce(ctx, handler)
		if err == nil || ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.WithError(err).WithField("backoff", backoff).Warn("subscription dropped, resubscribing")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > constants.MaxResubscribeBackoff {
			backoff = constants.MaxResubscribeBackoff
		}
	}
}

func (c *WSClient) runOnce(ctx context.Context, handler Handler) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	subscribeMsg := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "programSubscribe",
		"params": []interface{}{
			c.programID,
			map[string]interface{}{
				"commitment": "confirmed",
				"encoding":   "base64",
			},
		},
	}

	if err := conn.WriteJSON(subscribeMsg); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	c.logger.WithField("program", c.programID).Info("subscribed to program notifications")

	// Close the connection when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("websocket read: %w", err)
		}

		n, ok := c.parseNotification(raw)
		if !ok {
			continue
		}
		handler(n)
	}
}

// parseNotification extracts (account, bytes, slot) from a programNotification
// message. Subscription acks and unrelated frames return ok=false.
func (c *WSClient) parseNotification(raw []byte) (Notification, bool) {
	var msg struct {
		Method string `json:"method"`
		Params struct {
			Result struct {
				Context struct {
					Slot uint64 `json:"slot"`
				} `json:"context"`
				Value struct {
					Pubkey  string           `json:"pubkey"`
					Account *rpc.AccountValue `json:"account"`
				} `json:"value"`
			} `json:"result"`
		} `json:"params"`
	}

	if err := json.Unmarshal(raw, &msg); err != nil {
		c.logger.WithError(err).Debug("skipping unparseable frame")
		return Notification{}, false
	}
	if msg.Method != "programNotification" {
		return Notification{}, false
	}

	data, err := rpc.DecodeAccount(msg.Params.Result.Value.Account)
	if err != nil {
		c.logger.WithError(err).WithField("account", msg.Params.Result.Value.Pubkey).
			Warn("skipping notification with bad account data")
		return Notification{}, false
	}

	return Notification{
		Account: msg.Params.Result.Value.Pubkey,
		Data:    data,
		Slot:    msg.Params.Result.Context.Slot,
	}, true
}
