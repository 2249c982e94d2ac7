package server

import (
	"context"
	"encoding/binary"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/tradertony/snipe-agent/internal/constants"
	"github.com/tradertony/snipe-agent/internal/models"
	"github.com/tradertony/snipe-agent/internal/monitor"
	"github.com/tradertony/snipe-agent/internal/raydium"
	"github.com/tradertony/snipe-agent/internal/risk"
	"github.com/tradertony/snipe-agent/internal/rpc"
	"github.com/tradertony/snipe-agent/internal/sniper"
	"github.com/tradertony/snipe-agent/internal/wallet"
)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Manager  *sniper.Manager        // Snipe lifecycle command surface
	Monitor  *monitor.Monitor       // Discovery and per-token watches
	Analyzer *risk.Analyzer         // On-demand risk assessment
	Wallet   *wallet.Wallet         // Operator wallet
	Resolver *raydium.Resolver      // Pool lookups for token info
	Chain    *rpc.Client            // Raw account reads (mint supply)
	Prices   monitor.SOLPriceSource // SOL/USD for valuations
	AppCtx   context.Context        // Process lifetime; snipes outlive their request
	DevMode  bool                   // Enable detailed error responses in development
	Logger   *logrus.Logger         // Structured logger
}

// err returns a standardized JSON error response. In dev mode, includes
// additional error details for debugging.
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// WalletInfo returns the operator wallet address and SOL balance.
func (h *Handlers) WalletInfo(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	balance, err := h.Wallet.GetBalanceSOL(ctx)
	if err != nil {
		return h.err(c, http.StatusBadGateway, "failed to read wallet balance", err.Error())
	}
	return c.JSON(http.StatusOK, WalletResponse{
		Address:    h.Wallet.Address(),
		BalanceSOL: balance,
	})
}

// SetupSnipe validates the snipe config, arms a controller, and returns the
// initial lifecycle view.
func (h *Handlers) SetupSnipe(c echo.Context) error {
	var cfg sniper.Config
	if err := c.Bind(&cfg); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	// A snipe lives until it settles or the process stops, never until the
	// HTTP request ends.
	appCtx := h.AppCtx
	if appCtx == nil {
		appCtx = context.Background()
	}
	ctrl, err := h.Manager.SetupSnipe(appCtx, cfg)
	if err != nil {
		var ve *models.ValidationError
		switch {
		case errors.As(err, &ve):
			return h.err(c, http.StatusBadRequest, "invalid snipe config", ve.Error())
		case errors.Is(err, sniper.ErrAlreadyActive):
			return h.err(c, http.StatusConflict, "snipe already active for token", nil)
		default:
			return h.err(c, http.StatusInternalServerError, "failed to set up snipe", err.Error())
		}
	}

	return c.JSON(http.StatusCreated, SnipeResponse{
		Token:  cfg.Token,
		State:  ctrl.State(),
		Reason: ctrl.Reason(),
	})
}

// SnipeStatus returns the lifecycle state for a token's snipe.
func (h *Handlers) SnipeStatus(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		return h.err(c, http.StatusBadRequest, "invalid token", nil)
	}

	ctrl := h.Manager.Get(token)
	if ctrl == nil {
		return h.err(c, http.StatusNotFound, "no snipe for token", nil)
	}

	return c.JSON(http.StatusOK, SnipeResponse{
		Token:    token,
		State:    ctrl.State(),
		Reason:   ctrl.Reason(),
		Position: ctrl.Position(),
	})
}

// CancelSnipe requests cooperative cancellation of a token's snipe.
func (h *Handlers) CancelSnipe(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		return h.err(c, http.StatusBadRequest, "invalid token", nil)
	}

	cancelled := h.Manager.Cancel(token)
	if !cancelled {
		return h.err(c, http.StatusNotFound, "no cancellable snipe for token", nil)
	}
	return c.JSON(http.StatusOK, CancelResponse{Token: token, Cancelled: true})
}

// StartWatch spawns a per-token sampling task. The body may override the
// default thresholds; zero values keep the defaults.
func (h *Handlers) StartWatch(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		return h.err(c, http.StatusBadRequest, "invalid token", nil)
	}

	th := monitor.DefaultThresholds()
	var req WatchRequest
	if err := c.Bind(&req); err == nil {
		if req.PricePct > 0 {
			th.PricePct = req.PricePct
		}
		if req.LiquidityPct > 0 {
			th.LiquidityPct = req.LiquidityPct
		}
		if req.VolumePct > 0 {
			th.VolumePct = req.VolumePct
		}
	}

	if !h.Monitor.StartWatch(token, th) {
		return h.err(c, http.StatusConflict, "watch already running for token", nil)
	}
	return c.JSON(http.StatusCreated, WatchResponse{Token: token, Active: true})
}

// StopWatch cancels a per-token sampling task.
func (h *Handlers) StopWatch(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		return h.err(c, http.StatusBadRequest, "invalid token", nil)
	}

	if !h.Monitor.StopWatch(token) {
		return h.err(c, http.StatusNotFound, "no watch running for token", nil)
	}
	return c.JSON(http.StatusOK, WatchResponse{Token: token, Active: false})
}

// RecentAlerts returns the most recent watch alerts, newest first.
// Accepts limit query parameter (default: 100, range: 1-100).
func (h *Handlers) RecentAlerts(c echo.Context) error {
	limitStr := c.QueryParam("limit")
	limit := 100
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > 100 {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 100"})
	}

	items := h.Monitor.GetRecentAlerts(limit)
	return c.JSON(http.StatusOK, AlertsResponse{Items: items})
}

// TokenInfo reports the pool-derived view of a token: price, liquidity, and
// an estimated market value from the mint supply.
func (h *Handlers) TokenInfo(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		return h.err(c, http.StatusBadRequest, "invalid token", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	pool, err := h.Resolver.FindPoolByToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNoPoolFound) {
			return h.err(c, http.StatusNotFound, "no pool for token", nil)
		}
		return h.err(c, http.StatusBadGateway, "pool lookup failed", err.Error())
	}

	price := raydium.Price(pool.State)
	solUSD := h.Prices.SOLPriceUSD(ctx)
	quoteSOL := float64(pool.State.QuoteReserve) / constants.LamportsPerSOL

	info := TokenInfoResponse{
		Token:        token,
		Pool:         pool.Address,
		PriceSOL:     price,
		PriceUSD:     price * solUSD,
		LiquidityUSD: quoteSOL * solUSD * 2,
	}

	// Best-effort: a token trades fine without a readable mint account.
	if supply, err := h.mintSupply(ctx, token); err == nil && supply > 0 {
		info.MarketCapUSD = float64(supply) * price / constants.LamportsPerSOL * solUSD
	}

	return c.JSON(http.StatusOK, info)
}

// mintSupply reads the total supply from the SPL mint account layout.
func (h *Handlers) mintSupply(ctx context.Context, mint string) (uint64, error) {
	data, err := h.Chain.GetAccountData(ctx, mint)
	if err != nil {
		return 0, err
	}
	if len(data) < 44 {
		return 0, errors.New("mint account too short")
	}
	return binary.LittleEndian.Uint64(data[36:44]), nil
}

// AnalyzeRisk runs the full risk assessment for a token on demand.
func (h *Handlers) AnalyzeRisk(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		return h.err(c, http.StatusBadRequest, "invalid token", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	assessment, err := h.Analyzer.Analyze(ctx, token)
	if err != nil {
		h.Logger.WithError(err).WithField("token", token).Warn("risk analysis failed")
		return h.err(c, http.StatusBadGateway, "risk analysis failed", err.Error())
	}
	return c.JSON(http.StatusOK, assessment)
}
