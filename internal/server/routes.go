package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	e.HTTPErrorHandler = NotFoundJSON()

	e.Use(SetJSONContentType)
	e.Use(SetNoCacheHeaders)

	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)
	v1.GET("/wallet", h.WalletInfo)

	// Snipe lifecycle
	snipes := v1.Group("/snipes")
	snipes.POST("", h.SetupSnipe)
	snipes.GET("/:token", h.SnipeStatus)
	snipes.DELETE("/:token", h.CancelSnipe)

	// Token watches and alerts
	v1.POST("/watch/:token", h.StartWatch)
	v1.DELETE("/watch/:token", h.StopWatch)
	v1.GET("/alerts", h.RecentAlerts)

	// Pool-derived token lookup
	v1.GET("/tokens/:token", h.TokenInfo)

	// Risk analysis runs live RPC checks; keep request rates bounded.
	riskGroup := v1.Group("/risk")
	riskGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(1),
		Burst:     3,
		ExpiresIn: 2 * time.Minute,
	})))
	riskGroup.GET("/:token", h.AnalyzeRisk)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
