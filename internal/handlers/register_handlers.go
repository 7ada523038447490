package handlers

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	portssvc "github.com/holdwatch/valuation_backend/internal/core/ports/services"
	"github.com/holdwatch/valuation_backend/internal/platform/config"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	r.Use(cors.Default())

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	registerDebugRoutes(r, cfg)

	setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1")

	// Refresh and probe reach scraping upstreams, so they share one limiter.
	refreshLimiter := buildRefreshLimiter(cfg)

	registerHoldingRoutes(v1, services.Holding)
	registerValuationRoutes(v1, services.Valuation, services.Trace, refreshLimiter)
	registerMarketRoutes(v1, services.Quote, services.Metal, refreshLimiter)
}

func buildRefreshLimiter(cfg *config.Config) *limiter.Limiter {
	rate, err := limiter.NewRateFromFormatted(cfg.RefreshRateLimit)
	if err != nil {
		slog.Warn("Invalid REFRESH_RATE_LIMIT, using default",
			slog.String("value", cfg.RefreshRateLimit), slog.String("error", err.Error()))
		rate = limiter.Rate{Period: time.Minute, Limit: 30}
	}
	return limiter.New(memory.NewStore(), rate)
}
