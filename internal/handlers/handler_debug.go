package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/holdwatch/valuation_backend/internal/dto"
	"github.com/holdwatch/valuation_backend/internal/platform/config"
)

// registerDebugRoutes exposes build metadata. Kept outside /api/v1 so probes
// and dashboards can hit it without versioned paths.
func registerDebugRoutes(r *gin.Engine, cfg *config.Config) {
	debug := r.Group("/debug")
	{
		debug.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, dto.VersionResponse{
				Version:       cfg.AppVersion,
				MarketEnabled: cfg.MarketEnable,
			})
		})
	}
}
