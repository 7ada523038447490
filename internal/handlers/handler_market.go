package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/holdwatch/valuation_backend/internal/apperrors"
	portssvc "github.com/holdwatch/valuation_backend/internal/core/ports/services"
	"github.com/holdwatch/valuation_backend/internal/dto"
	"github.com/holdwatch/valuation_backend/internal/middleware"
	"github.com/ulule/limiter/v3"
)

// marketHandler exposes the aggregator and metal spot endpoints for
// diagnostics; neither writes anything.
type marketHandler struct {
	quoteService portssvc.QuoteSvcFacade
	metalService portssvc.MetalSvcFacade
}

func newMarketHandler(qs portssvc.QuoteSvcFacade, ms portssvc.MetalSvcFacade) *marketHandler {
	return &marketHandler{
		quoteService: qs,
		metalService: ms,
	}
}

func registerMarketRoutes(rg *gin.RouterGroup, qs portssvc.QuoteSvcFacade, ms portssvc.MetalSvcFacade, refreshLimiter *limiter.Limiter) {
	h := newMarketHandler(qs, ms)

	market := rg.Group("/market")
	{
		market.POST("/probe", middleware.RateLimit(refreshLimiter), h.probeMarket)
	}

	metals := rg.Group("/metals")
	{
		metals.GET("/gold", h.getGoldSpot)
	}
}

// probeMarket runs one aggregation pass and returns every contributing quote
// without touching holdings or valuations.
func (h *marketHandler) probeMarket(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.MarketProbeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for market probe", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger = logger.With(slog.String("ticker", req.Ticker), slog.String("exchange", req.Exchange))
	logger.Info("Received market probe request")

	resp, err := h.quoteService.ProbeMarket(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Invalid probe input", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNoQuoteAvailable):
			logger.Error("No provider returned a usable quote")
			c.JSON(http.StatusBadGateway, gin.H{"error": "No provider returned a usable quote"})
		default:
			logger.Error("Market probe failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Market probe failed"})
		}
		return
	}

	logger.Info("Market probe completed", slog.Float64("confidence", resp.Confidence))
	c.JSON(http.StatusOK, resp)
}

func (h *marketHandler) getGoldSpot(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	resp, err := h.metalService.GetGoldSpot(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrFeatureDisabled):
			logger.Warn("Gold spot rejected, live market data is disabled")
			c.JSON(http.StatusForbidden, gin.H{"error": "Live market data is disabled"})
		case errors.Is(err, apperrors.ErrUpstreamFetch):
			logger.Error("Gold spot upstream unavailable", slog.String("error", err.Error()))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream market data unavailable"})
		default:
			logger.Error("Failed to get gold spot", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve gold spot"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}
