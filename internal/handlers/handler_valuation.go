package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/holdwatch/valuation_backend/internal/apperrors"
	portssvc "github.com/holdwatch/valuation_backend/internal/core/ports/services"
	"github.com/holdwatch/valuation_backend/internal/middleware"
	"github.com/ulule/limiter/v3"
)

// valuationHandler handles the refresh pipeline and fallback trace endpoints.
type valuationHandler struct {
	valuationService portssvc.ValuationSvcFacade
	traceService     portssvc.TraceSvcFacade
}

func newValuationHandler(vs portssvc.ValuationSvcFacade, ts portssvc.TraceSvcFacade) *valuationHandler {
	return &valuationHandler{
		valuationService: vs,
		traceService:     ts,
	}
}

// registerValuationRoutes registers the refresh and trace routes under /holdings.
func registerValuationRoutes(rg *gin.RouterGroup, vs portssvc.ValuationSvcFacade, ts portssvc.TraceSvcFacade, refreshLimiter *limiter.Limiter) {
	h := newValuationHandler(vs, ts)

	holdings := rg.Group("/holdings")
	{
		holdings.POST("/:holdingID/refresh", middleware.RateLimit(refreshLimiter), h.refreshValuation)
		holdings.GET("/:holdingID/valuations", h.listValuations)
		holdings.GET("/:holdingID/trace", h.traceHolding)
	}
}

// refreshValuation runs the live refresh pipeline for one holding: fetch a
// quote, convert to the home currency, persist the valuation snapshot.
func (h *valuationHandler) refreshValuation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	holdingID := c.Param("holdingID")

	logger = logger.With(slog.String("holding_id", holdingID))
	logger.Info("Received request to refresh valuation")

	resp, err := h.valuationService.RefreshValuation(c.Request.Context(), holdingID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrFeatureDisabled):
			logger.Warn("Refresh rejected, live market data is disabled")
			c.JSON(http.StatusForbidden, gin.H{"error": "Live market data is disabled"})
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Holding not found")
			c.JSON(http.StatusNotFound, gin.H{"error": "Holding not found"})
		case errors.Is(err, apperrors.ErrHoldingNotEligible):
			logger.Warn("Holding is not eligible for live refresh", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrInvalidValuationInput):
			logger.Warn("Refresh produced invalid valuation inputs", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNoQuoteAvailable), errors.Is(err, apperrors.ErrUpstreamFetch):
			logger.Error("Upstream market data unavailable", slog.String("error", err.Error()))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream market data unavailable"})
		default:
			logger.Error("Failed to refresh valuation", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh valuation"})
		}
		return
	}

	logger.Info("Valuation refreshed successfully",
		slog.Int64("valuation_id", resp.PersistedValuationID),
		slog.Float64("confidence", resp.Confidence))
	c.JSON(http.StatusOK, resp)
}

// listValuations returns a holding's valuation history, newest first.
func (h *valuationHandler) listValuations(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	holdingID := c.Param("holdingID")

	logger = logger.With(slog.String("holding_id", holdingID))
	logger.Info("Received request to list valuations")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		logger.Warn("Invalid limit query parameter", slog.String("limit", c.Query("limit")))
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	valuations, err := h.valuationService.ListValuationHistory(c.Request.Context(), holdingID, limit)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Holding not found")
			c.JSON(http.StatusNotFound, gin.H{"error": "Holding not found"})
		} else {
			logger.Error("Failed to list valuations", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list valuations"})
		}
		return
	}

	logger.Info("Valuations listed", slog.Int("count", len(valuations)))
	c.JSON(http.StatusOK, gin.H{"valuations": valuations})
}

// traceHolding explains which fallback branch supplies the displayed unit
// price for a holding. It never contacts upstream providers.
func (h *valuationHandler) traceHolding(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	holdingID := c.Param("holdingID")

	logger = logger.With(slog.String("holding_id", holdingID))
	logger.Info("Received request to trace holding valuation")

	resp, err := h.traceService.TraceHolding(c.Request.Context(), holdingID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Holding not found")
			c.JSON(http.StatusNotFound, gin.H{"error": "Holding not found"})
		} else {
			logger.Error("Failed to trace holding", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trace holding"})
		}
		return
	}

	logger.Info("Holding trace computed", slog.String("branch", resp.Branch))
	c.JSON(http.StatusOK, resp)
}
