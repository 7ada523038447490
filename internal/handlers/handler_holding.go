package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/holdwatch/valuation_backend/internal/apperrors"
	portssvc "github.com/holdwatch/valuation_backend/internal/core/ports/services"
	"github.com/holdwatch/valuation_backend/internal/middleware"
)

// holdingHandler serves the read-only holdings view.
type holdingHandler struct {
	holdingService portssvc.HoldingSvcFacade
}

func newHoldingHandler(hs portssvc.HoldingSvcFacade) *holdingHandler {
	return &holdingHandler{holdingService: hs}
}

func registerHoldingRoutes(rg *gin.RouterGroup, hs portssvc.HoldingSvcFacade) {
	h := newHoldingHandler(hs)

	holdings := rg.Group("/holdings")
	{
		holdings.GET("", h.listHoldings)
		holdings.GET("/:holdingID", h.getHolding)
	}
}

func (h *holdingHandler) listHoldings(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	holdings, err := h.holdingService.ListHoldings(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list holdings", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list holdings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"holdings": holdings})
}

func (h *holdingHandler) getHolding(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	holdingID := c.Param("holdingID")

	holding, err := h.holdingService.GetHoldingByID(c.Request.Context(), holdingID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Holding not found", slog.String("holding_id", holdingID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Holding not found"})
		} else {
			logger.Error("Failed to get holding", slog.String("holding_id", holdingID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve holding"})
		}
		return
	}

	c.JSON(http.StatusOK, holding)
}
