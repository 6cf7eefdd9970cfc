package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/stock"
)

// StockHandler handles HTTP requests for derived stock levels.
type StockHandler struct {
	*BaseHandler
	projector *stock.Projector
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, projector *stock.Projector) *StockHandler {
	return &StockHandler{BaseHandler: base, projector: projector}
}

// GetLevel handles GET /stock/:productId
func (h *StockHandler) GetLevel(c *gin.Context) {
	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	// Optional asOf snapshot date
	if asOfStr := c.Query("asOf"); asOfStr != "" {
		asOf, err := time.Parse("2006-01-02", asOfStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid asOf, expected YYYY-MM-DD"))
			return
		}
		qty, err := h.projector.StockAsOf(c.Request.Context(), productID, asOf)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, gin.H{
			"productId": productID.String(),
			"asOf":      asOfStr,
			"quantity":  qty,
		})
		return
	}

	level, err := h.projector.Level(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, level)
}

// RegisterRoutes registers stock projection routes.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:productId", h.GetLevel)
}
