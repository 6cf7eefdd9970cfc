package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/lot"
)

// LotHandler handles HTTP requests for derived lot state.
type LotHandler struct {
	*BaseHandler
	tracker *lot.Tracker
}

// NewLotHandler creates a new lot handler.
func NewLotHandler(base *BaseHandler, tracker *lot.Tracker) *LotHandler {
	return &LotHandler{BaseHandler: base, tracker: tracker}
}

// List handles GET /lots/:productId
// availableOnly=true returns only allocatable lots in FEFO order.
func (h *LotHandler) List(c *gin.Context) {
	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	ctx := c.Request.Context()
	var lots []lot.Lot
	if c.Query("availableOnly") == "true" {
		lots, err = h.tracker.AvailableLots(ctx, productID)
	} else {
		lots, err = h.tracker.Lots(ctx, productID)
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": lots})
}

// Remaining handles GET /lots/:productId/:lotNumber
func (h *LotHandler) Remaining(c *gin.Context) {
	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	lotNumber := c.Param("lotNumber")
	remaining, err := h.tracker.Remaining(c.Request.Context(), productID, lotNumber)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"productId": productID.String(),
		"lotNumber": lotNumber,
		"remaining": remaining,
	})
}

// RegisterRoutes registers lot routes.
func (h *LotHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:productId", h.List)
	rg.GET("/:productId/:lotNumber", h.Remaining)
}
