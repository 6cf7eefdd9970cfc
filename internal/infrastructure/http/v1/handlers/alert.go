package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/internal/domain/alert"
)

// AlertHandler handles HTTP requests for the alert engine.
type AlertHandler struct {
	*BaseHandler
	engine *alert.Engine
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(base *BaseHandler, engine *alert.Engine) *AlertHandler {
	return &AlertHandler{BaseHandler: base, engine: engine}
}

// Summary handles GET /alerts
// now defaults to the current time; tests and reports may pin it.
func (h *AlertHandler) Summary(c *gin.Context) {
	now := time.Now().UTC()
	if nowStr := c.Query("now"); nowStr != "" {
		parsed, err := time.Parse("2006-01-02", nowStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid now, expected YYYY-MM-DD"))
			return
		}
		now = parsed
	}

	summary, err := h.engine.Summary(c.Request.Context(), now)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}

// RegisterRoutes registers alert routes.
func (h *AlertHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Summary)
}
