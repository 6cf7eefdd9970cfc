package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/dashboard"
)

// DashboardHandler handles HTTP requests for dashboard aggregation.
type DashboardHandler struct {
	*BaseHandler
	aggregator *dashboard.Aggregator
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(base *BaseHandler, aggregator *dashboard.Aggregator) *DashboardHandler {
	return &DashboardHandler{BaseHandler: base, aggregator: aggregator}
}

// PeriodReport handles GET /dashboard?period=YYYY-MM
// period defaults to the current month.
func (h *DashboardHandler) PeriodReport(c *gin.Context) {
	now := time.Now().UTC()
	period := types.PeriodOf(now)

	if pStr := c.Query("period"); pStr != "" {
		parsed, err := types.ParsePeriod(pStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid period, expected YYYY-MM"))
			return
		}
		period = parsed
	}

	report, err := h.aggregator.PeriodReport(c.Request.Context(), period, now)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}

// RegisterRoutes registers dashboard routes.
func (h *DashboardHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.PeriodReport)
}
