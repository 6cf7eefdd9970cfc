package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/movement"
	"stockbook/internal/infrastructure/http/v1/dto"
	"stockbook/internal/infrastructure/storage/postgres"
)

// MovementHandler handles HTTP requests for the movement ledger.
type MovementHandler struct {
	*BaseHandler
	service *movement.Service
	audit   *postgres.AuditService
}

// NewMovementHandler creates a new ledger handler. audit may be nil.
func NewMovementHandler(base *BaseHandler, service *movement.Service, audit *postgres.AuditService) *MovementHandler {
	return &MovementHandler{BaseHandler: base, service: service, audit: audit}
}

// Append handles POST /movements
func (h *MovementHandler) Append(c *gin.Context) {
	var req dto.AppendMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := req.ToMovement()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Append(c.Request.Context(), m); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, m.ID.String())
}

// Edit handles PATCH /movements/:id
func (h *MovementHandler) Edit(c *gin.Context) {
	movementID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.EditMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	changes, err := req.ToChanges()
	if err != nil {
		h.Error(c, err)
		return
	}

	updated, err := h.service.Edit(c.Request.Context(), movementID, changes)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMovement(*updated))
}

// Delete handles DELETE /movements/:id
func (h *MovementHandler) Delete(c *gin.Context) {
	movementID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), movementID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Get handles GET /movements/:id
func (h *MovementHandler) Get(c *gin.Context) {
	movementID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	m, err := h.service.GetByID(c.Request.Context(), movementID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMovement(*m))
}

// List handles GET /movements
func (h *MovementHandler) List(c *gin.Context) {
	filter := movement.Filter{
		LotOnly: c.Query("lotOnly") == "true",
		Limit:   h.ParseIntQuery(c, "limit", 100),
		Offset:  h.ParseIntQuery(c, "offset", 0),
	}

	if pStr := c.Query("productId"); pStr != "" {
		parsed, err := id.Parse(pStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format"))
			return
		}
		filter.ProductID = &parsed
	}

	if kStr := c.Query("kind"); kStr != "" {
		kind := movement.Kind(kStr)
		if !kind.Valid() {
			h.Error(c, apperror.NewValidation("unknown movement kind").WithDetail("kind", kStr))
			return
		}
		filter.Kind = &kind
	}

	if pStr := c.Query("period"); pStr != "" {
		period, err := types.ParsePeriod(pStr)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid period, expected YYYY-MM"))
			return
		}
		filter.Period = &period
	}

	if fromStr := c.Query("dateFrom"); fromStr != "" {
		if parsed, err := time.Parse("2006-01-02", fromStr); err == nil {
			filter.DateFrom = &parsed
		}
	}
	if toStr := c.Query("dateTo"); toStr != "" {
		if parsed, err := time.Parse("2006-01-02", toStr); err == nil {
			filter.DateTo = &parsed
		}
	}

	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromMovements(items),
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// History handles GET /movements/:id/history
func (h *MovementHandler) History(c *gin.Context) {
	movementID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if h.audit == nil {
		h.OK(c, gin.H{"items": []any{}})
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)
	entries, err := h.audit.MovementHistory(c.Request.Context(), movementID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": entries})
}

// RegisterRoutes registers ledger routes.
func (h *MovementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Append)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Edit)
	rg.DELETE("/:id", h.Delete)
	rg.GET("/:id/history", h.History)
}
